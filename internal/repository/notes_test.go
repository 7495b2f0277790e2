package repository_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evgeniy-krivenko/notes-sync/internal/entity"
	"github.com/evgeniy-krivenko/notes-sync/internal/repository"
	"github.com/evgeniy-krivenko/notes-sync/pkg/database"
)

// newRepo connects to TEST_DATABASE_URL, migrates and empties the notes table.
func newRepo(t *testing.T) (*repository.Repo, *database.Database) {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL is not set")
	}

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	db := database.NewDatabase(pool)
	require.NoError(t, repository.Migrate(ctx, db))

	_, err = db.Exec(ctx, "TRUNCATE notes")
	require.NoError(t, err)

	return repository.New(db), db
}

func remoteNote(id string, updatedAt time.Time) entity.RemoteNote {
	return entity.NewRemoteNote("anonymous", entity.Note{
		ID:        id,
		Title:     "title " + id,
		Tags:      []string{"work"},
		CreatedAt: updatedAt,
		UpdatedAt: updatedAt,
	}, updatedAt)
}

func TestRepo_PutAndList(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()
	ts := time.Now().UTC().Truncate(time.Microsecond)

	require.NoError(t, repo.PutNote(ctx, remoteNote("n1", ts)))

	pinned := remoteNote("n2", ts)
	pinned.Pinned = true
	pinned.Tags = []string{"home"}
	require.NoError(t, repo.PutNote(ctx, pinned))

	all, err := repo.ListNotes(ctx, "anonymous", entity.NoteFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	yes := true
	onlyPinned, err := repo.ListNotes(ctx, "anonymous", entity.NoteFilter{Tag: "home", Pinned: &yes})
	require.NoError(t, err)
	require.Len(t, onlyPinned, 1)
	assert.Equal(t, "n2", onlyPinned[0].NoteID)

	none, err := repo.ListNotes(ctx, "anonymous", entity.NoteFilter{Tag: "work", Pinned: &yes})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRepo_PutIgnoresStaleWrite(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()
	ts := time.Now().UTC().Truncate(time.Microsecond)

	fresh := remoteNote("n1", ts)
	fresh.Title = "fresh"
	require.NoError(t, repo.PutNote(ctx, fresh))

	stale := remoteNote("n1", ts.Add(-time.Minute))
	stale.Title = "stale"
	require.NoError(t, repo.PutNote(ctx, stale))

	got, err := repo.GetNote(ctx, "anonymous", "n1")
	require.NoError(t, err)
	assert.Equal(t, "fresh", got.Title)
	assert.Equal(t, ts, got.UpdatedAt)
}

func TestRepo_SoftDeleteRestore(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()
	ts := time.Now().UTC().Truncate(time.Microsecond)

	_, err := repo.SoftDeleteNote(ctx, "anonymous", "missing", ts)
	require.ErrorIs(t, err, entity.ErrNoteNotFound)

	require.NoError(t, repo.PutNote(ctx, remoteNote("n1", ts)))

	_, err = repo.RestoreNote(ctx, "anonymous", "n1")
	require.ErrorIs(t, err, entity.ErrNoteNotFound, "live note cannot be restored")

	deletedAt, err := repo.SoftDeleteNote(ctx, "anonymous", "n1", ts.Add(7*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, ts.Add(7*24*time.Hour), deletedAt)

	list, err := repo.ListNotes(ctx, "anonymous", entity.NoteFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)

	got, err := repo.GetNote(ctx, "anonymous", "n1")
	require.NoError(t, err)
	require.NotNil(t, got.DeletedAt)

	restored, err := repo.RestoreNote(ctx, "anonymous", "n1")
	require.NoError(t, err)
	assert.Nil(t, restored.DeletedAt)

	list, err = repo.ListNotes(ctx, "anonymous", entity.NoteFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestRepo_ExpiredBatchDelete(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, repo.PutNote(ctx, remoteNote(id, now)))
	}
	_, err := repo.SoftDeleteNote(ctx, "anonymous", "a", now.Add(-time.Hour))
	require.NoError(t, err)
	_, err = repo.SoftDeleteNote(ctx, "anonymous", "b", now.Add(time.Hour))
	require.NoError(t, err)

	expired, err := repo.ListExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, []entity.NoteKey{{UserID: "anonymous", NoteID: "a"}}, expired)

	unprocessed, err := repo.BatchDelete(ctx, []entity.NoteKey{
		{UserID: "anonymous", NoteID: "a"},
		{UserID: "anonymous", NoteID: "c"},
	}, now)
	require.NoError(t, err)
	assert.Equal(t, []entity.NoteKey{{UserID: "anonymous", NoteID: "c"}}, unprocessed)

	_, err = repo.GetNote(ctx, "anonymous", "a")
	require.ErrorIs(t, err, entity.ErrNoteNotFound)
}

func TestRepo_BatchDeleteLimit(t *testing.T) {
	repo, _ := newRepo(t)

	keys := make([]entity.NoteKey, repository.MaxBatchDelete+1)
	_, err := repo.BatchDelete(context.Background(), keys, time.Now())
	require.Error(t, err)
}
