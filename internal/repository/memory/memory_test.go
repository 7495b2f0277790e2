package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evgeniy-krivenko/notes-sync/internal/entity"
	"github.com/evgeniy-krivenko/notes-sync/internal/repository/memory"
)

func put(t *testing.T, r *memory.Repo, id string, updatedAt time.Time) {
	t.Helper()

	note := entity.NewRemoteNote("anonymous", entity.Note{ID: id, Title: id, UpdatedAt: updatedAt}, updatedAt)
	require.NoError(t, r.PutNote(context.Background(), note))
}

func TestRepo_PutKeepsNewerAndDeletion(t *testing.T) {
	r := memory.New()
	ctx := context.Background()
	ts := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	put(t, r, "n1", ts)
	_, err := r.SoftDeleteNote(ctx, "anonymous", "n1", ts.Add(time.Hour))
	require.NoError(t, err)

	put(t, r, "n1", ts.Add(-time.Minute))
	put(t, r, "n1", ts.Add(time.Minute))

	got, err := r.GetNote(ctx, "anonymous", "n1")
	require.NoError(t, err)
	assert.Equal(t, ts.Add(time.Minute), got.UpdatedAt)
	assert.NotNil(t, got.DeletedAt, "put must not resurrect a soft-deleted note")
	assert.Equal(t, 1, r.Len())
}

func TestRepo_BatchDelete(t *testing.T) {
	r := memory.New()
	ctx := context.Background()
	now := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)

	put(t, r, "a", now)
	put(t, r, "b", now)
	_, err := r.SoftDeleteNote(ctx, "anonymous", "a", now.Add(-time.Second))
	require.NoError(t, err)

	expired, err := r.ListExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, []entity.NoteKey{{UserID: "anonymous", NoteID: "a"}}, expired)

	unprocessed, err := r.BatchDelete(ctx, []entity.NoteKey{
		{UserID: "anonymous", NoteID: "a"},
		{UserID: "anonymous", NoteID: "b"},
	}, now)
	require.NoError(t, err)
	assert.Equal(t, []entity.NoteKey{{UserID: "anonymous", NoteID: "b"}}, unprocessed)
	assert.Equal(t, 1, r.Len())

	_, err = r.BatchDelete(ctx, make([]entity.NoteKey, 26), now)
	require.Error(t, err)
}

func TestRepo_ReadsAreDetached(t *testing.T) {
	r := memory.New()
	ctx := context.Background()
	ts := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	note := entity.NewRemoteNote("anonymous", entity.Note{ID: "n1", Title: "n1", Tags: []string{"go"}, UpdatedAt: ts}, ts)
	require.NoError(t, r.PutNote(ctx, note))

	got, err := r.GetNote(ctx, "anonymous", "n1")
	require.NoError(t, err)
	got.Tags[0] = "changed"

	listed, err := r.ListNotes(ctx, "anonymous", entity.NoteFilter{})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, []string{"go"}, listed[0].Tags)
	listed[0].Tags[0] = "changed"

	again, err := r.GetNote(ctx, "anonymous", "n1")
	require.NoError(t, err)
	assert.Equal(t, []string{"go"}, again.Tags)
}
