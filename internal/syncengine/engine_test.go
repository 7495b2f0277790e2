package syncengine_test

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evgeniy-krivenko/notes-sync/internal/connectivity"
	"github.com/evgeniy-krivenko/notes-sync/internal/entity"
	"github.com/evgeniy-krivenko/notes-sync/internal/localstore"
	"github.com/evgeniy-krivenko/notes-sync/internal/syncengine"
)

var base = time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.t
}

func (c *clock) set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.t = t
}

type env struct {
	engine *syncengine.Engine
	local  *localstore.Store
	remote *fakeRemote
	conn   *connectivity.Observer
	clock  *clock
}

func setup(t *testing.T, online bool) *env {
	t.Helper()

	c := &clock{t: base}
	local, err := localstore.Open(t.Context(), filepath.Join(t.TempDir(), "notes.db"), localstore.WithClock(c.now))
	require.NoError(t, err)
	t.Cleanup(func() { _ = local.Close() })

	remote := newFakeRemote()
	conn := connectivity.NewObserver(online)

	engine, err := syncengine.New(syncengine.NewOptions(local, remote, conn, syncengine.WithClock(c.now)))
	require.NoError(t, err)

	return &env{engine: engine, local: local, remote: remote, conn: conn, clock: c}
}

func TestNew_Validate(t *testing.T) {
	_, err := syncengine.New(syncengine.NewOptions(nil, nil, nil))
	require.Error(t, err)
}

func TestDecide(t *testing.T) {
	local := entity.Note{ID: "a", UpdatedAt: base}

	cases := []struct {
		name   string
		local  *entity.Note
		remote time.Time
		want   syncengine.Decision
	}{
		{name: "no local copy", local: nil, remote: base, want: syncengine.DecisionImport},
		{name: "remote strictly newer", local: &local, remote: base.Add(time.Nanosecond), want: syncengine.DecisionOverwrite},
		{name: "tie keeps local", local: &local, remote: base, want: syncengine.DecisionKeepLocal},
		{name: "local newer", local: &local, remote: base.Add(-time.Second), want: syncengine.DecisionKeepLocal},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := syncengine.Decide(tc.local, entity.Note{ID: "a", UpdatedAt: tc.remote})
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestOnNoteChanged_Online(t *testing.T) {
	e := setup(t, true)
	ctx := t.Context()

	saved, err := e.engine.OnNoteChanged(ctx, entity.Note{ID: "n1", Title: "A", Content: "x"})
	require.NoError(t, err)
	assert.True(t, saved.Synced)

	local, err := e.local.Get(ctx, "n1")
	require.NoError(t, err)
	assert.True(t, local.Synced)
	assert.True(t, local.UpdatedAt.Equal(base))

	remote, ok := e.remote.get("n1")
	require.True(t, ok)
	assert.Equal(t, "x", remote.Content)
	assert.Equal(t, syncengine.StatusOnline, e.engine.Status())
}

func TestOnNoteChanged_RemoteFailureIsSwallowed(t *testing.T) {
	e := setup(t, true)
	ctx := t.Context()
	e.remote.setDown(true)

	saved, err := e.engine.OnNoteChanged(ctx, entity.Note{ID: "n1", Title: "A"})
	require.NoError(t, err)
	assert.False(t, saved.Synced)

	local, err := e.local.Get(ctx, "n1")
	require.NoError(t, err)
	assert.False(t, local.Synced)
}

func TestOnNoteChanged_Invalid(t *testing.T) {
	e := setup(t, true)

	_, err := e.engine.OnNoteChanged(t.Context(), entity.Note{ID: "n1"})
	require.ErrorIs(t, err, entity.ErrMissingFields)

	_, err = e.local.Get(t.Context(), "n1")
	require.ErrorIs(t, err, entity.ErrNoteNotFound)
}

func TestOfflineEditThenReconnect(t *testing.T) {
	e := setup(t, false)
	ctx := t.Context()

	saved, err := e.engine.OnNoteChanged(ctx, entity.Note{ID: "n1", Title: "A", Content: "offline"})
	require.NoError(t, err)
	assert.False(t, saved.Synced)
	assert.Equal(t, 0, e.remote.puts)

	e.conn.Set(true)
	report, err := e.engine.OnConnectivityRestored(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Push.Pushed)
	assert.Empty(t, report.Push.Failed)

	local, err := e.local.Get(ctx, "n1")
	require.NoError(t, err)
	assert.True(t, local.Synced)

	remote, ok := e.remote.get("n1")
	require.True(t, ok)
	assert.Equal(t, "offline", remote.Content)
}

func TestPullAndMerge(t *testing.T) {
	cases := []struct {
		name        string
		localAt     time.Time
		remoteAt    time.Time
		wantContent string
		wantSynced  bool
	}{
		{name: "local newer wins", localAt: base.Add(time.Minute), remoteAt: base, wantContent: "local", wantSynced: false},
		{name: "tie keeps local", localAt: base, remoteAt: base, wantContent: "local", wantSynced: false},
		{name: "remote newer wins", localAt: base, remoteAt: base.Add(time.Minute), wantContent: "remote", wantSynced: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := setup(t, false)
			ctx := t.Context()

			e.clock.set(tc.localAt)
			_, err := e.engine.OnNoteChanged(ctx, entity.Note{ID: "n1", Title: "T", Content: "local"})
			require.NoError(t, err)

			e.remote.seed(entity.Note{ID: "n1", Title: "T", Content: "remote", CreatedAt: base, UpdatedAt: tc.remoteAt})

			_, err = e.engine.PullAndMerge(ctx)
			require.NoError(t, err)

			got, err := e.local.Get(ctx, "n1")
			require.NoError(t, err)
			assert.Equal(t, tc.wantContent, got.Content)
			assert.Equal(t, tc.wantSynced, got.Synced)
		})
	}
}

func TestPullAndMerge_ImportAndIdempotence(t *testing.T) {
	e := setup(t, true)
	ctx := t.Context()

	e.remote.seed(entity.Note{ID: "a", Title: "A", CreatedAt: base, UpdatedAt: base, Tags: []string{"x"}})
	e.remote.seed(entity.Note{ID: "b", Title: "B", CreatedAt: base, UpdatedAt: base})

	report, err := e.engine.PullAndMerge(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Imported)

	before, err := e.engine.ListNotes(ctx, "")
	require.NoError(t, err)

	report, err = e.engine.PullAndMerge(ctx)
	require.NoError(t, err)
	assert.Equal(t, syncengine.MergeReport{KeptLocal: 2}, report)

	after, err := e.engine.ListNotes(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, before, after)

	for _, n := range after {
		assert.True(t, n.Synced)
	}
}

func TestPullFailureDoesNotBlockPush(t *testing.T) {
	e := setup(t, false)
	ctx := t.Context()

	_, err := e.engine.OnNoteChanged(ctx, entity.Note{ID: "n1", Title: "A"})
	require.NoError(t, err)

	e.remote.setDown(true)
	e.conn.Set(true)

	report, err := e.engine.OnConnectivityRestored(ctx)
	require.NoError(t, err)
	assert.True(t, report.PullFailed)
	assert.Equal(t, []string{"n1"}, report.Push.Failed)

	unsynced, err := e.local.GetUnsynced(ctx)
	require.NoError(t, err)
	assert.Len(t, unsynced, 1)
}

func TestOfflineDeleteIsFlushedOnReconnect(t *testing.T) {
	e := setup(t, true)
	ctx := t.Context()

	_, err := e.engine.OnNoteChanged(ctx, entity.Note{ID: "n1", Title: "A"})
	require.NoError(t, err)

	e.conn.Set(false)
	require.NoError(t, e.engine.DeleteNote(ctx, "n1"))
	assert.Equal(t, 0, e.remote.deletes)

	pending, err := e.local.PendingDeletes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"n1"}, pending)

	e.conn.Set(true)
	report, err := e.engine.OnConnectivityRestored(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Merge.Skipped, "pending delete must not be resurrected by the pull")
	assert.Equal(t, 1, report.Flush.Flushed)

	_, err = e.local.Get(ctx, "n1")
	require.ErrorIs(t, err, entity.ErrNoteNotFound)

	remote, ok := e.remote.get("n1")
	require.True(t, ok)
	assert.NotNil(t, remote.DeletedAt)

	pending, err = e.local.PendingDeletes(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestDeleteNote_Online(t *testing.T) {
	t.Run("never synced note clears tombstone", func(t *testing.T) {
		e := setup(t, true)
		ctx := t.Context()

		require.NoError(t, e.engine.DeleteNote(ctx, "ghost"))

		ok, err := e.local.HasPendingDelete(ctx, "ghost")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("transient failure keeps tombstone", func(t *testing.T) {
		e := setup(t, true)
		ctx := t.Context()

		_, err := e.engine.OnNoteChanged(ctx, entity.Note{ID: "n1", Title: "A"})
		require.NoError(t, err)

		e.remote.setDown(true)
		require.NoError(t, e.engine.DeleteNote(ctx, "n1"))

		ok, err := e.local.HasPendingDelete(ctx, "n1")
		require.NoError(t, err)
		assert.True(t, ok)

		e.remote.setDown(false)
		report, err := e.engine.FlushPendingDeletes(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, report.Flushed)
		assert.Empty(t, report.Pending)
	})
}

func TestRestoreNote(t *testing.T) {
	e := setup(t, false)
	ctx := t.Context()

	_, err := e.engine.RestoreNote(ctx, "n1")
	require.ErrorIs(t, err, entity.ErrOffline)

	e.conn.Set(true)
	_, err = e.engine.OnNoteChanged(ctx, entity.Note{ID: "n1", Title: "A"})
	require.NoError(t, err)
	require.NoError(t, e.engine.DeleteNote(ctx, "n1"))

	restored, err := e.engine.RestoreNote(ctx, "n1")
	require.NoError(t, err)
	assert.Equal(t, "A", restored.Title)
	assert.Nil(t, restored.DeletedAt)

	local, err := e.local.Get(ctx, "n1")
	require.NoError(t, err)
	assert.True(t, local.Synced)

	_, err = e.engine.RestoreNote(ctx, "n1")
	require.ErrorIs(t, err, entity.ErrNoteNotFound)
}

func TestApply(t *testing.T) {
	e := setup(t, false)
	ctx := t.Context()

	_, err := e.engine.OnNoteChanged(ctx, entity.Note{ID: "n1", Title: "A"})
	require.NoError(t, err)

	steps := []struct {
		cmd   syncengine.Command
		check func(t *testing.T, n entity.Note)
	}{
		{syncengine.SetContent{Content: "body"}, func(t *testing.T, n entity.Note) { assert.Equal(t, "body", n.Content) }},
		{syncengine.Rename{Title: "B"}, func(t *testing.T, n entity.Note) { assert.Equal(t, "B", n.Title) }},
		{syncengine.TogglePin{}, func(t *testing.T, n entity.Note) { assert.True(t, n.Pinned) }},
		{syncengine.ToggleFavorite{}, func(t *testing.T, n entity.Note) { assert.True(t, n.Favorite) }},
		{syncengine.AddTag{Tag: "go"}, func(t *testing.T, n entity.Note) { assert.Equal(t, []string{"go"}, n.Tags) }},
		{syncengine.AddTag{Tag: "go"}, func(t *testing.T, n entity.Note) { assert.Equal(t, []string{"go"}, n.Tags) }},
		{syncengine.RemoveTag{Tag: "go"}, func(t *testing.T, n entity.Note) { assert.Empty(t, n.Tags) }},
		{syncengine.TogglePin{}, func(t *testing.T, n entity.Note) { assert.False(t, n.Pinned) }},
	}

	for i, step := range steps {
		e.clock.set(base.Add(time.Duration(i+1) * time.Second))

		n, err := e.engine.Apply(ctx, "n1", step.cmd)
		require.NoError(t, err)
		assert.False(t, n.Synced)
		assert.True(t, n.UpdatedAt.Equal(base.Add(time.Duration(i+1)*time.Second)))
		step.check(t, n)
	}

	_, err = e.engine.Apply(ctx, "n1", syncengine.Rename{Title: ""})
	require.True(t, entity.IsValidation(err))

	_, err = e.engine.Apply(ctx, "missing", syncengine.TogglePin{})
	require.ErrorIs(t, err, entity.ErrNoteNotFound)

	_, err = e.engine.Apply(ctx, "n1", syncengine.Delete{})
	require.NoError(t, err)

	_, err = e.local.Get(ctx, "n1")
	require.ErrorIs(t, err, entity.ErrNoteNotFound)
}

func TestCreateNoteAndList(t *testing.T) {
	e := setup(t, false)
	ctx := t.Context()

	first, err := e.engine.CreateNote(ctx)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(first.ID, "note_"))
	assert.True(t, strings.HasPrefix(first.Title, "2025-04-01_"))

	e.clock.set(base.Add(time.Minute))
	second, err := e.engine.CreateNote(ctx)
	require.NoError(t, err)

	e.clock.set(base.Add(2 * time.Minute))
	_, err = e.engine.Apply(ctx, first.ID, syncengine.TogglePin{})
	require.NoError(t, err)

	e.clock.set(base.Add(3 * time.Minute))
	third, err := e.engine.CreateNote(ctx)
	require.NoError(t, err)

	notes, err := e.engine.ListNotes(ctx, "")
	require.NoError(t, err)
	require.Len(t, notes, 3)
	assert.Equal(t, first.ID, notes[0].ID)
	assert.Equal(t, third.ID, notes[1].ID)
	assert.Equal(t, second.ID, notes[2].ID)
}

func TestStatus(t *testing.T) {
	e := setup(t, true)
	ctx := t.Context()

	block := make(chan struct{})
	e.remote.mu.Lock()
	e.remote.block = block
	e.remote.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = e.engine.OnNoteChanged(ctx, entity.Note{ID: "n1", Title: "A"})
	}()

	require.Eventually(t, func() bool { return e.engine.Status() == syncengine.StatusSyncing }, time.Second, time.Millisecond)

	e.conn.Set(false)
	close(block)
	<-done

	assert.Equal(t, syncengine.StatusOffline, e.engine.Status(), "connectivity lost during a push")
}

func TestRun(t *testing.T) {
	e := setup(t, false)
	ctx, cancel := context.WithCancel(t.Context())

	_, err := e.engine.OnNoteChanged(ctx, entity.Note{ID: "n1", Title: "A"})
	require.NoError(t, err)

	statuses := e.engine.SubscribeStatus(ctx)

	done := make(chan error, 1)
	go func() { done <- e.engine.Run(ctx) }()

	e.conn.Set(true)

	require.Eventually(t, func() bool {
		n, err := e.local.Get(ctx, "n1")
		return err == nil && n.Synced
	}, 2*time.Second, 5*time.Millisecond)

	seen := map[syncengine.Status]bool{}
	timeout := time.After(2 * time.Second)
	for !seen[syncengine.StatusSyncing] || !seen[syncengine.StatusOnline] {
		select {
		case s := <-statuses:
			seen[s] = true
		case <-timeout:
			t.Fatalf("statuses seen: %v", seen)
		}
	}

	e.conn.Set(false)
	require.Eventually(t, func() bool { return e.engine.Status() == syncengine.StatusOffline }, time.Second, time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestStatus_FollowsConnectivityWithoutRun(t *testing.T) {
	e := setup(t, false)
	assert.Equal(t, syncengine.StatusOffline, e.engine.Status())

	e.conn.Set(true)
	assert.Equal(t, syncengine.StatusOnline, e.engine.Status())

	e.conn.Set(false)
	assert.Equal(t, syncengine.StatusOffline, e.engine.Status())
}

func TestPushUnsynced_Idempotent(t *testing.T) {
	e := setup(t, false)
	ctx := t.Context()

	for _, id := range []string{"a", "b", "c"} {
		_, err := e.engine.OnNoteChanged(ctx, entity.Note{ID: id, Title: strings.ToUpper(id)})
		require.NoError(t, err)
	}
	e.conn.Set(true)

	first, err := e.engine.PushUnsynced(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, first.Pushed)
	assert.Equal(t, 3, e.remote.puts)

	second, err := e.engine.PushUnsynced(ctx)
	require.NoError(t, err)
	assert.Equal(t, syncengine.PushReport{}, second)
	assert.Equal(t, 3, e.remote.puts, "nothing left to push")

	e.remote.mu.Lock()
	assert.Len(t, e.remote.notes, 3)
	e.remote.mu.Unlock()

	notes, err := e.engine.ListNotes(ctx, "")
	require.NoError(t, err)
	require.Len(t, notes, 3)
	for _, n := range notes {
		assert.True(t, n.Synced, n.ID)
	}
}

func TestPushUnsynced_RejectedIsReportedApart(t *testing.T) {
	e := setup(t, false)
	ctx := t.Context()

	for _, id := range []string{"good", "bad", "later"} {
		_, err := e.engine.OnNoteChanged(ctx, entity.Note{ID: id, Title: id})
		require.NoError(t, err)
	}

	e.remote.mu.Lock()
	e.remote.reject = map[string]bool{"bad": true}
	e.remote.mu.Unlock()
	e.conn.Set(true)

	report, err := e.engine.PushUnsynced(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Pushed)
	assert.Equal(t, []string{"bad"}, report.Rejected)
	assert.Empty(t, report.Failed)

	bad, err := e.local.Get(ctx, "bad")
	require.NoError(t, err)
	assert.False(t, bad.Synced)
}

func TestListNotes_Search(t *testing.T) {
	e := setup(t, false)
	ctx := t.Context()

	for id, title := range map[string]string{"a": "Groceries", "b": "Trip plan", "c": "grocery budget"} {
		_, err := e.engine.OnNoteChanged(ctx, entity.Note{ID: id, Title: title})
		require.NoError(t, err)
	}

	found, err := e.engine.ListNotes(ctx, "GROCER")
	require.NoError(t, err)

	ids := make([]string, 0, len(found))
	for _, n := range found {
		ids = append(ids, n.ID)
	}
	assert.ElementsMatch(t, []string{"a", "c"}, ids)

	none, err := e.engine.ListNotes(ctx, "monday")
	require.NoError(t, err)
	assert.Empty(t, none)
}
