package syncengine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/evgeniy-krivenko/notes-sync/internal/entity"
	"github.com/evgeniy-krivenko/notes-sync/pkg/logger/slogx"
)

type MergeReport struct {
	Imported    int
	Overwritten int
	KeptLocal   int
	// Skipped counts remote notes with a pending local delete.
	Skipped int
}

type PushReport struct {
	Pushed int
	// Failed lists notes the remote store could not be reached for.
	Failed []string
	// Rejected lists notes the remote store refused as invalid.
	Rejected []string
}

type FlushReport struct {
	Flushed int
	Pending []string
}

type SyncReport struct {
	// PullFailed is set when the remote listing could not be fetched.
	PullFailed bool
	Merge      MergeReport
	Push       PushReport
	Flush      FlushReport
}

// OnConnectivityRestored pulls and merges, then pushes unsynced notes, then
// drains pending deletes, strictly in that order. Network failures are
// reflected in the report; only local failures are returned.
func (e *Engine) OnConnectivityRestored(ctx context.Context) (SyncReport, error) {
	e.reconcileMu.Lock()
	defer e.reconcileMu.Unlock()

	end := e.beginRemote()
	defer end()

	var report SyncReport

	merge, err := e.PullAndMerge(ctx)
	switch {
	case err == nil:
	case entity.IsStorage(err):
		return report, err
	default:
		slogx.Warn(ctx, "pull remote notes", slogx.Err(err))
		report.PullFailed = true
	}
	report.Merge = merge

	if report.Push, err = e.PushUnsynced(ctx); err != nil {
		return report, err
	}

	if report.Flush, err = e.FlushPendingDeletes(ctx); err != nil {
		return report, err
	}

	slogx.Info(ctx, "sync pass finished",
		slog.Int("imported", report.Merge.Imported),
		slog.Int("overwritten", report.Merge.Overwritten),
		slog.Int("pushed", report.Push.Pushed),
		slog.Int("push_failed", len(report.Push.Failed)),
		slog.Int("push_rejected", len(report.Push.Rejected)),
		slog.Int("deletes_flushed", report.Flush.Flushed),
		slog.Int("deletes_pending", len(report.Flush.Pending)),
	)

	return report, nil
}

// PullAndMerge fetches every remote note and merges it into the device copy.
// A remote note is imported when unknown locally and overwrites the local
// copy only when strictly newer.
func (e *Engine) PullAndMerge(ctx context.Context) (MergeReport, error) {
	var report MergeReport

	end := e.beginRemote()
	defer end()

	remoteNotes, err := e.remote.List(ctx, entity.NoteFilter{})
	if err != nil {
		return report, err
	}

	for _, remote := range remoteNotes {
		decision, err := e.mergeOne(ctx, remote)
		if err != nil {
			return report, err
		}

		switch decision {
		case mergeSkipped:
			report.Skipped++
		case mergeImported:
			report.Imported++
		case mergeOverwritten:
			report.Overwritten++
		default:
			report.KeptLocal++
		}
	}

	return report, nil
}

type mergeOutcome int

const (
	mergeKept mergeOutcome = iota
	mergeImported
	mergeOverwritten
	mergeSkipped
)

func (e *Engine) mergeOne(ctx context.Context, remote entity.Note) (mergeOutcome, error) {
	unlock := e.locks.Lock(remote.ID)
	defer unlock()

	tombstoned, err := e.local.HasPendingDelete(ctx, remote.ID)
	if err != nil {
		return mergeKept, fmt.Errorf("check tombstone: %w", err)
	}
	if tombstoned {
		return mergeSkipped, nil
	}

	var local *entity.Note
	stored, err := e.local.Get(ctx, remote.ID)
	switch {
	case errors.Is(err, entity.ErrNoteNotFound):
	case err != nil:
		return mergeKept, fmt.Errorf("get local note: %w", err)
	default:
		local = &stored
	}

	decision := Decide(local, remote)
	if decision == DecisionKeepLocal {
		return mergeKept, nil
	}

	remote.DeletedAt = nil
	if err := e.local.ImportRemoteCopy(ctx, remote); err != nil {
		return mergeKept, fmt.Errorf("import remote note: %w", err)
	}

	slogx.Debug(ctx, "merge remote note", slogx.NoteID(remote.ID), slog.String("decision", decision.String()))

	if decision == DecisionImport {
		return mergeImported, nil
	}
	return mergeOverwritten, nil
}

// PushUnsynced pushes every unsynced note independently. Failed notes stay
// unsynced and are listed in the report.
func (e *Engine) PushUnsynced(ctx context.Context) (PushReport, error) {
	var report PushReport

	end := e.beginRemote()
	defer end()

	unsynced, err := e.local.GetUnsynced(ctx)
	if err != nil {
		return report, fmt.Errorf("get unsynced notes: %w", err)
	}

	for _, candidate := range unsynced {
		result, err := e.pushLatest(ctx, candidate.ID)
		if err != nil {
			return report, err
		}

		switch result {
		case pushDone:
			report.Pushed++
		case pushRejected:
			report.Rejected = append(report.Rejected, candidate.ID)
		default:
			report.Failed = append(report.Failed, candidate.ID)
		}
	}

	return report, nil
}

// pushLatest re-reads the note under its lock so that an edit made since
// the unsynced scan is the one that gets pushed.
func (e *Engine) pushLatest(ctx context.Context, id string) (pushResult, error) {
	unlock := e.locks.Lock(id)
	defer unlock()

	note, err := e.local.Get(ctx, id)
	switch {
	case errors.Is(err, entity.ErrNoteNotFound):
		return pushDone, nil
	case err != nil:
		return pushFailed, fmt.Errorf("get local note: %w", err)
	case note.Synced:
		return pushDone, nil
	}

	return e.push(ctx, note)
}

// FlushPendingDeletes replays every queued delete against the remote store.
func (e *Engine) FlushPendingDeletes(ctx context.Context) (FlushReport, error) {
	var report FlushReport

	end := e.beginRemote()
	defer end()

	ids, err := e.local.PendingDeletes(ctx)
	if err != nil {
		return report, fmt.Errorf("list tombstones: %w", err)
	}

	for _, id := range ids {
		cleared, err := e.flushPending(ctx, id)
		if err != nil {
			return report, err
		}

		if cleared {
			report.Flushed++
		} else {
			report.Pending = append(report.Pending, id)
		}
	}

	return report, nil
}

func (e *Engine) flushPending(ctx context.Context, id string) (bool, error) {
	unlock := e.locks.Lock(id)
	defer unlock()

	cleared, err := e.flushDelete(ctx, id)
	if entity.IsValidation(err) {
		slogx.Warn(ctx, "drop invalid tombstone", slogx.NoteID(id), slogx.Err(err))
		return true, nil
	}

	return cleared, err
}

// Run follows connectivity until ctx is done: going online triggers a full
// sync pass, going offline only updates the status. A pass also runs at
// start when already online.
func (e *Engine) Run(ctx context.Context) error {
	changes := e.conn.Subscribe(ctx)

	online := e.conn.Online()
	e.status.SetConnectivity(online)
	if online {
		if _, err := e.OnConnectivityRestored(ctx); err != nil && ctx.Err() == nil {
			return fmt.Errorf("initial sync: %w", err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case online, ok := <-changes:
			if !ok {
				return nil
			}

			e.status.SetConnectivity(online)
			if !online {
				slogx.Info(ctx, "went offline")
				continue
			}

			slogx.Info(ctx, "back online, syncing")
			if _, err := e.OnConnectivityRestored(ctx); err != nil && ctx.Err() == nil {
				return fmt.Errorf("sync on reconnect: %w", err)
			}
		}
	}
}
