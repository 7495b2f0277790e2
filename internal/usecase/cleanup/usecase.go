package cleanup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/evgeniy-krivenko/notes-sync/internal/entity"
	"github.com/evgeniy-krivenko/notes-sync/pkg/logger/slogx"
)

// MaxBatchSize is the batch-delete limit of the remote store.
const MaxBatchSize = 25

var errUnprocessed = errors.New("batch left unprocessed keys")

type cleanupRepository interface {
	ListExpired(ctx context.Context, before time.Time) ([]entity.NoteKey, error)
	BatchDelete(ctx context.Context, keys []entity.NoteKey, before time.Time) ([]entity.NoteKey, error)
}

//go:generate go run github.com/kazhuravlev/options-gen/cmd/options-gen@v0.55.3 -out-filename=usecase_options.gen.go -from-struct=Options
type Options struct {
	repo cleanupRepository `option:"mandatory" validate:"required"`

	batchSize   int           `default:"25" validate:"min=1,max=25"`
	maxAttempts uint          `default:"3" validate:"min=1,max=10"`
	baseDelay   time.Duration `default:"200ms"`
	clock       func() time.Time
}

type Usecase struct {
	Options
}

func New(opts Options) (*Usecase, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("validate cleanup usecase options: %v", err)
	}

	if opts.clock == nil {
		opts.clock = time.Now
	}

	return &Usecase{Options: opts}, nil
}

// PurgeExpired permanently deletes every note whose grace period has ended.
// Keys the store keeps refusing are reported in the result, not as an error;
// only a failed scan is an error.
func (u *Usecase) PurgeExpired(ctx context.Context) (entity.CleanupResult, error) {
	now := u.clock().UTC()

	keys, err := u.repo.ListExpired(ctx, now)
	if err != nil {
		return entity.CleanupResult{}, fmt.Errorf("scan expired notes: %w", err)
	}

	var (
		deleted int
		failed  []entity.NoteKey
		batches int
	)

	for batch := range slices.Chunk(keys, u.batchSize) {
		batches++

		left := u.deleteBatch(ctx, batch, now)
		deleted += len(batch) - len(left)
		failed = append(failed, left...)
	}

	res := summarize(deleted, failed)

	attrs := []slog.Attr{
		slog.Int("expired", len(keys)),
		slog.Int("batches", batches),
		slog.Int("deleted", deleted),
		slog.Int("failed", len(failed)),
	}
	if res.Partial() {
		slogx.Warn(ctx, "cleanup finished with unprocessed notes", attrs...)
	} else {
		slogx.Info(ctx, "cleanup completed", attrs...)
	}

	return res, nil
}

// deleteBatch returns the keys still present after all attempts.
func (u *Usecase) deleteBatch(ctx context.Context, batch []entity.NoteKey, now time.Time) []entity.NoteKey {
	pending := batch

	err := retry.Do(
		func() error {
			unprocessed, err := u.repo.BatchDelete(ctx, pending, now)
			if err != nil {
				return fmt.Errorf("batch delete: %w", err)
			}

			pending = unprocessed
			if len(pending) > 0 {
				return errUnprocessed
			}

			return nil
		},
		retry.Context(ctx),
		retry.Attempts(u.maxAttempts),
		// n counts failed attempts so far, starting at 1.
		retry.DelayType(func(n uint, _ error, _ *retry.Config) time.Duration {
			return u.backoff(n)
		}),
		retry.LastErrorOnly(true),
		// n is the 0-based attempt that just failed; the last one is not retried.
		retry.OnRetry(func(n uint, err error) {
			if n+1 >= u.maxAttempts {
				return
			}
			slogx.Warn(ctx, "retry batch delete",
				slog.Uint64("attempt", uint64(n+1)),
				slog.Int("pending", len(pending)),
				slogx.Err(err),
			)
		}),
	)
	if err != nil {
		slogx.Error(ctx, "batch delete gave up", slog.Int("pending", len(pending)), slogx.Err(err))
		return pending
	}

	return nil
}

// backoff is the wait after the given failed attempt: base delay times the
// attempt number.
func (u *Usecase) backoff(attempt uint) time.Duration {
	return u.baseDelay * time.Duration(attempt)
}

func summarize(deleted int, failed []entity.NoteKey) entity.CleanupResult {
	if len(failed) == 0 {
		return entity.CleanupResult{
			Success:      true,
			Message:      fmt.Sprintf("Cleanup completed: %d notes permanently deleted", deleted),
			DeletedCount: deleted,
		}
	}

	return entity.CleanupResult{
		Success: false,
		Message: fmt.Sprintf(
			"Cleanup partially completed: %d notes permanently deleted, %d failed",
			deleted, len(failed),
		),
		DeletedCount: deleted,
		FailedCount:  len(failed),
		FailedItems:  failed,
	}
}
