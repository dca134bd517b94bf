package tracker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/nikhilv/trailz/internal/progress"
	"github.com/nikhilv/trailz/internal/store"
)

// saveQueue serializes all persistence for one learner through a
// single writer goroutine. Each write carries a monotonically
// increasing version; combined with the store's version check this
// closes the race where a stale in-flight save lands after a newer
// one. Queued records coalesce: only the most recent snapshot is
// written when saves outpace the store.
type saveQueue struct {
	learnerID string
	store     ProgressStore

	version atomic.Int64

	mu      sync.Mutex
	pending *progress.Record
	closed  bool
	kick    chan struct{}
	done    chan struct{}

	errMu   sync.Mutex
	lastErr error
}

func newSaveQueue(learnerID string, st ProgressStore) *saveQueue {
	q := &saveQueue{
		learnerID: learnerID,
		store:     st,
		kick:      make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
	go q.run()
	return q
}

// SeedVersion advances the version counter past the stored row's
// version, so the first save after a load is not rejected as stale.
func (q *saveQueue) SeedVersion(v int64) {
	for {
		cur := q.version.Load()
		if cur >= v || q.version.CompareAndSwap(cur, v) {
			return
		}
	}
}

// Enqueue schedules a snapshot for persistence, replacing any
// not-yet-written one. Fire-and-forget: gameplay never waits on it.
func (q *saveQueue) Enqueue(rec *progress.Record) {
	if rec == nil {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.pending = rec

	// The non-blocking send stays inside the critical section. Close
	// marks closed under the same lock before closing the channel, so
	// a send can never race the close.
	select {
	case q.kick <- struct{}{}:
	default:
	}
}

// SaveNow writes a snapshot synchronously with the full retry policy.
// Used by the reconciliation entry point, which must surface failures.
func (q *saveQueue) SaveNow(ctx context.Context, rec *progress.Record) error {
	return q.persist(ctx, rec)
}

// Err returns the most recent asynchronous save failure, if any.
func (q *saveQueue) Err() error {
	q.errMu.Lock()
	defer q.errMu.Unlock()
	return q.lastErr
}

// Close flushes the pending snapshot and stops the writer.
func (q *saveQueue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return q.Err()
	}
	q.closed = true
	q.mu.Unlock()

	close(q.kick)
	<-q.done
	return q.Err()
}

func (q *saveQueue) run() {
	defer close(q.done)
	for range q.kick {
		q.flush()
	}
	// Drain whatever arrived before close.
	q.flush()
}

func (q *saveQueue) flush() {
	q.mu.Lock()
	rec := q.pending
	q.pending = nil
	q.mu.Unlock()

	if rec == nil {
		return
	}
	if err := q.persist(context.Background(), rec); err != nil {
		q.errMu.Lock()
		q.lastErr = err
		q.errMu.Unlock()
		fmt.Fprintln(os.Stderr, "save progress:", err)
	}
}

// persist writes one snapshot. A serialization failure retries once
// with the minimal projection (identity plus learner-authored scalars);
// the reduced write still satisfies the protected-entry invariant. A
// stale-version rejection means a newer write already landed and is
// dropped silently. Anything else surfaces.
func (q *saveQueue) persist(ctx context.Context, rec *progress.Record) error {
	v := q.version.Add(1)

	err := q.store.Save(ctx, q.learnerID, v, rec)
	if err == nil || errors.Is(err, store.ErrStaleWrite) {
		return nil
	}

	var encErr *store.EncodeError
	if errors.As(err, &encErr) {
		retryErr := q.store.Save(ctx, q.learnerID, v, progress.MinimalProjection(rec))
		if retryErr == nil || errors.Is(retryErr, store.ErrStaleWrite) {
			return nil
		}
		return fmt.Errorf("save progress (minimal retry): %w", retryErr)
	}

	// An I/O failure also gets the one reduced-payload retry; a
	// malformed substructure can fail at the driver rather than at
	// encode time.
	retryErr := q.store.Save(ctx, q.learnerID, v, progress.MinimalProjection(rec))
	if retryErr == nil || errors.Is(retryErr, store.ErrStaleWrite) {
		return nil
	}
	return fmt.Errorf("save progress: %w", err)
}
