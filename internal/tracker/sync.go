package tracker

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/nikhilv/trailz/internal/catalog"
	"github.com/nikhilv/trailz/internal/progress"
)

// SyncProgress reconciles the learner's stored record against the
// current catalog and persists the result. Read-side failures degrade
// rather than block:
//
//   - a store read failure is treated as "no existing progress"
//   - a catalog fetch failure runs an empty-catalog pass: no pruning,
//     no new entries, everything preserved
//
// forceCreate builds a fresh record even when nothing is stored;
// without it, a learner with no record and nothing to merge yields
// nil. preserveCompletion keeps protected orphans (the default
// contract); disabling it prunes them too.
//
// The reconciled record is saved before returning; a save failure
// (after the one minimal-projection retry) is surfaced alongside the
// record, which is still installed in memory so gameplay can continue.
func (t *Tracker) SyncProgress(ctx context.Context, forceCreate, preserveCompletion bool) (*progress.Record, error) {
	raw, storedVersion, err := t.store.LoadRaw(ctx, t.learnerID)
	if err != nil {
		// Read failure degrades to fresh-record creation.
		fmt.Fprintln(os.Stderr, "load progress:", err)
		raw = nil
		storedVersion = 0
	}
	existing := progress.Sanitize(raw)

	trails, fetchErr := t.provider.Fetch(ctx)
	if fetchErr != nil {
		if !errors.Is(fetchErr, catalog.ErrUnavailable) && !errors.Is(fetchErr, context.Canceled) {
			fetchErr = fmt.Errorf("%w: %v", catalog.ErrUnavailable, fetchErr)
		}
		// Empty catalog for this pass only: preserve everything.
		trails = nil
	}

	if existing == nil && !forceCreate && len(trails) == 0 {
		return nil, fetchErr
	}

	rec := progress.Reconcile(existing, trails, progress.Options{
		PreserveCompletion: preserveCompletion,
	})

	t.saves.SeedVersion(storedVersion)

	t.mu.Lock()
	t.rec = rec
	if len(trails) > 0 {
		t.trails = trails
	}
	t.mu.Unlock()

	if err := t.saves.SaveNow(ctx, rec.Clone()); err != nil {
		return rec.Clone(), err
	}
	return rec.Clone(), nil
}
