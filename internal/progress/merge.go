package progress

import (
	"time"

	"github.com/nikhilv/trailz/internal/catalog"
)

// Options tunes a reconciliation pass.
type Options struct {
	// PreserveCompletion keeps protected orphans (entries absent from
	// the catalog that carry earned completion). When false, orphans
	// are pruned regardless of protection. Earned state on entries
	// still present in the catalog is never touched either way.
	PreserveCompletion bool

	// Now stamps LastSync on the result. Zero means time.Now().
	Now time.Time
}

// DefaultOptions preserves completion, the standard sync contract.
func DefaultOptions() Options {
	return Options{PreserveCompletion: true}
}

// Reconcile merges an existing record against the current catalog
// snapshot, producing a new record where:
//
//  1. every catalog trail/phase/question has a progress entry, created
//     unstarted/unanswered if missing
//  2. pre-existing entries absent from the catalog are pruned unless
//     protected (earned completion)
//  3. learner-authored fields on surviving entries are preserved;
//     only the child structure is refreshed from the catalog
//  4. phase completion is re-derived bottom-up after question merging,
//     promoting but never demoting
//
// An empty catalog is treated as a fetch failure: nothing is pruned
// and nothing is created, the existing record passes through intact.
// A catalog that genuinely has no content must never be read as
// permission to delete everything.
//
// The operation is idempotent for a stable catalog. The input record
// is not modified.
func Reconcile(existing *Record, trails []catalog.Trail, opts Options) *Record {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	if len(trails) == 0 {
		if existing == nil {
			rec := NewRecord()
			rec.LastSync = now
			return rec
		}
		out := existing.Clone()
		out.LastSync = now
		return out
	}

	if existing == nil {
		existing = NewRecord()
	}

	out := &Record{
		TotalPoints:               existing.TotalPoints,
		ConsecutiveCorrect:        existing.ConsecutiveCorrect,
		HighestConsecutiveCorrect: existing.HighestConsecutiveCorrect,
		CurrentPhaseID:            existing.CurrentPhaseID,
		CurrentQuestionIndex:      existing.CurrentQuestionIndex,
		LastSync:                  now,
	}

	inCatalog := make(map[string]bool, len(trails))
	for _, ct := range trails {
		inCatalog[ct.ID] = true
		prior := existing.FindTrail(ct.ID)
		out.Trails = append(out.Trails, mergeTrail(prior, ct, opts))
	}

	// Retain protected orphan trails in their original relative order.
	for _, t := range existing.Trails {
		if inCatalog[t.ID] {
			continue
		}
		if opts.PreserveCompletion && t.Protected() {
			out.Trails = append(out.Trails, *cloneTrail(&t))
		}
	}

	return out
}

func mergeTrail(prior *TrailProgress, ct catalog.Trail, opts Options) TrailProgress {
	out := TrailProgress{ID: ct.ID}

	inCatalog := make(map[string]bool, len(ct.Phases))
	for _, cp := range ct.Phases {
		inCatalog[cp.ID] = true
		var priorPhase *PhaseProgress
		if prior != nil {
			for i := range prior.Phases {
				if prior.Phases[i].ID == cp.ID {
					priorPhase = &prior.Phases[i]
					break
				}
			}
		}
		out.Phases = append(out.Phases, mergePhase(priorPhase, cp, opts))
	}

	if prior != nil {
		for _, p := range prior.Phases {
			if inCatalog[p.ID] {
				continue
			}
			if opts.PreserveCompletion && p.Protected() {
				cp := p
				cp.Questions = append([]QuestionProgress(nil), p.Questions...)
				out.Phases = append(out.Phases, cp)
			}
		}
	}

	return out
}

func mergePhase(prior *PhaseProgress, cp catalog.Phase, opts Options) PhaseProgress {
	out := PhaseProgress{ID: cp.ID}
	if prior != nil {
		out.Started = prior.Started
		out.Completed = prior.Completed
		out.TimeSpent = prior.TimeSpent
	}

	inCatalog := make(map[string]bool)
	for _, cq := range cp.FlatQuestions() {
		inCatalog[cq.ID] = true
		var merged QuestionProgress
		if prior != nil {
			if pq := prior.FindQuestionInPhase(cq.ID); pq != nil {
				merged = *pq
			} else {
				merged = QuestionProgress{ID: cq.ID}
			}
		} else {
			merged = QuestionProgress{ID: cq.ID}
		}
		out.Questions = append(out.Questions, merged)
	}

	if prior != nil {
		for _, q := range prior.Questions {
			if inCatalog[q.ID] {
				continue
			}
			if opts.PreserveCompletion && q.Protected() {
				out.Questions = append(out.Questions, q)
			}
		}
	}

	// Runs after question merging so a fully-correct phase promotes
	// even when no explicit completion event was ever recorded. Never
	// demotes: an already-complete phase stays complete.
	deriveCompletion(&out)
	return out
}

// deriveCompletion marks a phase completed when every tracked question
// is answered correctly. Self-healing only in the promoting direction.
func deriveCompletion(p *PhaseProgress) {
	if p.Completed || len(p.Questions) == 0 {
		return
	}
	for _, q := range p.Questions {
		if !q.Answered || !q.Correct {
			return
		}
	}
	p.Completed = true
	p.Started = true
}

func cloneTrail(t *TrailProgress) *TrailProgress {
	out := *t
	out.Phases = make([]PhaseProgress, len(t.Phases))
	for i, p := range t.Phases {
		cp := p
		cp.Questions = append([]QuestionProgress(nil), p.Questions...)
		out.Phases[i] = cp
	}
	return &out
}
