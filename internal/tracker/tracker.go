// Package tracker exposes the progress mutation API consumed by the
// session host and the reconciliation entry point that keeps a
// learner's record aligned with the catalog.
package tracker

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"

	"github.com/nikhilv/trailz/internal/catalog"
	"github.com/nikhilv/trailz/internal/progress"
	"github.com/nikhilv/trailz/internal/store"
)

// ProgressStore is the durable persistence the tracker writes through.
// store.ProgressRepo satisfies it.
type ProgressStore interface {
	LoadRaw(ctx context.Context, learnerID string) ([]byte, int64, error)
	Save(ctx context.Context, learnerID string, version int64, rec *progress.Record) error
}

// EventLog receives append-only gameplay events. store.EventRepo
// satisfies it; nil disables event logging.
type EventLog interface {
	AppendAnswer(ctx context.Context, data store.AnswerEventData) error
	AppendPhaseComplete(ctx context.Context, data store.PhaseEventData) error
}

// Tracker owns one learner's in-memory progress record. Answer events
// apply to it synchronously in emission order; persistence happens
// asynchronously through a single-writer queue and never gates
// gameplay.
type Tracker struct {
	mu        sync.Mutex
	learnerID string
	sessionID string
	store     ProgressStore
	provider  catalog.Provider
	events    EventLog

	rec    *progress.Record
	trails []catalog.Trail

	saves *saveQueue
}

// New creates a tracker for one learner. Call SyncProgress before the
// mutation API to seed the record; mutations on an unseeded tracker
// start from an empty record.
func New(learnerID string, st ProgressStore, provider catalog.Provider, events EventLog) *Tracker {
	return &Tracker{
		learnerID: learnerID,
		sessionID: uuid.New().String(),
		store:     st,
		provider:  provider,
		events:    events,
		saves:     newSaveQueue(learnerID, st),
	}
}

// Close flushes pending saves and stops the write queue.
func (t *Tracker) Close() error {
	return t.saves.Close()
}

// Record returns a copy of the current in-memory record, or nil before
// the first sync or mutation.
func (t *Tracker) Record() *progress.Record {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rec.Clone()
}

// Trails returns the catalog snapshot from the last successful fetch.
func (t *Tracker) Trails() []catalog.Trail {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.trails
}

// StartPhase marks a phase started and records it as the resume point.
// Progress entries for the trail and phase are created lazily if the
// learner got here before a sync tracked them.
func (t *Tracker) StartPhase(trailID, phaseID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.rec == nil {
		t.rec = progress.NewRecord()
	}
	ph := t.ensurePhase(trailID, phaseID)
	if ph == nil {
		return fmt.Errorf("phase %q not found in trail %q", phaseID, trailID)
	}
	ph.Started = true
	t.rec.CurrentPhaseID = phaseID
	t.rec.CurrentQuestionIndex = 0

	t.saves.Enqueue(t.rec.Clone())
	return nil
}

// AnswerQuestion applies one graded answer to the record: the question
// entry is created lazily if untracked, streak counters update, and an
// answer event is appended fire-and-forget. Earned correctness is
// never demoted by a later wrong answer.
func (t *Tracker) AnswerQuestion(questionID string, correct bool) {
	t.mu.Lock()

	if t.rec == nil {
		t.rec = progress.NewRecord()
	}

	qp, _ := t.rec.FindQuestion(questionID)
	if qp == nil {
		qp = t.trackQuestion(questionID)
	}
	if qp != nil {
		qp.Answered = true
		if correct {
			qp.Correct = true
		}
	}

	if correct {
		t.rec.ConsecutiveCorrect++
		if t.rec.ConsecutiveCorrect > t.rec.HighestConsecutiveCorrect {
			t.rec.HighestConsecutiveCorrect = t.rec.ConsecutiveCorrect
		}
	} else {
		t.rec.ConsecutiveCorrect = 0
	}

	snapshot := t.rec.Clone()
	t.mu.Unlock()

	t.saves.Enqueue(snapshot)

	if t.events != nil {
		go func() {
			err := t.events.AppendAnswer(context.Background(), store.AnswerEventData{
				LearnerID:  t.learnerID,
				SessionID:  t.sessionID,
				QuestionID: questionID,
				Correct:    correct,
			})
			if err != nil {
				fmt.Fprintln(os.Stderr, "append answer event:", err)
			}
		}()
	}
}

// CompletePhase records a finished phase with its final elapsed time.
// Points are awarded once, on the first completion.
func (t *Tracker) CompletePhase(phaseID string, timeSpent int) {
	t.completePhase(phaseID, timeSpent, 0)
}

// GetPhaseCompletionPercentage reports how much of a phase is answered
// correctly, 0..100. Untracked phases report 0.
func (t *Tracker) GetPhaseCompletionPercentage(phaseID string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.rec == nil {
		return 0
	}
	ph := t.rec.FindPhase(phaseID)
	if ph == nil {
		return 0
	}
	return ph.CompletionPercent()
}

// QuestionAnswered implements quiz.EventSink.
func (t *Tracker) QuestionAnswered(questionID string, correct bool) {
	t.AnswerQuestion(questionID, correct)
}

// PhaseCompleted implements quiz.EventSink.
func (t *Tracker) PhaseCompleted(phaseID string, timeSpent, wrongCount int) {
	t.completePhase(phaseID, timeSpent, wrongCount)
}

func (t *Tracker) completePhase(phaseID string, timeSpent, wrongCount int) {
	t.mu.Lock()

	if t.rec == nil {
		t.rec = progress.NewRecord()
	}

	ph := t.rec.FindPhase(phaseID)
	if ph == nil {
		_, trailID := catalog.FindPhase(t.trails, phaseID)
		ph = t.ensurePhase(trailID, phaseID)
	}

	awarded := 0
	if ph != nil {
		firstCompletion := !ph.Completed
		ph.Started = true
		ph.Completed = true
		ph.TimeSpent = timeSpent
		if firstCompletion {
			awarded = PhaseScore(timeSpent, wrongCount)
			t.rec.TotalPoints += awarded
		}
	}
	if t.rec.CurrentPhaseID == phaseID {
		t.rec.CurrentPhaseID = ""
		t.rec.CurrentQuestionIndex = 0
	}

	snapshot := t.rec.Clone()
	t.mu.Unlock()

	t.saves.Enqueue(snapshot)

	if t.events != nil {
		go func() {
			err := t.events.AppendPhaseComplete(context.Background(), store.PhaseEventData{
				LearnerID:     t.learnerID,
				SessionID:     t.sessionID,
				PhaseID:       phaseID,
				TimeSpentSecs: timeSpent,
				WrongCount:    wrongCount,
				PointsAwarded: awarded,
			})
			if err != nil {
				fmt.Fprintln(os.Stderr, "append phase event:", err)
			}
		}()
	}
}

// ensurePhase finds or lazily creates the trail and phase entries.
// Caller holds t.mu. When trailID is empty the catalog resolves it;
// a phase unknown to both the record and the catalog yields nil.
func (t *Tracker) ensurePhase(trailID, phaseID string) *progress.PhaseProgress {
	if ph := t.rec.FindPhase(phaseID); ph != nil {
		return ph
	}
	if trailID == "" {
		_, trailID = catalog.FindPhase(t.trails, phaseID)
		if trailID == "" {
			return nil
		}
	}
	tp := t.rec.FindTrail(trailID)
	if tp == nil {
		t.rec.Trails = append(t.rec.Trails, progress.TrailProgress{ID: trailID})
		tp = &t.rec.Trails[len(t.rec.Trails)-1]
	}
	tp.Phases = append(tp.Phases, progress.PhaseProgress{ID: phaseID})
	return &tp.Phases[len(tp.Phases)-1]
}

// trackQuestion lazily creates a question entry, resolving the owning
// phase through the catalog and falling back to the current phase for
// questions the catalog no longer knows. Caller holds t.mu.
func (t *Tracker) trackQuestion(questionID string) *progress.QuestionProgress {
	_, trailID, phaseID := catalog.FindQuestionPath(t.trails, questionID)
	if phaseID == "" {
		phaseID = t.rec.CurrentPhaseID
	}
	if phaseID == "" {
		return nil
	}
	ph := t.ensurePhase(trailID, phaseID)
	if ph == nil {
		return nil
	}
	ph.Questions = append(ph.Questions, progress.QuestionProgress{ID: questionID})
	return &ph.Questions[len(ph.Questions)-1]
}
