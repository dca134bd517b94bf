package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"
)

// AnswerEventData captures one graded answer. SessionID groups the
// events of one app run.
type AnswerEventData struct {
	LearnerID  string
	SessionID  string
	QuestionID string
	Correct    bool
}

// PhaseEventData captures one phase completion.
type PhaseEventData struct {
	LearnerID     string
	SessionID     string
	PhaseID       string
	TimeSpentSecs int
	WrongCount    int
	PointsAwarded int
}

// LearnerTotals aggregates the event log for the stats view.
type LearnerTotals struct {
	AnswersTotal    int
	AnswersCorrect  int
	PhasesCompleted int
	TimeSpentSecs   int
	PointsAwarded   int
}

// EventRepo provides append and aggregate access to the event log.
// Events are the durable record of what happened during play; the
// progress record is derived state that can be rebuilt against the
// catalog, the event log cannot.
type EventRepo interface {
	AppendAnswer(ctx context.Context, data AnswerEventData) error
	AppendPhaseComplete(ctx context.Context, data PhaseEventData) error
	Totals(ctx context.Context, learnerID string) (LearnerTotals, error)
}

// sequenceCounter manages the monotonic sequence number shared by both
// event tables. Per-table auto-increment IDs can't establish cross-type
// ordering (did the completion land before or after the last answer?),
// so every event draws from this single counter. The mutex serializes
// within the process; the RETURNING clause makes the increment atomic
// at the database level.
type sequenceCounter struct {
	mu sync.Mutex
	db *sql.DB
}

// newSequenceCounter creates a counter and ensures the tracking table exists.
func newSequenceCounter(db *sql.DB) (*sequenceCounter, error) {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS global_sequence (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		next_val INTEGER NOT NULL DEFAULT 1
	)`)
	if err != nil {
		return nil, fmt.Errorf("create sequence table: %w", err)
	}

	_, err = db.Exec(`INSERT OR IGNORE INTO global_sequence (id, next_val) VALUES (1, 1)`)
	if err != nil {
		return nil, fmt.Errorf("seed sequence: %w", err)
	}

	return &sequenceCounter{db: db}, nil
}

// Next atomically returns the next sequence number and increments the counter.
func (sc *sequenceCounter) Next(ctx context.Context) (int64, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	var seq int64
	err := sc.db.QueryRowContext(ctx,
		`UPDATE global_sequence SET next_val = next_val + 1 WHERE id = 1 RETURNING next_val - 1`,
	).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}
	return seq, nil
}

type eventRepo struct {
	db  *sql.DB
	seq *sequenceCounter
}

func (r *eventRepo) AppendAnswer(ctx context.Context, data AnswerEventData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO answer_events (sequence, learner_id, session_id, question_id, correct, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		seqNum, data.LearnerID, data.SessionID, data.QuestionID, boolToInt(data.Correct),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("save answer event: %w", err)
	}
	return nil
}

func (r *eventRepo) AppendPhaseComplete(ctx context.Context, data PhaseEventData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO phase_events (sequence, learner_id, session_id, phase_id, time_spent_secs, wrong_count, points_awarded, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		seqNum, data.LearnerID, data.SessionID, data.PhaseID, data.TimeSpentSecs, data.WrongCount, data.PointsAwarded,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("save phase event: %w", err)
	}
	return nil
}

func (r *eventRepo) Totals(ctx context.Context, learnerID string) (LearnerTotals, error) {
	var t LearnerTotals
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(correct), 0) FROM answer_events WHERE learner_id = ?`,
		learnerID,
	).Scan(&t.AnswersTotal, &t.AnswersCorrect)
	if err != nil {
		return t, fmt.Errorf("answer totals: %w", err)
	}

	err = r.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(time_spent_secs), 0), COALESCE(SUM(points_awarded), 0)
		 FROM phase_events WHERE learner_id = ?`,
		learnerID,
	).Scan(&t.PhasesCompleted, &t.TimeSpentSecs, &t.PointsAwarded)
	if err != nil {
		return t, fmt.Errorf("phase totals: %w", err)
	}
	return t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
