package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nikhilv/trailz/internal/progress"
)

// ErrStaleWrite is returned when a save's version is not newer than
// the stored row. A racing in-flight save lost to a later one; the
// caller should drop the write rather than retry it.
var ErrStaleWrite = errors.New("stale progress write")

// EncodeError wraps a serialization failure so callers can distinguish
// it from I/O failures and retry with a reduced payload.
type EncodeError struct {
	Err error
}

func (e *EncodeError) Error() string { return fmt.Sprintf("encode progress: %v", e.Err) }
func (e *EncodeError) Unwrap() error { return e.Err }

// ProgressRepo is the durable key-value home of progress records,
// keyed by learner id.
type ProgressRepo interface {
	// LoadRaw returns the stored payload and its version. A learner
	// with no row yields nil, 0, nil. The payload is raw JSON so the
	// caller's sanitize pass handles malformed content.
	LoadRaw(ctx context.Context, learnerID string) ([]byte, int64, error)

	// Save stores the record under a monotonically increasing version.
	// A version not greater than the stored one fails with
	// ErrStaleWrite and leaves the row untouched.
	Save(ctx context.Context, learnerID string, version int64, rec *progress.Record) error

	// Delete removes a learner's progress row.
	Delete(ctx context.Context, learnerID string) error
}

type progressRepo struct {
	db *sql.DB
}

func (r *progressRepo) LoadRaw(ctx context.Context, learnerID string) ([]byte, int64, error) {
	var payload string
	var version int64
	err := r.db.QueryRowContext(ctx,
		`SELECT payload, version FROM learner_progress WHERE learner_id = ?`,
		learnerID,
	).Scan(&payload, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("load progress: %w", err)
	}
	return []byte(payload), version, nil
}

func (r *progressRepo) Save(ctx context.Context, learnerID string, version int64, rec *progress.Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return &EncodeError{Err: err}
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO learner_progress (learner_id, version, payload, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(learner_id) DO UPDATE SET
			version = excluded.version,
			payload = excluded.payload,
			updated_at = excluded.updated_at
		 WHERE excluded.version > learner_progress.version`,
		learnerID, version, string(payload), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	if n == 0 {
		return ErrStaleWrite
	}
	return nil
}

func (r *progressRepo) Delete(ctx context.Context, learnerID string) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM learner_progress WHERE learner_id = ?`, learnerID,
	); err != nil {
		return fmt.Errorf("delete progress: %w", err)
	}
	return nil
}
