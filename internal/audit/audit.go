// Package audit keeps a trail of session transitions.
package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Entry represents a record stored in session_audit.
type Entry struct {
	ID         string
	UserID     string
	Event      string
	OccurredAt time.Time
}

// Recorder writes records into session_audit.
type Recorder struct {
	pool *pgxpool.Pool
}

// NewRecorder returns a new Recorder.
func NewRecorder(pool *pgxpool.Pool) *Recorder {
	return &Recorder{pool: pool}
}

// Record persists one transition.
func (r *Recorder) Record(ctx context.Context, event, userID string) error {
	if r == nil {
		return errors.New("audit recorder not initialised")
	}
	if event == "" || userID == "" {
		return errors.New("audit entry requires event and user id")
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO session_audit (id, user_id, event, occurred_at) VALUES ($1, $2, $3, NOW())`,
		uuid.NewString(), userID, event)
	return err
}

// Purge deletes entries older than the retention window and reports how many
// rows went.
func (r *Recorder) Purge(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	tag, err := r.pool.Exec(ctx, `DELETE FROM session_audit WHERE occurred_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
