package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeAuditPurge is the task type for trimming the session audit trail.
	TaskTypeAuditPurge = "audit:purge"
)

// AuditPurgePayload describes the retention window for an audit purge run.
type AuditPurgePayload struct {
	RetentionDays int `json:"retention_days"`
}

// NewAuditPurgeTask constructs an Asynq task.
func NewAuditPurgeTask(payload AuditPurgePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeAuditPurge, data), nil
}

// AuditPurger deletes audit entries older than the given window.
type AuditPurger interface {
	Purge(ctx context.Context, olderThan time.Duration) (int64, error)
}

// NewAuditPurgeHandler returns the handler for TaskTypeAuditPurge tasks.
func NewAuditPurgeHandler(purger AuditPurger, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload AuditPurgePayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		if payload.RetentionDays <= 0 {
			payload.RetentionDays = 90
		}
		removed, err := purger.Purge(ctx, time.Duration(payload.RetentionDays)*24*time.Hour)
		if err != nil {
			return err
		}
		if logger != nil {
			logger.Info("audit purge complete",
				slog.Int("retention_days", payload.RetentionDays),
				slog.Int64("removed", removed))
		}
		return nil
	}
}
