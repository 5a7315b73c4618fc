// Package activity records what the system did, best-effort. Recording must
// never affect the primary result of a request: a failed write is logged and
// discarded.
package activity

import (
	"context"
	"time"

	"github.com/cvforge/cvforge/internal/logger"

	"go.uber.org/zap"
)

// maxDetailLength bounds stored detail strings so full document payloads
// never end up in the log table.
const maxDetailLength = 500

// Entry is one activity-log record.
type Entry struct {
	ID        string    `json:"id"`
	Action    string    `json:"action"`
	Detail    string    `json:"detail,omitempty"`
	Success   bool      `json:"success"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Sink persists entries.
type Sink interface {
	InsertActivity(ctx context.Context, entry *Entry) error
}

// Recorder writes activity entries through a sink, swallowing failures.
type Recorder struct {
	sink   Sink
	logger *zap.Logger
}

// NewRecorder wires a recorder. A nil sink yields a recorder that only logs.
func NewRecorder(sink Sink, log *zap.Logger) *Recorder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Recorder{sink: sink, logger: log}
}

// Record persists one outcome. Errors from the sink are logged at warn and
// never returned, so a logging failure cannot mask the primary result.
func (r *Recorder) Record(ctx context.Context, action, detail string, success bool, errMsg string) {
	entry := &Entry{
		Action:    action,
		Detail:    logger.TruncateForLog(detail, maxDetailLength),
		Success:   success,
		Error:     logger.TruncateForLog(errMsg, maxDetailLength),
		CreatedAt: time.Now().UTC(),
	}

	if r.sink == nil {
		r.logger.Debug("activity sink not configured, entry dropped", zap.String("action", action))
		return
	}

	if err := r.sink.InsertActivity(ctx, entry); err != nil {
		r.logger.Warn("recording activity entry failed",
			zap.String("action", action),
			zap.Bool("success", success),
			zap.Error(err),
		)
	}
}
