package llmcall

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackzampolin/scoresheet/internal/oracle"
)

// Recorder writes call records to a Store. Failures are logged, never
// returned: losing a history row must not fail an extraction.
type Recorder struct {
	store  Store
	logger *slog.Logger
}

// NewRecorder creates a new call recorder. A nil store disables recording.
func NewRecorder(store Store, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{store: store, logger: logger}
}

// Record captures an oracle reply (or failure) and returns the stored call.
func (r *Recorder) Record(ctx context.Context, reply *oracle.Reply, callErr error, opts RecordOptions) *Call {
	call := FromReply(reply, callErr, opts)
	r.RecordCall(ctx, call)
	return call
}

// RecordCall captures an already-constructed Call.
func (r *Recorder) RecordCall(ctx context.Context, call *Call) {
	if r == nil || r.store == nil || call == nil {
		return
	}

	// Detach from cancellation so a cancelled run still leaves its history.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := r.store.Record(ctx, call); err != nil {
		r.logger.Warn("failed to record oracle call",
			"error", err,
			"run_id", call.RunID,
			"category", call.Category)
	}
}
