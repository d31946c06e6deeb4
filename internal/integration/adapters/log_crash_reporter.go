package adapters

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/todo-app/backend/internal/application/adapter"
)

// logCrashReporter implements adapter.CrashReporter by logging at error level.
type logCrashReporter struct {
	logger   *slog.Logger
	reported atomic.Int64
}

// NewLogCrashReporter creates a CrashReporter writing to logger (slog.Default() when nil).
func NewLogCrashReporter(logger *slog.Logger) adapter.CrashReporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &logCrashReporter{logger: logger}
}

// Report logs err. It never fails and never panics on a nil error.
func (r *logCrashReporter) Report(ctx context.Context, err error) {
	if err == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	n := r.reported.Add(1)
	r.logger.ErrorContext(ctx, "Unexpected error reported", "error", err, "error_type", typeName(err), "report_seq", n)
}

func typeName(err error) string {
	return fmt.Sprintf("%T", err)
}
