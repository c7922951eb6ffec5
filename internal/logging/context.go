package logging

import (
	"context"
	"log/slog"

	"github.com/allenhsieh/archivebatcheditor-sub001/internal/services"
)

// Structured field keys shared by every component.
const (
	FieldComponent     = "component"
	FieldRunID         = "run_id"
	FieldMode          = "mode"
	FieldRecordID      = "record_id"
	FieldVideoID       = "video_id"
	FieldCorrelationID = "correlation_id"
	// FieldEventType classifies a line for filtering (run_start, record_update, ...).
	FieldEventType = "event_type"
	// FieldErrorHint carries the operator's next step on warnings and errors.
	FieldErrorHint = "error_hint"
)

// ContextFields lifts the run, mode, record and request identifiers stored by
// the services context helpers into slog attributes.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	var fields []slog.Attr
	lookups := []struct {
		key    string
		lookup func(context.Context) (string, bool)
	}{
		{FieldRunID, services.RunIDFromContext},
		{FieldMode, services.ModeFromContext},
		{FieldRecordID, services.RecordIDFromContext},
		{FieldCorrelationID, services.RequestIDFromContext},
	}
	for _, l := range lookups {
		if value, ok := l.lookup(ctx); ok {
			fields = append(fields, slog.String(l.key, value))
		}
	}
	return fields
}

// WithContext returns logger tagged with the identifiers carried by ctx.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
