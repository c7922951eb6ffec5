package activitylog

import (
	"context"
	"log/slog"

	"github.com/allenhsieh/archivebatcheditor-sub001/internal/logging"
)

// SlogSink mirrors entries into a structured logger.
type SlogSink struct {
	logger *slog.Logger
}

// NewSlogSink returns a sink writing to logger. A nil logger discards.
func NewSlogSink(logger *slog.Logger) *SlogSink {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &SlogSink{logger: logging.NewComponentLogger(logger, "activity")}
}

// Append logs the entry at a level matching its kind.
func (s *SlogSink) Append(e Entry) {
	level := slog.LevelInfo
	switch e.Kind {
	case KindError:
		level = slog.LevelError
	case KindSkipped:
		level = slog.LevelDebug
	}
	attrs := []slog.Attr{
		logging.String("kind", string(e.Kind)),
		logging.Uint64("seq", e.Sequence),
	}
	if e.RecordID != "" {
		attrs = append(attrs, logging.String(logging.FieldRecordID, e.RecordID))
	}
	s.logger.LogAttrs(context.Background(), level, e.Message, attrs...)
}
