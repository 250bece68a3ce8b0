package logging

import (
	"context"
	"log/slog"

	"github.com/stevendeporre123/quest-app/internal/services"
)

const (
	// FieldTimestamp replaces slog's "time" key in the JSON log file.
	FieldTimestamp = "ts"
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldMeetingID identifies the meeting a log line concerns.
	FieldMeetingID = "meeting_id"
	// FieldQuestionID identifies the question a log line concerns.
	FieldQuestionID = "question_id"
	// FieldWorker names the dispatcher worker goroutine.
	FieldWorker = "worker"
	// FieldCorrelationID is the standardized structured logging key for request correlation identifiers.
	FieldCorrelationID = "correlation_id"
	// FieldEventType is a stable machine-readable label for notable events.
	FieldEventType = "event_type"
	// FieldErrorHint suggests the next step to an operator reading a warning.
	FieldErrorHint = "error_hint"
	// FieldErrorKind carries the retry classification of a failure.
	FieldErrorKind = "error_kind"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 4)
	if id, ok := services.MeetingIDFromContext(ctx); ok {
		fields = append(fields, slog.Int64(FieldMeetingID, id))
	}
	if id, ok := services.QuestionIDFromContext(ctx); ok {
		fields = append(fields, slog.Int64(FieldQuestionID, id))
	}
	if worker, ok := services.WorkerFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldWorker, worker))
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, rid))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	args := make([]any, len(fields))
	for i, attr := range fields {
		args[i] = attr
	}
	return logger.With(args...)
}
