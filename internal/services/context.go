package services

import "context"

type contextKey string

const (
	meetingIDKey  contextKey = "meeting_id"
	questionIDKey contextKey = "question_id"
	workerKey     contextKey = "worker"
	requestIDKey  contextKey = "request_id"
)

// WithMeetingID annotates context with the meeting identifier.
func WithMeetingID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, meetingIDKey, id)
}

// MeetingIDFromContext extracts the meeting identifier if present.
func MeetingIDFromContext(ctx context.Context) (int64, bool) {
	return int64Value(ctx, meetingIDKey)
}

// WithQuestionID annotates context with the question identifier.
func WithQuestionID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, questionIDKey, id)
}

// QuestionIDFromContext extracts the question identifier if present.
func QuestionIDFromContext(ctx context.Context) (int64, bool) {
	return int64Value(ctx, questionIDKey)
}

// WithWorker annotates context with the dispatcher worker name.
func WithWorker(ctx context.Context, worker string) context.Context {
	if worker == "" {
		return ctx
	}
	return context.WithValue(ctx, workerKey, worker)
}

// WorkerFromContext returns the worker name if present.
func WorkerFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(workerKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

func int64Value(ctx context.Context, key contextKey) (int64, bool) {
	if ctx == nil {
		return 0, false
	}
	switch val := ctx.Value(key).(type) {
	case int64:
		return val, true
	case int:
		return int64(val), true
	default:
		return 0, false
	}
}
