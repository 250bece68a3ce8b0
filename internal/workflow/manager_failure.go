package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/stevendeporre123/quest-app/internal/logging"
	"github.com/stevendeporre123/quest-app/internal/queue"
	"github.com/stevendeporre123/quest-app/internal/services"
)

// handleFailure records an enrichment failure. Anything not marked permanent
// is retried until the attempt budget is used up; the failure reason is
// always written to the question row.
func (m *Manager) handleFailure(ctx context.Context, job *queue.Job, cause error, logger *slog.Logger) error {
	m.setLastError(cause)
	message := failureMessage(cause)
	kind := services.Kind(cause)
	maxAttempts := m.cfg.Workflow.MaxAttempts

	retry := !services.IsPermanent(cause) && job.Attempt < maxAttempts
	var (
		update queue.MeetingUpdate
		err    error
	)
	if retry {
		retryAt := m.now().Add(m.cfg.Workflow.RetryBackoff())
		update, err = m.store.RetryQuestion(ctx, job.Claim, message, retryAt)
	} else {
		update, err = m.store.FailQuestion(ctx, job.Claim, message)
	}
	if errors.Is(err, queue.ErrJobLost) {
		logger.Warn("question abandoned after losing its claim",
			logging.Event("job_lost"),
		)
		return nil
	}
	if err != nil {
		logger.Error("failed to persist question failure", logging.Error(err))
		return fmt.Errorf("persist failure: %w", err)
	}

	if retry {
		logger.Warn("question failed; will retry",
			logging.Error(cause),
			logging.Int("attempt", job.Attempt),
			logging.Int("max_attempts", maxAttempts),
			logging.String(logging.FieldErrorKind, kind),
			logging.Event("question_retry"),
		)
		return nil
	}

	logger.Error("question failed",
		logging.Error(cause),
		logging.Int("attempt", job.Attempt),
		logging.String(logging.FieldErrorKind, kind),
		logging.Event("question_failed"),
		logging.String(logging.FieldErrorHint, failureHint(cause)),
	)
	m.notifyQuestionFailed(ctx, job, message)
	m.notifyMeetingUpdates(ctx, []queue.MeetingUpdate{update})
	return nil
}

func failureMessage(err error) string {
	if err == nil {
		return "enrichment failed without error detail"
	}
	message := strings.TrimSpace(err.Error())
	if message == "" {
		return "enrichment failed"
	}
	return message
}

func failureHint(err error) string {
	switch {
	case errors.Is(err, services.ErrConfiguration):
		return "check enrichment provider and api key"
	case errors.Is(err, services.ErrValidation):
		return "check the question text in the uploaded agenda"
	case errors.Is(err, services.ErrRateLimited):
		return "provider quota exhausted; requeue the question later"
	default:
		return "requeue the question once the cause is resolved"
	}
}
