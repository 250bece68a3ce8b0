package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/stevendeporre123/quest-app/internal/enrichment"
	"github.com/stevendeporre123/quest-app/internal/logging"
	"github.com/stevendeporre123/quest-app/internal/queue"
	"github.com/stevendeporre123/quest-app/internal/services"
)

const releaseTimeout = 5 * time.Second

// DispatchOnce runs a single dispatcher cycle on the calling goroutine. It
// reports whether any question changed state. On an idle store it writes
// nothing.
func (m *Manager) DispatchOnce(ctx context.Context) (bool, error) {
	return m.dispatch(ctx, "dispatch")
}

func (m *Manager) dispatch(ctx context.Context, worker string) (bool, error) {
	reclaimed, err := m.heartbeat.ReclaimStale(ctx, m.now())
	if err != nil {
		return false, fmt.Errorf("reclaim stale questions: %w", err)
	}
	m.notifyMeetingUpdates(ctx, reclaimed.Updates)

	updates, resolved, err := m.store.ResolveInherited(ctx)
	if err != nil {
		return false, fmt.Errorf("resolve inherited answers: %w", err)
	}
	if resolved > 0 {
		m.logger.Info("resolved inherited answers",
			logging.Int("count", resolved),
			logging.Event("inheritance_resolved"),
		)
	}
	m.notifyMeetingUpdates(ctx, updates)

	job, err := m.store.ClaimNext(ctx)
	if err != nil {
		return false, fmt.Errorf("claim next question: %w", err)
	}
	changed := reclaimed.Requeued > 0 || reclaimed.Failed > 0 || resolved > 0
	if job == nil {
		return changed, nil
	}
	if err := m.processJob(ctx, worker, job); err != nil {
		return true, err
	}
	return true, nil
}

func withJobContext(ctx context.Context, worker string, job *queue.Job, requestID string) context.Context {
	ctx = services.WithMeetingID(ctx, job.MeetingID)
	ctx = services.WithQuestionID(ctx, job.QuestionID)
	if worker != "" {
		ctx = services.WithWorker(ctx, worker)
	}
	if requestID != "" {
		ctx = services.WithRequestID(ctx, requestID)
	}
	return ctx
}

// processJob runs enrichment for one claimed question and records the
// outcome. Errors returned here are store failures; enrichment failures are
// written to the question row instead.
func (m *Manager) processJob(ctx context.Context, worker string, job *queue.Job) error {
	jobCtx := withJobContext(ctx, worker, job, uuid.NewString())
	logger := logging.WithContext(jobCtx, m.logger)
	m.trackJob(job.Claim, 1)
	defer m.trackJob(job.Claim, -1)

	start := m.now()
	logger.Info("question processing started",
		logging.Int("attempt", job.Attempt),
		logging.Int("source_idx", job.Question.SourceIdx),
		logging.Event("question_start"),
	)

	hbCtx, cancelJob := context.WithCancelCause(jobCtx)
	var hbWG sync.WaitGroup
	hbWG.Add(1)
	go m.heartbeat.StartLoop(hbCtx, &hbWG, job.Claim, cancelJob)

	answer, enrichErr := m.enrich(hbCtx, job)
	lost := errors.Is(context.Cause(hbCtx), queue.ErrJobLost)
	cancelJob(nil)
	hbWG.Wait()

	if lost {
		logger.Warn("question abandoned after losing its claim",
			logging.Event("job_lost"),
		)
		return nil
	}
	if enrichErr != nil {
		if ctx.Err() != nil {
			m.release(jobCtx, job, logger)
			return ctx.Err()
		}
		return m.handleFailure(jobCtx, job, enrichErr, logger)
	}

	// A finished answer is kept even when shutdown started meanwhile.
	update, err := m.store.CompleteQuestion(context.WithoutCancel(jobCtx), job.Claim, answer)
	if errors.Is(err, queue.ErrJobLost) {
		logger.Warn("question abandoned after losing its claim",
			logging.Event("job_lost"),
		)
		return nil
	}
	if err != nil {
		m.setLastError(err)
		logger.Error("failed to persist answer", logging.Error(err))
		return fmt.Errorf("persist answer: %w", err)
	}
	logger.Info("question processing completed",
		logging.Duration("duration", m.now().Sub(start)),
		logging.String("meeting_state", string(update.After)),
		logging.Event("question_complete"),
	)
	m.notifyMeetingUpdates(jobCtx, []queue.MeetingUpdate{update})
	return nil
}

func (m *Manager) enrich(ctx context.Context, job *queue.Job) (queue.Answer, error) {
	if strings.TrimSpace(job.Question.QuestionText) == "" {
		return queue.Answer{}, services.Wrap(services.ErrValidation, "enrichment", "validate", "question text is empty", nil)
	}
	timeout := m.cfg.Enrichment.Timeout()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	answer, err := m.enricher.Enrich(ctx, enrichment.RequestFromJob(job))
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(err, services.ErrTimeout) {
		err = services.Wrap(services.ErrTimeout, "enrichment", m.enricher.Name(), "enrichment deadline exceeded", err)
	}
	return answer, err
}

// release hands the question back on shutdown. The write uses a detached
// context because the run context is already canceled.
func (m *Manager) release(ctx context.Context, job *queue.Job, logger *slog.Logger) {
	releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()
	if _, err := m.store.ReleaseQuestion(releaseCtx, job.Claim, ""); err != nil && !errors.Is(err, queue.ErrJobLost) {
		logger.Warn("failed to release question on shutdown; heartbeat reclaim will recover it", logging.Error(err))
		return
	}
	logger.Info("question released on shutdown", logging.Event("question_released"))
}
