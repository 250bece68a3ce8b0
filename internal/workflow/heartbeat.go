package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/stevendeporre123/quest-app/internal/logging"
	"github.com/stevendeporre123/quest-app/internal/queue"
)

// HeartbeatMonitor keeps claimed questions alive and reclaims abandoned ones.
type HeartbeatMonitor struct {
	store             *queue.Store
	logger            *slog.Logger
	heartbeatInterval time.Duration
	heartbeatTimeout  time.Duration
	maxAttempts       int
}

// NewHeartbeatMonitor creates a new monitor.
func NewHeartbeatMonitor(store *queue.Store, logger *slog.Logger, interval, timeout time.Duration, maxAttempts int) *HeartbeatMonitor {
	return &HeartbeatMonitor{
		store:             store,
		logger:            logger,
		heartbeatInterval: interval,
		heartbeatTimeout:  timeout,
		maxAttempts:       maxAttempts,
	}
}

// ReclaimStale returns in_progress questions whose heartbeat is older than
// the liveness threshold to the queue, or fails them once their attempts are
// used up.
func (h *HeartbeatMonitor) ReclaimStale(ctx context.Context, now time.Time) (queue.ReclaimResult, error) {
	if h.heartbeatTimeout <= 0 {
		return queue.ReclaimResult{}, nil
	}
	result, err := h.store.ReclaimStale(ctx, now.Add(-h.heartbeatTimeout), h.maxAttempts)
	if err != nil {
		return queue.ReclaimResult{}, err
	}
	if result.Requeued > 0 || result.Failed > 0 {
		h.logger.Info("reclaimed stale questions",
			logging.Int64("requeued", result.Requeued),
			logging.Int64("failed", result.Failed),
			logging.Event("heartbeat_reclaim"),
		)
	}
	return result, nil
}

// StartLoop refreshes the heartbeat for a claim until ctx ends. When the
// claim is gone it cancels the job with queue.ErrJobLost so enrichment stops
// early.
func (h *HeartbeatMonitor) StartLoop(ctx context.Context, wg *sync.WaitGroup, claim queue.Claim, cancel context.CancelCauseFunc) {
	defer wg.Done()
	if h.heartbeatInterval <= 0 {
		return
	}
	ticker := time.NewTicker(h.heartbeatInterval)
	defer ticker.Stop()

	logger := logging.WithContext(ctx, h.logger.With(logging.String(logging.FieldComponent, "workflow-heartbeat")))

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := h.store.UpdateHeartbeat(ctx, claim)
			switch {
			case err == nil:
			case errors.Is(err, queue.ErrJobLost):
				logger.Warn("question no longer claimed; abandoning job",
					logging.Event("job_lost"),
				)
				cancel(queue.ErrJobLost)
				return
			case errors.Is(err, context.Canceled):
				return
			default:
				logger.Warn("heartbeat update failed", logging.Error(err))
			}
		}
	}
}
