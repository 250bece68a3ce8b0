package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stevendeporre123/quest-app/internal/logging"
)

const maxWorkers = 8

// Start launches the worker pool. Work left behind by a previous process is
// reclaimed before the first claim.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("workflow already running")
	}
	if m.enricher == nil {
		m.mu.Unlock()
		return errors.New("workflow enricher not configured")
	}

	workers := m.cfg.Workflow.WorkerCount
	if workers <= 0 {
		workers = 1
	}
	if workers > maxWorkers {
		workers = maxWorkers
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(workers)
	m.mu.Unlock()

	if _, err := m.heartbeat.ReclaimStale(runCtx, m.now()); err != nil {
		m.logger.Warn("startup reclaim failed; stale questions will be retried next cycle",
			logging.Error(err),
			logging.Event("heartbeat_reclaim_failed"),
			logging.String(logging.FieldErrorHint, "check database access"),
		)
	}

	m.logger.Info("workflow started",
		logging.Int("workers", workers),
		logging.String("enricher", m.enricher.Name()),
		logging.Duration("poll_interval", m.pollInterval),
	)
	for i := 0; i < workers; i++ {
		go m.runWorker(runCtx, fmt.Sprintf("worker-%d", i+1))
	}
	return nil
}

// Stop cancels the workers and waits for them to release in-flight questions.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
	m.logger.Info("workflow stopped")
}

func (m *Manager) runWorker(ctx context.Context, worker string) {
	defer m.wg.Done()
	logger := m.logger.With(logging.String(logging.FieldWorker, worker))

	for {
		if ctx.Err() != nil {
			return
		}
		// Taken before the cycle so a Notify during it is not missed.
		wake := m.wake.channel()

		worked, err := m.dispatch(ctx, worker)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			m.setLastError(err)
			logger.Error("dispatch cycle failed",
				logging.Error(err),
				logging.Event("dispatch_failed"),
				logging.String(logging.FieldErrorHint, "check database access"),
			)
			m.sleep(ctx, nil)
			continue
		}
		if !worked {
			m.sleep(ctx, wake)
		}
	}
}

func (m *Manager) sleep(ctx context.Context, wake <-chan struct{}) {
	timer := time.NewTimer(m.pollInterval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	case <-wake:
	}
}
