package workflow

import (
	"context"

	"github.com/stevendeporre123/quest-app/internal/logging"
	"github.com/stevendeporre123/quest-app/internal/queue"
)

// StatusSummary represents lightweight workflow diagnostics.
type StatusSummary struct {
	Running    bool
	Workers    int
	InFlight   int
	Enricher   string
	LastError  string
	LastJob    *queue.Claim
	QueueStats map[queue.Status]int
}

// Status returns the latest workflow information.
func (m *Manager) Status(ctx context.Context) StatusSummary {
	m.mu.RLock()
	summary := StatusSummary{
		Running:  m.running,
		Workers:  m.cfg.Workflow.WorkerCount,
		InFlight: m.inFlight,
	}
	if m.lastErr != nil {
		summary.LastError = m.lastErr.Error()
	}
	if m.lastJob != nil {
		claim := *m.lastJob
		summary.LastJob = &claim
	}
	m.mu.RUnlock()

	if m.enricher != nil {
		summary.Enricher = m.enricher.Name()
	}
	stats, err := m.store.Stats(ctx)
	if err != nil {
		m.logger.Warn("failed to read queue stats", logging.Error(err))
	}
	summary.QueueStats = stats
	return summary
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

func (m *Manager) trackJob(claim queue.Claim, delta int) {
	m.mu.Lock()
	m.inFlight += delta
	if delta > 0 {
		c := claim
		m.lastJob = &c
	}
	m.mu.Unlock()
}
