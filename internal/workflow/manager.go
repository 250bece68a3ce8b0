package workflow

import (
	"log/slog"
	"sync"
	"time"

	"github.com/stevendeporre123/quest-app/internal/config"
	"github.com/stevendeporre123/quest-app/internal/enrichment"
	"github.com/stevendeporre123/quest-app/internal/logging"
	"github.com/stevendeporre123/quest-app/internal/notifications"
	"github.com/stevendeporre123/quest-app/internal/queue"
)

// Manager coordinates question processing across a bounded worker pool.
type Manager struct {
	cfg      *config.Config
	store    *queue.Store
	enricher enrichment.Enricher
	notifier notifications.Service
	logger   *slog.Logger

	pollInterval time.Duration
	heartbeat    *HeartbeatMonitor
	wake         *wakeSignal
	now          func() time.Time

	mu       sync.RWMutex
	running  bool
	cancel   func()
	wg       sync.WaitGroup
	lastErr  error
	lastJob  *queue.Claim
	inFlight int
}

// NewManager constructs a workflow manager that notifies through ntfy when configured.
func NewManager(cfg *config.Config, store *queue.Store, enricher enrichment.Enricher, logger *slog.Logger) *Manager {
	return NewManagerWithNotifier(cfg, store, enricher, logger, notifications.NewService(cfg))
}

// NewManagerWithNotifier constructs a workflow manager with a custom notifier (used in tests).
func NewManagerWithNotifier(cfg *config.Config, store *queue.Store, enricher enrichment.Enricher, logger *slog.Logger, notifier notifications.Service) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "workflow")
	pollInterval := cfg.Workflow.PollInterval()
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	return &Manager{
		cfg:          cfg,
		store:        store,
		enricher:     enricher,
		notifier:     notifier,
		logger:       logger,
		pollInterval: pollInterval,
		heartbeat: NewHeartbeatMonitor(
			store,
			logger,
			cfg.Workflow.HeartbeatEvery(),
			cfg.Workflow.LivenessThreshold(),
			cfg.Workflow.MaxAttempts,
		),
		wake: newWakeSignal(),
		now:  time.Now,
	}
}

// Notify wakes idle workers so new or requeued work starts without waiting
// for the next poll.
func (m *Manager) Notify() {
	m.wake.broadcast()
}

// wakeSignal is a broadcast edge: waiters grab the current channel and are
// released together when it is closed and replaced.
type wakeSignal struct {
	mu sync.Mutex
	ch chan struct{}
}

func newWakeSignal() *wakeSignal {
	return &wakeSignal{ch: make(chan struct{})}
}

func (w *wakeSignal) channel() <-chan struct{} {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ch
}

func (w *wakeSignal) broadcast() {
	w.mu.Lock()
	close(w.ch)
	w.ch = make(chan struct{})
	w.mu.Unlock()
}
