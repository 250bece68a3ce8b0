package config

import (
	"errors"
	"fmt"
	"sort"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateEnrichment(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return c.validateNotifications()
}

func (c *Config) validateEnrichment() error {
	switch c.Enrichment.Provider {
	case ProviderOpenAI, ProviderAnthropic:
	default:
		return fmt.Errorf("enrichment.provider: unsupported value %q (want %q or %q)", c.Enrichment.Provider, ProviderOpenAI, ProviderAnthropic)
	}
	return ensurePositiveMap(map[string]int{
		"enrichment.timeout_seconds": c.Enrichment.TimeoutSeconds,
		"enrichment.max_tokens":      c.Enrichment.MaxTokens,
	})
}

func (c *Config) validateWorkflow() error {
	if err := ensurePositiveMap(map[string]int{
		"workflow.queue_poll_interval": c.Workflow.QueuePollInterval,
		"workflow.heartbeat_interval":  c.Workflow.HeartbeatInterval,
		"workflow.heartbeat_timeout":   c.Workflow.HeartbeatTimeout,
		"workflow.max_attempts":        c.Workflow.MaxAttempts,
		"workflow.worker_count":        c.Workflow.WorkerCount,
	}); err != nil {
		return err
	}
	if c.Workflow.HeartbeatTimeout <= c.Workflow.HeartbeatInterval {
		return errors.New("workflow.heartbeat_timeout must be greater than workflow.heartbeat_interval")
	}
	if c.Workflow.RetryDelay < 0 {
		return errors.New("workflow.retry_delay must be zero or positive")
	}
	if c.Workflow.WorkerCount > maxWorkflowWorkerCount {
		return fmt.Errorf("workflow.worker_count must be at most %d", maxWorkflowWorkerCount)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.NtfyTopic == "" {
		return nil
	}
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if values[key] <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
