package config

const (
	defaultConfigPath                = "~/.config/quest/config.toml"
	defaultDataDir                   = "~/.local/share/quest"
	defaultLogDir                    = "~/.local/share/quest/logs"
	defaultAPIBind                   = "127.0.0.1:8040"
	defaultEnrichmentProvider        = ProviderOpenAI
	defaultOpenAIModel               = "gpt-4.1-mini"
	defaultAnthropicModel            = "claude-haiku-4-5"
	defaultEnrichmentTimeoutSeconds  = 90
	defaultEnrichmentMaxTokens       = 4096
	defaultLogFormat                 = "console"
	defaultLogLevel                  = "info"
	defaultWorkflowPollInterval      = 5
	defaultWorkflowHeartbeatInterval = 15
	defaultWorkflowHeartbeatTimeout  = 120
	defaultWorkflowMaxAttempts       = 3
	defaultWorkflowRetryDelay        = 30
	defaultWorkflowWorkerCount       = 1
	maxWorkflowWorkerCount           = 8
	defaultNotifyRequestTimeout      = 10
)

// Enrichment provider identifiers.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// DefaultModel returns the model used when a provider is configured without one.
func DefaultModel(provider string) string {
	if provider == ProviderAnthropic {
		return defaultAnthropicModel
	}
	return defaultOpenAIModel
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Enrichment: Enrichment{
			Provider:       defaultEnrichmentProvider,
			TimeoutSeconds: defaultEnrichmentTimeoutSeconds,
			MaxTokens:      defaultEnrichmentMaxTokens,
		},
		Workflow: Workflow{
			QueuePollInterval: defaultWorkflowPollInterval,
			HeartbeatInterval: defaultWorkflowHeartbeatInterval,
			HeartbeatTimeout:  defaultWorkflowHeartbeatTimeout,
			MaxAttempts:       defaultWorkflowMaxAttempts,
			RetryDelay:        defaultWorkflowRetryDelay,
			WorkerCount:       defaultWorkflowWorkerCount,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Notifications: Notifications{
			RequestTimeout:   defaultNotifyRequestTimeout,
			MeetingCompleted: true,
			QuestionFailed:   true,
		},
	}
}
