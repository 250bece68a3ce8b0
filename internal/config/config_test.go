package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/stevendeporre123/quest-app/internal/config"
)

func clearEnrichmentEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"OPENAI_API_KEY", "ANTHROPIC_API_KEY", "QUEST_ENRICHMENT_API_KEY", "QUEST_API_TOKEN"} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaultConfigUsesEnvKeyAndExpandsPaths(t *testing.T) {
	clearEnrichmentEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "quest")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.DatabasePath() != filepath.Join(wantData, "quest.db") {
		t.Fatalf("unexpected database path: %q", cfg.DatabasePath())
	}
	if cfg.Paths.APIBind != "127.0.0.1:8040" {
		t.Fatalf("unexpected api bind: %q", cfg.Paths.APIBind)
	}
	if cfg.Enrichment.APIKey != "sk-test" {
		t.Fatalf("expected API key from env, got %q", cfg.Enrichment.APIKey)
	}
	if cfg.Enrichment.Model != "gpt-4.1-mini" {
		t.Fatalf("unexpected default model: %q", cfg.Enrichment.Model)
	}
	if cfg.Workflow.LivenessThreshold() != 2*time.Minute {
		t.Fatalf("unexpected liveness threshold: %s", cfg.Workflow.LivenessThreshold())
	}
	if cfg.Workflow.MaxAttempts != 3 {
		t.Fatalf("unexpected max attempts: %d", cfg.Workflow.MaxAttempts)
	}
	if cfg.Workflow.WorkerCount != 1 {
		t.Fatalf("expected single worker by default, got %d", cfg.Workflow.WorkerCount)
	}
}

func TestLoadCustomConfig(t *testing.T) {
	clearEnrichmentEnv(t)
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	configPath := filepath.Join(tempHome, "config.toml")
	content := `
[paths]
data_dir = "~/quest-data"
api_token = "secret"

[enrichment]
provider = "Anthropic"
api_key = "ak-test"

[workflow]
heartbeat_interval = 5
heartbeat_timeout = 30
max_attempts = 5
worker_count = 2

[logging]
format = "JSON"
level = "Debug"
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected config at %q, got %q (exists=%v)", configPath, resolved, exists)
	}
	if cfg.Paths.DataDir != filepath.Join(tempHome, "quest-data") {
		t.Fatalf("unexpected data dir: %q", cfg.Paths.DataDir)
	}
	if cfg.Enrichment.Provider != config.ProviderAnthropic {
		t.Fatalf("expected provider normalized to anthropic, got %q", cfg.Enrichment.Provider)
	}
	if !strings.HasPrefix(cfg.Enrichment.Model, "claude") {
		t.Fatalf("expected anthropic default model, got %q", cfg.Enrichment.Model)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("expected lower-cased logging values, got %q/%q", cfg.Logging.Format, cfg.Logging.Level)
	}
	if cfg.Workflow.MaxAttempts != 5 || cfg.Workflow.WorkerCount != 2 {
		t.Fatalf("unexpected workflow overrides: %+v", cfg.Workflow)
	}
	if cfg.Paths.APIToken != "secret" {
		t.Fatalf("unexpected api token: %q", cfg.Paths.APIToken)
	}
}

func TestValidateRejectsBadWorkflow(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{
			name:   "timeout not above interval",
			mutate: func(c *config.Config) { c.Workflow.HeartbeatTimeout = c.Workflow.HeartbeatInterval },
			want:   "heartbeat_timeout",
		},
		{
			name:   "zero attempts",
			mutate: func(c *config.Config) { c.Workflow.MaxAttempts = 0 },
			want:   "workflow.max_attempts",
		},
		{
			name:   "too many workers",
			mutate: func(c *config.Config) { c.Workflow.WorkerCount = 64 },
			want:   "worker_count",
		},
		{
			name:   "negative retry delay",
			mutate: func(c *config.Config) { c.Workflow.RetryDelay = -1 },
			want:   "retry_delay",
		},
		{
			name:   "unknown provider",
			mutate: func(c *config.Config) { c.Enrichment.Provider = "bard" },
			want:   "enrichment.provider",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	clearEnrichmentEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[workflow]\nlane_count = 2\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected unknown key to be rejected")
	}
}

func TestSampleConfigParsesAndValidates(t *testing.T) {
	clearEnrichmentEnv(t)
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "sample", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		t.Fatalf("sample is not valid TOML: %v", err)
	}
	if _, _, _, err := config.Load(path); err != nil {
		t.Fatalf("sample config failed to load: %v", err)
	}
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.LogDir} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %q, err=%v", dir, err)
		}
	}
}
