package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stevendeporre123/quest-app/internal/api"
	"github.com/stevendeporre123/quest-app/internal/config"
	"github.com/stevendeporre123/quest-app/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()
	for _, key := range []string{"OPENAI_API_KEY", "ANTHROPIC_API_KEY", "QUEST_ENRICHMENT_API_KEY", "QUEST_API_TOKEN"} {
		t.Setenv(key, "")
	}
	cfg := testsupport.NewConfig(t, opts...)
	// Nothing listens here, so commands fall back to the database.
	cfg.Paths.APIBind = "127.0.0.1:1"
	base := testsupport.BaseDir(cfg)
	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)
	return &cliTestEnv{cfg: cfg, configPath: configPath, baseDir: base}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(
		"[paths]\ndata_dir = %q\nlog_dir = %q\napi_bind = %q\napi_token = %q\n\n"+
			"[enrichment]\napi_key = %q\n\n"+
			"[workflow]\nqueue_poll_interval = %d\nretry_delay = %d\nmax_attempts = %d\n",
		cfg.Paths.DataDir,
		cfg.Paths.LogDir,
		cfg.Paths.APIBind,
		cfg.Paths.APIToken,
		cfg.Enrichment.APIKey,
		cfg.Workflow.QueuePollInterval,
		cfg.Workflow.RetryDelay,
		cfg.Workflow.MaxAttempts,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

// writeUploadFile writes an agenda of three questions where the first and
// last share a dossier.
func writeUploadFile(t *testing.T, dir string) string {
	t.Helper()
	req := api.UploadRequest{
		MeetingDate:    "2025-03-10",
		CommissionName: "Commissie Mobiliteit",
		WebcastID:      "webcast-7",
		Transcript:     "Voorzitter: we beginnen.",
		Questions: []api.UploadQuestion{
			{DossierID: "2025_0001", Title: "Fietsstraat Kerkstraat", QuestionText: "Wanneer wordt de fietsstraat aangelegd?"},
			{DossierID: "2025_0002", Title: "Parkeerbeleid", QuestionText: "Hoeveel bewonerskaarten zijn er uitgereikt?"},
			{DossierID: "2025_0001", Title: "Fietsstraat Kerkstraat (bis)", QuestionText: "Is er al een planning voor de fietsstraat?"},
		},
	}
	data, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal upload: %v", err)
	}
	path := filepath.Join(dir, "meeting.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write upload: %v", err)
	}
	return path
}

func waitFor(t *testing.T, duration time.Duration, fn func() bool) {
	t.Helper()
	deadline := time.Now().Add(duration)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s", duration)
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected output to contain %q\noutput:\n%s", substr, output)
	}
}
