package main

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/stevendeporre123/quest-app/internal/api"
	"github.com/stevendeporre123/quest-app/internal/config"
	"github.com/stevendeporre123/quest-app/internal/queue"
)

// processingBackend is satisfied by the daemon HTTP client and by a
// ProcessingService over a directly opened store.
type processingBackend interface {
	MeetingProgress(ctx context.Context, meetingID int64) (*api.MeetingProgress, error)
	Queue(ctx context.Context) (api.QueueResponse, error)
	Upload(ctx context.Context, req api.UploadRequest) (api.UploadResponse, error)
	ListMeetings(ctx context.Context) (api.MeetingListResponse, error)
	DescribeMeeting(ctx context.Context, meetingID int64) (*api.MeetingDetail, error)
	DeleteMeeting(ctx context.Context, meetingID int64) (bool, error)
	SetInheritance(ctx context.Context, questionID int64, req api.InheritRequest) (*api.Question, error)
	Requeue(ctx context.Context, questionID int64) (*api.Question, error)
	Suggestions(ctx context.Context, meetingID int64) (*api.SuggestionsResponse, error)
}

const daemonProbeTimeout = 750 * time.Millisecond

type commandContext struct {
	configFlag *string
	localFlag  *bool

	configOnce   sync.Once
	config       *config.Config
	configPath   string
	configExists bool
	configErr    error
}

func newCommandContext(configFlag *string, localFlag *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		localFlag:  localFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, exists, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
		c.configExists = exists
	})
	return c.config, c.configErr
}

func (c *commandContext) localOnly() bool {
	return c.localFlag != nil && *c.localFlag
}

// daemon returns a client for the running daemon, or nil when it is not
// reachable or --local was given.
func (c *commandContext) daemon(ctx context.Context) *daemonClient {
	if c.localOnly() {
		return nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil
	}
	client := newDaemonClient(cfg)
	probeCtx, cancel := context.WithTimeout(ctx, daemonProbeTimeout)
	defer cancel()
	if _, err := client.Status(probeCtx); err != nil {
		return nil
	}
	return client
}

// withBackend routes through the daemon when it is running so writes wake
// its dispatcher, and falls back to the database otherwise.
func (c *commandContext) withBackend(cmd *cobra.Command, fn func(processingBackend) error) error {
	if client := c.daemon(cmd.Context()); client != nil {
		return fn(client)
	}
	return c.withStore(func(store *queue.Store) error {
		return fn(api.NewProcessingService(store, nil))
	})
}

func (c *commandContext) withStore(fn func(*queue.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := queue.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
