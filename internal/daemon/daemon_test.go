package daemon_test

import (
	"context"
	"testing"

	"github.com/stevendeporre123/quest-app/internal/daemon"
	"github.com/stevendeporre123/quest-app/internal/testsupport"
	"github.com/stevendeporre123/quest-app/internal/workflow"
)

func TestDaemonStartStop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	mgr := workflow.NewManagerWithNotifier(cfg, store, &testsupport.StubEnricher{}, nil, &testsupport.RecordingNotifier{})
	d, err := daemon.New(cfg, store, nil, mgr)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() {
		d.Stop()
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	status := d.Status(ctx)
	if !status.Running || !status.Workflow.Running {
		t.Fatal("expected daemon and workflow to report running")
	}
	if status.APIAddress == "" {
		t.Fatal("expected api address while running")
	}

	// Second start should fail
	if err := d.Start(ctx); err == nil {
		t.Fatal("expected second start to fail")
	}

	d.Stop()
	status = d.Status(ctx)
	if status.Running || status.Workflow.Running {
		t.Fatal("expected daemon to be stopped")
	}
	if status.APIAddress != "" {
		t.Fatalf("expected no api address after stop, got %q", status.APIAddress)
	}
}

func TestDaemonLockPreventsSecondInstance(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	first, err := daemon.New(cfg, store, nil, workflow.NewManagerWithNotifier(cfg, store, &testsupport.StubEnricher{}, nil, &testsupport.RecordingNotifier{}))
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	second, err := daemon.New(cfg, store, nil, workflow.NewManagerWithNotifier(cfg, store, &testsupport.StubEnricher{}, nil, &testsupport.RecordingNotifier{}))
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	ctx := context.Background()
	if err := first.Start(ctx); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	defer first.Stop()

	if err := second.Start(ctx); err == nil {
		second.Stop()
		t.Fatal("expected lock to reject a second daemon on the same data dir")
	}
}

func TestTestNotificationWithoutTopic(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	d, err := daemon.New(cfg, store, nil, workflow.NewManager(cfg, store, &testsupport.StubEnricher{}, nil))
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	sent, message, err := d.TestNotification(context.Background())
	if err != nil || sent {
		t.Fatalf("expected no notification without topic, sent=%v err=%v", sent, err)
	}
	if message == "" {
		t.Fatal("expected explanatory message")
	}
}
