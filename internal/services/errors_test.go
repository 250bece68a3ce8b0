package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stevendeporre123/quest-app/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrRateLimited, "enrichment", "openai", "throttled", base)
	if !errors.Is(err, services.ErrRateLimited) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"enrichment", "openai", "throttled"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected placeholder detail, got %q", err.Error())
	}
}

func TestClassification(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		transient bool
		kind      string
	}{
		{"nil", nil, false, ""},
		{"timeout", services.Wrap(services.ErrTimeout, "enrichment", "call", "deadline", nil), true, "timeout"},
		{"deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), true, "timeout"},
		{"rate limit", services.Wrap(services.ErrRateLimited, "enrichment", "call", "429", nil), true, "rate_limited"},
		{"transient", services.Wrap(services.ErrTransient, "enrichment", "call", "502", nil), true, "transient"},
		{"validation", services.Wrap(services.ErrValidation, "workflow", "validate", "empty question", nil), false, "validation"},
		{
			"permanent wins over transient cause",
			services.Wrap(services.ErrPermanent, "enrichment", "call", "bad request", services.ErrTransient),
			false,
			"permanent",
		},
		{"unclassified", errors.New("mystery"), false, "unclassified"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := services.IsTransient(tc.err); got != tc.transient {
				t.Fatalf("IsTransient = %v, want %v", got, tc.transient)
			}
			if got := services.Kind(tc.err); got != tc.kind {
				t.Fatalf("Kind = %q, want %q", got, tc.kind)
			}
		})
	}
}
