package testsupport

import (
	"context"
	"sync"

	"github.com/stevendeporre123/quest-app/internal/enrichment"
	"github.com/stevendeporre123/quest-app/internal/queue"
)

// StubEnricher records calls and answers through a caller-supplied function.
// With no function it echoes the question text as the answer.
type StubEnricher struct {
	Fn func(ctx context.Context, req enrichment.Request) (queue.Answer, error)

	mu    sync.Mutex
	calls []enrichment.Request
}

// Enrich implements enrichment.Enricher.
func (s *StubEnricher) Enrich(ctx context.Context, req enrichment.Request) (queue.Answer, error) {
	s.mu.Lock()
	s.calls = append(s.calls, req)
	s.mu.Unlock()
	if s.Fn != nil {
		return s.Fn(ctx, req)
	}
	return queue.Answer{Text: "answer: " + req.Question.QuestionText, Summary: "stub"}, nil
}

// Name implements enrichment.Enricher.
func (s *StubEnricher) Name() string { return "stub" }

// Calls returns a copy of the recorded requests in call order.
func (s *StubEnricher) Calls() []enrichment.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]enrichment.Request(nil), s.calls...)
}
