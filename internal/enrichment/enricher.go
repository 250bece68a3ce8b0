package enrichment

import (
	"context"
	"fmt"

	"github.com/stevendeporre123/quest-app/internal/config"
	"github.com/stevendeporre123/quest-app/internal/queue"
	"github.com/stevendeporre123/quest-app/internal/services"
)

const stage = "enrichment"

// Request carries everything the model sees for one question.
type Request struct {
	MeetingDate    string
	CommissionName string
	Transcript     string
	Question       queue.QuestionFields
}

// RequestFromJob builds a request from a claimed job.
func RequestFromJob(job *queue.Job) Request {
	req := Request{Question: job.Question.QuestionFields}
	if job.Meeting != nil {
		req.MeetingDate = job.Meeting.MeetingDate
		req.CommissionName = job.Meeting.CommissionName
		req.Transcript = job.Meeting.Transcript
	}
	return req
}

// Enricher produces an answer for a single question. Implementations must
// honor ctx cancellation.
type Enricher interface {
	Enrich(ctx context.Context, req Request) (queue.Answer, error)
	Name() string
}

// completer sends one system/user prompt pair and returns the raw text reply.
type completer interface {
	complete(ctx context.Context, system, user string) (string, error)
	name() string
}

// Client implements Enricher on top of a provider.
type Client struct {
	provider completer
}

// New builds the enricher selected by cfg.Enrichment.Provider. An empty model
// falls back to the provider default.
func New(cfg config.Enrichment) (*Client, error) {
	if cfg.Model == "" {
		cfg.Model = config.DefaultModel(cfg.Provider)
	}
	if cfg.APIKey == "" {
		return nil, services.Wrap(services.ErrConfiguration, stage, "new client", "api key is not configured", nil)
	}
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return &Client{provider: newOpenAIProvider(cfg)}, nil
	case config.ProviderAnthropic:
		return &Client{provider: newAnthropicProvider(cfg)}, nil
	default:
		return nil, services.Wrap(services.ErrConfiguration, stage, "new client", fmt.Sprintf("unknown provider %q", cfg.Provider), nil)
	}
}

// Name reports the provider and model in use.
func (c *Client) Name() string {
	return c.provider.name()
}

// Enrich asks the model to locate the question and its answer in the
// transcript. The question text in the result always comes from the agenda.
func (c *Client) Enrich(ctx context.Context, req Request) (queue.Answer, error) {
	if err := validateRequest(req); err != nil {
		return queue.Answer{}, err
	}
	user, err := buildUserPrompt(req)
	if err != nil {
		return queue.Answer{}, services.Wrap(services.ErrValidation, stage, "build prompt", "", err)
	}
	content, err := c.provider.complete(ctx, systemPrompt, user)
	if err != nil {
		return queue.Answer{}, classify(ctx, c.provider.name(), err)
	}
	return decodeAnswer(content)
}

func validateRequest(req Request) error {
	if req.Question.QuestionText == "" {
		return services.Wrap(services.ErrValidation, stage, "validate", "question text is empty", nil)
	}
	return nil
}
