package enrichment_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stevendeporre123/quest-app/internal/config"
	"github.com/stevendeporre123/quest-app/internal/enrichment"
	"github.com/stevendeporre123/quest-app/internal/queue"
	"github.com/stevendeporre123/quest-app/internal/services"
)

const modelReply = "```json\n" + `{
  "question_start_time": "0:01:02.000",
  "question_end_time": "0:02:00.000",
  "answer_start_time": "0:02:05.000",
  "answer_end_time": "0:04:10.500",
  "answer_text_verbatim": "Wel, de werken starten in mei.",
  "answer_text_raw": "De werken starten in mei.",
  "summary": "Start in mei.",
  "actions": ["planning bezorgen", " "],
  "topics": ["Mobiliteit"],
  "note": ""
}` + "\n```"

func sampleRequest() enrichment.Request {
	return enrichment.Request{
		MeetingDate:    "2025-03-10",
		CommissionName: "Commissie Mobiliteit",
		Transcript:     "00:02:05 Schepen: Wel, de werken starten in mei.",
		Question: queue.QuestionFields{
			DossierID:    "2025_0001",
			Title:        "Heraanleg Kerkstraat",
			QuestionText: "Wanneer starten de werken in de Kerkstraat?",
		},
	}
}

func newEnricher(t *testing.T, provider string, handler http.HandlerFunc) *enrichment.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.Default().Enrichment
	cfg.Provider = provider
	cfg.APIKey = "test-key"
	cfg.BaseURL = srv.URL + "/"
	client, err := enrichment.New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return client
}

func openAIReply(content string) []byte {
	payload := map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1,
		"model":   "gpt-4.1-mini",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
	}
	data, _ := json.Marshal(payload)
	return data
}

func writeError(w http.ResponseWriter, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, `{"error":{"message":"nope","type":"error"}}`)
}

func TestOpenAIEnrichDecodesAnswer(t *testing.T) {
	var gotBody string
	client := newEnricher(t, config.ProviderOpenAI, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("missing bearer token")
		}
		data, _ := io.ReadAll(r.Body)
		gotBody = string(data)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(openAIReply(modelReply))
	})

	answer, err := client.Enrich(context.Background(), sampleRequest())
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if answer.Text != "De werken starten in mei." || answer.Verbatim != "Wel, de werken starten in mei." {
		t.Fatalf("unexpected answer text %+v", answer)
	}
	if answer.AnswerEnd != "0:04:10.500" || len(answer.Actions) != 1 || answer.Topics[0] != "Mobiliteit" {
		t.Fatalf("unexpected answer metadata %+v", answer)
	}
	var sent struct {
		Model               string `json:"model"`
		MaxCompletionTokens int    `json:"max_completion_tokens"`
	}
	if err := json.Unmarshal([]byte(gotBody), &sent); err != nil {
		t.Fatalf("decode request body: %v", err)
	}
	if !strings.Contains(gotBody, "Kerkstraat") || sent.Model != "gpt-4.1-mini" {
		t.Fatalf("request body missing question or model: %s", gotBody)
	}
	if sent.MaxCompletionTokens != 4096 {
		t.Fatalf("expected token limit 4096, got %d", sent.MaxCompletionTokens)
	}
	if !strings.HasPrefix(client.Name(), "openai/") {
		t.Fatalf("unexpected name %q", client.Name())
	}
}

func TestAnthropicEnrichDecodesAnswer(t *testing.T) {
	client := newEnricher(t, config.ProviderAnthropic, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/v1/messages") {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.Header.Get("X-Api-Key") != "test-key" {
			t.Errorf("missing api key header")
		}
		payload := map[string]any{
			"id":            "msg_1",
			"type":          "message",
			"role":          "assistant",
			"model":         "claude-haiku-4-5",
			"content":       []map[string]any{{"type": "text", "text": "Hier is het resultaat: " + modelReply}},
			"stop_reason":   "end_turn",
			"stop_sequence": nil,
			"usage":         map[string]any{"input_tokens": 10, "output_tokens": 20},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(payload)
	})

	answer, err := client.Enrich(context.Background(), sampleRequest())
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if answer.Summary != "Start in mei." {
		t.Fatalf("unexpected summary %q", answer.Summary)
	}
}

func TestEnrichClassifiesProviderErrors(t *testing.T) {
	cases := []struct {
		name      string
		status    int
		marker    error
		transient bool
	}{
		{name: "rate limited", status: http.StatusTooManyRequests, marker: services.ErrRateLimited, transient: true},
		{name: "server error", status: http.StatusBadGateway, marker: services.ErrTransient, transient: true},
		{name: "bad request", status: http.StatusBadRequest, marker: services.ErrPermanent},
		{name: "unauthorized", status: http.StatusUnauthorized, marker: services.ErrConfiguration},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			calls := 0
			client := newEnricher(t, config.ProviderOpenAI, func(w http.ResponseWriter, r *http.Request) {
				calls++
				writeError(w, tc.status)
			})
			_, err := client.Enrich(context.Background(), sampleRequest())
			if !errors.Is(err, tc.marker) {
				t.Fatalf("expected %v, got %v", tc.marker, err)
			}
			if services.IsTransient(err) != tc.transient {
				t.Fatalf("transient=%v for %v", services.IsTransient(err), err)
			}
			if calls != 1 {
				t.Fatalf("expected a single provider call, got %d", calls)
			}
		})
	}
}

func TestEnrichMalformedReplyIsTransient(t *testing.T) {
	client := newEnricher(t, config.ProviderOpenAI, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(openAIReply("ik weet het niet"))
	})
	_, err := client.Enrich(context.Background(), sampleRequest())
	if err == nil || !services.IsTransient(err) {
		t.Fatalf("expected transient decode error, got %v", err)
	}
}

func TestEnrichDeadlineIsTimeout(t *testing.T) {
	client := newEnricher(t, config.ProviderOpenAI, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := client.Enrich(ctx, sampleRequest())
	if !errors.Is(err, services.ErrTimeout) || !services.IsTransient(err) {
		t.Fatalf("expected transient timeout, got %v", err)
	}
}

func TestEnrichRejectsEmptyQuestionWithoutCalling(t *testing.T) {
	client := newEnricher(t, config.ProviderOpenAI, func(w http.ResponseWriter, r *http.Request) {
		t.Error("provider must not be called")
	})
	req := sampleRequest()
	req.Question.QuestionText = ""
	_, err := client.Enrich(context.Background(), req)
	if !errors.Is(err, services.ErrValidation) || !services.IsPermanent(err) {
		t.Fatalf("expected permanent validation error, got %v", err)
	}
}

func TestNewRequiresKeyAndKnownProvider(t *testing.T) {
	cfg := config.Default().Enrichment
	cfg.APIKey = ""
	if _, err := enrichment.New(cfg); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	cfg.APIKey = "k"
	cfg.Provider = "bard"
	if _, err := enrichment.New(cfg); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestNewFallsBackToProviderDefaultModel(t *testing.T) {
	cases := map[string]string{
		config.ProviderOpenAI:    "openai/gpt-4.1-mini",
		config.ProviderAnthropic: "anthropic/claude-haiku-4-5",
	}
	for provider, want := range cases {
		cfg := config.Default().Enrichment
		cfg.Provider = provider
		cfg.APIKey = "k"
		cfg.Model = ""
		client, err := enrichment.New(cfg)
		if err != nil {
			t.Fatalf("New(%s): %v", provider, err)
		}
		if client.Name() != want {
			t.Fatalf("provider %s: got name %q want %q", provider, client.Name(), want)
		}
	}
}
