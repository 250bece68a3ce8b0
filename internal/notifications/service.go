package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/stevendeporre123/quest-app/internal/config"
)

const userAgent = "quest-app/0.1.0"

// Event identifies a notification type.
type Event string

const (
	EventMeetingCompleted Event = "meeting_completed"
	EventQuestionFailed   Event = "question_failed"
	EventTest             Event = "test"
)

// Payload carries event-specific values keyed by name.
type Payload map[string]any

// Service defines the notification surface exposed to workflow components.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		enabled: map[Event]bool{
			EventMeetingCompleted: cfg.Notifications.MeetingCompleted,
			EventQuestionFailed:   cfg.Notifications.QuestionFailed,
			EventTest:             true,
		},
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	enabled  map[Event]bool
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	if !n.enabled[event] {
		return nil
	}
	msg, ok := format(event, payload)
	if !ok {
		return nil
	}
	return n.send(ctx, msg)
}

func format(event Event, payload Payload) (message, bool) {
	switch event {
	case EventMeetingCompleted:
		label := meetingLabel(payload)
		completed := intValue(payload["completed"])
		errs := intValue(payload["errors"])
		if errs == 0 {
			return message{
				title: "Quest - Meeting Processed",
				body:  fmt.Sprintf("✅ %s: %d questions answered", label, completed),
				tags:  []string{"quest", "meeting", "completed"},
			}, true
		}
		return message{
			title:    "Quest - Meeting Processed (with errors)",
			body:     fmt.Sprintf("⚠️ %s: %d answered, %d failed", label, completed, errs),
			tags:     []string{"quest", "meeting", "errors"},
			priority: "high",
		}, true
	case EventQuestionFailed:
		body := fmt.Sprintf("❌ Question #%d of %s failed", intValue(payload["index"]), meetingLabel(payload))
		if reason := stringValue(payload["error"]); reason != "" {
			body += ": " + reason
		}
		return message{
			title:    "Quest - Question Failed",
			body:     body,
			tags:     []string{"quest", "question", "error"},
			priority: "high",
		}, true
	case EventTest:
		return message{
			title:    "Quest - Test",
			body:     "🧪 Notification system test",
			tags:     []string{"quest", "test"},
			priority: "low",
		}, true
	default:
		return message{}, false
	}
}

func meetingLabel(payload Payload) string {
	label := fmt.Sprintf("meeting %d", intValue(payload["meetingID"]))
	if name := stringValue(payload["commission"]); name != "" {
		label = name
		if date := stringValue(payload["date"]); date != "" {
			label += " (" + date + ")"
		}
	}
	return label
}

func stringValue(value any) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case fmt.Stringer:
		return strings.TrimSpace(v.String())
	case error:
		return strings.TrimSpace(v.Error())
	default:
		return ""
	}
}

func intValue(value any) int64 {
	switch v := value.(type) {
	case int:
		return int64(v)
	case int64:
		return v
	default:
		return 0
	}
}

func (n *ntfyService) send(ctx context.Context, msg message) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(msg.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if msg.title != "" {
		req.Header.Set("Title", msg.title)
	}
	if len(msg.tags) > 0 {
		req.Header.Set("Tags", strings.Join(msg.tags, ","))
	}
	if msg.priority != "" && msg.priority != "default" {
		req.Header.Set("Priority", msg.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
