package testsupport

import (
	"context"
	"sync"

	"github.com/stevendeporre123/quest-app/internal/notifications"
)

// PublishedEvent is one notification captured by RecordingNotifier.
type PublishedEvent struct {
	Event   notifications.Event
	Payload notifications.Payload
}

// RecordingNotifier captures published notifications in memory.
type RecordingNotifier struct {
	mu     sync.Mutex
	events []PublishedEvent
}

// Publish implements notifications.Service.
func (r *RecordingNotifier) Publish(_ context.Context, event notifications.Event, payload notifications.Payload) error {
	r.mu.Lock()
	r.events = append(r.events, PublishedEvent{Event: event, Payload: payload})
	r.mu.Unlock()
	return nil
}

// Events returns the captured notifications of the given type, or all when event is empty.
func (r *RecordingNotifier) Events(event notifications.Event) []PublishedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []PublishedEvent
	for _, e := range r.events {
		if event == "" || e.Event == event {
			out = append(out, e)
		}
	}
	return out
}
