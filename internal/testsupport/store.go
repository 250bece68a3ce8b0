package testsupport

import (
	"context"
	"fmt"
	"testing"

	"github.com/stevendeporre123/quest-app/internal/config"
	"github.com/stevendeporre123/quest-app/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

// NewMeeting builds an ingest payload with count questions whose text is
// distinct per agenda position.
func NewMeeting(count int) queue.NewMeeting {
	meeting := queue.NewMeeting{
		MeetingDate:    "2025-03-10",
		CommissionName: "Commissie Mobiliteit",
		WebcastID:      "webcast-1",
		Transcript:     "Voorzitter: we beginnen met de eerste vraag.",
	}
	for i := 0; i < count; i++ {
		meeting.Questions = append(meeting.Questions, queue.QuestionFields{
			DossierID:          fmt.Sprintf("2025_%04d", i+1),
			Title:              fmt.Sprintf("Vraag %d", i+1),
			Subject:            fmt.Sprintf("Onderwerp %d", i+1),
			SubmitterGivenName: "An",
			AssigneeLabel:      "Schepen van Mobiliteit",
			QuestionText:       fmt.Sprintf("Wat is de stand van zaken voor dossier %d?", i+1),
		})
	}
	return meeting
}

// MustCreateMeeting ingests a meeting with count questions and returns it
// together with its questions in agenda order.
func MustCreateMeeting(t testing.TB, store *queue.Store, count int) (*queue.Meeting, []*queue.Question) {
	t.Helper()

	ctx := context.Background()
	meeting, err := store.CreateMeeting(ctx, NewMeeting(count))
	if err != nil {
		t.Fatalf("CreateMeeting: %v", err)
	}
	questions, err := store.ListQuestions(ctx, meeting.ID)
	if err != nil {
		t.Fatalf("ListQuestions: %v", err)
	}
	return meeting, questions
}

// MustReloadQuestion fetches a question that is expected to exist.
func MustReloadQuestion(t testing.TB, store *queue.Store, id int64) *queue.Question {
	t.Helper()

	question, err := store.GetQuestion(context.Background(), id)
	if err != nil {
		t.Fatalf("GetQuestion(%d): %v", id, err)
	}
	if question == nil {
		t.Fatalf("question %d not found", id)
	}
	return question
}

// MustReloadMeeting fetches a meeting that is expected to exist.
func MustReloadMeeting(t testing.TB, store *queue.Store, id int64) *queue.Meeting {
	t.Helper()

	meeting, err := store.GetMeeting(context.Background(), id)
	if err != nil {
		t.Fatalf("GetMeeting(%d): %v", id, err)
	}
	if meeting == nil {
		t.Fatalf("meeting %d not found", id)
	}
	return meeting
}
