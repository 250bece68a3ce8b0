package queue_test

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/stevendeporre123/quest-app/internal/progress"
	"github.com/stevendeporre123/quest-app/internal/queue"
	"github.com/stevendeporre123/quest-app/internal/testsupport"
)

func mustInherit(t *testing.T, store *queue.Store, questionID, sourceID int64) *queue.Question {
	t.Helper()
	q, err := store.SetInheritance(context.Background(), questionID, &sourceID)
	if err != nil {
		t.Fatalf("SetInheritance(%d <- %d): %v", questionID, sourceID, err)
	}
	return q
}

func TestSetInheritanceRejectsCycles(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	_, qs := testsupport.MustCreateMeeting(t, store, 3)
	ctx := context.Background()

	mustInherit(t, store, qs[1].ID, qs[0].ID)
	mustInherit(t, store, qs[2].ID, qs[1].ID)

	back := qs[2].ID
	if _, err := store.SetInheritance(ctx, qs[0].ID, &back); !errors.Is(err, queue.ErrInheritanceCycle) {
		t.Fatalf("expected cycle error, got %v", err)
	}
	self := qs[0].ID
	if _, err := store.SetInheritance(ctx, qs[0].ID, &self); !errors.Is(err, queue.ErrInheritanceCycle) {
		t.Fatalf("expected self-inheritance to be rejected, got %v", err)
	}
	if q := testsupport.MustReloadQuestion(t, store, qs[0].ID); q.InheritsFromID != nil {
		t.Fatal("rejected assignment must not be persisted")
	}
}

func TestSetInheritanceRejectsOtherMeeting(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	_, first := testsupport.MustCreateMeeting(t, store, 1)
	_, second := testsupport.MustCreateMeeting(t, store, 1)

	source := second[0].ID
	if _, err := store.SetInheritance(context.Background(), first[0].ID, &source); !errors.Is(err, queue.ErrCrossMeeting) {
		t.Fatalf("expected ErrCrossMeeting, got %v", err)
	}
	missing := int64(9999)
	if _, err := store.SetInheritance(context.Background(), first[0].ID, &missing); !errors.Is(err, queue.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSetInheritanceRefusesBusyQuestion(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	_, qs := testsupport.MustCreateMeeting(t, store, 2)
	job := mustClaim(t, store)

	source := qs[1].ID
	if _, err := store.SetInheritance(context.Background(), job.QuestionID, &source); !errors.Is(err, queue.ErrQuestionBusy) {
		t.Fatalf("expected ErrQuestionBusy, got %v", err)
	}
}

func TestGroupPrimaryTracksChainRoot(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	_, qs := testsupport.MustCreateMeeting(t, store, 4)

	mustInherit(t, store, qs[1].ID, qs[0].ID)
	mustInherit(t, store, qs[2].ID, qs[1].ID)

	for _, q := range qs[:3] {
		got := testsupport.MustReloadQuestion(t, store, q.ID)
		if got.GroupPrimaryID == nil || *got.GroupPrimaryID != qs[0].ID {
			t.Fatalf("question %d: expected primary %d, got %v", q.ID, qs[0].ID, got.GroupPrimaryID)
		}
	}
	if loner := testsupport.MustReloadQuestion(t, store, qs[3].ID); loner.GroupPrimaryID != nil || loner.GroupPrimary() != qs[3].ID {
		t.Fatalf("ungrouped question must be its own primary, got %v", loner.GroupPrimaryID)
	}

	if _, err := store.SetInheritance(context.Background(), qs[2].ID, nil); err != nil {
		t.Fatalf("clear inheritance: %v", err)
	}
	if cleared := testsupport.MustReloadQuestion(t, store, qs[2].ID); cleared.GroupPrimaryID != nil || cleared.InheritsFromID != nil {
		t.Fatalf("expected cleared question to leave the group, got %+v", cleared)
	}
}

func TestInheritingQuestionDoesNotBlockAgenda(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	_, qs := testsupport.MustCreateMeeting(t, store, 3)
	mustInherit(t, store, qs[1].ID, qs[0].ID)

	first := mustClaim(t, store)
	if first.QuestionID != qs[0].ID {
		t.Fatalf("expected first question, got %d", first.QuestionID)
	}
	mustComplete(t, store, first, "gedeeld antwoord")

	next := mustClaim(t, store)
	if next.QuestionID != qs[2].ID {
		t.Fatalf("expected inheriting question to be skipped, got %d", next.QuestionID)
	}
}

func TestResolveInheritedCopiesAnswerAlongChain(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	meeting, qs := testsupport.MustCreateMeeting(t, store, 3)
	ctx := context.Background()
	mustInherit(t, store, qs[1].ID, qs[0].ID)
	mustInherit(t, store, qs[2].ID, qs[1].ID)

	updates, resolved, err := store.ResolveInherited(ctx)
	if err != nil || resolved != 0 || len(updates) != 0 {
		t.Fatalf("expected nothing to resolve before the source finishes: %d %v", resolved, err)
	}

	job := mustClaim(t, store)
	mustComplete(t, store, job, "gedeeld antwoord")

	updates, resolved, err = store.ResolveInherited(ctx)
	if err != nil {
		t.Fatalf("ResolveInherited: %v", err)
	}
	if resolved != 2 {
		t.Fatalf("expected both inheritors resolved, got %d", resolved)
	}
	if len(updates) != 1 || !updates[0].Finished() || updates[0].After != progress.StateCompleted {
		t.Fatalf("expected meeting to complete, got %+v", updates)
	}
	for _, q := range qs[1:] {
		got := testsupport.MustReloadQuestion(t, store, q.ID)
		if got.Status != queue.StatusDone || got.AnswerSource != queue.AnswerSourceInherited {
			t.Fatalf("question %d: unexpected %s/%s", q.ID, got.Status, got.AnswerSource)
		}
		if got.Text != "gedeeld antwoord" || got.Attempts != 0 {
			t.Fatalf("question %d: answer %q attempts %d", q.ID, got.Text, got.Attempts)
		}
	}
	if m := testsupport.MustReloadMeeting(t, store, meeting.ID); m.ProcessedQuestions != 3 {
		t.Fatalf("expected 3 processed, got %d", m.ProcessedQuestions)
	}
}

func TestResolveInheritedFromFailedSourceLeavesNote(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	meeting, qs := testsupport.MustCreateMeeting(t, store, 3)
	ctx := context.Background()
	mustInherit(t, store, qs[1].ID, qs[0].ID)
	mustInherit(t, store, qs[2].ID, qs[1].ID)

	job := mustClaim(t, store)
	if _, err := store.FailQuestion(ctx, job.Claim, "invalid request"); err != nil {
		t.Fatalf("FailQuestion: %v", err)
	}
	if _, resolved, err := store.ResolveInherited(ctx); err != nil || resolved != 2 {
		t.Fatalf("ResolveInherited: resolved=%d err=%v", resolved, err)
	}

	direct := testsupport.MustReloadQuestion(t, store, qs[1].ID)
	if direct.Status != queue.StatusDone || direct.Text != "" {
		t.Fatalf("unexpected inheritor of failed source %+v", direct)
	}
	source := strconv.FormatInt(qs[0].ID, 10)
	if !strings.Contains(direct.ProcessingError, "question "+source) || !strings.Contains(direct.ProcessingError, "invalid request") {
		t.Fatalf("unexpected note %q", direct.ProcessingError)
	}
	if transitive := testsupport.MustReloadQuestion(t, store, qs[2].ID); transitive.ProcessingError != direct.ProcessingError {
		t.Fatalf("expected note to propagate, got %q", transitive.ProcessingError)
	}
	if m := testsupport.MustReloadMeeting(t, store, meeting.ID); m.State != progress.StateCompletedWithErrors {
		t.Fatalf("expected completed_with_errors, got %s", m.State)
	}
}

func TestSetInheritanceRequeuesFinishedQuestion(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	_, qs := testsupport.MustCreateMeeting(t, store, 2)
	ctx := context.Background()

	mustComplete(t, store, mustClaim(t, store), "eerste")
	mustComplete(t, store, mustClaim(t, store), "tweede")

	q := mustInherit(t, store, qs[1].ID, qs[0].ID)
	if q.Status != queue.StatusQueued || q.Text != "" {
		t.Fatalf("expected finished question requeued and cleared, got %s %q", q.Status, q.Text)
	}
	if _, resolved, err := store.ResolveInherited(ctx); err != nil || resolved != 1 {
		t.Fatalf("ResolveInherited: resolved=%d err=%v", resolved, err)
	}
	if got := testsupport.MustReloadQuestion(t, store, qs[1].ID); got.Text != "eerste" {
		t.Fatalf("expected inherited answer, got %q", got.Text)
	}
}

func TestRequeueCascadesToInheritors(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	meeting, qs := testsupport.MustCreateMeeting(t, store, 2)
	ctx := context.Background()
	mustInherit(t, store, qs[1].ID, qs[0].ID)

	mustComplete(t, store, mustClaim(t, store), "antwoord")
	if _, _, err := store.ResolveInherited(ctx); err != nil {
		t.Fatalf("ResolveInherited: %v", err)
	}

	if _, err := store.Requeue(ctx, qs[0].ID); err != nil {
		t.Fatalf("Requeue: %v", err)
	}
	for _, q := range qs {
		got := testsupport.MustReloadQuestion(t, store, q.ID)
		if got.Status != queue.StatusQueued || got.Text != "" {
			t.Fatalf("question %d: expected requeued, got %s %q", q.ID, got.Status, got.Text)
		}
	}
	if got := testsupport.MustReloadQuestion(t, store, qs[1].ID); got.InheritsFromID == nil {
		t.Fatal("requeue must keep the inheritance relation")
	}
	if m := testsupport.MustReloadMeeting(t, store, meeting.ID); m.State != progress.StateQueued {
		t.Fatalf("expected meeting queued, got %s", m.State)
	}
}

func TestResolveInheritedWaitsForEarlierQuestions(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	_, qs := testsupport.MustCreateMeeting(t, store, 3)
	ctx := context.Background()
	mustInherit(t, store, qs[2].ID, qs[0].ID)

	mustComplete(t, store, mustClaim(t, store), "gedeeld antwoord")
	if _, resolved, err := store.ResolveInherited(ctx); err != nil || resolved != 0 {
		t.Fatalf("expected inheritor to wait while question 2 is queued: resolved=%d err=%v", resolved, err)
	}

	second := mustClaim(t, store)
	if second.QuestionID != qs[1].ID {
		t.Fatalf("expected second question, got %d", second.QuestionID)
	}
	if _, resolved, err := store.ResolveInherited(ctx); err != nil || resolved != 0 {
		t.Fatalf("expected inheritor to wait while question 2 runs: resolved=%d err=%v", resolved, err)
	}
	if got := testsupport.MustReloadQuestion(t, store, qs[2].ID); got.Status != queue.StatusQueued {
		t.Fatalf("inheritor overtook the agenda: %s", got.Status)
	}

	mustComplete(t, store, second, "eigen antwoord")
	if _, resolved, err := store.ResolveInherited(ctx); err != nil || resolved != 1 {
		t.Fatalf("ResolveInherited: resolved=%d err=%v", resolved, err)
	}
	if got := testsupport.MustReloadQuestion(t, store, qs[2].ID); got.Status != queue.StatusDone || got.Text != "gedeeld antwoord" {
		t.Fatalf("unexpected inheritor %s %q", got.Status, got.Text)
	}
}

func TestResolveInheritedFromLaterSourceDoesNotBlock(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	_, qs := testsupport.MustCreateMeeting(t, store, 3)
	ctx := context.Background()
	mustInherit(t, store, qs[0].ID, qs[2].ID)

	for _, want := range []int64{qs[1].ID, qs[2].ID} {
		job := mustClaim(t, store)
		if job.QuestionID != want {
			t.Fatalf("expected question %d, got %d", want, job.QuestionID)
		}
		mustComplete(t, store, job, "antwoord")
	}
	if _, resolved, err := store.ResolveInherited(ctx); err != nil || resolved != 1 {
		t.Fatalf("ResolveInherited: resolved=%d err=%v", resolved, err)
	}
	if got := testsupport.MustReloadQuestion(t, store, qs[0].ID); got.Status != queue.StatusDone {
		t.Fatalf("expected first question resolved from later source, got %s", got.Status)
	}
}
