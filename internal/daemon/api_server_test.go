package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stevendeporre123/quest-app/internal/api"
	"github.com/stevendeporre123/quest-app/internal/config"
	"github.com/stevendeporre123/quest-app/internal/enrichment"
	"github.com/stevendeporre123/quest-app/internal/queue"
	"github.com/stevendeporre123/quest-app/internal/services"
	"github.com/stevendeporre123/quest-app/internal/testsupport"
	"github.com/stevendeporre123/quest-app/internal/workflow"
)

type apiHarness struct {
	cfg      *config.Config
	store    *queue.Store
	enricher *testsupport.StubEnricher
	manager  *workflow.Manager
	server   *httptest.Server
	token    string
}

func newAPIHarness(t *testing.T, opts ...testsupport.ConfigOption) *apiHarness {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	store := testsupport.MustOpenStore(t, cfg)
	enricher := &testsupport.StubEnricher{}
	mgr := workflow.NewManagerWithNotifier(cfg, store, enricher, nil, &testsupport.RecordingNotifier{})
	d, err := New(cfg, store, nil, mgr)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	srv, err := newAPIServer(cfg, d, nil)
	if err != nil {
		t.Fatalf("newAPIServer: %v", err)
	}
	server := httptest.NewServer(srv.server.Handler)
	t.Cleanup(server.Close)
	return &apiHarness{
		cfg:      cfg,
		store:    store,
		enricher: enricher,
		manager:  mgr,
		server:   server,
		token:    cfg.Paths.APIToken,
	}
}

func (h *apiHarness) do(t *testing.T, method, path string, body any, out any) int {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, h.server.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}
	resp, err := h.server.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func (h *apiHarness) upload(t *testing.T, count int) api.UploadResponse {
	t.Helper()
	in := testsupport.NewMeeting(count)
	req := api.UploadRequest{
		MeetingDate:    in.MeetingDate,
		CommissionName: in.CommissionName,
		WebcastID:      in.WebcastID,
		Transcript:     in.Transcript,
	}
	for _, q := range in.Questions {
		req.Questions = append(req.Questions, api.UploadQuestion{
			DossierID:    q.DossierID,
			Title:        q.Title,
			QuestionText: q.QuestionText,
		})
	}
	var resp api.UploadResponse
	if code := h.do(t, http.MethodPost, "/api/upload", req, &resp); code != http.StatusOK {
		t.Fatalf("upload status %d", code)
	}
	return resp
}

func (h *apiHarness) progress(t *testing.T, meetingID int64) api.MeetingProgress {
	t.Helper()
	var got api.MeetingProgress
	if code := h.do(t, http.MethodGet, fmt.Sprintf("/processing/meetings/%d", meetingID), nil, &got); code != http.StatusOK {
		t.Fatalf("progress status %d", code)
	}
	return got
}

func (h *apiHarness) dispatch(t *testing.T, cycles int) {
	t.Helper()
	for i := 0; i < cycles; i++ {
		if _, err := h.manager.DispatchOnce(context.Background()); err != nil {
			t.Fatalf("DispatchOnce: %v", err)
		}
	}
}

func TestFiveQuestionMeetingProgressThroughHTTP(t *testing.T) {
	h := newAPIHarness(t)
	uploaded := h.upload(t, 5)
	if uploaded.Status != "queued" || uploaded.Questions != 5 {
		t.Fatalf("unexpected upload response: %+v", uploaded)
	}

	got := h.progress(t, uploaded.MeetingID)
	if got != (api.MeetingProgress{Pending: 5, ProcessingState: "queued"}) {
		t.Fatalf("unexpected initial progress: %+v", got)
	}

	h.dispatch(t, 2)
	got = h.progress(t, uploaded.MeetingID)
	if got != (api.MeetingProgress{Pending: 3, Completed: 2, ProcessingState: "in_progress"}) {
		t.Fatalf("unexpected progress after two answers: %+v", got)
	}

	var queueView api.QueueResponse
	if code := h.do(t, http.MethodGet, "/processing/queue", nil, &queueView); code != http.StatusOK {
		t.Fatalf("queue status %d", code)
	}
	if len(queueView.Meetings) != 1 || queueView.Meetings[0].MeetingID != uploaded.MeetingID || queueView.Meetings[0].TotalQuestions != 5 {
		t.Fatalf("unexpected queue view: %+v", queueView)
	}
	if queueView.Totals != (api.QueueTotals{Pending: 3, Completed: 2}) {
		t.Fatalf("unexpected queue totals: %+v", queueView.Totals)
	}

	h.dispatch(t, 3)
	got = h.progress(t, uploaded.MeetingID)
	if got != (api.MeetingProgress{Completed: 5, ProcessingState: "completed"}) {
		t.Fatalf("unexpected final progress: %+v", got)
	}

	queueView = api.QueueResponse{}
	h.do(t, http.MethodGet, "/processing/queue", nil, &queueView)
	if queueView.Meetings == nil || len(queueView.Meetings) != 0 {
		t.Fatalf("expected empty queue list, got %+v", queueView.Meetings)
	}
	if queueView.Totals.Completed != 5 {
		t.Fatalf("expected totals to keep finished meetings, got %+v", queueView.Totals)
	}
}

func TestPermanentFailureCountedThroughHTTP(t *testing.T) {
	h := newAPIHarness(t)
	calls := 0
	h.enricher.Fn = func(context.Context, enrichment.Request) (queue.Answer, error) {
		calls++
		if calls == 3 {
			return queue.Answer{}, services.Wrap(services.ErrPermanent, "enrichment", "stub", "request rejected", nil)
		}
		return queue.Answer{Text: "ok"}, nil
	}
	uploaded := h.upload(t, 5)

	h.dispatch(t, 3)
	got := h.progress(t, uploaded.MeetingID)
	want := api.MeetingProgress{Pending: 2, Completed: 2, Errors: 1, ProcessingState: "in_progress"}
	if got != want {
		t.Fatalf("unexpected progress: got %+v want %+v", got, want)
	}
}

func TestInheritedAnswerThroughHTTP(t *testing.T) {
	h := newAPIHarness(t)
	h.enricher.Fn = func(context.Context, enrichment.Request) (queue.Answer, error) {
		return queue.Answer{Text: "42"}, nil
	}
	uploaded := h.upload(t, 3)

	var detail api.MeetingDetail
	if code := h.do(t, http.MethodGet, fmt.Sprintf("/api/meetings/%d", uploaded.MeetingID), nil, &detail); code != http.StatusOK {
		t.Fatalf("meeting status %d", code)
	}
	q1, q3 := detail.Questions[0].ID, detail.Questions[2].ID

	var assigned api.QuestionResponse
	if code := h.do(t, http.MethodPut, fmt.Sprintf("/api/questions/%d/inherits", q3), api.InheritRequest{InheritsFromID: &q1}, &assigned); code != http.StatusOK {
		t.Fatalf("inherits status %d", code)
	}
	if assigned.Question.InheritsFromID == nil || *assigned.Question.InheritsFromID != q1 {
		t.Fatalf("unexpected assignment: %+v", assigned.Question)
	}

	if code := h.do(t, http.MethodPut, fmt.Sprintf("/api/questions/%d/inherits", q1), api.InheritRequest{InheritsFromID: &q3}, nil); code != http.StatusConflict {
		t.Fatalf("expected 409 for cycle, got %d", code)
	}

	h.dispatch(t, 4)
	if n := len(h.enricher.Calls()); n != 2 {
		t.Fatalf("expected 2 enrichment calls, got %d", n)
	}

	detail = api.MeetingDetail{}
	h.do(t, http.MethodGet, fmt.Sprintf("/api/meetings/%d", uploaded.MeetingID), nil, &detail)
	inherited := detail.Questions[2]
	if inherited.AnswerText != "42" || inherited.AnswerSource != "inherited" || inherited.ProcessingState != "done" {
		t.Fatalf("unexpected inherited question: %+v", inherited)
	}
	if detail.Meeting.ProcessingState != "completed" {
		t.Fatalf("expected completed meeting, got %s", detail.Meeting.ProcessingState)
	}
}

func TestInheritsErrorMapping(t *testing.T) {
	h := newAPIHarness(t)
	first := h.upload(t, 2)
	second := h.upload(t, 1)

	firstQs, err := h.store.ListQuestions(context.Background(), first.MeetingID)
	if err != nil {
		t.Fatalf("ListQuestions: %v", err)
	}
	secondQs, err := h.store.ListQuestions(context.Background(), second.MeetingID)
	if err != nil {
		t.Fatalf("ListQuestions: %v", err)
	}

	other := secondQs[0].ID
	if code := h.do(t, http.MethodPut, fmt.Sprintf("/api/questions/%d/inherits", firstQs[1].ID), api.InheritRequest{InheritsFromID: &other}, nil); code != http.StatusBadRequest {
		t.Fatalf("expected 400 for cross-meeting source, got %d", code)
	}
	missing := int64(9999)
	if code := h.do(t, http.MethodPut, fmt.Sprintf("/api/questions/%d/inherits", firstQs[1].ID), api.InheritRequest{InheritsFromID: &missing}, nil); code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown source, got %d", code)
	}
	if code := h.do(t, http.MethodPut, "/api/questions/abc/inherits", api.InheritRequest{}, nil); code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad id, got %d", code)
	}

	job, err := h.store.ClaimNext(context.Background())
	if err != nil || job == nil {
		t.Fatalf("ClaimNext: %v %v", job, err)
	}
	source := firstQs[1].ID
	if code := h.do(t, http.MethodPut, fmt.Sprintf("/api/questions/%d/inherits", job.QuestionID), api.InheritRequest{InheritsFromID: &source}, nil); code != http.StatusConflict {
		t.Fatalf("expected 409 for busy question, got %d", code)
	}
	if code := h.do(t, http.MethodPost, fmt.Sprintf("/api/questions/%d/requeue", job.QuestionID), nil, nil); code != http.StatusConflict {
		t.Fatalf("expected 409 for requeue of busy question, got %d", code)
	}
}

func TestRequeueAndDeleteThroughHTTP(t *testing.T) {
	h := newAPIHarness(t)
	uploaded := h.upload(t, 1)
	h.dispatch(t, 1)

	qs, err := h.store.ListQuestions(context.Background(), uploaded.MeetingID)
	if err != nil {
		t.Fatalf("ListQuestions: %v", err)
	}
	var requeued api.QuestionResponse
	if code := h.do(t, http.MethodPost, fmt.Sprintf("/api/questions/%d/requeue", qs[0].ID), nil, &requeued); code != http.StatusOK {
		t.Fatalf("requeue status %d", code)
	}
	if requeued.Question.ProcessingState != "queued" || requeued.Question.AnswerText != "" {
		t.Fatalf("unexpected requeued question: %+v", requeued.Question)
	}

	var deleted api.DeleteResponse
	if code := h.do(t, http.MethodDelete, fmt.Sprintf("/api/meetings/%d", uploaded.MeetingID), nil, &deleted); code != http.StatusOK {
		t.Fatalf("delete status %d", code)
	}
	if !deleted.Deleted {
		t.Fatal("expected deletion acknowledgement")
	}
	if code := h.do(t, http.MethodGet, fmt.Sprintf("/processing/meetings/%d", uploaded.MeetingID), nil, nil); code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", code)
	}
	if code := h.do(t, http.MethodDelete, fmt.Sprintf("/api/meetings/%d", uploaded.MeetingID), nil, nil); code != http.StatusNotFound {
		t.Fatalf("expected 404 on second delete, got %d", code)
	}
}

func TestUploadRejectsMalformedBody(t *testing.T) {
	h := newAPIHarness(t)
	resp, err := h.server.Client().Post(h.server.URL+"/api/upload", "application/json", bytes.NewBufferString("{not json"))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	var list api.MeetingListResponse
	h.do(t, http.MethodGet, "/api/meetings", nil, &list)
	if len(list.Meetings) != 0 {
		t.Fatalf("malformed upload must not create a meeting, got %d", len(list.Meetings))
	}
}

func TestSuggestionsAndStatusEndpoints(t *testing.T) {
	h := newAPIHarness(t)
	uploaded := h.upload(t, 2)

	var suggestions api.SuggestionsResponse
	if code := h.do(t, http.MethodGet, fmt.Sprintf("/api/meetings/%d/group-suggestions", uploaded.MeetingID), nil, &suggestions); code != http.StatusOK {
		t.Fatalf("suggestions status %d", code)
	}
	if suggestions.MeetingID != uploaded.MeetingID || suggestions.Suggestions == nil {
		t.Fatalf("unexpected suggestions payload: %+v", suggestions)
	}
	if code := h.do(t, http.MethodGet, "/api/meetings/77/group-suggestions", nil, nil); code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown meeting, got %d", code)
	}

	var status api.DaemonStatus
	if code := h.do(t, http.MethodGet, "/api/status", nil, &status); code != http.StatusOK {
		t.Fatalf("status code %d", code)
	}
	if status.Running || status.Workflow.QueueStats["queued"] != 2 || status.Workflow.Enricher != "stub" {
		t.Fatalf("unexpected status payload: %+v", status)
	}
}

func TestAuthRequiresBearerToken(t *testing.T) {
	h := newAPIHarness(t, testsupport.WithAPIToken("s3cret"))

	resp, err := h.server.Client().Get(h.server.URL + "/processing/queue")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
	}
	if !strings.HasPrefix(resp.Header.Get("WWW-Authenticate"), "Bearer") {
		t.Fatalf("expected bearer challenge, got %q", resp.Header.Get("WWW-Authenticate"))
	}
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body["error"] != "unauthorized" {
		t.Fatalf("expected JSON error body, got %v err=%v", body, err)
	}

	h.token = "wrong"
	if code := h.do(t, http.MethodGet, "/processing/queue", nil, nil); code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with wrong token, got %d", code)
	}
	h.token = "s3cret"
	if code := h.do(t, http.MethodGet, "/processing/queue", nil, nil); code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", code)
	}
}

func TestTestNotificationEndpointWithoutTopic(t *testing.T) {
	h := newAPIHarness(t)

	var resp api.NotificationResponse
	if code := h.do(t, http.MethodPost, "/api/notifications/test", nil, &resp); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if resp.Sent {
		t.Fatal("expected no notification without a topic")
	}
	if resp.Message != "ntfy topic not configured" {
		t.Fatalf("unexpected message %q", resp.Message)
	}
}
