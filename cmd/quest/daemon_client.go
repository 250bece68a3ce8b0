package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/stevendeporre123/quest-app/internal/api"
	"github.com/stevendeporre123/quest-app/internal/config"
	"github.com/stevendeporre123/quest-app/internal/queue"
)

// daemonClient speaks to the daemon HTTP API.
type daemonClient struct {
	baseURL string
	token   string
	http    *http.Client
}

// apiError carries a non-2xx daemon response.
type apiError struct {
	Status  int
	Message string
}

func (e *apiError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("daemon returned %d", e.Status)
	}
	return e.Message
}

// Is lets callers match 404 responses against queue.ErrNotFound.
func (e *apiError) Is(target error) bool {
	return target == queue.ErrNotFound && e.Status == http.StatusNotFound
}

func newDaemonClient(cfg *config.Config) *daemonClient {
	return &daemonClient{
		baseURL: "http://" + dialAddress(cfg.Paths.APIBind),
		token:   cfg.Paths.APIToken,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// dialAddress turns a listen address into one a client can connect to.
func dialAddress(bind string) string {
	host, port, err := net.SplitHostPort(strings.TrimSpace(bind))
	if err != nil {
		return bind
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, port)
}

func (c *daemonClient) Status(ctx context.Context) (*api.DaemonStatus, error) {
	var resp api.DaemonStatus
	if err := c.do(ctx, http.MethodGet, "/api/status", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *daemonClient) TestNotification(ctx context.Context) (*api.NotificationResponse, error) {
	var resp api.NotificationResponse
	if err := c.do(ctx, http.MethodPost, "/api/notifications/test", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *daemonClient) MeetingProgress(ctx context.Context, meetingID int64) (*api.MeetingProgress, error) {
	var resp api.MeetingProgress
	err := c.do(ctx, http.MethodGet, "/processing/meetings/"+idPath(meetingID), nil, &resp)
	if errors.Is(err, queue.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *daemonClient) Queue(ctx context.Context) (api.QueueResponse, error) {
	var resp api.QueueResponse
	err := c.do(ctx, http.MethodGet, "/processing/queue", nil, &resp)
	return resp, err
}

func (c *daemonClient) Upload(ctx context.Context, req api.UploadRequest) (api.UploadResponse, error) {
	var resp api.UploadResponse
	err := c.do(ctx, http.MethodPost, "/api/upload", req, &resp)
	return resp, err
}

func (c *daemonClient) ListMeetings(ctx context.Context) (api.MeetingListResponse, error) {
	var resp api.MeetingListResponse
	err := c.do(ctx, http.MethodGet, "/api/meetings", nil, &resp)
	return resp, err
}

func (c *daemonClient) DescribeMeeting(ctx context.Context, meetingID int64) (*api.MeetingDetail, error) {
	var resp api.MeetingDetail
	err := c.do(ctx, http.MethodGet, "/api/meetings/"+idPath(meetingID), nil, &resp)
	if errors.Is(err, queue.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *daemonClient) DeleteMeeting(ctx context.Context, meetingID int64) (bool, error) {
	var resp api.DeleteResponse
	err := c.do(ctx, http.MethodDelete, "/api/meetings/"+idPath(meetingID), nil, &resp)
	if errors.Is(err, queue.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return resp.Deleted, nil
}

func (c *daemonClient) SetInheritance(ctx context.Context, questionID int64, req api.InheritRequest) (*api.Question, error) {
	var resp api.QuestionResponse
	if err := c.do(ctx, http.MethodPut, "/api/questions/"+idPath(questionID)+"/inherits", req, &resp); err != nil {
		return nil, err
	}
	return &resp.Question, nil
}

func (c *daemonClient) Requeue(ctx context.Context, questionID int64) (*api.Question, error) {
	var resp api.QuestionResponse
	if err := c.do(ctx, http.MethodPost, "/api/questions/"+idPath(questionID)+"/requeue", nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Question, nil
}

func (c *daemonClient) Suggestions(ctx context.Context, meetingID int64) (*api.SuggestionsResponse, error) {
	var resp api.SuggestionsResponse
	err := c.do(ctx, http.MethodGet, "/api/meetings/"+idPath(meetingID)+"/group-suggestions", nil, &resp)
	if errors.Is(err, queue.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *daemonClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("contact daemon: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var payload struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&payload)
		return &apiError{Status: resp.StatusCode, Message: fallback(payload.Error, payload.Message)}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode daemon response: %w", err)
	}
	return nil
}

func idPath(id int64) string {
	return strconv.FormatInt(id, 10)
}
