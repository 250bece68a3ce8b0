package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/stevendeporre123/quest-app/internal/api"
	"github.com/stevendeporre123/quest-app/internal/config"
	"github.com/stevendeporre123/quest-app/internal/logging"
	"github.com/stevendeporre123/quest-app/internal/queue"
)

// maxUploadBytes bounds an ingest body; transcripts of long sessions run to a few MiB.
const maxUploadBytes = 64 << 20

type apiServer struct {
	bind    string
	logger  *slog.Logger
	daemon  *Daemon
	service *api.ProcessingService

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) (*apiServer, error) {
	if cfg == nil || d == nil {
		return nil, errors.New("api server requires config and daemon")
	}
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, errors.New("api bind address is empty")
	}
	srv := &apiServer{
		bind:    bind,
		logger:  logger,
		daemon:  d,
		service: d.service,
	}
	srv.server = &http.Server{
		Handler:           srv.routes(cfg.Paths.APIToken),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

func (s *apiServer) routes(token string) http.Handler {
	mux := http.NewServeMux()
	handle := func(pattern string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, s.requireToken(token, h))
	}
	handle("GET /processing/meetings/{meeting_id}", s.handleMeetingProgress)
	handle("GET /processing/queue", s.handleQueue)
	handle("POST /api/upload", s.handleUpload)
	handle("GET /api/meetings", s.handleListMeetings)
	handle("GET /api/meetings/{meeting_id}", s.handleMeeting)
	handle("DELETE /api/meetings/{meeting_id}", s.handleDeleteMeeting)
	handle("GET /api/meetings/{meeting_id}/group-suggestions", s.handleSuggestions)
	handle("PUT /api/questions/{question_id}/inherits", s.handleInherits)
	handle("POST /api/questions/{question_id}/requeue", s.handleRequeue)
	handle("GET /api/status", s.handleStatus)
	handle("POST /api/notifications/test", s.handleTestNotification)
	return mux
}

func (s *apiServer) start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
	}
}

func (s *apiServer) address() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) handleMeetingProgress(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "meeting_id")
	if !ok {
		return
	}
	progress, err := s.service.MeetingProgress(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if progress == nil {
		s.writeError(w, http.StatusNotFound, "meeting not found")
		return
	}
	s.writeJSON(w, http.StatusOK, progress)
}

func (s *apiServer) handleQueue(w http.ResponseWriter, r *http.Request) {
	resp, err := s.service.Queue(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *apiServer) handleUpload(w http.ResponseWriter, r *http.Request) {
	var req api.UploadRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	resp, err := s.service.Upload(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.log().Info("meeting uploaded",
		logging.MeetingID(resp.MeetingID),
		logging.Int("questions", resp.Questions),
		logging.Event("meeting_uploaded"),
	)
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *apiServer) handleListMeetings(w http.ResponseWriter, r *http.Request) {
	resp, err := s.service.ListMeetings(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *apiServer) handleMeeting(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "meeting_id")
	if !ok {
		return
	}
	detail, err := s.service.DescribeMeeting(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if detail == nil {
		s.writeError(w, http.StatusNotFound, "meeting not found")
		return
	}
	s.writeJSON(w, http.StatusOK, detail)
}

func (s *apiServer) handleDeleteMeeting(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "meeting_id")
	if !ok {
		return
	}
	deleted, err := s.service.DeleteMeeting(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if !deleted {
		s.writeError(w, http.StatusNotFound, "meeting not found")
		return
	}
	s.log().Info("meeting deleted",
		logging.MeetingID(id),
		logging.Event("meeting_deleted"),
	)
	s.writeJSON(w, http.StatusOK, api.DeleteResponse{Deleted: true, MeetingID: id})
}

func (s *apiServer) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "meeting_id")
	if !ok {
		return
	}
	resp, err := s.service.Suggestions(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if resp == nil {
		s.writeError(w, http.StatusNotFound, "meeting not found")
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *apiServer) handleInherits(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "question_id")
	if !ok {
		return
	}
	var req api.InheritRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	question, err := s.service.SetInheritance(r.Context(), id, req)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.QuestionResponse{Question: *question})
}

func (s *apiServer) handleRequeue(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "question_id")
	if !ok {
		return
	}
	question, err := s.service.Requeue(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.QuestionResponse{Question: *question})
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := s.daemon.Status(r.Context())
	s.writeJSON(w, http.StatusOK, api.DaemonStatus{
		Running:      status.Running,
		PID:          status.PID,
		DatabasePath: status.DatabasePath,
		LockFilePath: status.LockFilePath,
		Workflow:     api.FromStatusSummary(status.Workflow),
	})
}

func (s *apiServer) handleTestNotification(w http.ResponseWriter, r *http.Request) {
	sent, message, err := s.daemon.TestNotification(r.Context())
	if err != nil {
		s.log().Warn("test notification failed",
			logging.Error(err),
			logging.Event("notification_test_failed"),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic and network access"),
		)
		s.writeJSON(w, http.StatusBadGateway, api.NotificationResponse{Sent: false, Message: message + ": " + err.Error()})
		return
	}
	s.writeJSON(w, http.StatusOK, api.NotificationResponse{Sent: sent, Message: message})
}

func (s *apiServer) pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		s.writeError(w, http.StatusBadRequest, "invalid "+strings.ReplaceAll(name, "_", " "))
		return 0, false
	}
	return id, true
}

func (s *apiServer) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	body := http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// writeServiceError maps store errors to HTTP status codes.
func (s *apiServer) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, queue.ErrNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, queue.ErrInheritanceCycle), errors.Is(err, queue.ErrQuestionBusy):
		s.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, queue.ErrCrossMeeting):
		s.writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.log().Error("api request failed", logging.Error(err))
		s.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *apiServer) log() *slog.Logger {
	if s.logger != nil {
		return s.logger.With(logging.String(logging.FieldComponent, "api-server"))
	}
	return logging.NewNop()
}
