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

	"crmagent/internal/api"
	"crmagent/internal/campaign"
	"crmagent/internal/config"
	"crmagent/internal/export"
	"crmagent/internal/logging"
	"crmagent/internal/logstream"
	"crmagent/internal/services"
	"crmagent/internal/session"
	"crmagent/internal/workflow"
)

type apiServer struct {
	bind    string
	logger  *slog.Logger
	daemon  *Daemon
	stream  logstream.Options
	handler http.Handler

	baseCtx    context.Context
	cancelBase context.CancelFunc
	listener   net.Listener
	server     *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	baseCtx, cancel := context.WithCancel(context.Background())
	srv := &apiServer{
		bind:   strings.TrimSpace(cfg.Paths.APIBind),
		logger: logging.NewComponentLogger(logger, "api-server"),
		daemon: d,
		stream: logstream.Options{
			PollInterval: cfg.PollInterval(),
			SessionWait:  cfg.SessionWait(),
			MaxDuration:  cfg.MaxStreamDuration(),
		},
		baseCtx:    baseCtx,
		cancelBase: cancel,
	}

	token := strings.TrimSpace(cfg.Paths.APIToken)
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/sessions", authMiddleware(token, srv.handleSubmit))
	mux.HandleFunc("GET /api/sessions", authMiddleware(token, srv.handleSessions))
	mux.HandleFunc("GET /api/sessions/{id}", authMiddleware(token, srv.handleSession))
	mux.HandleFunc("GET /api/sessions/{id}/logs", authMiddleware(token, srv.handleLogs))
	mux.HandleFunc("GET /api/sessions/{id}/stream", authMiddleware(token, srv.handleStream))
	mux.HandleFunc("GET /api/sessions/{id}/results", authMiddleware(token, srv.handleResults))
	mux.HandleFunc("GET /api/sessions/{id}/export/{format}", authMiddleware(token, srv.handleExport))
	mux.HandleFunc("GET /api/clients", authMiddleware(token, srv.handleClients))
	mux.HandleFunc("GET /api/health", srv.handleHealth)
	srv.handler = mux

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
	}
	return srv
}

func (s *apiServer) listen() error {
	if s.bind == "" {
		return errors.New("api bind address is empty")
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener
	return nil
}

func (s *apiServer) address() string {
	if s.listener == nil {
		return s.bind
	}
	return s.listener.Addr().String()
}

// serve blocks until ctx ends or the server fails.
func (s *apiServer) serve(ctx context.Context) error {
	if s.listener == nil {
		return errors.New("api server not listening")
	}
	go func() {
		<-ctx.Done()
		s.stop()
	}()

	s.logger.Info("api server listening", logging.String("address", s.address()))
	if err := s.server.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("api server: %w", err)
	}
	return nil
}

func (s *apiServer) stop() {
	// Streams run on the base context; end them before waiting on connections.
	s.cancelBase()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
}

func (s *apiServer) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req api.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, services.Wrap(services.ErrValidation, "", "submit batch", "invalid request body", err))
		return
	}
	if len(req.ClientIDs) == 0 {
		s.writeError(w, http.StatusBadRequest, services.Wrap(services.ErrValidation, "", "submit batch", "at least one client id is required", nil))
		return
	}

	id, err := s.daemon.runner.Submit(r.Context(), req.ClientIDs)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, workflow.ErrClosed) {
			status = http.StatusServiceUnavailable
		}
		s.writeError(w, status, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.SubmitResponse{
		SessionID: id,
		Message:   fmt.Sprintf("Processing %d client(s)", len(req.ClientIDs)),
	})
}

func (s *apiServer) handleSessions(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, api.SessionList{Sessions: api.FromSnapshots(s.daemon.registry.List())})
}

func (s *apiServer) handleSession(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.daemon.registry.Get(r.PathValue("id"))
	if !ok {
		s.writeError(w, http.StatusNotFound, sessionNotFound(r.PathValue("id")))
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromSnapshot(snap))
}

func (s *apiServer) handleLogs(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	since := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("since")); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value < 0 {
			s.writeError(w, http.StatusBadRequest, services.Wrap(services.ErrValidation, "", "read logs", "since must be a non-negative integer", nil))
			return
		}
		since = value
	}

	entries, snap, ok := s.daemon.registry.LogSince(id, since)
	if !ok {
		s.writeError(w, http.StatusNotFound, sessionNotFound(id))
		return
	}
	s.writeJSON(w, http.StatusOK, api.LogsResponse{
		SessionID: id,
		Entries:   api.FromLogEntries(entries),
		Next:      snap.LogLength,
		Status:    string(snap.Status),
	})
}

func (s *apiServer) handleStream(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	rc := http.NewResponseController(w)
	// The stream bounds itself with MaxDuration.
	_ = rc.SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	ctx := services.WithSessionID(r.Context(), id)
	logger := logging.WithContext(ctx, s.logger)
	emit := func(entry campaign.LogEntry) error {
		data, err := json.Marshal(api.FromLogEntry(entry))
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return err
		}
		return rc.Flush()
	}

	err := logstream.Follow(ctx, logstream.RegistrySource(s.daemon.registry), id, s.stream, emit)
	switch {
	case err == nil:
		logger.Debug("stream closed", logging.String(logging.FieldEventType, "stream_closed"))
	case errors.Is(err, logstream.ErrSessionNotFound), errors.Is(err, logstream.ErrDurationExceeded):
		logging.WarnWithContext(logger, "stream ended early", "stream_ended",
			logging.Error(err),
			logging.String(logging.FieldImpact, "follower stopped; the batch keeps running"),
		)
	case errors.Is(err, context.Canceled):
		logger.Debug("stream client disconnected")
	default:
		logger.Debug("stream write failed", logging.Error(err))
	}
}

func (s *apiServer) handleResults(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	snap, results, err := s.resultsFor(id)
	if err != nil {
		s.writeError(w, http.StatusNotFound, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.ResultsResponse{
		SessionID: id,
		Status:    string(snap.Status),
		Results:   api.FromResults(results),
	})
}

func (s *apiServer) handleExport(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	format, err := export.ParseFormat(r.PathValue("format"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	_, results, err := s.resultsFor(id)
	if err != nil {
		s.writeError(w, http.StatusNotFound, err)
		return
	}
	body, err := export.Render(format, results)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", format.Filename(id)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		s.logger.Debug("export write failed", logging.Error(err))
	}
}

func (s *apiServer) resultsFor(id string) (snap session.Snapshot, results []campaign.RenderedResult, err error) {
	snap, ok := s.daemon.registry.Get(id)
	if !ok {
		return snap, nil, sessionNotFound(id)
	}
	results, _ = s.daemon.registry.Results(id)
	if len(results) == 0 {
		return snap, nil, services.Wrap(services.ErrNoResults, "", "", "no results yet for session "+id, nil)
	}
	return snap, results, nil
}

func (s *apiServer) handleClients(w http.ResponseWriter, r *http.Request) {
	list := s.daemon.directory.List()
	s.writeJSON(w, http.StatusOK, api.ClientsResponse{Clients: api.FromClients(list), Total: len(list)})
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := s.daemon.Status()
	s.writeJSON(w, http.StatusOK, api.Health{
		Status:   "ok",
		Sessions: status.Sessions,
		Clients:  status.Clients,
		PID:      status.PID,
	})
}

func sessionNotFound(id string) error {
	return services.Wrap(services.ErrNotFound, "", "", "session "+id+" not found", nil)
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, err error) {
	details := services.Details(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("api request failed", logging.Error(err), logging.Int("status", status))
	}
	s.writeJSON(w, status, api.ErrorResponse{Error: details.Message, Kind: details.Kind})
}
