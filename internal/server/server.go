// Package server exposes the session service over HTTP and pushes session updates
// over websockets.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tatianab/kitchen-wars/internal/engine"
	"github.com/tatianab/kitchen-wars/internal/logger"
	"github.com/tatianab/kitchen-wars/internal/models"
	"github.com/tatianab/kitchen-wars/internal/service"
)

const maxBodyBytes = 1 << 16

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Server routes HTTP requests to the session service.
type Server struct {
	svc *service.Service
	hub *Hub
	log *logger.Logger
	mux *http.ServeMux
}

// New wires the routes. hub may be nil, which disables the websocket endpoint.
func New(svc *service.Service, hub *Hub, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Discard()
	}
	s := &Server{svc: svc, hub: hub, log: log, mux: http.NewServeMux()}

	s.mux.HandleFunc("POST /api/sessions", s.handleCreateSession)
	s.mux.HandleFunc("GET /api/sessions/{id}", s.handleGetState)
	s.mux.HandleFunc("POST /api/sessions/{id}/choices", s.handleChoice)
	s.mux.HandleFunc("POST /api/sessions/{id}/restart", s.handleRestart)
	s.mux.HandleFunc("GET /api/sessions/{id}/share", s.handleShare)
	s.mux.HandleFunc("GET /api/sessions/{id}/commentary", s.handleCommentary)
	s.mux.HandleFunc("GET /api/players/{id}/sessions", s.handleHistory)
	s.mux.HandleFunc("GET /api/players/{id}/achievements", s.handleAchievements)
	s.mux.HandleFunc("POST /api/preview-event", s.handlePreview)
	s.mux.HandleFunc("GET /api/endings", s.handleEndings)
	if hub != nil {
		s.mux.HandleFunc("GET /ws/sessions/{id}", s.handleWebsocket)
	}
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("HTTP API & WS server listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.log.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrInvalidState), errors.Is(err, models.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.log.Error("%s %s: %v", r.Method, r.URL.Path, err)
		writeJSON(w, status, errorBody{Error: "internal error"})
		return
	}
	writeJSON(w, status, errorBody{Error: err.Error()})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Join(models.ErrValidation, err)
	}
	return nil
}

type createSessionRequest struct {
	PlayerID string `json:"playerId"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	sess, err := s.svc.CreateSession(r.Context(), req.PlayerID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	state, err := s.svc.GetState(r.Context(), sess.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, state)
}

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	state, err := s.svc.GetState(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

type choiceRequest struct {
	Choice  string `json:"choice"`
	EventID *int   `json:"eventCardId,omitempty"`
}

func (s *Server) handleChoice(w http.ResponseWriter, r *http.Request) {
	var req choiceRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	side, err := models.ParseSide(req.Choice)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.svc.ResolveChoice(r.Context(), r.PathValue("id"), side, req.EventID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleRestart(w http.ResponseWriter, r *http.Request) {
	sess, err := s.svc.Restart(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	state, err := s.svc.GetState(r.Context(), sess.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleShare(w http.ResponseWriter, r *http.Request) {
	text, err := s.svc.ShareText(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"text": text})
}

func (s *Server) handleCommentary(w http.ResponseWriter, r *http.Request) {
	text, err := s.svc.Commentary(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"evaluation": text})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.svc.History(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

func (s *Server) handleAchievements(w http.ResponseWriter, r *http.Request) {
	achievements, err := s.svc.Achievements(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"achievements": achievements})
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	var req engine.Request
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.svc.PreviewEvent(r.Context(), req))
}

func (s *Server) handleEndings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"endings": s.svc.Endings()})
}

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	state, err := s.svc.GetState(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("upgrading websocket for session %s: %v", id, err)
		return
	}

	client := newClient(s.hub, conn, id)
	if initial, err := json.Marshal(Update{Type: "session_state", Session: state.Session}); err == nil {
		client.send <- initial
	}
	if !s.hub.join(client) {
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}
