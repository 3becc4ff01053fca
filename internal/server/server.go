// Package server exposes the HTTP API: health, session management, the
// synchronous chat endpoint, suggestions, and the attachment analyzers.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/user/mindloom/internal/analyzer"
	"github.com/user/mindloom/internal/boundary"
	"github.com/user/mindloom/internal/depth"
	"github.com/user/mindloom/internal/gateway"
	"github.com/user/mindloom/internal/store"
	"github.com/user/mindloom/internal/types"
)

// chatTimeout bounds the synchronous wait for an assistant reply.
const chatTimeout = 2 * time.Minute

// Server is a lightweight HTTP handler over the store and gateway.
type Server struct {
	store      *store.Store
	gateway    *gateway.Gateway
	thresholds types.Thresholds
	mux        *http.ServeMux
}

// NewServer creates a Server. analyzers may be nil when local analysis is
// disabled.
func NewServer(st *store.Store, gw *gateway.Gateway, th types.Thresholds, analyzers *analyzer.Service) *Server {
	s := &Server{
		store:      st,
		gateway:    gw,
		thresholds: th,
		mux:        http.NewServeMux(),
	}
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("POST /api/chat", s.handleChat)
	s.mux.HandleFunc("GET /api/sessions", s.handleListSessions)
	s.mux.HandleFunc("POST /api/sessions", s.handleCreateSession)
	s.mux.HandleFunc("GET /api/sessions/", s.handleGetSession)
	s.mux.HandleFunc("DELETE /api/sessions/", s.handleDeleteSession)
	if analyzers != nil {
		analyzers.Register(s.mux)
	}
	return s
}

// ServeHTTP delegates to the internal mux, implementing http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"health": s.store.Health(),
	})
}

// chatRequest is the JSON body for POST /api/chat. Either session_id or
// analysis_type selects the conversation; with neither, a personality
// session is created.
type chatRequest struct {
	SessionID    string   `json:"session_id"`
	AnalysisType string   `json:"analysis_type"`
	Text         string   `json:"text"`
	Images       []string `json:"images"`
}

type chatResponse struct {
	SessionID string `json:"session_id"`
	Response  string `json:"response"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	if req.Text == "" {
		http.Error(w, `{"error":"text is required"}`, http.StatusBadRequest)
		return
	}

	var sessID types.SessionID
	if req.SessionID != "" {
		sessID = types.SessionID(req.SessionID)
		if _, ok := s.store.Get(sessID); !ok {
			http.Error(w, `{"error":"session not found"}`, http.StatusNotFound)
			return
		}
	} else {
		t := types.AnalysisType(req.AnalysisType)
		if !t.Valid() {
			t = types.AnalysisPersonality
		}
		sessID = s.store.CreateSession(t).ID
	}

	if s.gateway.Queue.Generating(sessID) {
		http.Error(w, `{"error":"a reply is already being generated for this session"}`, http.StatusConflict)
		return
	}

	done := make(chan string, 1)
	turn := &gateway.Turn{Text: req.Text, Images: req.Images}
	err := s.gateway.HandleForSession(sessID, turn, gateway.WithOnComplete(func(reply string) {
		done <- reply
	}))
	if err != nil {
		slog.Error("chat enqueue failed", "session_id", string(sessID), "error", err)
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}

	select {
	case reply := <-done:
		writeJSON(w, http.StatusOK, chatResponse{SessionID: string(sessID), Response: reply})
	case <-time.After(chatTimeout):
		http.Error(w, `{"error":"reply timed out"}`, http.StatusGatewayTimeout)
	case <-r.Context().Done():
	}
}

type sessionSummary struct {
	SessionID    string  `json:"session_id"`
	Title        string  `json:"title"`
	AnalysisType string  `json:"analysis_type"`
	Depth        string  `json:"depth"`
	Quality      float64 `json:"quality_average"`
	MessageCount int     `json:"message_count"`
	CreatedAt    string  `json:"created_at"`
	UpdatedAt    string  `json:"updated_at"`
}

func summarize(sess *types.Session) sessionSummary {
	return sessionSummary{
		SessionID:    string(sess.ID),
		Title:        sess.Title,
		AnalysisType: string(sess.AnalysisType),
		Depth:        string(sess.State.Depth),
		Quality:      sess.State.QualityAverage,
		MessageCount: len(sess.Messages),
		CreatedAt:    sess.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    sess.UpdatedAt.Format(time.RFC3339),
	}
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions := s.store.Sessions()
	result := make([]sessionSummary, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, summarize(sess))
	}
	writeJSON(w, http.StatusOK, result)
}

type createSessionRequest struct {
	AnalysisType string `json:"analysis_type"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	t := types.AnalysisType(req.AnalysisType)
	if !t.Valid() {
		http.Error(w, `{"error":"unknown analysis_type"}`, http.StatusBadRequest)
		return
	}
	sess := s.store.CreateSession(t)
	writeJSON(w, http.StatusCreated, summarize(sess))
}

// Paths: /api/sessions/{id} and /api/sessions/{id}/suggestions.
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/sessions/")
	parts := strings.SplitN(path, "/", 2)
	sess, ok := s.store.Get(types.SessionID(parts[0]))
	if !ok {
		http.Error(w, `{"error":"session not found"}`, http.StatusNotFound)
		return
	}

	if len(parts) == 2 {
		if parts[1] != "suggestions" {
			http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
			return
		}
		body := map[string]any{
			"depth":       string(sess.State.Depth),
			"suggestions": depth.Suggest(sess.Messages, s.thresholds),
		}
		if last := lastAssistantMessage(sess); last != nil {
			body["assessment"] = boundary.AssessResponse(last.Content, len(last.Violations))
		}
		writeJSON(w, http.StatusOK, body)
		return
	}

	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/sessions/")
	if !s.store.DeleteSession(types.SessionID(id)) {
		http.Error(w, `{"error":"session not found"}`, http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func lastAssistantMessage(sess *types.Session) *types.Message {
	for i := len(sess.Messages) - 1; i >= 0; i-- {
		if sess.Messages[i].Role == types.RoleAssistant && sess.Messages[i].Content != "" {
			return sess.Messages[i]
		}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response failed", "error", err)
	}
}
