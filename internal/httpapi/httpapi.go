// Package httpapi serves the companion HTTP surface: health plus a
// REST bridge to the MCP tools for clients without an MCP session.
package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	mcpapi "github.com/devapihub/apisearch/internal/mcp"
	"github.com/devapihub/apisearch/internal/search"
)

// Server handles HTTP requests for health and tool invocation.
type Server struct {
	engine  *search.Engine
	tools   *mcpapi.Server
	logger  *slog.Logger
	started time.Time
}

// NewServer creates the HTTP API server.
func NewServer(engine *search.Engine, tools *mcpapi.Server) *Server {
	return &Server{
		engine:  engine,
		tools:   tools,
		logger:  slog.Default(),
		started: time.Now(),
	}
}

// Router builds the chi router with all routes and middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(s.jsonRecoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/mcp/tools", s.handleListTools)
	r.Post("/mcp/tools/{toolName}", s.handleCallTool)

	return r
}

type healthResponse struct {
	Status string      `json:"status"`
	Uptime string      `json:"uptime"`
	Index  indexStatus `json:"index"`
}

type indexStatus struct {
	BuiltAt       string `json:"builtAt,omitempty"`
	DocumentCount int    `json:"documentCount"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	builtAt, count := s.engine.IndexInfo()

	resp := healthResponse{
		Status: "ok",
		Uptime: time.Since(s.started).Round(time.Second).String(),
		Index:  indexStatus{DocumentCount: count},
	}
	if !builtAt.IsZero() {
		resp.Index.BuiltAt = builtAt.UTC().Format(time.RFC3339)
	}

	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListTools(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"tools": s.tools.ListTools(),
	})
}

type callToolRequest struct {
	Arguments json.RawMessage `json:"arguments"`
}

func (s *Server) handleCallTool(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "toolName")

	var req callToolRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid_request", "request body must be JSON")
			return
		}
	}

	result, err := s.tools.CallTool(r.Context(), name, req.Arguments)
	if err != nil {
		s.writeToolError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) writeToolError(w http.ResponseWriter, err error) {
	mcpErr := mcpapi.MapError(err)

	status := http.StatusInternalServerError
	code := "internal_error"
	switch mcpErr.Code {
	case mcpapi.ErrCodeNotFound:
		status = http.StatusNotFound
		code = "not_found"
	case mcpapi.ErrCodeInvalidParams:
		status = http.StatusBadRequest
		code = "invalid_params"
	case mcpapi.ErrCodeDatabase:
		code = "database_error"
	case mcpapi.ErrCodeEncoder:
		code = "encoder_error"
	}

	s.writeError(w, status, code, mcpErr.Message)
}

func (s *Server) writeError(w http.ResponseWriter, status int, code, message string) {
	s.writeJSON(w, status, map[string]string{
		"error":   code,
		"message": message,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", slog.String("error", err.Error()))
	}
}
