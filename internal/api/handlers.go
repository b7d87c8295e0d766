// Package api provides HTTP handlers for rentassist endpoints.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/fleetline/rentassist/internal/models"
)

// queryRequest is the body of POST /query.
type queryRequest struct {
	Query   string            `json:"query"`
	Context map[string]string `json:"context,omitempty"`
}

// feedbackRequest is the body of POST /feedback.
type feedbackRequest struct {
	InteractionID string   `json:"interaction_id"`
	Score         *float64 `json:"score"`
	Comments      string   `json:"comments,omitempty"`
}

func (s *Server) queryHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	slog.Debug("Server.queryHandler: processing query request", "method", r.Method, "path", r.URL.Path)
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		slog.Warn("Server.queryHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.queryHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		slog.Warn("Server.queryHandler: empty query")
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Missing required field: query"))
		return
	}

	result := s.agent.ProcessQuery(r.Context(), req.Query, req.Context)
	if result.Error != "" {
		// The agent already degraded to the fallback text; the client still
		// gets a usable response body.
		slog.Error("Server.queryHandler: query degraded to fallback", "error", result.Error)
	} else {
		slog.Info("Server.queryHandler: query processed", "interaction", result.InteractionID, "category", result.Category)
	}
	writeJSONResponse(w, http.StatusOK, models.Success(result))
}

func (s *Server) feedbackHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	slog.Debug("Server.feedbackHandler: processing feedback request", "method", r.Method, "path", r.URL.Path)
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		slog.Warn("Server.feedbackHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.feedbackHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if req.Score == nil {
		slog.Warn("Server.feedbackHandler: missing score", "interaction", req.InteractionID)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Missing required field: score"))
		return
	}

	err := s.agent.ProcessFeedback(r.Context(), req.InteractionID, *req.Score, req.Comments)
	switch {
	case err == nil:
		slog.Info("Server.feedbackHandler: feedback recorded", "interaction", req.InteractionID, "score", *req.Score)
		writeJSONResponse(w, http.StatusCreated, models.Recorded(map[string]string{"interaction_id": req.InteractionID}))
	case errors.Is(err, models.ErrInteractionNotFound) || errors.Is(err, models.ErrTemplateNotFound):
		slog.Warn("Server.feedbackHandler: target not found", "error", err, "interaction", req.InteractionID)
		writeJSONResponse(w, http.StatusNotFound, models.Error(err.Error()))
	case errors.Is(err, models.ErrFeedbackAlreadyRecorded):
		slog.Warn("Server.feedbackHandler: duplicate feedback", "interaction", req.InteractionID)
		writeJSONResponse(w, http.StatusConflict, models.Error(err.Error()))
	case errors.Is(err, models.ErrFeedbackScoreOutOfRange) || errors.Is(err, models.ErrEmptyInteractionID):
		slog.Warn("Server.feedbackHandler: validation failed", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
	default:
		slog.Error("Server.feedbackHandler: failed to record feedback", "error", err, "interaction", req.InteractionID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to record feedback"))
	}
}

func (s *Server) templatesHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("Server.templatesHandler: processing templates request", "method", r.Method, "path", r.URL.Path)
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		slog.Warn("Server.templatesHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	templates, err := s.store.ListTemplates()
	if err != nil {
		slog.Error("Server.templatesHandler: failed to list templates", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to list templates"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(templates))
}

func (s *Server) categoriesHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("Server.categoriesHandler: processing categories request", "method", r.Method, "path", r.URL.Path)
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		slog.Warn("Server.categoriesHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	categories, err := s.store.ListCategories()
	if err != nil {
		slog.Error("Server.categoriesHandler: failed to list categories", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to list categories"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(categories))
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("service healthy", nil))
}
