package web

// handlers_dashboard.go implements dashboard assembly and retrieval,
// the final stage of the pipeline per §6.

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type generateDashboardRequest struct {
	ProjectID string `json:"projectId" validate:"required"`
}

func (s *Server) handleGenerateDashboard(w http.ResponseWriter, r *http.Request) {
	var req generateDashboardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	dashboard, err := s.service.GenerateDashboard(r.Context(), req.ProjectID)
	if err != nil {
		s.respondError(w, r, err, errorStatus(err))
		return
	}
	respondJSON(w, http.StatusOK, dashboard)
}

func (s *Server) handleGetDashboard(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")
	dashboard, err := s.service.GetDashboard(r.Context(), projectID)
	if err != nil {
		s.respondError(w, r, err, http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, dashboard)
}
