package web

// handlers_kpi.go implements the KPI extraction, library lookup, and
// selection endpoints of §6.

import (
	"encoding/json"
	"net/http"

	"github.com/dataunify/pipeline/internal/core"
	"github.com/go-chi/chi/v5"
)

type extractKpiRequest struct {
	CleaningJobID string `json:"cleaningJobId" validate:"required"`
	DomainJobID   string `json:"domainJobId" validate:"required"`
}

func (s *Server) handleExtractKPIs(w http.ResponseWriter, r *http.Request) {
	var req extractKpiRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	job, err := s.service.ExtractKPIs(r.Context(), req.CleaningJobID, req.DomainJobID)
	if err != nil {
		s.respondError(w, r, err, errorStatus(err))
		return
	}
	respondJSON(w, http.StatusOK, job)
}

func (s *Server) handleKpiLibrary(w http.ResponseWriter, r *http.Request) {
	domain := r.URL.Query().Get("domain")
	if domain == "" {
		s.respondError(w, r, &core.ConfigError{Field: "domain", Reason: "query parameter is required"}, http.StatusBadRequest)
		return
	}
	defs, err := s.service.KpiLibrary(r.Context(), domain)
	if err != nil {
		s.respondError(w, r, err, errorStatus(err))
		return
	}
	respondJSON(w, http.StatusOK, defs)
}

type selectKpiRequest struct {
	KpiJobID       string   `json:"kpiJobId" validate:"required"`
	SelectedKpiIDs []string `json:"selectedKpiIds"`
}

func (s *Server) handleSelectKPIs(w http.ResponseWriter, r *http.Request) {
	var req selectKpiRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	result, err := s.service.SelectKpis(r.Context(), req.KpiJobID, req.SelectedKpiIDs)
	if err != nil {
		s.respondError(w, r, err, errorStatus(err))
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"selectionId":   result.SelectionID,
		"selectedCount": result.SelectedCount,
	})
}

func (s *Server) handleKpiStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job, err := s.service.KpiStatus(r.Context(), jobID)
	if err != nil {
		s.respondError(w, r, err, http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, job)
}
