package web

// handlers_domain.go implements the domain classification endpoints of
// §6: detect (by job set or whole project), confirm, status and list.

import (
	"encoding/json"
	"net/http"

	"github.com/dataunify/pipeline/internal/core"
	"github.com/go-chi/chi/v5"
)

type detectDomainRequest struct {
	ProjectID      string   `json:"projectId" validate:"required"`
	CleaningJobIDs []string `json:"cleaningJobIds" validate:"required,min=1"`
}

func domainJobResponse(job core.DomainDetectionJob, top3 []core.DomainScore) map[string]any {
	return map[string]any{
		"domainJobId":      job.ID,
		"domain":           job.Domain,
		"confidence":       job.Confidence,
		"decision":         job.Decision,
		"primaryMatches":   job.MatchedPrimary,
		"keywordMatches":   job.MatchedKeywords,
		"top3Alternatives": top3,
		"allDomains":       job.AllScores,
	}
}

func (s *Server) handleDetectDomain(w http.ResponseWriter, r *http.Request) {
	var req detectDomainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	job, top3, err := s.service.DetectDomain(r.Context(), req.ProjectID, req.CleaningJobIDs)
	if err != nil {
		s.respondError(w, r, err, errorStatus(err))
		return
	}
	respondJSON(w, http.StatusOK, domainJobResponse(job, top3))
}

type detectDomainProjectRequest struct {
	ProjectID string `json:"projectId" validate:"required"`
}

func (s *Server) handleDetectDomainProject(w http.ResponseWriter, r *http.Request) {
	var req detectDomainProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	cleaningJobs, err := s.service.ListCleaningJobs(r.Context(), req.ProjectID)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	var ids []string
	for _, j := range cleaningJobs {
		if j.Status == core.CleaningCompleted {
			ids = append(ids, j.ID)
		}
	}
	if len(ids) == 0 {
		s.respondError(w, r, &core.PreconditionFailedError{Reason: "project has no completed cleaning jobs"}, http.StatusBadRequest)
		return
	}

	job, top3, err := s.service.DetectDomain(r.Context(), req.ProjectID, ids)
	if err != nil {
		s.respondError(w, r, err, errorStatus(err))
		return
	}
	respondJSON(w, http.StatusOK, domainJobResponse(job, top3))
}

type confirmDomainRequest struct {
	DomainJobID    string `json:"domainJobId" validate:"required"`
	SelectedDomain string `json:"selectedDomain" validate:"required"`
}

func (s *Server) handleConfirmDomain(w http.ResponseWriter, r *http.Request) {
	var req confirmDomainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	if err := s.service.ConfirmDomain(r.Context(), req.DomainJobID, req.SelectedDomain); err != nil {
		s.respondError(w, r, err, errorStatus(err))
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"confirmed": true})
}

func (s *Server) handleDomainStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job, err := s.service.DomainStatus(r.Context(), jobID)
	if err != nil {
		s.respondError(w, r, err, http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, domainJobResponse(job, nil))
}

func (s *Server) handleListDomainJobs(w http.ResponseWriter, r *http.Request) {
	projectID := r.URL.Query().Get("projectId")
	if projectID == "" {
		s.respondError(w, r, &core.ConfigError{Field: "projectId", Reason: "query parameter is required"}, http.StatusBadRequest)
		return
	}
	jobs, err := s.service.ListDomainJobs(r.Context(), projectID)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, jobs)
}
