package web

// handlers_clean.go implements the cleaning-pipeline endpoints of §6:
// auto-config, start, status, report, paginated data, and download.

import (
	"encoding/csv"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/dataunify/pipeline/internal/core"
	"github.com/go-chi/chi/v5"
)

type autoConfigRequest struct {
	UploadID string `json:"uploadId" validate:"required"`
}

func (s *Server) handleAutoConfig(w http.ResponseWriter, r *http.Request) {
	var req autoConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	cfg, err := s.service.AutoConfig(r.Context(), req.UploadID)
	if err != nil {
		s.respondError(w, r, err, errorStatus(err))
		return
	}
	respondJSON(w, http.StatusOK, cfg)
}

type startCleaningRequest struct {
	UploadID string              `json:"uploadId" validate:"required"`
	Config   core.CleaningConfig `json:"config"`
}

func (s *Server) handleStartCleaning(w http.ResponseWriter, r *http.Request) {
	var req startCleaningRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	job, err := s.service.StartCleaning(r.Context(), req.UploadID, req.Config)
	if err != nil {
		s.respondError(w, r, err, errorStatus(err))
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]any{
		"jobId":  job.ID,
		"status": job.Status,
	})
}

func (s *Server) handleCleaningStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job, err := s.service.CleaningStatus(r.Context(), jobID)
	if err != nil {
		s.respondError(w, r, err, http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"status": job.Status,
		"progress": map[string]any{
			"stage":   job.FailedOperation,
			"percent": cleaningPercent(job.Status),
		},
		"stats": job.Stats,
	})
}

func cleaningPercent(status core.CleaningJobStatus) int {
	switch status {
	case core.CleaningCompleted, core.CleaningFailed:
		return 100
	case core.CleaningRunning:
		return 50
	default:
		return 0
	}
}

func (s *Server) handleCleaningReport(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	report, logs, err := s.service.CleaningReport(r.Context(), jobID)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"logs":    logs,
		"summary": report,
	})
}

func (s *Server) handleCleanedData(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	page := parseIntQuery(r, "page", 1)
	limit := parseIntQuery(r, "limit", core.DefaultPageSize)

	rows, total, err := s.service.CleanedDataPage(r.Context(), jobID, page, limit)
	if err != nil {
		s.respondError(w, r, err, errorStatus(err))
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"rows":  rows,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

func (s *Server) handleCleanedDownload(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}

	columns, rows, err := s.service.CleanedDataAll(r.Context(), jobID)
	if err != nil {
		s.respondError(w, r, err, errorStatus(err))
		return
	}

	switch format {
	case "json":
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", "attachment; filename=\"cleaned-"+jobID+".json\"")
		json.NewEncoder(w).Encode(rows)
	default:
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", "attachment; filename=\"cleaned-"+jobID+".csv\"")
		cw := csv.NewWriter(w)
		cw.Write(columns)
		for _, row := range rows {
			record := make([]string, len(columns))
			for i, col := range columns {
				record[i] = row[col]
			}
			cw.Write(record)
		}
		cw.Flush()
	}
}

func parseIntQuery(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
