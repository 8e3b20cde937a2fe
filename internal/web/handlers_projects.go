package web

// handlers_projects.go implements the Project/Upload lifecycle
// endpoints of §6: create, list, get, delete, columns, and the
// project-wide clean/detect-relationships/create-unified-view/
// auto-complete composites.

import (
	"net/http"

	"github.com/dataunify/pipeline/internal/core"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(s.uploadCfg.MaxFileSize); err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	name := r.FormValue("name")
	description := r.FormValue("description")

	fileHeaders := r.MultipartForm.File["files"]
	if len(fileHeaders) == 0 {
		s.respondError(w, r, &core.ConfigError{Field: "files", Reason: "at least one file is required"}, http.StatusBadRequest)
		return
	}
	if len(fileHeaders) > 10 {
		s.respondError(w, r, &core.ConfigError{Field: "files", Reason: "at most 10 files per call"}, http.StatusBadRequest)
		return
	}

	files := make([]core.IncomingFile, 0, len(fileHeaders))
	for _, fh := range fileHeaders {
		f, err := fh.Open()
		if err != nil {
			s.respondError(w, r, err, http.StatusBadRequest)
			return
		}
		data := make([]byte, fh.Size)
		if _, err := f.Read(data); err != nil && fh.Size > 0 {
			f.Close()
			s.respondError(w, r, err, http.StatusBadRequest)
			return
		}
		f.Close()
		files = append(files, core.IncomingFile{
			Filename: fh.Filename,
			MimeType: fh.Header.Get("Content-Type"),
			Data:     data,
		})
	}

	result, err := s.service.CreateProject(r.Context(), name, description, files)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	type uploadSummary struct {
		UploadID string `json:"uploadId"`
		FileName string `json:"fileName"`
		Records  int    `json:"records"`
		Status   string `json:"status"`
	}
	uploads := make([]uploadSummary, 0, len(result.Uploads))
	for _, u := range result.Uploads {
		uploads = append(uploads, uploadSummary{
			UploadID: u.ID,
			FileName: u.OriginalFilename,
			Records:  u.TotalRecords,
			Status:   string(u.Status),
		})
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"projectId": result.Project.ID,
		"uploads":   uploads,
	})
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.service.ListProjects(r.Context())
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, projects)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "projectID")
	project, err := s.service.GetProject(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err, http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, project)
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "projectID")
	if err := s.service.DeleteProject(r.Context(), id); err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"deleted": true})
}

func (s *Server) handleProjectColumns(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "projectID")
	columns, err := s.service.ProjectColumns(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"columns": columns})
}

func (s *Server) handleStartProjectCleaning(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "projectID")
	jobs, err := s.service.StartProjectCleaning(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err, errorStatus(err))
		return
	}
	respondJSON(w, http.StatusAccepted, jobs)
}

func (s *Server) handleDetectRelationships(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "projectID")
	rels, err := s.service.DetectRelationshipsForProject(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err, errorStatus(err))
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"relationships": rels,
		"count":         len(rels),
	})
}

func (s *Server) handleCreateUnifiedView(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "projectID")
	views, err := s.service.CreateUnifiedView(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err, errorStatus(err))
		return
	}

	cleaningJobs, err := s.service.ListCleaningJobs(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	var kpiJob core.KpiExtractionJob
	var completedJobID string
	for _, j := range cleaningJobs {
		if j.Status == core.CleaningCompleted {
			completedJobID = j.ID
			break
		}
	}
	if completedJobID != "" {
		domainJobs, err := s.service.ListDomainJobs(r.Context(), id)
		if err == nil && len(domainJobs) > 0 {
			kpiJob, _ = s.service.ExtractKPIs(r.Context(), completedJobID, domainJobs[len(domainJobs)-1].ID)
			selectedIDs := make([]string, 0, len(kpiJob.Top10))
			for _, d := range kpiJob.Top10 {
				selectedIDs = append(selectedIDs, d.KPI.KpiID)
			}
			s.service.SelectKpis(r.Context(), kpiJob.ID, selectedIDs)
		}
	}

	dashboard, _ := s.service.GenerateDashboard(r.Context(), id)

	respondJSON(w, http.StatusOK, map[string]any{
		"views":     views,
		"kpi":       kpiJob,
		"dashboard": dashboard,
	})
}

func (s *Server) handleAutoComplete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "projectID")
	result, err := s.service.AutoComplete(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err, errorStatus(err))
		return
	}
	respondJSON(w, http.StatusOK, result)
}
