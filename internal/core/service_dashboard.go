package core

// service_dashboard.go implements dashboard assembly, the final stage of
// the pipeline per §4.10-§4.11.

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// GenerateDashboard assembles a Project's presentation plan from its
// confirmed domain, selected KPIs, and active unified view, per
// `POST /api/dashboard/generate`.
func (s *Service) GenerateDashboard(ctx context.Context, projectID string) (Dashboard, error) {
	project, err := s.repo.GetProject(ctx, projectID)
	if err != nil {
		return Dashboard{}, fmt.Errorf("load project: %w", err)
	}
	if project.DetectedDomain == nil || *project.DetectedDomain == "" {
		return Dashboard{}, &UnknownDomainError{Domain: ""}
	}
	domain := *project.DetectedDomain

	selected, err := s.repo.ListSelectedKpis(ctx, projectID)
	if err != nil {
		return Dashboard{}, fmt.Errorf("list selected kpis: %w", err)
	}

	views, err := s.repo.ActiveUnifiedViews(ctx, projectID)
	if err != nil {
		return Dashboard{}, fmt.Errorf("list unified views: %w", err)
	}
	viewSQL := ""
	if len(views) > 0 {
		viewSQL = views[0].ViewSQL
	}

	hasDate, err := s.projectHasDateColumn(ctx, projectID)
	if err != nil {
		return Dashboard{}, err
	}

	cfg := AssembleDashboard(domain, selected, hasDate, viewSQL)

	now := time.Now()
	dashboard := Dashboard{
		ID:          uuid.New().String(),
		ProjectID:   projectID,
		Title:       fmt.Sprintf("%s dashboard", project.Name),
		Description: project.Description,
		Config:      cfg,
		Status:      DashboardDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if existing, err := s.repo.GetDashboardByProject(ctx, projectID); err == nil && existing.ID != "" {
		dashboard.ID = existing.ID
		dashboard.CreatedAt = existing.CreatedAt
	}

	if err := s.repo.UpsertDashboard(ctx, dashboard); err != nil {
		return dashboard, fmt.Errorf("store dashboard: %w", err)
	}
	return dashboard, nil
}

func (s *Service) projectHasDateColumn(ctx context.Context, projectID string) (bool, error) {
	jobs, err := s.repo.ListCleaningJobsByProject(ctx, projectID)
	if err != nil {
		return false, fmt.Errorf("list cleaning jobs: %w", err)
	}
	for _, job := range jobs {
		if job.Status != CleaningCompleted || job.CleanedTableName == "" {
			continue
		}
		upload, err := s.repo.GetUpload(ctx, job.UploadID)
		if err != nil {
			return false, fmt.Errorf("load upload: %w", err)
		}
		records, err := s.readUploadRecords(ctx, upload)
		if err != nil {
			return false, err
		}
		for _, stat := range detectColumns(records, upload.InferredMetadata.Columns) {
			if stat.Type == TypeDate {
				return true, nil
			}
		}
	}
	return false, nil
}

// GetDashboard retrieves the Project's most recent dashboard, per
// `GET /api/dashboard/:datasetId`.
func (s *Service) GetDashboard(ctx context.Context, projectID string) (Dashboard, error) {
	return s.repo.GetDashboardByProject(ctx, projectID)
}
