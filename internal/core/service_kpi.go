package core

// service_kpi.go implements the KPI extraction and selection endpoints
// of §6, sitting after domain confirmation and before dashboard
// assembly in the auto-complete chain of §4.11.

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ExtractKPIs ranks the confirmed domain's KPI library against a
// CleaningJob's columns, per `POST /api/v1/kpi/extract`.
func (s *Service) ExtractKPIs(ctx context.Context, cleaningJobID, domainJobID string) (KpiExtractionJob, error) {
	cleaningJob, err := s.repo.GetCleaningJob(ctx, cleaningJobID)
	if err != nil {
		return KpiExtractionJob{}, fmt.Errorf("load cleaning job: %w", err)
	}
	if cleaningJob.Status != CleaningCompleted {
		return KpiExtractionJob{}, &PreconditionFailedError{Reason: "cleaning job is not completed"}
	}

	domainJob, err := s.repo.GetDomainJob(ctx, domainJobID)
	if err != nil {
		return KpiExtractionJob{}, fmt.Errorf("load domain job: %w", err)
	}

	upload, err := s.repo.GetUpload(ctx, cleaningJob.UploadID)
	if err != nil {
		return KpiExtractionJob{}, fmt.Errorf("load upload: %w", err)
	}

	records, err := s.readUploadRecords(ctx, upload)
	if err != nil {
		return KpiExtractionJob{}, err
	}
	columnStats := detectColumns(records, upload.InferredMetadata.Columns)
	hasDate := false
	for _, stat := range columnStats {
		if stat.Type == TypeDate {
			hasDate = true
			break
		}
	}

	job, err := ExtractKPIs(domainJob.Domain, upload.InferredMetadata.Columns, hasDate)
	if err != nil {
		return job, err
	}
	job.ID = uuid.New().String()
	job.ProjectID = domainJob.ProjectID
	job.CreatedAt = time.Now()

	if err := s.repo.CreateKpiExtractionJob(ctx, job); err != nil {
		return job, fmt.Errorf("store kpi extraction job: %w", err)
	}
	return job, nil
}

// KpiLibrary returns a domain's candidate KPI definitions, per
// `GET /api/v1/kpi/library`.
func (s *Service) KpiLibrary(ctx context.Context, domain string) ([]KpiDefinition, error) {
	defs, ok := kpiLibrary.get(domain)
	if !ok {
		return nil, &UnknownDomainError{Domain: domain}
	}
	return defs, nil
}

// KpiSelectionResult mirrors the `POST /api/v1/kpi/select` response shape.
type KpiSelectionResult struct {
	SelectionID   string
	SelectedCount int
}

// SelectKpis records the caller's chosen KPIs for dashboard inclusion.
func (s *Service) SelectKpis(ctx context.Context, kpiJobID string, selectedKpiIDs []string) (KpiSelectionResult, error) {
	job, err := s.repo.GetKpiExtractionJob(ctx, kpiJobID)
	if err != nil {
		return KpiSelectionResult{}, fmt.Errorf("load kpi extraction job: %w", err)
	}

	byID := make(map[string]KpiDescriptor, len(job.AllFeasible))
	for _, d := range job.AllFeasible {
		byID[d.KPI.KpiID] = d
	}

	var selected []SelectedKpi
	for _, id := range selectedKpiIDs {
		desc, ok := byID[id]
		if !ok {
			continue
		}
		resolved := make(map[string]string, len(desc.KPI.ColumnsNeeded))
		for _, canonical := range desc.KPI.ColumnsNeeded {
			if actual, ok := job.CanonicalMapping[canonical]; ok {
				resolved[canonical] = actual
			}
		}
		selected = append(selected, SelectedKpi{
			ID:                uuid.New().String(),
			ProjectID:         job.ProjectID,
			CanonicalKpiID:    desc.KPI.KpiID,
			Name:              desc.KPI.Name,
			FormulaExpr:       desc.KPI.FormulaExpr,
			RequiredCanonical: desc.KPI.ColumnsNeeded,
			ResolvedColumns:   resolved,
			Priority:          desc.KPI.Priority,
			Category:          desc.KPI.Category,
		})
	}

	if err := s.repo.ReplaceSelectedKpis(ctx, job.ProjectID, selected); err != nil {
		return KpiSelectionResult{}, fmt.Errorf("store selected kpis: %w", err)
	}
	return KpiSelectionResult{SelectionID: job.ProjectID, SelectedCount: len(selected)}, nil
}

func (s *Service) KpiStatus(ctx context.Context, kpiJobID string) (KpiExtractionJob, error) {
	return s.repo.GetKpiExtractionJob(ctx, kpiJobID)
}
