package core

// service_autocomplete.go implements `POST /api/projects/:id/auto-complete`:
// the end-to-end domain -> relationships -> view -> KPI extract ->
// dashboard chain of §4.11, failing fast on the first stage's error and
// refusing to start a second run while one is already `processing`.

import (
	"context"
	"fmt"
	"time"

	"github.com/dataunify/pipeline/internal/metrics"
)

// AutoCompleteResult carries every stage's output so a caller can render
// the full pipeline outcome in one response.
type AutoCompleteResult struct {
	DomainJob     DomainDetectionJob
	DomainScores  []DomainScore
	Relationships []Relationship
	Views         []GeneratedView
	Kpi           KpiExtractionJob
	Dashboard     Dashboard
}

// AutoComplete runs every remaining stage for a Project in sequence. It
// is the only entry point that moves a Project through `processing`
// itself; the individual stage methods it calls leave Project.Status
// untouched.
func (s *Service) AutoComplete(ctx context.Context, projectID string) (AutoCompleteResult, error) {
	project, err := s.repo.GetProject(ctx, projectID)
	if err != nil {
		return AutoCompleteResult{}, fmt.Errorf("load project: %w", err)
	}
	if project.Status == ProjectProcessing {
		return AutoCompleteResult{}, &PreconditionFailedError{Reason: "project already has an auto-complete run in progress"}
	}

	if err := s.repo.UpdateProjectStatus(ctx, projectID, ProjectProcessing); err != nil {
		return AutoCompleteResult{}, fmt.Errorf("mark project processing: %w", err)
	}

	result, runErr := s.runAutoComplete(ctx, project)
	finalStatus := ProjectCompleted
	if runErr != nil {
		finalStatus = ProjectFailed
	}
	if err := s.repo.UpdateProjectStatus(ctx, projectID, finalStatus); err != nil && runErr == nil {
		return result, fmt.Errorf("mark project %s: %w", finalStatus, err)
	}
	return result, runErr
}

func (s *Service) runAutoComplete(ctx context.Context, project Project) (AutoCompleteResult, error) {
	var result AutoCompleteResult

	jobs, err := s.repo.ListCleaningJobsByProject(ctx, project.ID)
	if err != nil {
		return result, fmt.Errorf("list cleaning jobs: %w", err)
	}
	var cleaningJobIDs []string
	for _, j := range jobs {
		if j.Status == CleaningCompleted {
			cleaningJobIDs = append(cleaningJobIDs, j.ID)
		}
	}
	if len(cleaningJobIDs) == 0 {
		return result, &PreconditionFailedError{Reason: "no completed cleaning jobs to run auto-complete against"}
	}

	stageStart := time.Now()
	domainJob, scores, err := s.DetectDomain(ctx, project.ID, cleaningJobIDs)
	metrics.ObserveStage("domain", outcomeOf(err), stageStart)
	if err != nil {
		return result, fmt.Errorf("domain detection: %w", err)
	}
	result.DomainJob = domainJob
	result.DomainScores = scores

	stageStart = time.Now()
	rels, err := s.DetectRelationshipsForProject(ctx, project.ID)
	metrics.ObserveStage("relationship", outcomeOf(err), stageStart)
	if err != nil {
		return result, fmt.Errorf("relationship detection: %w", err)
	}
	result.Relationships = rels

	stageStart = time.Now()
	views, err := s.CreateUnifiedView(ctx, project.ID)
	metrics.ObserveStage("view", outcomeOf(err), stageStart)
	if err != nil {
		return result, fmt.Errorf("unified view: %w", err)
	}
	result.Views = views

	stageStart = time.Now()
	kpiJob, err := s.ExtractKPIs(ctx, cleaningJobIDs[0], domainJob.ID)
	metrics.ObserveStage("kpi", outcomeOf(err), stageStart)
	if err != nil {
		return result, fmt.Errorf("kpi extraction: %w", err)
	}
	result.Kpi = kpiJob

	selectedIDs := make([]string, 0, len(kpiJob.Top10))
	for _, d := range kpiJob.Top10 {
		selectedIDs = append(selectedIDs, d.KPI.KpiID)
	}
	if _, err := s.SelectKpis(ctx, kpiJob.ID, selectedIDs); err != nil {
		return result, fmt.Errorf("kpi selection: %w", err)
	}

	stageStart = time.Now()
	dashboard, err := s.GenerateDashboard(ctx, project.ID)
	metrics.ObserveStage("dashboard", outcomeOf(err), stageStart)
	if err != nil {
		return result, fmt.Errorf("dashboard assembly: %w", err)
	}
	result.Dashboard = dashboard

	return result, nil
}

func outcomeOf(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
