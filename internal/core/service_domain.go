package core

// service_domain.go implements the domain classification endpoints of
// §6, enforcing the precondition from §4.11: no domain job starts
// before every cleaning job in its set reaches `completed`.

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DetectDomain runs the classifier over one or more completed
// CleaningJobs' column sets, per `POST /api/v1/domain/detect(-project)`.
func (s *Service) DetectDomain(ctx context.Context, projectID string, cleaningJobIDs []string) (DomainDetectionJob, []DomainScore, error) {
	columns, err := s.columnsFromCleaningJobs(ctx, cleaningJobIDs)
	if err != nil {
		return DomainDetectionJob{}, nil, err
	}

	job, scores := ClassifyDomain(columns)
	job.ID = uuid.New().String()
	job.ProjectID = projectID
	job.SourceCleaningJobIDs = cleaningJobIDs
	job.CreatedAt = time.Now()
	job.UpdatedAt = job.CreatedAt

	if err := s.repo.CreateDomainJob(ctx, job); err != nil {
		return job, scores, fmt.Errorf("create domain job: %w", err)
	}
	if job.Decision == DecisionAutoDetect {
		if err := s.repo.UpdateProjectDomain(ctx, projectID, job.Domain); err != nil {
			return job, scores, fmt.Errorf("update project domain: %w", err)
		}
	}
	return job, scores, nil
}

func (s *Service) columnsFromCleaningJobs(ctx context.Context, cleaningJobIDs []string) ([]string, error) {
	seen := map[string]bool{}
	var columns []string
	for _, id := range cleaningJobIDs {
		job, err := s.repo.GetCleaningJob(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("load cleaning job %s: %w", id, err)
		}
		if job.Status != CleaningCompleted {
			return nil, &PreconditionFailedError{Reason: fmt.Sprintf("cleaning job %s is not completed", id)}
		}
		upload, err := s.repo.GetUpload(ctx, job.UploadID)
		if err != nil {
			return nil, fmt.Errorf("load upload for cleaning job %s: %w", id, err)
		}
		for _, c := range upload.InferredMetadata.Columns {
			if !seen[c] {
				seen[c] = true
				columns = append(columns, c)
			}
		}
	}
	return columns, nil
}

// ConfirmDomain records the user's manual domain selection, per
// `POST /api/v1/domain/confirm`.
func (s *Service) ConfirmDomain(ctx context.Context, domainJobID, selectedDomain string) error {
	job, err := s.repo.GetDomainJob(ctx, domainJobID)
	if err != nil {
		return fmt.Errorf("load domain job: %w", err)
	}
	if err := s.repo.ConfirmDomainJob(ctx, domainJobID, selectedDomain); err != nil {
		return fmt.Errorf("confirm domain job: %w", err)
	}
	return s.repo.UpdateProjectDomain(ctx, job.ProjectID, selectedDomain)
}

func (s *Service) DomainStatus(ctx context.Context, domainJobID string) (DomainDetectionJob, error) {
	return s.repo.GetDomainJob(ctx, domainJobID)
}

func (s *Service) ListDomainJobs(ctx context.Context, projectID string) ([]DomainDetectionJob, error) {
	return s.repo.ListDomainJobs(ctx, projectID)
}
