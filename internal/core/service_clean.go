package core

// service_clean.go implements the cleaning-pipeline endpoints of §6:
// auto-config, start, status, report, paginated/full data reads.

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dataunify/pipeline/internal/metrics"
	"github.com/google/uuid"
)

// AutoConfig runs the type detector against an Upload's raw table and
// returns a prefilled CleaningConfig, per `POST /api/v1/clean/auto-config`.
func (s *Service) AutoConfig(ctx context.Context, uploadID string) (CleaningConfig, error) {
	upload, err := s.repo.GetUpload(ctx, uploadID)
	if err != nil {
		return CleaningConfig{}, fmt.Errorf("load upload: %w", err)
	}
	records, err := s.readUploadRecords(ctx, upload)
	if err != nil {
		return CleaningConfig{}, err
	}
	columnStats := detectColumns(records, upload.InferredMetadata.Columns)
	stats := make([]ColumnStats, 0, len(columnStats))
	for _, c := range upload.InferredMetadata.Columns {
		stats = append(stats, columnStats[c])
	}
	hasDup := SampleHasDuplicate(records, upload.InferredMetadata.Columns)
	return BuildAutoConfig(stats, hasDup), nil
}

func (s *Service) readUploadRecords(ctx context.Context, upload Upload) ([]ParsedRecord, error) {
	rows, err := s.dyn.ReadAll(ctx, upload.InferredTableName, upload.InferredMetadata.Columns)
	if err != nil {
		return nil, fmt.Errorf("read upload rows: %w", err)
	}
	records := make([]ParsedRecord, len(rows))
	for i, r := range rows {
		records[i] = ParsedRecord(r)
	}
	return records, nil
}

func detectColumns(records []ParsedRecord, columns []string) map[string]ColumnStats {
	stats := make(map[string]ColumnStats, len(columns))
	for _, col := range columns {
		var values []string
		for _, rec := range records {
			if v, ok := rec[col]; ok && v != "" {
				values = append(values, v)
			}
		}
		stats[col] = DetectColumn(col, values, len(records))
	}
	return stats
}

// StartCleaning validates cfg, creates a CleaningJob, and hands the
// pipeline run to the configured JobRunner: InlineRunner runs it before
// StartCleaning returns, RedisRunner only queues it.
func (s *Service) StartCleaning(ctx context.Context, uploadID string, cfg CleaningConfig) (CleaningJob, error) {
	if err := cfg.Validate(); err != nil {
		return CleaningJob{}, err
	}
	upload, err := s.repo.GetUpload(ctx, uploadID)
	if err != nil {
		return CleaningJob{}, fmt.Errorf("load upload: %w", err)
	}

	job := NewCleaningJob(uploadID, upload.ProjectID, cfg)
	if err := s.repo.CreateCleaningJob(ctx, job); err != nil {
		return job, fmt.Errorf("create cleaning job: %w", err)
	}

	payload, _ := marshalCleanPayload(job.ID)
	metrics.JobsEnqueued.WithLabelValues(string(JobClean)).Inc()
	enqueueErr := s.jobs.Enqueue(ctx, Job{
		ID:         uuid.New().String(),
		Kind:       JobClean,
		Payload:    payload,
		EnqueuedAt: time.Now(),
	})
	if enqueueErr != nil {
		return job, fmt.Errorf("enqueue cleaning job: %w", enqueueErr)
	}
	return job, nil
}

// RunCleaningJob is the JobHandler body for JobClean; it is also what
// InlineRunner.Enqueue calls synchronously and what a RedisRunner worker
// dispatches to.
func (s *Service) RunCleaningJob(ctx context.Context, cleaningJobID string) error {
	job, err := s.repo.GetCleaningJob(ctx, cleaningJobID)
	if err != nil {
		return fmt.Errorf("load cleaning job: %w", err)
	}

	projectLimiter := s.cleaningLimiter(job.ProjectID)
	if err := projectLimiter.Acquire(ctx); err != nil {
		return err
	}
	defer projectLimiter.Release()

	upload, err := s.repo.GetUpload(ctx, job.UploadID)
	if err != nil {
		return fmt.Errorf("load upload: %w", err)
	}
	records, err := s.readUploadRecords(ctx, upload)
	if err != nil {
		return err
	}
	columnStats := detectColumns(records, upload.InferredMetadata.Columns)

	if job.Config.Standardization == nil {
		job.Config.Standardization = map[string]StandardizationStrategy{}
	}

	result, runErr := RunCleaningPipeline(ctx, job, records, upload.InferredMetadata.Columns, columnStats, s.countryCode)
	job = result.Job

	if len(result.Logs) > 0 {
		if err := s.repo.InsertCleaningLogs(ctx, result.Logs); err != nil {
			return fmt.Errorf("persist cleaning logs: %w", err)
		}
		if s.logDir != "" {
			if writer, lwErr := NewLogWriter(s.logDir); lwErr == nil {
				epoch := time.Now().UnixMilli()
				for _, l := range result.Logs {
					writer.WriteOperationLog(l, epoch)
				}
				writer.WriteComprehensiveLog(job, result.Logs, epoch)
			}
		}
	}

	if runErr != nil {
		s.repo.UpdateCleaningJob(ctx, job)
		return runErr
	}

	tableName := dynamicTableName("clean", job.ID)
	if err := s.dyn.Create(ctx, tableName, upload.InferredMetadata.Columns); err != nil {
		return fmt.Errorf("create cleaned table: %w", err)
	}
	rows := make([]map[string]string, len(result.Rows))
	for i, rec := range result.Rows {
		rows[i] = map[string]string(rec)
	}
	if _, err := s.dyn.InsertRows(ctx, tableName, upload.InferredMetadata.Columns, rows, 1000); err != nil {
		return fmt.Errorf("insert cleaned rows: %w", err)
	}
	job.CleanedTableName = tableName
	return s.repo.UpdateCleaningJob(ctx, job)
}

// StartProjectCleaning starts cleaning for every Upload of a Project,
// per `POST /api/projects/:id/clean`.
func (s *Service) StartProjectCleaning(ctx context.Context, projectID string) ([]CleaningJob, error) {
	uploads, err := s.repo.ListUploadsByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}
	var jobs []CleaningJob
	for _, u := range uploads {
		if u.Status != UploadCompleted {
			continue
		}
		cfg, err := s.AutoConfig(ctx, u.ID)
		if err != nil {
			return jobs, err
		}
		job, err := s.StartCleaning(ctx, u.ID, cfg)
		if err != nil {
			return jobs, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func (s *Service) CleaningStatus(ctx context.Context, jobID string) (CleaningJob, error) {
	return s.repo.GetCleaningJob(ctx, jobID)
}

func (s *Service) ListCleaningJobs(ctx context.Context, projectID string) ([]CleaningJob, error) {
	return s.repo.ListCleaningJobsByProject(ctx, projectID)
}

func (s *Service) CleaningReport(ctx context.Context, jobID string) (AuditReport, []CleaningLog, error) {
	logs, err := s.repo.ListCleaningLogs(ctx, jobID)
	if err != nil {
		return AuditReport{}, nil, fmt.Errorf("list cleaning logs: %w", err)
	}
	return GenerateReport(jobID, logs), logs, nil
}

// CleanedDataPage returns one page of a CleaningJob's cleaned rows.
func (s *Service) CleanedDataPage(ctx context.Context, jobID string, page, limit int) ([]map[string]string, int, error) {
	job, err := s.repo.GetCleaningJob(ctx, jobID)
	if err != nil {
		return nil, 0, fmt.Errorf("load cleaning job: %w", err)
	}
	if job.CleanedTableName == "" {
		return nil, 0, &PreconditionFailedError{Reason: "cleaning job has no cleaned data yet"}
	}
	upload, err := s.repo.GetUpload(ctx, job.UploadID)
	if err != nil {
		return nil, 0, fmt.Errorf("load upload: %w", err)
	}
	return s.dyn.ReadPage(ctx, job.CleanedTableName, upload.InferredMetadata.Columns, page, limit)
}

// CleanedDataAll returns every cleaned row, for the CSV/JSON download
// endpoint.
func (s *Service) CleanedDataAll(ctx context.Context, jobID string) ([]string, []map[string]string, error) {
	job, err := s.repo.GetCleaningJob(ctx, jobID)
	if err != nil {
		return nil, nil, fmt.Errorf("load cleaning job: %w", err)
	}
	if job.CleanedTableName == "" {
		return nil, nil, &PreconditionFailedError{Reason: "cleaning job has no cleaned data yet"}
	}
	upload, err := s.repo.GetUpload(ctx, job.UploadID)
	if err != nil {
		return nil, nil, fmt.Errorf("load upload: %w", err)
	}
	rows, err := s.dyn.ReadAll(ctx, job.CleanedTableName, upload.InferredMetadata.Columns)
	return upload.InferredMetadata.Columns, rows, err
}

type cleanJobPayload struct {
	CleaningJobID string `json:"cleaningJobId"`
}

func marshalCleanPayload(cleaningJobID string) ([]byte, error) {
	return json.Marshal(cleanJobPayload{CleaningJobID: cleaningJobID})
}
