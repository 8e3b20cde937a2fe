package core

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// PipelineResult is the outcome of running the four cleaning stages
// against one Upload's parsed rows.
type PipelineResult struct {
	Job     CleaningJob
	Rows    []ParsedRecord
	Columns []string
	Logs    []CleaningLog
}

// RunCleaningPipeline executes imputation, outlier detection,
// deduplication, and standardization in that fixed order, each stage
// reading the prior stage's output snapshot. A stage failure stops the
// pipeline: no downstream stage runs, the job is marked failed, and the
// returned error is a *StageError naming the failing operation.
//
// columnStats must be computed from the pre-cleaning data (detector
// output) since outlier bounds and column types are fixed at detection
// time, not recomputed per stage.
func RunCleaningPipeline(ctx context.Context, job CleaningJob, rows []ParsedRecord, columns []string, columnStats map[string]ColumnStats, countryCode string) (PipelineResult, error) {
	columnTypes := make(map[string]ColumnType, len(columnStats))
	for col, st := range columnStats {
		columnTypes[col] = st.Type
	}

	result := PipelineResult{Job: job, Rows: rows, Columns: columns}

	stages := []struct {
		op  StageOperation
		run func([]ParsedRecord) ([]ParsedRecord, CleaningStats)
	}{
		{OpImputation, func(in []ParsedRecord) ([]ParsedRecord, CleaningStats) {
			out, leading := runImputation(in, columns, job.Config.Imputation)
			stats := computeCleaningStats(out, columns)
			stats.LeadingNulls = leading
			return out, stats
		}},
		{OpOutliers, func(in []ParsedRecord) ([]ParsedRecord, CleaningStats) {
			out, flagged := runOutliers(in, columnStats, job.Config.Outliers)
			stats := computeCleaningStats(out, columns)
			stats.FlaggedOutliers = flagged
			return out, stats
		}},
		{OpDeduplication, func(in []ParsedRecord) ([]ParsedRecord, CleaningStats) {
			out, dupes := runDeduplication(in, columns, columnTypes, job.Config.Deduplication)
			stats := computeCleaningStats(out, columns)
			stats.DuplicateCount = dupes
			return out, stats
		}},
		{OpStandardization, func(in []ParsedRecord) ([]ParsedRecord, CleaningStats) {
			out, failures := runStandardization(in, columns, job.Config.Standardization, countryCode)
			stats := computeCleaningStats(out, columns)
			stats.StandardizationFailure = failures
			return out, stats
		}},
	}

	current := rows
	for _, stage := range stages {
		if err := ctx.Err(); err != nil {
			job.Status = CleaningFailed
			job.FailedOperation = string(stage.op)
			msg := "cancelled"
			job.ErrorMessage = &msg
			result.Job = job
			result.Rows = current
			return result, err
		}

		before := computeCleaningStats(current, columns)
		start := time.Now()

		after, stats, stageErr := runStageSafely(stage.run, current)
		duration := time.Since(start)

		var logErr error
		if stageErr != nil {
			logErr = &StageError{Operation: stage.op, Err: stageErr}
		}

		cfgSnapshot := map[string]any{"operation": stage.op}
		result.Logs = append(result.Logs, NewCleaningLog(job.ID, stage.op, before, stats, cfgSnapshot, duration, logErr))

		if stageErr != nil {
			job.Status = CleaningFailed
			job.FailedOperation = string(stage.op)
			msg := logErr.Error()
			job.ErrorMessage = &msg
			result.Job = job
			result.Rows = current
			return result, logErr
		}

		current = after
	}

	job.Status = CleaningCompleted
	job.Stats = computeCleaningStats(current, columns)
	result.Job = job
	result.Rows = current
	return result, nil
}

// runStageSafely recovers a panic inside a stage function and reports it
// as a stage error rather than crashing the pipeline goroutine.
func runStageSafely(run func([]ParsedRecord) ([]ParsedRecord, CleaningStats), in []ParsedRecord) (out []ParsedRecord, stats CleaningStats, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &panicError{r}
		}
	}()
	out, stats = run(in)
	return out, stats, nil
}

type panicError struct{ value any }

func (e *panicError) Error() string { return "cleaning stage panicked" }

func computeCleaningStats(rows []ParsedRecord, columns []string) CleaningStats {
	stats := CleaningStats{TotalRows: len(rows), ColumnCount: len(columns)}
	for _, row := range rows {
		for _, col := range columns {
			if row[col] == "" {
				stats.NullCount++
			}
		}
	}
	return stats
}

// NewCleaningJob constructs a pending CleaningJob for one Upload, ready
// to be handed to RunCleaningPipeline.
func NewCleaningJob(uploadID, projectID string, cfg CleaningConfig) CleaningJob {
	now := time.Now()
	return CleaningJob{
		ID:        uuid.New().String(),
		UploadID:  uploadID,
		ProjectID: projectID,
		Config:    cfg,
		Status:    CleaningRunning,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
