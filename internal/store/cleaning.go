package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dataunify/pipeline/internal/core"
)

func (s *Store) CreateCleaningJob(ctx context.Context, j core.CleaningJob) error {
	cfg, err := marshalJSON(j.Config)
	if err != nil {
		return fmt.Errorf("marshal cleaning config: %w", err)
	}
	stats, err := marshalJSON(j.Stats)
	if err != nil {
		return fmt.Errorf("marshal cleaning stats: %w", err)
	}
	_, err = s.Pool.Exec(ctx,
		`INSERT INTO cleaning_jobs (id, upload_id, project_id, config, stats, cleaned_table_name, status, failed_operation, error_message, created_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		j.ID, j.UploadID, j.ProjectID, cfg, stats, j.CleanedTableName, j.Status, j.FailedOperation, j.ErrorMessage, j.CreatedAt, j.UpdatedAt)
	return err
}

func (s *Store) UpdateCleaningJob(ctx context.Context, j core.CleaningJob) error {
	stats, err := marshalJSON(j.Stats)
	if err != nil {
		return fmt.Errorf("marshal cleaning stats: %w", err)
	}
	_, err = s.Pool.Exec(ctx,
		`UPDATE cleaning_jobs SET stats = $2, cleaned_table_name = $3, status = $4, failed_operation = $5, error_message = $6, updated_at = now()
		 WHERE id = $1`,
		j.ID, stats, j.CleanedTableName, j.Status, j.FailedOperation, j.ErrorMessage)
	return err
}

func (s *Store) GetCleaningJob(ctx context.Context, id string) (core.CleaningJob, error) {
	row := s.Pool.QueryRow(ctx,
		`SELECT id, upload_id, project_id, config, stats, cleaned_table_name, status, failed_operation, error_message, created_at, updated_at
		 FROM cleaning_jobs WHERE id = $1`, id)
	return scanCleaningJob(row)
}

func (s *Store) ListCleaningJobsByProject(ctx context.Context, projectID string) ([]core.CleaningJob, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT id, upload_id, project_id, config, stats, cleaned_table_name, status, failed_operation, error_message, created_at, updated_at
		 FROM cleaning_jobs WHERE project_id = $1 ORDER BY created_at`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []core.CleaningJob
	for rows.Next() {
		j, err := scanCleaningJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

func scanCleaningJob(row rowScanner) (core.CleaningJob, error) {
	var j core.CleaningJob
	var cfg, stats []byte
	if err := row.Scan(&j.ID, &j.UploadID, &j.ProjectID, &cfg, &stats, &j.CleanedTableName, &j.Status, &j.FailedOperation, &j.ErrorMessage, &j.CreatedAt, &j.UpdatedAt); err != nil {
		return j, fmt.Errorf("scan cleaning job: %w", err)
	}
	if len(cfg) > 0 {
		if err := json.Unmarshal(cfg, &j.Config); err != nil {
			return j, fmt.Errorf("unmarshal cleaning config: %w", err)
		}
	}
	if len(stats) > 0 {
		if err := json.Unmarshal(stats, &j.Stats); err != nil {
			return j, fmt.Errorf("unmarshal cleaning stats: %w", err)
		}
	}
	return j, nil
}

// InsertCleaningLogs appends every log in strict stage order within one
// statement per row, matching the append-only invariant of §5.
func (s *Store) InsertCleaningLogs(ctx context.Context, logs []core.CleaningLog) error {
	for _, l := range logs {
		before, err := marshalJSON(l.BeforeStats)
		if err != nil {
			return err
		}
		after, err := marshalJSON(l.AfterStats)
		if err != nil {
			return err
		}
		snapshot, err := marshalJSON(l.ConfigSnapshot)
		if err != nil {
			return err
		}
		_, err = s.Pool.Exec(ctx,
			`INSERT INTO cleaning_logs (id, cleaning_job_id, operation, before_stats, after_stats, config_snapshot, duration_ms, success, error_message, severity, created_at)
			 VALUES (gen_random_uuid(),$1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
			l.CleaningJobID, l.Operation, before, after, snapshot, l.DurationMS, l.Success, l.ErrorMessage, l.Severity, l.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert cleaning log: %w", err)
		}
	}
	return nil
}

func (s *Store) ListCleaningLogs(ctx context.Context, jobID string) ([]core.CleaningLog, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT cleaning_job_id, operation, before_stats, after_stats, config_snapshot, duration_ms, success, error_message, severity, created_at
		 FROM cleaning_logs WHERE cleaning_job_id = $1 ORDER BY created_at`, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.CleaningLog
	for rows.Next() {
		var l core.CleaningLog
		var before, after, snapshot []byte
		if err := rows.Scan(&l.CleaningJobID, &l.Operation, &before, &after, &snapshot, &l.DurationMS, &l.Success, &l.ErrorMessage, &l.Severity, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan cleaning log: %w", err)
		}
		json.Unmarshal(before, &l.BeforeStats)
		json.Unmarshal(after, &l.AfterStats)
		json.Unmarshal(snapshot, &l.ConfigSnapshot)
		out = append(out, l)
	}
	return out, rows.Err()
}

// ArchiveOldCleaningLogs implements core.LogArchiver, moving entries
// older than daysToKeep from the hot table to the archive table in
// batches.
func (s *Store) ArchiveOldCleaningLogs(ctx context.Context, daysToKeep, batchSize int) (int64, error) {
	var total int64
	for {
		tag, err := s.Pool.Exec(ctx, `
			WITH moved AS (
				DELETE FROM cleaning_logs
				WHERE id IN (
					SELECT id FROM cleaning_logs
					WHERE created_at < now() - ($1 || ' days')::interval
					LIMIT $2
				)
				RETURNING *
			)
			INSERT INTO cleaning_logs_archive SELECT * FROM moved`, daysToKeep, batchSize)
		if err != nil {
			return total, fmt.Errorf("archive cleaning logs: %w", err)
		}
		n := tag.RowsAffected()
		total += n
		if n < int64(batchSize) {
			break
		}
	}
	return total, nil
}

// PurgeOldArchives implements core.LogArchiver, deleting archive rows
// older than yearsToKeep entirely.
func (s *Store) PurgeOldArchives(ctx context.Context, yearsToKeep int) (int64, error) {
	tag, err := s.Pool.Exec(ctx,
		`DELETE FROM cleaning_logs_archive WHERE created_at < now() - ($1 || ' years')::interval`, yearsToKeep)
	if err != nil {
		return 0, fmt.Errorf("purge archived cleaning logs: %w", err)
	}
	return tag.RowsAffected(), nil
}
