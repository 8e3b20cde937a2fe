package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dataunify/pipeline/internal/core"
)

func (s *Store) CreateDomainJob(ctx context.Context, j core.DomainDetectionJob) error {
	scores, err := marshalJSON(j.AllScores)
	if err != nil {
		return fmt.Errorf("marshal domain scores: %w", err)
	}
	_, err = s.Pool.Exec(ctx,
		`INSERT INTO domain_detection_jobs (id, project_id, source_cleaning_job_ids, domain, confidence, decision, matched_primary, matched_keywords, all_scores, status, created_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		j.ID, j.ProjectID, j.SourceCleaningJobIDs, j.Domain, j.Confidence, j.Decision, j.MatchedPrimary, j.MatchedKeywords, scores, j.Status, j.CreatedAt, j.UpdatedAt)
	return err
}

func (s *Store) GetDomainJob(ctx context.Context, id string) (core.DomainDetectionJob, error) {
	row := s.Pool.QueryRow(ctx,
		`SELECT id, project_id, source_cleaning_job_ids, domain, confidence, decision, matched_primary, matched_keywords, all_scores, status, created_at, updated_at
		 FROM domain_detection_jobs WHERE id = $1`, id)
	return scanDomainJob(row)
}

func (s *Store) ListDomainJobs(ctx context.Context, projectID string) ([]core.DomainDetectionJob, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT id, project_id, source_cleaning_job_ids, domain, confidence, decision, matched_primary, matched_keywords, all_scores, status, created_at, updated_at
		 FROM domain_detection_jobs WHERE project_id = $1 ORDER BY created_at DESC`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []core.DomainDetectionJob
	for rows.Next() {
		j, err := scanDomainJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

func (s *Store) ConfirmDomainJob(ctx context.Context, id, selectedDomain string) error {
	_, err := s.Pool.Exec(ctx,
		`UPDATE domain_detection_jobs SET domain = $2, decision = $3, status = $4, updated_at = now() WHERE id = $1`,
		id, selectedDomain, core.DecisionConfirmed, core.DomainConfirmed)
	return err
}

func scanDomainJob(row rowScanner) (core.DomainDetectionJob, error) {
	var j core.DomainDetectionJob
	var scores []byte
	if err := row.Scan(&j.ID, &j.ProjectID, &j.SourceCleaningJobIDs, &j.Domain, &j.Confidence, &j.Decision,
		&j.MatchedPrimary, &j.MatchedKeywords, &scores, &j.Status, &j.CreatedAt, &j.UpdatedAt); err != nil {
		return j, fmt.Errorf("scan domain job: %w", err)
	}
	if len(scores) > 0 {
		json.Unmarshal(scores, &j.AllScores)
	}
	return j, nil
}
