package store

import (
	"context"
	"fmt"

	"github.com/dataunify/pipeline/internal/core"
	"github.com/google/uuid"
)

func (s *Store) ReplaceRelationships(ctx context.Context, projectID string, rels []core.Relationship) error {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin relationship replace: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM relationships WHERE project_id = $1`, projectID); err != nil {
		return fmt.Errorf("clear relationships: %w", err)
	}
	for _, r := range rels {
		if r.ID == "" {
			r.ID = uuid.New().String()
		}
		_, err := tx.Exec(ctx,
			`INSERT INTO relationships (id, project_id, source_table, source_column, target_table, target_column, match_rate, status, kind, created_at)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
			r.ID, projectID, r.SourceTable, r.SourceColumn, r.TargetTable, r.TargetColumn, r.MatchRate, r.Status, r.Kind, r.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert relationship: %w", err)
		}
	}
	return tx.Commit(ctx)
}

func (s *Store) ListRelationships(ctx context.Context, projectID string) ([]core.Relationship, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT id, project_id, source_table, source_column, target_table, target_column, match_rate, status, kind, created_at
		 FROM relationships WHERE project_id = $1 ORDER BY created_at`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.Relationship
	for rows.Next() {
		var r core.Relationship
		if err := rows.Scan(&r.ID, &r.ProjectID, &r.SourceTable, &r.SourceColumn, &r.TargetTable, &r.TargetColumn, &r.MatchRate, &r.Status, &r.Kind, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan relationship: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ReplaceUnifiedViews deactivates prior views and inserts the freshly
// generated set, per §5's "replaced, not mutated in place" rule.
func (s *Store) ReplaceUnifiedViews(ctx context.Context, projectID string, views []core.UnifiedView) error {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin view replace: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `UPDATE unified_views SET active = false WHERE project_id = $1`, projectID); err != nil {
		return fmt.Errorf("deactivate views: %w", err)
	}
	for _, v := range views {
		if v.ID == "" {
			v.ID = uuid.New().String()
		}
		_, err := tx.Exec(ctx,
			`INSERT INTO unified_views (id, project_id, view_name, view_sql, active, created_at)
			 VALUES ($1,$2,$3,$4,true,$5)`,
			v.ID, projectID, v.ViewName, v.ViewSQL, v.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert unified view: %w", err)
		}
	}
	return tx.Commit(ctx)
}

func (s *Store) ActiveUnifiedViews(ctx context.Context, projectID string) ([]core.UnifiedView, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT id, project_id, view_name, view_sql, active, created_at
		 FROM unified_views WHERE project_id = $1 AND active = true ORDER BY created_at`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.UnifiedView
	for rows.Next() {
		var v core.UnifiedView
		if err := rows.Scan(&v.ID, &v.ProjectID, &v.ViewName, &v.ViewSQL, &v.Active, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan unified view: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
