package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dataunify/pipeline/internal/core"
	"github.com/jackc/pgx/v5"
)

// CreateProject inserts a new Project row.
func (s *Store) CreateProject(ctx context.Context, p core.Project) error {
	_, err := s.Pool.Exec(ctx,
		`INSERT INTO projects (id, name, description, status, file_count, total_record_count, detected_domain, created_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		p.ID, p.Name, p.Description, p.Status, p.FileCount, p.TotalRecordCount, p.DetectedDomain, p.CreatedAt, p.UpdatedAt)
	return err
}

func (s *Store) GetProject(ctx context.Context, id string) (core.Project, error) {
	row := s.Pool.QueryRow(ctx,
		`SELECT id, name, description, status, file_count, total_record_count, detected_domain, created_at, updated_at
		 FROM projects WHERE id = $1`, id)
	return scanProject(row)
}

func (s *Store) ListProjects(ctx context.Context) ([]core.Project, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT id, name, description, status, file_count, total_record_count, detected_domain, created_at, updated_at
		 FROM projects ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.Project
	for rows.Next() {
		p, err := scanProjectRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) DeleteProject(ctx context.Context, id string) error {
	_, err := s.Pool.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	return err
}

func (s *Store) UpdateProjectStatus(ctx context.Context, id string, status core.ProjectStatus) error {
	_, err := s.Pool.Exec(ctx, `UPDATE projects SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	return err
}

func (s *Store) UpdateProjectDomain(ctx context.Context, id, domain string) error {
	_, err := s.Pool.Exec(ctx, `UPDATE projects SET detected_domain = $2, updated_at = now() WHERE id = $1`, id, domain)
	return err
}

func (s *Store) IncrementProjectCounts(ctx context.Context, id string, fileDelta, recordDelta int) error {
	_, err := s.Pool.Exec(ctx,
		`UPDATE projects SET file_count = file_count + $2, total_record_count = total_record_count + $3, updated_at = now() WHERE id = $1`,
		id, fileDelta, recordDelta)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row pgx.Row) (core.Project, error) {
	return scanProjectRows(row)
}

func scanProjectRows(row rowScanner) (core.Project, error) {
	var p core.Project
	var domain *string
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Status, &p.FileCount, &p.TotalRecordCount, &domain, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return p, fmt.Errorf("scan project: %w", err)
	}
	p.DetectedDomain = domain
	return p, nil
}

// marshalJSON is a small helper shared by every repository that stores
// a Go struct as a jsonb column.
func marshalJSON(v any) ([]byte, error) {
	return json.Marshal(v)
}
