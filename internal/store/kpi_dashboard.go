package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dataunify/pipeline/internal/core"
	"github.com/google/uuid"
)

func (s *Store) CreateKpiExtractionJob(ctx context.Context, j core.KpiExtractionJob) error {
	top10, err := marshalJSON(j.Top10)
	if err != nil {
		return err
	}
	allFeasible, err := marshalJSON(j.AllFeasible)
	if err != nil {
		return err
	}
	canonical, err := marshalJSON(j.CanonicalMapping)
	if err != nil {
		return err
	}
	_, err = s.Pool.Exec(ctx,
		`INSERT INTO kpi_extraction_jobs (id, project_id, domain, total_kpis_in_library, feasible_count, infeasible_count, average_completeness, top10, all_feasible, unresolved, canonical_mapping, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		j.ID, j.ProjectID, j.Domain, j.TotalKpisInLibrary, j.FeasibleCount, j.InfeasibleCount, j.AverageCompleteness,
		top10, allFeasible, j.Unresolved, canonical, j.CreatedAt)
	return err
}

func (s *Store) GetKpiExtractionJob(ctx context.Context, id string) (core.KpiExtractionJob, error) {
	row := s.Pool.QueryRow(ctx,
		`SELECT id, project_id, domain, total_kpis_in_library, feasible_count, infeasible_count, average_completeness, top10, all_feasible, unresolved, canonical_mapping, created_at
		 FROM kpi_extraction_jobs WHERE id = $1`, id)
	var j core.KpiExtractionJob
	var top10, allFeasible, canonical []byte
	if err := row.Scan(&j.ID, &j.ProjectID, &j.Domain, &j.TotalKpisInLibrary, &j.FeasibleCount, &j.InfeasibleCount, &j.AverageCompleteness,
		&top10, &allFeasible, &j.Unresolved, &canonical, &j.CreatedAt); err != nil {
		return j, fmt.Errorf("scan kpi extraction job: %w", err)
	}
	json.Unmarshal(top10, &j.Top10)
	json.Unmarshal(allFeasible, &j.AllFeasible)
	json.Unmarshal(canonical, &j.CanonicalMapping)
	return j, nil
}

func (s *Store) ReplaceSelectedKpis(ctx context.Context, projectID string, selected []core.SelectedKpi) error {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin kpi selection replace: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM selected_kpis WHERE project_id = $1`, projectID); err != nil {
		return fmt.Errorf("clear selected kpis: %w", err)
	}
	for _, k := range selected {
		if k.ID == "" {
			k.ID = uuid.New().String()
		}
		resolved, err := marshalJSON(k.ResolvedColumns)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO selected_kpis (id, project_id, canonical_kpi_id, name, formula_expr, required_canonical, resolved_columns, priority, category)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			k.ID, projectID, k.CanonicalKpiID, k.Name, k.FormulaExpr, k.RequiredCanonical, resolved, k.Priority, k.Category)
		if err != nil {
			return fmt.Errorf("insert selected kpi: %w", err)
		}
	}
	return tx.Commit(ctx)
}

func (s *Store) ListSelectedKpis(ctx context.Context, projectID string) ([]core.SelectedKpi, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT id, project_id, canonical_kpi_id, name, formula_expr, required_canonical, resolved_columns, priority, category
		 FROM selected_kpis WHERE project_id = $1`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.SelectedKpi
	for rows.Next() {
		var k core.SelectedKpi
		var resolved []byte
		if err := rows.Scan(&k.ID, &k.ProjectID, &k.CanonicalKpiID, &k.Name, &k.FormulaExpr, &k.RequiredCanonical, &resolved, &k.Priority, &k.Category); err != nil {
			return nil, fmt.Errorf("scan selected kpi: %w", err)
		}
		json.Unmarshal(resolved, &k.ResolvedColumns)
		out = append(out, k)
	}
	return out, rows.Err()
}

func (s *Store) UpsertDashboard(ctx context.Context, d core.Dashboard) error {
	cfg, err := marshalJSON(d.Config)
	if err != nil {
		return err
	}
	_, err = s.Pool.Exec(ctx,
		`INSERT INTO dashboards (id, project_id, title, description, config, status, created_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		 ON CONFLICT (id) DO UPDATE SET title = $3, description = $4, config = $5, status = $6, updated_at = $8`,
		d.ID, d.ProjectID, d.Title, d.Description, cfg, d.Status, d.CreatedAt, d.UpdatedAt)
	return err
}

func (s *Store) GetDashboardByProject(ctx context.Context, projectID string) (core.Dashboard, error) {
	row := s.Pool.QueryRow(ctx,
		`SELECT id, project_id, title, description, config, status, created_at, updated_at
		 FROM dashboards WHERE project_id = $1 ORDER BY created_at DESC LIMIT 1`, projectID)
	var d core.Dashboard
	var cfg []byte
	if err := row.Scan(&d.ID, &d.ProjectID, &d.Title, &d.Description, &cfg, &d.Status, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return d, fmt.Errorf("scan dashboard: %w", err)
	}
	json.Unmarshal(cfg, &d.Config)
	return d, nil
}
