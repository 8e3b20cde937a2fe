package core

// service_relationship.go implements relationship detection and
// unified-view generation (§6 "Relationships & view"), both of which
// require every cleaning job in the Project to be `completed` and run
// sequentially (view generation depends on relationships), per §4.11.

import (
	"context"
	"fmt"
	"time"
)

// DetectRelationshipsForProject loads every completed CleaningJob's
// cleaned table, profiles it into a RelationshipTable, and runs the
// detector, replacing the Project's stored relationship set.
func (s *Service) DetectRelationshipsForProject(ctx context.Context, projectID string) ([]Relationship, error) {
	tables, err := s.relationshipTables(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if len(tables) < 2 {
		return nil, &PreconditionFailedError{Reason: "at least two completed cleaning jobs are required to detect relationships"}
	}

	rels := DetectRelationships(tables)
	now := time.Now()
	for i := range rels {
		rels[i].ProjectID = projectID
		rels[i].CreatedAt = now
	}
	if err := s.repo.ReplaceRelationships(ctx, projectID, rels); err != nil {
		return nil, fmt.Errorf("store relationships: %w", err)
	}
	return rels, nil
}

// relationshipTables builds one RelationshipTable per completed
// CleaningJob in a Project, reading cleaned rows back from the dynamic
// table the cleaning pipeline wrote.
func (s *Service) relationshipTables(ctx context.Context, projectID string) ([]RelationshipTable, error) {
	jobs, err := s.repo.ListCleaningJobsByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("list cleaning jobs: %w", err)
	}

	var tables []RelationshipTable
	for _, job := range jobs {
		if job.Status != CleaningCompleted || job.CleanedTableName == "" {
			continue
		}
		upload, err := s.repo.GetUpload(ctx, job.UploadID)
		if err != nil {
			return nil, fmt.Errorf("load upload for cleaning job %s: %w", job.ID, err)
		}
		columns := upload.InferredMetadata.Columns
		rows, err := s.dyn.ReadAll(ctx, job.CleanedTableName, columns)
		if err != nil {
			return nil, fmt.Errorf("read cleaned table %s: %w", job.CleanedTableName, err)
		}

		records := make([]ParsedRecord, len(rows))
		for i, r := range rows {
			records[i] = ParsedRecord(r)
		}
		columnTypes := make(map[string]ColumnType, len(columns))
		values := make(map[string][]string, len(columns))
		for col, stat := range detectColumns(records, columns) {
			columnTypes[col] = stat.Type
		}
		for _, col := range columns {
			colValues := make([]string, 0, len(rows))
			for _, r := range rows {
				if v := r[col]; v != "" {
					colValues = append(colValues, v)
				}
			}
			values[col] = colValues
		}

		tables = append(tables, RelationshipTable{
			TableName:   job.CleanedTableName,
			RowCount:    len(rows),
			CreatedAt:   job.CreatedAt.UnixMilli(),
			ColumnOrder: columns,
			Columns:     columnTypes,
			Values:      values,
		})
	}
	return tables, nil
}

// CreateUnifiedView generates and stores the Project's unified view(s)
// from its currently stored relationships, per
// `POST /api/projects/:id/create-unified-view`.
func (s *Service) CreateUnifiedView(ctx context.Context, projectID string) ([]GeneratedView, error) {
	rels, err := s.repo.ListRelationships(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("list relationships: %w", err)
	}
	validCount := 0
	for _, r := range rels {
		if r.Status == RelationshipValid {
			validCount++
		}
	}
	if validCount == 0 {
		return nil, &NoRelationshipsFoundError{}
	}

	tables, err := s.relationshipTables(ctx, projectID)
	if err != nil {
		return nil, err
	}
	viewTables := make([]ViewTable, 0, len(tables))
	for _, t := range tables {
		viewTables = append(viewTables, ViewTable{TableName: t.TableName, RowCount: t.RowCount, CreatedAt: t.CreatedAt, Columns: t.ColumnOrder})
	}

	generated := GenerateUnifiedViews(viewTables, rels, fmt.Sprintf("unified_view_%d", time.Now().UnixMilli()))
	views := make([]UnifiedView, len(generated))
	now := time.Now()
	for i, g := range generated {
		views[i] = UnifiedView{ProjectID: projectID, ViewName: g.ViewName, ViewSQL: g.SQL, Active: true, CreatedAt: now}
	}
	if err := s.repo.ReplaceUnifiedViews(ctx, projectID, views); err != nil {
		return nil, fmt.Errorf("store unified views: %w", err)
	}
	return generated, nil
}

func (s *Service) ListRelationships(ctx context.Context, projectID string) ([]Relationship, error) {
	return s.repo.ListRelationships(ctx, projectID)
}

func (s *Service) ActiveUnifiedViews(ctx context.Context, projectID string) ([]UnifiedView, error) {
	return s.repo.ActiveUnifiedViews(ctx, projectID)
}
