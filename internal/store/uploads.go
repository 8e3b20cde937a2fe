package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dataunify/pipeline/internal/core"
)

func (s *Store) CreateUpload(ctx context.Context, u core.Upload) error {
	meta, err := marshalJSON(u.InferredMetadata)
	if err != nil {
		return fmt.Errorf("marshal inferred metadata: %w", err)
	}
	_, err = s.Pool.Exec(ctx,
		`INSERT INTO uploads (id, project_id, original_filename, stored_filename, mime_type, byte_size, storage_path,
		                      status, records_processed, total_records, inferred_table_name, error_message, inferred_metadata,
		                      created_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
		u.ID, u.ProjectID, u.OriginalFilename, u.StoredFilename, u.MimeType, u.ByteSize, u.StoragePath,
		u.Status, u.RecordsProcessed, u.TotalRecords, u.InferredTableName, u.ErrorMessage, meta,
		u.CreatedAt, u.UpdatedAt)
	return err
}

func (s *Store) GetUpload(ctx context.Context, id string) (core.Upload, error) {
	row := s.Pool.QueryRow(ctx,
		`SELECT id, project_id, original_filename, stored_filename, mime_type, byte_size, storage_path,
		        status, records_processed, total_records, inferred_table_name, error_message, inferred_metadata,
		        created_at, updated_at
		 FROM uploads WHERE id = $1`, id)
	return scanUpload(row)
}

func (s *Store) ListUploadsByProject(ctx context.Context, projectID string) ([]core.Upload, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT id, project_id, original_filename, stored_filename, mime_type, byte_size, storage_path,
		        status, records_processed, total_records, inferred_table_name, error_message, inferred_metadata,
		        created_at, updated_at
		 FROM uploads WHERE project_id = $1 ORDER BY created_at`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.Upload
	for rows.Next() {
		u, err := scanUpload(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// ProjectColumns returns the union of InferredMetadata.Columns across
// every Upload in a Project, per `GET /api/projects/:id/columns`.
func (s *Store) ProjectColumns(ctx context.Context, projectID string) ([]string, error) {
	uploads, err := s.ListUploadsByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	var out []string
	for _, u := range uploads {
		for _, c := range u.InferredMetadata.Columns {
			if !seen[c] {
				seen[c] = true
				out = append(out, c)
			}
		}
	}
	return out, nil
}

func (s *Store) UpdateUploadStatus(ctx context.Context, id string, status core.UploadStatus, errMsg *string) error {
	_, err := s.Pool.Exec(ctx,
		`UPDATE uploads SET status = $2, error_message = $3, updated_at = now() WHERE id = $1`, id, status, errMsg)
	return err
}

func (s *Store) UpdateUploadParsed(ctx context.Context, id string, totalRecords int, tableName string, meta core.InferredMetadata) error {
	data, err := marshalJSON(meta)
	if err != nil {
		return fmt.Errorf("marshal inferred metadata: %w", err)
	}
	_, err = s.Pool.Exec(ctx,
		`UPDATE uploads SET total_records = $2, records_processed = $2, inferred_table_name = $3, inferred_metadata = $4,
		        status = $5, updated_at = now() WHERE id = $1`,
		id, totalRecords, tableName, data, core.UploadCompleted)
	return err
}

func scanUpload(row rowScanner) (core.Upload, error) {
	var u core.Upload
	var meta []byte
	if err := row.Scan(&u.ID, &u.ProjectID, &u.OriginalFilename, &u.StoredFilename, &u.MimeType, &u.ByteSize, &u.StoragePath,
		&u.Status, &u.RecordsProcessed, &u.TotalRecords, &u.InferredTableName, &u.ErrorMessage, &meta,
		&u.CreatedAt, &u.UpdatedAt); err != nil {
		return u, fmt.Errorf("scan upload: %w", err)
	}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &u.InferredMetadata); err != nil {
			return u, fmt.Errorf("unmarshal inferred metadata: %w", err)
		}
	}
	return u, nil
}
