// Package store is the record-store layer behind internal/core: one
// repository per entity plus the dynamic-table machinery that backs
// raw-upload and cleaned-data tables, generalised from the teacher's
// own tableKey-driven CRUD in its original service.go.
package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/dataunify/pipeline/internal/core"
)

// quoteIdentifier quotes a SQL identifier; duplicated from core.helpers
// deliberately since store must not import core's internal naming
// helpers for anything beyond the DBTX contract.
func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// DynamicTable manages a table created at runtime to hold one Upload's
// raw rows or one CleaningJob's cleaned rows. Every column is TEXT; the
// type detector's ColumnStats carry typed interpretation, not the
// storage layer.
type DynamicTable struct {
	db core.DBTX
}

func NewDynamicTable(db core.DBTX) *DynamicTable {
	return &DynamicTable{db: db}
}

// Create builds <name> with an id surrogate key, created_at and one
// text column per entry in columns, per §6's persisted-layout rule.
func (d *DynamicTable) Create(ctx context.Context, name string, columns []string) error {
	cols := make([]string, 0, len(columns))
	for _, c := range columns {
		cols = append(cols, fmt.Sprintf("%s text", quoteIdentifier(c)))
	}
	stmt := fmt.Sprintf(
		`CREATE TABLE %s (id bigserial PRIMARY KEY, created_at timestamptz NOT NULL DEFAULT now(), %s)`,
		quoteIdentifier(name), strings.Join(cols, ", "),
	)
	_, err := d.db.Exec(ctx, stmt)
	return err
}

// InsertRows bulk-inserts rows in batches of batchSize, each row a map
// keyed by column name (missing/empty keys insert NULL).
func (d *DynamicTable) InsertRows(ctx context.Context, name string, columns []string, rows []map[string]string, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = 1000
	}
	inserted := 0
	quotedCols := make([]string, len(columns))
	for i, c := range columns {
		quotedCols[i] = quoteIdentifier(c)
	}
	colList := strings.Join(quotedCols, ", ")

	for start := 0; start < len(rows); start += batchSize {
		end := start + batchSize
		if end > len(rows) {
			end = len(rows)
		}
		batch := rows[start:end]

		var b strings.Builder
		fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES ", quoteIdentifier(name), colList)
		args := make([]interface{}, 0, len(batch)*len(columns))
		argIdx := 1
		for i, row := range batch {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString("(")
			for j, col := range columns {
				if j > 0 {
					b.WriteString(", ")
				}
				fmt.Fprintf(&b, "$%d", argIdx)
				argIdx++
				if v, ok := row[col]; ok && v != "" {
					args = append(args, v)
				} else {
					args = append(args, nil)
				}
			}
			b.WriteString(")")
		}

		tag, err := d.db.Exec(ctx, b.String(), args...)
		if err != nil {
			return inserted, fmt.Errorf("insert into %s: %w", name, err)
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}

// ReadAll returns every row of a dynamic table in insertion order, one
// map per row keyed by column name.
func (d *DynamicTable) ReadAll(ctx context.Context, name string, columns []string) ([]map[string]string, error) {
	quotedCols := make([]string, len(columns))
	for i, c := range columns {
		quotedCols[i] = quoteIdentifier(c)
	}
	q := fmt.Sprintf("SELECT %s FROM %s ORDER BY id", strings.Join(quotedCols, ", "), quoteIdentifier(name))
	rows, err := d.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	defer rows.Close()

	var out []map[string]string
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, err
		}
		m := make(map[string]string, len(columns))
		for i, c := range columns {
			if vals[i] == nil {
				m[c] = ""
				continue
			}
			if s, ok := vals[i].(string); ok {
				m[c] = s
			} else {
				m[c] = fmt.Sprintf("%v", vals[i])
			}
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// ReadPage returns one page (1-based) of rows plus the total row count.
func (d *DynamicTable) ReadPage(ctx context.Context, name string, columns []string, page, limit int) ([]map[string]string, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > core.MaxPageSize {
		limit = core.DefaultPageSize
	}

	var total int
	countQ := fmt.Sprintf("SELECT count(*) FROM %s", quoteIdentifier(name))
	if err := d.db.QueryRow(ctx, countQ).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count %s: %w", name, err)
	}

	quotedCols := make([]string, len(columns))
	for i, c := range columns {
		quotedCols[i] = quoteIdentifier(c)
	}
	offset := (page - 1) * limit
	q := fmt.Sprintf("SELECT %s FROM %s ORDER BY id LIMIT $1 OFFSET $2",
		strings.Join(quotedCols, ", "), quoteIdentifier(name))
	rows, err := d.db.Query(ctx, q, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("page %s: %w", name, err)
	}
	defer rows.Close()

	var out []map[string]string
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, 0, err
		}
		m := make(map[string]string, len(columns))
		for i, c := range columns {
			if vals[i] == nil {
				m[c] = ""
				continue
			}
			if s, ok := vals[i].(string); ok {
				m[c] = s
			} else {
				m[c] = fmt.Sprintf("%v", vals[i])
			}
		}
		out = append(out, m)
	}
	return out, total, rows.Err()
}

// Drop removes a dynamic table if it exists, used when a cleaning job
// is superseded by a rerun.
func (d *DynamicTable) Drop(ctx context.Context, name string) error {
	_, err := d.db.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteIdentifier(name)))
	return err
}
