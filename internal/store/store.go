package store

import (
	"github.com/dataunify/pipeline/internal/core"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is the record store behind internal/core's Service. It holds a
// connection pool plus the DynamicTable helper for raw/cleaned data
// tables created at runtime.
type Store struct {
	Pool    *pgxpool.Pool
	Dynamic *DynamicTable
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{Pool: pool, Dynamic: NewDynamicTable(pool)}
}

// db returns the DBTX to use for one call; tx, when non-nil, lets
// callers compose several repository calls into one transaction.
func (s *Store) db(tx core.DBTX) core.DBTX {
	if tx != nil {
		return tx
	}
	return s.Pool
}
