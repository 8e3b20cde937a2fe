package core

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// canonicalRowKey hashes the normalised key-column tuple of a row.
// text/categorical columns are case-folded before hashing; every other
// column compares exactly, per §4.4.3.
func canonicalRowKey(row ParsedRecord, keyColumns []string, columnTypes map[string]ColumnType) string {
	h := sha256.New()
	for _, col := range keyColumns {
		v := row[col]
		if columnTypes != nil {
			switch columnTypes[col] {
			case TypeText, TypeCategorical:
				v = strings.ToLower(strings.TrimSpace(v))
			}
		}
		h.Write([]byte(v))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// runDeduplication retains only the first occurrence of each distinct
// key-column tuple, in row order.
func runDeduplication(rows []ParsedRecord, columns []string, columnTypes map[string]ColumnType, cfg DeduplicationConfig) ([]ParsedRecord, int) {
	if !cfg.Enabled {
		return rows, 0
	}

	keyColumns := cfg.KeyColumns
	if len(keyColumns) == 0 {
		keyColumns = columns
	}

	seen := make(map[string]bool, len(rows))
	kept := make([]ParsedRecord, 0, len(rows))
	duplicates := 0

	for _, row := range rows {
		key := canonicalRowKey(row, keyColumns, columnTypes)
		if seen[key] {
			duplicates++
			continue
		}
		seen[key] = true
		kept = append(kept, row)
	}

	return kept, duplicates
}
