package core

import "github.com/shopspring/decimal"

// runOutliers flags (and optionally removes) rows outside the IQR bounds
// of eligible numeric columns (unique count > 10). Threshold k defaults
// to 1.5: Lower = Q1 - k*IQR, Upper = Q3 + k*IQR.
func runOutliers(rows []ParsedRecord, columnStats map[string]ColumnStats, cfg OutlierConfig) ([]ParsedRecord, int) {
	if !cfg.Enabled {
		return rows, 0
	}

	type bound struct{ lower, upper decimal.Decimal }
	bounds := map[string]bound{}
	k := decimal.NewFromFloat(cfg.Threshold)

	for col, st := range columnStats {
		if st.Type != TypeNumeric || st.UniqueCount <= 10 || st.Q1 == nil || st.Q3 == nil {
			continue
		}
		iqr := st.Q3.Sub(*st.Q1)
		bounds[col] = bound{
			lower: st.Q1.Sub(iqr.Mul(k)),
			upper: st.Q3.Add(iqr.Mul(k)),
		}
	}
	if len(bounds) == 0 {
		return rows, 0
	}

	flagged := 0
	kept := make([]ParsedRecord, 0, len(rows))
	for _, row := range rows {
		isOutlier := false
		for col, b := range bounds {
			v := row[col]
			if v == "" {
				continue
			}
			d, ok := ParseDecimal(v)
			if !ok {
				continue
			}
			if d.LessThan(b.lower) || d.GreaterThan(b.upper) {
				isOutlier = true
				break
			}
		}
		if isOutlier {
			flagged++
			if cfg.Remove {
				continue
			}
		}
		kept = append(kept, row)
	}

	return kept, flagged
}
