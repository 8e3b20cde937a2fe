package core

// autoconfig.go synthesises a default CleaningConfig from detected
// column types, per the auto-configuration table (§4.3). It is also
// exercised twice per Upload (the idempotence property requires running
// it twice to yield identical configs), so it must stay a pure function
// of its ColumnStats input.

// BuildAutoConfig derives a default cleaning configuration from the
// given per-column statistics and a sample of up to the first 1000 rows
// used to decide whether deduplication should be enabled by default.
func BuildAutoConfig(columns []ColumnStats, sampleHasDuplicate bool) CleaningConfig {
	cfg := CleaningConfig{
		Imputation:      map[string]ImputationStrategy{},
		Standardization: map[string]StandardizationStrategy{},
		Deduplication: DeduplicationConfig{
			Enabled:  sampleHasDuplicate,
			Strategy: DedupKeepFirst,
		},
	}

	outlierEnabled := false
	for _, col := range columns {
		switch col.Type {
		case TypeNumeric:
			cfg.Imputation[col.Column] = ImputeMedian
			if col.UniqueCount > 10 {
				outlierEnabled = true
			}
		case TypeDate:
			cfg.Imputation[col.Column] = ImputeForwardFill
			cfg.Standardization[col.Column] = StandardizeISO8601
		case TypePhone:
			cfg.Imputation[col.Column] = ImputeMode
			cfg.Standardization[col.Column] = StandardizeE164
		case TypeEmail:
			cfg.Imputation[col.Column] = ImputeMode
			cfg.Standardization[col.Column] = StandardizeLowercase
		case TypeBoolean:
			cfg.Imputation[col.Column] = ImputeMode
		case TypeCategorical:
			cfg.Imputation[col.Column] = ImputeMode
		case TypeTextID, TypeText:
			// no imputation, no standardisation
		}
	}

	cfg.Outliers = OutlierConfig{
		Enabled:   outlierEnabled,
		Method:    OutlierMethodIQR,
		Threshold: DefaultOutlierThreshold,
		Remove:    false,
	}

	return cfg
}

// SampleHasDuplicate reports whether any two of the first 1000 records
// are exact duplicates across every column, per §4.3's deduplication
// default rule.
func SampleHasDuplicate(records []ParsedRecord, columns []string) bool {
	const sampleSize = 1000
	if len(records) > sampleSize {
		records = records[:sampleSize]
	}
	seen := make(map[string]bool, len(records))
	for _, rec := range records {
		key := canonicalRowKey(rec, columns, nil)
		if seen[key] {
			return true
		}
		seen[key] = true
	}
	return false
}
