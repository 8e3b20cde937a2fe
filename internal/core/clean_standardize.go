package core

import (
	"strings"
	"time"
)

// DefaultCountryCode is the fallback calling code used by E.164
// standardisation when a phone number carries none, configured
// deployment-wide via STANDARDIZE_DEFAULT_COUNTRY_CODE.
const DefaultCountryCode = "1"

// runStandardization reformats each configured column into its
// canonical representation. Values that cannot be parsed are left
// unchanged and counted in the returned failures map.
func runStandardization(rows []ParsedRecord, columns []string, strategies map[string]StandardizationStrategy, countryCode string) ([]ParsedRecord, map[string]int) {
	if countryCode == "" {
		countryCode = DefaultCountryCode
	}

	out := cloneRows(rows)
	failures := map[string]int{}

	for _, col := range columns {
		strategy := strategies[col]
		if strategy == StandardizeNone {
			continue
		}
		for _, row := range out {
			v := row[col]
			if v == "" {
				continue
			}
			switch strategy {
			case StandardizeE164:
				if formatted, ok := toE164(v, countryCode); ok {
					row[col] = formatted
				} else {
					failures[col]++
				}
			case StandardizeLowercase:
				row[col] = strings.ToLower(strings.TrimSpace(v))
			case StandardizeISO8601:
				if formatted, ok := toISO8601(v); ok {
					row[col] = formatted
				} else {
					failures[col]++
				}
			case StandardizeNumber:
				if d, ok := ParseDecimal(v); ok {
					row[col] = FormatCanonicalNumber(d)
				} else {
					failures[col]++
				}
			}
		}
	}

	return out, failures
}

func toE164(v, countryCode string) (string, bool) {
	var digits strings.Builder
	for _, r := range v {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()
	if d == "" {
		return "", false
	}
	if strings.HasPrefix(strings.TrimSpace(v), "+") {
		return "+" + d, true
	}
	return "+" + countryCode + "-" + d, true
}

func toISO8601(v string) (string, bool) {
	v = strings.TrimSpace(v)
	for _, layout := range isoDateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.Format("2006-01-02"), true
		}
	}
	return "", false
}
