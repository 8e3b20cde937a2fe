package core

// detect.go classifies a parsed column's values into one of the type
// detector's eight kinds and computes the summary statistics the
// cleaning pipeline's imputation and outlier stages consume.

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ColumnType is the type detector's classification for one column.
type ColumnType string

const (
	TypeNumeric     ColumnType = "numeric"
	TypeDate        ColumnType = "date"
	TypePhone       ColumnType = "phone"
	TypeEmail       ColumnType = "email"
	TypeBoolean     ColumnType = "boolean"
	TypeCategorical ColumnType = "categorical"
	TypeTextID      ColumnType = "text_id"
	TypeText        ColumnType = "text"
)

// ColumnStats carries everything imputation, outlier detection and the
// domain/relationship/KPI stages need about one column.
type ColumnStats struct {
	Column       string
	Type         ColumnType
	Count        int
	NullCount    int
	UniqueCount  int
	Min, Max     *decimal.Decimal
	Median, Mean *decimal.Decimal
	StdDev       *decimal.Decimal
	Q1, Q3       *decimal.Decimal
	Mode         string
	Samples      []string
}

var (
	phonePattern = regexp.MustCompile(`^[+]?[\d\s().-]{10,20}$`)
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	isoDateLayouts = []string{
		"2006-01-02",
		"2006-01-02T15:04:05",
		"2006-01-02T15:04:05Z07:00",
		"02/01/2006",
		"01-02-2006",
		"2006-01-02 15:04:05",
	}
	booleanTokens = map[string]bool{
		"true": true, "false": true, "yes": true, "no": true,
		"0": true, "1": true, "y": true, "n": true,
	}
)

// DetectColumn classifies a column given its non-empty/non-null values
// (callers are expected to have already filtered out null/empty cells)
// plus the total row count including nulls.
func DetectColumn(column string, values []string, totalRows int) ColumnStats {
	nullCount := totalRows - len(values)
	stats := ColumnStats{
		Column:    column,
		Count:     totalRows,
		NullCount: nullCount,
	}

	uniq := map[string]int{}
	var order []string
	for _, v := range values {
		if uniq[v] == 0 {
			order = append(order, v)
		}
		uniq[v]++
	}
	stats.UniqueCount = len(uniq)

	n := len(values)
	if n == 0 {
		stats.Type = TypeText
		return stats
	}
	uniqueRatio := float64(stats.UniqueCount) / float64(n)

	samples := values
	if len(samples) > 5 {
		samples = samples[:5]
	}
	stats.Samples = append([]string{}, samples...)

	switch {
	case uniqueRatio > 0.95:
		stats.Type = TypeTextID
	case ratioMatches(values, isNumeric) >= 0.80:
		stats.Type = TypeNumeric
	case ratioMatches(values, isDate) >= 0.60:
		stats.Type = TypeDate
	case ratioMatches(values, isPhone) >= 0.70:
		stats.Type = TypePhone
	case ratioMatches(values, isEmail) >= 0.70:
		stats.Type = TypeEmail
	case ratioMatches(values, isBoolean) >= 0.90:
		stats.Type = TypeBoolean
	case uniqueRatio < 0.05:
		stats.Type = TypeCategorical
	default:
		stats.Type = TypeText
	}

	stats.Mode = computeMode(values, order, uniq)

	if stats.Type == TypeNumeric {
		populateNumericStats(&stats, values)
	}

	return stats
}

func ratioMatches(values []string, pred func(string) bool) float64 {
	if len(values) == 0 {
		return 0
	}
	matched := 0
	for _, v := range values {
		if pred(v) {
			matched++
		}
	}
	return float64(matched) / float64(len(values))
}

func isNumeric(v string) bool {
	_, ok := ParseDecimal(v)
	return ok
}

func isDate(v string) bool {
	v = strings.TrimSpace(v)
	for _, layout := range isoDateLayouts {
		if _, err := time.Parse(layout, v); err == nil {
			return true
		}
	}
	return false
}

func isPhone(v string) bool {
	if !phonePattern.MatchString(strings.TrimSpace(v)) {
		return false
	}
	digits := 0
	for _, r := range v {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits >= 10 && digits <= 15
}

func isEmail(v string) bool {
	return emailPattern.MatchString(strings.TrimSpace(v))
}

func isBoolean(v string) bool {
	return booleanTokens[strings.ToLower(strings.TrimSpace(v))]
}

// computeMode returns the most frequent value, tie-broken by first
// encountered in row order.
func computeMode(values []string, order []string, counts map[string]int) string {
	best := ""
	bestCount := -1
	for _, v := range order {
		if counts[v] > bestCount {
			best = v
			bestCount = counts[v]
		}
	}
	return best
}

func populateNumericStats(stats *ColumnStats, values []string) {
	var nums []decimal.Decimal
	for _, v := range values {
		if d, ok := ParseDecimal(v); ok {
			nums = append(nums, d)
		}
	}
	if len(nums) == 0 {
		return
	}
	sort.Slice(nums, func(i, j int) bool { return nums[i].LessThan(nums[j]) })

	min := nums[0]
	max := nums[len(nums)-1]
	stats.Min = &min
	stats.Max = &max

	sum := decimal.Zero
	for _, n := range nums {
		sum = sum.Add(n)
	}
	mean := sum.Div(decimal.NewFromInt(int64(len(nums))))
	stats.Mean = &mean

	median := percentile(nums, 0.5)
	stats.Median = &median
	q1 := percentile(nums, 0.25)
	stats.Q1 = &q1
	q3 := percentile(nums, 0.75)
	stats.Q3 = &q3

	variance := decimal.Zero
	meanF, _ := mean.Float64()
	for _, n := range nums {
		nf, _ := n.Float64()
		diff := nf - meanF
		variance = variance.Add(decimal.NewFromFloat(diff * diff))
	}
	variance = variance.Div(decimal.NewFromInt(int64(len(nums))))
	varF, _ := variance.Float64()
	stdDev := decimal.NewFromFloat(math.Sqrt(varF))
	stats.StdDev = &stdDev
}

// percentile returns the value at p (0..1) in a sorted slice using
// linear interpolation between closest ranks.
func percentile(sorted []decimal.Decimal, p float64) decimal.Decimal {
	if len(sorted) == 1 {
		return sorted[0]
	}
	idxF := p * float64(len(sorted)-1)
	lo := int(idxF)
	hi := lo + 1
	if hi >= len(sorted) {
		return sorted[lo]
	}
	frac := idxF - float64(lo)
	loF, _ := sorted[lo].Float64()
	hiF, _ := sorted[hi].Float64()
	return decimal.NewFromFloat(loF + (hiF-loF)*frac)
}
