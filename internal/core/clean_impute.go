package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

// runImputation fills nulls per column according to the configured
// strategy, operating on the current snapshot rather than the
// pre-pipeline input. It returns the leading-null count per column for
// FORWARD-FILL columns, which remain null when no prior row exists.
func runImputation(rows []ParsedRecord, columns []string, strategies map[string]ImputationStrategy) ([]ParsedRecord, map[string]int) {
	out := cloneRows(rows)
	leadingNulls := map[string]int{}

	for _, col := range columns {
		switch strategies[col] {
		case ImputeMedian:
			imputeMedian(out, col)
		case ImputeMode:
			imputeMode(out, col)
		case ImputeForwardFill:
			if n := imputeForwardFill(out, col); n > 0 {
				leadingNulls[col] = n
			}
		}
	}

	return out, leadingNulls
}

func imputeMedian(rows []ParsedRecord, col string) {
	var nums []decimal.Decimal
	for _, row := range rows {
		if v := row[col]; v != "" {
			if d, ok := ParseDecimal(v); ok {
				nums = append(nums, d)
			}
		}
	}
	if len(nums) == 0 {
		return
	}
	sort.Slice(nums, func(i, j int) bool { return nums[i].LessThan(nums[j]) })
	fill := FormatCanonicalNumber(percentile(nums, 0.5))
	for _, row := range rows {
		if row[col] == "" {
			row[col] = fill
		}
	}
}

func imputeMode(rows []ParsedRecord, col string) {
	counts := map[string]int{}
	var order []string
	for _, row := range rows {
		if v := row[col]; v != "" {
			if counts[v] == 0 {
				order = append(order, v)
			}
			counts[v]++
		}
	}
	if len(order) == 0 {
		return
	}
	mode := computeMode(nil, order, counts)
	for _, row := range rows {
		if row[col] == "" {
			row[col] = mode
		}
	}
}

// imputeForwardFill carries the previous row's value into a null cell,
// returning the count of leading nulls that had no prior value to copy.
func imputeForwardFill(rows []ParsedRecord, col string) int {
	var last string
	haveLast := false
	leading := 0
	for _, row := range rows {
		if row[col] == "" {
			if haveLast {
				row[col] = last
			} else {
				leading++
			}
			continue
		}
		last = row[col]
		haveLast = true
	}
	return leading
}

func cloneRows(rows []ParsedRecord) []ParsedRecord {
	out := make([]ParsedRecord, len(rows))
	for i, row := range rows {
		copyRow := make(ParsedRecord, len(row))
		for k, v := range row {
			copyRow[k] = v
		}
		out[i] = copyRow
	}
	return out
}
