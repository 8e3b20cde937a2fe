package core

// KpiDefinition is one entry of the per-domain KPI library.
type KpiDefinition struct {
	KpiID           string   `json:"kpi_id"`
	Domain          string   `json:"domain"`
	Name            string   `json:"name"`
	Category        string   `json:"category"`
	Priority        int      `json:"priority"`
	FormulaExpr     string   `json:"formula_expr"`
	ColumnsNeeded   []string `json:"columns_needed"`
	TimeGrain       string   `json:"time_grain"`
	AggregationType string   `json:"aggregation_type"`
	Description     string   `json:"description"`
	Unit            string   `json:"unit"`
	ChartHint       string   `json:"chart_hint"`
}

// MinKpiPriority excludes library entries below this priority from MVP
// selection, per §4.9.
const MinKpiPriority = 3

// FeasibilityThreshold is the completeness fraction a KPI must meet to
// be considered feasible.
const FeasibilityThreshold = 0.8

// TopKpiLimit bounds the pre-selection returned alongside the full
// feasible list.
const TopKpiLimit = 10
