package core

import "time"

// ChartKind enumerates the chart kinds the dashboard assembler can pick.
type ChartKind string

const (
	ChartLine    ChartKind = "line"
	ChartBar     ChartKind = "bar"
	ChartPie     ChartKind = "pie"
	ChartCard    ChartKind = "kpi_card"
	ChartScatter ChartKind = "scatter"
)

// PowerBIPalette is the fixed six-color palette charts draw from.
var PowerBIPalette = []string{
	"#01B8AA", "#374649", "#FD625E", "#F2C80F", "#5F6B6D", "#8AD4EB",
}

// KpiCard is one dashboard tile summarising a single SelectedKpi.
type KpiCard struct {
	KpiID string `json:"kpiId"`
	Name  string `json:"name"`
	Unit  string `json:"unit"`
}

// ChartDataset names one series within a chart spec; the dashboard
// assembler emits labels/column references only, no aggregated values.
type ChartDataset struct {
	Label  string `json:"label"`
	Column string `json:"column"`
	Color  string `json:"color"`
}

// ChartSpec is one typed chart description the query layer can execute.
type ChartSpec struct {
	KpiID    string         `json:"kpiId"`
	Kind     ChartKind      `json:"kind"`
	Labels   []string       `json:"labels"`
	Datasets []ChartDataset `json:"datasets"`
	Palette  []string       `json:"palette"`
}

// DashboardMetadata carries generation provenance.
type DashboardMetadata struct {
	GeneratedAt time.Time `json:"generatedAt"`
	DataRangeFrom *time.Time `json:"dataRangeFrom,omitempty"`
	DataRangeTo   *time.Time `json:"dataRangeTo,omitempty"`
}

// DashboardConfig is the configuration document stored on a Dashboard.
type DashboardConfig struct {
	Kpis     []KpiCard         `json:"kpis"`
	Charts   []ChartSpec       `json:"charts"`
	Metadata DashboardMetadata `json:"metadata"`
	ViewSQL  string            `json:"viewSql"`
}
