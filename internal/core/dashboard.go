package core

import "time"

func findKpiDef(domain, kpiID string) (KpiDefinition, bool) {
	defs, ok := kpiLibrary.get(domain)
	if !ok {
		return KpiDefinition{}, false
	}
	for _, d := range defs {
		if d.KpiID == kpiID {
			return d, true
		}
	}
	return KpiDefinition{}, false
}

// chooseChartKind applies §4.10's hint table, falling back to shape-based
// rules when the KPI's chart_hint isn't one the hint table recognises.
func chooseChartKind(def KpiDefinition, hasDateColumn bool) ChartKind {
	switch def.ChartHint {
	case "timeseries", "line":
		return ChartLine
	case "distribution", "category", "bar":
		return ChartBar
	case "share", "pie":
		return ChartPie
	case "card":
		return ChartCard
	case "scatter":
		return ChartScatter
	}

	needed := len(def.ColumnsNeeded)
	switch {
	case hasDateColumn && needed >= 1:
		return ChartLine
	case needed == 1:
		return ChartCard
	case needed == 2:
		return ChartScatter
	default:
		return ChartBar
	}
}

// AssembleDashboard builds the presentation plan for a Project's
// confirmed domain and selected KPIs. It emits chart specs and KPI cards
// only; no aggregation happens here, per §4.10 — the view SQL is handed
// to the query layer to execute.
func AssembleDashboard(domain string, selected []SelectedKpi, hasDateColumn bool, viewSQL string) DashboardConfig {
	cfg := DashboardConfig{
		ViewSQL: viewSQL,
		Metadata: DashboardMetadata{
			GeneratedAt: time.Now(),
		},
	}

	for _, sel := range selected {
		def, ok := findKpiDef(domain, sel.CanonicalKpiID)
		if !ok {
			continue
		}

		cfg.Kpis = append(cfg.Kpis, KpiCard{
			KpiID: sel.CanonicalKpiID,
			Name:  sel.Name,
			Unit:  def.Unit,
		})

		kind := chooseChartKind(def, hasDateColumn)
		var datasets []ChartDataset
		var labels []string
		for _, canonical := range sel.RequiredCanonical {
			actual, ok := sel.ResolvedColumns[canonical]
			if !ok {
				continue
			}
			datasets = append(datasets, ChartDataset{
				Label:  canonical,
				Column: actual,
				Color:  PowerBIPalette[len(datasets)%len(PowerBIPalette)],
			})
			labels = append(labels, actual)
		}

		cfg.Charts = append(cfg.Charts, ChartSpec{
			KpiID:    sel.CanonicalKpiID,
			Kind:     kind,
			Labels:   labels,
			Datasets: datasets,
			Palette:  PowerBIPalette,
		})
	}

	return cfg
}
