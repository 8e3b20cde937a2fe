package core

import (
	"context"
	"testing"
	"time"
)

func TestService_GenerateDashboard_RequiresConfirmedDomain(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(t, repo, newFakeDynamicStore())

	repo.CreateProject(context.Background(), Project{ID: "proj-1", Status: ProjectActive, CreatedAt: time.Now()})

	_, err := svc.GenerateDashboard(context.Background(), "proj-1")
	if err == nil {
		t.Fatal("expected an error when the project has no detected domain")
	}
	if _, ok := err.(*UnknownDomainError); !ok {
		t.Errorf("expected *UnknownDomainError, got %T", err)
	}
}

func TestService_GenerateDashboard_BuildsFromSelectedKpisAndView(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(t, repo, newFakeDynamicStore())

	domain := "retail"
	project := Project{ID: "proj-1", Name: "Store Data", Status: ProjectActive, DetectedDomain: &domain, CreatedAt: time.Now()}
	repo.CreateProject(context.Background(), project)

	repo.ReplaceSelectedKpis(context.Background(), project.ID, []SelectedKpi{
		{
			CanonicalKpiID:    "retail_sales_per_store",
			Name:              "Sales per Store",
			RequiredCanonical: []string{"store_id", "unit_price", "quantity"},
			ResolvedColumns: map[string]string{
				"store_id":   "store_id",
				"unit_price": "unit_price",
				"quantity":   "quantity",
			},
		},
	})
	repo.ReplaceUnifiedViews(context.Background(), project.ID, []UnifiedView{
		{ProjectID: project.ID, ViewName: "unified_view_1", ViewSQL: "SELECT 1", Active: true},
	})

	dashboard, err := svc.GenerateDashboard(context.Background(), project.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dashboard.Config.ViewSQL != "SELECT 1" {
		t.Errorf("expected the active view's sql to be carried through, got %q", dashboard.Config.ViewSQL)
	}
	if len(dashboard.Config.Kpis) != 1 {
		t.Fatalf("expected 1 kpi card, got %d", len(dashboard.Config.Kpis))
	}
	if dashboard.Status != DashboardDraft {
		t.Errorf("expected draft status, got %s", dashboard.Status)
	}

	// regenerating should reuse the same dashboard ID.
	second, err := svc.GenerateDashboard(context.Background(), project.ID)
	if err != nil {
		t.Fatalf("unexpected error on regeneration: %v", err)
	}
	if second.ID != dashboard.ID {
		t.Errorf("expected regeneration to reuse the existing dashboard ID, got %s vs %s", second.ID, dashboard.ID)
	}
}
