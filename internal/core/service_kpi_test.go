package core

import (
	"context"
	"testing"
	"time"
)

func seedRetailProjectWithCleanedData(t *testing.T, repo *fakeRepo, dyn *fakeDynamicStore, projectID string) (Upload, CleaningJob) {
	t.Helper()
	columns := []string{"store_id", "unit_price", "quantity"}
	upload := Upload{
		ID:                "upload-" + projectID,
		ProjectID:         projectID,
		Status:            UploadCompleted,
		InferredTableName: "raw_" + projectID,
		InferredMetadata:  InferredMetadata{Columns: columns},
		CreatedAt:         time.Now(),
	}
	if err := repo.CreateUpload(context.Background(), upload); err != nil {
		t.Fatalf("seed upload: %v", err)
	}
	rows := []map[string]string{
		{"store_id": "s1", "unit_price": "9.99", "quantity": "3"},
		{"store_id": "s2", "unit_price": "4.50", "quantity": "1"},
	}
	dyn.rows[upload.InferredTableName] = rows

	job := CleaningJob{
		ID:        "clean-" + projectID,
		UploadID:  upload.ID,
		ProjectID: projectID,
		Status:    CleaningCompleted,
		CreatedAt: time.Now(),
	}
	if err := repo.CreateCleaningJob(context.Background(), job); err != nil {
		t.Fatalf("seed cleaning job: %v", err)
	}
	return upload, job
}

func TestService_ExtractKPIs_RejectsIncompleteCleaningJob(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(t, repo, newFakeDynamicStore())

	repo.CreateCleaningJob(context.Background(), CleaningJob{ID: "clean-1", Status: CleaningRunning})
	_, err := svc.ExtractKPIs(context.Background(), "clean-1", "domain-1")
	if err == nil {
		t.Fatal("expected an error for a non-completed cleaning job")
	}
	if _, ok := err.(*PreconditionFailedError); !ok {
		t.Errorf("expected *PreconditionFailedError, got %T", err)
	}
}

func TestService_ExtractKPIsAndSelect(t *testing.T) {
	repo := newFakeRepo()
	dyn := newFakeDynamicStore()
	svc := newTestService(t, repo, dyn)

	projectID := "proj-1"
	repo.CreateProject(context.Background(), Project{ID: projectID, Status: ProjectActive, CreatedAt: time.Now()})
	_, cleaningJob := seedRetailProjectWithCleanedData(t, repo, dyn, projectID)
	repo.CreateDomainJob(context.Background(), DomainDetectionJob{ID: "domain-1", ProjectID: projectID, Domain: "retail"})

	job, err := svc.ExtractKPIs(context.Background(), cleaningJob.ID, "domain-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if job.Domain != "retail" {
		t.Errorf("expected domain retail, got %s", job.Domain)
	}
	if job.FeasibleCount == 0 {
		t.Fatal("expected at least one feasible kpi for the seeded retail columns")
	}

	stored, err := repo.GetKpiExtractionJob(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("expected kpi job to be persisted: %v", err)
	}
	if stored.ProjectID != projectID {
		t.Errorf("expected stored job's project id to be set, got %q", stored.ProjectID)
	}

	var ids []string
	for _, d := range job.AllFeasible {
		ids = append(ids, d.KPI.KpiID)
	}
	result, err := svc.SelectKpis(context.Background(), job.ID, ids)
	if err != nil {
		t.Fatalf("unexpected error selecting kpis: %v", err)
	}
	if result.SelectedCount != len(ids) {
		t.Errorf("expected %d selected kpis, got %d", len(ids), result.SelectedCount)
	}

	selected, err := repo.ListSelectedKpis(context.Background(), projectID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(selected) != len(ids) {
		t.Errorf("expected %d persisted selections, got %d", len(ids), len(selected))
	}
}

func TestService_KpiLibrary_UnknownDomain(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(t, repo, newFakeDynamicStore())

	_, err := svc.KpiLibrary(context.Background(), "not_a_real_domain")
	if err == nil {
		t.Fatal("expected an error for an unknown domain")
	}
}
