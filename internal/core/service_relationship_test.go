package core

import (
	"context"
	"testing"
	"time"
)

func seedTwoCleanedTables(t *testing.T, repo *fakeRepo, dyn *fakeDynamicStore, projectID string) {
	t.Helper()
	customersUpload := Upload{
		ID:               "upload-customers",
		ProjectID:        projectID,
		Status:           UploadCompleted,
		InferredMetadata: InferredMetadata{Columns: []string{"customer_id", "name"}},
	}
	ordersUpload := Upload{
		ID:               "upload-orders",
		ProjectID:        projectID,
		Status:           UploadCompleted,
		InferredMetadata: InferredMetadata{Columns: []string{"order_id", "customer_id"}},
	}
	repo.CreateUpload(context.Background(), customersUpload)
	repo.CreateUpload(context.Background(), ordersUpload)

	customersJob := CleaningJob{
		ID: "clean-customers", UploadID: customersUpload.ID, ProjectID: projectID,
		Status: CleaningCompleted, CleanedTableName: "clean_customers", CreatedAt: time.Now(),
	}
	ordersJob := CleaningJob{
		ID: "clean-orders", UploadID: ordersUpload.ID, ProjectID: projectID,
		Status: CleaningCompleted, CleanedTableName: "clean_orders", CreatedAt: time.Now().Add(time.Second),
	}
	repo.CreateCleaningJob(context.Background(), customersJob)
	repo.CreateCleaningJob(context.Background(), ordersJob)

	dyn.rows["clean_customers"] = []map[string]string{
		{"customer_id": "c1", "name": "Alice"},
		{"customer_id": "c2", "name": "Bob"},
	}
	dyn.rows["clean_orders"] = []map[string]string{
		{"order_id": "o1", "customer_id": "c1"},
		{"order_id": "o2", "customer_id": "c2"},
		{"order_id": "o3", "customer_id": "c1"},
	}
}

func TestService_DetectRelationshipsForProject(t *testing.T) {
	repo := newFakeRepo()
	dyn := newFakeDynamicStore()
	svc := newTestService(t, repo, dyn)

	seedTwoCleanedTables(t, repo, dyn, "proj-1")

	rels, err := svc.DetectRelationshipsForProject(context.Background(), "proj-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rels) != 1 {
		t.Fatalf("expected 1 relationship, got %d", len(rels))
	}
	if rels[0].Status != RelationshipValid {
		t.Errorf("expected a valid relationship, got %s", rels[0].Status)
	}

	stored, err := repo.ListRelationships(context.Background(), "proj-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stored) != 1 {
		t.Errorf("expected the relationship to be persisted, got %d", len(stored))
	}
}

func TestService_DetectRelationshipsForProject_RequiresTwoTables(t *testing.T) {
	repo := newFakeRepo()
	dyn := newFakeDynamicStore()
	svc := newTestService(t, repo, dyn)

	_, err := svc.DetectRelationshipsForProject(context.Background(), "empty-project")
	if err == nil {
		t.Fatal("expected an error with fewer than two completed cleaning jobs")
	}
	if _, ok := err.(*PreconditionFailedError); !ok {
		t.Errorf("expected *PreconditionFailedError, got %T", err)
	}
}

func TestService_CreateUnifiedView(t *testing.T) {
	repo := newFakeRepo()
	dyn := newFakeDynamicStore()
	svc := newTestService(t, repo, dyn)

	seedTwoCleanedTables(t, repo, dyn, "proj-1")
	if _, err := svc.DetectRelationshipsForProject(context.Background(), "proj-1"); err != nil {
		t.Fatalf("unexpected error detecting relationships: %v", err)
	}

	views, err := svc.CreateUnifiedView(context.Background(), "proj-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("expected 1 generated view, got %d", len(views))
	}

	active, err := svc.ActiveUnifiedViews(context.Background(), "proj-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(active) != 1 {
		t.Errorf("expected 1 active stored view, got %d", len(active))
	}
}

func TestService_CreateUnifiedView_NoRelationships(t *testing.T) {
	repo := newFakeRepo()
	dyn := newFakeDynamicStore()
	svc := newTestService(t, repo, dyn)

	_, err := svc.CreateUnifiedView(context.Background(), "proj-1")
	if err == nil {
		t.Fatal("expected an error when no valid relationships exist")
	}
	if _, ok := err.(*NoRelationshipsFoundError); !ok {
		t.Errorf("expected *NoRelationshipsFoundError, got %T", err)
	}
}
