package core

import (
	"context"
	"encoding/json"
	"testing"
)

func TestService_HandleJob_DispatchesCleanJob(t *testing.T) {
	repo := newFakeRepo()
	dyn := newFakeDynamicStore()
	svc := newTestService(t, repo, dyn)

	upload := seedRawUpload(t, repo, dyn, "proj-1", []string{"amount"}, []map[string]string{
		{"amount": "1"}, {"amount": "2"},
	})
	job := CleaningJob{ID: "clean-1", UploadID: upload.ID, ProjectID: "proj-1", Status: CleaningRunning}
	if err := repo.CreateCleaningJob(context.Background(), job); err != nil {
		t.Fatalf("seed cleaning job: %v", err)
	}

	payload, _ := json.Marshal(map[string]string{"cleaningJobId": job.ID})
	err := svc.HandleJob(context.Background(), Job{ID: "j1", Kind: JobClean, Payload: payload})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored, err := repo.GetCleaningJob(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.Status != CleaningCompleted {
		t.Errorf("expected the dispatched job to run to completion, got %s", stored.Status)
	}
}

func TestService_HandleJob_UnknownKindIsAnError(t *testing.T) {
	svc := newTestService(t, newFakeRepo(), newFakeDynamicStore())

	err := svc.HandleJob(context.Background(), Job{ID: "j1", Kind: JobKind("not_a_real_kind")})
	if err == nil {
		t.Fatal("expected an error for an unhandled job kind")
	}
}

func TestService_HandleJob_MalformedPayloadIsAnError(t *testing.T) {
	svc := newTestService(t, newFakeRepo(), newFakeDynamicStore())

	err := svc.HandleJob(context.Background(), Job{ID: "j1", Kind: JobClean, Payload: []byte("not json")})
	if err == nil {
		t.Fatal("expected an error for a malformed payload")
	}
}
