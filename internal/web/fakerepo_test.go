package web

// fakerepo_test.go provides an in-memory core.Repository/core.DynamicStore
// pair so the handler tests in this package can drive a real core.Service
// through a real Server and chi router without a database.

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/dataunify/pipeline/internal/config"
	"github.com/dataunify/pipeline/internal/core"
)

type fakeRepo struct {
	mu sync.Mutex

	projects      map[string]core.Project
	uploads       map[string]core.Upload
	cleaningJobs  map[string]core.CleaningJob
	cleaningLogs  map[string][]core.CleaningLog
	domainJobs    map[string]core.DomainDetectionJob
	relationships map[string][]core.Relationship
	views         map[string][]core.UnifiedView
	kpiJobs       map[string]core.KpiExtractionJob
	selectedKpis  map[string][]core.SelectedKpi
	dashboards    map[string]core.Dashboard
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		projects:      map[string]core.Project{},
		uploads:       map[string]core.Upload{},
		cleaningJobs:  map[string]core.CleaningJob{},
		cleaningLogs:  map[string][]core.CleaningLog{},
		domainJobs:    map[string]core.DomainDetectionJob{},
		relationships: map[string][]core.Relationship{},
		views:         map[string][]core.UnifiedView{},
		kpiJobs:       map[string]core.KpiExtractionJob{},
		selectedKpis:  map[string][]core.SelectedKpi{},
		dashboards:    map[string]core.Dashboard{},
	}
}

func (r *fakeRepo) CreateProject(ctx context.Context, p core.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.projects[p.ID] = p
	return nil
}

func (r *fakeRepo) GetProject(ctx context.Context, id string) (core.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projects[id]
	if !ok {
		return core.Project{}, fmt.Errorf("project %s not found", id)
	}
	return p, nil
}

func (r *fakeRepo) ListProjects(ctx context.Context) ([]core.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]core.Project, 0, len(r.projects))
	for _, p := range r.projects {
		out = append(out, p)
	}
	return out, nil
}

func (r *fakeRepo) DeleteProject(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.projects, id)
	return nil
}

func (r *fakeRepo) UpdateProjectStatus(ctx context.Context, id string, status core.ProjectStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projects[id]
	if !ok {
		return fmt.Errorf("project %s not found", id)
	}
	p.Status = status
	r.projects[id] = p
	return nil
}

func (r *fakeRepo) UpdateProjectDomain(ctx context.Context, id, domain string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projects[id]
	if !ok {
		return fmt.Errorf("project %s not found", id)
	}
	p.DetectedDomain = &domain
	r.projects[id] = p
	return nil
}

func (r *fakeRepo) IncrementProjectCounts(ctx context.Context, id string, fileDelta, recordDelta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projects[id]
	if !ok {
		return fmt.Errorf("project %s not found", id)
	}
	p.FileCount += fileDelta
	p.TotalRecordCount += recordDelta
	r.projects[id] = p
	return nil
}

func (r *fakeRepo) CreateUpload(ctx context.Context, u core.Upload) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.uploads[u.ID] = u
	return nil
}

func (r *fakeRepo) GetUpload(ctx context.Context, id string) (core.Upload, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.uploads[id]
	if !ok {
		return core.Upload{}, fmt.Errorf("upload %s not found", id)
	}
	return u, nil
}

func (r *fakeRepo) ListUploadsByProject(ctx context.Context, projectID string) ([]core.Upload, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []core.Upload
	for _, u := range r.uploads {
		if u.ProjectID == projectID {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *fakeRepo) ProjectColumns(ctx context.Context, projectID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := map[string]bool{}
	var out []string
	for _, u := range r.uploads {
		if u.ProjectID != projectID {
			continue
		}
		for _, c := range u.InferredMetadata.Columns {
			if !seen[c] {
				seen[c] = true
				out = append(out, c)
			}
		}
	}
	return out, nil
}

func (r *fakeRepo) UpdateUploadStatus(ctx context.Context, id string, status core.UploadStatus, errMsg *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.uploads[id]
	if !ok {
		return fmt.Errorf("upload %s not found", id)
	}
	u.Status = status
	u.ErrorMessage = errMsg
	r.uploads[id] = u
	return nil
}

func (r *fakeRepo) UpdateUploadParsed(ctx context.Context, id string, totalRecords int, tableName string, meta core.InferredMetadata) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.uploads[id]
	if !ok {
		return fmt.Errorf("upload %s not found", id)
	}
	u.TotalRecords = totalRecords
	u.InferredTableName = tableName
	u.InferredMetadata = meta
	u.Status = core.UploadCompleted
	r.uploads[id] = u
	return nil
}

func (r *fakeRepo) CreateCleaningJob(ctx context.Context, j core.CleaningJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cleaningJobs[j.ID] = j
	return nil
}

func (r *fakeRepo) UpdateCleaningJob(ctx context.Context, j core.CleaningJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cleaningJobs[j.ID] = j
	return nil
}

func (r *fakeRepo) GetCleaningJob(ctx context.Context, id string) (core.CleaningJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.cleaningJobs[id]
	if !ok {
		return core.CleaningJob{}, fmt.Errorf("cleaning job %s not found", id)
	}
	return j, nil
}

func (r *fakeRepo) ListCleaningJobsByProject(ctx context.Context, projectID string) ([]core.CleaningJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []core.CleaningJob
	for _, j := range r.cleaningJobs {
		if j.ProjectID == projectID {
			out = append(out, j)
		}
	}
	return out, nil
}

func (r *fakeRepo) InsertCleaningLogs(ctx context.Context, logs []core.CleaningLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range logs {
		r.cleaningLogs[l.CleaningJobID] = append(r.cleaningLogs[l.CleaningJobID], l)
	}
	return nil
}

func (r *fakeRepo) ListCleaningLogs(ctx context.Context, jobID string) ([]core.CleaningLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cleaningLogs[jobID], nil
}

func (r *fakeRepo) CreateDomainJob(ctx context.Context, j core.DomainDetectionJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.domainJobs[j.ID] = j
	return nil
}

func (r *fakeRepo) GetDomainJob(ctx context.Context, id string) (core.DomainDetectionJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.domainJobs[id]
	if !ok {
		return core.DomainDetectionJob{}, fmt.Errorf("domain job %s not found", id)
	}
	return j, nil
}

func (r *fakeRepo) ListDomainJobs(ctx context.Context, projectID string) ([]core.DomainDetectionJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []core.DomainDetectionJob
	for _, j := range r.domainJobs {
		if j.ProjectID == projectID {
			out = append(out, j)
		}
	}
	return out, nil
}

func (r *fakeRepo) ConfirmDomainJob(ctx context.Context, id, selectedDomain string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.domainJobs[id]
	if !ok {
		return fmt.Errorf("domain job %s not found", id)
	}
	j.Domain = selectedDomain
	j.Decision = core.DecisionConfirmed
	j.Status = core.DomainConfirmed
	r.domainJobs[id] = j
	return nil
}

func (r *fakeRepo) ReplaceRelationships(ctx context.Context, projectID string, rels []core.Relationship) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.relationships[projectID] = rels
	return nil
}

func (r *fakeRepo) ListRelationships(ctx context.Context, projectID string) ([]core.Relationship, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.relationships[projectID], nil
}

func (r *fakeRepo) ReplaceUnifiedViews(ctx context.Context, projectID string, views []core.UnifiedView) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.views[projectID] = views
	return nil
}

func (r *fakeRepo) ActiveUnifiedViews(ctx context.Context, projectID string) ([]core.UnifiedView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []core.UnifiedView
	for _, v := range r.views[projectID] {
		if v.Active {
			out = append(out, v)
		}
	}
	return out, nil
}

func (r *fakeRepo) CreateKpiExtractionJob(ctx context.Context, j core.KpiExtractionJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kpiJobs[j.ID] = j
	return nil
}

func (r *fakeRepo) GetKpiExtractionJob(ctx context.Context, id string) (core.KpiExtractionJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.kpiJobs[id]
	if !ok {
		return core.KpiExtractionJob{}, fmt.Errorf("kpi job %s not found", id)
	}
	return j, nil
}

func (r *fakeRepo) ReplaceSelectedKpis(ctx context.Context, projectID string, selected []core.SelectedKpi) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.selectedKpis[projectID] = selected
	return nil
}

func (r *fakeRepo) ListSelectedKpis(ctx context.Context, projectID string) ([]core.SelectedKpi, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.selectedKpis[projectID], nil
}

func (r *fakeRepo) UpsertDashboard(ctx context.Context, d core.Dashboard) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dashboards[d.ProjectID] = d
	return nil
}

func (r *fakeRepo) GetDashboardByProject(ctx context.Context, projectID string) (core.Dashboard, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.dashboards[projectID]
	if !ok {
		return core.Dashboard{}, fmt.Errorf("dashboard for project %s not found", projectID)
	}
	return d, nil
}

type fakeDynamicStore struct {
	mu     sync.Mutex
	tables map[string][]string
	rows   map[string][]map[string]string
}

func newFakeDynamicStore() *fakeDynamicStore {
	return &fakeDynamicStore{tables: map[string][]string{}, rows: map[string][]map[string]string{}}
}

func (d *fakeDynamicStore) Create(ctx context.Context, name string, columns []string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.tables[name] = columns
	return nil
}

func (d *fakeDynamicStore) InsertRows(ctx context.Context, name string, columns []string, rows []map[string]string, batchSize int) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rows[name] = append(d.rows[name], rows...)
	return len(rows), nil
}

func (d *fakeDynamicStore) ReadAll(ctx context.Context, name string, columns []string) ([]map[string]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rows[name], nil
}

func (d *fakeDynamicStore) ReadPage(ctx context.Context, name string, columns []string, page, limit int) ([]map[string]string, int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	all := d.rows[name]
	total := len(all)
	start := (page - 1) * limit
	if start >= total {
		return nil, total, nil
	}
	end := start + limit
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

func (d *fakeDynamicStore) Drop(ctx context.Context, name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.tables, name)
	delete(d.rows, name)
	return nil
}

// newTestServer builds a real Server backed by the in-memory fakes above,
// with API key auth disabled so handler tests can hit routes directly.
func newTestServer(t *testing.T, repo *fakeRepo, dyn *fakeDynamicStore) *Server {
	t.Helper()
	var svc *core.Service
	runner := core.NewInlineRunner(func(ctx context.Context, job core.Job) error {
		return svc.HandleJob(ctx, job)
	})
	svc, err := core.NewService(repo, dyn, runner, t.TempDir(), t.TempDir(), "1", 3)
	if err != nil {
		t.Fatalf("build test service: %v", err)
	}

	uploadCfg := config.UploadConfig{MaxFileSize: 10 << 20}
	secCfg := config.SecurityConfig{RequireAPIKey: false}
	return NewServer(svc, secCfg, uploadCfg)
}
