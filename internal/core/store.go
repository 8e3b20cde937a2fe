package core

// store.go declares the two interfaces the orchestrator depends on so
// this package never imports internal/store directly (the store package
// imports core for DBTX and the domain types, so the dependency can only
// run one way). internal/store.Store and internal/store.DynamicTable
// satisfy these structurally.

import "context"

// Repository is every persistence operation the orchestrator needs
// against the relational entities of §3.
type Repository interface {
	CreateProject(ctx context.Context, p Project) error
	GetProject(ctx context.Context, id string) (Project, error)
	ListProjects(ctx context.Context) ([]Project, error)
	DeleteProject(ctx context.Context, id string) error
	UpdateProjectStatus(ctx context.Context, id string, status ProjectStatus) error
	UpdateProjectDomain(ctx context.Context, id, domain string) error
	IncrementProjectCounts(ctx context.Context, id string, fileDelta, recordDelta int) error

	CreateUpload(ctx context.Context, u Upload) error
	GetUpload(ctx context.Context, id string) (Upload, error)
	ListUploadsByProject(ctx context.Context, projectID string) ([]Upload, error)
	ProjectColumns(ctx context.Context, projectID string) ([]string, error)
	UpdateUploadStatus(ctx context.Context, id string, status UploadStatus, errMsg *string) error
	UpdateUploadParsed(ctx context.Context, id string, totalRecords int, tableName string, meta InferredMetadata) error

	CreateCleaningJob(ctx context.Context, j CleaningJob) error
	UpdateCleaningJob(ctx context.Context, j CleaningJob) error
	GetCleaningJob(ctx context.Context, id string) (CleaningJob, error)
	ListCleaningJobsByProject(ctx context.Context, projectID string) ([]CleaningJob, error)
	InsertCleaningLogs(ctx context.Context, logs []CleaningLog) error
	ListCleaningLogs(ctx context.Context, jobID string) ([]CleaningLog, error)

	CreateDomainJob(ctx context.Context, j DomainDetectionJob) error
	GetDomainJob(ctx context.Context, id string) (DomainDetectionJob, error)
	ListDomainJobs(ctx context.Context, projectID string) ([]DomainDetectionJob, error)
	ConfirmDomainJob(ctx context.Context, id, selectedDomain string) error

	ReplaceRelationships(ctx context.Context, projectID string, rels []Relationship) error
	ListRelationships(ctx context.Context, projectID string) ([]Relationship, error)
	ReplaceUnifiedViews(ctx context.Context, projectID string, views []UnifiedView) error
	ActiveUnifiedViews(ctx context.Context, projectID string) ([]UnifiedView, error)

	CreateKpiExtractionJob(ctx context.Context, j KpiExtractionJob) error
	GetKpiExtractionJob(ctx context.Context, id string) (KpiExtractionJob, error)
	ReplaceSelectedKpis(ctx context.Context, projectID string, selected []SelectedKpi) error
	ListSelectedKpis(ctx context.Context, projectID string) ([]SelectedKpi, error)

	UpsertDashboard(ctx context.Context, d Dashboard) error
	GetDashboardByProject(ctx context.Context, projectID string) (Dashboard, error)
}

// DynamicStore is the subset of internal/store.DynamicTable the
// orchestrator drives directly, kept separate from Repository since its
// tables are created and named at runtime rather than fixed by schema.
type DynamicStore interface {
	Create(ctx context.Context, name string, columns []string) error
	InsertRows(ctx context.Context, name string, columns []string, rows []map[string]string, batchSize int) (int, error)
	ReadAll(ctx context.Context, name string, columns []string) ([]map[string]string, error)
	ReadPage(ctx context.Context, name string, columns []string, page, limit int) ([]map[string]string, int, error)
	Drop(ctx context.Context, name string) error
}
