// Package core provides the business logic for the analytics pipeline:
// parsing, cleaning, domain classification, relationship detection, view
// generation, KPI extraction and dashboard assembly. This package has no
// HTTP dependencies and can be driven by any transport.
package core

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// ProjectStatus is the lifecycle state of a Project.
type ProjectStatus string

const (
	ProjectActive     ProjectStatus = "active"
	ProjectProcessing ProjectStatus = "processing"
	ProjectCompleted  ProjectStatus = "completed"
	ProjectFailed     ProjectStatus = "failed"
)

// Project is the root aggregate: one or more related Uploads processed,
// linked, classified and summarised as one whole.
type Project struct {
	ID               string
	Name             string
	Description      string
	Status           ProjectStatus
	FileCount        int
	TotalRecordCount int
	DetectedDomain   *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// UploadStatus is the lifecycle state of an Upload.
type UploadStatus string

const (
	UploadQueued     UploadStatus = "queued"
	UploadProcessing UploadStatus = "processing"
	UploadCompleted  UploadStatus = "completed"
	UploadFailed     UploadStatus = "failed"
)

// InferredMetadata is the free-form schema/column information recorded
// against an Upload once parsing completes.
type InferredMetadata struct {
	Columns     []string `json:"columns"`
	RecordKind  string   `json:"recordKind"` // "tabular" or "document"
	OtherSheets []string `json:"otherSheets,omitempty"`
}

// Upload is one source file within a Project.
type Upload struct {
	ID                string
	ProjectID         string
	OriginalFilename  string
	StoredFilename    string
	MimeType          string
	ByteSize          int64
	StoragePath       string
	Status            UploadStatus
	RecordsProcessed  int
	TotalRecords      int
	InferredTableName string
	ErrorMessage      *string
	InferredMetadata  InferredMetadata
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// CellValue is a loosely typed cell value. Exactly one of the fields is
// meaningful; Null is true when the source cell was empty/absent.
type CellValue struct {
	Null bool
	Raw  string // the cell's original string representation
}

// DataRow is one parsed record of an Upload.
type DataRow struct {
	ID        string
	UploadID  string
	RowNumber int // 1-based
	Payload   map[string]CellValue
}

// CleaningJobStatus is the lifecycle state of a CleaningJob.
type CleaningJobStatus string

const (
	CleaningRunning   CleaningJobStatus = "running"
	CleaningCompleted CleaningJobStatus = "completed"
	CleaningFailed    CleaningJobStatus = "failed"
)

// CleaningStats is the running statistics document attached to a
// CleaningJob and to each CleaningLog's before/after snapshot.
type CleaningStats struct {
	TotalRows              int            `json:"totalRows"`
	ColumnCount            int            `json:"columnCount"`
	NullCount              int            `json:"nullCount"`
	DuplicateCount         int            `json:"duplicateCount"`
	FlaggedOutliers        int            `json:"flaggedOutliers"`
	LeadingNulls           map[string]int `json:"leadingNulls,omitempty"`
	StandardizationFailure map[string]int `json:"standardizationFailures,omitempty"`
}

// CleaningJob is one execution of the cleaning pipeline for one Upload.
type CleaningJob struct {
	ID               string
	UploadID         string
	ProjectID        string
	Config           CleaningConfig
	Stats            CleaningStats
	CleanedTableName string
	Status           CleaningJobStatus
	FailedOperation  string
	ErrorMessage     *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// StageOperation names one of the four fixed cleaning stages.
type StageOperation string

const (
	OpImputation      StageOperation = "imputation"
	OpOutliers        StageOperation = "outliers"
	OpDeduplication   StageOperation = "deduplication"
	OpStandardization StageOperation = "standardization"
)

// LogSeverity mirrors the teacher's audit-severity scale.
type LogSeverity string

const (
	SeverityLow      LogSeverity = "low"
	SeverityMedium   LogSeverity = "medium"
	SeverityHigh     LogSeverity = "high"
	SeverityCritical LogSeverity = "critical"
)

// CleaningLog is one append-only audit entry per stage operation.
type CleaningLog struct {
	ID           string
	CleaningJobID string
	Operation    StageOperation
	BeforeStats  CleaningStats
	AfterStats   CleaningStats
	ConfigSnapshot map[string]any
	DurationMS   int64
	Success      bool
	ErrorMessage *string
	Severity     LogSeverity
	CreatedAt    time.Time
}

// CleanedData is the materialised result of a CleaningJob: rows under a
// unique table name plus the column order they were produced in.
type CleanedData struct {
	TableName string
	Columns   []string
	RowCount  int
}

// DomainDecision is the UX mode chosen by the domain classifier.
type DomainDecision string

const (
	DecisionAutoDetect   DomainDecision = "auto_detect"
	DecisionShowTop3     DomainDecision = "show_top_3"
	DecisionManualSelect DomainDecision = "manual_select"
	DecisionConfirmed    DomainDecision = "confirmed"
)

// DomainJobStatus is the lifecycle state of a DomainDetectionJob.
type DomainJobStatus string

const (
	DomainPending   DomainJobStatus = "pending"
	DomainCompleted DomainJobStatus = "completed"
	DomainConfirmed DomainJobStatus = "confirmed"
)

// DomainDetectionJob is the project-level classification outcome.
type DomainDetectionJob struct {
	ID                 string
	ProjectID          string
	SourceCleaningJobIDs []string
	Domain             string
	Confidence         int
	Decision           DomainDecision
	MatchedPrimary     []string
	MatchedKeywords    []string
	AllScores          map[string]int
	Status             DomainJobStatus
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// RelationshipStatus is the validation outcome of a Relationship.
type RelationshipStatus string

const (
	RelationshipValid   RelationshipStatus = "valid"
	RelationshipInvalid RelationshipStatus = "invalid"
	RelationshipManual  RelationshipStatus = "manual"
)

// RelationshipKind enumerates the cardinalities this spec detects.
type RelationshipKind string

const (
	RelationshipOneToMany RelationshipKind = "1:many"
)

// Relationship is one detected or user-specified link between two
// cleaned tables.
type Relationship struct {
	ID           string
	ProjectID    string
	SourceTable  string
	SourceColumn string
	TargetTable  string
	TargetColumn string
	MatchRate    float64
	Status       RelationshipStatus
	Kind         RelationshipKind
	CreatedAt    time.Time
}

// UnifiedView is a SQL view definition over a Project's cleaned tables.
type UnifiedView struct {
	ID        string
	ProjectID string
	ViewName  string
	ViewSQL   string
	Active    bool
	CreatedAt time.Time
}

// KpiDescriptor is one ranked or candidate KPI, as returned to a caller.
type KpiDescriptor struct {
	KPI          KpiDefinition
	Completeness float64
	Score        float64
	Feasible     bool
	Reason       string // populated when !Feasible
}

// KpiExtractionJob is one ranking pass against the KPI library.
type KpiExtractionJob struct {
	ID                string
	ProjectID         string
	Domain            string
	TotalKpisInLibrary int
	FeasibleCount     int
	InfeasibleCount   int
	AverageCompleteness float64
	Top10             []KpiDescriptor
	AllFeasible       []KpiDescriptor
	Unresolved        []string
	CanonicalMapping  map[string]string
	CreatedAt         time.Time
}

// SelectedKpi is a user confirmation of one KPI for dashboard inclusion.
type SelectedKpi struct {
	ID                 string
	ProjectID          string
	CanonicalKpiID     string
	Name               string
	FormulaExpr        string
	RequiredCanonical  []string
	ResolvedColumns    map[string]string
	Priority           int
	Category           string
}

// DashboardStatus is the lifecycle state of a Dashboard.
type DashboardStatus string

const (
	DashboardDraft     DashboardStatus = "draft"
	DashboardPublished DashboardStatus = "published"
)

// Dashboard is the assembled presentation plan for a Project.
type Dashboard struct {
	ID          string
	ProjectID   string
	Title       string
	Description string
	Config      DashboardConfig
	Status      DashboardStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
