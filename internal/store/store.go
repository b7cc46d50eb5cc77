// Package store persists assessments, derived findings, and the vendor
// catalog. Two backends: SQLite for single-operator use, Postgres for the
// hosted deployment.
package store

import (
	"context"
	"time"

	"github.com/clearcomply/assess-cli/internal/model"
)

// AssessmentFilter specifies criteria for listing assessments.
type AssessmentFilter struct {
	Status model.AssessmentStatus `json:"status,omitempty"`
	OrgID  string                 `json:"org_id,omitempty"`
	Limit  int                    `json:"limit,omitempty"`
}

// ScoreRecord is one row of persisted score history, kept for
// reproducibility audits: the config hash ties a score to the scoring
// configuration that produced it.
type ScoreRecord struct {
	ID           string    `json:"id"`
	AssessmentID string    `json:"assessment_id"`
	Score        float64   `json:"score"`
	ConfigHash   string    `json:"config_hash"`
	ScoredAt     time.Time `json:"scored_at"`
}

// Store defines the persistence interface for the scoring pipeline.
type Store interface {
	// Templates
	SaveTemplate(ctx context.Context, tpl model.Template) error
	GetTemplate(ctx context.Context, id string) (*model.Template, error)

	// Vendor catalog
	SaveVendors(ctx context.Context, vendors []model.Vendor) (int, error)
	ListVendors(ctx context.Context) ([]model.Vendor, error)

	// Assessments (answers travel with the assessment)
	SaveAssessment(ctx context.Context, a model.Assessment) error
	GetAssessment(ctx context.Context, id string) (*model.Assessment, error)
	ListAssessments(ctx context.Context, filter AssessmentFilter) ([]model.Assessment, error)
	// CompleteWithScore marks the assessment COMPLETED, sets its risk
	// score, and appends a ScoreRecord. The score is immutable history
	// once written; re-scoring appends a new record.
	CompleteWithScore(ctx context.Context, assessmentID string, score float64, configHash string) error
	ListScoreHistory(ctx context.Context, assessmentID string) ([]ScoreRecord, error)

	// Derived findings
	ReplaceFindings(ctx context.Context, assessmentID string, gaps []model.Gap, risks []model.Risk) error
	ListGaps(ctx context.Context, assessmentID string) ([]model.Gap, error)
	ListRisks(ctx context.Context, assessmentID string) ([]model.Risk, error)

	// Organization priorities
	SavePriorities(ctx context.Context, p model.OrganizationPriorities) error
	GetPriorities(ctx context.Context, orgID string) (*model.OrganizationPriorities, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
