package submissions

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusSubmitted Status = "SUBMITTED"
	// LOCKED is an administrative terminal state reachable only from SUBMITTED.
	StatusLocked Status = "LOCKED"
)

// Submission is one version in the chain for an (organization, period) pair.
// Versions link backwards through ParentSubmissionID; the head carries IsLatest.
type Submission struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	OrganizationID uuid.UUID `gorm:"type:uuid;not null;index:idx_submission_org_period_version,unique,priority:1" json:"organization_id"`
	PeriodID       string    `gorm:"column:period_id;type:varchar(64);not null;index:idx_submission_org_period_version,unique,priority:2;index" json:"period_id"`
	Version        int       `gorm:"column:version;not null;index:idx_submission_org_period_version,unique,priority:3" json:"version"`

	ParentSubmissionID *uuid.UUID `gorm:"type:uuid;index" json:"parent_submission_id,omitempty"`
	IsLatest           bool       `gorm:"column:is_latest;not null;default:false;index" json:"is_latest"`

	Status    Status                        `gorm:"column:status;type:varchar(16);not null;index" json:"status"`
	Responses datatypes.JSONType[Responses] `gorm:"column:responses" json:"responses"`
	Completed bool                          `gorm:"column:completed;not null;default:false" json:"completed"`

	SubmittedAt     *time.Time `gorm:"column:submitted_at" json:"submitted_at,omitempty"`
	SubmittedBy     *uuid.UUID `gorm:"type:uuid;column:submitted_by" json:"submitted_by,omitempty"`
	AutoSubmittedAt *time.Time `gorm:"column:auto_submitted_at" json:"auto_submitted_at,omitempty"`
	AutoSubmittedBy string     `gorm:"column:auto_submitted_by;type:varchar(64)" json:"auto_submitted_by,omitempty"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Submission) TableName() string { return "submission" }

func (s *Submission) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// Answers returns the decoded response set (never nil).
func (s *Submission) Answers() Responses {
	if s == nil {
		return Responses{}
	}
	r := s.Responses.Data()
	if r == nil {
		return Responses{}
	}
	return r
}

func (s *Submission) IsDraft() bool { return s != nil && s.Status == StatusDraft }
