package submissions

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EvidenceFile is file metadata for an (organization, period, category).
//
// Live rows (IsSnapshot=false, SubmissionID=nil) belong to the editable draft.
// Snapshot rows are immutable copies stamped with the submission they were captured for.
type EvidenceFile struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	OrganizationID uuid.UUID `gorm:"type:uuid;not null;index:idx_evidence_org_period,priority:1" json:"organization_id"`
	PeriodID       string    `gorm:"column:period_id;type:varchar(64);not null;index:idx_evidence_org_period,priority:2" json:"period_id"`
	CategoryID     string    `gorm:"column:category_id;type:varchar(64);not null;index" json:"category_id"`

	FileName   string     `gorm:"column:file_name;not null" json:"file_name"`
	MimeType   string     `gorm:"column:mime_type" json:"mime_type"`
	SizeBytes  int64      `gorm:"column:size_bytes" json:"size_bytes"`
	StorageKey string     `gorm:"column:storage_key;not null" json:"storage_key"`
	UploadedBy *uuid.UUID `gorm:"type:uuid;column:uploaded_by" json:"uploaded_by,omitempty"`

	IsSnapshot        bool       `gorm:"column:is_snapshot;not null;default:false;index" json:"is_snapshot"`
	SubmissionID      *uuid.UUID `gorm:"type:uuid;index" json:"submission_id,omitempty"`
	OriginalUploadID  *uuid.UUID `gorm:"type:uuid;index" json:"original_upload_id,omitempty"`
	SnapshotCreatedAt *time.Time `gorm:"column:snapshot_created_at" json:"snapshot_created_at,omitempty"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (EvidenceFile) TableName() string { return "evidence_file" }

func (f *EvidenceFile) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

func (f *EvidenceFile) IsLive() bool {
	return f != nil && !f.IsSnapshot && f.SubmissionID == nil
}
