package scores

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PerformanceCalculation is the score computed from one submitted version.
// One row per (organization, period); rows are never updated.
type PerformanceCalculation struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	OrganizationID uuid.UUID `gorm:"type:uuid;not null;index:idx_performance_org_period,unique,priority:1" json:"organization_id"`
	PeriodID       string    `gorm:"column:period_id;type:varchar(64);not null;index:idx_performance_org_period,unique,priority:2" json:"period_id"`
	SubmissionID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"submission_id"`

	// category id -> points
	OperationalScores datatypes.JSONType[map[string]int] `gorm:"column:operational_scores" json:"operational_scores"`
	FinancialScores   datatypes.JSONType[map[string]int] `gorm:"column:financial_scores" json:"financial_scores"`

	OperationalTotalPoints int `gorm:"column:operational_total_points;not null" json:"operational_total_points"`
	FinancialTotalPoints   int `gorm:"column:financial_total_points;not null" json:"financial_total_points"`
	TotalPoints            int `gorm:"column:total_points;not null" json:"total_points"`
	MaxPoints              int `gorm:"column:max_points;not null" json:"max_points"`
	OperationalMaxPoints   int `gorm:"column:operational_max_points;not null" json:"operational_max_points"`
	FinancialMaxPoints     int `gorm:"column:financial_max_points;not null" json:"financial_max_points"`

	PercentageScore     float64 `gorm:"column:percentage_score;not null" json:"percentage_score"`
	PerformanceCategory string  `gorm:"column:performance_category;type:varchar(32);not null;index" json:"performance_category"`
	SupportDesignation  string  `gorm:"column:support_designation;type:varchar(64);not null;index" json:"support_designation"`

	OperationalSupportDesignation string `gorm:"column:operational_support_designation;type:varchar(64)" json:"operational_support_designation"`
	FinancialSupportDesignation   string `gorm:"column:financial_support_designation;type:varchar(64)" json:"financial_support_designation"`

	ScoringConfigVersion string    `gorm:"column:scoring_config_version;type:varchar(64);not null" json:"scoring_config_version"`
	CalculatedAt         time.Time `gorm:"column:calculated_at;not null" json:"calculated_at"`
	CreatedAt            time.Time `gorm:"not null" json:"created_at"`
}

func (PerformanceCalculation) TableName() string { return "performance_calculation" }

func (p *PerformanceCalculation) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
