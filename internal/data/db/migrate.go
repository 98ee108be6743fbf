package db

import (
	"fmt"

	types "github.com/InfiniCruiser/ymca-backend/internal/domain"
	"gorm.io/gorm"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(
		// =========================
		// Submission chain
		// =========================
		&types.Submission{},
		&types.EvidenceFile{},

		// =========================
		// Scores
		// =========================
		&types.PerformanceCalculation{},
	); err != nil {
		return err
	}
	return EnsureSubmissionIndexes(db)
}

// EnsureSubmissionIndexes creates the indexes gorm tags cannot express.
// The partial index syntax is shared by Postgres and SQLite.
func EnsureSubmissionIndexes(db *gorm.DB) error {
	// Exactly one chain head per (organization, period).
	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_submission_latest_per_period
		ON submission (organization_id, period_id)
		WHERE is_latest = true;
	`).Error; err != nil {
		return fmt.Errorf("create idx_submission_latest_per_period: %w", err)
	}

	// Auto-submit scans drafts by period.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_submission_period_status_latest
		ON submission (period_id, status, is_latest);
	`).Error; err != nil {
		return fmt.Errorf("create idx_submission_period_status_latest: %w", err)
	}

	// Live evidence lookup used by snapshotting.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_evidence_live
		ON evidence_file (organization_id, period_id)
		WHERE is_snapshot = false AND submission_id IS NULL;
	`).Error; err != nil {
		return fmt.Errorf("create idx_evidence_live: %w", err)
	}
	return nil
}

func (s *Service) AutoMigrateAll() error {
	s.log.Info("Auto migrating tables...", "driver", s.driver)
	if err := AutoMigrateAll(s.db); err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	return nil
}
