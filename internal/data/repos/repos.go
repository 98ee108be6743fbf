package repos

import (
	"github.com/InfiniCruiser/ymca-backend/internal/data/repos/scores"
	"github.com/InfiniCruiser/ymca-backend/internal/data/repos/submissions"
	"github.com/InfiniCruiser/ymca-backend/internal/platform/logger"
	"gorm.io/gorm"
)

type SubmissionRepo = submissions.SubmissionRepo
type EvidenceFileRepo = submissions.EvidenceFileRepo

type PerformanceCalculationRepo = scores.PerformanceCalculationRepo

func NewSubmissionRepo(db *gorm.DB, baseLog *logger.Logger) SubmissionRepo {
	return submissions.NewSubmissionRepo(db, baseLog)
}
func NewEvidenceFileRepo(db *gorm.DB, baseLog *logger.Logger) EvidenceFileRepo {
	return submissions.NewEvidenceFileRepo(db, baseLog)
}

func NewPerformanceCalculationRepo(db *gorm.DB, baseLog *logger.Logger) PerformanceCalculationRepo {
	return scores.NewPerformanceCalculationRepo(db, baseLog)
}
