package app

import (
	"gorm.io/gorm"

	"github.com/InfiniCruiser/ymca-backend/internal/data/repos"
	"github.com/InfiniCruiser/ymca-backend/internal/platform/logger"
)

type Repos struct {
	Submission             repos.SubmissionRepo
	EvidenceFile           repos.EvidenceFileRepo
	PerformanceCalculation repos.PerformanceCalculationRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Submission:             repos.NewSubmissionRepo(db, log),
		EvidenceFile:           repos.NewEvidenceFileRepo(db, log),
		PerformanceCalculation: repos.NewPerformanceCalculationRepo(db, log),
	}
}
