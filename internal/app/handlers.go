package app

import (
	httpH "github.com/InfiniCruiser/ymca-backend/internal/http/handlers"
	"github.com/InfiniCruiser/ymca-backend/internal/platform/logger"
)

type Handlers struct {
	Health      *httpH.HealthHandler
	Submission  *httpH.SubmissionHandler
	Performance *httpH.PerformanceHandler
	Evidence    *httpH.EvidenceHandler
}

func wireHandlers(log *logger.Logger, services Services, autoSubmit httpH.AutoSubmitter) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:      httpH.NewHealthHandler(),
		Submission:  httpH.NewSubmissionHandler(services.Submission, autoSubmit),
		Performance: httpH.NewPerformanceHandler(services.Performance),
		Evidence:    httpH.NewEvidenceHandler(services.Evidence),
	}
}
