package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/InfiniCruiser/ymca-backend/internal/http/handlers"
	httpMW "github.com/InfiniCruiser/ymca-backend/internal/http/middleware"
	"github.com/InfiniCruiser/ymca-backend/internal/observability"
	"github.com/InfiniCruiser/ymca-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	Metrics     *observability.Metrics
	ServiceName string
	CORSOrigins []string

	SubmissionHandler  *httpH.SubmissionHandler
	PerformanceHandler *httpH.PerformanceHandler
	EvidenceHandler    *httpH.EvidenceHandler

	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.CORS(cfg.CORSOrigins))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.AttachActor())
	r.Use(httpMW.RequestLogger(cfg.Log))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))
	}

	api := r.Group("/api")
	period := api.Group("/organizations/:orgId/periods/:periodId")

	// Submissions
	if h := cfg.SubmissionHandler; h != nil {
		period.POST("/drafts", h.CreateDraft)
		period.GET("/latest", h.GetLatest)
		period.GET("/history", h.GetHistory)
		period.GET("/draft", h.GetDraft)
		period.POST("/submit", h.SubmitCurrentDraft)

		api.GET("/submissions/:id", h.GetSubmission)
		api.PUT("/submissions/:id/responses", h.UpdateDraftResponses)
		api.POST("/submissions/:id/submit", h.Submit)
		api.POST("/submissions/:id/lock", h.Lock)

		api.POST("/periods/:periodId/auto-submit", h.AutoSubmit)
	}

	// Evidence
	if h := cfg.EvidenceHandler; h != nil {
		period.POST("/evidence", h.Upload)
		period.GET("/evidence", h.ListLive)
		api.DELETE("/evidence/:id", h.DeleteLive)
		api.GET("/submissions/:id/evidence", h.ListSnapshots)
	}

	// Performance
	if h := cfg.PerformanceHandler; h != nil {
		period.GET("/performance", h.GetForPeriod)
		api.GET("/submissions/:id/performance", h.Get)
		api.POST("/submissions/:id/performance", h.Calculate)
		api.GET("/periods/:periodId/performance", h.ListByPeriod)
	}

	return r
}
