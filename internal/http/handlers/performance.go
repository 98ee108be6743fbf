package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/InfiniCruiser/ymca-backend/internal/http/response"
	"github.com/InfiniCruiser/ymca-backend/internal/platform/dbctx"
	"github.com/InfiniCruiser/ymca-backend/internal/services"
)

type PerformanceHandler struct {
	performance services.PerformanceService
}

func NewPerformanceHandler(performance services.PerformanceService) *PerformanceHandler {
	return &PerformanceHandler{performance: performance}
}

// GET /submissions/:id/performance
func (h *PerformanceHandler) Get(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	row, err := h.performance.GetBySubmission(dbctx.Context{Ctx: c.Request.Context()}, id)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"performance": row})
}

// POST /submissions/:id/performance
// Idempotent: a submission that already has a record gets it back unchanged.
func (h *PerformanceHandler) Calculate(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	row, err := h.performance.CalculateForSubmission(c.Request.Context(), id)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"performance": row})
}

// GET /periods/:periodId/performance
func (h *PerformanceHandler) ListByPeriod(c *gin.Context) {
	rows, err := h.performance.ListByPeriod(dbctx.Context{Ctx: c.Request.Context()}, c.Param("periodId"))
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"performance": rows})
}

// GET /organizations/:orgId/periods/:periodId/performance
func (h *PerformanceHandler) GetForPeriod(c *gin.Context) {
	orgID, periodID, ok := orgPeriod(c)
	if !ok {
		return
	}
	row, err := h.performance.GetByOrganizationPeriod(dbctx.Context{Ctx: c.Request.Context()}, orgID, periodID)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"performance": row})
}
