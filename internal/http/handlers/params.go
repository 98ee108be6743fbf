package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/InfiniCruiser/ymca-backend/internal/http/response"
)

func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	raw := strings.TrimSpace(c.Param(name))
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("invalid %s", name))
		return uuid.Nil, false
	}
	return id, true
}

// orgPeriod reads the :orgId and :periodId path segments.
func orgPeriod(c *gin.Context) (uuid.UUID, string, bool) {
	orgID, ok := uuidParam(c, "orgId")
	if !ok {
		return uuid.Nil, "", false
	}
	periodID := strings.TrimSpace(c.Param("periodId"))
	if periodID == "" {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("missing periodId"))
		return uuid.Nil, "", false
	}
	return orgID, periodID, true
}
