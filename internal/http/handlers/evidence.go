package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/InfiniCruiser/ymca-backend/internal/http/response"
	"github.com/InfiniCruiser/ymca-backend/internal/platform/ctxutil"
	"github.com/InfiniCruiser/ymca-backend/internal/platform/dbctx"
	"github.com/InfiniCruiser/ymca-backend/internal/services"
)

type EvidenceHandler struct {
	evidence services.EvidenceService
}

func NewEvidenceHandler(evidence services.EvidenceService) *EvidenceHandler {
	return &EvidenceHandler{evidence: evidence}
}

// POST /organizations/:orgId/periods/:periodId/evidence
// multipart: category_id, file
func (h *EvidenceHandler) Upload(c *gin.Context) {
	orgID, periodID, ok := orgPeriod(c)
	if !ok {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, services.MaxEvidenceBytes+(1<<20))

	categoryID := strings.TrimSpace(c.PostForm("category_id"))
	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.RespondError(c, http.StatusRequestEntityTooLarge, "file_too_large", err)
			return
		}
		response.RespondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("missing file: %w", err))
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	defer f.Close()

	mimeType := fh.Header.Get("Content-Type")
	row, err := h.evidence.Upload(c.Request.Context(), services.UploadEvidenceInput{
		OrganizationID: orgID,
		PeriodID:       periodID,
		CategoryID:     categoryID,
		FileName:       fh.Filename,
		MimeType:       mimeType,
		SizeBytes:      fh.Size,
		Body:           f,
		UploadedBy:     ctxutil.ActorID(c.Request.Context()),
	})
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"evidence": row})
}

// GET /organizations/:orgId/periods/:periodId/evidence?category_id=
func (h *EvidenceHandler) ListLive(c *gin.Context) {
	orgID, periodID, ok := orgPeriod(c)
	if !ok {
		return
	}
	rows, err := h.evidence.ListLive(dbctx.Context{Ctx: c.Request.Context()}, orgID, periodID, c.Query("category_id"))
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"evidence": rows})
}

// DELETE /evidence/:id
func (h *EvidenceHandler) DeleteLive(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.evidence.DeleteLive(c.Request.Context(), id); err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /submissions/:id/evidence
func (h *EvidenceHandler) ListSnapshots(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	rows, err := h.evidence.ListSnapshots(dbctx.Context{Ctx: c.Request.Context()}, id)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"evidence": rows})
}
