package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/InfiniCruiser/ymca-backend/internal/domain"
	domainagg "github.com/InfiniCruiser/ymca-backend/internal/domain/aggregates"
	"github.com/InfiniCruiser/ymca-backend/internal/http/response"
	"github.com/InfiniCruiser/ymca-backend/internal/platform/ctxutil"
	"github.com/InfiniCruiser/ymca-backend/internal/platform/dbctx"
	"github.com/InfiniCruiser/ymca-backend/internal/services"
)

// AutoSubmitter runs auto-submission for a period, in process or through a workflow.
type AutoSubmitter interface {
	AutoSubmit(ctx context.Context, periodID string, opts services.AutoSubmitOptions) (services.AutoSubmitReport, error)
}

type SubmissionHandler struct {
	submissions services.SubmissionService
	autoSubmit  AutoSubmitter
}

// NewSubmissionHandler falls back to the in-process auto-submit when autoSubmit is nil.
func NewSubmissionHandler(submissions services.SubmissionService, autoSubmit AutoSubmitter) *SubmissionHandler {
	if autoSubmit == nil {
		autoSubmit = submissions
	}
	return &SubmissionHandler{submissions: submissions, autoSubmit: autoSubmit}
}

type responsesRequest struct {
	Responses types.Responses `json:"responses"`
}

// bindResponses accepts an empty body as an empty response set.
func bindResponses(c *gin.Context) (types.Responses, bool) {
	var req responsesRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return nil, false
	}
	if req.Responses == nil {
		req.Responses = types.Responses{}
	}
	return req.Responses, true
}

func submitPayload(res domainagg.SubmitResult) gin.H {
	return gin.H{
		"submission": res.Submitted,
		"next_draft": res.NextDraft,
		"snapshots":  res.Snapshots,
	}
}

func requireActor(c *gin.Context) (uuid.UUID, bool) {
	actor := ctxutil.ActorID(c.Request.Context())
	if actor == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "missing_actor", errors.New("X-Actor-Id header is required"))
		return uuid.Nil, false
	}
	return actor, true
}

// POST /organizations/:orgId/periods/:periodId/drafts
// body: { "responses": { "<question_id>": "Yes" | { "value": "...", "evidence_ids": [...] } } }
func (h *SubmissionHandler) CreateDraft(c *gin.Context) {
	orgID, periodID, ok := orgPeriod(c)
	if !ok {
		return
	}
	responses, ok := bindResponses(c)
	if !ok {
		return
	}
	draft, err := h.submissions.CreateDraft(c.Request.Context(), orgID, periodID, responses)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"submission": draft})
}

// GET /organizations/:orgId/periods/:periodId/latest
func (h *SubmissionHandler) GetLatest(c *gin.Context) {
	orgID, periodID, ok := orgPeriod(c)
	if !ok {
		return
	}
	row, err := h.submissions.GetLatest(dbctx.Context{Ctx: c.Request.Context()}, orgID, periodID)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"submission": row})
}

// GET /organizations/:orgId/periods/:periodId/history
func (h *SubmissionHandler) GetHistory(c *gin.Context) {
	orgID, periodID, ok := orgPeriod(c)
	if !ok {
		return
	}
	rows, err := h.submissions.GetHistory(dbctx.Context{Ctx: c.Request.Context()}, orgID, periodID)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"submissions": rows})
}

// GET /organizations/:orgId/periods/:periodId/draft
func (h *SubmissionHandler) GetDraft(c *gin.Context) {
	orgID, periodID, ok := orgPeriod(c)
	if !ok {
		return
	}
	row, err := h.submissions.GetDraft(dbctx.Context{Ctx: c.Request.Context()}, orgID, periodID)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"submission": row})
}

// POST /organizations/:orgId/periods/:periodId/submit
// body: { "expected_version": 2 } (optional)
func (h *SubmissionHandler) SubmitCurrentDraft(c *gin.Context) {
	orgID, periodID, ok := orgPeriod(c)
	if !ok {
		return
	}
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req struct {
		ExpectedVersion *int `json:"expected_version"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	out, err := h.submissions.SubmitCurrentDraft(c.Request.Context(), services.SubmitCurrentDraftInput{
		OrganizationID:  orgID,
		PeriodID:        periodID,
		SubmittedBy:     actor,
		ExpectedVersion: req.ExpectedVersion,
	})
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	payload := submitPayload(out.SubmitResult)
	payload["already_submitted"] = out.AlreadySubmitted
	response.RespondOK(c, payload)
}

// GET /submissions/:id
func (h *SubmissionHandler) GetSubmission(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	row, err := h.submissions.GetByID(dbctx.Context{Ctx: c.Request.Context()}, id)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"submission": row})
}

// PUT /submissions/:id/responses
func (h *SubmissionHandler) UpdateDraftResponses(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	responses, ok := bindResponses(c)
	if !ok {
		return
	}
	row, err := h.submissions.UpdateDraftResponses(c.Request.Context(), id, responses)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"submission": row})
}

// POST /submissions/:id/submit
func (h *SubmissionHandler) Submit(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	res, err := h.submissions.Submit(c.Request.Context(), id, actor)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, submitPayload(res))
}

// POST /submissions/:id/lock
func (h *SubmissionHandler) Lock(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if _, ok := requireActor(c); !ok {
		return
	}
	row, err := h.submissions.Lock(c.Request.Context(), id)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"submission": row})
}

// POST /periods/:periodId/auto-submit
// body: { "actor": "scheduler", "concurrency": 4 } (optional)
func (h *SubmissionHandler) AutoSubmit(c *gin.Context) {
	periodID := strings.TrimSpace(c.Param("periodId"))
	if periodID == "" {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("missing periodId"))
		return
	}
	var req struct {
		Actor       string `json:"actor"`
		Concurrency int    `json:"concurrency"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	report, err := h.autoSubmit.AutoSubmit(c.Request.Context(), periodID, services.AutoSubmitOptions{
		Actor:       strings.TrimSpace(req.Actor),
		Concurrency: req.Concurrency,
	})
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"report": report})
}
