package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/InfiniCruiser/ymca-backend/internal/data/aggregates"
	"github.com/InfiniCruiser/ymca-backend/internal/data/repos"
	types "github.com/InfiniCruiser/ymca-backend/internal/domain"
	domainagg "github.com/InfiniCruiser/ymca-backend/internal/domain/aggregates"
	"github.com/InfiniCruiser/ymca-backend/internal/events"
	"github.com/InfiniCruiser/ymca-backend/internal/observability"
	"github.com/InfiniCruiser/ymca-backend/internal/platform/dbctx"
	"github.com/InfiniCruiser/ymca-backend/internal/platform/logger"
)

type SubmissionService interface {
	CreateDraft(ctx context.Context, orgID uuid.UUID, periodID string, responses types.Responses) (*types.Submission, error)
	UpdateDraftResponses(ctx context.Context, submissionID uuid.UUID, responses types.Responses) (*types.Submission, error)
	Submit(ctx context.Context, submissionID, submittedBy uuid.UUID) (domainagg.SubmitResult, error)
	SubmitCurrentDraft(ctx context.Context, in SubmitCurrentDraftInput) (SubmitOutcome, error)
	Lock(ctx context.Context, submissionID uuid.UUID) (*types.Submission, error)

	GetByID(dbc dbctx.Context, submissionID uuid.UUID) (*types.Submission, error)
	GetLatest(dbc dbctx.Context, orgID uuid.UUID, periodID string) (*types.Submission, error)
	GetHistory(dbc dbctx.Context, orgID uuid.UUID, periodID string) ([]*types.Submission, error)
	GetDraft(dbc dbctx.Context, orgID uuid.UUID, periodID string) (*types.Submission, error)

	// AutoSubmit submits every latest draft of periodID, one transaction per organization.
	AutoSubmit(ctx context.Context, periodID string, opts AutoSubmitOptions) (AutoSubmitReport, error)
	ListDueDrafts(ctx context.Context, periodID string) ([]DueDraft, error)
	AutoSubmitDraft(ctx context.Context, draft DueDraft, actor string) AutoSubmitUnit
}

type SubmitCurrentDraftInput struct {
	OrganizationID uuid.UUID
	PeriodID       string
	SubmittedBy    uuid.UUID
	// ExpectedVersion makes retries idempotent: when it names a version that is
	// already past DRAFT, that version is returned unchanged.
	ExpectedVersion *int
}

type SubmitOutcome struct {
	domainagg.SubmitResult
	AlreadySubmitted bool
}

type SubmissionServiceDeps struct {
	Log         *logger.Logger
	Chain       domainagg.SubmissionChainAggregate
	Submissions repos.SubmissionRepo
	Performance PerformanceService
	Events      events.Publisher
	Metrics     *observability.Metrics

	AutoSubmitConcurrency int
	Now                   func() time.Time
}

type submissionService struct {
	log         *logger.Logger
	chain       domainagg.SubmissionChainAggregate
	submissions repos.SubmissionRepo
	performance PerformanceService
	events      events.Publisher
	metrics     *observability.Metrics
	concurrency int
	now         func() time.Time
}

const defaultAutoSubmitConcurrency = 4

func NewSubmissionService(deps SubmissionServiceDeps) SubmissionService {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	pub := deps.Events
	if pub == nil {
		pub = events.NewNoopPublisher()
	}
	concurrency := deps.AutoSubmitConcurrency
	if concurrency <= 0 {
		concurrency = defaultAutoSubmitConcurrency
	}
	now := deps.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &submissionService{
		log:         log.With("service", "SubmissionService"),
		chain:       deps.Chain,
		submissions: deps.Submissions,
		performance: deps.Performance,
		events:      pub,
		metrics:     deps.Metrics,
		concurrency: concurrency,
		now:         now,
	}
}

func (s *submissionService) CreateDraft(ctx context.Context, orgID uuid.UUID, periodID string, responses types.Responses) (*types.Submission, error) {
	draft, err := s.chain.CreateDraft(ctx, domainagg.CreateDraftInput{
		OrganizationID: orgID,
		PeriodID:       periodID,
		Responses:      responses,
		CreatedAt:      s.now(),
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("draft created", "organization_id", orgID, "period_id", draft.PeriodID, "version", draft.Version)
	return draft, nil
}

func (s *submissionService) UpdateDraftResponses(ctx context.Context, submissionID uuid.UUID, responses types.Responses) (*types.Submission, error) {
	return s.chain.UpdateDraftResponses(ctx, domainagg.UpdateDraftResponsesInput{
		SubmissionID: submissionID,
		Responses:    responses,
		UpdatedAt:    s.now(),
	})
}

func (s *submissionService) Submit(ctx context.Context, submissionID, submittedBy uuid.UUID) (domainagg.SubmitResult, error) {
	res, err := s.chain.Submit(ctx, domainagg.SubmitInput{
		SubmissionID: submissionID,
		SubmittedBy:  submittedBy,
		SubmittedAt:  s.now(),
	})
	if err != nil {
		return domainagg.SubmitResult{}, err
	}
	s.afterSubmit(ctx, res, false)
	return res, nil
}

func (s *submissionService) SubmitCurrentDraft(ctx context.Context, in SubmitCurrentDraftInput) (SubmitOutcome, error) {
	const op = "Submissions.SubmitCurrentDraft"
	periodID := strings.TrimSpace(in.PeriodID)
	if in.OrganizationID == uuid.Nil || periodID == "" {
		return SubmitOutcome{}, domainagg.NewError(domainagg.CodeValidation, op, "missing organization_id or period_id", nil)
	}
	dbc := dbctx.Context{Ctx: ctx}

	if in.ExpectedVersion != nil {
		row, err := s.submissions.GetByVersion(dbc, in.OrganizationID, periodID, *in.ExpectedVersion)
		if err != nil {
			return SubmitOutcome{}, aggregates.MapError(op, err)
		}
		if row == nil {
			return SubmitOutcome{}, domainagg.NotFound(op, fmt.Sprintf("version %d not found", *in.ExpectedVersion))
		}
		if !row.IsDraft() {
			return SubmitOutcome{
				SubmitResult:     domainagg.SubmitResult{Submitted: row},
				AlreadySubmitted: true,
			}, nil
		}
		res, err := s.Submit(ctx, row.ID, in.SubmittedBy)
		if err != nil {
			return SubmitOutcome{}, err
		}
		return SubmitOutcome{SubmitResult: res}, nil
	}

	draft, err := s.submissions.GetLatestDraft(dbc, in.OrganizationID, periodID)
	if err != nil {
		return SubmitOutcome{}, aggregates.MapError(op, err)
	}
	if draft == nil {
		return SubmitOutcome{}, domainagg.NotFound(op, "no draft for organization and period")
	}
	res, err := s.Submit(ctx, draft.ID, in.SubmittedBy)
	if err != nil {
		return SubmitOutcome{}, err
	}
	return SubmitOutcome{SubmitResult: res}, nil
}

func (s *submissionService) Lock(ctx context.Context, submissionID uuid.UUID) (*types.Submission, error) {
	row, err := s.chain.Lock(ctx, domainagg.LockInput{SubmissionID: submissionID, LockedAt: s.now()})
	if err != nil {
		return nil, err
	}
	s.log.Info("submission locked", "submission_id", row.ID, "version", row.Version)
	return row, nil
}

// afterSubmit runs once the submit transaction has committed. Nothing here can
// undo the submission.
func (s *submissionService) afterSubmit(ctx context.Context, res domainagg.SubmitResult, auto bool) {
	sub := res.Submitted
	if sub == nil {
		return
	}
	if s.performance != nil {
		if _, err := s.performance.CalculateAndPersist(ctx, sub); err != nil {
			s.log.Error("performance calculation after submit failed",
				"submission_id", sub.ID,
				"organization_id", sub.OrganizationID,
				"period_id", sub.PeriodID,
				"error", err,
			)
		}
	}

	eventType := events.TypeSubmissionSubmitted
	if auto {
		eventType = events.TypeSubmissionAutoSubmitted
	}
	evt := events.New(eventType, sub.OrganizationID, sub.PeriodID, sub.ID)
	evt.Version = sub.Version
	evt.Data = map[string]any{"snapshot_count": len(res.Snapshots)}
	if res.NextDraft != nil {
		evt.Data["next_draft_id"] = res.NextDraft.ID
		evt.Data["next_draft_version"] = res.NextDraft.Version
	}
	if auto {
		evt.Data["auto_submitted_by"] = sub.AutoSubmittedBy
	}
	publish(ctx, s.log, s.metrics, s.events, evt)
}

func (s *submissionService) GetByID(dbc dbctx.Context, submissionID uuid.UUID) (*types.Submission, error) {
	const op = "Submissions.GetByID"
	row, err := s.submissions.GetByID(dbc, submissionID)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	if row == nil {
		return nil, domainagg.NotFound(op, fmt.Sprintf("submission not found: %s", submissionID))
	}
	return row, nil
}

func (s *submissionService) GetLatest(dbc dbctx.Context, orgID uuid.UUID, periodID string) (*types.Submission, error) {
	const op = "Submissions.GetLatest"
	row, err := s.submissions.GetLatest(dbc, orgID, strings.TrimSpace(periodID))
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	if row == nil {
		return nil, domainagg.NotFound(op, "no submission for organization and period")
	}
	return row, nil
}

func (s *submissionService) GetHistory(dbc dbctx.Context, orgID uuid.UUID, periodID string) ([]*types.Submission, error) {
	rows, err := s.submissions.ListHistory(dbc, orgID, strings.TrimSpace(periodID))
	if err != nil {
		return nil, aggregates.MapError("Submissions.GetHistory", err)
	}
	return rows, nil
}

func (s *submissionService) GetDraft(dbc dbctx.Context, orgID uuid.UUID, periodID string) (*types.Submission, error) {
	const op = "Submissions.GetDraft"
	row, err := s.submissions.GetLatestDraft(dbc, orgID, strings.TrimSpace(periodID))
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	if row == nil {
		return nil, domainagg.NotFound(op, "no draft for organization and period")
	}
	return row, nil
}
