package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/InfiniCruiser/ymca-backend/internal/data/aggregates"
	"github.com/InfiniCruiser/ymca-backend/internal/data/repos"
	types "github.com/InfiniCruiser/ymca-backend/internal/domain"
	domainagg "github.com/InfiniCruiser/ymca-backend/internal/domain/aggregates"
	"github.com/InfiniCruiser/ymca-backend/internal/events"
	"github.com/InfiniCruiser/ymca-backend/internal/observability"
	"github.com/InfiniCruiser/ymca-backend/internal/platform/dbctx"
	"github.com/InfiniCruiser/ymca-backend/internal/platform/logger"
	"github.com/InfiniCruiser/ymca-backend/internal/scoring"
)

type PerformanceService interface {
	// CalculateAndPersist scores a SUBMITTED or LOCKED submission once. Repeated calls
	// return the stored record without recomputing.
	CalculateAndPersist(ctx context.Context, submission *types.Submission) (*types.PerformanceCalculation, error)
	CalculateForSubmission(ctx context.Context, submissionID uuid.UUID) (*types.PerformanceCalculation, error)

	GetBySubmission(dbc dbctx.Context, submissionID uuid.UUID) (*types.PerformanceCalculation, error)
	GetByOrganizationPeriod(dbc dbctx.Context, orgID uuid.UUID, periodID string) (*types.PerformanceCalculation, error)
	ListByPeriod(dbc dbctx.Context, periodID string) ([]*types.PerformanceCalculation, error)

	Config() *scoring.Config
}

type PerformanceServiceDeps struct {
	DB           *gorm.DB
	Log          *logger.Logger
	Submissions  repos.SubmissionRepo
	Calculations repos.PerformanceCalculationRepo
	Config       *scoring.Config
	Events       events.Publisher
	Metrics      *observability.Metrics
	Now          func() time.Time
}

type performanceService struct {
	db           *gorm.DB
	log          *logger.Logger
	submissions  repos.SubmissionRepo
	calculations repos.PerformanceCalculationRepo
	cfg          *scoring.Config
	events       events.Publisher
	metrics      *observability.Metrics
	now          func() time.Time
}

func NewPerformanceService(deps PerformanceServiceDeps) (PerformanceService, error) {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	cfg := deps.Config
	if cfg == nil {
		def, err := scoring.DefaultConfig()
		if err != nil {
			return nil, err
		}
		cfg = def
	}
	pub := deps.Events
	if pub == nil {
		pub = events.NewNoopPublisher()
	}
	now := deps.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &performanceService{
		db:           deps.DB,
		log:          log.With("service", "PerformanceService"),
		submissions:  deps.Submissions,
		calculations: deps.Calculations,
		cfg:          cfg,
		events:       pub,
		metrics:      deps.Metrics,
		now:          now,
	}, nil
}

func (s *performanceService) Config() *scoring.Config { return s.cfg }

func (s *performanceService) CalculateForSubmission(ctx context.Context, submissionID uuid.UUID) (*types.PerformanceCalculation, error) {
	const op = "Performance.CalculateForSubmission"
	if submissionID == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing submission_id", nil)
	}
	sub, err := s.submissions.GetByID(dbctx.Context{Ctx: ctx}, submissionID)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	if sub == nil {
		return nil, domainagg.NotFound(op, fmt.Sprintf("submission not found: %s", submissionID))
	}
	return s.CalculateAndPersist(ctx, sub)
}

func (s *performanceService) CalculateAndPersist(ctx context.Context, submission *types.Submission) (*types.PerformanceCalculation, error) {
	const op = "Performance.CalculateAndPersist"
	if submission == nil || submission.ID == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing submission", nil)
	}
	ctx, span := observability.Tracer().Start(ctx, op, trace.WithAttributes(
		attribute.String("submission_id", submission.ID.String()),
		attribute.String("period_id", submission.PeriodID),
	))
	defer span.End()
	if submission.Status != types.SubmissionStatusSubmitted && submission.Status != types.SubmissionStatusLocked {
		return nil, domainagg.NewError(domainagg.CodePreconditionFailed, op,
			fmt.Sprintf("cannot score submission in status %q", submission.Status), nil)
	}
	dbc := dbctx.Context{Ctx: ctx}

	existing, err := s.calculations.GetBySubmissionID(dbc, submission.ID)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	if existing != nil {
		s.metrics.IncPerformanceCalculation("existing")
		return existing, nil
	}

	res := scoring.Calculate(s.cfg, submission.Answers())
	row := calculationRow(submission, res, s.now())

	created, err := s.calculations.Create(dbc, row)
	if err != nil {
		mapped := aggregates.MapError(op, err)
		if !domainagg.IsCode(mapped, domainagg.CodeConflict) {
			s.metrics.IncPerformanceCalculation("error")
			return nil, mapped
		}
		// Lost the insert race; the stored row is authoritative.
		winner, rerr := s.rereadWinner(dbc, submission)
		if rerr != nil {
			s.metrics.IncPerformanceCalculation("error")
			return nil, aggregates.MapError(op, rerr)
		}
		if winner == nil {
			s.metrics.IncPerformanceCalculation("error")
			return nil, mapped
		}
		s.metrics.IncPerformanceCalculation("conflict_reread")
		return winner, nil
	}

	s.metrics.IncPerformanceCalculation("created")
	s.publishCalculated(ctx, created)
	return created, nil
}

func (s *performanceService) rereadWinner(dbc dbctx.Context, submission *types.Submission) (*types.PerformanceCalculation, error) {
	row, err := s.calculations.GetBySubmissionID(dbc, submission.ID)
	if err != nil || row != nil {
		return row, err
	}
	row, err = s.calculations.GetByOrganizationPeriod(dbc, submission.OrganizationID, submission.PeriodID)
	if err != nil {
		return nil, err
	}
	if row != nil {
		s.log.Warn("period already scored from another version",
			"organization_id", submission.OrganizationID,
			"period_id", submission.PeriodID,
			"submission_id", submission.ID,
			"scored_submission_id", row.SubmissionID,
		)
	}
	return row, nil
}

func calculationRow(sub *types.Submission, res scoring.Result, at time.Time) *types.PerformanceCalculation {
	return &types.PerformanceCalculation{
		ID:                            uuid.New(),
		OrganizationID:                sub.OrganizationID,
		PeriodID:                      sub.PeriodID,
		SubmissionID:                  sub.ID,
		OperationalScores:             datatypes.NewJSONType(scoring.ScoresByCategory(res.Operational)),
		FinancialScores:               datatypes.NewJSONType(scoring.ScoresByCategory(res.Financial)),
		OperationalTotalPoints:        res.OperationalTotal,
		FinancialTotalPoints:          res.FinancialTotal,
		TotalPoints:                   res.TotalPoints,
		MaxPoints:                     res.MaxPoints,
		OperationalMaxPoints:          res.OperationalMaxPoints,
		FinancialMaxPoints:            res.FinancialMaxPoints,
		PercentageScore:               res.PercentageScore,
		PerformanceCategory:           string(res.PerformanceCategory),
		SupportDesignation:            string(res.SupportDesignation),
		OperationalSupportDesignation: string(res.OperationalSupportDesignation),
		FinancialSupportDesignation:   string(res.FinancialSupportDesignation),
		ScoringConfigVersion:          res.ConfigVersion,
		CalculatedAt:                  at,
		CreatedAt:                     at,
	}
}

func (s *performanceService) publishCalculated(ctx context.Context, row *types.PerformanceCalculation) {
	evt := events.New(events.TypePerformanceCalculated, row.OrganizationID, row.PeriodID, row.SubmissionID)
	evt.Data = map[string]any{
		"calculation_id":       row.ID,
		"percentage_score":     row.PercentageScore,
		"performance_category": row.PerformanceCategory,
		"support_designation":  row.SupportDesignation,
	}
	publish(ctx, s.log, s.metrics, s.events, evt)
}

func (s *performanceService) GetBySubmission(dbc dbctx.Context, submissionID uuid.UUID) (*types.PerformanceCalculation, error) {
	const op = "Performance.GetBySubmission"
	row, err := s.calculations.GetBySubmissionID(dbc, submissionID)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	if row == nil {
		return nil, domainagg.NotFound(op, fmt.Sprintf("no performance calculation for submission %s", submissionID))
	}
	return row, nil
}

func (s *performanceService) GetByOrganizationPeriod(dbc dbctx.Context, orgID uuid.UUID, periodID string) (*types.PerformanceCalculation, error) {
	const op = "Performance.GetByOrganizationPeriod"
	row, err := s.calculations.GetByOrganizationPeriod(dbc, orgID, periodID)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	if row == nil {
		return nil, domainagg.NotFound(op, fmt.Sprintf("no performance calculation for %s/%s", orgID, periodID))
	}
	return row, nil
}

func (s *performanceService) ListByPeriod(dbc dbctx.Context, periodID string) ([]*types.PerformanceCalculation, error) {
	rows, err := s.calculations.ListByPeriod(dbc, periodID)
	if err != nil {
		return nil, aggregates.MapError("Performance.ListByPeriod", err)
	}
	return rows, nil
}

// publish delivers evt after the owning write committed. Failures are logged only.
func publish(ctx context.Context, log *logger.Logger, metrics *observability.Metrics, pub events.Publisher, evt events.Event) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, evt); err != nil {
		metrics.IncEventPublished(evt.Type, "error")
		if !errors.Is(err, context.Canceled) {
			log.Warn("event publish failed", "type", evt.Type, "submission_id", evt.SubmissionID, "error", err)
		}
		return
	}
	metrics.IncEventPublished(evt.Type, "success")
}
