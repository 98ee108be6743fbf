package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/InfiniCruiser/ymca-backend/internal/data/aggregates"
	domainagg "github.com/InfiniCruiser/ymca-backend/internal/domain/aggregates"
	"github.com/InfiniCruiser/ymca-backend/internal/platform/dbctx"
)

const (
	AutoSubmitStatusSubmitted = "submitted"
	AutoSubmitStatusSkipped   = "skipped"
	AutoSubmitStatusFailed    = "failed"
)

type AutoSubmitOptions struct {
	// Actor is stamped into auto_submitted_by; empty means "system".
	Actor       string
	Concurrency int
}

// DueDraft identifies one latest draft awaiting auto-submission.
type DueDraft struct {
	SubmissionID   uuid.UUID `json:"submission_id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	PeriodID       string    `json:"period_id"`
	Version        int       `json:"version"`
}

type AutoSubmitUnit struct {
	OrganizationID uuid.UUID  `json:"organization_id"`
	SubmissionID   uuid.UUID  `json:"submission_id"`
	Version        int        `json:"version"`
	Status         string     `json:"status"`
	NextDraftID    *uuid.UUID `json:"next_draft_id,omitempty"`
	Error          string     `json:"error,omitempty"`
}

type AutoSubmitReport struct {
	PeriodID   string           `json:"period_id"`
	Total      int              `json:"total"`
	Submitted  int              `json:"submitted"`
	Skipped    int              `json:"skipped"`
	Failed     int              `json:"failed"`
	Units      []AutoSubmitUnit `json:"units"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
}

// Add folds one unit into the report counters.
func (r *AutoSubmitReport) Add(u AutoSubmitUnit) {
	r.Total++
	switch u.Status {
	case AutoSubmitStatusSubmitted:
		r.Submitted++
	case AutoSubmitStatusSkipped:
		r.Skipped++
	default:
		r.Failed++
	}
	r.Units = append(r.Units, u)
}

func (s *submissionService) ListDueDrafts(ctx context.Context, periodID string) ([]DueDraft, error) {
	const op = "Submissions.ListDueDrafts"
	periodID = strings.TrimSpace(periodID)
	if periodID == "" {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing period_id", nil)
	}
	rows, err := s.submissions.ListLatestDraftsByPeriod(dbctx.Context{Ctx: ctx}, periodID)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	out := make([]DueDraft, 0, len(rows))
	for _, r := range rows {
		out = append(out, DueDraft{
			SubmissionID:   r.ID,
			OrganizationID: r.OrganizationID,
			PeriodID:       r.PeriodID,
			Version:        r.Version,
		})
	}
	return out, nil
}

func (s *submissionService) AutoSubmit(ctx context.Context, periodID string, opts AutoSubmitOptions) (AutoSubmitReport, error) {
	report := AutoSubmitReport{PeriodID: strings.TrimSpace(periodID), StartedAt: s.now(), Units: []AutoSubmitUnit{}}
	due, err := s.ListDueDrafts(ctx, periodID)
	if err != nil {
		return report, err
	}

	limit := opts.Concurrency
	if limit <= 0 {
		limit = s.concurrency
	}
	units := make([]AutoSubmitUnit, len(due))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, d := range due {
		g.Go(func() error {
			// Units never return errors so one organization cannot cancel the rest.
			units[i] = s.AutoSubmitDraft(gctx, d, opts.Actor)
			return nil
		})
	}
	_ = g.Wait()

	for _, u := range units {
		report.Add(u)
	}
	report.FinishedAt = s.now()
	s.log.Info("auto-submit finished",
		"period_id", report.PeriodID,
		"total", report.Total,
		"submitted", report.Submitted,
		"skipped", report.Skipped,
		"failed", report.Failed,
	)
	return report, nil
}

func (s *submissionService) AutoSubmitDraft(ctx context.Context, draft DueDraft, actor string) AutoSubmitUnit {
	unit := AutoSubmitUnit{
		OrganizationID: draft.OrganizationID,
		SubmissionID:   draft.SubmissionID,
		Version:        draft.Version,
	}
	res, err := s.chain.Submit(ctx, domainagg.SubmitInput{
		SubmissionID: draft.SubmissionID,
		Auto:         true,
		AutoActor:    actor,
		SubmittedAt:  s.now(),
	})
	switch {
	case err == nil:
		unit.Status = AutoSubmitStatusSubmitted
		if res.NextDraft != nil {
			id := res.NextDraft.ID
			unit.NextDraftID = &id
		}
		s.afterSubmit(ctx, res, true)
	case domainagg.IsCode(err, domainagg.CodeNotFound):
		// Submitted or superseded since it was listed.
		unit.Status = AutoSubmitStatusSkipped
		unit.Error = err.Error()
	default:
		unit.Status = AutoSubmitStatusFailed
		unit.Error = err.Error()
		s.log.Error("auto-submit failed",
			"organization_id", draft.OrganizationID,
			"period_id", draft.PeriodID,
			"submission_id", draft.SubmissionID,
			"error", err,
		)
	}
	s.metrics.IncAutoSubmitUnit(unit.Status)
	return unit
}
