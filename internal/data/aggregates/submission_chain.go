package aggregates

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/InfiniCruiser/ymca-backend/internal/data/repos"
	types "github.com/InfiniCruiser/ymca-backend/internal/domain"
	domainagg "github.com/InfiniCruiser/ymca-backend/internal/domain/aggregates"
	"github.com/InfiniCruiser/ymca-backend/internal/platform/dbctx"
)

const (
	submissionTable = "submission"

	// createDraftAttempts bounds the retry of a first-version insert race.
	createDraftAttempts = 3

	// AutoSubmitActorSystem labels scheduler-driven submissions with no named trigger.
	AutoSubmitActorSystem = "system"
)

type SubmissionChainAggregateDeps struct {
	Base BaseDeps

	Submissions repos.SubmissionRepo
	Snapshots   EvidenceSnapshotter
}

type submissionChainAggregate struct {
	deps SubmissionChainAggregateDeps
}

func NewSubmissionChainAggregate(deps SubmissionChainAggregateDeps) domainagg.SubmissionChainAggregate {
	deps.Base = deps.Base.withDefaults()
	return &submissionChainAggregate{deps: deps}
}

func (a *submissionChainAggregate) Contract() domainagg.Contract {
	return domainagg.SubmissionChainAggregateContract
}

func (a *submissionChainAggregate) now(t time.Time) time.Time {
	if !t.IsZero() {
		return t.UTC()
	}
	return a.deps.Base.Now()
}

func (a *submissionChainAggregate) CreateDraft(ctx context.Context, in domainagg.CreateDraftInput) (*types.Submission, error) {
	const op = "Submissions.Chain.CreateDraft"
	if in.OrganizationID == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing organization_id", nil)
	}
	periodID := strings.TrimSpace(in.PeriodID)
	if periodID == "" {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing period_id", nil)
	}
	if a.deps.Submissions == nil {
		return nil, domainagg.NewError(domainagg.CodeInternal, op, "submission chain repos not configured", nil)
	}
	responses := in.Responses.Normalize()
	if err := responses.Validate(); err != nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, err.Error(), err)
	}

	var out *types.Submission
	err := executeWriteWithConflictRetry(ctx, a.deps.Base, op, createDraftAttempts, func(dbc dbctx.Context) error {
		latest, err := a.deps.Submissions.LockLatest(dbc, in.OrganizationID, periodID)
		if err != nil {
			return err
		}
		draft, err := a.appendDraft(dbc, in.OrganizationID, periodID, latest, responses, a.now(in.CreatedAt))
		if err != nil {
			return err
		}
		out = draft
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// appendDraft inserts version max+1 as the new head, demoting the current head first.
func (a *submissionChainAggregate) appendDraft(dbc dbctx.Context, orgID uuid.UUID, periodID string, head *types.Submission, responses types.Responses, at time.Time) (*types.Submission, error) {
	maxVersion, err := a.deps.Submissions.GetMaxVersion(dbc, orgID, periodID)
	if err != nil {
		return nil, err
	}

	var parentID *uuid.UUID
	if head != nil && head.ID != uuid.Nil {
		if head.Version != maxVersion {
			return nil, InvariantError(fmt.Sprintf("chain head version %d is not the max version %d", head.Version, maxVersion))
		}
		cleared, err := a.deps.Submissions.ClearLatest(dbc, head.ID)
		if err != nil {
			return nil, err
		}
		if !cleared {
			return nil, ConflictError("chain head moved during draft creation")
		}
		id := head.ID
		parentID = &id
	} else if maxVersion > 0 {
		// The head was replaced after our locking read; retry observes the new head.
		return nil, ConflictError(fmt.Sprintf("chain has %d versions but no visible head", maxVersion))
	}

	draft := &types.Submission{
		ID:                 uuid.New(),
		OrganizationID:     orgID,
		PeriodID:           periodID,
		Version:            maxVersion + 1,
		ParentSubmissionID: parentID,
		IsLatest:           true,
		Status:             types.SubmissionStatusDraft,
		Responses:          datatypes.NewJSONType(responses.Clone()),
		Completed:          false,
		CreatedAt:          at,
		UpdatedAt:          at,
	}
	created, err := a.deps.Submissions.Create(dbc, []*types.Submission{draft})
	if err != nil {
		return nil, err
	}
	if len(created) != 1 {
		return nil, InvariantError("draft insert returned no row")
	}
	return created[0], nil
}

func (a *submissionChainAggregate) UpdateDraftResponses(ctx context.Context, in domainagg.UpdateDraftResponsesInput) (*types.Submission, error) {
	const op = "Submissions.Chain.UpdateDraftResponses"
	if in.SubmissionID == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing submission_id", nil)
	}
	if a.deps.Submissions == nil {
		return nil, domainagg.NewError(domainagg.CodeInternal, op, "submission chain repos not configured", nil)
	}
	responses := in.Responses.Normalize()
	if err := responses.Validate(); err != nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, err.Error(), err)
	}

	var out *types.Submission
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		ok, err := a.deps.Base.CASGuard.UpdateLatestByStatus(dbc, submissionTable, in.SubmissionID,
			[]string{string(types.SubmissionStatusDraft)},
			map[string]any{
				"responses":  datatypes.NewJSONType(responses),
				"updated_at": a.now(in.UpdatedAt),
			},
		)
		if err != nil {
			return err
		}
		if !ok {
			return domainagg.NotFound(op, fmt.Sprintf("draft not found: %s", in.SubmissionID))
		}
		row, err := a.deps.Submissions.GetByID(dbc, in.SubmissionID)
		if err != nil {
			return err
		}
		if row == nil {
			return domainagg.NotFound(op, fmt.Sprintf("draft not found: %s", in.SubmissionID))
		}
		out = row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (a *submissionChainAggregate) Submit(ctx context.Context, in domainagg.SubmitInput) (domainagg.SubmitResult, error) {
	op := "Submissions.Chain.Submit"
	if in.Auto {
		op = "Submissions.Chain.AutoSubmit"
	}
	var out domainagg.SubmitResult
	if in.SubmissionID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing submission_id", nil)
	}
	if !in.Auto && in.SubmittedBy == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing submitted_by", nil)
	}
	if a.deps.Submissions == nil || a.deps.Snapshots == nil {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "submission chain repos not configured", nil)
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		at := a.now(in.SubmittedAt)
		updates := map[string]any{
			"status":     string(types.SubmissionStatusSubmitted),
			"completed":  true,
			"updated_at": at,
		}
		if in.Auto {
			actor := strings.TrimSpace(in.AutoActor)
			if actor == "" {
				actor = AutoSubmitActorSystem
			}
			updates["auto_submitted_at"] = at
			updates["auto_submitted_by"] = actor
		} else {
			updates["submitted_at"] = at
			updates["submitted_by"] = in.SubmittedBy
		}

		// The status guard is the concurrency contract: a second submitter of the
		// same draft matches zero rows and gets NotFound.
		ok, err := a.deps.Base.CASGuard.UpdateLatestByStatus(dbc, submissionTable, in.SubmissionID,
			[]string{string(types.SubmissionStatusDraft)}, updates)
		if err != nil {
			return err
		}
		if !ok {
			return domainagg.NotFound(op, fmt.Sprintf("draft not found: %s", in.SubmissionID))
		}

		submitted, err := a.deps.Submissions.GetByID(dbc, in.SubmissionID)
		if err != nil {
			return err
		}
		if submitted == nil {
			return domainagg.NotFound(op, fmt.Sprintf("draft not found: %s", in.SubmissionID))
		}

		snaps, err := a.deps.Snapshots.Snapshot(dbc, SnapshotInput{
			SubmissionID:   submitted.ID,
			OrganizationID: submitted.OrganizationID,
			PeriodID:       submitted.PeriodID,
			At:             at,
		})
		if err != nil {
			return err
		}

		next, err := a.appendDraft(dbc, submitted.OrganizationID, submitted.PeriodID, submitted, submitted.Answers(), at)
		if err != nil {
			return err
		}
		submitted.IsLatest = false

		out = domainagg.SubmitResult{
			Submitted: submitted,
			NextDraft: next,
			Snapshots: snaps,
		}
		return nil
	})
	if err != nil {
		return domainagg.SubmitResult{}, err
	}
	return out, nil
}

func (a *submissionChainAggregate) Lock(ctx context.Context, in domainagg.LockInput) (*types.Submission, error) {
	const op = "Submissions.Chain.Lock"
	if in.SubmissionID == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing submission_id", nil)
	}
	if a.deps.Submissions == nil {
		return nil, domainagg.NewError(domainagg.CodeInternal, op, "submission chain repos not configured", nil)
	}

	var out *types.Submission
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		row, err := a.deps.Submissions.GetByID(dbc, in.SubmissionID)
		if err != nil {
			return err
		}
		if row == nil {
			return domainagg.NotFound(op, fmt.Sprintf("submission not found: %s", in.SubmissionID))
		}
		if err := RequireStatusAllowed(string(row.Status), string(types.SubmissionStatusSubmitted)); err != nil {
			return InvariantError(fmt.Sprintf("cannot lock submission in status %q", row.Status))
		}
		ok, err := a.deps.Base.CASGuard.UpdateByStatus(dbc, submissionTable, row.ID,
			[]string{string(types.SubmissionStatusSubmitted)},
			map[string]any{
				"status":     string(types.SubmissionStatusLocked),
				"updated_at": a.now(in.LockedAt),
			},
		)
		if err != nil {
			return err
		}
		if err := RequireCASSuccess(ok, "submission status changed during lock"); err != nil {
			return err
		}
		locked, err := a.deps.Submissions.GetByID(dbc, row.ID)
		if err != nil {
			return err
		}
		out = locked
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
