package aggregates

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/InfiniCruiser/ymca-backend/internal/domain/submissions"
)

var SubmissionChainAggregateContract = Contract{
	Name:             "Submissions.ChainAggregate",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicy:       ReadPolicyInvariantScoped,
	Notes:            "Owns version numbering, the single is_latest head, draft->submitted transitions and evidence snapshots per (organization, period).",
}

// SubmissionChainAggregate owns the version chain invariants of one (organization, period).
//
// Write method failures return *aggregates.Error with codes:
// CodeValidation, CodeNotFound, CodeConflict, CodeInvariantViolation, CodeRetryable, CodeInternal.
type SubmissionChainAggregate interface {
	Aggregate

	// CreateDraft atomically appends a new DRAFT head to the chain.
	CreateDraft(ctx context.Context, in CreateDraftInput) (*submissions.Submission, error)

	// UpdateDraftResponses replaces the responses of a DRAFT head.
	UpdateDraftResponses(ctx context.Context, in UpdateDraftResponsesInput) (*submissions.Submission, error)

	// Submit atomically transitions a DRAFT head to SUBMITTED, snapshots evidence and
	// spawns the successor draft.
	Submit(ctx context.Context, in SubmitInput) (SubmitResult, error)

	// Lock moves a SUBMITTED version to the terminal LOCKED state.
	Lock(ctx context.Context, in LockInput) (*submissions.Submission, error)
}

type CreateDraftInput struct {
	OrganizationID uuid.UUID
	PeriodID       string
	Responses      submissions.Responses
	CreatedAt      time.Time
}

type UpdateDraftResponsesInput struct {
	SubmissionID uuid.UUID
	Responses    submissions.Responses
	UpdatedAt    time.Time
}

// SubmitInput identifies the draft to submit. Auto marks a scheduler-triggered
// submission: AutoSubmittedAt/AutoSubmittedBy are stamped instead of SubmittedAt/SubmittedBy.
type SubmitInput struct {
	SubmissionID uuid.UUID
	SubmittedBy  uuid.UUID
	Auto         bool
	AutoActor    string
	SubmittedAt  time.Time
}

type SubmitResult struct {
	Submitted *submissions.Submission
	NextDraft *submissions.Submission
	Snapshots []*submissions.EvidenceFile
}

type LockInput struct {
	SubmissionID uuid.UUID
	LockedAt     time.Time
}
