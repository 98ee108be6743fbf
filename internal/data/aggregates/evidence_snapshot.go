package aggregates

import (
	"time"

	"github.com/google/uuid"

	"github.com/InfiniCruiser/ymca-backend/internal/data/repos"
	types "github.com/InfiniCruiser/ymca-backend/internal/domain"
	"github.com/InfiniCruiser/ymca-backend/internal/platform/dbctx"
)

// EvidenceSnapshotter freezes the live evidence set of an (organization, period)
// under a submission. It always runs inside the caller's transaction.
type EvidenceSnapshotter interface {
	Snapshot(dbc dbctx.Context, in SnapshotInput) ([]*types.EvidenceFile, error)
}

type SnapshotInput struct {
	SubmissionID   uuid.UUID
	OrganizationID uuid.UUID
	PeriodID       string
	At             time.Time
}

type evidenceSnapshotManager struct {
	evidence repos.EvidenceFileRepo
}

func NewEvidenceSnapshotManager(evidence repos.EvidenceFileRepo) EvidenceSnapshotter {
	return &evidenceSnapshotManager{evidence: evidence}
}

// Snapshot copies every live row into a new snapshot row. Source rows are not touched.
// Only metadata is copied; snapshot rows share the source storage key.
func (m *evidenceSnapshotManager) Snapshot(dbc dbctx.Context, in SnapshotInput) ([]*types.EvidenceFile, error) {
	if dbc.Tx == nil {
		return nil, InvariantError("evidence snapshot requires the submit transaction")
	}
	if in.SubmissionID == uuid.Nil || in.OrganizationID == uuid.Nil || in.PeriodID == "" {
		return nil, ValidationError("snapshot requires submission, organization and period")
	}
	at := in.At.UTC()
	if at.IsZero() {
		at = time.Now().UTC()
	}

	live, err := m.evidence.ListLiveForUpdate(dbc, in.OrganizationID, in.PeriodID)
	if err != nil {
		return nil, err
	}
	if len(live) == 0 {
		return []*types.EvidenceFile{}, nil
	}

	rows := make([]*types.EvidenceFile, 0, len(live))
	for _, src := range live {
		if src == nil || !src.IsLive() {
			continue
		}
		submissionID := in.SubmissionID
		originalID := src.ID
		snapAt := at
		var uploadedBy *uuid.UUID
		if src.UploadedBy != nil {
			u := *src.UploadedBy
			uploadedBy = &u
		}
		rows = append(rows, &types.EvidenceFile{
			ID:                uuid.New(),
			OrganizationID:    src.OrganizationID,
			PeriodID:          src.PeriodID,
			CategoryID:        src.CategoryID,
			FileName:          src.FileName,
			MimeType:          src.MimeType,
			SizeBytes:         src.SizeBytes,
			StorageKey:        src.StorageKey,
			UploadedBy:        uploadedBy,
			IsSnapshot:        true,
			SubmissionID:      &submissionID,
			OriginalUploadID:  &originalID,
			SnapshotCreatedAt: &snapAt,
			CreatedAt:         at,
			UpdatedAt:         at,
		})
	}
	return m.evidence.Create(dbc, rows)
}
