package aggregates_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/InfiniCruiser/ymca-backend/internal/data/aggregates"
	"github.com/InfiniCruiser/ymca-backend/internal/data/repos"
	"github.com/InfiniCruiser/ymca-backend/internal/data/repos/testutil"
	domainagg "github.com/InfiniCruiser/ymca-backend/internal/domain/aggregates"
	"github.com/InfiniCruiser/ymca-backend/internal/platform/dbctx"
)

func TestEvidenceSnapshot_CopiesOnlyLiveRows(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	ctx := context.Background()
	evidence := repos.NewEvidenceFileRepo(db, log)
	mgr := aggregates.NewEvidenceSnapshotManager(evidence)

	orgID := uuid.New()
	live := testutil.SeedLiveEvidence(t, ctx, db, orgID, "2025-Q3", "risk", 3)
	testutil.SeedLiveEvidence(t, ctx, db, uuid.New(), "2025-Q3", "risk", 2)

	if _, err := evidence.SoftDeleteLiveByIDs(dbctx.Context{Ctx: ctx, Tx: db}, []uuid.UUID{live[2].ID}); err != nil {
		t.Fatalf("SoftDeleteLiveByIDs: %v", err)
	}

	first := uuid.New()
	at := time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC)
	tx := testutil.Tx(t, db)
	snaps, err := mgr.Snapshot(dbctx.Context{Ctx: ctx, Tx: tx}, aggregates.SnapshotInput{
		SubmissionID:   first,
		OrganizationID: orgID,
		PeriodID:       "2025-Q3",
		At:             at,
	})
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(snaps) != 2 {
		t.Fatalf("snapshots: want=2 got=%d", len(snaps))
	}

	// A second snapshot for another submission must not pick up the first snapshot rows.
	second := uuid.New()
	snaps2, err := mgr.Snapshot(dbctx.Context{Ctx: ctx, Tx: tx}, aggregates.SnapshotInput{
		SubmissionID:   second,
		OrganizationID: orgID,
		PeriodID:       "2025-Q3",
		At:             at.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("second Snapshot: %v", err)
	}
	if len(snaps2) != 2 {
		t.Fatalf("second snapshots: want=2 got=%d", len(snaps2))
	}
	for _, s := range snaps2 {
		if s.OriginalUploadID == nil || (*s.OriginalUploadID != live[0].ID && *s.OriginalUploadID != live[1].ID) {
			t.Fatalf("second snapshot copied a non-live row: %+v", s)
		}
		if s.SnapshotCreatedAt == nil || !s.SnapshotCreatedAt.Equal(at.Add(time.Hour)) {
			t.Fatalf("snapshot_created_at: %v", s.SnapshotCreatedAt)
		}
	}
}

func TestEvidenceSnapshot_EmptyLiveSetIsNotAnError(t *testing.T) {
	db := testutil.DB(t)
	mgr := aggregates.NewEvidenceSnapshotManager(repos.NewEvidenceFileRepo(db, testutil.Logger(t)))
	tx := testutil.Tx(t, db)
	snaps, err := mgr.Snapshot(dbctx.Context{Ctx: context.Background(), Tx: tx}, aggregates.SnapshotInput{
		SubmissionID:   uuid.New(),
		OrganizationID: uuid.New(),
		PeriodID:       "2025-Q3",
	})
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(snaps) != 0 {
		t.Fatalf("expected no snapshots, got %d", len(snaps))
	}
}

func TestEvidenceSnapshot_RequiresTransaction(t *testing.T) {
	db := testutil.DB(t)
	mgr := aggregates.NewEvidenceSnapshotManager(repos.NewEvidenceFileRepo(db, testutil.Logger(t)))
	_, err := mgr.Snapshot(dbctx.Context{Ctx: context.Background()}, aggregates.SnapshotInput{
		SubmissionID:   uuid.New(),
		OrganizationID: uuid.New(),
		PeriodID:       "2025-Q3",
	})
	if err == nil {
		t.Fatalf("expected error without a transaction")
	}
	if !domainagg.IsCode(aggregates.MapError("snapshot", err), domainagg.CodeInvariantViolation) {
		t.Fatalf("want invariant violation, got %v", err)
	}
}
