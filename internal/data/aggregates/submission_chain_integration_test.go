package aggregates_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/InfiniCruiser/ymca-backend/internal/data/aggregates"
	aggtestutil "github.com/InfiniCruiser/ymca-backend/internal/data/aggregates/testutil"
	"github.com/InfiniCruiser/ymca-backend/internal/data/repos"
	"github.com/InfiniCruiser/ymca-backend/internal/data/repos/testutil"
	types "github.com/InfiniCruiser/ymca-backend/internal/domain"
	domainagg "github.com/InfiniCruiser/ymca-backend/internal/domain/aggregates"
	"github.com/InfiniCruiser/ymca-backend/internal/platform/dbctx"
)

type chainFixture struct {
	db       *gorm.DB
	subs     repos.SubmissionRepo
	evidence repos.EvidenceFileRepo
	hooks    *aggtestutil.HooksRecorder
	chain    domainagg.SubmissionChainAggregate
}

func newChainFixture(t *testing.T, wrap func(aggregates.EvidenceSnapshotter) aggregates.EvidenceSnapshotter, runner aggregates.TxRunner) chainFixture {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	subs := repos.NewSubmissionRepo(db, log)
	evidence := repos.NewEvidenceFileRepo(db, log)
	var snap aggregates.EvidenceSnapshotter = aggregates.NewEvidenceSnapshotManager(evidence)
	if wrap != nil {
		snap = wrap(snap)
	}
	hooks := &aggtestutil.HooksRecorder{}
	chain := aggregates.NewSubmissionChainAggregate(aggregates.SubmissionChainAggregateDeps{
		Base: aggregates.BaseDeps{
			DB:     db,
			Log:    log,
			Runner: runner,
			Hooks:  hooks,
		},
		Submissions: subs,
		Snapshots:   snap,
	})
	return chainFixture{db: db, subs: subs, evidence: evidence, hooks: hooks, chain: chain}
}

func dbcOf(db *gorm.DB) dbctx.Context {
	return dbctx.Context{Ctx: context.Background(), Tx: db}
}

func assertChainShape(t *testing.T, f chainFixture, orgID uuid.UUID, periodID string, wantVersions int) []*types.Submission {
	t.Helper()
	history, err := f.subs.ListHistory(dbcOf(f.db), orgID, periodID)
	if err != nil {
		t.Fatalf("ListHistory: %v", err)
	}
	if len(history) != wantVersions {
		t.Fatalf("versions: want=%d got=%d", wantVersions, len(history))
	}
	latest := 0
	for i, s := range history {
		if want := wantVersions - i; s.Version != want {
			t.Fatalf("history[%d].version: want=%d got=%d", i, want, s.Version)
		}
		if s.IsLatest {
			latest++
			if i != 0 {
				t.Fatalf("latest flag on non-head version %d", s.Version)
			}
		}
		if i+1 < len(history) {
			parent := history[i+1]
			if s.ParentSubmissionID == nil || *s.ParentSubmissionID != parent.ID {
				t.Fatalf("version %d parent: want=%s got=%v", s.Version, parent.ID, s.ParentSubmissionID)
			}
		} else if s.ParentSubmissionID != nil {
			t.Fatalf("version 1 must not have a parent")
		}
	}
	if wantVersions > 0 && latest != 1 {
		t.Fatalf("latest rows: want=1 got=%d", latest)
	}
	return history
}

func TestSubmissionChain_CreateDraftAppendsVersions(t *testing.T) {
	f := newChainFixture(t, nil, nil)
	ctx := context.Background()
	orgID := uuid.New()

	for i := 1; i <= 3; i++ {
		d, err := f.chain.CreateDraft(ctx, domainagg.CreateDraftInput{
			OrganizationID: orgID,
			PeriodID:       "2025-Q3",
			Responses:      types.Responses{"OP-1": {Value: "Yes"}},
		})
		if err != nil {
			t.Fatalf("CreateDraft #%d: %v", i, err)
		}
		if d.Version != i || !d.IsLatest || d.Status != types.SubmissionStatusDraft || d.Completed {
			t.Fatalf("draft #%d unexpected: version=%d latest=%v status=%s completed=%v", i, d.Version, d.IsLatest, d.Status, d.Completed)
		}
	}
	assertChainShape(t, f, orgID, "2025-Q3", 3)

	other, err := f.chain.CreateDraft(ctx, domainagg.CreateDraftInput{OrganizationID: orgID, PeriodID: "2025-Q4"})
	if err != nil {
		t.Fatalf("CreateDraft other period: %v", err)
	}
	if other.Version != 1 {
		t.Fatalf("other period must start at version 1, got %d", other.Version)
	}
}

func TestSubmissionChain_CreateDraftValidates(t *testing.T) {
	f := newChainFixture(t, nil, nil)
	ctx := context.Background()

	_, err := f.chain.CreateDraft(ctx, domainagg.CreateDraftInput{PeriodID: "2025-Q3"})
	if !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("missing org: want validation, got %v", err)
	}
	_, err = f.chain.CreateDraft(ctx, domainagg.CreateDraftInput{OrganizationID: uuid.New(), PeriodID: "  "})
	if !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("blank period: want validation, got %v", err)
	}
	_, err = f.chain.CreateDraft(ctx, domainagg.CreateDraftInput{
		OrganizationID: uuid.New(),
		PeriodID:       "2025-Q3",
		Responses:      types.Responses{"OP-1": {Value: "Yes", EvidenceIDs: []uuid.UUID{uuid.Nil}}},
	})
	if !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("nil evidence ref: want validation, got %v", err)
	}
}

func TestSubmissionChain_ConcurrentCreateDraftKeepsSingleLatest(t *testing.T) {
	f := newChainFixture(t, nil, nil)
	ctx := context.Background()
	orgID := uuid.New()

	const n = 8
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.chain.CreateDraft(ctx, domainagg.CreateDraftInput{OrganizationID: orgID, PeriodID: "2025-Q3"})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent CreateDraft: %v", err)
		}
	}
	assertChainShape(t, f, orgID, "2025-Q3", n)
}

func TestSubmissionChain_SubmitSnapshotsAndSpawnsDraft(t *testing.T) {
	f := newChainFixture(t, nil, nil)
	ctx := context.Background()
	orgID := uuid.New()
	actor := uuid.New()

	live := testutil.SeedLiveEvidence(t, ctx, f.db, orgID, "2025-Q3", "governance", 3)
	testutil.SeedLiveEvidence(t, ctx, f.db, orgID, "2025-Q2", "governance", 2)

	draft, err := f.chain.CreateDraft(ctx, domainagg.CreateDraftInput{
		OrganizationID: orgID,
		PeriodID:       "2025-Q3",
		Responses: types.Responses{
			"GOV-1": {Value: "Yes", EvidenceIDs: []uuid.UUID{live[0].ID}},
			"GOV-2": {Value: "No", Comment: "board vacancy"},
		},
	})
	if err != nil {
		t.Fatalf("CreateDraft: %v", err)
	}

	res, err := f.chain.Submit(ctx, domainagg.SubmitInput{SubmissionID: draft.ID, SubmittedBy: actor})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	s := res.Submitted
	if s.Status != types.SubmissionStatusSubmitted || !s.Completed || s.IsLatest {
		t.Fatalf("submitted row unexpected: status=%s completed=%v latest=%v", s.Status, s.Completed, s.IsLatest)
	}
	if s.SubmittedAt == nil || s.SubmittedBy == nil || *s.SubmittedBy != actor {
		t.Fatalf("submitted stamps missing: at=%v by=%v", s.SubmittedAt, s.SubmittedBy)
	}
	if s.AutoSubmittedAt != nil {
		t.Fatalf("manual submit must not stamp auto_submitted_at")
	}

	next := res.NextDraft
	if next.Version != 2 || !next.IsLatest || next.Status != types.SubmissionStatusDraft {
		t.Fatalf("next draft unexpected: %+v", next)
	}
	if next.ParentSubmissionID == nil || *next.ParentSubmissionID != draft.ID {
		t.Fatalf("next draft parent: want=%s got=%v", draft.ID, next.ParentSubmissionID)
	}
	carried := next.Answers()
	if len(carried) != 2 || carried["GOV-2"].Comment != "board vacancy" || carried["GOV-1"].EvidenceIDs[0] != live[0].ID {
		t.Fatalf("responses not carried forward: %+v", carried)
	}
	assertChainShape(t, f, orgID, "2025-Q3", 2)

	if len(res.Snapshots) != len(live) {
		t.Fatalf("snapshots: want=%d got=%d", len(live), len(res.Snapshots))
	}
	stored, err := f.evidence.ListBySubmissionID(dbcOf(f.db), draft.ID)
	if err != nil {
		t.Fatalf("ListBySubmissionID: %v", err)
	}
	if len(stored) != len(live) {
		t.Fatalf("stored snapshots: want=%d got=%d", len(live), len(stored))
	}
	sources := map[uuid.UUID]*types.EvidenceFile{}
	for _, l := range live {
		sources[l.ID] = l
	}
	for _, snap := range stored {
		if !snap.IsSnapshot || snap.SubmissionID == nil || *snap.SubmissionID != draft.ID || snap.SnapshotCreatedAt == nil {
			t.Fatalf("snapshot flags unexpected: %+v", snap)
		}
		if snap.OriginalUploadID == nil {
			t.Fatalf("snapshot missing original_upload_id")
		}
		src, ok := sources[*snap.OriginalUploadID]
		if !ok {
			t.Fatalf("snapshot points at unknown source %s", *snap.OriginalUploadID)
		}
		if snap.ID == src.ID || snap.StorageKey != src.StorageKey || snap.FileName != src.FileName {
			t.Fatalf("snapshot does not copy source metadata: %+v vs %+v", snap, src)
		}
		delete(sources, src.ID)
	}

	after, err := f.evidence.ListLive(dbcOf(f.db), orgID, "2025-Q3", "")
	if err != nil {
		t.Fatalf("ListLive: %v", err)
	}
	if len(after) != len(live) {
		t.Fatalf("live rows after submit: want=%d got=%d", len(live), len(after))
	}
	for i, row := range after {
		if row.ID != live[i].ID || row.StorageKey != live[i].StorageKey || !row.IsLive() {
			t.Fatalf("live row %d mutated: %+v", i, row)
		}
	}
}

func TestSubmissionChain_SubmitNonDraftIsNotFound(t *testing.T) {
	f := newChainFixture(t, nil, nil)
	ctx := context.Background()
	orgID := uuid.New()

	draft, err := f.chain.CreateDraft(ctx, domainagg.CreateDraftInput{OrganizationID: orgID, PeriodID: "2025-Q3"})
	if err != nil {
		t.Fatalf("CreateDraft: %v", err)
	}
	if _, err := f.chain.Submit(ctx, domainagg.SubmitInput{SubmissionID: draft.ID, SubmittedBy: uuid.New()}); err != nil {
		t.Fatalf("first Submit: %v", err)
	}
	_, err = f.chain.Submit(ctx, domainagg.SubmitInput{SubmissionID: draft.ID, SubmittedBy: uuid.New()})
	if !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("second Submit: want not_found, got %v", err)
	}
	_, err = f.chain.Submit(ctx, domainagg.SubmitInput{SubmissionID: uuid.New(), SubmittedBy: uuid.New()})
	if !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("unknown id: want not_found, got %v", err)
	}
	assertChainShape(t, f, orgID, "2025-Q3", 2)

	statuses := f.hooks.StatusesFor("Submissions.Chain.Submit")
	if len(statuses) != 3 || statuses[0] != "success" || statuses[1] != "not_found" {
		t.Fatalf("hook statuses: %+v", statuses)
	}
}

func TestSubmissionChain_SupersededDraftIsNotFound(t *testing.T) {
	f := newChainFixture(t, nil, nil)
	ctx := context.Background()
	orgID := uuid.New()

	old, err := f.chain.CreateDraft(ctx, domainagg.CreateDraftInput{OrganizationID: orgID, PeriodID: "2025-Q3"})
	if err != nil {
		t.Fatalf("CreateDraft: %v", err)
	}
	if _, err := f.chain.CreateDraft(ctx, domainagg.CreateDraftInput{OrganizationID: orgID, PeriodID: "2025-Q3"}); err != nil {
		t.Fatalf("CreateDraft: %v", err)
	}
	_, err = f.chain.Submit(ctx, domainagg.SubmitInput{SubmissionID: old.ID, SubmittedBy: uuid.New()})
	if !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("superseded draft: want not_found, got %v", err)
	}
	_, err = f.chain.UpdateDraftResponses(ctx, domainagg.UpdateDraftResponsesInput{SubmissionID: old.ID})
	if !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("superseded draft update: want not_found, got %v", err)
	}
}

func TestSubmissionChain_ConcurrentSubmitExactlyOneWins(t *testing.T) {
	f := newChainFixture(t, nil, nil)
	ctx := context.Background()
	orgID := uuid.New()
	testutil.SeedLiveEvidence(t, ctx, f.db, orgID, "2025-Q3", "risk", 2)

	draft, err := f.chain.CreateDraft(ctx, domainagg.CreateDraftInput{OrganizationID: orgID, PeriodID: "2025-Q3"})
	if err != nil {
		t.Fatalf("CreateDraft: %v", err)
	}

	const racers = 2
	type outcome struct {
		res domainagg.SubmitResult
		err error
	}
	results := make(chan outcome, racers)
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			res, err := f.chain.Submit(ctx, domainagg.SubmitInput{SubmissionID: draft.ID, SubmittedBy: uuid.New()})
			results <- outcome{res: res, err: err}
		}()
	}
	close(start)
	wg.Wait()
	close(results)

	wins, notFound := 0, 0
	for r := range results {
		switch {
		case r.err == nil:
			wins++
			if r.res.NextDraft == nil || r.res.NextDraft.Version != 2 {
				t.Fatalf("winner must spawn version 2, got %+v", r.res.NextDraft)
			}
		case domainagg.IsCode(r.err, domainagg.CodeNotFound):
			notFound++
		default:
			t.Fatalf("unexpected submit error: %v", r.err)
		}
	}
	if wins != 1 || notFound != 1 {
		t.Fatalf("want 1 win + 1 not_found, got wins=%d not_found=%d", wins, notFound)
	}
	assertChainShape(t, f, orgID, "2025-Q3", 2)

	snaps, err := f.evidence.ListBySubmissionID(dbcOf(f.db), draft.ID)
	if err != nil {
		t.Fatalf("ListBySubmissionID: %v", err)
	}
	if len(snaps) != 2 {
		t.Fatalf("snapshots must be taken once, got %d", len(snaps))
	}
}

func TestSubmissionChain_SnapshotFailureRollsBackSubmit(t *testing.T) {
	orgID := uuid.New()
	var failing *aggtestutil.FailingSnapshotter
	f := newChainFixture(t, func(next aggregates.EvidenceSnapshotter) aggregates.EvidenceSnapshotter {
		failing = &aggtestutil.FailingSnapshotter{Next: next, FailFor: map[uuid.UUID]bool{orgID: true}}
		return failing
	}, nil)
	ctx := context.Background()
	testutil.SeedLiveEvidence(t, ctx, f.db, orgID, "2025-Q3", "risk", 2)

	draft, err := f.chain.CreateDraft(ctx, domainagg.CreateDraftInput{OrganizationID: orgID, PeriodID: "2025-Q3"})
	if err != nil {
		t.Fatalf("CreateDraft: %v", err)
	}
	_, err = f.chain.Submit(ctx, domainagg.SubmitInput{SubmissionID: draft.ID, SubmittedBy: uuid.New()})
	if err == nil {
		t.Fatalf("expected submit to fail")
	}
	if !errors.Is(err, aggtestutil.ErrInjectedSnapshot) {
		t.Fatalf("expected injected cause, got %v", err)
	}
	if failing.Calls != 1 {
		t.Fatalf("snapshotter calls: want=1 got=%d", failing.Calls)
	}

	history := assertChainShape(t, f, orgID, "2025-Q3", 1)
	if history[0].Status != types.SubmissionStatusDraft || history[0].SubmittedAt != nil || history[0].Completed {
		t.Fatalf("draft must be untouched after rollback: %+v", history[0])
	}
	snaps, err := f.evidence.ListBySubmissionID(dbcOf(f.db), draft.ID)
	if err != nil {
		t.Fatalf("ListBySubmissionID: %v", err)
	}
	if len(snaps) != 0 {
		t.Fatalf("no snapshots may survive rollback, got %d", len(snaps))
	}
}

func TestSubmissionChain_CommitFailureRollsBackSubmit(t *testing.T) {
	runner := &aggtestutil.InjectedTxRunner{}
	f := newChainFixture(t, nil, runner)
	runner.Delegate = aggregates.NewGormTxRunner(f.db)
	ctx := context.Background()
	orgID := uuid.New()
	testutil.SeedLiveEvidence(t, ctx, f.db, orgID, "2025-Q3", "risk", 1)

	draft, err := f.chain.CreateDraft(ctx, domainagg.CreateDraftInput{OrganizationID: orgID, PeriodID: "2025-Q3"})
	if err != nil {
		t.Fatalf("CreateDraft: %v", err)
	}

	runner.FailCommit = errors.New("connection reset during commit")
	_, err = f.chain.Submit(ctx, domainagg.SubmitInput{SubmissionID: draft.ID, SubmittedBy: uuid.New()})
	if err == nil {
		t.Fatalf("expected submit to fail")
	}
	if runner.RollbackCalls != 1 {
		t.Fatalf("rollback calls: want=1 got=%d", runner.RollbackCalls)
	}

	history := assertChainShape(t, f, orgID, "2025-Q3", 1)
	if history[0].Status != types.SubmissionStatusDraft {
		t.Fatalf("draft must survive failed commit, got %s", history[0].Status)
	}
	snaps, err := f.evidence.ListBySubmissionID(dbcOf(f.db), draft.ID)
	if err != nil {
		t.Fatalf("ListBySubmissionID: %v", err)
	}
	if len(snaps) != 0 {
		t.Fatalf("snapshots must roll back, got %d", len(snaps))
	}
}

func TestSubmissionChain_AutoSubmitStampsAutoFields(t *testing.T) {
	f := newChainFixture(t, nil, nil)
	ctx := context.Background()
	orgID := uuid.New()

	draft, err := f.chain.CreateDraft(ctx, domainagg.CreateDraftInput{OrganizationID: orgID, PeriodID: "2025-Q3"})
	if err != nil {
		t.Fatalf("CreateDraft: %v", err)
	}
	res, err := f.chain.Submit(ctx, domainagg.SubmitInput{SubmissionID: draft.ID, Auto: true})
	if err != nil {
		t.Fatalf("auto Submit: %v", err)
	}
	s := res.Submitted
	if s.AutoSubmittedAt == nil || s.AutoSubmittedBy != aggregates.AutoSubmitActorSystem {
		t.Fatalf("auto stamps missing: at=%v by=%q", s.AutoSubmittedAt, s.AutoSubmittedBy)
	}
	if s.SubmittedAt != nil || s.SubmittedBy != nil {
		t.Fatalf("auto submit must not stamp submitted_at/by")
	}
	if s.Status != types.SubmissionStatusSubmitted || !s.Completed {
		t.Fatalf("auto submit status: %s completed=%v", s.Status, s.Completed)
	}
	if len(f.hooks.StatusesFor("Submissions.Chain.AutoSubmit")) != 1 {
		t.Fatalf("auto submit must report under its own operation name")
	}
}

func TestSubmissionChain_ManualSubmitRequiresActor(t *testing.T) {
	f := newChainFixture(t, nil, nil)
	_, err := f.chain.Submit(context.Background(), domainagg.SubmitInput{SubmissionID: uuid.New()})
	if !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("want validation, got %v", err)
	}
}

func TestSubmissionChain_UpdateDraftResponses(t *testing.T) {
	f := newChainFixture(t, nil, nil)
	ctx := context.Background()
	orgID := uuid.New()

	draft, err := f.chain.CreateDraft(ctx, domainagg.CreateDraftInput{
		OrganizationID: orgID,
		PeriodID:       "2025-Q3",
		Responses:      types.Responses{"OP-1": {Value: "No"}},
	})
	if err != nil {
		t.Fatalf("CreateDraft: %v", err)
	}
	updated, err := f.chain.UpdateDraftResponses(ctx, domainagg.UpdateDraftResponsesInput{
		SubmissionID: draft.ID,
		Responses:    types.Responses{" OP-1 ": {Value: " Yes "}, "OP-2": {Value: "No"}},
	})
	if err != nil {
		t.Fatalf("UpdateDraftResponses: %v", err)
	}
	got := updated.Answers()
	if got["OP-1"].Value != "Yes" || got["OP-2"].Value != "No" || len(got) != 2 {
		t.Fatalf("responses not replaced: %+v", got)
	}
	if updated.Version != draft.Version {
		t.Fatalf("update must not create a version")
	}

	if _, err := f.chain.Submit(ctx, domainagg.SubmitInput{SubmissionID: draft.ID, SubmittedBy: uuid.New()}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	_, err = f.chain.UpdateDraftResponses(ctx, domainagg.UpdateDraftResponsesInput{
		SubmissionID: draft.ID,
		Responses:    types.Responses{"OP-1": {Value: "No"}},
	})
	if !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("update submitted: want not_found, got %v", err)
	}
	row, err := f.subs.GetByID(dbcOf(f.db), draft.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if row.Answers()["OP-1"].Value != "Yes" {
		t.Fatalf("submitted responses were rewritten")
	}
}

func TestSubmissionChain_LockOnlyFromSubmitted(t *testing.T) {
	f := newChainFixture(t, nil, nil)
	ctx := context.Background()
	orgID := uuid.New()

	draft, err := f.chain.CreateDraft(ctx, domainagg.CreateDraftInput{OrganizationID: orgID, PeriodID: "2025-Q3"})
	if err != nil {
		t.Fatalf("CreateDraft: %v", err)
	}
	_, err = f.chain.Lock(ctx, domainagg.LockInput{SubmissionID: draft.ID})
	if !domainagg.IsCode(err, domainagg.CodeInvariantViolation) {
		t.Fatalf("lock draft: want invariant_violation, got %v", err)
	}

	if _, err := f.chain.Submit(ctx, domainagg.SubmitInput{SubmissionID: draft.ID, SubmittedBy: uuid.New()}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	locked, err := f.chain.Lock(ctx, domainagg.LockInput{SubmissionID: draft.ID})
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}
	if locked.Status != types.SubmissionStatusLocked || !locked.Completed {
		t.Fatalf("lock result unexpected: %+v", locked)
	}
	_, err = f.chain.Lock(ctx, domainagg.LockInput{SubmissionID: draft.ID})
	if !domainagg.IsCode(err, domainagg.CodeInvariantViolation) {
		t.Fatalf("relock: want invariant_violation, got %v", err)
	}
	_, err = f.chain.Lock(ctx, domainagg.LockInput{SubmissionID: uuid.New()})
	if !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("lock unknown: want not_found, got %v", err)
	}
}
