package services

import (
	"testing"

	"gorm.io/gorm"

	"github.com/InfiniCruiser/ymca-backend/internal/data/aggregates"
	"github.com/InfiniCruiser/ymca-backend/internal/data/repos"
	"github.com/InfiniCruiser/ymca-backend/internal/data/repos/testutil"
	types "github.com/InfiniCruiser/ymca-backend/internal/domain"
	"github.com/InfiniCruiser/ymca-backend/internal/events"
	"github.com/InfiniCruiser/ymca-backend/internal/platform/objectstore"
	"github.com/InfiniCruiser/ymca-backend/internal/scoring"
)

type serviceFixture struct {
	db           *gorm.DB
	subs         repos.SubmissionRepo
	evidenceRepo repos.EvidenceFileRepo
	calcs        repos.PerformanceCalculationRepo
	events       *events.Recorder
	store        *objectstore.Memory
	cfg          *scoring.Config

	submissions SubmissionService
	performance PerformanceService
	evidence    EvidenceService
}

// newServiceFixture wires the services over a fresh database. wrap, when set,
// decorates the evidence snapshotter used by the chain.
func newServiceFixture(t *testing.T, wrap func(aggregates.EvidenceSnapshotter) aggregates.EvidenceSnapshotter) serviceFixture {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)

	subs := repos.NewSubmissionRepo(db, log)
	evidenceRepo := repos.NewEvidenceFileRepo(db, log)
	calcs := repos.NewPerformanceCalculationRepo(db, log)

	var snap aggregates.EvidenceSnapshotter = aggregates.NewEvidenceSnapshotManager(evidenceRepo)
	if wrap != nil {
		snap = wrap(snap)
	}
	chain := aggregates.NewSubmissionChainAggregate(aggregates.SubmissionChainAggregateDeps{
		Base:        aggregates.BaseDeps{DB: db, Log: log},
		Submissions: subs,
		Snapshots:   snap,
	})

	cfg, err := scoring.DefaultConfig()
	if err != nil {
		t.Fatalf("DefaultConfig: %v", err)
	}
	rec := &events.Recorder{}
	perf, err := NewPerformanceService(PerformanceServiceDeps{
		DB:           db,
		Log:          log,
		Submissions:  subs,
		Calculations: calcs,
		Config:       cfg,
		Events:       rec,
	})
	if err != nil {
		t.Fatalf("NewPerformanceService: %v", err)
	}
	store := objectstore.NewMemory()

	return serviceFixture{
		db:           db,
		subs:         subs,
		evidenceRepo: evidenceRepo,
		calcs:        calcs,
		events:       rec,
		store:        store,
		cfg:          cfg,
		submissions: NewSubmissionService(SubmissionServiceDeps{
			Log:                   log,
			Chain:                 chain,
			Submissions:           subs,
			Performance:           perf,
			Events:                rec,
			AutoSubmitConcurrency: 2,
		}),
		performance: perf,
		evidence:    NewEvidenceService(db, log, evidenceRepo, store),
	}
}

// allOperationalYes answers every operational question "Yes" and leaves financial blank.
func allOperationalYes(cfg *scoring.Config) types.Responses {
	r := types.Responses{}
	for _, c := range cfg.Operational {
		for _, q := range c.QuestionIDs {
			r[q] = types.Answer{Value: "Yes"}
		}
	}
	return r
}
