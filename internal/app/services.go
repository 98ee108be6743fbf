package app

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/InfiniCruiser/ymca-backend/internal/data/aggregates"
	"github.com/InfiniCruiser/ymca-backend/internal/events"
	"github.com/InfiniCruiser/ymca-backend/internal/observability"
	"github.com/InfiniCruiser/ymca-backend/internal/platform/logger"
	"github.com/InfiniCruiser/ymca-backend/internal/platform/objectstore"
	"github.com/InfiniCruiser/ymca-backend/internal/scoring"
	"github.com/InfiniCruiser/ymca-backend/internal/services"
)

type Services struct {
	Submission  services.SubmissionService
	Performance services.PerformanceService
	Evidence    services.EvidenceService

	Events events.Publisher
	Store  objectstore.Store
}

func wireServices(ctx context.Context, db *gorm.DB, log *logger.Logger, cfg Config, metrics *observability.Metrics, reposet Repos) (Services, error) {
	log.Info("Wiring services...")

	scoringCfg, err := loadScoringConfig(log, cfg.ScoringConfigPath)
	if err != nil {
		return Services{}, err
	}

	pub, err := wireEvents(log, cfg)
	if err != nil {
		return Services{}, err
	}

	store, err := objectstore.New(ctx, log, cfg.ObjectStoreConfig())
	if err != nil {
		_ = pub.Close()
		return Services{}, fmt.Errorf("init object store: %w", err)
	}

	chain := aggregates.NewSubmissionChainAggregate(aggregates.SubmissionChainAggregateDeps{
		Base: aggregates.BaseDeps{
			DB:    db,
			Log:   log,
			Hooks: aggregates.NewObservabilityHooks(metrics, log),
		},
		Submissions: reposet.Submission,
		Snapshots:   aggregates.NewEvidenceSnapshotManager(reposet.EvidenceFile),
	})

	perf, err := services.NewPerformanceService(services.PerformanceServiceDeps{
		DB:           db,
		Log:          log,
		Submissions:  reposet.Submission,
		Calculations: reposet.PerformanceCalculation,
		Config:       scoringCfg,
		Events:       pub,
		Metrics:      metrics,
	})
	if err != nil {
		_ = pub.Close()
		return Services{}, err
	}

	submissions := services.NewSubmissionService(services.SubmissionServiceDeps{
		Log:                   log,
		Chain:                 chain,
		Submissions:           reposet.Submission,
		Performance:           perf,
		Events:                pub,
		Metrics:               metrics,
		AutoSubmitConcurrency: cfg.AutoSubmitConcurrency,
	})

	return Services{
		Submission:  submissions,
		Performance: perf,
		Evidence:    services.NewEvidenceService(db, log, reposet.EvidenceFile, store),
		Events:      pub,
		Store:       store,
	}, nil
}

func loadScoringConfig(log *logger.Logger, path string) (*scoring.Config, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		cfg, err := scoring.DefaultConfig()
		if err != nil {
			return nil, fmt.Errorf("load embedded scoring config: %w", err)
		}
		log.Info("Using embedded scoring config", "version", cfg.Version)
		return cfg, nil
	}
	cfg, err := scoring.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("load scoring config %s: %w", path, err)
	}
	log.Info("Loaded scoring config", "path", path, "version", cfg.Version)
	return cfg, nil
}

// wireEvents falls back to a no-op publisher when Redis is not configured.
func wireEvents(log *logger.Logger, cfg Config) (events.Publisher, error) {
	if strings.TrimSpace(cfg.RedisAddr) == "" {
		log.Info("REDIS_ADDR not set; domain events are dropped")
		return events.NewNoopPublisher(), nil
	}
	pub, err := events.NewRedisPublisher(log, cfg.RedisConfig())
	if err != nil {
		return nil, fmt.Errorf("init redis publisher: %w", err)
	}
	return pub, nil
}
