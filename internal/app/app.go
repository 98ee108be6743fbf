package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	temporalsdkclient "go.temporal.io/sdk/client"
	"gorm.io/gorm"

	"github.com/InfiniCruiser/ymca-backend/internal/data/db"
	httpH "github.com/InfiniCruiser/ymca-backend/internal/http/handlers"
	"github.com/InfiniCruiser/ymca-backend/internal/observability"
	"github.com/InfiniCruiser/ymca-backend/internal/platform/logger"
	"github.com/InfiniCruiser/ymca-backend/internal/temporalx"
	"github.com/InfiniCruiser/ymca-backend/internal/temporalx/autosubmit"
	"github.com/InfiniCruiser/ymca-backend/internal/temporalx/temporalworker"

	server "github.com/InfiniCruiser/ymca-backend/internal/http"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Router   *gin.Engine
	Cfg      Config
	Repos    Repos
	Services Services
	Metrics  *observability.Metrics

	// Temporal is nil when TEMPORAL_ADDRESS is unset.
	Temporal temporalsdkclient.Client

	dbService    *db.Service
	server       *server.Server
	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

func New(ctx context.Context) (*App, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	a, err := build(ctx, log, cfg)
	if err != nil {
		log.Sync()
		return nil, err
	}
	return a, nil
}

func build(ctx context.Context, log *logger.Logger, cfg Config) (*App, error) {
	otelShutdown := observability.InitOTel(ctx, log, cfg.OtelConfig())
	metrics := observability.Init(log, cfg.MetricsEnabled)

	dbService, err := openDB(log, cfg)
	if err != nil {
		return nil, err
	}
	if err := dbService.AutoMigrateAll(); err != nil {
		_ = dbService.Close()
		return nil, fmt.Errorf("%s automigrate: %w", dbService.Driver(), err)
	}
	theDB := dbService.DB()

	reposet := wireRepos(theDB, log)
	serviceset, err := wireServices(ctx, theDB, log, cfg, metrics, reposet)
	if err != nil {
		_ = dbService.Close()
		return nil, err
	}

	tc, err := temporalx.NewClient(log, cfg.TemporalConfig())
	if err != nil {
		_ = serviceset.Events.Close()
		_ = dbService.Close()
		return nil, fmt.Errorf("init temporal client: %w", err)
	}
	var autoSubmit httpH.AutoSubmitter
	if tc != nil {
		autoSubmit = &autosubmit.Runner{Client: tc, TaskQueue: cfg.TemporalConfig().TaskQueue}
	}

	handlerset := wireHandlers(log, serviceset, autoSubmit)
	srv := server.NewServer(server.RouterConfig{
		Log:                log,
		Metrics:            metrics,
		ServiceName:        cfg.ServiceName,
		CORSOrigins:        cfg.CORSOrigins,
		SubmissionHandler:  handlerset.Submission,
		PerformanceHandler: handlerset.Performance,
		EvidenceHandler:    handlerset.Evidence,
		HealthHandler:      handlerset.Health,
	})

	return &App{
		Log:          log,
		DB:           theDB,
		Router:       srv.Engine,
		Cfg:          cfg,
		Repos:        reposet,
		Services:     serviceset,
		Metrics:      metrics,
		Temporal:     tc,
		dbService:    dbService,
		server:       srv,
		otelShutdown: otelShutdown,
	}, nil
}

func openDB(log *logger.Logger, cfg Config) (*db.Service, error) {
	switch cfg.DBDriver {
	case "sqlite":
		svc, err := db.NewSQLiteService(log, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("init sqlite: %w", err)
		}
		return svc, nil
	default:
		svc, err := db.NewPostgresService(log, cfg.PostgresConfig())
		if err != nil {
			return nil, fmt.Errorf("init postgres: %w", err)
		}
		return svc, nil
	}
}

// Start launches background work: the metrics listener and, when Temporal is
// configured, the auto-submit worker.
func (a *App) Start(ctx context.Context) error {
	if a == nil || a.cancel != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	if a.Metrics != nil && a.Cfg.MetricsAddr != "" {
		a.Metrics.StartServer(ctx, a.Log, a.Cfg.MetricsAddr)
	}
	if a.Temporal != nil && a.Cfg.Temporal.RunWorker {
		runner, err := temporalworker.NewRunner(a.Log, a.Cfg.TemporalConfig(), a.Temporal, a.Services.Submission)
		if err != nil {
			return err
		}
		if err := runner.Start(ctx); err != nil {
			return fmt.Errorf("start temporal worker: %w", err)
		}
	}
	return nil
}

// Run serves HTTP until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.server == nil {
		return fmt.Errorf("app not initialized")
	}
	return a.server.Run(ctx, ":"+a.Cfg.Port)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.Temporal != nil {
		a.Temporal.Close()
	}
	if a.Services.Events != nil {
		if err := a.Services.Events.Close(); err != nil {
			a.Log.Warn("event publisher close failed", "error", err)
		}
	}
	if a.dbService != nil {
		if err := a.dbService.Close(); err != nil {
			a.Log.Warn("database close failed", "error", err)
		}
	}
	if a.otelShutdown != nil {
		if err := a.otelShutdown(context.Background()); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
