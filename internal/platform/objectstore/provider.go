package objectstore

import (
	"context"
	"fmt"

	"github.com/InfiniCruiser/ymca-backend/internal/platform/logger"
)

type Config struct {
	Backend Backend
	S3      S3Config
	GCS     GCSConfig
}

// New selects the backend named by cfg.Backend.
func New(ctx context.Context, log *logger.Logger, cfg Config) (Store, error) {
	switch cfg.Backend {
	case BackendS3:
		return NewS3Store(ctx, log, cfg.S3)
	case BackendGCS:
		return NewGCSStore(ctx, log, cfg.GCS)
	case BackendMemory:
		log.Warn("Object storage is in-memory; evidence bodies are lost on restart")
		return NewMemory(), nil
	case BackendNone, "":
		log.Info("Object storage disabled; evidence bodies are discarded", "backend", BackendNone)
		return NewDiscard(), nil
	default:
		return nil, fmt.Errorf("unsupported object storage backend %q", cfg.Backend)
	}
}
