package app

import (
	"testing"
	"time"

	"github.com/InfiniCruiser/ymca-backend/internal/platform/objectstore"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfigFrom(map[string]string{})
	if err != nil {
		t.Fatalf("LoadConfigFrom: %v", err)
	}
	if cfg.Port != "8080" || cfg.DBDriver != "postgres" || cfg.AutoSubmitConcurrency != 4 {
		t.Fatalf("unexpected defaults: port=%q driver=%q concurrency=%d", cfg.Port, cfg.DBDriver, cfg.AutoSubmitConcurrency)
	}
	if cfg.Temporal.TaskQueue != "ysa-autosubmit" || cfg.Temporal.NamespaceRetention != 168*time.Hour {
		t.Fatalf("unexpected temporal defaults: %+v", cfg.Temporal)
	}
	if cfg.TemporalConfig().Enabled() {
		t.Fatalf("temporal should be disabled without an address")
	}
	if got := cfg.ObjectStoreConfig().Backend; got != objectstore.BackendNone {
		t.Fatalf("default backend: got %q", got)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	cfg, err := LoadConfigFrom(map[string]string{
		"DB_DRIVER":                  "SQLite",
		"SQLITE_PATH":                "/tmp/ysa.db",
		"EVIDENCE_STORAGE":           "s3",
		"EVIDENCE_BUCKET":            "ysa-evidence",
		"S3_REGION":                  "us-east-2",
		"POSTGRES_HOST":              "db.internal",
		"TEMPORAL_ADDRESS":           "temporal:7233",
		"TEMPORAL_DIAL_TIMEOUT":      "2s",
		"CORS_ALLOWED_ORIGINS":       "https://a.example.org,https://b.example.org",
		"OTEL_EXPORTER_OTLP_HEADERS": "x-api-key=abc",
		"AUTO_SUBMIT_CONCURRENCY":    "8",
	})
	if err != nil {
		t.Fatalf("LoadConfigFrom: %v", err)
	}
	if cfg.DBDriver != "sqlite" || cfg.SQLitePath != "/tmp/ysa.db" {
		t.Fatalf("db config: %q %q", cfg.DBDriver, cfg.SQLitePath)
	}
	if cfg.PostgresConfig().Host != "db.internal" {
		t.Fatalf("postgres host: %q", cfg.PostgresConfig().Host)
	}
	store := cfg.ObjectStoreConfig()
	if store.Backend != objectstore.BackendS3 || store.S3.Bucket != "ysa-evidence" || store.S3.Region != "us-east-2" {
		t.Fatalf("object store config: %+v", store)
	}
	tc := cfg.TemporalConfig()
	if !tc.Enabled() || tc.DialTimeout != 2*time.Second {
		t.Fatalf("temporal config: %+v", tc)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example.org" {
		t.Fatalf("cors origins: %v", cfg.CORSOrigins)
	}
	if cfg.OtelConfig().Headers["x-api-key"] != "abc" {
		t.Fatalf("otel headers: %v", cfg.OtelConfig().Headers)
	}
	if cfg.AutoSubmitConcurrency != 8 {
		t.Fatalf("concurrency: %d", cfg.AutoSubmitConcurrency)
	}
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	cases := map[string]map[string]string{
		"driver":       {"DB_DRIVER": "mysql"},
		"storage":      {"EVIDENCE_STORAGE": "ftp"},
		"concurrency":  {"AUTO_SUBMIT_CONCURRENCY": "0"},
		"not a number": {"AUTO_SUBMIT_CONCURRENCY": "many"},
	}
	for name, vars := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadConfigFrom(vars); err == nil {
				t.Fatalf("expected error for %v", vars)
			}
		})
	}
}

func TestLoadScoringConfigFallsBackToEmbedded(t *testing.T) {
	cfg, err := loadScoringConfig(testLogger(t), "")
	if err != nil {
		t.Fatalf("loadScoringConfig: %v", err)
	}
	if cfg.Version == "" {
		t.Fatalf("embedded config has no version")
	}
	if _, err := loadScoringConfig(testLogger(t), "/nonexistent/scoring.yaml"); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
