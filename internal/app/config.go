package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/InfiniCruiser/ymca-backend/internal/data/db"
	"github.com/InfiniCruiser/ymca-backend/internal/events"
	"github.com/InfiniCruiser/ymca-backend/internal/observability"
	"github.com/InfiniCruiser/ymca-backend/internal/platform/objectstore"
	"github.com/InfiniCruiser/ymca-backend/internal/temporalx"
)

type PostgresEnv struct {
	Host     string `env:"HOST" envDefault:"localhost"`
	Port     string `env:"PORT" envDefault:"5432"`
	User     string `env:"USER" envDefault:"postgres"`
	Password string `env:"PASSWORD"`
	Name     string `env:"NAME" envDefault:"ysa"`
	SSLMode  string `env:"SSLMODE" envDefault:"disable"`
}

type TemporalEnv struct {
	Address               string        `env:"ADDRESS"`
	Namespace             string        `env:"NAMESPACE" envDefault:"ysa"`
	TaskQueue             string        `env:"TASK_QUEUE" envDefault:"ysa-autosubmit"`
	ClientCertPath        string        `env:"CLIENT_CERT"`
	ClientKeyPath         string        `env:"CLIENT_KEY"`
	ClientCAPath          string        `env:"CLIENT_CA"`
	AutoRegisterNamespace bool          `env:"AUTO_REGISTER_NAMESPACE"`
	NamespaceRetention    time.Duration `env:"NAMESPACE_RETENTION" envDefault:"168h"`
	DialTimeout           time.Duration `env:"DIAL_TIMEOUT" envDefault:"5s"`
	DialMaxWait           time.Duration `env:"DIAL_MAX_WAIT" envDefault:"30s"`
	WorkerConcurrency     int           `env:"WORKER_CONCURRENCY" envDefault:"4"`
	RunWorker             bool          `env:"RUN_WORKER" envDefault:"true"`
}

type OtelEnv struct {
	Enabled     bool    `env:"ENABLED"`
	Endpoint    string  `env:"EXPORTER_OTLP_ENDPOINT"`
	Headers     string  `env:"EXPORTER_OTLP_HEADERS"`
	Insecure    bool    `env:"EXPORTER_OTLP_INSECURE"`
	SampleRatio float64 `env:"SAMPLE_RATIO" envDefault:"1"`
}

type Config struct {
	LogMode     string   `env:"LOG_MODE" envDefault:"development"`
	Environment string   `env:"APP_ENV" envDefault:"local"`
	Version     string   `env:"APP_VERSION"`
	Port        string   `env:"PORT" envDefault:"8080"`
	ServiceName string   `env:"SERVICE_NAME" envDefault:"ymca-backend"`
	CORSOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`

	DBDriver   string      `env:"DB_DRIVER" envDefault:"postgres"`
	Postgres   PostgresEnv `envPrefix:"POSTGRES_"`
	SQLitePath string      `env:"SQLITE_PATH" envDefault:"ysa.db"`

	ScoringConfigPath string `env:"SCORING_CONFIG_PATH"`

	EvidenceStorage    string `env:"EVIDENCE_STORAGE" envDefault:"none"`
	EvidenceBucket     string `env:"EVIDENCE_BUCKET"`
	EvidencePrefix     string `env:"EVIDENCE_PREFIX"`
	S3Region           string `env:"S3_REGION"`
	S3Endpoint         string `env:"S3_ENDPOINT"`
	GCSEmulatorHost    string `env:"STORAGE_EMULATOR_HOST"`
	GCSCredentialsJSON string `env:"GCS_CREDENTIALS_JSON"`
	GCSCredentialsFile string `env:"GOOGLE_APPLICATION_CREDENTIALS"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	RedisChannel  string `env:"REDIS_CHANNEL" envDefault:"ysa.events"`

	Temporal TemporalEnv `envPrefix:"TEMPORAL_"`
	Otel     OtelEnv     `envPrefix:"OTEL_"`

	MetricsEnabled bool   `env:"METRICS_ENABLED"`
	MetricsAddr    string `env:"METRICS_ADDR"`

	AutoSubmitConcurrency int `env:"AUTO_SUBMIT_CONCURRENCY" envDefault:"4"`
}

// LoadConfig parses the process environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfigFrom parses vars instead of the process environment.
func LoadConfigFrom(vars map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: vars}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	c.DBDriver = strings.ToLower(strings.TrimSpace(c.DBDriver))
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if _, err := objectstore.ParseBackend(c.EvidenceStorage); err != nil {
		return err
	}
	if c.AutoSubmitConcurrency < 1 {
		return fmt.Errorf("AUTO_SUBMIT_CONCURRENCY must be positive, got %d", c.AutoSubmitConcurrency)
	}
	return nil
}

func (c Config) PostgresConfig() db.PostgresConfig {
	return db.PostgresConfig{
		Host:     c.Postgres.Host,
		Port:     c.Postgres.Port,
		User:     c.Postgres.User,
		Password: c.Postgres.Password,
		Name:     c.Postgres.Name,
		SSLMode:  c.Postgres.SSLMode,
	}
}

func (c Config) ObjectStoreConfig() objectstore.Config {
	backend, _ := objectstore.ParseBackend(c.EvidenceStorage)
	return objectstore.Config{
		Backend: backend,
		S3: objectstore.S3Config{
			Bucket:   c.EvidenceBucket,
			Region:   c.S3Region,
			Endpoint: c.S3Endpoint,
			Prefix:   c.EvidencePrefix,
		},
		GCS: objectstore.GCSConfig{
			Bucket:          c.EvidenceBucket,
			EmulatorHost:    c.GCSEmulatorHost,
			CredentialsJSON: c.GCSCredentialsJSON,
			CredentialsFile: c.GCSCredentialsFile,
		},
	}
}

func (c Config) RedisConfig() events.RedisConfig {
	return events.RedisConfig{
		Addr:     c.RedisAddr,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
		Channel:  c.RedisChannel,
	}
}

func (c Config) TemporalConfig() temporalx.Config {
	return temporalx.Config{
		Address:               c.Temporal.Address,
		Namespace:             c.Temporal.Namespace,
		TaskQueue:             c.Temporal.TaskQueue,
		ClientCertPath:        c.Temporal.ClientCertPath,
		ClientKeyPath:         c.Temporal.ClientKeyPath,
		ClientCAPath:          c.Temporal.ClientCAPath,
		AutoRegisterNamespace: c.Temporal.AutoRegisterNamespace,
		NamespaceRetention:    c.Temporal.NamespaceRetention,
		DialTimeout:           c.Temporal.DialTimeout,
		DialMaxWait:           c.Temporal.DialMaxWait,
		WorkerConcurrency:     c.Temporal.WorkerConcurrency,
	}
}

func (c Config) OtelConfig() observability.OtelConfig {
	return observability.OtelConfig{
		Enabled:     c.Otel.Enabled,
		ServiceName: c.ServiceName,
		Environment: c.Environment,
		Version:     c.Version,
		Endpoint:    c.Otel.Endpoint,
		Headers:     observability.ParseHeaders(c.Otel.Headers),
		Insecure:    c.Otel.Insecure,
		SampleRatio: c.Otel.SampleRatio,
	}
}
