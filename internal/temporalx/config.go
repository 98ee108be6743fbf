package temporalx

import (
	"strings"
	"time"
)

type Config struct {
	Address   string
	Namespace string
	TaskQueue string

	ClientCertPath string
	ClientKeyPath  string
	ClientCAPath   string

	AutoRegisterNamespace bool
	NamespaceRetention    time.Duration

	DialTimeout    time.Duration
	DialMaxWait    time.Duration
	DialBackoff    time.Duration
	DialBackoffMax time.Duration

	WorkerConcurrency int
}

const (
	DefaultNamespace = "ysa"
	DefaultTaskQueue = "ysa-autosubmit"
)

// Enabled reports whether a Temporal frontend is configured.
func (c Config) Enabled() bool { return strings.TrimSpace(c.Address) != "" }

func (c Config) withDefaults() Config {
	c.Address = strings.TrimSpace(c.Address)
	c.Namespace = stringsOr(strings.TrimSpace(c.Namespace), DefaultNamespace)
	c.TaskQueue = stringsOr(strings.TrimSpace(c.TaskQueue), DefaultTaskQueue)
	if c.NamespaceRetention <= 0 {
		c.NamespaceRetention = 7 * 24 * time.Hour
	}
	if c.NamespaceRetention > 365*24*time.Hour {
		c.NamespaceRetention = 365 * 24 * time.Hour
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = 5 * time.Second
	}
	if c.DialMaxWait < 0 {
		c.DialMaxWait = 0
	}
	if c.DialBackoff <= 0 {
		c.DialBackoff = 250 * time.Millisecond
	}
	if c.DialBackoffMax <= 0 {
		c.DialBackoffMax = 5 * time.Second
	}
	if c.WorkerConcurrency < 1 {
		c.WorkerConcurrency = 4
	}
	return c
}

func (c Config) usesTLS() bool {
	return c.ClientCertPath != "" || c.ClientKeyPath != "" || c.ClientCAPath != ""
}

func stringsOr(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
