package scoring

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg, err := DefaultConfig()
	if err != nil {
		t.Fatalf("DefaultConfig: %v", err)
	}
	if cfg.Version == "" {
		t.Fatalf("default config needs a version")
	}
	if len(cfg.Operational) != 6 || len(cfg.Financial) != 5 {
		t.Fatalf("default config: want 6 operational + 5 financial, got %d + %d", len(cfg.Operational), len(cfg.Financial))
	}
	if cfg.MaxPoints(AxisOperational) != 40 || cfg.MaxPoints(AxisFinancial) != 40 {
		t.Fatalf("axis max points: op=%d fin=%d", cfg.MaxPoints(AxisOperational), cfg.MaxPoints(AxisFinancial))
	}
}

func TestParseConfig_Rejects(t *testing.T) {
	tests := map[string]string{
		"missing version": `
operational:
  - {id: a, max_points: 4, questions: [Q1]}
`,
		"no operational": `
version: "1"
financial:
  - {id: f, max_points: 4, questions: [Q1]}
`,
		"duplicate category": `
version: "1"
operational:
  - {id: a, max_points: 4, questions: [Q1]}
  - {id: a, max_points: 4, questions: [Q2]}
`,
		"zero max points": `
version: "1"
operational:
  - {id: a, max_points: 0, questions: [Q1]}
`,
		"shared question": `
version: "1"
operational:
  - {id: a, max_points: 4, questions: [Q1]}
financial:
  - {id: f, max_points: 4, questions: [Q1]}
`,
		"bad yaml": `version: [`,
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseConfig([]byte(doc))
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("want ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestLoadConfig_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scoring.yaml")
	doc := `
version: " custom-1 "
operational:
  - id: governance
    max_points: 12
    questions: [" GV-1 ", "", GV-2]
`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Version != "custom-1" {
		t.Fatalf("version not trimmed: %q", cfg.Version)
	}
	qs := cfg.Operational[0].QuestionIDs
	if len(qs) != 2 || qs[0] != "GV-1" || qs[1] != "GV-2" {
		t.Fatalf("questions not normalized: %q", qs)
	}

	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
	if cfg, err := LoadConfig(""); err != nil || len(cfg.Operational) != 6 {
		t.Fatalf("empty path must load default: cfg=%v err=%v", cfg, err)
	}
}
