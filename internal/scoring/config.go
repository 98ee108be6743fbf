package scoring

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultConfigYAML []byte

// Axis groups categories; the percentage score is driven by the operational axis.
type Axis string

const (
	AxisOperational Axis = "operational"
	AxisFinancial   Axis = "financial"
)

type Category struct {
	ID          string   `yaml:"id" json:"id"`
	Name        string   `yaml:"name" json:"name"`
	MaxPoints   int      `yaml:"max_points" json:"max_points"`
	QuestionIDs []string `yaml:"questions" json:"questions"`
}

// Config is the versioned category -> questions -> max points mapping.
// Category order is preserved in results.
type Config struct {
	Version     string     `yaml:"version" json:"version"`
	Operational []Category `yaml:"operational" json:"operational"`
	Financial   []Category `yaml:"financial" json:"financial"`
}

var ErrInvalidConfig = errors.New("invalid scoring config")

// DefaultConfig returns the embedded configuration.
func DefaultConfig() (*Config, error) {
	return ParseConfig(defaultConfigYAML)
}

// LoadConfig reads a YAML file; an empty path yields DefaultConfig.
func LoadConfig(path string) (*Config, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return DefaultConfig()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scoring config %s: %w", path, err)
	}
	return ParseConfig(b)
}

func ParseConfig(b []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() {
	c.Version = strings.TrimSpace(c.Version)
	for _, cats := range [][]Category{c.Operational, c.Financial} {
		for i := range cats {
			cats[i].ID = strings.TrimSpace(cats[i].ID)
			cats[i].Name = strings.TrimSpace(cats[i].Name)
			qs := cats[i].QuestionIDs[:0]
			for _, q := range cats[i].QuestionIDs {
				if q = strings.TrimSpace(q); q != "" {
					qs = append(qs, q)
				}
			}
			cats[i].QuestionIDs = qs
		}
	}
}

// Validate requires a version, at least one operational category, unique category
// ids, positive max points and no question shared between categories.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: nil config", ErrInvalidConfig)
	}
	var problems []string
	if c.Version == "" {
		problems = append(problems, "missing version")
	}
	if len(c.Operational) == 0 {
		problems = append(problems, "no operational categories")
	}
	categories := map[string]bool{}
	questions := map[string]string{}
	for _, cat := range c.Categories() {
		switch {
		case cat.ID == "":
			problems = append(problems, "category with empty id")
			continue
		case categories[cat.ID]:
			problems = append(problems, fmt.Sprintf("duplicate category %q", cat.ID))
		}
		categories[cat.ID] = true
		if cat.MaxPoints <= 0 {
			problems = append(problems, fmt.Sprintf("category %q max_points must be > 0", cat.ID))
		}
		for _, q := range cat.QuestionIDs {
			if owner, ok := questions[q]; ok && owner != cat.ID {
				problems = append(problems, fmt.Sprintf("question %q in both %q and %q", q, owner, cat.ID))
			}
			questions[q] = cat.ID
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// Categories returns operational then financial categories.
func (c *Config) Categories() []Category {
	out := make([]Category, 0, len(c.Operational)+len(c.Financial))
	out = append(out, c.Operational...)
	return append(out, c.Financial...)
}

func (c *Config) MaxPoints(axis Axis) int {
	cats := c.Operational
	if axis == AxisFinancial {
		cats = c.Financial
	}
	total := 0
	for _, cat := range cats {
		total += cat.MaxPoints
	}
	return total
}
