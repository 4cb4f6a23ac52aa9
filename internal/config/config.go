// Package config loads the optional project configuration from
// evolve/config.yaml. The file is validated against an embedded CUE
// schema before decoding, so a typoed key or an out-of-range threshold
// fails loudly instead of silently reverting to a default.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueyaml "cuelang.org/go/encoding/yaml"
	"gopkg.in/yaml.v3"

	"github.com/roach88/evolve/internal/audit"
)

//go:embed schema.cue
var schemaSource string

// Config is the decoded project configuration.
type Config struct {
	// PlatformFiles overrides the document path for a platform,
	// relative to the project root.
	PlatformFiles map[string]string `yaml:"platform_files"`

	// DocumentGlobs are the patterns scanned for existing managed
	// blocks during platform discovery.
	DocumentGlobs []string `yaml:"document_globs"`

	Thresholds Thresholds `yaml:"thresholds"`
	Health     Health     `yaml:"health"`
}

// Thresholds tune the health evaluator.
type Thresholds struct {
	// StaleDays is the review staleness window in days.
	StaleDays int `yaml:"stale_days"`

	// RulesMin and RulesMax bound the sane rule count.
	RulesMin int `yaml:"rules_min"`
	RulesMax int `yaml:"rules_max"`

	// ScopeConcentration is the maximum share of rules one scope may
	// hold before the distribution counts as over-concentrated.
	ScopeConcentration float64 `yaml:"scope_concentration"`

	// ReviewBacklog is the review-status count that flags a backlog.
	ReviewBacklog int `yaml:"review_backlog"`
}

// Health configures health-command exit behavior.
type Health struct {
	// FailUnder makes the health command exit non-zero when the
	// aggregate score drops below it. Zero disables the check.
	FailUnder float64 `yaml:"fail_under"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		DocumentGlobs: []string{"*.md"},
		Thresholds: Thresholds{
			StaleDays:          30,
			RulesMin:           5,
			RulesMax:           50,
			ScopeConcentration: 0.5,
			ReviewBacklog:      5,
		},
	}
}

// Load reads and validates the configuration at path. A missing file
// yields Default(). Schema violations are validation errors naming the
// CUE constraint that failed.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, audit.WrapIOError(err, "read %s", path)
	}
	return Parse(path, data)
}

// Parse validates raw YAML against the embedded schema and decodes it
// over the defaults.
func Parse(path string, data []byte) (Config, error) {
	if err := validate(path, data); err != nil {
		return Config{}, audit.NewValidationError("", "config", "%s: %v", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, audit.NewValidationError("", "config", "%s: %v", path, err)
	}
	if len(cfg.DocumentGlobs) == 0 {
		cfg.DocumentGlobs = Default().DocumentGlobs
	}
	return cfg, nil
}

func validate(path string, data []byte) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource).LookupPath(cue.ParsePath("#Config"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}

	file, err := cueyaml.Extract(path, data)
	if err != nil {
		return err
	}
	value := ctx.BuildFile(file)
	if err := value.Err(); err != nil {
		return err
	}

	return schema.Unify(value).Validate(cue.Concrete(true))
}
