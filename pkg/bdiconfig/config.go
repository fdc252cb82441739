// Package bdiconfig loads and validates the interpreter's runtime
// configuration, modeled on the teacher's cluster YAML config loader
// (gopkg.in/yaml.v3) combined with its pkg/validation struct-tag
// validation (github.com/go-playground/validator/v10).
package bdiconfig

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the interpreter and memory manager's runtime configuration.
type Config struct {
	// StepLimit bounds a single Run call's fetch/decode/execute steps.
	StepLimit uint64 `yaml:"step_limit" validate:"required,min=1"`

	// MemoryArenaBytes sizes the memory manager's flat byte arena.
	MemoryArenaBytes uint64 `yaml:"memory_arena_bytes" validate:"required,min=64"`

	// LittleEndian records the configured target byte order. Only Validate
	// reads it: false is rejected unless AllowBigEndian is also set.
	// pkg/codec and pkg/graphio always encode little-endian regardless of
	// this field.
	LittleEndian bool `yaml:"little_endian"`

	// AllowBigEndian permits LittleEndian=false to pass validation.
	AllowBigEndian bool `yaml:"allow_big_endian"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`

	// MetricsEnabled is loaded and stored only; nothing in this module reads
	// it, and Prometheus collectors are registered either way.
	MetricsEnabled bool `yaml:"metrics_enabled"`

	// FoldingMaxIterations is validated and stored only; the constant-folding
	// pass is bounded by its own optimize.MaxIterations and does not read it.
	FoldingMaxIterations int `yaml:"folding_max_iterations" validate:"omitempty,min=1,max=100"`
}

// Default returns a Config with spec-mandated defaults: a 64k-byte arena,
// a million-step limit, little-endian encoding, info logging, and the
// folding pass's MAX_ITER of 10.
func Default() *Config {
	return &Config{
		StepLimit:             1_000_000,
		MemoryArenaBytes:      65536,
		LittleEndian:          true,
		LogLevel:              "info",
		MetricsEnabled:        true,
		FoldingMaxIterations:  10,
	}
}

var validate = validator.New()

// Load reads a YAML config file from path over Default(), so keys absent
// from the file keep their default values (a key set explicitly to a zero
// value keeps that zero, except folding_max_iterations, whose 0 is reset
// to 10), and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("bdiconfig: read %s: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("bdiconfig: parse %s: %w", path, err)
	}
	if cfg.FoldingMaxIterations == 0 {
		cfg.FoldingMaxIterations = 10
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate runs struct-tag validation plus the cross-field little-endian
// rule that validator tags can't express directly.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return formatValidationError(err)
	}
	if !c.LittleEndian && !c.AllowBigEndian {
		return fmt.Errorf("bdiconfig: little_endian=false requires allow_big_endian=true")
	}
	return nil
}

func formatValidationError(err error) error {
	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	for _, e := range validationErrs {
		return fmt.Errorf("bdiconfig: %s: failed %q constraint", e.Field(), e.Tag())
	}
	return err
}
