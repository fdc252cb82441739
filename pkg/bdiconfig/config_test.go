package bdiconfig

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected default config to validate, got %v", err)
	}
}

func TestLoadAppliesDefaultsAndOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bdi.yaml")
	contents := "step_limit: 500\nmemory_arena_bytes: 4096\nlog_level: debug\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("unexpected error writing fixture: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.StepLimit != 500 || cfg.MemoryArenaBytes != 4096 {
		t.Fatalf("expected overrides applied, got %+v", cfg)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("expected log_level debug, got %q", cfg.LogLevel)
	}
	if cfg.FoldingMaxIterations != 10 {
		t.Fatalf("expected folding_max_iterations default of 10, got %d", cfg.FoldingMaxIterations)
	}
}

func TestLoadRejectsMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/path/bdi.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestValidateRejectsZeroStepLimit(t *testing.T) {
	cfg := Default()
	cfg.StepLimit = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for zero step_limit")
	}
}

func TestValidateRejectsBadLogLevel(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "verbose"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for unrecognized log_level")
	}
}

func TestValidateRejectsBigEndianWithoutOptIn(t *testing.T) {
	cfg := Default()
	cfg.LittleEndian = false
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for big_endian without allow_big_endian")
	}
	cfg.AllowBigEndian = true
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected no error once allow_big_endian is set, got %v", err)
	}
}
