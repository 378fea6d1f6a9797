package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestValidateRejectsEmptyTarget(t *testing.T) {
	cfg := Default()
	cfg.TargetIP = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for empty target_ip")
	}
}

func TestValidateRejectsNonPositiveInterval(t *testing.T) {
	cfg := Default()
	cfg.Interval = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for zero interval")
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pathwatch.yaml")
	contents := "target_ip: 8.8.8.8\ninterval: 2s\nalerting:\n  high_latency_threshold_ms: 250\n"
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.TargetIP != "8.8.8.8" {
		t.Errorf("target_ip = %q, want 8.8.8.8", cfg.TargetIP)
	}
	if cfg.Interval != 2*time.Second {
		t.Errorf("interval = %v, want 2s", cfg.Interval)
	}
	if cfg.Alerting.HighLatencyThresholdMs != 250 {
		t.Errorf("high_latency_threshold_ms = %v, want 250", cfg.Alerting.HighLatencyThresholdMs)
	}
	// Fields not present in the file keep their default value.
	if cfg.WindowSize != 1800 {
		t.Errorf("window_size = %v, want default 1800", cfg.WindowSize)
	}
}

func TestApplyEnvOverridesTargetIP(t *testing.T) {
	t.Setenv("PATHWATCH_TARGET_IP", "9.9.9.9")
	cfg := Default()
	cfg.ApplyEnv()
	if cfg.TargetIP != "9.9.9.9" {
		t.Errorf("target_ip = %q, want 9.9.9.9", cfg.TargetIP)
	}
}
