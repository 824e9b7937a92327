package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigAppliesDefaultsAndOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "complianced.yaml")
	if err := os.WriteFile(path, []byte("state_dir: /opt/complianced\npoll_interval: 30\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.StateDir != "/opt/complianced" {
		t.Fatalf("expected state_dir override, got %s", cfg.StateDir)
	}
	if cfg.PollInterval != 30 {
		t.Fatalf("expected poll_interval 30, got %d", cfg.PollInterval)
	}
	if cfg.MaxConcurrentAssessments != 8 {
		t.Fatalf("expected default max_concurrent_assessments 8, got %d", cfg.MaxConcurrentAssessments)
	}
}

func TestLoadConfigClampsPollInterval(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "complianced.yaml")
	if err := os.WriteFile(path, []byte("poll_interval: 1\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.PollInterval != 5 {
		t.Fatalf("expected poll_interval clamped to 5, got %d", cfg.PollInterval)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig("/nonexistent/path.yaml"); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestExpectedStateDirJoinsStateDir(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StateDir = "/var/lib/complianced"
	if got := cfg.ExpectedStateDir(); got != "/var/lib/complianced/expected-state" {
		t.Fatalf("unexpected expected state dir: %s", got)
	}
}
