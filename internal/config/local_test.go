package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestParleyDir(t *testing.T) {
	dir, err := ParleyDir()
	if err != nil {
		t.Fatalf("ParleyDir() error = %v", err)
	}
	if filepath.Base(dir) != ".parley" {
		t.Errorf("ParleyDir() = %q, want ending with .parley", dir)
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ParleyDir() = %q, want absolute path", dir)
	}
}

func TestEnsureParleyDir(t *testing.T) {
	tmpHome := t.TempDir()
	t.Setenv("HOME", tmpHome)

	dir, err := EnsureParleyDir()
	if err != nil {
		t.Fatalf("EnsureParleyDir() error = %v", err)
	}

	expectedDir := filepath.Join(tmpHome, ".parley")
	if dir != expectedDir {
		t.Errorf("EnsureParleyDir() = %q, want %q", dir, expectedDir)
	}
	for _, subdir := range []string{"logs", "exports"} {
		if _, err := os.Stat(filepath.Join(dir, subdir)); os.IsNotExist(err) {
			t.Errorf("EnsureParleyDir() should create %s", subdir)
		}
	}
}

func TestDefaultLocalConfig(t *testing.T) {
	cfg := DefaultLocalConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate, got %v", err)
	}
	if cfg.Daemon.Bind != "127.0.0.1" {
		t.Errorf("Daemon.Bind = %q, want 127.0.0.1", cfg.Daemon.Bind)
	}
	if cfg.Engine.WindowSize != 5 {
		t.Errorf("Engine.WindowSize = %d, want 5", cfg.Engine.WindowSize)
	}
	if cfg.Engine.Thresholds.FeedbackRatio != 0.6 {
		t.Errorf("FeedbackRatio = %v, want 0.6", cfg.Engine.Thresholds.FeedbackRatio)
	}
	if cfg.Storage.Driver != "sqlite" {
		t.Errorf("Storage.Driver = %q, want sqlite", cfg.Storage.Driver)
	}
}

func TestLoadLocalConfig_MissingReturnsDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := LoadLocalConfig()
	if err != nil {
		t.Fatalf("LoadLocalConfig() error = %v", err)
	}
	if cfg.Daemon.Port != DefaultLocalConfig().Daemon.Port {
		t.Errorf("Daemon.Port = %d, want default", cfg.Daemon.Port)
	}
}

func TestLoadLocalConfigFrom_PartialOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
daemon:
  port: 9000
engine:
  window_size: 8
  thresholds:
    feedback_ratio: 0.75
scheduler:
  interval: 30m
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadLocalConfigFrom(path)
	if err != nil {
		t.Fatalf("LoadLocalConfigFrom() error = %v", err)
	}
	if cfg.Daemon.Port != 9000 {
		t.Errorf("Daemon.Port = %d, want 9000", cfg.Daemon.Port)
	}
	if cfg.Daemon.Bind != "127.0.0.1" {
		t.Errorf("Daemon.Bind = %q, want default kept", cfg.Daemon.Bind)
	}
	if cfg.Engine.WindowSize != 8 {
		t.Errorf("Engine.WindowSize = %d, want 8", cfg.Engine.WindowSize)
	}
	if cfg.Engine.Thresholds.FeedbackRatio != 0.75 {
		t.Errorf("FeedbackRatio = %v, want 0.75", cfg.Engine.Thresholds.FeedbackRatio)
	}
	if cfg.Engine.Thresholds.StrongComprehension != 85 {
		t.Errorf("StrongComprehension = %v, want default 85", cfg.Engine.Thresholds.StrongComprehension)
	}
	if cfg.Scheduler.Interval != 30*time.Minute {
		t.Errorf("Scheduler.Interval = %v, want 30m", cfg.Scheduler.Interval)
	}
}

func TestLoadLocalConfigFrom_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "storage:\n  driver: postgres\nengine:\n  metrics_policy: shrug\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadLocalConfigFrom(path)
	if err == nil {
		t.Fatal("LoadLocalConfigFrom() should reject invalid config")
	}
	for _, want := range []string{"postgres_url", "metrics_policy"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q should mention %s", err, want)
		}
	}
}

func TestSaveLocalConfig_RoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg := DefaultLocalConfig()
	cfg.Daemon.Port = 8123
	cfg.Queue.Enabled = true

	if err := SaveLocalConfig(cfg); err != nil {
		t.Fatalf("SaveLocalConfig() error = %v", err)
	}

	dir, _ := ParleyDir()
	raw, err := os.ReadFile(filepath.Join(dir, "config.yaml"))
	if err != nil {
		t.Fatalf("read saved config: %v", err)
	}
	var generic map[string]any
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		t.Fatalf("saved config is not valid YAML: %v", err)
	}

	loaded, err := LoadLocalConfig()
	if err != nil {
		t.Fatalf("LoadLocalConfig() error = %v", err)
	}
	if loaded.Daemon.Port != 8123 || !loaded.Queue.Enabled {
		t.Errorf("round trip lost values: port=%d queue=%v", loaded.Daemon.Port, loaded.Queue.Enabled)
	}
	if loaded.Scheduler.Interval != cfg.Scheduler.Interval {
		t.Errorf("Scheduler.Interval = %v, want %v", loaded.Scheduler.Interval, cfg.Scheduler.Interval)
	}
}

func TestSQLitePath(t *testing.T) {
	cfg := DefaultLocalConfig()
	cfg.Storage.SQLitePath = "/tmp/custom.db"
	if got, _ := cfg.SQLitePath(); got != "/tmp/custom.db" {
		t.Errorf("SQLitePath() = %q, want /tmp/custom.db", got)
	}

	cfg.Storage.SQLitePath = ""
	got, err := cfg.SQLitePath()
	if err != nil {
		t.Fatalf("SQLitePath() error = %v", err)
	}
	if filepath.Base(got) != "parley.db" {
		t.Errorf("SQLitePath() = %q, want parley.db default", got)
	}
}
