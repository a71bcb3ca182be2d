package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadValidConfig(t *testing.T) {
	path := writeConfig(t, `
obs_config:
  url: ws://localhost:4455
  password: secret
monitor_scenes:
  - monitor: 0
    scene: Scene A
  - monitor: 1
    scene: Scene B
applications:
  - name: Google Meet
    patterns:
      - meet\.google\.com/[a-z|-]+
settings:
  poll_interval_ms: 500
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	wantScenes := []MonitorScene{
		{Monitor: 0, Scene: "Scene A"},
		{Monitor: 1, Scene: "Scene B"},
	}
	if diff := cmp.Diff(wantScenes, cfg.MonitorScenes); diff != "" {
		t.Fatalf("monitor scenes mismatch (-want +got):\n%s", diff)
	}
	if cfg.OBS.URL != "ws://localhost:4455" || cfg.OBS.Password != "secret" {
		t.Fatalf("obs config mismatch: %+v", cfg.OBS)
	}
	if cfg.PollInterval().Milliseconds() != 500 {
		t.Fatalf("expected 500ms poll interval, got %s", cfg.PollInterval())
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
obs_config:
  url: ws://localhost:4455
applications:
  - name: Meet
    patterns: ["meet"]
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.PollInterval().Milliseconds() != 1000 {
		t.Fatalf("expected default 1s interval, got %s", cfg.PollInterval())
	}
	if cfg.Settings.LogLevel != "info" {
		t.Fatalf("expected default log level info, got %q", cfg.Settings.LogLevel)
	}
	if cfg.OBS.ConnectAttempts != 3 {
		t.Fatalf("expected default connect attempts, got %d", cfg.OBS.ConnectAttempts)
	}
	if !cfg.MatchIgnoreCase() {
		t.Fatalf("expected case-insensitive matching by default")
	}
}

func TestLoadIgnoreCaseOverride(t *testing.T) {
	path := writeConfig(t, `
obs_config:
  url: ws://localhost:4455
applications:
  - name: Meet
    patterns: ["meet"]
settings:
  ignore_case: false
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.MatchIgnoreCase() {
		t.Fatalf("expected explicit ignore_case: false to win")
	}
}

func TestLoadEmptyApplications(t *testing.T) {
	path := writeConfig(t, `
obs_config:
  url: ws://localhost:4455
monitor_scenes:
  - monitor: 0
    scene: Scene A
`)

	_, err := Load(path)
	if !errors.Is(err, ErrNoApplications) {
		t.Fatalf("expected ErrNoApplications, got %v", err)
	}
}

func TestLoadDuplicateMonitor(t *testing.T) {
	path := writeConfig(t, `
obs_config:
  url: ws://localhost:4455
monitor_scenes:
  - monitor: 0
    scene: Scene A
  - monitor: 0
    scene: Scene B
applications:
  - name: Meet
    patterns: ["meet"]
`)

	_, err := Load(path)
	var dup *DuplicateMonitorError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateMonitorError, got %v", err)
	}
	if dup.Monitor != 0 {
		t.Fatalf("expected duplicate monitor 0, got %d", dup.Monitor)
	}
}

func TestLoadMissingURL(t *testing.T) {
	path := writeConfig(t, `
applications:
  - name: Meet
    patterns: ["meet"]
`)

	_, err := Load(path)
	if !errors.Is(err, ErrNoURL) {
		t.Fatalf("expected ErrNoURL, got %v", err)
	}
}

func TestLoadApplicationWithoutPatterns(t *testing.T) {
	path := writeConfig(t, `
obs_config:
  url: ws://localhost:4455
applications:
  - name: Meet
    patterns: []
`)

	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for application without patterns")
	}
}

func TestRedactedHidesPassword(t *testing.T) {
	cfg := &Config{OBS: OBS{URL: "ws://localhost:4455", Password: "secret"}}
	red := cfg.Redacted()
	if red.OBS.Password == "secret" {
		t.Fatalf("password leaked through Redacted")
	}
	if cfg.OBS.Password != "secret" {
		t.Fatalf("Redacted mutated the original config")
	}
}
