package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Validation errors fatal at load time. The poll loop must not start when
// any of these are reported.
var (
	ErrNoApplications = errors.New("applications list is empty")
	ErrNoURL          = errors.New("obs_config.url is required")
)

// DuplicateMonitorError reports a monitor id bound to more than one scene.
type DuplicateMonitorError struct {
	Monitor int
}

func (e *DuplicateMonitorError) Error() string {
	return fmt.Sprintf("monitor %d is bound more than once", e.Monitor)
}

// OBS holds connection settings for the obs-websocket endpoint.
type OBS struct {
	URL              string `yaml:"url" json:"url"`
	Password         string `yaml:"password" json:"-"`
	ConnectAttempts  int    `yaml:"connect_attempts" json:"connect_attempts"`
	ConnectBackoffMs int    `yaml:"connect_backoff_ms" json:"connect_backoff_ms"`
}

// MonitorScene binds a monitor id to a scene name.
type MonitorScene struct {
	Monitor int    `yaml:"monitor" json:"monitor"`
	Scene   string `yaml:"scene" json:"scene"`
}

// Application names an ordered list of title patterns. Declaration order
// defines match precedence.
type Application struct {
	Name     string   `yaml:"name" json:"name"`
	Patterns []string `yaml:"patterns" json:"patterns"`
}

// Settings holds tuning knobs for the poll loop and matching.
type Settings struct {
	PollIntervalMs int    `yaml:"poll_interval_ms" json:"poll_interval_ms"`
	IgnoreCase     *bool  `yaml:"ignore_case" json:"ignore_case"`
	LogLevel       string `yaml:"log_level" json:"log_level"`
}

// History configures the optional switch-history store.
type History struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Path    string `yaml:"path" json:"path"`
}

// API configures the optional status HTTP server.
type API struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
	Port    int  `yaml:"port" json:"port"`
}

// Config is the full scenewatch configuration.
type Config struct {
	OBS           OBS            `yaml:"obs_config" json:"obs_config"`
	MonitorScenes []MonitorScene `yaml:"monitor_scenes" json:"monitor_scenes"`
	Applications  []Application  `yaml:"applications" json:"applications"`
	Settings      Settings       `yaml:"settings" json:"settings"`
	History       History        `yaml:"history" json:"history"`
	API           API            `yaml:"api" json:"api"`
}

// Load reads, parses, and validates the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Settings.PollIntervalMs <= 0 {
		c.Settings.PollIntervalMs = 1000
	}
	if c.Settings.LogLevel == "" {
		c.Settings.LogLevel = "info"
	}
	if c.OBS.ConnectAttempts <= 0 {
		c.OBS.ConnectAttempts = 3
	}
	if c.OBS.ConnectBackoffMs <= 0 {
		c.OBS.ConnectBackoffMs = 2000
	}
	if c.API.Port <= 0 {
		c.API.Port = 8080
	}
}

// Validate checks the invariants the switching core relies on: a non-empty
// application list, named applications with at least one pattern, and
// monitor ids unique across bindings. Pattern compilation is checked by
// rules.NewRegistry.
func (c *Config) Validate() error {
	if c.OBS.URL == "" {
		return ErrNoURL
	}
	if len(c.Applications) == 0 {
		return ErrNoApplications
	}
	for i, app := range c.Applications {
		if app.Name == "" {
			return fmt.Errorf("applications[%d]: name is required", i)
		}
		if len(app.Patterns) == 0 {
			return fmt.Errorf("application %q: patterns list is empty", app.Name)
		}
	}
	seen := make(map[int]struct{}, len(c.MonitorScenes))
	for i, ms := range c.MonitorScenes {
		if ms.Monitor < 0 {
			return fmt.Errorf("monitor_scenes[%d]: monitor id must be >= 0", i)
		}
		if ms.Scene == "" {
			return fmt.Errorf("monitor_scenes[%d]: scene is required", i)
		}
		if _, dup := seen[ms.Monitor]; dup {
			return &DuplicateMonitorError{Monitor: ms.Monitor}
		}
		seen[ms.Monitor] = struct{}{}
	}
	return nil
}

// PollInterval returns the poll interval as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Settings.PollIntervalMs) * time.Millisecond
}

// ConnectBackoff returns the delay between initial connection attempts.
func (c *Config) ConnectBackoff() time.Duration {
	return time.Duration(c.OBS.ConnectBackoffMs) * time.Millisecond
}

// MatchIgnoreCase reports whether title patterns match case-insensitively.
// Defaults to true, matching how window titles vary between browsers.
func (c *Config) MatchIgnoreCase() bool {
	if c.Settings.IgnoreCase == nil {
		return true
	}
	return *c.Settings.IgnoreCase
}

// Redacted returns a copy safe to expose over the status API.
func (c *Config) Redacted() *Config {
	cp := *c
	if cp.OBS.Password != "" {
		cp.OBS.Password = "<redacted>"
	}
	return &cp
}
