// Package config holds the ambient configuration of the complianced daemon
// entrypoint.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds complianced configuration.
type Config struct {
	// Paths
	StateDir          string `yaml:"state_dir"`
	ExpectedStateGlob string `yaml:"expected_state_glob"`

	// Timing
	PollInterval int `yaml:"poll_interval"` // seconds

	// Concurrency
	MaxConcurrentAssessments int `yaml:"max_concurrent_assessments"`

	// Default privilege applied to attributes that don't set their own
	DefaultPrivilege string `yaml:"default_privilege"`

	// Logging
	LogLevel string `yaml:"log_level"`

	// SSH
	KnownHostsPath string `yaml:"known_hosts_path"`
}

// DefaultConfig returns a config with sane defaults.
func DefaultConfig() Config {
	return Config{
		StateDir:                 "/var/lib/complianced",
		ExpectedStateGlob:        "*.yaml",
		PollInterval:             60,
		MaxConcurrentAssessments: 8,
		DefaultPrivilege:         "none",
		LogLevel:                 "INFO",
		KnownHostsPath:           "/var/lib/complianced/known_hosts",
	}
}

// LoadConfig loads configuration from a YAML file with env overrides.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if v := os.Getenv("STATE_DIR"); v != "" {
		cfg.StateDir = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToUpper(v)
	}
	if v := os.Getenv("POLL_INTERVAL"); v != "" {
		var seconds int
		if _, scanErr := fmt.Sscanf(v, "%d", &seconds); scanErr == nil && seconds > 0 {
			cfg.PollInterval = seconds
		}
	}
	if v := os.Getenv("DEFAULT_PRIVILEGE"); v != "" {
		cfg.DefaultPrivilege = v
	}

	if cfg.PollInterval < 5 {
		cfg.PollInterval = 5
	}
	if cfg.PollInterval > 3600 {
		cfg.PollInterval = 3600
	}
	if cfg.MaxConcurrentAssessments < 1 {
		cfg.MaxConcurrentAssessments = 1
	}

	return &cfg, nil
}

// ExpectedStateDir returns the directory complianced watches for
// expected-state documents.
func (c *Config) ExpectedStateDir() string {
	return filepath.Join(c.StateDir, "expected-state")
}

// KnownHosts returns the path complianced uses to persist SSH host keys
// accepted on first use.
func (c *Config) KnownHosts() string {
	if c.KnownHostsPath != "" {
		return c.KnownHostsPath
	}
	return filepath.Join(c.StateDir, "known_hosts")
}
