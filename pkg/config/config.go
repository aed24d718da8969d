package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/osbeck/labops/pkg/project"
)

// Config defines runtime settings for labops.
type Config struct {
	Project  project.Layout `yaml:"project"`
	Render   RenderConfig   `yaml:"render"`
	Run      RunConfig      `yaml:"run"`
	LogLevel string         `yaml:"logLevel"`
}

// RenderConfig controls how the vars renderer rewrites the sample file.
type RenderConfig struct {
	Anchor     string   `yaml:"anchor"`
	QuotedKeys []string `yaml:"quotedKeys"`
}

// RunConfig bounds playbook subprocesses.
type RunConfig struct {
	TimeoutSeconds int `yaml:"timeoutSeconds"`
	MaxOutputBytes int `yaml:"maxOutputBytes"`
}

// Timeout is the default deadline for a playbook run when the request
// carries none.
func (r RunConfig) Timeout() time.Duration {
	return time.Duration(r.TimeoutSeconds) * time.Second
}

// DefaultConfig returns the settings used when no file overrides them.
func DefaultConfig() *Config {
	return &Config{
		Project: project.DefaultLayout("."),
		Render: RenderConfig{
			Anchor:     "# Append override vars below",
			QuotedKeys: []string{"ocp_build", "ocp_version"},
		},
		Run: RunConfig{
			TimeoutSeconds: 7200,
			MaxOutputBytes: 1 << 20,
		},
		LogLevel: "info",
	}
}

// LoadConfig loads configuration from a YAML file and environment
// overrides. A missing file is not an error; defaults apply.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	if root := os.Getenv("LABOPS_PROJECT"); root != "" {
		cfg.Project.Root = root
	}
	if logLevel := os.Getenv("LABOPS_LOG_LEVEL"); logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if timeout := os.Getenv("LABOPS_RUN_TIMEOUT"); timeout != "" {
		seconds, err := strconv.Atoi(timeout)
		if err != nil {
			return nil, fmt.Errorf("LABOPS_RUN_TIMEOUT: %w", err)
		}
		cfg.Run.TimeoutSeconds = seconds
	}

	if _, err := os.Stat(cfg.Project.Root); os.IsNotExist(err) {
		return nil, fmt.Errorf("project root does not exist: %s", cfg.Project.Root)
	}

	return cfg, nil
}

// DefaultConfigPath returns the default location for the CLI config file.
func DefaultConfigPath() string {
	if path := os.Getenv("LABOPS_CONFIG"); path != "" {
		return path
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".labops", "config.yaml")
}
