// Package config handles application configuration management.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// MinAPIVersion is the oldest Salesforce REST API version metascope speaks.
const MinAPIVersion = "50.0"

// Config holds all application configuration.
type Config struct {
	// Base directory for all metascope data (~/.local/share/metascope)
	BaseDir string `yaml:"-"`

	// Salesforce org and OAuth client settings
	Salesforce SalesforceConfig `yaml:"salesforce"`

	// Search aggregator limits
	Search SearchConfig `yaml:"search"`
}

// SalesforceConfig holds org connection settings. Secrets are only read
// from the environment, never from config.yaml.
type SalesforceConfig struct {
	InstanceURL  string `yaml:"instance_url" validate:"omitempty,url"`
	AccessToken  string `yaml:"-"`
	RefreshToken string `yaml:"-"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"-"`

	// LoginURL is the OAuth host (login.salesforce.com or test.salesforce.com)
	LoginURL string `yaml:"login_url" validate:"required,url"`

	// APIVersion without the leading "v", e.g. "60.0"
	APIVersion string `yaml:"api_version" validate:"required"`

	// RateLimit is the client-side requests-per-second ceiling
	RateLimit int `yaml:"rate_limit" validate:"gte=1,lte=100"`

	// CacheSeconds is how long successful GET responses are reused (0 disables)
	CacheSeconds int `yaml:"cache_seconds" validate:"gte=0,lte=3600"`
}

// SearchConfig holds limits applied by the search aggregator.
type SearchConfig struct {
	MaxResults        int `yaml:"max_results" validate:"gte=1,lte=200"`
	MaxMatchesPerItem int `yaml:"max_matches_per_item" validate:"gte=1,lte=50"`
	BatchLimit        int `yaml:"batch_limit" validate:"gte=1,lte=200"`
	FlowBatchLimit    int `yaml:"flow_batch_limit" validate:"gte=1,lte=100"`
	Concurrency       int `yaml:"concurrency" validate:"gte=1,lte=32"`
}

// Load builds the configuration from defaults, an optional config.yaml in the
// base directory, and environment variables, in that order of precedence.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	if err := loadFile(cfg, GetPaths(cfg).Config); err != nil {
		return nil, err
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := ensureDirectories(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFile overlays YAML settings onto cfg. A missing file is not an error.
func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// applyEnv reads environment variable overrides.
func applyEnv(cfg *Config) {
	sf := &cfg.Salesforce
	if v := os.Getenv("METASCOPE_INSTANCE_URL"); v != "" {
		sf.InstanceURL = v
	}
	if v := os.Getenv("METASCOPE_ACCESS_TOKEN"); v != "" {
		sf.AccessToken = v
	}
	if v := os.Getenv("METASCOPE_REFRESH_TOKEN"); v != "" {
		sf.RefreshToken = v
	}
	if v := os.Getenv("METASCOPE_CLIENT_ID"); v != "" {
		sf.ClientID = v
	}
	if v := os.Getenv("METASCOPE_CLIENT_SECRET"); v != "" {
		sf.ClientSecret = v
	}
	if v := os.Getenv("METASCOPE_LOGIN_URL"); v != "" {
		sf.LoginURL = v
	}
	if v := os.Getenv("METASCOPE_API_VERSION"); v != "" {
		sf.APIVersion = v
	}

	sf.InstanceURL = strings.TrimRight(sf.InstanceURL, "/")
	sf.LoginURL = strings.TrimRight(sf.LoginURL, "/")
	sf.APIVersion = strings.TrimPrefix(sf.APIVersion, "v")
}

var validate = validator.New()

// Validate checks field constraints and the API version floor.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return checkAPIVersion(c.Salesforce.APIVersion)
}

// checkAPIVersion rejects versions older than MinAPIVersion.
func checkAPIVersion(v string) error {
	parsed, err := semver.NewVersion(strings.TrimPrefix(v, "v"))
	if err != nil {
		return fmt.Errorf("invalid api version %q: %w", v, err)
	}
	floor, err := semver.NewConstraint(">= " + MinAPIVersion)
	if err != nil {
		return err
	}
	if !floor.Check(parsed) {
		return fmt.Errorf("invalid api version %q: must be %s or newer", v, MinAPIVersion)
	}
	return nil
}

// ensureDirectories creates required directories if they don't exist.
func ensureDirectories(cfg *Config) error {
	paths := GetPaths(cfg)
	for _, dir := range []string{cfg.BaseDir, paths.Logs} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}

// APIPath returns the versioned REST prefix, e.g. "/services/data/v60.0".
func (s SalesforceConfig) APIPath() string {
	return "/services/data/v" + s.APIVersion
}

// BaseDirFromEnv returns METASCOPE_HOME when set.
func BaseDirFromEnv() string {
	if v := os.Getenv("METASCOPE_HOME"); v != "" {
		return filepath.Clean(v)
	}
	return ""
}
