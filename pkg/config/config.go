package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/pario-ai/badgeshot/pkg/models"
)

// DefaultPath is the config file used when --config is not given.
const DefaultPath = "badgeshot.yaml"

// Credential fallbacks read when apiKey is empty.
const (
	EnvStabilityKey = "STABILITY_API_KEY"
	EnvOpenAIKey    = "OPENAI_API_KEY"
)

// Config holds all badgeshot configuration.
type Config struct {
	APIKey     string             `yaml:"apiKey"`
	Provider   ProviderConfig     `yaml:"provider"`
	Budget     models.BudgetState `yaml:"budget"`
	Defaults   DefaultsConfig     `yaml:"defaults"`
	Dimensions DimensionsConfig   `yaml:"dimensions"`
	Retry      RetryConfig        `yaml:"retry"`
	Gender     GenderConfig       `yaml:"gender"`
	Logging    LoggingConfig      `yaml:"logging"`
	DBPath     string             `yaml:"dbPath"`
	Audit      models.AuditConfig `yaml:"audit"`
}

// ProviderConfig selects and tunes the image backend.
// Name is "stability" (default) or "openai".
type ProviderConfig struct {
	Name              string        `yaml:"name"`
	Model             string        `yaml:"model"`
	BaseURL           string        `yaml:"baseUrl"`
	CostPerImage      float64       `yaml:"costPerImage"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerMinute int           `yaml:"requestsPerMinute"`
	Steps             int           `yaml:"steps"`
	CFGScale          float64       `yaml:"cfgScale"`
}

// DefaultsConfig supplies generate flags that were not given on the command line.
type DefaultsConfig struct {
	Count     int    `yaml:"count"`
	Style     string `yaml:"style"`
	Format    string `yaml:"format"`
	OutputDir string `yaml:"outputDir"`
	MinSize   string `yaml:"minSize"`
	MaxSize   string `yaml:"maxSize"`
}

// DimensionsConfig is advisory; defaults.minSize and defaults.maxSize win.
type DimensionsConfig struct {
	MinWidth  int `yaml:"minWidth"`
	MaxWidth  int `yaml:"maxWidth"`
	MinHeight int `yaml:"minHeight"`
	MaxHeight int `yaml:"maxHeight"`
}

// RetryConfig is the on-disk form of retry.Policy.
type RetryConfig struct {
	MaxAttempts       int     `yaml:"maxAttempts"`
	InitialDelayMs    int     `yaml:"initialDelayMs"`
	MaxDelayMs        int     `yaml:"maxDelayMs"`
	BackoffMultiplier float64 `yaml:"backoffMultiplier"`
}

// GenderConfig is read but not consulted by the batch split.
type GenderConfig struct {
	MaleRatio   float64 `yaml:"maleRatio"`
	FemaleRatio float64 `yaml:"femaleRatio"`
}

// LoggingConfig controls the zap logger.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	File        string `yaml:"file"`
	Development bool   `yaml:"development"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Provider: ProviderConfig{
			Name:     "stability",
			Timeout:  2 * time.Minute,
			Steps:    30,
			CFGScale: 7,
		},
		Budget: models.BudgetState{
			Total:         10,
			WarnThreshold: 0.8,
		},
		Defaults: DefaultsConfig{
			Count:     10,
			Style:     "photorealistic",
			Format:    "png",
			OutputDir: "./output",
			MinSize:   "512x512",
			MaxSize:   "1024x1024",
		},
		Dimensions: DimensionsConfig{
			MinWidth:  512,
			MaxWidth:  1024,
			MinHeight: 512,
			MaxHeight: 1024,
		},
		Retry: RetryConfig{
			MaxAttempts:       3,
			InitialDelayMs:    1000,
			MaxDelayMs:        10000,
			BackoffMultiplier: 2,
		},
		Gender: GenderConfig{
			MaleRatio:   0.5,
			FemaleRatio: 0.5,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		DBPath: "badgeshot.db",
		Audit: models.AuditConfig{
			Enabled:       true,
			DBPath:        "badgeshot.db",
			RetentionDays: 90,
			MaxPromptSize: 2048,
		},
	}
}

// Load reads a YAML config file, expands environment variables and fills the
// API key from the environment (after loading .env) when the file leaves it empty.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if cfg.APIKey == "" {
		cfg.APIKey = envAPIKey(cfg.Provider.Name)
	}
	return cfg, nil
}

// LoadDotEnv loads .env from the working directory if present.
func LoadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

func envAPIKey(provider string) string {
	if provider == "openai" {
		return os.Getenv(EnvOpenAIKey)
	}
	return os.Getenv(EnvStabilityKey)
}

// Save writes cfg to path, replacing the file.
func Save(path string, cfg *Config) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Delays converts the millisecond config fields to durations.
func (r RetryConfig) Delays() (initial, max time.Duration) {
	return time.Duration(r.InitialDelayMs) * time.Millisecond, time.Duration(r.MaxDelayMs) * time.Millisecond
}

// Validate reports configuration errors that make generation impossible.
// A missing credential only matters for real runs.
func (c *Config) Validate(dryRun bool) error {
	if !dryRun && c.APIKey == "" {
		return fmt.Errorf("no API key: set apiKey in the config file, pass --api-key, or export %s", envName(c.Provider.Name))
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.maxAttempts must be >= 1, got %d", c.Retry.MaxAttempts)
	}
	if c.Retry.BackoffMultiplier <= 1 {
		return fmt.Errorf("retry.backoffMultiplier must be > 1, got %g", c.Retry.BackoffMultiplier)
	}
	return nil
}

func envName(provider string) string {
	if provider == "openai" {
		return EnvOpenAIKey
	}
	return EnvStabilityKey
}
