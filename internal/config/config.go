// Package config loads service configuration: YAML file over defaults, then
// .env and environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/danielpatrickdp/attrition-risk/internal/chat"
	"github.com/danielpatrickdp/attrition-risk/internal/risk"
)

// DefaultPath is the config file looked up when --config is not given.
const DefaultPath = "attrition.yaml"

// #region types
// Config is the root configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Scorer  ScorerConfig  `yaml:"scorer"`
	Catalog CatalogConfig `yaml:"catalog"`
	Risk    RiskConfig    `yaml:"risk"`
	Chat    ChatConfig    `yaml:"chat"`
	Store   StoreConfig   `yaml:"store"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig configures the web form.
type ServerConfig struct {
	Addr            string `yaml:"addr"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

// ScorerConfig points at the classifier/explainer sidecar.
type ScorerConfig struct {
	Addr    string `yaml:"addr"`
	Timeout string `yaml:"timeout"`
}

// CatalogConfig selects the feature catalog. Empty Path uses the embedded one.
type CatalogConfig struct {
	Path string `yaml:"path"`
}

// RiskConfig holds the decision threshold on the probability scale.
type RiskConfig struct {
	Threshold float64 `yaml:"threshold"`
}

// ChatConfig configures the assistant. The API key only comes from the
// environment.
type ChatConfig struct {
	APIKey       string `yaml:"-"`
	Model        string `yaml:"model"`
	SystemPrompt string `yaml:"system_prompt"`
	Timeout      string `yaml:"timeout"`
}

// StoreConfig locates the audit database.
type StoreConfig struct {
	Path     string `yaml:"path"`
	Disabled bool   `yaml:"disabled"`
}

// LoggingConfig configures zap.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

// #endregion types

// #region defaults
// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: "10s",
		},
		Scorer: ScorerConfig{
			Addr:    "localhost:50051",
			Timeout: "10s",
		},
		Risk: RiskConfig{
			Threshold: float64(risk.DefaultConfig().Threshold),
		},
		Chat: ChatConfig{
			Model:   chat.DefaultGeminiModel,
			Timeout: "60s",
		},
		Store: StoreConfig{
			Path: "attrition.db",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// #endregion defaults

// #region load
// Load reads path over the defaults, applies environment overrides and
// validates the result. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotEnv loads .env files into the process environment. Missing files are
// ignored and existing variables win.
func LoadDotEnv(paths ...string) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		_ = godotenv.Load(p)
	}
}

func (c *Config) applyEnvOverrides() error {
	c.Store.Path = envOr("ATTRITION_DB", c.Store.Path)
	c.Scorer.Addr = envOr("SCORER_ADDR", c.Scorer.Addr)
	c.Catalog.Path = envOr("ATTRITION_CATALOG", c.Catalog.Path)
	c.Chat.APIKey = envOr("GEMINI_API_KEY", c.Chat.APIKey)
	c.Chat.Model = envOr("GEMINI_MODEL", c.Chat.Model)
	c.Logging.Level = envOr("LOG_LEVEL", c.Logging.Level)

	if port := os.Getenv("PORT"); port != "" {
		c.Server.Addr = ":" + strings.TrimPrefix(port, ":")
	}
	if v := os.Getenv("ATTRITION_THRESHOLD"); v != "" {
		t, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fmt.Errorf("ATTRITION_THRESHOLD: %w", err)
		}
		c.Risk.Threshold = t
	}
	return nil
}

// #endregion load

// #region validate
// Validate checks the configuration once at startup.
func (c *Config) Validate() error {
	if _, err := c.RiskConfig(); err != nil {
		return err
	}
	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}
	if c.Scorer.Addr == "" {
		return errors.New("scorer.addr is required")
	}
	for name, v := range map[string]string{
		"server.shutdown_timeout": c.Server.ShutdownTimeout,
		"scorer.timeout":          c.Scorer.Timeout,
		"chat.timeout":            c.Chat.Timeout,
	} {
		if v == "" {
			continue
		}
		if d, err := time.ParseDuration(v); err != nil || d <= 0 {
			return fmt.Errorf("%s: invalid duration %q", name, v)
		}
	}
	switch c.Logging.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("logging.format: unknown format %q", c.Logging.Format)
	}
	return nil
}

// RiskConfig converts the threshold to the risk package's type and validates
// it. Thresholds above 1 are rejected rather than rescaled.
func (c *Config) RiskConfig() (risk.Config, error) {
	rc := risk.Config{Threshold: risk.Probability(c.Risk.Threshold)}
	if err := rc.Validate(); err != nil {
		return risk.Config{}, fmt.Errorf("risk.%w", err)
	}
	return rc, nil
}

// ChatEnabled reports whether an assistant can be built.
func (c *Config) ChatEnabled() bool {
	return c.Chat.APIKey != ""
}

// #endregion validate

// #region durations
// ScorerTimeout returns the per-call scorer deadline.
func (c *Config) ScorerTimeout() time.Duration {
	return parseDuration(c.Scorer.Timeout, 10*time.Second)
}

// ChatTimeout returns the per-turn assistant deadline.
func (c *Config) ChatTimeout() time.Duration {
	return parseDuration(c.Chat.Timeout, 60*time.Second)
}

// ShutdownTimeout returns how long the server drains on shutdown.
func (c *Config) ShutdownTimeout() time.Duration {
	return parseDuration(c.Server.ShutdownTimeout, 10*time.Second)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// #endregion durations

// #region helpers
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion helpers
