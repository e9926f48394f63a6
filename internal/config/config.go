// Package config handles loading and validating the application configuration
// from YAML files with environment variable substitution.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Ebay    EbayConfig    `yaml:"ebay"`
	Server  ServerConfig  `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
}

// EbayConfig defines eBay application credentials and client behavior.
type EbayConfig struct {
	ClientID     string   `yaml:"client_id"`
	ClientSecret string   `yaml:"client_secret"`
	Scopes       []string `yaml:"scopes"`
	Sandbox      bool     `yaml:"sandbox"`
	Marketplace  string   `yaml:"marketplace"`

	// Base URLs; override only to point at a fake.
	ProductionURL string `yaml:"production_url"`
	SandboxURL    string `yaml:"sandbox_url"`

	RequestTimeout time.Duration   `yaml:"request_timeout"`
	RefreshBuffer  time.Duration   `yaml:"refresh_buffer"`
	MaxPages       int             `yaml:"max_pages"`
	RateLimit      RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig defines eBay API rate limiting settings.
type RateLimitConfig struct {
	PerSecond  float64 `yaml:"per_second"`
	Burst      int     `yaml:"burst"`
	DailyLimit int64   `yaml:"daily_limit"`
}

// ServerConfig defines the Echo HTTP server settings.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// Load reads and parses a YAML config file, performing environment variable
// substitution and validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // config path from trusted CLI flag
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse is Load for an in-memory document.
func Parse(data []byte) (*Config, error) {
	cfg, err := Decode(data)
	if err != nil {
		return nil, err
	}
	if err := cfg.Finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Decode expands ${VAR} references and unmarshals the YAML without
// applying defaults or validating, so callers can overlay flags first and
// then call Finalize.
func Decode(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}
	return cfg, nil
}

// Default returns a configuration with every default applied and no
// credentials. Callers fill in credentials and call Finalize.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Finalize applies defaults and validates cfg. It is used after values
// have been layered on from flags or the environment.
func (c *Config) Finalize() error {
	applyDefaults(c)
	if err := validate(c); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}
	return nil
}

func applyDefaults(cfg *Config) {
	applyEbayDefaults(&cfg.Ebay)
	applyServerDefaults(&cfg.Server)
	applyLoggingDefaults(&cfg.Logging)
}

func applyEbayDefaults(e *EbayConfig) {
	if len(e.Scopes) == 0 {
		e.Scopes = []string{"https://api.ebay.com/oauth/api_scope"}
	}
	if e.Marketplace == "" {
		e.Marketplace = "EBAY_US"
	}
	if e.ProductionURL == "" {
		e.ProductionURL = "https://api.ebay.com"
	}
	if e.SandboxURL == "" {
		e.SandboxURL = "https://api.sandbox.ebay.com"
	}
	if e.RequestTimeout == 0 {
		e.RequestTimeout = 30 * time.Second
	}
	if e.MaxPages == 0 {
		e.MaxPages = 1
	}
	applyRateLimitDefaults(&e.RateLimit)
}

func applyRateLimitDefaults(r *RateLimitConfig) {
	if r.PerSecond == 0 {
		r.PerSecond = 5.0
	}
	if r.Burst == 0 {
		r.Burst = 10
	}
	if r.DailyLimit == 0 {
		r.DailyLimit = 5000
	}
}

func applyServerDefaults(s *ServerConfig) {
	if s.Host == "" {
		s.Host = "0.0.0.0"
	}
	if s.Port == 0 {
		s.Port = 8080
	}
	if s.ReadTimeout == 0 {
		s.ReadTimeout = 30 * time.Second
	}
	if s.WriteTimeout == 0 {
		s.WriteTimeout = 30 * time.Second
	}
}

func applyLoggingDefaults(l *LoggingConfig) {
	if l.Level == "" {
		l.Level = "info"
	}
	if l.Format == "" {
		l.Format = "text"
	}
}

func validate(cfg *Config) error {
	var errs []error

	if cfg.Ebay.ClientID == "" {
		errs = append(errs, errors.New("ebay.client_id is required"))
	}
	if cfg.Ebay.ClientSecret == "" {
		errs = append(errs, errors.New("ebay.client_secret is required"))
	}
	for _, field := range []struct {
		name  string
		value string
	}{
		{"ebay.production_url", cfg.Ebay.ProductionURL},
		{"ebay.sandbox_url", cfg.Ebay.SandboxURL},
	} {
		if u, err := url.Parse(field.value); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("%s must be an absolute URL (got %q)", field.name, field.value))
		}
	}
	if cfg.Ebay.RequestTimeout < 0 {
		errs = append(errs, errors.New("ebay.request_timeout must not be negative"))
	}
	if cfg.Ebay.RefreshBuffer < 0 {
		errs = append(errs, errors.New("ebay.refresh_buffer must not be negative"))
	}
	if cfg.Ebay.MaxPages < 0 {
		errs = append(errs, errors.New("ebay.max_pages must not be negative"))
	}
	if cfg.Ebay.RateLimit.PerSecond < 0 || cfg.Ebay.RateLimit.Burst < 0 || cfg.Ebay.RateLimit.DailyLimit < 0 {
		errs = append(errs, errors.New("ebay.rate_limit values must not be negative"))
	}

	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535 (got %d)", cfg.Server.Port))
	}

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf(
			"logging.level must be one of: debug, info, warn, error (got %q)",
			cfg.Logging.Level,
		))
	}
	switch cfg.Logging.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf(
			"logging.format must be one of: text, json (got %q)",
			cfg.Logging.Format,
		))
	}

	return errors.Join(errs...)
}
