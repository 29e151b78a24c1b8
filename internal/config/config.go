package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Data source modes recognised by the selector.
const (
	SourceFixture = "fixture"
	SourceLive    = "live"
)

const (
	defaultPort            = "8080"
	defaultSource          = SourceFixture
	defaultCredentialsFile = "Credentials.json"
	defaultFixtureFile     = "data/orders.csv"
	defaultZipcodesFile    = "data/zipcodes.csv"
	defaultLogLevel        = "info"
	defaultFetchTimeout    = 30 * time.Second
	defaultPageSize        = 250
	defaultRateLimitRPS    = 25.0
	defaultRateLimitBurst  = 50
	maxPageSize            = 250
)

// Config aggregates runtime configuration resolved from multiple sources.
// Precedence: CLI flags > YAML config > Environment variables > Defaults
type Config struct {
	Port                 string        `yaml:"port"`
	Source               string        `yaml:"source"`
	CredentialsFile      string        `yaml:"credentials_file"`
	FixtureFile          string        `yaml:"fixture_file"`
	ZipcodesFile         string        `yaml:"zipcodes_file"`
	LogLevel             string        `yaml:"log_level"`
	FetchTimeout         time.Duration `yaml:"fetch_timeout"`
	PageSize             int           `yaml:"page_size"`
	ShutdownGracePeriod  time.Duration `yaml:"shutdown_grace_period"`
	ReadHeaderTimeout    time.Duration `yaml:"read_header_timeout"`
	WriteTimeout         time.Duration `yaml:"write_timeout"`
	IdleTimeout          time.Duration `yaml:"idle_timeout"`
	EnableRequestLogging bool          `yaml:"enable_request_logging"`
	RateLimitRPS         float64       `yaml:"-"`
	RateLimitBurst       int           `yaml:"-"`
}

// yamlConfig represents the YAML configuration file structure.
type yamlConfig struct {
	Port                 string        `yaml:"port"`
	Source               string        `yaml:"source"`
	CredentialsFile      string        `yaml:"credentials_file"`
	FixtureFile          string        `yaml:"fixture_file"`
	ZipcodesFile         string        `yaml:"zipcodes_file"`
	LogLevel             string        `yaml:"log_level"`
	FetchTimeout         string        `yaml:"fetch_timeout"`
	PageSize             int           `yaml:"page_size"`
	ShutdownGracePeriod  string        `yaml:"shutdown_grace_period"`
	ReadHeaderTimeout    string        `yaml:"read_header_timeout"`
	WriteTimeout         string        `yaml:"write_timeout"`
	IdleTimeout          string        `yaml:"idle_timeout"`
	EnableRequestLogging bool          `yaml:"enable_request_logging"`
	RateLimit            yamlRateLimit `yaml:"rate_limit"`
}

// yamlRateLimit represents the rate limit section in YAML.
type yamlRateLimit struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// CLIOverrides holds command-line flag overrides.
type CLIOverrides struct {
	ConfigFile      string
	Port            *string
	Source          *string
	CredentialsFile *string
	FixtureFile     *string
	LogLevel        *string
	RateLimitRPS    *float64
	RateLimitBurst  *int
}

// Load extracts configuration from multiple sources with precedence:
// CLI flags > YAML config > Environment variables > Defaults
func Load(overrides *CLIOverrides) (Config, error) {
	cfg := defaultConfig()

	// Load from YAML file if specified
	if overrides != nil && overrides.ConfigFile != "" {
		yamlCfg, err := loadFromFile(overrides.ConfigFile)
		if err != nil {
			return Config{}, fmt.Errorf("load YAML config: %w", err)
		}
		applyYAMLConfig(&cfg, yamlCfg)
	}

	// Apply environment variables (override YAML)
	applyEnvConfig(&cfg)

	// Apply CLI overrides (highest precedence)
	if overrides != nil {
		applyCLIOverrides(&cfg, overrides)
	}

	// Validate final configuration
	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// defaultConfig returns a Config with default values. The fixture source is
// the default so a fresh checkout runs offline without a credentials file.
func defaultConfig() Config {
	return Config{
		Port:                 defaultPort,
		Source:               defaultSource,
		CredentialsFile:      defaultCredentialsFile,
		FixtureFile:          defaultFixtureFile,
		ZipcodesFile:         defaultZipcodesFile,
		LogLevel:             defaultLogLevel,
		FetchTimeout:         defaultFetchTimeout,
		PageSize:             defaultPageSize,
		ShutdownGracePeriod:  10 * time.Second,
		ReadHeaderTimeout:    5 * time.Second,
		WriteTimeout:         15 * time.Second,
		IdleTimeout:          60 * time.Second,
		EnableRequestLogging: true,
		RateLimitRPS:         defaultRateLimitRPS,
		RateLimitBurst:       defaultRateLimitBurst,
	}
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(path string) (*yamlConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	return &yamlCfg, nil
}

// applyYAMLConfig applies YAML configuration to the Config struct.
func applyYAMLConfig(cfg *Config, yamlCfg *yamlConfig) {
	if yamlCfg.Port != "" {
		cfg.Port = yamlCfg.Port
	}
	if yamlCfg.Source != "" {
		cfg.Source = yamlCfg.Source
	}
	if yamlCfg.CredentialsFile != "" {
		cfg.CredentialsFile = yamlCfg.CredentialsFile
	}
	if yamlCfg.FixtureFile != "" {
		cfg.FixtureFile = yamlCfg.FixtureFile
	}
	if yamlCfg.ZipcodesFile != "" {
		cfg.ZipcodesFile = yamlCfg.ZipcodesFile
	}
	if yamlCfg.LogLevel != "" {
		cfg.LogLevel = yamlCfg.LogLevel
	}
	if yamlCfg.PageSize > 0 {
		cfg.PageSize = yamlCfg.PageSize
	}

	applyYAMLDuration(&cfg.FetchTimeout, yamlCfg.FetchTimeout)
	applyYAMLDuration(&cfg.ShutdownGracePeriod, yamlCfg.ShutdownGracePeriod)
	applyYAMLDuration(&cfg.ReadHeaderTimeout, yamlCfg.ReadHeaderTimeout)
	applyYAMLDuration(&cfg.WriteTimeout, yamlCfg.WriteTimeout)
	applyYAMLDuration(&cfg.IdleTimeout, yamlCfg.IdleTimeout)

	cfg.EnableRequestLogging = yamlCfg.EnableRequestLogging

	if yamlCfg.RateLimit.RPS >= 0 {
		cfg.RateLimitRPS = yamlCfg.RateLimit.RPS
	}
	if yamlCfg.RateLimit.Burst >= 0 {
		cfg.RateLimitBurst = yamlCfg.RateLimit.Burst
	}
}

func applyYAMLDuration(dst *time.Duration, raw string) {
	if raw == "" {
		return
	}
	if d, err := time.ParseDuration(raw); err == nil {
		*dst = d
	}
}

// applyEnvConfig applies environment variable configuration.
func applyEnvConfig(cfg *Config) {
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		cfg.Port = port
	}

	if source := strings.TrimSpace(os.Getenv("DATA_SOURCE")); source != "" {
		cfg.Source = source
	}

	if path := strings.TrimSpace(os.Getenv("CREDENTIALS_FILE")); path != "" {
		cfg.CredentialsFile = path
	}

	if path := strings.TrimSpace(os.Getenv("FIXTURE_FILE")); path != "" {
		cfg.FixtureFile = path
	}

	if path := strings.TrimSpace(os.Getenv("ZIPCODES_FILE")); path != "" {
		cfg.ZipcodesFile = path
	}

	if level := strings.TrimSpace(os.Getenv("LOG_LEVEL")); level != "" {
		cfg.LogLevel = level
	}

	if timeout := strings.TrimSpace(os.Getenv("FETCH_TIMEOUT")); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil && d > 0 {
			cfg.FetchTimeout = d
		}
	}

	if rps := strings.TrimSpace(os.Getenv("RATE_LIMIT_RPS")); rps != "" {
		if value, err := strconv.ParseFloat(rps, 64); err == nil && value >= 0 {
			cfg.RateLimitRPS = value
		}
	}

	if burst := strings.TrimSpace(os.Getenv("RATE_LIMIT_BURST")); burst != "" {
		if value, err := strconv.Atoi(burst); err == nil && value >= 0 {
			cfg.RateLimitBurst = value
		}
	}
}

// applyCLIOverrides applies command-line flag overrides.
func applyCLIOverrides(cfg *Config, overrides *CLIOverrides) {
	if overrides.Port != nil && *overrides.Port != "" {
		cfg.Port = *overrides.Port
	}
	if overrides.Source != nil && *overrides.Source != "" {
		cfg.Source = *overrides.Source
	}
	if overrides.CredentialsFile != nil && *overrides.CredentialsFile != "" {
		cfg.CredentialsFile = *overrides.CredentialsFile
	}
	if overrides.FixtureFile != nil && *overrides.FixtureFile != "" {
		cfg.FixtureFile = *overrides.FixtureFile
	}
	if overrides.LogLevel != nil && *overrides.LogLevel != "" {
		cfg.LogLevel = *overrides.LogLevel
	}
	if overrides.RateLimitRPS != nil && *overrides.RateLimitRPS >= 0 {
		cfg.RateLimitRPS = *overrides.RateLimitRPS
	}
	if overrides.RateLimitBurst != nil && *overrides.RateLimitBurst >= 0 {
		cfg.RateLimitBurst = *overrides.RateLimitBurst
	}
}

// validateConfig validates the final configuration.
func validateConfig(cfg Config) error {
	if cfg.Source != SourceFixture && cfg.Source != SourceLive {
		return fmt.Errorf("source must be %q or %q, got %q", SourceFixture, SourceLive, cfg.Source)
	}
	if cfg.Source == SourceLive && cfg.CredentialsFile == "" {
		return fmt.Errorf("credentials file is required for the live source")
	}
	if cfg.Source == SourceFixture && cfg.FixtureFile == "" {
		return fmt.Errorf("fixture file is required for the fixture source")
	}
	if cfg.FetchTimeout <= 0 {
		return fmt.Errorf("fetch timeout must be positive")
	}
	if cfg.PageSize <= 0 || cfg.PageSize > maxPageSize {
		return fmt.Errorf("page size must be between 1 and %d", maxPageSize)
	}
	if cfg.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be >= 0")
	}
	if cfg.RateLimitBurst < 0 {
		return fmt.Errorf("RATE_LIMIT_BURST must be >= 0")
	}
	return nil
}
