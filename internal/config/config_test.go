package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearSourceEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "DATA_SOURCE", "CREDENTIALS_FILE", "FIXTURE_FILE",
		"ZIPCODES_FILE", "LOG_LEVEL", "FETCH_TIMEOUT",
		"RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearSourceEnv(t)

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Port != defaultPort {
		t.Fatalf("expected default port %s, got %s", defaultPort, cfg.Port)
	}
	if cfg.Source != SourceFixture {
		t.Fatalf("expected fixture source by default, got %s", cfg.Source)
	}
	if cfg.CredentialsFile != defaultCredentialsFile {
		t.Fatalf("unexpected credentials file: %s", cfg.CredentialsFile)
	}
	if cfg.PageSize != defaultPageSize {
		t.Fatalf("unexpected page size: %d", cfg.PageSize)
	}
	if cfg.FetchTimeout != defaultFetchTimeout {
		t.Fatalf("unexpected fetch timeout: %s", cfg.FetchTimeout)
	}
	if cfg.ShutdownGracePeriod != 10*time.Second {
		t.Fatalf("unexpected shutdown grace period: %s", cfg.ShutdownGracePeriod)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearSourceEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("DATA_SOURCE", "live")
	t.Setenv("CREDENTIALS_FILE", "/etc/shop/Credentials.json")
	t.Setenv("FETCH_TIMEOUT", "5s")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Port != "9000" {
		t.Fatalf("expected overridden port, got %s", cfg.Port)
	}
	if cfg.Source != SourceLive {
		t.Fatalf("expected live source, got %s", cfg.Source)
	}
	if cfg.CredentialsFile != "/etc/shop/Credentials.json" {
		t.Fatalf("unexpected credentials file: %s", cfg.CredentialsFile)
	}
	if cfg.FetchTimeout != 5*time.Second {
		t.Fatalf("unexpected fetch timeout: %s", cfg.FetchTimeout)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	clearSourceEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	contents := []byte(`
port: "8090"
source: live
credentials_file: creds.json
fixture_file: orders.csv
fetch_timeout: 12s
page_size: 100
enable_request_logging: true
rate_limit:
  rps: 10
  burst: 20
`)
	if err := os.WriteFile(path, contents, 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	cfg, err := Load(&CLIOverrides{ConfigFile: path})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Port != "8090" || cfg.Source != SourceLive {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.CredentialsFile != "creds.json" {
		t.Fatalf("unexpected credentials file: %s", cfg.CredentialsFile)
	}
	if cfg.FetchTimeout != 12*time.Second || cfg.PageSize != 100 {
		t.Fatalf("unexpected fetch settings: %+v", cfg)
	}
	if cfg.RateLimitRPS != 10 || cfg.RateLimitBurst != 20 {
		t.Fatalf("unexpected rate limit settings: %+v", cfg)
	}
}

func TestLoadCLIOverridesBeatEnv(t *testing.T) {
	clearSourceEnv(t)
	t.Setenv("DATA_SOURCE", "live")

	source := "fixture"
	fixture := "/tmp/orders.csv"
	cfg, err := Load(&CLIOverrides{Source: &source, FixtureFile: &fixture})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Source != SourceFixture {
		t.Fatalf("expected CLI flag to win, got %s", cfg.Source)
	}
	if cfg.FixtureFile != fixture {
		t.Fatalf("unexpected fixture file: %s", cfg.FixtureFile)
	}
}

func TestLoadRejectsUnknownSource(t *testing.T) {
	clearSourceEnv(t)
	t.Setenv("DATA_SOURCE", "sometimes")

	if _, err := Load(nil); err == nil {
		t.Fatalf("expected error for unknown source mode")
	}
}

func TestLoadRejectsMissingConfigFile(t *testing.T) {
	clearSourceEnv(t)

	if _, err := Load(&CLIOverrides{ConfigFile: "definitely-not-here.yaml"}); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}

func TestValidateConfig(t *testing.T) {
	base := defaultConfig()

	t.Run("bad page size", func(t *testing.T) {
		cfg := base
		cfg.PageSize = 500
		if err := validateConfig(cfg); err == nil {
			t.Fatalf("expected error for oversized page size")
		}
	})

	t.Run("bad fetch timeout", func(t *testing.T) {
		cfg := base
		cfg.FetchTimeout = 0
		if err := validateConfig(cfg); err == nil {
			t.Fatalf("expected error for zero fetch timeout")
		}
	})

	t.Run("live without credentials path", func(t *testing.T) {
		cfg := base
		cfg.Source = SourceLive
		cfg.CredentialsFile = ""
		if err := validateConfig(cfg); err == nil {
			t.Fatalf("expected error for live source without credentials file")
		}
	})
}
