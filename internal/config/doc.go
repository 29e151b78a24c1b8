// Package config loads runtime configuration from multiple sources (YAML files,
// environment variables, CLI flags) with precedence: CLI flags > YAML config >
// Environment variables > Defaults. It exposes strongly typed settings to the
// rest of the application, including the data source mode that picks between
// the fixture file and the live admin API.
package config
