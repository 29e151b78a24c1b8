package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/holasaidlola/shop-analytics/internal/application"
	"github.com/holasaidlola/shop-analytics/internal/config"
	"github.com/holasaidlola/shop-analytics/internal/logging"
)

var signalNotify = signal.Notify

func main() {
	kingpinApp := kingpin.New("shop-analytics", "Shop Analytics - serves order analytics from a live shop API or a local fixture")
	configFile := kingpinApp.Flag("config", "Path to YAML configuration file").String()
	port := kingpinApp.Flag("port", "HTTP port exposed by the service").String()
	sourceFlag := kingpinApp.Flag("source", "Data source mode: fixture or live").String()
	credentialsFile := kingpinApp.Flag("credentials", "Path to the Credentials.json file for the live source").String()
	fixtureFile := kingpinApp.Flag("fixture", "Path to the orders CSV for the fixture source").String()
	logLevel := kingpinApp.Flag("log-level", "Minimum log level").String()
	rateLimitRPSFlag := kingpinApp.Flag("rate-limit-rps", "Requests per second allowed (set 0 to disable)").Default("-1").Float64()
	rateLimitBurstFlag := kingpinApp.Flag("rate-limit-burst", "Burst capacity for rate limiter (set 0 to disable)").Default("-1").Int()

	kingpin.MustParse(kingpinApp.Parse(os.Args[1:]))

	overrides := &config.CLIOverrides{
		ConfigFile: *configFile,
	}

	if *port != "" {
		overrides.Port = port
	}

	if *sourceFlag != "" {
		overrides.Source = sourceFlag
	}

	if *credentialsFile != "" {
		overrides.CredentialsFile = credentialsFile
	}

	if *fixtureFile != "" {
		overrides.FixtureFile = fixtureFile
	}

	if *logLevel != "" {
		overrides.LogLevel = logLevel
	}

	if *rateLimitRPSFlag >= 0 {
		overrides.RateLimitRPS = rateLimitRPSFlag
	}

	if *rateLimitBurstFlag >= 0 {
		overrides.RateLimitBurst = rateLimitBurstFlag
	}

	cfg, err := config.Load(overrides)
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer func() {
		_ = logger.Sync()
	}()

	app, err := application.New(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize application", zap.Error(err))
	}

	if err := app.Start(); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}

	shutdown(app.Server(), cfg.ShutdownGracePeriod, logger)
}

func shutdown(server *http.Server, timeout time.Duration, logger *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signalNotify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
		if closeErr := server.Close(); closeErr != nil {
			logger.Error("forced close failed", zap.Error(closeErr))
		}
	}
}
