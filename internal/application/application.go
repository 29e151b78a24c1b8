package application

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/holasaidlola/shop-analytics/internal/analytics"
	"github.com/holasaidlola/shop-analytics/internal/api"
	"github.com/holasaidlola/shop-analytics/internal/config"
	"github.com/holasaidlola/shop-analytics/internal/credentials"
	"github.com/holasaidlola/shop-analytics/internal/geo"
	"github.com/holasaidlola/shop-analytics/internal/source"
	"github.com/holasaidlola/shop-analytics/internal/storage"
)

// App encapsulates the application dependencies and HTTP server.
type App struct {
	source  source.DataSource
	storage storage.Storage
	engine  *analytics.Engine
	handler *api.Handler
	router  http.Handler
	logger  *zap.Logger
	server  *http.Server
}

// New initializes the application with all dependencies from the provided
// configuration and performs the initial dataset fetch, so a broken
// credentials file, fixture, or unreachable host fails the boot instead of
// the first request.
func New(cfg config.Config, logger *zap.Logger) (*App, error) {
	var creds credentials.Credentials
	if cfg.Source == config.SourceLive {
		path, err := locateFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("locate credentials file: %w", err)
		}
		creds, err = credentials.Load(path)
		if err != nil {
			return nil, fmt.Errorf("load credentials: %w", err)
		}
	}

	if cfg.Source == config.SourceFixture {
		fixturePath, err := locateFile(cfg.FixtureFile)
		if err != nil {
			return nil, fmt.Errorf("locate fixture file: %w", err)
		}
		cfg.FixtureFile = fixturePath
	}

	zipcodesPath, err := locateFile(cfg.ZipcodesFile)
	if err != nil {
		return nil, fmt.Errorf("locate zipcodes file: %w", err)
	}
	resolver, err := geo.NewResolver(zipcodesPath)
	if err != nil {
		return nil, fmt.Errorf("load zipcodes table: %w", err)
	}

	src, err := source.New(cfg, creds, logger)
	if err != nil {
		return nil, fmt.Errorf("build data source: %w", err)
	}

	store := storage.NewMemoryStorage()
	if err := loadInitialDataset(cfg, src, store, logger); err != nil {
		return nil, err
	}

	engine := analytics.NewEngine(resolver)
	handler := api.NewHandler(src, store, engine, cfg.Source)
	apiRouter := api.NewRouter(handler, logger,
		api.WithLogging(cfg.EnableRequestLogging),
		api.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
	)

	rootHandler, err := BuildRootHandler(apiRouter)
	if err != nil {
		return nil, fmt.Errorf("failed to build HTTP handler: %w", err)
	}

	return &App{
		source:  src,
		storage: store,
		engine:  engine,
		handler: handler,
		router:  apiRouter,
		logger:  logger,
		server:  NewServer(cfg, rootHandler),
	}, nil
}

// loadInitialDataset performs the synchronous startup fetch.
func loadInitialDataset(cfg config.Config, src source.DataSource, store storage.Storage, logger *zap.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.FetchTimeout)
	defer cancel()

	orders, err := src.FetchOrders(ctx)
	if err != nil {
		return fmt.Errorf("initial dataset fetch: %w", err)
	}
	if err := store.SetOrders(orders); err != nil {
		return fmt.Errorf("store initial dataset: %w", err)
	}

	logger.Info("initial dataset loaded",
		zap.String("source", cfg.Source),
		zap.Int("orders", len(orders)),
	)
	return nil
}

// BuildRootHandler constructs the root HTTP handler that serves the dashboard
// page, its static assets, and the API routes.
func BuildRootHandler(apiHandler http.Handler) (http.Handler, error) {
	mux := http.NewServeMux()

	staticPath, err := resolveProjectPath(filepath.Join("web", "static"))
	if err != nil {
		return nil, err
	}
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(staticPath))))
	mux.Handle("/api/", apiHandler)

	indexPath, err := resolveProjectPath(filepath.Join("web", "templates", "index.html"))
	if err != nil {
		return nil, err
	}
	mux.Handle("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		http.ServeFile(w, r, indexPath)
	}))

	return mux, nil
}

// NewServer creates and configures an HTTP server from the provided configuration.
func NewServer(cfg config.Config, handler http.Handler) *http.Server {
	addr := cfg.Port
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// Start starts the HTTP server in a goroutine and logs the listening address.
func (a *App) Start() error {
	go func() {
		a.logger.Info("server listening", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("server error", zap.Error(err))
		}
	}()
	return nil
}

// Server returns the HTTP server instance for shutdown handling.
func (a *App) Server() *http.Server {
	return a.server
}

// locateFile returns path if it exists as given, otherwise looks for it
// relative to the project root. Keeps default data paths working no matter
// which directory the binary starts from.
func locateFile(path string) (string, error) {
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	if filepath.IsAbs(path) {
		return "", fmt.Errorf("unable to locate %s", path)
	}
	return resolveProjectPath(path)
}

// resolveProjectPath locates a file or directory relative to the project root
// by walking up the directory tree.
func resolveProjectPath(relative string) (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		candidate := filepath.Join(dir, relative)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("unable to locate %s", relative)
}
