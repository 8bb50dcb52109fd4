// FILE: logvault/src/cmd/logvault/bootstrap.go
package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"logvault/src/internal/api"
	"logvault/src/internal/auth"
	"logvault/src/internal/config"
	"logvault/src/internal/ingest"
	"logvault/src/internal/metrics"
	"logvault/src/internal/query"
	"logvault/src/internal/store"
	"logvault/src/internal/store/memory"
	"logvault/src/internal/store/mongo"

	"github.com/lixenwraith/log"
)

// application holds the running components in shutdown order
type application struct {
	server *api.Server
	auth   *auth.Service
	store  store.Store
}

// bootstrap opens the store and wires every component into the HTTP server
func bootstrap(ctx context.Context, cfg *config.Config) (*application, error) {
	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	authSvc, err := auth.NewServiceFromConfig(cfg.Auth, st.Users(), logger)
	if err != nil {
		_ = st.Close(context.Background())
		return nil, err
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	server := api.New(cfg, api.Deps{
		Auth:     authSvc,
		Ingestor: ingest.New(st.Logs(), logger),
		Engine:   query.New(st.Logs(), cfg.Query.UnsetParams, logger),
		Store:    st,
		Metrics:  m,
		Logger:   logger,
	})

	logger.Info("msg", "Components initialized",
		"store", cfg.Store.Type,
		"unset_params", cfg.Query.UnsetParams,
		"token_policy", authSvc.Tokens().Policy().String(),
		"metrics", cfg.Metrics.Enabled)

	return &application{server: server, auth: authSvc, store: st}, nil
}

// shutdown stops the HTTP server, background auth work and the store connection
func (a *application) shutdown(ctx context.Context) error {
	var errs []error
	if err := a.server.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("server: %w", err))
	}
	a.auth.Stop()
	if err := a.store.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("store: %w", err))
	}
	return errors.Join(errs...)
}

// openStore connects the configured persistence backend
func openStore(ctx context.Context, cfg *config.Config, logger *log.Logger) (store.Store, error) {
	switch cfg.Store.Type {
	case config.StoreTypeMemory:
		logger.Warn("msg", "Using in-memory store, data is lost on restart", "component", "store")
		return memory.New(), nil
	case config.StoreTypeMongo:
		return mongo.New(ctx, &cfg.Store, logger)
	default:
		return nil, fmt.Errorf("unknown store type: %s", cfg.Store.Type)
	}
}

// initializeLogger sets up the logger based on configuration
func initializeLogger(cfg *config.Config) error {
	logCfg, err := buildLogConfig(cfg)
	if err != nil {
		return err
	}

	logger = log.NewLogger()
	if err := logger.ApplyConfig(logCfg); err != nil {
		return err
	}
	return logger.Start()
}

// buildLogConfig maps the [logging] section onto the logger configuration
func buildLogConfig(cfg *config.Config) (*log.Config, error) {
	logCfg := log.DefaultConfig()

	level, err := parseLogLevel(cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	logCfg.Level = level

	// File settings only take effect when file output is enabled
	file := cfg.Logging.File
	logCfg.Directory = file.Directory
	logCfg.Name = file.Name
	if file.MaxSizeMB > 0 {
		logCfg.MaxSizeKB = file.MaxSizeMB * 1000
	}
	if file.MaxTotalSizeMB >= 0 {
		logCfg.MaxTotalSizeKB = file.MaxTotalSizeMB * 1000
	}
	if file.RetentionHours > 0 {
		logCfg.RetentionPeriodHrs = file.RetentionHours
	}

	switch cfg.Logging.Output {
	case "none":
		logCfg.EnableConsole = false
		logCfg.DisableFile = true

	case "stdout", "stderr":
		logCfg.EnableConsole = true
		logCfg.ConsoleTarget = cfg.Logging.Output
		logCfg.DisableFile = true

	case "file":
		logCfg.EnableConsole = false
		logCfg.DisableFile = false

	case "both":
		logCfg.EnableConsole = true
		logCfg.ConsoleTarget = cfg.Logging.Console.Target
		logCfg.DisableFile = false

	default:
		return nil, fmt.Errorf("invalid log output mode: %s", cfg.Logging.Output)
	}

	if cfg.Logging.Console.Format != "" {
		logCfg.Format = cfg.Logging.Console.Format
	}

	return logCfg, nil
}

func parseLogLevel(level string) (int64, error) {
	switch strings.ToLower(level) {
	case "debug":
		return int64(log.LevelDebug), nil
	case "info":
		return int64(log.LevelInfo), nil
	case "warn", "warning":
		return int64(log.LevelWarn), nil
	case "error":
		return int64(log.LevelError), nil
	default:
		return 0, fmt.Errorf("unknown log level: %s", level)
	}
}
