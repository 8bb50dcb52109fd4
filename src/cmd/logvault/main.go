// FILE: logvault/src/cmd/logvault/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"logvault/src/cmd/logvault/commands"
	"logvault/src/internal/config"
	"logvault/src/internal/version"

	"github.com/lixenwraith/log"
)

const shutdownTimeout = 10 * time.Second

var logger *log.Logger

func main() {
	router := commands.NewCommandRouter(commands.Deps{
		Serve:     runServer,
		OpenStore: openStore,
	})

	handled, err := router.Route(os.Args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if handled {
		os.Exit(0)
	}

	if err := runServer(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// runServer loads configuration, serves until SIGINT/SIGTERM, then shuts down gracefully
func runServer(args []string) error {
	flagCfg, err := parseFlags(args)
	if err != nil {
		return err
	}

	cfg, err := config.Load(flagCfg.ConfigFile, flagCfg.ConfigArgs)
	if err != nil {
		if flagCfg.ConfigFile != "" && strings.Contains(err.Error(), "not found") {
			return fmt.Errorf("config file not found: %s", flagCfg.ConfigFile)
		}
		return err
	}

	if err := initializeLogger(cfg); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer shutdownLogger()

	logger.Info("msg", "LogVault starting",
		"version", version.String(),
		"config_file", flagCfg.ConfigFile,
		"store", cfg.Store.Type,
		"password_storage", cfg.Auth.PasswordStorage,
		"log_output", cfg.Logging.Output)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap(ctx, cfg)
	if err != nil {
		logger.Error("msg", "Failed to bootstrap service", "error", err)
		return err
	}

	if err := app.server.Start(); err != nil {
		app.shutdown(context.Background())
		return err
	}

	logger.Info("msg", "LogVault started",
		"version", version.Short(),
		"addr", cfg.Server.Addr(),
		"routes", len(app.server.Routes()))

	<-ctx.Done()
	logger.Info("msg", "Shutdown signal received, starting graceful shutdown")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := app.shutdown(shutdownCtx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			logger.Error("msg", "Shutdown timeout exceeded", "timeout", shutdownTimeout)
		}
		return err
	}

	logger.Info("msg", "Shutdown complete")
	return nil
}

func shutdownLogger() {
	if logger != nil {
		if err := logger.Shutdown(2 * time.Second); err != nil {
			// Best effort, the logger itself is gone
			fmt.Fprintf(os.Stderr, "Logger shutdown error: %v\n", err)
		}
	}
}
