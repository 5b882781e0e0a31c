// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenGate Contributors

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/opengate/opengate/internal/account"
	accountpg "github.com/opengate/opengate/internal/account/postgres"
	"github.com/opengate/opengate/internal/command"
	"github.com/opengate/opengate/internal/command/handlers"
	"github.com/opengate/opengate/internal/config"
	"github.com/opengate/opengate/internal/console"
	"github.com/opengate/opengate/internal/logging"
	"github.com/opengate/opengate/internal/observability"
	"github.com/opengate/opengate/internal/session"
	"github.com/opengate/opengate/internal/store"
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	var autoMigrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the account server",
		Long: `Start the console listener and the account management service,
connected to PostgreSQL.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configFile, cmd.Flags())
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg, autoMigrate)
		},
	}

	config.RegisterFlags(cmd.Flags())
	cmd.Flags().BoolVar(&autoMigrate, "auto-migrate", false, "run pending migrations on startup")

	return cmd
}

func runServe(ctx context.Context, cfg config.Config, autoMigrate bool) error {
	logger := logging.Setup("opengate", version, cfg.LogFormat, os.Stderr)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if autoMigrate {
		if err := runAutoMigrate(cfg.DatabaseURL, logger); err != nil {
			return err
		}
	}

	pool, err := store.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()
	logger.Info("connected to database")

	repo := accountpg.NewAccountRepository(pool)

	cache := account.NewCache(account.WithTTL(cfg.CacheTTL))
	cache.Start(ctx)
	// Cancel before waiting: the janitor only exits on ctx.Done, so the
	// wait must not run ahead of cancellation on error returns.
	defer func() {
		cancel()
		cache.Wait()
	}()

	hasher, err := account.NewBcryptHasherWithCost(cfg.BcryptCost)
	if err != nil {
		return err
	}

	// The unregister hook and the session manager reference each other,
	// so the hook captures the variable and checks it at call time.
	var sessions *session.Manager
	accounts, err := account.NewService(repo, cache, hasher,
		account.WithLogger(logger),
		account.WithUnregisterHook(func(acct account.Account) {
			if sessions != nil {
				sessions.Kick(acct.Realname, "your account has been deleted")
			}
		}),
	)
	if err != nil {
		return err
	}

	sessions, err = session.NewManager(accounts, repo, logger)
	if err != nil {
		return err
	}

	registry := command.NewRegistry()
	handlers.RegisterAll(registry)

	dispatcher, err := command.NewDispatcher(registry, logger)
	if err != nil {
		return err
	}

	server, err := console.NewServer(cfg.ListenAddr, accounts, sessions, dispatcher, logger)
	if err != nil {
		return err
	}

	var obsServer *observability.Server
	if cfg.MetricsAddr != "" {
		obsServer = observability.NewServer(cfg.MetricsAddr, func() bool { return true })
		account.RegisterMetrics(obsServer.Registry())
		command.RegisterMetrics(obsServer.Registry())

		obsErrChan, err := obsServer.Start()
		if err != nil {
			return oops.Code("OBSERVABILITY_START_FAILED").Wrap(err)
		}
		go monitorServerErrors(ctx, cancel, obsErrChan, "observability")
		logger.Info("observability server started", "addr", obsServer.Addr())
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	serveErrChan := make(chan error, 1)
	go func() {
		serveErrChan <- server.Run(ctx)
	}()

	logger.Info("server ready", "listen_addr", cfg.ListenAddr)

	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", "signal", sig.String())
	case err := <-serveErrChan:
		if err != nil {
			return oops.Code("CONSOLE_SERVER_FAILED").Wrap(err)
		}
	case <-ctx.Done():
		logger.Info("context cancelled, shutting down")
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if obsServer != nil {
		if err := obsServer.Stop(shutdownCtx); err != nil {
			logger.Warn("error stopping observability server", "error", err)
		}
	}

	logger.Info("shutdown complete")
	return nil
}

func runAutoMigrate(databaseURL string, logger *slog.Logger) error {
	migrator, err := store.NewMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := migrator.Close(); closeErr != nil {
			logger.Warn("error closing migrator", "error", closeErr)
		}
	}()

	if err := migrator.Up(); err != nil {
		return err
	}
	logger.Info("migrations applied")
	return nil
}

// monitorServerErrors cancels the process context when a background
// server reports a fatal error.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errChan <-chan error, name string) {
	select {
	case err, ok := <-errChan:
		if ok && err != nil {
			slog.Error("server failed", "server", name, "error", err)
			cancel()
		}
	case <-ctx.Done():
	}
}
