// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkpress Contributors

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

	"github.com/inkpress/inkpress/internal/auth"
	authpg "github.com/inkpress/inkpress/internal/auth/postgres"
	blogpg "github.com/inkpress/inkpress/internal/blog/postgres"
	"github.com/inkpress/inkpress/internal/logging"
	"github.com/inkpress/inkpress/internal/observability"
	"github.com/inkpress/inkpress/internal/store"
	"github.com/inkpress/inkpress/internal/web"
	"github.com/inkpress/inkpress/pkg/errutil"
)

const shutdownTimeout = 10 * time.Second

// sessionSweepInterval bounds how long expired sessions linger in the
// database after their TTL passes.
const sessionSweepInterval = time.Hour

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the blog server",
		Long: `Start the HTTP server. Connects to PostgreSQL, serves the blog
routes, and exposes metrics and health probes on a separate listener.`,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("database URL is required (--database-url or DATABASE_URL)")
	}

	logging.SetDefault("inkpress", version, cfg.LogFormat)
	logger := slog.Default()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := store.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	authSvc, err := auth.NewService(
		authpg.NewUserRepository(pool),
		authpg.NewSessionRepository(pool),
		auth.NewArgon2idHasher(),
		cfg.SessionTTL,
	)
	if err != nil {
		return err
	}
	articles := blogpg.NewArticleRepository(pool)

	var obs *observability.Server
	var obsErrCh <-chan error
	var metrics *observability.Metrics
	if cfg.MetricsAddr != "" {
		obs = observability.NewServer(cfg.MetricsAddr, func() bool {
			return pool.Ping(ctx) == nil
		})
		metrics = obs.Metrics()
		obsErrCh, err = obs.Start()
		if err != nil {
			return err
		}
		logger.Info("observability server started", "addr", obs.Addr())
	}

	handlers, err := web.NewHandlers(authSvc, articles, metrics, logger, cfg.CookieSecure)
	if err != nil {
		return err
	}
	server, err := web.NewServer(cfg.ListenAddr, handlers, metrics, logger)
	if err != nil {
		return err
	}

	go sweepSessions(ctx, authpg.NewSessionRepository(pool), logger)

	serveErrCh := make(chan error, 1)
	go func() {
		serveErrCh <- server.Start()
	}()
	logger.Info("server started", "addr", cfg.ListenAddr)

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-serveErrCh:
		if err != nil {
			errutil.LogError(logger, "server failed", err)
			return err
		}
		return nil
	case err := <-obsErrCh:
		if err != nil {
			errutil.LogError(logger, "observability server failed", err)
			return oops.Code("OBS_SERVE_FAILED").Wrap(err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		errutil.LogError(logger, "server shutdown failed", err)
	}
	if obs != nil {
		if err := obs.Stop(shutdownCtx); err != nil {
			errutil.LogError(logger, "observability shutdown failed", err)
		}
	}

	logger.Info("shutdown complete")
	return nil
}

// sweepSessions periodically deletes expired sessions until ctx is done.
func sweepSessions(ctx context.Context, sessions auth.SessionRepository, logger *slog.Logger) {
	ticker := time.NewTicker(sessionSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			count, err := sessions.DeleteExpired(ctx)
			if err != nil {
				logger.Warn("session sweep failed", "error", err)
				continue
			}
			if count > 0 {
				logger.Info("expired sessions removed", "count", count)
			}
		}
	}
}
