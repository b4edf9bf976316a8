// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Urang Market Contributors

package main

import (
	"context"
	"crypto/rand"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/samber/oops"

	"github.com/urang-market/accounts/internal/auth"
	"github.com/urang-market/accounts/internal/auth/memory"
	authpg "github.com/urang-market/accounts/internal/auth/postgres"
	"github.com/urang-market/accounts/internal/config"
	"github.com/urang-market/accounts/internal/httpapi"
	"github.com/urang-market/accounts/internal/logging"
	"github.com/urang-market/accounts/internal/observability"
	"github.com/urang-market/accounts/internal/store"
)

// shutdownTimeout bounds graceful shutdown of the HTTP servers.
const shutdownTimeout = 10 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the account service",
		Long: `Start the HTTP API for signup, login, session validation, and
password management, plus the observability endpoints.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configFile, cmd.Flags())
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	// Kebab-case flags map onto the snake_case config file keys in
	// config.Load.
	cmd.Flags().String("listen-addr", ":8080", "HTTP API listen address")
	cmd.Flags().String("metrics-addr", "127.0.0.1:9100", "metrics/health HTTP address (empty = disabled)")
	cmd.Flags().String("database-url", "", "PostgreSQL connection string")
	cmd.Flags().String("session-secret", "", "session token signing secret")
	cmd.Flags().Duration("session-ttl", 24*time.Hour, "session token lifetime")
	cmd.Flags().Bool("secure-cookies", true, "mark session cookies Secure")
	cmd.Flags().Duration("request-timeout", 10*time.Second, "per-request timeout")
	cmd.Flags().String("log-format", "json", "log format (json or text)")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	cmd.Flags().Bool("dev", false, "run with an in-memory user store")

	return cmd
}

func runServe(ctx context.Context, cfg *config.Config) error {
	logging.SetDefault("accounts", version, cfg.LogFormat, cfg.LogLevel)
	logger := slog.Default()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// User store: Postgres in production, in-memory in dev mode.
	var users auth.UserRepository
	if cfg.Dev {
		logger.Warn("dev mode: using in-memory user store, data will not survive restarts")
		users = memory.NewUserRepository()
	} else {
		pool, err := store.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()
		users = authpg.NewUserRepository(pool)
	}

	secret := []byte(cfg.SessionSecret)
	if cfg.Dev && len(secret) < auth.MinSigningKeyLength {
		// Sessions won't survive restarts with an ephemeral key, which is
		// acceptable in dev mode.
		logger.Warn("dev mode: generating ephemeral session signing key")
		secret = make([]byte, auth.MinSigningKeyLength)
		if _, err := rand.Read(secret); err != nil {
			return oops.Code("SESSION_KEY_GENERATE_FAILED").Wrap(err)
		}
	}

	hasher := auth.NewArgon2idHasher()

	verifier, err := auth.NewVerifierWithLogger(users, hasher, logger)
	if err != nil {
		return err
	}
	registrar, err := auth.NewRegistrationServiceWithLogger(users, hasher, logger)
	if err != nil {
		return err
	}
	changer, err := auth.NewPasswordChangerWithLogger(users, verifier, hasher, logger)
	if err != nil {
		return err
	}
	tokens, err := auth.NewTokenIssuer(secret, cfg.SessionTTL)
	if err != nil {
		return err
	}

	// Observability server is optional; the API works without it. Readiness
	// follows the API server, so the observability server only starts once
	// apiServer is assigned.
	var apiServer *httpapi.Server
	var obsErrCh <-chan error
	var obsServer *observability.Server
	var metrics *observability.Metrics
	if cfg.MetricsAddr != "" {
		obsServer = observability.NewServer(cfg.MetricsAddr, func() bool {
			return apiServer.Running()
		})
		metrics = obsServer.Metrics()
	}

	apiServer, err = httpapi.NewServer(verifier, registrar, changer, tokens, httpapi.Options{
		Addr:           cfg.ListenAddr,
		SecureCookies:  cfg.SecureCookies,
		RequestTimeout: cfg.RequestTimeout,
		Metrics:        metrics,
		Logger:         logger,
	})
	if err != nil {
		return err
	}

	apiErrCh, err := apiServer.Start()
	if err != nil {
		return err
	}

	if obsServer != nil {
		obsErrCh, err = obsServer.Start()
		if err != nil {
			stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if stopErr := apiServer.Stop(stopCtx); stopErr != nil {
				logger.Error("http server shutdown failed", "error", stopErr)
			}
			return err
		}
	}

	logger.Info("accounts service started",
		"listen_addr", apiServer.Addr(),
		"dev", cfg.Dev,
	)

	// Block until a shutdown signal or a server failure.
	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-apiErrCh:
		if err != nil {
			runErr = oops.Code("HTTP_SERVER_FAILED").Wrap(err)
		}
	case err := <-obsErrCh:
		if err != nil {
			runErr = oops.Code("OBSERVABILITY_SERVER_FAILED").Wrap(err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := apiServer.Stop(shutdownCtx); err != nil {
		logger.Error("http server shutdown failed", "error", err)
	}
	if obsServer != nil {
		if err := obsServer.Stop(shutdownCtx); err != nil {
			logger.Error("observability server shutdown failed", "error", err)
		}
	}

	return runErr
}
