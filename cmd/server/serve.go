package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"authgate/backend/internal/config"
	"authgate/backend/internal/httpserver"
	"authgate/backend/internal/infrastructure/token"
	"authgate/backend/internal/logging"
	"authgate/backend/internal/metrics"
	authusecase "authgate/backend/internal/usecase/auth"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/samber/oops"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger := logging.Setup("authgate", version, cfg.Log.Format, cmd.ErrOrStderr())
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server, cleanup, err := buildServer(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", server.Addr(), "store", cfg.Store.Driver)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return oops.Code("HTTP_SERVE_FAILED").Wrap(err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.LogError(shutdownCtx, logger, "graceful shutdown failed", err)
		return oops.Code("HTTP_SHUTDOWN_FAILED").Wrap(err)
	}
	logger.Info("graceful shutdown completed")
	return nil
}

// buildServer wires the store, hasher, token manager, services and server.
func buildServer(ctx context.Context, cfg config.Config, logger *slog.Logger) (*httpserver.Server, func(), error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(reg)

	users, cleanup, err := openStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	hasher, err := authusecase.NewBcryptHasher(cfg.Auth.BcryptCost,
		authusecase.WithHashObserver(collector.ObservePasswordHash))
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	tokens := token.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, cfg.Auth.JWTIssuer)

	server, err := httpserver.NewServer(cfg,
		authusecase.NewService(users, hasher, tokens),
		authusecase.NewResolver(tokens, users),
		httpserver.WithLogger(logger),
		httpserver.WithMetrics(collector),
	)
	if err != nil {
		cleanup()
		return nil, nil, oops.Code("HTTP_SETUP_FAILED").Wrap(err)
	}
	return server, cleanup, nil
}
