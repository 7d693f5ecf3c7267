package app

import (
	"context"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/ospanenko/chesswire-server/internal/config"
	"github.com/ospanenko/chesswire-server/internal/core"
	"github.com/ospanenko/chesswire-server/internal/limit"
	transporthttp "github.com/ospanenko/chesswire-server/internal/transport/http"
)

// App wires together core and transport layers.
type App struct {
	server          *stdhttp.Server
	limiter         *limit.RateLimiter
	shutdownTimeout time.Duration
	log             *zerolog.Logger
}

// New constructs the application with provided configuration. The rate
// limiter's background sweep starts here and stops during shutdown.
func New(cfg *config.Config, logger *zerolog.Logger) *App {
	registry := core.NewRegistry(cfg.ConnLimit, cfg.RoomsLimit)
	gateway := limit.NewGateway(limit.GatewayConfig{
		ConnLimit:     cfg.ConnLimit,
		BanLimit:      cfg.BanLimit,
		AddrConnLimit: cfg.AddrConnLimit,
	}, logger)
	limiter := limit.NewRateLimiter(cfg.MaxReqCount, cfg.RateSweepInterval)

	router := transporthttp.NewRouter(registry, gateway, limiter, logger)
	server := transporthttp.NewServer(router, cfg, logger)

	return &App{
		server:          server,
		limiter:         limiter,
		shutdownTimeout: cfg.ShutdownTimeout,
		log:             logger,
	}
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go func() {
		if err := a.server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		a.cleanup()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.cleanup()
			return err
		}

		a.cleanup()
		return <-serverErr
	}
}

// cleanup stops background work.
func (a *App) cleanup() {
	a.limiter.Stop()
	a.log.Info().Msg("rate limiter stopped")
}
