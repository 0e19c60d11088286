package app

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/boardsync/boardsync-server/internal/auth"
	"github.com/boardsync/boardsync-server/internal/config"
	"github.com/boardsync/boardsync-server/internal/core"
	"github.com/boardsync/boardsync-server/internal/persist"
	"github.com/boardsync/boardsync-server/internal/store"
	"github.com/boardsync/boardsync-server/internal/store/sqlite"
	transporthttp "github.com/boardsync/boardsync-server/internal/transport/http"
)

// App wires together store, persistence gateway, hub and transport.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	hub             *core.Hub
	gateway         *persist.Gateway
	store           store.Store
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg config.Config, logger *zerolog.Logger) (*App, error) {
	st, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	logger.Info().Str("db_path", cfg.DatabasePath).Msg("database initialized")

	jwtConfig := &auth.JWTConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      24 * time.Hour,
	}
	authService := auth.NewService(st, jwtConfig)

	gateway := persist.New(st, cfg.PersistQueueSize, cfg.PersistMaxRetries, logger)

	hub := core.NewHub(authService, authService, gateway, core.Config{
		LockIdleTimeout:   cfg.LockIdleTimeout,
		LockSweepInterval: cfg.LockSweepInterval,
		EvictionGrace:     cfg.RoomEvictionGrace,
	}, logger)

	server := transporthttp.NewServer(hub, authService, st, cfg, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		hub:             hub,
		gateway:         gateway,
		store:           st,
		log:             logger,
	}, nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	a.gateway.Start()

	hubDone := make(chan struct{})
	go func() {
		a.hub.Run(ctx)
		close(hubDone)
	}()

	go func() {
		if err := a.server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		a.cleanup(hubDone)
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.cleanup(hubDone)
			return err
		}

		a.cleanup(hubDone)
		return <-serverErr
	}
}

// cleanup waits for the hub to flush rooms, drains the persistence
// gateway and closes the store.
func (a *App) cleanup(hubDone <-chan struct{}) {
	select {
	case <-hubDone:
	case <-time.After(a.shutdownTimeout):
		a.log.Warn().Msg("hub did not stop in time")
	}

	a.gateway.Close()

	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}
