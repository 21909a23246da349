package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/maritime-esg/esg-analytics/internal/domain/tracking"
	"github.com/maritime-esg/esg-analytics/internal/infra/config"
	"github.com/maritime-esg/esg-analytics/internal/interface/ws"
)

// App encapsulates the HTTP server, subscriber hub and tracking loop
// lifecycle.
type App struct {
	cfg      *config.Config
	logger   *slog.Logger
	server   *http.Server
	hub      *ws.Hub
	tracking *tracking.Service
}

// NewApp is used by Wire to build the runnable app.
func NewApp(cfg *config.Config, logger *slog.Logger, server *http.Server, hub *ws.Hub, trackingSvc *tracking.Service) *App {
	return &App{
		cfg:      cfg,
		logger:   logger.With("component", "bootstrap"),
		server:   server,
		hub:      hub,
		tracking: trackingSvc,
	}
}

// Run starts the hub and HTTP server and blocks until shutdown. The tracking
// loop starts lazily on the first websocket subscriber and is stopped here;
// the hub stops with the signal context and closes remaining subscribers.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go a.hub.Run(ctx)
	go func() {
		a.logger.Info("http server starting", "address", a.cfg.HTTP.Address)
		if err := a.server.ListenAndServe(); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
		a.tracking.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	case err := <-errCh:
		a.tracking.Stop()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
