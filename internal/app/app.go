package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gks77/user-account-service/internal/config"
	"github.com/gks77/user-account-service/internal/service"
)

// App bundles the wired pieces the binary needs at runtime.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Server   *http.Server
	Sessions service.SessionService
}

func New(cfg *config.Config, logger *slog.Logger, server *http.Server, sessions service.SessionService) *App {
	return &App{Config: cfg, Logger: logger, Server: server, Sessions: sessions}
}

// StartSessionSweeper periodically soft-deletes expired sessions until ctx
// is cancelled. Sweep failures are logged and the loop keeps running.
func (a *App) StartSessionSweeper(ctx context.Context) {
	ticker := time.NewTicker(a.Config.SessionSweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			swept, err := a.Sessions.SweepExpired(ctx)
			if err != nil {
				a.Logger.ErrorContext(ctx, "session sweep failed", slog.String("error", err.Error()))
				continue
			}
			if swept > 0 {
				a.Logger.InfoContext(ctx, "session sweep completed", slog.Int64("swept", swept))
			}
		}
	}
}
