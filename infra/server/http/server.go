// Package httpserver hosts the websocket entrypoint and the health probe.
package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/fx"

	"github.com/hirelight/room-events-service/config"
	"github.com/hirelight/room-events-service/internal/handler/ws"
)

var Module = fx.Module("http-server",
	fx.Provide(
		NewRouter,
	),
	fx.Invoke(registerServer),
)

func NewRouter(logger *slog.Logger, wsHandler *ws.WSHandler) chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/ws/{roomID}", wsHandler.ServeHTTP)

	return r
}

func registerServer(lc fx.Lifecycle, cfg *config.Config, logger *slog.Logger, router chi.Router) {
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			// Listen synchronously so a busy port fails startup instead of
			// surfacing later from the serve goroutine.
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			logger.Info("HTTP_SERVER_STARTED", "addr", srv.Addr)

			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("HTTP_SERVER_FAILED", "err", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}
