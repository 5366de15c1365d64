package cmd

import (
	"log/slog"
	"os"

	"github.com/ThreeDotsLabs/watermill"
	"go.uber.org/fx"

	"github.com/hirelight/room-events-service/config"
	httpserver "github.com/hirelight/room-events-service/infra/server/http"
	"github.com/hirelight/room-events-service/internal/adapter/hotstore"
	"github.com/hirelight/room-events-service/internal/adapter/inmem"
	"github.com/hirelight/room-events-service/internal/adapter/pubsub"
	"github.com/hirelight/room-events-service/internal/domain/registry"
	"github.com/hirelight/room-events-service/internal/handler/bussync"
	"github.com/hirelight/room-events-service/internal/handler/chain"
	"github.com/hirelight/room-events-service/internal/handler/ws"
	"github.com/hirelight/room-events-service/internal/service"
)

func NewApp(cfg *config.Config) *fx.App {
	return fx.New(
		fx.Provide(
			func() *config.Config { return cfg },
			ProvideLogger,
			ProvideWatermillLogger,
		),
		inmem.Module,
		pubsub.Module,
		hotstore.Module,
		registry.Module,
		service.Module,
		chain.Module,
		ws.Module,
		bussync.Module,
		httpserver.Module,
	)
}

func ProvideLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		level = slog.LevelInfo
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})).
		With("service", ServiceName)
	slog.SetDefault(logger)
	return logger
}

func ProvideWatermillLogger(logger *slog.Logger) watermill.LoggerAdapter {
	return watermill.NewSlogLogger(logger)
}
