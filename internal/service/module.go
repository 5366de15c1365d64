package service

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/hirelight/room-events-service/config"
)

var Module = fx.Module("service",
	fx.Provide(
		func(logger *slog.Logger, cfg *config.Config) *Sender {
			return NewSender(logger, cfg.Dispatcher.FanoutLimit)
		},
		NewPersister,
		NewDispatcher,
		NewProviderSelector,
		NewRecorder,
		NewHistory,
	),

	// The dispatcher loop runs for the whole process lifetime and owns its
	// own cancellation; fx stops it after the transports are gone.
	fx.Invoke(func(lc fx.Lifecycle, d *Dispatcher) {
		loopCtx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})

		lc.Append(fx.Hook{
			OnStart: func(_ context.Context) error {
				go func() {
					defer close(done)
					_ = d.Run(loopCtx)
				}()
				return nil
			},
			OnStop: func(ctx context.Context) error {
				cancel()
				select {
				case <-done:
					return nil
				case <-ctx.Done():
					return ctx.Err()
				}
			},
		})
	}),
)
