package bussync

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"go.uber.org/fx"

	"github.com/hirelight/room-events-service/config"
	"github.com/hirelight/room-events-service/internal/adapter/pubsub"
)

var Module = fx.Module("bussync-handler",
	fx.Provide(
		NewSyncProcessor,
	),

	fx.Invoke(startConsumer),
)

// startConsumer wires the driver-appropriate sync consumer into the app
// lifecycle. The AMQP driver gets the router with retries and a poison
// queue; the memory driver gets the inline bus listener.
func startConsumer(
	lc fx.Lifecycle,
	cfg *config.Config,
	logger *slog.Logger,
	wmLogger watermill.LoggerAdapter,
	bus pubsub.Bus,
	processor *SyncProcessor,
) error {
	switch cfg.PubSub.Driver {
	case pubsub.DriverMemory, "":
		listener := NewListener(logger, bus, processor)
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				return listener.Start(context.WithoutCancel(ctx))
			},
			OnStop: func(_ context.Context) error {
				listener.Stop()
				return nil
			},
		})
		return nil

	case pubsub.DriverAMQP:
		router, err := NewSyncRouter(cfg, logger, wmLogger, processor)
		if err != nil {
			return err
		}

		runCtx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)

		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				go func() {
					done <- router.Run(runCtx)
				}()
				select {
				case <-router.Running():
					return nil
				case err := <-done:
					return fmt.Errorf("bussync: router exited early: %w", err)
				case <-ctx.Done():
					return ctx.Err()
				}
			},
			OnStop: func(_ context.Context) error {
				cancel()
				<-done
				return router.Close()
			},
		})
		return nil

	default:
		return fmt.Errorf("bussync: unknown driver %q", cfg.PubSub.Driver)
	}
}
