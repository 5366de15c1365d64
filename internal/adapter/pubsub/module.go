package pubsub

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	amqp "github.com/ThreeDotsLabs/watermill-amqp/v3/pkg/amqp"
	"go.uber.org/fx"

	"github.com/hirelight/room-events-service/config"
)

const (
	DriverMemory = "memory"
	DriverAMQP   = "amqp"
)

var Module = fx.Module("pubsub",
	fx.Provide(
		ProvideNodeID,
		ProvideBus,
	),
	fx.Invoke(func(lc fx.Lifecycle, bus Bus) {
		lc.Append(fx.Hook{
			OnStop: func(_ context.Context) error {
				return bus.Close()
			},
		})
	}),
)

// ProvideNodeID generates the per-process bus identity.
func ProvideNodeID() NodeID {
	return NodeID(watermill.NewShortUUID())
}

// ProvideBus selects the backend from configuration.
func ProvideBus(cfg *config.Config, logger *slog.Logger, wmLogger watermill.LoggerAdapter, nodeID NodeID) (Bus, error) {
	switch cfg.PubSub.Driver {
	case DriverMemory, "":
		return NewMemoryBus(logger, nodeID), nil

	case DriverAMQP:
		// Every Subscribe gets its own broker queue: multiple sessions of the
		// same room on the same node must each receive a full copy.
		amqpCfg := amqp.NewNonDurablePubSubConfig(cfg.PubSub.AmqpURI, func(topic string) string {
			return fmt.Sprintf("%s.%s.%s", topic, nodeID, watermill.NewShortUUID())
		})

		pub, err := amqp.NewPublisher(amqpCfg, wmLogger)
		if err != nil {
			return nil, fmt.Errorf("pubsub: amqp publisher: %w", err)
		}
		sub, err := amqp.NewSubscriber(amqpCfg, wmLogger)
		if err != nil {
			_ = pub.Close()
			return nil, fmt.Errorf("pubsub: amqp subscriber: %w", err)
		}
		return NewWatermillBus(logger, nodeID, pub, sub), nil

	default:
		return nil, fmt.Errorf("pubsub: unknown driver %q", cfg.PubSub.Driver)
	}
}
