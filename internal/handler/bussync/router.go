package bussync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	amqp "github.com/ThreeDotsLabs/watermill-amqp/v3/pkg/amqp"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"

	"github.com/hirelight/room-events-service/config"
	"github.com/hirelight/room-events-service/internal/adapter/pubsub"
)

const (
	// Every node binds the same durable queue, so the broker load-balances
	// sync envelopes across the cluster instead of copying them per node.
	SyncPoisonTopic = "room.events.sync.poison"
)

// SyncRouter owns the AMQP consumer side of the stateful-sync topic. It is
// only constructed when the bus driver is amqp; the in-process driver uses
// the plain bus listener instead.
type SyncRouter struct {
	logger *slog.Logger
	router *message.Router
	pub    message.Publisher
	sub    message.Subscriber
}

func NewSyncRouter(
	cfg *config.Config,
	logger *slog.Logger,
	wmLogger watermill.LoggerAdapter,
	processor *SyncProcessor,
) (*SyncRouter, error) {
	// Shared durable queue named after the topic: GenerateQueueNameTopicName
	// gives every node the same binding, which is what makes consumption
	// exactly-once across the cluster.
	amqpCfg := amqp.NewDurablePubSubConfig(cfg.PubSub.AmqpURI, amqp.GenerateQueueNameTopicName)

	pub, err := amqp.NewPublisher(amqpCfg, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("bussync: amqp publisher: %w", err)
	}
	sub, err := amqp.NewSubscriber(amqpCfg, wmLogger)
	if err != nil {
		_ = pub.Close()
		return nil, fmt.Errorf("bussync: amqp subscriber: %w", err)
	}

	router, err := message.NewRouter(message.RouterConfig{}, wmLogger)
	if err != nil {
		_ = pub.Close()
		_ = sub.Close()
		return nil, fmt.Errorf("bussync: router: %w", err)
	}

	poison, err := middleware.PoisonQueue(pub, SyncPoisonTopic)
	if err != nil {
		_ = pub.Close()
		_ = sub.Close()
		return nil, fmt.Errorf("POISON_SETUP_FAILED: %w", err)
	}

	router.AddNoPublisherHandler("STATEFUL_SYNC", pubsub.SyncKey, sub, Bind(processor, logger)).AddMiddleware(
		TraceIDMiddleware,
		LoggingMiddleware(logger),
		NewRetryMiddleware().Middleware,
		poison,
		middleware.Timeout(time.Second*30),
	)

	logger.Info("SYNC_PIPELINE_READY", "topic", pubsub.SyncKey)

	return &SyncRouter{
		logger: logger,
		router: router,
		pub:    pub,
		sub:    sub,
	}, nil
}

// Run blocks until the router stops.
func (r *SyncRouter) Run(ctx context.Context) error {
	return r.router.Run(ctx)
}

// Running reports readiness, mirroring the watermill router contract.
func (r *SyncRouter) Running() <-chan struct{} {
	return r.router.Running()
}

func (r *SyncRouter) Close() error {
	if err := r.router.Close(); err != nil {
		return fmt.Errorf("bussync: router close: %w", err)
	}
	_ = r.pub.Close()
	_ = r.sub.Close()
	return nil
}
