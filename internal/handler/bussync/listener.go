package bussync

import (
	"context"
	"log/slog"

	"github.com/hirelight/room-events-service/internal/adapter/pubsub"
	"github.com/hirelight/room-events-service/internal/domain/event"
)

// Listener is the in-process fallback for the memory driver: a single bus
// subscription on the sync topic, invoked inline by the memory bus. No
// retries or poison queue here; there is no broker to redeliver from.
type Listener struct {
	logger    *slog.Logger
	bus       pubsub.Bus
	processor *SyncProcessor

	unsub pubsub.Unsubscribe
}

func NewListener(logger *slog.Logger, bus pubsub.Bus, processor *SyncProcessor) *Listener {
	return &Listener{
		logger:    logger,
		bus:       bus,
		processor: processor,
	}
}

func (l *Listener) Start(ctx context.Context) error {
	unsub, err := l.bus.Subscribe(ctx, pubsub.SyncKey, func(env *event.Envelope) {
		if err := l.processor.Process(context.Background(), env); err != nil {
			l.logger.Error("sync listener: process failed", "type", env.Event.Type, "error", err)
		}
	})
	if err != nil {
		return err
	}
	l.unsub = unsub
	return nil
}

func (l *Listener) Stop() {
	if l.unsub != nil {
		l.unsub()
	}
}
