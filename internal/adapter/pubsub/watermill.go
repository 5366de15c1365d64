package pubsub

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/hirelight/room-events-service/internal/domain/event"
)

// Interface guard
var _ Bus = (*WatermillBus)(nil)

// WatermillBus is the network backend: it wraps a generic watermill
// publisher/subscriber pair (AMQP in production, GoChannel in the contract
// tests). Publish serializes the envelope to bytes; Subscribe deserializes
// inbound bytes and invokes the callback; the unsubscribe handle releases
// the underlying channel subscription.
type WatermillBus struct {
	logger *slog.Logger
	nodeID NodeID
	pub    message.Publisher
	sub    message.Subscriber
}

func NewWatermillBus(logger *slog.Logger, nodeID NodeID, pub message.Publisher, sub message.Subscriber) *WatermillBus {
	return &WatermillBus{
		logger: logger,
		nodeID: nodeID,
		pub:    pub,
		sub:    sub,
	}
}

// Publish stamps and serializes the envelope, then hands it to the broker.
// An envelope that already names its origin node keeps it; forwarding must
// not re-attribute the event.
func (b *WatermillBus) Publish(ctx context.Context, key string, env *event.Envelope) error {
	if env.NodeID == "" {
		env.NodeID = string(b.nodeID)
	}

	payload, err := env.Marshal()
	if err != nil {
		return fmt.Errorf("bus publish %q: %w", key, err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)

	if err := b.pub.Publish(key, msg); err != nil {
		return fmt.Errorf("bus publish %q: %w", key, err)
	}
	return nil
}

// Subscribe opens a broker subscription under the key and pumps decoded
// envelopes into the callback until the handle (or the caller's context)
// releases it. Undecodable payloads are acked and dropped with a warning;
// protocol garbage must not wedge the subscription.
func (b *WatermillBus) Subscribe(ctx context.Context, key string, fn Handler) (Unsubscribe, error) {
	subCtx, cancel := context.WithCancel(ctx)

	ch, err := b.sub.Subscribe(subCtx, key)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("bus subscribe %q: %w", key, err)
	}

	go func() {
		for msg := range ch {
			env, err := event.DecodeEnvelope(msg.Payload)
			if err != nil {
				b.logger.Warn("bus: dropping undecodable envelope", "key", key, "error", err)
				msg.Ack()
				continue
			}
			b.invoke(key, fn, env)
			msg.Ack()
		}
	}()

	var once sync.Once
	return func() {
		once.Do(cancel)
	}, nil
}

func (b *WatermillBus) invoke(key string, fn Handler, env *event.Envelope) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("bus: subscriber panic", "key", key, "panic", r)
		}
	}()
	fn(env)
}

// Close releases the underlying publisher and subscriber.
func (b *WatermillBus) Close() error {
	pubErr := b.pub.Close()
	subErr := b.sub.Close()
	if pubErr != nil {
		return fmt.Errorf("bus close publisher: %w", pubErr)
	}
	if subErr != nil {
		return fmt.Errorf("bus close subscriber: %w", subErr)
	}
	return nil
}
