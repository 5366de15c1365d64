// Package pubsub bridges the room event stream across server processes. Two
// interchangeable backends satisfy one contract: an in-process bus for
// single-instance deployments and tests, and a watermill-backed bus wrapping
// an external broker for multi-node deployments.
package pubsub

import (
	"context"

	"github.com/google/uuid"

	"github.com/hirelight/room-events-service/internal/domain/event"
)

// NodeID identifies this process on the bus. Generated once at startup.
type NodeID string

// Handler receives one bus envelope. Callbacks must not block for long; the
// backend may invoke them inline with Publish.
type Handler func(env *event.Envelope)

// Unsubscribe releases one subscription. Safe to call more than once.
type Unsubscribe func()

// Bus is the publish/subscribe contract shared by both backends. Delivery is
// at-most-once and unordered across publishers; only per-connection inbound
// order is preserved, and by the session loop rather than the bus.
type Bus interface {
	Publish(ctx context.Context, key string, env *event.Envelope) error
	Subscribe(ctx context.Context, key string, fn Handler) (Unsubscribe, error)
	Close() error
}

const (
	keyPrefix = "room.events."

	// GlobalKey carries room-independent broadcasts such as generic domain
	// events.
	GlobalKey = keyPrefix + "all"

	// SyncKey carries stateful-sync envelopes consumed exactly once
	// cluster-wide by a single subscribed worker.
	SyncKey = keyPrefix + "sync"
)

// RoomKey derives the stable routing key for one room's event stream.
func RoomKey(roomID uuid.UUID) string {
	return keyPrefix + roomID.String()
}
