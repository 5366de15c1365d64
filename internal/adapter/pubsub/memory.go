package pubsub

import (
	"context"
	"log/slog"
	"sync"

	"github.com/hirelight/room-events-service/internal/domain/event"
)

// Interface guard
var _ Bus = (*MemoryBus)(nil)

// MemoryBus is the in-process backend: a key→callback-list map. Publish
// invokes every registered callback inline, which keeps single-instance
// deployments and tests free of broker dependencies while preserving the
// same at-most-once contract as the network backend.
type MemoryBus struct {
	logger *slog.Logger
	nodeID NodeID

	mu     sync.RWMutex
	subs   map[string][]*memorySub
	closed bool
}

type memorySub struct {
	fn Handler
}

func NewMemoryBus(logger *slog.Logger, nodeID NodeID) *MemoryBus {
	return &MemoryBus{
		logger: logger,
		nodeID: nodeID,
		subs:   make(map[string][]*memorySub),
	}
}

// Publish stamps the envelope with this node's id, unless it already names
// its origin node, and invokes every callback registered under the key. A
// callback panic is contained per subscriber so one broken consumer cannot
// take down the publisher.
func (b *MemoryBus) Publish(_ context.Context, key string, env *event.Envelope) error {
	if env.NodeID == "" {
		env.NodeID = string(b.nodeID)
	}

	b.mu.RLock()
	subs := b.subs[key]
	b.mu.RUnlock()

	for _, sub := range subs {
		b.invoke(key, sub, env)
	}
	return nil
}

func (b *MemoryBus) invoke(key string, sub *memorySub, env *event.Envelope) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("memory bus: subscriber panic", "key", key, "panic", r)
		}
	}()
	sub.fn(env)
}

// Subscribe registers the callback under the key. The returned handle
// removes exactly this registration.
func (b *MemoryBus) Subscribe(_ context.Context, key string, fn Handler) (Unsubscribe, error) {
	sub := &memorySub{fn: fn}

	b.mu.Lock()
	b.subs[key] = append(b.subs[key], sub)
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.remove(key, sub)
		})
	}, nil
}

func (b *MemoryBus) remove(key string, sub *memorySub) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subs[key]
	for i, s := range subs {
		if s == sub {
			b.subs[key] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	if len(b.subs[key]) == 0 {
		delete(b.subs, key)
	}
}

// Close drops every subscription.
func (b *MemoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = make(map[string][]*memorySub)
	b.closed = true
	return nil
}
