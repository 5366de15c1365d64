package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/hirelight/room-events-service/internal/domain/event"
	"github.com/hirelight/room-events-service/internal/domain/room"
)

// Persister remembers the current value of a stateful event type per room,
// overwriting any prior value for the (room, type) pair.
//
// The upserter fronts external persistence, so calls go through a circuit
// breaker: when the storage side degrades, persistence fails fast instead of
// stalling dispatcher batches. Persistence stays best-effort either way.
type Persister struct {
	logger   *slog.Logger
	upserter room.StateUpserter
	breaker  *gobreaker.CircuitBreaker
}

func NewPersister(logger *slog.Logger, upserter room.StateUpserter) *Persister {
	return &Persister{
		logger:   logger,
		upserter: upserter,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:     "room-state-upsert",
			Interval: time.Minute,
			Timeout:  30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures > 5
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("state persister: breaker state changed", "name", name, "from", from.String(), "to", to.String())
			},
		}),
	}
}

// Persist upserts the event as the room's current value of its type.
func (p *Persister) Persist(ctx context.Context, ev event.Eventer) error {
	value, err := ev.GetValue()
	if err != nil {
		return fmt.Errorf("persist %q: %w", ev.GetType(), err)
	}

	_, err = p.breaker.Execute(func() (any, error) {
		return nil, p.upserter.Upsert(ctx, ev.GetRoomID(), ev.GetType(), value)
	})
	if err != nil {
		return fmt.Errorf("persist %q in room %s: %w", ev.GetType(), ev.GetRoomID(), err)
	}
	return nil
}
