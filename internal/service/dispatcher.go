package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/hirelight/room-events-service/internal/adapter/pubsub"
	"github.com/hirelight/room-events-service/internal/domain/event"
	"github.com/hirelight/room-events-service/internal/domain/registry"
)

// Dispatcher is the outbound distribution loop. Handlers enqueue events; the
// background loop drains everything pending, groups by room, fans out to the
// room's local sockets, republishes on the bus for other nodes, and finally
// persists stateful events as room state.
//
// [BACKPRESSURE]
// With nothing pending the loop blocks on a wake signal instead of polling.
type Dispatcher struct {
	logger    *slog.Logger
	roster    registry.Rosterer
	sender    *Sender
	persister *Persister
	bus       pubsub.Bus

	mu      sync.Mutex
	pending []event.Eventer

	// wake has capacity 1: one signal is enough, the loop drains everything.
	wake chan struct{}
}

func NewDispatcher(logger *slog.Logger, roster registry.Rosterer, sender *Sender, persister *Persister, bus pubsub.Bus) *Dispatcher {
	return &Dispatcher{
		logger:    logger,
		roster:    roster,
		sender:    sender,
		persister: persister,
		bus:       bus,
		wake:      make(chan struct{}, 1),
	}
}

// Enqueue appends events to the pending queue and wakes the loop. Safe for
// concurrent callers; never blocks.
func (d *Dispatcher) Enqueue(evs ...event.Eventer) {
	if len(evs) == 0 {
		return
	}

	d.mu.Lock()
	d.pending = append(d.pending, evs...)
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// Run drives the dispatch loop until the context is cancelled. Nothing that
// happens inside a batch terminates the loop.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		batch := d.drain()
		if len(batch) == 0 {
			select {
			case <-ctx.Done():
				return nil
			case <-d.wake:
				continue
			}
		}
		d.dispatch(ctx, batch)
	}
}

func (d *Dispatcher) drain() []event.Eventer {
	d.mu.Lock()
	defer d.mu.Unlock()
	batch := d.pending
	d.pending = nil
	return batch
}

func (d *Dispatcher) dispatch(ctx context.Context, batch []event.Eventer) {
	groups := make(map[uuid.UUID][]event.Eventer)
	order := make([]uuid.UUID, 0, 4)
	for _, ev := range batch {
		roomID := ev.GetRoomID()
		if _, seen := groups[roomID]; !seen {
			order = append(order, roomID)
		}
		groups[roomID] = append(groups[roomID], ev)
	}

	for _, roomID := range order {
		evs := groups[roomID]

		// No recipients anywhere worth the work: the room went empty between
		// enqueue and dispatch.
		if !d.roster.IsActive(roomID) {
			d.logger.Debug("dispatcher: dropping events for empty room", "room_id", roomID, "count", len(evs))
			continue
		}

		conns := d.roster.ByRoom(roomID)
		for _, ev := range evs {
			d.sender.Send(ctx, ev, conns)
			d.republish(ctx, ev)
		}

		// Broadcast-then-persist is best-effort, not transactional: a failed
		// upsert never rolls back the delivery that already happened.
		for _, ev := range evs {
			if !ev.GetStateful() {
				continue
			}
			if err := d.persister.Persist(ctx, ev); err != nil {
				d.logger.Error("dispatcher: stateful persist failed", "type", ev.GetType(), "room_id", roomID, "error", err)
			}
		}
	}
}

// republish hands the event to the bus so sessions on other nodes relay it.
func (d *Dispatcher) republish(ctx context.Context, ev event.Eventer) {
	value, err := ev.GetValue()
	if err != nil {
		d.logger.Error("dispatcher: bus republish marshal failed", "type", ev.GetType(), "error", err)
		return
	}

	env := &event.Envelope{
		Kind: event.KindRoomEvent,
		Event: event.Outbound{
			RoomID:    ev.GetRoomID(),
			Type:      ev.GetType(),
			Value:     value,
			Stateful:  ev.GetStateful(),
			CreatedBy: ev.GetCreatedBy(),
		},
	}
	if err := d.bus.Publish(ctx, pubsub.RoomKey(ev.GetRoomID()), env); err != nil {
		d.logger.Error("dispatcher: bus republish failed", "type", ev.GetType(), "room_id", ev.GetRoomID(), "error", err)
	}
}
