package chain

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hirelight/room-events-service/internal/adapter/pubsub"
	"github.com/hirelight/room-events-service/internal/domain/event"
	"github.com/hirelight/room-events-service/internal/domain/room"
	"github.com/hirelight/room-events-service/internal/service"
)

// Interface guard
var _ Handler = (*DomainEventHandler)(nil)

// DomainEventHandler is the lowest-priority link: it claims any event type
// present in the side-loaded registry of known application event types and
// forwards it into the generic domain event pipeline instead of handling it
// itself. Emission is role-gated per registered type.
type DomainEventHandler struct {
	logger     *slog.Logger
	types      room.EventTypes
	dispatcher *service.Dispatcher
	bus        pubsub.Bus
}

func NewDomainEventHandler(logger *slog.Logger, types room.EventTypes, dispatcher *service.Dispatcher, bus pubsub.Bus) *DomainEventHandler {
	return &DomainEventHandler{
		logger:     logger,
		types:      types,
		dispatcher: dispatcher,
		bus:        bus,
	}
}

// Supports does a registry lookup; that is the one allowed non-trivial
// Supports in the chain, which is why this handler sits last.
func (h *DomainEventHandler) Supports(_ context.Context, in *event.Inbound) bool {
	_, ok := h.types.Lookup(in.Type)
	return ok
}

func (h *DomainEventHandler) Handle(ctx context.Context, ec *EventContext) error {
	kt, ok := h.types.Lookup(ec.Event.Type)
	if !ok {
		return fmt.Errorf("domain event: type %q vanished from the registry", ec.Event.Type)
	}
	if ec.Role < kt.MinRole {
		return fmt.Errorf("domain event %q: role %s below required %s", kt.Name, ec.Role, kt.MinRole)
	}

	ev := event.NewPlain(ec.RoomID, kt.Name, ec.Event.RawValue(), kt.Stateful, &ec.UserID)
	h.dispatcher.Enqueue(ev)

	// System-wide consumers listen on the global key regardless of room.
	env := &event.Envelope{
		Kind: event.KindRoomEvent,
		Event: event.Outbound{
			RoomID:    ec.RoomID,
			Type:      kt.Name,
			Value:     ec.Event.RawValue(),
			Stateful:  kt.Stateful,
			CreatedBy: &ec.UserID,
		},
	}
	if err := h.bus.Publish(ctx, pubsub.GlobalKey, env); err != nil {
		// The local broadcast already happened; a bus failure only costs the
		// cross-room consumers this one event.
		h.logger.Error("domain event: global publish failed", "type", kt.Name, "room_id", ec.RoomID, "error", err)
	}
	return nil
}
