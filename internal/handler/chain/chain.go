// Package chain routes parsed inbound events to the first handler that
// claims them. Priority is the registration order; a handler claiming an
// event owns its outcome, errors included.
package chain

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/hirelight/room-events-service/internal/domain/event"
	"github.com/hirelight/room-events-service/internal/domain/registry"
	"github.com/hirelight/room-events-service/internal/domain/room"
)

// EventContext carries everything one handler invocation may need: the
// authoring connection, the parsed envelope and the resolved membership.
type EventContext struct {
	Conn   *registry.Connection
	Event  *event.Inbound
	UserID uuid.UUID
	RoomID uuid.UUID
	Role   room.Role
}

// Handler is one link of the chain. Supports must stay cheap (a registry
// lookup at most); Handle runs only for the first handler that claimed the
// event.
type Handler interface {
	Supports(ctx context.Context, in *event.Inbound) bool
	Handle(ctx context.Context, ec *EventContext) error
}

// Chain is the priority-ordered handler list.
type Chain struct {
	logger   *slog.Logger
	handlers []Handler
}

func New(logger *slog.Logger, handlers ...Handler) *Chain {
	return &Chain{logger: logger, handlers: handlers}
}

// Dispatch runs the chain for one inbound event. A claimed handler's error
// (or panic) is logged with the offending payload and the event counts as
// unhandled; the chain deliberately does NOT continue to the next handler.
// An event no handler claims is only a warning: unmatched types are expected
// during protocol evolution.
func (c *Chain) Dispatch(ctx context.Context, ec *EventContext) {
	for _, h := range c.handlers {
		if !h.Supports(ctx, ec.Event) {
			continue
		}
		if err := c.run(ctx, h, ec); err != nil {
			c.logger.Error("chain: claimed handler failed",
				"type", ec.Event.Type,
				"room_id", ec.RoomID,
				"user_id", ec.UserID,
				"payload", ec.Event.RawValue(),
				"error", err)
		}
		return
	}

	c.logger.Warn("chain: no handler for event type", "type", ec.Event.Type, "room_id", ec.RoomID)
}

func (c *Chain) run(ctx context.Context, h Handler, ec *EventContext) (err error) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("chain: handler panic", "type", ec.Event.Type, "panic", r)
		}
	}()
	return h.Handle(ctx, ec)
}

// matches reports a case-insensitive exact type-name match.
func matches(in *event.Inbound, name string) bool {
	return strings.EqualFold(in.Type, name)
}
