package chain

import (
	"context"
	"fmt"

	"github.com/hirelight/room-events-service/internal/domain/event"
	"github.com/hirelight/room-events-service/internal/domain/registry"
	"github.com/hirelight/room-events-service/internal/domain/room"
	"github.com/hirelight/room-events-service/internal/service"
)

// Interface guard
var _ Handler = (*ReviewTypingHandler)(nil)

// ReviewTypingHandler tells the other experts of a room that one of them is
// typing a review. The indicator goes only to experts other than the author;
// candidates never see review activity.
type ReviewTypingHandler struct {
	roster registry.Rosterer
	sender *service.Sender
}

func NewReviewTypingHandler(roster registry.Rosterer, sender *service.Sender) *ReviewTypingHandler {
	return &ReviewTypingHandler{roster: roster, sender: sender}
}

func (h *ReviewTypingHandler) Supports(_ context.Context, in *event.Inbound) bool {
	return matches(in, event.TypeReviewTyping)
}

func (h *ReviewTypingHandler) Handle(ctx context.Context, ec *EventContext) error {
	if ec.Role != room.RoleExpert {
		return fmt.Errorf("review typing: role %s is not an expert", ec.Role)
	}

	others := h.roster.ByRoomFunc(ec.RoomID, func(c *registry.Connection) bool {
		return c.Role == room.RoleExpert && c.UserID != ec.UserID
	})
	if len(others) == 0 {
		return nil
	}

	h.sender.Send(ctx, event.NewPlain(ec.RoomID, event.TypeReviewTyping, ec.Event.RawValue(), false, &ec.UserID), others)
	return nil
}
