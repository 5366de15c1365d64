package chain

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hirelight/room-events-service/internal/domain/event"
	"github.com/hirelight/room-events-service/internal/service"
)

// Interface guard
var _ Handler = (*ChatHandler)(nil)

// ChatPayload is the inbound chat message body.
type ChatPayload struct {
	Text string `json:"text"`
}

// ChatHandler relays chat messages to the whole room. Chat is transient:
// nothing is remembered as room state.
type ChatHandler struct {
	dispatcher *service.Dispatcher
}

func NewChatHandler(dispatcher *service.Dispatcher) *ChatHandler {
	return &ChatHandler{dispatcher: dispatcher}
}

func (h *ChatHandler) Supports(_ context.Context, in *event.Inbound) bool {
	return matches(in, event.TypeChatMessage)
}

func (h *ChatHandler) Handle(_ context.Context, ec *EventContext) error {
	var p ChatPayload
	if err := json.Unmarshal([]byte(ec.Event.RawValue()), &p); err != nil {
		return fmt.Errorf("chat: bad payload: %w", err)
	}
	if p.Text == "" {
		return fmt.Errorf("chat: empty text")
	}

	// The raw value is already wire-ready; no need to re-serialize it.
	h.dispatcher.Enqueue(event.NewPlain(ec.RoomID, event.TypeChatMessage, ec.Event.RawValue(), false, &ec.UserID))
	return nil
}
