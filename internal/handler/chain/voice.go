package chain

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hirelight/room-events-service/internal/domain/event"
	"github.com/hirelight/room-events-service/internal/service"
)

// Interface guard
var _ Handler = (*VoiceHandler)(nil)

// VoicePayload is one speech-recognition fragment from a client.
type VoicePayload struct {
	Text  string `json:"text"`
	Final bool   `json:"final"`
}

// VoiceHandler relays recognized speech fragments. The broadcast is stateful
// so a reconnecting client recovers the most recent fragment immediately.
type VoiceHandler struct {
	dispatcher *service.Dispatcher
}

func NewVoiceHandler(dispatcher *service.Dispatcher) *VoiceHandler {
	return &VoiceHandler{dispatcher: dispatcher}
}

func (h *VoiceHandler) Supports(_ context.Context, in *event.Inbound) bool {
	return matches(in, event.TypeVoiceRecognition)
}

func (h *VoiceHandler) Handle(_ context.Context, ec *EventContext) error {
	var p VoicePayload
	if err := json.Unmarshal([]byte(ec.Event.RawValue()), &p); err != nil {
		return fmt.Errorf("voice: bad payload: %w", err)
	}

	h.dispatcher.Enqueue(event.NewTyped(ec.RoomID, event.TypeVoiceRecognition, p, true, &ec.UserID))
	return nil
}
