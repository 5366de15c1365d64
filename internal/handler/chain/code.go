package chain

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/hirelight/room-events-service/internal/domain/event"
	"github.com/hirelight/room-events-service/internal/domain/room"
)

// Interface guard
var _ Handler = (*CodeEditorHandler)(nil)

// CodeEditorPayload is an editor content change for one question.
type CodeEditorPayload struct {
	QuestionID uuid.UUID `json:"question_id"`
	Content    string    `json:"content"`
}

// CodeEditorHandler applies editor changes to the room configuration. It
// does not broadcast: the configuration service emits its own downstream
// change event once the update lands.
type CodeEditorHandler struct {
	config room.ConfigUpdater
}

func NewCodeEditorHandler(config room.ConfigUpdater) *CodeEditorHandler {
	return &CodeEditorHandler{config: config}
}

func (h *CodeEditorHandler) Supports(_ context.Context, in *event.Inbound) bool {
	return matches(in, event.TypeCodeEditorChange)
}

func (h *CodeEditorHandler) Handle(ctx context.Context, ec *EventContext) error {
	var p CodeEditorPayload
	if err := json.Unmarshal([]byte(ec.Event.RawValue()), &p); err != nil {
		return fmt.Errorf("code editor: bad payload: %w", err)
	}
	if p.QuestionID == uuid.Nil {
		return fmt.Errorf("code editor: missing question id")
	}

	if err := h.config.UpdateCodeEditor(ctx, ec.RoomID, p.QuestionID, p.Content); err != nil {
		return fmt.Errorf("code editor: update room config: %w", err)
	}
	return nil
}
