package inmem

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/hirelight/room-events-service/internal/domain/room"
)

// Interface guards
var (
	_ room.StateUpserter = (*StateTable)(nil)
	_ room.ConfigUpdater = (*StateTable)(nil)
)

// StateTable keeps the latest payload per (room, event type) pair, which is
// the same overwrite semantics the relational upsert has.
type StateTable struct {
	mu    sync.RWMutex
	state map[uuid.UUID]map[string]string

	editors map[uuid.UUID]EditorState
}

// EditorState is the last applied code-editor change for a room.
type EditorState struct {
	QuestionID uuid.UUID
	Content    string
}

func NewStateTable() *StateTable {
	return &StateTable{
		state:   make(map[uuid.UUID]map[string]string),
		editors: make(map[uuid.UUID]EditorState),
	}
}

func (t *StateTable) Upsert(_ context.Context, roomID uuid.UUID, eventType, payload string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	types, ok := t.state[roomID]
	if !ok {
		types = make(map[string]string)
		t.state[roomID] = types
	}
	types[eventType] = payload
	return nil
}

// Current returns the stored payload for a (room, type) pair.
func (t *StateTable) Current(roomID uuid.UUID, eventType string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	payload, ok := t.state[roomID][eventType]
	return payload, ok
}

func (t *StateTable) UpdateCodeEditor(_ context.Context, roomID uuid.UUID, questionID uuid.UUID, content string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.editors[roomID] = EditorState{QuestionID: questionID, Content: content}
	return nil
}

// Editor returns the last applied editor state for a room.
func (t *StateTable) Editor(roomID uuid.UUID) (EditorState, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	st, ok := t.editors[roomID]
	return st, ok
}
