package event

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Interface guard
var _ Eventer = (*PlainEvent)(nil)

// PlainEvent carries a payload that is already a wire-ready string (an
// inbound value echoed back, or an event rebuilt from a bus envelope).
type PlainEvent struct {
	roomID    uuid.UUID
	eventType string
	value     string
	stateful  bool
	createdBy *uuid.UUID

	marshalOnce sync.Once
	cached      []byte
	cachedErr   error
}

// NewPlain builds an event around a pre-serialized payload.
func NewPlain(roomID uuid.UUID, eventType, value string, stateful bool, createdBy *uuid.UUID) *PlainEvent {
	return &PlainEvent{
		roomID:    roomID,
		eventType: eventType,
		value:     value,
		stateful:  stateful,
		createdBy: createdBy,
	}
}

func (e *PlainEvent) GetRoomID() uuid.UUID     { return e.roomID }
func (e *PlainEvent) GetType() string          { return e.eventType }
func (e *PlainEvent) GetStateful() bool        { return e.stateful }
func (e *PlainEvent) GetCreatedBy() *uuid.UUID { return e.createdBy }

func (e *PlainEvent) GetValue() (string, error) { return e.value, nil }

// Marshal serializes the outbound wire form once and reuses the bytes for
// every recipient.
func (e *PlainEvent) Marshal() ([]byte, error) {
	e.marshalOnce.Do(func() {
		e.cached, e.cachedErr = json.Marshal(Outbound{
			RoomID:    e.roomID,
			Type:      e.eventType,
			Value:     e.value,
			Stateful:  e.stateful,
			CreatedBy: e.createdBy,
		})
		if e.cachedErr != nil {
			e.cachedErr = fmt.Errorf("plain event %q: marshal: %w", e.eventType, e.cachedErr)
		}
	})
	return e.cached, e.cachedErr
}
