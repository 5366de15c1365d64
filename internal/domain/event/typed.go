package event

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Interface guard
var _ Eventer = (*TypedEvent)(nil)

// TypedEvent carries a strongly-typed payload that is serialized lazily on
// first use and then cached. Handlers build these from parsed inbound
// payloads; the dispatcher and the bus only ever see the cached bytes.
type TypedEvent struct {
	roomID    uuid.UUID
	eventType string
	payload   any
	stateful  bool
	createdBy *uuid.UUID

	valueOnce sync.Once
	value     string
	valueErr  error

	marshalOnce sync.Once
	cached      []byte
	cachedErr   error
}

// NewTyped builds an event around a typed payload.
func NewTyped(roomID uuid.UUID, eventType string, payload any, stateful bool, createdBy *uuid.UUID) *TypedEvent {
	return &TypedEvent{
		roomID:    roomID,
		eventType: eventType,
		payload:   payload,
		stateful:  stateful,
		createdBy: createdBy,
	}
}

func (e *TypedEvent) GetRoomID() uuid.UUID     { return e.roomID }
func (e *TypedEvent) GetType() string          { return e.eventType }
func (e *TypedEvent) GetStateful() bool        { return e.stateful }
func (e *TypedEvent) GetCreatedBy() *uuid.UUID { return e.createdBy }

// GetPayload exposes the typed payload for handlers that built the event.
func (e *TypedEvent) GetPayload() any { return e.payload }

// GetValue serializes the payload once and caches the resulting string.
func (e *TypedEvent) GetValue() (string, error) {
	e.valueOnce.Do(func() {
		data, err := json.Marshal(e.payload)
		if err != nil {
			e.valueErr = fmt.Errorf("typed event %q: marshal payload: %w", e.eventType, err)
			return
		}
		e.value = string(data)
	})
	return e.value, e.valueErr
}

// Marshal serializes the outbound wire form once; the cached bytes are
// immutable and shared by every send.
func (e *TypedEvent) Marshal() ([]byte, error) {
	e.marshalOnce.Do(func() {
		value, err := e.GetValue()
		if err != nil {
			e.cachedErr = err
			return
		}
		e.cached, e.cachedErr = json.Marshal(Outbound{
			RoomID:    e.roomID,
			Type:      e.eventType,
			Value:     value,
			Stateful:  e.stateful,
			CreatedBy: e.createdBy,
		})
		if e.cachedErr != nil {
			e.cachedErr = fmt.Errorf("typed event %q: marshal: %w", e.eventType, e.cachedErr)
		}
	})
	return e.cached, e.cachedErr
}
