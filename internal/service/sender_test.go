package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/hirelight/room-events-service/internal/domain/registry"
	"github.com/hirelight/room-events-service/internal/domain/room"
)

// countingEvent tracks how often the wire form is built.
type countingEvent struct {
	roomID   uuid.UUID
	marshals atomic.Int32
	err      error
}

func (e *countingEvent) GetRoomID() uuid.UUID     { return e.roomID }
func (e *countingEvent) GetType() string          { return "chat-message" }
func (e *countingEvent) GetStateful() bool        { return false }
func (e *countingEvent) GetCreatedBy() *uuid.UUID { return nil }
func (e *countingEvent) GetValue() (string, error) {
	return `{"text":"hi"}`, nil
}

func (e *countingEvent) Marshal() ([]byte, error) {
	e.marshals.Add(1)
	if e.err != nil {
		return nil, e.err
	}
	return []byte(`{"type":"chat-message"}`), nil
}

func TestSender_SerializesOncePerBatch(t *testing.T) {
	sender := NewSender(testLogger(), 4)
	roomID := uuid.New()

	conns := make([]*registry.Connection, 10)
	transports := make([]*fakeTransport, 10)
	for i := range conns {
		transports[i] = &fakeTransport{}
		conns[i] = registry.NewConnection(uuid.New(), roomID, room.RoleViewer, transports[i])
	}

	ev := &countingEvent{roomID: roomID}
	sender.Send(context.Background(), ev, conns)

	require.Equal(t, int32(1), ev.marshals.Load())
	for _, tr := range transports {
		require.Equal(t, 1, tr.count())
	}
}

func TestSender_FailedWriteSkipsOnlyThatSocket(t *testing.T) {
	sender := NewSender(testLogger(), 2)
	roomID := uuid.New()

	ok1 := &fakeTransport{}
	bad := &fakeTransport{err: errors.New("write: broken pipe")}
	ok2 := &fakeTransport{}

	conns := []*registry.Connection{
		registry.NewConnection(uuid.New(), roomID, room.RoleViewer, ok1),
		registry.NewConnection(uuid.New(), roomID, room.RoleViewer, bad),
		registry.NewConnection(uuid.New(), roomID, room.RoleViewer, ok2),
	}

	sender.Send(context.Background(), &countingEvent{roomID: roomID}, conns)

	require.Equal(t, 1, ok1.count())
	require.Equal(t, 1, ok2.count())
	require.Zero(t, bad.count())
}

func TestSender_MarshalFailureSendsNothing(t *testing.T) {
	sender := NewSender(testLogger(), 2)
	roomID := uuid.New()

	tr := &fakeTransport{}
	conns := []*registry.Connection{
		registry.NewConnection(uuid.New(), roomID, room.RoleViewer, tr),
	}

	sender.Send(context.Background(), &countingEvent{roomID: roomID, err: errors.New("bad payload")}, conns)
	require.Zero(t, tr.count())
}

func TestSender_SendToWritesExactlyOne(t *testing.T) {
	sender := NewSender(testLogger(), 2)
	roomID := uuid.New()

	tr := &fakeTransport{}
	conn := registry.NewConnection(uuid.New(), roomID, room.RoleViewer, tr)

	sender.SendTo(&countingEvent{roomID: roomID}, conn)
	require.Equal(t, 1, tr.count())
}
