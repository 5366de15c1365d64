package bussync

import (
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/hirelight/room-events-service/internal/domain/event"
)

func TestBind_ProcessesValidEnvelope(t *testing.T) {
	f := newSyncFixture(t)
	handler := Bind(f.processor, testLogger())

	roomID := uuid.New()
	payload, err := syncEnvelope(roomID, nil).Marshal()
	require.NoError(t, err)

	require.NoError(t, handler(message.NewMessage(watermill.NewUUID(), payload)))

	_, ok := f.state.Current(roomID, event.TypeQuestionActive)
	require.True(t, ok)
}

func TestBind_AcksUndecodablePayload(t *testing.T) {
	f := newSyncFixture(t)
	handler := Bind(f.processor, testLogger())

	// nil error means ACK: garbage must not cycle through redelivery.
	require.NoError(t, handler(message.NewMessage(watermill.NewUUID(), []byte("not an envelope"))))
}
