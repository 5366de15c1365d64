package chain

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/hirelight/room-events-service/internal/domain/event"
	"github.com/hirelight/room-events-service/internal/domain/room"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeHandler struct {
	claims  string
	err     error
	panics  bool
	handled int
}

func (h *fakeHandler) Supports(_ context.Context, in *event.Inbound) bool {
	return matches(in, h.claims)
}

func (h *fakeHandler) Handle(_ context.Context, _ *EventContext) error {
	h.handled++
	if h.panics {
		panic("handler exploded")
	}
	return h.err
}

func inbound(eventType, value string) *event.Inbound {
	return &event.Inbound{Type: eventType, Value: &value}
}

func eventCtx(in *event.Inbound) *EventContext {
	return &EventContext{
		Event:  in,
		UserID: uuid.New(),
		RoomID: uuid.New(),
		Role:   room.RoleExpert,
	}
}

func TestChain_FirstClaimingHandlerWins(t *testing.T) {
	first := &fakeHandler{claims: "chat-message"}
	second := &fakeHandler{claims: "chat-message"}
	c := New(testLogger(), first, second)

	c.Dispatch(context.Background(), eventCtx(inbound("chat-message", "{}")))

	require.Equal(t, 1, first.handled)
	require.Zero(t, second.handled)
}

func TestChain_ClaimedErrorDoesNotFallThrough(t *testing.T) {
	failing := &fakeHandler{claims: "chat-message", err: errors.New("bad payload")}
	fallback := &fakeHandler{claims: "chat-message"}
	c := New(testLogger(), failing, fallback)

	c.Dispatch(context.Background(), eventCtx(inbound("chat-message", "oops")))

	require.Equal(t, 1, failing.handled)
	require.Zero(t, fallback.handled, "an erroring claimant must still consume the event")
}

func TestChain_HandlerPanicIsContained(t *testing.T) {
	exploding := &fakeHandler{claims: "chat-message", panics: true}
	c := New(testLogger(), exploding)

	require.NotPanics(t, func() {
		c.Dispatch(context.Background(), eventCtx(inbound("chat-message", "{}")))
	})
}

func TestChain_UnmatchedEventIsDroppedQuietly(t *testing.T) {
	h := &fakeHandler{claims: "chat-message"}
	c := New(testLogger(), h)

	require.NotPanics(t, func() {
		c.Dispatch(context.Background(), eventCtx(inbound("mystery-type", "{}")))
	})
	require.Zero(t, h.handled)
}

func TestChain_TypeMatchingIsCaseInsensitive(t *testing.T) {
	h := &fakeHandler{claims: "chat-message"}
	c := New(testLogger(), h)

	c.Dispatch(context.Background(), eventCtx(inbound("Chat-Message", "{}")))

	require.Equal(t, 1, h.handled)
}
