package registry

import (
	"time"

	"github.com/google/uuid"

	"github.com/hirelight/room-events-service/internal/domain/room"
)

// Transport is the minimal socket surface the registry tracks. The concrete
// implementation wraps one gorilla/websocket connection and serializes
// writes; the registry never touches the socket beyond this.
type Transport interface {
	// SendText writes one complete text frame. Thread-safe.
	SendText(data []byte) error
	// Close tears the socket down, idempotently.
	Close() error
}

// Connection identifies one live socket of one participant.
//
// [IDENTITY]
// A user may hold several connections in the same room (multi-tab), so
// removal identity is the *Connection pointer itself, not the user id.
type Connection struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	RoomID    uuid.UUID
	Role      room.Role
	CreatedAt time.Time

	transport Transport
}

// NewConnection binds a participant to an accepted transport.
func NewConnection(userID, roomID uuid.UUID, role room.Role, t Transport) *Connection {
	return &Connection{
		ID:        uuid.New(),
		UserID:    userID,
		RoomID:    roomID,
		Role:      role,
		CreatedAt: time.Now(),
		transport: t,
	}
}

// SendText forwards to the underlying transport.
func (c *Connection) SendText(data []byte) error {
	return c.transport.SendText(data)
}

// Close closes the underlying transport.
func (c *Connection) Close() error {
	return c.transport.Close()
}
