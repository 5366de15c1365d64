// Package inmem carries in-process implementations of the platform contracts
// the core consumes. Production deployments swap these for the CRUD services;
// the defaults keep the binary runnable and the tests hermetic.
package inmem

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/hirelight/room-events-service/internal/domain/room"
)

// Interface guard
var _ room.ParticipantLookup = (*Directory)(nil)

// Directory is a map-backed participant membership lookup.
type Directory struct {
	mu      sync.RWMutex
	entries map[membershipKey]room.Role
}

type membershipKey struct {
	userID uuid.UUID
	roomID uuid.UUID
}

func NewDirectory() *Directory {
	return &Directory{entries: make(map[membershipKey]room.Role)}
}

// AddParticipant registers a membership. Used by tests and the seed path.
func (d *Directory) AddParticipant(userID, roomID uuid.UUID, role room.Role) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.entries[membershipKey{userID, roomID}] = role
}

func (d *Directory) Resolve(_ context.Context, userID, roomID uuid.UUID) (room.Participant, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	role, ok := d.entries[membershipKey{userID, roomID}]
	if !ok {
		return room.Participant{}, fmt.Errorf("user %s is not a participant of room %s", userID, roomID)
	}
	return room.Participant{UserID: userID, RoomID: roomID, Role: role}, nil
}
