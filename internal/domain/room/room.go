// Package room holds the contracts this subsystem consumes from the rest of
// the interview platform: participant membership, durable event storage and
// the room-state upsert used to remember stateful events. The implementations
// live with the CRUD services; the core only depends on these interfaces.
package room

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Role is the participant role inside a single room.
type Role int16

const (
	RoleViewer Role = iota + 1
	RoleExaminee
	RoleExpert
)

func (r Role) String() string {
	switch r {
	case RoleViewer:
		return "viewer"
	case RoleExaminee:
		return "examinee"
	case RoleExpert:
		return "expert"
	default:
		return "unknown"
	}
}

// CanShareMedia reports whether the role may join the video chat.
// Viewers watch; only the two interviewing sides exchange media.
func (r Role) CanShareMedia() bool {
	return r == RoleExaminee || r == RoleExpert
}

// Participant is a resolved (user, room) membership.
type Participant struct {
	UserID uuid.UUID
	RoomID uuid.UUID
	Role   Role
}

// ParticipantLookup resolves the role of a user inside a room.
type ParticipantLookup interface {
	Resolve(ctx context.Context, userID, roomID uuid.UUID) (Participant, error)
}

// StateUpserter persists the current value of an event type in a room,
// overwriting any prior value for the (room, type) pair.
type StateUpserter interface {
	Upsert(ctx context.Context, roomID uuid.UUID, eventType, payload string) error
}

// ConfigUpdater applies code-editor changes to the room configuration. The
// configuration service emits its own downstream change event, so the handler
// that calls this never broadcasts by itself.
type ConfigUpdater interface {
	UpdateCodeEditor(ctx context.Context, roomID uuid.UUID, questionID uuid.UUID, content string) error
}

// KnownEventType describes an application event type registered by the
// domain layer, consumed by the lowest-priority chain handler.
type KnownEventType struct {
	Name     string
	Stateful bool
	MinRole  Role
}

// EventTypes is the side-loaded registry of known application event types.
type EventTypes interface {
	Lookup(name string) (KnownEventType, bool)
}

// Record is one stored event: the shape shared by the hot store and the
// durable sink. Append-only, never mutated.
type Record struct {
	ID        uuid.UUID
	RoomID    uuid.UUID
	Type      string
	Payload   string
	CreatedAt time.Time
	CreatedBy *uuid.UUID
}

// EventQuerier is the query surface both event providers expose. A nil
// from/to leaves that side of the window open.
type EventQuerier interface {
	GetEvents(ctx context.Context, eventType string, roomID uuid.UUID, from, to *time.Time) ([]Record, error)
	GetLatest(ctx context.Context, eventType string, roomID uuid.UUID, from, to *time.Time) (*Record, error)
}

// DurableEvents is the persistence-backed event log for rooms that have one.
type DurableEvents interface {
	EventQuerier
	Append(ctx context.Context, rec Record) error
}

// QueueMarkers exposes the per-room durable-sink capability flag: the
// presence of a queued-room-event marker record.
type QueueMarkers interface {
	HasDurableQueue(ctx context.Context, roomID uuid.UUID) (bool, error)
}
