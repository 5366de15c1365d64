/*
Package registry tracks live participant connections per room.

Key architectural concepts:
  - Copy-on-write rosters: every room key maps to an immutable connection
    slice swapped atomically, so readers never observe a partially-updated
    list and unrelated rooms never contend on a shared lock.
  - Reference identity: multi-tab users hold several connections per
    (user, room); registration and removal key on the connection instance.
  - Active-rooms view: domain event processors consult the set of rooms with
    at least one live connection to skip fan-out work for empty rooms.
*/
package registry

import (
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Rosterer defines the registry surface consumed by the session loop, the
// handler chain and the outbound dispatcher.
type Rosterer interface {
	Register(conn *Connection)
	Unregister(conn *Connection)
	ByRoom(roomID uuid.UUID) []*Connection
	ByUserAndRoom(userID, roomID uuid.UUID) []*Connection
	ByRoomFunc(roomID uuid.UUID, keep func(*Connection) bool) []*Connection
	ActiveRooms() []uuid.UUID
	IsActive(roomID uuid.UUID) bool
}

// Interface guard
var _ Rosterer = (*Roster)(nil)

// snapshot is the immutable per-room collection. Stored behind a pointer so
// sync.Map compare-and-swap operates on a comparable value.
type snapshot struct {
	conns []*Connection
}

// Roster implements the copy-on-write connection registry.
type Roster struct {
	// rooms stores Map[uuid.UUID]*snapshot. [LOCK_FREE] lookups; mutation is
	// a CAS loop per room key, never a global mutex.
	rooms sync.Map
}

func NewRoster() *Roster {
	return &Roster{}
}

// Register adds the connection to its room roster. Registering the same
// connection twice is a no-op.
func (r *Roster) Register(conn *Connection) {
	for {
		cur, ok := r.rooms.Load(conn.RoomID)
		if !ok {
			if _, loaded := r.rooms.LoadOrStore(conn.RoomID, &snapshot{conns: []*Connection{conn}}); !loaded {
				return
			}
			// Lost the race to another writer; retry against its snapshot.
			continue
		}

		old := cur.(*snapshot)
		if slices.Contains(old.conns, conn) {
			return // [IDEMPOTENT]
		}

		next := &snapshot{conns: make([]*Connection, 0, len(old.conns)+1)}
		next.conns = append(append(next.conns, old.conns...), conn)
		if r.rooms.CompareAndSwap(conn.RoomID, cur, next) {
			return
		}
	}
}

// Unregister removes the connection from its room roster. Removing a
// connection that was never registered is a no-op. The last removal for a
// room deletes the room key entirely so ActiveRooms stays accurate.
func (r *Roster) Unregister(conn *Connection) {
	for {
		cur, ok := r.rooms.Load(conn.RoomID)
		if !ok {
			return
		}

		old := cur.(*snapshot)
		idx := slices.Index(old.conns, conn)
		if idx < 0 {
			return
		}

		if len(old.conns) == 1 {
			if r.rooms.CompareAndDelete(conn.RoomID, cur) {
				return
			}
			continue
		}

		next := &snapshot{conns: make([]*Connection, 0, len(old.conns)-1)}
		next.conns = append(next.conns, old.conns[:idx]...)
		next.conns = append(next.conns, old.conns[idx+1:]...)
		if r.rooms.CompareAndSwap(conn.RoomID, cur, next) {
			return
		}
	}
}

// ByRoom returns every live connection in the room. The result is a private
// copy; callers may retain or filter it freely.
func (r *Roster) ByRoom(roomID uuid.UUID) []*Connection {
	cur, ok := r.rooms.Load(roomID)
	if !ok {
		return nil
	}
	return slices.Clone(cur.(*snapshot).conns)
}

// ByUserAndRoom returns every connection the user holds in the room.
func (r *Roster) ByUserAndRoom(userID, roomID uuid.UUID) []*Connection {
	return r.ByRoomFunc(roomID, func(c *Connection) bool {
		return c.UserID == userID
	})
}

// ByRoomFunc returns the room connections matching the predicate, e.g.
// "experts other than me".
func (r *Roster) ByRoomFunc(roomID uuid.UUID, keep func(*Connection) bool) []*Connection {
	cur, ok := r.rooms.Load(roomID)
	if !ok {
		return nil
	}
	return lo.Filter(cur.(*snapshot).conns, func(c *Connection, _ int) bool {
		return keep(c)
	})
}

// ActiveRooms returns the ids of rooms holding at least one live connection.
func (r *Roster) ActiveRooms() []uuid.UUID {
	var ids []uuid.UUID
	r.rooms.Range(func(key, _ any) bool {
		ids = append(ids, key.(uuid.UUID))
		return true
	})
	return ids
}

// IsActive reports whether the room has at least one live connection.
func (r *Roster) IsActive(roomID uuid.UUID) bool {
	_, ok := r.rooms.Load(roomID)
	return ok
}
