package registry

import (
	"sync"

	"github.com/google/uuid"
)

// VideoPeer is one connection participating in a room's video chat, together
// with its signaling attributes.
type VideoPeer struct {
	Conn *Connection
	// PeerID is the client-side signaling identifier announced on join.
	PeerID string
}

// VideoDirectory tracks which connections of a room currently share media.
// It is a specialized view next to the Roster: joining video is explicit and
// role-gated, and signal relays address exactly one peer.
type VideoDirectory struct {
	mu    sync.RWMutex
	rooms map[uuid.UUID]map[*Connection]VideoPeer
}

func NewVideoDirectory() *VideoDirectory {
	return &VideoDirectory{
		rooms: make(map[uuid.UUID]map[*Connection]VideoPeer),
	}
}

// Join registers the connection's signaling attributes. Re-joining replaces
// the previous attributes for the same connection.
func (d *VideoDirectory) Join(conn *Connection, peerID string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	peers, ok := d.rooms[conn.RoomID]
	if !ok {
		peers = make(map[*Connection]VideoPeer)
		d.rooms[conn.RoomID] = peers
	}
	peers[conn] = VideoPeer{Conn: conn, PeerID: peerID}
}

// Leave removes the connection from the video chat. Unknown connections are
// a no-op; the socket teardown path calls this unconditionally.
func (d *VideoDirectory) Leave(conn *Connection) {
	d.mu.Lock()
	defer d.mu.Unlock()

	peers, ok := d.rooms[conn.RoomID]
	if !ok {
		return
	}
	delete(peers, conn)
	if len(peers) == 0 {
		delete(d.rooms, conn.RoomID)
	}
}

// Peers returns the current video participants of the room.
func (d *VideoDirectory) Peers(roomID uuid.UUID) []VideoPeer {
	d.mu.RLock()
	defer d.mu.RUnlock()

	peers := d.rooms[roomID]
	out := make([]VideoPeer, 0, len(peers))
	for _, p := range peers {
		out = append(out, p)
	}
	return out
}

// FindByUser returns the first video peer of the given user in the room.
// Signal relays are point-to-point: exactly one target connection.
func (d *VideoDirectory) FindByUser(roomID, userID uuid.UUID) (VideoPeer, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for conn, p := range d.rooms[roomID] {
		if conn.UserID == userID {
			return p, true
		}
	}
	return VideoPeer{}, false
}
