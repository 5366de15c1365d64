package registry

import (
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/hirelight/room-events-service/internal/domain/room"
)

type stubTransport struct {
	mu     sync.Mutex
	frames [][]byte
	err    error
}

func (t *stubTransport) SendText(data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.err != nil {
		return t.err
	}
	t.frames = append(t.frames, data)
	return nil
}

func (t *stubTransport) Close() error { return nil }

func newConn(roomID uuid.UUID, role room.Role) *Connection {
	return NewConnection(uuid.New(), roomID, role, &stubTransport{})
}

func TestRoster_RegisterIsIdempotent(t *testing.T) {
	r := NewRoster()
	roomID := uuid.New()
	conn := newConn(roomID, room.RoleExaminee)

	r.Register(conn)
	r.Register(conn)

	require.Len(t, r.ByRoom(roomID), 1)
}

func TestRoster_UnregisterUnknownIsNoop(t *testing.T) {
	r := NewRoster()
	roomID := uuid.New()
	known := newConn(roomID, room.RoleExpert)
	r.Register(known)

	r.Unregister(newConn(roomID, room.RoleViewer))
	r.Unregister(newConn(uuid.New(), room.RoleViewer))

	require.Len(t, r.ByRoom(roomID), 1)
}

func TestRoster_LastUnregisterDeactivatesRoom(t *testing.T) {
	r := NewRoster()
	roomID := uuid.New()
	a := newConn(roomID, room.RoleExaminee)
	b := newConn(roomID, room.RoleExpert)

	r.Register(a)
	r.Register(b)
	require.True(t, r.IsActive(roomID))

	r.Unregister(a)
	require.True(t, r.IsActive(roomID))

	r.Unregister(b)
	require.False(t, r.IsActive(roomID))
	require.Empty(t, r.ActiveRooms())
}

func TestRoster_MultiTabUserHoldsSeparateConnections(t *testing.T) {
	r := NewRoster()
	roomID := uuid.New()
	userID := uuid.New()

	tab1 := NewConnection(userID, roomID, room.RoleExpert, &stubTransport{})
	tab2 := NewConnection(userID, roomID, room.RoleExpert, &stubTransport{})
	r.Register(tab1)
	r.Register(tab2)

	require.Len(t, r.ByUserAndRoom(userID, roomID), 2)

	// Closing one tab leaves the other registered.
	r.Unregister(tab1)
	got := r.ByUserAndRoom(userID, roomID)
	require.Len(t, got, 1)
	require.Same(t, tab2, got[0])
}

func TestRoster_ByRoomFuncFilters(t *testing.T) {
	r := NewRoster()
	roomID := uuid.New()
	expert := newConn(roomID, room.RoleExpert)
	examinee := newConn(roomID, room.RoleExaminee)
	viewer := newConn(roomID, room.RoleViewer)

	r.Register(expert)
	r.Register(examinee)
	r.Register(viewer)

	experts := r.ByRoomFunc(roomID, func(c *Connection) bool {
		return c.Role == room.RoleExpert
	})
	require.Len(t, experts, 1)
	require.Same(t, expert, experts[0])
}

func TestRoster_RoomsAreIsolated(t *testing.T) {
	r := NewRoster()
	roomA := uuid.New()
	roomB := uuid.New()

	r.Register(newConn(roomA, room.RoleExaminee))
	r.Register(newConn(roomB, room.RoleExpert))
	r.Register(newConn(roomB, room.RoleViewer))

	require.Len(t, r.ByRoom(roomA), 1)
	require.Len(t, r.ByRoom(roomB), 2)
	require.ElementsMatch(t, []uuid.UUID{roomA, roomB}, r.ActiveRooms())
}

func TestRoster_ConcurrentChurn(t *testing.T) {
	r := NewRoster()
	roomID := uuid.New()

	const workers = 16
	const perWorker = 50

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				conn := newConn(roomID, room.RoleViewer)
				r.Register(conn)
				_ = r.ByRoom(roomID)
				if i%2 == 0 {
					r.Unregister(conn)
				}
			}
		}(w)
	}
	wg.Wait()

	want := workers * perWorker / 2
	got := len(r.ByRoom(roomID))
	require.Equal(t, want, got, fmt.Sprintf("expected %d surviving connections, got %d", want, got))
}
