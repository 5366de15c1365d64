package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hirelight/room-events-service/internal/domain/registry"
)

// Interface guard
var _ registry.Transport = (*transport)(nil)

// transport adapts one gorilla connection to the registry contract.
//
// [SINGLE_WRITER]
// gorilla/websocket allows one concurrent writer; the dispatcher fan-out and
// the bus relay both write to the same socket, so every write serializes
// through the mutex.
type transport struct {
	mu           sync.Mutex
	ws           *websocket.Conn
	writeTimeout time.Duration
	closeOnce    sync.Once
}

func newTransport(ws *websocket.Conn, writeTimeout time.Duration) *transport {
	return &transport{ws: ws, writeTimeout: writeTimeout}
}

// SendText writes one complete text frame under the write deadline.
func (t *transport) SendText(data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.ws.SetWriteDeadline(time.Now().Add(t.writeTimeout)); err != nil {
		return err
	}
	return t.ws.WriteMessage(websocket.TextMessage, data)
}

// Close sends a best-effort close frame and tears the socket down, exactly
// once no matter how many teardown paths race here.
func (t *transport) Close() error {
	t.closeOnce.Do(func() {
		deadline := time.Now().Add(time.Second)
		_ = t.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		_ = t.ws.Close()
	})
	return nil
}
