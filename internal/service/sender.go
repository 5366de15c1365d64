package service

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/hirelight/room-events-service/internal/domain/event"
	"github.com/hirelight/room-events-service/internal/domain/registry"
)

// Sender writes one event to many sockets.
//
// [MARSHAL_ONCE]
// The event is serialized exactly once per outbound batch; every recipient
// gets the same bytes. A failed send is logged and skipped: one dead socket
// must never stop delivery to the rest of the room.
type Sender struct {
	logger *slog.Logger
	limit  int
}

func NewSender(logger *slog.Logger, fanoutLimit int) *Sender {
	if fanoutLimit < 1 {
		fanoutLimit = 1
	}
	return &Sender{logger: logger, limit: fanoutLimit}
}

// Send fans the event out to every connection with bounded parallelism.
func (s *Sender) Send(ctx context.Context, ev event.Eventer, conns []*registry.Connection) {
	if len(conns) == 0 {
		return
	}

	data, err := ev.Marshal()
	if err != nil {
		s.logger.Error("sender: marshal failed", "type", ev.GetType(), "room_id", ev.GetRoomID(), "error", err)
		return
	}

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(s.limit)
	for _, conn := range conns {
		conn := conn
		g.Go(func() error {
			if err := conn.SendText(data); err != nil {
				s.logger.Warn("sender: socket write failed",
					"type", ev.GetType(),
					"room_id", ev.GetRoomID(),
					"conn_id", conn.ID,
					"user_id", conn.UserID,
					"error", err)
			}
			return nil
		})
	}
	_ = g.Wait()
}

// SendTo writes the event to exactly one connection (point-to-point relays
// and direct replies). Failures are logged, never returned.
func (s *Sender) SendTo(ev event.Eventer, conn *registry.Connection) {
	data, err := ev.Marshal()
	if err != nil {
		s.logger.Error("sender: marshal failed", "type", ev.GetType(), "room_id", ev.GetRoomID(), "error", err)
		return
	}
	if err := conn.SendText(data); err != nil {
		s.logger.Warn("sender: socket write failed",
			"type", ev.GetType(),
			"conn_id", conn.ID,
			"user_id", conn.UserID,
			"error", err)
	}
}
