package ws

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/hirelight/room-events-service/internal/adapter/pubsub"
	"github.com/hirelight/room-events-service/internal/domain/event"
	"github.com/hirelight/room-events-service/internal/domain/registry"
	"github.com/hirelight/room-events-service/internal/handler/chain"
	"github.com/hirelight/room-events-service/internal/service"
)

// session owns one physical connection: the read loop that feeds the handler
// chain, and the relay that writes bus-originated events back out to this
// socket. Both run until the peer closes, the transport breaks, or the
// server shuts down; the session context owns all of it.
type session struct {
	logger   *slog.Logger
	ws       *websocket.Conn
	conn     *registry.Connection
	roster   registry.Rosterer
	video    *registry.VideoDirectory
	chain    *chain.Chain
	bus      pubsub.Bus
	recorder *service.Recorder
	nodeID   pubsub.NodeID
}

// run blocks for the lifetime of the connection.
func (s *session) run(ctx context.Context) {
	s.roster.Register(s.conn)
	defer func() {
		s.video.Leave(s.conn)
		s.roster.Unregister(s.conn)
		_ = s.conn.Close()
		s.logger.Info("session closed", "conn_id", s.conn.ID, "user_id", s.conn.UserID, "room_id", s.conn.RoomID)
	}()

	// The read loop ending for any reason, clean close included, must wind
	// down the whole session, so it owns an explicit cancel on top of the
	// group's error propagation.
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(runCtx)

	// Unblock the read loop when anything cancels the session.
	g.Go(func() error {
		<-gctx.Done()
		_ = s.conn.Close()
		return nil
	})

	g.Go(func() error {
		defer cancel()
		return s.readLoop(gctx)
	})
	g.Go(func() error { return s.relayLoop(gctx) })

	if err := g.Wait(); err != nil {
		s.logger.Warn("session ended with transport error", "conn_id", s.conn.ID, "error", err)
	}
}

// readLoop blocks for full messages (gorilla reassembles fragments until
// end-of-message), records a copy, and runs the handler chain. Events of one
// connection are handled strictly in arrival order. Transient failures (bad
// JSON, handler errors) never terminate the session; only the peer's close
// handshake or an unrecoverable transport error does.
func (s *session) readLoop(ctx context.Context) error {
	for {
		msgType, data, err := s.ws.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				return nil
			}
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if msgType != websocket.TextMessage {
			continue
		}

		in, err := event.DecodeInbound(data)
		if err != nil {
			s.logger.Warn("session: unparsable inbound frame", "conn_id", s.conn.ID, "error", err)
			continue
		}

		s.recorder.Record(ctx, s.conn.RoomID, in.Type, in.RawValue(), &s.conn.UserID)

		s.chain.Dispatch(ctx, &chain.EventContext{
			Conn:   s.conn,
			Event:  in,
			UserID: s.conn.UserID,
			RoomID: s.conn.RoomID,
			Role:   s.conn.Role,
		})
	}
}

// relayLoop subscribes to this room's bus key and writes every event
// authored on another node out to this socket. A failed subscription leaves
// the relay absent rather than killing the session: local delivery still
// works through the dispatcher.
func (s *session) relayLoop(ctx context.Context) error {
	unsub, err := s.bus.Subscribe(ctx, pubsub.RoomKey(s.conn.RoomID), func(env *event.Envelope) {
		if env.Kind != event.KindRoomEvent {
			return
		}
		// Local events already reached this socket through the dispatcher.
		if env.NodeID == string(s.nodeID) {
			return
		}

		data, err := json.Marshal(env.Event)
		if err != nil {
			s.logger.Error("session: relay marshal failed", "conn_id", s.conn.ID, "error", err)
			return
		}
		if err := s.conn.SendText(data); err != nil {
			s.logger.Warn("session: relay write failed", "conn_id", s.conn.ID, "error", err)
		}
	})
	if err != nil {
		s.logger.Error("session: bus subscribe failed, relay disabled", "conn_id", s.conn.ID, "room_id", s.conn.RoomID, "error", err)
		return nil
	}
	defer unsub()

	<-ctx.Done()
	return nil
}
