package ws

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/hirelight/room-events-service/config"
	"github.com/hirelight/room-events-service/internal/adapter/pubsub"
	"github.com/hirelight/room-events-service/internal/domain/registry"
	"github.com/hirelight/room-events-service/internal/domain/room"
	"github.com/hirelight/room-events-service/internal/handler/chain"
	"github.com/hirelight/room-events-service/internal/service"
)

// WSHandler accepts participant connections and runs one session per socket.
type WSHandler struct {
	logger       *slog.Logger
	cfg          *config.Config
	participants room.ParticipantLookup
	roster       registry.Rosterer
	video        *registry.VideoDirectory
	chain        *chain.Chain
	bus          pubsub.Bus
	recorder     *service.Recorder
	nodeID       pubsub.NodeID
	upgrader     websocket.Upgrader
}

func NewWSHandler(
	logger *slog.Logger,
	cfg *config.Config,
	participants room.ParticipantLookup,
	roster registry.Rosterer,
	video *registry.VideoDirectory,
	eventChain *chain.Chain,
	bus pubsub.Bus,
	recorder *service.Recorder,
	nodeID pubsub.NodeID,
) *WSHandler {
	return &WSHandler{
		logger:       logger,
		cfg:          cfg,
		participants: participants,
		roster:       roster,
		video:        video,
		chain:        eventChain,
		bus:          bus,
		recorder:     recorder,
		nodeID:       nodeID,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true }, // Security: adjust for production
		},
	}
}

func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	roomID, err := uuid.Parse(chi.URLParam(r, "roomID"))
	if err != nil {
		http.Error(w, "invalid room id", http.StatusBadRequest)
		return
	}

	// Identity arrives from the platform's auth middleware upstream; the
	// user id query parameter is the contract at this boundary.
	userID, err := uuid.Parse(r.URL.Query().Get("user_id"))
	if err != nil {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}

	participant, err := h.participants.Resolve(r.Context(), userID, roomID)
	if err != nil {
		h.logger.Warn("ws: membership resolution failed", "user_id", userID, "room_id", roomID, "error", err)
		http.Error(w, "not a room participant", http.StatusForbidden)
		return
	}

	sock, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("ws: upgrade failed", "user_id", userID, "error", err)
		return
	}
	sock.SetReadLimit(h.cfg.Session.ReadLimit)

	t := newTransport(sock, h.cfg.Session.WriteTimeout)
	conn := registry.NewConnection(userID, roomID, participant.Role, t)

	h.logger.Info("ws: session opened", "conn_id", conn.ID, "user_id", userID, "room_id", roomID, "role", participant.Role)

	s := &session{
		logger:   h.logger,
		ws:       sock,
		conn:     conn,
		roster:   h.roster,
		video:    h.video,
		chain:    h.chain,
		bus:      h.bus,
		recorder: h.recorder,
		nodeID:   h.nodeID,
	}
	s.run(r.Context())
}
