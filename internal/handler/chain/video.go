package chain

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/hirelight/room-events-service/internal/domain/event"
	"github.com/hirelight/room-events-service/internal/domain/registry"
	"github.com/hirelight/room-events-service/internal/service"
)

// Interface guards
var (
	_ Handler = (*VideoJoinHandler)(nil)
	_ Handler = (*VideoSignalHandler)(nil)
)

// VideoJoinPayload announces the caller's signaling identity.
type VideoJoinPayload struct {
	PeerID string `json:"peer_id"`
}

// videoPeerInfo is what the joining client gets back per existing peer.
type videoPeerInfo struct {
	UserID uuid.UUID `json:"user_id"`
	PeerID string    `json:"peer_id"`
}

// VideoJoinHandler registers the connection in the video directory and
// replies with the peers already present. Only examinee and expert may share
// media; everyone else is rejected.
type VideoJoinHandler struct {
	directory *registry.VideoDirectory
	sender    *service.Sender
}

func NewVideoJoinHandler(directory *registry.VideoDirectory, sender *service.Sender) *VideoJoinHandler {
	return &VideoJoinHandler{directory: directory, sender: sender}
}

func (h *VideoJoinHandler) Supports(_ context.Context, in *event.Inbound) bool {
	return matches(in, event.TypeVideoJoin)
}

func (h *VideoJoinHandler) Handle(_ context.Context, ec *EventContext) error {
	if !ec.Role.CanShareMedia() {
		return fmt.Errorf("video join: role %s may not share media", ec.Role)
	}

	var p VideoJoinPayload
	if err := json.Unmarshal([]byte(ec.Event.RawValue()), &p); err != nil {
		return fmt.Errorf("video join: bad payload: %w", err)
	}
	if p.PeerID == "" {
		return fmt.Errorf("video join: missing peer id")
	}

	h.directory.Join(ec.Conn, p.PeerID)

	peers := make([]videoPeerInfo, 0, 4)
	for _, peer := range h.directory.Peers(ec.RoomID) {
		if peer.Conn == ec.Conn {
			continue
		}
		peers = append(peers, videoPeerInfo{UserID: peer.Conn.UserID, PeerID: peer.PeerID})
	}

	// Direct reply to the joining connection only.
	h.sender.SendTo(event.NewTyped(ec.RoomID, event.TypeVideoPeers, peers, false, nil), ec.Conn)
	return nil
}

// VideoSignalPayload relays WebRTC signaling to exactly one peer.
type VideoSignalPayload struct {
	To     uuid.UUID       `json:"to"`
	PeerID string          `json:"peer_id"`
	Signal json.RawMessage `json:"signal"`
}

// videoSignalRelay is the payload the target receives.
type videoSignalRelay struct {
	From   uuid.UUID       `json:"from"`
	PeerID string          `json:"peer_id"`
	Signal json.RawMessage `json:"signal"`
}

// VideoSignalHandler forwards a signaling payload point-to-point to the
// single connection identified by the payload's "to" user id.
type VideoSignalHandler struct {
	directory *registry.VideoDirectory
	sender    *service.Sender
}

func NewVideoSignalHandler(directory *registry.VideoDirectory, sender *service.Sender) *VideoSignalHandler {
	return &VideoSignalHandler{directory: directory, sender: sender}
}

func (h *VideoSignalHandler) Supports(_ context.Context, in *event.Inbound) bool {
	return matches(in, event.TypeVideoSignal)
}

func (h *VideoSignalHandler) Handle(_ context.Context, ec *EventContext) error {
	if !ec.Role.CanShareMedia() {
		return fmt.Errorf("video signal: role %s may not share media", ec.Role)
	}

	var p VideoSignalPayload
	if err := json.Unmarshal([]byte(ec.Event.RawValue()), &p); err != nil {
		return fmt.Errorf("video signal: bad payload: %w", err)
	}
	if p.To == uuid.Nil {
		return fmt.Errorf("video signal: missing target user")
	}

	target, ok := h.directory.FindByUser(ec.RoomID, p.To)
	if !ok {
		return fmt.Errorf("video signal: user %s is not in the video chat", p.To)
	}

	relay := videoSignalRelay{From: ec.UserID, PeerID: p.PeerID, Signal: p.Signal}
	h.sender.SendTo(event.NewTyped(ec.RoomID, event.TypeVideoSignal, relay, false, &ec.UserID), target.Conn)
	return nil
}
