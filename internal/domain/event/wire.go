package event

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Inbound is the client→server wire envelope: a type tag plus an opaque,
// possibly absent value. Frames are reassembled by the transport before the
// envelope is decoded.
type Inbound struct {
	Type  string  `json:"type"`
	Value *string `json:"value"`
}

// DecodeInbound parses a complete text frame into the inbound envelope.
func DecodeInbound(data []byte) (*Inbound, error) {
	var in Inbound
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("inbound event: decode: %w", err)
	}
	if in.Type == "" {
		return nil, fmt.Errorf("inbound event: empty type")
	}
	return &in, nil
}

// RawValue returns the payload or "" when the client sent null.
func (in *Inbound) RawValue() string {
	if in.Value == nil {
		return ""
	}
	return *in.Value
}

// Outbound is the server→client wire form of an event. One serialized
// Outbound is written as a single text frame per recipient.
type Outbound struct {
	RoomID    uuid.UUID  `json:"room_id"`
	Type      string     `json:"type"`
	Value     string     `json:"value"`
	Stateful  bool       `json:"stateful"`
	CreatedBy *uuid.UUID `json:"created_by,omitempty"`
}

// EnvelopeKind discriminates bus message shapes.
type EnvelopeKind string

const (
	// KindRoomEvent is an event to relay to every local subscriber of the key.
	KindRoomEvent EnvelopeKind = "room_event"
	// KindStatefulSync is an event whose persistence must happen exactly once
	// per logical publish, handled by a single subscribed worker.
	KindStatefulSync EnvelopeKind = "stateful_sync"
)

// Envelope moves an event between nodes under a bus key.
//
// NodeID names the publishing node. Relay subscribers drop envelopes from
// their own node: local sockets were already served by the local dispatcher.
type Envelope struct {
	Kind   EnvelopeKind `json:"kind"`
	NodeID string       `json:"node_id"`
	Event  Outbound     `json:"event"`
}

// DecodeEnvelope parses a bus payload.
func DecodeEnvelope(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("bus envelope: decode: %w", err)
	}
	return &env, nil
}

// Marshal serializes the envelope for the bus.
func (e *Envelope) Marshal() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("bus envelope: marshal: %w", err)
	}
	return data, nil
}

// FromOutbound rebuilds a relayable event out of a bus envelope. The result
// carries the already-built wire value, so relaying never re-serializes the
// original payload.
func FromOutbound(out Outbound) Eventer {
	return NewPlain(out.RoomID, out.Type, out.Value, out.Stateful, out.CreatedBy)
}
