// Package event defines the data packets flowing through the room
// distribution core: the inbound wire envelope, the outbound event union and
// the bus envelope used to move events between nodes.
package event

import "github.com/google/uuid"

// Wire type tags understood by the handler chain. Matching is
// case-insensitive on the wire.
const (
	TypeChatMessage      = "chat-message"
	TypeVoiceRecognition = "voice-recognition"
	TypeCodeEditorChange = "code-editor-change"
	TypeCodeEditorToggle = "code-editor-toggled"
	TypeVideoJoin        = "join video chat"
	TypeVideoSignal      = "returning signal"
	TypeVideoPeers       = "video-peers"
	TypeReviewTyping     = "expert-review-typing"
	TypeQuestionActive   = "question-active"
	TypeQuestionInactive = "question-inactive"
)

// Eventer defines the contract for all events routed through the dispatcher,
// the bus and the sockets.
//
// [MARSHAL_ONCE]
// Marshal must serialize the event exactly once and return the same cached
// bytes on every subsequent call, so fanning one event out to a full room
// never re-serializes per recipient. The cached bytes are immutable.
type Eventer interface {
	GetRoomID() uuid.UUID
	GetType() string
	// GetStateful reports whether the latest value of this event type must be
	// durably remembered per room (reconnect recovery).
	GetStateful() bool
	// GetCreatedBy returns the authoring user, or nil for system events.
	GetCreatedBy() *uuid.UUID
	GetValue() (string, error)
	Marshal() ([]byte, error)
}
