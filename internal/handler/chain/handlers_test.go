package chain

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/hirelight/room-events-service/internal/adapter/inmem"
	"github.com/hirelight/room-events-service/internal/adapter/pubsub"
	"github.com/hirelight/room-events-service/internal/domain/event"
	"github.com/hirelight/room-events-service/internal/domain/registry"
	"github.com/hirelight/room-events-service/internal/domain/room"
	"github.com/hirelight/room-events-service/internal/service"
)

type fakeTransport struct {
	mu     sync.Mutex
	frames [][]byte
}

func (t *fakeTransport) SendText(data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.frames = append(t.frames, data)
	return nil
}

func (t *fakeTransport) Close() error { return nil }

func (t *fakeTransport) count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.frames)
}

func (t *fakeTransport) last(tb testing.TB) event.Outbound {
	t.mu.Lock()
	defer t.mu.Unlock()
	require.NotEmpty(tb, t.frames)
	var out event.Outbound
	require.NoError(tb, json.Unmarshal(t.frames[len(t.frames)-1], &out))
	return out
}

// stack is the wired distribution core the handler tests run against.
type stack struct {
	roster     *registry.Roster
	video      *registry.VideoDirectory
	sender     *service.Sender
	dispatcher *service.Dispatcher
	bus        *pubsub.MemoryBus
	state      *inmem.StateTable
	cancel     context.CancelFunc
}

func newStack(t *testing.T) *stack {
	t.Helper()
	logger := testLogger()

	roster := registry.NewRoster()
	video := registry.NewVideoDirectory()
	sender := service.NewSender(logger, 8)
	state := inmem.NewStateTable()
	persister := service.NewPersister(logger, state)
	bus := pubsub.NewMemoryBus(logger, "test-node")
	dispatcher := service.NewDispatcher(logger, roster, sender, persister, bus)

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = dispatcher.Run(ctx) }()
	t.Cleanup(cancel)

	return &stack{
		roster:     roster,
		video:      video,
		sender:     sender,
		dispatcher: dispatcher,
		bus:        bus,
		state:      state,
		cancel:     cancel,
	}
}

func (s *stack) join(roomID uuid.UUID, role room.Role) (*registry.Connection, *fakeTransport) {
	tr := &fakeTransport{}
	conn := registry.NewConnection(uuid.New(), roomID, role, tr)
	s.roster.Register(conn)
	return conn, tr
}

func ctxFor(conn *registry.Connection, in *event.Inbound) *EventContext {
	return &EventContext{
		Conn:   conn,
		Event:  in,
		UserID: conn.UserID,
		RoomID: conn.RoomID,
		Role:   conn.Role,
	}
}

func TestChatHandler_BroadcastsToWholeRoom(t *testing.T) {
	s := newStack(t)
	roomID := uuid.New()
	author, authorTr := s.join(roomID, room.RoleExaminee)
	_, otherTr := s.join(roomID, room.RoleExpert)

	h := NewChatHandler(s.dispatcher)
	in := inbound("chat-message", `{"text":"hello"}`)
	require.True(t, h.Supports(context.Background(), in))
	require.NoError(t, h.Handle(context.Background(), ctxFor(author, in)))

	// The author hears their own message back, like everyone else.
	require.Eventually(t, func() bool {
		return authorTr.count() == 1 && otherTr.count() == 1
	}, time.Second, 5*time.Millisecond)

	out := otherTr.last(t)
	require.Equal(t, event.TypeChatMessage, out.Type)
	require.Equal(t, `{"text":"hello"}`, out.Value)
	require.False(t, out.Stateful)
	require.Equal(t, author.UserID, *out.CreatedBy)

	// Chat is transient; no room state is written.
	_, ok := s.state.Current(roomID, event.TypeChatMessage)
	require.False(t, ok)
}

func TestChatHandler_RejectsEmptyText(t *testing.T) {
	s := newStack(t)
	author, tr := s.join(uuid.New(), room.RoleExaminee)
	h := NewChatHandler(s.dispatcher)

	require.Error(t, h.Handle(context.Background(), ctxFor(author, inbound("chat-message", `{"text":""}`))))
	require.Error(t, h.Handle(context.Background(), ctxFor(author, inbound("chat-message", `not json`))))

	time.Sleep(50 * time.Millisecond)
	require.Zero(t, tr.count())
}

func TestVoiceHandler_BroadcastIsStateful(t *testing.T) {
	s := newStack(t)
	roomID := uuid.New()
	author, _ := s.join(roomID, room.RoleExaminee)
	h := NewVoiceHandler(s.dispatcher)

	require.NoError(t, h.Handle(context.Background(), ctxFor(author, inbound("voice-recognition", `{"text":"first","final":false}`))))
	require.NoError(t, h.Handle(context.Background(), ctxFor(author, inbound("voice-recognition", `{"text":"second","final":true}`))))

	// Latest fragment wins as the room's remembered state.
	require.Eventually(t, func() bool {
		payload, ok := s.state.Current(roomID, event.TypeVoiceRecognition)
		return ok && payload == `{"text":"second","final":true}`
	}, time.Second, 5*time.Millisecond)
}

func TestCodeEditorHandler_UpdatesConfigWithoutBroadcast(t *testing.T) {
	s := newStack(t)
	roomID := uuid.New()
	author, tr := s.join(roomID, room.RoleExaminee)

	h := NewCodeEditorHandler(s.state)
	questionID := uuid.New()
	payload, _ := json.Marshal(CodeEditorPayload{QuestionID: questionID, Content: "func main() {}"})

	require.NoError(t, h.Handle(context.Background(), ctxFor(author, inbound("code-editor-change", string(payload)))))

	st, ok := s.state.Editor(roomID)
	require.True(t, ok)
	require.Equal(t, questionID, st.QuestionID)
	require.Equal(t, "func main() {}", st.Content)

	// The config service owns the downstream change event.
	time.Sleep(50 * time.Millisecond)
	require.Zero(t, tr.count())
}

func TestCodeEditorHandler_RequiresQuestionID(t *testing.T) {
	s := newStack(t)
	author, _ := s.join(uuid.New(), room.RoleExaminee)
	h := NewCodeEditorHandler(s.state)

	require.Error(t, h.Handle(context.Background(), ctxFor(author, inbound("code-editor-change", `{"content":"x"}`))))
}

func TestVideoJoinHandler_RepliesWithExistingPeers(t *testing.T) {
	s := newStack(t)
	roomID := uuid.New()
	examinee, examineeTr := s.join(roomID, room.RoleExaminee)
	expert, expertTr := s.join(roomID, room.RoleExpert)

	h := NewVideoJoinHandler(s.video, s.sender)

	require.NoError(t, h.Handle(context.Background(), ctxFor(examinee, inbound("join video chat", `{"peer_id":"peer-1"}`))))
	require.NoError(t, h.Handle(context.Background(), ctxFor(expert, inbound("join video chat", `{"peer_id":"peer-2"}`))))

	// First joiner sees an empty room; the second sees the first.
	first := examineeTr.last(t)
	require.Equal(t, event.TypeVideoPeers, first.Type)
	require.JSONEq(t, `[]`, first.Value)

	second := expertTr.last(t)
	require.Equal(t, event.TypeVideoPeers, second.Type)

	var peers []struct {
		UserID uuid.UUID `json:"user_id"`
		PeerID string    `json:"peer_id"`
	}
	require.NoError(t, json.Unmarshal([]byte(second.Value), &peers))
	require.Len(t, peers, 1)
	require.Equal(t, examinee.UserID, peers[0].UserID)
	require.Equal(t, "peer-1", peers[0].PeerID)
}

func TestVideoJoinHandler_ViewersMayNotShareMedia(t *testing.T) {
	s := newStack(t)
	viewer, _ := s.join(uuid.New(), room.RoleViewer)
	h := NewVideoJoinHandler(s.video, s.sender)

	require.Error(t, h.Handle(context.Background(), ctxFor(viewer, inbound("join video chat", `{"peer_id":"p"}`))))
	require.Empty(t, s.video.Peers(viewer.RoomID))
}

func TestVideoSignalHandler_RelaysToSingleTarget(t *testing.T) {
	s := newStack(t)
	roomID := uuid.New()
	examinee, examineeTr := s.join(roomID, room.RoleExaminee)
	expert, expertTr := s.join(roomID, room.RoleExpert)

	s.video.Join(examinee, "peer-1")
	s.video.Join(expert, "peer-2")

	h := NewVideoSignalHandler(s.video, s.sender)
	payload, _ := json.Marshal(VideoSignalPayload{
		To:     expert.UserID,
		PeerID: "peer-1",
		Signal: json.RawMessage(`{"sdp":"offer"}`),
	})

	require.NoError(t, h.Handle(context.Background(), ctxFor(examinee, inbound("returning signal", string(payload)))))

	require.Equal(t, 1, expertTr.count())
	require.Zero(t, examineeTr.count())

	out := expertTr.last(t)
	require.Equal(t, event.TypeVideoSignal, out.Type)

	var relay struct {
		From   uuid.UUID       `json:"from"`
		PeerID string          `json:"peer_id"`
		Signal json.RawMessage `json:"signal"`
	}
	require.NoError(t, json.Unmarshal([]byte(out.Value), &relay))
	require.Equal(t, examinee.UserID, relay.From)
	require.JSONEq(t, `{"sdp":"offer"}`, string(relay.Signal))
}

func TestVideoSignalHandler_UnknownTargetFails(t *testing.T) {
	s := newStack(t)
	examinee, _ := s.join(uuid.New(), room.RoleExaminee)
	s.video.Join(examinee, "peer-1")

	h := NewVideoSignalHandler(s.video, s.sender)
	payload, _ := json.Marshal(VideoSignalPayload{To: uuid.New(), PeerID: "peer-1"})

	require.Error(t, h.Handle(context.Background(), ctxFor(examinee, inbound("returning signal", string(payload)))))
}

func TestReviewTypingHandler_OnlyOtherExpertsSeeIt(t *testing.T) {
	s := newStack(t)
	roomID := uuid.New()
	author, authorTr := s.join(roomID, room.RoleExpert)
	_, otherExpertTr := s.join(roomID, room.RoleExpert)
	_, examineeTr := s.join(roomID, room.RoleExaminee)

	h := NewReviewTypingHandler(s.roster, s.sender)
	require.NoError(t, h.Handle(context.Background(), ctxFor(author, inbound("expert-review-typing", `{}`))))

	require.Equal(t, 1, otherExpertTr.count())
	require.Zero(t, authorTr.count())
	require.Zero(t, examineeTr.count())
}

func TestReviewTypingHandler_RejectsNonExperts(t *testing.T) {
	s := newStack(t)
	examinee, _ := s.join(uuid.New(), room.RoleExaminee)

	h := NewReviewTypingHandler(s.roster, s.sender)
	require.Error(t, h.Handle(context.Background(), ctxFor(examinee, inbound("expert-review-typing", `{}`))))
}

func TestDomainEventHandler_GatesOnMinRoleAndPublishesGlobally(t *testing.T) {
	s := newStack(t)
	roomID := uuid.New()
	expert, expertTr := s.join(roomID, room.RoleExpert)
	examinee, _ := s.join(roomID, room.RoleExaminee)

	types := inmem.NewTypeRegistry()
	h := NewDomainEventHandler(testLogger(), types, s.dispatcher, s.bus)

	in := inbound("question-active", `{"question_id":"00000000-0000-0000-0000-000000000001"}`)
	require.True(t, h.Supports(context.Background(), in))
	require.False(t, h.Supports(context.Background(), inbound("unregistered-type", `{}`)))

	// The registry demands expert for question lifecycle events.
	require.Error(t, h.Handle(context.Background(), ctxFor(examinee, in)))

	var global []*event.Envelope
	var mu sync.Mutex
	_, err := s.bus.Subscribe(context.Background(), pubsub.GlobalKey, func(env *event.Envelope) {
		mu.Lock()
		global = append(global, env)
		mu.Unlock()
	})
	require.NoError(t, err)

	require.NoError(t, h.Handle(context.Background(), ctxFor(expert, in)))

	// Room broadcast through the dispatcher.
	require.Eventually(t, func() bool { return expertTr.count() == 1 }, time.Second, 5*time.Millisecond)

	// Plus the system-wide copy on the global key.
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, global, 1)
	require.Equal(t, event.KindRoomEvent, global[0].Kind)
	require.Equal(t, event.TypeQuestionActive, global[0].Event.Type)
	require.Equal(t, expert.UserID, *global[0].Event.CreatedBy)
}
