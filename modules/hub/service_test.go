package hub

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/go-monolith/mono/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/chatroom-hub/domain/chatroom"
)

// mockLogger implements types.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(msg string, args ...any)         {}
func (m *mockLogger) Info(msg string, args ...any)          {}
func (m *mockLogger) Warn(msg string, args ...any)          {}
func (m *mockLogger) Error(msg string, args ...any)         {}
func (m *mockLogger) With(args ...any) types.Logger         { return m }
func (m *mockLogger) WithError(err error) types.Logger      { return m }
func (m *mockLogger) WithModule(module string) types.Logger { return m }

// fakeSender records every event written to it.
type fakeSender struct {
	mu     sync.Mutex
	events []Event
	closed bool
}

func (f *fakeSender) Send(event Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func (f *fakeSender) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeSender) eventsOfType(eventType string) []Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Event
	for _, e := range f.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

func (f *fakeSender) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func newTestService() *Service {
	return NewService(&mockLogger{})
}

func TestService_JoinRoomValidation(t *testing.T) {
	svc := newTestService()

	err := svc.JoinRoom("conn1", "", "alice", &fakeSender{})
	require.Error(t, err)
	assert.Equal(t, chatroom.ErrorKindValidation, chatroom.KindOf(err))

	err = svc.JoinRoom("conn1", "sess1", "bad name!", &fakeSender{})
	require.Error(t, err)
	assert.Equal(t, chatroom.ErrorKindValidation, chatroom.KindOf(err))

	// Nothing was registered by the failed joins.
	assert.Equal(t, 0, svc.Registry().Len())
}

func TestService_SingleJoinAndLeaveNotifications(t *testing.T) {
	svc := newTestService()

	bobSender := &fakeSender{}
	require.NoError(t, svc.JoinRoom("bob1", "bob-sess", "bob", bobSender))

	// Alice opens two tabs under two sessions.
	tab1 := &fakeSender{}
	tab2 := &fakeSender{}
	require.NoError(t, svc.JoinRoom("alice1", "alice-sess1", "alice", tab1))
	require.NoError(t, svc.JoinRoom("alice2", "alice-sess2", "alice", tab2))

	// Bob saw exactly one userJoined for alice.
	joins := bobSender.eventsOfType(EventUserJoined)
	require.Len(t, joins, 1)
	assert.Equal(t, chatroom.UserPresence{Username: "alice"}, joins[0].Payload)

	assert.Equal(t, []string{"alice", "bob"}, svc.ActiveUsers())

	// Closing the first tab changes nothing.
	svc.Disconnect("alice1")
	assert.Empty(t, bobSender.eventsOfType(EventUserLeft))
	assert.Equal(t, []string{"alice", "bob"}, svc.ActiveUsers())

	// Closing the last tab fires exactly one userLeft.
	svc.Disconnect("alice2")
	leaves := bobSender.eventsOfType(EventUserLeft)
	require.Len(t, leaves, 1)
	assert.Equal(t, chatroom.UserPresence{Username: "alice"}, leaves[0].Payload)
	assert.Equal(t, []string{"bob"}, svc.ActiveUsers())

	// Disconnecting twice must not fire again.
	svc.Disconnect("alice2")
	assert.Len(t, bobSender.eventsOfType(EventUserLeft), 1)
}

func TestService_RepeatJoinOnSameConnectionRejected(t *testing.T) {
	svc := newTestService()

	sender := &fakeSender{}
	require.NoError(t, svc.JoinRoom("conn1", "sess1", "alice", sender))

	// A second join frame on an already-joined connection is ordinary
	// client input and must come back as a structured error.
	var err error
	require.NotPanics(t, func() {
		err = svc.JoinRoom("conn1", "sess1", "alice", sender)
	})
	require.Error(t, err)
	assert.Equal(t, chatroom.ErrorKindValidation, chatroom.KindOf(err))

	// Same for a repeat join claiming a fresh session.
	err = svc.JoinRoom("conn1", "sess2", "alice", sender)
	require.Error(t, err)
	assert.Equal(t, chatroom.ErrorKindValidation, chatroom.KindOf(err))

	// State and the connection itself are unaffected.
	assert.Equal(t, 1, svc.Registry().Len())
	assert.Equal(t, []string{"alice"}, svc.ActiveUsers())
	assert.False(t, sender.isClosed())
	assert.Empty(t, sender.eventsOfType(EventDisconnected))
}

func TestService_SessionReplacement(t *testing.T) {
	svc := newTestService()

	oldSender := &fakeSender{}
	newSender := &fakeSender{}
	require.NoError(t, svc.JoinRoom("conn1", "sess1", "alice", oldSender))
	require.NoError(t, svc.JoinRoom("conn2", "sess1", "alice", newSender))

	// The displaced connection was told why and closed.
	notices := oldSender.eventsOfType(EventDisconnected)
	require.Len(t, notices, 1)
	assert.Equal(t, chatroom.Disconnected{Reason: chatroom.DisconnectReasonReplaced}, notices[0].Payload)
	assert.True(t, oldSender.isClosed())

	// Exactly one live connection remains and alice never went inactive.
	assert.Equal(t, 1, svc.Registry().Len())
	assert.Equal(t, []string{"alice"}, svc.ActiveUsers())
	assert.Empty(t, newSender.eventsOfType(EventUserLeft))
}

func TestService_SendMessage(t *testing.T) {
	svc := newTestService()

	alice := &fakeSender{}
	bob := &fakeSender{}
	require.NoError(t, svc.JoinRoom("alice1", "sess-a", "alice", alice))
	require.NoError(t, svc.JoinRoom("bob1", "sess-b", "bob", bob))

	msg, err := svc.SendMessage("alice1", "alice", "  hello world  ")
	require.NoError(t, err)
	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, "hello world", msg.Text)
	assert.Equal(t, "alice", msg.Username)
	assert.False(t, msg.CreatedAt.IsZero())

	// Everyone receives the broadcast, including the sender.
	for _, sender := range []*fakeSender{alice, bob} {
		got := sender.eventsOfType(EventMessage)
		require.Len(t, got, 1)
		assert.Equal(t, msg, got[0].Payload)
	}
}

func TestService_SendMessageRejections(t *testing.T) {
	svc := newTestService()
	require.NoError(t, svc.JoinRoom("alice1", "sess-a", "alice", &fakeSender{}))

	tests := []struct {
		name     string
		connID   string
		username string
		text     string
		wantKind chatroom.ErrorKind
	}{
		{
			name:     "not joined",
			connID:   "ghost",
			username: "alice",
			text:     "hi",
			wantKind: chatroom.ErrorKindUnauthorized,
		},
		{
			name:     "claimed username mismatch",
			connID:   "alice1",
			username: "bob",
			text:     "hi",
			wantKind: chatroom.ErrorKindUnauthorized,
		},
		{
			name:     "empty text",
			connID:   "alice1",
			username: "alice",
			text:     "   ",
			wantKind: chatroom.ErrorKindValidation,
		},
		{
			name:     "oversized text",
			connID:   "alice1",
			username: "alice",
			text:     strings.Repeat("x", chatroom.MaxMessageLength+1),
			wantKind: chatroom.ErrorKindValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SendMessage(tt.connID, tt.username, tt.text)
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, chatroom.KindOf(err))
		})
	}
}

func TestService_SendTypingStatusExcludesSender(t *testing.T) {
	svc := newTestService()

	alice := &fakeSender{}
	bob := &fakeSender{}
	require.NoError(t, svc.JoinRoom("alice1", "sess-a", "alice", alice))
	require.NoError(t, svc.JoinRoom("bob1", "sess-b", "bob", bob))

	svc.SendTypingStatus("alice1", "alice", true)

	assert.Empty(t, alice.eventsOfType(EventTypingStatus))
	got := bob.eventsOfType(EventTypingStatus)
	require.Len(t, got, 1)
	assert.Equal(t, chatroom.TypingStatus{Username: "alice", IsTyping: true}, got[0].Payload)

	// A forged username is dropped silently.
	svc.SendTypingStatus("alice1", "bob", true)
	assert.Len(t, bob.eventsOfType(EventTypingStatus), 1)
}

func TestService_EditAndDeleteMessage(t *testing.T) {
	svc := newTestService()

	alice := &fakeSender{}
	bob := &fakeSender{}
	require.NoError(t, svc.JoinRoom("alice1", "sess-a", "alice", alice))
	require.NoError(t, svc.JoinRoom("bob1", "sess-b", "bob", bob))

	require.NoError(t, svc.EditMessage("alice1", "msg1", "edited text", "alice"))
	edits := bob.eventsOfType(EventMessageEdited)
	require.Len(t, edits, 1)
	edited, ok := edits[0].Payload.(chatroom.MessageEdited)
	require.True(t, ok)
	assert.Equal(t, "msg1", edited.MessageID)
	assert.Equal(t, "edited text", edited.Text)
	assert.False(t, edited.EditedAt.IsZero())

	// Deleting drops reactions alongside the broadcast.
	_, err := svc.AddReaction("bob1", "msg1", "👍", "bob")
	require.NoError(t, err)
	require.NoError(t, svc.DeleteMessage("alice1", "msg1", "alice"))

	deletes := bob.eventsOfType(EventMessageDeleted)
	require.Len(t, deletes, 1)
	assert.Equal(t, chatroom.MessageDeleted{MessageID: "msg1"}, deletes[0].Payload)

	view, err := svc.GetReactions("msg1")
	require.NoError(t, err)
	assert.Empty(t, view)

	// Missing message id is a validation failure.
	err = svc.EditMessage("alice1", "", "text", "alice")
	require.Error(t, err)
	assert.Equal(t, chatroom.ErrorKindValidation, chatroom.KindOf(err))
}

func TestService_ReactionsIdempotentWithSnapshots(t *testing.T) {
	svc := newTestService()

	alice := &fakeSender{}
	bob := &fakeSender{}
	require.NoError(t, svc.JoinRoom("alice1", "sess-a", "alice", alice))
	require.NoError(t, svc.JoinRoom("bob1", "sess-b", "bob", bob))

	view, err := svc.AddReaction("alice1", "msg1", "👍", "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, view["👍"].Count)

	// Repeated add does not change the view but still broadcasts the
	// snapshot to everyone.
	view, err = svc.AddReaction("alice1", "msg1", "👍", "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, view["👍"].Count)
	assert.Len(t, bob.eventsOfType(EventMessageReactions), 2)
	assert.Len(t, alice.eventsOfType(EventMessageReactions), 2)

	view, err = svc.RemoveReaction("alice1", "msg1", "👍", "alice")
	require.NoError(t, err)
	assert.Empty(t, view)

	// Whitelist enforced before any mutation.
	_, err = svc.AddReaction("alice1", "msg1", "🙃", "alice")
	require.Error(t, err)
	assert.Equal(t, chatroom.ErrorKindValidation, chatroom.KindOf(err))

	// Reacting requires a joined connection.
	_, err = svc.AddReaction("ghost", "msg1", "👍", "alice")
	require.Error(t, err)
	assert.Equal(t, chatroom.ErrorKindUnauthorized, chatroom.KindOf(err))
}

func TestService_ConcurrentSessionsSingleNotification(t *testing.T) {
	svc := newTestService()

	bob := &fakeSender{}
	require.NoError(t, svc.JoinRoom("bob1", "sess-bob", "bob", bob))

	// Alice opens many tabs at once; bob must see exactly one join.
	const sessions = 16
	var wg sync.WaitGroup
	for i := 0; i < sessions; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			connID := fmt.Sprintf("alice-conn-%d", i)
			sessID := fmt.Sprintf("alice-sess-%d", i)
			assert.NoError(t, svc.JoinRoom(connID, sessID, "alice", &fakeSender{}))
		}(i)
	}
	wg.Wait()

	require.Len(t, bob.eventsOfType(EventUserJoined), 1)
	assert.Equal(t, []string{"alice", "bob"}, svc.ActiveUsers())

	// All tabs close at once; bob must see exactly one leave.
	for i := 0; i < sessions; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			svc.Disconnect(fmt.Sprintf("alice-conn-%d", i))
		}(i)
	}
	wg.Wait()

	require.Len(t, bob.eventsOfType(EventUserLeft), 1)
	assert.Equal(t, []string{"bob"}, svc.ActiveUsers())
}

func TestService_ActiveUsersSnapshotsBroadcast(t *testing.T) {
	svc := newTestService()

	alice := &fakeSender{}
	require.NoError(t, svc.JoinRoom("alice1", "sess-a", "alice", alice))
	require.NoError(t, svc.JoinRoom("bob1", "sess-b", "bob", &fakeSender{}))

	snapshots := alice.eventsOfType(EventActiveUsers)
	require.NotEmpty(t, snapshots)
	last, ok := snapshots[len(snapshots)-1].Payload.(chatroom.ActiveUsers)
	require.True(t, ok)
	assert.Equal(t, []string{"alice", "bob"}, last.Users)

	svc.Disconnect("bob1")
	snapshots = alice.eventsOfType(EventActiveUsers)
	last, ok = snapshots[len(snapshots)-1].Payload.(chatroom.ActiveUsers)
	require.True(t, ok)
	assert.Equal(t, []string{"alice"}, last.Users)
}
