package hub

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/chatroom-hub/domain/chatroom"
)

func TestSweeper_EvictsOnlyIdleConnections(t *testing.T) {
	svc := newTestService()
	sweeper := NewSweeper(svc, SweeperConfig{
		Interval:    time.Minute,
		IdleTimeout: 50 * time.Millisecond,
	}, &mockLogger{})

	idleSender := &fakeSender{}
	require.NoError(t, svc.JoinRoom("idle1", "sess-idle", "alice", idleSender))

	time.Sleep(80 * time.Millisecond)

	freshSender := &fakeSender{}
	require.NoError(t, svc.JoinRoom("fresh1", "sess-fresh", "bob", freshSender))

	sweeper.Sweep()

	// The idle connection was notified, evicted and closed.
	notices := idleSender.eventsOfType(EventDisconnected)
	require.Len(t, notices, 1)
	assert.Equal(t, chatroom.Disconnected{Reason: chatroom.DisconnectReasonTimeout}, notices[0].Payload)
	assert.True(t, idleSender.isClosed())

	// Eviction behaves like an explicit disconnect: the survivor sees
	// the leave and the updated active set.
	leaves := freshSender.eventsOfType(EventUserLeft)
	require.Len(t, leaves, 1)
	assert.Equal(t, chatroom.UserPresence{Username: "alice"}, leaves[0].Payload)
	assert.Equal(t, []string{"bob"}, svc.ActiveUsers())
	assert.Equal(t, 1, svc.Registry().Len())
	assert.False(t, freshSender.isClosed())
}

func TestSweeper_TouchPreventsEviction(t *testing.T) {
	svc := newTestService()
	sweeper := NewSweeper(svc, SweeperConfig{
		Interval:    time.Minute,
		IdleTimeout: 60 * time.Millisecond,
	}, &mockLogger{})

	sender := &fakeSender{}
	require.NoError(t, svc.JoinRoom("conn1", "sess1", "alice", sender))

	// Keep the connection active across two would-be timeouts.
	for i := 0; i < 4; i++ {
		time.Sleep(30 * time.Millisecond)
		svc.Touch("conn1")
	}

	sweeper.Sweep()
	assert.Equal(t, 1, svc.Registry().Len())
	assert.Empty(t, sender.eventsOfType(EventDisconnected))
}

func TestSweeper_SweepOnEmptyRegistry(t *testing.T) {
	svc := newTestService()
	sweeper := NewSweeper(svc, DefaultSweeperConfig(), &mockLogger{})

	// Must be a no-op, not a panic.
	sweeper.Sweep()
	assert.Equal(t, 0, svc.Registry().Len())
}

func TestNewSweeper_DefaultsApplied(t *testing.T) {
	sweeper := NewSweeper(newTestService(), SweeperConfig{}, &mockLogger{})
	assert.Equal(t, DefaultSweeperConfig().Interval, sweeper.config.Interval)
	assert.Equal(t, DefaultSweeperConfig().IdleTimeout, sweeper.config.IdleTimeout)
}
