package hub

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/chatroom-hub/modules/store"
)

type fakeReactionSource struct {
	records []store.ReactionRecord
	err     error
}

func (f *fakeReactionSource) AllReactions(_ context.Context) ([]store.ReactionRecord, error) {
	return f.records, f.err
}

func newTestModule(source reactionSource) *Module {
	m := NewModule(SweeperConfig{Interval: time.Hour, IdleTimeout: time.Hour}, &mockLogger{})
	m.reactions = source
	return m
}

func TestModule_StartRehydratesReactions(t *testing.T) {
	m := newTestModule(&fakeReactionSource{records: []store.ReactionRecord{
		{MessageID: "msg1", Emoji: "👍", Username: "alice"},
		{MessageID: "msg1", Emoji: "👍", Username: "bob"},
		{MessageID: "msg1", Emoji: "👍", Username: "alice"}, // duplicate replay
		{MessageID: "msg2", Emoji: "❤️", Username: "alice"},
		{MessageID: "msg3", Emoji: "🐙", Username: "mallory"}, // not whitelisted
		{MessageID: "", Emoji: "👍", Username: "mallory"},
	}})

	require.NoError(t, m.Start(context.Background()))
	t.Cleanup(func() { _ = m.Stop(context.Background()) })

	view, err := m.Service().GetReactions("msg1")
	require.NoError(t, err)
	assert.Equal(t, 2, view["👍"].Count)
	assert.Equal(t, []string{"alice", "bob"}, view["👍"].Usernames)

	view, err = m.Service().GetReactions("msg2")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, view["❤️"].Usernames)

	// Records that fail validation never reach the table.
	view, err = m.Service().GetReactions("msg3")
	require.NoError(t, err)
	assert.Empty(t, view)
}

func TestModule_StartSurvivesRehydrationFailure(t *testing.T) {
	m := newTestModule(&fakeReactionSource{err: errors.New("store unavailable")})

	require.NoError(t, m.Start(context.Background()))
	t.Cleanup(func() { _ = m.Stop(context.Background()) })

	view, err := m.Service().GetReactions("msg1")
	require.NoError(t, err)
	assert.Empty(t, view)
}

func TestModule_StartWithoutStoreDependency(t *testing.T) {
	m := NewModule(SweeperConfig{Interval: time.Hour, IdleTimeout: time.Hour}, &mockLogger{})

	require.NoError(t, m.Start(context.Background()))
	require.NoError(t, m.Stop(context.Background()))
}
