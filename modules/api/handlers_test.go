package api

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/chatroom-hub/domain/chatroom"
)

// fakeStore implements store.StorePort over a fixed message set.
type fakeStore struct {
	messages map[string]chatroom.Message
}

func (f *fakeStore) History(_ context.Context, limit int) ([]chatroom.Message, error) {
	out := make([]chatroom.Message, 0, len(f.messages))
	for _, msg := range f.messages {
		out = append(out, msg)
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) GetMessage(_ context.Context, messageID string) (*chatroom.Message, chatroom.ReactionsView, error) {
	msg, ok := f.messages[messageID]
	if !ok {
		return nil, nil, chatroom.ErrMessageNotFound
	}
	return &msg, chatroom.ReactionsView{}, nil
}

func TestAuthorizeMessageOwner(t *testing.T) {
	m := &APIModule{store: &fakeStore{
		messages: map[string]chatroom.Message{
			"msg1": {ID: "msg1", Username: "alice", Text: "hi"},
		},
	}}

	tests := []struct {
		name      string
		messageID string
		username  string
		wantKind  chatroom.ErrorKind
	}{
		{
			name:      "owner may act",
			messageID: "msg1",
			username:  "alice",
			wantKind:  "",
		},
		{
			name:      "unknown message",
			messageID: "ghost",
			username:  "alice",
			wantKind:  chatroom.ErrorKindNotFound,
		},
		{
			name:      "foreign message",
			messageID: "msg1",
			username:  "bob",
			wantKind:  chatroom.ErrorKindUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := m.authorizeMessageOwner(tt.messageID, tt.username)
			if tt.wantKind == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, chatroom.KindOf(err))
		})
	}
}

func TestWSMessageEnvelopeDecoding(t *testing.T) {
	raw := []byte(`{"type":"joinRoom","payload":{"username":"alice","sessionId":"sess-1"}}`)

	var msg WSMessage
	require.NoError(t, json.Unmarshal(raw, &msg))
	assert.Equal(t, CallJoinRoom, msg.Type)

	var req JoinRoomRequest
	require.NoError(t, json.Unmarshal(msg.Payload, &req))
	assert.Equal(t, "alice", req.Username)
	assert.Equal(t, "sess-1", req.SessionID)
}

func TestCallResultWireFormat(t *testing.T) {
	result := CallResult{
		Call: CallSendMessage,
		OK:   false,
		Error: &CallError{
			Kind:    string(chatroom.ErrorKindValidation),
			Message: "message text cannot be empty",
		},
	}

	data, err := json.Marshal(result)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"call": "sendMessage",
		"ok": false,
		"error": {"kind": "validation", "message": "message text cannot be empty"}
	}`, string(data))
}
