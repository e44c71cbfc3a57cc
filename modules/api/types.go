package api

import (
	"encoding/json"

	"github.com/example/chatroom-hub/domain/chatroom"
)

// Client-to-server call types.
const (
	CallJoinRoom         = "joinRoom"
	CallSendMessage      = "sendMessage"
	CallSendTypingStatus = "sendTypingStatus"
	CallEditMessage      = "editMessage"
	CallDeleteMessage    = "deleteMessage"
	CallAddReaction      = "addReaction"
	CallRemoveReaction   = "removeReaction"
	CallGetReactions     = "getReactions"
	CallGetActiveUsers   = "getActiveUsers"
)

// WSMessage is the envelope for client-to-server calls. The payload is
// decoded per call type.
type WSMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// JoinRoomRequest is the payload of joinRoom.
type JoinRoomRequest struct {
	Username  string `json:"username"`
	SessionID string `json:"sessionId"`
}

// SendMessageRequest is the payload of sendMessage.
type SendMessageRequest struct {
	Text     string `json:"text"`
	Username string `json:"username"`
}

// SendTypingStatusRequest is the payload of sendTypingStatus.
type SendTypingStatusRequest struct {
	Username string `json:"username"`
	IsTyping bool   `json:"isTyping"`
}

// EditMessageRequest is the payload of editMessage.
type EditMessageRequest struct {
	MessageID string `json:"messageId"`
	Text      string `json:"text"`
	Username  string `json:"username"`
}

// DeleteMessageRequest is the payload of deleteMessage.
type DeleteMessageRequest struct {
	MessageID string `json:"messageId"`
	Username  string `json:"username"`
}

// ReactionRequest is the payload of addReaction and removeReaction.
type ReactionRequest struct {
	MessageID string `json:"messageId"`
	Emoji     string `json:"emoji"`
	Username  string `json:"username"`
}

// GetReactionsRequest is the payload of getReactions.
type GetReactionsRequest struct {
	MessageID string `json:"messageId"`
}

// CallError describes a failed call on the wire.
type CallError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// CallResult is the payload of the per-call result event sent back to
// the caller only.
type CallResult struct {
	Call  string     `json:"call"`
	OK    bool       `json:"ok"`
	Error *CallError `json:"error,omitempty"`
	Data  any        `json:"data,omitempty"`
}

// REST responses.

// MessagesResponse is the response of GET /api/v1/messages.
type MessagesResponse struct {
	Messages []chatroom.Message `json:"messages"`
}

// MessageDetailResponse is the response of GET /api/v1/messages/:id.
type MessageDetailResponse struct {
	Message   chatroom.Message       `json:"message"`
	Reactions chatroom.ReactionsView `json:"reactions"`
}

// ReactionsResponse is the response of GET /api/v1/messages/:id/reactions.
type ReactionsResponse struct {
	MessageID string                 `json:"messageId"`
	Reactions chatroom.ReactionsView `json:"reactions"`
}

// ActiveUsersResponse is the response of GET /api/v1/users/active.
type ActiveUsersResponse struct {
	Users []string `json:"users"`
}

// ErrorResponse is the REST error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// HealthResponse is the API health check response.
type HealthResponse struct {
	Status  string         `json:"status"`
	Details map[string]any `json:"details,omitempty"`
}
