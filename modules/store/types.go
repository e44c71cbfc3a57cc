package store

import "github.com/example/chatroom-hub/domain/chatroom"

// Request-reply service names registered by this module. The framework
// scopes them under "services.store.".
const (
	ServiceHistory      = "history"
	ServiceGetMessage   = "get"
	ServiceAllReactions = "reactions"
)

// HistoryRequest asks for the most recent messages, oldest first.
type HistoryRequest struct {
	Limit int `json:"limit"`
}

// HistoryResponse carries the requested messages.
type HistoryResponse struct {
	Messages []chatroom.Message `json:"messages"`
}

// GetMessageRequest asks for one message by id.
type GetMessageRequest struct {
	MessageID string `json:"message_id"`
}

// GetMessageResponse carries the message and its persisted reactions.
// Found is false for unknown (or deleted) ids.
type GetMessageResponse struct {
	Found     bool                   `json:"found"`
	Message   *chatroom.Message      `json:"message,omitempty"`
	Reactions chatroom.ReactionsView `json:"reactions,omitempty"`
}

// ReactionRecord is one persisted reaction.
type ReactionRecord struct {
	MessageID string `json:"message_id"`
	Emoji     string `json:"emoji"`
	Username  string `json:"username"`
}

// AllReactionsRequest asks for every persisted reaction. Served to the
// hub so its live reaction table survives restarts.
type AllReactionsRequest struct{}

// AllReactionsResponse carries the persisted reactions.
type AllReactionsResponse struct {
	Reactions []ReactionRecord `json:"reactions"`
}
