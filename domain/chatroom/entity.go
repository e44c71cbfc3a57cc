package chatroom

import "time"

// Message is a chat message as observed through broadcast events.
// The hub does not own message storage; the store module does.
type Message struct {
	ID        string     `json:"id"`
	Text      string     `json:"text"`
	Username  string     `json:"username"`
	CreatedAt time.Time  `json:"createdAt"`
	IsEdited  bool       `json:"isEdited"`
	EditedAt  *time.Time `json:"editedAt,omitempty"`
}

// EmojiReactions is the aggregate view of a single emoji on a message.
type EmojiReactions struct {
	Count     int      `json:"count"`
	Usernames []string `json:"usernames"`
}

// ReactionsView maps emoji to its aggregate for one message.
type ReactionsView map[string]EmojiReactions

// Server-to-client event payloads. Field names follow the wire
// contract consumed by the web client (camelCase).

// UserPresence is the payload of userJoined and userLeft events.
type UserPresence struct {
	Username string `json:"username"`
}

// TypingStatus is the payload of typingStatus events.
type TypingStatus struct {
	Username string `json:"username"`
	IsTyping bool   `json:"isTyping"`
}

// MessageEdited is the payload of messageEdited events.
type MessageEdited struct {
	MessageID string    `json:"messageId"`
	Text      string    `json:"text"`
	EditedAt  time.Time `json:"editedAt"`
}

// MessageDeleted is the payload of messageDeleted events.
type MessageDeleted struct {
	MessageID string `json:"messageId"`
}

// MessageReactions is the payload of messageReactions events. It is a
// full per-message snapshot, not a delta, so a client that missed an
// update self-heals on the next one.
type MessageReactions struct {
	MessageID string        `json:"messageId"`
	Reactions ReactionsView `json:"reactions"`
}

// ActiveUsers is the payload of activeUsers events: the full distinct
// list of usernames with at least one live connection.
type ActiveUsers struct {
	Users []string `json:"users"`
}

// Disconnected is the payload of disconnected events.
type Disconnected struct {
	Reason string `json:"reason"`
}

// Disconnect reasons.
const (
	DisconnectReasonReplaced = "replaced"
	DisconnectReasonTimeout  = "timeout"
)
