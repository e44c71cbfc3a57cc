package events

import (
	"time"

	"github.com/go-monolith/mono/pkg/helper"
)

// MessageSentEvent is emitted when a message is broadcast to the room.
type MessageSentEvent struct {
	MessageID string    `json:"message_id"`
	Username  string    `json:"username"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// MessageEditedEvent is emitted when a message is edited by its author.
type MessageEditedEvent struct {
	MessageID string    `json:"message_id"`
	Username  string    `json:"username"`
	Text      string    `json:"text"`
	EditedAt  time.Time `json:"edited_at"`
}

// MessageDeletedEvent is emitted when a message is deleted by its author.
type MessageDeletedEvent struct {
	MessageID string `json:"message_id"`
	Username  string `json:"username"`
}

// ReactionAddedEvent is emitted when a reaction is added to a message.
type ReactionAddedEvent struct {
	MessageID string    `json:"message_id"`
	Emoji     string    `json:"emoji"`
	Username  string    `json:"username"`
	Timestamp time.Time `json:"timestamp"`
}

// ReactionRemovedEvent is emitted when a reaction is removed from a message.
type ReactionRemovedEvent struct {
	MessageID string `json:"message_id"`
	Emoji     string `json:"emoji"`
	Username  string `json:"username"`
}

// Event definitions for the chatroom domain. The hub module emits
// these; the store module consumes them for durability.
var (
	MessageSentV1 = helper.EventDefinition[MessageSentEvent](
		"hub",
		"MessageSent",
		"v1",
	)

	MessageEditedV1 = helper.EventDefinition[MessageEditedEvent](
		"hub",
		"MessageEdited",
		"v1",
	)

	MessageDeletedV1 = helper.EventDefinition[MessageDeletedEvent](
		"hub",
		"MessageDeleted",
		"v1",
	)

	ReactionAddedV1 = helper.EventDefinition[ReactionAddedEvent](
		"hub",
		"ReactionAdded",
		"v1",
	)

	ReactionRemovedV1 = helper.EventDefinition[ReactionRemovedEvent](
		"hub",
		"ReactionRemoved",
		"v1",
	)
)
