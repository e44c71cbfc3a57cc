package store

import "time"

// Message is the persisted form of a chat message.
type Message struct {
	ID        string `gorm:"primaryKey;size:36"`
	Username  string `gorm:"size:32;index"`
	Text      string `gorm:"size:1000"`
	CreatedAt time.Time
	IsEdited  bool
	EditedAt  *time.Time
}

// Reaction is one user's emoji reaction to a message. The unique index
// over (message_id, emoji, username) makes inserts idempotent: a user
// can hold each emoji on a message at most once.
type Reaction struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	MessageID string `gorm:"size:36;uniqueIndex:idx_reaction_identity;index"`
	Emoji     string `gorm:"size:16;uniqueIndex:idx_reaction_identity"`
	Username  string `gorm:"size:32;uniqueIndex:idx_reaction_identity"`
	CreatedAt time.Time
}
