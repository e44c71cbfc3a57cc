package store

import (
	"errors"
	"sort"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/chatroom-hub/domain/chatroom"
)

// Repository wraps database access for messages and reactions.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a repository over the given database.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// InsertMessage stores a new message. Replaying the same id is a no-op.
func (r *Repository) InsertMessage(msg chatroom.Message) error {
	record := Message{
		ID:        msg.ID,
		Username:  msg.Username,
		Text:      msg.Text,
		CreatedAt: msg.CreatedAt,
		IsEdited:  msg.IsEdited,
		EditedAt:  msg.EditedAt,
	}
	return r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&record).Error
}

// UpdateMessage applies an edit. Unknown ids (including deleted
// messages, which stay deleted) yield ErrMessageNotFound.
func (r *Repository) UpdateMessage(messageID, text string, editedAt time.Time) error {
	result := r.db.Model(&Message{}).
		Where("id = ?", messageID).
		Updates(map[string]any{
			"text":      text,
			"is_edited": true,
			"edited_at": editedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return chatroom.ErrMessageNotFound
	}
	return nil
}

// DeleteMessage removes a message and its reactions. Deletion is
// terminal: once gone, edits and re-deletes resolve to not-found.
func (r *Repository) DeleteMessage(messageID string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("message_id = ?", messageID).Delete(&Reaction{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", messageID).Delete(&Message{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return chatroom.ErrMessageNotFound
		}
		return nil
	})
}

// GetMessage fetches one message by id.
func (r *Repository) GetMessage(messageID string) (*chatroom.Message, error) {
	var record Message
	if err := r.db.First(&record, "id = ?", messageID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, chatroom.ErrMessageNotFound
		}
		return nil, err
	}
	msg := toDomain(record)
	return &msg, nil
}

// History returns the most recent messages, oldest first.
func (r *Repository) History(limit int) ([]chatroom.Message, error) {
	if limit <= 0 {
		limit = 50
	}

	var records []Message
	if err := r.db.Order("created_at DESC").Limit(limit).Find(&records).Error; err != nil {
		return nil, err
	}

	messages := make([]chatroom.Message, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		messages = append(messages, toDomain(records[i]))
	}
	return messages, nil
}

// AddReaction records a reaction; duplicates hit the unique index and
// are dropped.
func (r *Repository) AddReaction(messageID, emoji, username string, at time.Time) error {
	record := Reaction{
		MessageID: messageID,
		Emoji:     emoji,
		Username:  username,
		CreatedAt: at,
	}
	return r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&record).Error
}

// RemoveReaction deletes a reaction. Removing a missing one is a no-op.
func (r *Repository) RemoveReaction(messageID, emoji, username string) error {
	return r.db.
		Where("message_id = ? AND emoji = ? AND username = ?", messageID, emoji, username).
		Delete(&Reaction{}).Error
}

// AllReactions returns every persisted reaction.
func (r *Repository) AllReactions() ([]Reaction, error) {
	var records []Reaction
	if err := r.db.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// ReactionsFor aggregates the persisted reactions of one message.
func (r *Repository) ReactionsFor(messageID string) (chatroom.ReactionsView, error) {
	var records []Reaction
	if err := r.db.Where("message_id = ?", messageID).Find(&records).Error; err != nil {
		return nil, err
	}

	grouped := make(map[string][]string)
	for _, record := range records {
		grouped[record.Emoji] = append(grouped[record.Emoji], record.Username)
	}

	view := make(chatroom.ReactionsView, len(grouped))
	for emoji, usernames := range grouped {
		sort.Strings(usernames)
		view[emoji] = chatroom.EmojiReactions{Count: len(usernames), Usernames: usernames}
	}
	return view, nil
}

func toDomain(record Message) chatroom.Message {
	return chatroom.Message{
		ID:        record.ID,
		Text:      record.Text,
		Username:  record.Username,
		CreatedAt: record.CreatedAt,
		IsEdited:  record.IsEdited,
		EditedAt:  record.EditedAt,
	}
}
