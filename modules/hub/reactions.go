package hub

import (
	"sort"
	"sync"

	"github.com/example/chatroom-hub/domain/chatroom"
)

// ReactionTable aggregates emoji reactions per message. A reaction is
// a presence-only fact keyed by (message, emoji, username): adding it
// twice or removing a missing one is a no-op.
type ReactionTable struct {
	mu       sync.RWMutex
	messages map[string]map[string]map[string]struct{} // messageID -> emoji -> usernames
}

// NewReactionTable creates an empty reaction table.
func NewReactionTable() *ReactionTable {
	return &ReactionTable{
		messages: make(map[string]map[string]map[string]struct{}),
	}
}

// Add records a reaction and returns the full view for the message.
// The emoji must already be whitelist-checked by the caller.
func (t *ReactionTable) Add(messageID, emoji, username string) chatroom.ReactionsView {
	t.mu.Lock()
	defer t.mu.Unlock()

	byEmoji, ok := t.messages[messageID]
	if !ok {
		byEmoji = make(map[string]map[string]struct{})
		t.messages[messageID] = byEmoji
	}
	reactors, ok := byEmoji[emoji]
	if !ok {
		reactors = make(map[string]struct{})
		byEmoji[emoji] = reactors
	}
	reactors[username] = struct{}{}

	return t.viewLocked(messageID)
}

// Remove deletes a reaction and returns the full view for the message.
func (t *ReactionTable) Remove(messageID, emoji, username string) chatroom.ReactionsView {
	t.mu.Lock()
	defer t.mu.Unlock()

	if reactors, ok := t.messages[messageID][emoji]; ok {
		delete(reactors, username)
		if len(reactors) == 0 {
			delete(t.messages[messageID], emoji)
		}
		if len(t.messages[messageID]) == 0 {
			delete(t.messages, messageID)
		}
	}

	return t.viewLocked(messageID)
}

// View returns the full reaction view for a message. Unknown message
// ids yield an empty view.
func (t *ReactionTable) View(messageID string) chatroom.ReactionsView {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.viewLocked(messageID)
}

// DropMessage discards all reactions for a deleted message.
func (t *ReactionTable) DropMessage(messageID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.messages, messageID)
}

func (t *ReactionTable) viewLocked(messageID string) chatroom.ReactionsView {
	view := make(chatroom.ReactionsView)
	for emoji, reactors := range t.messages[messageID] {
		usernames := make([]string, 0, len(reactors))
		for username := range reactors {
			usernames = append(usernames, username)
		}
		sort.Strings(usernames)
		view[emoji] = chatroom.EmojiReactions{
			Count:     len(usernames),
			Usernames: usernames,
		}
	}
	return view
}
