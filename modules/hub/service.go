package hub

import (
	"strings"
	"time"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/google/uuid"

	"github.com/example/chatroom-hub/domain/chatroom"
	"github.com/example/chatroom-hub/events"
)

// Service implements the chatroom client calls over the connection
// registry, reaction table and broadcaster. The transport layer hands
// it three primitives: JoinRoom (connect), Disconnect, and the
// per-method calls below.
type Service struct {
	registry    *Registry
	reactions   *ReactionTable
	broadcaster *Broadcaster
	bus         mono.EventBus
	logger      types.Logger
}

// NewService creates a hub service with empty state.
func NewService(logger types.Logger) *Service {
	registry := NewRegistry()
	return &Service{
		registry:    registry,
		reactions:   NewReactionTable(),
		broadcaster: NewBroadcaster(registry),
		logger:      logger,
	}
}

// SetEventBus wires the EventBus used to emit durability events. A nil
// bus disables emission (used by tests).
func (s *Service) SetEventBus(bus mono.EventBus) {
	s.bus = bus
}

// Registry exposes the connection registry (health checks, sweeper).
func (s *Service) Registry() *Registry {
	return s.registry
}

// JoinRoom validates the username and registers the connection. When
// the session already has a live connection it is displaced: notified
// with a disconnected event and closed. Join and active-user
// notifications fire only when the username's active state actually
// changed.
func (s *Service) JoinRoom(connID, sessionID, username string, sender Sender) error {
	if strings.TrimSpace(sessionID) == "" {
		return chatroom.NewValidationError("sessionId is required")
	}
	if err := chatroom.ValidateUsername(username); err != nil {
		return err
	}
	name := strings.TrimSpace(username)

	outcome, err := s.registry.Join(connID, sessionID, name, sender)
	if err != nil {
		return err
	}

	if displaced := outcome.Displaced; displaced != nil {
		s.logger.Info("Session replaced by newer connection",
			"sessionID", sessionID, "oldConnID", displaced.ID, "newConnID", connID)
		if displaced.Sender != nil {
			notice := Event{Type: EventDisconnected, Payload: chatroom.Disconnected{Reason: chatroom.DisconnectReasonReplaced}}
			if err := displaced.Sender.Send(notice); err != nil {
				s.logger.Debug("Displaced connection unreachable", "connID", displaced.ID, "error", err)
			}
			_ = displaced.Sender.Close()
		}
		if outcome.DisplacedLastSession {
			s.broadcaster.ToAll(Event{Type: EventUserLeft, Payload: chatroom.UserPresence{Username: displaced.Username}})
			s.broadcastActiveUsers()
		}
	}

	if outcome.FirstSession {
		s.broadcaster.ToAllExcept(connID, Event{Type: EventUserJoined, Payload: chatroom.UserPresence{Username: name}})
		s.broadcastActiveUsers()
	}

	s.logger.Info("Connection joined", "connID", connID, "sessionID", sessionID, "username", name)
	return nil
}

// Disconnect removes the connection. Safe to call twice; the leave
// notification fires only when the username's last session closed.
// Explicit disconnects and sweeper evictions both come through here.
func (s *Service) Disconnect(connID string) {
	outcome, ok := s.registry.Leave(connID)
	if !ok {
		return
	}

	if outcome.LastSession {
		s.broadcaster.ToAll(Event{Type: EventUserLeft, Payload: chatroom.UserPresence{Username: outcome.Username}})
		s.broadcastActiveUsers()
	}

	s.logger.Info("Connection left", "connID", connID, "username", outcome.Username, "lastSession", outcome.LastSession)
}

// Touch refreshes the connection's activity timestamp.
func (s *Service) Touch(connID string) {
	s.registry.Touch(connID)
}

// SendMessage broadcasts a new message to every connection, including
// the sender, which reconciles by id.
func (s *Service) SendMessage(connID, username, text string) (chatroom.Message, error) {
	if err := s.authorize(connID, username); err != nil {
		return chatroom.Message{}, err
	}
	if err := chatroom.ValidateMessageText(text); err != nil {
		return chatroom.Message{}, err
	}

	msg := chatroom.Message{
		ID:        uuid.New().String(),
		Text:      strings.TrimSpace(text),
		Username:  username,
		CreatedAt: time.Now().UTC(),
	}

	s.broadcaster.ToAll(Event{Type: EventMessage, Payload: msg})

	if s.bus != nil {
		err := events.MessageSentV1.Publish(s.bus, events.MessageSentEvent{
			MessageID: msg.ID,
			Username:  msg.Username,
			Text:      msg.Text,
			CreatedAt: msg.CreatedAt,
		}, nil)
		if err != nil {
			s.logger.Warn("Failed to publish MessageSent event", "messageID", msg.ID, "error", err)
		}
	}

	return msg, nil
}

// SendTypingStatus broadcasts a typing indicator to everyone except
// the sender. Best-effort: failures are logged, never surfaced.
func (s *Service) SendTypingStatus(connID, username string, isTyping bool) {
	if err := s.authorize(connID, username); err != nil {
		s.logger.Debug("Dropped typing status", "connID", connID, "error", err)
		return
	}

	s.broadcaster.ToAllExcept(connID, Event{
		Type:    EventTypingStatus,
		Payload: chatroom.TypingStatus{Username: username, IsTyping: isTyping},
	})
}

// EditMessage broadcasts an edit of the author's own message. The
// caller is responsible for checking the message exists and belongs to
// the claimed username against the store before invoking this.
func (s *Service) EditMessage(connID, messageID, text, username string) error {
	if err := s.authorize(connID, username); err != nil {
		return err
	}
	if strings.TrimSpace(messageID) == "" {
		return chatroom.NewValidationError("messageId is required")
	}
	if err := chatroom.ValidateMessageText(text); err != nil {
		return err
	}

	editedAt := time.Now().UTC()
	s.broadcaster.ToAll(Event{Type: EventMessageEdited, Payload: chatroom.MessageEdited{
		MessageID: messageID,
		Text:      strings.TrimSpace(text),
		EditedAt:  editedAt,
	}})

	if s.bus != nil {
		err := events.MessageEditedV1.Publish(s.bus, events.MessageEditedEvent{
			MessageID: messageID,
			Username:  username,
			Text:      strings.TrimSpace(text),
			EditedAt:  editedAt,
		}, nil)
		if err != nil {
			s.logger.Warn("Failed to publish MessageEdited event", "messageID", messageID, "error", err)
		}
	}

	return nil
}

// DeleteMessage broadcasts the deletion of the author's own message
// and discards its reactions. Same store-side precondition as
// EditMessage.
func (s *Service) DeleteMessage(connID, messageID, username string) error {
	if err := s.authorize(connID, username); err != nil {
		return err
	}
	if strings.TrimSpace(messageID) == "" {
		return chatroom.NewValidationError("messageId is required")
	}

	s.reactions.DropMessage(messageID)
	s.broadcaster.ToAll(Event{Type: EventMessageDeleted, Payload: chatroom.MessageDeleted{MessageID: messageID}})

	if s.bus != nil {
		err := events.MessageDeletedV1.Publish(s.bus, events.MessageDeletedEvent{
			MessageID: messageID,
			Username:  username,
		}, nil)
		if err != nil {
			s.logger.Warn("Failed to publish MessageDeleted event", "messageID", messageID, "error", err)
		}
	}

	return nil
}

// AddReaction records a reaction (idempotently) and broadcasts the
// message's full reaction snapshot.
func (s *Service) AddReaction(connID, messageID, emoji, username string) (chatroom.ReactionsView, error) {
	if err := s.authorize(connID, username); err != nil {
		return nil, err
	}
	if strings.TrimSpace(messageID) == "" {
		return nil, chatroom.NewValidationError("messageId is required")
	}
	if err := chatroom.ValidateEmoji(emoji); err != nil {
		return nil, err
	}

	view := s.reactions.Add(messageID, emoji, username)
	s.broadcastReactions(messageID, view)

	if s.bus != nil {
		err := events.ReactionAddedV1.Publish(s.bus, events.ReactionAddedEvent{
			MessageID: messageID,
			Emoji:     emoji,
			Username:  username,
			Timestamp: time.Now().UTC(),
		}, nil)
		if err != nil {
			s.logger.Warn("Failed to publish ReactionAdded event", "messageID", messageID, "error", err)
		}
	}

	return view, nil
}

// RemoveReaction removes a reaction (idempotently) and broadcasts the
// message's full reaction snapshot.
func (s *Service) RemoveReaction(connID, messageID, emoji, username string) (chatroom.ReactionsView, error) {
	if err := s.authorize(connID, username); err != nil {
		return nil, err
	}
	if strings.TrimSpace(messageID) == "" {
		return nil, chatroom.NewValidationError("messageId is required")
	}
	if err := chatroom.ValidateEmoji(emoji); err != nil {
		return nil, err
	}

	view := s.reactions.Remove(messageID, emoji, username)
	s.broadcastReactions(messageID, view)

	if s.bus != nil {
		err := events.ReactionRemovedV1.Publish(s.bus, events.ReactionRemovedEvent{
			MessageID: messageID,
			Emoji:     emoji,
			Username:  username,
		}, nil)
		if err != nil {
			s.logger.Warn("Failed to publish ReactionRemoved event", "messageID", messageID, "error", err)
		}
	}

	return view, nil
}

// SeedReaction restores one persisted reaction into the live table
// without broadcasting or emitting events. Startup rehydration only;
// records that fail the whitelist are skipped rather than trusted.
func (s *Service) SeedReaction(messageID, emoji, username string) {
	if strings.TrimSpace(messageID) == "" || chatroom.ValidateEmoji(emoji) != nil {
		return
	}
	s.reactions.Add(messageID, emoji, username)
}

// GetReactions returns the live reaction view for a message.
func (s *Service) GetReactions(messageID string) (chatroom.ReactionsView, error) {
	if strings.TrimSpace(messageID) == "" {
		return nil, chatroom.NewValidationError("messageId is required")
	}
	return s.reactions.View(messageID), nil
}

// ActiveUsers returns the sorted distinct active usernames.
func (s *Service) ActiveUsers() []string {
	return s.registry.ActiveUsernames()
}

// authorize honours a call only when the calling connection's
// registered username equals the claimed one.
func (s *Service) authorize(connID, claimed string) error {
	registered, ok := s.registry.Username(connID)
	if !ok {
		return chatroom.NewUnauthorizedError("connection has not joined the room")
	}
	if registered != claimed {
		s.logger.Warn("Rejected call for mismatched username",
			"connID", connID, "registered", registered, "claimed", claimed)
		return chatroom.NewUnauthorizedError("username does not match connection identity")
	}
	return nil
}

func (s *Service) broadcastActiveUsers() {
	s.broadcaster.ToAll(Event{
		Type:    EventActiveUsers,
		Payload: chatroom.ActiveUsers{Users: s.registry.ActiveUsernames()},
	})
}

func (s *Service) broadcastReactions(messageID string, view chatroom.ReactionsView) {
	s.broadcaster.ToAll(Event{
		Type:    EventMessageReactions,
		Payload: chatroom.MessageReactions{MessageID: messageID, Reactions: view},
	})
}
