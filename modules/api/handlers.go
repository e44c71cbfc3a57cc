package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strconv"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/chatroom-hub/domain/chatroom"
	"github.com/example/chatroom-hub/modules/hub"
)

const defaultHistoryLimit = 50

// setupRoutes configures all HTTP routes.
func (m *APIModule) setupRoutes() {
	// Health check
	m.app.Get("/health", m.healthHandler)

	// WebSocket endpoint
	m.app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	m.app.Get("/ws", websocket.New(m.handleWebSocket))

	// REST API v1
	api := m.app.Group("/api/v1")

	api.Get("/messages", m.getMessages)
	api.Get("/messages/:id", m.getMessage)
	api.Get("/messages/:id/reactions", m.getMessageReactions)
	api.Get("/users/active", m.getActiveUsers)
}

// healthHandler handles GET /health.
func (m *APIModule) healthHandler(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status: "healthy",
		Details: map[string]any{
			"module":       "api",
			"connections":  m.hub.Registry().Len(),
			"active_users": len(m.hub.ActiveUsers()),
		},
	})
}

// getMessages handles GET /api/v1/messages.
func (m *APIModule) getMessages(c *fiber.Ctx) error {
	limit := defaultHistoryLimit
	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 1000 {
			limit = parsed
		}
	}

	messages, err := m.store.History(c.UserContext(), limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "history_failed",
			Message: "Failed to load message history",
		})
	}

	return c.JSON(MessagesResponse{Messages: messages})
}

// getMessage handles GET /api/v1/messages/:id.
func (m *APIModule) getMessage(c *fiber.Ctx) error {
	msg, reactions, err := m.store.GetMessage(c.UserContext(), c.Params("id"))
	if errors.Is(err, chatroom.ErrMessageNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Error:   "not_found",
			Message: "Message not found",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "lookup_failed",
			Message: "Failed to load message",
		})
	}

	return c.JSON(MessageDetailResponse{Message: *msg, Reactions: reactions})
}

// getMessageReactions handles GET /api/v1/messages/:id/reactions.
func (m *APIModule) getMessageReactions(c *fiber.Ctx) error {
	messageID := c.Params("id")

	_, reactions, err := m.store.GetMessage(c.UserContext(), messageID)
	if errors.Is(err, chatroom.ErrMessageNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Error:   "not_found",
			Message: "Message not found",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "lookup_failed",
			Message: "Failed to load reactions",
		})
	}

	return c.JSON(ReactionsResponse{MessageID: messageID, Reactions: reactions})
}

// getActiveUsers handles GET /api/v1/users/active.
func (m *APIModule) getActiveUsers(c *fiber.Ctx) error {
	return c.JSON(ActiveUsersResponse{Users: m.hub.ActiveUsers()})
}

// handleWebSocket runs the per-connection loop at /ws.
func (m *APIModule) handleWebSocket(c *websocket.Conn) {
	connID := uuid.New().String()
	sender := newWSSender(c)

	defer func() {
		m.hub.Disconnect(connID)
		log.Printf("[api] WebSocket connection closed: %s", connID)
	}()

	log.Printf("[api] WebSocket connection opened: %s", connID)

	for {
		_, msgBytes, err := c.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[api] Connection %s closed by peer", connID)
			} else {
				log.Printf("[api] Read error on %s: %v", connID, err)
			}
			return
		}

		var msg WSMessage
		if err := json.Unmarshal(msgBytes, &msg); err != nil {
			m.sendResultErr(sender, "", chatroom.NewValidationError("invalid message envelope"))
			continue
		}

		m.hub.Touch(connID)

		switch msg.Type {
		case CallJoinRoom:
			m.handleJoinRoom(connID, sender, msg.Payload)
		case CallSendMessage:
			m.handleSendMessage(connID, sender, msg.Payload)
		case CallSendTypingStatus:
			m.handleSendTypingStatus(connID, sender, msg.Payload)
		case CallEditMessage:
			m.handleEditMessage(connID, sender, msg.Payload)
		case CallDeleteMessage:
			m.handleDeleteMessage(connID, sender, msg.Payload)
		case CallAddReaction:
			m.handleAddReaction(connID, sender, msg.Payload)
		case CallRemoveReaction:
			m.handleRemoveReaction(connID, sender, msg.Payload)
		case CallGetReactions:
			m.handleGetReactions(sender, msg.Payload)
		case CallGetActiveUsers:
			m.sendResultOK(sender, CallGetActiveUsers, chatroom.ActiveUsers{Users: m.hub.ActiveUsers()})
		default:
			m.sendResultErr(sender, msg.Type, chatroom.NewValidationError("unknown call type: "+msg.Type))
		}
	}
}

func (m *APIModule) handleJoinRoom(connID string, sender *wsSender, payload json.RawMessage) {
	var req JoinRoomRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		m.sendResultErr(sender, CallJoinRoom, chatroom.NewValidationError("invalid joinRoom payload"))
		return
	}

	if err := m.hub.JoinRoom(connID, req.SessionID, req.Username, sender); err != nil {
		m.sendResultErr(sender, CallJoinRoom, err)
		return
	}

	m.sendResultOK(sender, CallJoinRoom, nil)

	// Bring the joiner up to date. Broadcasts only fire on presence
	// changes, so a second tab would otherwise see nothing.
	m.sendSnapshot(sender)
}

// sendSnapshot pushes the active user list and recent history to one
// connection.
func (m *APIModule) sendSnapshot(sender *wsSender) {
	_ = sender.Send(hub.Event{
		Type:    hub.EventActiveUsers,
		Payload: chatroom.ActiveUsers{Users: m.hub.ActiveUsers()},
	})

	messages, err := m.store.History(context.Background(), defaultHistoryLimit)
	if err != nil {
		log.Printf("[api] Failed to load history snapshot: %v", err)
		return
	}
	for _, msg := range messages {
		_ = sender.Send(hub.Event{Type: hub.EventMessage, Payload: msg})
	}
}

func (m *APIModule) handleSendMessage(connID string, sender *wsSender, payload json.RawMessage) {
	var req SendMessageRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		m.sendResultErr(sender, CallSendMessage, chatroom.NewValidationError("invalid sendMessage payload"))
		return
	}

	msg, err := m.hub.SendMessage(connID, req.Username, req.Text)
	if err != nil {
		m.sendResultErr(sender, CallSendMessage, err)
		return
	}
	m.sendResultOK(sender, CallSendMessage, msg)
}

func (m *APIModule) handleSendTypingStatus(connID string, sender *wsSender, payload json.RawMessage) {
	var req SendTypingStatusRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		m.sendResultErr(sender, CallSendTypingStatus, chatroom.NewValidationError("invalid sendTypingStatus payload"))
		return
	}

	// Best-effort, no result envelope.
	m.hub.SendTypingStatus(connID, req.Username, req.IsTyping)
}

func (m *APIModule) handleEditMessage(connID string, sender *wsSender, payload json.RawMessage) {
	var req EditMessageRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		m.sendResultErr(sender, CallEditMessage, chatroom.NewValidationError("invalid editMessage payload"))
		return
	}

	if err := m.authorizeMessageOwner(req.MessageID, req.Username); err != nil {
		m.sendResultErr(sender, CallEditMessage, err)
		return
	}

	if err := m.hub.EditMessage(connID, req.MessageID, req.Text, req.Username); err != nil {
		m.sendResultErr(sender, CallEditMessage, err)
		return
	}
	m.sendResultOK(sender, CallEditMessage, nil)
}

func (m *APIModule) handleDeleteMessage(connID string, sender *wsSender, payload json.RawMessage) {
	var req DeleteMessageRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		m.sendResultErr(sender, CallDeleteMessage, chatroom.NewValidationError("invalid deleteMessage payload"))
		return
	}

	if err := m.authorizeMessageOwner(req.MessageID, req.Username); err != nil {
		m.sendResultErr(sender, CallDeleteMessage, err)
		return
	}

	if err := m.hub.DeleteMessage(connID, req.MessageID, req.Username); err != nil {
		m.sendResultErr(sender, CallDeleteMessage, err)
		return
	}
	m.sendResultOK(sender, CallDeleteMessage, nil)
}

// authorizeMessageOwner checks the message exists and belongs to the
// claimed username. Deleted messages resolve to not-found, which keeps
// deletion terminal.
func (m *APIModule) authorizeMessageOwner(messageID, username string) error {
	msg, _, err := m.store.GetMessage(context.Background(), messageID)
	if errors.Is(err, chatroom.ErrMessageNotFound) {
		return chatroom.NewNotFoundError("message not found")
	}
	if err != nil {
		return err
	}
	if msg.Username != username {
		return chatroom.NewUnauthorizedError("message belongs to another user")
	}
	return nil
}

func (m *APIModule) handleAddReaction(connID string, sender *wsSender, payload json.RawMessage) {
	var req ReactionRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		m.sendResultErr(sender, CallAddReaction, chatroom.NewValidationError("invalid addReaction payload"))
		return
	}

	view, err := m.hub.AddReaction(connID, req.MessageID, req.Emoji, req.Username)
	if err != nil {
		m.sendResultErr(sender, CallAddReaction, err)
		return
	}
	m.sendResultOK(sender, CallAddReaction, chatroom.MessageReactions{MessageID: req.MessageID, Reactions: view})
}

func (m *APIModule) handleRemoveReaction(connID string, sender *wsSender, payload json.RawMessage) {
	var req ReactionRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		m.sendResultErr(sender, CallRemoveReaction, chatroom.NewValidationError("invalid removeReaction payload"))
		return
	}

	view, err := m.hub.RemoveReaction(connID, req.MessageID, req.Emoji, req.Username)
	if err != nil {
		m.sendResultErr(sender, CallRemoveReaction, err)
		return
	}
	m.sendResultOK(sender, CallRemoveReaction, chatroom.MessageReactions{MessageID: req.MessageID, Reactions: view})
}

func (m *APIModule) handleGetReactions(sender *wsSender, payload json.RawMessage) {
	var req GetReactionsRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		m.sendResultErr(sender, CallGetReactions, chatroom.NewValidationError("invalid getReactions payload"))
		return
	}

	view, err := m.hub.GetReactions(req.MessageID)
	if err != nil {
		m.sendResultErr(sender, CallGetReactions, err)
		return
	}
	m.sendResultOK(sender, CallGetReactions, chatroom.MessageReactions{MessageID: req.MessageID, Reactions: view})
}

func (m *APIModule) sendResultOK(sender *wsSender, call string, data any) {
	_ = sender.Send(hub.Event{Type: "result", Payload: CallResult{Call: call, OK: true, Data: data}})
}

func (m *APIModule) sendResultErr(sender *wsSender, call string, err error) {
	kind := chatroom.KindOf(err)
	if kind == "" {
		kind = "internal"
	}
	_ = sender.Send(hub.Event{Type: "result", Payload: CallResult{
		Call:  call,
		OK:    false,
		Error: &CallError{Kind: string(kind), Message: err.Error()},
	}})
}
