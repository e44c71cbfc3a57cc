package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/example/chatroom-hub/domain/chatroom"
	"github.com/example/chatroom-hub/events"
)

// StoreModule persists messages and reactions via GORM + SQLite. It
// consumes the hub's broadcast events for durability and serves
// history/lookup queries over request-reply.
type StoreModule struct {
	db     *gorm.DB
	repo   *Repository
	dbPath string
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*StoreModule)(nil)
	_ mono.ServiceProviderModule = (*StoreModule)(nil)
	_ mono.EventConsumerModule   = (*StoreModule)(nil)
	_ mono.HealthCheckableModule = (*StoreModule)(nil)
)

// NewModule creates a new StoreModule backed by the given SQLite path.
func NewModule(dbPath string) *StoreModule {
	if dbPath == "" {
		dbPath = "chatroom.db"
	}
	return &StoreModule{dbPath: dbPath}
}

// Name returns the module name.
func (m *StoreModule) Name() string {
	return "store"
}

// Start opens the database and runs migrations.
func (m *StoreModule) Start(_ context.Context) error {
	log.Printf("[store] Connecting to SQLite database: %s", m.dbPath)

	logLevel := logger.Silent
	if os.Getenv("DB_DEBUG") == "true" {
		logLevel = logger.Info
	}

	db, err := gorm.Open(sqlite.Open(m.dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	m.db = db

	if err := m.db.AutoMigrate(&Message{}, &Reaction{}); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	m.repo = NewRepository(m.db)

	log.Println("[store] Module started")
	return nil
}

// Stop closes the database connection.
func (m *StoreModule) Stop(_ context.Context) error {
	if m.db == nil {
		return nil
	}

	sqlDB, err := m.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	log.Println("[store] Database connection closed")
	return nil
}

// Health pings the database.
func (m *StoreModule) Health(ctx context.Context) mono.HealthStatus {
	if m.db == nil {
		return mono.HealthStatus{Healthy: false, Message: "database not initialized"}
	}

	sqlDB, err := m.db.DB()
	if err != nil {
		return mono.HealthStatus{Healthy: false, Message: fmt.Sprintf("failed to get sql.DB: %v", err)}
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return mono.HealthStatus{Healthy: false, Message: fmt.Sprintf("database ping failed: %v", err)}
	}

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"driver": "sqlite",
			"path":   m.dbPath,
		},
	}
}

// RegisterServices registers history and lookup request-reply services.
func (m *StoreModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceHistory, json.Unmarshal, json.Marshal, m.handleHistory,
	); err != nil {
		return fmt.Errorf("failed to register history service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceGetMessage, json.Unmarshal, json.Marshal, m.handleGetMessage,
	); err != nil {
		return fmt.Errorf("failed to register get service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceAllReactions, json.Unmarshal, json.Marshal, m.handleAllReactions,
	); err != nil {
		return fmt.Errorf("failed to register reactions service: %w", err)
	}

	log.Printf("[store] Registered services: services.store.{%s,%s,%s}",
		ServiceHistory, ServiceGetMessage, ServiceAllReactions)
	return nil
}

// RegisterEventConsumers subscribes to the hub's durability events.
func (m *StoreModule) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(
		registry, events.MessageSentV1, m.handleMessageSent, m,
	); err != nil {
		return fmt.Errorf("failed to register MessageSent consumer: %w", err)
	}

	if err := helper.RegisterTypedEventConsumer(
		registry, events.MessageEditedV1, m.handleMessageEdited, m,
	); err != nil {
		return fmt.Errorf("failed to register MessageEdited consumer: %w", err)
	}

	if err := helper.RegisterTypedEventConsumer(
		registry, events.MessageDeletedV1, m.handleMessageDeleted, m,
	); err != nil {
		return fmt.Errorf("failed to register MessageDeleted consumer: %w", err)
	}

	if err := helper.RegisterTypedEventConsumer(
		registry, events.ReactionAddedV1, m.handleReactionAdded, m,
	); err != nil {
		return fmt.Errorf("failed to register ReactionAdded consumer: %w", err)
	}

	if err := helper.RegisterTypedEventConsumer(
		registry, events.ReactionRemovedV1, m.handleReactionRemoved, m,
	); err != nil {
		return fmt.Errorf("failed to register ReactionRemoved consumer: %w", err)
	}

	log.Println("[store] Registered event consumers: MessageSent, MessageEdited, MessageDeleted, ReactionAdded, ReactionRemoved")
	return nil
}

// Event handlers

func (m *StoreModule) handleMessageSent(_ context.Context, event events.MessageSentEvent, _ *mono.Msg) error {
	err := m.repo.InsertMessage(chatroom.Message{
		ID:        event.MessageID,
		Text:      event.Text,
		Username:  event.Username,
		CreatedAt: event.CreatedAt,
	})
	if err != nil {
		log.Printf("[store] Failed to persist message %s: %v", event.MessageID, err)
		return err
	}
	return nil
}

func (m *StoreModule) handleMessageEdited(_ context.Context, event events.MessageEditedEvent, _ *mono.Msg) error {
	err := m.repo.UpdateMessage(event.MessageID, event.Text, event.EditedAt)
	if errors.Is(err, chatroom.ErrMessageNotFound) {
		// Deleted is terminal; edits that lost the race are dropped.
		log.Printf("[store] Ignoring edit of unknown message %s", event.MessageID)
		return nil
	}
	return err
}

func (m *StoreModule) handleMessageDeleted(_ context.Context, event events.MessageDeletedEvent, _ *mono.Msg) error {
	err := m.repo.DeleteMessage(event.MessageID)
	if errors.Is(err, chatroom.ErrMessageNotFound) {
		log.Printf("[store] Ignoring delete of unknown message %s", event.MessageID)
		return nil
	}
	return err
}

func (m *StoreModule) handleReactionAdded(_ context.Context, event events.ReactionAddedEvent, _ *mono.Msg) error {
	return m.repo.AddReaction(event.MessageID, event.Emoji, event.Username, event.Timestamp)
}

func (m *StoreModule) handleReactionRemoved(_ context.Context, event events.ReactionRemovedEvent, _ *mono.Msg) error {
	return m.repo.RemoveReaction(event.MessageID, event.Emoji, event.Username)
}

// Request-reply handlers

func (m *StoreModule) handleHistory(_ context.Context, req HistoryRequest, _ *mono.Msg) (HistoryResponse, error) {
	messages, err := m.repo.History(req.Limit)
	if err != nil {
		return HistoryResponse{}, err
	}
	return HistoryResponse{Messages: messages}, nil
}

func (m *StoreModule) handleGetMessage(_ context.Context, req GetMessageRequest, _ *mono.Msg) (GetMessageResponse, error) {
	msg, err := m.repo.GetMessage(req.MessageID)
	if errors.Is(err, chatroom.ErrMessageNotFound) {
		return GetMessageResponse{Found: false}, nil
	}
	if err != nil {
		return GetMessageResponse{}, err
	}

	reactions, err := m.repo.ReactionsFor(req.MessageID)
	if err != nil {
		return GetMessageResponse{}, err
	}

	return GetMessageResponse{Found: true, Message: msg, Reactions: reactions}, nil
}

func (m *StoreModule) handleAllReactions(_ context.Context, _ AllReactionsRequest, _ *mono.Msg) (AllReactionsResponse, error) {
	records, err := m.repo.AllReactions()
	if err != nil {
		return AllReactionsResponse{}, err
	}

	out := make([]ReactionRecord, 0, len(records))
	for _, record := range records {
		out = append(out, ReactionRecord{
			MessageID: record.MessageID,
			Emoji:     record.Emoji,
			Username:  record.Username,
		})
	}
	return AllReactionsResponse{Reactions: out}, nil
}
