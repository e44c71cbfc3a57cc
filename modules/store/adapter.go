package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"

	"github.com/example/chatroom-hub/domain/chatroom"
)

// StorePort is the interface other modules use to query the store.
type StorePort interface {
	History(ctx context.Context, limit int) ([]chatroom.Message, error)
	GetMessage(ctx context.Context, messageID string) (*chatroom.Message, chatroom.ReactionsView, error)
}

// StoreAdapter implements StorePort using the service container.
type StoreAdapter struct {
	container mono.ServiceContainer
}

// NewStoreAdapter creates a new StoreAdapter.
func NewStoreAdapter(container mono.ServiceContainer) *StoreAdapter {
	return &StoreAdapter{container: container}
}

// History fetches the most recent messages, oldest first.
func (a *StoreAdapter) History(ctx context.Context, limit int) ([]chatroom.Message, error) {
	req := HistoryRequest{Limit: limit}
	var resp HistoryResponse

	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceHistory,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("history request failed: %w", err)
	}

	return resp.Messages, nil
}

// GetMessage fetches one message and its reactions. Unknown ids yield
// chatroom.ErrMessageNotFound.
func (a *StoreAdapter) GetMessage(ctx context.Context, messageID string) (*chatroom.Message, chatroom.ReactionsView, error) {
	req := GetMessageRequest{MessageID: messageID}
	var resp GetMessageResponse

	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceGetMessage,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, nil, fmt.Errorf("get request failed: %w", err)
	}

	if !resp.Found {
		return nil, nil, chatroom.ErrMessageNotFound
	}
	return resp.Message, resp.Reactions, nil
}

// AllReactions fetches every persisted reaction. The hub uses it to
// rehydrate its live reaction table on startup.
func (a *StoreAdapter) AllReactions(ctx context.Context) ([]ReactionRecord, error) {
	var resp AllReactionsResponse

	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceAllReactions,
		json.Marshal,
		json.Unmarshal,
		&AllReactionsRequest{},
		&resp,
	); err != nil {
		return nil, fmt.Errorf("reactions request failed: %w", err)
	}

	return resp.Reactions, nil
}
