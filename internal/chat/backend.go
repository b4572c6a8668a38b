package chat

import (
	"context"

	"github.com/matheus3301/melo/internal/client"
	"github.com/matheus3301/melo/internal/domain"
)

// Backend is the slice of the REST client the chat components use.
type Backend interface {
	Chat(ctx context.Context, req client.ChatRequest) (*client.ChatResponse, error)
	ListConversations(ctx context.Context, userID string) ([]domain.Conversation, error)
	GetMessages(ctx context.Context, conversationID string) ([]domain.Message, error)
	DeleteConversation(ctx context.Context, conversationID string) error
	Cleanup(ctx context.Context, userID string, days int) (int, error)
	EndConversation(ctx context.Context, conversationID string) error
}

// Refresher reloads the conversation list.
type Refresher interface {
	Refresh(ctx context.Context) ([]domain.Conversation, error)
}

// Confirmer asks the user to approve a destructive action.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) (bool, error) {
	return f(ctx, prompt)
}

// AlwaysConfirm approves everything. Used when confirmations are disabled.
var AlwaysConfirm = ConfirmFunc(func(context.Context, string) (bool, error) { return true, nil })
