package chat

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/matheus3301/melo/internal/bus"
	"github.com/matheus3301/melo/internal/domain"
)

// ConversationList caches the signed-in user's saved conversations.
type ConversationList struct {
	mu      sync.Mutex
	items   []domain.Conversation
	loaded  bool
	issued  uint64
	applied uint64
	pending string

	backend   Backend
	session   *Session
	confirmer Confirmer
	timeout   time.Duration
	bus       *bus.Bus
	logger    *zap.Logger
}

// NewConversationList creates an empty list bound to session. A nil
// confirmer approves every delete.
func NewConversationList(backend Backend, session *Session, confirmer Confirmer, b *bus.Bus, logger *zap.Logger) *ConversationList {
	if logger == nil {
		logger = zap.NewNop()
	}
	if confirmer == nil {
		confirmer = AlwaysConfirm
	}
	return &ConversationList{
		backend:   backend,
		session:   session,
		confirmer: confirmer,
		timeout:   session.opts.RequestTimeout,
		bus:       b,
		logger:    logger,
	}
}

// Refresh replaces the cached list with the server's. When refreshes
// overlap, a response older than the last applied one is dropped and the
// cached list is returned instead.
func (l *ConversationList) Refresh(ctx context.Context) ([]domain.Conversation, error) {
	id := l.session.Identity()
	if id == nil {
		return nil, ErrNotAuthenticated
	}

	l.mu.Lock()
	l.issued++
	seq := l.issued
	l.mu.Unlock()

	reqCtx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()
	convs, err := l.backend.ListConversations(reqCtx, id.UserID)
	if err != nil {
		l.logger.Warn("refresh conversations failed", zap.Error(err))
		l.bus.Emit(bus.ConversationsFailed, err)
		return nil, err
	}

	l.mu.Lock()
	if seq <= l.applied {
		current := l.snapshotLocked()
		l.mu.Unlock()
		l.logger.Debug("stale conversation list dropped", zap.Uint64("seq", seq))
		return current, nil
	}
	l.applied = seq
	l.items = convs
	l.loaded = true
	snapshot := l.snapshotLocked()
	l.mu.Unlock()

	l.bus.Emit(bus.ConversationsUpdated, snapshot)
	return snapshot, nil
}

func (l *ConversationList) snapshotLocked() []domain.Conversation {
	out := make([]domain.Conversation, len(l.items))
	copy(out, l.items)
	return out
}

// Conversations returns the cached list.
func (l *ConversationList) Conversations() []domain.Conversation {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshotLocked()
}

// Loaded reports whether a refresh has succeeded since the last Clear.
// An empty, loaded list means the user has no conversations yet.
func (l *ConversationList) Loaded() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loaded
}

// Select resumes conversationID in the session.
func (l *ConversationList) Select(ctx context.Context, conversationID string) error {
	return l.session.LoadExisting(ctx, conversationID)
}

// RequestDelete marks conversationID as the pending delete target.
func (l *ConversationList) RequestDelete(conversationID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pending = conversationID
}

// Pending returns the pending delete target, "" when none.
func (l *ConversationList) Pending() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pending
}

// CancelDelete clears the pending delete target.
func (l *ConversationList) CancelDelete() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pending = ""
}

// Delete asks for confirmation and removes conversationID on the server.
// Deleting the active conversation also resets the session. The pending
// selection is cleared whatever the outcome.
func (l *ConversationList) Delete(ctx context.Context, conversationID string) error {
	l.RequestDelete(conversationID)
	defer l.CancelDelete()

	ok, err := l.confirmer.Confirm(ctx, "Delete this conversation? This cannot be undone.")
	if err != nil {
		return err
	}
	if !ok {
		return ErrCancelled
	}

	reqCtx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()
	if err := l.backend.DeleteConversation(reqCtx, conversationID); err != nil {
		l.logger.Warn("delete conversation failed",
			zap.String("conversation_id", conversationID),
			zap.Error(err),
		)
		return fmt.Errorf("delete conversation %s: %w", conversationID, err)
	}

	l.logger.Info("conversation deleted", zap.String("conversation_id", conversationID))
	l.bus.Emit(bus.ConversationDeleted, conversationID)
	l.session.ResetIfActive(conversationID)
	if _, err := l.Refresh(ctx); err != nil {
		l.logger.Warn("refresh after delete failed", zap.Error(err))
	}
	return nil
}

// Clear drops the cached list and any pending delete. Refreshes already
// running are ignored when they land.
func (l *ConversationList) Clear() {
	l.mu.Lock()
	l.items = nil
	l.loaded = false
	l.pending = ""
	l.applied = l.issued
	l.mu.Unlock()

	l.bus.Emit(bus.ConversationsUpdated, []domain.Conversation{})
}
