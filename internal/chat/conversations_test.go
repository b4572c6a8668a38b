package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/matheus3301/melo/internal/bus"
	"github.com/matheus3301/melo/internal/domain"
)

func TestRefreshReplacesWholesale(t *testing.T) {
	backend := newFakeBackend()
	s, b := newTestSession(backend, Options{})
	events, unsub := b.Subscribe("conversations.", 4)
	defer unsub()
	list := NewConversationList(backend, s, nil, b, nil)

	require.False(t, list.Loaded())
	convs, err := list.Refresh(context.Background())
	require.NoError(t, err)
	require.Len(t, convs, 1)
	require.Equal(t, bus.ConversationsUpdated, (<-events).Kind)

	backend.listFn = func(ctx context.Context, userID string) ([]domain.Conversation, error) {
		return []domain.Conversation{}, nil
	}
	_, err = list.Refresh(context.Background())
	require.NoError(t, err)
	require.Empty(t, list.Conversations())
	require.True(t, list.Loaded(), "an empty list is still a loaded list")
}

func TestRefreshFailureKeepsCache(t *testing.T) {
	backend := newFakeBackend()
	s, b := newTestSession(backend, Options{})
	list := NewConversationList(backend, s, nil, b, nil)
	_, err := list.Refresh(context.Background())
	require.NoError(t, err)

	backend.listFn = func(ctx context.Context, userID string) ([]domain.Conversation, error) {
		return nil, domain.NewTransportError("backend unreachable", 0, nil)
	}
	events, unsub := b.Subscribe("conversations.", 4)
	defer unsub()

	_, err = list.Refresh(context.Background())
	require.True(t, domain.IsTransport(err))
	require.Len(t, list.Conversations(), 1)
	require.Equal(t, bus.ConversationsFailed, (<-events).Kind)
}

func TestRefreshRequiresIdentity(t *testing.T) {
	backend := newFakeBackend()
	s := NewSession(backend, nil, nil, Options{})
	list := NewConversationList(backend, s, nil, nil, nil)

	_, err := list.Refresh(context.Background())
	require.ErrorIs(t, err, ErrNotAuthenticated)
	require.Zero(t, backend.listCount())
}

func TestRefreshDropsStaleResponse(t *testing.T) {
	backend := newFakeBackend()
	s, _ := newTestSession(backend, Options{})
	list := NewConversationList(backend, s, nil, nil, nil)

	slowEntered := make(chan struct{})
	slowRelease := make(chan struct{})
	calls := 0
	backend.listFn = func(ctx context.Context, userID string) ([]domain.Conversation, error) {
		calls++
		if calls == 1 {
			close(slowEntered)
			<-slowRelease
			return []domain.Conversation{{ID: "old"}}, nil
		}
		return []domain.Conversation{{ID: "new"}}, nil
	}

	var stale []domain.Conversation
	var staleErr error
	done := make(chan struct{})
	go func() {
		stale, staleErr = list.Refresh(context.Background())
		close(done)
	}()
	<-slowEntered

	_, err := list.Refresh(context.Background())
	require.NoError(t, err)
	close(slowRelease)
	<-done

	convs := list.Conversations()
	require.Len(t, convs, 1)
	require.Equal(t, domain.ConversationID("new"), convs[0].ID)

	require.NoError(t, staleErr)
	require.Equal(t, convs, stale, "a dropped response returns the cached list")
}

func TestClearIgnoresInflightRefresh(t *testing.T) {
	backend := newFakeBackend()
	s, _ := newTestSession(backend, Options{})
	list := NewConversationList(backend, s, nil, nil, nil)

	entered := make(chan struct{})
	release := make(chan struct{})
	backend.listFn = func(ctx context.Context, userID string) ([]domain.Conversation, error) {
		close(entered)
		<-release
		return []domain.Conversation{{ID: "c1"}}, nil
	}
	done := make(chan struct{})
	go func() {
		_, _ = list.Refresh(context.Background())
		close(done)
	}()
	<-entered
	list.Clear()
	close(release)
	<-done

	require.Empty(t, list.Conversations())
	require.False(t, list.Loaded())
}

func TestDeleteActiveConversationResetsSession(t *testing.T) {
	backend := newFakeBackend()
	s, _ := newTestSession(backend, Options{})
	list := NewConversationList(backend, s, nil, nil, nil)
	require.NoError(t, s.Submit(context.Background(), "hi"))
	require.Equal(t, "c1", s.CurrentConversationID())

	backend.listFn = func(ctx context.Context, userID string) ([]domain.Conversation, error) {
		return []domain.Conversation{}, nil
	}
	require.NoError(t, list.Delete(context.Background(), "c1"))

	require.Equal(t, []string{"c1"}, backend.deleted)
	require.Empty(t, s.CurrentConversationID())
	require.Zero(t, s.Transcript().Len())
	require.Empty(t, list.Pending())
	require.True(t, list.Loaded())
	require.Empty(t, list.Conversations())
}

func TestDeleteOtherConversationKeepsSession(t *testing.T) {
	backend := newFakeBackend()
	s, _ := newTestSession(backend, Options{})
	list := NewConversationList(backend, s, nil, nil, nil)
	require.NoError(t, s.Submit(context.Background(), "hi"))

	require.NoError(t, list.Delete(context.Background(), "c9"))
	require.Equal(t, "c1", s.CurrentConversationID())
	require.Equal(t, 2, s.Transcript().Len())
}

func TestDeleteDeclined(t *testing.T) {
	backend := newFakeBackend()
	s, _ := newTestSession(backend, Options{})
	var prompted string
	var pendingDuringPrompt string
	var list *ConversationList
	confirm := ConfirmFunc(func(ctx context.Context, prompt string) (bool, error) {
		prompted = prompt
		pendingDuringPrompt = list.Pending()
		return false, nil
	})
	list = NewConversationList(backend, s, confirm, nil, nil)

	err := list.Delete(context.Background(), "c1")
	require.ErrorIs(t, err, ErrCancelled)
	require.NotEmpty(t, prompted)
	require.Equal(t, "c1", pendingDuringPrompt)
	require.Empty(t, list.Pending())
	require.Empty(t, backend.deleted)
}

func TestDeleteFailure(t *testing.T) {
	backend := newFakeBackend()
	s, _ := newTestSession(backend, Options{})
	list := NewConversationList(backend, s, nil, nil, nil)
	require.NoError(t, s.Submit(context.Background(), "hi"))
	_, _ = list.Refresh(context.Background())
	listCalls := backend.listCount()

	backend.deleteErr = domain.NewNotFoundError("Conversation not found")
	err := list.Delete(context.Background(), "c1")
	require.True(t, domain.IsNotFound(err))
	require.Equal(t, "c1", s.CurrentConversationID(), "failed delete changes nothing")
	require.Len(t, list.Conversations(), 1)
	require.Empty(t, list.Pending())
	require.Equal(t, listCalls, backend.listCount())
}

func TestDeleteConfirmError(t *testing.T) {
	backend := newFakeBackend()
	s, _ := newTestSession(backend, Options{})
	boom := errors.New("modal closed")
	list := NewConversationList(backend, s, ConfirmFunc(func(context.Context, string) (bool, error) {
		return false, boom
	}), nil, nil)

	require.ErrorIs(t, list.Delete(context.Background(), "c1"), boom)
	require.Empty(t, backend.deleted)
}

func TestPendingDeleteSelection(t *testing.T) {
	backend := newFakeBackend()
	s, _ := newTestSession(backend, Options{})
	list := NewConversationList(backend, s, nil, nil, nil)

	list.RequestDelete("c3")
	require.Equal(t, "c3", list.Pending())
	list.CancelDelete()
	require.Empty(t, list.Pending())
}

func TestSelectLoadsConversation(t *testing.T) {
	backend := newFakeBackend()
	backend.history["c2"] = []domain.Message{{Text: "old", Sender: domain.SenderUser}}
	s, _ := newTestSession(backend, Options{})
	list := NewConversationList(backend, s, nil, nil, nil)

	require.NoError(t, list.Select(context.Background(), "c2"))
	require.Equal(t, "c2", s.CurrentConversationID())
	require.Equal(t, 1, s.Transcript().Len())
}
