package model

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/matheus3301/melo/internal/chat"
	"github.com/matheus3301/melo/internal/client"
	"github.com/matheus3301/melo/internal/domain"
)

type stubBackend struct {
	conversations []domain.Conversation
}

func (b *stubBackend) Chat(context.Context, client.ChatRequest) (*client.ChatResponse, error) {
	return &client.ChatResponse{Reply: "hi", ConversationID: "5", Emotion: "Hope", Confidence: 0.9}, nil
}

func (b *stubBackend) ListConversations(context.Context, string) ([]domain.Conversation, error) {
	return b.conversations, nil
}

func (b *stubBackend) GetMessages(context.Context, string) ([]domain.Message, error) {
	return nil, nil
}

func (b *stubBackend) DeleteConversation(context.Context, string) error { return nil }

func (b *stubBackend) Cleanup(context.Context, string, int) (int, error) { return 0, nil }

func (b *stubBackend) EndConversation(context.Context, string) error { return nil }

func TestTitleAndWelcome(t *testing.T) {
	st := ChatState{Username: "ana"}
	require.Equal(t, TitleNew, st.Title())
	require.True(t, strings.HasPrefix(st.Welcome(), "Hello ana! I'm Melo, your adaptive AI companion."))
	require.True(t, strings.HasSuffix(st.Welcome(), "How are you feeling today?"))

	st.Messages = []domain.Message{{Text: "hey", Sender: domain.SenderUser}}
	require.Empty(t, st.Welcome(), "welcome hides once the transcript has content")

	st = ChatState{Username: "ana", ConversationID: "3"}
	require.Equal(t, TitlePast, st.Title())
	require.Empty(t, st.Welcome())

	st = ChatState{LoadErr: errors.New("boom")}
	require.Empty(t, st.Welcome())
}

func TestEmptyListAndActiveIndex(t *testing.T) {
	st := ChatState{}
	require.False(t, st.EmptyList(), "placeholder waits for the first load")

	st.ListLoaded = true
	require.True(t, st.EmptyList())

	st.Conversations = []domain.Conversation{{ID: "9"}, {ID: "4"}}
	st.ConversationID = "4"
	require.False(t, st.EmptyList())
	require.Equal(t, 1, st.ActiveIndex())

	st.ConversationID = ""
	require.Equal(t, -1, st.ActiveIndex())
}

func TestSnapshot(t *testing.T) {
	backend := &stubBackend{conversations: []domain.Conversation{{ID: "5", MessageCount: 2}}}
	session := chat.NewSession(backend, nil, nil, chat.Options{MaxMessageChars: 200})
	list := chat.NewConversationList(backend, session, nil, nil, nil)
	session.SetRefresher(list)
	session.SetIdentity(&domain.Identity{UserID: "1", Username: "ana"})

	require.NoError(t, session.Submit(context.Background(), "hello"))
	session.Wait()

	st := Snapshot(session, list)
	require.Equal(t, "ana", st.Username)
	require.Equal(t, "5", st.ConversationID)
	require.Len(t, st.Messages, 2)
	require.False(t, st.InFlight)
	require.True(t, st.ListLoaded)
	require.Len(t, st.Conversations, 1)
	require.NotNil(t, st.Emotion)
	require.Equal(t, "Hope", st.Emotion.Label)
	require.Equal(t, 200, st.MaxChars)
	require.Equal(t, 0, st.ActiveIndex())
}

func TestFlashExpires(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	f := &Flash{now: func() time.Time { return now }}

	f.Set("Invalid username or password", AuthErrorTTL)
	require.Equal(t, "Invalid username or password", f.Get())

	now = now.Add(AuthErrorTTL)
	require.Empty(t, f.Get())

	f.Set("Passwords do not match", AuthErrorTTL)
	f.Clear()
	require.Empty(t, f.Get())
}
