// Package model builds render-ready snapshots from the client state so the
// views stay pure functions of their input.
package model

import (
	"github.com/matheus3301/melo/internal/chat"
	"github.com/matheus3301/melo/internal/domain"
)

const (
	TitleNew  = "Start a new conversation"
	TitlePast = "Viewing past conversation"
)

// ChatState is everything the chat page renders.
type ChatState struct {
	Username       string
	ConversationID string
	Messages       []domain.Message
	LoadErr        error
	InFlight       bool
	Conversations  []domain.Conversation
	ListLoaded     bool
	PendingDelete  string
	Emotion        *domain.Emotion
	MaxChars       int
}

// Snapshot reads the session and list under their own locks. Fields may
// come from slightly different instants; the next event redraws.
func Snapshot(session *chat.Session, list *chat.ConversationList) ChatState {
	st := ChatState{
		ConversationID: session.CurrentConversationID(),
		Messages:       session.Transcript().Messages(),
		LoadErr:        session.Transcript().LoadError(),
		InFlight:       session.InFlight(),
		Emotion:        session.Emotion().Current(),
		MaxChars:       session.MaxMessageChars(),
	}
	if id := session.Identity(); id != nil {
		st.Username = id.Username
	}
	if list != nil {
		st.Conversations = list.Conversations()
		st.ListLoaded = list.Loaded()
		st.PendingDelete = list.Pending()
	}
	return st
}

// Title is the transcript subtitle.
func (s ChatState) Title() string {
	if s.ConversationID == "" {
		return TitleNew
	}
	return TitlePast
}

// Welcome returns the greeting shown in an empty new conversation, or ""
// when the transcript has content or a conversation is focused.
func (s ChatState) Welcome() string {
	if s.ConversationID != "" || len(s.Messages) > 0 || s.LoadErr != nil {
		return ""
	}
	name := s.Username
	if name == "" {
		name = "there"
	}
	return "Hello " + name + "! I'm Melo, your adaptive AI companion. " +
		"I learn from our conversations to better understand you. How are you feeling today?"
}

// EmptyList reports whether the "No conversations yet" placeholder applies.
func (s ChatState) EmptyList() bool {
	return s.ListLoaded && len(s.Conversations) == 0
}

// ActiveIndex returns the row of the focused conversation, or -1.
func (s ChatState) ActiveIndex() int {
	for i, c := range s.Conversations {
		if string(c.ID) == s.ConversationID {
			return i
		}
	}
	return -1
}
