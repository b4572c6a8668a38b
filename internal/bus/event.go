package bus

import "time"

// Event represents a client state change published on the bus.
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}

// Event kinds. Subscribers filter by namespace prefix ("transcript.", ...).
const (
	TranscriptAppended = "transcript.appended"
	TranscriptReset    = "transcript.reset"
	TranscriptFailed   = "transcript.load_failed"

	SessionSendStarted  = "session.send_started"
	SessionSendFinished = "session.send_finished"
	SessionFocusChanged = "session.focus_changed"
	SessionEscalation   = "session.escalation"

	ConversationsUpdated = "conversations.updated"
	ConversationsFailed  = "conversations.refresh_failed"
	ConversationDeleted  = "conversations.deleted"

	EmotionShown  = "emotion.shown"
	EmotionHidden = "emotion.hidden"

	ScreenChanged = "screen.changed"

	ThemeChanged = "prefs.theme_changed"
)

// NewEvent stamps an event with the current time.
func NewEvent(kind string, payload any) Event {
	return Event{Kind: kind, Timestamp: time.Now(), Payload: payload}
}
