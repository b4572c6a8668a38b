package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ConversationID is a server-assigned conversation identifier. The backend
// may encode it as a JSON string or number; both decode to the same value.
type ConversationID string

// UnmarshalJSON accepts "c42", 42 and null.
func (id *ConversationID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ConversationID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("conversation id: %w", err)
	}
	*id = ConversationID(n.String())
	return nil
}

// String returns the id as a plain string.
func (id ConversationID) String() string { return string(id) }

// Conversation is the client's read-only projection of a saved conversation.
type Conversation struct {
	ID           ConversationID `json:"conversation_id"`
	StartedAt    Timestamp      `json:"started_at"`
	MessageCount int            `json:"message_count"`
}

// Timestamp decodes the several date layouts the backend has been seen to emit.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
	time.RFC1123,
	time.RFC1123Z,
}

// ParseTimestamp parses s with the first matching known layout.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		return time.UnixMilli(int64(secs * 1000)), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// UnmarshalJSON accepts a string in any known layout, a unix-seconds number, or null.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) || len(data) == 0 {
		t.Time = time.Time{}
		return nil
	}
	var raw string
	if data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		if raw == "" {
			t.Time = time.Time{}
			return nil
		}
	} else {
		raw = string(data)
	}
	parsed, err := ParseTimestamp(raw)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

// MarshalJSON emits RFC 3339.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Format(time.RFC3339))
}

// Label renders a list row title, e.g. "Jan 2 at 15:04".
func (c Conversation) Label() string {
	if c.StartedAt.IsZero() {
		return string(c.ID)
	}
	local := c.StartedAt.Local()
	return local.Format("Jan 2") + " at " + local.Format("15:04")
}

// CountLabel renders "N messages".
func (c Conversation) CountLabel() string {
	if c.MessageCount == 1 {
		return "1 message"
	}
	return fmt.Sprintf("%d messages", c.MessageCount)
}
