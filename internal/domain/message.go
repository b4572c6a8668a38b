package domain

import (
	"strings"
	"time"
)

// Sender identifies who authored a message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Message is one immutable transcript entry.
type Message struct {
	ID        string
	Text      string
	Sender    Sender
	Timestamp time.Time
}

// Lines splits the text for display: each line is trimmed and blank lines
// are dropped.
func (m Message) Lines() []string {
	var out []string
	for _, line := range strings.Split(m.Text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
