package chat

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/matheus3301/melo/internal/bus"
	"github.com/matheus3301/melo/internal/domain"
)

// Transcript is the append-only message log of the active conversation.
// A failed history load replaces the messages with an inline error.
type Transcript struct {
	mu       sync.RWMutex
	messages []domain.Message
	loadErr  error
	bus      *bus.Bus
}

// NewTranscript creates an empty transcript publishing on b.
func NewTranscript(b *bus.Bus) *Transcript {
	return &Transcript{bus: b}
}

// Append adds m at the end, filling in an ID and timestamp when missing.
func (t *Transcript) Append(m domain.Message) domain.Message {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now()
	}
	t.mu.Lock()
	t.messages = append(t.messages, m)
	t.mu.Unlock()

	t.bus.Emit(bus.TranscriptAppended, m)
	return m
}

// Reset empties the transcript and clears any load error.
func (t *Transcript) Reset() {
	t.mu.Lock()
	t.messages = nil
	t.loadErr = nil
	t.mu.Unlock()

	t.bus.Emit(bus.TranscriptReset, nil)
}

// Fail puts the transcript into the inline error state.
func (t *Transcript) Fail(err error) {
	t.mu.Lock()
	t.messages = nil
	t.loadErr = err
	t.mu.Unlock()

	t.bus.Emit(bus.TranscriptFailed, err)
}

// Messages returns a copy of the log in order.
func (t *Transcript) Messages() []domain.Message {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]domain.Message, len(t.messages))
	copy(out, t.messages)
	return out
}

// Len returns the number of messages.
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.messages)
}

// LoadError returns the error of the last failed history load, or nil.
func (t *Transcript) LoadError() error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.loadErr
}
