package chat

import (
	"context"
	"sync"
	"time"

	"github.com/matheus3301/melo/internal/bus"
	"github.com/matheus3301/melo/internal/client"
	"github.com/matheus3301/melo/internal/domain"
)

type fakeBackend struct {
	mu sync.Mutex

	chatFn     func(ctx context.Context, req client.ChatRequest) (*client.ChatResponse, error)
	listFn     func(ctx context.Context, userID string) ([]domain.Conversation, error)
	history    map[string][]domain.Message
	historyErr error
	deleteErr  error
	cleanupN   int
	cleanupErr error
	endErr     error

	chatReqs     []client.ChatRequest
	listCalls    int
	deleted      []string
	cleanupUsers []string
	ended        chan string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		history: make(map[string][]domain.Message),
		ended:   make(chan string, 10),
		chatFn: func(ctx context.Context, req client.ChatRequest) (*client.ChatResponse, error) {
			return &client.ChatResponse{Reply: "echo: " + req.Message, ConversationID: "c1"}, nil
		},
		listFn: func(ctx context.Context, userID string) ([]domain.Conversation, error) {
			return []domain.Conversation{{ID: "c1", MessageCount: 2}}, nil
		},
	}
}

func (f *fakeBackend) Chat(ctx context.Context, req client.ChatRequest) (*client.ChatResponse, error) {
	f.mu.Lock()
	f.chatReqs = append(f.chatReqs, req)
	fn := f.chatFn
	f.mu.Unlock()
	return fn(ctx, req)
}

func (f *fakeBackend) ListConversations(ctx context.Context, userID string) ([]domain.Conversation, error) {
	f.mu.Lock()
	f.listCalls++
	fn := f.listFn
	f.mu.Unlock()
	return fn(ctx, userID)
}

func (f *fakeBackend) GetMessages(ctx context.Context, conversationID string) ([]domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	return f.history[conversationID], nil
}

func (f *fakeBackend) DeleteConversation(ctx context.Context, conversationID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, conversationID)
	return nil
}

func (f *fakeBackend) Cleanup(ctx context.Context, userID string, days int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleanupUsers = append(f.cleanupUsers, userID)
	return f.cleanupN, f.cleanupErr
}

func (f *fakeBackend) EndConversation(ctx context.Context, conversationID string) error {
	f.ended <- conversationID
	return f.endErr
}

func (f *fakeBackend) chatCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.chatReqs)
}

func (f *fakeBackend) listCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls
}

// manualClock fires timers only when Advance is called.
type manualClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*manualTimer
}

type manualTimer struct {
	clock   *manualClock
	at      time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{clock: c, at: c.now + d, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	wasActive := !t.stopped && !t.fired
	t.stopped = true
	return wasActive
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d
	var due []*manualTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && t.at <= c.now {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()
	for _, t := range due {
		t.f()
	}
}

var testIdentity = &domain.Identity{UserID: "7", Username: "ana"}

func newTestSession(backend Backend, opts Options) (*Session, *bus.Bus) {
	b := bus.New()
	s := NewSession(backend, b, nil, opts)
	s.SetIdentity(testIdentity)
	return s, b
}
