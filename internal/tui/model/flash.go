package model

import (
	"sync"
	"time"
)

// AuthErrorTTL is how long an auth form error stays visible.
const AuthErrorTTL = 5 * time.Second

// Flash holds a transient message, such as the auth form error.
type Flash struct {
	mu      sync.RWMutex
	message string
	expires time.Time
	now     func() time.Time
}

// Set stores a flash message that expires after the given duration.
func (f *Flash) Set(msg string, d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.message = msg
	f.expires = f.clock()().Add(d)
}

// Clear drops the message.
func (f *Flash) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.message = ""
}

// Get returns the current flash message, or empty if expired.
func (f *Flash) Get() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if !f.clock()().Before(f.expires) {
		return ""
	}
	return f.message
}

func (f *Flash) clock() func() time.Time {
	if f.now == nil {
		return time.Now
	}
	return f.now
}
