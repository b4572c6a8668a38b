package ui

import (
	"fmt"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// FlashLevel represents the severity of a flash message.
type FlashLevel int

const (
	FlashInfo FlashLevel = iota
	FlashWarn
	FlashErr
)

// Default lifetimes per level.
const (
	InfoDuration = 5 * time.Second
	WarnDuration = 8 * time.Second
	ErrDuration  = 10 * time.Second
)

// FlashMessage is a flash notification with a level and expiry.
type FlashMessage struct {
	Text    string
	Level   FlashLevel
	Expires time.Time
}

// FlashModel holds the current status-bar notification. It is safe for
// use from network goroutines; the bar reads it on every redraw.
type FlashModel struct {
	mu      sync.RWMutex
	current FlashMessage
	now     func() time.Time
}

// NewFlashModel creates a new flash model.
func NewFlashModel() *FlashModel {
	return &FlashModel{now: time.Now}
}

// Info sets an info-level flash message.
func (f *FlashModel) Info(msg string) {
	f.Set(msg, FlashInfo, InfoDuration)
}

// Warn sets a warn-level flash message.
func (f *FlashModel) Warn(msg string) {
	f.Set(msg, FlashWarn, WarnDuration)
}

// Err sets an error-level flash message.
func (f *FlashModel) Err(msg string) {
	f.Set(msg, FlashErr, ErrDuration)
}

// Set stores msg at level for d.
func (f *FlashModel) Set(msg string, level FlashLevel, d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = FlashMessage{
		Text:    msg,
		Level:   level,
		Expires: f.now().Add(d),
	}
}

// Clear drops the current message.
func (f *FlashModel) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = FlashMessage{}
}

// Get returns the current flash message, or nil if expired.
func (f *FlashModel) Get() *FlashMessage {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.current.Text == "" || !f.now().Before(f.current.Expires) {
		return nil
	}
	m := f.current
	return &m
}

// FlashBar is the UI component that displays flash notifications.
type FlashBar struct {
	*tview.TextView
	theme *Theme
}

// NewFlashBar creates a new flash notification bar.
func NewFlashBar(theme *Theme) *FlashBar {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(theme.BgColor)

	return &FlashBar{
		TextView: tv,
		theme:    theme,
	}
}

// Restyle re-reads the theme colors.
func (fb *FlashBar) Restyle() {
	fb.SetBackgroundColor(fb.theme.BgColor)
}

// Update renders a flash message on the bar.
func (fb *FlashBar) Update(msg *FlashMessage) {
	fb.Clear()
	if msg == nil {
		return
	}
	_, _ = fmt.Fprintf(fb, " [%s]%s[-]", ColorName(fb.LevelColor(msg.Level)), tview.Escape(msg.Text))
}

// LevelColor maps a level to its palette color.
func (fb *FlashBar) LevelColor(level FlashLevel) tcell.Color {
	switch level {
	case FlashWarn:
		return fb.theme.FlashWarnColor
	case FlashErr:
		return fb.theme.FlashErrColor
	default:
		return fb.theme.FlashInfoColor
	}
}
