package ui

import (
	"fmt"

	"github.com/rivo/tview"
)

// SessionData holds the header fields of the chat screen.
type SessionData struct {
	Username      string
	Profile       string
	Backend       string
	Conversations int
	InFlight      bool
}

// SessionInfo displays who is signed in and where requests go.
type SessionInfo struct {
	*tview.TextView
	theme *Theme
	data  *SessionData
}

// NewSessionInfo creates a new session info panel.
func NewSessionInfo(theme *Theme) *SessionInfo {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBorderPadding(0, 0, 1, 1)

	si := &SessionInfo{
		TextView: tv,
		theme:    theme,
	}
	si.Restyle()
	return si
}

// Restyle re-reads the theme colors and redraws.
func (si *SessionInfo) Restyle() {
	si.SetBackgroundColor(si.theme.BgColor)
	si.Update(si.data)
}

// Update renders the session info.
func (si *SessionInfo) Update(data *SessionData) {
	si.data = data
	si.Clear()
	if data == nil {
		return
	}
	_, _ = fmt.Fprint(si, FormatSessionInfo(data, ColorName(si.theme.FgColor), ColorName(si.theme.CounterColor)))
}

// FormatSessionInfo renders data as one header line.
func FormatSessionInfo(data *SessionData, labelColor, valueColor string) string {
	state := "idle"
	if data.InFlight {
		state = "sending"
	}
	return fmt.Sprintf(
		"[%s::b]User:[-:-:-] [%s]%s[-]  "+
			"[%s::b]Profile:[-:-:-] [%s]%s[-]  "+
			"[%s::b]Backend:[-:-:-] [%s]%s[-]  "+
			"[%s::b]Chats:[-:-:-] [%s]%d[-]  "+
			"[%s::b]State:[-:-:-] [%s]%s[-]",
		labelColor, valueColor, tview.Escape(data.Username),
		labelColor, valueColor, tview.Escape(data.Profile),
		labelColor, valueColor, tview.Escape(data.Backend),
		labelColor, valueColor, data.Conversations,
		labelColor, valueColor, state,
	)
}
