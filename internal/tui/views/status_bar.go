package views

import (
	"fmt"
	"time"

	"github.com/rivo/tview"

	"github.com/matheus3301/melo/internal/domain"
	"github.com/matheus3301/melo/internal/tui/ui"
)

// StatusBar displays the profile, screen state, emotion indicator and clock.
type StatusBar struct {
	*tview.TextView
	theme   *ui.Theme
	profile string
	state   string
	emotion *domain.Emotion
	now     func() time.Time
}

// NewStatusBar creates a new status bar.
func NewStatusBar(theme *ui.Theme, profile string) *StatusBar {
	tv := tview.NewTextView().
		SetDynamicColors(true)

	sb := &StatusBar{
		TextView: tv,
		theme:    theme,
		profile:  profile,
		now:      time.Now,
	}
	sb.Restyle()
	return sb
}

// Restyle re-reads the theme colors and redraws.
func (sb *StatusBar) Restyle() {
	sb.SetBackgroundColor(sb.theme.BgColor)
	sb.render()
}

// SetState updates the screen state display.
func (sb *StatusBar) SetState(state string) {
	sb.state = state
	sb.render()
}

// SetEmotion shows e, or hides the indicator when nil.
func (sb *StatusBar) SetEmotion(e *domain.Emotion) {
	sb.emotion = e
	sb.render()
}

// Tick redraws the clock.
func (sb *StatusBar) Tick() {
	sb.render()
}

func (sb *StatusBar) render() {
	sb.Clear()
	_, _ = fmt.Fprint(sb, FormatStatus(sb.profile, sb.state, sb.emotion, sb.now(), sb.theme))
}

// FormatStatus renders the status line.
func FormatStatus(profile, state string, emotion *domain.Emotion, now time.Time, theme *ui.Theme) string {
	line := fmt.Sprintf(" [%s::b]melo:%s[-:-:-] | %s",
		ui.ColorName(theme.TitleColor), tview.Escape(profile), state)
	if emotion != nil {
		line += fmt.Sprintf(" | [%s]%s[-]", ui.ColorName(theme.CounterColor), display(emotion.String()))
	}
	return line + " | " + now.Format("15:04")
}
