package views

import (
	"fmt"
	"strings"

	"github.com/rivo/tview"

	"github.com/matheus3301/melo/internal/domain"
	"github.com/matheus3301/melo/internal/tui/model"
	"github.com/matheus3301/melo/internal/tui/ui"
)

const typingIndicator = "Melo is typing..."

// TranscriptView displays the messages of the focused conversation.
type TranscriptView struct {
	*tview.TextView
	theme *ui.Theme
	last  model.ChatState
}

// NewTranscriptView creates a new transcript view.
func NewTranscriptView(theme *ui.Theme) *TranscriptView {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWordWrap(true)
	tv.SetBorder(true)

	v := &TranscriptView{
		TextView: tv,
		theme:    theme,
	}
	v.Restyle()
	return v
}

// Name implements ui.Component.
func (v *TranscriptView) Name() string { return "Transcript" }

// Hints implements ui.Component.
func (v *TranscriptView) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "i", Description: "Compose"},
		{Key: "Tab", Description: "List"},
		{Key: "n", Description: "New"},
	}
}

// Restyle implements ui.Component.
func (v *TranscriptView) Restyle() {
	v.SetBorderColor(v.theme.BorderColor)
	v.SetBackgroundColor(v.theme.BgColor)
	v.SetTextColor(v.theme.FgColor)
	v.SetTitleColor(v.theme.TitleColor)
	v.Update(v.last)
}

// Update re-renders the transcript from st.
func (v *TranscriptView) Update(st model.ChatState) {
	v.last = st
	v.SetTitle(fmt.Sprintf(" %s ", st.Title()))
	v.Clear()
	_, _ = fmt.Fprint(v, RenderTranscript(st, v.theme))
	v.ScrollToEnd()
}

// RenderTranscript renders st as tview color-tagged text. Anything that is
// not a user message renders as Melo.
func RenderTranscript(st model.ChatState, theme *ui.Theme) string {
	var b strings.Builder
	muted := ui.ColorName(theme.MutedColor)

	if welcome := st.Welcome(); welcome != "" {
		writeMessage(&b, theme, domain.Message{Text: welcome, Sender: domain.SenderBot})
	}
	for _, m := range st.Messages {
		writeMessage(&b, theme, m)
	}
	if st.LoadErr != nil {
		fmt.Fprintf(&b, "[%s::b]Could not load this conversation:[-:-:-] [%s]%s[-]\n\n",
			ui.ColorName(theme.FlashErrColor), ui.ColorName(theme.FlashErrColor),
			display(domain.Reason(st.LoadErr)))
	}
	if st.InFlight {
		fmt.Fprintf(&b, "[%s::i]%s[-:-:-]\n", muted, typingIndicator)
	}
	return b.String()
}

func writeMessage(b *strings.Builder, theme *ui.Theme, m domain.Message) {
	name, color := "Melo", theme.BotColor
	if m.Sender == domain.SenderUser {
		name, color = "You", theme.UserColor
	}
	fmt.Fprintf(b, "[%s::b]%s[-:-:-]", ui.ColorName(color), name)
	if !m.Timestamp.IsZero() {
		fmt.Fprintf(b, " [%s]%s[-]", ui.ColorName(theme.MutedColor), m.Timestamp.Local().Format("15:04"))
	}
	b.WriteString("\n")
	for _, line := range m.Lines() {
		fmt.Fprintf(b, "  %s\n", display(line))
	}
	b.WriteString("\n")
}
