package ui

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

const maxHistory = 50

// Prompt is the ':' command input bar. Up and Down walk the history of
// submitted commands.
type Prompt struct {
	*tview.InputField
	theme    *Theme
	history  []string
	cursor   int
	onSubmit func(text string)
	onCancel func()
}

// NewPrompt creates a new prompt input bar.
func NewPrompt(theme *Theme) *Prompt {
	input := tview.NewInputField()
	input.SetBorder(true)
	input.SetLabel(":")
	input.SetTitle(" Command ")

	p := &Prompt{
		InputField: input,
		theme:      theme,
	}
	p.Restyle()

	input.SetDoneFunc(func(key tcell.Key) {
		switch key {
		case tcell.KeyEnter:
			text := p.GetText()
			p.SetText("")
			if text != "" {
				p.remember(text)
			}
			if p.onSubmit != nil && text != "" {
				p.onSubmit(text)
			} else if p.onCancel != nil {
				p.onCancel()
			}
		case tcell.KeyEscape:
			p.SetText("")
			if p.onCancel != nil {
				p.onCancel()
			}
		}
	})

	input.SetInputCapture(func(ev *tcell.EventKey) *tcell.EventKey {
		switch ev.Key() {
		case tcell.KeyUp:
			p.SetText(p.step(-1))
			return nil
		case tcell.KeyDown:
			p.SetText(p.step(1))
			return nil
		}
		return ev
	})

	return p
}

// Restyle re-reads the theme colors.
func (p *Prompt) Restyle() {
	p.SetBorderColor(p.theme.PromptBorderColor)
	p.SetBackgroundColor(p.theme.BgColor)
	p.SetFieldBackgroundColor(p.theme.BgColor)
	p.SetFieldTextColor(p.theme.FgColor)
	p.SetLabelColor(p.theme.MenuKeyColor)
	p.SetTitleColor(p.theme.TitleColor)
}

// SetOnSubmit sets the callback when the prompt is submitted.
func (p *Prompt) SetOnSubmit(fn func(text string)) {
	p.onSubmit = fn
}

// SetOnCancel sets the callback when the prompt is dismissed.
func (p *Prompt) SetOnCancel(fn func()) {
	p.onCancel = fn
}

// Activate clears the prompt for a new command.
func (p *Prompt) Activate() {
	p.SetText("")
	p.cursor = len(p.history)
}

// History returns a copy of the submitted commands, oldest first.
func (p *Prompt) History() []string {
	out := make([]string, len(p.history))
	copy(out, p.history)
	return out
}

func (p *Prompt) remember(text string) {
	if n := len(p.history); n == 0 || p.history[n-1] != text {
		p.history = append(p.history, text)
	}
	if len(p.history) > maxHistory {
		p.history = p.history[len(p.history)-maxHistory:]
	}
	p.cursor = len(p.history)
}

// step moves the history cursor by delta and returns the entry under it.
// Moving past the newest entry yields an empty line.
func (p *Prompt) step(delta int) string {
	p.cursor += delta
	if p.cursor < 0 {
		p.cursor = 0
	}
	if p.cursor >= len(p.history) {
		p.cursor = len(p.history)
		return ""
	}
	return p.history[p.cursor]
}
