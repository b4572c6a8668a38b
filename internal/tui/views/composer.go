package views

import (
	"fmt"
	"unicode/utf8"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/matheus3301/melo/internal/tui/ui"
)

// Composer is the text input for sending messages. The title carries a
// live N/max character counter.
type Composer struct {
	*tview.InputField
	theme    *ui.Theme
	maxChars int
	busy     bool
	// onSend returns true when the text was accepted and can be cleared.
	onSend func(text string) bool
}

// NewComposer creates a new message composer.
func NewComposer(theme *ui.Theme, maxChars int) *Composer {
	input := tview.NewInputField().
		SetLabel(" > ").
		SetFieldWidth(0)
	input.SetBorder(true)

	c := &Composer{
		InputField: input,
		theme:      theme,
		maxChars:   maxChars,
	}

	input.SetChangedFunc(func(string) { c.updateTitle() })
	input.SetDoneFunc(func(key tcell.Key) {
		if key != tcell.KeyEnter || c.onSend == nil {
			return
		}
		if c.onSend(c.GetText()) {
			c.SetText("")
		}
	})

	c.Restyle()
	return c
}

// Name implements ui.Component.
func (c *Composer) Name() string { return "Composer" }

// Hints implements ui.Component.
func (c *Composer) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Enter", Description: "Send"},
		{Key: "Esc", Description: "Leave"},
	}
}

// Restyle implements ui.Component.
func (c *Composer) Restyle() {
	c.SetBorderColor(c.theme.BorderColor)
	c.SetBackgroundColor(c.theme.BgColor)
	c.SetFieldBackgroundColor(c.theme.BgColor)
	c.SetFieldTextColor(c.theme.FgColor)
	c.SetLabelColor(c.theme.MenuKeyColor)
	c.updateTitle()
}

// SetOnSend sets the callback run on Enter.
func (c *Composer) SetOnSend(fn func(text string) bool) {
	c.onSend = fn
}

// SetBusy switches the label while a message is in flight.
func (c *Composer) SetBusy(busy bool) {
	if c.busy == busy {
		return
	}
	c.busy = busy
	if busy {
		c.SetLabel(" … ")
	} else {
		c.SetLabel(" > ")
	}
}

func (c *Composer) updateTitle() {
	n := utf8.RuneCountInString(c.GetText())
	color := c.theme.CounterColor
	if n > c.maxChars {
		color = c.theme.FlashErrColor
	}
	c.SetTitle(fmt.Sprintf(" Message [%s]%s[-] ", ui.ColorName(color), Counter(n, c.maxChars)))
	c.SetTitleColor(c.theme.TitleColor)
}

// Counter renders the character counter, e.g. "12/1000".
func Counter(n, limit int) string {
	return fmt.Sprintf("%d/%d", n, limit)
}
