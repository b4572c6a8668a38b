package ui

import (
	"fmt"

	"github.com/rivo/tview"
)

// Logo displays the compact wordmark shown above the auth forms.
type Logo struct {
	*tview.TextView
	theme *Theme
}

// NewLogo creates a new logo component.
func NewLogo(theme *Theme) *Logo {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	tv.SetBorderPadding(1, 0, 0, 0)

	l := &Logo{
		TextView: tv,
		theme:    theme,
	}
	l.Restyle()
	return l
}

// Restyle re-reads the theme colors and redraws.
func (l *Logo) Restyle() {
	l.SetBackgroundColor(l.theme.BgColor)
	l.render()
}

func (l *Logo) render() {
	l.Clear()
	titleColor := ColorName(l.theme.TitleColor)
	fgColor := ColorName(l.theme.FgColor)

	_, _ = fmt.Fprintf(l,
		"[%s::b]╔╦╗╔═╗╦  ╔═╗[-:-:-]\n"+
			"[%s::b]║║║║╣ ║  ║ ║[-:-:-]\n"+
			"[%s::b]╩ ╩╚═╝╩═╝╚═╝[-:-:-]\n"+
			"[%s]your adaptive AI companion[-:-:-]",
		titleColor, titleColor, titleColor, fgColor,
	)
}
