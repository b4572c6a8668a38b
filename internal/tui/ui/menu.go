package ui

import (
	"fmt"
	"strings"

	"github.com/rivo/tview"
)

// Menu displays keyboard shortcut hints on a single line.
type Menu struct {
	*tview.TextView
	theme *Theme
	hints []MenuHint
}

// NewMenu creates a new menu hint bar.
func NewMenu(theme *Theme) *Menu {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	tv.SetBorderPadding(0, 0, 1, 0)

	m := &Menu{
		TextView: tv,
		theme:    theme,
	}
	m.Restyle()
	return m
}

// Restyle re-reads the theme colors and redraws the hints.
func (m *Menu) Restyle() {
	m.SetBackgroundColor(m.theme.BgColor)
	m.Update(m.hints)
}

// Update renders hints as "<key> description" pairs.
func (m *Menu) Update(hints []MenuHint) {
	m.hints = hints
	m.Clear()
	_, _ = fmt.Fprint(m, FormatHints(hints, ColorName(m.theme.MenuKeyColor)))
}

// FormatHints renders hints with keys in keyColor.
func FormatHints(hints []MenuHint, keyColor string) string {
	parts := make([]string, 0, len(hints))
	for _, h := range hints {
		parts = append(parts, fmt.Sprintf("[%s::b]<%s>[-:-:-] %s", keyColor, tview.Escape(h.Key), h.Description))
	}
	return strings.Join(parts, "  ")
}
