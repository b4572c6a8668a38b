package views

import (
	"fmt"
	"strings"

	"github.com/rivo/tview"

	"github.com/matheus3301/melo/internal/tui/ui"
)

type helpEntry struct {
	key  string
	text string
}

var helpSections = []struct {
	title   string
	entries []helpEntry
}{
	{"Global Keys", []helpEntry{
		{":", "Command mode"},
		{"?", "Help"},
		{"t", "Toggle dark/light theme"},
		{"q", "Quit"},
		{"Esc", "Cancel / Go back"},
		{"Ctrl-C", "Quit immediately"},
	}},
	{"Chat", []helpEntry{
		{"n", "Start a new conversation"},
		{"Enter", "Open selected conversation"},
		{"d", "Delete selected conversation"},
		{"r", "Refresh conversation list"},
		{"i", "Focus composer"},
		{"Tab", "Switch list / transcript"},
		{"L", "Log out"},
	}},
	{"Commands (: mode)", []helpEntry{
		{":new", "Start a new conversation"},
		{":delete", "Delete selected conversation"},
		{":refresh", "Refresh conversation list"},
		{":logout", "Log out"},
		{":theme dark|light", "Switch theme"},
		{":help / :h", "Show this help"},
		{":quit / :q", "Quit application"},
	}},
}

// HelpView displays the key binding reference.
type HelpView struct {
	*tview.TextView
	theme *ui.Theme
}

// NewHelpView creates a new help view.
func NewHelpView(theme *ui.Theme) *HelpView {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	tv.SetBorder(true)
	tv.SetTitle(" Help ")

	hv := &HelpView{
		TextView: tv,
		theme:    theme,
	}
	hv.Restyle()
	return hv
}

// Name implements ui.Component.
func (hv *HelpView) Name() string { return "Help" }

// Hints implements ui.Component.
func (hv *HelpView) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Esc", Description: "Back"},
	}
}

// Restyle implements ui.Component.
func (hv *HelpView) Restyle() {
	hv.SetBorderColor(hv.theme.BorderColor)
	hv.SetBackgroundColor(hv.theme.BgColor)
	hv.SetTextColor(hv.theme.FgColor)
	hv.SetTitleColor(hv.theme.TitleColor)
	hv.Clear()
	_, _ = fmt.Fprint(hv, renderHelp(ui.ColorName(hv.theme.MenuKeyColor)))
}

func renderHelp(keyColor string) string {
	var b strings.Builder
	for _, s := range helpSections {
		fmt.Fprintf(&b, "\n  [::b]%s[-:-:-]\n\n", s.title)
		for _, e := range s.entries {
			fmt.Fprintf(&b, "  [%s]%-18s[-:-:-] %s\n", keyColor, tview.Escape(e.key), e.text)
		}
	}
	return b.String()
}
