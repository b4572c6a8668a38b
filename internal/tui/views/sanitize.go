package views

import (
	"strings"

	"github.com/rivo/tview"
)

// runeRange is an inclusive codepoint interval.
type runeRange struct{ lo, hi rune }

// droppedRanges lists codepoints tcell cannot lay out reliably: skin tone
// modifiers, zero width joiners, control characters other than newline and
// the variation selectors. Dropping them turns e.g. 👍🏻 into 👍.
var droppedRanges = []runeRange{
	{0x00, 0x09},
	{0x0B, 0x1F},
	{0x7F, 0x9F},
	{0x200D, 0x200D},
	{0xFE00, 0xFE0F},
	{0x1F3FB, 0x1F3FF},
	{0xE0100, 0xE01EF},
}

func dropped(r rune) bool {
	for _, rr := range droppedRanges {
		if r >= rr.lo && r <= rr.hi {
			return true
		}
	}
	return false
}

// sanitizeForTerminal removes codepoints that break tview rendering.
func sanitizeForTerminal(s string) string {
	return strings.Map(func(r rune) rune {
		if dropped(r) {
			return -1
		}
		return r
	}, s)
}

// display prepares server-supplied text for a dynamic-color TextView.
func display(s string) string {
	return tview.Escape(sanitizeForTerminal(s))
}
