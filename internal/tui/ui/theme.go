package ui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/matheus3301/melo/internal/domain"
)

// Theme holds color constants for the TUI.
type Theme struct {
	Name              domain.Theme
	BgColor           tcell.Color
	FgColor           tcell.Color
	MutedColor        tcell.Color
	BorderColor       tcell.Color
	BorderFocusColor  tcell.Color
	TableHeaderFg     tcell.Color
	TableHeaderBg     tcell.Color
	TableCursorFg     tcell.Color
	TableCursorBg     tcell.Color
	MenuKeyColor      tcell.Color
	TitleColor        tcell.Color
	CounterColor      tcell.Color
	UserColor         tcell.Color
	BotColor          tcell.Color
	FlashInfoColor    tcell.Color
	FlashWarnColor    tcell.Color
	FlashErrColor     tcell.Color
	PromptBorderColor tcell.Color
}

// DarkTheme returns the default dark palette.
func DarkTheme() *Theme {
	return &Theme{
		Name:              domain.ThemeDark,
		BgColor:           tcell.ColorBlack,
		FgColor:           tcell.ColorCadetBlue,
		MutedColor:        tcell.ColorGray,
		BorderColor:       tcell.ColorDodgerBlue,
		BorderFocusColor:  tcell.ColorLightSkyBlue,
		TableHeaderFg:     tcell.ColorWhite,
		TableHeaderBg:     tcell.ColorBlack,
		TableCursorFg:     tcell.ColorBlack,
		TableCursorBg:     tcell.ColorAqua,
		MenuKeyColor:      tcell.ColorDodgerBlue,
		TitleColor:        tcell.ColorFuchsia,
		CounterColor:      tcell.ColorPapayaWhip,
		UserColor:         tcell.ColorAqua,
		BotColor:          tcell.ColorMediumPurple,
		FlashInfoColor:    tcell.ColorNavajoWhite,
		FlashWarnColor:    tcell.ColorOrange,
		FlashErrColor:     tcell.ColorOrangeRed,
		PromptBorderColor: tcell.ColorDodgerBlue,
	}
}

// LightTheme returns a palette for light terminals.
func LightTheme() *Theme {
	return &Theme{
		Name:              domain.ThemeLight,
		BgColor:           tcell.ColorWhite,
		FgColor:           tcell.ColorDarkSlateGray,
		MutedColor:        tcell.ColorDarkGray,
		BorderColor:       tcell.ColorSteelBlue,
		BorderFocusColor:  tcell.ColorNavy,
		TableHeaderFg:     tcell.ColorBlack,
		TableHeaderBg:     tcell.ColorWhite,
		TableCursorFg:     tcell.ColorWhite,
		TableCursorBg:     tcell.ColorSteelBlue,
		MenuKeyColor:      tcell.ColorNavy,
		TitleColor:        tcell.ColorPurple,
		CounterColor:      tcell.ColorSaddleBrown,
		UserColor:         tcell.ColorTeal,
		BotColor:          tcell.ColorPurple,
		FlashInfoColor:    tcell.ColorDarkGreen,
		FlashWarnColor:    tcell.ColorDarkOrange,
		FlashErrColor:     tcell.ColorRed,
		PromptBorderColor: tcell.ColorSteelBlue,
	}
}

// ThemeFor returns the palette for a persisted theme name.
func ThemeFor(t domain.Theme) *Theme {
	if t == domain.ThemeLight {
		return LightTheme()
	}
	return DarkTheme()
}

// ApplyStyles pushes the palette into tview's global styles, which forms
// and modals read when they are drawn.
func (t *Theme) ApplyStyles() {
	tview.Styles.PrimitiveBackgroundColor = t.BgColor
	tview.Styles.ContrastBackgroundColor = t.TableCursorBg
	tview.Styles.MoreContrastBackgroundColor = t.BorderColor
	tview.Styles.BorderColor = t.BorderColor
	tview.Styles.TitleColor = t.TitleColor
	tview.Styles.PrimaryTextColor = t.FgColor
	tview.Styles.SecondaryTextColor = t.MenuKeyColor
	tview.Styles.TertiaryTextColor = t.CounterColor
	tview.Styles.InverseTextColor = t.TableCursorFg
	tview.Styles.ContrastSecondaryTextColor = t.TableCursorFg
}

// ColorName returns a tview-compatible color name string.
func ColorName(c tcell.Color) string {
	for name, val := range tcell.ColorNames {
		if val == c {
			return name
		}
	}
	return fmt.Sprintf("#%06x", c.Hex())
}
