package tui

import (
	"context"
	"errors"
	"sync"

	"github.com/rivo/tview"

	"github.com/matheus3301/melo/internal/tui/ui"
)

const (
	confirmPage = "confirm"
	confirmYes  = "Yes"
	confirmNo   = "No"
)

var errConfirmerDetached = errors.New("confirmation dialog not available")

// ModalConfirmer asks yes/no questions with a modal dialog. It is created
// before the fx graph, handed to the chat components as their Confirmer,
// and attached to the screen once the App exists.
//
// Confirm blocks until the user answers, so it must never run on the UI
// goroutine.
type ModalConfirmer struct {
	ask sync.Mutex

	mu    sync.Mutex
	app   *tview.Application
	pages *ui.Pages
	theme *ui.Theme
}

// NewModalConfirmer creates a detached confirmer.
func NewModalConfirmer() *ModalConfirmer {
	return &ModalConfirmer{}
}

func (c *ModalConfirmer) attach(app *tview.Application, pages *ui.Pages, theme *ui.Theme) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.app, c.pages, c.theme = app, pages, theme
}

func (c *ModalConfirmer) attached() (*tview.Application, *ui.Pages, *ui.Theme) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.app, c.pages, c.theme
}

// Confirm shows prompt and waits for an answer or ctx.
func (c *ModalConfirmer) Confirm(ctx context.Context, prompt string) (bool, error) {
	app, pages, theme := c.attached()
	if app == nil {
		return false, errConfirmerDetached
	}

	// One dialog at a time.
	c.ask.Lock()
	defer c.ask.Unlock()

	answer := make(chan bool, 1)
	app.QueueUpdateDraw(func() {
		modal := tview.NewModal().
			SetText(prompt).
			AddButtons([]string{confirmYes, confirmNo}).
			SetDoneFunc(func(_ int, label string) {
				dismiss(pages)
				answer <- label == confirmYes
			})
		modal.SetBackgroundColor(theme.BgColor)
		modal.SetTextColor(theme.FgColor)
		modal.SetBorderColor(theme.FlashWarnColor)
		modal.SetButtonBackgroundColor(theme.BorderColor)
		modal.SetButtonTextColor(theme.BgColor)
		pages.AddPage(confirmPage, modal, true, false)
		pages.PushOverlay(confirmPage)
		app.SetFocus(modal)
	})

	select {
	case ok := <-answer:
		return ok, nil
	case <-ctx.Done():
		app.QueueUpdateDraw(func() { dismiss(pages) })
		return false, ctx.Err()
	}
}

// dismiss removes the dialog if it is still on top. Runs on the UI goroutine.
func dismiss(pages *ui.Pages) {
	if pages.Current() == confirmPage {
		pages.Pop()
	}
	pages.RemovePage(confirmPage)
}
