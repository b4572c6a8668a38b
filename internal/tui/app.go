// Package tui renders the client state in a full-screen terminal UI. It
// holds no state of its own beyond widgets: every redraw reads the chat
// session, the conversation list and the screen machine, triggered by
// events from the bus.
package tui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"go.uber.org/zap"

	"github.com/matheus3301/melo/internal/auth"
	"github.com/matheus3301/melo/internal/bus"
	"github.com/matheus3301/melo/internal/chat"
	"github.com/matheus3301/melo/internal/config"
	"github.com/matheus3301/melo/internal/domain"
	"github.com/matheus3301/melo/internal/screen"
	"github.com/matheus3301/melo/internal/tui/keys"
	"github.com/matheus3301/melo/internal/tui/model"
	"github.com/matheus3301/melo/internal/tui/ui"
	"github.com/matheus3301/melo/internal/tui/views"
)

const (
	pageAuth = "auth"
	pageChat = "chat"
	pageHelp = "help"

	listWidth     = 34
	promptHeight  = 3
	healthTimeout = 5 * time.Second
	tickInterval  = time.Second

	crisisNotice = "Melo noticed you may be going through something serious. " +
		"If you are in danger, call your local emergency number or a crisis line (988 in the US)."
)

// Prefs persists UI preferences.
type Prefs interface {
	Theme(ctx context.Context) domain.Theme
	SetTheme(ctx context.Context, t domain.Theme) error
}

// HealthChecker probes the backend.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Deps groups what the TUI renders and drives.
type Deps struct {
	Profile    string
	Config     *config.Config
	Controller *auth.Controller
	Session    *chat.Session
	List       *chat.ConversationList
	Screen     *screen.Machine
	Bus        *bus.Bus
	Prefs      Prefs
	Health     HealthChecker
	Confirmer  *ModalConfirmer
	Logger     *zap.Logger
}

// App is the main TUI application shell.
type App struct {
	app      *tview.Application
	root     *tview.Flex
	pages    *ui.Pages
	theme    *ui.Theme
	registry *keys.Registry
	flash    *ui.FlashModel

	header     *ui.SessionInfo
	prompt     *ui.Prompt
	menu       *ui.Menu
	flashBar   *ui.FlashBar
	status     *views.StatusBar
	authView   *views.AuthView
	list       *views.ConversationList
	transcript *views.TranscriptView
	composer   *views.Composer
	help       *views.HelpView

	promptActive bool

	d      Deps
	logger *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewApp creates the TUI application.
func NewApp(d Deps) *App {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	theme := ui.DarkTheme()

	a := &App{
		app:        tview.NewApplication(),
		pages:      ui.NewPages(),
		theme:      theme,
		registry:   keys.NewRegistry(),
		flash:      ui.NewFlashModel(),
		header:     ui.NewSessionInfo(theme),
		prompt:     ui.NewPrompt(theme),
		menu:       ui.NewMenu(theme),
		flashBar:   ui.NewFlashBar(theme),
		status:     views.NewStatusBar(theme, d.Profile),
		authView:   views.NewAuthView(theme),
		list:       views.NewConversationList(theme),
		transcript: views.NewTranscriptView(theme),
		composer:   views.NewComposer(theme, d.Session.MaxMessageChars()),
		help:       views.NewHelpView(theme),
		d:          d,
		logger:     d.Logger.Named("tui"),
		ctx:        ctx,
		cancel:     cancel,
	}

	a.setupBindings()
	a.setupCallbacks()
	a.setupLayout()
	if d.Confirmer != nil {
		d.Confirmer.attach(a.app, a.pages, a.theme)
	}
	return a
}

func (a *App) setupBindings() {
	a.registry.AddGlobal(&keys.Action{
		Name: "help", Key: tcell.KeyRune, Rune: '?',
		Label: "?", Description: "Help", Visible: true,
		Handler: a.showHelp,
	})
	a.registry.AddGlobal(&keys.Action{
		Name: "command", Key: tcell.KeyRune, Rune: ':',
		Label: ":", Description: "Command", Visible: true,
		Handler: a.showPrompt,
	})
	a.registry.AddGlobal(&keys.Action{
		Name: "theme", Key: tcell.KeyRune, Rune: 't',
		Label: "t", Description: "Theme", Visible: true,
		Handler: func() { a.setTheme(a.theme.Name.Toggle()) },
	})
	a.registry.AddGlobal(&keys.Action{
		Name: "quit", Key: tcell.KeyRune, Rune: 'q',
		Label: "q", Description: "Quit", Visible: true,
		Handler: a.Stop,
	})

	a.registry.AddView(pageChat, &keys.Action{
		Name: "new", Key: tcell.KeyRune, Rune: 'n',
		Label: "n", Description: "New", Visible: true,
		Handler: a.newConversation,
	})
	a.registry.AddView(pageChat, &keys.Action{
		Name: "delete", Key: tcell.KeyRune, Rune: 'd',
		Label: "d", Description: "Delete", Visible: true,
		Handler: a.deleteSelected,
	})
	a.registry.AddView(pageChat, &keys.Action{
		Name: "refresh", Key: tcell.KeyRune, Rune: 'r',
		Label: "r", Description: "Refresh", Visible: true,
		Handler: a.refresh,
	})
	a.registry.AddView(pageChat, &keys.Action{
		Name: "compose", Key: tcell.KeyRune, Rune: 'i',
		Label: "i", Description: "Compose", Visible: true,
		Handler: func() { a.focus(a.composer) },
	})
	a.registry.AddView(pageChat, &keys.Action{
		Name: "logout", Key: tcell.KeyRune, Rune: 'L',
		Label: "L", Description: "Logout",
		Handler: a.logout,
	})
	a.registry.AddView(pageHelp, &keys.Action{
		Name: "close", Key: tcell.KeyRune, Rune: 'q',
		Handler: func() { a.pages.Pop() },
	})
}

func (a *App) setupCallbacks() {
	a.authView.SetOnLogin(func(username, password string) {
		a.authenticate("login", func(ctx context.Context) error {
			_, err := a.d.Controller.Login(ctx, username, password)
			return err
		})
	})
	a.authView.SetOnSignup(func(form auth.SignupForm) {
		a.authenticate("signup", func(ctx context.Context) error {
			_, err := a.d.Controller.Signup(ctx, form)
			return err
		})
	})

	a.list.SetSelectedFunc(func(_, _ int) {
		id := a.list.SelectedID()
		if id == "" {
			return
		}
		a.async("Open conversation", func(ctx context.Context) error {
			return a.d.List.Select(ctx, id)
		})
		a.focus(a.composer)
	})

	a.composer.SetOnSend(a.send)

	a.prompt.SetOnSubmit(func(text string) {
		a.hidePrompt()
		a.runCommand(text)
	})
	a.prompt.SetOnCancel(a.hidePrompt)

	a.pages.SetOnChange(func([]string) {
		a.focusCurrent()
	})
}

func (a *App) setupLayout() {
	right := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.transcript, 0, 1, false).
		AddItem(a.composer, 3, 0, true)
	split := tview.NewFlex().
		AddItem(a.list, listWidth, 0, false).
		AddItem(right, 0, 1, true)
	chatPage := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.header, 1, 0, false).
		AddItem(split, 0, 1, true)

	a.pages.AddPage(pageAuth, a.authView, true, false)
	a.pages.AddPage(pageChat, chatPage, true, false)
	a.pages.AddPage(pageHelp, a.help, true, false)

	bottom := tview.NewFlex().
		AddItem(a.status, 0, 1, false).
		AddItem(a.flashBar, 0, 1, false)

	a.root = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.pages, 0, 1, true).
		AddItem(a.prompt, 0, 0, false).
		AddItem(a.menu, 1, 0, false).
		AddItem(bottom, 1, 0, false)

	a.app.SetRoot(a.root, true)
	a.app.SetInputCapture(a.capture)
	a.pages.Reset(pageAuth)
}

func (a *App) capture(event *tcell.EventKey) *tcell.EventKey {
	page := a.pages.Current()
	if page == confirmPage || a.promptActive {
		return event
	}

	if event.Key() == tcell.KeyEscape {
		switch {
		case page == pageHelp:
			a.pages.Pop()
			return nil
		case a.composer.HasFocus():
			a.focus(a.list)
			return nil
		}
	}

	// Text inputs and the auth form get every key.
	if a.composer.HasFocus() || page == pageAuth {
		return event
	}
	if _, ok := a.app.GetFocus().(*tview.InputField); ok {
		return event
	}

	if page == pageChat && event.Key() == tcell.KeyTab {
		if a.list.HasFocus() {
			a.focus(a.transcript)
		} else {
			a.focus(a.list)
		}
		return nil
	}

	if a.registry.HandleEvent(page, event) {
		return nil
	}
	return event
}

// Run starts the TUI and blocks until it exits.
func (a *App) Run() error {
	a.applyTheme(a.d.Prefs.Theme(a.ctx))

	events, unsubscribe := a.d.Bus.SubscribeMany(256,
		"transcript.", "session.", "conversations.", "emotion.", "screen.", "prefs.")
	defer unsubscribe()

	go a.pump(events)
	go a.tickLoop()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.d.Controller.RestoreSession(a.ctx)
	}()
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.probeHealth()
	}()

	err := a.app.Run()
	a.cancel()
	return err
}

// Stop gracefully shuts down the TUI.
func (a *App) Stop() {
	a.cancel()
	a.app.Stop()
}

// Wait blocks until background actions started by the TUI have returned.
func (a *App) Wait() {
	a.wg.Wait()
}

// pump forwards bus events to the UI goroutine.
func (a *App) pump(events <-chan bus.Event) {
	for {
		select {
		case evt := <-events:
			a.app.QueueUpdateDraw(func() { a.handle(evt) })
		case <-a.ctx.Done():
			return
		}
	}
}

func (a *App) tickLoop() {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			a.app.QueueUpdateDraw(func() {
				a.status.Tick()
				a.authView.Tick()
				a.flashBar.Update(a.flash.Get())
			})
		case <-a.ctx.Done():
			return
		}
	}
}

// handle runs on the UI goroutine.
func (a *App) handle(evt bus.Event) {
	switch evt.Kind {
	case bus.SessionEscalation:
		a.flash.Err(crisisNotice)
	case bus.ConversationDeleted:
		a.flash.Info("Conversation deleted")
	case bus.ThemeChanged:
		if t, ok := evt.Payload.(domain.Theme); ok {
			a.flash.Info("Theme: " + string(t))
		}
	}
	a.syncScreen()
	a.render()
}

// syncScreen shows the page for the machine's current state. It reads the
// machine rather than the event payload so a dropped event cannot strand
// the UI on the wrong page.
func (a *App) syncScreen() {
	state := a.d.Screen.Current()
	a.status.SetState(string(state))

	switch state {
	case screen.SignedIn:
		if a.pages.Screen() != pageChat {
			a.hidePrompt()
			a.authView.SetBusy(false)
			a.pages.Reset(pageChat)
			a.focus(a.composer)
		}
	case screen.Authenticating:
		a.authView.SetBusy(true)
	default:
		if a.pages.Screen() != pageAuth {
			a.hidePrompt()
			a.authView.Reset()
			a.pages.Reset(pageAuth)
		} else {
			a.authView.SetBusy(false)
		}
	}
}

// render redraws every widget from a fresh snapshot.
func (a *App) render() {
	st := model.Snapshot(a.d.Session, a.d.List)
	a.list.Update(st)
	a.transcript.Update(st)
	a.composer.SetBusy(st.InFlight)
	a.status.SetEmotion(st.Emotion)
	a.header.Update(&ui.SessionData{
		Username:      st.Username,
		Profile:       a.d.Profile,
		Backend:       a.d.Config.APIURL,
		Conversations: len(st.Conversations),
		InFlight:      st.InFlight,
	})
	a.flashBar.Update(a.flash.Get())
}

func (a *App) focus(p tview.Primitive) {
	a.app.SetFocus(p)
	a.updateMenu()
}

// focusCurrent puts focus back on the top page after the stack changes.
func (a *App) focusCurrent() {
	switch a.pages.Current() {
	case pageAuth:
		a.focus(a.authView)
	case pageChat:
		a.focus(a.composer)
	case pageHelp:
		a.focus(a.help)
	default:
		a.updateMenu()
	}
}

func (a *App) updateMenu() {
	var comp ui.Component
	switch a.pages.Current() {
	case pageAuth:
		comp = a.authView
	case pageHelp:
		comp = a.help
	default:
		switch {
		case a.list.HasFocus():
			comp = a.list
		case a.composer.HasFocus():
			comp = a.composer
		default:
			comp = a.transcript
		}
	}

	hints := comp.Hints()
	if a.pages.Current() != pageAuth {
		for _, act := range a.registry.Visible(a.pages.Current()) {
			hints = append(hints, ui.MenuHint{Key: act.Label, Description: act.Description})
		}
	}
	a.menu.Update(hints)
}

// async runs fn off the UI goroutine and reports its error.
func (a *App) async(op string, fn func(ctx context.Context) error) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := fn(a.ctx); err != nil {
			a.report(op, err)
		}
	}()
}

// report surfaces err in the flash bar. Safe from any goroutine.
func (a *App) report(op string, err error) {
	if errors.Is(err, chat.ErrCancelled) || errors.Is(err, context.Canceled) {
		return
	}
	a.logger.Warn(op+" failed", zap.Error(err))
	if domain.IsValidation(err) || errors.Is(err, chat.ErrSendInFlight) {
		a.flash.Warn(domain.Reason(err))
	} else {
		a.flash.Err(op + " failed: " + domain.Reason(err))
	}
	a.app.QueueUpdateDraw(func() { a.flashBar.Update(a.flash.Get()) })
}

func (a *App) authenticate(op string, fn func(ctx context.Context) error) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		err := fn(a.ctx)
		if err == nil || errors.Is(err, context.Canceled) {
			return
		}
		a.logger.Info(op+" failed", zap.Error(err))
		a.app.QueueUpdateDraw(func() {
			a.authView.ShowError(domain.Reason(err))
		})
	}()
}

// send is the composer callback. The checks here only decide whether the
// input box is cleared; Session.Submit enforces them again.
func (a *App) send(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return false
	}
	if a.d.Session.InFlight() {
		a.flash.Warn("Please wait for Melo to reply")
		a.flashBar.Update(a.flash.Get())
		return false
	}
	if n, limit := utf8.RuneCountInString(trimmed), a.d.Session.MaxMessageChars(); n > limit {
		a.flash.Warn("Message is too long (" + views.Counter(n, limit) + ")")
		a.flashBar.Update(a.flash.Get())
		return false
	}
	a.async("Send", func(ctx context.Context) error {
		return a.d.Session.Submit(ctx, text)
	})
	return true
}

func (a *App) newConversation() {
	a.d.Session.StartNew(a.ctx)
	a.focus(a.composer)
}

func (a *App) deleteSelected() {
	id := a.list.SelectedID()
	if id == "" {
		a.flash.Info("Select a conversation first")
		a.flashBar.Update(a.flash.Get())
		return
	}
	a.async("Delete", func(ctx context.Context) error {
		return a.d.List.Delete(ctx, id)
	})
}

func (a *App) refresh() {
	a.async("Refresh", func(ctx context.Context) error {
		_, err := a.d.List.Refresh(ctx)
		return err
	})
}

func (a *App) logout() {
	a.async("Logout", a.d.Controller.Logout)
}

func (a *App) showHelp() {
	if a.pages.Current() != pageHelp {
		a.pages.Push(pageHelp)
	}
}

func (a *App) showPrompt() {
	a.promptActive = true
	a.prompt.Activate()
	a.root.ResizeItem(a.prompt, promptHeight, 0)
	a.focus(a.prompt)
}

func (a *App) hidePrompt() {
	if !a.promptActive {
		return
	}
	a.promptActive = false
	a.root.ResizeItem(a.prompt, 0, 0)
	a.focusCurrent()
}

func (a *App) runCommand(text string) {
	cmd, err := ParseCommand(text).Resolve()
	if err != nil {
		a.flash.Warn(err.Error())
		a.flashBar.Update(a.flash.Get())
		return
	}
	switch cmd.Name {
	case CmdNew:
		a.newConversation()
	case CmdDelete:
		a.deleteSelected()
	case CmdRefresh:
		a.refresh()
	case CmdLogout:
		a.logout()
	case CmdTheme:
		t := a.theme.Name.Toggle()
		if cmd.Args != "" {
			t = domain.ParseTheme(cmd.Args)
		}
		a.setTheme(t)
	case CmdHelp:
		a.showHelp()
	case CmdQuit:
		a.Stop()
	}
}

// setTheme applies t now and persists it in the background.
func (a *App) setTheme(t domain.Theme) {
	a.applyTheme(t)
	a.async("Save theme", func(ctx context.Context) error {
		if err := a.d.Prefs.SetTheme(ctx, t); err != nil {
			return err
		}
		a.d.Bus.Emit(bus.ThemeChanged, t)
		return nil
	})
}

// applyTheme swaps the palette in place; every widget holds the same
// *ui.Theme, so Restyle picks up the new colors.
func (a *App) applyTheme(t domain.Theme) {
	*a.theme = *ui.ThemeFor(t)
	a.theme.ApplyStyles()
	a.root.SetBackgroundColor(a.theme.BgColor)
	for _, c := range []interface{ Restyle() }{
		a.header, a.prompt, a.menu, a.flashBar, a.status,
		a.authView, a.list, a.transcript, a.composer, a.help,
	} {
		c.Restyle()
	}
	a.updateMenu()
}

func (a *App) probeHealth() {
	ctx, cancel := context.WithTimeout(a.ctx, healthTimeout)
	defer cancel()
	if err := a.d.Health.Health(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		a.logger.Warn("health probe failed", zap.Error(err))
		a.flash.Warn("backend unreachable at " + a.d.Config.APIURL)
		a.app.QueueUpdateDraw(func() { a.flashBar.Update(a.flash.Get()) })
	}
}
