package views

import (
	"fmt"

	"github.com/rivo/tview"

	"github.com/matheus3301/melo/internal/auth"
	"github.com/matheus3301/melo/internal/tui/model"
	"github.com/matheus3301/melo/internal/tui/ui"
)

// AuthMode selects which form the auth page shows.
type AuthMode int

const (
	ModeLogin AuthMode = iota
	ModeSignup
)

const formWidth = 52

// AuthView shows the login and signup forms with an inline error line
// that clears itself after model.AuthErrorTTL.
type AuthView struct {
	*tview.Flex
	theme   *ui.Theme
	logo    *ui.Logo
	form    *tview.Form
	errText *tview.TextView
	err     model.Flash

	username *tview.InputField
	email    *tview.InputField
	password *tview.InputField
	confirm  *tview.InputField

	mode     AuthMode
	busy     bool
	onLogin  func(username, password string)
	onSignup func(form auth.SignupForm)
}

// NewAuthView creates the auth page in login mode.
func NewAuthView(theme *ui.Theme) *AuthView {
	av := &AuthView{
		theme:    theme,
		logo:     ui.NewLogo(theme),
		form:     tview.NewForm(),
		errText:  tview.NewTextView().SetDynamicColors(true).SetTextAlign(tview.AlignCenter),
		username: tview.NewInputField().SetLabel("Username").SetFieldWidth(30),
		email:    tview.NewInputField().SetLabel("Email (optional)").SetFieldWidth(30),
		password: tview.NewInputField().SetLabel("Password").SetFieldWidth(30).SetMaskCharacter('*'),
		confirm:  tview.NewInputField().SetLabel("Confirm password").SetFieldWidth(30).SetMaskCharacter('*'),
	}
	av.form.SetBorder(true)

	center := tview.NewFlex().
		AddItem(nil, 0, 1, false).
		AddItem(av.form, formWidth, 0, true).
		AddItem(nil, 0, 1, false)

	av.Flex = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(av.logo, 6, 0, false).
		AddItem(center, 13, 0, true).
		AddItem(av.errText, 2, 0, false).
		AddItem(nil, 0, 1, false)

	av.Restyle()
	return av
}

// Name implements ui.Component.
func (av *AuthView) Name() string { return "Auth" }

// Hints implements ui.Component.
func (av *AuthView) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Tab", Description: "Next field"},
		{Key: "Enter", Description: "Submit"},
		{Key: "Ctrl-C", Description: "Quit"},
	}
}

// Restyle implements ui.Component.
func (av *AuthView) Restyle() {
	av.Flex.SetBackgroundColor(av.theme.BgColor)
	av.logo.Restyle()
	av.form.SetBackgroundColor(av.theme.BgColor)
	av.form.SetBorderColor(av.theme.BorderColor)
	av.form.SetTitleColor(av.theme.TitleColor)
	av.form.SetLabelColor(av.theme.FgColor)
	av.form.SetFieldBackgroundColor(av.theme.TableCursorBg)
	av.form.SetFieldTextColor(av.theme.TableCursorFg)
	av.form.SetButtonBackgroundColor(av.theme.BorderColor)
	av.form.SetButtonTextColor(av.theme.BgColor)
	av.errText.SetBackgroundColor(av.theme.BgColor)
	// Form items pick up the form colors when they are added.
	av.build()
	av.Tick()
}

// SetOnLogin sets the login submit callback.
func (av *AuthView) SetOnLogin(fn func(username, password string)) {
	av.onLogin = fn
}

// SetOnSignup sets the signup submit callback.
func (av *AuthView) SetOnSignup(fn func(form auth.SignupForm)) {
	av.onSignup = fn
}

// Mode returns the form currently shown.
func (av *AuthView) Mode() AuthMode { return av.mode }

// SetMode switches between login and signup, keeping the typed username.
func (av *AuthView) SetMode(mode AuthMode) {
	if av.mode == mode {
		return
	}
	av.mode = mode
	av.err.Clear()
	av.build()
	av.Tick()
}

// SetBusy disables submission while a request is running.
func (av *AuthView) SetBusy(busy bool) {
	av.busy = busy
	av.build()
}

// ShowError displays msg under the form.
func (av *AuthView) ShowError(msg string) {
	av.err.Set(msg, model.AuthErrorTTL)
	av.Tick()
}

// Reset clears every field and the error. Used after logout.
func (av *AuthView) Reset() {
	for _, f := range []*tview.InputField{av.username, av.email, av.password, av.confirm} {
		f.SetText("")
	}
	av.err.Clear()
	av.mode = ModeLogin
	av.busy = false
	av.build()
	av.Tick()
}

// Tick redraws the error line so an expired error disappears.
func (av *AuthView) Tick() {
	av.errText.Clear()
	if msg := av.err.Get(); msg != "" {
		_, _ = fmt.Fprintf(av.errText, "[%s]%s[-]", ui.ColorName(av.theme.FlashErrColor), tview.Escape(msg))
	}
}

func (av *AuthView) build() {
	av.form.Clear(true)
	av.form.AddFormItem(av.username)

	submit, toggle := "Login", "Create account"
	av.form.SetTitle(" Sign in ")
	if av.mode == ModeSignup {
		submit, toggle = "Sign up", "Back to login"
		av.form.SetTitle(" Create account ")
		av.form.AddFormItem(av.email)
	}
	av.form.AddFormItem(av.password)
	if av.mode == ModeSignup {
		av.form.AddFormItem(av.confirm)
	}
	if av.busy {
		submit = "Please wait..."
	}

	av.form.AddButton(submit, av.submit)
	av.form.AddButton(toggle, func() {
		if av.mode == ModeLogin {
			av.SetMode(ModeSignup)
		} else {
			av.SetMode(ModeLogin)
		}
	})
	av.form.SetFocus(0)
}

func (av *AuthView) submit() {
	if av.busy {
		return
	}
	switch av.mode {
	case ModeLogin:
		if av.onLogin != nil {
			av.onLogin(av.username.GetText(), av.password.GetText())
		}
	case ModeSignup:
		if av.onSignup != nil {
			av.onSignup(auth.SignupForm{
				Username: av.username.GetText(),
				Password: av.password.GetText(),
				Confirm:  av.confirm.GetText(),
				Email:    av.email.GetText(),
			})
		}
	}
}
