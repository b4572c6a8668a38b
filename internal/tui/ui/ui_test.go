package ui

import (
	"strings"
	"testing"
	"time"

	"github.com/rivo/tview"

	"github.com/matheus3301/melo/internal/domain"
)

func TestThemeFor(t *testing.T) {
	if got := ThemeFor(domain.ThemeLight); got.Name != domain.ThemeLight {
		t.Errorf("ThemeFor(light) = %s", got.Name)
	}
	if got := ThemeFor("solarized"); got.Name != domain.ThemeDark {
		t.Errorf("ThemeFor(unknown) = %s, want dark", got.Name)
	}
	if DarkTheme().BgColor == LightTheme().BgColor {
		t.Error("dark and light themes share a background")
	}
}

func TestFlashExpiry(t *testing.T) {
	now := time.Date(2026, 1, 2, 15, 4, 0, 0, time.UTC)
	f := NewFlashModel()
	f.now = func() time.Time { return now }

	if f.Get() != nil {
		t.Fatal("new model should be empty")
	}

	f.Err("backend unreachable")
	msg := f.Get()
	if msg == nil || msg.Level != FlashErr || msg.Text != "backend unreachable" {
		t.Fatalf("Get() = %+v", msg)
	}

	now = now.Add(ErrDuration - time.Millisecond)
	if f.Get() == nil {
		t.Fatal("message expired early")
	}
	now = now.Add(time.Millisecond)
	if f.Get() != nil {
		t.Fatal("message should have expired")
	}

	f.Info("saved")
	f.Clear()
	if f.Get() != nil {
		t.Fatal("Clear did not drop the message")
	}
}

func TestFlashBarColors(t *testing.T) {
	theme := DarkTheme()
	fb := NewFlashBar(theme)
	if fb.LevelColor(FlashErr) != theme.FlashErrColor {
		t.Error("error level color mismatch")
	}
	if fb.LevelColor(FlashWarn) != theme.FlashWarnColor {
		t.Error("warn level color mismatch")
	}
	if fb.LevelColor(FlashInfo) != theme.FlashInfoColor {
		t.Error("info level color mismatch")
	}
}

func TestPagesStack(t *testing.T) {
	p := NewPages()
	for _, name := range []string{"auth", "chat", "help", "confirm"} {
		p.AddPage(name, tview.NewBox(), true, false)
	}
	var changes [][]string
	p.SetOnChange(func(stack []string) { changes = append(changes, stack) })

	p.Reset("chat")
	p.Push("help")
	p.PushOverlay("confirm")

	if got := strings.Join(p.Stack(), ","); got != "chat,help,confirm" {
		t.Fatalf("stack = %s", got)
	}
	if p.Current() != "confirm" || p.Screen() != "chat" || p.Depth() != 3 {
		t.Fatalf("current=%s screen=%s depth=%d", p.Current(), p.Screen(), p.Depth())
	}

	if popped := p.Pop(); popped != "confirm" {
		t.Errorf("Pop() = %q", popped)
	}
	if popped := p.Pop(); popped != "help" {
		t.Errorf("Pop() = %q", popped)
	}
	if popped := p.Pop(); popped != "" {
		t.Errorf("Pop() on screen = %q, want empty", popped)
	}
	if p.Current() != "chat" {
		t.Errorf("current = %s", p.Current())
	}

	p.Reset("auth")
	if got := strings.Join(p.Stack(), ","); got != "auth" {
		t.Errorf("stack after reset = %s", got)
	}
	if len(changes) != 6 {
		t.Errorf("got %d change notifications, want 6", len(changes))
	}
}

func TestPromptHistory(t *testing.T) {
	p := NewPrompt(DarkTheme())
	p.remember("new")
	p.remember("theme light")
	p.remember("theme light")
	p.Activate()

	if got := p.History(); len(got) != 2 {
		t.Fatalf("history = %v, want deduplicated pair", got)
	}
	if got := p.step(-1); got != "theme light" {
		t.Errorf("step(-1) = %q", got)
	}
	if got := p.step(-1); got != "new" {
		t.Errorf("step(-1) = %q", got)
	}
	if got := p.step(-1); got != "new" {
		t.Errorf("step past oldest = %q", got)
	}
	if got := p.step(1); got != "theme light" {
		t.Errorf("step(1) = %q", got)
	}
	if got := p.step(1); got != "" {
		t.Errorf("step past newest = %q", got)
	}
}

func TestFormatHints(t *testing.T) {
	got := FormatHints([]MenuHint{{Key: "n", Description: "New"}, {Key: "q", Description: "Quit"}}, "blue")
	if !strings.Contains(got, "<n>[-:-:-] New") || !strings.Contains(got, "<q>[-:-:-] Quit") {
		t.Errorf("FormatHints = %q", got)
	}
}

func TestFormatSessionInfo(t *testing.T) {
	got := FormatSessionInfo(&SessionData{
		Username:      "ana",
		Profile:       "main",
		Backend:       "http://localhost:5000/api",
		Conversations: 3,
		InFlight:      true,
	}, "white", "yellow")
	for _, want := range []string{"ana", "main", "localhost:5000", "3", "sending"} {
		if !strings.Contains(got, want) {
			t.Errorf("header %q missing %q", got, want)
		}
	}
}
