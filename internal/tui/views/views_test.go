package views

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/matheus3301/melo/internal/auth"
	"github.com/matheus3301/melo/internal/domain"
	"github.com/matheus3301/melo/internal/tui/model"
	"github.com/matheus3301/melo/internal/tui/ui"
)

func TestSanitizeForTerminal(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "hello", "hello"},
		{"skin tone", "👍\U0001F3FB", "👍"},
		{"zwj", "a\u200Db", "ab"},
		{"variation selector", "❤\uFE0F", "❤"},
		{"control", "bell\a", "bell"},
		{"newline kept", "a\nb", "a\nb"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizeForTerminal(tt.in); got != tt.want {
				t.Errorf("sanitizeForTerminal(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestRenderTranscriptWelcome(t *testing.T) {
	got := RenderTranscript(model.ChatState{Username: "ana"}, ui.DarkTheme())
	if !strings.Contains(got, "Hello ana! I'm Melo") {
		t.Errorf("welcome missing:\n%s", got)
	}
	if strings.Contains(got, typingIndicator) {
		t.Error("typing indicator shown while idle")
	}
}

func TestRenderTranscriptMessages(t *testing.T) {
	st := model.ChatState{
		Username:       "ana",
		ConversationID: "4",
		Messages: []domain.Message{
			{Text: "  first line \n\n second line ", Sender: domain.SenderUser},
			{Text: "reply [red]tagged[-]", Sender: domain.SenderBot, Timestamp: time.Date(2026, 1, 2, 15, 4, 0, 0, time.Local)},
			{Text: "from elsewhere", Sender: "system"},
		},
		InFlight: true,
	}
	got := RenderTranscript(st, ui.DarkTheme())

	if strings.Contains(got, "Hello ana") {
		t.Error("welcome shown for an active conversation")
	}
	for _, want := range []string{"You", "  first line\n  second line\n", "Melo", "15:04", typingIndicator, "from elsewhere"} {
		if !strings.Contains(got, want) {
			t.Errorf("transcript missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "reply [red]tagged") {
		t.Error("server text was not escaped")
	}
	if strings.Count(got, "Melo[-:-:-]") != 2 {
		t.Errorf("unknown sender should render as Melo:\n%s", got)
	}
}

func TestRenderTranscriptLoadError(t *testing.T) {
	st := model.ChatState{
		ConversationID: "9",
		LoadErr:        domain.NewNotFoundError("Conversation not found"),
	}
	got := RenderTranscript(st, ui.DarkTheme())
	if !strings.Contains(got, "Could not load this conversation:") || !strings.Contains(got, "Conversation not found") {
		t.Errorf("load error missing:\n%s", got)
	}

	st.LoadErr = errors.New("dial tcp: refused")
	if got := RenderTranscript(st, ui.DarkTheme()); !strings.Contains(got, "dial tcp: refused") {
		t.Errorf("plain error reason missing:\n%s", got)
	}
}

func TestConversationRows(t *testing.T) {
	started := time.Date(2026, 1, 2, 15, 4, 0, 0, time.Local)
	st := model.ChatState{
		ConversationID: "7",
		PendingDelete:  "3",
		Conversations: []domain.Conversation{
			{ID: "7", StartedAt: domain.Timestamp{Time: started}, MessageCount: 1},
			{ID: "3", StartedAt: domain.Timestamp{Time: started}, MessageCount: 4},
		},
	}
	rows := ConversationRows(st)
	if len(rows) != 2 {
		t.Fatalf("got %d rows", len(rows))
	}
	if rows[0].Label != "Jan 2 at 15:04" || rows[0].Count != "1 message" || !rows[0].Active || rows[0].Pending {
		t.Errorf("row 0 = %+v", rows[0])
	}
	if rows[1].Count != "4 messages" || rows[1].Active || !rows[1].Pending {
		t.Errorf("row 1 = %+v", rows[1])
	}
}

func TestConversationListPlaceholder(t *testing.T) {
	cl := NewConversationList(ui.DarkTheme())
	cl.Update(model.ChatState{})
	if got := cl.GetCell(1, 0).Text; !strings.Contains(got, placeholderLoading) {
		t.Errorf("before load: %q", got)
	}

	cl.Update(model.ChatState{ListLoaded: true})
	if got := cl.GetCell(1, 0).Text; !strings.Contains(got, placeholderEmpty) {
		t.Errorf("empty list: %q", got)
	}
	if cl.SelectedID() != "" {
		t.Error("placeholder row must not be selectable")
	}
}

func TestConversationListKeepsSelection(t *testing.T) {
	cl := NewConversationList(ui.DarkTheme())
	st := model.ChatState{ListLoaded: true, Conversations: []domain.Conversation{{ID: "9"}, {ID: "5"}}}
	cl.Update(st)
	cl.Select(2, 0)
	if cl.SelectedID() != "5" {
		t.Fatalf("SelectedID() = %q", cl.SelectedID())
	}

	st.Conversations = []domain.Conversation{{ID: "11"}, {ID: "9"}, {ID: "5"}}
	cl.Update(st)
	if cl.SelectedID() != "5" {
		t.Errorf("selection moved to %q after refresh", cl.SelectedID())
	}
}

func TestComposerCounterAndSend(t *testing.T) {
	c := NewComposer(ui.DarkTheme(), 10)
	if Counter(3, 1000) != "3/1000" {
		t.Errorf("Counter = %q", Counter(3, 1000))
	}

	var sent []string
	c.SetOnSend(func(text string) bool {
		sent = append(sent, text)
		return true
	})

	c.SetText("hello")
	c.updateTitle()
	if !strings.Contains(c.GetTitle(), "5/10") {
		t.Errorf("title = %q", c.GetTitle())
	}
	c.onSend(c.GetText())
	if len(sent) != 1 || sent[0] != "hello" {
		t.Errorf("sent = %v", sent)
	}
}

func TestFormatStatus(t *testing.T) {
	now := time.Date(2026, 1, 2, 9, 30, 0, 0, time.UTC)
	got := FormatStatus("main", "SIGNED_IN", &domain.Emotion{Label: "Anxiety", Confidence: 0.81}, now, ui.DarkTheme())
	for _, want := range []string{"melo:main", "SIGNED_IN", "Anxiety (81%)", "09:30"} {
		if !strings.Contains(got, want) {
			t.Errorf("status %q missing %q", got, want)
		}
	}
	if strings.Contains(FormatStatus("main", "SIGNED_OUT", nil, now, ui.DarkTheme()), "%)") {
		t.Error("emotion shown when hidden")
	}
}

func TestAuthViewSubmit(t *testing.T) {
	av := NewAuthView(ui.DarkTheme())

	var login []string
	var signup []auth.SignupForm
	av.SetOnLogin(func(u, p string) { login = append(login, u+":"+p) })
	av.SetOnSignup(func(f auth.SignupForm) { signup = append(signup, f) })

	av.username.SetText("ana")
	av.password.SetText("secret1")
	av.submit()
	if len(login) != 1 || login[0] != "ana:secret1" {
		t.Fatalf("login = %v", login)
	}

	av.SetMode(ModeSignup)
	if av.Mode() != ModeSignup || av.username.GetText() != "ana" {
		t.Fatal("mode switch lost state")
	}
	av.confirm.SetText("secret1")
	av.email.SetText("ana@example.com")
	av.submit()
	if len(signup) != 1 || signup[0].Confirm != "secret1" || signup[0].Email != "ana@example.com" {
		t.Fatalf("signup = %+v", signup)
	}

	av.SetBusy(true)
	av.submit()
	if len(signup) != 1 {
		t.Error("submit ran while busy")
	}

	av.ShowError("Passwords do not match")
	if !strings.Contains(av.errText.GetText(false), "Passwords do not match") {
		t.Errorf("error text = %q", av.errText.GetText(false))
	}

	av.Reset()
	if av.Mode() != ModeLogin || av.username.GetText() != "" || av.errText.GetText(false) != "" {
		t.Error("Reset left state behind")
	}
}

func TestHelpListsCommands(t *testing.T) {
	got := renderHelp("blue")
	for _, want := range []string{":new", ":delete", ":refresh", ":logout", ":theme dark|light", ":quit"} {
		if !strings.Contains(got, want) {
			t.Errorf("help missing %q", want)
		}
	}
}
