package keys

import (
	"testing"

	"github.com/gdamore/tcell/v2"
)

func TestHandleEventPrefersView(t *testing.T) {
	r := NewRegistry()
	var got []string
	r.AddGlobal(&Action{Name: "quit", Key: tcell.KeyRune, Rune: 'q', Handler: func() { got = append(got, "global-q") }})
	r.AddView("help", &Action{Name: "close", Key: tcell.KeyRune, Rune: 'q', Handler: func() { got = append(got, "help-q") }})
	r.AddView("chat", &Action{Name: "open", Key: tcell.KeyEnter, Handler: func() { got = append(got, "enter") }})

	if !r.HandleEvent("help", tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone)) {
		t.Fatal("q on help not handled")
	}
	if !r.HandleEvent("chat", tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone)) {
		t.Fatal("q on chat not handled")
	}
	if !r.HandleEvent("chat", tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone)) {
		t.Fatal("enter on chat not handled")
	}
	if r.HandleEvent("help", tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone)) {
		t.Fatal("enter on help should not match a chat binding")
	}
	if r.HandleEvent("chat", tcell.NewEventKey(tcell.KeyRune, 'z', tcell.ModNone)) {
		t.Fatal("unbound rune handled")
	}

	want := []string{"help-q", "global-q", "enter"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestVisibleOrder(t *testing.T) {
	r := NewRegistry()
	r.AddGlobal(&Action{Name: "help", Label: "?", Visible: true})
	r.AddGlobal(&Action{Name: "hidden"})
	r.AddView("chat", &Action{Name: "new", Label: "n", Visible: true})
	r.AddView("chat", &Action{Name: "delete", Label: "d", Visible: true})

	var names []string
	for _, a := range r.Visible("chat") {
		names = append(names, a.Name)
	}
	if len(names) != 3 || names[0] != "new" || names[1] != "delete" || names[2] != "help" {
		t.Errorf("Visible(chat) = %v", names)
	}
	if n := len(r.Visible("auth")); n != 1 {
		t.Errorf("Visible(auth) has %d actions, want 1", n)
	}
}
