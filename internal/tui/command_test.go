package tui

import (
	"context"
	"errors"
	"testing"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		input string
		want  Command
	}{
		{"new", Command{Name: "new"}},
		{":new", Command{Name: "new"}},
		{"  THEME   Light ", Command{Name: "theme", Args: "Light"}},
		{":q", Command{Name: "q"}},
		{"", Command{Name: ""}},
	}
	for _, tt := range tests {
		if got := ParseCommand(tt.input); got != tt.want {
			t.Errorf("ParseCommand(%q) = %+v, want %+v", tt.input, got, tt.want)
		}
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		input   string
		want    Command
		wantErr bool
	}{
		{"n", Command{Name: CmdNew}, false},
		{"del", Command{Name: CmdDelete}, false},
		{"refresh", Command{Name: CmdRefresh}, false},
		{"logout", Command{Name: CmdLogout}, false},
		{"theme", Command{Name: CmdTheme}, false},
		{"theme Light", Command{Name: CmdTheme, Args: "light"}, false},
		{"theme dark", Command{Name: CmdTheme, Args: "dark"}, false},
		{"theme solarized", Command{}, true},
		{"h", Command{Name: CmdHelp}, false},
		{"quit", Command{Name: CmdQuit}, false},
		{"new now", Command{}, true},
		{"search hello", Command{}, true},
		{"", Command{}, true},
	}
	for _, tt := range tests {
		got, err := ParseCommand(tt.input).Resolve()
		if tt.wantErr {
			if err == nil {
				t.Errorf("Resolve(%q) succeeded, want error", tt.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("Resolve(%q): %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Resolve(%q) = %+v, want %+v", tt.input, got, tt.want)
		}
	}
}

func TestDetachedConfirmer(t *testing.T) {
	ok, err := NewModalConfirmer().Confirm(context.Background(), "Delete?")
	if ok || !errors.Is(err, errConfirmerDetached) {
		t.Errorf("Confirm() = %v, %v", ok, err)
	}
}
