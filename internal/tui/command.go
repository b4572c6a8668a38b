package tui

import (
	"fmt"
	"strings"

	"github.com/matheus3301/melo/internal/domain"
)

// Command represents a parsed command.
type Command struct {
	Name string
	Args string
}

// Canonical command names.
const (
	CmdNew     = "new"
	CmdDelete  = "delete"
	CmdRefresh = "refresh"
	CmdLogout  = "logout"
	CmdTheme   = "theme"
	CmdHelp    = "help"
	CmdQuit    = "quit"
)

var commandAliases = map[string]string{
	"new":     CmdNew,
	"n":       CmdNew,
	"delete":  CmdDelete,
	"del":     CmdDelete,
	"refresh": CmdRefresh,
	"r":       CmdRefresh,
	"logout":  CmdLogout,
	"theme":   CmdTheme,
	"help":    CmdHelp,
	"h":       CmdHelp,
	"quit":    CmdQuit,
	"q":       CmdQuit,
}

// ParseCommand parses a command string, with or without the leading ':'.
func ParseCommand(input string) Command {
	input = strings.TrimPrefix(strings.TrimSpace(input), ":")
	parts := strings.SplitN(strings.TrimSpace(input), " ", 2)
	cmd := Command{Name: strings.ToLower(parts[0])}
	if len(parts) > 1 {
		cmd.Args = strings.TrimSpace(parts[1])
	}
	return cmd
}

// Resolve maps aliases to the canonical name and checks arguments.
func (c Command) Resolve() (Command, error) {
	name, ok := commandAliases[c.Name]
	if !ok {
		return c, fmt.Errorf("unknown command %q (try :help)", c.Name)
	}
	out := Command{Name: name, Args: c.Args}
	switch name {
	case CmdTheme:
		switch strings.ToLower(c.Args) {
		case "", string(domain.ThemeDark), string(domain.ThemeLight):
			out.Args = strings.ToLower(c.Args)
		default:
			return c, fmt.Errorf("usage: :theme dark|light")
		}
	default:
		if c.Args != "" {
			return c, fmt.Errorf(":%s takes no arguments", name)
		}
	}
	return out, nil
}
