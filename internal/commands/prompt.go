package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

var errNotInteractive = errors.New("stdin is not a terminal; pass --yes to confirm")

// prompter reads answers from the command's stdin. Passwords are read
// without echo when stdin is a terminal, and as plain lines otherwise so
// scripts can pipe them in.
type prompter struct {
	in  *bufio.Reader
	out io.Writer
	fd  int
	tty bool
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	p := &prompter{in: bufio.NewReader(in), out: out, fd: -1}
	if f, ok := in.(*os.File); ok {
		p.fd = int(f.Fd())
		p.tty = term.IsTerminal(p.fd)
	}
	return p
}

func (p *prompter) line(label string) (string, error) {
	if p.tty {
		fmt.Fprint(p.out, label)
	}
	s, err := p.in.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || s == "") {
		return "", fmt.Errorf("read %s: %w", strings.TrimSuffix(strings.TrimSpace(label), ":"), err)
	}
	return strings.TrimRight(s, "\r\n"), nil
}

func (p *prompter) password(label string) (string, error) {
	if !p.tty {
		return p.line(label)
	}
	fmt.Fprint(p.out, label)
	b, err := term.ReadPassword(p.fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(b), nil
}

// confirmer implements chat.Confirmer on the terminal. assumeYes skips the
// question; without it a non-interactive stdin refuses.
type confirmer struct {
	p         *prompter
	assumeYes bool
}

func (c *confirmer) Confirm(_ context.Context, prompt string) (bool, error) {
	if c.assumeYes {
		return true, nil
	}
	if !c.p.tty {
		return false, errNotInteractive
	}
	answer, err := c.p.line(prompt + " [y/N] ")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}
