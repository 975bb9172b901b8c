// Package host abstracts the environment the client runs in: confirmation
// prompts and transient notifications.
package host

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

// Host is the capability the engine uses to talk to the user.
type Host interface {
	// Confirm asks a yes/no question and blocks until answered.
	Confirm(prompt string) bool
	// Notify shows a transient message.
	Notify(msg string)
}

// Nop confirms everything and discards notifications.
type Nop struct{}

func (Nop) Confirm(string) bool { return true }
func (Nop) Notify(string)       {}

// Terminal is the fallback host for plain terminals. Confirm reads a y/N
// answer; when input is not interactive it answers AssumeYes.
type Terminal struct {
	mu        sync.Mutex
	in        *bufio.Reader
	out       io.Writer
	tty       bool
	AssumeYes bool
}

// NewTerminal builds a host on stdin/stdout.
func NewTerminal() *Terminal {
	return NewTerminalIO(os.Stdin, os.Stdout, term.IsTerminal(int(os.Stdin.Fd())))
}

// NewTerminalIO builds a host on arbitrary streams.
func NewTerminalIO(in io.Reader, out io.Writer, interactive bool) *Terminal {
	return &Terminal{in: bufio.NewReader(in), out: out, tty: interactive}
}

func (t *Terminal) Confirm(prompt string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.tty {
		return t.AssumeYes
	}
	_, _ = fmt.Fprintf(t.out, "%s [y/N] ", prompt)
	line, err := t.in.ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

func (t *Terminal) Notify(msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, _ = fmt.Fprintln(t.out, msg)
}
