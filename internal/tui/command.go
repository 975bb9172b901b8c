package tui

import (
	"fmt"
	"strings"
)

// Command represents a parsed command.
type Command struct {
	Name string
	Args string
}

// Command names accepted by the prompt.
const (
	CmdQuit    = "quit"
	CmdRefresh = "refresh"
	CmdBlock   = "block"
	CmdSearch  = "search"
	CmdFilter  = "filter"
	CmdHelp    = "help"
	CmdBack    = "back"
)

var commandAliases = map[string]string{
	"q":    CmdQuit,
	"q!":   CmdQuit,
	"exit": CmdQuit,
	"r":    CmdRefresh,
	"s":    CmdSearch,
	"f":    CmdFilter,
	"h":    CmdHelp,
	"?":    CmdHelp,
}

// ParseCommand parses a command string (without the leading ':').
// Aliases are resolved to their canonical names.
func ParseCommand(input string) Command {
	input = strings.TrimSpace(input)
	parts := strings.SplitN(input, " ", 2)
	cmd := Command{Name: strings.ToLower(parts[0])}
	if canonical, ok := commandAliases[cmd.Name]; ok {
		cmd.Name = canonical
	}
	if len(parts) > 1 {
		cmd.Args = strings.TrimSpace(parts[1])
	}
	return cmd
}

// Validate reports whether the command is known and has the arguments it needs.
func (c Command) Validate() error {
	switch c.Name {
	case CmdQuit, CmdRefresh, CmdBlock, CmdHelp, CmdBack, CmdFilter:
		return nil
	case CmdSearch:
		if c.Args == "" {
			return fmt.Errorf("search needs a query")
		}
		return nil
	case "":
		return fmt.Errorf("empty command")
	default:
		return fmt.Errorf("unknown command %q", c.Name)
	}
}
