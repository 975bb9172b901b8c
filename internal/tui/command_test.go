package tui

import "testing"

func TestParseCommand(t *testing.T) {
	tests := []struct {
		input string
		want  Command
	}{
		{"quit", Command{Name: CmdQuit}},
		{"  Q ", Command{Name: CmdQuit}},
		{"search  hello world ", Command{Name: CmdSearch, Args: "hello world"}},
		{"f ali", Command{Name: CmdFilter, Args: "ali"}},
		{"Block", Command{Name: CmdBlock}},
	}
	for _, tt := range tests {
		if got := ParseCommand(tt.input); got != tt.want {
			t.Errorf("ParseCommand(%q) = %+v, want %+v", tt.input, got, tt.want)
		}
	}
}

func TestCommandValidate(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"refresh", false},
		{"filter", false},
		{"search", true},
		{"search hi", false},
		{"", true},
		{"launch", true},
	}
	for _, tt := range tests {
		err := ParseCommand(tt.input).Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("Validate(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
	}
}
