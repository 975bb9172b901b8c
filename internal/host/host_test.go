package host

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestTerminalConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
		{"maybe\n", false},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		h := NewTerminalIO(strings.NewReader(tt.input), &out, true)
		if got := h.Confirm("Block Alice?"); got != tt.want {
			t.Errorf("Confirm(%q) = %v, want %v", tt.input, got, tt.want)
		}
		if !strings.Contains(out.String(), "Block Alice? [y/N]") {
			t.Errorf("prompt not written: %q", out.String())
		}
	}
}

func TestTerminalNonInteractive(t *testing.T) {
	var out bytes.Buffer
	h := NewTerminalIO(strings.NewReader("y\n"), &out, false)
	if h.Confirm("Block?") {
		t.Error("non-interactive Confirm should default to no")
	}
	h.AssumeYes = true
	if !h.Confirm("Block?") {
		t.Error("AssumeYes should confirm")
	}
	if out.Len() != 0 {
		t.Errorf("non-interactive Confirm wrote %q", out.String())
	}
}

func TestTerminalNotify(t *testing.T) {
	var out bytes.Buffer
	h := NewTerminalIO(strings.NewReader(""), &out, false)
	h.Notify("User blocked successfully")
	if out.String() != "User blocked successfully\n" {
		t.Errorf("output = %q", out.String())
	}
}

func TestFlashExpires(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	f := NewFlash()
	f.now = func() time.Time { return now }

	if f.Current() != nil {
		t.Fatal("empty flash should have no message")
	}

	f.Notify("sent")
	if m := f.Current(); m == nil || m.Text != "sent" || m.Level != LevelInfo {
		t.Fatalf("Current() = %+v", m)
	}

	now = now.Add(FlashDuration - time.Millisecond)
	if f.Current() == nil {
		t.Error("message expired early")
	}
	now = now.Add(time.Millisecond)
	if f.Current() != nil {
		t.Error("message should expire after FlashDuration")
	}
}

func TestFlashError(t *testing.T) {
	f := NewFlash()
	f.Error(errors.New("boom"))

	select {
	case m := <-f.Watch():
		if m.Text != "boom" || m.Level != LevelError {
			t.Errorf("watched message = %+v", m)
		}
	default:
		t.Fatal("no message on watch channel")
	}
}

func TestFlashWatchDoesNotBlock(t *testing.T) {
	f := NewFlash()
	for i := 0; i < 20; i++ {
		f.Notify("x")
	}
	if m := f.Current(); m == nil || m.Text != "x" {
		t.Errorf("Current() = %+v", m)
	}
}

var (
	_ Host = (*Terminal)(nil)
	_ Host = Nop{}
)
