package keys

import (
	"reflect"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/confchat/internal/tui/ui"
)

func TestHintsOrder(t *testing.T) {
	r := NewRegistry()
	r.AddGlobal(&Action{Key: tcell.KeyRune, Rune: '?', Description: "Help"})
	r.AddGlobal(&Action{Key: tcell.KeyCtrlC, Description: "Quit", Hidden: true})
	r.AddView("chats", &Action{Key: tcell.KeyEnter, Description: "Open"})
	r.AddView("chats", &Action{Key: tcell.KeyRune, Rune: 'r', Description: "Refresh"})

	got := r.Hints("chats")
	want := []ui.MenuHint{
		{Key: "Enter", Description: "Open"},
		{Key: "r", Description: "Refresh"},
		{Key: "?", Description: "Help"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Hints() = %v, want %v", got, want)
	}
}

func TestHandleEventPrefersView(t *testing.T) {
	r := NewRegistry()
	var fired string
	r.AddGlobal(&Action{Key: tcell.KeyRune, Rune: 'b', Handler: func() { fired = "global" }})
	r.AddView("chat", &Action{Key: tcell.KeyRune, Rune: 'b', Handler: func() { fired = "view" }})

	ev := tcell.NewEventKey(tcell.KeyRune, 'b', tcell.ModNone)
	if !r.HandleEvent("chat", ev) {
		t.Fatal("HandleEvent() = false")
	}
	if fired != "view" {
		t.Errorf("fired = %q, want view", fired)
	}

	fired = ""
	if !r.HandleEvent("chats", ev) || fired != "global" {
		t.Errorf("fallback fired = %q, want global", fired)
	}

	if r.HandleEvent("chats", tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModNone)) {
		t.Error("unbound key handled")
	}
}
