package ui

import (
	"reflect"
	"testing"

	"github.com/rivo/tview"
)

func newTestPages() *Pages {
	p := NewPages()
	for _, name := range []string{"chats", "chat", "details"} {
		p.AddPage(name, tview.NewBox(), true, false)
	}
	return p
}

func TestPagesPushPop(t *testing.T) {
	p := newTestPages()
	var seen [][]string
	p.SetOnChange(func(stack []string) { seen = append(seen, stack) })

	p.Reset("chats")
	p.Push("chat")
	if p.Current() != "chat" || p.Depth() != 2 {
		t.Fatalf("stack = %v", p.Stack())
	}
	if top := p.Pop(); top != "chat" {
		t.Errorf("Pop() = %q, want chat", top)
	}
	if p.Current() != "chats" {
		t.Errorf("Current() = %q, want chats", p.Current())
	}
	if len(seen) != 3 {
		t.Errorf("onChange calls = %d, want 3", len(seen))
	}
}

func TestPagesPopTo(t *testing.T) {
	p := newTestPages()
	p.Reset("chats")
	p.Push("chat")
	p.Push("details")

	p.PopTo("missing")
	if p.Depth() != 3 {
		t.Fatalf("PopTo(missing) changed the stack: %v", p.Stack())
	}

	p.PopTo("chats")
	if !reflect.DeepEqual(p.Stack(), []string{"chats"}) {
		t.Errorf("stack = %v, want [chats]", p.Stack())
	}
}

func TestPopEmpty(t *testing.T) {
	p := NewPages()
	if got := p.Pop(); got != "" {
		t.Errorf("Pop() on empty stack = %q", got)
	}
}
