package ui

import (
	"reflect"
	"testing"
)

func TestPromptSubmit(t *testing.T) {
	p := NewPrompt(DefaultTheme())
	var got []string
	cancelled := 0
	p.SetOnSubmit(func(mode PromptMode, text string) {
		if mode != PromptSearch {
			t.Errorf("mode = %v, want PromptSearch", mode)
		}
		got = append(got, text)
	})
	p.SetOnCancel(func() { cancelled++ })

	p.Activate(PromptSearch)
	p.submit("keynote")
	p.submit("")

	if !reflect.DeepEqual(got, []string{"keynote"}) {
		t.Errorf("submitted = %v", got)
	}
	if cancelled != 1 {
		t.Errorf("cancelled = %d, want 1", cancelled)
	}
	if p.GetText() != "" {
		t.Errorf("text after submit = %q", p.GetText())
	}
}

func TestPromptHistoryPerMode(t *testing.T) {
	p := NewPrompt(DefaultTheme())
	p.Activate(PromptCommand)
	p.submit("refresh")
	p.submit("block")
	p.Activate(PromptSearch)
	p.submit("coffee")

	p.Activate(PromptCommand)
	p.recall(-1)
	if p.GetText() != "block" {
		t.Fatalf("recall = %q, want block", p.GetText())
	}
	p.recall(-1)
	if p.GetText() != "refresh" {
		t.Fatalf("recall = %q, want refresh", p.GetText())
	}
	p.recall(-1)
	if p.GetText() != "refresh" {
		t.Errorf("recall past the oldest entry = %q", p.GetText())
	}
	p.recall(1)
	p.recall(1)
	if p.GetText() != "" {
		t.Errorf("recall past the newest entry = %q, want empty", p.GetText())
	}

	if h := p.History(PromptSearch); !reflect.DeepEqual(h, []string{"coffee"}) {
		t.Errorf("search history = %v", h)
	}
}
