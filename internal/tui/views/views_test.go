package views

import (
	"strings"
	"testing"
	"time"

	"github.com/matheus3301/confchat/internal/api"
	"github.com/matheus3301/confchat/internal/tui/ui"
)

func strPtr(s string) *string { return &s }

func TestConversationListFilter(t *testing.T) {
	cl := NewConversationList(ui.DefaultTheme())
	cl.now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }
	cl.Update([]api.ChatSummary{
		{PartnerID: "1", PartnerName: "Alice", LastMessagePreview: strPtr("see you")},
		{PartnerID: "2", PartnerName: "Bob", LastMessagePreview: strPtr("ALICE said hi")},
		{PartnerID: "3", PartnerName: "Carol"},
	}, "2")

	if got := len(cl.Visible()); got != 3 {
		t.Fatalf("visible = %d, want 3", got)
	}

	cl.SetFilter("alice")
	var ids []api.PartnerID
	for _, c := range cl.Visible() {
		ids = append(ids, c.PartnerID)
	}
	if len(ids) != 2 || ids[0] != "1" || ids[1] != "2" {
		t.Errorf("filtered = %v, want [1 2]", ids)
	}
	if cl.SelectedChat() != "1" {
		t.Errorf("SelectedChat() = %q, want 1", cl.SelectedChat())
	}

	cl.SetFilter("  ")
	if len(cl.Visible()) != 3 {
		t.Errorf("blank filter should show every chat")
	}
}

func TestConversationListKeepsSelection(t *testing.T) {
	cl := NewConversationList(ui.DefaultTheme())
	chats := []api.ChatSummary{{PartnerID: "1"}, {PartnerID: "2"}, {PartnerID: "3"}}
	cl.Update(chats, "")
	cl.Select(3, 0)

	cl.Update([]api.ChatSummary{{PartnerID: "0"}, chats[0], chats[1], chats[2]}, "")
	if got := cl.SelectedChat(); got != "3" {
		t.Errorf("SelectedChat() = %q, want 3", got)
	}
}

func TestHighlightSnippet(t *testing.T) {
	got := highlightSnippet("say <<hello>> [now]", "orange")
	want := "say [orange::b]hello[-:-:-] [now[]"
	if got != want {
		t.Errorf("highlightSnippet() = %q, want %q", got, want)
	}
}

func TestRenderHelp(t *testing.T) {
	out := RenderHelp([]HelpSection{{Title: "Chats", Hints: []ui.MenuHint{{Key: "r", Description: "Refresh"}}}}, "blue")
	if !strings.Contains(out, "Chats") || !strings.Contains(out, "Refresh") {
		t.Errorf("RenderHelp() = %q", out)
	}
}
