package tui

import (
	"context"
	"testing"
	"time"

	"github.com/matheus3301/confchat/internal/api"
	"github.com/matheus3301/confchat/internal/host"
	"github.com/matheus3301/confchat/internal/status"
	intsync "github.com/matheus3301/confchat/internal/sync"
)

type stubRemote struct {
	chats []api.ChatSummary
}

func (r *stubRemote) ListChats(context.Context) ([]api.ChatSummary, error) {
	return r.chats, nil
}

func (r *stubRemote) FetchMessages(_ context.Context, id api.PartnerID, _ int) (*api.Conversation, error) {
	return &api.Conversation{Partner: api.Partner{ID: id, DisplayName: "Alice"}}, nil
}

func (r *stubRemote) SendMessage(_ context.Context, _ api.PartnerID, text string) (*api.Message, error) {
	return &api.Message{ID: 1, Text: text, IsOwn: true, Timestamp: time.Now()}, nil
}

func (r *stubRemote) BlockPartner(context.Context, api.PartnerID) error { return nil }

func newTestApp(t *testing.T) *App {
	t.Helper()
	remote := &stubRemote{chats: []api.ChatSummary{
		{PartnerID: "1", PartnerName: "Alice"},
		{PartnerID: "2", PartnerName: "Bob"},
	}}
	e := intsync.NewEngine(remote, intsync.Options{PollInterval: time.Hour})
	t.Cleanup(e.Close)
	return NewApp(Options{Host: NewHost(), Engine: e, Session: "test"})
}

func TestRenderChatList(t *testing.T) {
	a := newTestApp(t)
	a.render(intsync.Snapshot{
		State: status.NoSelection,
		Chats: []api.ChatSummary{{PartnerID: "1", PartnerName: "Alice"}},
	})
	if got := len(a.chatList.Visible()); got != 1 {
		t.Errorf("visible chats = %d, want 1", got)
	}
	if a.pages.Current() != pageChats {
		t.Errorf("page = %q, want %q", a.pages.Current(), pageChats)
	}
}

func TestRenderDeselectReturnsToChats(t *testing.T) {
	a := newTestApp(t)
	a.pages.Push(pageChat)
	a.pages.Push(pageDetails)

	a.render(intsync.Snapshot{State: status.NoSelection})

	if a.pages.Current() != pageChats || a.pages.Depth() != 1 {
		t.Errorf("stack = %v, want [chats]", a.pages.Stack())
	}
}

func TestBackFromChatDeselectsBeforeReturning(t *testing.T) {
	a := newTestApp(t)
	if err := a.engine.Select(context.Background(), "1"); err != nil {
		t.Fatal(err)
	}
	a.pages.Push(pageChat)

	a.back()

	if got := a.engine.State(); got != status.NoSelection {
		t.Errorf("state after back = %s, want NO_SELECTION", got)
	}
	if a.pages.Current() != pageChats {
		t.Errorf("page = %q, want %q", a.pages.Current(), pageChats)
	}

	if err := a.engine.Select(context.Background(), "2"); err != nil {
		t.Fatal(err)
	}
	if got := a.engine.ActivePartner(); got != "2" {
		t.Errorf("active partner = %q, want 2", got)
	}
}

func TestRenderActiveConversation(t *testing.T) {
	a := newTestApp(t)
	a.pages.Push(pageChat)
	a.render(intsync.Snapshot{
		State:        status.Active,
		PartnerID:    "1",
		Partner:      api.Partner{ID: "1", DisplayName: "Alice"},
		Messages:     []api.Message{{ID: 1, Text: "hi"}},
		SendInFlight: true,
		Generation:   1,
	})

	if a.thread.Name() != "Alice" {
		t.Errorf("thread name = %q, want Alice", a.thread.Name())
	}
	if !a.thread.Sending() {
		t.Error("composer should be disabled while a send is in flight")
	}
	if a.pages.Current() != pageChat {
		t.Errorf("page = %q, want %q", a.pages.Current(), pageChat)
	}
}

func TestPartnerForLoading(t *testing.T) {
	a := newTestApp(t)
	if err := a.engine.LoadChats(context.Background()); err != nil {
		t.Fatalf("LoadChats() error = %v", err)
	}

	got := a.partnerFor(intsync.Snapshot{State: status.Loading, PartnerID: "2"})
	if got.DisplayName != "Bob" {
		t.Errorf("partnerFor() = %+v, want Bob from the chat list", got)
	}

	got = a.partnerFor(intsync.Snapshot{State: status.Loading, PartnerID: "9"})
	if got.DisplayName != "9" {
		t.Errorf("partnerFor() = %+v, want the raw id", got)
	}
}

func TestHostNotifyLevels(t *testing.T) {
	h := NewHost()
	h.Notify("Failed to send message")
	if m := h.Flash().Current(); m == nil || m.Level != host.LevelError {
		t.Errorf("failure notification = %+v, want error level", m)
	}
	h.Notify("User blocked successfully")
	if m := h.Flash().Current(); m == nil || m.Text != "User blocked successfully" {
		t.Errorf("info notification = %+v", m)
	}
}

func TestHostConfirmAfterClose(t *testing.T) {
	h := NewHost()
	h.Close()
	if h.Confirm("Block Alice?") {
		t.Error("Confirm() after Close = true, want false")
	}
}
