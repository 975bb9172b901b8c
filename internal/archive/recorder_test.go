package archive

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/matheus3301/confchat/internal/api"
	"github.com/matheus3301/confchat/internal/bus"
	"github.com/matheus3301/confchat/internal/store"
)

func testDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "archive.db"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func conversation(id api.PartnerID, texts ...string) api.Conversation {
	c := api.Conversation{Partner: api.Partner{ID: id, DisplayName: string(id)}}
	for i, text := range texts {
		c.Messages = append(c.Messages, api.Message{
			ID:        int64(i + 1),
			Text:      text,
			Timestamp: time.UnixMilli(int64(i+1) * 1000),
		})
	}
	return c
}

func TestRecordConversationIdempotent(t *testing.T) {
	db := testDB(t)
	r := NewRecorder(db, bus.New(), nil)

	evt := bus.NewEvent(bus.KindConversationLoaded, conversation("alice", "hi", "there"))
	for i := 0; i < 3; i++ {
		if err := r.Record(evt); err != nil {
			t.Fatal(err)
		}
	}

	msgs, err := db.ListMessages("alice", 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	if msgs[0].Body != "there" || msgs[0].Timestamp != 2000 {
		t.Errorf("newest = %+v", msgs[0])
	}
}

func TestRecordStickerKind(t *testing.T) {
	db := testDB(t)
	r := NewRecorder(db, bus.New(), nil)

	conv := api.Conversation{
		Partner:  api.Partner{ID: "bob"},
		Messages: []api.Message{{ID: 7, HasSticker: true}},
	}
	if err := r.Record(bus.NewEvent(bus.KindMessagesAppended, conv)); err != nil {
		t.Fatal(err)
	}
	msgs, err := db.ListMessages("bob", 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 1 || msgs[0].Kind != "sticker" {
		t.Errorf("messages = %+v", msgs)
	}
}

func TestRecordChatsAndBlock(t *testing.T) {
	db := testDB(t)
	r := NewRecorder(db, bus.New(), nil)

	preview := "see you"
	at := time.UnixMilli(5000)
	summaries := []api.ChatSummary{
		{PartnerID: "alice", PartnerName: "Alice", LastMessagePreview: &preview, LastMessageTime: &at, UnreadCount: 1},
		{PartnerID: "bob", PartnerName: "Bob"},
	}
	if err := r.Record(bus.NewEvent(bus.KindChatsRefreshed, summaries)); err != nil {
		t.Fatal(err)
	}
	if err := r.Record(bus.NewEvent(bus.KindConversationLoaded, conversation("alice", "hi"))); err != nil {
		t.Fatal(err)
	}

	c, err := db.GetChat("alice")
	if err != nil {
		t.Fatal(err)
	}
	if c == nil || c.LastMessagePreview != "see you" || c.LastMessageAt != 5000 || c.UnreadCount != 1 {
		t.Fatalf("chat = %+v", c)
	}

	if err := r.Record(bus.NewEvent(bus.KindPartnerBlocked, api.PartnerID("alice"))); err != nil {
		t.Fatal(err)
	}
	if c, _ := db.GetChat("alice"); c != nil {
		t.Error("blocked chat still archived")
	}
	if msgs, _ := db.ListMessages("alice", 0, 10); len(msgs) != 0 {
		t.Errorf("blocked messages still archived: %+v", msgs)
	}
}

func TestRecordIgnoresUnknownPayloads(t *testing.T) {
	r := NewRecorder(testDB(t), bus.New(), nil)
	for _, evt := range []bus.Event{
		bus.NewEvent(bus.KindSelectionChanged, "anything"),
		bus.NewEvent(bus.KindConversationLoaded, "not a conversation"),
		bus.NewEvent(bus.KindMessagesAppended, api.Conversation{}),
		bus.NewEvent(bus.KindPartnerBlocked, 42),
	} {
		if err := r.Record(evt); err != nil {
			t.Errorf("Record(%s) = %v", evt.Kind, err)
		}
	}
}

func TestRecorderFollowsBus(t *testing.T) {
	db := testDB(t)
	b := bus.New()
	r := NewRecorder(db, b, nil)
	r.Start(context.Background())
	defer r.Stop()

	b.Publish(bus.NewEvent(bus.KindMessagesReconciled, conversation("carol", "one", "two", "three")))

	deadline := time.Now().Add(2 * time.Second)
	for {
		results, err := db.SearchMessages("two", "carol", 10)
		if err != nil {
			t.Fatal(err)
		}
		if len(results) == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("recorder did not archive the reconciled messages")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestStopUnsubscribes(t *testing.T) {
	b := bus.New()
	r := NewRecorder(testDB(t), b, nil)
	r.Start(context.Background())
	if b.Subscribers() != 1 {
		t.Fatalf("subscribers = %d, want 1", b.Subscribers())
	}
	r.Stop()
	if b.Subscribers() != 0 {
		t.Errorf("subscribers after Stop = %d, want 0", b.Subscribers())
	}
	// Stop on a recorder that never started is a no-op.
	NewRecorder(nil, b, nil).Stop()
}
