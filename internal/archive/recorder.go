// Package archive mirrors what the engine shows into the local store so it
// can be searched offline.
package archive

import (
	"context"
	"fmt"

	"github.com/matheus3301/confchat/internal/api"
	"github.com/matheus3301/confchat/internal/bus"
	"github.com/matheus3301/confchat/internal/store"
	"go.uber.org/zap"
)

// Recorder subscribes to engine events on the bus and writes them to the
// store. Every write is idempotent, so replayed histories are harmless.
type Recorder struct {
	db     *store.DB
	bus    *bus.Bus
	logger *zap.Logger
	cancel context.CancelFunc
	done   chan struct{}
}

// NewRecorder creates a recorder.
func NewRecorder(db *store.DB, b *bus.Bus, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{
		db:     db,
		bus:    b,
		logger: logger.Named("archive"),
	}
}

// Start subscribes to the bus. Events other than chat and message
// changes are ignored.
func (r *Recorder) Start(ctx context.Context) {
	ctx, r.cancel = context.WithCancel(ctx)
	r.done = make(chan struct{})
	// One subscription for every kind keeps the events in publish order.
	ch, unsub := r.bus.Subscribe("", 256)

	go func() {
		defer close(r.done)
		defer unsub()
		for {
			select {
			case evt := <-ch:
				r.handle(evt)
			case <-ctx.Done():
				r.drain(ch)
				return
			}
		}
	}()
}

// drain records the events already queued when the recorder stops.
func (r *Recorder) drain(ch <-chan bus.Event) {
	for {
		select {
		case evt := <-ch:
			r.handle(evt)
		default:
			return
		}
	}
}

// Stop unsubscribes and waits for queued writes to finish.
func (r *Recorder) Stop() {
	if r.cancel == nil {
		return
	}
	r.cancel()
	<-r.done
}

func (r *Recorder) handle(evt bus.Event) {
	if err := r.Record(evt); err != nil {
		r.logger.Error("failed to archive event", zap.String("kind", evt.Kind), zap.Error(err))
	}
}

// Record applies a single event to the store. Unknown kinds are ignored.
func (r *Recorder) Record(evt bus.Event) error {
	switch evt.Kind {
	case bus.KindChatsRefreshed:
		summaries, ok := evt.Payload.([]api.ChatSummary)
		if !ok {
			return nil
		}
		chats := make([]store.Chat, 0, len(summaries))
		for _, s := range summaries {
			chats = append(chats, chatFromSummary(s))
		}
		if err := r.db.ReplaceChats(chats); err != nil {
			return fmt.Errorf("replace chats: %w", err)
		}

	case bus.KindConversationLoaded, bus.KindMessagesReconciled, bus.KindMessagesAppended:
		conv, ok := evt.Payload.(api.Conversation)
		if !ok || conv.Partner.ID == "" {
			return nil
		}
		msgs := make([]store.Message, 0, len(conv.Messages))
		for _, m := range conv.Messages {
			msgs = append(msgs, messageFromAPI(conv.Partner.ID, m))
		}
		n, err := r.db.UpsertMessages(msgs)
		if err != nil {
			return fmt.Errorf("upsert messages: %w", err)
		}
		if n > 0 {
			r.logger.Debug("messages archived", zap.String("partner_id", conv.Partner.ID.String()), zap.Int("written", n))
		}

	case bus.KindPartnerBlocked:
		id, ok := evt.Payload.(api.PartnerID)
		if !ok {
			return nil
		}
		if err := r.db.DeleteConversation(id.String()); err != nil {
			return fmt.Errorf("delete conversation: %w", err)
		}
	}
	return nil
}

func chatFromSummary(s api.ChatSummary) store.Chat {
	c := store.Chat{
		PartnerID:      s.PartnerID.String(),
		Name:           s.PartnerName,
		Emoji:          s.PartnerEmoji,
		LastMessageOwn: s.IsLastMessageOwn,
		UnreadCount:    s.UnreadCount,
	}
	if s.LastMessagePreview != nil {
		c.LastMessagePreview = *s.LastMessagePreview
	}
	if s.LastMessageTime != nil {
		c.LastMessageAt = s.LastMessageTime.UnixMilli()
	}
	return c
}

func messageFromAPI(partnerID api.PartnerID, m api.Message) store.Message {
	return store.Message{
		PartnerID: partnerID.String(),
		MsgID:     m.ID,
		Body:      m.Text,
		Kind:      string(m.Kind()),
		IsOwn:     m.IsOwn,
		Timestamp: m.Timestamp.UnixMilli(),
	}
}
