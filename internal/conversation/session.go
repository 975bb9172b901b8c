package conversation

import (
	"context"
	"time"

	"github.com/matheus3301/confchat/internal/api"
)

// Ticket identifies the conversation generation an asynchronous request was
// dispatched for.
type Ticket struct {
	Partner    api.PartnerID
	Generation uint64
}

// Session is the state of the selected conversation: partner, messages, the
// poll bound to the selection and the send-in-flight flag. Every selection
// change starts a new generation with a fresh message list. The send flag
// outlives selection changes so at most one send is outstanding per session.
// Session is not safe for concurrent use.
type Session struct {
	active       api.PartnerID
	partner      *api.Partner
	generation   uint64
	messages     MessageStore
	poller       *Poller
	sendInFlight bool
}

// Begin starts a new generation for partnerID. The previous poll is stopped
// and the message list cleared before the ticket is returned.
func (s *Session) Begin(partnerID api.PartnerID) Ticket {
	s.reset()
	s.active = partnerID
	return s.Ticket()
}

// End clears the selection.
func (s *Session) End() {
	s.reset()
}

func (s *Session) reset() {
	s.poller.Stop()
	s.poller = nil
	s.generation++
	s.active = ""
	s.partner = nil
	s.messages.Clear()
}

// Ticket returns the ticket of the current generation.
func (s *Session) Ticket() Ticket {
	return Ticket{Partner: s.active, Generation: s.generation}
}

// Current reports whether a result dispatched under t may still be applied:
// the same partner is active and no selection change happened since.
func (s *Session) Current(t Ticket) bool {
	return s.active != "" && s.active == t.Partner && s.generation == t.Generation
}

// Active returns the selected partner ID, empty when nothing is selected.
func (s *Session) Active() api.PartnerID { return s.active }

// Partner returns the partner details once history has been installed.
func (s *Session) Partner() (api.Partner, bool) {
	if s.partner == nil {
		return api.Partner{}, false
	}
	return *s.partner, true
}

// Install sets the partner and replaces the message list.
func (s *Session) Install(p api.Partner, msgs []api.Message) {
	s.partner = &p
	s.messages.Replace(msgs)
}

// Messages exposes the message store of the current generation.
func (s *Session) Messages() *MessageStore { return &s.messages }

// StartPolling replaces any running poll with a new one calling tick every
// interval.
func (s *Session) StartPolling(ctx context.Context, interval time.Duration, tick func(context.Context)) {
	s.poller.Stop()
	s.poller = StartPoller(ctx, interval, tick)
}

// StopPolling stops the poll without touching the selection.
func (s *Session) StopPolling() {
	s.poller.Stop()
	s.poller = nil
}

// Polling reports whether a poll is bound to the selection.
func (s *Session) Polling() bool { return s.poller != nil }

// SendInFlight reports whether a send is outstanding.
func (s *Session) SendInFlight() bool { return s.sendInFlight }

// SetSendInFlight marks the start or end of a send.
func (s *Session) SetSendInFlight(v bool) { s.sendInFlight = v }
