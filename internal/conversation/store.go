package conversation

import "github.com/matheus3301/confchat/internal/api"

// MessageStore is the ordered message list of the active conversation. It is
// not safe for concurrent use; the owning engine serializes access.
type MessageStore struct {
	messages []api.Message
}

// Len returns the number of messages held.
func (s *MessageStore) Len() int { return len(s.messages) }

// Messages returns a copy of the messages, oldest first.
func (s *MessageStore) Messages() []api.Message {
	return append([]api.Message(nil), s.messages...)
}

// Last returns the most recent message.
func (s *MessageStore) Last() (api.Message, bool) {
	if len(s.messages) == 0 {
		return api.Message{}, false
	}
	return s.messages[len(s.messages)-1], true
}

// Append adds a message at the end without waiting for the next poll and
// reports whether it did. A message whose ID is already held is skipped; a
// poll that lands while the send reply is in transit may have installed it.
func (s *MessageStore) Append(m api.Message) bool {
	for i := len(s.messages) - 1; i >= 0; i-- {
		if s.messages[i].ID == m.ID {
			return false
		}
	}
	s.messages = append(s.messages, m)
	return true
}

// Replace installs msgs unconditionally.
func (s *MessageStore) Replace(msgs []api.Message) {
	s.messages = append(make([]api.Message, 0, len(msgs)), msgs...)
}

// Reconcile installs fresh only when it is strictly longer than the local
// list and reports whether it did. Equal or shorter snapshots are ignored, so
// repeated identical polls are no-ops and an out-of-order response never
// shrinks the list. A same-length edit or deletion on the server is therefore
// not picked up until the list grows.
//
// Polls fetch a bounded window. Once a conversation holds that many messages
// every poll returns a window of the same length, so new messages stop
// arriving by poll and show up only after Replace (a reselect or a manual
// refresh).
func (s *MessageStore) Reconcile(fresh []api.Message) bool {
	if len(fresh) <= len(s.messages) {
		return false
	}
	s.Replace(fresh)
	return true
}

// Clear drops every message.
func (s *MessageStore) Clear() {
	s.messages = nil
}
