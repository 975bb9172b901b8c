package bus

import "time"

// Event kinds published by the synchronization engine and its collaborators.
const (
	KindSelectionChanged   = "selection.changed"
	KindConversationLoaded = "conversation.loaded"
	KindMessagesReconciled = "messages.reconciled"
	KindMessagesAppended   = "messages.appended"
	KindChatsRefreshed     = "chats.refreshed"
	KindPartnerBlocked     = "partner.blocked"
)

// Event represents a domain event published on the bus.
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}

// NewEvent stamps an event with the current time.
func NewEvent(kind string, payload any) Event {
	return Event{Kind: kind, Timestamp: time.Now(), Payload: payload}
}
