package store

// Chat is an archived chat summary. Position keeps the service order of the
// last refresh.
type Chat struct {
	PartnerID          string
	Name               string
	Emoji              string
	LastMessagePreview string
	LastMessageAt      int64
	LastMessageOwn     bool
	UnreadCount        int
	Position           int
}

// Message is an archived message, unique on (PartnerID, MsgID).
type Message struct {
	ID        int64
	PartnerID string
	MsgID     int64
	Body      string
	Kind      string
	IsOwn     bool
	Timestamp int64
}

// SearchResult holds a message with a search snippet.
type SearchResult struct {
	Message Message
	Snippet string
}
