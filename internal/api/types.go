package api

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
	"unicode/utf16"
)

// MaxMessageLength is the largest accepted message, in UTF-16 code units.
const MaxMessageLength = 4000

// DefaultMessageLimit is the history tail requested when no limit is given.
const DefaultMessageLimit = 50

// PartnerID identifies the other party of a conversation. The service may
// encode it as a JSON string or number; both decode to the same value.
type PartnerID string

// UnmarshalJSON accepts both quoted and bare numeric identifiers.
func (id *PartnerID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = PartnerID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = PartnerID(n.String())
	return nil
}

func (id PartnerID) String() string { return string(id) }

// Partner is the other party of a one-to-one conversation.
type Partner struct {
	ID          PartnerID `json:"id"`
	DisplayName string    `json:"name"`
	Emoji       string    `json:"emoji"`
}

// ChatSummary is one entry of the chat list.
type ChatSummary struct {
	PartnerID          PartnerID  `json:"partnerId"`
	PartnerName        string     `json:"partnerName"`
	PartnerEmoji       string     `json:"partnerEmoji"`
	LastMessagePreview *string    `json:"lastMessage,omitempty"`
	LastMessageTime    *time.Time `json:"lastMessageTime,omitempty"`
	IsLastMessageOwn   bool       `json:"isOwn"`
	UnreadCount        int        `json:"unreadCount"`
}

// Partner returns the denormalized partner fields of the summary.
func (s ChatSummary) Partner() Partner {
	return Partner{ID: s.PartnerID, DisplayName: s.PartnerName, Emoji: s.PartnerEmoji}
}

// MessageKind classifies message content.
type MessageKind string

const (
	KindText      MessageKind = "text"
	KindSticker   MessageKind = "sticker"
	KindAnimation MessageKind = "animation"
	KindEmpty     MessageKind = "empty"
)

// Message is a single message of a conversation. IDs are assigned by the
// service and never decrease in insertion order.
type Message struct {
	ID           int64     `json:"id"`
	Text         string    `json:"text,omitempty"`
	HasSticker   bool      `json:"hasSticker,omitempty"`
	HasAnimation bool      `json:"hasAnimation,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
	IsOwn        bool      `json:"isOwn"`
}

// Kind reports which content marker the message carries.
func (m Message) Kind() MessageKind {
	switch {
	case m.Text != "":
		return KindText
	case m.HasSticker:
		return KindSticker
	case m.HasAnimation:
		return KindAnimation
	default:
		return KindEmpty
	}
}

// Validate checks that at most one content marker is set.
func (m Message) Validate() error {
	n := 0
	if m.Text != "" {
		n++
	}
	if m.HasSticker {
		n++
	}
	if m.HasAnimation {
		n++
	}
	if n > 1 {
		return ErrMixedContent
	}
	return nil
}

// Preview returns the text shown for the message body.
func (m Message) Preview() string {
	switch m.Kind() {
	case KindText:
		return m.Text
	case KindSticker:
		return "🎨 Sticker"
	case KindAnimation:
		return "🎬 GIF"
	default:
		return ""
	}
}

// Conversation is the response of a history fetch.
type Conversation struct {
	Partner  Partner   `json:"partner"`
	Messages []Message `json:"messages"`
}

// TextLength counts s in UTF-16 code units, the unit MaxMessageLength uses.
func TextLength(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

// NormalizeText trims s and checks it against the message length bounds.
func NormalizeText(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrEmptyMessage
	}
	if TextLength(s) > MaxMessageLength {
		return "", ErrMessageTooLong
	}
	return s, nil
}
