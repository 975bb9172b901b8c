package views

import (
	"fmt"
	"time"

	"github.com/matheus3301/confchat/internal/api"
)

// PreviewLimit is the number of characters of a chat preview kept before
// it is cut with an ellipsis.
const PreviewLimit = 30

// FormatRelative renders t relative to now for the chat list.
func FormatRelative(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "Just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d/time.Minute))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d/time.Hour))
	case t.Year() == now.Year():
		return t.Format("Jan 2")
	default:
		return t.Format("Jan 2, 2006")
	}
}

// FormatMessageTime renders the clock time shown next to a message.
func FormatMessageTime(t time.Time) string {
	return t.Local().Format("03:04 PM")
}

// ChatPreview renders the last-message column of a chat summary.
func ChatPreview(c api.ChatSummary) string {
	if c.LastMessagePreview == nil || *c.LastMessagePreview == "" {
		return "No messages yet"
	}
	text := truncate(*c.LastMessagePreview, PreviewLimit)
	if c.IsLastMessageOwn {
		return "You: " + text
	}
	return text
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
