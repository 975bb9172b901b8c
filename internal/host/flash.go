package host

import (
	"sync"
	"time"
)

// FlashDuration is how long a notification stays visible.
const FlashDuration = 3 * time.Second

// Level is the severity of a notification.
type Level int

const (
	LevelInfo Level = iota
	LevelError
)

// Message is a notification with its expiry.
type Message struct {
	Text    string
	Level   Level
	Expires time.Time
}

// Flash holds the most recent notification until it expires. Watch delivers
// every new notification so a view can redraw.
type Flash struct {
	mu      sync.RWMutex
	current Message
	watchCh chan Message
	now     func() time.Time
}

// NewFlash creates an empty flash.
func NewFlash() *Flash {
	return &Flash{
		watchCh: make(chan Message, 8),
		now:     time.Now,
	}
}

// Notify stores an info notification.
func (f *Flash) Notify(msg string) {
	f.set(msg, LevelInfo)
}

// Error stores an error notification.
func (f *Flash) Error(err error) {
	f.set(err.Error(), LevelError)
}

func (f *Flash) set(text string, level Level) {
	m := Message{Text: text, Level: level, Expires: f.now().Add(FlashDuration)}
	f.mu.Lock()
	f.current = m
	f.mu.Unlock()
	select {
	case f.watchCh <- m:
	default:
	}
}

// Current returns the live notification, or nil once expired.
func (f *Flash) Current() *Message {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.current.Text == "" || !f.now().Before(f.current.Expires) {
		return nil
	}
	m := f.current
	return &m
}

// Watch returns the channel of new notifications.
func (f *Flash) Watch() <-chan Message {
	return f.watchCh
}
