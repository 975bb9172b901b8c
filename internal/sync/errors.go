package sync

import (
	"errors"
	"fmt"

	"github.com/matheus3301/confchat/internal/api"
)

var (
	// ErrSendInFlight rejects a send while another one is outstanding.
	ErrSendInFlight = errors.New("a message is already being sent")
	// ErrNotActive rejects an action that needs an active conversation.
	ErrNotActive = errors.New("no active conversation")
	// ErrCancelled is returned when the user declines a confirmation.
	ErrCancelled = errors.New("cancelled")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("engine closed")
)

// StaleResultError reports a response that arrived after the conversation it
// was requested for stopped being current. It is logged and never shown.
type StaleResultError struct {
	Partner    api.PartnerID
	Generation uint64
}

func (e *StaleResultError) Error() string {
	return fmt.Sprintf("stale result for partner %s (generation %d)", e.Partner, e.Generation)
}
