package ui

import (
	"fmt"
	"time"

	"github.com/rivo/tview"
)

// SessionData holds session information for display.
type SessionData struct {
	Session      string
	Service      string
	State        string
	Partner      string
	Chats        int
	Messages     int
	PollInterval time.Duration
}

// SessionInfo displays session metadata in the header.
type SessionInfo struct {
	*tview.TextView
	theme *Theme
}

// NewSessionInfo creates a new session info panel.
func NewSessionInfo(theme *Theme) *SessionInfo {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetBorderPadding(0, 0, 1, 1)

	return &SessionInfo{
		TextView: tv,
		theme:    theme,
	}
}

// Update renders the session info.
func (si *SessionInfo) Update(data *SessionData) {
	si.Clear()
	if data == nil {
		return
	}

	fg := ColorName(si.theme.FgColor)
	ct := ColorName(si.theme.CounterColor)

	partner := data.Partner
	if partner == "" {
		partner = "-"
	}

	text := fmt.Sprintf(
		"[%s::b]Session:[-:-:-] [%s]%s[-]\n"+
			"[%s::b]Service:[-:-:-] [%s]%s[-]\n"+
			"[%s::b]State:[-:-:-]   [%s]%s[-]\n"+
			"[%s::b]Partner:[-:-:-] [%s]%s[-]\n"+
			"[%s::b]Chats:[-:-:-]   [%s]%d[-]\n"+
			"[%s::b]Msgs:[-:-:-]    [%s]%d[-] [%s](poll %s)[-]",
		fg, ct, tview.Escape(data.Session),
		fg, ct, tview.Escape(data.Service),
		fg, ct, data.State,
		fg, ct, tview.Escape(partner),
		fg, ct, data.Chats,
		fg, ct, data.Messages, fg, data.PollInterval,
	)

	_, _ = fmt.Fprint(si, text)
}
