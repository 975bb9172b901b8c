package views

import (
	"fmt"
	"time"

	"github.com/matheus3301/confchat/internal/api"
	"github.com/matheus3301/confchat/internal/tui/ui"
	"github.com/rivo/tview"
)

// ConversationInfo displays details about the active partner.
type ConversationInfo struct {
	*tview.TextView
	theme *ui.Theme
}

// NewConversationInfo creates a new conversation info view.
func NewConversationInfo(theme *ui.Theme) *ConversationInfo {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitle(" Details ")
	tv.SetTitleColor(theme.TitleColor)

	return &ConversationInfo{
		TextView: tv,
		theme:    theme,
	}
}

// Name implements Component.
func (ci *ConversationInfo) Name() string { return "Details" }

// Hints implements Component.
func (ci *ConversationInfo) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "b", Description: "Block"},
		{Key: "Esc", Description: "Back"},
	}
}

// Update renders the partner with its chat summary, if the list has one,
// and the number of loaded messages.
func (ci *ConversationInfo) Update(partner api.Partner, summary *api.ChatSummary, loaded int) {
	ci.Clear()
	if partner.ID == "" {
		return
	}

	fg := ui.ColorName(ci.theme.FgColor)
	ct := ui.ColorName(ci.theme.CounterColor)

	lastActive, unread := "-", 0
	if summary != nil {
		if summary.LastMessageTime != nil {
			lastActive = FormatRelative(*summary.LastMessageTime, time.Now())
		}
		unread = summary.UnreadCount
	}

	text := fmt.Sprintf(
		"\n [%s::b]Name:[-:-:-]         [%s]%s[-]\n"+
			" [%s::b]ID:[-:-:-]           [%s]%s[-]\n"+
			" [%s::b]Unread:[-:-:-]       [%s]%d[-]\n"+
			" [%s::b]Last Active:[-:-:-]  [%s]%s[-]\n"+
			" [%s::b]Loaded:[-:-:-]       [%s]%d messages[-]",
		fg, ct, tview.Escape(sanitizeForTerminal(partner.Emoji+" "+partner.DisplayName)),
		fg, ct, tview.Escape(partner.ID.String()),
		fg, ct, unread,
		fg, ct, lastActive,
		fg, ct, loaded,
	)

	_, _ = fmt.Fprint(ci, text)
	ci.SetTitle(fmt.Sprintf(" %s Details ", tview.Escape(sanitizeForTerminal(partner.DisplayName))))
}
