package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/confchat/internal/api"
	"github.com/matheus3301/confchat/internal/tui/ui"
	"github.com/rivo/tview"
)

// ConversationList is the main chat list view.
type ConversationList struct {
	*tview.Table
	theme   *ui.Theme
	chats   []api.ChatSummary
	visible []api.ChatSummary
	active  api.PartnerID
	filter  string
	now     func() time.Time
}

// NewConversationList creates a new conversation list table.
func NewConversationList(theme *ui.Theme) *ConversationList {
	table := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false).
		SetFixed(1, 0)
	table.SetBorder(true)
	table.SetBorderColor(theme.BorderColor)
	table.SetBackgroundColor(theme.BgColor)
	table.SetSelectedStyle(tcell.StyleDefault.
		Foreground(theme.TableCursorFg).
		Background(theme.TableCursorBg))
	table.SetTitle(" Chats ")
	table.SetTitleColor(theme.TitleColor)

	return &ConversationList{
		Table: table,
		theme: theme,
		now:   time.Now,
	}
}

// Name implements Component.
func (cl *ConversationList) Name() string { return "Chats" }

// Hints implements Component.
func (cl *ConversationList) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Enter", Description: "Open"},
		{Key: "r", Description: "Refresh"},
		{Key: "/", Description: "Search"},
	}
}

// Update refreshes the list with the chat set and the active partner.
func (cl *ConversationList) Update(chats []api.ChatSummary, active api.PartnerID) {
	cl.chats = chats
	cl.active = active
	cl.render()
}

// SetFilter sets the active filter text and re-renders. An empty filter
// shows every chat.
func (cl *ConversationList) SetFilter(filter string) {
	cl.filter = strings.TrimSpace(filter)
	cl.render()
}

// Filter returns the active filter text.
func (cl *ConversationList) Filter() string { return cl.filter }

func (cl *ConversationList) matches(c api.ChatSummary) bool {
	if cl.filter == "" {
		return true
	}
	f := strings.ToLower(cl.filter)
	if strings.Contains(strings.ToLower(c.PartnerName), f) {
		return true
	}
	return c.LastMessagePreview != nil && strings.Contains(strings.ToLower(*c.LastMessagePreview), f)
}

func (cl *ConversationList) render() {
	selected := cl.SelectedChat()
	cl.Clear()

	headers := []struct {
		text string
		exp  int
	}{
		{" ", 0},
		{" NAME", 1},
		{" LAST MESSAGE", 2},
		{" TIME", 0},
		{" UNREAD", 0},
	}
	for col, h := range headers {
		cl.SetCell(0, col, tview.NewTableCell(h.text).
			SetSelectable(false).
			SetTextColor(cl.theme.TableHeaderFg).
			SetBackgroundColor(cl.theme.TableHeaderBg).
			SetAttributes(tcell.AttrBold).
			SetExpansion(h.exp))
	}

	cl.visible = cl.visible[:0]
	now := cl.now()
	selectRow := 0
	for _, chat := range cl.chats {
		if !cl.matches(chat) {
			continue
		}
		cl.visible = append(cl.visible, chat)
		row := len(cl.visible)
		if chat.PartnerID == selected {
			selectRow = row
		}

		color := cl.theme.FgColor
		marker := " "
		if chat.PartnerID == cl.active {
			color = cl.theme.ActiveChatColor
			marker = "▶"
		}

		name := chat.PartnerName
		if chat.PartnerEmoji != "" {
			name = chat.PartnerEmoji + " " + name
		}

		var when string
		if chat.LastMessageTime != nil {
			when = FormatRelative(*chat.LastMessageTime, now)
		}

		unread := tview.NewTableCell("").SetAlign(tview.AlignRight)
		if chat.UnreadCount > 0 {
			unread.SetText(fmt.Sprintf("%d ", chat.UnreadCount)).SetTextColor(cl.theme.UnreadColor)
		}

		cl.SetCell(row, 0, tview.NewTableCell(marker).SetTextColor(color))
		cl.SetCell(row, 1, tview.NewTableCell(" "+tview.Escape(sanitizeForTerminal(name))).SetExpansion(1).SetTextColor(color))
		cl.SetCell(row, 2, tview.NewTableCell(" "+tview.Escape(sanitizeForTerminal(ChatPreview(chat)))).SetExpansion(2).SetTextColor(cl.theme.FgColor))
		cl.SetCell(row, 3, tview.NewTableCell(" "+when).SetTextColor(cl.theme.FgColor).SetAlign(tview.AlignRight))
		cl.SetCell(row, 4, unread)
	}

	if cl.filter != "" {
		cl.SetTitle(fmt.Sprintf(" Chats (%d/%d) filter: %s ", len(cl.visible), len(cl.chats), tview.Escape(cl.filter)))
	} else {
		cl.SetTitle(fmt.Sprintf(" Chats (%d) ", len(cl.chats)))
	}

	if selectRow > 0 {
		cl.Select(selectRow, 0)
	} else if len(cl.visible) > 0 {
		cl.Select(1, 0)
	}
}

// SelectedChat returns the partner of the highlighted row.
func (cl *ConversationList) SelectedChat() api.PartnerID {
	row, _ := cl.GetSelection()
	idx := row - 1
	if idx < 0 || idx >= len(cl.visible) {
		return ""
	}
	return cl.visible[idx].PartnerID
}

// Visible returns the chats that pass the filter, in display order.
func (cl *ConversationList) Visible() []api.ChatSummary {
	out := make([]api.ChatSummary, len(cl.visible))
	copy(out, cl.visible)
	return out
}
