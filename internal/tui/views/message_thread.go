package views

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/confchat/internal/api"
	"github.com/matheus3301/confchat/internal/tui/ui"
	"github.com/rivo/tview"
)

// MessageThread displays messages and a composer for the active chat.
type MessageThread struct {
	*tview.Flex
	theme    *ui.Theme
	messages *tview.TextView
	composer *tview.InputField
	partner  api.Partner
	sending  bool
	onSend   func(text string)
}

// NewMessageThread creates a new message thread view.
func NewMessageThread(theme *ui.Theme) *MessageThread {
	messages := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWordWrap(true)
	messages.SetBorder(true)
	messages.SetBorderColor(theme.BorderColor)
	messages.SetBackgroundColor(theme.BgColor)
	messages.SetTextColor(theme.FgColor)
	messages.SetTitle(" Messages ")
	messages.SetTitleColor(theme.TitleColor)

	composer := tview.NewInputField().
		SetLabel(" > ").
		SetFieldWidth(0)
	composer.SetBorder(true)
	composer.SetBorderColor(theme.BorderColor)
	composer.SetBackgroundColor(theme.BgColor)
	composer.SetFieldBackgroundColor(theme.BgColor)
	composer.SetFieldTextColor(theme.FgColor)
	composer.SetLabelColor(theme.MenuKeyColor)
	composer.SetTitleColor(theme.TitleColor)

	flex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(messages, 0, 1, true).
		AddItem(composer, 3, 0, false)

	mt := &MessageThread{
		Flex:     flex,
		theme:    theme,
		messages: messages,
		composer: composer,
	}

	composer.SetAcceptanceFunc(func(text string, _ rune) bool {
		return api.TextLength(text) <= api.MaxMessageLength
	})
	composer.SetChangedFunc(func(string) { mt.updateComposerTitle() })
	composer.SetDoneFunc(func(key tcell.Key) {
		if key != tcell.KeyEnter || mt.onSend == nil || mt.sending {
			return
		}
		if text := composer.GetText(); text != "" {
			mt.onSend(text)
		}
	})
	mt.updateComposerTitle()

	return mt
}

// Name implements Component.
func (mt *MessageThread) Name() string {
	if mt.partner.DisplayName != "" {
		return mt.partner.DisplayName
	}
	return "Messages"
}

// Hints implements Component.
func (mt *MessageThread) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "i", Description: "Compose"},
		{Key: "d", Description: "Details"},
		{Key: "b", Description: "Block"},
		{Key: "r", Description: "Refresh"},
		{Key: "Esc", Description: "Back"},
	}
}

// SetOnSend sets the callback for Enter in the composer. The composer keeps
// its text until ClearComposer is called.
func (mt *MessageThread) SetOnSend(fn func(text string)) {
	mt.onSend = fn
}

// SetLoading shows the loading placeholder for partner.
func (mt *MessageThread) SetLoading(partner api.Partner) {
	mt.setPartner(partner)
	mt.messages.Clear()
	_, _ = fmt.Fprint(mt.messages, "\n [::d]Loading messages...[-:-:-]")
}

// Update renders the conversation with partner.
func (mt *MessageThread) Update(partner api.Partner, msgs []api.Message) {
	mt.setPartner(partner)
	mt.messages.Clear()

	if len(msgs) == 0 {
		_, _ = fmt.Fprint(mt.messages, "\n [::d]No messages yet. Say hi![-:-:-]")
		return
	}

	own := ui.ColorName(mt.theme.OwnMessageColor)
	peer := ui.ColorName(mt.theme.PeerMessageColor)
	for _, m := range msgs {
		sender, color := partner.DisplayName, peer
		if m.IsOwn {
			sender, color = "You", own
		}
		line := fmt.Sprintf("[%s::b]%s[-:-:-] [::d]%s[-:-:-]\n%s\n\n",
			color, tview.Escape(sanitizeForTerminal(sender)), FormatMessageTime(m.Timestamp),
			tview.Escape(sanitizeForTerminal(m.Preview())))
		_, _ = fmt.Fprint(mt.messages, line)
	}

	mt.messages.ScrollToEnd()
}

// SetSending disables the composer while a send is in flight.
func (mt *MessageThread) SetSending(sending bool) {
	mt.sending = sending
	mt.composer.SetDisabled(sending)
	mt.updateComposerTitle()
}

// Sending reports whether the composer is locked for a pending send.
func (mt *MessageThread) Sending() bool { return mt.sending }

// ClearComposer empties the composer after a successful send.
func (mt *MessageThread) ClearComposer() {
	mt.composer.SetText("")
}

func (mt *MessageThread) setPartner(p api.Partner) {
	mt.partner = p
	title := p.DisplayName
	if p.Emoji != "" {
		title = p.Emoji + " " + title
	}
	mt.messages.SetTitle(fmt.Sprintf(" %s ", tview.Escape(sanitizeForTerminal(title))))
}

func (mt *MessageThread) updateComposerTitle() {
	n := api.TextLength(mt.composer.GetText())
	if mt.sending {
		mt.composer.SetTitle(" Sending... ")
		return
	}
	color := ui.ColorName(mt.theme.CounterColor)
	if n >= api.MaxMessageLength {
		color = ui.ColorName(mt.theme.LimitColor)
	}
	mt.composer.SetTitle(fmt.Sprintf(" Compose [%s]%d/%d[-] ", color, n, api.MaxMessageLength))
}

// Partner returns the partner currently shown.
func (mt *MessageThread) Partner() api.Partner { return mt.partner }

// Messages returns the messages text view (for focus management).
func (mt *MessageThread) Messages() *tview.TextView {
	return mt.messages
}

// Composer returns the composer input field (for focus management).
func (mt *MessageThread) Composer() *tview.InputField {
	return mt.composer
}
