package ui

import (
	"fmt"

	"github.com/matheus3301/confchat/internal/host"
	"github.com/rivo/tview"
)

// FlashBar is the UI component that displays notifications.
type FlashBar struct {
	*tview.TextView
	theme *Theme
}

// NewFlashBar creates a new flash notification bar.
func NewFlashBar(theme *Theme) *FlashBar {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(theme.BgColor)

	return &FlashBar{
		TextView: tv,
		theme:    theme,
	}
}

// Update renders a notification; nil clears the bar.
func (fb *FlashBar) Update(msg *host.Message) {
	fb.Clear()
	if msg == nil {
		return
	}

	color := ColorName(fb.theme.FlashInfoColor)
	if msg.Level == host.LevelError {
		color = ColorName(fb.theme.FlashErrColor)
	}
	_, _ = fmt.Fprintf(fb, " [%s]%s[-]", color, tview.Escape(msg.Text))
}
