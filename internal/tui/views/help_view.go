package views

import (
	"fmt"
	"strings"

	"github.com/matheus3301/confchat/internal/tui/ui"
	"github.com/rivo/tview"
)

// HelpSection is a titled group of key descriptions.
type HelpSection struct {
	Title string
	Hints []ui.MenuHint
}

// HelpView displays key binding reference.
type HelpView struct {
	*tview.TextView
	theme *ui.Theme
}

// NewHelpView creates a new help view.
func NewHelpView(theme *ui.Theme) *HelpView {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitle(" Help ")
	tv.SetTitleColor(theme.TitleColor)

	return &HelpView{
		TextView: tv,
		theme:    theme,
	}
}

// Name implements Component.
func (hv *HelpView) Name() string { return "Help" }

// Hints implements Component.
func (hv *HelpView) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Esc", Description: "Back"},
	}
}

// Update renders the given sections.
func (hv *HelpView) Update(sections []HelpSection) {
	hv.Clear()
	_, _ = fmt.Fprint(hv, RenderHelp(sections, ui.ColorName(hv.theme.MenuKeyColor)))
}

// RenderHelp formats help sections as tview markup.
func RenderHelp(sections []HelpSection, keyColor string) string {
	var b strings.Builder
	for _, s := range sections {
		fmt.Fprintf(&b, "\n  [::b]%s[-:-:-]\n\n", s.Title)
		for _, h := range s.Hints {
			fmt.Fprintf(&b, "  [%s]%-16s[-:-:-] %s\n", keyColor, tview.Escape(h.Key), h.Description)
		}
	}
	return b.String()
}
