package tui

import (
	"errors"
	"strings"
	"sync"

	"github.com/matheus3301/confchat/internal/host"
	"github.com/matheus3301/confchat/internal/tui/ui"
	"github.com/rivo/tview"
)

const (
	pageModal     = "modal"
	confirmLabel  = "Block"
	dismissLabel  = "Cancel"
	failurePrefix = "Failed"
)

// Host answers engine prompts with a modal dialog and shows notifications
// in the flash bar. Confirm must not be called from the UI goroutine.
type Host struct {
	app   *tview.Application
	root  *tview.Pages
	theme *ui.Theme
	flash *host.Flash

	confirmMu sync.Mutex
	done      chan struct{}
	stopOnce  sync.Once
}

var _ host.Host = (*Host)(nil)

// NewHost creates a host bound to a new tview application.
func NewHost() *Host {
	return &Host{
		app:   tview.NewApplication(),
		root:  tview.NewPages(),
		theme: ui.DefaultTheme(),
		flash: host.NewFlash(),
		done:  make(chan struct{}),
	}
}

// Application returns the tview application the host draws on.
func (h *Host) Application() *tview.Application { return h.app }

// Flash returns the notification holder.
func (h *Host) Flash() *host.Flash { return h.flash }

// Confirm shows a modal and blocks until the user picks a button. It
// returns false once the host is closed.
func (h *Host) Confirm(prompt string) bool {
	h.confirmMu.Lock()
	defer h.confirmMu.Unlock()
	select {
	case <-h.done:
		return false
	default:
	}

	answer := make(chan bool, 1)
	h.app.QueueUpdateDraw(func() {
		prev := h.app.GetFocus()
		modal := tview.NewModal().
			SetText(prompt).
			AddButtons([]string{confirmLabel, dismissLabel}).
			SetDoneFunc(func(_ int, label string) {
				h.root.RemovePage(pageModal)
				if prev != nil {
					h.app.SetFocus(prev)
				}
				answer <- label == confirmLabel
			})
		modal.SetBackgroundColor(h.theme.BgColor)
		modal.SetBorderColor(h.theme.BorderFocusColor)
		h.root.AddPage(pageModal, modal, false, true)
		h.app.SetFocus(modal)
	})

	select {
	case ok := <-answer:
		return ok
	case <-h.done:
		return false
	}
}

// Notify shows msg in the flash bar. Failure messages use the error style.
func (h *Host) Notify(msg string) {
	if strings.HasPrefix(msg, failurePrefix) {
		h.flash.Error(errors.New(msg))
		return
	}
	h.flash.Notify(msg)
}

// Close releases any pending Confirm.
func (h *Host) Close() {
	h.stopOnce.Do(func() { close(h.done) })
}
