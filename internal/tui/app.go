package tui

import (
	"context"
	"errors"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/confchat/internal/api"
	"github.com/matheus3301/confchat/internal/host"
	"github.com/matheus3301/confchat/internal/status"
	"github.com/matheus3301/confchat/internal/store"
	intsync "github.com/matheus3301/confchat/internal/sync"
	"github.com/matheus3301/confchat/internal/tui/keys"
	"github.com/matheus3301/confchat/internal/tui/ui"
	"github.com/matheus3301/confchat/internal/tui/views"
	"github.com/rivo/tview"
	"go.uber.org/zap"
)

const (
	pageChats   = "chats"
	pageChat    = "chat"
	pageDetails = "details"
	pageSearch  = "search"
	pageHelp    = "help"

	searchLimit = 50
)

// Options configures the TUI.
type Options struct {
	Host         *Host
	Engine       *intsync.Engine
	Store        *store.DB
	Session      string
	Service      string
	PollInterval time.Duration
	Logger       *zap.Logger
}

// App is the main TUI application shell.
type App struct {
	app      *tview.Application
	host     *Host
	engine   *intsync.Engine
	db       *store.DB
	logger   *zap.Logger
	theme    *ui.Theme
	registry *keys.Registry

	pages       *ui.Pages
	crumbs      *ui.Crumbs
	menu        *ui.Menu
	flashBar    *ui.FlashBar
	sessionInfo *ui.SessionInfo
	prompt      *ui.Prompt
	body        *tview.Flex

	chatList *views.ConversationList
	thread   *views.MessageThread
	details  *views.ConversationInfo
	search   *views.SearchView
	help     *views.HelpView
	comps    map[string]ui.Component

	session      string
	service      string
	pollInterval time.Duration

	snap       intsync.Snapshot
	threadKey  threadKey
	promptOpen bool

	ctx    context.Context
	cancel context.CancelFunc
}

// threadKey identifies what the message thread last rendered.
type threadKey struct {
	state      status.State
	partner    api.PartnerID
	generation uint64
	count      int
	lastID     int64
}

// NewApp creates the TUI application on top of the engine.
func NewApp(opts Options) *App {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	theme := opts.Host.theme
	ctx, cancel := context.WithCancel(context.Background())

	a := &App{
		app:          opts.Host.app,
		host:         opts.Host,
		engine:       opts.Engine,
		db:           opts.Store,
		logger:       logger.Named("tui"),
		theme:        theme,
		registry:     keys.NewRegistry(),
		pages:        ui.NewPages(),
		crumbs:       ui.NewCrumbs(theme),
		menu:         ui.NewMenu(theme),
		flashBar:     ui.NewFlashBar(theme),
		sessionInfo:  ui.NewSessionInfo(theme),
		prompt:       ui.NewPrompt(theme),
		chatList:     views.NewConversationList(theme),
		thread:       views.NewMessageThread(theme),
		details:      views.NewConversationInfo(theme),
		search:       views.NewSearchView(theme),
		help:         views.NewHelpView(theme),
		session:      opts.Session,
		service:      opts.Service,
		pollInterval: opts.PollInterval,
		ctx:          ctx,
		cancel:       cancel,
	}
	a.comps = map[string]ui.Component{
		pageChats:   a.chatList,
		pageChat:    a.thread,
		pageDetails: a.details,
		pageSearch:  a.search,
		pageHelp:    a.help,
	}

	a.setupBindings()
	a.setupCallbacks()
	a.setupLayout()
	a.help.Update(a.helpSections())
	return a
}

func (a *App) setupBindings() {
	a.registry.AddGlobal(&keys.Action{
		Key: tcell.KeyRune, Rune: ':', Description: "Command",
		Handler: func() { a.openPrompt(ui.PromptCommand) },
	})
	a.registry.AddGlobal(&keys.Action{
		Key: tcell.KeyRune, Rune: '?', Description: "Help",
		Handler: func() { a.push(pageHelp) },
	})
	a.registry.AddGlobal(&keys.Action{
		Key: tcell.KeyCtrlC, Description: "Quit", Hidden: true,
		Handler: a.Stop,
	})
	a.registry.AddGlobal(&keys.Action{
		Key: tcell.KeyRune, Rune: 'q', Description: "Quit",
		Handler: a.back,
	})

	a.registry.AddView(pageChats, &keys.Action{
		Key: tcell.KeyRune, Rune: 'r', Description: "Refresh",
		Handler: a.refresh,
	})
	a.registry.AddView(pageChats, &keys.Action{
		Key: tcell.KeyRune, Rune: '/', Description: "Search",
		Handler: func() { a.openPrompt(ui.PromptSearch) },
	})

	for _, page := range []string{pageChat, pageDetails} {
		a.registry.AddView(page, &keys.Action{
			Key: tcell.KeyRune, Rune: 'b', Description: "Block",
			Handler: a.block,
		})
		a.registry.AddView(page, &keys.Action{
			Key: tcell.KeyRune, Rune: 'r', Description: "Refresh",
			Handler: a.refresh,
		})
	}
	a.registry.AddView(pageChat, &keys.Action{
		Key: tcell.KeyRune, Rune: 'i', Description: "Compose",
		Handler: func() { a.app.SetFocus(a.thread.Composer()) },
	})
	a.registry.AddView(pageChat, &keys.Action{
		Key: tcell.KeyRune, Rune: 'd', Description: "Details",
		Handler: func() { a.push(pageDetails) },
	})
}

func (a *App) setupCallbacks() {
	a.chatList.SetSelectedFunc(func(int, int) {
		if id := a.chatList.SelectedChat(); id != "" {
			a.open(id)
		}
	})

	a.thread.SetOnSend(func(text string) {
		go func() {
			if _, err := a.engine.Send(a.ctx, text); err != nil {
				if isInputError(err) {
					a.host.flash.Error(err)
				}
				return
			}
			a.app.QueueUpdateDraw(a.thread.ClearComposer)
		}()
	})

	a.search.SetNameResolver(func(id string) string {
		if c, ok := a.engine.Chats().Lookup(api.PartnerID(id)); ok {
			return c.PartnerName
		}
		return ""
	})
	a.search.SetOnQuery(a.runSearch)
	a.search.Results().SetSelectedFunc(func(int, int) {
		if id := a.search.SelectedPartner(); id != "" {
			a.open(api.PartnerID(id))
		}
	})

	a.prompt.SetOnSubmit(func(mode ui.PromptMode, text string) {
		a.closePrompt()
		switch mode {
		case ui.PromptSearch:
			a.search.SetQuery(text)
			a.push(pageSearch)
			a.runSearch(text)
		case ui.PromptCommand:
			a.runCommand(ParseCommand(text))
		}
	})
	a.prompt.SetOnCancel(a.closePrompt)

	a.pages.SetOnChange(func([]string) {
		a.crumbs.Update(a.crumbLabels())
		a.menu.Update(a.registry.Hints(a.pages.Current()))
	})
}

func (a *App) setupLayout() {
	a.pages.AddPage(pageChats, a.chatList, true, false)
	a.pages.AddPage(pageChat, a.thread, true, false)
	a.pages.AddPage(pageDetails, a.details, true, false)
	a.pages.AddPage(pageSearch, a.search, true, false)
	a.pages.AddPage(pageHelp, a.help, true, false)

	header := tview.NewFlex().
		AddItem(a.sessionInfo, 0, 1, false).
		AddItem(a.menu, 0, 2, false)

	a.body = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(header, 6, 0, false).
		AddItem(a.pages, 0, 1, true).
		AddItem(a.crumbs, 1, 0, false).
		AddItem(a.flashBar, 1, 0, false)

	a.host.root.AddPage("main", a.body, true, true)
	a.app.SetRoot(a.host.root, true)
	a.pages.Reset(pageChats)

	a.app.SetInputCapture(a.handleKey)
}

func (a *App) handleKey(event *tcell.EventKey) *tcell.EventKey {
	if front, _ := a.host.root.GetFrontPage(); front == pageModal {
		return event
	}
	if event.Key() == tcell.KeyCtrlC {
		a.Stop()
		return nil
	}

	// Text inputs own every key except Escape.
	if _, ok := a.app.GetFocus().(*tview.InputField); ok {
		if event.Key() == tcell.KeyEscape && !a.promptOpen {
			a.leaveInput()
			return nil
		}
		return event
	}

	if event.Key() == tcell.KeyEscape {
		a.back()
		return nil
	}
	if a.pages.Current() == pageSearch && event.Key() == tcell.KeyTab {
		a.app.SetFocus(a.search.Input())
		return nil
	}
	if a.registry.HandleEvent(a.pages.Current(), event) {
		return nil
	}
	return event
}

func (a *App) leaveInput() {
	switch a.pages.Current() {
	case pageChat:
		a.app.SetFocus(a.thread.Messages())
	case pageSearch:
		a.app.SetFocus(a.search.Results())
	default:
		a.focusCurrent()
	}
}

func (a *App) push(page string) {
	if a.pages.Current() == page {
		return
	}
	if page == pageDetails {
		a.renderDetails()
	}
	a.pages.Push(page)
	a.focusCurrent()
}

// back pops one page. Leaving the conversation deselects it; on the chat
// list it quits.
func (a *App) back() {
	switch a.pages.Current() {
	case pageChats:
		a.Stop()
		return
	case pageChat:
		// Synchronous so a Select issued by the next open cannot be
		// overtaken by this deselect.
		a.engine.Deselect()
	}
	a.pages.Pop()
	a.focusCurrent()
}

func (a *App) focusCurrent() {
	switch a.pages.Current() {
	case pageChats:
		a.app.SetFocus(a.chatList)
	case pageChat:
		a.app.SetFocus(a.thread.Messages())
	case pageDetails:
		a.app.SetFocus(a.details)
	case pageSearch:
		a.app.SetFocus(a.search.Input())
	case pageHelp:
		a.app.SetFocus(a.help)
	}
}

func (a *App) openPrompt(mode ui.PromptMode) {
	a.prompt.Activate(mode)
	a.promptOpen = true
	a.body.AddItem(a.prompt, 3, 0, false)
	a.app.SetFocus(a.prompt)
}

func (a *App) closePrompt() {
	if !a.promptOpen {
		return
	}
	a.promptOpen = false
	a.body.RemoveItem(a.prompt)
	a.focusCurrent()
}

// open selects partnerID and shows the conversation page at once; the
// engine projection fills it in when history arrives.
func (a *App) open(partnerID api.PartnerID) {
	a.pages.PopTo(pageChats)
	a.pages.Push(pageChat)
	a.app.SetFocus(a.thread.Messages())
	go func() {
		if err := a.engine.Select(a.ctx, partnerID); err != nil {
			a.logger.Debug("select failed", zap.String("partner_id", partnerID.String()), zap.Error(err))
		}
	}()
}

func (a *App) refresh() {
	go func() {
		if err := a.engine.Refresh(a.ctx); err != nil {
			a.logger.Debug("refresh failed", zap.Error(err))
		}
	}()
}

func (a *App) block() {
	go func() {
		err := a.engine.Block(a.ctx)
		switch {
		case err == nil, errors.Is(err, intsync.ErrCancelled):
		case errors.Is(err, intsync.ErrNotActive):
			a.host.Notify("No conversation selected")
		default:
			a.logger.Debug("block failed", zap.Error(err))
		}
	}()
}

func (a *App) runSearch(query string) {
	if a.db == nil {
		a.host.Notify("Search is unavailable without an archive")
		return
	}
	go func() {
		results, err := a.db.SearchMessages(query, "", searchLimit)
		if err != nil {
			a.logger.Warn("archive search failed", zap.String("query", query), zap.Error(err))
			a.host.flash.Error(err)
			return
		}
		a.app.QueueUpdateDraw(func() {
			a.search.Update(results)
			if len(results) > 0 {
				a.app.SetFocus(a.search.Results())
			}
		})
	}()
}

func (a *App) runCommand(cmd Command) {
	if err := cmd.Validate(); err != nil {
		a.host.flash.Error(err)
		return
	}
	switch cmd.Name {
	case CmdQuit:
		a.Stop()
	case CmdRefresh:
		a.refresh()
	case CmdBlock:
		a.block()
	case CmdSearch:
		a.search.SetQuery(cmd.Args)
		a.push(pageSearch)
		a.runSearch(cmd.Args)
	case CmdFilter:
		a.chatList.SetFilter(cmd.Args)
		a.pages.PopTo(pageChats)
		a.focusCurrent()
	case CmdHelp:
		a.push(pageHelp)
	case CmdBack:
		a.back()
	}
}

// render applies an engine snapshot. It runs on the UI goroutine.
func (a *App) render(s intsync.Snapshot) {
	a.snap = s
	a.chatList.Update(s.Chats, s.ActivePartner)

	key := threadKey{state: s.State, partner: s.PartnerID, generation: s.Generation, count: len(s.Messages)}
	if n := len(s.Messages); n > 0 {
		key.lastID = s.Messages[n-1].ID
	}
	if key != a.threadKey {
		a.threadKey = key
		switch s.State {
		case status.Loading:
			a.thread.SetLoading(a.partnerFor(s))
		case status.Active:
			a.thread.Update(s.Partner, s.Messages)
		}
	}
	a.thread.SetSending(s.SendInFlight)

	if s.State == status.NoSelection {
		switch a.pages.Current() {
		case pageChat, pageDetails:
			a.pages.PopTo(pageChats)
			a.focusCurrent()
		}
	}
	if a.pages.Current() == pageDetails {
		a.renderDetails()
	}

	a.sessionInfo.Update(&ui.SessionData{
		Session:      a.session,
		Service:      a.service,
		State:        string(s.State),
		Partner:      a.partnerFor(s).DisplayName,
		Chats:        len(s.Chats),
		Messages:     len(s.Messages),
		PollInterval: a.pollInterval,
	})
	a.crumbs.Update(a.crumbLabels())
}

func (a *App) crumbLabels() []string {
	stack := a.pages.Stack()
	labels := make([]string, 0, len(stack))
	for _, name := range stack {
		labels = append(labels, a.comps[name].Name())
	}
	return labels
}

// partnerFor returns the partner of the snapshot, falling back to the chat
// list while history is loading.
func (a *App) partnerFor(s intsync.Snapshot) api.Partner {
	if s.Partner.ID != "" {
		return s.Partner
	}
	if s.PartnerID == "" {
		return api.Partner{}
	}
	if c, ok := a.engine.Chats().Lookup(s.PartnerID); ok {
		return c.Partner()
	}
	return api.Partner{ID: s.PartnerID, DisplayName: s.PartnerID.String()}
}

func (a *App) renderDetails() {
	p := a.partnerFor(a.snap)
	var summary *api.ChatSummary
	if c, ok := a.engine.Chats().Lookup(p.ID); ok {
		summary = &c
	}
	a.details.Update(p, summary, len(a.snap.Messages))
}

func (a *App) helpSections() []views.HelpSection {
	return []views.HelpSection{
		{Title: "Global", Hints: a.registry.Hints("")},
		{Title: "Chats", Hints: a.chatList.Hints()},
		{Title: "Conversation", Hints: a.thread.Hints()},
		{Title: "Search", Hints: a.search.Hints()},
		{Title: "Commands (:)", Hints: []ui.MenuHint{
			{Key: ":refresh", Description: "Reload chats and the open conversation"},
			{Key: ":block", Description: "Block the open conversation partner"},
			{Key: ":search <q>", Description: "Search the local archive"},
			{Key: ":filter <text>", Description: "Filter the chat list"},
			{Key: ":help", Description: "Show this help"},
			{Key: ":quit", Description: "Quit"},
		}},
	}
}

func (a *App) watchFlash() {
	for {
		select {
		case <-a.ctx.Done():
			return
		case <-a.host.flash.Watch():
			a.app.QueueUpdateDraw(a.drawFlash)
			time.AfterFunc(host.FlashDuration, func() {
				if a.ctx.Err() == nil {
					a.app.QueueUpdateDraw(a.drawFlash)
				}
			})
		}
	}
}

func (a *App) drawFlash() {
	a.flashBar.Update(a.host.flash.Current())
}

// Run loads the chat list and blocks until the UI exits.
func (a *App) Run() error {
	a.engine.SetOnChange(func(s intsync.Snapshot) {
		a.app.QueueUpdateDraw(func() { a.render(s) })
	})
	go a.watchFlash()
	go func() {
		if err := a.engine.LoadChats(a.ctx); err != nil {
			a.logger.Debug("initial chat load failed", zap.Error(err))
		}
	}()

	a.render(a.engine.Snapshot())
	a.focusCurrent()
	err := a.app.Run()
	a.cancel()
	a.host.Close()
	a.engine.SetOnChange(nil)
	return err
}

// Stop gracefully shuts down the TUI.
func (a *App) Stop() {
	a.cancel()
	a.host.Close()
	a.app.Stop()
}

// isInputError reports errors the engine rejects before contacting the
// service; it notifies about the rest itself.
func isInputError(err error) bool {
	return errors.Is(err, api.ErrEmptyMessage) ||
		errors.Is(err, api.ErrMessageTooLong) ||
		errors.Is(err, intsync.ErrNotActive)
}
