// Package sync keeps the selected conversation consistent with the remote
// service: selection, history polling, sending and blocking.
package sync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/matheus3301/confchat/internal/api"
	"github.com/matheus3301/confchat/internal/bus"
	"github.com/matheus3301/confchat/internal/chatlist"
	"github.com/matheus3301/confchat/internal/conversation"
	"github.com/matheus3301/confchat/internal/host"
	"github.com/matheus3301/confchat/internal/status"
	"go.uber.org/zap"
)

// User-facing notifications.
const (
	msgLoadChatsFailed    = "Failed to load chats"
	msgLoadMessagesFailed = "Failed to load messages"
	msgSendFailed         = "Failed to send message"
	msgBlockFailed        = "Failed to block user"
	msgBlocked            = "User blocked successfully"
)

// Remote is the part of the service the engine needs.
type Remote interface {
	ListChats(ctx context.Context) ([]api.ChatSummary, error)
	FetchMessages(ctx context.Context, partnerID api.PartnerID, limit int) (*api.Conversation, error)
	SendMessage(ctx context.Context, partnerID api.PartnerID, text string) (*api.Message, error)
	BlockPartner(ctx context.Context, partnerID api.PartnerID) error
}

// Options configures an Engine. Zero values fall back to defaults.
type Options struct {
	PollInterval time.Duration
	MessageLimit int
	Logger       *zap.Logger
	Bus          *bus.Bus
	Host         host.Host
	Machine      *status.Machine
	Chats        *chatlist.Manager
	// OnChange is called with a fresh snapshot after every state change.
	OnChange func(Snapshot)
}

// Snapshot is a copy of the engine state for rendering.
type Snapshot struct {
	State         status.State
	PartnerID     api.PartnerID
	Partner       api.Partner
	Messages      []api.Message
	SendInFlight  bool
	Generation    uint64
	Chats         []api.ChatSummary
	ActivePartner api.PartnerID
}

// Engine owns the conversation session. All state changes happen under mu;
// requests to the remote run outside it and are checked against the session
// ticket when they return.
type Engine struct {
	mu      sync.Mutex
	session conversation.Session
	closed  bool

	remote   Remote
	machine  *status.Machine
	chats    *chatlist.Manager
	host     host.Host
	bus      *bus.Bus
	logger   *zap.Logger
	interval time.Duration
	limit    int
	onChange func(Snapshot)

	ctx    context.Context
	cancel context.CancelFunc
}

// NewEngine creates an engine with nothing selected.
func NewEngine(remote Remote, opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = conversation.DefaultPollInterval
	}
	if opts.MessageLimit <= 0 {
		opts.MessageLimit = api.DefaultMessageLimit
	}
	if opts.Host == nil {
		opts.Host = host.Nop{}
	}
	if opts.Machine == nil {
		opts.Machine = status.NewMachine(opts.Bus)
	}
	if opts.Chats == nil {
		opts.Chats = chatlist.NewManager(remote, opts.Bus, logger)
	}

	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		remote:   remote,
		machine:  opts.Machine,
		chats:    opts.Chats,
		host:     opts.Host,
		bus:      opts.Bus,
		logger:   logger.Named("sync"),
		interval: opts.PollInterval,
		limit:    opts.MessageLimit,
		onChange: opts.OnChange,
		ctx:      ctx,
		cancel:   cancel,
	}
	e.chats.SetActiveSource(e.ActivePartner)
	e.chats.OnChange(e.project)
	return e
}

// Chats returns the chat list manager.
func (e *Engine) Chats() *chatlist.Manager { return e.chats }

// SetOnChange replaces the projection callback.
func (e *Engine) SetOnChange(fn func(Snapshot)) {
	e.mu.Lock()
	e.onChange = fn
	e.mu.Unlock()
}

// ActivePartner returns the selected partner, empty when nothing is selected.
func (e *Engine) ActivePartner() api.PartnerID {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.Active()
}

// State returns the selection state.
func (e *Engine) State() status.State {
	return e.machine.Current()
}

// Snapshot returns a copy of the current state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	s := Snapshot{
		State:        e.machine.Current(),
		PartnerID:    e.session.Active(),
		Messages:     e.session.Messages().Messages(),
		SendInFlight: e.session.SendInFlight(),
		Generation:   e.session.Ticket().Generation,
	}
	if p, ok := e.session.Partner(); ok {
		s.Partner = p
	}
	e.mu.Unlock()

	s.Chats = e.chats.Summaries()
	s.ActivePartner = e.chats.Active()
	return s
}

func (e *Engine) project() {
	e.mu.Lock()
	fn := e.onChange
	e.mu.Unlock()
	if fn != nil {
		fn(e.Snapshot())
	}
}

// LoadChats refreshes the chat list only.
func (e *Engine) LoadChats(ctx context.Context) error {
	if err := e.chats.Refresh(ctx); err != nil {
		e.logger.Warn("chat list refresh failed", zap.Error(err))
		e.host.Notify(msgLoadChatsFailed)
		return err
	}
	return nil
}

// Select makes partnerID the active conversation. The previous poll is
// stopped and the old messages dropped before history is fetched. If another
// selection happens while the fetch is pending, its result is discarded.
func (e *Engine) Select(ctx context.Context, partnerID api.PartnerID) error {
	if partnerID == "" {
		return api.ErrMissingPartner
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	ticket := e.session.Begin(partnerID)
	if err := e.machine.Transition(status.Loading, partnerID); err != nil {
		e.mu.Unlock()
		return err
	}
	e.mu.Unlock()

	e.chats.MarkActive(partnerID)
	e.project()

	conv, err := e.remote.FetchMessages(ctx, partnerID, e.limit)

	e.mu.Lock()
	if stale := e.checkTicket(ticket); stale != nil {
		e.mu.Unlock()
		e.logger.Debug("dropping history", zap.Error(stale))
		return nil
	}
	if err != nil {
		e.session.End()
		_ = e.machine.Transition(status.NoSelection, "")
		e.mu.Unlock()

		e.logger.Warn("load conversation failed", zap.String("partner_id", partnerID.String()), zap.Error(err))
		e.chats.MarkActive("")
		e.host.Notify(msgLoadMessagesFailed)
		if api.IsNotFound(err) {
			// The partner is gone; drop it from the list.
			if rerr := e.chats.Refresh(ctx); rerr != nil {
				e.logger.Warn("chat list refresh after missing partner failed", zap.Error(rerr))
			}
		}
		e.project()
		return fmt.Errorf("load conversation: %w", err)
	}

	partner := conv.Partner
	if partner.ID == "" {
		partner.ID = partnerID
	}
	e.session.Install(partner, conv.Messages)
	if err := e.machine.Transition(status.Active, partnerID); err != nil {
		e.mu.Unlock()
		return err
	}
	e.session.StartPolling(e.ctx, e.interval, func(ctx context.Context) {
		_ = e.poll(ctx, ticket)
	})
	loaded := api.Conversation{Partner: partner, Messages: e.session.Messages().Messages()}
	e.mu.Unlock()

	e.logger.Info("conversation loaded",
		zap.String("partner_id", partnerID.String()),
		zap.Int("messages", len(loaded.Messages)),
		zap.Uint64("generation", ticket.Generation),
	)
	e.bus.Publish(bus.NewEvent(bus.KindConversationLoaded, loaded))
	e.project()
	return nil
}

// Deselect clears the active conversation and stops its poll.
func (e *Engine) Deselect() {
	e.mu.Lock()
	if e.machine.Current() == status.NoSelection {
		e.mu.Unlock()
		return
	}
	e.session.End()
	_ = e.machine.Transition(status.NoSelection, "")
	e.mu.Unlock()

	e.chats.MarkActive("")
	e.project()
}

// Poll runs one history poll for the active conversation immediately.
func (e *Engine) Poll(ctx context.Context) error {
	e.mu.Lock()
	if e.machine.Current() != status.Active {
		e.mu.Unlock()
		return ErrNotActive
	}
	ticket := e.session.Ticket()
	e.mu.Unlock()
	return e.poll(ctx, ticket)
}

// poll fetches history and reconciles it when the ticket is still current.
// Stopping the poller does not abort a fetch already started.
func (e *Engine) poll(ctx context.Context, ticket conversation.Ticket) error {
	conv, err := e.remote.FetchMessages(context.WithoutCancel(ctx), ticket.Partner, e.limit)
	if err != nil {
		e.logger.Warn("poll failed",
			zap.String("partner_id", ticket.Partner.String()),
			zap.Bool("temporary", api.IsTemporary(err)),
			zap.Error(err))
		return err
	}

	e.mu.Lock()
	if stale := e.checkTicket(ticket); stale != nil {
		e.mu.Unlock()
		e.logger.Debug("dropping poll result", zap.Error(stale))
		return nil
	}
	changed := e.session.Messages().Reconcile(conv.Messages)
	var reconciled api.Conversation
	if changed {
		p, _ := e.session.Partner()
		reconciled = api.Conversation{Partner: p, Messages: e.session.Messages().Messages()}
	}
	e.mu.Unlock()

	if !changed {
		return nil
	}
	e.logger.Debug("messages reconciled", zap.String("partner_id", ticket.Partner.String()), zap.Int("messages", len(reconciled.Messages)))
	e.bus.Publish(bus.NewEvent(bus.KindMessagesReconciled, reconciled))
	e.project()
	return nil
}

// Send posts text to the active partner and appends the returned message.
// Only one send may be outstanding; a second one is rejected, not queued.
func (e *Engine) Send(ctx context.Context, text string) (*api.Message, error) {
	text, err := api.NormalizeText(text)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	if e.machine.Current() != status.Active {
		e.mu.Unlock()
		return nil, ErrNotActive
	}
	if e.session.SendInFlight() {
		e.mu.Unlock()
		return nil, ErrSendInFlight
	}
	e.session.SetSendInFlight(true)
	ticket := e.session.Ticket()
	e.mu.Unlock()
	e.project()

	msg, err := e.remote.SendMessage(ctx, ticket.Partner, text)

	e.mu.Lock()
	e.session.SetSendInFlight(false)
	if err != nil {
		e.mu.Unlock()
		e.logger.Warn("send failed", zap.String("partner_id", ticket.Partner.String()), zap.Error(err))
		e.host.Notify(msgSendFailed)
		e.project()
		return nil, fmt.Errorf("send message: %w", err)
	}
	partner := api.Partner{ID: ticket.Partner}
	if stale := e.checkTicket(ticket); stale != nil {
		e.logger.Debug("sent message not appended", zap.Error(stale))
	} else {
		if !e.session.Messages().Append(*msg) {
			e.logger.Debug("sent message already installed by poll", zap.Int64("message_id", msg.ID))
		}
		partner, _ = e.session.Partner()
	}
	e.mu.Unlock()

	e.bus.Publish(bus.NewEvent(bus.KindMessagesAppended, api.Conversation{
		Partner:  partner,
		Messages: []api.Message{*msg},
	}))
	e.project()
	return msg, nil
}

// Block asks the host for confirmation and blocks the active partner. The
// conversation is closed and the chat list refreshed whether or not the
// block request succeeds.
func (e *Engine) Block(ctx context.Context) error {
	e.mu.Lock()
	if e.machine.Current() != status.Active {
		e.mu.Unlock()
		return ErrNotActive
	}
	partner, _ := e.session.Partner()
	ticket := e.session.Ticket()
	e.mu.Unlock()

	name := partner.DisplayName
	if name == "" {
		name = partner.ID.String()
	}
	if !e.host.Confirm(fmt.Sprintf("Block %s? You won't be able to send or receive messages from them.", name)) {
		return ErrCancelled
	}

	blockErr := e.remote.BlockPartner(ctx, ticket.Partner)

	e.mu.Lock()
	deselected := e.session.Current(ticket)
	if deselected {
		e.session.End()
		_ = e.machine.Transition(status.NoSelection, "")
	}
	e.mu.Unlock()
	if deselected {
		e.chats.MarkActive("")
	}

	if blockErr != nil {
		e.logger.Warn("block failed", zap.String("partner_id", ticket.Partner.String()), zap.Error(blockErr))
		e.host.Notify(msgBlockFailed)
	} else {
		e.logger.Info("partner blocked", zap.String("partner_id", ticket.Partner.String()))
		e.bus.Publish(bus.NewEvent(bus.KindPartnerBlocked, ticket.Partner))
		e.host.Notify(msgBlocked)
	}

	if err := e.chats.Refresh(ctx); err != nil {
		e.logger.Warn("chat list refresh after block failed", zap.Error(err))
	}
	e.project()

	if blockErr != nil {
		return fmt.Errorf("block partner: %w", blockErr)
	}
	return nil
}

// Refresh reloads the chat list and, when a conversation is active, replaces
// its history with a fresh fetch.
func (e *Engine) Refresh(ctx context.Context) error {
	chatsErr := e.LoadChats(ctx)

	e.mu.Lock()
	if e.machine.Current() != status.Active {
		e.mu.Unlock()
		return chatsErr
	}
	ticket := e.session.Ticket()
	e.mu.Unlock()

	conv, err := e.remote.FetchMessages(ctx, ticket.Partner, e.limit)
	if err != nil {
		e.logger.Warn("history refresh failed", zap.String("partner_id", ticket.Partner.String()), zap.Error(err))
		e.host.Notify(msgLoadMessagesFailed)
		return errors.Join(chatsErr, fmt.Errorf("refresh conversation: %w", err))
	}

	e.mu.Lock()
	if stale := e.checkTicket(ticket); stale != nil {
		e.mu.Unlock()
		e.logger.Debug("dropping refreshed history", zap.Error(stale))
		return chatsErr
	}
	partner, _ := e.session.Partner()
	e.session.Messages().Replace(conv.Messages)
	loaded := api.Conversation{Partner: partner, Messages: e.session.Messages().Messages()}
	e.mu.Unlock()

	e.bus.Publish(bus.NewEvent(bus.KindConversationLoaded, loaded))
	e.project()
	return chatsErr
}

// Close stops polling. Requests already in flight finish and are discarded.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	e.session.StopPolling()
	e.cancel()
}

// checkTicket must be called with mu held.
func (e *Engine) checkTicket(t conversation.Ticket) error {
	if e.session.Current(t) {
		return nil
	}
	return &StaleResultError{Partner: t.Partner, Generation: t.Generation}
}
