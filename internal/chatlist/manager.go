// Package chatlist keeps the summary list of conversations and which one is
// marked active.
package chatlist

import (
	"context"
	"fmt"
	"sync"

	"github.com/matheus3301/confchat/internal/api"
	"github.com/matheus3301/confchat/internal/bus"
	"go.uber.org/zap"
)

// Lister fetches the chat summaries from the service.
type Lister interface {
	ListChats(ctx context.Context) ([]api.ChatSummary, error)
}

// Manager owns the chat summaries. The set is always replaced as a whole; a
// failed refresh keeps the previous set.
type Manager struct {
	mu        sync.RWMutex
	lister    Lister
	summaries []api.ChatSummary
	index     map[api.PartnerID]int
	active    api.PartnerID
	loaded    bool

	// seq numbers refreshes; applied is the newest one installed so an older
	// response finishing late cannot overwrite a newer list.
	seq     uint64
	applied uint64

	activeFn func() api.PartnerID
	onChange func()
	bus      *bus.Bus
	logger   *zap.Logger
}

// NewManager creates an empty manager.
func NewManager(l Lister, b *bus.Bus, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		lister: l,
		index:  make(map[api.PartnerID]int),
		bus:    b,
		logger: logger.Named("chatlist"),
	}
}

// SetActiveSource makes Refresh take the active marker from fn, typically the
// live selection of the conversation engine.
func (m *Manager) SetActiveSource(fn func() api.PartnerID) {
	m.mu.Lock()
	m.activeFn = fn
	m.mu.Unlock()
}

// OnChange registers the projection callback run after every change.
func (m *Manager) OnChange(fn func()) {
	m.mu.Lock()
	m.onChange = fn
	m.mu.Unlock()
}

// Refresh reloads the summaries from the service and installs them atomically.
func (m *Manager) Refresh(ctx context.Context) error {
	m.mu.Lock()
	m.seq++
	seq := m.seq
	activeFn := m.activeFn
	m.mu.Unlock()

	chats, err := m.lister.ListChats(ctx)
	if err != nil {
		return fmt.Errorf("list chats: %w", err)
	}

	index := make(map[api.PartnerID]int, len(chats))
	summaries := make([]api.ChatSummary, 0, len(chats))
	for _, c := range chats {
		if _, dup := index[c.PartnerID]; dup {
			m.logger.Warn("duplicate chat summary ignored", zap.String("partner_id", string(c.PartnerID)))
			continue
		}
		index[c.PartnerID] = len(summaries)
		summaries = append(summaries, c)
	}

	// The source is read outside the lock; it usually takes the engine lock.
	var active api.PartnerID
	if activeFn != nil {
		active = activeFn()
	}

	m.mu.Lock()
	if seq < m.applied {
		m.mu.Unlock()
		m.logger.Debug("dropping superseded chat list", zap.Uint64("seq", seq))
		return nil
	}
	m.applied = seq
	m.summaries = summaries
	m.index = index
	m.loaded = true
	if activeFn != nil {
		m.active = active
	}
	onChange := m.onChange
	m.mu.Unlock()

	m.bus.Publish(bus.NewEvent(bus.KindChatsRefreshed, append([]api.ChatSummary(nil), summaries...)))
	if onChange != nil {
		onChange()
	}
	return nil
}

// MarkActive sets which partner is highlighted; empty clears the marker.
func (m *Manager) MarkActive(partnerID api.PartnerID) {
	m.mu.Lock()
	changed := m.active != partnerID
	m.active = partnerID
	onChange := m.onChange
	m.mu.Unlock()

	if changed && onChange != nil {
		onChange()
	}
}

// Active returns the highlighted partner.
func (m *Manager) Active() api.PartnerID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.active
}

// Summaries returns a copy of the summaries in service order.
func (m *Manager) Summaries() []api.ChatSummary {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]api.ChatSummary(nil), m.summaries...)
}

// Lookup returns the summary for partnerID.
func (m *Manager) Lookup(partnerID api.PartnerID) (api.ChatSummary, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i, ok := m.index[partnerID]
	if !ok {
		return api.ChatSummary{}, false
	}
	return m.summaries[i], true
}

// Loaded reports whether at least one refresh succeeded.
func (m *Manager) Loaded() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loaded
}
