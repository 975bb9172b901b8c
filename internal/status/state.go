package status

import (
	"fmt"
	"slices"
	"sync"

	"github.com/matheus3301/confchat/internal/api"
	"github.com/matheus3301/confchat/internal/bus"
)

// State is the selection state of the conversation engine.
type State string

const (
	NoSelection State = "NO_SELECTION"
	Loading     State = "LOADING"
	Active      State = "ACTIVE"
)

// validTransitions defines allowed state transitions. Loading→Loading covers a
// selection superseding a pending one; Active→Loading covers switching or
// reloading the conversation.
var validTransitions = map[State][]State{
	NoSelection: {Loading},
	Loading:     {Active, Loading, NoSelection},
	Active:      {Loading, NoSelection},
}

// Machine tracks and enforces selection state transitions.
type Machine struct {
	mu      sync.RWMutex
	current State
	partner api.PartnerID
	bus     *bus.Bus
}

// NewMachine creates a new state machine with nothing selected.
func NewMachine(b *bus.Bus) *Machine {
	return &Machine{
		current: NoSelection,
		bus:     b,
	}
}

// Current returns the current state.
func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Partner returns the partner the current state refers to, empty in
// NoSelection.
func (m *Machine) Partner() api.PartnerID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.partner
}

// Transition moves to state to for partner. Returns an error if the
// transition is invalid; the state is then left unchanged.
func (m *Machine) Transition(to State, partner api.PartnerID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	allowed := validTransitions[m.current]
	if !slices.Contains(allowed, to) {
		return fmt.Errorf("invalid transition from %s to %s", m.current, to)
	}
	if to == NoSelection {
		partner = ""
	} else if partner == "" {
		return fmt.Errorf("transition to %s requires a partner", to)
	}
	if to == Active && partner != m.partner {
		return fmt.Errorf("cannot activate %q while loading %q", partner, m.partner)
	}

	change := SelectionChange{
		From:        m.current,
		To:          to,
		FromPartner: m.partner,
		ToPartner:   partner,
	}
	m.current = to
	m.partner = partner
	m.bus.Publish(bus.NewEvent(bus.KindSelectionChanged, change))
	return nil
}

// SelectionChange is the payload for selection.changed events.
type SelectionChange struct {
	From        State
	To          State
	FromPartner api.PartnerID
	ToPartner   api.PartnerID
}
