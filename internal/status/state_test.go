package status

import (
	"testing"

	"github.com/matheus3301/confchat/internal/api"
	"github.com/matheus3301/confchat/internal/bus"
)

func TestInitialState(t *testing.T) {
	m := NewMachine(nil)
	if m.Current() != NoSelection {
		t.Errorf("initial state = %s, want NO_SELECTION", m.Current())
	}
	if m.Partner() != "" {
		t.Errorf("initial partner = %q, want empty", m.Partner())
	}
}

func TestValidTransitions(t *testing.T) {
	tests := []struct {
		from State
		to   State
	}{
		{NoSelection, Loading},
		{Loading, Active},
		{Loading, Loading},
		{Loading, NoSelection},
		{Active, Loading},
		{Active, NoSelection},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			m := NewMachine(nil)
			walkTo(t, m, tt.from)
			if err := m.Transition(tt.to, "p1"); err != nil {
				t.Errorf("Transition(%s -> %s) error = %v", tt.from, tt.to, err)
			}
			if m.Current() != tt.to {
				t.Errorf("state = %s, want %s", m.Current(), tt.to)
			}
		})
	}
}

func TestInvalidTransitions(t *testing.T) {
	tests := []struct {
		from State
		to   State
	}{
		{NoSelection, Active},
		{NoSelection, NoSelection},
		{Active, Active},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			m := NewMachine(nil)
			walkTo(t, m, tt.from)
			if err := m.Transition(tt.to, "p1"); err == nil {
				t.Errorf("Transition(%s -> %s) should fail", tt.from, tt.to)
			}
			if m.Current() != tt.from {
				t.Errorf("state = %s, want %s (unchanged)", m.Current(), tt.from)
			}
		})
	}
}

// TestActivateRequiresLoadingPartner verifies that a fetch for a superseded
// partner cannot activate the conversation.
func TestActivateRequiresLoadingPartner(t *testing.T) {
	m := NewMachine(nil)
	if err := m.Transition(Loading, "a"); err != nil {
		t.Fatal(err)
	}
	if err := m.Transition(Loading, "b"); err != nil {
		t.Fatal(err)
	}
	if err := m.Transition(Active, "a"); err == nil {
		t.Fatal("Transition(ACTIVE, a) should fail while loading b")
	}
	if err := m.Transition(Active, "b"); err != nil {
		t.Fatalf("Transition(ACTIVE, b): %v", err)
	}
	if m.Partner() != "b" {
		t.Errorf("partner = %q, want b", m.Partner())
	}
}

func TestTransitionRequiresPartner(t *testing.T) {
	m := NewMachine(nil)
	if err := m.Transition(Loading, ""); err == nil {
		t.Error("Transition(LOADING, \"\") should fail")
	}
}

func TestNoSelectionClearsPartner(t *testing.T) {
	m := NewMachine(nil)
	walkTo(t, m, Active)
	if err := m.Transition(NoSelection, "p1"); err != nil {
		t.Fatal(err)
	}
	if m.Partner() != "" {
		t.Errorf("partner = %q, want empty", m.Partner())
	}
}

func TestTransitionEmitsEvent(t *testing.T) {
	b := bus.New()
	ch, unsub := b.Subscribe("selection.", 10)
	defer unsub()

	m := NewMachine(b)
	if err := m.Transition(Loading, "p1"); err != nil {
		t.Fatal(err)
	}

	evt := <-ch
	if evt.Kind != bus.KindSelectionChanged {
		t.Errorf("event kind = %q, want %s", evt.Kind, bus.KindSelectionChanged)
	}
	change, ok := evt.Payload.(SelectionChange)
	if !ok {
		t.Fatalf("payload type = %T, want SelectionChange", evt.Payload)
	}
	want := SelectionChange{From: NoSelection, To: Loading, ToPartner: api.PartnerID("p1")}
	if change != want {
		t.Errorf("change = %+v, want %+v", change, want)
	}
}

// walkTo is a helper that transitions the machine to a target state for p1.
func walkTo(t *testing.T, m *Machine, target State) {
	t.Helper()
	paths := map[State][]State{
		NoSelection: {},
		Loading:     {Loading},
		Active:      {Loading, Active},
	}
	for _, s := range paths[target] {
		if err := m.Transition(s, "p1"); err != nil {
			t.Fatalf("walkTo(%s): %v", target, err)
		}
	}
}
