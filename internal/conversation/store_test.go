package conversation

import (
	"testing"

	"github.com/matheus3301/confchat/internal/api"
)

func msgs(ids ...int64) []api.Message {
	out := make([]api.Message, len(ids))
	for i, id := range ids {
		out[i] = api.Message{ID: id, Text: "m"}
	}
	return out
}

func TestReconcileIsIdempotent(t *testing.T) {
	var s MessageStore
	fresh := msgs(1, 2, 3)

	if !s.Reconcile(fresh) {
		t.Fatal("first Reconcile() should replace an empty list")
	}
	if s.Reconcile(fresh) {
		t.Error("second Reconcile() with the same list should be a no-op")
	}
	if s.Len() != 3 {
		t.Errorf("Len() = %d, want 3", s.Len())
	}
}

func TestReconcileNeverShrinks(t *testing.T) {
	tests := []struct {
		name     string
		local    int
		incoming int
		want     int
		replaced bool
	}{
		{"shorter", 5, 3, 5, false},
		{"equal", 4, 4, 4, false},
		{"longer", 2, 6, 6, true},
		{"empty incoming", 3, 0, 3, false},
		{"empty local", 0, 1, 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s MessageStore
			local := make([]int64, tt.local)
			for i := range local {
				local[i] = int64(i + 1)
			}
			s.Replace(msgs(local...))

			incoming := make([]int64, tt.incoming)
			for i := range incoming {
				incoming[i] = int64(100 + i)
			}
			if got := s.Reconcile(msgs(incoming...)); got != tt.replaced {
				t.Errorf("Reconcile() = %v, want %v", got, tt.replaced)
			}
			if s.Len() != tt.want {
				t.Errorf("Len() = %d, want %d", s.Len(), tt.want)
			}
		})
	}
}

// TestReconcileMissesSameLengthEdit pins the documented limitation of the
// length-based policy.
func TestReconcileMissesSameLengthEdit(t *testing.T) {
	var s MessageStore
	s.Replace([]api.Message{{ID: 1, Text: "before"}})

	s.Reconcile([]api.Message{{ID: 1, Text: "after"}})

	last, _ := s.Last()
	if last.Text != "before" {
		t.Errorf("text = %q, want before (same-length snapshots are ignored)", last.Text)
	}
}

func TestAppendAndCopy(t *testing.T) {
	var s MessageStore
	s.Replace(msgs(1, 2))
	s.Append(api.Message{ID: 3, Text: "hello", IsOwn: true})

	got := s.Messages()
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	got[0].Text = "mutated"
	if first := s.Messages()[0]; first.Text == "mutated" {
		t.Error("Messages() must return a copy")
	}

	last, ok := s.Last()
	if !ok || last.ID != 3 || !last.IsOwn {
		t.Errorf("Last() = %+v, %v", last, ok)
	}

	s.Clear()
	if _, ok := s.Last(); ok || s.Len() != 0 {
		t.Error("Clear() should empty the store")
	}
}

func TestReplaceDoesNotAliasInput(t *testing.T) {
	var s MessageStore
	in := msgs(1, 2)
	s.Replace(in)
	in[0].Text = "changed"
	if s.Messages()[0].Text != "m" {
		t.Error("Replace() must copy its input")
	}
}

func TestAppendSkipsKnownID(t *testing.T) {
	var s MessageStore
	s.Replace(msgs(1, 2, 3))
	if !s.Reconcile(msgs(1, 2, 3, 4)) {
		t.Fatal("Reconcile() should install the longer list")
	}
	if s.Append(api.Message{ID: 4, Text: "m", IsOwn: true}) {
		t.Error("Append() added a message that is already held")
	}
	if s.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", s.Len())
	}
	if !s.Reconcile(msgs(1, 2, 3, 4, 5)) {
		t.Error("a reply after the send should still be picked up")
	}
}

func windowOf(first, n int64) []api.Message {
	ids := make([]int64, n)
	for i := range ids {
		ids[i] = first + int64(i)
	}
	return msgs(ids...)
}

func TestReconcileStallsAtFullWindow(t *testing.T) {
	const window = 50
	var s MessageStore
	s.Replace(windowOf(1, window))

	if s.Reconcile(windowOf(2, window)) {
		t.Fatal("a shifted window of the same length must not be installed")
	}
	if last, _ := s.Last(); last.ID != window {
		t.Errorf("Last().ID = %d, want %d", last.ID, window)
	}

	s.Replace(windowOf(2, window))
	if last, _ := s.Last(); last.ID != window+1 {
		t.Errorf("after Replace Last().ID = %d, want %d", last.ID, window+1)
	}
}
