package ui

import "testing"

func TestFormatHints(t *testing.T) {
	got := FormatHints([]MenuHint{{Key: "b", Description: "Block"}, {Key: "Esc", Description: "Back"}}, "blue")
	want := " [blue::b]<b>[-:-:-] Block  [blue::b]<Esc>[-:-:-] Back"
	if got != want {
		t.Errorf("FormatHints() = %q, want %q", got, want)
	}
}
