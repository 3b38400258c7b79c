package mojibake

import "testing"

func TestRepairFixesDoubleEncodedText(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		// "Käthe" with ä mis-decoded as Latin-1.
		{"KÃ¤the", "Käthe"},
		// "Straße" with ß mis-decoded as Latin-1.
		{"StraÃe", "Straße"},
		// "Börse überall".
		{"BÃ¶rse Ã¼berall", "Börse überall"},
	}
	for _, tc := range cases {
		if got := Repair(tc.in); got != tc.want {
			t.Fatalf("Repair(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRepairLeavesCleanTextAlone(t *testing.T) {
	for _, text := range []string{"Käthe", "ANNA kommt herein", "", "Straße"} {
		if got := Repair(text); got != text {
			t.Fatalf("Repair(%q) changed clean text to %q", text, got)
		}
	}
}

func TestRepairLeavesMixedTextAlone(t *testing.T) {
	// Marker plus a rune outside Latin-1: not uniform mojibake.
	text := "Ã¤ und €"
	if got := Repair(text); got != text {
		t.Fatalf("Repair(%q) = %q, want unchanged", text, got)
	}
}
