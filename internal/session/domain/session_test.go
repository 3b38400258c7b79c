package domain

import "testing"

func TestApplyDirectorSetMatchesLocalCredentials(t *testing.T) {
	creds := Credentials{Name: "Anna", Password: "geheim"}
	state := Apply(State{Conn: Connected, PendingClaim: true}, creds, DirectorSetEvent{Name: "Anna"})

	if !state.LocalDirector {
		t.Fatal("expected local director after matching director-set")
	}
	if state.DirectorName != "Anna" {
		t.Fatalf("expected director Anna, got %q", state.DirectorName)
	}
	if state.PendingClaim {
		t.Fatal("director event should clear pending claim")
	}
}

func TestApplyDirectorSetForSomeoneElse(t *testing.T) {
	creds := Credentials{Name: "Anna"}
	state := Apply(State{Conn: Connected, PendingClaim: true}, creds, DirectorSetEvent{Name: "Bert"})

	if state.LocalDirector {
		t.Fatal("director-set for another name must not grant local role")
	}
	if state.DirectorName != "Bert" {
		t.Fatalf("expected director Bert, got %q", state.DirectorName)
	}
	if state.PendingClaim {
		t.Fatal("director event should clear pending claim")
	}
}

func TestApplyTakeoverRevokesLocalDirector(t *testing.T) {
	creds := Credentials{Name: "Anna"}
	state := State{Conn: Connected, DirectorName: "Anna", LocalDirector: true}

	state = Apply(state, creds, DirectorChangedEvent{Name: "Bert"})
	if state.LocalDirector {
		t.Fatal("takeover must revoke local director unconditionally")
	}
	if state.DirectorName != "Bert" {
		t.Fatalf("expected held director Bert, got %q", state.DirectorName)
	}
}

func TestApplyDirectorUnsetClearsRole(t *testing.T) {
	state := State{Conn: Connected, DirectorName: "Anna", LocalDirector: true}
	state = Apply(state, Credentials{Name: "Anna"}, DirectorUnsetEvent{Name: "Anna"})

	if state.DirectorName != "" || state.LocalDirector {
		t.Fatalf("expected no director, got %+v", state)
	}
}

func TestApplyMarkerLastValueWins(t *testing.T) {
	creds := Credentials{}
	state := State{Conn: Connected}

	state = Apply(state, creds, MarkerSetEvent{Position: 12})
	state = Apply(state, creds, MarkerSetEvent{Position: 40})
	if state.Marker == nil || *state.Marker != 40 {
		t.Fatalf("expected marker 40, got %v", state.Marker)
	}

	// Duplicate delivery is idempotent.
	state = Apply(state, creds, MarkerSetEvent{Position: 40})
	if state.Marker == nil || *state.Marker != 40 {
		t.Fatalf("expected marker 40 after duplicate, got %v", state.Marker)
	}

	state = Apply(state, creds, MarkerClearedEvent{})
	if state.Marker != nil {
		t.Fatalf("expected cleared marker, got %v", state.Marker)
	}
}

func TestApplyDropsMalformedEvents(t *testing.T) {
	creds := Credentials{Name: "Anna"}
	state := State{Conn: Connected, DirectorName: "Anna", LocalDirector: true}
	marker := 7
	state.Marker = &marker

	got := Apply(state, creds, MarkerSetEvent{Position: -1})
	if got.Marker == nil || *got.Marker != 7 {
		t.Fatalf("negative marker must be dropped, got %v", got.Marker)
	}

	got = Apply(state, creds, DirectorChangedEvent{Name: "  "})
	if !got.LocalDirector || got.DirectorName != "Anna" {
		t.Fatalf("blank takeover must be dropped, got %+v", got)
	}
}

func TestApplyDisconnectRetainsMarkerAndDirector(t *testing.T) {
	creds := Credentials{Name: "Anna"}
	marker := 3
	state := State{Conn: Connected, DirectorName: "Anna", LocalDirector: true, Marker: &marker}

	state = Apply(state, creds, ConnectionLostEvent{})
	if state.Conn != Reconnecting {
		t.Fatalf("expected reconnecting, got %v", state.Conn)
	}
	if state.Marker == nil || *state.Marker != 3 || !state.LocalDirector {
		t.Fatalf("disconnect must retain marker and director, got %+v", state)
	}

	state = Apply(state, creds, ConnectedEvent{})
	if state.Conn != Connected {
		t.Fatalf("expected connected, got %v", state.Conn)
	}
}

func TestApplyConnectionLostWhileNotConnected(t *testing.T) {
	state := Apply(State{Conn: Connecting}, Credentials{}, ConnectionLostEvent{})
	if state.Conn != Disconnected {
		t.Fatalf("expected disconnected, got %v", state.Conn)
	}
}
