package browser

import "testing"

func TestCloseIdempotent(t *testing.T) {
	var s Session

	s.Close()
	if !s.Closed() {
		t.Fatal("session should report closed after Close")
	}

	// second close is a no-op, not a panic or error
	s.Close()
	if !s.Closed() {
		t.Fatal("session should stay closed")
	}
}

func TestRunOnUnopenedSession(t *testing.T) {
	var s Session
	if err := s.Run(0); err == nil {
		t.Fatal("expected error running actions on an unopened session")
	}
}
