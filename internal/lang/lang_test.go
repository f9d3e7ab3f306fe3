package lang

import "testing"

func TestDetect(t *testing.T) {
	cases := map[string]string{
		"":                        Russian,
		"   ":                     Russian,
		"Привет, как дела?":       Russian,
		"שלום עולם":               Hebrew,
		"Hello there":             English,
		"Plan для релокации":      Russian,
		"Tel Aviv תל אביב":        Hebrew,
		"12345 !!!":               Russian,
		"Ёжик":                    Russian,
		"mixed עברית и кириллица": Russian,
	}
	for in, want := range cases {
		if got := Detect(in); got != want {
			t.Errorf("Detect(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestObserveShortLatinKeepsStable(t *testing.T) {
	s := State{Stable: Russian}
	for _, ack := range []string{"ok", "ty", "yes"} {
		if got := s.Observe(ack, true); got != Russian {
			t.Fatalf("Observe(%q) = %q, want ru", ack, got)
		}
	}
	if s.Stable != Russian {
		t.Fatalf("stable language flipped to %q", s.Stable)
	}
}

func TestObserveQuorum(t *testing.T) {
	s := State{Stable: Russian}
	if got := s.Observe("Tell me about the economy of Germany", true); got != Russian {
		t.Fatalf("single English message flipped language to %q", got)
	}
	if got := s.Observe("What about taxes for freelancers there?", true); got != English {
		t.Fatalf("second English message = %q, want en", got)
	}
	if len(s.History) != 2 {
		t.Fatalf("history = %v", s.History)
	}
}

func TestObserveWindowBounded(t *testing.T) {
	var s State
	for i := 0; i < 10; i++ {
		s.Observe("שלום לכולם", true)
	}
	if len(s.History) != windowSize {
		t.Fatalf("history length = %d", len(s.History))
	}
	if s.Stable != Hebrew {
		t.Fatalf("stable = %q", s.Stable)
	}
}

func TestObserveFirstMessage(t *testing.T) {
	var s State
	if got := s.Observe("Give me a relocation plan please", true); got != English {
		t.Fatalf("first message language = %q, want candidate en", got)
	}
	if s.Stable != "" {
		t.Fatalf("stable set after one vote: %q", s.Stable)
	}
}

func TestObserveBlank(t *testing.T) {
	s := State{Stable: Hebrew}
	if got := s.Observe("  ", true); got != Hebrew {
		t.Fatalf("blank input = %q", got)
	}
	if len(s.History) != 0 {
		t.Fatal("blank input must not vote")
	}
}

func TestObserveWithoutHysteresis(t *testing.T) {
	s := State{Stable: Russian}
	if got := s.Observe("Give me a relocation plan please", false); got != English {
		t.Fatalf("got %q", got)
	}
	if s.Stable != English {
		t.Fatalf("stable = %q", s.Stable)
	}
}
