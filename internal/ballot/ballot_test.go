package ballot

import (
	"encoding/json"
	"testing"
)

func TestStringRoundTrip(t *testing.T) {
	b := Ballot{N: 7, ProposerID: "P1"}
	s := b.String()
	if s != "7:P1" {
		t.Fatalf("String() = %q, want %q", s, "7:P1")
	}
	parsed, err := Parse(s)
	if err != nil {
		t.Fatalf("Parse(%q): %v", s, err)
	}
	if parsed != b {
		t.Fatalf("Parse(%q) = %+v, want %+v", s, parsed, b)
	}
}

func TestZeroStringIsEmpty(t *testing.T) {
	if Zero.String() != "" {
		t.Fatalf("Zero.String() = %q, want empty", Zero.String())
	}
	parsed, err := Parse("")
	if err != nil {
		t.Fatalf("Parse(\"\"): %v", err)
	}
	if parsed != Zero {
		t.Fatalf("Parse(\"\") = %+v, want Zero", parsed)
	}
}

func TestParseMalformed(t *testing.T) {
	for _, s := range []string{"abc", "1", "x:P1"} {
		if _, err := Parse(s); err == nil {
			t.Errorf("Parse(%q) expected error, got nil", s)
		}
	}
}

func TestMarshalUnmarshalJSON(t *testing.T) {
	b := Ballot{N: 42, ProposerID: "node-9"}
	encoded, err := json.Marshal(b)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(encoded) != `"42:node-9"` {
		t.Fatalf("Marshal = %s, want %q", encoded, `"42:node-9"`)
	}

	var decoded Ballot
	if err := json.Unmarshal(encoded, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded != b {
		t.Fatalf("Unmarshal = %+v, want %+v", decoded, b)
	}
}

func TestGTEIgnoresProposerSuffix(t *testing.T) {
	a := Ballot{N: 5, ProposerID: "P1"}
	b := Ballot{N: 5, ProposerID: "P2"}
	if !a.GTE(b) || !b.GTE(a) {
		t.Fatalf("equal-n ballots with different proposer ids must compare GTE both ways")
	}
	higher := Ballot{N: 6, ProposerID: "P1"}
	if !higher.GTE(a) {
		t.Fatalf("higher.GTE(a) = false, want true")
	}
	if a.GTE(higher) {
		t.Fatalf("a.GTE(higher) = true, want false")
	}
}

func TestLess(t *testing.T) {
	a := Ballot{N: 1, ProposerID: "P1"}
	b := Ballot{N: 2, ProposerID: "P2"}
	if !a.Less(b) {
		t.Fatalf("a.Less(b) = false, want true")
	}
	if b.Less(a) {
		t.Fatalf("b.Less(a) = true, want false")
	}
}
