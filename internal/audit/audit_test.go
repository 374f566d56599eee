package audit

import "testing"

func TestNoopSinkDiscardsSilently(t *testing.T) {
	var s Sink = NoopSink{}
	if err := s.Record(Decision{Role: "acceptor", Outcome: "promise"}); err != nil {
		t.Fatalf("NoopSink.Record = %v, want nil", err)
	}
	h, err := s.History("1:P1", 10)
	if err != nil || h != nil {
		t.Fatalf("NoopSink.History = (%v, %v), want (nil, nil)", h, err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("NoopSink.Close = %v, want nil", err)
	}
}

func TestNewDefaultsToNoopForUnknownBackend(t *testing.T) {
	s, err := New("", "", "")
	if err != nil {
		t.Fatalf("New(\"\") = %v, want nil error", err)
	}
	if _, ok := s.(NoopSink); !ok {
		t.Fatalf("New(\"\") = %T, want NoopSink", s)
	}

	s2, err := New("something-unrecognized", "", "")
	if err != nil {
		t.Fatalf("New(unrecognized) = %v, want nil error", err)
	}
	if _, ok := s2.(NoopSink); !ok {
		t.Fatalf("New(unrecognized) = %T, want NoopSink", s2)
	}
}
