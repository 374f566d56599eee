package transaction

import "testing"

func TestIsZero(t *testing.T) {
	var zero Transaction
	if !zero.IsZero() {
		t.Fatalf("zero value Transaction.IsZero() = false, want true")
	}

	nonZero := Transaction{ClientID: "c1"}
	if nonZero.IsZero() {
		t.Fatalf("non-empty Transaction.IsZero() = true, want false")
	}
}

func TestEqualityIsStructural(t *testing.T) {
	a := Transaction{ClientID: "c1", RequestID: "1", Timestamp: 100, Value: "V"}
	b := Transaction{ClientID: "c1", RequestID: "1", Timestamp: 100, Value: "V"}
	if a != b {
		t.Fatalf("structurally identical transactions compared unequal: %+v != %+v", a, b)
	}
}
