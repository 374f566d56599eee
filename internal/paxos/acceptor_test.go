package paxos

import (
	"net/http"
	"testing"

	"paxoscluster/internal/transaction"
)

func newTestAcceptor() *Acceptor {
	return NewAcceptor("A1", nil, 0, nil, nil)
}

func TestAcceptorPreparePromisesAndTracksHighWaterMark(t *testing.T) {
	a := newTestAcceptor()

	resp, status := a.Prepare(PrepareRequest{ProposalID: "5:P1"})
	if status != http.StatusOK || resp.Type != "promise" {
		t.Fatalf("Prepare(5:P1) = (%+v, %d), want promise/200", resp, status)
	}
	if resp.AcceptedValue != nil {
		t.Fatalf("fresh Acceptor must not report an accepted_value: got %+v", resp.AcceptedValue)
	}

	// A lower ballot is refused.
	resp, status = a.Prepare(PrepareRequest{ProposalID: "3:P2"})
	if status != http.StatusConflict || resp.Type != "not_promise" {
		t.Fatalf("Prepare(3:P2) after 5:P1 = (%+v, %d), want not_promise/409", resp, status)
	}

	// An equal ballot is promised (the documented >= relaxation).
	resp, status = a.Prepare(PrepareRequest{ProposalID: "5:P1"})
	if status != http.StatusOK || resp.Type != "promise" {
		t.Fatalf("Prepare(5:P1) retried = (%+v, %d), want promise/200", resp, status)
	}
}

func TestAcceptorPrepareMalformedIs400(t *testing.T) {
	a := newTestAcceptor()
	resp, status := a.Prepare(PrepareRequest{ProposalID: "not-a-ballot"})
	if status != http.StatusBadRequest {
		t.Fatalf("Prepare(malformed) status = %d, want 400", status)
	}
	if resp.Type != "not_promise" {
		t.Fatalf("Prepare(malformed) type = %q, want not_promise", resp.Type)
	}
}

func TestAcceptorAcceptRetainsValueAfterAccepting(t *testing.T) {
	a := newTestAcceptor()
	txn := transaction.Transaction{ClientID: "c1", RequestID: "1", Value: "V1"}

	resp, status := a.Accept(AcceptRequest{ProposalID: "5:P1", Transaction: txn})
	if status != http.StatusOK || resp.Response != "accepted" {
		t.Fatalf("Accept(5:P1) = (%+v, %d), want accepted/200", resp, status)
	}

	// Accepted state is never cleared, so a later Prepare from a
	// competing Proposer must see it for value adoption.
	prep, _ := a.Prepare(PrepareRequest{ProposalID: "10:P2"})
	if prep.AcceptedValue == nil {
		t.Fatalf("Prepare after Accept must report the previously accepted value, got nil")
	}
	if prep.AcceptedValue.Value != "V1" {
		t.Fatalf("Prepare accepted_value.Value = %q, want %q", prep.AcceptedValue.Value, "V1")
	}
	if prep.AcceptedID != "5:P1" {
		t.Fatalf("Prepare accepted_id = %q, want %q", prep.AcceptedID, "5:P1")
	}
}

func TestAcceptorAcceptBelowPromisedIsRejected(t *testing.T) {
	a := newTestAcceptor()
	a.Prepare(PrepareRequest{ProposalID: "10:P1"})

	resp, status := a.Accept(AcceptRequest{ProposalID: "5:P2", Transaction: transaction.Transaction{Value: "V2"}})
	if status != http.StatusConflict || resp.Response != "not_accepted" {
		t.Fatalf("Accept(5:P2) after promising 10:P1 = (%+v, %d), want not_accepted/409", resp, status)
	}
	if resp.TIDInUse != "10:P1" {
		t.Fatalf("not_accepted tid_in_use = %q, want %q", resp.TIDInUse, "10:P1")
	}
}

func TestAcceptorAcceptMalformedIs400(t *testing.T) {
	a := newTestAcceptor()
	_, status := a.Accept(AcceptRequest{ProposalID: "garbage"})
	if status != http.StatusBadRequest {
		t.Fatalf("Accept(malformed) status = %d, want 400", status)
	}
}
