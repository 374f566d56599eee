package paxos

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"paxoscluster/internal/ballot"
	"paxoscluster/internal/transaction"
)

func TestAdoptValuePicksHighestAcceptedID(t *testing.T) {
	vOld := transaction.Transaction{Value: "old"}
	vNewer := transaction.Transaction{Value: "newer"}

	promises := []PrepareResponse{
		{Type: "promise", AcceptedID: "6:P2", AcceptedValue: &vOld},
		{Type: "promise", AcceptedID: "8:P3", AcceptedValue: &vNewer},
		{Type: "promise"}, // no prior accepted value
	}

	adopted, ok := adoptValue(promises)
	if !ok {
		t.Fatalf("adoptValue found nothing, want vNewer")
	}
	if adopted.Value != "newer" {
		t.Fatalf("adoptValue = %+v, want vNewer", adopted)
	}
}

func TestAdoptValueNoneWhenNoPromiseCarriesAValue(t *testing.T) {
	promises := []PrepareResponse{{Type: "promise"}, {Type: "promise"}}
	_, ok := adoptValue(promises)
	if ok {
		t.Fatalf("adoptValue found a value where none exists")
	}
}

func TestMintBallotIsUniqueUnderConcurrency(t *testing.T) {
	p := NewProposer("P1", []string{"http://unused"}, time.Second, 0, 0, nil)

	const n = 50
	seen := make(chan int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seen <- p.mintBallot().N
		}()
	}
	wg.Wait()
	close(seen)

	unique := make(map[int64]bool)
	for v := range seen {
		if unique[v] {
			t.Fatalf("mintBallot produced duplicate n=%d under concurrency", v)
		}
		unique[v] = true
	}
	if len(unique) != n {
		t.Fatalf("got %d unique ballots, want %d", len(unique), n)
	}
}

func TestBumpBallotNeverDecreases(t *testing.T) {
	p := NewProposer("P1", nil, time.Second, 0, 0, nil)
	b := p.mintBallot()

	lower := p.bumpBallot(0)
	if lower.N < b.N {
		t.Fatalf("bumpBallot(0) = %d, must never go below the current counter (%d)", lower.N, b.N)
	}

	higher := p.bumpBallot(100)
	if higher.N <= 100 {
		t.Fatalf("bumpBallot(100) = %d, want > 100", higher.N)
	}
}

// acceptorServer wraps a real Acceptor behind an httptest server, so the
// Proposer's network fan-out logic is exercised end-to-end against the
// Acceptor's actual Prepare/Accept semantics.
func acceptorServer(t *testing.T, id string) (*httptest.Server, *Acceptor) {
	t.Helper()
	a := NewAcceptor(id, nil, 0, nil, nil)
	mux := http.NewServeMux()
	mux.HandleFunc("/prepare", func(w http.ResponseWriter, r *http.Request) {
		var req PrepareRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		resp, status := a.Prepare(req)
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(resp)
	})
	mux.HandleFunc("/accept", func(w http.ResponseWriter, r *http.Request) {
		var req AcceptRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		resp, status := a.Accept(req)
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(resp)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, a
}

func TestProposerHappyPathCommitsWithMajority(t *testing.T) {
	srv1, _ := acceptorServer(t, "A1")
	srv2, _ := acceptorServer(t, "A2")

	p := NewProposer("P1", []string{srv1.URL, srv2.URL}, 2*time.Second, 0, 0, nil)
	txn := transaction.Transaction{ClientID: "c1", RequestID: "1", Value: "V1"}

	current := p.mintBallot()
	promises, _ := p.sendPrepareToAll(current, txn)
	if len(promises) != 2 {
		t.Fatalf("got %d promises, want 2", len(promises))
	}

	accepts, _ := p.sendAcceptToAll(current, txn)
	if len(accepts) != 2 {
		t.Fatalf("got %d accepts, want 2", len(accepts))
	}
}

func TestProposerValueAdoptionFromPriorAccept(t *testing.T) {
	// An Acceptor that already accepted an older value must surface it
	// in its promise, and the Proposer must adopt it instead of its own
	// proposed value.
	srv, a := acceptorServer(t, "A1")

	oldTxn := transaction.Transaction{ClientID: "c-old", RequestID: "9", Value: "V_old"}
	if _, status := a.Accept(AcceptRequest{ProposalID: "6:P2", Transaction: oldTxn}); status != http.StatusOK {
		t.Fatalf("setup Accept failed with status %d", status)
	}

	p := NewProposer("P1", []string{srv.URL}, 2*time.Second, 0, 0, nil)
	newTxn := transaction.Transaction{ClientID: "c-new", RequestID: "10", Value: "V_new"}

	current := p.mintBallot()
	current = p.bumpBallot(6) // ensure our ballot outranks the prior 6:P2
	promises, _ := p.sendPrepareToAll(current, newTxn)
	if len(promises) != 1 {
		t.Fatalf("got %d promises, want 1", len(promises))
	}

	adopted, ok := adoptValue(promises)
	if !ok {
		t.Fatalf("expected a value to adopt from the prior accept")
	}
	if adopted.Value != "V_old" {
		t.Fatalf("adopted value = %q, want %q", adopted.Value, "V_old")
	}
}

func TestProposerBumpsOnPrepareConflict(t *testing.T) {
	srv, a := acceptorServer(t, "A1")

	p := NewProposer("P1", []string{srv.URL}, 2*time.Second, 0, 0, nil)
	current := p.mintBallot()

	// Pre-promise a higher ballot so our first attempt is refused.
	conflicting := ballot.Ballot{N: current.N + 50, ProposerID: "P9"}
	a.Prepare(PrepareRequest{ProposalID: conflicting.String()})

	promises, highestSeen := p.sendPrepareToAll(current, transaction.Transaction{Value: "V1"})
	if len(promises) != 0 {
		t.Fatalf("got %d promises, want 0 (prepare must be refused)", len(promises))
	}

	if highestSeen < conflicting.N {
		t.Fatalf("highestSeen = %d, want >= %d so the Proposer bumps past the conflicting ballot", highestSeen, conflicting.N)
	}
	bumped := p.bumpBallot(highestSeen)
	if bumped.N <= conflicting.N {
		t.Fatalf("bumped ballot n = %d, want > %d", bumped.N, conflicting.N)
	}
}
