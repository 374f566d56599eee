package paxos

import (
	"context"
	"log"
	"math/rand"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"paxoscluster/internal/ballot"
	"paxoscluster/internal/config"
	"paxoscluster/internal/metrics"
	"paxoscluster/internal/transaction"
	"paxoscluster/internal/transport"
)

// Proposer drives consensus: ballot minting, Phase 1 (Prepare), value
// adoption, Phase 2 (Accept), and the bump-on-conflict retry loop.
//
// It holds a monotonically increasing local counter, seeded from a
// wall-clock millisecond reading to make collisions across restarts
// improbable, used to mint ballots, plus the network roster and retry
// tuning it needs to drive a consensus round.
type Proposer struct {
	id string
	acceptorURLs []string
	httpClient *http.Client
	majority int

	backoffMin, backoffMax float64

	counter int64 // atomic; minted ballot numbers and bump-on-conflict both flow through this.

	metrics *metrics.Proposer
}

// NewProposer builds a Proposer identified by id, proposing against
// acceptorURLs, bounding every outbound call by timeout and sleeping a
// uniformly random duration in [backoffMin, backoffMax] seconds between
// retry rounds.
func NewProposer(id string, acceptorURLs []string, timeout time.Duration, backoffMin, backoffMax float64, m *metrics.Proposer) *Proposer {
	return &Proposer{
		id: id,
		acceptorURLs: acceptorURLs,
		httpClient: transport.NewClient(timeout),
		majority: acceptorURLs2Majority(len(acceptorURLs)),
		backoffMin: backoffMin,
		backoffMax: backoffMax,
		counter: time.Now().UnixMilli(),
		metrics: m,
	}
}

func acceptorURLs2Majority(n int) int {
	return config.Majority(n)
}

// Propose mints a fresh ballot for txn, detaches the consensus loop into
// a background goroutine, and returns the ballot's proposal_id
// immediately. The HTTP handler that calls this never blocks on
// consensus; commit flows client-ward via the Learner, never through
// this call's return value.
func (p *Proposer) Propose(txn transaction.Transaction) string {
	if p.metrics != nil {
		p.metrics.AttemptsTotal.Inc()
	}
	b := p.mintBallot()
	go p.runConsensus(b, txn)
	return b.String()
}

// mintBallot allocates n := ++counter and pairs it with this Proposer's
// id. The counter increments atomically across concurrent /propose
// calls and bump-on-conflict updates.
func (p *Proposer) mintBallot() ballot.Ballot {
	n := atomic.AddInt64(&p.counter, 1)
	return ballot.Ballot{N: n, ProposerID: p.id}
}

// bumpBallot implements the bump-on-conflict rule: given the highest n
// seen across a batch of responses (0 if none carried one), it sets
// counter := max(counter, highestSeen+1) and returns a ballot built from
// the updated counter, preserving this Proposer's suffix.
func (p *Proposer) bumpBallot(highestSeenN int64) ballot.Ballot {
	newN := highestSeenN + 1
	for {
		old := atomic.LoadInt64(&p.counter)
		if newN <= old {
			newN = old
			break
		}
		if atomic.CompareAndSwapInt64(&p.counter, old, newN) {
			break
		}
	}
	return ballot.Ballot{N: newN, ProposerID: p.id}
}

// runConsensus runs until commit or process exit, retrying indefinitely
// on quorum failure with a bumped ballot and randomized backoff. There
// is no per-request retry cap and no cancellation signal — a
// partitioned Proposer loops forever.
func (p *Proposer) runConsensus(initial ballot.Ballot, txn transaction.Transaction) {
	current := initial

	for {
		// Phase 1: Prepare.
		if p.metrics != nil {
			p.metrics.PreparesSentTotal.Inc()
		}
		promises, highestSeen := p.sendPrepareToAll(current, txn)

		if len(promises) < p.majority {
			if p.metrics != nil {
				p.metrics.PromisesQuorumFailTotal.Inc()
			}
			log.Printf("[PROPOSER %s] -> Phase 1 quorum not reached for %s (%d/%d promises); bumping and retrying.", p.id, current, len(promises), p.majority)
			current = p.bumpBallot(highestSeen)
			p.backoffSleep()
			continue
		}

		// Value adoption: replace our proposed transaction with the
		// highest previously-accepted value seen in any promise, if any.
		// Skipping this step would let a Proposer overwrite an already
		// partially-accepted value, breaking Paxos safety.
		toPropose := txn
		if adopted, ok := adoptValue(promises); ok {
			if adopted != txn {
				log.Printf("[PROPOSER %s] -> Adopting previously-accepted value for %s in place of our own proposal.", p.id, current)
			}
			toPropose = adopted
		}

		// Phase 2: Accept.
		accepts, highestSeen2 := p.sendAcceptToAll(current, toPropose)

		if len(accepts) >= p.majority {
			if p.metrics != nil {
				p.metrics.CommitsTotal.Inc()
			}
			log.Printf("[PROPOSER %s] -> Phase 2 quorum reached for %s (%d/%d accepts); round complete.", p.id, current, len(accepts), p.majority)
			return
		}

		if p.metrics != nil {
			p.metrics.AcceptsQuorumFailTotal.Inc()
		}
		log.Printf("[PROPOSER %s] -> Phase 2 quorum not reached for %s (%d/%d accepts); bumping and retrying.", p.id, current, len(accepts), p.majority)
		current = p.bumpBallot(highestSeen2)
		p.backoffSleep()
	}
}

// adoptValue selects, among the received promises, the one with the
// highest accepted_id.n that also carries a non-null accepted_value.
func adoptValue(promises []PrepareResponse) (transaction.Transaction, bool) {
	var best transaction.Transaction
	var bestN int64 = -1
	found := false

	for _, p := range promises {
		if p.AcceptedValue == nil {
			continue
		}
		n := p.AcceptedIDBallot().N
		if n > bestN {
			bestN = n
			best = *p.AcceptedValue
			found = true
		}
	}
	return best, found
}

// backoffSleep sleeps a uniformly random duration in
// [backoffMin, backoffMax] seconds, giving two contending Proposers a
// chance to stop colliding.
func (p *Proposer) backoffSleep() {
	span := p.backoffMax - p.backoffMin
	d := p.backoffMin
	if span > 0 {
		d += rand.Float64() * span
	}
	time.Sleep(time.Duration(d * float64(time.Second)))
}

// sendPrepareToAll sends Prepare to every Acceptor in parallel, each
// call bounded by p.httpClient's timeout; a timeout or transport error
// counts as a not_promise. It returns the promises received and the
// highest ballot n observed across every response (promise or not),
// defaulting to 0, for bump-on-conflict.
func (p *Proposer) sendPrepareToAll(current ballot.Ballot, txn transaction.Transaction) ([]PrepareResponse, int64) {
	type result struct {
		resp PrepareResponse
		ok bool
		highest int64
	}
	results := make([]result, len(p.acceptorURLs))

	var wg sync.WaitGroup
	for i, url := range p.acceptorURLs {
		wg.Add(1)
		go func(i int, url string) {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()

			req := PrepareRequest{ProposalID: current.String(), Transaction: &txn}
			var resp PrepareResponse
			_, err := transport.PostJSON(ctx, p.httpClient, url+"/prepare", req, &resp)
			if err != nil {
				return
			}
			r := result{resp: resp, ok: resp.Type == "promise"}
			if n := resp.TIDInUseBallot().N; n > r.highest {
				r.highest = n
			}
			if n := resp.AcceptedIDBallot().N; n > r.highest {
				r.highest = n
			}
			results[i] = r
		}(i, url)
	}
	wg.Wait()

	var promises []PrepareResponse
	var highestSeen int64
	for _, r := range results {
		if r.ok {
			promises = append(promises, r.resp)
		}
		if r.highest > highestSeen {
			highestSeen = r.highest
		}
	}
	return promises, highestSeen
}

// sendAcceptToAll sends Accept with the (possibly adopted) value to
// every Acceptor in parallel. It returns the accepting responses and the
// highest ballot n observed across every response, for bump-on-conflict.
func (p *Proposer) sendAcceptToAll(current ballot.Ballot, txn transaction.Transaction) ([]AcceptResponse, int64) {
	type result struct {
		resp AcceptResponse
		ok bool
		highest int64
	}
	results := make([]result, len(p.acceptorURLs))

	var wg sync.WaitGroup
	for i, url := range p.acceptorURLs {
		wg.Add(1)
		go func(i int, url string) {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()

			req := AcceptRequest{ProposalID: current.String(), Transaction: txn}
			var resp AcceptResponse
			_, err := transport.PostJSON(ctx, p.httpClient, url+"/accept", req, &resp)
			if err != nil {
				return
			}
			r := result{resp: resp, ok: resp.Response == "accepted"}
			if n := resp.TIDInUseBallot().N; n > r.highest {
				r.highest = n
			}
			if n := resp.AcceptedIDBallot().N; n > r.highest {
				r.highest = n
			}
			results[i] = r
		}(i, url)
	}
	wg.Wait()

	var accepts []AcceptResponse
	var highestSeen int64
	for _, r := range results {
		if r.ok {
			accepts = append(accepts, r.resp)
		}
		if r.highest > highestSeen {
			highestSeen = r.highest
		}
	}
	return accepts, highestSeen
}
