package paxos

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"paxoscluster/internal/audit"
	"paxoscluster/internal/ballot"
	"paxoscluster/internal/metrics"
	"paxoscluster/internal/transaction"
	"paxoscluster/internal/transport"
)

// Acceptor is the stateful voter. It holds highestPromised and
// (acceptedID, acceptedValue) guarded by a single mutex, so Prepare and
// Accept never interleave inside the read-modify-write of the
// promised/accepted fields.
type Acceptor struct {
	mu sync.Mutex

	highestPromisedN int64
	highestPromisedID ballot.Ballot
	acceptedID ballot.Ballot
	acceptedValue transaction.Transaction
	hasAccepted bool

	id string
	learnerURLs []string
	httpClient *http.Client
	metrics *metrics.Acceptor
	audit audit.Sink
}

// NewAcceptor builds an Acceptor identified by id, fanning vote
// notifications out to learnerURLs, bounding every outbound call by
// timeout.
func NewAcceptor(id string, learnerURLs []string, timeout time.Duration, m *metrics.Acceptor, a audit.Sink) *Acceptor {
	return &Acceptor{
		id: id,
		learnerURLs: learnerURLs,
		httpClient: transport.NewClient(timeout),
		metrics: m,
		audit: a,
	}
}

// Prepare answers a proposal_id with promise or not_promise. The
// comparison is ">=", not ">": a ballot equal to the current high-water
// mark is still promised, so an idempotent retry of the same TID
// succeeds.
func (a *Acceptor) Prepare(req PrepareRequest) (PrepareResponse, int) {
	reqBallot, err := ballot.Parse(req.ProposalID)
	if err != nil {
		log.Printf("[ACCEPTOR %s] -> Malformed proposal_id %q in /prepare: %v", a.id, req.ProposalID, err)
		return PrepareResponse{Type: "not_promise"}, http.StatusBadRequest
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if reqBallot.N >= a.highestPromisedN {
		a.highestPromisedN = reqBallot.N
		a.highestPromisedID = reqBallot
		log.Printf("[ACCEPTOR %s] -> Promising %s (highest promised n now %d).", a.id, reqBallot, a.highestPromisedN)

		resp := PrepareResponse{
			Type: "promise",
			TIDInUse: a.highestPromisedID.String(),
		}
		if a.hasAccepted {
			resp.AcceptedID = a.acceptedID.String()
			v := a.acceptedValue
			resp.AcceptedValue = &v
		}
		if a.metrics != nil {
			a.metrics.PromisesSentTotal.Inc()
		}
		a.recordAsync(req.ProposalID, "promise")
		return resp, http.StatusOK
	}

	log.Printf("[ACCEPTOR %s] -> Refusing prepare for %s: highest promised n is %d.", a.id, reqBallot, a.highestPromisedN)
	resp := PrepareResponse{
		Type: "not_promise",
		TIDInUse: a.highestPromisedID.String(),
	}
	if a.hasAccepted {
		resp.AcceptedID = a.acceptedID.String()
		v := a.acceptedValue
		resp.AcceptedValue = &v
	}
	if a.metrics != nil {
		a.metrics.RejectionsSentTotal.Inc()
	}
	a.recordAsync(req.ProposalID, "not_promise")
	return resp, http.StatusConflict
}

// Accept answers a proposal_id/transaction pair with accepted or
// not_accepted. On acceptance, (acceptedID, acceptedValue) are retained —
// never cleared — so a later Prepare can report them back for value
// adoption by a future Proposer.
func (a *Acceptor) Accept(req AcceptRequest) (AcceptResponse, int) {
	reqBallot, err := ballot.Parse(req.ProposalID)
	if err != nil {
		log.Printf("[ACCEPTOR %s] -> Malformed proposal_id %q in /accept: %v", a.id, req.ProposalID, err)
		return AcceptResponse{Response: "not_accepted"}, http.StatusBadRequest
	}

	a.mu.Lock()
	accept := reqBallot.N >= a.highestPromisedN
	if accept {
		a.acceptedID = reqBallot
		a.acceptedValue = req.Transaction
		a.hasAccepted = true
		a.highestPromisedN = reqBallot.N
		a.highestPromisedID = reqBallot
	}
	highestPromisedID := a.highestPromisedID
	a.mu.Unlock()

	if accept {
		log.Printf("[ACCEPTOR %s] -> Accepting %s.", a.id, reqBallot)
		if a.metrics != nil {
			a.metrics.AcceptsReceivedTotal.Inc()
		}
		a.notifyLearners(req.ProposalID, req.Transaction, true)
		a.recordAsync(req.ProposalID, "accepted")
		return AcceptResponse{Response: "accepted", TID: req.ProposalID}, http.StatusOK
	}

	log.Printf("[ACCEPTOR %s] -> Declining %s: highest promised is %s.", a.id, reqBallot, highestPromisedID)
	if a.metrics != nil {
		a.metrics.RejectionsSentTotal.Inc()
	}
	a.notifyLearners(req.ProposalID, req.Transaction, false)
	a.recordAsync(req.ProposalID, "not_accepted")
	return AcceptResponse{
		Response: "not_accepted",
		TID: req.ProposalID,
		TIDInUse: highestPromisedID.String(),
	}, http.StatusConflict
}

// notifyLearners fans the Acceptor's vote out to every known Learner,
// each call bounded by a short timeout and best-effort: failures are
// silently swallowed, per ("Acceptor does not retry outbound
// notifications"). Fan-out runs concurrently (permits this), but the
// handler does not wait on it.
func (a *Acceptor) notifyLearners(proposalID string, txn transaction.Transaction, accepted bool) {
	payload := LearnRequest{
		AcceptorID: a.id,
		ProposalID: proposalID,
		Accepted: accepted,
		Transaction: txn,
	}
	for _, url := range a.learnerURLs {
		url := url
		transport.FireAndForget("ACCEPTOR", "notify learner "+url, func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
			defer cancel()
			var resp LearnResponse
			_, err := transport.PostJSON(ctx, a.httpClient, url, payload, &resp)
			if a.metrics != nil {
				a.metrics.LearnerNotificationsTotal.Inc()
			}
			return err
		})
	}
}

func (a *Acceptor) recordAsync(proposalID, outcome string) {
	if a.audit == nil {
		return
	}
	transport.FireAndForget("ACCEPTOR", "audit record", func() error {
		return a.audit.Record(audit.Decision{
			Time: time.Now(), Role: "acceptor", NodeID: a.id,
			ProposalID: proposalID, Outcome: outcome,
		})
	})
}

// History returns the Acceptor's recorded decision history from its
// audit sink, purely for operational inspection — never consulted by
// Prepare/Accept.
func (a *Acceptor) History(proposalID string, limit int) ([]audit.Decision, error) {
	if a.audit == nil {
		return nil, nil
	}
	return a.audit.History(proposalID, limit)
}
