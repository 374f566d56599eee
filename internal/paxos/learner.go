package paxos

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"paxoscluster/internal/audit"
	"paxoscluster/internal/metrics"
	"paxoscluster/internal/transaction"
	"paxoscluster/internal/transport"
)

// clientCommitPort is the port a Learner assumes a Client's /commit
// receiver listens on: the commit URL is synthesized as
// http://{client_id}:5000/commit, a fragile hostname-resolution
// convention kept here since the wire protocol still names it this
// way, rather than carrying a first-class address in the transaction.
const clientCommitPort = 5000

// tally is the per-proposal_id vote record. Votes are keyed by
// acceptorID (a set, not a counter) so that a retried /learn from the
// same Acceptor never double-counts toward quorum.
type tally struct {
	yes, no map[string]bool
	transaction transaction.Transaction
	notified bool
	finalStatus string // "committed" | "rejected", valid only once notified
}

// Learner is the vote aggregator: per proposal identifier, it counts
// distinct positive/negative acceptor votes and, on reaching quorum of
// either polarity, notifies the originating client exactly once.
type Learner struct {
	mu sync.Mutex
	tallies map[string]*tally

	id string
	quorum int
	httpClient *http.Client
	metrics *metrics.Learner
	audit audit.Sink
}

// NewLearner builds a Learner identified by id, requiring quorum
// matching votes (of either polarity) before it notifies a client.
// quorum must be derived from the same roster size the Proposer's
// MAJORITY uses (config.Majority), so the two thresholds can never
// silently disagree regardless of cluster size.
func NewLearner(id string, quorum int, timeout time.Duration, m *metrics.Learner, a audit.Sink) *Learner {
	return &Learner{
		tallies: make(map[string]*tally),
		id: id,
		quorum: quorum,
		httpClient: transport.NewClient(timeout),
		metrics: m,
		audit: a,
	}
}

// Learn records one acceptor's vote for proposal_id (acceptor_id,
// proposal_id, accepted, transaction). Counting is polarity-independent:
// yes and no tallies for the same TID proceed in parallel, and whichever
// first reaches quorum wins. Each polarity's set counts an Acceptor at
// most once, so a repeated vote of the same polarity is not counted
// twice; the yes and no sets are separate, so one Acceptor can appear in
// both.
func (l *Learner) Learn(req LearnRequest) LearnResponse {
	l.mu.Lock()

	t, ok := l.tallies[req.ProposalID]
	if !ok {
		t = &tally{yes: make(map[string]bool), no: make(map[string]bool)}
		l.tallies[req.ProposalID] = t
	}
	t.transaction = req.Transaction

	if t.notified {
		// Idempotence guard (Learner state lifecycle): a retried or
		// duplicate /learn for an already-decided TID is answered
		// immediately with the final status, no further side effects.
		status := t.finalStatus
		l.mu.Unlock()
		return LearnResponse{Status: status}
	}

	if req.Accepted {
		t.yes[req.AcceptorID] = true
	} else {
		t.no[req.AcceptorID] = true
	}

	var notifyCommitted, notifyRejected bool
	if len(t.yes) >= l.quorum {
		t.notified = true
		t.finalStatus = "committed"
		notifyCommitted = true
	} else if len(t.no) >= l.quorum {
		t.notified = true
		t.finalStatus = "rejected"
		notifyRejected = true
	}
	txn := t.transaction
	status := t.finalStatus
	if status == "" {
		status = "pending"
	}
	l.mu.Unlock()

	switch {
	case notifyCommitted:
		log.Printf("[LEARNER %s] -> Quorum reached (%d/%d yes) for %s; notifying client.", l.id, l.quorum, l.quorum, req.ProposalID)
		if l.metrics != nil {
			l.metrics.CommitTotal.Inc()
		}
		l.notifyClient(txn, true, req.ProposalID)
		l.recordAsync(req.ProposalID, "committed", txn.Value)
	case notifyRejected:
		log.Printf("[LEARNER %s] -> Quorum reached (%d/%d no) for %s; notifying client of rejection.", l.id, l.quorum, l.quorum, req.ProposalID)
		l.notifyClient(txn, false, req.ProposalID)
		l.recordAsync(req.ProposalID, "rejected", txn.Value)
	}

	return LearnResponse{Status: status}
}

// notifyClient posts the outcome to the client's /commit endpoint. A
// transaction missing ClientID or RequestID is logged and dropped rather
// than sent: the tally already flipped notified=true before the POST, so
// a malformed transaction leaves the round stuck pending at this Learner
// from the client's point of view, consistent with the at-most-once (not
// at-least-once) notification guarantee this Learner makes overall.
func (l *Learner) notifyClient(txn transaction.Transaction, committed bool, proposalID string) {
	if txn.ClientID == "" || txn.RequestID == "" {
		log.Printf("[LEARNER %s] -> Malformed notification: missing client_id/request_id in transaction %+v; dropping.", l.id, txn)
		return
	}

	result := "REJECTED"
	if committed {
		result = "COMMITTED"
	}
	payload := CommitRequest{
		RequestID: txn.RequestID,
		Result: result,
		ProposalID: proposalID,
	}
	url := fmt.Sprintf("http://%s:%d/commit", txn.ClientID, clientCommitPort)

	transport.FireAndForget("LEARNER", "notify client "+txn.ClientID, func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		var resp CommitResponse
		_, err := transport.PostJSON(ctx, l.httpClient, url, payload, &resp)
		if l.metrics != nil {
			l.metrics.ClientNotificationSentTotal.Inc()
		}
		if err != nil {
			log.Printf("[LEARNER %s] -> Failed notifying client %s for request %s: %v", l.id, txn.ClientID, txn.RequestID, err)
		} else {
			log.Printf("[LEARNER %s] -> Notified client %s for request %s -> %s.", l.id, txn.ClientID, txn.RequestID, result)
		}
		return err
	})
}

func (l *Learner) recordAsync(proposalID, outcome, value string) {
	if l.audit == nil {
		return
	}
	transport.FireAndForget("LEARNER", "audit record", func() error {
		return l.audit.Record(audit.Decision{
			Time: time.Now(), Role: "learner", NodeID: l.id,
			ProposalID: proposalID, Outcome: outcome, Value: value,
		})
	})
}

// History returns the Learner's recorded decision history from its audit
// sink, purely for operational inspection.
func (l *Learner) History(proposalID string, limit int) ([]audit.Decision, error) {
	if l.audit == nil {
		return nil, nil
	}
	return l.audit.History(proposalID, limit)
}
