// Package paxos implements the three core roles of single-decree Paxos —
// Proposer, Acceptor, Learner — against a JSON/HTTP wire protocol. The
// types below are the message payloads for each endpoint, keyed by
// field names like proposal_id/tid_in_use/accepted_id rather than
// terser internal identifiers.
package paxos

import (
	"paxoscluster/internal/ballot"
	"paxoscluster/internal/transaction"
)

// ProposeRequest is the body of POST /propose.
type ProposeRequest struct {
	Transaction *transaction.Transaction `json:"transaction"`
}

// ProposeResponse is the 202 body of POST /propose.
type ProposeResponse struct {
	Status string `json:"status"`
	ProposalID string `json:"proposal_id"`
}

// PrepareRequest is the body of POST /prepare.
type PrepareRequest struct {
	ProposalID string `json:"proposal_id"`
	Transaction *transaction.Transaction `json:"transaction,omitempty"`
}

// PrepareResponse is the body of POST /prepare's 200/409 response.
type PrepareResponse struct {
	Type string `json:"type"` // "promise" | "not_promise"
	TIDInUse string `json:"tid_in_use"`
	AcceptedID string `json:"accepted_id"`
	AcceptedValue *transaction.Transaction `json:"accepted_value"`
}

// TIDInUseBallot parses TIDInUse back into a structured Ballot, defaulting to
// ballot.Zero on a malformed/empty string.
func (r PrepareResponse) TIDInUseBallot() ballot.Ballot {
	b, err := ballot.Parse(r.TIDInUse)
	if err != nil {
		return ballot.Zero
	}
	return b
}

// AcceptedIDBallot parses AcceptedID back into a structured Ballot.
func (r PrepareResponse) AcceptedIDBallot() ballot.Ballot {
	b, err := ballot.Parse(r.AcceptedID)
	if err != nil {
		return ballot.Zero
	}
	return b
}

// AcceptRequest is the body of POST /accept.
type AcceptRequest struct {
	ProposalID string `json:"proposal_id"`
	Transaction transaction.Transaction `json:"transaction"`
}

// AcceptResponse is the body of POST /accept's 200/409 response.
type AcceptResponse struct {
	Response string `json:"response"` // "accepted" | "not_accepted"
	TID string `json:"tid"`
	TIDInUse string `json:"tid_in_use,omitempty"`
}

// TIDInUseBallot parses TIDInUse back into a structured Ballot.
func (r AcceptResponse) TIDInUseBallot() ballot.Ballot {
	b, err := ballot.Parse(r.TIDInUse)
	if err != nil {
		return ballot.Zero
	}
	return b
}

// AcceptedIDBallot parses TID back into a structured Ballot — used by the
// Proposer's bump-on-conflict, which also inspects "accepted_id" across
// both Prepare and Accept response kinds.
func (r AcceptResponse) AcceptedIDBallot() ballot.Ballot {
	b, err := ballot.Parse(r.TID)
	if err != nil {
		return ballot.Zero
	}
	return b
}

// LearnRequest is the body of POST /learn.
type LearnRequest struct {
	AcceptorID string `json:"acceptor_id"`
	ProposalID string `json:"proposal_id"`
	Accepted bool `json:"accepted"`
	Transaction transaction.Transaction `json:"transaction"`
}

// LearnResponse is the body of POST /learn's response.
type LearnResponse struct {
	Status string `json:"status"` // "committed" | "rejected" | "pending"
}

// CommitRequest is the body of POST /commit, sent by a Learner to a
// Client.
type CommitRequest struct {
	RequestID string `json:"request_id"`
	Result string `json:"result"` // "COMMITTED" | "REJECTED"
	ProposalID string `json:"proposal_id"`
}

// CommitResponse is the body of POST /commit's response.
type CommitResponse struct {
	OK bool `json:"ok"`
}
