// Package transaction holds the client-originated payload that Paxos
// agrees on. The type is intentionally opaque to the consensus engine:
// Proposer, Acceptor and Learner never inspect Value, they only move it
// around and compare it for equality.
package transaction

// Transaction is the opaque value a Client asks the cluster to agree on.
// ClientID doubles as the commit-callback host: ideally this would be a
// first-class address carried in the transaction, but the callback is
// still resolved by convention from ClientID, keeping the field named
// for what it is rather than what it's also used for.
type Transaction struct {
	ClientID string `json:"client_id"`
	RequestID string `json:"request_id"`
	Timestamp int64 `json:"timestamp"`
	Value string `json:"value"`
}

// IsZero reports whether t is the empty transaction, used to tell
// "no value proposed yet" apart from a legitimately empty Value.
func (t Transaction) IsZero() bool {
	return t == Transaction{}
}
