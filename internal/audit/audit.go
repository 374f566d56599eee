// Package audit records a write-only history of Acceptor and Learner
// decisions for operational inspection. It is never consulted by the
// protocol itself: the Non-goal "durable state across restarts" (all
// Acceptor/Learner correctness state is in-memory) is preserved because
// no Sink implementation is ever read back from to make a Paxos
// decision or to repopulate state on startup. Two interchangeable
// backends (sqlite, redis) are provided, repurposed from the kind of
// authoritative storage a node-local store might otherwise use into a
// best-effort audit trail.
package audit

import "time"

// Decision is one line of history: an Acceptor's response to a Prepare
// or Accept, or a Learner's tally outcome.
type Decision struct {
	Time time.Time `json:"time"`
	Role string `json:"role"` // "acceptor" or "learner"
	NodeID string `json:"node_id"` // acceptor_id / learner hostname
	ProposalID string `json:"proposal_id"` // the TID this decision concerns
	Outcome string `json:"outcome"` // "promise" | "not_promise" | "accepted" | "not_accepted" | "committed" | "rejected"
	Value string `json:"value"`
}

// Sink persists a Decision for later inspection. The Acceptor and
// Learner call Record from a detached goroutine (transport.FireAndForget),
// so a slow sink does not hold up a Prepare/Accept/learn handler.
type Sink interface {
	Record(d Decision) error
	// History returns the most recent decisions, most recent first,
	// optionally filtered to a single proposal_id ("" means no filter).
	History(proposalID string, limit int) ([]Decision, error)
	Close() error
}

// NoopSink discards every decision. It is the default AUDIT_BACKEND, and
// exists so callers never need a nil check.
type NoopSink struct{}

func (NoopSink) Record(Decision) error { return nil }
func (NoopSink) History(string, int) ([]Decision, error) { return nil, nil }
func (NoopSink) Close() error { return nil }

// New builds the Sink named by backend ("sqlite", "redis", or anything
// else, which falls back to NoopSink), wiring dbPath/redisAddr as
// needed.
func New(backend, dbPath, redisAddr string) (Sink, error) {
	switch backend {
	case "sqlite":
		return NewSQLiteSink(dbPath)
	case "redis":
		return NewRedisSink(redisAddr)
	default:
		return NoopSink{}, nil
	}
}
