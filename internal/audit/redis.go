// Redis-backed audit.Sink: a go-redis/v7 client using a key-per-entity
// convention. Decisions are pushed onto Redis lists; as with
// SQLiteSink, nothing here is ever read back by the protocol.
package audit

import (
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v7"
)

const (
	allDecisionsKey = "paxos:audit:all"
	proposalKeyPrefix = "paxos:audit:proposal:"
)

// RedisSink appends one JSON-encoded Decision per RPUSH to two lists: a
// global history list and a per-proposal_id list for fast History(pid)
// lookups.
type RedisSink struct {
	client *redis.Client
}

// NewRedisSink connects to addr and verifies the connection with PING.
func NewRedisSink(addr string) (*RedisSink, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if _, err := client.Ping().Result(); err != nil {
		return nil, fmt.Errorf("audit: redis did not respond to PING at %s: %w", addr, err)
	}
	return &RedisSink{client: client}, nil
}

// Record pushes d onto both the global and per-proposal lists.
func (s *RedisSink) Record(d Decision) error {
	encoded, err := json.Marshal(d)
	if err != nil {
		return err
	}
	if err := s.client.RPush(allDecisionsKey, encoded).Err(); err != nil {
		return err
	}
	if d.ProposalID != "" {
		if err := s.client.RPush(proposalKeyPrefix+d.ProposalID, encoded).Err(); err != nil {
			return err
		}
	}
	return nil
}

// History returns the latest entries from the relevant list, most recent
// first.
func (s *RedisSink) History(proposalID string, limit int) ([]Decision, error) {
	if limit <= 0 {
		limit = 100
	}
	key := allDecisionsKey
	if proposalID != "" {
		key = proposalKeyPrefix + proposalID
	}

	length, err := s.client.LLen(key).Result()
	if err != nil {
		return nil, err
	}
	start := length - int64(limit)
	if start < 0 {
		start = 0
	}
	raw, err := s.client.LRange(key, start, length-1).Result()
	if err != nil {
		return nil, err
	}

	out := make([]Decision, 0, len(raw))
	for i := len(raw) - 1; i >= 0; i-- { // most recent first
		var d Decision
		if err := json.Unmarshal([]byte(raw[i]), &d); err != nil {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

// Close releases the underlying redis connection.
func (s *RedisSink) Close() error {
	return s.client.Close()
}
