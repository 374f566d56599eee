// Package ballot implements the Paxos proposal identifier (TID): a pair
// (n, proposer_id) ordered by n alone; the proposer's suffix tells
// distinct Proposers' ballots apart on the wire but never breaks ties in
// ordering.
package ballot

import (
	"fmt"
	"strconv"
	"strings"
)

// Ballot is a single Proposer attempt number. The zero value (N == 0)
// means "no ballot" and compares lower than every minted ballot, since
// proposers start minting from 1.
type Ballot struct {
	N int64
	ProposerID string
}

// Zero is the "no ballot" sentinel used for acceptedID / highestPromisedID
// before anything has ever been promised or accepted.
var Zero = Ballot{}

// IsZero reports whether b is the "no ballot" sentinel.
func (b Ballot) IsZero() bool {
	return b.N == 0
}

// String renders the on-wire form "<n>:<proposer_id>".
func (b Ballot) String() string {
	if b.IsZero() {
		return ""
	}
	return fmt.Sprintf("%d:%s", b.N, b.ProposerID)
}

// MarshalJSON encodes the ballot as its wire string. An empty/zero ballot
// encodes to "" rather than "0:" so responses can tell "promised nothing"
// apart from promising the literal ballot "0:<id>", which never exists.
func (b Ballot) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(b.String())), nil
}

// UnmarshalJSON decodes the ballot from its wire string form.
func (b *Ballot) UnmarshalJSON(data []byte) error {
	s, err := strconv.Unquote(string(data))
	if err != nil {
		return err
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

// Parse reverses String. An empty string parses to Zero.
func Parse(s string) (Ballot, error) {
	if s == "" {
		return Zero, nil
	}
	idx := strings.IndexByte(s, ':')
	if idx < 0 {
		return Zero, fmt.Errorf("ballot: malformed tid %q, missing ':'", s)
	}
	n, err := strconv.ParseInt(s[:idx], 10, 64)
	if err != nil {
		return Zero, fmt.Errorf("ballot: malformed tid %q: %w", s, err)
	}
	return Ballot{N: n, ProposerID: s[idx+1:]}, nil
}

// Less reports whether b sorts strictly before other. Comparison uses
// only N: the proposer suffix never participates in ordering, only in
// tie-breaking identity at the wire level.
func (b Ballot) Less(other Ballot) bool {
	return b.N < other.N
}

// GTE reports whether b.N >= other.N. This is the comparison the Acceptor
// uses for both Prepare and Accept — note Prepare and Accept both use
// "greater than or equal", matching the documented relaxation: a ballot
// tying the current high-water mark is accepted, which lets a Proposer
// retry with the identical TID idempotently.
func (b Ballot) GTE(other Ballot) bool {
	return b.N >= other.N
}
