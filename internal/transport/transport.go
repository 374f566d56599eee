// Package transport implements the outbound side of the wire protocol:
// POST-JSON-with-timeout helpers shared by every role.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"log"
	"net/http"
	"time"
)

// PostJSON POSTs body (marshalled as JSON) to url, bounded by ctx and the
// client's timeout, and unmarshals the response body into out. A
// transport error (connect failure, timeout) or a non-2xx status other
// than 409 counts as a failure; a 409 returns a nil error with its body
// decoded. The caller treats any returned error as a negative vote,
// never as fatal.
// statusCode is returned even on error so callers that care about 409
// vs. 5xx (none currently do — conflict is data-carrying, not
// status-carrying, in this protocol) can inspect it.
func PostJSON(ctx context.Context, client *http.Client, url string, body interface{}, out interface{}) (statusCode int, err error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, fmt.Errorf("transport: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("transport: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("transport: %s unreachable: %w", url, err)
	}
	defer resp.Body.Close()

	respBody, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("transport: read body from %s: %w", url, err)
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return resp.StatusCode, fmt.Errorf("transport: decode body from %s: %w", url, err)
		}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 || resp.StatusCode == http.StatusConflict {
		// 409 is a data-carrying conflict response in this protocol, not
		// a transport failure — the caller inspects the decoded body.
		return resp.StatusCode, nil
	}
	return resp.StatusCode, fmt.Errorf("transport: %s returned status %d", url, resp.StatusCode)
}

// NewClient builds an *http.Client with the given per-call timeout: one
// client per role, shared across all outbound calls that role makes.
func NewClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// FireAndForget runs fn in its own goroutine and logs (but never
// propagates) any error it returns. Used for the Acceptor's best-effort
// fan-out to Learners and the Learner's best-effort client callback,
// where / require failures to be silently swallowed.
func FireAndForget(component, description string, fn func() error) {
	go func() {
		if err := fn(); err != nil {
			log.Printf("[%s] -> %s failed: %v", component, description, err)
		}
	}()
}
