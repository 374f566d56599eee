// Command client runs the workload generator and /commit receiver: a
// client sends a random number of WRITE transactions to a randomly
// chosen Proposer, polls its own results map for a commit notification
// with a 15s timeout, and paces itself with a short random sleep between
// requests.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"strconv"
	"sync"
	"time"

	"paxoscluster/internal/config"
	"paxoscluster/internal/transaction"
	"paxoscluster/internal/transport"
)

type commitResult struct {
	Result string `json:"result"`
	ProposalID string `json:"proposal_id"`
}

var (
	resultsMu sync.Mutex
	results = make(map[string]commitResult)
)

func commitHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RequestID string `json:"request_id"`
		Result string `json:"result"`
		ProposalID string `json:"proposal_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"malformed request body"}`, http.StatusBadRequest)
		return
	}

	resultsMu.Lock()
	results[req.RequestID] = commitResult{Result: req.Result, ProposalID: req.ProposalID}
	resultsMu.Unlock()

	log.Printf("[CLIENT] -> Commit notification for request %s: %s (proposal %s)", req.RequestID, req.Result, req.ProposalID)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}

func lookupResult(requestID string) (commitResult, bool) {
	resultsMu.Lock()
	defer resultsMu.Unlock()
	r, ok := results[requestID]
	return r, ok
}

// sendTransaction proposes a single WRITE transaction to a randomly
// chosen Proposer, spreading load across the roster.
func sendTransaction(httpClient *http.Client, proposerURLs []string, clientID string, requestID int) {
	proposerURL := proposerURLs[rand.Intn(len(proposerURLs))]

	txn := transaction.Transaction{
		ClientID: clientID,
		RequestID: strconv.Itoa(requestID),
		Timestamp: time.Now().UnixMilli(),
		Value: fmt.Sprintf("WRITE_%s_%d", clientID, requestID),
	}
	payload := map[string]interface{}{"transaction": txn}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var resp map[string]interface{}
	_, err := transport.PostJSON(ctx, httpClient, proposerURL, payload, &resp)
	if err != nil {
		log.Printf("[CLIENT %s] -> Error sending request %d to %s: %v", clientID, requestID, proposerURL, err)
		return
	}
	log.Printf("[CLIENT %s] -> Sent transaction request %d to %s", clientID, requestID, proposerURL)
}

// mainLoop is the background workload generator: it sends one request at
// a time, polls for up to 15s for a /commit notification, and only
// advances to the next request_id once the current one COMMITTED (a
// timeout or REJECTED outcome causes a retry of the same request_id).
func mainLoop(httpClient *http.Client, proposerURLs []string, clientID string, maxRequests int) {
	nextRequestID := 1
	sent := 0

	for sent < maxRequests {
		requestID := nextRequestID
		nextRequestID++
		key := strconv.Itoa(requestID)

		sendTransaction(httpClient, proposerURLs, clientID, requestID)

		const pollInterval = 200 * time.Millisecond
		const pollTimeout = 15 * time.Second
		waited := time.Duration(0)
		var r commitResult
		var ok bool
		for waited < pollTimeout {
			if r, ok = lookupResult(key); ok {
				break
			}
			time.Sleep(pollInterval)
			waited += pollInterval
		}

		if ok && r.Result == "COMMITTED" {
			sent++
			sleepSecs := 1 + rand.Intn(5)
			log.Printf("[CLIENT %s] -> Request %s COMMITTED. Sleeping %ds.", clientID, key, sleepSecs)
			time.Sleep(time.Duration(sleepSecs) * time.Second)
		} else {
			log.Printf("[CLIENT %s] -> Request %s not committed within timeout; will retry.", clientID, key)
			time.Sleep(time.Duration(1+rand.Float64()*4) * time.Second)
			nextRequestID = requestID // retry the same request_id, not the next one
		}
	}

	log.Printf("[CLIENT %s] -> Finished all %d requests.", clientID, maxRequests)
}

func main() {
	conf := config.Load()
	if conf.PORT == 0 {
		conf.PORT = 5000
	}
	if len(conf.PROPOSER_URLS) == 0 {
		log.Fatalf("[CLIENT] -> PROPOSER_URLS must name at least one Proposer /propose endpoint.")
	}

	httpClient := transport.NewClient(conf.RPC_TIMEOUT)
	maxRequests := conf.CLIENT_MIN_REQUESTS + rand.Intn(conf.CLIENT_MAX_REQUESTS-conf.CLIENT_MIN_REQUESTS+1)

	http.HandleFunc("/commit", commitHandler)
	http.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = fmt.Fprintf(w, "client node online\n")
	})

	log.Printf("[CLIENT %s] -> Starting; will send %d transactions to %v.", conf.HOSTNAME, maxRequests, conf.PROPOSER_URLS)
	go mainLoop(httpClient, conf.PROPOSER_URLS, conf.HOSTNAME, maxRequests)

	log.Fatal(http.ListenAndServe(":"+strconv.Itoa(conf.PORT), nil))
}
