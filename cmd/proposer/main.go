// Command proposer runs the Proposer role's HTTP server: the
// non-blocking /propose handler, plus /metrics and a root health line.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"paxoscluster/internal/config"
	"paxoscluster/internal/metrics"
	"paxoscluster/internal/paxos"
)

var proposer *paxos.Proposer

func welcomeHandler(w http.ResponseWriter, _ *http.Request) {
	_, _ = fmt.Fprintf(w, "proposer node online\n")
}

// proposeHandler accepts a transaction and returns 202 with its
// proposal_id. A missing transaction is the one 400 this role ever
// returns; no background task is spawned for it.
func proposeHandler(w http.ResponseWriter, r *http.Request) {
	var req paxos.ProposeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Transaction == nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "missing transaction"})
		return
	}

	proposalID := proposer.Propose(*req.Transaction)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(paxos.ProposeResponse{Status: "PENDING", ProposalID: proposalID})
}

func main() {
	conf := config.Load()
	if conf.PORT == 0 {
		conf.PORT = 9000
	}

	reg := prometheus.NewRegistry()
	m := metrics.NewProposer(reg)

	proposer = paxos.NewProposer(conf.HOSTNAME, conf.ACCEPTOR_URLS, conf.RPC_TIMEOUT, conf.PROPOSER_BASE_BACKOFF_MIN, conf.PROPOSER_BASE_BACKOFF_MAX, m)

	http.HandleFunc("/", welcomeHandler)
	http.HandleFunc("/propose", proposeHandler)
	http.Handle("/metrics", metrics.Handler(reg))

	log.Printf("[PROPOSER %s] -> Listening on :%d (acceptors: %v)", conf.HOSTNAME, conf.PORT, conf.ACCEPTOR_URLS)
	log.Fatal(http.ListenAndServe(":"+strconv.Itoa(conf.PORT), nil))
}
