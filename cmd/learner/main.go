// Command learner runs the Learner role's HTTP server: the /learn
// handler, plus /metrics and a root health line.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"paxoscluster/internal/audit"
	"paxoscluster/internal/config"
	"paxoscluster/internal/metrics"
	"paxoscluster/internal/paxos"
)

var learner *paxos.Learner

func welcomeHandler(w http.ResponseWriter, _ *http.Request) {
	_, _ = fmt.Fprintf(w, "learner node online\n")
}

func learnHandler(w http.ResponseWriter, r *http.Request) {
	var req paxos.LearnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"malformed request body"}`, http.StatusBadRequest)
		return
	}

	resp := learner.Learn(req)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func historyHandler(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	proposalID := r.Form.Get("proposal_id")
	h, err := learner.History(proposalID, 100)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(h)
}

func main() {
	conf := config.Load()
	if conf.PORT == 0 {
		conf.PORT = 8200
	}

	auditSink, err := audit.New(conf.AUDIT_BACKEND, conf.AUDIT_DB_PATH, conf.AUDIT_REDIS_ADDR)
	if err != nil {
		log.Fatalf("[LEARNER] -> Could not build audit sink %q: %v", conf.AUDIT_BACKEND, err)
	}

	reg := prometheus.NewRegistry()
	m := metrics.NewLearner(reg)

	// LEARNER_ACCEPTOR_COUNT defaults to len(ACCEPTOR_URLS) in
	// FillEmptyFields, but a Learner isn't handed ACCEPTOR_URLS in this
	// topology (only the Proposer needs that roster) — so
	// config.Majority is applied explicitly here
	// against whatever count was configured.
	quorum := config.Majority(conf.LEARNER_ACCEPTOR_COUNT)

	learner = paxos.NewLearner(conf.HOSTNAME, quorum, conf.RPC_TIMEOUT, m, auditSink)

	http.HandleFunc("/", welcomeHandler)
	http.HandleFunc("/learn", learnHandler)
	http.HandleFunc("/history", historyHandler)
	http.Handle("/metrics", metrics.Handler(reg))

	log.Printf("[LEARNER %s] -> Listening on :%d (quorum: %d)", conf.HOSTNAME, conf.PORT, quorum)
	log.Fatal(http.ListenAndServe(":"+strconv.Itoa(conf.PORT), nil))
}
