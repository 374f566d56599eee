// Command acceptor runs the Acceptor role's HTTP server: /prepare and
// /accept handlers, plus /metrics and a root health line, wired with a
// bare http.HandleFunc + ListenAndServe (no router library).
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

var acceptor *paxos.Acceptor

func welcomeHandler(w http.ResponseWriter, _ *http.Request) {
	_, _ = fmt.Fprintf(w, "acceptor node online\n")
}

func prepareHandler(w http.ResponseWriter, r *http.Request) {
	var req paxos.PrepareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"malformed request body"}`, http.StatusBadRequest)
		return
	}

	resp, status := acceptor.Prepare(req)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

func acceptHandler(w http.ResponseWriter, r *http.Request) {
	var req paxos.AcceptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"malformed request body"}`, http.StatusBadRequest)
		return
	}

	resp, status := acceptor.Accept(req)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

func historyHandler(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	proposalID := r.Form.Get("proposal_id")
	h, err := acceptor.History(proposalID, 100)
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
		conf.PORT = 8000
	}

	auditSink, err := audit.New(conf.AUDIT_BACKEND, conf.AUDIT_DB_PATH, conf.AUDIT_REDIS_ADDR)
	if err != nil {
		log.Fatalf("[ACCEPTOR] -> Could not build audit sink %q: %v", conf.AUDIT_BACKEND, err)
	}

	reg := prometheus.NewRegistry()
	m := metrics.NewAcceptor(reg)

	acceptor = paxos.NewAcceptor(conf.HOSTNAME, conf.LEARNER_URLS, conf.RPC_TIMEOUT, m, auditSink)

	http.HandleFunc("/", welcomeHandler)
	http.HandleFunc("/prepare", prepareHandler)
	http.HandleFunc("/accept", acceptHandler)
	http.HandleFunc("/history", historyHandler)
	http.Handle("/metrics", metrics.Handler(reg))

	log.Printf("[ACCEPTOR %s] -> Listening on :%d (learners: %v)", conf.HOSTNAME, conf.PORT, conf.LEARNER_URLS)
	log.Fatal(http.ListenAndServe(":"+strconv.Itoa(conf.PORT), nil))
}
