// Package metrics defines the Prometheus counters used across the
// consensus wire protocol and wires them to a /metrics scrape endpoint,
// adapted from the original Python source's prometheus_client usage
// (Counter + make_wsgi_app/DispatcherMiddleware).
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Proposer holds the five counters a Proposer process increments.
type Proposer struct {
	AttemptsTotal prometheus.Counter
	PreparesSentTotal prometheus.Counter
	PromisesQuorumFailTotal prometheus.Counter
	AcceptsQuorumFailTotal prometheus.Counter
	CommitsTotal prometheus.Counter
}

// NewProposer registers and returns the Proposer counter set against reg.
func NewProposer(reg *prometheus.Registry) *Proposer {
	factory := promauto.With(reg)
	return &Proposer{
		AttemptsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "paxos_attempts_total", Help: "Total client /propose requests received.",
		}),
		PreparesSentTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "paxos_prepares_sent_total", Help: "Total PREPARE messages sent.",
		}),
		PromisesQuorumFailTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "paxos_promises_quorum_fail_total", Help: "Total Phase 1 quorum failures.",
		}),
		AcceptsQuorumFailTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "paxos_accepts_quorum_fail_total", Help: "Total Phase 2 quorum failures.",
		}),
		CommitsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "paxos_commits_total", Help: "Total proposals completed with a Phase 2 quorum.",
		}),
	}
}

// Acceptor holds the four counters an Acceptor process increments.
type Acceptor struct {
	PromisesSentTotal prometheus.Counter
	AcceptsReceivedTotal prometheus.Counter
	RejectionsSentTotal prometheus.Counter
	LearnerNotificationsTotal prometheus.Counter
}

// NewAcceptor registers and returns the Acceptor counter set against reg.
func NewAcceptor(reg *prometheus.Registry) *Acceptor {
	factory := promauto.With(reg)
	return &Acceptor{
		PromisesSentTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "paxos_promises_sent_total", Help: "Total PROMISE responses sent.",
		}),
		AcceptsReceivedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "paxos_accepts_received_total", Help: "Total ACCEPT requests that resulted in an accept.",
		}),
		RejectionsSentTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "paxos_rejections_sent_total", Help: "Total not_promise/not_accepted responses sent.",
		}),
		LearnerNotificationsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "paxos_learner_notifications_total", Help: "Total vote notifications fanned out to Learners.",
		}),
	}
}

// Learner holds the two counters a Learner process increments.
type Learner struct {
	CommitTotal prometheus.Counter
	ClientNotificationSentTotal prometheus.Counter
}

// NewLearner registers and returns the Learner counter set against reg.
func NewLearner(reg *prometheus.Registry) *Learner {
	factory := promauto.With(reg)
	return &Learner{
		CommitTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "paxos_commit_total", Help: "Total proposals reaching a COMMITTED quorum at this Learner.",
		}),
		ClientNotificationSentTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "paxos_client_notification_sent_total", Help: "Total /commit callbacks attempted toward clients.",
		}),
	}
}

// Handler returns the /metrics HTTP handler for reg, in Prometheus text
// exposition format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
