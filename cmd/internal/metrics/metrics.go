// Package metrics exposes Passage's Prometheus instrumentation.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// TokensIssued counts session tokens minted on successful logins.
	TokensIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "passage_session_tokens_issued_total",
		Help: "Session tokens issued.",
	})

	// VerifyRejected counts bearer-token verifications that failed
	// (absent or outside the sliding window; the two are not distinguished).
	VerifyRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "passage_session_verify_rejected_total",
		Help: "Session token verifications rejected.",
	})

	// SweepDeleted counts stale tokens removed by the background sweep.
	SweepDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "passage_session_sweep_deleted_total",
		Help: "Stale session tokens deleted by the sweeper.",
	})

	// SweepFailures counts sweep ticks that failed and will be retried.
	SweepFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "passage_session_sweep_failures_total",
		Help: "Sweep ticks that failed against the store.",
	})

	// Registrations counts committed account registrations.
	Registrations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "passage_account_registrations_total",
		Help: "Accounts registered (committed).",
	})

	// MailFailures counts failed mail dispatches (activation and reset).
	MailFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "passage_mail_failures_total",
		Help: "Outbound mail dispatch failures.",
	})
)

// Handler serves the default registry for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
