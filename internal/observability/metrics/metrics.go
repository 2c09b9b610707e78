package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "portal_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	mutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_state_mutations_total",
		Help: "Count of state mutations by operation and result",
	}, []string{"op", "result"})

	remotePushesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_remote_pushes_total",
		Help: "Count of remote document pushes by result",
	}, []string{"result"})

	remotePushSkipsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_remote_push_skips_total",
		Help: "Count of remote pushes skipped before reaching the adapter",
	}, []string{"reason"})

	reconcileRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_reconcile_runs_total",
		Help: "Count of boot-time reconciliations by outcome",
	}, []string{"outcome"})

	commissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_commissions_credited_total",
		Help: "Count of referral commissions credited, by level",
	}, []string{"level"})

	commissionAmount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_commission_amount_mwk_total",
		Help: "Sum of referral commissions credited in MWK, by level",
	}, []string{"level"})

	activeAffiliates = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "portal_active_affiliates",
		Help: "Number of affiliates with an active membership",
	})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveMutation counts one pass through the state store's update entry
// point. result is "committed" or "rejected".
func ObserveMutation(op, result string) {
	mutationsTotal.WithLabelValues(op, result).Inc()
}

// ObservePush records the outcome of a remote document upsert.
func ObservePush(result string) {
	remotePushesTotal.WithLabelValues(result).Inc()
}

// ObservePushSkip counts a push the scheduler refused to hand to the adapter
// (degenerate state, open circuit).
func ObservePushSkip(reason string) {
	remotePushSkipsTotal.WithLabelValues(reason).Inc()
}

// ObserveReconcile records a reconciliation outcome ("merged" or
// "local_only").
func ObserveReconcile(outcome string) {
	reconcileRunsTotal.WithLabelValues(outcome).Inc()
}

// ObserveCommission records one credited referral commission.
func ObserveCommission(level string, amount int64) {
	commissionsTotal.WithLabelValues(level).Inc()
	commissionAmount.WithLabelValues(level).Add(float64(amount))
}

// SetActiveAffiliates sets the active-membership gauge.
func SetActiveAffiliates(count int) {
	if count < 0 {
		count = 0
	}
	activeAffiliates.Set(float64(count))
}
