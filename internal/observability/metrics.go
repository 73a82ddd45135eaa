package observability

import "github.com/prometheus/client_golang/prometheus"

// Domain counters for the session lifecycle. HTTP traffic metrics live in the
// middleware package; these count business events the services emit.
var (
	// GateRollbacks counts sessions forced back to step 1 by the confirmation gate.
	GateRollbacks = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "session_gate_rollbacks_total",
		Help: "Sessions rolled back to step 1 because placements needed confirmation.",
	})

	// Propagations counts new sessions seeded with placements, by source
	// ("session" or "profile").
	Propagations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "session_placements_propagated_total",
		Help: "New sessions seeded with copied placements.",
	}, []string{"source"})

	// VersionsCreated counts successful session versions (excluding replays).
	VersionsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "session_versions_created_total",
		Help: "Session versions created.",
	})

	// QuotaRejections counts version requests refused for exhausted free attempts.
	QuotaRejections = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "session_quota_rejections_total",
		Help: "Version requests rejected because free attempts were exhausted.",
	})

	// Extractions counts extraction calls by outcome (ok, failed, timeout).
	Extractions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "placements_extractions_total",
		Help: "Chart extraction calls by outcome.",
	}, []string{"outcome"})
)

func init() {
	prometheus.MustRegister(GateRollbacks, Propagations, VersionsCreated, QuotaRejections, Extractions)
}
