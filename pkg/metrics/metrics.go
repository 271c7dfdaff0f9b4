package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Pass metrics
	PassDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fluxdns_pass_duration_seconds",
			Help:    "Duration of a full reconciliation pass in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 120},
		},
	)

	PassesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fluxdns_passes_total",
			Help: "Total number of reconciliation passes run",
		},
	)

	TrackedApplications = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "fluxdns_tracked_applications",
			Help: "Number of applications tracked in the last pass",
		},
	)

	CatalogErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fluxdns_catalog_errors_total",
			Help: "Total number of failed catalog refreshes",
		},
	)

	// Discovery metrics
	ReachablePeers = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fluxdns_reachable_peers_per_application",
			Help:    "Directory peers found reachable per application pipeline",
			Buckets: []float64{0, 1, 2, 3, 4, 5, 8},
		},
	)

	CandidatesFound = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fluxdns_candidates_per_application",
			Help:    "Candidate endpoints reported per application lookup",
			Buckets: []float64{0, 1, 2, 3, 5, 8, 13, 21},
		},
	)

	ProbesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fluxdns_probes_total",
			Help: "Total number of liveness probes by result",
		},
		[]string{"result"},
	)

	ProbeDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fluxdns_probe_duration_seconds",
			Help:    "Liveness probe duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Pipeline and DNS metrics
	OutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fluxdns_outcomes_total",
			Help: "Total number of application pipeline outcomes by kind",
		},
		[]string{"outcome"},
	)

	RecordActionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fluxdns_record_actions_total",
			Help: "Total number of DNS record reconciliations by action",
		},
		[]string{"action"},
	)

	ProviderRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fluxdns_provider_request_duration_seconds",
			Help:    "DNS provider API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	ProviderErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fluxdns_provider_errors_total",
			Help: "Total number of failed DNS provider API calls by operation",
		},
		[]string{"operation"},
	)
)

func init() {
	prometheus.MustRegister(PassDuration)
	prometheus.MustRegister(PassesTotal)
	prometheus.MustRegister(TrackedApplications)
	prometheus.MustRegister(CatalogErrorsTotal)
	prometheus.MustRegister(ReachablePeers)
	prometheus.MustRegister(CandidatesFound)
	prometheus.MustRegister(ProbesTotal)
	prometheus.MustRegister(ProbeDuration)
	prometheus.MustRegister(OutcomesTotal)
	prometheus.MustRegister(RecordActionsTotal)
	prometheus.MustRegister(ProviderRequestDuration)
	prometheus.MustRegister(ProviderErrorsTotal)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
