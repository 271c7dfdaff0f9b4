/*
Package metrics exposes fluxdns' Prometheus metrics and the component health
registry behind the /health and /ready endpoints.

All metrics are registered on the default Prometheus registry at init and are
served by Handler:

	fluxdns_pass_duration_seconds              histogram
	fluxdns_passes_total                       counter
	fluxdns_tracked_applications               gauge
	fluxdns_catalog_errors_total               counter
	fluxdns_reachable_peers_per_application    histogram
	fluxdns_candidates_per_application         histogram
	fluxdns_probes_total{result}               counter
	fluxdns_probe_duration_seconds             histogram
	fluxdns_outcomes_total{outcome}            counter
	fluxdns_record_actions_total{action}       counter
	fluxdns_provider_request_duration_seconds  histogram{operation}
	fluxdns_provider_errors_total{operation}   counter

Timer measures an operation and observes it on a histogram:

	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.PassDuration)

# Health

Components report their state with RegisterComponent/UpdateComponent. The
store and reconciler are critical: readiness waits for both, and a critical
failure makes /health return 503. Catalog, directory and DNS failures are
properties of the outside world; they mark the process degraded but keep
/health at 200 so orchestrators do not restart a process that cannot fix them.
*/
package metrics
