// Package api serves fluxdns' read-only HTTP status surface:
//
//	GET /health       component health (503 only when a critical component fails)
//	GET /health/live  process liveness
//	GET /ready        readiness, true once the store is usable and a pass has run
//	GET /metrics      Prometheus exposition
//	GET /status       the last reconciliation pass report and an outcome summary
package api
