/*
Package reconciler runs fluxdns' reconciliation passes.

A pass refreshes the tracked applications from the catalog, reads the
directory peer list once, then runs one Pipeline per application. Pipelines
run concurrently, share nothing mutable and never fail the pass: each ends in
a types.Outcome collected into the pass's types.PassReport.

	Pipeline.Run(app)
	  Selector.Select(peers)        no reachable peer   -> no_directory
	  Locator.Locate(first peer)    no candidates       -> no_candidates
	  ProbeAll(candidates)          probes in parallel, results kept in
	                                candidate order
	  SelectEndpoint(live)          nothing live        -> no_healthy
	  Records.Reconcile(...)        created / updated / unchanged / failed

The three skip outcomes leave DNS untouched: a record keeps pointing at its
last known address rather than being removed.

Reconciler.Start runs a pass immediately and then on every tick of the
configured interval. Passes are serialised, so a slow pass delays the next
one instead of overlapping it. The clock is injectable
(github.com/benbjohnson/clock) so tests drive the cadence with a mock.
*/
package reconciler
