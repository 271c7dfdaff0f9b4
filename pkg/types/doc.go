/*
Package types defines the data structures shared by every fluxdns component.

The types describe one reconciliation pass from end to end: the directory peers
that are asked where an application runs, the candidate endpoints they report,
the subset of endpoints that passed a liveness probe, and the DNS record that is
finally pointed at one of them.

# Lifecycle

None of these values outlive a pass except the tracked application names, which
are persisted by pkg/storage:

	DirectoryPeer      re-read from the peer list every pass
	TrackedApplication re-derived from the catalog every pass
	CandidateEndpoint  one pipeline run
	LiveEndpoint       one pipeline run
	DNSRecord          owned by the provider, re-read before every decision

# Outcomes

Every pipeline run ends with exactly one OutcomeKind. The three "skipped" kinds
(no_directory, no_candidates, no_healthy) guarantee that DNS was not touched:

	no_directory   no directory peer was reachable
	no_candidates  the queried peer reported no endpoints (or failed)
	no_healthy     every candidate failed its liveness probe
	unchanged      the record already pointed at the selected endpoint
	created        a new A record was created
	updated        an existing A record was repointed
	failed         zone resolution or a provider write failed

A PassReport collects the outcomes of all applications in one pass.
*/
package types
