package reconciler

import (
	"context"
	"time"

	"github.com/cuemby/fluxdns/pkg/dns"
	"github.com/cuemby/fluxdns/pkg/health"
	"github.com/cuemby/fluxdns/pkg/log"
	"github.com/cuemby/fluxdns/pkg/metrics"
	"github.com/cuemby/fluxdns/pkg/types"
)

// PeerSelector narrows the peer list to reachable directory peers
type PeerSelector interface {
	Select(ctx context.Context, peers []types.DirectoryPeer) []types.DirectoryPeer
}

// InstanceLocator asks a directory peer where an application runs
type InstanceLocator interface {
	Locate(ctx context.Context, peer types.DirectoryPeer, app string) []types.CandidateEndpoint
}

// RecordWriter points an application's record at an address
type RecordWriter interface {
	Reconcile(ctx context.Context, app, subdomain, ip, zone string) (dns.Result, error)
}

// Pipeline takes one application from directory peers to a DNS record:
//
//	select peers -> locate instances -> probe -> select endpoint -> reconcile record
//
// Every stage that comes up empty ends the run without touching DNS.
type Pipeline struct {
	Selector PeerSelector
	Locator  InstanceLocator
	Prober   health.Prober
	Records  RecordWriter
}

// Run executes the pipeline for app. It never returns an error; failures are
// reported in the Outcome.
func (p *Pipeline) Run(ctx context.Context, app types.TrackedApplication, peers []types.DirectoryPeer) types.Outcome {
	start := time.Now()
	logger := log.WithApp(app.Name)

	outcome := types.Outcome{App: app.Name}
	finish := func(kind types.OutcomeKind) types.Outcome {
		outcome.Kind = kind
		outcome.Duration = time.Since(start)
		metrics.OutcomesTotal.WithLabelValues(string(kind)).Inc()
		return outcome
	}

	selected := p.Selector.Select(ctx, peers)
	metrics.ReachablePeers.Observe(float64(len(selected)))
	if len(selected) == 0 {
		logger.Warn().Int("peers", len(peers)).Msg("no reachable directory peer, leaving DNS unchanged")
		return finish(types.OutcomeNoDirectory)
	}

	// The first reachable peer answers for the whole network
	peer := selected[0]
	outcome.Peer = peer.Address

	candidates := p.Locator.Locate(ctx, peer, app.Name)
	outcome.Candidates = len(candidates)
	metrics.CandidatesFound.Observe(float64(len(candidates)))
	if len(candidates) == 0 {
		logger.Warn().Str("peer", peer.Address).Msg("no instances reported, leaving DNS unchanged")
		return finish(types.OutcomeNoCandidates)
	}

	live := ProbeAll(ctx, p.Prober, candidates)
	outcome.Live = len(live)

	endpoint, ok := SelectEndpoint(live)
	if !ok {
		logger.Warn().Int("candidates", len(candidates)).Msg("no healthy endpoint, leaving DNS unchanged")
		return finish(types.OutcomeNoHealthy)
	}
	outcome.Selected = endpoint.Address

	subdomain, err := dns.Subdomain(app.Name, app.Zone)
	if err != nil {
		logger.Error().Err(err).Msg("cannot build subdomain")
		outcome.Error = err.Error()
		return finish(types.OutcomeFailed)
	}

	result, err := p.Records.Reconcile(ctx, app.Name, subdomain, endpoint.Address, app.Zone)
	if err != nil {
		outcome.Error = err.Error()
		return finish(types.OutcomeFailed)
	}

	logger.Debug().
		Str("subdomain", subdomain).
		Str("ip", endpoint.Address).
		Str("action", string(result.Action)).
		Int("live", len(live)).
		Msg("application reconciled")

	switch result.Action {
	case dns.ActionCreate:
		return finish(types.OutcomeCreated)
	case dns.ActionUpdate:
		return finish(types.OutcomeUpdated)
	default:
		return finish(types.OutcomeUnchanged)
	}
}
