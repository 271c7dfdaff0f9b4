package reconciler

import (
	"context"

	"github.com/cuemby/fluxdns/pkg/health"
	"github.com/cuemby/fluxdns/pkg/metrics"
	"github.com/cuemby/fluxdns/pkg/types"
	"golang.org/x/sync/errgroup"
)

// ProbeAll probes every candidate concurrently and returns the live ones in
// candidate order, regardless of which probe finished first
func ProbeAll(ctx context.Context, prober health.Prober, candidates []types.CandidateEndpoint) []types.LiveEndpoint {
	results := make([]health.Result, len(candidates))

	var g errgroup.Group
	for i, candidate := range candidates {
		g.Go(func() error {
			results[i] = prober.Probe(ctx, candidate.Address)
			return nil
		})
	}
	_ = g.Wait()

	live := make([]types.LiveEndpoint, 0, len(candidates))
	for i, result := range results {
		metrics.ProbeDuration.Observe(result.Duration.Seconds())
		if !result.Healthy {
			metrics.ProbesTotal.WithLabelValues("dead").Inc()
			continue
		}
		metrics.ProbesTotal.WithLabelValues("live").Inc()
		live = append(live, types.LiveEndpoint{Address: candidates[i].Address})
	}
	return live
}
