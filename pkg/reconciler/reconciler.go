package reconciler

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/cuemby/fluxdns/pkg/catalog"
	"github.com/cuemby/fluxdns/pkg/log"
	"github.com/cuemby/fluxdns/pkg/metrics"
	"github.com/cuemby/fluxdns/pkg/types"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// DefaultInterval is the time between the start of two passes
const DefaultInterval = 60 * time.Second

// Refresher produces the tracked applications for a pass
type Refresher interface {
	Refresh(ctx context.Context) (catalog.Result, error)
}

// PeerSource returns the directory peer list; it is read once per pass
type PeerSource func() ([]types.DirectoryPeer, error)

// Runner runs one application's pipeline
type Runner interface {
	Run(ctx context.Context, app types.TrackedApplication, peers []types.DirectoryPeer) types.Outcome
}

// Config holds the loop's collaborators
type Config struct {
	Catalog  Refresher
	Peers    PeerSource
	Pipeline Runner
	Interval time.Duration
	Clock    clock.Clock // Defaults to the wall clock
}

// Reconciler runs reconciliation passes on a fixed cadence
type Reconciler struct {
	catalog  Refresher
	peers    PeerSource
	pipeline Runner
	interval time.Duration
	clock    clock.Clock

	passMu sync.Mutex // serialises passes

	mu   sync.RWMutex
	last *types.PassReport

	started  bool
	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewReconciler creates a new reconciler
func NewReconciler(cfg Config) *Reconciler {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	return &Reconciler{
		catalog:  cfg.Catalog,
		peers:    cfg.Peers,
		pipeline: cfg.Pipeline,
		interval: cfg.Interval,
		clock:    cfg.Clock,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start runs a pass immediately and then one every interval until Stop is
// called or ctx is cancelled. A pass that outlasts the interval delays the
// next one; passes never overlap.
func (r *Reconciler) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return
	}
	r.started = true

	ticker := r.clock.Ticker(r.interval)
	go r.run(ctx, ticker)
}

// Stop ends the loop once the in-flight pass, if any, has finished
func (r *Reconciler) Stop() {
	r.mu.RLock()
	started := r.started
	r.mu.RUnlock()

	r.stopOnce.Do(func() { close(r.stopCh) })
	if started {
		<-r.doneCh
	}
}

// Done is closed when the loop has exited
func (r *Reconciler) Done() <-chan struct{} {
	return r.doneCh
}

func (r *Reconciler) run(ctx context.Context, ticker *clock.Ticker) {
	defer close(r.doneCh)
	defer ticker.Stop()

	r.RunPass(ctx)

	for {
		select {
		case <-ticker.C:
			r.RunPass(ctx)
		case <-r.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// RunPass performs one full pass: refresh the tracked set, read the peer
// list, run every application's pipeline concurrently and wait for all.
func (r *Reconciler) RunPass(ctx context.Context) types.PassReport {
	r.passMu.Lock()
	defer r.passMu.Unlock()

	timer := metrics.NewTimer()
	report := types.PassReport{
		ID:        uuid.New().String(),
		StartedAt: r.clock.Now(),
		Outcomes:  make(map[string]types.Outcome),
	}
	logger := log.WithPassID(report.ID)
	logger.Info().Msg("starting reconciliation pass")

	apps := r.trackedApplications(ctx)
	report.Applications = len(apps)
	metrics.TrackedApplications.Set(float64(len(apps)))

	var peers []types.DirectoryPeer
	if len(apps) > 0 {
		peers = r.loadPeers()
	}

	outcomes := make([]types.Outcome, len(apps))
	var g errgroup.Group
	for i, app := range apps {
		g.Go(func() error {
			outcomes[i] = r.pipeline.Run(ctx, app, peers)
			return nil
		})
	}
	_ = g.Wait()

	for _, o := range outcomes {
		report.Outcomes[o.App] = o
	}
	report.Duration = timer.Duration()

	timer.ObserveDuration(metrics.PassDuration)
	metrics.PassesTotal.Inc()
	r.updateHealth(&report)

	logger.Info().
		Int("applications", report.Applications).
		Int("created", report.Count(types.OutcomeCreated)).
		Int("updated", report.Count(types.OutcomeUpdated)).
		Int("unchanged", report.Count(types.OutcomeUnchanged)).
		Int("skipped", report.Count(types.OutcomeNoDirectory)+report.Count(types.OutcomeNoCandidates)+report.Count(types.OutcomeNoHealthy)).
		Int("failed", report.Count(types.OutcomeFailed)).
		Dur("duration", report.Duration).
		Msg("reconciliation pass complete")

	r.mu.Lock()
	r.last = &report
	r.mu.Unlock()

	return report
}

// LastPass returns the most recent pass report
func (r *Reconciler) LastPass() (types.PassReport, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.last == nil {
		return types.PassReport{}, false
	}
	return *r.last, true
}

func (r *Reconciler) trackedApplications(ctx context.Context) []types.TrackedApplication {
	logger := log.WithComponent("reconciler")

	result, err := r.catalog.Refresh(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("catalog unavailable, no applications this pass")
		metrics.CatalogErrorsTotal.Inc()
		metrics.UpdateComponent(metrics.ComponentCatalog, false, err.Error())
		return nil
	}
	metrics.UpdateComponent(metrics.ComponentCatalog, true, "")

	if result.StoreErr != nil {
		metrics.UpdateComponent(metrics.ComponentStore, false, result.StoreErr.Error())
	} else {
		metrics.UpdateComponent(metrics.ComponentStore, true, "")
	}

	return result.Apps
}

func (r *Reconciler) loadPeers() []types.DirectoryPeer {
	peers, err := r.peers()
	if err != nil {
		logger := log.WithComponent("reconciler")
		logger.Error().Err(err).Msg("failed to read directory peers")
		return nil
	}
	return peers
}

func (r *Reconciler) updateHealth(report *types.PassReport) {
	if report.Applications > 0 {
		if n := report.Count(types.OutcomeNoDirectory); n == report.Applications {
			metrics.UpdateComponent(metrics.ComponentDirectory, false, "no reachable directory peer")
		} else {
			metrics.UpdateComponent(metrics.ComponentDirectory, true, "")
		}
	}

	var failure string
	for _, o := range report.Outcomes {
		if o.Kind == types.OutcomeFailed {
			failure = o.App + ": " + o.Error
			break
		}
	}
	metrics.UpdateComponent(metrics.ComponentDNS, failure == "", failure)
	metrics.UpdateComponent(metrics.ComponentReconciler, true, "")
}
