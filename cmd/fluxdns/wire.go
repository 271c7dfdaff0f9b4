package main

import (
	"fmt"

	"github.com/cuemby/fluxdns/pkg/catalog"
	"github.com/cuemby/fluxdns/pkg/config"
	"github.com/cuemby/fluxdns/pkg/directory"
	"github.com/cuemby/fluxdns/pkg/dns"
	"github.com/cuemby/fluxdns/pkg/health"
	"github.com/cuemby/fluxdns/pkg/metrics"
	"github.com/cuemby/fluxdns/pkg/reconciler"
	"github.com/cuemby/fluxdns/pkg/storage"
	"github.com/cuemby/fluxdns/pkg/types"
)

// service is a fully wired fluxdns instance
type service struct {
	store      storage.AppStore
	reconciler *reconciler.Reconciler
}

func (s *service) Close() error {
	if s.reconciler != nil {
		s.reconciler.Stop()
	}
	return s.store.Close()
}

func openStore(cfg *config.Config) (storage.AppStore, error) {
	store, err := storage.Open(cfg.Store.Backend, cfg.Store.Path)
	if err != nil {
		metrics.RegisterComponent(metrics.ComponentStore, false, err.Error())
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Store.Backend, err)
	}
	metrics.RegisterComponent(metrics.ComponentStore, true, "")
	return store, nil
}

func newSyncer(cfg *config.Config, store storage.AppStore) *catalog.Syncer {
	return &catalog.Syncer{
		Catalog: catalog.NewClient(cfg.Catalog.URL, cfg.Catalog.Timeout),
		Store:   store,
		Filter:  cfg.Catalog.Filter,
		Zone:    cfg.DNS.Zone,
	}
}

func newSelector(cfg *config.Config) (*directory.Selector, error) {
	return directory.NewSelector(cfg.Directory.ControlPort, cfg.Directory.DialTimeout, cfg.Directory.MaxPeers)
}

func peerSource(cfg *config.Config) reconciler.PeerSource {
	return func() ([]types.DirectoryPeer, error) {
		return directory.LoadPeers(cfg.Directory.PeersFile)
	}
}

// newService wires every component from a validated config
func newService(cfg *config.Config) (*service, error) {
	store, err := openStore(cfg)
	if err != nil {
		return nil, err
	}

	selector, err := newSelector(cfg)
	if err != nil {
		store.Close()
		return nil, err
	}

	prober, err := health.NewProber(health.ProbeConfig{
		Type:     health.CheckType(cfg.Probe.Type),
		Port:     cfg.Probe.Port,
		Timeout:  cfg.Probe.Timeout,
		HTTPPath: cfg.Probe.HTTPPath,

		HTTPMethod:    cfg.Probe.HTTPMethod,
		HTTPHeaders:   cfg.Probe.HTTPHeaders,
		HTTPStatusMin: cfg.Probe.HTTPStatusMin,
		HTTPStatusMax: cfg.Probe.HTTPStatusMax,
	})
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to build probe: %w", err)
	}

	provider, err := dns.NewCloudflareProvider(dns.CloudflareConfig{
		BaseURL:   cfg.DNS.APIURL,
		APIToken:  cfg.DNS.APIToken,
		AccountID: cfg.DNS.AccountID,
		Timeout:   cfg.DNS.Timeout,
	})
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to build DNS provider: %w", err)
	}

	pipeline := &reconciler.Pipeline{
		Selector: selector,
		Locator:  directory.NewLocator(cfg.Directory.Domain, cfg.Directory.ControlPort, cfg.Directory.QueryTimeout),
		Prober:   prober,
		Records:  dns.NewRecordReconciler(provider),
	}

	return &service{
		store: store,
		reconciler: reconciler.NewReconciler(reconciler.Config{
			Catalog:  newSyncer(cfg, store),
			Peers:    peerSource(cfg),
			Pipeline: pipeline,
			Interval: cfg.Interval,
		}),
	}, nil
}
