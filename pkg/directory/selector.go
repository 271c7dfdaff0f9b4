package directory

import (
	"context"
	"time"

	"github.com/cuemby/fluxdns/pkg/health"
	"github.com/cuemby/fluxdns/pkg/log"
	"github.com/cuemby/fluxdns/pkg/types"
)

const (
	// DefaultControlPort is the port directory peers serve their API on
	DefaultControlPort = 16127

	// DefaultDialTimeout bounds a single reachability check
	DefaultDialTimeout = 3 * time.Second

	// DefaultMaxPeers caps how many reachable peers a selection returns
	DefaultMaxPeers = 5
)

// Selector picks the directory peers that are currently reachable
type Selector struct {
	// MaxPeers caps the selection; checking stops once it is reached
	MaxPeers int

	// Reach decides whether a peer is reachable. Defaults to a TCP connect on
	// the control port.
	Reach health.Prober
}

// NewSelector creates a Selector that dials port with the given timeout
func NewSelector(port int, timeout time.Duration, maxPeers int) (*Selector, error) {
	reach, err := health.NewProber(health.ProbeConfig{
		Type:    health.CheckTypeTCP,
		Port:    port,
		Timeout: timeout,
	})
	if err != nil {
		return nil, err
	}

	return &Selector{
		MaxPeers: maxPeers,
		Reach:    reach,
	}, nil
}

// Select checks peers in order and returns the reachable ones, preserving
// input order and stopping early once MaxPeers are found. Unreachable peers
// are skipped without retry. An empty result means the directory is
// unavailable, not that the application has no instances.
func (s *Selector) Select(ctx context.Context, peers []types.DirectoryPeer) []types.DirectoryPeer {
	logger := log.WithComponent("directory")

	limit := s.MaxPeers
	if limit <= 0 {
		limit = DefaultMaxPeers
	}

	reachable := make([]types.DirectoryPeer, 0, limit)
	for _, peer := range peers {
		if len(reachable) >= limit || ctx.Err() != nil {
			break
		}

		result := s.Reach.Probe(ctx, peer.Address)
		if !result.Healthy {
			logger.Debug().
				Str("peer", peer.Address).
				Str("reason", result.Message).
				Msg("directory peer not responsive")
			continue
		}
		reachable = append(reachable, peer)
	}

	return reachable
}
