package directory

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/cuemby/fluxdns/pkg/health"
	"github.com/cuemby/fluxdns/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// reachableSet is a fake reachability check that records the order peers were probed in
type reachableSet struct {
	mu      sync.Mutex
	up      map[string]bool
	checked []string
}

func (r *reachableSet) Probe(ctx context.Context, host string) health.Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checked = append(r.checked, host)
	return health.Result{Healthy: r.up[host]}
}

func peerList(n int) []types.DirectoryPeer {
	peers := make([]types.DirectoryPeer, n)
	for i := range peers {
		peers[i] = types.DirectoryPeer{Address: fmt.Sprintf("10.0.0.%d", i+1)}
	}
	return peers
}

func TestSelectorPeerCap(t *testing.T) {
	tests := []struct {
		name      string
		total     int
		reachable []int // 1-based indices of reachable peers
		want      []string
	}{
		{
			name:      "fewer reachable than cap",
			total:     6,
			reachable: []int{2, 5},
			want:      []string{"10.0.0.2", "10.0.0.5"},
		},
		{
			name:      "exactly cap reachable",
			total:     5,
			reachable: []int{1, 2, 3, 4, 5},
			want:      []string{"10.0.0.1", "10.0.0.2", "10.0.0.3", "10.0.0.4", "10.0.0.5"},
		},
		{
			name:      "more reachable than cap keeps the earliest",
			total:     10,
			reachable: []int{1, 3, 4, 6, 7, 8, 9, 10},
			want:      []string{"10.0.0.1", "10.0.0.3", "10.0.0.4", "10.0.0.6", "10.0.0.7"},
		},
		{
			name:      "none reachable",
			total:     4,
			reachable: nil,
			want:      []string{},
		},
		{
			name:      "empty peer list",
			total:     0,
			reachable: nil,
			want:      []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			up := make(map[string]bool)
			for _, i := range tt.reachable {
				up[fmt.Sprintf("10.0.0.%d", i)] = true
			}
			reach := &reachableSet{up: up}
			s := &Selector{MaxPeers: DefaultMaxPeers, Reach: reach}

			selected := s.Select(context.Background(), peerList(tt.total))

			got := make([]string, 0, len(selected))
			for _, p := range selected {
				got = append(got, p.Address)
			}
			assert.Equal(t, tt.want, got)

			expected := len(tt.reachable)
			if expected > DefaultMaxPeers {
				expected = DefaultMaxPeers
			}
			assert.Len(t, selected, expected)
		})
	}
}

func TestSelectorStopsOnceCapReached(t *testing.T) {
	up := map[string]bool{}
	for i := 1; i <= 10; i++ {
		up[fmt.Sprintf("10.0.0.%d", i)] = true
	}
	reach := &reachableSet{up: up}
	s := &Selector{MaxPeers: 3, Reach: reach}

	selected := s.Select(context.Background(), peerList(10))

	assert.Len(t, selected, 3)
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"}, reach.checked)
}

func TestSelectorCancelledContext(t *testing.T) {
	reach := &reachableSet{up: map[string]bool{"10.0.0.1": true}}
	s := &Selector{MaxPeers: 5, Reach: reach}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Empty(t, s.Select(ctx, peerList(3)))
	assert.Empty(t, reach.checked)
}

func TestNewSelectorDialsControlPort(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()

	_, portStr, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	s, err := NewSelector(port, time.Second, DefaultMaxPeers)
	require.NoError(t, err)

	// 256.0.0.1 is not a valid IPv4 address, so dialing it always fails
	peers := []types.DirectoryPeer{{Address: "256.0.0.1"}, {Address: "127.0.0.1"}}
	selected := s.Select(context.Background(), peers)

	require.Len(t, selected, 1)
	assert.Equal(t, "127.0.0.1", selected[0].Address)
}

func TestNewSelectorInvalidPort(t *testing.T) {
	_, err := NewSelector(0, time.Second, 5)
	assert.Error(t, err)
}
