package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cuemby/fluxdns/pkg/log"
	"github.com/cuemby/fluxdns/pkg/types"
)

// DefaultDomain is the domain directory peer APIs are published under
const DefaultDomain = "node.api.runonflux.io"

// maxLocationBody bounds the location response read from a peer
const maxLocationBody = 4 << 20

// locationResponse is the envelope returned by /apps/location/<app>
type locationResponse struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
}

type locationEntry struct {
	IP string `json:"ip"`
}

// Locator asks a directory peer where an application is running
type Locator struct {
	// Domain is the directory API domain (default: node.api.runonflux.io)
	Domain string

	// Port is the directory control port embedded in the peer host name
	Port int

	// Client is the HTTP client used for location queries
	Client *http.Client

	// BaseURL maps a peer to the base URL of its API. Defaults to PeerURL.
	BaseURL func(peer types.DirectoryPeer) string
}

// NewLocator creates a Locator for the given directory domain and port
func NewLocator(domain string, port int, timeout time.Duration) *Locator {
	if domain == "" {
		domain = DefaultDomain
	}
	if port == 0 {
		port = DefaultControlPort
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	l := &Locator{
		Domain: domain,
		Port:   port,
		Client: &http.Client{Timeout: timeout},
	}
	l.BaseURL = func(peer types.DirectoryPeer) string {
		return PeerURL(peer, l.Port, l.Domain)
	}
	return l
}

// PeerURL returns the HTTPS base URL of a peer's API, e.g.
// 1.2.3.4 → https://1-2-3-4-16127.node.api.runonflux.io
func PeerURL(peer types.DirectoryPeer, port int, domain string) string {
	host := strings.ReplaceAll(peer.Address, ".", "-")
	return "https://" + host + "-" + strconv.Itoa(port) + "." + domain
}

// Locate returns the endpoints peer reports for app, in the order reported.
// Any transport, status, or parse error is logged and yields no candidates.
func (l *Locator) Locate(ctx context.Context, peer types.DirectoryPeer, app string) []types.CandidateEndpoint {
	logger := log.WithComponent("directory").With().
		Str("app", app).
		Str("peer", peer.Address).
		Logger()

	candidates, err := l.locate(ctx, peer, app)
	if err != nil {
		logger.Error().Err(err).Msg("failed to fetch application locations")
		return nil
	}

	logger.Debug().Int("candidates", len(candidates)).Msg("fetched application locations")
	return candidates
}

func (l *Locator) locate(ctx context.Context, peer types.DirectoryPeer, app string) ([]types.CandidateEndpoint, error) {
	base := l.BaseURL
	if base == nil {
		base = func(p types.DirectoryPeer) string { return PeerURL(p, l.Port, l.Domain) }
	}
	endpoint := strings.TrimRight(base(peer), "/") + "/apps/location/" + url.PathEscape(app)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected HTTP status %d", resp.StatusCode)
	}

	var envelope locationResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxLocationBody)).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if envelope.Status != "" && envelope.Status != "success" {
		return nil, fmt.Errorf("peer reported status %q: %s", envelope.Status, string(envelope.Data))
	}

	var entries []locationEntry
	if len(envelope.Data) > 0 && string(envelope.Data) != "null" {
		if err := json.Unmarshal(envelope.Data, &entries); err != nil {
			return nil, fmt.Errorf("failed to decode location list: %w", err)
		}
	}

	return candidatesFrom(entries), nil
}

// candidatesFrom strips ports, drops empty entries and collapses duplicate
// addresses onto their first occurrence
func candidatesFrom(entries []locationEntry) []types.CandidateEndpoint {
	seen := make(map[string]bool, len(entries))
	candidates := make([]types.CandidateEndpoint, 0, len(entries))
	for _, entry := range entries {
		addr := StripPort(strings.TrimSpace(entry.IP))
		if addr == "" || seen[addr] {
			continue
		}
		seen[addr] = true
		candidates = append(candidates, types.CandidateEndpoint{Address: addr})
	}
	return candidates
}

// StripPort removes a ":port" suffix if present
func StripPort(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
