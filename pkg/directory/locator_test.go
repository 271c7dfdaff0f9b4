package directory

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cuemby/fluxdns/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLocator(serverURL string) *Locator {
	l := NewLocator(DefaultDomain, DefaultControlPort, time.Second)
	l.BaseURL = func(types.DirectoryPeer) string { return serverURL }
	return l
}

func addresses(candidates []types.CandidateEndpoint) []string {
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, c.Address)
	}
	return out
}

func TestPeerURL(t *testing.T) {
	got := PeerURL(types.DirectoryPeer{Address: "1.2.3.4"}, 16127, DefaultDomain)
	assert.Equal(t, "https://1-2-3-4-16127.node.api.runonflux.io", got)
}

func TestStripPort(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"10.0.0.1:16127", "10.0.0.1"},
		{"10.0.0.1", "10.0.0.1"},
		{"[2001:db8::1]:25565", "2001:db8::1"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, StripPort(tt.input))
		})
	}
}

func TestLocate(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"success","data":[
			{"name":"mc1","ip":"10.0.0.1:16127","hash":"x"},
			{"name":"mc1","ip":"10.0.0.2"},
			{"name":"mc1","ip":"10.0.0.1:16137"},
			{"name":"mc1","ip":""},
			{"name":"mc1","ip":"10.0.0.3:16127"}
		]}`))
	}))
	defer server.Close()

	candidates := newTestLocator(server.URL).Locate(context.Background(), types.DirectoryPeer{Address: "1.2.3.4"}, "mc1")

	assert.Equal(t, "/apps/location/mc1", gotPath)
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"}, addresses(candidates))
}

func TestLocateFailuresYieldNoCandidates(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"status":"success","data":[`))
			},
		},
		{
			name: "error status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"status":"error","data":{"code":404,"message":"Application not found"}}`))
			},
		},
		{
			name: "data is not a list",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"status":"success","data":{"ip":"10.0.0.1"}}`))
			},
		},
		{
			name: "empty list",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"status":"success","data":[]}`))
			},
		},
		{
			name: "slow peer",
			handler: func(w http.ResponseWriter, r *http.Request) {
				time.Sleep(1500 * time.Millisecond)
				_, _ = w.Write([]byte(`{"status":"success","data":[{"ip":"10.0.0.1"}]}`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			candidates := newTestLocator(server.URL).Locate(context.Background(), types.DirectoryPeer{Address: "1.2.3.4"}, "mc1")
			assert.Empty(t, candidates)
		})
	}
}

func TestLocateUnreachablePeer(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	candidates := newTestLocator(url).Locate(context.Background(), types.DirectoryPeer{Address: "1.2.3.4"}, "mc1")
	assert.Empty(t, candidates)
}

func TestLocateEscapesAppName(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		_, _ = w.Write([]byte(`{"status":"success","data":[]}`))
	}))
	defer server.Close()

	newTestLocator(server.URL).Locate(context.Background(), types.DirectoryPeer{Address: "1.2.3.4"}, "a/b")
	require.NotEmpty(t, gotPath)
	assert.Equal(t, "/apps/location/a%2Fb", gotPath)
}
