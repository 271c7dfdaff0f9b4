package dns

import (
	"strings"
	"testing"

	"github.com/cuemby/fluxdns/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubdomain(t *testing.T) {
	tests := []struct {
		app     string
		zone    string
		want    string
		wantErr bool
	}{
		{app: "app1", zone: "example.com", want: "app1.example.com"},
		{app: "MCServer", zone: "Example.COM.", want: "mcserver.example.com"},
		{app: "mc-lobby", zone: "play.example.com", want: "mc-lobby.play.example.com"},
		{app: "", zone: "example.com", wantErr: true},
		{app: "app1", zone: "", wantErr: true},
		{app: "my app", zone: "example.com", wantErr: true},
		{app: "-app", zone: "example.com", wantErr: true},
		{app: "app_1", zone: "example.com", wantErr: true},
		{app: strings.Repeat("a", 64), zone: "example.com", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.app+"."+tt.zone, func(t *testing.T) {
			got, err := Subdomain(tt.app, tt.zone)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSameName(t *testing.T) {
	assert.True(t, SameName("App1.Example.com", "app1.example.com."))
	assert.False(t, SameName("app1.example.com", "app2.example.com"))
}

func TestRecordRR(t *testing.T) {
	rr := recordRR(types.DNSRecord{Name: "app1.example.com", Content: "10.0.0.2", TTL: 120})
	assert.Contains(t, rr, "app1.example.com.")
	assert.Contains(t, rr, "120")
	assert.Contains(t, rr, "10.0.0.2")
}
