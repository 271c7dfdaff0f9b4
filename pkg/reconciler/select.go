package reconciler

import "github.com/cuemby/fluxdns/pkg/types"

// SelectEndpoint returns the first live endpoint. The boolean is false when
// there is none, in which case DNS must be left alone.
func SelectEndpoint(live []types.LiveEndpoint) (types.LiveEndpoint, bool) {
	if len(live) == 0 {
		return types.LiveEndpoint{}, false
	}
	return live[0], true
}
