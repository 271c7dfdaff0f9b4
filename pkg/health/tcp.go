package health

import (
	"context"
	"fmt"
	"net"
	"time"
)

// TCPChecker performs TCP-based health checks. It is used both for directory
// peer reachability and as a plain "port open" liveness probe.
type TCPChecker struct {
	// Address is the TCP address to connect to (e.g., "10.0.0.1:16127")
	Address string

	// Timeout is the connection timeout (default: 3 seconds)
	Timeout time.Duration
}

// NewTCPChecker creates a new TCP health checker
func NewTCPChecker(address string) *TCPChecker {
	return &TCPChecker{
		Address: address,
		Timeout: 3 * time.Second,
	}
}

// Check performs the TCP health check
func (t *TCPChecker) Check(ctx context.Context) Result {
	start := time.Now()

	dialer := &net.Dialer{
		Timeout: t.Timeout,
	}

	conn, err := dialer.DialContext(ctx, "tcp", t.Address)
	if err != nil {
		return unhealthy(start, fmt.Sprintf("connection failed: %v", err))
	}
	defer conn.Close()

	return healthy(start, fmt.Sprintf("TCP connection to %s successful", t.Address))
}

// Type returns the health check type
func (t *TCPChecker) Type() CheckType {
	return CheckTypeTCP
}

// WithTimeout sets the connection timeout
func (t *TCPChecker) WithTimeout(timeout time.Duration) *TCPChecker {
	t.Timeout = timeout
	return t
}
