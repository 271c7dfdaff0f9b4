package health

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"
)

// Prober checks a single host. Implementations never return errors: an
// unreachable or misbehaving host is a Result with Healthy=false.
type Prober interface {
	Probe(ctx context.Context, host string) Result
}

// ProberFunc is an easy-to-use implementation of Prober
type ProberFunc func(ctx context.Context, host string) Result

// Probe calls f(ctx, host)
func (f ProberFunc) Probe(ctx context.Context, host string) Result {
	return f(ctx, host)
}

// ProbeConfig describes how to build a Prober
type ProbeConfig struct {
	Type     CheckType
	Port     int
	Timeout  time.Duration
	HTTPPath string

	// HTTP only. Zero values keep the HTTPChecker defaults.
	HTTPMethod    string
	HTTPHeaders   map[string]string
	HTTPStatusMin int
	HTTPStatusMax int
}

// NewProber returns a Prober that builds a fresh Checker of the configured
// type for every host it is asked about
func NewProber(cfg ProbeConfig) (Prober, error) {
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid probe port %d", cfg.Port)
	}
	port := strconv.Itoa(cfg.Port)

	var build func(host string) Checker
	switch cfg.Type {
	case CheckTypeMinecraft:
		build = func(host string) Checker {
			c := NewMinecraftChecker(net.JoinHostPort(host, port))
			if cfg.Timeout > 0 {
				c.WithTimeout(cfg.Timeout)
			}
			return c
		}
	case CheckTypeTCP:
		build = func(host string) Checker {
			c := NewTCPChecker(net.JoinHostPort(host, port))
			if cfg.Timeout > 0 {
				c.WithTimeout(cfg.Timeout)
			}
			return c
		}
	case CheckTypeHTTP:
		path := cfg.HTTPPath
		if path == "" {
			path = "/"
		}
		build = func(host string) Checker {
			c := NewHTTPChecker("http://" + net.JoinHostPort(host, port) + path)
			if cfg.Timeout > 0 {
				c.WithTimeout(cfg.Timeout)
			}
			if cfg.HTTPMethod != "" {
				c.WithMethod(cfg.HTTPMethod)
			}
			for key, value := range cfg.HTTPHeaders {
				c.WithHeader(key, value)
			}
			if cfg.HTTPStatusMin != 0 || cfg.HTTPStatusMax != 0 {
				c.WithStatusRange(cfg.HTTPStatusMin, cfg.HTTPStatusMax)
			}
			return c
		}
	default:
		return nil, fmt.Errorf("unknown probe type %q", cfg.Type)
	}

	return ProberFunc(func(ctx context.Context, host string) Result {
		return build(host).Check(ctx)
	}), nil
}
