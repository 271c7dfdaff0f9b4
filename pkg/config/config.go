package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// Probe types understood by health.NewProber
const (
	ProbeMinecraft = "minecraft"
	ProbeTCP       = "tcp"
	ProbeHTTP      = "http"
)

// Store backends understood by storage.Open
const (
	StoreFile = "file"
	StoreBolt = "bolt"
)

// Config is the complete fluxdns configuration
type Config struct {
	Interval  time.Duration   `yaml:"interval"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Directory DirectoryConfig `yaml:"directory"`
	Probe     ProbeConfig     `yaml:"probe"`
	DNS       DNSConfig       `yaml:"dns"`
	Store     StoreConfig     `yaml:"store"`
	Log       LogConfig       `yaml:"log"`
	Server    ServerConfig    `yaml:"server"`
}

// CatalogConfig describes the upstream application catalog
type CatalogConfig struct {
	URL     string        `yaml:"url"`
	Filter  string        `yaml:"filter"`
	Timeout time.Duration `yaml:"timeout"`
}

// DirectoryConfig describes how directory peers are found and queried
type DirectoryConfig struct {
	PeersFile    string        `yaml:"peers_file"`
	Domain       string        `yaml:"domain"`
	ControlPort  int           `yaml:"control_port"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	MaxPeers     int           `yaml:"max_peers"`
	QueryTimeout time.Duration `yaml:"query_timeout"`
}

// ProbeConfig describes the application liveness probe
type ProbeConfig struct {
	Type     string        `yaml:"type"`
	Port     int           `yaml:"port"`
	Timeout  time.Duration `yaml:"timeout"`
	HTTPPath string        `yaml:"http_path"`

	// HTTP probe request shape and the status range counted as live
	HTTPMethod    string            `yaml:"http_method"`
	HTTPHeaders   map[string]string `yaml:"http_headers"`
	HTTPStatusMin int               `yaml:"http_status_min"`
	HTTPStatusMax int               `yaml:"http_status_max"`
}

// DNSConfig describes the DNS provider
type DNSConfig struct {
	Zone      string        `yaml:"zone"`
	APIURL    string        `yaml:"api_url"`
	APIToken  string        `yaml:"api_token"`
	AccountID string        `yaml:"account_id"`
	Timeout   time.Duration `yaml:"timeout"`
}

// StoreConfig selects where the tracked application set is kept
type StoreConfig struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
}

// LogConfig controls log output
type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// ServerConfig controls the status/metrics HTTP server
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns a Config with sensible defaults
func Default() *Config {
	return &Config{
		Interval: 60 * time.Second,
		Catalog: CatalogConfig{
			URL:     "https://api.runonflux.io/apps/globalappsspecifications",
			Timeout: 30 * time.Second,
		},
		Directory: DirectoryConfig{
			PeersFile:    "ips.txt",
			Domain:       "node.api.runonflux.io",
			ControlPort:  16127,
			DialTimeout:  3 * time.Second,
			MaxPeers:     5,
			QueryTimeout: 10 * time.Second,
		},
		Probe: ProbeConfig{
			Type:    ProbeMinecraft,
			Port:    25565,
			Timeout: 5 * time.Second,
		},
		DNS: DNSConfig{
			APIURL:  "https://api.cloudflare.com/client/v4",
			Timeout: 15 * time.Second,
		},
		Store: StoreConfig{
			Backend: StoreFile,
			Path:    "apps.txt",
		},
		Log: LogConfig{
			Level: "info",
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:9120",
		},
	}
}

// Load reads a YAML config file on top of the defaults. An empty path returns
// the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Unknown keys are rejected so retired settings such as dns.ttl fail loudly
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return cfg, nil
}

// LookupFunc matches os.LookupEnv
type LookupFunc func(key string) (string, bool)

// ApplyEnv overrides config values from environment variables. Both the
// historical variable names and FLUXDNS_* names are honoured; FLUXDNS_* wins.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	get := func(keys ...string) (string, bool) {
		var (
			value string
			found bool
		)
		for _, key := range keys {
			if v, ok := lookup(key); ok && v != "" {
				value, found = v, true
			}
		}
		return value, found
	}

	var errs error

	if v, ok := get("APP_FILTER", "FLUXDNS_APP_FILTER"); ok {
		c.Catalog.Filter = v
	}
	if v, ok := get("DOMAIN_NAME", "FLUXDNS_ZONE"); ok {
		c.DNS.Zone = v
	}
	if v, ok := get("DNS_SERVER_ADDRESS", "FLUXDNS_DNS_API_URL"); ok {
		c.DNS.APIURL = v
	}
	if v, ok := get("DNS_SERVER_API_KEY", "FLUXDNS_DNS_API_TOKEN"); ok {
		c.DNS.APIToken = v
	}
	if v, ok := get("DNS_SERVER_ACCOUNT_ID", "FLUXDNS_DNS_ACCOUNT_ID"); ok {
		c.DNS.AccountID = v
	}
	if v, ok := get("FLUXDNS_PEERS_FILE"); ok {
		c.Directory.PeersFile = v
	}
	if v, ok := get("FLUXDNS_STORE_PATH"); ok {
		c.Store.Path = v
	}
	if v, ok := get("CRON_SECONDS"); ok {
		secs, err := strconv.Atoi(v)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("CRON_SECONDS: %w", err))
		} else {
			c.Interval = time.Duration(secs) * time.Second
		}
	}
	if v, ok := get("FLUXDNS_INTERVAL"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("FLUXDNS_INTERVAL: %w", err))
		} else {
			c.Interval = d
		}
	}

	return errs
}

// Validate reports every configuration problem at once
func (c *Config) Validate() error {
	var errs error

	if c.Interval <= 0 {
		errs = multierr.Append(errs, errors.New("interval must be positive"))
	}
	if c.Catalog.URL == "" {
		errs = multierr.Append(errs, errors.New("catalog.url is required"))
	}
	if c.Directory.PeersFile == "" {
		errs = multierr.Append(errs, errors.New("directory.peers_file is required"))
	}
	if c.Directory.Domain == "" {
		errs = multierr.Append(errs, errors.New("directory.domain is required"))
	}
	if !validPort(c.Directory.ControlPort) {
		errs = multierr.Append(errs, fmt.Errorf("directory.control_port %d out of range", c.Directory.ControlPort))
	}
	if c.Directory.MaxPeers < 1 {
		errs = multierr.Append(errs, errors.New("directory.max_peers must be at least 1"))
	}
	if c.Directory.DialTimeout <= 0 {
		errs = multierr.Append(errs, errors.New("directory.dial_timeout must be positive"))
	}

	switch c.Probe.Type {
	case ProbeMinecraft, ProbeTCP, ProbeHTTP:
	default:
		errs = multierr.Append(errs, fmt.Errorf("probe.type %q is not one of minecraft, tcp, http", c.Probe.Type))
	}
	if !validPort(c.Probe.Port) {
		errs = multierr.Append(errs, fmt.Errorf("probe.port %d out of range", c.Probe.Port))
	}
	if c.Probe.Timeout <= 0 {
		errs = multierr.Append(errs, errors.New("probe.timeout must be positive"))
	}
	if lo, hi := c.Probe.HTTPStatusMin, c.Probe.HTTPStatusMax; lo != 0 || hi != 0 {
		if lo < 100 || hi > 599 || lo > hi {
			errs = multierr.Append(errs, fmt.Errorf("probe.http_status_min/max %d-%d is not a valid status range", lo, hi))
		}
	}

	if strings.TrimSpace(c.DNS.Zone) == "" {
		errs = multierr.Append(errs, errors.New("dns.zone is required"))
	}
	if c.DNS.APIURL == "" {
		errs = multierr.Append(errs, errors.New("dns.api_url is required"))
	}
	if c.DNS.APIToken == "" {
		errs = multierr.Append(errs, errors.New("dns.api_token is required"))
	}

	switch c.Store.Backend {
	case StoreFile, StoreBolt:
	default:
		errs = multierr.Append(errs, fmt.Errorf("store.backend %q is not one of file, bolt", c.Store.Backend))
	}
	if c.Store.Path == "" {
		errs = multierr.Append(errs, errors.New("store.path is required"))
	}

	return errs
}

func validPort(p int) bool {
	return p > 0 && p < 65536
}
