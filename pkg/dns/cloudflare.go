package dns

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cuemby/fluxdns/pkg/metrics"
	"github.com/cuemby/fluxdns/pkg/types"
)

// DefaultAPIURL is the Cloudflare v4 API base
const DefaultAPIURL = "https://api.cloudflare.com/client/v4"

const maxResponseBody = 4 << 20

// CloudflareConfig configures a CloudflareProvider
type CloudflareConfig struct {
	BaseURL   string        // API base, default DefaultAPIURL
	APIToken  string        // Bearer token
	AccountID string        // Restricts zone lookups to one account when set
	Timeout   time.Duration // Per-request timeout when HTTPClient is nil
	HTTP      *http.Client
}

// CloudflareProvider implements Provider against the Cloudflare v4 REST API
// or any service speaking the same dialect
type CloudflareProvider struct {
	baseURL   string
	token     string
	accountID string
	client    *http.Client
}

// NewCloudflareProvider creates a provider from explicit configuration
func NewCloudflareProvider(cfg CloudflareConfig) (*CloudflareProvider, error) {
	if cfg.APIToken == "" {
		return nil, fmt.Errorf("API token is required")
	}

	base := cfg.BaseURL
	if base == "" {
		base = DefaultAPIURL
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("invalid API URL %q: %w", base, err)
	}

	client := cfg.HTTP
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	return &CloudflareProvider{
		baseURL:   strings.TrimRight(base, "/"),
		token:     cfg.APIToken,
		accountID: cfg.AccountID,
		client:    client,
	}, nil
}

type envelope struct {
	Success bool            `json:"success"`
	Errors  []ErrorDetail   `json:"errors"`
	Result  json.RawMessage `json:"result"`
}

type zone struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ZoneID resolves zone to exactly one zone ID
func (p *CloudflareProvider) ZoneID(ctx context.Context, name string) (string, error) {
	query := url.Values{}
	query.Set("name", name)
	if p.accountID != "" {
		query.Set("account.id", p.accountID)
	}

	var zones []zone
	if err := p.do(ctx, "zone_id", http.MethodGet, "/zones", query, nil, &zones); err != nil {
		return "", err
	}

	switch len(zones) {
	case 0:
		return "", fmt.Errorf("%w: %s", ErrZoneNotFound, name)
	case 1:
		return zones[0].ID, nil
	default:
		return "", fmt.Errorf("%w: %d zones named %s", ErrZoneAmbiguous, len(zones), name)
	}
}

// ListARecords returns the A records named exactly name
func (p *CloudflareProvider) ListARecords(ctx context.Context, zoneID, name string) ([]types.DNSRecord, error) {
	query := url.Values{}
	query.Set("type", types.RecordTypeA)
	query.Set("name", name)

	var records []types.DNSRecord
	if err := p.do(ctx, "list_records", http.MethodGet, recordsPath(zoneID), query, nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// CreateRecord creates record and returns it as stored by the provider
func (p *CloudflareProvider) CreateRecord(ctx context.Context, zoneID string, record types.DNSRecord) (types.DNSRecord, error) {
	record.ID = ""

	var created types.DNSRecord
	if err := p.do(ctx, "create_record", http.MethodPost, recordsPath(zoneID), nil, record, &created); err != nil {
		return types.DNSRecord{}, err
	}
	return created, nil
}

// UpdateRecord overwrites the record identified by record.ID
func (p *CloudflareProvider) UpdateRecord(ctx context.Context, zoneID string, record types.DNSRecord) (types.DNSRecord, error) {
	if record.ID == "" {
		return types.DNSRecord{}, fmt.Errorf("record ID is required for update")
	}

	body := record
	body.ID = ""

	var updated types.DNSRecord
	path := recordsPath(zoneID) + "/" + url.PathEscape(record.ID)
	if err := p.do(ctx, "update_record", http.MethodPut, path, nil, body, &updated); err != nil {
		return types.DNSRecord{}, err
	}
	return updated, nil
}

// DeleteRecord removes a record
func (p *CloudflareProvider) DeleteRecord(ctx context.Context, zoneID, recordID string) error {
	path := recordsPath(zoneID) + "/" + url.PathEscape(recordID)
	return p.do(ctx, "delete_record", http.MethodDelete, path, nil, nil, nil)
}

func recordsPath(zoneID string) string {
	return "/zones/" + url.PathEscape(zoneID) + "/dns_records"
}

// do performs one API call and decodes the envelope's result into out
func (p *CloudflareProvider) do(ctx context.Context, op, method, path string, query url.Values, body, out any) (err error) {
	timer := metrics.NewTimer()
	defer func() {
		timer.ObserveDurationVec(metrics.ProviderRequestDuration, op)
		if err != nil {
			metrics.ProviderErrorsTotal.WithLabelValues(op).Inc()
		}
	}()

	target := p.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode %s request: %w", op, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+p.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return fmt.Errorf("failed to read %s response: %w", op, err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return &APIError{Operation: op, StatusCode: resp.StatusCode}
		}
		return fmt.Errorf("failed to decode %s response: %w", op, err)
	}

	if !env.Success || resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Operation: op, StatusCode: resp.StatusCode, Errors: env.Errors}
	}

	if out == nil || len(env.Result) == 0 || string(env.Result) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return fmt.Errorf("failed to decode %s result: %w", op, err)
	}
	return nil
}
