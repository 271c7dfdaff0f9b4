package dns

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cuemby/fluxdns/pkg/types"
)

var (
	// ErrZoneNotFound is returned when no zone matches the configured name
	ErrZoneNotFound = errors.New("zone not found")

	// ErrZoneAmbiguous is returned when more than one zone matches the configured name
	ErrZoneAmbiguous = errors.New("zone name is ambiguous")
)

// Provider is an authoritative DNS service holding the managed A records
type Provider interface {
	// ZoneID resolves a zone name to the provider's zone identifier
	ZoneID(ctx context.Context, zone string) (string, error)

	// ListARecords returns the A records in zoneID named exactly name
	ListARecords(ctx context.Context, zoneID, name string) ([]types.DNSRecord, error)

	CreateRecord(ctx context.Context, zoneID string, record types.DNSRecord) (types.DNSRecord, error)
	UpdateRecord(ctx context.Context, zoneID string, record types.DNSRecord) (types.DNSRecord, error)
	DeleteRecord(ctx context.Context, zoneID, recordID string) error
}

// ErrorDetail is one entry of a provider error list
type ErrorDetail struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// APIError is returned when the provider rejects a request
type APIError struct {
	Operation  string
	StatusCode int
	Errors     []ErrorDetail
}

func (e *APIError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s failed (HTTP %d)", e.Operation, e.StatusCode)
	for i, d := range e.Errors {
		if i == 0 {
			b.WriteString(": ")
		} else {
			b.WriteString("; ")
		}
		fmt.Fprintf(&b, "%d %s", d.Code, d.Message)
	}
	return b.String()
}
