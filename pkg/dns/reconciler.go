package dns

import (
	"context"
	"fmt"
	"net"

	"github.com/cuemby/fluxdns/pkg/log"
	"github.com/cuemby/fluxdns/pkg/metrics"
	"github.com/cuemby/fluxdns/pkg/types"
)

// Action is the write a reconciliation performed
type Action string

const (
	ActionNone   Action = "none"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
)

// Result describes one reconciliation
type Result struct {
	Action Action
	Record types.DNSRecord
	Pruned int // Surplus A records deleted
}

// RecordReconciler points an application's A record at a selected address.
// Every record it writes carries types.RecordTTL and is never proxied.
type RecordReconciler struct {
	Provider Provider
}

// NewRecordReconciler creates a reconciler writing through provider
func NewRecordReconciler(provider Provider) *RecordReconciler {
	return &RecordReconciler{Provider: provider}
}

// Reconcile makes subdomain resolve to ip inside zone with the fewest writes:
// nothing when a record already holds ip, an in-place update when one exists
// with another address, a create otherwise. Extra A records for subdomain are
// deleted so at most one remains.
func (r *RecordReconciler) Reconcile(ctx context.Context, app, subdomain, ip, zone string) (Result, error) {
	logger := log.WithApp(app).With().
		Str("zone", zone).
		Str("subdomain", subdomain).
		Str("ip", ip).
		Logger()

	if parsed := net.ParseIP(ip); parsed == nil || parsed.To4() == nil {
		err := fmt.Errorf("not an IPv4 address: %q", ip)
		logger.Error().Err(err).Msg("refusing to write record")
		return Result{}, err
	}

	zoneID, err := r.Provider.ZoneID(ctx, zone)
	if err != nil {
		logger.Error().Err(err).Msg("failed to resolve zone")
		return Result{}, fmt.Errorf("failed to resolve zone %s: %w", zone, err)
	}

	existing, err := r.Provider.ListARecords(ctx, zoneID, subdomain)
	if err != nil {
		logger.Error().Err(err).Msg("failed to list records")
		return Result{}, fmt.Errorf("failed to list A records for %s: %w", subdomain, err)
	}

	keep, surplus := partition(existing, ip)

	desired := types.DNSRecord{
		Type:    types.RecordTypeA,
		Name:    subdomain,
		Content: ip,
		TTL:     types.RecordTTL,
		Proxied: false,
	}

	var result Result
	switch {
	case keep != nil && keep.Content == ip:
		result = Result{Action: ActionNone, Record: *keep}
		logger.Debug().Str("record_id", keep.ID).Msg("record already up to date")

	case keep != nil:
		desired.ID = keep.ID
		updated, err := r.Provider.UpdateRecord(ctx, zoneID, desired)
		if err != nil {
			logger.Error().Err(err).Str("record_id", keep.ID).Str("previous", keep.Content).Msg("failed to update record")
			return Result{}, fmt.Errorf("failed to update record %s: %w", keep.ID, err)
		}
		if updated.ID == "" {
			updated = desired
		}
		result = Result{Action: ActionUpdate, Record: updated}
		logger.Info().
			Str("record_id", updated.ID).
			Str("previous", keep.Content).
			Str("record", recordRR(updated)).
			Msg("updated record")

	default:
		created, err := r.Provider.CreateRecord(ctx, zoneID, desired)
		if err != nil {
			logger.Error().Err(err).Msg("failed to create record")
			return Result{}, fmt.Errorf("failed to create record %s: %w", subdomain, err)
		}
		if created.Name == "" {
			created = desired
		}
		result = Result{Action: ActionCreate, Record: created}
		logger.Info().
			Str("record_id", created.ID).
			Str("record", recordRR(created)).
			Msg("created record")
	}

	for _, extra := range surplus {
		if err := r.Provider.DeleteRecord(ctx, zoneID, extra.ID); err != nil {
			logger.Error().Err(err).Str("record_id", extra.ID).Msg("failed to delete duplicate record")
			return result, fmt.Errorf("failed to delete duplicate record %s: %w", extra.ID, err)
		}
		result.Pruned++
		logger.Warn().
			Str("record_id", extra.ID).
			Str("content", extra.Content).
			Msg("deleted duplicate record")
	}

	metrics.RecordActionsTotal.WithLabelValues(string(result.Action)).Inc()
	return result, nil
}

// partition picks the record to keep (the first holding ip, else the first)
// and returns the rest
func partition(records []types.DNSRecord, ip string) (*types.DNSRecord, []types.DNSRecord) {
	if len(records) == 0 {
		return nil, nil
	}

	keepIdx := 0
	for i, rec := range records {
		if rec.Content == ip {
			keepIdx = i
			break
		}
	}

	keep := records[keepIdx]
	surplus := make([]types.DNSRecord, 0, len(records)-1)
	for i, rec := range records {
		if i != keepIdx {
			surplus = append(surplus, rec)
		}
	}
	return &keep, surplus
}
