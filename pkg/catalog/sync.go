package catalog

import (
	"context"
	"fmt"

	"github.com/cuemby/fluxdns/pkg/log"
	"github.com/cuemby/fluxdns/pkg/storage"
	"github.com/cuemby/fluxdns/pkg/types"
)

// Sync merges the desired names into existing. Surviving names keep their
// existing order and new names are appended in desired order.
func Sync(existing, desired []string) (updated, added, removed []string) {
	want := make(map[string]bool, len(desired))
	for _, name := range desired {
		want[name] = true
	}

	have := make(map[string]bool, len(existing))
	updated = make([]string, 0, len(desired))
	for _, name := range existing {
		if have[name] {
			continue
		}
		have[name] = true
		if want[name] {
			updated = append(updated, name)
		} else {
			removed = append(removed, name)
		}
	}

	for _, name := range desired {
		if !have[name] {
			have[name] = true
			updated = append(updated, name)
			added = append(added, name)
		}
	}

	return updated, added, removed
}

// Fetcher is the catalog feed Syncer reads from
type Fetcher interface {
	Fetch(ctx context.Context) ([]App, error)
}

// Result describes one refresh of the tracked set
type Result struct {
	Apps    []types.TrackedApplication
	Added   []string
	Removed []string

	// StoreErr is set when the store could not be read or rewritten. Apps is
	// still derived from the catalog and usable for the pass.
	StoreErr error
}

// Syncer keeps the tracked-application store in line with the catalog
type Syncer struct {
	Catalog Fetcher
	Store   storage.AppStore
	Filter  string
	Zone    string
}

// Refresh fetches the catalog, reconciles the store against the filtered
// names, and returns the tracked applications for this pass.
//
// A catalog failure returns an empty set and leaves the store untouched.
func (s *Syncer) Refresh(ctx context.Context) (Result, error) {
	logger := log.WithComponent("catalog")

	apps, err := s.Catalog.Fetch(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("failed to fetch catalog: %w", err)
	}

	desired := FilterNames(apps, s.Filter)
	logger.Info().
		Int("total", len(apps)).
		Int("matched", len(desired)).
		Str("filter", s.Filter).
		Msg("fetched application catalog")

	existing, loadErr := s.Store.Load()
	if loadErr != nil {
		logger.Error().Err(loadErr).Msg("failed to read tracked applications, rebuilding from catalog")
		existing = nil
		loadErr = fmt.Errorf("failed to load tracked applications: %w", loadErr)
	}

	updated, added, removed := Sync(existing, desired)
	result := Result{
		Apps:     s.tracked(updated),
		Added:    added,
		Removed:  removed,
		StoreErr: loadErr,
	}

	if loadErr == nil && len(added) == 0 && len(removed) == 0 {
		logger.Debug().Msg("tracked applications unchanged")
		return result, nil
	}

	logger.Info().
		Strs("added", added).
		Strs("removed", removed).
		Msg("updating tracked applications")

	if err := s.Store.Save(updated); err != nil {
		logger.Error().Err(err).Msg("failed to save tracked applications")
		result.StoreErr = fmt.Errorf("failed to save tracked applications: %w", err)
	}
	return result, nil
}

func (s *Syncer) tracked(names []string) []types.TrackedApplication {
	apps := make([]types.TrackedApplication, 0, len(names))
	for _, name := range names {
		apps = append(apps, types.TrackedApplication{Name: name, Zone: s.Zone})
	}
	return apps
}
