package catalog

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/cuemby/fluxdns/pkg/storage"
	"github.com/cuemby/fluxdns/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSync(t *testing.T) {
	tests := []struct {
		name        string
		existing    []string
		desired     []string
		wantUpdated []string
		wantAdded   []string
		wantRemoved []string
	}{
		{
			name:        "replaces departed names and appends new ones",
			existing:    []string{"A", "B", "C"},
			desired:     []string{"B", "C", "D"},
			wantUpdated: []string{"B", "C", "D"},
			wantAdded:   []string{"D"},
			wantRemoved: []string{"A"},
		},
		{
			name:        "keeps existing order",
			existing:    []string{"C", "A"},
			desired:     []string{"A", "B", "C"},
			wantUpdated: []string{"C", "A", "B"},
			wantAdded:   []string{"B"},
		},
		{
			name:        "empty store",
			existing:    nil,
			desired:     []string{"A", "B"},
			wantUpdated: []string{"A", "B"},
			wantAdded:   []string{"A", "B"},
		},
		{
			name:        "empty catalog clears",
			existing:    []string{"A"},
			desired:     nil,
			wantUpdated: []string{},
			wantRemoved: []string{"A"},
		},
		{
			name:        "duplicates in store collapse",
			existing:    []string{"A", "A", "B"},
			desired:     []string{"A", "B"},
			wantUpdated: []string{"A", "B"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			updated, added, removed := Sync(tt.existing, tt.desired)
			assert.Equal(t, tt.wantUpdated, updated)
			assert.Equal(t, tt.wantAdded, added)
			assert.Equal(t, tt.wantRemoved, removed)
		})
	}
}

type staticCatalog struct {
	apps []App
	err  error
}

func (s staticCatalog) Fetch(ctx context.Context) ([]App, error) {
	return s.apps, s.err
}

// countingStore wraps an AppStore and counts writes
type countingStore struct {
	storage.AppStore
	saves   int
	saveErr error
}

func (c *countingStore) Save(names []string) error {
	c.saves++
	if c.saveErr != nil {
		return c.saveErr
	}
	return c.AppStore.Save(names)
}

func newCountingStore(t *testing.T, initial ...string) *countingStore {
	t.Helper()
	fs, err := storage.NewFileStore(filepath.Join(t.TempDir(), "apps.txt"))
	require.NoError(t, err)
	if len(initial) > 0 {
		require.NoError(t, fs.Save(initial))
	}
	return &countingStore{AppStore: fs}
}

func TestSyncerRefresh(t *testing.T) {
	store := newCountingStore(t, "mcA", "mcB", "mcC")
	s := &Syncer{
		Catalog: staticCatalog{apps: []App{{Name: "mcB"}, {Name: "web"}, {Name: "mcC"}, {Name: "mcD"}}},
		Store:   store,
		Filter:  "mc*",
		Zone:    "example.com",
	}

	result, err := s.Refresh(context.Background())
	require.NoError(t, err)
	require.NoError(t, result.StoreErr)

	assert.Equal(t, []types.TrackedApplication{
		{Name: "mcB", Zone: "example.com"},
		{Name: "mcC", Zone: "example.com"},
		{Name: "mcD", Zone: "example.com"},
	}, result.Apps)
	assert.Equal(t, []string{"mcD"}, result.Added)
	assert.Equal(t, []string{"mcA"}, result.Removed)

	names, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"mcB", "mcC", "mcD"}, names)
	assert.Equal(t, 1, store.saves)
}

func TestSyncerRefreshUnchangedSkipsWrite(t *testing.T) {
	store := newCountingStore(t, "mcA", "mcB")
	s := &Syncer{
		Catalog: staticCatalog{apps: []App{{Name: "mcB"}, {Name: "mcA"}}},
		Store:   store,
		Zone:    "example.com",
	}

	result, err := s.Refresh(context.Background())
	require.NoError(t, err)
	assert.Len(t, result.Apps, 2)
	assert.Equal(t, "mcA", result.Apps[0].Name)
	assert.Zero(t, store.saves)
}

func TestSyncerRefreshCatalogFailureKeepsStore(t *testing.T) {
	store := newCountingStore(t, "mcA", "mcB")
	s := &Syncer{
		Catalog: staticCatalog{err: errors.New("connection refused")},
		Store:   store,
		Zone:    "example.com",
	}

	result, err := s.Refresh(context.Background())
	assert.Error(t, err)
	assert.Empty(t, result.Apps)
	assert.Zero(t, store.saves)

	names, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"mcA", "mcB"}, names)
}

func TestSyncerRefreshStoreFailureStillReturnsApps(t *testing.T) {
	store := newCountingStore(t)
	store.saveErr = errors.New("read-only file system")
	s := &Syncer{
		Catalog: staticCatalog{apps: []App{{Name: "mcA"}}},
		Store:   store,
		Zone:    "example.com",
	}

	result, err := s.Refresh(context.Background())
	require.NoError(t, err)
	assert.Error(t, result.StoreErr)
	assert.Equal(t, []types.TrackedApplication{{Name: "mcA", Zone: "example.com"}}, result.Apps)
}

func TestTrackedApplicationSubdomain(t *testing.T) {
	s := &Syncer{Zone: "example.com"}
	apps := s.tracked([]string{"mcserver1"})
	require.Len(t, apps, 1)
	assert.Equal(t, "mcserver1.example.com", apps[0].Subdomain())
}
