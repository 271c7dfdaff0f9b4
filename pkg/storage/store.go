package storage

import (
	"fmt"
)

// Backend names accepted by Open
const (
	BackendFile = "file"
	BackendBolt = "bolt"
)

// AppStore persists the set of tracked application names between passes.
// It is read and rewritten once per pass by a single writer.
type AppStore interface {
	// Load returns the tracked names in stored order
	Load() ([]string, error)

	// Save replaces the tracked names with names, keeping their order
	Save(names []string) error

	// Close releases the underlying resources
	Close() error
}

// Open returns the AppStore for backend, creating it at path if absent
func Open(backend, path string) (AppStore, error) {
	switch backend {
	case BackendFile, "":
		return NewFileStore(path)
	case BackendBolt:
		return NewBoltStore(path)
	default:
		return nil, fmt.Errorf("unknown store backend %q", backend)
	}
}
