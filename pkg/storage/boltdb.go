package storage

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	// Bucket names
	bucketApplications = []byte("applications")
)

// AppRecord is the value stored per tracked application
type AppRecord struct {
	Name    string    `json:"name"`
	AddedAt time.Time `json:"added_at"`
}

// BoltStore implements AppStore using BoltDB. Keys are big-endian sequence
// numbers so iteration returns names in the order they were saved.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore opens (or creates) the database file at path
func NewBoltStore(path string) (*BoltStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketApplications); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", bucketApplications, err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

// Close closes the database
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// Load returns the tracked names in stored order
func (s *BoltStore) Load() ([]string, error) {
	records, err := s.Records()
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(records))
	for _, r := range records {
		names = append(names, r.Name)
	}
	return names, nil
}

// Records returns the stored application records in order
func (s *BoltStore) Records() ([]AppRecord, error) {
	var records []AppRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketApplications)
		return b.ForEach(func(k, v []byte) error {
			var record AppRecord
			if err := json.Unmarshal(v, &record); err != nil {
				return fmt.Errorf("corrupt application record %x: %w", k, err)
			}
			records = append(records, record)
			return nil
		})
	})
	return records, err
}

// Save replaces the stored names in one transaction. Names that were already
// tracked keep their original AddedAt.
func (s *BoltStore) Save(names []string) error {
	now := time.Now().UTC()

	return s.db.Update(func(tx *bolt.Tx) error {
		added := make(map[string]time.Time)
		if b := tx.Bucket(bucketApplications); b != nil {
			err := b.ForEach(func(k, v []byte) error {
				var record AppRecord
				if err := json.Unmarshal(v, &record); err == nil {
					added[record.Name] = record.AddedAt
				}
				return nil
			})
			if err != nil {
				return err
			}
			if err := tx.DeleteBucket(bucketApplications); err != nil {
				return fmt.Errorf("failed to reset bucket: %w", err)
			}
		}

		b, err := tx.CreateBucket(bucketApplications)
		if err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", bucketApplications, err)
		}

		for i, name := range names {
			record := AppRecord{Name: name, AddedAt: now}
			if at, ok := added[name]; ok {
				record.AddedAt = at
			}
			data, err := json.Marshal(record)
			if err != nil {
				return err
			}
			if err := b.Put(sequenceKey(uint64(i)), data); err != nil {
				return fmt.Errorf("failed to store %s: %w", name, err)
			}
		}
		return nil
	})
}

func sequenceKey(n uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, n)
	return key
}
