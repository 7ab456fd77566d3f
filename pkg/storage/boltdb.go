package storage

import (
	"fmt"
	"os"
	"path/filepath"

	bolt "go.etcd.io/bbolt"
)

var (
	// Bucket names
	bucketDocuments = []byte("documents")
)

var _ Backend = (*BoltBackend)(nil)

// BoltBackend keeps every document as one key in a BoltDB bucket
type BoltBackend struct {
	db *bolt.DB
}

// NewBoltBackend creates a new BoltDB-backed store in dataDir
func NewBoltBackend(dataDir string) (*BoltBackend, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "randpick.db")

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketDocuments); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", bucketDocuments, err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltBackend{db: db}, nil
}

// Close closes the database
func (s *BoltBackend) Close() error {
	return s.db.Close()
}

// Read returns a copy of the stored document
func (s *BoltBackend) Read(name string) ([]byte, error) {
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketDocuments)
		v := b.Get([]byte(name))
		if v == nil {
			return ErrNotFound
		}
		// Values are only valid for the life of the transaction
		data = append([]byte(nil), v...)
		return nil
	})
	return data, err
}

// Write replaces the document in a single transaction
func (s *BoltBackend) Write(name string, data []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketDocuments)
		if err := b.Put([]byte(name), data); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
		return nil
	})
}

// Exists reports whether the key is present
func (s *BoltBackend) Exists(name string) bool {
	found := false
	_ = s.db.View(func(tx *bolt.Tx) error {
		found = tx.Bucket(bucketDocuments).Get([]byte(name)) != nil
		return nil
	})
	return found
}

// Names lists stored document names in key order
func (s *BoltBackend) Names() ([]string, error) {
	var names []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketDocuments).ForEach(func(k, v []byte) error {
			names = append(names, string(k))
			return nil
		})
	})
	return names, err
}
