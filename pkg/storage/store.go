package storage

import (
	"errors"
	"fmt"
	"time"
)

// Document names used by randpick
const (
	RosterDocument   = "students.json"
	ConfigDocument   = "config.ini"
	DefaultsDocument = "default_config.json"
	HistoryDocument  = "log/history.json"
)

var (
	// ErrNotFound is returned by Read when a document does not exist
	ErrNotFound = errors.New("document not found")
)

// Backend defines whole-document persistence.
// Every Write replaces the full document or leaves the previous one intact.
type Backend interface {
	// Read returns the document contents, or ErrNotFound
	Read(name string) ([]byte, error)

	// Write atomically replaces the document
	Write(name string, data []byte) error

	// Exists reports whether the document is present
	Exists(name string) bool

	// Close releases any resources held by the backend
	Close() error
}

// Open returns the backend registered under kind ("file" or "bolt")
func Open(kind, dataDir string) (Backend, error) {
	switch kind {
	case "", "file":
		return NewFileBackend(dataDir)
	case "bolt":
		return NewBoltBackend(dataDir)
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", kind)
	}
}

// Backup keeps a copy of an unreadable document next to the original
// and returns the name it was written under
func Backup(b Backend, name string, data []byte) (string, error) {
	backupName := fmt.Sprintf("%s.corrupt-%d", name, time.Now().UnixNano())
	if err := b.Write(backupName, data); err != nil {
		return "", fmt.Errorf("failed to back up %s: %w", name, err)
	}
	return backupName, nil
}
