package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

var _ Backend = (*FileBackend)(nil)

// FileBackend stores each document as a file under a base directory
type FileBackend struct {
	basePath string
}

// NewFileBackend creates a file backend rooted at basePath
func NewFileBackend(basePath string) (*FileBackend, error) {
	if basePath == "" {
		basePath = "."
	}

	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return &FileBackend{basePath: basePath}, nil
}

// Path returns the host path of a document
func (b *FileBackend) Path(name string) string {
	return filepath.Join(b.basePath, filepath.FromSlash(name))
}

// Read returns the document contents
func (b *FileBackend) Read(name string) ([]byte, error) {
	data, err := os.ReadFile(b.Path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return data, nil
}

// Write replaces the document by writing a temp file and renaming it over
// the original
func (b *FileBackend) Write(name string, data []byte) error {
	path := b.Path(name)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", name, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", name, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to sync %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close %s: %w", name, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace %s: %w", name, err)
	}
	return nil
}

// Exists reports whether the document file is present
func (b *FileBackend) Exists(name string) bool {
	_, err := os.Stat(b.Path(name))
	return err == nil
}

// Close is a no-op for the file backend
func (b *FileBackend) Close() error {
	return nil
}
