package config

import (
	_ "embed"
	"errors"
	"fmt"

	"github.com/cuemby/randpick/pkg/storage"
)

//go:embed default_config.json
var embeddedDefaults []byte

// DefaultsSource supplies the shipped defaults document
type DefaultsSource interface {
	ReadDefaults() ([]byte, error)
}

// DefaultsFunc adapts a function to DefaultsSource
type DefaultsFunc func() ([]byte, error)

// ReadDefaults calls f
func (f DefaultsFunc) ReadDefaults() ([]byte, error) {
	return f()
}

// EmbeddedDefaults returns the defaults compiled into the binary
func EmbeddedDefaults() DefaultsSource {
	return DefaultsFunc(func() ([]byte, error) {
		return embeddedDefaults, nil
	})
}

// BackendDefaults reads default_config.json from a storage backend
func BackendDefaults(b storage.Backend) DefaultsSource {
	return DefaultsFunc(func() ([]byte, error) {
		return b.Read(storage.DefaultsDocument)
	})
}

// FirstAvailable tries each source in order and returns the first document
// that exists. Errors other than storage.ErrNotFound stop the search.
func FirstAvailable(sources ...DefaultsSource) DefaultsSource {
	return DefaultsFunc(func() ([]byte, error) {
		for _, src := range sources {
			data, err := src.ReadDefaults()
			if errors.Is(err, storage.ErrNotFound) {
				continue
			}
			return data, err
		}
		return nil, fmt.Errorf("no defaults document: %w", storage.ErrNotFound)
	})
}
