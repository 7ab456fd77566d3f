package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"gopkg.in/ini.v1"

	"github.com/cuemby/randpick/pkg/log"
	"github.com/cuemby/randpick/pkg/metrics"
	"github.com/cuemby/randpick/pkg/storage"
)

var (
	// ErrNotFound is returned when neither store holds the key
	ErrNotFound = errors.New("config key not found")

	// ErrInvalidArgs is returned by Write for anything but complete
	// section, key, value triples
	ErrInvalidArgs = errors.New("config write needs section, key, value triples")

	// ErrDefaultsUnavailable is returned when the shipped defaults cannot be
	// read or parsed
	ErrDefaultsUnavailable = errors.New("default configuration unavailable")

	// ErrPromotionFailed is returned by Get together with the resolved value
	// when a default could not be copied into the override document
	ErrPromotionFailed = errors.New("failed to promote default")
)

// Resolver looks settings up in the user's override document first and the
// shipped defaults second.
//
// Get has a side effect: a value found only in the defaults is written into
// the override document before it is returned, so the override document
// fills up over time and later reads no longer touch the defaults.
type Resolver struct {
	backend  storage.Backend
	defaults DefaultsSource
	logger   zerolog.Logger
	mu       sync.Mutex

	// lastCorrupt holds the unparsable override bytes already backed up
	lastCorrupt []byte
}

// NewResolver creates a resolver over the override document in backend
func NewResolver(backend storage.Backend, defaults DefaultsSource) *Resolver {
	return &Resolver{
		backend:  backend,
		defaults: defaults,
		logger:   log.WithDocument("config", storage.ConfigDocument),
	}
}

// Get resolves section/key, promoting a default into the override document.
// A failed promotion still returns the value, with an error wrapping
// ErrPromotionFailed.
func (r *Resolver) Get(section, key string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	override, err := r.loadOverride()
	if err != nil {
		return "", err
	}

	if value, ok := lookup(override, section, key); ok {
		r.logger.Debug().Str("section", section).Str("key", key).Str("value", value).Msg("Resolved from override")
		return value, nil
	}

	defaults, err := r.loadDefaults()
	if err != nil {
		return "", err
	}

	value, ok := defaults[section][key]
	if !ok {
		r.logger.Debug().Str("section", section).Str("key", key).Msg("Key not found in override or defaults")
		return "", fmt.Errorf("%w: %s.%s", ErrNotFound, section, key)
	}

	r.logger.Debug().Str("section", section).Str("key", key).Str("value", value).Msg("Resolved from defaults")

	override.Section(section).Key(key).SetValue(value)
	if err := r.saveOverride(override); err != nil {
		r.logger.Error().Err(err).Str("section", section).Str("key", key).Msg("Failed to promote default")
		return value, fmt.Errorf("%w %s.%s: %w", ErrPromotionFailed, section, key, err)
	}
	r.logger.Debug().Str("section", section).Str("key", key).Msg("Promoted default into override")

	return value, nil
}

// Write upserts section, key, value triples in one durable write
func (r *Resolver) Write(args ...string) error {
	if len(args)%3 != 0 {
		return fmt.Errorf("%w: got %d values", ErrInvalidArgs, len(args))
	}
	if len(args) == 0 {
		return nil
	}
	for i := 0; i < len(args); i += 3 {
		if strings.TrimSpace(args[i]) == "" || strings.TrimSpace(args[i+1]) == "" {
			return fmt.Errorf("%w: empty section or key at position %d", ErrInvalidArgs, i)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	override, err := r.loadOverride()
	if err != nil {
		return err
	}

	for i := 0; i < len(args); i += 3 {
		override.Section(args[i]).Key(args[i+1]).SetValue(args[i+2])
	}

	return r.saveOverride(override)
}

// Set writes a single value
func (r *Resolver) Set(section, key, value string) error {
	return r.Write(section, key, value)
}

// Bool reads a boolean setting, returning fallback when missing or invalid
func (r *Resolver) Bool(section, key string, fallback bool) bool {
	value, ok := r.resolve(section, key)
	if !ok {
		return fallback
	}
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		r.logger.Warn().Str("section", section).Str("key", key).Str("value", value).Msg("Not a boolean, using fallback")
		return fallback
	}
	return b
}

// Int reads an integer setting, returning fallback when missing or invalid
func (r *Resolver) Int(section, key string, fallback int) int {
	value, ok := r.resolve(section, key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		r.logger.Warn().Str("section", section).Str("key", key).Str("value", value).Msg("Not an integer, using fallback")
		return fallback
	}
	return n
}

// Float reads a float setting, returning fallback when missing or invalid
func (r *Resolver) Float(section, key string, fallback float64) float64 {
	value, ok := r.resolve(section, key)
	if !ok {
		return fallback
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		r.logger.Warn().Str("section", section).Str("key", key).Str("value", value).Msg("Not a number, using fallback")
		return fallback
	}
	return f
}

// IntList reads a comma separated list of integers such as "0, 2, 3".
// Entries that are not integers are skipped.
func (r *Resolver) IntList(section, key string) []int {
	value, ok := r.resolve(section, key)
	if !ok {
		return nil
	}
	return ParseIntList(value)
}

// resolve is Get for the typed helpers, which keep a value whose promotion
// failed
func (r *Resolver) resolve(section, key string) (string, bool) {
	value, err := r.Get(section, key)
	if err != nil && !errors.Is(err, ErrPromotionFailed) {
		return "", false
	}
	return value, true
}

// ParseIntList splits a comma separated list of integers
func ParseIntList(value string) []int {
	var out []int
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			continue
		}
		out = append(out, n)
	}
	return out
}

// FormatIntList is the inverse of ParseIntList
func FormatIntList(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ", ")
}

// Sections returns the defaults overlaid with the overrides.
// It does not promote anything.
func (r *Resolver) Sections() (map[string]map[string]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	defaults, err := r.loadDefaults()
	if err != nil {
		return nil, err
	}
	override, err := r.loadOverride()
	if err != nil {
		return nil, err
	}

	merged := make(map[string]map[string]string, len(defaults))
	for section, keys := range defaults {
		merged[section] = make(map[string]string, len(keys))
		for k, v := range keys {
			merged[section][k] = v
		}
	}
	for _, sec := range override.Sections() {
		if sec.Name() == ini.DefaultSection && len(sec.Keys()) == 0 {
			continue
		}
		if merged[sec.Name()] == nil {
			merged[sec.Name()] = make(map[string]string)
		}
		for _, k := range sec.Keys() {
			merged[sec.Name()][k.Name()] = k.Value()
		}
	}
	return merged, nil
}

// SortedKeys returns map keys in order, for stable listings
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func lookup(f *ini.File, section, key string) (string, bool) {
	sec, err := f.GetSection(section)
	if err != nil || !sec.HasKey(key) {
		return "", false
	}
	return sec.Key(key).String(), true
}

// loadOverride reads the override document. A missing document is empty;
// an unparsable one is backed up and treated as empty.
func (r *Resolver) loadOverride() (*ini.File, error) {
	data, err := r.backend.Read(storage.ConfigDocument)
	if errors.Is(err, storage.ErrNotFound) {
		return ini.Empty(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read override config: %w", err)
	}

	f, err := ini.Load(data)
	if err != nil {
		if r.lastCorrupt != nil && bytes.Equal(data, r.lastCorrupt) {
			r.logger.Debug().Err(err).Msg("Override config still corrupt, backup already taken")
			return ini.Empty(), nil
		}
		r.lastCorrupt = append([]byte{}, data...)
		backupName, backupErr := storage.Backup(r.backend, storage.ConfigDocument, data)
		metrics.CorruptDocuments.WithLabelValues(storage.ConfigDocument).Inc()
		r.logger.Warn().
			Err(err).
			Str("backup", backupName).
			AnErr("backup_error", backupErr).
			Msg("Override config is corrupt, starting from an empty override")
		return ini.Empty(), nil
	}
	r.lastCorrupt = nil
	return f, nil
}

func (r *Resolver) saveOverride(f *ini.File) error {
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return fmt.Errorf("failed to encode override config: %w", err)
	}
	if err := r.backend.Write(storage.ConfigDocument, buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write override config: %w", err)
	}
	return nil
}

// loadDefaults parses the defaults document; values of any JSON scalar type
// are kept as their string form
func (r *Resolver) loadDefaults() (map[string]map[string]string, error) {
	if r.defaults == nil {
		return nil, fmt.Errorf("%w: no source configured", ErrDefaultsUnavailable)
	}

	data, err := r.defaults.ReadDefaults()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDefaultsUnavailable, err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDefaultsUnavailable, err)
	}

	out := make(map[string]map[string]string, len(raw))
	for section, keys := range raw {
		out[section] = make(map[string]string, len(keys))
		for k, v := range keys {
			if v == nil {
				out[section][k] = ""
				continue
			}
			out[section][k] = fmt.Sprint(v)
		}
	}
	return out, nil
}
