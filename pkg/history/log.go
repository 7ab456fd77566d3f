package history

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cuemby/randpick/pkg/log"
	"github.com/cuemby/randpick/pkg/metrics"
	"github.com/cuemby/randpick/pkg/storage"
	"github.com/cuemby/randpick/pkg/types"
)

// DefaultMax is the entry cap used when History/max is not configured
const DefaultMax = 1000

// Settings is the view of the configuration the log reads on every Add
type Settings interface {
	Bool(section, key string, fallback bool) bool
	Int(section, key string, fallback int) int
}

// Log is the newest-first record of past selections.
//
// The in-memory sequence always receives new entries. The persisted document
// is only written while History/record is enabled, and every write re-reads
// the document first so entries appended by another run are kept.
type Log struct {
	backend  storage.Backend
	settings Settings
	logger   zerolog.Logger

	mu      sync.Mutex
	entries []types.HistoryEntry
	loaded  bool
	now     func() time.Time

	// lastCorrupt holds the unparsable bytes already backed up
	lastCorrupt []byte
}

// NewLog creates a history log over backend
func NewLog(backend storage.Backend, settings Settings) *Log {
	return &Log{
		backend:  backend,
		settings: settings,
		logger:   log.WithDocument("history", storage.HistoryDocument),
		now:      time.Now,
	}
}

// Load replaces the in-memory entries with the persisted log and returns a
// copy. A missing or corrupt document yields an empty log; Load never fails.
func (l *Log) Load() []types.HistoryEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = l.readLocked()
	l.loaded = true
	metrics.HistoryEntries.Set(float64(len(l.entries)))
	return cloneEntries(l.entries)
}

// Add records entry at the head of the log. A missing ID and time are
// filled in. When recording is enabled the entry is persisted immediately;
// a failed write is returned but the entry stays in memory.
func (l *Log) Add(entry types.HistoryEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.ensureLoadedLocked()

	entry = entry.Clone()
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.Time.IsZero() {
		entry.Time = types.NewTimestamp(l.now())
	}
	if entry.Mode == "" {
		entry.Mode = types.ModeOther
	}

	limit := l.maxEntries()
	l.entries = trim(prepend(l.entries, entry), limit)
	metrics.HistoryEntries.Set(float64(len(l.entries)))

	if !l.recording() {
		l.logger.Debug().Str("entry_id", entry.ID).Msg("History recording disabled, entry kept in memory only")
		return nil
	}

	persisted := trim(prepend(l.readLocked(), entry), limit)
	if err := l.writeLocked(persisted); err != nil {
		metrics.HistoryPersistFailures.Inc()
		l.logger.Error().Err(err).Str("entry_id", entry.ID).Msg("Failed to persist history entry")
		return err
	}

	l.logger.Debug().
		Str("entry_id", entry.ID).
		Str("mode", string(entry.Mode)).
		Str("subject", entry.Subject.Name).
		Msg("History entry persisted")
	return nil
}

// Save writes the in-memory entries over the persisted document
func (l *Log) Save() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.ensureLoadedLocked()
	return l.writeLocked(trim(l.entries, l.maxEntries()))
}

// Clear empties the log in memory and on disk
func (l *Log) Clear() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = nil
	l.loaded = true
	metrics.HistoryEntries.Set(0)

	if err := l.writeLocked(nil); err != nil {
		return err
	}
	l.logger.Info().Msg("History cleared")
	return nil
}

// Entries returns a copy of the log, newest first
func (l *Log) Entries() []types.HistoryEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.ensureLoadedLocked()
	return cloneEntries(l.entries)
}

// Len returns the number of entries in memory
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.ensureLoadedLocked()
	return len(l.entries)
}

// Recent returns up to n newest entries
func (l *Log) Recent(n int) []types.HistoryEntry {
	if n <= 0 {
		return []types.HistoryEntry{}
	}
	entries := l.Entries()
	if len(entries) > n {
		entries = entries[:n]
	}
	return entries
}

// ByMode returns the entries recorded with mode
func (l *Log) ByMode(mode types.Mode) []types.HistoryEntry {
	return l.filter(func(e types.HistoryEntry) bool {
		return e.Mode == mode
	})
}

// Between returns the entries whose time lies in [from, to]
func (l *Log) Between(from, to time.Time) []types.HistoryEntry {
	return l.filter(func(e types.HistoryEntry) bool {
		return !e.Time.Before(from) && !e.Time.After(to)
	})
}

// Search matches text case-insensitively against the subject name, the
// subject id and the note
func (l *Log) Search(text string) []types.HistoryEntry {
	needle := strings.ToLower(strings.TrimSpace(text))
	if needle == "" {
		return l.Entries()
	}

	return l.filter(func(e types.HistoryEntry) bool {
		return strings.Contains(strings.ToLower(e.Subject.Name), needle) ||
			strings.Contains(strings.ToLower(string(e.Subject.ID)), needle) ||
			strings.Contains(strings.ToLower(e.Note), needle)
	})
}

// PickCount is the number of times one student was drawn
type PickCount struct {
	ID    types.StudentID `json:"id"`
	Name  string          `json:"name"`
	Count int             `json:"count"`
}

// Stats summarizes the log
type Stats struct {
	Total  int                `json:"total"`
	ByMode map[types.Mode]int `json:"by_mode"`

	// People counts person and weighted draws per student id, most
	// drawn first
	People []PickCount `json:"people"`
}

// Stats counts entries per mode and draws per student
func (l *Log) Stats() Stats {
	entries := l.Entries()

	stats := Stats{
		Total:  len(entries),
		ByMode: make(map[types.Mode]int),
	}

	counts := make(map[string]*PickCount)
	for _, e := range entries {
		stats.ByMode[e.Mode]++
		if e.Mode != types.ModePerson && e.Mode != types.ModeWeighted {
			continue
		}
		key := string(e.Subject.ID)
		if key == "" {
			key = "name:" + e.Subject.Name
		}
		pc, ok := counts[key]
		if !ok {
			pc = &PickCount{ID: e.Subject.ID, Name: e.Subject.Name}
			counts[key] = pc
		}
		pc.Count++
	}

	stats.People = make([]PickCount, 0, len(counts))
	for _, pc := range counts {
		stats.People = append(stats.People, *pc)
	}
	sort.Slice(stats.People, func(i, j int) bool {
		if stats.People[i].Count != stats.People[j].Count {
			return stats.People[i].Count > stats.People[j].Count
		}
		if stats.People[i].Name != stats.People[j].Name {
			return stats.People[i].Name < stats.People[j].Name
		}
		return stats.People[i].ID < stats.People[j].ID
	})
	return stats
}

func (l *Log) filter(keep func(types.HistoryEntry) bool) []types.HistoryEntry {
	out := make([]types.HistoryEntry, 0)
	for _, e := range l.Entries() {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

func (l *Log) ensureLoadedLocked() {
	if l.loaded {
		return
	}
	l.entries = l.readLocked()
	l.loaded = true
	metrics.HistoryEntries.Set(float64(len(l.entries)))
}

func (l *Log) recording() bool {
	if l.settings == nil {
		return true
	}
	return l.settings.Bool("History", "record", true)
}

func (l *Log) maxEntries() int {
	if l.settings == nil {
		return DefaultMax
	}
	limit := l.settings.Int("History", "max", DefaultMax)
	if limit < 0 {
		return DefaultMax
	}
	return limit
}

// readLocked decodes the persisted document. A missing document is empty;
// a corrupt one is backed up and treated as empty.
func (l *Log) readLocked() []types.HistoryEntry {
	data, err := l.backend.Read(storage.HistoryDocument)
	if errors.Is(err, storage.ErrNotFound) {
		return []types.HistoryEntry{}
	}
	if err != nil {
		l.logger.Warn().Err(err).Msg("Failed to read history, continuing with an empty log")
		return []types.HistoryEntry{}
	}

	var doc types.HistoryDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		if l.lastCorrupt != nil && bytes.Equal(data, l.lastCorrupt) {
			l.logger.Debug().Err(err).Msg("History document still corrupt, backup already taken")
			return []types.HistoryEntry{}
		}
		l.lastCorrupt = append([]byte{}, data...)
		metrics.CorruptDocuments.WithLabelValues(storage.HistoryDocument).Inc()
		backupName, backupErr := storage.Backup(l.backend, storage.HistoryDocument, data)
		l.logger.Warn().
			Err(err).
			Str("backup", backupName).
			AnErr("backup_error", backupErr).
			Msg("History document is corrupt, continuing with an empty log")
		return []types.HistoryEntry{}
	}
	l.lastCorrupt = nil

	if doc.Historys == nil {
		return []types.HistoryEntry{}
	}
	return doc.Historys
}

func (l *Log) writeLocked(entries []types.HistoryEntry) error {
	if entries == nil {
		entries = []types.HistoryEntry{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(types.HistoryDocument{Historys: entries}); err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}

	if err := l.backend.Write(storage.HistoryDocument, buf.Bytes()); err != nil {
		return fmt.Errorf("failed to save history: %w", err)
	}
	return nil
}

func prepend(entries []types.HistoryEntry, entry types.HistoryEntry) []types.HistoryEntry {
	out := make([]types.HistoryEntry, 0, len(entries)+1)
	out = append(out, entry)
	return append(out, entries...)
}

// trim keeps the newest limit entries; 0 means unlimited
func trim(entries []types.HistoryEntry, limit int) []types.HistoryEntry {
	if limit > 0 && len(entries) > limit {
		return entries[:limit]
	}
	return entries
}

func cloneEntries(in []types.HistoryEntry) []types.HistoryEntry {
	out := make([]types.HistoryEntry, len(in))
	for i, e := range in {
		out[i] = e.Clone()
	}
	return out
}
