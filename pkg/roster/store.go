package roster

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/cuemby/randpick/pkg/log"
	"github.com/cuemby/randpick/pkg/metrics"
	"github.com/cuemby/randpick/pkg/storage"
	"github.com/cuemby/randpick/pkg/types"
)

var (
	// ErrInvalidStudent is returned by SaveAll when a student fails validation
	ErrInvalidStudent = errors.New("invalid student")

	// ErrInvalidGroup is returned by SaveAll when a group fails validation
	ErrInvalidGroup = errors.New("invalid group")
)

// Store owns the students and groups of one roster document.
//
// Every read re-reads the document first, so edits made by other tools
// between calls are picked up. A document that cannot be parsed is backed
// up and replaced by an empty roster in memory.
type Store struct {
	backend  storage.Backend
	validate *validator.Validate
	logger   zerolog.Logger

	mu       sync.Mutex
	students []types.Student
	groups   []types.Group

	// lastCorrupt holds the unparsable bytes already backed up
	lastCorrupt []byte
}

// NewStore creates a roster store over backend
func NewStore(backend storage.Backend) *Store {
	validate := validator.New()
	_ = validate.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
		return types.IsFiniteWeight(fl.Field().Float())
	})

	return &Store{
		backend:  backend,
		validate: validate,
		logger:   log.WithDocument("roster", storage.RosterDocument),
	}
}

// Reload replaces the in-memory snapshot with the persisted document
func (s *Store) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reloadLocked()
}

// LoadAll re-reads the document and returns copies of both lists
func (s *Store) LoadAll() ([]types.Student, []types.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.reloadLocked(); err != nil {
		return nil, nil, err
	}
	return cloneStudents(s.students), cloneGroups(s.groups), nil
}

// Students returns a fresh copy of the student list
func (s *Store) Students() []types.Student {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.refreshLocked()
	return cloneStudents(s.students)
}

// Groups returns a fresh copy of the group list
func (s *Store) Groups() []types.Group {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.refreshLocked()
	return cloneGroups(s.groups)
}

// Student returns the student at index, or the "no result" sentinel
func (s *Store) Student(index int) types.Student {
	if st, ok := s.Lookup(index); ok {
		return st
	}
	s.logger.Warn().Int("index", index).Msg("Student not found")
	return types.NoResult()
}

// Lookup returns the student at index
func (s *Store) Lookup(index int) (types.Student, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.refreshLocked()
	if index < 0 || index >= len(s.students) {
		return types.Student{}, false
	}
	return s.students[index], true
}

// FindStudentIndexByName returns the position of the first student named name
func (s *Store) FindStudentIndexByName(name string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.refreshLocked()
	for i, st := range s.students {
		if st.Name == name {
			return i, true
		}
	}
	return 0, false
}

// FindStudentIndexByID returns the position of the first student with id
func (s *Store) FindStudentIndexByID(id types.StudentID) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.refreshLocked()
	for i, st := range s.students {
		if st.ID == id {
			return i, true
		}
	}
	return 0, false
}

// ActiveIndices returns the positions of active students in roster order
func (s *Store) ActiveIndices() []int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.refreshLocked()
	indices := make([]int, 0, len(s.students))
	for i, st := range s.students {
		if st.Active {
			indices = append(indices, i)
		}
	}
	return indices
}

// Weights returns the weight of each index, aligned with indices.
// Indices outside the roster get weight 0 so they can never be drawn.
func (s *Store) Weights(indices []int) []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.refreshLocked()
	weights := make([]float64, len(indices))
	for i, idx := range indices {
		if idx >= 0 && idx < len(s.students) {
			weights[i] = s.students[idx].Weight
		}
	}
	return weights
}

// Group returns the group at index
func (s *Store) Group(index int) (types.Group, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.refreshLocked()
	if index < 0 || index >= len(s.groups) {
		return types.Group{}, false
	}
	return s.groups[index].Clone(), true
}

// FindGroupIndexByName returns the position of the first group named name
func (s *Store) FindGroupIndexByName(name string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.refreshLocked()
	for i, g := range s.groups {
		if g.Name == name {
			return i, true
		}
	}
	return 0, false
}

// GroupMemberIndices resolves the group's member ids to current roster
// positions. Ids missing from the roster are skipped.
func (s *Store) GroupMemberIndices(group types.Group) []int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.refreshLocked()
	positions := indexByID(s.students)
	indices := make([]int, 0, len(group.Members))
	for _, id := range group.Members {
		if idx, ok := positions[id]; ok {
			indices = append(indices, idx)
		}
	}
	return indices
}

// GroupMemberNames resolves the group's members to their current names
func (s *Store) GroupMemberNames(group types.Group) []string {
	indices := s.GroupMemberIndices(group)

	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(indices))
	for _, idx := range indices {
		if idx < len(s.students) {
			names = append(names, s.students[idx].Name)
		}
	}
	return names
}

// SaveAll replaces the student list, the group list, or both. A nil pointer
// keeps the persisted value of that list. The document is written once.
func (s *Store) SaveAll(students *[]types.Student, groups *[]types.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.read()
	if err != nil {
		return err
	}

	doc := current
	if students != nil {
		doc.Students = cloneStudents(*students)
	}
	if groups != nil {
		doc.Groups = cloneGroups(*groups)
	}
	if doc.Students == nil {
		doc.Students = []types.Student{}
	}
	if doc.Groups == nil {
		doc.Groups = []types.Group{}
	}

	if err := s.validateDocument(doc); err != nil {
		return err
	}

	// Rewrite the legacy positional list against the roster being saved
	positions := indexByID(doc.Students)
	for i := range doc.Groups {
		stu := make([]int, 0, len(doc.Groups[i].Members))
		for _, id := range doc.Groups[i].Members {
			if idx, ok := positions[id]; ok {
				stu = append(stu, idx)
			}
		}
		doc.Groups[i].Stu = stu
	}

	data, err := encode(doc)
	if err != nil {
		return fmt.Errorf("failed to encode roster: %w", err)
	}
	if err := s.backend.Write(storage.RosterDocument, data); err != nil {
		return fmt.Errorf("failed to save roster: %w", err)
	}

	s.students = doc.Students
	s.groups = doc.Groups
	s.logger.Info().
		Int("students", len(doc.Students)).
		Int("groups", len(doc.Groups)).
		Msg("Roster saved")
	return nil
}

// ResetWeights sets every student's weight to w
func (s *Store) ResetWeights(w float64) error {
	students, _, err := s.LoadAll()
	if err != nil {
		return err
	}
	for i := range students {
		students[i].Weight = w
	}
	return s.SaveAll(&students, nil)
}

// ResetActive sets every student's active flag
func (s *Store) ResetActive(active bool) error {
	students, _, err := s.LoadAll()
	if err != nil {
		return err
	}
	for i := range students {
		students[i].Active = active
	}
	return s.SaveAll(&students, nil)
}

// Import adds students to the roster. With replace the imported list
// becomes the roster; otherwise students are upserted by id and new ids
// are appended in import order. Groups are kept either way.
func (s *Store) Import(imported []types.Student, replace bool) error {
	if replace {
		return s.SaveAll(&imported, nil)
	}

	students, _, err := s.LoadAll()
	if err != nil {
		return err
	}

	positions := indexByID(students)
	for _, st := range imported {
		if idx, ok := positions[st.ID]; ok {
			students[idx] = st
			continue
		}
		positions[st.ID] = len(students)
		students = append(students, st)
	}
	return s.SaveAll(&students, nil)
}

// refreshLocked re-reads the document, keeping the previous snapshot if the
// read fails
func (s *Store) refreshLocked() {
	if err := s.reloadLocked(); err != nil {
		s.logger.Error().Err(err).Msg("Failed to refresh roster, using last snapshot")
	}
}

func (s *Store) reloadLocked() error {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.RosterReloadDuration)

	doc, err := s.read()
	if err != nil {
		return err
	}
	s.students = doc.Students
	s.groups = doc.Groups
	return nil
}

// read decodes the persisted document. A missing document is an empty
// roster; a corrupt one is backed up and treated as empty.
func (s *Store) read() (types.RosterDocument, error) {
	data, err := s.backend.Read(storage.RosterDocument)
	if errors.Is(err, storage.ErrNotFound) {
		return types.RosterDocument{}, nil
	}
	if err != nil {
		return types.RosterDocument{}, fmt.Errorf("failed to read roster: %w", err)
	}

	var doc types.RosterDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		if s.lastCorrupt != nil && bytes.Equal(data, s.lastCorrupt) {
			s.logger.Debug().Err(err).Msg("Roster document still corrupt, backup already taken")
			return types.RosterDocument{}, nil
		}
		s.lastCorrupt = append([]byte{}, data...)
		metrics.CorruptDocuments.WithLabelValues(storage.RosterDocument).Inc()
		backupName, backupErr := storage.Backup(s.backend, storage.RosterDocument, data)
		s.logger.Warn().
			Err(err).
			Str("backup", backupName).
			AnErr("backup_error", backupErr).
			Msg("Roster document is corrupt, continuing with an empty roster")
		return types.RosterDocument{}, nil
	}
	s.lastCorrupt = nil

	s.migrateGroups(&doc)
	return doc, nil
}

// migrateGroups converts groups that only carry positional membership into
// id-based membership, using the students stored alongside them
func (s *Store) migrateGroups(doc *types.RosterDocument) {
	for i := range doc.Groups {
		g := &doc.Groups[i]
		if len(g.Members) > 0 || len(g.Stu) == 0 {
			continue
		}

		members := make([]types.StudentID, 0, len(g.Stu))
		for _, idx := range g.Stu {
			if idx < 0 || idx >= len(doc.Students) {
				s.logger.Warn().Str("group", g.Name).Int("index", idx).Msg("Dropping out-of-range group member")
				continue
			}
			members = append(members, doc.Students[idx].ID)
		}
		g.Members = members
	}
}

func (s *Store) validateDocument(doc types.RosterDocument) error {
	seen := make(map[types.StudentID]bool, len(doc.Students))
	for i, st := range doc.Students {
		if err := s.validate.Struct(st); err != nil {
			return fmt.Errorf("%w at position %d: %v", ErrInvalidStudent, i, err)
		}
		if seen[st.ID] {
			s.logger.Warn().Str("student_id", string(st.ID)).Msg("Duplicate student id, lookups by id use the first")
		}
		seen[st.ID] = true
	}
	for i, g := range doc.Groups {
		if err := s.validate.Struct(g); err != nil {
			return fmt.Errorf("%w at position %d: %v", ErrInvalidGroup, i, err)
		}
	}
	return nil
}

func encode(doc types.RosterDocument) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func indexByID(students []types.Student) map[types.StudentID]int {
	positions := make(map[types.StudentID]int, len(students))
	for i, st := range students {
		if _, dup := positions[st.ID]; !dup {
			positions[st.ID] = i
		}
	}
	return positions
}

func cloneStudents(in []types.Student) []types.Student {
	if in == nil {
		return nil
	}
	return append([]types.Student(nil), in...)
}

func cloneGroups(in []types.Group) []types.Group {
	if in == nil {
		return nil
	}
	out := make([]types.Group, len(in))
	for i, g := range in {
		out[i] = g.Clone()
	}
	return out
}
