package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	// NoResultID is the id carried by the "no result" sentinel student
	NoResultID StudentID = "000000"

	// NoResultName is the display name of the "no result" sentinel student
	NoResultName = "<no result>"

	// TimeLayout is the on-disk format of history timestamps
	TimeLayout = "2006-01-02 15:04:05"

	// DefaultWeight applies to students persisted without a weight
	DefaultWeight = 1.0
)

// StudentID is a student's global identifier.
// Rosters written by older tools store ids as numbers, so both
// JSON numbers and strings decode into it.
type StudentID string

// UnmarshalJSON accepts a JSON string or number
func (id *StudentID) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = StudentID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid student id %s", data)
	}
	*id = StudentID(n.String())
	return nil
}

// Student represents one entry of the roster
type Student struct {
	ID     StudentID `json:"id" yaml:"id" validate:"required"`
	Name   string    `json:"name" yaml:"name" validate:"required"`
	Weight float64   `json:"weight" yaml:"weight" validate:"gte=0,finite"`
	Active bool      `json:"active" yaml:"active"`
}

// UnmarshalJSON decodes a student, defaulting weight to 1 and active to true
// when absent. Weight may be a number or a numeric string.
func (s *Student) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID     StudentID       `json:"id"`
		Name   string          `json:"name"`
		Weight json.RawMessage `json:"weight"`
		Active *bool           `json:"active"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	weight, err := parseWeight(raw.Weight)
	if err != nil {
		return fmt.Errorf("student %q: %w", raw.Name, err)
	}

	s.ID = raw.ID
	s.Name = raw.Name
	s.Weight = weight
	s.Active = raw.Active == nil || *raw.Active
	return nil
}

func parseWeight(data json.RawMessage) (float64, error) {
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return DefaultWeight, nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		return f, nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return 0, fmt.Errorf("invalid weight %s", data)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultWeight, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || !IsFiniteWeight(f) {
		return 0, fmt.Errorf("invalid weight %q", s)
	}
	return f, nil
}

// IsFiniteWeight reports whether w is neither NaN nor infinite
func IsFiniteWeight(w float64) bool {
	return !math.IsNaN(w) && !math.IsInf(w, 0)
}

// NoResult returns the sentinel student shown when a lookup or draw
// produces nothing
func NoResult() Student {
	return Student{
		ID:     NoResultID,
		Name:   NoResultName,
		Weight: DefaultWeight,
		Active: true,
	}
}

// IsNoResult reports whether s is the sentinel student
func (s Student) IsNoResult() bool {
	return s.ID == NoResultID && s.Name == NoResultName
}

// Group is a named set of students.
// Members holds student ids; positions are resolved against the roster
// at read time.
type Group struct {
	Name    string      `json:"name" yaml:"name" validate:"required"`
	Members []StudentID `json:"members" yaml:"members"`

	// Stu is the legacy positional membership list. It is rewritten from
	// Members on every save and only read when Members is absent.
	Stu []int `json:"stu" yaml:"-"`
}

// Clone returns a deep copy of the group
func (g Group) Clone() Group {
	out := Group{Name: g.Name}
	if g.Members != nil {
		out.Members = append([]StudentID(nil), g.Members...)
	}
	if g.Stu != nil {
		out.Stu = append([]int(nil), g.Stu...)
	}
	return out
}

// HasMember reports whether id is listed in the group
func (g Group) HasMember(id StudentID) bool {
	for _, m := range g.Members {
		if m == id {
			return true
		}
	}
	return false
}

// RosterDocument is the persisted roster
type RosterDocument struct {
	Students []Student `json:"students"`
	Groups   []Group   `json:"groups"`
}

// Mode is the kind of selection a history entry records
type Mode string

const (
	ModePerson   Mode = "person"
	ModeGroup    Mode = "group"
	ModeWeighted Mode = "weighted"
	ModeOther    Mode = "other"
)

// UnmarshalJSON accepts the string form and the legacy integer codes
func (m *Mode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*m = ParseMode(s)
		return nil
	}

	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid mode %s", data)
	}
	switch n {
	case 0:
		*m = ModePerson
	case 1:
		*m = ModeGroup
	case 2:
		*m = ModeWeighted
	default:
		*m = ModeOther
	}
	return nil
}

// ParseMode maps a name to a Mode, falling back to ModeOther
func ParseMode(s string) Mode {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModePerson:
		return ModePerson
	case ModeGroup:
		return ModeGroup
	case ModeWeighted:
		return ModeWeighted
	default:
		return ModeOther
	}
}

// Subject is the snapshot of what was selected.
// For a group, ID holds the member names joined with ", ".
type Subject struct {
	ID      StudentID `json:"id"`
	Name    string    `json:"name"`
	Weight  float64   `json:"weight,omitempty"`
	Active  bool      `json:"active,omitempty"`
	Members []string  `json:"members,omitempty"`
}

// UnmarshalJSON tolerates the string weights older logs carry
func (s *Subject) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID      StudentID       `json:"id"`
		Name    string          `json:"name"`
		Weight  json.RawMessage `json:"weight"`
		Active  bool            `json:"active"`
		Members []string        `json:"members"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var weight float64
	if len(raw.Weight) > 0 {
		w, err := parseWeight(raw.Weight)
		if err != nil {
			return err
		}
		weight = w
	}

	*s = Subject{
		ID:      raw.ID,
		Name:    raw.Name,
		Weight:  weight,
		Active:  raw.Active,
		Members: raw.Members,
	}
	return nil
}

// StudentSubject snapshots a student
func StudentSubject(s Student) Subject {
	return Subject{
		ID:     s.ID,
		Name:   s.Name,
		Weight: s.Weight,
		Active: s.Active,
	}
}

// GroupSubject snapshots a group and the member names it resolved to
func GroupSubject(g Group, memberNames []string) Subject {
	names := append([]string(nil), memberNames...)
	return Subject{
		ID:      StudentID(strings.Join(names, ", ")),
		Name:    g.Name,
		Members: names,
	}
}

// Clone returns a deep copy of the subject
func (s Subject) Clone() Subject {
	out := s
	if s.Members != nil {
		out.Members = append([]string(nil), s.Members...)
	}
	return out
}

// Timestamp is a local time persisted as TimeLayout
type Timestamp struct {
	time.Time
}

// NewTimestamp truncates t to the persisted precision
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.Truncate(time.Second)}
}

// MarshalJSON writes TimeLayout
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Format(TimeLayout))
}

// UnmarshalJSON reads TimeLayout, falling back to RFC 3339
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("invalid time %s", data)
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}

	parsed, err := time.ParseInLocation(TimeLayout, s, time.Local)
	if err != nil {
		parsed, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return fmt.Errorf("invalid time %q", s)
		}
	}
	t.Time = parsed
	return nil
}

// HistoryEntry records one selection event
type HistoryEntry struct {
	ID      string    `json:"id,omitempty"`
	Mode    Mode      `json:"mode"`
	Subject Subject   `json:"student"`
	Time    Timestamp `json:"time"`
	Note    string    `json:"note,omitempty"`
}

// Clone returns a deep copy of the entry
func (e HistoryEntry) Clone() HistoryEntry {
	out := e
	out.Subject = e.Subject.Clone()
	return out
}

// HistoryDocument is the persisted history log, newest first
type HistoryDocument struct {
	Historys []HistoryEntry `json:"historys"`
}
