package roster

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/randpick/pkg/storage"
	"github.com/cuemby/randpick/pkg/types"
)

const sampleRoster = `{
	"students": [
		{"id": 1, "name": "A", "weight": 1, "active": true},
		{"id": 2, "name": "B", "weight": 3, "active": false}
	],
	"groups": []
}`

func newTestStore(t *testing.T, doc string) (*Store, storage.Backend) {
	t.Helper()
	backend, err := storage.NewFileBackend(t.TempDir())
	require.NoError(t, err)
	if doc != "" {
		require.NoError(t, backend.Write(storage.RosterDocument, []byte(doc)))
	}
	return NewStore(backend), backend
}

func TestStore_ActiveIndices(t *testing.T) {
	s, _ := newTestStore(t, sampleRoster)

	assert.Equal(t, []int{0}, s.ActiveIndices())
	assert.Equal(t, []float64{1, 3}, s.Weights([]int{0, 1}))
}

func TestStore_MissingDocumentIsEmpty(t *testing.T) {
	s, backend := newTestStore(t, "")

	students, groups, err := s.LoadAll()
	require.NoError(t, err)
	assert.Empty(t, students)
	assert.Empty(t, groups)
	assert.Empty(t, s.ActiveIndices())
	assert.False(t, backend.Exists(storage.RosterDocument))
}

func TestStore_StudentSentinel(t *testing.T) {
	s, _ := newTestStore(t, sampleRoster)

	assert.Equal(t, "A", s.Student(0).Name)

	for _, idx := range []int{-1, 2, 100} {
		st := s.Student(idx)
		assert.True(t, st.IsNoResult())
		assert.Equal(t, types.StudentID("000000"), st.ID)
		assert.Equal(t, "<no result>", st.Name)
		assert.Equal(t, 1.0, st.Weight)
		assert.True(t, st.Active)
	}

	_, ok := s.Lookup(5)
	assert.False(t, ok)
}

func TestStore_WeightsOutOfRange(t *testing.T) {
	s, _ := newTestStore(t, sampleRoster)

	assert.Equal(t, []float64{3, 0, 0}, s.Weights([]int{1, 7, -1}))
	assert.Empty(t, s.Weights(nil))
}

func TestStore_FindByNameAndID(t *testing.T) {
	s, _ := newTestStore(t, sampleRoster)

	idx, ok := s.FindStudentIndexByName("B")
	require.True(t, ok)
	assert.Equal(t, 1, idx)

	_, ok = s.FindStudentIndexByName("Z")
	assert.False(t, ok)

	idx, ok = s.FindStudentIndexByID("1")
	require.True(t, ok)
	assert.Equal(t, 0, idx)
}

func TestStore_RefreshBeforeRead(t *testing.T) {
	s, backend := newTestStore(t, sampleRoster)
	assert.Equal(t, []int{0}, s.ActiveIndices())

	// Edited behind the store's back
	require.NoError(t, backend.Write(storage.RosterDocument, []byte(`{"students":[
		{"id":"1","name":"A"},{"id":"2","name":"B"},{"id":"3","name":"C"}
	]}`)))

	assert.Equal(t, []int{0, 1, 2}, s.ActiveIndices())
}

func countBackups(t *testing.T, backend storage.Backend, name string) int {
	t.Helper()
	fb := backend.(*storage.FileBackend)
	entries, err := os.ReadDir(fb.Path(filepath.Dir(name)))
	require.NoError(t, err)

	var backups int
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), filepath.Base(name)+".corrupt-") {
			backups++
		}
	}
	return backups
}

func TestStore_CorruptDocument(t *testing.T) {
	s, backend := newTestStore(t, `{"students": [`)

	students, groups, err := s.LoadAll()
	require.NoError(t, err)
	assert.Empty(t, students)
	assert.Empty(t, groups)
	assert.Equal(t, 1, countBackups(t, backend, storage.RosterDocument))
}

func TestStore_CorruptDocumentBackedUpOnce(t *testing.T) {
	s, backend := newTestStore(t, `{not json`)

	assert.Empty(t, s.ActiveIndices())
	assert.Equal(t, []float64{0}, s.Weights([]int{0}))
	assert.Empty(t, s.Students())
	assert.Empty(t, s.Groups())
	_, ok := s.Group(0)
	assert.False(t, ok)
	assert.Empty(t, s.GroupMemberNames(types.Group{Members: []types.StudentID{"1"}}))
	assert.Equal(t, 1, countBackups(t, backend, storage.RosterDocument))

	// Different broken content is a new corruption
	require.NoError(t, backend.Write(storage.RosterDocument, []byte(`{still not json`)))
	assert.Empty(t, s.Students())
	assert.Empty(t, s.Students())
	assert.Equal(t, 2, countBackups(t, backend, storage.RosterDocument))

	// A good document in between resets the guard
	require.NoError(t, backend.Write(storage.RosterDocument, []byte(sampleRoster)))
	assert.Len(t, s.Students(), 2)
	require.NoError(t, backend.Write(storage.RosterDocument, []byte(`{still not json`)))
	assert.Empty(t, s.Students())
	assert.Equal(t, 3, countBackups(t, backend, storage.RosterDocument))
}

func TestStore_NonFiniteWeights(t *testing.T) {
	s, backend := newTestStore(t, `{"students": [{"id": "1", "name": "A", "weight": "inf"}]}`)

	assert.Empty(t, s.Students(), "infinite weight makes the document unreadable")
	assert.Equal(t, 1, countBackups(t, backend, storage.RosterDocument))

	for _, w := range []float64{math.Inf(1), math.NaN()} {
		students := []types.Student{{ID: "1", Name: "A", Weight: w, Active: true}}
		assert.ErrorIs(t, s.SaveAll(&students, nil), ErrInvalidStudent)
	}

	students := []types.Student{{ID: "1", Name: "A", Weight: math.MaxFloat64, Active: true}}
	require.NoError(t, s.SaveAll(&students, nil))
	assert.Equal(t, students, s.Students())
}

func TestStore_SaveAllPartialUpdate(t *testing.T) {
	s, backend := newTestStore(t, sampleRoster)

	groups := []types.Group{{Name: "G1", Members: []types.StudentID{"2", "1"}}}
	require.NoError(t, s.SaveAll(nil, &groups))

	students, loaded, err := s.LoadAll()
	require.NoError(t, err)
	require.Len(t, students, 2, "students untouched")
	assert.Equal(t, "B", students[1].Name)
	require.Len(t, loaded, 1)
	assert.Equal(t, []types.StudentID{"2", "1"}, loaded[0].Members)

	// Legacy positional list written alongside ids
	data, err := backend.Read(storage.RosterDocument)
	require.NoError(t, err)
	var raw struct {
		Groups []struct {
			Stu []int `json:"stu"`
		} `json:"groups"`
	}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, []int{1, 0}, raw.Groups[0].Stu)

	renamed := []types.Student{{ID: "1", Name: "Alice", Weight: 2, Active: true}}
	require.NoError(t, s.SaveAll(&renamed, nil))

	students, loaded, err = s.LoadAll()
	require.NoError(t, err)
	assert.Equal(t, renamed, students)
	require.Len(t, loaded, 1, "groups untouched")
	assert.Equal(t, []string{"Alice"}, s.GroupMemberNames(loaded[0]), "missing member skipped")
}

func TestStore_SaveAllValidation(t *testing.T) {
	s, backend := newTestStore(t, sampleRoster)
	before, err := backend.Read(storage.RosterDocument)
	require.NoError(t, err)

	tests := []struct {
		name     string
		students []types.Student
		groups   []types.Group
		want     error
	}{
		{
			name:     "negative weight",
			students: []types.Student{{ID: "1", Name: "A", Weight: -1, Active: true}},
			want:     ErrInvalidStudent,
		},
		{
			name:     "missing name",
			students: []types.Student{{ID: "1", Weight: 1}},
			want:     ErrInvalidStudent,
		},
		{
			name:   "unnamed group",
			groups: []types.Group{{Members: []types.StudentID{"1"}}},
			want:   ErrInvalidGroup,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var sp *[]types.Student
			if tt.students != nil {
				sp = &tt.students
			}
			var gp *[]types.Group
			if tt.groups != nil {
				gp = &tt.groups
			}

			err := s.SaveAll(sp, gp)
			assert.ErrorIs(t, err, tt.want)

			after, err := backend.Read(storage.RosterDocument)
			require.NoError(t, err)
			assert.Equal(t, before, after)
		})
	}
}

func TestStore_MembershipSurvivesReorder(t *testing.T) {
	s, _ := newTestStore(t, sampleRoster)

	groups := []types.Group{{Name: "G", Members: []types.StudentID{"2"}}}
	require.NoError(t, s.SaveAll(nil, &groups))

	reordered := []types.Student{
		{ID: "3", Name: "C", Weight: 1, Active: true},
		{ID: "2", Name: "B", Weight: 3, Active: false},
		{ID: "1", Name: "A", Weight: 1, Active: true},
	}
	require.NoError(t, s.SaveAll(&reordered, nil))

	g, ok := s.Group(0)
	require.True(t, ok)
	assert.Equal(t, []int{1}, s.GroupMemberIndices(g))
	assert.Equal(t, []string{"B"}, s.GroupMemberNames(g))
}

func TestStore_LegacyGroupMigration(t *testing.T) {
	s, _ := newTestStore(t, `{
		"students": [
			{"id": "10", "name": "A", "weight": "1"},
			{"id": "20", "name": "B", "weight": "2"}
		],
		"groups": [
			{"name": "Old", "stu": [1, 0, 9]}
		]
	}`)

	g, ok := s.Group(0)
	require.True(t, ok)
	assert.Equal(t, []types.StudentID{"20", "10"}, g.Members)
	assert.Equal(t, []string{"B", "A"}, s.GroupMemberNames(g))

	idx, ok := s.FindGroupIndexByName("Old")
	require.True(t, ok)
	assert.Equal(t, 0, idx)

	_, ok = s.Group(1)
	assert.False(t, ok)
}

func TestStore_ResetWeightsAndActive(t *testing.T) {
	s, _ := newTestStore(t, sampleRoster)

	require.NoError(t, s.ResetWeights(2))
	require.NoError(t, s.ResetActive(true))

	for _, st := range s.Students() {
		assert.Equal(t, 2.0, st.Weight)
		assert.True(t, st.Active)
	}
	assert.Equal(t, []int{0, 1}, s.ActiveIndices())
}

func TestStore_Import(t *testing.T) {
	s, _ := newTestStore(t, sampleRoster)
	groups := []types.Group{{Name: "G", Members: []types.StudentID{"1"}}}
	require.NoError(t, s.SaveAll(nil, &groups))

	incoming := []types.Student{
		{ID: "2", Name: "Bee", Weight: 1, Active: true},
		{ID: "4", Name: "D", Weight: 1, Active: true},
	}
	require.NoError(t, s.Import(incoming, false))

	students := s.Students()
	require.Len(t, students, 3)
	assert.Equal(t, "A", students[0].Name)
	assert.Equal(t, "Bee", students[1].Name)
	assert.Equal(t, "D", students[2].Name)

	require.NoError(t, s.Import(incoming[:1], true))
	assert.Len(t, s.Students(), 1)
	assert.Len(t, s.Groups(), 1, "groups kept on replace")
}

func TestStore_BoltBackend(t *testing.T) {
	backend, err := storage.NewBoltBackend(t.TempDir())
	require.NoError(t, err)
	defer backend.Close()

	s := NewStore(backend)
	students := []types.Student{{ID: "1", Name: "A", Weight: 1, Active: true}}
	require.NoError(t, s.SaveAll(&students, nil))

	assert.Equal(t, students, s.Students())
	assert.Equal(t, []int{0}, s.ActiveIndices())
}
