package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStudentUnmarshal(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Student
	}{
		{
			name:     "numeric id and weight",
			input:    `{"id": 20230101, "name": "Alice", "weight": 3, "active": false}`,
			expected: Student{ID: "20230101", Name: "Alice", Weight: 3, Active: false},
		},
		{
			name:     "string weight from older rosters",
			input:    `{"id": "000001", "name": "Bob", "weight": "2.5", "active": true}`,
			expected: Student{ID: "000001", Name: "Bob", Weight: 2.5, Active: true},
		},
		{
			name:     "missing weight and active",
			input:    `{"id": "7", "name": "Carol"}`,
			expected: Student{ID: "7", Name: "Carol", Weight: 1, Active: true},
		},
		{
			name:     "zero weight is kept",
			input:    `{"id": "8", "name": "Dan", "weight": 0, "active": true}`,
			expected: Student{ID: "8", Name: "Dan", Weight: 0, Active: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s Student
			require.NoError(t, json.Unmarshal([]byte(tt.input), &s))
			assert.Equal(t, tt.expected, s)
		})
	}
}

func TestStudentUnmarshal_InvalidWeight(t *testing.T) {
	var s Student
	err := json.Unmarshal([]byte(`{"id": "1", "name": "A", "weight": "heavy"}`), &s)
	assert.Error(t, err)
}

func TestStudentUnmarshal_NonFiniteWeight(t *testing.T) {
	for _, raw := range []string{`"inf"`, `"Infinity"`, `"-Inf"`, `"NaN"`, `"1e400"`, `1e400`} {
		t.Run(raw, func(t *testing.T) {
			var s Student
			err := json.Unmarshal([]byte(`{"id": "1", "name": "A", "weight": `+raw+`}`), &s)
			assert.Error(t, err)
		})
	}
}

func TestNoResult(t *testing.T) {
	s := NoResult()
	assert.Equal(t, StudentID("000000"), s.ID)
	assert.Equal(t, "<no result>", s.Name)
	assert.Equal(t, 1.0, s.Weight)
	assert.True(t, s.Active)
	assert.True(t, s.IsNoResult())
	assert.False(t, Student{ID: "1", Name: "A"}.IsNoResult())
}

func TestModeUnmarshal(t *testing.T) {
	tests := []struct {
		input    string
		expected Mode
	}{
		{`"person"`, ModePerson},
		{`"GROUP"`, ModeGroup},
		{`"weighted"`, ModeWeighted},
		{`"spin"`, ModeOther},
		{`0`, ModePerson},
		{`1`, ModeGroup},
		{`2`, ModeWeighted},
		{`9`, ModeOther},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var m Mode
			require.NoError(t, json.Unmarshal([]byte(tt.input), &m))
			assert.Equal(t, tt.expected, m)
		})
	}
}

func TestTimestampJSON(t *testing.T) {
	ts := NewTimestamp(time.Date(2025, 3, 14, 9, 26, 53, 589, time.Local))

	data, err := json.Marshal(ts)
	require.NoError(t, err)
	assert.Equal(t, `"2025-03-14 09:26:53"`, string(data))

	var back Timestamp
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, ts.Equal(back.Time), "got %v, want %v", back.Time, ts.Time)
}

func TestTimestampJSON_RFC3339Fallback(t *testing.T) {
	var ts Timestamp
	require.NoError(t, json.Unmarshal([]byte(`"2025-03-14T09:26:53Z"`), &ts))
	assert.Equal(t, 2025, ts.Year())

	assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &ts))
}

func TestHistoryEntryLegacyDocument(t *testing.T) {
	input := `{"historys": [
		{"mode": 1, "student": {"name": "Team A", "stu": [0, 1], "id": "Alice, Bob"}, "time": "2024-09-01 08:00:00"},
		{"mode": 0, "student": {"weight": "1", "id": 42, "name": "Alice", "active": true}, "time": "2024-09-01 07:59:00"}
	]}`

	var doc HistoryDocument
	require.NoError(t, json.Unmarshal([]byte(input), &doc))
	require.Len(t, doc.Historys, 2)

	assert.Equal(t, ModeGroup, doc.Historys[0].Mode)
	assert.Equal(t, StudentID("Alice, Bob"), doc.Historys[0].Subject.ID)
	assert.Equal(t, ModePerson, doc.Historys[1].Mode)
	assert.Equal(t, StudentID("42"), doc.Historys[1].Subject.ID)
}

func TestSubjectSnapshotsAreIndependent(t *testing.T) {
	g := Group{Name: "Team", Members: []StudentID{"1", "2"}}
	names := []string{"Alice", "Bob"}

	sub := GroupSubject(g, names)
	names[0] = "Mallory"
	assert.Equal(t, []string{"Alice", "Bob"}, sub.Members)
	assert.Equal(t, StudentID("Alice, Bob"), sub.ID)

	clone := sub.Clone()
	clone.Members[1] = "Eve"
	assert.Equal(t, "Bob", sub.Members[1])
}

func TestGroupClone(t *testing.T) {
	g := Group{Name: "A", Members: []StudentID{"1"}, Stu: []int{0}}
	c := g.Clone()
	c.Members[0] = "2"
	c.Stu[0] = 5

	assert.Equal(t, StudentID("1"), g.Members[0])
	assert.Equal(t, 0, g.Stu[0])
	assert.True(t, g.HasMember("1"))
	assert.False(t, g.HasMember("2"))
}
