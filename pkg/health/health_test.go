package health

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/randpick/pkg/storage"
	"github.com/cuemby/randpick/pkg/types"
)

type fakeRoster struct {
	students []types.Student
	groups   []types.Group
	err      error
}

func (f fakeRoster) LoadAll() ([]types.Student, []types.Group, error) {
	return f.students, f.groups, f.err
}

func TestDocumentChecker(t *testing.T) {
	backend, err := storage.NewFileBackend(t.TempDir())
	require.NoError(t, err)

	tests := []struct {
		name     string
		checker  *DocumentChecker
		content  string
		required bool
		healthy  bool
	}{
		{"missing optional", NewJSONChecker(backend, "a.json"), "", false, true},
		{"missing required", NewJSONChecker(backend, "b.json"), "", true, false},
		{"valid json", NewJSONChecker(backend, "c.json"), `{"students": []}`, false, true},
		{"corrupt json", NewJSONChecker(backend, "d.json"), `{"students": [`, false, false},
		{"valid ini", NewINIChecker(backend, "e.ini"), "[Group]\nglobal = true\n", false, true},
		{"corrupt ini", NewINIChecker(backend, "f.ini"), "[Group\nglobal = true\n", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.content != "" {
				require.NoError(t, backend.Write(tt.checker.Name(), []byte(tt.content)))
			}
			tt.checker.Required = tt.required

			res := tt.checker.Check(context.Background())
			assert.Equal(t, tt.healthy, res.Healthy, res.Message)
			assert.Equal(t, CheckTypeDocument, tt.checker.Type())
			assert.False(t, res.CheckedAt.IsZero())
		})
	}
}

func TestDocumentChecker_Cancelled(t *testing.T) {
	backend, err := storage.NewFileBackend(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := NewJSONChecker(backend, storage.RosterDocument).Check(ctx)
	assert.False(t, res.Healthy)
	assert.Contains(t, res.Message, "cancelled")
}

func TestRosterChecker(t *testing.T) {
	tests := []struct {
		name    string
		roster  fakeRoster
		healthy bool
		message string
	}{
		{
			name: "healthy",
			roster: fakeRoster{
				students: []types.Student{{ID: "1", Name: "A", Weight: 1, Active: true}},
				groups:   []types.Group{{Name: "G", Members: []types.StudentID{"1"}}},
			},
			healthy: true,
			message: "1 students (1 selectable), 1 groups",
		},
		{
			name:    "empty",
			roster:  fakeRoster{},
			message: "no active student",
		},
		{
			name: "only zero weights",
			roster: fakeRoster{students: []types.Student{
				{ID: "1", Name: "A", Weight: 0, Active: true},
				{ID: "2", Name: "B", Weight: 1, Active: false},
			}},
			message: "no active student",
		},
		{
			name: "duplicate id",
			roster: fakeRoster{students: []types.Student{
				{ID: "1", Name: "A", Weight: 1, Active: true},
				{ID: "1", Name: "B", Weight: 1, Active: true},
			}},
			message: "duplicate id 1",
		},
		{
			name: "dangling member",
			roster: fakeRoster{
				students: []types.Student{{ID: "1", Name: "A", Weight: 1, Active: true}},
				groups:   []types.Group{{Name: "G", Members: []types.StudentID{"9"}}},
			},
			message: "group G lists unknown student 9",
		},
		{
			name:    "load error",
			roster:  fakeRoster{err: errors.New("boom")},
			message: "load failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := NewRosterChecker(tt.roster).Check(context.Background())
			assert.Equal(t, tt.healthy, res.Healthy)
			assert.Contains(t, res.Message, tt.message)
		})
	}
}

func TestRun(t *testing.T) {
	backend, err := storage.NewFileBackend(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, backend.Write(storage.RosterDocument, []byte(`{"students": []}`)))

	reports := Run(context.Background(), DefaultConfig(),
		NewJSONChecker(backend, storage.RosterDocument),
		NewRosterChecker(fakeRoster{}),
	)
	require.Len(t, reports, 2)
	assert.Equal(t, storage.RosterDocument, reports[0].Name)
	assert.True(t, reports[0].Result.Healthy)
	assert.Equal(t, "roster", reports[1].Name)
	assert.Equal(t, CheckTypeRoster, reports[1].Type)
	assert.False(t, Healthy(reports))
	assert.True(t, Healthy(reports[:1]))
}
