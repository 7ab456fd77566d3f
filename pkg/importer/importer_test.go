package importer

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/cuemby/randpick/pkg/types"
)

func TestParseCSV(t *testing.T) {
	input := "\ufeffName,ID,Weight,Active\n" +
		"Alice, 1001, 2, true\n" +
		"Bob,1002,,0\n" +
		",,,\n" +
		"Carol,1003\n"

	students, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []types.Student{
		{ID: "1001", Name: "Alice", Weight: 2, Active: true},
		{ID: "1002", Name: "Bob", Weight: 1, Active: false},
		{ID: "1003", Name: "Carol", Weight: 1, Active: true},
	}, students)
}

func TestParseCSV_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"missing id column", "name,weight\nA,1\n", ErrMissingColumn},
		{"missing name value", "id,name\n1,\n", ErrMissingColumn},
		{"bad weight", "id,name,weight\n1,A,heavy\n", nil},
		{"infinite weight", "id,name,weight\n1,A,inf\n", nil},
		{"NaN weight", "id,name,weight\n1,A,NaN\n", nil},
		{"bad active", "id,name,active\n1,A,maybe\n", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCSV(strings.NewReader(tt.input))
			require.Error(t, err)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}

func TestParseCSV_Empty(t *testing.T) {
	students, err := ParseCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, students)
}

func TestParseXLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	rows := [][]interface{}{
		{"id", "name", "weight", "active"},
		{"1", "Alice", 1.5, "yes"},
		{"2", "Bob", 1, "no"},
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &r))
	}

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	students, err := ParseXLSX(&buf)
	require.NoError(t, err)
	assert.Equal(t, []types.Student{
		{ID: "1", Name: "Alice", Weight: 1.5, Active: true},
		{ID: "2", Name: "Bob", Weight: 1, Active: false},
	}, students)
}

func TestParseYAML(t *testing.T) {
	t.Run("list", func(t *testing.T) {
		students, err := ParseYAML(strings.NewReader(`
- id: "1"
  name: Alice
  weight: 3
- id: 2
  name: Bob
  active: false
`))
		require.NoError(t, err)
		assert.Equal(t, []types.Student{
			{ID: "1", Name: "Alice", Weight: 3, Active: true},
			{ID: "2", Name: "Bob", Weight: 1, Active: false},
		}, students)
	})

	t.Run("document", func(t *testing.T) {
		students, err := ParseYAML(strings.NewReader("students:\n  - {id: a1, name: Alice}\n"))
		require.NoError(t, err)
		assert.Equal(t, []types.Student{{ID: "a1", Name: "Alice", Weight: 1, Active: true}}, students)
	})

	t.Run("missing name", func(t *testing.T) {
		_, err := ParseYAML(strings.NewReader("- id: 1\n"))
		assert.ErrorIs(t, err, ErrMissingColumn)
	})

	t.Run("infinite weight", func(t *testing.T) {
		_, err := ParseYAML(strings.NewReader("- {id: 1, name: A, weight: .inf}\n"))
		assert.Error(t, err)
	})

	t.Run("scalar", func(t *testing.T) {
		_, err := ParseYAML(strings.NewReader("just text"))
		assert.Error(t, err)
	})
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "class.CSV")
	require.NoError(t, os.WriteFile(path, []byte("id,name\n7,Grace\n"), 0644))

	students, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []types.Student{{ID: "7", Name: "Grace", Weight: 1, Active: true}}, students)

	_, err = ReadFile(filepath.Join(dir, "class.pdf"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestDetectFormat(t *testing.T) {
	tests := map[string]Format{
		"a.csv":  FormatCSV,
		"a.xlsx": FormatXLSX,
		"a.yml":  FormatYAML,
		"a.yaml": FormatYAML,
	}
	for path, want := range tests {
		got, err := DetectFormat(path)
		require.NoError(t, err, path)
		assert.Equal(t, want, got, path)
	}
}
