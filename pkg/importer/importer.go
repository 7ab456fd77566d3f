package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	"github.com/cuemby/randpick/pkg/types"
)

var (
	// ErrUnsupportedFormat is returned for file extensions no parser handles
	ErrUnsupportedFormat = errors.New("unsupported import format")

	// ErrMissingColumn is returned when the header row lacks id or name
	ErrMissingColumn = errors.New("missing required column")
)

// Format names a roster import format
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatYAML Format = "yaml"
)

// DetectFormat maps a file extension to a Format
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// ReadFile parses the students in path, choosing the parser by extension
func ReadFile(path string) ([]types.Student, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return Parse(format, f)
}

// Parse reads students in the given format
func Parse(format Format, r io.Reader) ([]types.Student, error) {
	switch format {
	case FormatCSV:
		return ParseCSV(r)
	case FormatXLSX:
		return ParseXLSX(r)
	case FormatYAML:
		return ParseYAML(r)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// ParseCSV reads a table whose first row names the columns id, name,
// weight and active, in any order. Only id and name are required.
func ParseCSV(r io.Reader) ([]types.Student, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	return parseRows(rows)
}

// ParseXLSX reads the first sheet of a workbook laid out like ParseCSV
func ParseXLSX(r io.Reader) ([]types.Student, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return []types.Student{}, nil
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	return parseRows(rows)
}

// ParseYAML reads either a bare list of students or a document with a
// students key
func ParseYAML(r io.Reader) ([]types.Student, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read yaml: %w", err)
	}

	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}
	if len(node.Content) == 0 {
		return []types.Student{}, nil
	}

	return StudentsFromNode(node.Content[0])
}

// StudentsFromNode decodes a YAML sequence of students, or a mapping with a
// students key. Weight defaults to 1 and active to true.
func StudentsFromNode(root *yaml.Node) ([]types.Student, error) {
	var raw []yamlStudent
	var err error
	switch root.Kind {
	case yaml.SequenceNode:
		err = root.Decode(&raw)
	case yaml.MappingNode:
		var doc struct {
			Students []yamlStudent `yaml:"students"`
		}
		err = root.Decode(&doc)
		raw = doc.Students
	default:
		return nil, fmt.Errorf("failed to parse yaml: expected a list or a mapping")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}

	students := make([]types.Student, 0, len(raw))
	for i, s := range raw {
		st, err := s.student()
		if err != nil {
			return nil, fmt.Errorf("student %d: %w", i+1, err)
		}
		students = append(students, st)
	}
	return students, nil
}

// yamlStudent keeps weight and active optional
type yamlStudent struct {
	ID     string   `yaml:"id"`
	Name   string   `yaml:"name"`
	Weight *float64 `yaml:"weight"`
	Active *bool    `yaml:"active"`
}

func (s yamlStudent) student() (types.Student, error) {
	if strings.TrimSpace(s.ID) == "" || strings.TrimSpace(s.Name) == "" {
		return types.Student{}, fmt.Errorf("%w: id and name", ErrMissingColumn)
	}
	st := types.Student{
		ID:     types.StudentID(strings.TrimSpace(s.ID)),
		Name:   strings.TrimSpace(s.Name),
		Weight: types.DefaultWeight,
		Active: true,
	}
	if s.Weight != nil {
		if !types.IsFiniteWeight(*s.Weight) {
			return types.Student{}, fmt.Errorf("student %q: invalid weight %v", st.ID, *s.Weight)
		}
		st.Weight = *s.Weight
	}
	if s.Active != nil {
		st.Active = *s.Active
	}
	return st, nil
}

// parseRows turns a header row plus data rows into students.
// Blank rows are skipped.
func parseRows(rows [][]string) ([]types.Student, error) {
	if len(rows) == 0 {
		return []types.Student{}, nil
	}

	columns := make(map[string]int)
	for i, h := range rows[0] {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := columns[name]; !dup {
			columns[name] = i
		}
	}
	for _, required := range []string{"id", "name"} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, required)
		}
	}

	cell := func(row []string, column string) string {
		i, ok := columns[column]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	students := make([]types.Student, 0, len(rows)-1)
	for n, row := range rows[1:] {
		line := n + 2
		id, name := cell(row, "id"), cell(row, "name")
		if id == "" && name == "" {
			continue
		}
		if id == "" || name == "" {
			return nil, fmt.Errorf("row %d: %w: id and name", line, ErrMissingColumn)
		}

		st := types.Student{
			ID:     types.StudentID(id),
			Name:   name,
			Weight: types.DefaultWeight,
			Active: true,
		}
		if w := cell(row, "weight"); w != "" {
			f, err := strconv.ParseFloat(w, 64)
			if err != nil || !types.IsFiniteWeight(f) {
				return nil, fmt.Errorf("row %d: invalid weight %q", line, w)
			}
			st.Weight = f
		}
		if a := cell(row, "active"); a != "" {
			active, err := parseBool(a)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", line, err)
			}
			st.Active = active
		}
		students = append(students, st)
	}
	return students, nil
}

// parseBool accepts the spellings spreadsheets tend to produce
func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "1", "true", "yes", "y", "t":
		return true, nil
	case "0", "false", "no", "n", "f":
		return false, nil
	}
	return false, fmt.Errorf("invalid active value %q", s)
}
