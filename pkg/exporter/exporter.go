package exporter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/cuemby/randpick/pkg/types"
)

// ErrUnsupportedFormat is returned for file extensions no writer handles
var ErrUnsupportedFormat = errors.New("unsupported export format")

const sheetName = "Results"

var (
	headers      = []string{"#", "Mode", "Name", "ID", "Time", "Note"}
	columnWidths = []float64{8, 12, 15, 12, 20, 25}
)

// Report is the JSON export document
type Report struct {
	ExportedAt types.Timestamp      `json:"exported_at"`
	Total      int                  `json:"total"`
	Students   []string             `json:"students"`
	Entries    []types.HistoryEntry `json:"entries"`
}

// WriteFile exports entries to path, choosing the format by extension.
// names is the current roster, included in JSON exports.
func WriteFile(path string, entries []types.HistoryEntry, names []string) error {
	var buf bytes.Buffer

	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		err = WriteCSV(&buf, entries)
	case ".xlsx":
		err = WriteXLSX(&buf, entries)
	case ".json":
		err = WriteJSON(&buf, entries, names, time.Now())
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// WriteCSV writes one row per entry under a header row. A UTF-8 byte
// order mark leads the output so spreadsheet tools detect the encoding.
func WriteCSV(w io.Writer, entries []types.HistoryEntry) error {
	if _, err := io.WriteString(w, "\ufeff"); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(headers); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	for i, e := range entries {
		if err := cw.Write(row(i+1, e)); err != nil {
			return fmt.Errorf("failed to write csv: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}

// WriteXLSX writes a workbook with a styled header row
func WriteXLSX(w io.Writer, entries []types.HistoryEntry) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("failed to prepare sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"366092"}},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			return fmt.Errorf("failed to style header: %w", err)
		}

		colName, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheetName, colName, colName, columnWidths[col]); err != nil {
			return fmt.Errorf("failed to size column: %w", err)
		}
	}

	for i, e := range entries {
		values := row(i+1, e)
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return fmt.Errorf("failed to write row %d: %w", i+1, err)
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// WriteJSON writes a Report
func WriteJSON(w io.Writer, entries []types.HistoryEntry, names []string, now time.Time) error {
	if names == nil {
		names = []string{}
	}
	if entries == nil {
		entries = []types.HistoryEntry{}
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(Report{
		ExportedAt: types.NewTimestamp(now),
		Total:      len(entries),
		Students:   names,
		Entries:    entries,
	})
}

func row(n int, e types.HistoryEntry) []string {
	return []string{
		strconv.Itoa(n),
		modeText(e.Mode),
		e.Subject.Name,
		string(e.Subject.ID),
		e.Time.Format(types.TimeLayout),
		e.Note,
	}
}

func modeText(m types.Mode) string {
	switch m {
	case types.ModePerson:
		return "Person"
	case types.ModeGroup:
		return "Group"
	case types.ModeWeighted:
		return "Weighted"
	default:
		return "Other"
	}
}
