// Package export writes combined player stats as CSV or XLSX.
package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/jackzampolin/scoresheet/internal/stats"
)

// ErrUnsupportedFormat is returned for export paths with an unknown extension.
var ErrUnsupportedFormat = errors.New("unsupported export format")

const (
	playersSheet   = "Players"
	conflictsSheet = "Conflicts"
)

// Table is a rectangular rendering of player stats. Missing stats are "".
type Table struct {
	Header []string
	Rows   [][]string
}

// StatKeys orders stat keys by category column order, then appends any keys
// present on players but not declared by a category, sorted.
func StatKeys(categories []stats.Category, players []stats.PlayerStats) []string {
	seen := make(map[string]bool)
	var keys []string
	for _, c := range categories {
		for _, col := range c.Columns {
			if !seen[col.Name] {
				seen[col.Name] = true
				keys = append(keys, col.Name)
			}
		}
	}

	extra := make(map[string]bool)
	for _, p := range players {
		for k := range p.Stats {
			if !seen[k] {
				extra[k] = true
			}
		}
	}
	return append(keys, slices.Sorted(maps.Keys(extra))...)
}

// NewTable lays players out one per row: Name, Team, Number, then statKeys.
func NewTable(players []stats.PlayerStats, statKeys []string) Table {
	t := Table{Header: append([]string{"Name", "Team", "Number"}, statKeys...)}
	for _, p := range players {
		row := make([]string, 0, len(t.Header))
		number := ""
		if p.HasNumber() {
			number = strconv.Itoa(p.Number)
		}
		row = append(row, p.Name, p.Team, number)
		for _, k := range statKeys {
			row = append(row, p.Stats[k])
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// WriteCSV writes the table with a header row.
func WriteCSV(w io.Writer, t Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("csv write: %w", err)
	}
	return nil
}

// XLSX renders the table to a workbook. Conflicts, if any, get their own sheet.
func XLSX(t Table, conflicts []stats.Conflict) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	// Rename the default sheet rather than leaving an empty Sheet1 behind.
	if err := f.SetSheetName(f.GetSheetName(0), playersSheet); err != nil {
		return nil, err
	}
	if err := writeRows(f, playersSheet, t.Header, t.Rows, numberColumn); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(playersSheet, "A", "A", 24); err != nil { // name
		return nil, err
	}
	if err := f.SetColWidth(playersSheet, "B", "B", 10); err != nil { // team
		return nil, err
	}
	if err := f.SetPanes(playersSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, err
	}

	if len(conflicts) > 0 {
		if _, err := f.NewSheet(conflictsSheet); err != nil {
			return nil, err
		}
		rows := make([][]string, 0, len(conflicts))
		for _, c := range conflicts {
			rows = append(rows, []string{c.Player, c.Field, c.Previous, c.Value})
		}
		if err := writeRows(f, conflictsSheet, []string{"Player", "Field", "Previous", "Value"}, rows, -1); err != nil {
			return nil, err
		}
		if err := f.SetColWidth(conflictsSheet, "A", "A", 24); err != nil {
			return nil, err
		}
	}

	idx, err := f.GetSheetIndex(playersSheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(idx)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

// numberColumn is the zero-based index of the player number in a Table.
const numberColumn = 2

// writeRows writes a header and rows as text cells. Only numericCol (or none
// when negative) is stored as a number; stat values keep their raw text.
func writeRows(f *excelize.File, sheet string, header []string, rows [][]string, numericCol int) error {
	write := func(col, row int, v string, numeric bool) error {
		cell, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			return err
		}
		if numeric {
			if n, err := strconv.Atoi(v); err == nil {
				return f.SetCellInt(sheet, cell, int64(n))
			}
		}
		return f.SetCellStr(sheet, cell, v)
	}
	for i, h := range header {
		if err := write(i+1, 1, h, false); err != nil {
			return fmt.Errorf("%s header: %w", sheet, err)
		}
	}
	for r, values := range rows {
		for c, v := range values {
			if err := write(c+1, r+2, v, c == numericCol); err != nil {
				return fmt.Errorf("%s row %d: %w", sheet, r+2, err)
			}
		}
	}
	return nil
}

// WriteFile writes the table to path, choosing the format from its extension.
func WriteFile(path string, t Table, conflicts []stats.Conflict) error {
	var buf bytes.Buffer
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		if err := WriteCSV(&buf, t); err != nil {
			return err
		}
	case ".xlsx":
		data, err := XLSX(t, conflicts)
		if err != nil {
			return err
		}
		buf.Write(data)
	default:
		return fmt.Errorf("%w: %q (use .csv or .xlsx)", ErrUnsupportedFormat, filepath.Ext(path))
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create export directory: %w", err)
		}
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
