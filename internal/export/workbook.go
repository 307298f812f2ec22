package export

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

type SheetSpec struct {
	Title  string
	Header []string
	Rows   [][]string
	// Notes go below the data, separated by one empty row.
	Notes []string
}

// NewWorkbook lays out one sheet per spec with a bold, filtered header row
// and widths fitted to the content.
func NewWorkbook(sheets []SheetSpec) (*excelize.File, error) {
	f := excelize.NewFile()
	bold, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DDEBF7"}},
	})
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	for i, s := range sheets {
		name := sheetName(s.Title)
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				_ = f.Close()
				return nil, fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("new sheet: %w", err)
		}
		if err := fillSheet(f, name, s, bold); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	return f, nil
}

func fillSheet(f *excelize.File, name string, s SheetSpec, headerStyle int) error {
	if len(s.Header) > 0 {
		if err := f.SetSheetRow(name, "A1", &s.Header); err != nil {
			return fmt.Errorf("header: %w", err)
		}
		end, _ := excelize.CoordinatesToCellName(len(s.Header), 1)
		_ = f.SetCellStyle(name, "A1", end, headerStyle)
		_ = f.AutoFilter(name, "A1:"+end, nil)
		_ = f.SetPanes(name, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
	}
	for r, row := range s.Rows {
		cell, _ := excelize.CoordinatesToCellName(1, r+2)
		vals := make([]any, len(row))
		for i, v := range row {
			vals[i] = v
		}
		if err := f.SetSheetRow(name, cell, &vals); err != nil {
			return fmt.Errorf("row %d: %w", r+2, err)
		}
	}
	for i, n := range s.Notes {
		cell, _ := excelize.CoordinatesToCellName(1, len(s.Rows)+3+i)
		if err := f.SetCellStr(name, cell, n); err != nil {
			return err
		}
	}
	return fitColumns(f, name, s)
}

// fitColumns approximates auto-width from the header and the first rows.
func fitColumns(f *excelize.File, sheet string, s SheetSpec) error {
	for c := range s.Header {
		w := float64(utf8.RuneCountInString(s.Header[c])) + 2
		for r := 0; r < min(50, len(s.Rows)); r++ {
			if c < len(s.Rows[r]) {
				w = max(w, float64(utf8.RuneCountInString(s.Rows[r][c]))*1.1)
			}
		}
		w = min(max(w, 10), 45)
		col, err := excelize.ColumnNumberToName(c + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, col, col, w); err != nil {
			return err
		}
	}
	return nil
}

// WorkbookBytes renders the workbook and closes it.
func WorkbookBytes(f *excelize.File) ([]byte, error) {
	defer func() { _ = f.Close() }()
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var invalidSheetRe = regexp.MustCompile(`[\\/:*?\[\]]+`)

// sheetName fits s into Excel's 31 character sheet-name limit.
func sheetName(s string) string {
	s = strings.TrimSpace(invalidSheetRe.ReplaceAllString(s, " "))
	if s == "" {
		return "Sheet1"
	}
	if r := []rune(s); len(r) > 31 {
		s = string(r[:31])
	}
	return s
}

var invalidFileRe = regexp.MustCompile(`[\\/:*?"<>|]+`)

// FileName builds a download name like "Math 7A - attendance - 2024-03-04.csv".
func FileName(ext string, parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.Join(strings.Fields(p), " ")
		if p != "" {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		kept = append(kept, "export")
	}
	return invalidFileRe.ReplaceAllString(strings.Join(kept, " - "), "_") + "." + ext
}
