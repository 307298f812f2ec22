package spreadsheet

import (
	"strings"
)

// RawRow is one data row as read from the sheet. Line is 1-based, as a
// spreadsheet user would count it.
type RawRow struct {
	Line  int
	Cells []string
}

func (r RawRow) Blank() bool { return blank(r.Cells) }

// Cell returns the trimmed value at idx, or "" when idx is out of range.
func (r RawRow) Cell(idx int) string {
	if idx < 0 || idx >= len(r.Cells) {
		return ""
	}
	return strings.TrimSpace(r.Cells[idx])
}

// DataRows returns the rows below the header.
func (h *Header) DataRows(rows [][]string) []RawRow {
	if h.Row+1 >= len(rows) {
		return nil
	}
	out := make([]RawRow, 0, len(rows)-h.Row-1)
	for i := h.Row + 1; i < len(rows); i++ {
		out = append(out, RawRow{Line: i + 1, Cells: rows[i]})
	}
	return out
}

// Outcome is what happened to a single row during reconciliation.
type Outcome int

const (
	Accepted Outcome = iota
	SkippedBlank
	SkippedIncomplete
	SkippedDuplicate
	SkippedNotFound
)

func (o Outcome) String() string {
	switch o {
	case Accepted:
		return "accepted"
	case SkippedBlank:
		return "blank"
	case SkippedIncomplete:
		return "incomplete"
	case SkippedDuplicate:
		return "duplicate"
	case SkippedNotFound:
		return "not_found"
	}
	return "unknown"
}
