package spreadsheet

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

var (
	ErrFileType       = errors.New("spreadsheet: only .xlsx files are accepted")
	ErrFileTooLarge   = errors.New("spreadsheet: file is larger than 5 MB")
	ErrTooManyRows    = errors.New("spreadsheet: too many rows")
	ErrTooManyColumns = errors.New("spreadsheet: too many columns")
	ErrUnreadable     = errors.New("spreadsheet: file could not be read")
)

type Limits struct {
	MaxBytes   int64
	MaxRows    int // data rows, header excluded
	MaxColumns int
	MaxCellLen int // runes
}

var DefaultLimits = Limits{
	MaxBytes:   5 << 20,
	MaxRows:    5000,
	MaxColumns: 60,
	MaxCellLen: 500,
}

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var acceptedMIME = map[string]bool{
	xlsxMIME:                   true,
	"application/octet-stream": true,
	"application/zip":          true,
	"":                         true,
}

// CheckUpload rejects files by name, declared MIME type and size before any
// parsing happens.
func (l Limits) CheckUpload(name, contentType string, size int64) error {
	if !strings.EqualFold(filepath.Ext(name), ".xlsx") {
		return ErrFileType
	}
	mt := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	if !acceptedMIME[mt] {
		return ErrFileType
	}
	if size > l.MaxBytes {
		return ErrFileTooLarge
	}
	return nil
}

// Read parses the first sheet of an xlsx document. The body is read up to
// MaxBytes+1 so an understated size cannot get past the limit.
func (l Limits) Read(r io.Reader) ([][]string, error) {
	body, err := io.ReadAll(io.LimitReader(r, l.MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	if int64(len(body)) > l.MaxBytes {
		return nil, ErrFileTooLarge
	}
	// xlsx is a zip container
	if http.DetectContentType(body) != "application/zip" {
		return nil, ErrFileType
	}

	f, err := excelize.OpenReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoHeader
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	return l.clip(rows)
}

func (l Limits) clip(rows [][]string) ([][]string, error) {
	// trailing blank rows do not count toward the limit
	for len(rows) > 0 && blank(rows[len(rows)-1]) {
		rows = rows[:len(rows)-1]
	}
	if len(rows) > l.MaxRows+1 {
		return nil, fmt.Errorf("%w: %d data rows, limit %d", ErrTooManyRows, len(rows)-1, l.MaxRows)
	}
	for i, r := range rows {
		for len(r) > 0 && strings.TrimSpace(r[len(r)-1]) == "" {
			r = r[:len(r)-1]
		}
		if len(r) > l.MaxColumns {
			return nil, fmt.Errorf("%w: row %d has %d columns, limit %d", ErrTooManyColumns, i+1, len(r), l.MaxColumns)
		}
		for j, c := range r {
			if utf8.RuneCountInString(c) > l.MaxCellLen {
				r[j] = string([]rune(c)[:l.MaxCellLen])
			}
		}
		rows[i] = r
	}
	return rows, nil
}
