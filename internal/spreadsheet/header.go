package spreadsheet

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	ErrNoHeader        = errors.New("spreadsheet: no header row")
	ErrHeadersMismatch = errors.New("spreadsheet: headers do not match")
)

type Field string

const (
	FieldStudentNumber Field = "studentNumber"
	FieldName          Field = "name"
	FieldEmail         Field = "email"
	FieldGender        Field = "gender"
	FieldAttitude      Field = "attitude"
)

type FieldSpec struct {
	Field    Field
	Synonyms []string // already normalized
	Required bool
}

// Profile describes what a given import expects to find in the header.
type Profile struct {
	Fields []FieldSpec
	// AnyOf lists fields of which at least one must be present.
	AnyOf []Field
	// Assessments turns every unreserved column into an assessment type.
	Assessments bool
}

var synonyms = map[Field][]string{
	FieldStudentNumber: {"studentnumber", "studentno", "studentid", "nis", "nisn", "nim", "noinduk", "nomorinduk", "nomorinduksiswa", "idsiswa"},
	FieldName:          {"name", "fullname", "studentname", "nama", "namalengkap", "namasiswa"},
	FieldEmail:         {"email", "emailaddress", "mail", "surel", "alamatemail"},
	FieldGender:        {"gender", "sex", "jeniskelamin", "jk", "lp"},
	FieldAttitude:      {"attitude", "behavior", "behaviour", "sikap", "nilaisikap"},
}

// reserved headers never become assessment types.
var reserved = map[string]bool{
	"no": true, "number": true, "nomor": true, "nourut": true,
	"class": true, "kelas": true,
	"average": true, "avg": true, "ratarata": true, "nilaiakhir": true,
}

func init() {
	for _, ss := range synonyms {
		for _, s := range ss {
			reserved[s] = true
		}
	}
}

var (
	StudentProfile = Profile{
		Fields: []FieldSpec{
			{Field: FieldStudentNumber, Synonyms: synonyms[FieldStudentNumber], Required: true},
			{Field: FieldName, Synonyms: synonyms[FieldName], Required: true},
			{Field: FieldEmail, Synonyms: synonyms[FieldEmail]},
			{Field: FieldGender, Synonyms: synonyms[FieldGender]},
			{Field: FieldAttitude, Synonyms: synonyms[FieldAttitude]},
		},
	}
	GradeProfile = Profile{
		Fields: []FieldSpec{
			{Field: FieldStudentNumber, Synonyms: synonyms[FieldStudentNumber]},
			{Field: FieldName, Synonyms: synonyms[FieldName]},
			{Field: FieldAttitude, Synonyms: synonyms[FieldAttitude]},
		},
		AnyOf:       []Field{FieldStudentNumber, FieldName},
		Assessments: true,
	}
)

type AssessmentColumn struct {
	Name  string
	Index int
}

type Header struct {
	Row         int // index of the header row in the sheet
	Labels      []string
	Columns     map[Field]int
	Assessments []AssessmentColumn
}

// Column returns the column index for f, or -1.
func (h *Header) Column(f Field) int {
	if i, ok := h.Columns[f]; ok {
		return i
	}
	return -1
}

// Normalize lowercases s, strips diacritics and keeps [a-z0-9] only.
func Normalize(s string) string {
	var b strings.Builder
	for _, r := range norm.NFD.String(strings.ToLower(s)) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

var pollutionKeys = map[string]bool{
	"__proto__":   true,
	"constructor": true,
	"prototype":   true,
}

func sanitizeHeader(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || pollutionKeys[strings.ToLower(s)] {
		return "", false
	}
	return s, true
}

// ResolveHeader finds the header row (the first row with a non-blank cell)
// and maps it against p.
func ResolveHeader(rows [][]string, p Profile) (*Header, error) {
	hdr := -1
	for i, r := range rows {
		if !blank(r) {
			hdr = i
			break
		}
	}
	if hdr < 0 {
		return nil, ErrNoHeader
	}

	h := &Header{Row: hdr, Columns: make(map[Field]int)}
	keys := make([]string, len(rows[hdr]))
	h.Labels = make([]string, len(rows[hdr]))
	for i, cell := range rows[hdr] {
		if label, ok := sanitizeHeader(cell); ok {
			h.Labels[i] = label
			keys[i] = Normalize(label)
		}
	}

	for _, f := range p.Fields {
		if idx := findColumn(keys, f.Synonyms); idx >= 0 {
			h.Columns[f.Field] = idx
		} else if f.Required {
			return nil, fmt.Errorf("%w: missing %s column", ErrHeadersMismatch, f.Field)
		}
	}
	if len(p.AnyOf) > 0 {
		found := false
		for _, f := range p.AnyOf {
			if _, ok := h.Columns[f]; ok {
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: need one of %v", ErrHeadersMismatch, p.AnyOf)
		}
	}

	if p.Assessments {
		used := make(map[int]bool, len(h.Columns))
		for _, idx := range h.Columns {
			used[idx] = true
		}
		seen := make(map[string]bool)
		for i, label := range h.Labels {
			if label == "" || used[i] || keys[i] == "" || reserved[keys[i]] {
				continue
			}
			k := strings.ToLower(label)
			if seen[k] {
				continue
			}
			seen[k] = true
			h.Assessments = append(h.Assessments, AssessmentColumn{Name: label, Index: i})
		}
	}
	return h, nil
}

func findColumn(keys []string, accepted []string) int {
	for i, k := range keys {
		if k == "" {
			continue
		}
		for _, s := range accepted {
			if k == s {
				return i
			}
		}
	}
	return -1
}

func blank(r []string) bool {
	for _, c := range r {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
