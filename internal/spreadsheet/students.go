package spreadsheet

import (
	"strings"

	"github.com/Pandoravox1/attendify-sub000/internal/grading"
	"github.com/Pandoravox1/attendify-sub000/internal/models"
)

type StudentCandidate struct {
	Line          int
	StudentNumber string
	Name          string
	Email         string
	Gender        models.Gender
	Attitude      models.Attitude
}

type StudentImport struct {
	Accepted []StudentCandidate
	Summary  Summary
}

// CandidateFromRow turns a row into a candidate, or reports why it cannot.
func CandidateFromRow(h *Header, r RawRow) (StudentCandidate, Outcome) {
	if r.Blank() {
		return StudentCandidate{}, SkippedBlank
	}
	c := StudentCandidate{
		Line:          r.Line,
		StudentNumber: r.Cell(h.Column(FieldStudentNumber)),
		Name:          r.Cell(h.Column(FieldName)),
		Email:         strings.ToLower(r.Cell(h.Column(FieldEmail))),
	}
	if c.StudentNumber == "" || c.Name == "" {
		return StudentCandidate{}, SkippedIncomplete
	}
	if g, ok := models.ParseGender(r.Cell(h.Column(FieldGender))); ok {
		c.Gender = g
	}
	if a, ok := grading.ParseAttitude(r.Cell(h.Column(FieldAttitude))); ok {
		c.Attitude = a
	}
	return c, Accepted
}

// ReconcileStudents validates rows against the class's current students.
// A row is a duplicate when its student number or email is already taken,
// either in the class or by a row accepted earlier in the same file. check,
// when set, runs before that and turns a failing row into an incomplete one
// without reserving its keys.
func ReconcileStudents(h *Header, rows []RawRow, existing []models.Student, check func(StudentCandidate) error) StudentImport {
	numbers := make(map[string]bool, len(existing))
	emails := make(map[string]bool, len(existing))
	for _, s := range existing {
		if n := strings.ToLower(strings.TrimSpace(s.StudentNumber)); n != "" {
			numbers[n] = true
		}
		if e := strings.ToLower(strings.TrimSpace(s.Email)); e != "" {
			emails[e] = true
		}
	}

	var out StudentImport
	for _, r := range rows {
		c, o := CandidateFromRow(h, r)
		if o == Accepted && check != nil && check(c) != nil {
			o = SkippedIncomplete
		}
		if o == Accepted {
			n := strings.ToLower(c.StudentNumber)
			if numbers[n] || (c.Email != "" && emails[c.Email]) {
				o = SkippedDuplicate
			} else {
				numbers[n] = true
				if c.Email != "" {
					emails[c.Email] = true
				}
				out.Accepted = append(out.Accepted, c)
			}
		}
		out.Summary.add(o)
	}
	return out
}
