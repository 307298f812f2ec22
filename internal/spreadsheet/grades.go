package spreadsheet

import (
	"strings"

	"github.com/google/uuid"

	"github.com/Pandoravox1/attendify-sub000/internal/grading"
	"github.com/Pandoravox1/attendify-sub000/internal/models"
)

// GradeUpdate holds the full score map a matched student ends up with.
type GradeUpdate struct {
	Line      int
	StudentID uuid.UUID
	Scores    map[string]float64
	Attitude  models.Attitude // empty keeps the current rating
}

type GradeImport struct {
	Updates []GradeUpdate
	// Types is the class's assessment list extended with columns the
	// class did not have yet, in file order.
	Types   []string
	Added   []string
	Summary Summary
}

// ReconcileGrades matches rows to students by student number, then by
// case-insensitive name. Only cells holding a number overwrite a score.
func ReconcileGrades(h *Header, rows []RawRow, students []models.Student, types []string) GradeImport {
	byNumber := make(map[string]int, len(students))
	byName := make(map[string]int, len(students))
	for i, s := range students {
		if n := strings.ToLower(strings.TrimSpace(s.StudentNumber)); n != "" {
			if _, ok := byNumber[n]; !ok {
				byNumber[n] = i
			}
		}
		if n := strings.ToLower(strings.TrimSpace(s.Name)); n != "" {
			if _, ok := byName[n]; !ok {
				byName[n] = i
			}
		}
	}

	out := GradeImport{Types: append([]string(nil), types...)}
	canonical := make(map[string]string, len(types))
	for _, t := range types {
		canonical[strings.ToLower(t)] = t
	}
	cols := make([]AssessmentColumn, 0, len(h.Assessments))
	for _, a := range h.Assessments {
		name, ok := canonical[strings.ToLower(a.Name)]
		if !ok {
			name = a.Name
			canonical[strings.ToLower(name)] = name
			out.Types = append(out.Types, name)
			out.Added = append(out.Added, name)
		}
		cols = append(cols, AssessmentColumn{Name: name, Index: a.Index})
	}

	pending := make(map[uuid.UUID]int) // student id -> index in out.Updates
	numCol, nameCol, attCol := h.Column(FieldStudentNumber), h.Column(FieldName), h.Column(FieldAttitude)
	for _, r := range rows {
		if r.Blank() {
			out.Summary.add(SkippedBlank)
			continue
		}
		number, name := r.Cell(numCol), r.Cell(nameCol)
		if number == "" && name == "" {
			out.Summary.add(SkippedIncomplete)
			continue
		}
		idx, ok := -1, false
		if number != "" {
			idx, ok = byNumber[strings.ToLower(number)]
		}
		if !ok && name != "" {
			idx, ok = byName[strings.ToLower(name)]
		}
		if !ok {
			out.Summary.add(SkippedNotFound)
			continue
		}
		st := students[idx]

		var u *GradeUpdate
		if at, seen := pending[st.ID]; seen {
			u = &out.Updates[at]
		} else {
			scores := make(map[string]float64, len(out.Types))
			for _, t := range out.Types {
				scores[t] = st.Scores[t]
			}
			out.Updates = append(out.Updates, GradeUpdate{Line: r.Line, StudentID: st.ID, Scores: scores})
			pending[st.ID] = len(out.Updates) - 1
			u = &out.Updates[len(out.Updates)-1]
		}
		for _, c := range cols {
			sc := grading.ParseScore(r.Cell(c.Index))
			if !sc.OK {
				continue
			}
			if sc.Clamped {
				out.Summary.Clamped++
			}
			u.Scores[c.Name] = sc.Value
		}
		if a, ok := grading.ParseAttitude(r.Cell(attCol)); ok {
			u.Attitude = a
		}
		out.Summary.add(Accepted)
	}
	return out
}
