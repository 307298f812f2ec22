package export

import (
	"github.com/xuri/excelize/v2"

	"github.com/Pandoravox1/attendify-sub000/internal/models"
)

const (
	TemplateStudents = "students"
	TemplateGrades   = "grades"
)

// instructions go on a second sheet; imports only read the first.
func instructions(lines ...string) SheetSpec {
	rows := make([][]string, len(lines))
	for i, l := range lines {
		rows[i] = []string{l}
	}
	return SheetSpec{Title: "Instructions", Header: []string{"How to fill in"}, Rows: rows}
}

// StudentTemplate is the blank workbook teachers fill in for a student
// import. Its headers are the canonical ones the importer looks for.
func StudentTemplate() (*excelize.File, error) {
	return NewWorkbook([]SheetSpec{{
		Title:  "Students",
		Header: []string{"Student Number", "Name", "Email", "Gender", "Attitude"},
	}, instructions(
		"Student Number and Name are required.",
		"Gender: Male/Female (L/P). Attitude: EE, ME or DME.",
		"Rows repeating a student number or email already in the class are skipped.",
	)})
}

// GradeTemplate lists every student of the class with their current
// scores, one column per assessment type, ready to be edited and imported
// back.
func GradeTemplate(c models.Class, students []models.Student) (*excelize.File, error) {
	header := append([]string{"Student Number", "Name"}, c.AssessmentTypes...)
	header = append(header, "Attitude")
	rows := make([][]string, 0, len(students))
	for _, st := range students {
		row := []string{st.StudentNumber, st.Name}
		for _, t := range c.AssessmentTypes {
			row = append(row, formatScore(st.Scores[t]))
		}
		rows = append(rows, append(row, string(st.Attitude)))
	}
	return NewWorkbook([]SheetSpec{{
		Title:  c.Name,
		Header: header,
		Rows:   rows,
	}, instructions(
		"Students are matched by Student Number, then by Name.",
		"Scores outside 0-100 are clamped. Empty or non-numeric cells keep the current score.",
		"A column with a new heading adds that assessment type to the class.",
	)})
}
