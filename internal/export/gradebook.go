package export

import (
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/Pandoravox1/attendify-sub000/internal/classroom"
)

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// GradebookWorkbook exports scores, averages and the class attitude. A
// student with no counted score gets "-" rather than 0.
func GradebookWorkbook(gb classroom.Gradebook) (*excelize.File, error) {
	header := append([]string{"Student Number", "Name"}, gb.Class.AssessmentTypes...)
	header = append(header, "Average", "Attitude")

	rows := make([][]string, 0, len(gb.Rows))
	for _, r := range gb.Rows {
		row := []string{r.Student.StudentNumber, r.Student.Name}
		for _, t := range gb.Class.AssessmentTypes {
			v := formatScore(r.Student.Scores[t])
			if r.Student.Scores[t] == 0 && r.Student.ZeroCounted[t] {
				v += "*"
			}
			row = append(row, v)
		}
		avg := "-"
		if r.Average.HasScores {
			avg = strconv.Itoa(r.Average.Average)
		}
		rows = append(rows, append(row, avg, string(r.Student.Attitude)))
	}

	notes := []string{"* zero counted toward the average"}
	if a := gb.Attitude; a.Rated > 0 {
		notes = append(notes, fmt.Sprintf("Class attitude: %s (%.2f, %d of %d rated)", a.Label, a.Mean, a.Rated, a.Total))
	} else {
		notes = append(notes, "Class attitude: no ratings yet")
	}
	return NewWorkbook([]SheetSpec{{Title: gb.Class.Name, Header: header, Rows: rows, Notes: notes}})
}
