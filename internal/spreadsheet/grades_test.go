package spreadsheet

import (
	"reflect"
	"testing"

	"github.com/google/uuid"

	"github.com/Pandoravox1/attendify-sub000/internal/models"
)

func TestReconcileGrades(t *testing.T) {
	andi := models.Student{ID: uuid.New(), Name: "Andi Pratama", StudentNumber: "001",
		Scores: map[string]float64{"Quiz": 70, "UTS": 65}}
	budi := models.Student{ID: uuid.New(), Name: "Budi", StudentNumber: "002",
		Scores: map[string]float64{"Quiz": 50, "UTS": 55}}
	types := []string{"Quiz", "UTS"}

	sheet := [][]string{
		{"NIS", "Nama", "quiz", "UAS", "Sikap"},
		{"001", "whatever", "88", "", "EE"}, // by number; UAS blank
		{"", "budi", "120", "abc", ""},      // by name; clamped; text ignored
		{"999", "Nobody", "90", "90", ""},   // not found
		{"", "", "90", "", ""},              // no identity
		{"", "", "", "", ""},                // blank
	}
	h, err := ResolveHeader(sheet, GradeProfile)
	if err != nil {
		t.Fatal(err)
	}
	res := ReconcileGrades(h, h.DataRows(sheet), []models.Student{andi, budi}, types)

	if !reflect.DeepEqual(res.Types, []string{"Quiz", "UTS", "UAS"}) || !reflect.DeepEqual(res.Added, []string{"UAS"}) {
		t.Fatalf("types = %v added = %v", res.Types, res.Added)
	}
	if len(res.Updates) != 2 {
		t.Fatalf("updates = %+v", res.Updates)
	}
	a := res.Updates[0]
	if a.StudentID != andi.ID || a.Scores["Quiz"] != 88 || a.Scores["UTS"] != 65 || a.Scores["UAS"] != 0 || a.Attitude != models.AttitudeEE {
		t.Fatalf("andi = %+v", a)
	}
	b := res.Updates[1]
	if b.StudentID != budi.ID || b.Scores["Quiz"] != 100 || b.Scores["UTS"] != 55 || b.Attitude != "" {
		t.Fatalf("budi = %+v", b)
	}
	s := res.Summary
	if s.Accepted != 2 || s.NotFound != 1 || s.Incomplete != 1 || s.Blank != 1 || s.Clamped != 1 {
		t.Fatalf("summary = %+v", s)
	}
}

func TestReconcileGrades_SameStudentTwiceMerges(t *testing.T) {
	st := models.Student{ID: uuid.New(), Name: "Citra", StudentNumber: "7", Scores: map[string]float64{"Quiz": 1, "UTS": 2}}
	sheet := [][]string{
		{"NIS", "Quiz", "UTS"},
		{"7", "40", ""},
		{"7", "", "60"},
	}
	h, err := ResolveHeader(sheet, GradeProfile)
	if err != nil {
		t.Fatal(err)
	}
	res := ReconcileGrades(h, h.DataRows(sheet), []models.Student{st}, []string{"Quiz", "UTS"})
	if len(res.Updates) != 1 || res.Updates[0].Scores["Quiz"] != 40 || res.Updates[0].Scores["UTS"] != 60 {
		t.Fatalf("updates = %+v", res.Updates)
	}
}
