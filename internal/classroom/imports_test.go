package classroom

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Pandoravox1/attendify-sub000/internal/models"
)

func TestImportStudents(t *testing.T) {
	svc, store, c := newTestService(t, "Quiz")
	ctx := context.Background()
	if _, err := svc.AddStudent(ctx, c.ID, StudentInput{Name: "Existing", StudentNumber: "001"}); err != nil {
		t.Fatal(err)
	}

	up := xlsxUpload(t, [][]string{
		{},
		{"NIS", "Nama Lengkap", "Email", "Jenis Kelamin"},
		{"001", "Dup of existing", "", "L"},
		{"002", "Citra", "citra@school.id", "P"},
		{"", "", "", ""},
		{"003", "", "", ""},
		{"004", "Dewi", "CITRA@school.id", ""},
		{"005", "Eko", "eko@", ""},
		{"006", "Fajar", "", "male"},
	})
	res, err := svc.ImportStudents(ctx, c.ID, up)
	if err != nil {
		t.Fatal(err)
	}
	s := res.Summary
	if s.Accepted != 2 || s.Duplicate != 2 || s.Incomplete != 2 || s.Blank != 1 {
		t.Fatalf("summary = %+v", s)
	}
	if res.Message != "2 imported; skipped 2 duplicate, 2 incomplete." {
		t.Fatalf("message = %q", res.Message)
	}

	list, _ := store.ListStudents(ctx, c.ID)
	if len(list) != 3 {
		t.Fatalf("want 3 students, got %d", len(list))
	}
	citra := list[1]
	if citra.Name != "Citra" || citra.Gender != models.Female {
		t.Fatalf("imported student = %+v", citra)
	}
	if _, ok := citra.Scores["Quiz"]; !ok {
		t.Fatal("imported student has no Quiz entry")
	}
}

func TestImportStudents_InvalidRowDoesNotReserveNumber(t *testing.T) {
	svc, store, c := newTestService(t, "Quiz")
	ctx := context.Background()

	res, err := svc.ImportStudents(ctx, c.ID, xlsxUpload(t, [][]string{
		{"NIS", "Nama", "Email"},
		{"001", "Ana", "not-an-email"},
		{"001", "Ana", "ana@school.id"},
	}))
	if err != nil {
		t.Fatal(err)
	}
	if s := res.Summary; s.Accepted != 1 || s.Incomplete != 1 || s.Duplicate != 0 {
		t.Fatalf("summary = %+v", s)
	}
	list, _ := store.ListStudents(ctx, c.ID)
	if len(list) != 1 || list[0].Email != "ana@school.id" {
		t.Fatalf("students = %+v", list)
	}
}

func TestImportStudents_RejectsWholeFile(t *testing.T) {
	svc, store, c := newTestService(t, "Quiz")
	ctx := context.Background()

	_, err := svc.ImportStudents(ctx, c.ID, xlsxUpload(t, [][]string{
		{"Email", "Gender"},
		{"a@school.id", "L"},
	}))
	if !errors.Is(err, ErrHeadersMismatch) {
		t.Fatalf("want ErrHeadersMismatch, got %v", err)
	}

	up := xlsxUpload(t, [][]string{{"NIS", "Name"}, {"1", "A"}})
	up.Name = "class.csv"
	if _, err := svc.ImportStudents(ctx, c.ID, up); !errors.Is(err, ErrFileType) {
		t.Fatalf("want ErrFileType, got %v", err)
	}
	if len(store.students) != 0 {
		t.Fatal("rejected file wrote students")
	}
}

func TestImportGrades(t *testing.T) {
	svc, store, c := newTestService(t, "Quiz", "Midterm")
	ctx := context.Background()
	ana, _ := svc.AddStudent(ctx, c.ID, StudentInput{Name: "Ana", StudentNumber: "001"})
	bima, _ := svc.AddStudent(ctx, c.ID, StudentInput{Name: "Bima Sakti", StudentNumber: "002"})
	cahya, _ := svc.AddStudent(ctx, c.ID, StudentInput{Name: "Cahya", StudentNumber: "003"})
	if _, err := svc.SetScore(ctx, ana.ID, "Midterm", 70); err != nil {
		t.Fatal(err)
	}

	res, err := svc.ImportGrades(ctx, c.ID, xlsxUpload(t, [][]string{
		{"Student ID", "Name", "quiz", "Final", "Attitude"},
		{"001", "", "90", "", "EE"},
		{"", "bima sakti", "150", "75", ""},
		{"999", "Nobody", "80", "80", ""},
	}))
	if err != nil {
		t.Fatal(err)
	}
	if res.Summary.Accepted != 2 || res.Summary.NotFound != 1 || res.Summary.Clamped != 1 {
		t.Fatalf("summary = %+v", res.Summary)
	}
	if len(res.Added) != 1 || res.Added[0] != "Final" {
		t.Fatalf("added = %v", res.Added)
	}

	cls, _ := store.GetClass(ctx, c.ID)
	if strings.Join(cls.AssessmentTypes, ",") != "Quiz,Midterm,Final" {
		t.Fatalf("class types = %v", cls.AssessmentTypes)
	}

	a, _ := store.GetStudent(ctx, ana.ID)
	if a.Scores["Quiz"] != 90 || a.Scores["Midterm"] != 70 || a.Attitude != models.AttitudeEE {
		t.Fatalf("ana = %+v", a)
	}
	if _, ok := a.Scores["Final"]; !ok {
		t.Fatal("ana has no Final entry")
	}
	b, _ := store.GetStudent(ctx, bima.ID)
	if b.Scores["Quiz"] != 100 || b.Scores["Final"] != 75 {
		t.Fatalf("bima = %+v", b.Scores)
	}
	ch, _ := store.GetStudent(ctx, cahya.ID)
	if _, ok := ch.Scores["Final"]; !ok {
		t.Fatal("unmatched student did not get the new column")
	}
}

func TestImportGrades_BatchFailureReportsWhole(t *testing.T) {
	svc, store, c := newTestService(t, "Quiz")
	ctx := context.Background()
	st, _ := svc.AddStudent(ctx, c.ID, StudentInput{Name: "Ana", StudentNumber: "001"})

	store.failBulk = true
	_, err := svc.ImportGrades(ctx, c.ID, xlsxUpload(t, [][]string{
		{"NIS", "Quiz", "UAS"},
		{"001", "88", "70"},
	}))
	if !errors.Is(err, ErrBatchFailed) {
		t.Fatalf("want ErrBatchFailed, got %v", err)
	}
	got, _ := store.GetStudent(ctx, st.ID)
	if got.Scores["Quiz"] != 0 {
		t.Fatal("failed batch changed a score")
	}
	if _, ok := got.Scores["UAS"]; ok {
		t.Fatal("failed batch seeded the new column")
	}
	cls, _ := store.GetClass(ctx, c.ID)
	if strings.Join(cls.AssessmentTypes, ",") != "Quiz" {
		t.Fatalf("failed batch kept new types: %v", cls.AssessmentTypes)
	}
}

func TestAssessmentTypes_FailedBatchKeepsScores(t *testing.T) {
	svc, store, c := newTestService(t, "Quiz", "UTS")
	ctx := context.Background()
	st, _ := svc.AddStudent(ctx, c.ID, StudentInput{Name: "A"})
	if _, err := svc.SetScore(ctx, st.ID, "UTS", 91); err != nil {
		t.Fatal(err)
	}

	store.failBulk = true
	if _, err := svc.RenameAssessmentType(ctx, c.ID, "UTS", "Midterm"); !errors.Is(err, ErrBatchFailed) {
		t.Fatalf("rename: want ErrBatchFailed, got %v", err)
	}
	if _, err := svc.RemoveAssessmentType(ctx, c.ID, "UTS"); !errors.Is(err, ErrBatchFailed) {
		t.Fatalf("remove: want ErrBatchFailed, got %v", err)
	}
	cls, _ := store.GetClass(ctx, c.ID)
	if strings.Join(cls.AssessmentTypes, ",") != "Quiz,UTS" {
		t.Fatalf("class types = %v", cls.AssessmentTypes)
	}
	got, _ := store.GetStudent(ctx, st.ID)
	if got.Scores["UTS"] != 91 {
		t.Fatalf("scores after failed rename = %v", got.Scores)
	}

	// the next edit must not treat UTS as stale
	store.failBulk = false
	if _, err := svc.AddAssessmentType(ctx, c.ID, "UAS"); err != nil {
		t.Fatal(err)
	}
	got, _ = store.GetStudent(ctx, st.ID)
	if got.Scores["UTS"] != 91 {
		t.Fatalf("scores after next edit = %v", got.Scores)
	}
}

func TestAssessmentTypes(t *testing.T) {
	svc, store, c := newTestService(t, "Quiz", "UTS")
	ctx := context.Background()
	st, _ := svc.AddStudent(ctx, c.ID, StudentInput{Name: "A"})
	_, _ = svc.SetScore(ctx, st.ID, "UTS", 0)
	_, _ = svc.SetZeroCounted(ctx, st.ID, "UTS", true, "absent")
	_, _ = svc.SetScore(ctx, st.ID, "Quiz", 60)

	if _, err := svc.AddAssessmentType(ctx, c.ID, "quiz"); !errors.Is(err, ErrDuplicateAssessment) {
		t.Fatalf("want ErrDuplicateAssessment, got %v", err)
	}
	if _, err := svc.AddAssessmentType(ctx, c.ID, "UAS"); err != nil {
		t.Fatal(err)
	}
	got, _ := store.GetStudent(ctx, st.ID)
	if _, ok := got.Scores["UAS"]; !ok {
		t.Fatal("new type not seeded on student")
	}

	if _, err := svc.RenameAssessmentType(ctx, c.ID, "uts", "Midterm"); err != nil {
		t.Fatal(err)
	}
	got, _ = store.GetStudent(ctx, st.ID)
	if _, ok := got.Scores["UTS"]; ok {
		t.Fatal("old key kept after rename")
	}
	if !got.ZeroCounted["Midterm"] || got.ZeroNotes["Midterm"] != "absent" {
		t.Fatalf("flags not moved: %+v %+v", got.ZeroCounted, got.ZeroNotes)
	}

	if _, err := svc.RemoveAssessmentType(ctx, c.ID, "Midterm"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.RemoveAssessmentType(ctx, c.ID, "UAS"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.RemoveAssessmentType(ctx, c.ID, "Quiz"); !errors.Is(err, ErrLastAssessmentType) {
		t.Fatalf("want ErrLastAssessmentType, got %v", err)
	}
	got, _ = store.GetStudent(ctx, st.ID)
	if len(got.Scores) != 1 || got.Scores["Quiz"] != 60 {
		t.Fatalf("scores = %v", got.Scores)
	}
	if _, err := svc.SetAssessmentTypes(ctx, c.ID, []string{"", " "}); !errors.Is(err, ErrLastAssessmentType) {
		t.Fatalf("want ErrLastAssessmentType, got %v", err)
	}
}
