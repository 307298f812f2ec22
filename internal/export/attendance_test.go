package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Pandoravox1/attendify-sub000/internal/models"
)

type memSource struct {
	students []models.Student
	recs     []models.AttendanceRecord
	fail     bool
}

func (m memSource) ListStudents(context.Context, uuid.UUID) ([]models.Student, error) {
	return append([]models.Student(nil), m.students...), nil
}

func (m memSource) AttendanceOn(_ context.Context, classID uuid.UUID, date time.Time) ([]models.AttendanceRecord, error) {
	if m.fail {
		return nil, errors.New("db down")
	}
	var out []models.AttendanceRecord
	for _, r := range m.recs {
		if r.ClassID == classID && r.Date.Equal(date) {
			out = append(out, r)
		}
	}
	return out, nil
}

func day(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func TestDates(t *testing.T) {
	wed := day(2024, 3, 6)
	cases := []struct {
		kind     RangeKind
		from, to time.Time
		n        int
		first    time.Time
		err      error
	}{
		{kind: Daily, n: 1, first: wed},
		{kind: Weekly, n: 6, first: day(2024, 3, 4)},
		// March 2024 has 31 days, 5 of them Sundays
		{kind: Monthly, n: 26, first: day(2024, 3, 1)},
		{kind: Custom, from: day(2024, 3, 9), to: day(2024, 3, 11), n: 2, first: day(2024, 3, 9)},
		{kind: Custom, from: day(2024, 3, 11), to: day(2024, 3, 9), err: ErrRangeOrder},
		{kind: Custom, from: day(2024, 1, 1), to: day(2024, 6, 1), err: ErrRangeTooLong},
		{kind: "yearly", err: ErrBadRange},
	}
	for _, tc := range cases {
		t.Run(string(tc.kind), func(t *testing.T) {
			got, err := Dates(tc.kind, wed, tc.from, tc.to)
			if tc.err != nil {
				if !errors.Is(err, tc.err) {
					t.Fatalf("want %v, got %v", tc.err, err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != tc.n || !got[0].Equal(tc.first) {
				t.Fatalf("got %d dates starting %v", len(got), got)
			}
			for _, d := range got[1:] {
				if d.Weekday() == time.Sunday {
					t.Fatalf("sunday in range: %v", d)
				}
			}
		})
	}
}

func TestWriteCSV_DailyOneRowPerStudent(t *testing.T) {
	classID := uuid.New()
	present := models.Student{ID: uuid.New(), ClassID: classID, Name: "Ani", StudentNumber: "01"}
	unset := models.Student{ID: uuid.New(), ClassID: classID, Name: "Budi, Jr.", StudentNumber: "02"}
	d := day(2024, 3, 4)
	at := time.Date(2024, 3, 4, 0, 15, 0, 0, time.UTC)
	src := memSource{
		students: []models.Student{unset, present},
		recs: []models.AttendanceRecord{
			{StudentID: present.ID, ClassID: classID, Date: d, Status: models.StatusPresent, AttendanceTime: &at},
		},
	}

	dates, _ := Dates(Daily, d, time.Time{}, time.Time{})
	sh, err := Load(context.Background(), src, classID, dates)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	jakarta := time.FixedZone("WIB", 7*3600)
	if err := WriteCSV(&buf, sh, jakarta); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	if !strings.HasPrefix(out, "\uFEFF") {
		t.Fatal("missing BOM")
	}
	recs, err := csv.NewReader(strings.NewReader(strings.TrimPrefix(out, "\uFEFF"))).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 3 {
		t.Fatalf("want header + 2 rows, got %d", len(recs))
	}
	if recs[1][3] != "Ani" || recs[1][4] != "Present" || recs[1][5] != "07:15" {
		t.Fatalf("present row = %v", recs[1])
	}
	if recs[2][3] != "Budi, Jr." || recs[2][4] != "Not set" {
		t.Fatalf("unset row = %v", recs[2])
	}
	if !strings.Contains(out, `"Budi, Jr."`) {
		t.Fatal("comma in name was not quoted")
	}
}

func TestLoad_PropagatesErrors(t *testing.T) {
	src := memSource{fail: true}
	_, err := Load(context.Background(), src, uuid.New(), []time.Time{day(2024, 3, 4), day(2024, 3, 5)})
	if err == nil || !strings.Contains(err.Error(), "db down") {
		t.Fatalf("err = %v", err)
	}
}

func TestFileName(t *testing.T) {
	got := FileName("csv", " Math  7A ", "attendance", "", "2024/03")
	if got != "Math 7A - attendance - 2024_03.csv" {
		t.Fatalf("got %q", got)
	}
}
