//go:build testutil
// +build testutil

package db_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Pandoravox1/attendify-sub000/internal/db"
	"github.com/Pandoravox1/attendify-sub000/internal/models"
	"github.com/Pandoravox1/attendify-sub000/internal/schedule"
	"github.com/Pandoravox1/attendify-sub000/internal/testutil/testdb"
)

func startStore(t *testing.T) *db.Store {
	t.Helper()
	h, err := testdb.Start(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(h.Close)
	return db.New(h.DB)
}

func mustClass(t *testing.T, s *db.Store, types ...string) models.Class {
	t.Helper()
	c, err := s.CreateClass(context.Background(), models.Class{
		Type: models.Subject, Name: "Biology", AssessmentTypes: types,
	})
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestStudents_RoundTripAndCascade(t *testing.T) {
	s := startStore(t)
	ctx := context.Background()
	c := mustClass(t, s, "UH1", "UTS")

	st := models.Student{
		ID: uuid.New(), ClassID: c.ID, Name: "Ayu", StudentNumber: "001",
		Scores:      map[string]float64{"UH1": 80, "UTS": 0},
		ZeroCounted: map[string]bool{"UTS": true},
		ZeroNotes:   map[string]string{"UTS": "did not submit"},
		Attitude:    models.AttitudeEE,
	}
	if err := s.InsertStudents(ctx, []models.Student{st}); err != nil {
		t.Fatal(err)
	}
	got, err := s.GetStudent(ctx, st.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Scores["UH1"] != 80 || !got.ZeroCounted["UTS"] || got.ZeroNotes["UTS"] != "did not submit" {
		t.Fatalf("round trip lost data: %+v", got)
	}
	cls, err := s.StudentClass(ctx, st.ID)
	if err != nil || cls != c.ID {
		t.Fatalf("StudentClass = %v, %v", cls, err)
	}

	if err := s.DeleteClass(ctx, c.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetStudent(ctx, st.ID); !errors.Is(err, db.ErrNotFound) {
		t.Fatalf("student survived class delete: %v", err)
	}
}

func TestDeleteStudents_AllOrNothing(t *testing.T) {
	s := startStore(t)
	ctx := context.Background()
	c := mustClass(t, s, "UH1")

	a := models.Student{ID: uuid.New(), ClassID: c.ID, Name: "A"}
	b := models.Student{ID: uuid.New(), ClassID: c.ID, Name: "B"}
	if err := s.InsertStudents(ctx, []models.Student{a, b}); err != nil {
		t.Fatal(err)
	}

	err := s.DeleteStudents(ctx, c.ID, []uuid.UUID{a.ID, uuid.New()})
	if !errors.Is(err, db.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	list, err := s.ListStudents(ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Fatalf("partial delete committed: %d students left", len(list))
	}
}

func TestUpdateClassAndStudents_RollsBackClass(t *testing.T) {
	s := startStore(t)
	ctx := context.Background()
	c := mustClass(t, s, "UTS")
	st := models.Student{ID: uuid.New(), ClassID: c.ID, Name: "A", Scores: map[string]float64{"UTS": 91}}
	if err := s.InsertStudents(ctx, []models.Student{st}); err != nil {
		t.Fatal(err)
	}

	renamed := c
	renamed.AssessmentTypes = []string{"Midterm"}
	moved := st
	moved.Scores = map[string]float64{"Midterm": 91}
	ghost := models.Student{ID: uuid.New(), ClassID: c.ID, Name: "Ghost"}
	err := s.UpdateClassAndStudents(ctx, renamed, []models.Student{moved, ghost})
	if !errors.Is(err, db.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}

	got, err := s.GetClass(ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.AssessmentTypes) != 1 || got.AssessmentTypes[0] != "UTS" {
		t.Fatalf("class types committed: %v", got.AssessmentTypes)
	}
	back, err := s.GetStudent(ctx, st.ID)
	if err != nil {
		t.Fatal(err)
	}
	if back.Scores["UTS"] != 91 {
		t.Fatalf("student rewritten: %v", back.Scores)
	}
}

func TestUpsertAttendance_OneRowPerDay(t *testing.T) {
	s := startStore(t)
	ctx := context.Background()
	c := mustClass(t, s, "UH1")
	st := models.Student{ID: uuid.New(), ClassID: c.ID, Name: "A"}
	if err := s.InsertStudents(ctx, []models.Student{st}); err != nil {
		t.Fatal(err)
	}

	day := models.Day(time.Date(2024, 3, 4, 15, 0, 0, 0, time.UTC))
	now := time.Now()
	if _, err := s.UpsertAttendance(ctx, models.AttendanceRecord{
		StudentID: st.ID, ClassID: c.ID, Date: day, Status: models.StatusPresent, AttendanceTime: &now,
	}); err != nil {
		t.Fatal(err)
	}
	note := "fever"
	rec, err := s.UpsertAttendance(ctx, models.AttendanceRecord{
		StudentID: st.ID, ClassID: c.ID, Date: day, Status: models.StatusSick, Comment: &note,
	})
	if err != nil {
		t.Fatal(err)
	}
	if rec.Status != models.StatusSick || rec.AttendanceTime != nil || rec.Comment == nil || *rec.Comment != "fever" {
		t.Fatalf("upsert did not replace: %+v", rec)
	}

	recs, err := s.AttendanceOn(ctx, c.ID, day)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 {
		t.Fatalf("want 1 record, got %d", len(recs))
	}
	if !recs[0].Date.Equal(day) {
		t.Fatalf("date = %v, want %v", recs[0].Date, day)
	}
}

func TestReauthenticate(t *testing.T) {
	s := startStore(t)
	ctx := context.Background()
	hash, err := db.HashPassword("s3cret")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.UpsertTeacher(ctx, models.TeacherProfile{Email: "Guru@School.id", PasswordHash: hash}); err != nil {
		t.Fatal(err)
	}
	if err := s.Reauthenticate(ctx, "guru@school.id", "s3cret"); err != nil {
		t.Fatalf("good password rejected: %v", err)
	}
	if err := s.Reauthenticate(ctx, "guru@school.id", "nope"); !errors.Is(err, db.ErrWrongPassword) {
		t.Fatalf("want ErrWrongPassword, got %v", err)
	}
	if err := s.Reauthenticate(ctx, "nobody@school.id", "s3cret"); !errors.Is(err, db.ErrWrongPassword) {
		t.Fatalf("unknown teacher: %v", err)
	}
}

func TestCreateSchedule_RejectsMissingDate(t *testing.T) {
	s := startStore(t)
	ctx := context.Background()
	c := mustClass(t, s, "UH1")
	_, err := s.CreateSchedule(ctx, models.ScheduleEntry{
		ClassID: c.ID, Day: time.Monday, StartTime: "07:00", EndTime: "08:00",
	})
	if err == nil {
		t.Fatal("non-repeating entry without date was stored")
	}
	if !errors.Is(err, schedule.ErrNoDate) {
		t.Fatalf("want ErrNoDate, got %v", err)
	}
}
