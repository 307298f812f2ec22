package classroom

import (
	"bytes"
	"context"
	"errors"
	"maps"
	"testing"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/Pandoravox1/attendify-sub000/internal/db"
	"github.com/Pandoravox1/attendify-sub000/internal/models"
)

var errBoom = errors.New("boom")

type fakeStore struct {
	classes  map[uuid.UUID]models.Class
	students map[uuid.UUID]models.Student
	order    []uuid.UUID
	failBulk bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{classes: map[uuid.UUID]models.Class{}, students: map[uuid.UUID]models.Student{}}
}

func copyStudent(st models.Student) models.Student {
	st.Scores = maps.Clone(st.Scores)
	st.ZeroCounted = maps.Clone(st.ZeroCounted)
	st.ZeroNotes = maps.Clone(st.ZeroNotes)
	return st
}

func (f *fakeStore) CreateClass(_ context.Context, c models.Class) (models.Class, error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	f.classes[c.ID] = c
	return c, nil
}

func (f *fakeStore) GetClass(_ context.Context, id uuid.UUID) (models.Class, error) {
	c, ok := f.classes[id]
	if !ok {
		return models.Class{}, db.ErrNotFound
	}
	c.AssessmentTypes = append([]string(nil), c.AssessmentTypes...)
	return c, nil
}

// UpdateClassAndStudents leaves both the class and the students untouched
// when the student batch fails.
func (f *fakeStore) UpdateClassAndStudents(ctx context.Context, c models.Class, sts []models.Student) error {
	if _, ok := f.classes[c.ID]; !ok {
		return db.ErrNotFound
	}
	if err := f.UpdateStudents(ctx, sts); err != nil {
		return err
	}
	f.classes[c.ID] = c
	return nil
}

func (f *fakeStore) DeleteClass(_ context.Context, id uuid.UUID) error {
	if _, ok := f.classes[id]; !ok {
		return db.ErrNotFound
	}
	delete(f.classes, id)
	for sid, st := range f.students {
		if st.ClassID == id {
			delete(f.students, sid)
		}
	}
	return nil
}

func (f *fakeStore) ListStudents(_ context.Context, classID uuid.UUID) ([]models.Student, error) {
	var out []models.Student
	for _, id := range f.order {
		if st, ok := f.students[id]; ok && st.ClassID == classID {
			out = append(out, copyStudent(st))
		}
	}
	return out, nil
}

func (f *fakeStore) GetStudent(_ context.Context, id uuid.UUID) (models.Student, error) {
	st, ok := f.students[id]
	if !ok {
		return models.Student{}, db.ErrNotFound
	}
	return copyStudent(st), nil
}

func (f *fakeStore) InsertStudents(_ context.Context, sts []models.Student) error {
	if f.failBulk {
		return errBoom
	}
	for _, st := range sts {
		f.students[st.ID] = copyStudent(st)
		f.order = append(f.order, st.ID)
	}
	return nil
}

func (f *fakeStore) UpdateStudent(ctx context.Context, st models.Student) error {
	return f.UpdateStudents(ctx, []models.Student{st})
}

func (f *fakeStore) UpdateStudents(_ context.Context, sts []models.Student) error {
	if f.failBulk {
		return errBoom
	}
	for _, st := range sts {
		if _, ok := f.students[st.ID]; !ok {
			return db.ErrNotFound
		}
	}
	for _, st := range sts {
		f.students[st.ID] = copyStudent(st)
	}
	return nil
}

func (f *fakeStore) DeleteStudents(_ context.Context, classID uuid.UUID, ids []uuid.UUID) error {
	if f.failBulk {
		return errBoom
	}
	for _, id := range ids {
		if st, ok := f.students[id]; !ok || st.ClassID != classID {
			return db.ErrNotFound
		}
	}
	for _, id := range ids {
		delete(f.students, id)
	}
	return nil
}

type fakeAuth struct{ password string }

func (a fakeAuth) Reauthenticate(_ context.Context, _, password string) error {
	if password != a.password {
		return db.ErrWrongPassword
	}
	return nil
}

func newTestService(t *testing.T, types ...string) (*Service, *fakeStore, models.Class) {
	t.Helper()
	store := newFakeStore()
	svc := New(store, fakeAuth{password: "pw"}, nil)
	c, err := svc.CreateClass(context.Background(), models.Class{
		Type: models.Subject, Name: "Math", AssessmentTypes: types,
	})
	if err != nil {
		t.Fatal(err)
	}
	return svc, store, c
}

func xlsxUpload(t *testing.T, rows [][]string) Upload {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	for r, row := range rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				t.Fatal(err)
			}
			if err := f.SetCellStr("Sheet1", cell, v); err != nil {
				t.Fatal(err)
			}
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}
	return Upload{
		Name:        "class.xlsx",
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Size:        int64(buf.Len()),
		Body:        bytes.NewReader(buf.Bytes()),
	}
}
