package classroom

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Pandoravox1/attendify-sub000/internal/grading"
	"github.com/Pandoravox1/attendify-sub000/internal/logging"
	"github.com/Pandoravox1/attendify-sub000/internal/models"
)

// StudentInput is what the add and edit forms submit.
type StudentInput struct {
	Name          string
	Email         string
	Gender        models.Gender
	StudentNumber string
	Attitude      models.Attitude
}

func (in StudentInput) apply(st *models.Student) {
	st.Name = strings.TrimSpace(in.Name)
	st.Email = strings.ToLower(strings.TrimSpace(in.Email))
	st.Gender = in.Gender
	st.StudentNumber = strings.TrimSpace(in.StudentNumber)
	st.Attitude = in.Attitude
}

// clash reports whether st shares a student number or email with any
// other student in others.
func clash(st models.Student, others []models.Student) bool {
	for _, o := range others {
		if o.ID == st.ID {
			continue
		}
		if st.StudentNumber != "" && strings.EqualFold(o.StudentNumber, st.StudentNumber) {
			return true
		}
		if st.Email != "" && strings.EqualFold(o.Email, st.Email) {
			return true
		}
	}
	return false
}

func (s *Service) AddStudent(ctx context.Context, classID uuid.UUID, in StudentInput) (models.Student, error) {
	if s.store == nil {
		return models.Student{}, ErrNotConfigured
	}
	st := models.Student{ID: uuid.New(), ClassID: classID}
	in.apply(&st)
	if err := s.validate.Struct(st); err != nil {
		return models.Student{}, fmt.Errorf("%w: %v", ErrInvalidStudent, err)
	}

	c, err := s.store.GetClass(ctx, classID)
	if err != nil {
		return models.Student{}, s.storeErr(ctx, "load class", err)
	}
	existing, err := s.store.ListStudents(ctx, classID)
	if err != nil {
		return models.Student{}, s.storeErr(ctx, "load students", err)
	}
	if clash(st, existing) {
		return models.Student{}, ErrDuplicateStudent
	}
	st.EnsureScores(c.AssessmentTypes)

	if err := s.store.InsertStudents(ctx, []models.Student{st}); err != nil {
		return models.Student{}, s.storeErr(ctx, "add student", err)
	}
	return st, nil
}

// EditStudent replaces the identity fields of a student. Scores are left
// alone.
func (s *Service) EditStudent(ctx context.Context, studentID uuid.UUID, in StudentInput) (models.Student, error) {
	if s.store == nil {
		return models.Student{}, ErrNotConfigured
	}
	st, err := s.store.GetStudent(ctx, studentID)
	if err != nil {
		return models.Student{}, s.storeErr(ctx, "load student", err)
	}
	in.apply(&st)
	if err := s.validate.Struct(st); err != nil {
		return models.Student{}, fmt.Errorf("%w: %v", ErrInvalidStudent, err)
	}
	others, err := s.store.ListStudents(ctx, st.ClassID)
	if err != nil {
		return models.Student{}, s.storeErr(ctx, "load students", err)
	}
	if clash(st, others) {
		return models.Student{}, ErrDuplicateStudent
	}
	if err := s.store.UpdateStudent(ctx, st); err != nil {
		return models.Student{}, s.storeErr(ctx, "edit student", err)
	}
	return st, nil
}

// DeleteStudents removes ids from the class after the teacher confirms
// their password. Either every student is removed or none is.
func (s *Service) DeleteStudents(ctx context.Context, classID uuid.UUID, ids []uuid.UUID, email, password string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := s.reauth(ctx, email, password); err != nil {
		return err
	}
	if err := s.store.DeleteStudents(ctx, classID, ids); err != nil {
		return s.batchErr(ctx, "delete_students", len(ids), err)
	}
	logging.For(ctx, s.log).Info("students deleted",
		zap.String("class_id", classID.String()), zap.Int("count", len(ids)))
	return nil
}

// SetScore records one score, clamped to the valid range. A value that is
// not a number is rejected rather than stored as 0.
func (s *Service) SetScore(ctx context.Context, studentID uuid.UUID, assessment string, value any) (models.Student, error) {
	sc := grading.ParseScore(value)
	if !sc.OK {
		return models.Student{}, fmt.Errorf("%w: score %v is not a number", ErrInvalidStudent, value)
	}
	return s.mutateStudent(ctx, studentID, assessment, func(st *models.Student, typ string) {
		st.Scores[typ] = sc.Value
	})
}

// SetZeroCounted flips whether a zero score for assessment counts toward
// the average. Turning it on stores note as the reason; turning it off
// drops the reason.
func (s *Service) SetZeroCounted(ctx context.Context, studentID uuid.UUID, assessment string, counted bool, note string) (models.Student, error) {
	return s.mutateStudent(ctx, studentID, assessment, func(st *models.Student, typ string) {
		if st.ZeroCounted == nil {
			st.ZeroCounted = map[string]bool{}
		}
		if st.ZeroNotes == nil {
			st.ZeroNotes = map[string]string{}
		}
		if !counted {
			delete(st.ZeroCounted, typ)
			delete(st.ZeroNotes, typ)
			return
		}
		st.ZeroCounted[typ] = true
		if n := strings.TrimSpace(note); n != "" {
			st.ZeroNotes[typ] = n
		}
	})
}

func (s *Service) SetAttitude(ctx context.Context, studentID uuid.UUID, a models.Attitude) (models.Student, error) {
	if a != "" && !a.Valid() {
		return models.Student{}, fmt.Errorf("%w: attitude %q", ErrInvalidStudent, a)
	}
	if s.store == nil {
		return models.Student{}, ErrNotConfigured
	}
	st, err := s.store.GetStudent(ctx, studentID)
	if err != nil {
		return models.Student{}, s.storeErr(ctx, "load student", err)
	}
	st.Attitude = a
	if err := s.store.UpdateStudent(ctx, st); err != nil {
		return models.Student{}, s.storeErr(ctx, "set attitude", err)
	}
	return st, nil
}

// mutateStudent loads a student, resolves assessment against the class's
// types and saves whatever fn changed.
func (s *Service) mutateStudent(ctx context.Context, studentID uuid.UUID, assessment string, fn func(st *models.Student, typ string)) (models.Student, error) {
	if s.store == nil {
		return models.Student{}, ErrNotConfigured
	}
	st, err := s.store.GetStudent(ctx, studentID)
	if err != nil {
		return models.Student{}, s.storeErr(ctx, "load student", err)
	}
	c, err := s.store.GetClass(ctx, st.ClassID)
	if err != nil {
		return models.Student{}, s.storeErr(ctx, "load class", err)
	}
	typ, ok := findType(c.AssessmentTypes, assessment)
	if !ok {
		return models.Student{}, fmt.Errorf("%w: %q", ErrUnknownAssessment, assessment)
	}
	st.EnsureScores(c.AssessmentTypes)
	fn(&st, typ)
	if err := s.store.UpdateStudent(ctx, st); err != nil {
		return models.Student{}, s.storeErr(ctx, "update student", err)
	}
	return st, nil
}

func findType(types []string, name string) (string, bool) {
	name = strings.TrimSpace(name)
	for _, t := range types {
		if strings.EqualFold(t, name) {
			return t, true
		}
	}
	return "", false
}
