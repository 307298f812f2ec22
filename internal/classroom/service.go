package classroom

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Pandoravox1/attendify-sub000/internal/grading"
	"github.com/Pandoravox1/attendify-sub000/internal/logging"
	"github.com/Pandoravox1/attendify-sub000/internal/metrics"
	"github.com/Pandoravox1/attendify-sub000/internal/models"
	"github.com/Pandoravox1/attendify-sub000/internal/observability"
	"github.com/Pandoravox1/attendify-sub000/internal/spreadsheet"
)

// Store is what the service needs from the persisted store.
type Store interface {
	CreateClass(ctx context.Context, c models.Class) (models.Class, error)
	GetClass(ctx context.Context, id uuid.UUID) (models.Class, error)
	DeleteClass(ctx context.Context, id uuid.UUID) error

	ListStudents(ctx context.Context, classID uuid.UUID) ([]models.Student, error)
	GetStudent(ctx context.Context, id uuid.UUID) (models.Student, error)
	InsertStudents(ctx context.Context, students []models.Student) error
	UpdateStudent(ctx context.Context, st models.Student) error
	UpdateStudents(ctx context.Context, students []models.Student) error
	// UpdateClassAndStudents saves c and students atomically.
	UpdateClassAndStudents(ctx context.Context, c models.Class, students []models.Student) error
	DeleteStudents(ctx context.Context, classID uuid.UUID, ids []uuid.UUID) error
}

// Reauthenticator confirms the teacher's password before destructive
// actions. Any error means the confirmation failed.
type Reauthenticator interface {
	Reauthenticate(ctx context.Context, email, password string) error
}

type Service struct {
	store    Store
	auth     Reauthenticator
	log      *zap.Logger
	validate *validator.Validate
	limits   spreadsheet.Limits
}

// New builds the service. A nil store leaves it read-only: every mutation
// returns ErrNotConfigured.
func New(store Store, auth Reauthenticator, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		store:    store,
		auth:     auth,
		log:      log,
		validate: validator.New(),
		limits:   spreadsheet.DefaultLimits,
	}
}

func (s *Service) Configured() bool { return s.store != nil }

// storeErr logs and reports a store failure and wraps it for the caller.
func (s *Service) storeErr(ctx context.Context, what string, err error) error {
	logging.For(ctx, s.log).Error(what, zap.Error(err))
	observability.CaptureCtx(ctx, err)
	return fmt.Errorf("%s: %w", what, err)
}

// batchErr is storeErr for all-or-nothing writes.
func (s *Service) batchErr(ctx context.Context, op string, n int, err error) error {
	metrics.BatchFailures.WithLabelValues(op).Inc()
	logging.For(ctx, s.log).Error("batch rolled back", zap.String("batch", op), zap.Int("rows", n), zap.Error(err))
	observability.CaptureCtx(ctx, err)
	return fmt.Errorf("%w: %s: %w", ErrBatchFailed, op, err)
}

// CleanTypes trims assessment type names, drops blanks and removes
// case-insensitive repeats keeping the first spelling.
func CleanTypes(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, t := range in {
		t = strings.TrimSpace(t)
		k := strings.ToLower(t)
		if t == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, t)
	}
	return out
}

func (s *Service) CreateClass(ctx context.Context, c models.Class) (models.Class, error) {
	if s.store == nil {
		return models.Class{}, ErrNotConfigured
	}
	c.Name = strings.TrimSpace(c.Name)
	c.Subtitle = strings.TrimSpace(c.Subtitle)
	c.AssessmentTypes = CleanTypes(c.AssessmentTypes)
	if err := s.validate.Struct(c); err != nil {
		return models.Class{}, fmt.Errorf("%w: %v", ErrInvalidClass, err)
	}
	out, err := s.store.CreateClass(ctx, c)
	if err != nil {
		return models.Class{}, s.storeErr(ctx, "create class", err)
	}
	logging.For(ctx, s.log).Info("class created", zap.String("class_id", out.ID.String()), zap.String("name", out.Name))
	return out, nil
}

// DeleteClass removes a class with its students, schedules and attendance.
func (s *Service) DeleteClass(ctx context.Context, classID uuid.UUID, email, password string) error {
	if err := s.reauth(ctx, email, password); err != nil {
		return err
	}
	if err := s.store.DeleteClass(ctx, classID); err != nil {
		return s.storeErr(ctx, "delete class", err)
	}
	logging.For(ctx, s.log).Info("class deleted", zap.String("class_id", classID.String()))
	return nil
}

func (s *Service) reauth(ctx context.Context, email, password string) error {
	if s.store == nil || s.auth == nil {
		return ErrNotConfigured
	}
	if err := s.auth.Reauthenticate(ctx, email, password); err != nil {
		logging.For(ctx, s.log).Warn("re-authentication failed", zap.Error(err))
		return fmt.Errorf("%w: %w", ErrReauthFailed, err)
	}
	return nil
}

type GradebookRow struct {
	Student models.Student
	Average grading.Result
}

type Gradebook struct {
	Class    models.Class
	Rows     []GradebookRow
	Attitude grading.AttitudeSummary
}

// Gradebook loads a class with every student's average and the class
// attitude.
func (s *Service) Gradebook(ctx context.Context, classID uuid.UUID) (Gradebook, error) {
	if s.store == nil {
		return Gradebook{}, ErrNotConfigured
	}
	c, err := s.store.GetClass(ctx, classID)
	if err != nil {
		return Gradebook{}, s.storeErr(ctx, "load class", err)
	}
	students, err := s.store.ListStudents(ctx, classID)
	if err != nil {
		return Gradebook{}, s.storeErr(ctx, "load students", err)
	}
	gb := Gradebook{Class: c, Rows: make([]GradebookRow, 0, len(students))}
	ratings := make([]models.Attitude, 0, len(students))
	for _, st := range students {
		st.EnsureScores(c.AssessmentTypes)
		gb.Rows = append(gb.Rows, GradebookRow{Student: st, Average: grading.StudentAverage(st, c)})
		ratings = append(ratings, st.Attitude)
	}
	gb.Attitude = grading.ClassAttitude(ratings)
	return gb, nil
}
