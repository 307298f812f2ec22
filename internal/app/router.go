package app

import (
	"context"
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Pandoravox1/attendify-sub000/internal/classroom"
	"github.com/Pandoravox1/attendify-sub000/internal/config"
	"github.com/Pandoravox1/attendify-sub000/internal/ctxutil"
	"github.com/Pandoravox1/attendify-sub000/internal/ledger"
	"github.com/Pandoravox1/attendify-sub000/internal/metrics"
	"github.com/Pandoravox1/attendify-sub000/internal/models"
)

// ExportStore is the read side used by downloads and attendance checks.
type ExportStore interface {
	GetClass(ctx context.Context, id uuid.UUID) (models.Class, error)
	ListStudents(ctx context.Context, classID uuid.UUID) ([]models.Student, error)
	AttendanceOn(ctx context.Context, classID uuid.UUID, date time.Time) ([]models.AttendanceRecord, error)
	StudentClass(ctx context.Context, studentID uuid.UUID) (uuid.UUID, error)
}

// Deps wires the router. DB, Store, Classes, Ledgers and Schedules are nil
// when no database is configured; the matching routes then answer 503.
type Deps struct {
	Config    *config.Config
	DB        *sql.DB
	Service   *classroom.Service
	Store     ExportStore
	Classes   ClassStore
	Ledgers   *ledger.Registry
	Schedules ScheduleStore
	Log       *zap.Logger
	LogLevel  http.Handler // served at /loglevel when set
}

type api struct {
	Deps
	limiter  *ClassLimiter
	validate *validator.Validate
}

const TeacherHeader = "X-Teacher-Email"

func NewRouter(d Deps) http.Handler {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	a := &api{Deps: d, limiter: NewClassLimiter(), validate: validator.New()}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestID)

	r.Get("/healthz", a.health)
	r.Handle("/metrics", metrics.Handler())
	if d.LogLevel != nil {
		r.With(a.requireTeacher).Handle("/loglevel", d.LogLevel)
	}

	r.With(a.requireTeacher).Get("/classes", a.listClasses)
	r.With(a.requireTeacher).Post("/classes", a.createClass)

	r.Route("/classes/{classID}", func(r chi.Router) {
		r.Use(a.requireTeacher)
		r.Use(a.ownClass)

		r.Delete("/", a.deleteClass)
		r.Get("/gradebook", a.gradebookView)
		r.Get("/gradebook.xlsx", a.gradebook)
		r.Get("/templates/{kind}", a.template)
		r.Post("/students/import", a.importStudents)
		r.Post("/grades/import", a.importGrades)
		r.Delete("/students", a.deleteStudents)
		r.Post("/students", a.addStudent)
		r.Put("/students/{studentID}", a.editStudent)
		r.Put("/students/{studentID}/scores/{assessment}", a.setScore)
		r.Put("/students/{studentID}/zero/{assessment}", a.setZeroCounted)
		r.Put("/students/{studentID}/attitude", a.setAttitude)

		r.Put("/assessments", a.setAssessments)
		r.Post("/assessments", a.addAssessment)
		r.Patch("/assessments/{name}", a.renameAssessment)
		r.Delete("/assessments/{name}", a.removeAssessment)

		r.Get("/attendance", a.attendanceDay)
		r.Get("/attendance/summary", a.attendanceSummary)
		r.Get("/attendance.csv", a.attendanceCSV)
		r.Put("/attendance/{studentID}", a.setStatus)

		r.Get("/schedule", a.weekSchedule)
		r.Post("/schedule", a.createSchedule)
		r.Delete("/schedule/{entryID}", a.deleteSchedule)
	})
	return r
}

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(middleware.RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(middleware.RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(ctxutil.WithRequestID(r.Context(), id)))
	})
}

// requireTeacher admits requests whose teacher header is on the
// allow-list.
func (a *api) requireTeacher(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		email := strings.ToLower(strings.TrimSpace(r.Header.Get(TeacherHeader)))
		if email == "" || (a.Config != nil && !a.Config.IsAdmin(email)) {
			writeJSON(w, http.StatusForbidden, errorBody{Error: "Not allowed."})
			return
		}
		next.ServeHTTP(w, r.WithContext(ctxutil.WithTeacherEmail(r.Context(), email)))
	})
}

func (a *api) health(w http.ResponseWriter, r *http.Request) {
	if a.DB == nil {
		_, _ = w.Write([]byte("ok (read-only)"))
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 800*time.Millisecond)
	defer cancel()
	t0 := time.Now()
	if err := a.DB.PingContext(ctx); err != nil {
		http.Error(w, "db not ok: "+err.Error(), http.StatusServiceUnavailable)
		return
	}
	metrics.ObserveDBPing(time.Since(t0))
	_, _ = w.Write([]byte("ok"))
}
