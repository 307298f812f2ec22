package app

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Pandoravox1/attendify-sub000/internal/classroom"
	"github.com/Pandoravox1/attendify-sub000/internal/ctxutil"
	"github.com/Pandoravox1/attendify-sub000/internal/db"
	"github.com/Pandoravox1/attendify-sub000/internal/logging"
	"github.com/Pandoravox1/attendify-sub000/internal/models"
)

// ClassStore resolves the calling teacher and their classes.
type ClassStore interface {
	TeacherByEmail(ctx context.Context, email string) (models.TeacherProfile, error)
	ListClasses(ctx context.Context, teacherID uuid.UUID) ([]models.Class, error)
	GetClass(ctx context.Context, id uuid.UUID) (models.Class, error)
}

type classJSON struct {
	ID              uuid.UUID        `json:"id"`
	Type            models.ClassType `json:"type"`
	Name            string           `json:"name"`
	Subtitle        string           `json:"subtitle"`
	AssessmentTypes []string         `json:"assessmentTypes"`
}

func toClass(c models.Class) classJSON {
	return classJSON{ID: c.ID, Type: c.Type, Name: c.Name, Subtitle: c.Subtitle, AssessmentTypes: c.AssessmentTypes}
}

type studentJSON struct {
	ID            uuid.UUID          `json:"id"`
	Name          string             `json:"name"`
	Email         string             `json:"email,omitempty"`
	Gender        models.Gender      `json:"gender,omitempty"`
	StudentNumber string             `json:"studentNumber"`
	Scores        map[string]float64 `json:"scores"`
	ZeroCounted   map[string]bool    `json:"zeroCounted,omitempty"`
	ZeroNotes     map[string]string  `json:"zeroNotes,omitempty"`
	Attitude      models.Attitude    `json:"attitude,omitempty"`
	Average       *int               `json:"average,omitempty"`
}

func toStudent(st models.Student) studentJSON {
	return studentJSON{
		ID: st.ID, Name: st.Name, Email: st.Email, Gender: st.Gender, StudentNumber: st.StudentNumber,
		Scores: st.Scores, ZeroCounted: st.ZeroCounted, ZeroNotes: st.ZeroNotes, Attitude: st.Attitude,
	}
}

// decode reads a small JSON body into v. Numbers stay json.Number.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		badRequest(w, "Bad request body.")
		return false
	}
	return true
}

// teacherID looks up the caller's profile. Teachers without one get
// uuid.Nil.
func (a *api) teacherID(ctx context.Context) (uuid.UUID, error) {
	email, _ := ctxutil.TeacherEmail(ctx)
	t, err := a.Classes.TeacherByEmail(ctx, email)
	if errors.Is(err, db.ErrNotFound) {
		return uuid.Nil, nil
	}
	return t.ID, err
}

// ownClass answers 404 for a class that belongs to another teacher. Without
// a class store there is nothing to check against.
func (a *api) ownClass(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.Classes == nil {
			next.ServeHTTP(w, r)
			return
		}
		id, ok := classID(r)
		if !ok {
			badRequest(w, "Bad class id.")
			return
		}
		c, err := a.Classes.GetClass(r.Context(), id)
		if err != nil {
			a.writeErr(w, r, err)
			return
		}
		tid, err := a.teacherID(r.Context())
		if err != nil {
			a.writeErr(w, r, err)
			return
		}
		if c.TeacherID != tid {
			logging.For(r.Context(), a.Log).Warn("class of another teacher",
				zap.String("class_id", id.String()), zap.String("caller", tid.String()))
			writeJSON(w, http.StatusNotFound, errorBody{Error: "Class not found."})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *api) listClasses(w http.ResponseWriter, r *http.Request) {
	if a.Classes == nil {
		a.writeErr(w, r, classroom.ErrNotConfigured)
		return
	}
	tid, err := a.teacherID(r.Context())
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	out := []classJSON{}
	if tid != uuid.Nil {
		cs, err := a.Classes.ListClasses(r.Context(), tid)
		if err != nil {
			a.writeErr(w, r, err)
			return
		}
		for _, c := range cs {
			out = append(out, toClass(c))
		}
	}
	writeJSON(w, http.StatusOK, out)
}

type classRequest struct {
	Type            models.ClassType `json:"type"`
	Name            string           `json:"name"`
	Subtitle        string           `json:"subtitle"`
	AssessmentTypes []string         `json:"assessmentTypes"`
}

func (a *api) createClass(w http.ResponseWriter, r *http.Request) {
	var req classRequest
	if !decode(w, r, &req) {
		return
	}
	c := models.Class{Type: req.Type, Name: req.Name, Subtitle: req.Subtitle, AssessmentTypes: req.AssessmentTypes}
	if a.Classes != nil {
		tid, err := a.teacherID(r.Context())
		if err != nil {
			a.writeErr(w, r, err)
			return
		}
		c.TeacherID = tid
	}
	saved, err := a.Service.CreateClass(r.Context(), c)
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toClass(saved))
}

type passwordRequest struct {
	Password string `json:"password"`
}

func (a *api) deleteClass(w http.ResponseWriter, r *http.Request) {
	withClass(func(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
		var req passwordRequest
		if !decode(w, r, &req) {
			return
		}
		email, _ := ctxutil.TeacherEmail(r.Context())
		if err := a.Service.DeleteClass(r.Context(), id, email, req.Password); err != nil {
			a.writeErr(w, r, err)
			return
		}
		if a.Ledgers != nil {
			a.Ledgers.Forget(id)
		}
		w.WriteHeader(http.StatusNoContent)
	})(w, r)
}

type gradebookJSON struct {
	Class    classJSON     `json:"class"`
	Students []studentJSON `json:"students"`
	Attitude *attitudeJSON `json:"attitude,omitempty"`
}

type attitudeJSON struct {
	Label models.Attitude `json:"label"`
	Mean  float64         `json:"mean"`
	Rated int             `json:"rated"`
	Total int             `json:"total"`
}

func (a *api) gradebookView(w http.ResponseWriter, r *http.Request) {
	withClass(func(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
		gb, err := a.Service.Gradebook(r.Context(), id)
		if err != nil {
			a.writeErr(w, r, err)
			return
		}
		out := gradebookJSON{Class: toClass(gb.Class), Students: make([]studentJSON, 0, len(gb.Rows))}
		for _, row := range gb.Rows {
			sj := toStudent(row.Student)
			if row.Average.HasScores {
				avg := row.Average.Average
				sj.Average = &avg
			}
			out.Students = append(out.Students, sj)
		}
		if gb.Attitude.Rated > 0 {
			out.Attitude = &attitudeJSON{
				Label: gb.Attitude.Label, Mean: gb.Attitude.Mean,
				Rated: gb.Attitude.Rated, Total: gb.Attitude.Total,
			}
		}
		writeJSON(w, http.StatusOK, out)
	})(w, r)
}

type studentRequest struct {
	Name          string          `json:"name"`
	Email         string          `json:"email"`
	Gender        models.Gender   `json:"gender"`
	StudentNumber string          `json:"studentNumber"`
	Attitude      models.Attitude `json:"attitude"`
}

func (req studentRequest) input() classroom.StudentInput {
	return classroom.StudentInput{
		Name: req.Name, Email: req.Email, Gender: req.Gender,
		StudentNumber: req.StudentNumber, Attitude: req.Attitude,
	}
}

func (a *api) addStudent(w http.ResponseWriter, r *http.Request) {
	withClass(func(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
		var req studentRequest
		if !decode(w, r, &req) {
			return
		}
		st, err := a.Service.AddStudent(r.Context(), id, req.input())
		if err != nil {
			a.writeErr(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, toStudent(st))
	})(w, r)
}

// withStudent resolves the student id from the path and checks that the
// student belongs to the class in the path.
func (a *api) withStudent(fn func(w http.ResponseWriter, r *http.Request, classID, studentID uuid.UUID)) http.HandlerFunc {
	return withClass(func(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
		if a.Store == nil {
			a.writeErr(w, r, classroom.ErrNotConfigured)
			return
		}
		studentID, err := uuid.Parse(chi.URLParam(r, "studentID"))
		if err != nil {
			badRequest(w, "Bad student id.")
			return
		}
		owner, err := a.Store.StudentClass(r.Context(), studentID)
		if err != nil {
			a.writeErr(w, r, err)
			return
		}
		if owner != id {
			writeJSON(w, http.StatusNotFound, errorBody{Error: "Student is not in this class."})
			return
		}
		fn(w, r, id, studentID)
	})
}

func (a *api) editStudent(w http.ResponseWriter, r *http.Request) {
	a.withStudent(func(w http.ResponseWriter, r *http.Request, _, studentID uuid.UUID) {
		var req studentRequest
		if !decode(w, r, &req) {
			return
		}
		a.sendStudent(w, r)(a.Service.EditStudent(r.Context(), studentID, req.input()))
	})(w, r)
}

type scoreRequest struct {
	Value any `json:"value"`
}

func (a *api) setScore(w http.ResponseWriter, r *http.Request) {
	a.withStudent(func(w http.ResponseWriter, r *http.Request, _, studentID uuid.UUID) {
		var req scoreRequest
		if !decode(w, r, &req) {
			return
		}
		a.sendStudent(w, r)(a.Service.SetScore(r.Context(), studentID, pathParam(r, "assessment"), req.Value))
	})(w, r)
}

type zeroRequest struct {
	Counted bool   `json:"counted"`
	Note    string `json:"note"`
}

func (a *api) setZeroCounted(w http.ResponseWriter, r *http.Request) {
	a.withStudent(func(w http.ResponseWriter, r *http.Request, _, studentID uuid.UUID) {
		var req zeroRequest
		if !decode(w, r, &req) {
			return
		}
		a.sendStudent(w, r)(a.Service.SetZeroCounted(r.Context(), studentID, pathParam(r, "assessment"), req.Counted, req.Note))
	})(w, r)
}

type attitudeRequest struct {
	Attitude models.Attitude `json:"attitude"`
}

func (a *api) setAttitude(w http.ResponseWriter, r *http.Request) {
	a.withStudent(func(w http.ResponseWriter, r *http.Request, _, studentID uuid.UUID) {
		var req attitudeRequest
		if !decode(w, r, &req) {
			return
		}
		a.sendStudent(w, r)(a.Service.SetAttitude(r.Context(), studentID, req.Attitude))
	})(w, r)
}

func (a *api) sendStudent(w http.ResponseWriter, r *http.Request) func(models.Student, error) {
	return func(st models.Student, err error) {
		if err != nil {
			a.writeErr(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toStudent(st))
	}
}

// pathParam returns the unescaped value of a path parameter.
func pathParam(r *http.Request, name string) string {
	v := chi.URLParam(r, name)
	if u, err := url.PathUnescape(v); err == nil {
		return u
	}
	return v
}

type assessmentsRequest struct {
	Types []string `json:"types"`
	Name  string   `json:"name"`
}

func (a *api) sendClass(w http.ResponseWriter, r *http.Request, status int) func(models.Class, error) {
	return func(c models.Class, err error) {
		if err != nil {
			a.writeErr(w, r, err)
			return
		}
		writeJSON(w, status, toClass(c))
	}
}

func (a *api) setAssessments(w http.ResponseWriter, r *http.Request) {
	withClass(func(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
		var req assessmentsRequest
		if !decode(w, r, &req) {
			return
		}
		a.sendClass(w, r, http.StatusOK)(a.Service.SetAssessmentTypes(r.Context(), id, req.Types))
	})(w, r)
}

func (a *api) addAssessment(w http.ResponseWriter, r *http.Request) {
	withClass(func(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
		var req assessmentsRequest
		if !decode(w, r, &req) {
			return
		}
		a.sendClass(w, r, http.StatusCreated)(a.Service.AddAssessmentType(r.Context(), id, req.Name))
	})(w, r)
}

func (a *api) renameAssessment(w http.ResponseWriter, r *http.Request) {
	withClass(func(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
		var req assessmentsRequest
		if !decode(w, r, &req) {
			return
		}
		a.sendClass(w, r, http.StatusOK)(a.Service.RenameAssessmentType(r.Context(), id, pathParam(r, "name"), req.Name))
	})(w, r)
}

func (a *api) removeAssessment(w http.ResponseWriter, r *http.Request) {
	withClass(func(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
		a.sendClass(w, r, http.StatusOK)(a.Service.RemoveAssessmentType(r.Context(), id, pathParam(r, "name")))
	})(w, r)
}
