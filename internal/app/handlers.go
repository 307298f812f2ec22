package app

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/Pandoravox1/attendify-sub000/internal/classroom"
	"github.com/Pandoravox1/attendify-sub000/internal/ctxutil"
	"github.com/Pandoravox1/attendify-sub000/internal/export"
	"github.com/Pandoravox1/attendify-sub000/internal/ledger"
	"github.com/Pandoravox1/attendify-sub000/internal/metrics"
	"github.com/Pandoravox1/attendify-sub000/internal/models"
	"github.com/Pandoravox1/attendify-sub000/internal/spreadsheet"
)

const xlsxType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func classID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "classID"))
	return id, err == nil
}

// withClass resolves the class id from the path or answers 400.
func withClass(fn func(w http.ResponseWriter, r *http.Request, id uuid.UUID)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := classID(r)
		if !ok {
			badRequest(w, "Bad class id.")
			return
		}
		fn(w, r.WithContext(ctxutil.WithOp(r.Context(), r.Method+" "+chi.RouteContext(r.Context()).RoutePattern())), id)
	}
}

// upload reads the "file" part of a multipart request. The body limit sits
// a little above the spreadsheet limit so the size error comes from the
// spreadsheet checks with its own message.
func upload(w http.ResponseWriter, r *http.Request) (classroom.Upload, func(), error) {
	r.Body = http.MaxBytesReader(w, r.Body, spreadsheet.DefaultLimits.MaxBytes+1<<20)
	file, hdr, err := r.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return classroom.Upload{}, nil, spreadsheet.ErrFileTooLarge
		}
		return classroom.Upload{}, nil, fmt.Errorf("%w: %v", spreadsheet.ErrUnreadable, err)
	}
	return classroom.Upload{
		Name:        hdr.Filename,
		ContentType: hdr.Header.Get("Content-Type"),
		Size:        hdr.Size,
		Body:        file,
	}, func() { _ = file.Close() }, nil
}

type importResponse struct {
	Message    string   `json:"message"`
	Accepted   int      `json:"accepted"`
	Blank      int      `json:"blank"`
	Incomplete int      `json:"incomplete"`
	Duplicate  int      `json:"duplicate"`
	NotFound   int      `json:"notFound"`
	Clamped    int      `json:"clamped"`
	Added      []string `json:"addedTypes,omitempty"`
}

func toImportResponse(res classroom.ImportResult) importResponse {
	s := res.Summary
	return importResponse{
		Message: res.Message, Accepted: s.Accepted, Blank: s.Blank, Incomplete: s.Incomplete,
		Duplicate: s.Duplicate, NotFound: s.NotFound, Clamped: s.Clamped, Added: res.Added,
	}
}

func (a *api) runImport(kind string) http.HandlerFunc {
	return withClass(func(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
		up, closeFile, err := upload(w, r)
		if err != nil {
			a.writeErr(w, r, err)
			return
		}
		defer closeFile()

		unlock := a.limiter.lock(id)
		defer unlock()
		var res classroom.ImportResult
		if kind == classroom.KindStudents {
			res, err = a.Service.ImportStudents(r.Context(), id, up)
		} else {
			res, err = a.Service.ImportGrades(r.Context(), id, up)
		}
		if err != nil {
			a.writeErr(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toImportResponse(res))
	})
}

func (a *api) importStudents(w http.ResponseWriter, r *http.Request) {
	a.runImport(classroom.KindStudents)(w, r)
}

func (a *api) importGrades(w http.ResponseWriter, r *http.Request) {
	a.runImport(classroom.KindGrades)(w, r)
}

type deleteRequest struct {
	IDs      []uuid.UUID `json:"ids"`
	Password string      `json:"password"`
}

func (a *api) deleteStudents(w http.ResponseWriter, r *http.Request) {
	withClass(func(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
		var req deleteRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
			badRequest(w, "Bad request body.")
			return
		}
		email, _ := ctxutil.TeacherEmail(r.Context())
		if err := a.Service.DeleteStudents(r.Context(), id, req.IDs, email, req.Password); err != nil {
			a.writeErr(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})(w, r)
}

func (a *api) sendWorkbook(w http.ResponseWriter, r *http.Request, f *excelize.File, name string) {
	b, err := export.WorkbookBytes(f)
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	metrics.Exports.WithLabelValues("xlsx").Inc()
	w.Header().Set("Content-Type", xlsxType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	_, _ = w.Write(b)
}

func (a *api) template(w http.ResponseWriter, r *http.Request) {
	withClass(func(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
		kind := chi.URLParam(r, "kind")
		switch kind {
		case export.TemplateStudents:
			f, err := export.StudentTemplate()
			if err != nil {
				a.writeErr(w, r, err)
				return
			}
			a.sendWorkbook(w, r, f, export.FileName("xlsx", "student import template"))
		case export.TemplateGrades:
			if a.Store == nil {
				a.writeErr(w, r, classroom.ErrNotConfigured)
				return
			}
			c, err := a.Store.GetClass(r.Context(), id)
			if err != nil {
				a.writeErr(w, r, err)
				return
			}
			students, err := a.Store.ListStudents(r.Context(), id)
			if err != nil {
				a.writeErr(w, r, err)
				return
			}
			f, err := export.GradeTemplate(c, students)
			if err != nil {
				a.writeErr(w, r, err)
				return
			}
			a.sendWorkbook(w, r, f, export.FileName("xlsx", c.Name, "grades"))
		default:
			writeJSON(w, http.StatusNotFound, errorBody{Error: "Unknown template."})
		}
	})(w, r)
}

func (a *api) gradebook(w http.ResponseWriter, r *http.Request) {
	withClass(func(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
		gb, err := a.Service.Gradebook(r.Context(), id)
		if err != nil {
			a.writeErr(w, r, err)
			return
		}
		f, err := export.GradebookWorkbook(gb)
		if err != nil {
			a.writeErr(w, r, err)
			return
		}
		a.sendWorkbook(w, r, f, export.FileName("xlsx", gb.Class.Name, "gradebook"))
	})(w, r)
}

func (a *api) location() *time.Location {
	if a.Config != nil && a.Config.Location != nil {
		return a.Config.Location
	}
	return time.UTC
}

// dateParam parses ?name=YYYY-MM-DD, defaulting to today.
func (a *api) dateParam(r *http.Request, name string) (time.Time, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return models.Day(time.Now().In(a.location())), nil
	}
	return models.ParseDay(v)
}

// rangeDates reads range, date, from and to from the query.
func (a *api) rangeDates(r *http.Request) ([]time.Time, string, error) {
	q := r.URL.Query()
	kind := export.RangeKind(q.Get("range"))
	if kind == "" {
		kind = export.Daily
	}
	date, err := a.dateParam(r, "date")
	if err != nil {
		return nil, "", fmt.Errorf("%w: date", export.ErrBadRange)
	}
	var from, to time.Time
	if kind == export.Custom {
		if from, err = models.ParseDay(q.Get("from")); err != nil {
			return nil, "", fmt.Errorf("%w: from", export.ErrBadRange)
		}
		if to, err = models.ParseDay(q.Get("to")); err != nil {
			return nil, "", fmt.Errorf("%w: to", export.ErrBadRange)
		}
	}
	dates, err := export.Dates(kind, date, from, to)
	if err != nil {
		return nil, "", err
	}
	label := string(kind)
	if len(dates) > 0 {
		label = dates[0].Format(models.DateLayout)
		if len(dates) > 1 {
			label += " to " + dates[len(dates)-1].Format(models.DateLayout)
		}
	}
	return dates, label, nil
}

func (a *api) attendanceCSV(w http.ResponseWriter, r *http.Request) {
	withClass(func(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
		if a.Store == nil {
			a.writeErr(w, r, classroom.ErrNotConfigured)
			return
		}
		dates, label, err := a.rangeDates(r)
		if err != nil {
			a.writeErr(w, r, err)
			return
		}
		c, err := a.Store.GetClass(r.Context(), id)
		if err != nil {
			a.writeErr(w, r, err)
			return
		}
		sh, err := export.Load(r.Context(), a.Store, id, dates)
		if err != nil {
			a.writeErr(w, r, err)
			return
		}
		var buf bytes.Buffer
		if err := export.WriteCSV(&buf, sh, a.location()); err != nil {
			a.writeErr(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition",
			fmt.Sprintf("attachment; filename=%q", export.FileName("csv", c.Name, "attendance", label)))
		_, _ = w.Write(buf.Bytes())
	})(w, r)
}

type entryJSON struct {
	Status  models.Status `json:"status"`
	Label   string        `json:"label"`
	Time    *time.Time    `json:"time,omitempty"`
	Comment *string       `json:"comment,omitempty"`
}

type tallyJSON struct {
	Counts map[models.Status]int `json:"counts"`
	Set    int                   `json:"set"`
	Rate   *int                  `json:"rate,omitempty"`
}

func toTally(t ledger.Tally) tallyJSON {
	out := tallyJSON{Counts: t.Counts, Set: t.Set}
	if pct, ok := t.Rate(); ok {
		out.Rate = &pct
	}
	return out
}

func toEntry(e ledger.Entry) entryJSON {
	return entryJSON{Status: e.Status, Label: e.Status.Label(), Time: e.AttendanceTime, Comment: e.Comment}
}

// attendanceDay returns the class's records on ?date (default today).
func (a *api) attendanceDay(w http.ResponseWriter, r *http.Request) {
	withClass(func(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
		if a.Ledgers == nil {
			a.writeErr(w, r, classroom.ErrNotConfigured)
			return
		}
		date, err := a.dateParam(r, "date")
		if err != nil {
			badRequest(w, "Bad date.")
			return
		}
		l, err := a.Ledgers.For(r.Context(), id)
		if err != nil {
			a.writeErr(w, r, err)
			return
		}
		var h ledger.History
		if today, cached := l.TodayRecords(); today.Equal(date) {
			h = cached
		} else if h, err = l.View(r.Context(), date); err != nil {
			a.writeErr(w, r, err)
			return
		}
		records := make(map[string]entryJSON, len(h))
		for sid, e := range h {
			records[sid.String()] = toEntry(e)
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"date":    date.Format(models.DateLayout),
			"records": records,
			"tally":   toTally(ledger.CountHistory(h)),
		})
	})(w, r)
}

// attendanceSummary tallies statuses over a range.
func (a *api) attendanceSummary(w http.ResponseWriter, r *http.Request) {
	withClass(func(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
		if a.Store == nil {
			a.writeErr(w, r, classroom.ErrNotConfigured)
			return
		}
		dates, label, err := a.rangeDates(r)
		if err != nil {
			a.writeErr(w, r, err)
			return
		}
		sh, err := export.Load(r.Context(), a.Store, id, dates)
		if err != nil {
			a.writeErr(w, r, err)
			return
		}
		var recs []models.AttendanceRecord
		for _, byStudent := range sh.Records {
			for _, rec := range byStudent {
				recs = append(recs, rec)
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"range": label,
			"days":  len(dates),
			"tally": toTally(ledger.Count(recs)),
		})
	})(w, r)
}

type statusRequest struct {
	Status  models.Status `json:"status"`
	Date    string        `json:"date"`
	Comment string        `json:"comment"`
}

func (a *api) setStatus(w http.ResponseWriter, r *http.Request) {
	a.withStudent(func(w http.ResponseWriter, r *http.Request, id, studentID uuid.UUID) {
		if a.Ledgers == nil {
			a.writeErr(w, r, classroom.ErrNotConfigured)
			return
		}
		var req statusRequest
		if !decode(w, r, &req) {
			return
		}
		date := models.Day(time.Now().In(a.location()))
		if req.Date != "" {
			var err error
			if date, err = models.ParseDay(req.Date); err != nil {
				badRequest(w, "Bad date.")
				return
			}
		}
		l, err := a.Ledgers.For(r.Context(), id)
		if err != nil {
			a.writeErr(w, r, err)
			return
		}
		e, err := l.SetStatus(r.Context(), studentID, req.Status, date, req.Comment)
		if err != nil {
			a.writeErr(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toEntry(e))
	})(w, r)
}
