package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Pandoravox1/attendify-sub000/internal/classroom"
	"github.com/Pandoravox1/attendify-sub000/internal/models"
	"github.com/Pandoravox1/attendify-sub000/internal/schedule"
)

type ScheduleStore interface {
	ListSchedules(ctx context.Context, classID uuid.UUID) ([]models.ScheduleEntry, error)
	CreateSchedule(ctx context.Context, e models.ScheduleEntry) (models.ScheduleEntry, error)
	DeleteSchedule(ctx context.Context, classID, id uuid.UUID) error
}

type placementJSON struct {
	ID           uuid.UUID `json:"id"`
	Start        string    `json:"start"`
	End          string    `json:"end"`
	Room         string    `json:"room"`
	Color        int       `json:"color"`
	RepeatWeekly bool      `json:"repeatWeekly"`
	Top          float64   `json:"top"`
	Height       float64   `json:"height"`
	Lane         int       `json:"lane"`
	Lanes        int       `json:"lanes"`
}

type dayJSON struct {
	Date    string          `json:"date"`
	Weekday string          `json:"weekday"`
	Entries []placementJSON `json:"entries"`
}

// weekSchedule lays out the school week containing ?date on the default
// grid.
func (a *api) weekSchedule(w http.ResponseWriter, r *http.Request) {
	withClass(func(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
		if a.Schedules == nil {
			a.writeErr(w, r, classroom.ErrNotConfigured)
			return
		}
		date, err := a.dateParam(r, "date")
		if err != nil {
			badRequest(w, "Bad date.")
			return
		}
		entries, err := a.Schedules.ListSchedules(r.Context(), id)
		if err != nil {
			a.writeErr(w, r, err)
			return
		}
		days := schedule.ForWeek(entries, date)
		out := make([]dayJSON, 0, len(days))
		for _, d := range days {
			dj := dayJSON{Date: d.Date.Format(models.DateLayout), Weekday: d.Date.Weekday().String(), Entries: []placementJSON{}}
			for _, p := range schedule.DefaultGrid.Lanes(d.Entries) {
				dj.Entries = append(dj.Entries, placementJSON{
					ID: p.Entry.ID, Start: p.Entry.StartTime, End: p.Entry.EndTime, Room: p.Entry.Room,
					Color: p.Entry.ColorIndex, RepeatWeekly: p.Entry.RepeatWeekly,
					Top: p.Box.Top, Height: p.Box.Height, Lane: p.Lane, Lanes: p.Lanes,
				})
			}
			out = append(out, dj)
		}
		writeJSON(w, http.StatusOK, map[string]any{"rows": schedule.DefaultGrid.Rows(), "days": out})
	})(w, r)
}

type scheduleRequest struct {
	Day          string `json:"day"`
	Start        string `json:"start"`
	End          string `json:"end"`
	Room         string `json:"room"`
	Color        int    `json:"color"`
	RepeatWeekly bool   `json:"repeatWeekly"`
	Date         string `json:"date"`
}

func (a *api) createSchedule(w http.ResponseWriter, r *http.Request) {
	withClass(func(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
		if a.Schedules == nil {
			a.writeErr(w, r, classroom.ErrNotConfigured)
			return
		}
		var req scheduleRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
			badRequest(w, "Bad request body.")
			return
		}
		e := models.ScheduleEntry{
			ClassID: id, StartTime: req.Start, EndTime: req.End, Room: req.Room,
			ColorIndex: req.Color, RepeatWeekly: req.RepeatWeekly,
		}
		if req.Date != "" {
			d, err := models.ParseDay(req.Date)
			if err != nil {
				badRequest(w, "Bad date.")
				return
			}
			e.Date = &d
		}
		day, ok := schedule.ParseDay(req.Day)
		switch {
		case ok:
			e.Day = day
		case e.Date != nil:
			e.Day = e.Date.Weekday()
		default:
			badRequest(w, "Pick a day between Monday and Saturday.")
			return
		}
		if err := a.validate.Struct(e); err != nil {
			a.writeErr(w, r, fmt.Errorf("%w: %v", errInvalidSchedule, err))
			return
		}
		saved, err := a.Schedules.CreateSchedule(r.Context(), e)
		if err != nil {
			a.writeErr(w, r, err)
			return
		}
		box := schedule.DefaultGrid.Place(saved)
		writeJSON(w, http.StatusCreated, placementJSON{
			ID: saved.ID, Start: saved.StartTime, End: saved.EndTime, Room: saved.Room,
			Color: saved.ColorIndex, RepeatWeekly: saved.RepeatWeekly,
			Top: box.Top, Height: box.Height, Lanes: 1,
		})
	})(w, r)
}

func (a *api) deleteSchedule(w http.ResponseWriter, r *http.Request) {
	withClass(func(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
		if a.Schedules == nil {
			a.writeErr(w, r, classroom.ErrNotConfigured)
			return
		}
		entryID, err := uuid.Parse(chi.URLParam(r, "entryID"))
		if err != nil {
			badRequest(w, "Bad schedule id.")
			return
		}
		if err := a.Schedules.DeleteSchedule(r.Context(), id, entryID); err != nil {
			a.writeErr(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})(w, r)
}
