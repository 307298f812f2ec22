package export

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Pandoravox1/attendify-sub000/internal/metrics"
	"github.com/Pandoravox1/attendify-sub000/internal/models"
	"github.com/Pandoravox1/attendify-sub000/internal/schedule"
)

type RangeKind string

const (
	Daily   RangeKind = "daily"
	Weekly  RangeKind = "weekly"
	Monthly RangeKind = "monthly"
	Custom  RangeKind = "custom"
)

// MaxCustomDays caps a custom range.
const MaxCustomDays = 93

var (
	ErrBadRange     = errors.New("export: unknown range")
	ErrRangeOrder   = errors.New("export: range ends before it starts")
	ErrRangeTooLong = fmt.Errorf("export: custom range longer than %d days", MaxCustomDays)
)

// Dates expands a range into the school days it covers. date anchors the
// daily, weekly and monthly kinds; from and to bound a custom range. A
// daily range is exactly date, even on a Sunday.
func Dates(kind RangeKind, date, from, to time.Time) ([]time.Time, error) {
	switch kind {
	case Daily:
		return []time.Time{models.Day(date)}, nil
	case Weekly:
		return schedule.WeekOf(date), nil
	case Monthly:
		d := models.Day(date)
		first := d.AddDate(0, 0, 1-d.Day())
		return schoolDays(first, first.AddDate(0, 1, -1)), nil
	case Custom:
		from, to = models.Day(from), models.Day(to)
		if to.Before(from) {
			return nil, ErrRangeOrder
		}
		if to.Sub(from) >= MaxCustomDays*24*time.Hour {
			return nil, ErrRangeTooLong
		}
		return schoolDays(from, to), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrBadRange, kind)
}

func schoolDays(from, to time.Time) []time.Time {
	var out []time.Time
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if schedule.SchoolDay(d.Weekday()) {
			out = append(out, d)
		}
	}
	return out
}

// Source is the store side of an attendance export.
type Source interface {
	ListStudents(ctx context.Context, classID uuid.UUID) ([]models.Student, error)
	AttendanceOn(ctx context.Context, classID uuid.UUID, date time.Time) ([]models.AttendanceRecord, error)
}

type Sheet struct {
	Students []models.Student
	Dates    []time.Time
	// Records is keyed by date (DateLayout) then student.
	Records map[string]map[uuid.UUID]models.AttendanceRecord
}

// Load reads the roster and every date's records concurrently.
func Load(ctx context.Context, src Source, classID uuid.UUID, dates []time.Time) (Sheet, error) {
	sh := Sheet{Dates: dates, Records: make(map[string]map[uuid.UUID]models.AttendanceRecord, len(dates))}
	perDay := make([][]models.AttendanceRecord, len(dates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	g.Go(func() error {
		sts, err := src.ListStudents(gctx, classID)
		sh.Students = sts
		return err
	})
	for i, d := range dates {
		g.Go(func() error {
			recs, err := src.AttendanceOn(gctx, classID, d)
			if err != nil {
				return fmt.Errorf("attendance %s: %w", d.Format(models.DateLayout), err)
			}
			perDay[i] = recs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Sheet{}, err
	}

	for i, d := range dates {
		byStudent := make(map[uuid.UUID]models.AttendanceRecord, len(perDay[i]))
		for _, r := range perDay[i] {
			byStudent[r.StudentID] = r
		}
		sh.Records[d.Format(models.DateLayout)] = byStudent
	}
	sort.SliceStable(sh.Students, func(i, j int) bool {
		return strings.ToLower(sh.Students[i].Name) < strings.ToLower(sh.Students[j].Name)
	})
	return sh, nil
}

var csvHeader = []string{"Date", "Day", "Student Number", "Name", "Status", "Time", "Comment"}

// utf8BOM makes spreadsheet apps open the file as UTF-8.
const utf8BOM = "\uFEFF"

// WriteCSV writes one row per student per date. Students without a record
// on a date are written as "Not set". Times are shown in loc.
func WriteCSV(w io.Writer, sh Sheet, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	cw.UseCRLF = true
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, d := range sh.Dates {
		key := d.Format(models.DateLayout)
		recs := sh.Records[key]
		for _, st := range sh.Students {
			rec, ok := recs[st.ID]
			status := models.StatusUnset
			var at, comment string
			if ok {
				status = rec.Status
				if rec.AttendanceTime != nil {
					at = rec.AttendanceTime.In(loc).Format("15:04")
				}
				if rec.Comment != nil {
					comment = *rec.Comment
				}
			}
			if err := cw.Write([]string{key, d.Weekday().String(), st.StudentNumber, st.Name, status.Label(), at, comment}); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	metrics.Exports.WithLabelValues("csv").Inc()
	return nil
}
