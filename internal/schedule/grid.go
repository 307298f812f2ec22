package schedule

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/Pandoravox1/attendify-sub000/internal/models"
)

const SlotMinutes = 30

// Grid is the vertical time axis, one row per half hour.
type Grid struct {
	OpenHour  int
	CloseHour int
	RowHeight float64
}

var DefaultGrid = Grid{OpenHour: 6, CloseHour: 18, RowHeight: 40}

func (g Grid) Rows() int { return (g.CloseHour - g.OpenHour) * 60 / SlotMinutes }

// ParseClock parses "HH:MM" (seconds allowed) into minutes after midnight.
func ParseClock(s string) (int, bool) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}

// Offset is the pixel distance of clock from the top of the grid. Malformed
// input yields 0; times outside the grid are pinned to its edges.
func (g Grid) Offset(clock string) float64 {
	m, ok := ParseClock(clock)
	if !ok {
		return 0
	}
	m -= g.OpenHour * 60
	if m < 0 {
		m = 0
	}
	if limit := (g.CloseHour - g.OpenHour) * 60; m > limit {
		m = limit
	}
	return float64(m) / SlotMinutes * g.RowHeight
}

type Box struct {
	Top    float64
	Height float64
}

func (g Grid) Place(e models.ScheduleEntry) Box {
	top := g.Offset(e.StartTime)
	h := g.Offset(e.EndTime) - top
	if h < 0 {
		h = 0
	}
	return Box{Top: top, Height: h}
}

var (
	ErrBadTime  = errors.New("schedule: time must be HH:MM")
	ErrEndFirst = errors.New("schedule: end time must be after start time")
	ErrNoDate   = errors.New("schedule: one-off entries need a date")
	ErrSunday   = errors.New("schedule: Sunday is not a school day")
	ErrWrongDay = errors.New("schedule: date falls on another weekday")
)

// Validate checks what the grid relies on.
func Validate(e models.ScheduleEntry) error {
	start, ok1 := ParseClock(e.StartTime)
	end, ok2 := ParseClock(e.EndTime)
	if !ok1 || !ok2 {
		return ErrBadTime
	}
	if end <= start {
		return ErrEndFirst
	}
	if !SchoolDay(e.Day) {
		return ErrSunday
	}
	if !e.RepeatWeekly {
		if e.Date == nil {
			return ErrNoDate
		}
		if e.Date.Weekday() != e.Day {
			return fmt.Errorf("%w: %s is not a %s", ErrWrongDay, e.Date.Format(models.DateLayout), e.Day)
		}
	}
	return nil
}

func sortByStart(es []models.ScheduleEntry) {
	sort.SliceStable(es, func(i, j int) bool {
		a, _ := ParseClock(es[i].StartTime)
		b, _ := ParseClock(es[j].StartTime)
		return a < b
	})
}
