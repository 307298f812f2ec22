package schedule

import (
	"strings"
	"time"

	"github.com/Pandoravox1/attendify-sub000/internal/models"
)

// WeekDays is the school week. Sunday is never shown or selectable.
var WeekDays = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday,
}

func SchoolDay(d time.Weekday) bool {
	for _, w := range WeekDays {
		if w == d {
			return true
		}
	}
	return false
}

// WeekOf returns the school-week dates of the Monday-based week containing d.
// A Sunday belongs to the week that ends on it.
func WeekOf(d time.Time) []time.Time {
	day := models.Day(d)
	offset := (int(day.Weekday()) + 6) % 7 // Monday=0 .. Sunday=6
	monday := day.AddDate(0, 0, -offset)
	out := make([]time.Time, 0, len(WeekDays))
	for _, w := range WeekDays {
		out = append(out, monday.AddDate(0, 0, (int(w)+6)%7))
	}
	return out
}

var dayNames = map[string]time.Weekday{
	"monday": time.Monday, "senin": time.Monday,
	"tuesday": time.Tuesday, "selasa": time.Tuesday,
	"wednesday": time.Wednesday, "rabu": time.Wednesday,
	"thursday": time.Thursday, "kamis": time.Thursday,
	"friday": time.Friday, "jumat": time.Friday, "jum'at": time.Friday,
	"saturday": time.Saturday, "sabtu": time.Saturday,
}

// ParseDay reads a day label. Sunday is rejected.
func ParseDay(s string) (time.Weekday, bool) {
	d, ok := dayNames[strings.ToLower(strings.TrimSpace(s))]
	return d, ok
}

// Visible reports whether e shows on the calendar date day.
func Visible(e models.ScheduleEntry, day time.Time) bool {
	if !SchoolDay(day.Weekday()) {
		return false
	}
	if e.RepeatWeekly {
		return e.Day == day.Weekday()
	}
	return e.Date != nil && models.SameDay(*e.Date, day)
}

type Day struct {
	Date    time.Time
	Entries []models.ScheduleEntry
}

// ForWeek lays entries out over the school week containing d, each day
// sorted by start time.
func ForWeek(entries []models.ScheduleEntry, d time.Time) []Day {
	week := WeekOf(d)
	out := make([]Day, len(week))
	for i, date := range week {
		out[i].Date = date
		for _, e := range entries {
			if Visible(e, date) {
				out[i].Entries = append(out[i].Entries, e)
			}
		}
		sortByStart(out[i].Entries)
	}
	return out
}
