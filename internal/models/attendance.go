package models

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusUnset     Status = ""
	StatusPresent   Status = "Present"
	StatusLate      Status = "Late"
	StatusSick      Status = "Sick"
	StatusExcused   Status = "Excused"
	StatusUnexcused Status = "Unexcused"
	StatusAbsent    Status = "Absent"
)

var Statuses = []Status{StatusPresent, StatusLate, StatusSick, StatusExcused, StatusUnexcused, StatusAbsent}

func (s Status) Valid() bool {
	if s == StatusUnset {
		return true
	}
	for _, v := range Statuses {
		if v == s {
			return true
		}
	}
	return false
}

// Stamped statuses carry an attendance time.
func (s Status) Stamped() bool { return s == StatusPresent || s == StatusLate }

// Commentable statuses keep a free-text comment.
func (s Status) Commentable() bool {
	return s == StatusSick || s == StatusExcused || s == StatusUnexcused
}

func (s Status) Label() string {
	if s == StatusUnset {
		return "Not set"
	}
	return string(s)
}

type AttendanceRecord struct {
	ID             uuid.UUID  `db:"id"`
	StudentID      uuid.UUID  `db:"student_id"`
	ClassID        uuid.UUID  `db:"class_id"`
	Date           time.Time  `db:"date"`
	Status         Status     `db:"status"`
	AttendanceTime *time.Time `db:"attendance_time"`
	Comment        *string    `db:"comment"`
}
