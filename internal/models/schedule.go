package models

import (
	"time"

	"github.com/google/uuid"
)

type ScheduleEntry struct {
	ID           uuid.UUID    `db:"id"`
	ClassID      uuid.UUID    `db:"class_id"`
	Day          time.Weekday `db:"day"`
	StartTime    string       `db:"start_time" validate:"required"`
	EndTime      string       `db:"end_time" validate:"required"`
	Room         string       `db:"room" validate:"max=60"`
	ColorIndex   int          `db:"color_index" validate:"min=0,max=11"`
	RepeatWeekly bool         `db:"repeat_weekly"`
	Date         *time.Time   `db:"date"`
}
