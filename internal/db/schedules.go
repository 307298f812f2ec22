package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/Pandoravox1/attendify-sub000/internal/ctxutil"
	"github.com/Pandoravox1/attendify-sub000/internal/models"
	"github.com/Pandoravox1/attendify-sub000/internal/schedule"
)

func (s *Store) ListSchedules(ctx context.Context, classID uuid.UUID) ([]models.ScheduleEntry, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, class_id, day, start_time, end_time, room, color_index, repeat_weekly, date
		FROM schedules
		WHERE class_id = $1
		ORDER BY day, start_time`, classID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.ScheduleEntry
	for rows.Next() {
		var e models.ScheduleEntry
		var day int
		var date sql.NullTime
		if err := rows.Scan(&e.ID, &e.ClassID, &day, &e.StartTime, &e.EndTime, &e.Room, &e.ColorIndex, &e.RepeatWeekly, &date); err != nil {
			return nil, err
		}
		e.Day = time.Weekday(day)
		if date.Valid {
			d := models.Day(date.Time)
			e.Date = &d
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// CreateSchedule stores e after schedule.Validate accepts it.
func (s *Store) CreateSchedule(ctx context.Context, e models.ScheduleEntry) (models.ScheduleEntry, error) {
	if err := schedule.Validate(e); err != nil {
		return models.ScheduleEntry{}, err
	}
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	var date any
	if e.Date != nil && !e.RepeatWeekly {
		date = e.Date.Format(models.DateLayout)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO schedules (id, class_id, day, start_time, end_time, room, color_index, repeat_weekly, date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		e.ID, e.ClassID, int(e.Day), e.StartTime, e.EndTime, e.Room, e.ColorIndex, e.RepeatWeekly, date)
	return e, mapErr(err)
}

func (s *Store) DeleteSchedule(ctx context.Context, classID, id uuid.UUID) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	res, err := s.db.ExecContext(ctx, `DELETE FROM schedules WHERE id = $1 AND class_id = $2`, id, classID)
	if err != nil {
		return err
	}
	return mustAffect(res)
}
