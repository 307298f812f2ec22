package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/Pandoravox1/attendify-sub000/internal/ctxutil"
	"github.com/Pandoravox1/attendify-sub000/internal/models"
)

const attendanceColumns = `id, student_id, class_id, date, COALESCE(status, ''), attendance_time, comment`

func scanAttendance(r rowScanner) (models.AttendanceRecord, error) {
	var rec models.AttendanceRecord
	var ts sql.NullTime
	var comment sql.NullString
	if err := r.Scan(&rec.ID, &rec.StudentID, &rec.ClassID, &rec.Date, &rec.Status, &ts, &comment); err != nil {
		return models.AttendanceRecord{}, err
	}
	rec.Date = models.Day(rec.Date)
	if ts.Valid {
		rec.AttendanceTime = &ts.Time
	}
	if comment.Valid {
		rec.Comment = &comment.String
	}
	return rec, nil
}

// UpsertAttendance writes the record for (student, class, date), replacing
// whatever was there.
func (s *Store) UpsertAttendance(ctx context.Context, rec models.AttendanceRecord) (models.AttendanceRecord, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	var status sql.NullString
	if rec.Status != models.StatusUnset {
		status = sql.NullString{String: string(rec.Status), Valid: true}
	}
	var ts sql.NullTime
	if rec.AttendanceTime != nil {
		ts = sql.NullTime{Time: *rec.AttendanceTime, Valid: true}
	}
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO attendance (id, student_id, class_id, date, status, attendance_time, comment, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		ON CONFLICT (student_id, class_id, date) DO UPDATE
		SET status = EXCLUDED.status,
		    attendance_time = EXCLUDED.attendance_time,
		    comment = EXCLUDED.comment,
		    updated_at = now()
		RETURNING `+attendanceColumns,
		uuid.New(), rec.StudentID, rec.ClassID, rec.Date.Format(models.DateLayout), status, ts, nullString(rec.Comment))
	out, err := scanAttendance(row)
	return out, mapErr(err)
}

func (s *Store) AttendanceOn(ctx context.Context, classID uuid.UUID, date time.Time) ([]models.AttendanceRecord, error) {
	return s.AttendanceBetween(ctx, classID, date, date)
}

// AttendanceBetween returns records of classID with from <= date <= to.
func (s *Store) AttendanceBetween(ctx context.Context, classID uuid.UUID, from, to time.Time) ([]models.AttendanceRecord, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+attendanceColumns+`
		FROM attendance
		WHERE class_id = $1 AND date BETWEEN $2 AND $3
		ORDER BY date, student_id`,
		classID, from.Format(models.DateLayout), to.Format(models.DateLayout))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.AttendanceRecord
	for rows.Next() {
		rec, err := scanAttendance(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
