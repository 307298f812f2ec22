package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/Pandoravox1/attendify-sub000/internal/ctxutil"
	"github.com/Pandoravox1/attendify-sub000/internal/grading"
	"github.com/Pandoravox1/attendify-sub000/internal/models"
)

const studentColumns = `id, class_id, name, email, gender, student_number, scores, zero_counted, zero_notes, attitude, created_at`

func scanStudent(r rowScanner) (models.Student, error) {
	var st models.Student
	var scores, counted, notes []byte
	if err := r.Scan(&st.ID, &st.ClassID, &st.Name, &st.Email, &st.Gender, &st.StudentNumber,
		&scores, &counted, &notes, &st.Attitude, &st.CreatedAt); err != nil {
		return models.Student{}, err
	}
	// scores may hold strings or nulls written by older clients
	var raw map[string]any
	if err := json.Unmarshal(scores, &raw); err != nil {
		return models.Student{}, fmt.Errorf("student %s scores: %w", st.ID, err)
	}
	st.Scores = grading.ScoresFromRaw(raw)
	if err := json.Unmarshal(counted, &st.ZeroCounted); err != nil {
		return models.Student{}, fmt.Errorf("student %s zero flags: %w", st.ID, err)
	}
	if err := json.Unmarshal(notes, &st.ZeroNotes); err != nil {
		return models.Student{}, fmt.Errorf("student %s zero notes: %w", st.ID, err)
	}
	return st, nil
}

type studentArgs struct {
	scores, counted, notes string
}

func encodeStudent(st models.Student) (studentArgs, error) {
	var a studentArgs
	var err error
	if a.scores, err = jsonArg(orEmpty(st.Scores)); err != nil {
		return a, err
	}
	if a.counted, err = jsonArg(orEmpty(st.ZeroCounted)); err != nil {
		return a, err
	}
	a.notes, err = jsonArg(orEmpty(st.ZeroNotes))
	return a, err
}

func orEmpty[V any](m map[string]V) map[string]V {
	if m == nil {
		return map[string]V{}
	}
	return m
}

func (s *Store) ListStudents(ctx context.Context, classID uuid.UUID) ([]models.Student, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+studentColumns+`
		FROM students
		WHERE class_id = $1
		ORDER BY lower(name), created_at`, classID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.Student
	for rows.Next() {
		st, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (s *Store) GetStudent(ctx context.Context, id uuid.UUID) (models.Student, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	st, err := scanStudent(s.db.QueryRowContext(ctx, `SELECT `+studentColumns+` FROM students WHERE id = $1`, id))
	return st, mapErr(err)
}

// StudentClass resolves the class owning a student.
func (s *Store) StudentClass(ctx context.Context, studentID uuid.UUID) (uuid.UUID, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	var id uuid.UUID
	err := s.db.QueryRowContext(ctx, `SELECT class_id FROM students WHERE id = $1`, studentID).Scan(&id)
	return id, mapErr(err)
}

// InsertStudents writes all students in one transaction.
func (s *Store) InsertStudents(ctx context.Context, students []models.Student) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	return mapErr(s.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO students (id, class_id, name, email, gender, student_number, scores, zero_counted, zero_notes, attitude)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`)
		if err != nil {
			return err
		}
		defer func() { _ = stmt.Close() }()
		for _, st := range students {
			a, err := encodeStudent(st)
			if err != nil {
				return err
			}
			if _, err := stmt.ExecContext(ctx, st.ID, st.ClassID, st.Name, st.Email, st.Gender, st.StudentNumber,
				a.scores, a.counted, a.notes, st.Attitude); err != nil {
				return fmt.Errorf("insert student %q: %w", st.Name, err)
			}
		}
		return nil
	}))
}

func (s *Store) UpdateStudent(ctx context.Context, st models.Student) error {
	return s.UpdateStudents(ctx, []models.Student{st})
}

// UpdateStudents rewrites every given student in one transaction; if any
// row fails none is changed.
func (s *Store) UpdateStudents(ctx context.Context, students []models.Student) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	return mapErr(s.inTx(ctx, func(tx *sql.Tx) error {
		return updateStudents(ctx, tx, students)
	}))
}

// UpdateClassAndStudents saves the class row and rewrites its students in
// one transaction.
func (s *Store) UpdateClassAndStudents(ctx context.Context, c models.Class, students []models.Student) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	return mapErr(s.inTx(ctx, func(tx *sql.Tx) error {
		if err := updateClass(ctx, tx, c); err != nil {
			return err
		}
		return updateStudents(ctx, tx, students)
	}))
}

func updateStudents(ctx context.Context, tx *sql.Tx, students []models.Student) error {
	if len(students) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `
		UPDATE students
		SET name = $3, email = $4, gender = $5, student_number = $6,
		    scores = $7, zero_counted = $8, zero_notes = $9, attitude = $10
		WHERE id = $1 AND class_id = $2`)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()
	for _, st := range students {
		a, err := encodeStudent(st)
		if err != nil {
			return err
		}
		res, err := stmt.ExecContext(ctx, st.ID, st.ClassID, st.Name, st.Email, st.Gender, st.StudentNumber,
			a.scores, a.counted, a.notes, st.Attitude)
		if err != nil {
			return fmt.Errorf("update student %s: %w", st.ID, err)
		}
		if err := mustAffect(res); err != nil {
			return fmt.Errorf("update student %s: %w", st.ID, err)
		}
	}
	return nil
}

// DeleteStudents removes ids from classID in one transaction. Attendance
// rows go with them.
func (s *Store) DeleteStudents(ctx context.Context, classID uuid.UUID, ids []uuid.UUID) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	return mapErr(s.inTx(ctx, func(tx *sql.Tx) error {
		for _, id := range ids {
			res, err := tx.ExecContext(ctx, `DELETE FROM students WHERE id = $1 AND class_id = $2`, id, classID)
			if err != nil {
				return err
			}
			if err := mustAffect(res); err != nil {
				return fmt.Errorf("delete student %s: %w", id, err)
			}
		}
		return nil
	}))
}
