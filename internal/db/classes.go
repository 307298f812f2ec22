package db

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/Pandoravox1/attendify-sub000/internal/ctxutil"
	"github.com/Pandoravox1/attendify-sub000/internal/models"
)

const classColumns = `id, COALESCE(teacher_id, '00000000-0000-0000-0000-000000000000'::uuid), type, name, subtitle, assessment_types, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClass(r rowScanner) (models.Class, error) {
	var c models.Class
	var types []byte
	if err := r.Scan(&c.ID, &c.TeacherID, &c.Type, &c.Name, &c.Subtitle, &types, &c.CreatedAt); err != nil {
		return models.Class{}, err
	}
	if err := json.Unmarshal(types, &c.AssessmentTypes); err != nil {
		return models.Class{}, err
	}
	return c, nil
}

func (s *Store) CreateClass(ctx context.Context, c models.Class) (models.Class, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	types, err := jsonArg(c.AssessmentTypes)
	if err != nil {
		return models.Class{}, err
	}
	var teacher any
	if c.TeacherID != uuid.Nil {
		teacher = c.TeacherID
	}
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO classes (id, teacher_id, type, name, subtitle, assessment_types)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`,
		c.ID, teacher, c.Type, c.Name, c.Subtitle, types)
	if err := row.Scan(&c.CreatedAt); err != nil {
		return models.Class{}, mapErr(err)
	}
	return c, nil
}

func (s *Store) GetClass(ctx context.Context, id uuid.UUID) (models.Class, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	c, err := scanClass(s.db.QueryRowContext(ctx, `SELECT `+classColumns+` FROM classes WHERE id = $1`, id))
	return c, mapErr(err)
}

func (s *Store) ListClasses(ctx context.Context, teacherID uuid.UUID) ([]models.Class, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+classColumns+`
		FROM classes
		WHERE teacher_id = $1
		ORDER BY created_at`, teacherID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.Class
	for rows.Next() {
		c, err := scanClass(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func updateClass(ctx context.Context, tx *sql.Tx, c models.Class) error {
	types, err := jsonArg(c.AssessmentTypes)
	if err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `
		UPDATE classes SET type = $2, name = $3, subtitle = $4, assessment_types = $5
		WHERE id = $1`, c.ID, c.Type, c.Name, c.Subtitle, types)
	if err != nil {
		return err
	}
	return mustAffect(res)
}

// DeleteClass removes the class; students, schedules and attendance go
// with it through ON DELETE CASCADE.
func (s *Store) DeleteClass(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	res, err := s.db.ExecContext(ctx, `DELETE FROM classes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return mustAffect(res)
}

type execResult interface {
	RowsAffected() (int64, error)
}

func mustAffect(res execResult) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
