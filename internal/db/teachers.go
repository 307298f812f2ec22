package db

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Pandoravox1/attendify-sub000/internal/ctxutil"
	"github.com/Pandoravox1/attendify-sub000/internal/models"
)

var ErrWrongPassword = errors.New("db: wrong password")

func (s *Store) UpsertTeacher(ctx context.Context, t models.TeacherProfile) (models.TeacherProfile, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	t.Email = strings.ToLower(strings.TrimSpace(t.Email))
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO teacher_profiles (id, email, display_name, avatar_path, password_hash)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (email) DO UPDATE
		SET display_name = EXCLUDED.display_name,
		    avatar_path = EXCLUDED.avatar_path,
		    password_hash = COALESCE(EXCLUDED.password_hash, teacher_profiles.password_hash)
		RETURNING id`,
		t.ID, t.Email, t.DisplayName, t.AvatarPath, t.PasswordHash).Scan(&t.ID)
	return t, mapErr(err)
}

func (s *Store) TeacherByEmail(ctx context.Context, email string) (models.TeacherProfile, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	var t models.TeacherProfile
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, display_name, avatar_path, password_hash
		FROM teacher_profiles WHERE email = $1`,
		strings.ToLower(strings.TrimSpace(email))).
		Scan(&t.ID, &t.Email, &t.DisplayName, &t.AvatarPath, &t.PasswordHash)
	return t, mapErr(err)
}

// HashPassword is what UpsertTeacher expects in PasswordHash.
func HashPassword(password string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
}

// Reauthenticate confirms the teacher's password before a destructive
// action.
func (s *Store) Reauthenticate(ctx context.Context, email, password string) error {
	t, err := s.TeacherByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return ErrWrongPassword
	}
	if err != nil {
		return err
	}
	if len(t.PasswordHash) == 0 || bcrypt.CompareHashAndPassword(t.PasswordHash, []byte(password)) != nil {
		return ErrWrongPassword
	}
	return nil
}
