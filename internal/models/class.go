package models

import (
	"time"

	"github.com/google/uuid"
)

type ClassType string

const (
	Homeroom ClassType = "homeroom"
	Subject  ClassType = "subject"
)

type Class struct {
	ID              uuid.UUID `db:"id"`
	TeacherID       uuid.UUID `db:"teacher_id"`
	Type            ClassType `db:"type" validate:"oneof=homeroom subject"`
	Name            string    `db:"name" validate:"required,max=120"`
	Subtitle        string    `db:"subtitle" validate:"max=200"`
	AssessmentTypes []string  `db:"assessment_types" validate:"min=1,dive,required,max=60"`
	CreatedAt       time.Time `db:"created_at"`
}

// TeacherProfile is the owner of classes. PasswordHash is only used to
// re-authenticate destructive actions.
type TeacherProfile struct {
	ID           uuid.UUID `db:"id"`
	Email        string    `db:"email"`
	DisplayName  string    `db:"display_name"`
	AvatarPath   string    `db:"avatar_path"`
	PasswordHash []byte    `db:"password_hash"`
}
