package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Attitude string

const (
	AttitudeEE  Attitude = "EE"
	AttitudeME  Attitude = "ME"
	AttitudeDME Attitude = "DME"
)

func (a Attitude) Valid() bool {
	switch a {
	case AttitudeEE, AttitudeME, AttitudeDME:
		return true
	}
	return false
}

type Gender string

const (
	Male   Gender = "male"
	Female Gender = "female"
)

// ParseGender accepts English and Indonesian spellings ("L"/"P" included).
func ParseGender(s string) (Gender, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "m", "male", "boy", "l", "laki-laki", "laki laki", "lakilaki", "pria":
		return Male, true
	case "f", "female", "girl", "p", "perempuan", "wanita":
		return Female, true
	}
	return "", false
}

type Student struct {
	ID            uuid.UUID          `db:"id"`
	ClassID       uuid.UUID          `db:"class_id"`
	Name          string             `db:"name" validate:"required,max=120"`
	Email         string             `db:"email" validate:"omitempty,email,max=254"`
	Gender        Gender             `db:"gender" validate:"omitempty,oneof=male female"`
	StudentNumber string             `db:"student_number" validate:"max=40"`
	Scores        map[string]float64 `db:"scores"`
	ZeroCounted   map[string]bool    `db:"zero_counted"`
	ZeroNotes     map[string]string  `db:"zero_notes"`
	Attitude      Attitude           `db:"attitude" validate:"omitempty,oneof=EE ME DME"`
	CreatedAt     time.Time          `db:"created_at"`
}

// EnsureScores adds a zero entry for every assessment type the student has
// no score for. It reports whether anything changed.
func (s *Student) EnsureScores(types []string) bool {
	if s.Scores == nil {
		s.Scores = make(map[string]float64, len(types))
	}
	changed := false
	for _, t := range types {
		if _, ok := s.Scores[t]; !ok {
			s.Scores[t] = 0
			changed = true
		}
	}
	return changed
}
