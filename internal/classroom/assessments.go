package classroom

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Pandoravox1/attendify-sub000/internal/models"
)

// SetAssessmentTypes replaces the class's assessment list. Students keep
// scores for types that survive and get a zero for new ones.
func (s *Service) SetAssessmentTypes(ctx context.Context, classID uuid.UUID, types []string) (models.Class, error) {
	types = CleanTypes(types)
	if len(types) == 0 {
		return models.Class{}, ErrLastAssessmentType
	}
	return s.updateTypes(ctx, classID, func(models.Class) ([]string, map[string]string, error) {
		return types, nil, nil
	})
}

func (s *Service) AddAssessmentType(ctx context.Context, classID uuid.UUID, name string) (models.Class, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Class{}, fmt.Errorf("%w: empty assessment name", ErrInvalidClass)
	}
	return s.updateTypes(ctx, classID, func(c models.Class) ([]string, map[string]string, error) {
		if _, ok := findType(c.AssessmentTypes, name); ok {
			return nil, nil, ErrDuplicateAssessment
		}
		return append(append([]string(nil), c.AssessmentTypes...), name), nil, nil
	})
}

// RemoveAssessmentType drops name from the class. The last remaining type
// cannot be removed.
func (s *Service) RemoveAssessmentType(ctx context.Context, classID uuid.UUID, name string) (models.Class, error) {
	return s.updateTypes(ctx, classID, func(c models.Class) ([]string, map[string]string, error) {
		typ, ok := findType(c.AssessmentTypes, name)
		if !ok {
			return nil, nil, fmt.Errorf("%w: %q", ErrUnknownAssessment, name)
		}
		if len(c.AssessmentTypes) == 1 {
			return nil, nil, ErrLastAssessmentType
		}
		out := make([]string, 0, len(c.AssessmentTypes)-1)
		for _, t := range c.AssessmentTypes {
			if t != typ {
				out = append(out, t)
			}
		}
		return out, nil, nil
	})
}

// RenameAssessmentType renames from to to and moves every student's score,
// zero flag and note along with it.
func (s *Service) RenameAssessmentType(ctx context.Context, classID uuid.UUID, from, to string) (models.Class, error) {
	to = strings.TrimSpace(to)
	if to == "" {
		return models.Class{}, fmt.Errorf("%w: empty assessment name", ErrInvalidClass)
	}
	return s.updateTypes(ctx, classID, func(c models.Class) ([]string, map[string]string, error) {
		typ, ok := findType(c.AssessmentTypes, from)
		if !ok {
			return nil, nil, fmt.Errorf("%w: %q", ErrUnknownAssessment, from)
		}
		if other, ok := findType(c.AssessmentTypes, to); ok && other != typ {
			return nil, nil, ErrDuplicateAssessment
		}
		out := make([]string, len(c.AssessmentTypes))
		for i, t := range c.AssessmentTypes {
			if t == typ {
				t = to
			}
			out[i] = t
		}
		return out, map[string]string{typ: to}, nil
	})
}

// updateTypes saves the class's new type list together with every student
// whose maps had to follow it. Either both land or neither does.
func (s *Service) updateTypes(ctx context.Context, classID uuid.UUID, next func(models.Class) ([]string, map[string]string, error)) (models.Class, error) {
	if s.store == nil {
		return models.Class{}, ErrNotConfigured
	}
	c, err := s.store.GetClass(ctx, classID)
	if err != nil {
		return models.Class{}, s.storeErr(ctx, "load class", err)
	}
	types, renames, err := next(c)
	if err != nil {
		return models.Class{}, err
	}
	students, err := s.store.ListStudents(ctx, classID)
	if err != nil {
		return models.Class{}, s.storeErr(ctx, "load students", err)
	}

	c.AssessmentTypes = types
	if err := s.validate.Struct(c); err != nil {
		return models.Class{}, fmt.Errorf("%w: %v", ErrInvalidClass, err)
	}

	changed := make([]models.Student, 0, len(students))
	for _, st := range students {
		if conform(&st, types, renames) {
			changed = append(changed, st)
		}
	}
	if err := s.store.UpdateClassAndStudents(ctx, c, changed); err != nil {
		return models.Class{}, s.batchErr(ctx, "assessment_types", len(changed), err)
	}
	return c, nil
}

// conform renames keys, drops keys no longer in types and fills missing
// ones with zero. It reports whether st changed.
func conform(st *models.Student, types []string, renames map[string]string) bool {
	changed := false
	for from, to := range renames {
		if from == to {
			continue
		}
		if v, ok := st.Scores[from]; ok {
			st.Scores[to] = v
			delete(st.Scores, from)
			changed = true
		}
		if v, ok := st.ZeroCounted[from]; ok {
			st.ZeroCounted[to] = v
			delete(st.ZeroCounted, from)
			changed = true
		}
		if v, ok := st.ZeroNotes[from]; ok {
			st.ZeroNotes[to] = v
			delete(st.ZeroNotes, from)
			changed = true
		}
	}
	keep := make(map[string]bool, len(types))
	for _, t := range types {
		keep[t] = true
	}
	for k := range st.Scores {
		if !keep[k] {
			delete(st.Scores, k)
			delete(st.ZeroCounted, k)
			delete(st.ZeroNotes, k)
			changed = true
		}
	}
	if st.EnsureScores(types) {
		changed = true
	}
	return changed
}
