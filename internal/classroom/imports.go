package classroom

import (
	"context"
	"errors"
	"io"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Pandoravox1/attendify-sub000/internal/logging"
	"github.com/Pandoravox1/attendify-sub000/internal/metrics"
	"github.com/Pandoravox1/attendify-sub000/internal/models"
	"github.com/Pandoravox1/attendify-sub000/internal/spreadsheet"
)

const (
	KindStudents = "students"
	KindGrades   = "grades"
)

// Upload is a spreadsheet file as received from the client.
type Upload struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

type ImportResult struct {
	Summary spreadsheet.Summary
	Message string
	// Added lists assessment types created by a grade import.
	Added []string
}

// read runs the structural checks. Any error here rejects the whole file.
func (s *Service) read(u Upload, p spreadsheet.Profile) (*spreadsheet.Header, []spreadsheet.RawRow, error) {
	if err := s.limits.CheckUpload(u.Name, u.ContentType, u.Size); err != nil {
		return nil, nil, err
	}
	rows, err := s.limits.Read(u.Body)
	if err != nil {
		return nil, nil, err
	}
	h, err := spreadsheet.ResolveHeader(rows, p)
	if err != nil {
		return nil, nil, err
	}
	return h, h.DataRows(rows), nil
}

func countRows(kind string, sum spreadsheet.Summary) {
	for outcome, n := range map[string]int{
		"accepted":   sum.Accepted,
		"blank":      sum.Blank,
		"incomplete": sum.Incomplete,
		"duplicate":  sum.Duplicate,
		"not_found":  sum.NotFound,
	} {
		if n > 0 {
			metrics.ImportRows.WithLabelValues(kind, outcome).Add(float64(n))
		}
	}
}

// ImportStudents adds the students listed in u to the class. Rows that are
// blank, incomplete or duplicate are skipped and counted; accepted rows are
// inserted together.
func (s *Service) ImportStudents(ctx context.Context, classID uuid.UUID, u Upload) (ImportResult, error) {
	res, err := s.importStudents(ctx, classID, u)
	s.finishImport(ctx, KindStudents, res, err)
	return res, err
}

func (s *Service) importStudents(ctx context.Context, classID uuid.UUID, u Upload) (ImportResult, error) {
	if s.store == nil {
		return ImportResult{}, ErrNotConfigured
	}
	h, rows, err := s.read(u, spreadsheet.StudentProfile)
	if err != nil {
		return ImportResult{}, err
	}
	c, err := s.store.GetClass(ctx, classID)
	if err != nil {
		return ImportResult{}, s.storeErr(ctx, "load class", err)
	}
	existing, err := s.store.ListStudents(ctx, classID)
	if err != nil {
		return ImportResult{}, s.storeErr(ctx, "load students", err)
	}

	// a malformed email or an overlong name makes the row incomplete
	check := func(cand spreadsheet.StudentCandidate) error {
		err := s.validate.Struct(newStudent(classID, cand))
		if err != nil {
			logging.For(ctx, s.log).Debug("import row rejected", zap.Int("line", cand.Line), zap.Error(err))
		}
		return err
	}
	imp := spreadsheet.ReconcileStudents(h, rows, existing, check)
	sum := imp.Summary
	students := make([]models.Student, 0, len(imp.Accepted))
	for _, cand := range imp.Accepted {
		st := newStudent(classID, cand)
		st.EnsureScores(c.AssessmentTypes)
		students = append(students, st)
	}

	if len(students) > 0 {
		if err := s.store.InsertStudents(ctx, students); err != nil {
			return ImportResult{}, s.batchErr(ctx, "import_students", len(students), err)
		}
	}
	return ImportResult{Summary: sum, Message: sum.Message("imported")}, nil
}

func newStudent(classID uuid.UUID, cand spreadsheet.StudentCandidate) models.Student {
	return models.Student{
		ID:            uuid.New(),
		ClassID:       classID,
		Name:          cand.Name,
		Email:         cand.Email,
		Gender:        cand.Gender,
		StudentNumber: cand.StudentNumber,
		Attitude:      cand.Attitude,
	}
}

// ImportGrades overwrites scores of the students matched in u. Columns the
// class does not know yet become new assessment types.
func (s *Service) ImportGrades(ctx context.Context, classID uuid.UUID, u Upload) (ImportResult, error) {
	res, err := s.importGrades(ctx, classID, u)
	s.finishImport(ctx, KindGrades, res, err)
	return res, err
}

func (s *Service) importGrades(ctx context.Context, classID uuid.UUID, u Upload) (ImportResult, error) {
	if s.store == nil {
		return ImportResult{}, ErrNotConfigured
	}
	h, rows, err := s.read(u, spreadsheet.GradeProfile)
	if err != nil {
		return ImportResult{}, err
	}
	c, err := s.store.GetClass(ctx, classID)
	if err != nil {
		return ImportResult{}, s.storeErr(ctx, "load class", err)
	}
	students, err := s.store.ListStudents(ctx, classID)
	if err != nil {
		return ImportResult{}, s.storeErr(ctx, "load students", err)
	}

	imp := spreadsheet.ReconcileGrades(h, rows, students, c.AssessmentTypes)

	updates := make(map[uuid.UUID]spreadsheet.GradeUpdate, len(imp.Updates))
	for _, up := range imp.Updates {
		updates[up.StudentID] = up
	}
	changed := make([]models.Student, 0, len(students))
	for _, st := range students {
		up, hit := updates[st.ID]
		if hit {
			st.Scores = up.Scores
			if up.Attitude != "" {
				st.Attitude = up.Attitude
			}
		}
		// unmatched students still need entries for the new columns
		if st.EnsureScores(imp.Types) || hit {
			changed = append(changed, st)
		}
	}
	// new columns and the score rewrites commit together
	switch {
	case len(imp.Added) > 0:
		c.AssessmentTypes = imp.Types
		err = s.store.UpdateClassAndStudents(ctx, c, changed)
	case len(changed) > 0:
		err = s.store.UpdateStudents(ctx, changed)
	}
	if err != nil {
		return ImportResult{}, s.batchErr(ctx, "import_grades", len(changed), err)
	}
	return ImportResult{Summary: imp.Summary, Message: imp.Summary.Message("updated"), Added: imp.Added}, nil
}

func (s *Service) finishImport(ctx context.Context, kind string, res ImportResult, err error) {
	log := logging.For(ctx, s.log).With(zap.String("kind", kind))
	if err != nil {
		outcome := "failed"
		if rejected(err) {
			outcome = "rejected"
		}
		metrics.Imports.WithLabelValues(kind, outcome).Inc()
		log.Warn("import "+outcome, zap.Error(err))
		return
	}
	metrics.Imports.WithLabelValues(kind, "ok").Inc()
	countRows(kind, res.Summary)
	log.Info("import done",
		zap.Int("accepted", res.Summary.Accepted),
		zap.Int("skipped", res.Summary.Skipped()),
		zap.Strings("added_types", res.Added))
}

var fileErrors = []error{
	spreadsheet.ErrFileType,
	spreadsheet.ErrFileTooLarge,
	spreadsheet.ErrTooManyRows,
	spreadsheet.ErrTooManyColumns,
	spreadsheet.ErrUnreadable,
	spreadsheet.ErrNoHeader,
	spreadsheet.ErrHeadersMismatch,
}

// rejected reports whether err is a problem with the file itself.
func rejected(err error) bool {
	for _, fe := range fileErrors {
		if errors.Is(err, fe) {
			return true
		}
	}
	return false
}
