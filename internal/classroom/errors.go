package classroom

import (
	"errors"

	"github.com/Pandoravox1/attendify-sub000/internal/db"
	"github.com/Pandoravox1/attendify-sub000/internal/schedule"
	"github.com/Pandoravox1/attendify-sub000/internal/spreadsheet"
)

var (
	ErrNotConfigured       = errors.New("classroom: store is not configured")
	ErrInvalidClass        = errors.New("classroom: invalid class")
	ErrInvalidStudent      = errors.New("classroom: invalid student")
	ErrDuplicateStudent    = errors.New("classroom: student number or email already used in this class")
	ErrDuplicateAssessment = errors.New("classroom: assessment type already exists")
	ErrUnknownAssessment   = errors.New("classroom: unknown assessment type")
	ErrLastAssessmentType  = errors.New("classroom: a class needs at least one assessment type")
	ErrReauthFailed        = errors.New("classroom: password confirmation failed")
	ErrBatchFailed         = errors.New("classroom: batch was not applied")
)

// Re-exported so callers only need this package for the whole taxonomy.
var (
	ErrFileType        = spreadsheet.ErrFileType
	ErrFileTooLarge    = spreadsheet.ErrFileTooLarge
	ErrTooManyRows     = spreadsheet.ErrTooManyRows
	ErrTooManyColumns  = spreadsheet.ErrTooManyColumns
	ErrHeadersMismatch = spreadsheet.ErrHeadersMismatch
	ErrNoHeader        = spreadsheet.ErrNoHeader
)

var userMessages = []struct {
	err error
	msg string
}{
	{ErrNotConfigured, "Storage is not configured. Changes cannot be saved."},
	{ErrInvalidClass, "Please check the class details."},
	{ErrInvalidStudent, "Please check the student details."},
	{ErrDuplicateStudent, "A student with this number or email already exists in the class."},
	{ErrDuplicateAssessment, "That assessment type already exists."},
	{ErrUnknownAssessment, "That assessment type does not exist in this class."},
	{ErrLastAssessmentType, "A class must keep at least one assessment type."},
	{ErrReauthFailed, "Password is incorrect."},
	{ErrBatchFailed, "Some changes could not be saved. Nothing was changed."},
	{spreadsheet.ErrFileType, "Only .xlsx files are supported."},
	{spreadsheet.ErrFileTooLarge, "File is too large (max 5 MB)."},
	{spreadsheet.ErrTooManyRows, "File has too many rows."},
	{spreadsheet.ErrTooManyColumns, "File has too many columns."},
	{spreadsheet.ErrUnreadable, "File could not be read."},
	{spreadsheet.ErrNoHeader, "File is empty."},
	{spreadsheet.ErrHeadersMismatch, "Headers do not match the template."},
	{schedule.ErrBadTime, "Times must look like 07:30."},
	{schedule.ErrEndFirst, "End time must be after start time."},
	{schedule.ErrNoDate, "Pick a date for a one-off lesson."},
	{schedule.ErrSunday, "Lessons cannot be scheduled on Sunday."},
	{schedule.ErrWrongDay, "The date does not fall on the chosen day."},
	{db.ErrNotFound, "Not found."},
	{db.ErrConflict, "That record already exists."},
}

// UserMessage turns any error from this package's operations into text
// that can be shown to the teacher. Unknown errors get a generic message.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	for _, m := range userMessages {
		if errors.Is(err, m.err) {
			return m.msg
		}
	}
	return "Something went wrong. Please try again."
}
