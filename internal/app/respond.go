package app

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/Pandoravox1/attendify-sub000/internal/classroom"
	"github.com/Pandoravox1/attendify-sub000/internal/db"
	"github.com/Pandoravox1/attendify-sub000/internal/export"
	"github.com/Pandoravox1/attendify-sub000/internal/ledger"
	"github.com/Pandoravox1/attendify-sub000/internal/logging"
	"github.com/Pandoravox1/attendify-sub000/internal/metrics"
	"github.com/Pandoravox1/attendify-sub000/internal/observability"
	"github.com/Pandoravox1/attendify-sub000/internal/schedule"
	"github.com/Pandoravox1/attendify-sub000/internal/spreadsheet"
)

var errInvalidSchedule = errors.New("app: invalid schedule entry")

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

var statusFor = []struct {
	err    error
	status int
}{
	{classroom.ErrNotConfigured, http.StatusServiceUnavailable},
	{classroom.ErrReauthFailed, http.StatusForbidden},
	{spreadsheet.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
	{spreadsheet.ErrFileType, http.StatusUnsupportedMediaType},
	{spreadsheet.ErrTooManyRows, http.StatusUnprocessableEntity},
	{spreadsheet.ErrTooManyColumns, http.StatusUnprocessableEntity},
	{spreadsheet.ErrUnreadable, http.StatusUnprocessableEntity},
	{spreadsheet.ErrNoHeader, http.StatusUnprocessableEntity},
	{spreadsheet.ErrHeadersMismatch, http.StatusUnprocessableEntity},
	{classroom.ErrInvalidClass, http.StatusBadRequest},
	{classroom.ErrInvalidStudent, http.StatusBadRequest},
	{classroom.ErrDuplicateStudent, http.StatusConflict},
	{classroom.ErrDuplicateAssessment, http.StatusConflict},
	{classroom.ErrUnknownAssessment, http.StatusBadRequest},
	{classroom.ErrLastAssessmentType, http.StatusBadRequest},
	{ledger.ErrInvalidStatus, http.StatusBadRequest},
	{export.ErrBadRange, http.StatusBadRequest},
	{export.ErrRangeOrder, http.StatusBadRequest},
	{export.ErrRangeTooLong, http.StatusBadRequest},
	{schedule.ErrBadTime, http.StatusBadRequest},
	{schedule.ErrEndFirst, http.StatusBadRequest},
	{schedule.ErrNoDate, http.StatusBadRequest},
	{schedule.ErrSunday, http.StatusBadRequest},
	{schedule.ErrWrongDay, http.StatusBadRequest},
	{errInvalidSchedule, http.StatusBadRequest},
	{db.ErrNotFound, http.StatusNotFound},
	{db.ErrConflict, http.StatusConflict},
}

// writeErr answers with the status and user-facing message for err.
// Anything unexpected is logged, reported and counted.
func (a *api) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	for _, s := range statusFor {
		if errors.Is(err, s.err) {
			writeJSON(w, s.status, errorBody{Error: message(err)})
			return
		}
	}
	metrics.HandlerErrors.Inc()
	logging.For(r.Context(), a.Log).Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	observability.CaptureCtx(r.Context(), err)
	writeJSON(w, http.StatusInternalServerError, errorBody{Error: classroom.UserMessage(err)})
}

func message(err error) string {
	switch {
	case errors.Is(err, ledger.ErrInvalidStatus):
		return "Unknown attendance status."
	case errors.Is(err, export.ErrBadRange), errors.Is(err, export.ErrRangeOrder):
		return "Pick a daily, weekly, monthly or custom range with a valid start and end."
	case errors.Is(err, export.ErrRangeTooLong):
		return "Custom ranges are limited to about three months."
	case errors.Is(err, errInvalidSchedule):
		return "Please check the lesson details."
	}
	return classroom.UserMessage(err)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: msg})
}
