package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Pandoravox1/attendify-sub000/internal/metrics"
	"github.com/Pandoravox1/attendify-sub000/internal/models"
)

var (
	ErrInvalidStatus = errors.New("ledger: unknown attendance status")
	ErrNoClass       = errors.New("ledger: no class opened")
)

// Store is the part of the persisted store the ledger writes through.
type Store interface {
	StudentClass(ctx context.Context, studentID uuid.UUID) (uuid.UUID, error)
	UpsertAttendance(ctx context.Context, rec models.AttendanceRecord) (models.AttendanceRecord, error)
	AttendanceOn(ctx context.Context, classID uuid.UUID, date time.Time) ([]models.AttendanceRecord, error)
}

type Entry struct {
	Status         models.Status
	AttendanceTime *time.Time
	Comment        *string
}

// History maps student id to that student's record on one date. Students
// without a record are absent from the map.
type History map[uuid.UUID]Entry

func (h History) clone() History {
	out := make(History, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}

// Ledger keeps two read caches for one class: the date being viewed and
// today. Writes go to the store first; a cache is touched only when the
// written date is its date.
type Ledger struct {
	store Store
	log   *zap.Logger
	loc   *time.Location
	now   func() time.Time

	mu         sync.Mutex
	classID    uuid.UUID
	viewedDate time.Time
	viewed     History
	todayDate  time.Time
	today      History
}

func New(store Store, log *zap.Logger, loc *time.Location) *Ledger {
	if loc == nil {
		loc = time.Local
	}
	return &Ledger{store: store, log: log, loc: loc, now: time.Now}
}

// Today is the current calendar date in the ledger's location.
func (l *Ledger) Today() time.Time { return models.Day(l.now().In(l.loc)) }

// Open loads today's records for classID and makes today the viewed date.
func (l *Ledger) Open(ctx context.Context, classID uuid.UUID) error {
	today := l.Today()
	h, err := l.LoadHistory(ctx, classID, today)
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.classID = classID
	l.todayDate, l.today = today, h
	l.viewedDate, l.viewed = today, h.clone()
	return nil
}

// View switches the viewed date, reloads its records and returns a copy of
// exactly what it loaded. Callers sharing the ledger must use the returned
// History rather than a later Viewed, which may already show another date.
func (l *Ledger) View(ctx context.Context, date time.Time) (History, error) {
	l.mu.Lock()
	classID := l.classID
	l.mu.Unlock()
	if classID == uuid.Nil {
		return nil, ErrNoClass
	}
	date = models.Day(date)
	h, err := l.LoadHistory(ctx, classID, date)
	if err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.viewedDate, l.viewed = date, h
	return h.clone(), nil
}

// LoadHistory reads every record of classID on date.
func (l *Ledger) LoadHistory(ctx context.Context, classID uuid.UUID, date time.Time) (History, error) {
	recs, err := l.store.AttendanceOn(ctx, classID, models.Day(date))
	if err != nil {
		return nil, fmt.Errorf("load attendance %s: %w", date.Format(models.DateLayout), err)
	}
	h := make(History, len(recs))
	for _, r := range recs {
		h[r.StudentID] = Entry{Status: r.Status, AttendanceTime: r.AttendanceTime, Comment: r.Comment}
	}
	return h, nil
}

// SetStatus records status for a student on date. Present and Late get a
// timestamp; Sick, Excused and Unexcused keep the trimmed comment.
func (l *Ledger) SetStatus(ctx context.Context, studentID uuid.UUID, status models.Status, date time.Time, comment string) (Entry, error) {
	if !status.Valid() {
		return Entry{}, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	classID, err := l.store.StudentClass(ctx, studentID)
	if err != nil {
		return Entry{}, fmt.Errorf("resolve class of %s: %w", studentID, err)
	}

	rec := models.AttendanceRecord{
		StudentID: studentID,
		ClassID:   classID,
		Date:      models.Day(date),
		Status:    status,
	}
	if status.Stamped() {
		ts := l.now()
		rec.AttendanceTime = &ts
	}
	if status.Commentable() {
		if c := strings.TrimSpace(comment); c != "" {
			rec.Comment = &c
		}
	}

	saved, err := l.store.UpsertAttendance(ctx, rec)
	if err != nil {
		metrics.AttendanceWrites.WithLabelValues("error").Inc()
		return Entry{}, fmt.Errorf("upsert attendance: %w", err)
	}
	metrics.AttendanceWrites.WithLabelValues(status.Label()).Inc()

	e := Entry{Status: saved.Status, AttendanceTime: saved.AttendanceTime, Comment: saved.Comment}
	l.mu.Lock()
	defer l.mu.Unlock()
	if classID == l.classID {
		if l.viewed != nil && rec.Date.Equal(l.viewedDate) {
			l.viewed[studentID] = e
		}
		if l.today != nil && rec.Date.Equal(l.todayDate) {
			l.today[studentID] = e
		}
	}
	return e, nil
}

// Viewed returns a copy of the viewed-date cache.
func (l *Ledger) Viewed() (time.Time, History) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.viewedDate, l.viewed.clone()
}

// TodayRecords returns a copy of the today cache.
func (l *Ledger) TodayRecords() (time.Time, History) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.todayDate, l.today.clone()
}

// Rollover reloads the today cache once the calendar day has changed. A
// viewer still looking at the old today follows along.
func (l *Ledger) Rollover(ctx context.Context) (bool, error) {
	today := l.Today()
	l.mu.Lock()
	classID, prev := l.classID, l.todayDate
	l.mu.Unlock()
	if classID == uuid.Nil || prev.Equal(today) {
		return false, nil
	}

	h, err := l.LoadHistory(ctx, classID, today)
	if err != nil {
		return false, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.viewedDate.Equal(prev) {
		l.viewedDate, l.viewed = today, h.clone()
	}
	l.todayDate, l.today = today, h
	if l.log != nil {
		l.log.Info("attendance day rollover",
			zap.String("class_id", classID.String()),
			zap.String("from", prev.Format(models.DateLayout)),
			zap.String("to", today.Format(models.DateLayout)))
	}
	return true, nil
}
