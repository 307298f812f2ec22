package ledger

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Registry hands out one Ledger per class so concurrent requests for the
// same class share its caches.
type Registry struct {
	store Store
	log   *zap.Logger
	loc   *time.Location

	mu      sync.Mutex
	byClass map[uuid.UUID]*Ledger
}

func NewRegistry(store Store, log *zap.Logger, loc *time.Location) *Registry {
	return &Registry{store: store, log: log, loc: loc, byClass: make(map[uuid.UUID]*Ledger)}
}

// For returns the class's ledger, opening it on first use.
func (r *Registry) For(ctx context.Context, classID uuid.UUID) (*Ledger, error) {
	r.mu.Lock()
	l, ok := r.byClass[classID]
	r.mu.Unlock()
	if ok {
		return l, nil
	}

	l = New(r.store, r.log, r.loc)
	if err := l.Open(ctx, classID); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.byClass[classID]; ok {
		return cur, nil
	}
	r.byClass[classID] = l
	return l, nil
}

// Forget drops a class's ledger, e.g. after the class is deleted.
func (r *Registry) Forget(classID uuid.UUID) {
	r.mu.Lock()
	delete(r.byClass, classID)
	r.mu.Unlock()
}

// Rollover runs the day-change check on every open ledger.
func (r *Registry) Rollover(ctx context.Context) error {
	r.mu.Lock()
	ls := make([]*Ledger, 0, len(r.byClass))
	for _, l := range r.byClass {
		ls = append(ls, l)
	}
	r.mu.Unlock()

	var errs []error
	for _, l := range ls {
		if _, err := l.Rollover(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
