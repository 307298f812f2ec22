package app

import (
	"sync"

	"github.com/google/uuid"
)

// ClassLimiter keeps two imports from running against the same class at
// once. Requests for different classes do not wait on each other.
type ClassLimiter struct {
	mu      sync.Mutex
	byClass map[uuid.UUID]*sync.Mutex
}

func NewClassLimiter() *ClassLimiter {
	return &ClassLimiter{byClass: make(map[uuid.UUID]*sync.Mutex)}
}

func (l *ClassLimiter) lock(classID uuid.UUID) func() {
	l.mu.Lock()
	m, ok := l.byClass[classID]
	if !ok {
		m = &sync.Mutex{}
		l.byClass[classID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return func() { m.Unlock() }
}
