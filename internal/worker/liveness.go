package worker

import (
	"sync"
	"time"
)

// Worker names reported on the health endpoint.
const (
	NameSweeper   = "sweeper"
	NamePublisher = "publisher"
	NameConsumer  = "consumer"
)

// Liveness records the last completed cycle per worker. Shared between the
// workers and the health endpoint; safe for concurrent use.
type Liveness struct {
	mu         sync.RWMutex
	lastCycles map[string]time.Time
}

func NewLiveness() *Liveness {
	return &Liveness{lastCycles: make(map[string]time.Time)}
}

func (l *Liveness) Beat(name string, at time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lastCycles[name] = at
}

func (l *Liveness) LastCycle(name string) (time.Time, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	t, ok := l.lastCycles[name]
	return t, ok
}
