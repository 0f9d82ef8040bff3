package registration

import (
	"sync"

	"github.com/mcoot/tourneygate/internal/model"
)

// lockSet hands out one mutex per tournament, created on first use
type lockSet struct {
	mu    sync.Mutex
	locks map[model.TournamentID]*sync.Mutex
}

func newLockSet() *lockSet {
	return &lockSet{locks: make(map[model.TournamentID]*sync.Mutex)}
}

// lock acquires the tournament's mutex and returns its unlock function
func (l *lockSet) lock(id model.TournamentID) func() {
	l.mu.Lock()
	m, ok := l.locks[id]
	if !ok {
		m = &sync.Mutex{}
		l.locks[id] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
