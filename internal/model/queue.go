package model

import "time"

// QueueEntryStatus is the state of a queue entry
type QueueEntryStatus string

const (
	QueueWaiting QueueEntryStatus = "waiting"
	QueueActive  QueueEntryStatus = "active"
	QueueClosed  QueueEntryStatus = "closed"
)

// QueueEntry is one user's place in a tournament's registration queue
type QueueEntry struct {
	ID                   string
	TournamentID         TournamentID
	UserID               UserID
	Status               QueueEntryStatus
	Position             int // 1-based while waiting, 0 once active
	EstimatedWaitSeconds int
	Token                string
	JoinedAt             time.Time
	ExpiresAt            time.Time
	HoldsSlot            bool // A ledger slot was reserved for this entry
}

// Expired reports whether a waiting entry has passed its expiry time
func (e *QueueEntry) Expired(now time.Time) bool {
	return e.Status == QueueWaiting && !now.Before(e.ExpiresAt)
}

// RegistrationQueue is the FIFO wait line for a tournament.
// Waiting entries are kept in join order; active entries are kept until they expire.
type RegistrationQueue struct {
	TournamentID TournamentID
	Entries      []QueueEntry
}

// NewRegistrationQueue returns an empty queue for a tournament
func NewRegistrationQueue(id TournamentID) *RegistrationQueue {
	return &RegistrationQueue{
		TournamentID: id,
		Entries:      []QueueEntry{},
	}
}

// Find returns the entry for a user, or nil if the user is not queued
func (q *RegistrationQueue) Find(userID UserID) *QueueEntry {
	for i := range q.Entries {
		if q.Entries[i].UserID == userID {
			return &q.Entries[i]
		}
	}
	return nil
}

// WaitingCount returns the number of entries still waiting
func (q *RegistrationQueue) WaitingCount() int {
	n := 0
	for _, e := range q.Entries {
		if e.Status == QueueWaiting {
			n++
		}
	}
	return n
}
