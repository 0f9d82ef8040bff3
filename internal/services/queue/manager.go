package queue

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/mcoot/tourneygate/internal/dependencies/clock"
	"github.com/mcoot/tourneygate/internal/model"
	"github.com/mcoot/tourneygate/internal/storage"
)

// ServiceInterval is the assumed time to serve one queue position
const ServiceInterval = 30 * time.Second

// Manager maintains the FIFO wait line of each tournament.
// Callers must hold the tournament's lock around every method.
type Manager struct {
	store  storage.StateStore
	clock  clock.Clock
	logger *slog.Logger
}

// NewManager creates a new queue manager
func NewManager(store storage.StateStore, clock clock.Clock, logger *slog.Logger) *Manager {
	return &Manager{
		store:  store,
		clock:  clock,
		logger: logger,
	}
}

// Join appends the user to the wait line, or returns the user's existing entry.
// holdsSlot records that a ledger slot was reserved on the user's behalf.
func (m *Manager) Join(ctx context.Context, id model.TournamentID, userID model.UserID, cfg model.RegistrationConfig, holdsSlot bool) (*model.QueueEntry, error) {
	if userID == "" {
		return nil, model.ErrInvalidUserID
	}

	q, err := m.store.GetQueue(ctx, id)
	if err != nil {
		return nil, err
	}

	if existing := q.Find(userID); existing != nil {
		e := *existing
		return &e, nil
	}

	waiting := q.WaitingCount()
	if waiting >= cfg.MaxQueueSize {
		return nil, model.ErrQueueFull
	}

	now := m.clock.Now()
	position := waiting + 1
	entry := model.QueueEntry{
		ID:                   uuid.NewString(),
		TournamentID:         id,
		UserID:               userID,
		Status:               model.QueueWaiting,
		Position:             position,
		EstimatedWaitSeconds: estimate(position),
		Token:                uuid.NewString(),
		JoinedAt:             now,
		ExpiresAt:            now.Add(cfg.QueueTimeout()),
		HoldsSlot:            holdsSlot,
	}
	q.Entries = append(q.Entries, entry)

	if err := m.store.SaveQueue(ctx, q); err != nil {
		return nil, err
	}

	m.logger.Debug("joined queue",
		slog.String("tournament_id", string(id)),
		slog.String("user_id", string(userID)),
		slog.Int("position", position),
	)
	return &entry, nil
}

// Status returns the user's current entry
func (m *Manager) Status(ctx context.Context, id model.TournamentID, userID model.UserID) (*model.QueueEntry, error) {
	q, err := m.store.GetQueue(ctx, id)
	if err != nil {
		return nil, err
	}
	e := q.Find(userID)
	if e == nil {
		return nil, model.ErrNotInQueue
	}
	out := *e
	return &out, nil
}

// Drain activates up to batch waiting entries in join order and renumbers the rest from 1.
// Activated entries get a fresh timeout window to claim their turn.
func (m *Manager) Drain(ctx context.Context, id model.TournamentID, batch int, timeout time.Duration) ([]model.QueueEntry, error) {
	if batch <= 0 {
		return nil, model.ErrInvalidBatch
	}

	q, err := m.store.GetQueue(ctx, id)
	if err != nil {
		return nil, err
	}

	now := m.clock.Now()
	var activated []model.QueueEntry
	position := 0
	for i := range q.Entries {
		e := &q.Entries[i]
		if e.Status != model.QueueWaiting {
			continue
		}
		if len(activated) < batch {
			e.Status = model.QueueActive
			e.Position = 0
			e.EstimatedWaitSeconds = 0
			e.ExpiresAt = now.Add(timeout)
			activated = append(activated, *e)
			continue
		}
		position++
		e.Position = position
		e.EstimatedWaitSeconds = estimate(position)
	}

	if len(activated) == 0 {
		return activated, nil
	}
	if err := m.store.SaveQueue(ctx, q); err != nil {
		return nil, err
	}

	m.logger.Info("queue drained",
		slog.String("tournament_id", string(id)),
		slog.Int("activated", len(activated)),
		slog.Int("waiting", position),
	)
	return activated, nil
}

// Expire drops waiting entries past their expiry and active entries past their claim window.
// Remaining waiting entries are renumbered. The dropped waiting entries are returned so
// the caller can release any slots they held.
func (m *Manager) Expire(ctx context.Context, id model.TournamentID) ([]model.QueueEntry, error) {
	q, err := m.store.GetQueue(ctx, id)
	if err != nil {
		return nil, err
	}

	now := m.clock.Now()
	var expired []model.QueueEntry
	dropped := 0
	q.Entries = slices.DeleteFunc(q.Entries, func(e model.QueueEntry) bool {
		switch {
		case e.Expired(now):
			expired = append(expired, e)
		case e.Status != model.QueueWaiting && !now.Before(e.ExpiresAt):
		default:
			return false
		}
		dropped++
		return true
	})

	if dropped == 0 {
		return nil, nil
	}

	renumber(q)
	if err := m.store.SaveQueue(ctx, q); err != nil {
		return nil, err
	}

	if len(expired) > 0 {
		m.logger.Info("queue entries expired",
			slog.String("tournament_id", string(id)),
			slog.Int("expired", len(expired)),
		)
	}
	return expired, nil
}

// Waiting returns the number of entries still waiting
func (m *Manager) Waiting(ctx context.Context, id model.TournamentID) (int, error) {
	q, err := m.store.GetQueue(ctx, id)
	if err != nil {
		return 0, err
	}
	return q.WaitingCount(), nil
}

func renumber(q *model.RegistrationQueue) {
	position := 0
	for i := range q.Entries {
		if q.Entries[i].Status != model.QueueWaiting {
			continue
		}
		position++
		q.Entries[i].Position = position
		q.Entries[i].EstimatedWaitSeconds = estimate(position)
	}
}

func estimate(position int) int {
	return position * int(ServiceInterval/time.Second)
}
