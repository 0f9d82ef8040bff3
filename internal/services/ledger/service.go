package ledger

import (
	"context"
	"fmt"

	"github.com/mcoot/tourneygate/internal/dependencies/clock"
	"github.com/mcoot/tourneygate/internal/model"
	"github.com/mcoot/tourneygate/internal/storage"
)

// Outcome is the result of a reservation attempt
type Outcome string

const (
	Accepted   Outcome = "accepted"
	Waitlisted Outcome = "waitlisted"
	Full       Outcome = "full"
)

// Service tracks registration and waitlist counts per tournament.
// Every method mutates the tournament it is given and persists it, so callers
// must hold that tournament's lock for the whole read-modify-write.
type Service struct {
	repo  storage.TournamentRepository
	clock clock.Clock
}

// New creates a new ledger service
func New(repo storage.TournamentRepository, clock clock.Clock) *Service {
	return &Service{
		repo:  repo,
		clock: clock,
	}
}

// TryReserve claims a primary slot if one is free, otherwise a waitlist place
func (s *Service) TryReserve(ctx context.Context, t *model.Tournament) (Outcome, error) {
	var outcome Outcome
	switch {
	case t.CurrentRegistrations < t.MaxCapacity:
		t.CurrentRegistrations++
		outcome = Accepted
	case t.RemainingWaitlist() > 0:
		t.CurrentWaitlist++
		outcome = Waitlisted
	default:
		return Full, nil
	}

	if err := s.save(ctx, t); err != nil {
		// Leave the caller's copy consistent with what is stored
		if outcome == Accepted {
			t.CurrentRegistrations--
		} else {
			t.CurrentWaitlist--
		}
		return "", err
	}
	return outcome, nil
}

// Release returns a primary slot claimed by TryReserve
func (s *Service) Release(ctx context.Context, t *model.Tournament) error {
	if t.CurrentRegistrations == 0 {
		return nil
	}
	t.CurrentRegistrations--
	if err := s.save(ctx, t); err != nil {
		t.CurrentRegistrations++
		return err
	}
	return nil
}

// Commit records lottery winners as registrations and lottery waitlisters as waitlist places.
// Counts are clamped to what is still free; the committed counts are returned.
func (s *Service) Commit(ctx context.Context, t *model.Tournament, winners, waitlisted int) (int, int, error) {
	w := min(max(winners, 0), t.RemainingCapacity())
	wl := min(max(waitlisted, 0), t.RemainingWaitlist())
	if w == 0 && wl == 0 {
		return 0, 0, nil
	}

	t.CurrentRegistrations += w
	t.CurrentWaitlist += wl
	if err := s.save(ctx, t); err != nil {
		t.CurrentRegistrations -= w
		t.CurrentWaitlist -= wl
		return 0, 0, err
	}
	return w, wl, nil
}

// Revert undoes a Commit whose lottery outcome could not be persisted
func (s *Service) Revert(ctx context.Context, t *model.Tournament, winners, waitlisted int) error {
	t.CurrentRegistrations = max(t.CurrentRegistrations-winners, 0)
	t.CurrentWaitlist = max(t.CurrentWaitlist-waitlisted, 0)
	return s.save(ctx, t)
}

func (s *Service) save(ctx context.Context, t *model.Tournament) error {
	if t.CurrentRegistrations > t.MaxCapacity {
		return fmt.Errorf("tournament %s: %w", t.ID, model.ErrOverCapacity)
	}
	t.UpdatedAt = s.clock.Now()
	if err := s.repo.SaveTournament(ctx, t); err != nil {
		return fmt.Errorf("save tournament %s: %w", t.ID, err)
	}
	return nil
}
