package registration

import (
	"context"
	"errors"

	"github.com/mcoot/tourneygate/internal/model"
)

// PutTournament creates or replaces a tournament definition. CreatedAt is kept from
// the stored copy when one exists.
func (c *Controller) PutTournament(ctx context.Context, t *model.Tournament) (*model.Tournament, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}

	unlock := c.locks.lock(t.ID)
	defer unlock()

	now := c.clock.Now()
	existing, err := c.tournaments.GetTournament(ctx, t.ID)
	switch {
	case errors.Is(err, model.ErrTournamentNotFound):
		t.CreatedAt = now
	case err != nil:
		return nil, err
	default:
		t.CreatedAt = existing.CreatedAt
	}
	t.UpdatedAt = now
	if t.Status == "" {
		t.Status = model.TournamentRegistration
	}

	if err := c.tournaments.SaveTournament(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// GetTournament returns a tournament from the external store
func (c *Controller) GetTournament(ctx context.Context, id model.TournamentID) (*model.Tournament, error) {
	return c.tournaments.GetTournament(ctx, id)
}

// ListTournaments returns every known tournament
func (c *Controller) ListTournaments(ctx context.Context) ([]*model.Tournament, error) {
	return c.tournaments.ListTournaments(ctx)
}
