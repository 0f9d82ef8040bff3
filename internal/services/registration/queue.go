package registration

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mcoot/tourneygate/internal/model"
)

// JoinQueue places the user in the tournament's wait line without reserving a slot
func (c *Controller) JoinQueue(ctx context.Context, id model.TournamentID, userID model.UserID, cfg model.RegistrationConfig) (*model.QueueEntry, error) {
	if userID == "" {
		return nil, model.ErrInvalidUserID
	}
	cfg = cfg.WithDefaults()

	unlock := c.locks.lock(id)
	defer unlock()

	t, err := c.tournaments.GetTournament(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := c.expireLocked(ctx, t); err != nil {
		return nil, err
	}
	return c.queue.Join(ctx, id, userID, cfg, false)
}

// QueueStatus returns the user's queue entry
func (c *Controller) QueueStatus(ctx context.Context, id model.TournamentID, userID model.UserID) (*model.QueueEntry, error) {
	unlock := c.locks.lock(id)
	defer unlock()
	return c.queue.Status(ctx, id, userID)
}

// DrainQueue activates the next cfg.QueueBatchSize waiting entries
func (c *Controller) DrainQueue(ctx context.Context, id model.TournamentID, cfg model.RegistrationConfig) ([]model.QueueEntry, error) {
	cfg = cfg.WithDefaults()

	unlock := c.locks.lock(id)
	defer unlock()

	t, err := c.tournaments.GetTournament(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := c.expireLocked(ctx, t); err != nil {
		return nil, err
	}
	return c.queue.Drain(ctx, id, cfg.QueueBatchSize, cfg.QueueTimeout())
}

// DrainQueues drains one batch from every tournament's queue and returns how many entries were activated
func (c *Controller) DrainQueues(ctx context.Context, cfg model.RegistrationConfig) (int, error) {
	tournaments, err := c.tournaments.ListTournaments(ctx)
	if err != nil {
		return 0, err
	}

	var errs []error
	total := 0
	for _, t := range tournaments {
		activated, err := c.DrainQueue(ctx, t.ID, cfg)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		total += len(activated)
	}
	return total, errors.Join(errs...)
}

// ExpireQueues drops stale entries from every tournament's queue, returning held slots
// to the ledger, and reports how many entries expired
func (c *Controller) ExpireQueues(ctx context.Context) (int, error) {
	tournaments, err := c.tournaments.ListTournaments(ctx)
	if err != nil {
		return 0, err
	}

	var errs []error
	total := 0
	for _, summary := range tournaments {
		n, err := func() (int, error) {
			unlock := c.locks.lock(summary.ID)
			defer unlock()

			// Reload under the lock; the listed copy may be stale
			t, err := c.tournaments.GetTournament(ctx, summary.ID)
			if err != nil {
				return 0, err
			}
			expired, err := c.queue.Expire(ctx, t.ID)
			if err != nil {
				return 0, err
			}
			return len(expired), c.releaseExpired(ctx, t, expired)
		}()
		if err != nil {
			errs = append(errs, err)
		}
		total += n
	}
	return total, errors.Join(errs...)
}

// expireLocked drops stale queue entries and returns their held slots
func (c *Controller) expireLocked(ctx context.Context, t *model.Tournament) error {
	expired, err := c.queue.Expire(ctx, t.ID)
	if err != nil {
		return err
	}
	return c.releaseExpired(ctx, t, expired)
}

func (c *Controller) releaseExpired(ctx context.Context, t *model.Tournament, expired []model.QueueEntry) error {
	released := 0
	for _, e := range expired {
		if !e.HoldsSlot {
			continue
		}
		if err := c.ledger.Release(ctx, t); err != nil {
			return err
		}
		released++
	}
	if released > 0 {
		c.logger.Info("released slots of expired queue entries",
			slog.String("tournament_id", string(t.ID)),
			slog.Int("released", released),
		)
	}
	return nil
}
