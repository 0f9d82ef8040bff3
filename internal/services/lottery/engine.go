package lottery

import (
	"context"
	"log/slog"

	"github.com/mcoot/tourneygate/internal/dependencies/clock"
	"github.com/mcoot/tourneygate/internal/dependencies/random"
	"github.com/mcoot/tourneygate/internal/model"
	"github.com/mcoot/tourneygate/internal/services/priority"
	"github.com/mcoot/tourneygate/internal/storage"
)

// Engine owns the lottery state transitions open -> in progress -> drawn.
// Mutating methods must be called while holding the tournament's lock;
// Compute is the exception and is meant to run without it.
type Engine struct {
	store     storage.StateStore
	predicate priority.Predicate
	random    random.Random
	clock     clock.Clock
	logger    *slog.Logger
}

// NewEngine creates a new lottery engine
func NewEngine(
	store storage.StateStore,
	predicate priority.Predicate,
	random random.Random,
	clock clock.Clock,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		store:     store,
		predicate: predicate,
		random:    random,
		clock:     clock,
		logger:    logger,
	}
}

// State returns the current lottery state of a tournament
func (e *Engine) State(ctx context.Context, id model.TournamentID) (*model.LotteryState, error) {
	return e.store.GetLotteryState(ctx, id)
}

// Enter adds a user to the entry set. Entering twice is a no-op that reports added=false.
func (e *Engine) Enter(ctx context.Context, id model.TournamentID, userID model.UserID) (state *model.LotteryState, added bool, err error) {
	state, err = e.store.GetLotteryState(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if state.InProgress {
		return state, false, model.ErrLotteryInProgress
	}
	if state.Drawn {
		return state, false, model.ErrLotteryAlreadyDrawn
	}

	if !state.AddEntry(userID) {
		return state, false, nil
	}
	if err := e.store.SaveLotteryState(ctx, state); err != nil {
		return nil, false, err
	}
	return state, true, nil
}

// Begin marks the lottery in progress and returns the entry snapshot to draw from
func (e *Engine) Begin(ctx context.Context, id model.TournamentID) ([]model.UserID, error) {
	state, err := e.store.GetLotteryState(ctx, id)
	if err != nil {
		return nil, err
	}
	if state.InProgress {
		return nil, model.ErrLotteryInProgress
	}
	if state.Drawn {
		return nil, model.ErrLotteryAlreadyDrawn
	}

	state.InProgress = true
	if err := e.store.SaveLotteryState(ctx, state); err != nil {
		return nil, err
	}

	e.logger.Info("lottery draw started",
		slog.String("tournament_id", string(id)),
		slog.Int("entries", len(state.Entries)),
	)
	return state.Entries, nil
}

// Compute evaluates group membership for the snapshot and runs the draw.
// Slots and waitlist size come from the tournament's free capacity, capped by settings.
func (e *Engine) Compute(ctx context.Context, t *model.Tournament, entries []model.UserID, settings model.LotterySettings) Selection {
	groups := t.GroupsByPriority()
	membership := make(map[model.UserID][]string, len(entries))
	if len(groups) > 0 {
		for _, u := range entries {
			ids, err := priority.Groups(ctx, e.predicate, u, groups)
			if err != nil {
				// Treated as belonging to no group
				e.logger.Warn("priority lookup failed",
					slog.String("tournament_id", string(t.ID)),
					slog.String("user_id", string(u)),
					slog.String("error", err.Error()),
				)
				continue
			}
			membership[u] = ids
		}
	}

	slots, waitlist := Plan(t, settings)
	return Draw(e.random, DrawInput{
		Entries:      entries,
		Groups:       groups,
		Membership:   membership,
		Slots:        slots,
		WaitlistSize: waitlist,
	})
}

// Commit persists a selection as the terminal lottery state
func (e *Engine) Commit(ctx context.Context, id model.TournamentID, sel Selection) (*model.LotteryResult, error) {
	state, err := e.store.GetLotteryState(ctx, id)
	if err != nil {
		return nil, err
	}
	if state.Drawn {
		return nil, model.ErrLotteryAlreadyDrawn
	}

	now := e.clock.Now()
	state.InProgress = false
	state.Drawn = true
	state.Winners = sel.Winners
	state.Waitlist = sel.Waitlist
	state.Statistics = sel.Statistics
	state.DrawnAt = &now

	if err := e.store.SaveLotteryState(ctx, state); err != nil {
		return nil, err
	}

	e.logger.Info("lottery drawn",
		slog.String("tournament_id", string(id)),
		slog.Int("winners", len(sel.Winners)),
		slog.Int("waitlist", len(sel.Waitlist)),
		slog.Int("guaranteed", sel.Statistics.Guaranteed),
	)
	return state.Result(), nil
}

// Abort clears the in-progress flag after a failed draw so the lottery can be drawn again
func (e *Engine) Abort(ctx context.Context, id model.TournamentID) error {
	state, err := e.store.GetLotteryState(ctx, id)
	if err != nil {
		return err
	}
	if !state.InProgress {
		return nil
	}
	state.InProgress = false
	return e.store.SaveLotteryState(ctx, state)
}

// IsWinner reports whether the user won a completed draw
func (e *Engine) IsWinner(ctx context.Context, id model.TournamentID, userID model.UserID) (bool, error) {
	state, err := e.store.GetLotteryState(ctx, id)
	if err != nil {
		return false, err
	}
	return state.IsWinner(userID), nil
}

// InProgress reports whether a draw is currently running
func (e *Engine) InProgress(ctx context.Context, id model.TournamentID) (bool, error) {
	state, err := e.store.GetLotteryState(ctx, id)
	if err != nil {
		return false, err
	}
	return state.InProgress, nil
}

// EntryCount returns the number of distinct entrants
func (e *Engine) EntryCount(ctx context.Context, id model.TournamentID) (int, error) {
	state, err := e.store.GetLotteryState(ctx, id)
	if err != nil {
		return 0, err
	}
	return len(state.Entries), nil
}

// Plan returns the number of winner slots and waitlist places a draw may fill
func Plan(t *model.Tournament, settings model.LotterySettings) (slots, waitlist int) {
	slots = t.RemainingCapacity()
	if settings.MaxWinners > 0 {
		slots = min(slots, settings.MaxWinners)
	}
	waitlist = t.RemainingWaitlist()
	if settings.WaitlistSize > 0 {
		waitlist = min(waitlist, settings.WaitlistSize)
	}
	return slots, waitlist
}

// Trim shortens a selection to what the ledger actually committed
func (s *Selection) Trim(winners, waitlisted int) {
	if winners < len(s.Winners) {
		s.Winners = s.Winners[:winners]
	}
	if waitlisted < len(s.Waitlist) {
		s.Waitlist = s.Waitlist[:waitlisted]
	}
	s.Statistics.WaitlistSize = len(s.Waitlist)
}
