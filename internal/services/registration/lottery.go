package registration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mcoot/tourneygate/internal/model"
)

// DrawLottery forces the tournament's draw. If the lottery was already drawn the
// stored result is returned unchanged.
func (c *Controller) DrawLottery(ctx context.Context, id model.TournamentID, settings model.LotterySettings) (*model.LotteryResult, error) {
	ctx, span := c.tracer.Start(ctx, "registration.DrawLottery", trace.WithAttributes(
		attribute.String("tournament.id", string(id)),
		attribute.Int("lottery.max_winners", settings.MaxWinners),
	))
	defer span.End()

	result, err := c.draw(ctx, id, settings)
	if errors.Is(err, model.ErrLotteryAlreadyDrawn) {
		state, err := c.lottery.State(ctx, id)
		if err != nil {
			return nil, err
		}
		return state.Result(), nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("lottery.winners", len(result.Winners)))
	return result, nil
}

// draw runs a draw in three steps so the computation does not hold the lock:
// begin (snapshot and mark in progress), compute, then commit winners to the
// ledger and lottery state together. A failed commit reopens the lottery.
func (c *Controller) draw(ctx context.Context, id model.TournamentID, settings model.LotterySettings) (*model.LotteryResult, error) {
	unlock := c.locks.lock(id)
	t, err := c.tournaments.GetTournament(ctx, id)
	if err != nil {
		unlock()
		return nil, err
	}
	entries, err := c.lottery.Begin(ctx, id)
	unlock()
	if err != nil {
		return nil, err
	}

	sel := c.lottery.Compute(ctx, t, entries, settings)

	unlock = c.locks.lock(id)
	defer unlock()

	abort := func(step string, cause error) error {
		if err := c.lottery.Abort(ctx, id); err != nil {
			c.logger.Error("failed to reopen lottery",
				slog.String("tournament_id", string(id)),
				slog.String("error", err.Error()),
			)
		}
		return fmt.Errorf("%s: %w", step, cause)
	}

	t, err = c.tournaments.GetTournament(ctx, id)
	if err != nil {
		return nil, abort("reload tournament", err)
	}

	winners, waitlisted, err := c.ledger.Commit(ctx, t, len(sel.Winners), len(sel.Waitlist))
	if err != nil {
		return nil, abort("commit to ledger", err)
	}
	if winners < len(sel.Winners) || waitlisted < len(sel.Waitlist) {
		c.logger.Warn("lottery selection trimmed to free capacity",
			slog.String("tournament_id", string(id)),
			slog.Int("selected", len(sel.Winners)),
			slog.Int("committed", winners),
		)
		sel.Trim(winners, waitlisted)
	}

	result, err := c.lottery.Commit(ctx, id, sel)
	if err != nil {
		if rerr := c.ledger.Revert(ctx, t, winners, waitlisted); rerr != nil {
			c.logger.Error("failed to revert ledger",
				slog.String("tournament_id", string(id)),
				slog.String("error", rerr.Error()),
			)
		}
		return nil, abort("commit lottery", err)
	}
	return result, nil
}

// IsLotteryWinner reports whether the user won the tournament's completed draw
func (c *Controller) IsLotteryWinner(ctx context.Context, id model.TournamentID, userID model.UserID) (bool, error) {
	return c.lottery.IsWinner(ctx, id, userID)
}

// IsLotteryInProgress reports whether a draw is running
func (c *Controller) IsLotteryInProgress(ctx context.Context, id model.TournamentID) (bool, error) {
	return c.lottery.InProgress(ctx, id)
}

// GetLotteryEntries returns the number of distinct lottery entrants
func (c *Controller) GetLotteryEntries(ctx context.Context, id model.TournamentID) (int, error) {
	return c.lottery.EntryCount(ctx, id)
}

// LotteryState returns the tournament's lottery record
func (c *Controller) LotteryState(ctx context.Context, id model.TournamentID) (*model.LotteryState, error) {
	return c.lottery.State(ctx, id)
}

// LotteryResult returns the outcome of a completed draw
func (c *Controller) LotteryResult(ctx context.Context, id model.TournamentID) (*model.LotteryResult, error) {
	state, err := c.lottery.State(ctx, id)
	if err != nil {
		return nil, err
	}
	result := state.Result()
	if result == nil {
		return nil, model.ErrLotteryNotDrawn
	}
	return result, nil
}
