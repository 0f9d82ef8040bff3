package registration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mcoot/tourneygate/internal/dependencies/clock"
	"github.com/mcoot/tourneygate/internal/model"
	"github.com/mcoot/tourneygate/internal/services/ledger"
	"github.com/mcoot/tourneygate/internal/services/lottery"
	"github.com/mcoot/tourneygate/internal/services/priority"
	"github.com/mcoot/tourneygate/internal/services/queue"
	"github.com/mcoot/tourneygate/internal/services/ratelimit"
	"github.com/mcoot/tourneygate/internal/storage"
)

const tracerName = "github.com/mcoot/tourneygate/internal/services/registration"

// Recorder receives the outcome of every attempt
type Recorder interface {
	Record(attempt *model.RegistrationAttempt, elapsed time.Duration)
}

// Option customises a Controller
type Option func(*Controller)

// WithPolicy replaces the default admission thresholds
func WithPolicy(p Policy) Option {
	return func(c *Controller) { c.policy = p }
}

// WithRecorder sends attempt outcomes to r
func WithRecorder(r Recorder) Option {
	return func(c *Controller) { c.recorder = r }
}

// WithTracer replaces the global tracer
func WithTracer(t trace.Tracer) Option {
	return func(c *Controller) { c.tracer = t }
}

// Controller is the registration coordinator. It answers every attempt by composing
// the rate limiter, ledger, lottery engine and queue manager, and owns the
// per-tournament locks that serialize all state changes.
type Controller struct {
	tournaments storage.TournamentRepository
	limiter     ratelimit.Limiter
	ledger      *ledger.Service
	lottery     *lottery.Engine
	queue       *queue.Manager
	predicate   priority.Predicate
	clock       clock.Clock
	logger      *slog.Logger

	policy   Policy
	recorder Recorder
	tracer   trace.Tracer
	locks    *lockSet
}

// NewController creates a new registration coordinator
func NewController(
	tournaments storage.TournamentRepository,
	limiter ratelimit.Limiter,
	ledger *ledger.Service,
	lottery *lottery.Engine,
	queue *queue.Manager,
	predicate priority.Predicate,
	clock clock.Clock,
	logger *slog.Logger,
	opts ...Option,
) *Controller {
	c := &Controller{
		tournaments: tournaments,
		limiter:     limiter,
		ledger:      ledger,
		lottery:     lottery,
		queue:       queue,
		predicate:   predicate,
		clock:       clock,
		logger:      logger,
		policy:      DefaultPolicy(),
		tracer:      otel.Tracer(tracerName),
		locks:       newLockSet(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Register answers one registration attempt. It always returns a well-formed attempt;
// policy rejections and internal failures both surface as a failed status with a message.
func (c *Controller) Register(ctx context.Context, userID model.UserID, tournamentID model.TournamentID, cfg model.RegistrationConfig) *model.RegistrationAttempt {
	cfg = cfg.WithDefaults()
	attempt := c.newAttempt(userID, tournamentID, cfg)
	c.run(ctx, "Register", attempt, func(ctx context.Context) {
		c.register(ctx, attempt, cfg)
	})
	return attempt
}

// RegisterRetry answers a new attempt on behalf of a previous one, counting it against MaxRetries
func (c *Controller) RegisterRetry(ctx context.Context, previous *model.RegistrationAttempt, cfg model.RegistrationConfig) *model.RegistrationAttempt {
	cfg = cfg.WithDefaults()
	attempt := c.newAttempt(previous.UserID, previous.TournamentID, cfg)
	attempt.RetryCount = previous.RetryCount + 1
	c.run(ctx, "RegisterRetry", attempt, func(ctx context.Context) {
		if attempt.RetryCount > cfg.MaxRetries {
			fail(attempt, model.MsgRetryLimit)
			return
		}
		c.register(ctx, attempt, cfg)
	})
	return attempt
}

// EnterLottery adds the user to the tournament's lottery regardless of fullness.
// Like Register it never returns an error.
func (c *Controller) EnterLottery(ctx context.Context, userID model.UserID, tournamentID model.TournamentID) *model.RegistrationAttempt {
	attempt := c.newAttempt(userID, tournamentID, model.DefaultRegistrationConfig())
	c.run(ctx, "EnterLottery", attempt, func(ctx context.Context) {
		if !c.validate(attempt) {
			return
		}

		var draw bool
		func() {
			unlock := c.locks.lock(tournamentID)
			defer unlock()

			t, ok := c.loadTournament(ctx, attempt)
			if !ok {
				return
			}
			state, err := c.lottery.State(ctx, t.ID)
			if err != nil {
				c.internal(attempt, "load lottery state", err)
				return
			}
			if c.resolveFromLottery(attempt, state) {
				return
			}
			draw = c.enterLocked(ctx, attempt, t)
		}()

		if draw {
			c.drawFor(ctx, attempt)
		}
	})
	return attempt
}

// run wraps one attempt with tracing, outcome recording and panic recovery
func (c *Controller) run(ctx context.Context, op string, attempt *model.RegistrationAttempt, fn func(ctx context.Context)) {
	start := c.clock.Now()
	ctx, span := c.tracer.Start(ctx, "registration."+op, trace.WithAttributes(
		attribute.String("tournament.id", string(attempt.TournamentID)),
		attribute.String("user.id", string(attempt.UserID)),
		attribute.Int("attempt.retry_count", attempt.RetryCount),
	))

	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("registration panicked",
				slog.String("op", op),
				slog.String("tournament_id", string(attempt.TournamentID)),
				slog.String("user_id", string(attempt.UserID)),
				slog.Any("panic", r),
			)
			span.SetStatus(codes.Error, fmt.Sprint(r))
			fail(attempt, model.MsgInternal)
		}
		span.SetAttributes(
			attribute.String("attempt.status", string(attempt.Status)),
			attribute.String("attempt.message", attempt.Message),
		)
		span.End()
		if c.recorder != nil {
			c.recorder.Record(attempt, c.clock.Since(start))
		}
	}()

	fn(ctx)
}

func (c *Controller) register(ctx context.Context, a *model.RegistrationAttempt, cfg model.RegistrationConfig) {
	switch cfg.FallbackMode {
	case model.FallbackMaintenance:
		fail(a, model.MsgMaintenance)
		return
	case model.FallbackEmergencyShutdown:
		fail(a, model.MsgShutdown)
		return
	}

	if !c.validate(a) {
		return
	}

	allowed, err := c.limiter.Allow(ctx, a.UserID, cfg.RateLimitPerMinute)
	if err != nil {
		c.internal(a, "rate limit check", err)
		return
	}
	if !allowed {
		fail(a, model.MsgRateLimited)
		return
	}

	var draw bool
	func() {
		unlock := c.locks.lock(a.TournamentID)
		defer unlock()
		draw = c.decideLocked(ctx, a, cfg)
	}()

	if draw {
		c.drawFor(ctx, a)
	}
}

// decideLocked runs the admission decision with the tournament lock held.
// It returns true when the attempt's lottery entry crossed the draw trigger.
func (c *Controller) decideLocked(ctx context.Context, a *model.RegistrationAttempt, cfg model.RegistrationConfig) bool {
	t, ok := c.loadTournament(ctx, a)
	if !ok {
		return false
	}

	state, err := c.lottery.State(ctx, t.ID)
	if err != nil {
		c.internal(a, "load lottery state", err)
		return false
	}
	if state.InProgress {
		fail(a, model.MsgLotteryRunning)
		return false
	}

	skipQueue, done := c.resolveFromQueue(ctx, a, t)
	if done {
		return false
	}

	if c.resolveFromLottery(a, state) {
		return false
	}

	if c.policy.LotteryMode(t) {
		return c.enterLocked(ctx, a, t)
	}

	// Queue routing uses the registration count before this caller's reservation
	queueing := !skipQueue && c.policy.QueueMode(t)

	outcome, err := c.ledger.TryReserve(ctx, t)
	if err != nil {
		c.internal(a, "reserve slot", err)
		return false
	}

	switch outcome {
	case ledger.Full:
		fail(a, model.MsgTournamentFull)
		return false
	case ledger.Waitlisted:
		succeed(a, model.MsgWaitlisted)
		a.Waitlisted = true
		return false
	}

	switch t.Mode {
	case model.ModeFirstComeFirstServed:
		if queueing {
			c.queueHoldingSlot(ctx, a, t, cfg)
			return false
		}
		succeed(a, model.MsgRegistered)
		return false

	case model.ModePriorityBased:
		member, err := c.isPriorityMember(ctx, a.UserID, t)
		if err != nil {
			c.releaseSlot(ctx, t)
			c.internal(a, "evaluate priority groups", err)
			return false
		}
		if member {
			succeed(a, model.MsgRegistered)
			return false
		}
		if queueing {
			c.queueHoldingSlot(ctx, a, t, cfg)
			return false
		}
		if err := c.ledger.Release(ctx, t); err != nil {
			c.internal(a, "release slot", err)
			return false
		}
		return c.enterLocked(ctx, a, t)

	default:
		succeed(a, model.MsgRegistered)
		return false
	}
}

// resolveFromLottery settles attempts against a lottery that is running or drawn.
// It returns false when the lottery is still open.
func (c *Controller) resolveFromLottery(a *model.RegistrationAttempt, state *model.LotteryState) bool {
	switch {
	case state.InProgress:
		fail(a, model.MsgLotteryRunning)
	case state.IsWinner(a.UserID):
		succeed(a, model.MsgLotteryWinner)
	case state.Drawn && state.WaitlistPosition(a.UserID) > 0:
		succeed(a, model.MsgWaitlisted)
		a.Waitlisted = true
	case state.Drawn:
		fail(a, model.MsgNotSelected)
	default:
		return false
	}
	return true
}

// resolveFromQueue settles users who already hold a queue entry. A waiting entry is
// reported as is; an active entry that holds a slot is a confirmed registration.
// skipQueue is true for users whose turn has come, so they are not queued again.
func (c *Controller) resolveFromQueue(ctx context.Context, a *model.RegistrationAttempt, t *model.Tournament) (skipQueue, done bool) {
	if err := c.expireLocked(ctx, t); err != nil {
		c.internal(a, "expire queue", err)
		return false, true
	}

	entry, err := c.queue.Status(ctx, t.ID, a.UserID)
	if errors.Is(err, model.ErrNotInQueue) {
		return false, false
	}
	if err != nil {
		c.internal(a, "load queue entry", err)
		return false, true
	}

	switch {
	case entry.Status == model.QueueWaiting:
		queued(a, entry)
		return false, true
	case entry.HoldsSlot:
		succeed(a, model.MsgRegistered)
		return false, true
	default:
		return true, false
	}
}

func (c *Controller) queueHoldingSlot(ctx context.Context, a *model.RegistrationAttempt, t *model.Tournament, cfg model.RegistrationConfig) {
	entry, err := c.queue.Join(ctx, t.ID, a.UserID, cfg, true)
	if err != nil {
		c.releaseSlot(ctx, t)
		if errors.Is(err, model.ErrQueueFull) {
			fail(a, model.MsgQueueFull)
			return
		}
		c.internal(a, "join queue", err)
		return
	}
	queued(a, entry)
}

// enterLocked adds the attempt's user to the lottery and reports whether the draw trigger was reached
func (c *Controller) enterLocked(ctx context.Context, a *model.RegistrationAttempt, t *model.Tournament) bool {
	state, added, err := c.lottery.Enter(ctx, t.ID, a.UserID)
	if err != nil {
		c.internal(a, "enter lottery", err)
		return false
	}
	a.Status = model.AttemptLotteryEntered
	a.Message = model.MsgLotteryEntered

	if added {
		c.logger.Debug("lottery entry",
			slog.String("tournament_id", string(t.ID)),
			slog.String("user_id", string(a.UserID)),
			slog.Int("entries", len(state.Entries)),
		)
	}
	return c.policy.ShouldDraw(t, len(state.Entries))
}

// drawFor runs the triggered draw and resolves the attempt from its outcome.
// If another caller is already drawing, the attempt stays a lottery entry.
func (c *Controller) drawFor(ctx context.Context, a *model.RegistrationAttempt) {
	result, err := c.draw(ctx, a.TournamentID, model.LotterySettings{})
	switch {
	case errors.Is(err, model.ErrLotteryInProgress):
		return
	case errors.Is(err, model.ErrLotteryAlreadyDrawn):
		state, err := c.lottery.State(ctx, a.TournamentID)
		if err == nil {
			c.resolveFromLottery(a, state)
		}
		return
	case err != nil:
		c.logger.Error("triggered draw failed",
			slog.String("tournament_id", string(a.TournamentID)),
			slog.String("error", err.Error()),
		)
		return
	}

	state := &model.LotteryState{Drawn: true, Winners: result.Winners, Waitlist: result.Waitlist}
	c.resolveFromLottery(a, state)
}

func (c *Controller) loadTournament(ctx context.Context, a *model.RegistrationAttempt) (*model.Tournament, bool) {
	t, err := c.tournaments.GetTournament(ctx, a.TournamentID)
	if errors.Is(err, model.ErrTournamentNotFound) {
		fail(a, model.MsgNotFound)
		return nil, false
	}
	if err != nil {
		c.internal(a, "load tournament", err)
		return nil, false
	}
	if t.Status != "" && t.Status != model.TournamentRegistration {
		fail(a, model.MsgRegistrationShut)
		return nil, false
	}
	return t, true
}

func (c *Controller) isPriorityMember(ctx context.Context, userID model.UserID, t *model.Tournament) (bool, error) {
	groups, err := priority.Groups(ctx, c.predicate, userID, t.PriorityGroups)
	if err != nil {
		return false, err
	}
	return len(groups) > 0, nil
}

func (c *Controller) releaseSlot(ctx context.Context, t *model.Tournament) {
	if err := c.ledger.Release(ctx, t); err != nil {
		c.logger.Error("failed to release slot",
			slog.String("tournament_id", string(t.ID)),
			slog.String("error", err.Error()),
		)
	}
}

func (c *Controller) validate(a *model.RegistrationAttempt) bool {
	if a.UserID == "" {
		fail(a, model.MsgInvalidUser)
		return false
	}
	if a.TournamentID == "" {
		fail(a, model.MsgNotFound)
		return false
	}
	return true
}

func (c *Controller) newAttempt(userID model.UserID, tournamentID model.TournamentID, cfg model.RegistrationConfig) *model.RegistrationAttempt {
	return &model.RegistrationAttempt{
		ID:           uuid.NewString(),
		UserID:       userID,
		TournamentID: tournamentID,
		Timestamp:    c.clock.Now(),
		Status:       model.AttemptPending,
		MaxRetries:   cfg.MaxRetries,
	}
}

func (c *Controller) internal(a *model.RegistrationAttempt, step string, err error) {
	c.logger.Error("registration failed",
		slog.String("step", step),
		slog.String("tournament_id", string(a.TournamentID)),
		slog.String("user_id", string(a.UserID)),
		slog.String("error", err.Error()),
	)
	fail(a, model.MsgInternal)
}

func fail(a *model.RegistrationAttempt, msg string) {
	a.Status = model.AttemptFailed
	a.Message = msg
}

func succeed(a *model.RegistrationAttempt, msg string) {
	a.Status = model.AttemptSuccess
	a.Message = msg
}

func queued(a *model.RegistrationAttempt, e *model.QueueEntry) {
	a.Status = model.AttemptQueued
	a.Message = model.MsgQueued
	a.QueuePosition = e.Position
	a.EstimatedWait = time.Duration(e.EstimatedWaitSeconds) * time.Second
}
