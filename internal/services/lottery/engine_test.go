package lottery

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/tourneygate/internal/dependencies/mocks"
	"github.com/mcoot/tourneygate/internal/model"
	"github.com/mcoot/tourneygate/internal/services/priority"
	"github.com/mcoot/tourneygate/internal/storage/memory"
	"github.com/mcoot/tourneygate/internal/testutil"
)

type EngineSuite struct {
	suite.Suite
	storage    *memory.Storage
	membership *priority.StaticMembership
	clock      *mocks.MockClock
	random     *mocks.MockRandom
	engine     *Engine
	ctx        context.Context
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

func (s *EngineSuite) SetupTest() {
	s.storage = memory.New()
	s.membership = priority.NewStaticMembership()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.engine = NewEngine(s.storage, s.membership, s.random, s.clock, testutil.NopLogger())
	s.ctx = context.Background()
}

func (s *EngineSuite) draw(t *model.Tournament, settings model.LotterySettings) *model.LotteryResult {
	entries, err := s.engine.Begin(s.ctx, t.ID)
	s.Require().NoError(err)
	sel := s.engine.Compute(s.ctx, t, entries, settings)
	result, err := s.engine.Commit(s.ctx, t.ID, sel)
	s.Require().NoError(err)
	return result
}

// Enter tests

func (s *EngineSuite) TestEnterIsIdempotent() {
	_, added, err := s.engine.Enter(s.ctx, "t-1", "u1")
	s.Require().NoError(err)
	s.True(added)

	state, added, err := s.engine.Enter(s.ctx, "t-1", "u1")
	s.Require().NoError(err)
	s.False(added)
	s.Len(state.Entries, 1)

	count, _ := s.engine.EntryCount(s.ctx, "t-1")
	s.Equal(1, count)
}

func (s *EngineSuite) TestEnterRejectedWhileInProgress() {
	_, _, _ = s.engine.Enter(s.ctx, "t-1", "u1")
	_, err := s.engine.Begin(s.ctx, "t-1")
	s.Require().NoError(err)

	_, _, err = s.engine.Enter(s.ctx, "t-1", "u2")
	s.ErrorIs(err, model.ErrLotteryInProgress)

	inProgress, _ := s.engine.InProgress(s.ctx, "t-1")
	s.True(inProgress)
}

func (s *EngineSuite) TestEnterRejectedAfterDraw() {
	t := &model.Tournament{ID: "t-1", MaxCapacity: 5}
	_, _, _ = s.engine.Enter(s.ctx, "t-1", "u1")
	s.draw(t, model.LotterySettings{})

	_, _, err := s.engine.Enter(s.ctx, "t-1", "u2")
	s.ErrorIs(err, model.ErrLotteryAlreadyDrawn)
}

// Draw lifecycle tests

func (s *EngineSuite) TestBeginTwiceFails() {
	_, err := s.engine.Begin(s.ctx, "t-1")
	s.Require().NoError(err)

	_, err = s.engine.Begin(s.ctx, "t-1")
	s.ErrorIs(err, model.ErrLotteryInProgress)
}

func (s *EngineSuite) TestDrawHappensOnce() {
	t := &model.Tournament{ID: "t-1", MaxCapacity: 5}
	s.draw(t, model.LotterySettings{})

	_, err := s.engine.Begin(s.ctx, "t-1")
	s.ErrorIs(err, model.ErrLotteryAlreadyDrawn)
}

func (s *EngineSuite) TestCommitPersistsTerminalState() {
	t := &model.Tournament{ID: "t-1", MaxCapacity: 2, WaitlistEnabled: true, WaitlistCapacity: 1}
	for _, u := range []model.UserID{"u1", "u2", "u3", "u4"} {
		_, _, _ = s.engine.Enter(s.ctx, "t-1", u)
	}

	result := s.draw(t, model.LotterySettings{})

	s.Len(result.Winners, 2)
	s.Len(result.Waitlist, 1)
	s.Equal(s.clock.Now(), result.DrawnAt)

	state, err := s.engine.State(s.ctx, "t-1")
	s.Require().NoError(err)
	s.True(state.Drawn)
	s.False(state.InProgress)

	for _, u := range state.Entries {
		won, _ := s.engine.IsWinner(s.ctx, "t-1", u)
		s.Equal(contains(result.Winners, u), won)
	}
}

func (s *EngineSuite) TestAbortReopensLottery() {
	_, _, _ = s.engine.Enter(s.ctx, "t-1", "u1")
	_, _ = s.engine.Begin(s.ctx, "t-1")

	s.Require().NoError(s.engine.Abort(s.ctx, "t-1"))

	state, _ := s.engine.State(s.ctx, "t-1")
	s.True(state.Open())
	s.Equal([]model.UserID{"u1"}, state.Entries)
}

func (s *EngineSuite) TestComputeUsesPriorityMembership() {
	t := &model.Tournament{
		ID:          "t-1",
		MaxCapacity: 1,
		PriorityGroups: []model.PriorityGroup{
			{ID: "vets", Priority: 1, GuaranteedSpots: 1},
		},
	}
	s.membership.Add("vets", "u3")

	sel := s.engine.Compute(s.ctx, t, []model.UserID{"u1", "u2", "u3"}, model.LotterySettings{})

	s.Equal([]model.UserID{"u3"}, sel.Winners)
}

func (s *EngineSuite) TestComputeRespectsSettings() {
	t := &model.Tournament{ID: "t-1", MaxCapacity: 10, WaitlistEnabled: true, WaitlistCapacity: 10}

	sel := s.engine.Compute(s.ctx, t, users(8), model.LotterySettings{MaxWinners: 3, WaitlistSize: 2})

	s.Len(sel.Winners, 3)
	s.Len(sel.Waitlist, 2)
}

func (s *EngineSuite) TestPlan() {
	t := &model.Tournament{MaxCapacity: 10, CurrentRegistrations: 7, WaitlistEnabled: true, WaitlistCapacity: 4, CurrentWaitlist: 1}

	slots, waitlist := Plan(t, model.LotterySettings{})
	s.Equal(3, slots)
	s.Equal(3, waitlist)

	slots, waitlist = Plan(t, model.LotterySettings{MaxWinners: 2, WaitlistSize: 1})
	s.Equal(2, slots)
	s.Equal(1, waitlist)

	t.WaitlistEnabled = false
	_, waitlist = Plan(t, model.LotterySettings{})
	s.Equal(0, waitlist)
}

func (s *EngineSuite) TestTrim() {
	sel := Selection{Winners: users(3), Waitlist: users(2)}
	sel.Trim(2, 0)

	s.Len(sel.Winners, 2)
	s.Empty(sel.Waitlist)
	s.Equal(0, sel.Statistics.WaitlistSize)
}

func contains(list []model.UserID, u model.UserID) bool {
	for _, v := range list {
		if v == u {
			return true
		}
	}
	return false
}
