package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/tourneygate/internal/dependencies/mocks"
	"github.com/mcoot/tourneygate/internal/model"
	"github.com/mcoot/tourneygate/internal/testutil"
)

type stubPinger struct {
	err    error
	onPing func()
}

func (p *stubPinger) Ping(context.Context) error {
	if p.onPing != nil {
		p.onPing()
	}
	return p.err
}

type capturePublisher struct {
	mu    sync.Mutex
	stats []model.RealTimeStats
}

func (p *capturePublisher) PublishStats(st model.RealTimeStats) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stats = append(p.stats, st)
}

type ServiceSuite struct {
	suite.Suite
	clock   *mocks.MockClock
	pinger  *stubPinger
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.pinger = &stubPinger{}
	s.service = New(DefaultConfig(), s.pinger, s.clock, testutil.NopLogger())
	s.ctx = context.Background()
}

func (s *ServiceSuite) record(user string, status model.AttemptStatus, message string) {
	s.service.Record(&model.RegistrationAttempt{
		UserID:       model.UserID(user),
		TournamentID: "t-1",
		Status:       status,
		Message:      message,
	}, 10*time.Millisecond)
}

func (s *ServiceSuite) component(name string) model.ComponentHealth {
	for _, c := range s.service.SystemHealth().Components {
		if c.Name == name {
			return c
		}
	}
	s.FailNow("component missing", name)
	return model.ComponentHealth{}
}

func (s *ServiceSuite) TestInitialHealthIsHealthy() {
	h := s.service.SystemHealth()
	s.Equal(model.HealthHealthy, h.Status)
	s.Empty(h.Components)
}

func (s *ServiceSuite) TestStatsForUnknownTournamentAreZero() {
	st := s.service.RealTimeStats("nope")
	s.Equal(model.TournamentID("nope"), st.TournamentID)
	s.Zero(st.ActiveUsers)
}

func (s *ServiceSuite) TestRecordIsNotVisibleUntilRefresh() {
	s.record("u1", model.AttemptSuccess, model.MsgRegistered)
	s.Zero(s.service.RealTimeStats("t-1").ActiveUsers)

	s.service.Refresh(s.ctx)
	s.Equal(1, s.service.RealTimeStats("t-1").ActiveUsers)
}

func (s *ServiceSuite) TestTournamentStats() {
	s.record("u1", model.AttemptSuccess, model.MsgRegistered)
	s.record("u2", model.AttemptFailed, model.MsgTournamentFull)
	s.record("u3", model.AttemptLotteryEntered, model.MsgLotteryEntered)
	s.record("u3", model.AttemptLotteryEntered, model.MsgLotteryEntered)
	s.service.Record(&model.RegistrationAttempt{
		UserID: "u4", TournamentID: "t-1", Status: model.AttemptQueued, EstimatedWait: time.Minute,
	}, 30*time.Millisecond)

	s.service.Refresh(s.ctx)
	st := s.service.RealTimeStats("t-1")

	s.Equal(4, st.ActiveUsers)
	s.Equal(1, st.Failures)
	s.Equal(1, st.Queued)
	s.Equal(1, st.LotteryEntries)
	s.InDelta(0.2, st.SuccessRate, 0.0001)
	s.InDelta(5.0/60, st.AttemptsPerSecond, 0.0001)
	s.InDelta(14, st.AverageResponseTimeMs, 0.0001)
	s.Equal(time.Minute, st.AverageQueueWait)
	s.Equal(s.clock.Now(), st.UpdatedAt)
}

func (s *ServiceSuite) TestSamplesAgeOut() {
	s.record("u1", model.AttemptSuccess, model.MsgRegistered)
	s.service.Refresh(s.ctx)

	s.clock.Advance(2 * time.Minute)
	s.service.Refresh(s.ctx)

	s.Zero(s.service.RealTimeStats("t-1").ActiveUsers)
}

func (s *ServiceSuite) TestInternalErrorsDegradeRegistration() {
	for i := 0; i < 9; i++ {
		s.record("ok", model.AttemptSuccess, model.MsgRegistered)
	}
	s.record("bad", model.AttemptFailed, model.MsgInternal)
	s.service.Refresh(s.ctx)

	// 10% against a 5% threshold
	s.Equal(model.HealthDegraded, s.component(ComponentRegistration).Status)
	s.Equal(model.HealthDegraded, s.service.SystemHealth().Status)
}

func (s *ServiceSuite) TestHighErrorRateIsUnhealthy() {
	s.record("ok", model.AttemptSuccess, model.MsgRegistered)
	s.record("bad", model.AttemptFailed, model.MsgInternal)
	s.service.Refresh(s.ctx)

	s.Equal(model.HealthUnhealthy, s.component(ComponentRegistration).Status)
}

func (s *ServiceSuite) TestPolicyRejectionsDoNotDegrade() {
	s.record("u1", model.AttemptFailed, model.MsgRateLimited)
	s.record("u2", model.AttemptFailed, model.MsgTournamentFull)
	s.service.Refresh(s.ctx)

	s.Equal(model.HealthHealthy, s.service.SystemHealth().Status)
	s.InDelta(0.5, s.component(ComponentRateLimiter).ErrorRate, 0.0001)
}

func (s *ServiceSuite) TestQueueLengthThreshold() {
	cfg := DefaultConfig()
	cfg.Thresholds.QueueLength = 1
	s.service = New(cfg, s.pinger, s.clock, testutil.NopLogger())

	s.record("u1", model.AttemptQueued, model.MsgQueued)
	s.record("u2", model.AttemptQueued, model.MsgQueued)
	s.service.Refresh(s.ctx)

	s.Equal(model.HealthDegraded, s.component(ComponentQueue).Status)
}

func (s *ServiceSuite) TestStorageFailureIsUnhealthy() {
	s.pinger.err = errors.New("connection refused")
	s.service.Refresh(s.ctx)

	c := s.component(ComponentStorage)
	s.Equal(model.HealthUnhealthy, c.Status)
	s.Equal("connection refused", c.Message)
	s.Equal(model.HealthUnhealthy, s.service.SystemHealth().Status)
}

func (s *ServiceSuite) TestSlowStorageIsDegraded() {
	s.pinger.onPing = func() { s.clock.Advance(1500 * time.Millisecond) }
	s.service.Refresh(s.ctx)

	c := s.component(ComponentStorage)
	s.Equal(model.HealthDegraded, c.Status)
	s.InDelta(1500.0, c.ResponseTimeMs, 0.001)
	s.Equal("slow storage", c.Message)
}

func (s *ServiceSuite) TestStoragePingTimedOnInjectedClock() {
	s.service.Refresh(s.ctx)

	c := s.component(ComponentStorage)
	s.Equal(model.HealthHealthy, c.Status)
	s.Zero(c.ResponseTimeMs)
}

func (s *ServiceSuite) TestRuntimeFigures() {
	s.clock.Advance(90 * time.Second)
	s.service.Refresh(s.ctx)

	h := s.service.SystemHealth()
	s.Positive(h.Goroutines)
	s.Positive(h.HeapAllocMB)
	s.Equal(int64(90), h.UptimeSeconds)
	s.Len(h.Components, 5)
}

func (s *ServiceSuite) TestPublisherReceivesRefreshedStats() {
	pub := &capturePublisher{}
	s.service.SetPublisher(pub)

	s.record("u1", model.AttemptSuccess, model.MsgRegistered)
	s.service.Refresh(s.ctx)

	s.Require().Len(pub.stats, 1)
	s.Equal(model.TournamentID("t-1"), pub.stats[0].TournamentID)
}

func (s *ServiceSuite) TestRecordIgnoresAnonymousAttempts() {
	s.service.Record(nil, 0)
	s.service.Record(&model.RegistrationAttempt{UserID: "u1"}, 0)
	s.service.Refresh(s.ctx)

	s.Empty(s.service.RealTimeStats("").TournamentID)
}
