package factory

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/tourneygate/internal/model"
	"github.com/mcoot/tourneygate/internal/services/priority"
	"github.com/mcoot/tourneygate/internal/services/ratelimit"
	"github.com/mcoot/tourneygate/internal/services/registration"
	redisstorage "github.com/mcoot/tourneygate/internal/storage/redis"
	"github.com/mcoot/tourneygate/internal/testutil"
)

type IntegrationSuite struct {
	suite.Suite
	app *TestApp
	ctx context.Context
	cfg model.RegistrationConfig
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationSuite))
}

func (s *IntegrationSuite) SetupTest() {
	s.app = NewTestApp()
	s.ctx = context.Background()
	s.cfg = model.DefaultRegistrationConfig()
}

func (s *IntegrationSuite) put(t *model.Tournament) {
	_, err := s.app.RegistrationController.PutTournament(s.ctx, t)
	s.Require().NoError(err)
}

// Test: registrations fill a tournament, cut over to lottery, and the triggered draw never overfills
func (s *IntegrationSuite) TestRegistrationThroughLotteryDraw() {
	s.put(&model.Tournament{ID: "cup", Name: "Cup", MaxCapacity: 10, Mode: model.ModeFirstComeFirstServed})

	for i := range 8 {
		a := s.app.RegistrationController.Register(s.ctx, model.UserID(fmt.Sprintf("early-%d", i)), "cup", s.cfg)
		s.Equal(model.AttemptSuccess, a.Status, a.Message)
	}

	// 8/10 registered: lottery mode; the 8th entrant crosses the draw trigger
	for i := range 8 {
		a := s.app.RegistrationController.Register(s.ctx, model.UserID(fmt.Sprintf("late-%d", i)), "cup", s.cfg)
		s.NotEqual(model.AttemptQueued, a.Status)
	}

	result, err := s.app.RegistrationController.LotteryResult(s.ctx, "cup")
	s.Require().NoError(err)
	s.Len(result.Winners, 2)

	t, err := s.app.Storage.GetTournament(s.ctx, "cup")
	s.Require().NoError(err)
	s.Equal(10, t.CurrentRegistrations)
}

// Test: the priority predicate reads profiles set on the app
func (s *IntegrationSuite) TestPriorityProfilesAreWired() {
	s.put(&model.Tournament{
		ID: "vip", MaxCapacity: 10, Mode: model.ModePriorityBased,
		PriorityGroups: []model.PriorityGroup{{
			ID: "gold", GuaranteedSpots: 1, LotteryWeight: 2,
			Criteria: []model.PriorityCriteria{{Field: "tier", Operator: model.OperatorEquals, Value: "gold"}},
		}},
	})
	s.app.Profiles.Set("alice", priority.Profile{"tier": "gold"})

	a := s.app.RegistrationController.Register(s.ctx, "alice", "vip", s.cfg)
	s.Equal(model.AttemptSuccess, a.Status)

	b := s.app.RegistrationController.Register(s.ctx, "bob", "vip", s.cfg)
	s.Equal(model.AttemptLotteryEntered, b.Status)
}

// Test: attempts reach the monitor and a refresh publishes stats to stream subscribers
func (s *IntegrationSuite) TestMonitorReceivesAttempts() {
	s.put(&model.Tournament{ID: "cup", MaxCapacity: 5, Mode: model.ModeFirstComeFirstServed})
	s.app.RegistrationController.Register(s.ctx, "u1", "cup", s.cfg)
	s.app.RegistrationController.Register(s.ctx, "u2", "missing", s.cfg)

	s.app.Monitor.Refresh(s.ctx)

	stats := s.app.Monitor.RealTimeStats("cup")
	s.Equal(1, stats.ActiveUsers)
	s.InDelta(1.0, stats.SuccessRate, 0.0001)
	s.Equal(model.HealthHealthy, s.app.Monitor.SystemHealth().Status)
}

// Test: queue expiry through the job list releases held slots
func (s *IntegrationSuite) TestQueueExpiryJobReleasesSlots() {
	s.app = NewTestApp(registration.WithPolicy(registration.Policy{QueueCutover: 0.5}))
	s.put(&model.Tournament{ID: "cup", MaxCapacity: 4, CurrentRegistrations: 2, Mode: model.ModeFirstComeFirstServed})

	a := s.app.RegistrationController.Register(s.ctx, "u1", "cup", s.cfg)
	s.Require().Equal(model.AttemptQueued, a.Status)

	s.app.MockClock.Advance(s.cfg.QueueTimeout())

	for _, j := range s.app.jobs(JobsConfig{QueueExpireInterval: time.Second}) {
		if j.name == "queue-expiry" {
			s.Require().NoError(j.fn(s.ctx))
		}
	}

	t, err := s.app.Storage.GetTournament(s.ctx, "cup")
	s.Require().NoError(err)
	s.Equal(2, t.CurrentRegistrations)
}

func (s *IntegrationSuite) TestJobsIncludeLimiterSweepForMemoryLimiter() {
	names := map[string]time.Duration{}
	for _, j := range s.app.jobs(JobsConfig{MonitorInterval: time.Second}) {
		names[j.name] = j.interval
	}
	s.Equal(time.Second, names["monitor-refresh"])
	s.Equal(ratelimit.Window, names["ratelimit-sweep"])
	s.Contains(names, "queue-drain")
}

func (s *IntegrationSuite) TestJobsRunnerSchedulesAndStops() {
	runner, err := s.app.Jobs(JobsConfig{MonitorInterval: time.Hour, QueueExpireInterval: time.Hour})
	s.Require().NoError(err)
	runner.Start()
	s.NoError(runner.Shutdown())
}

func TestNewRejectsUnknownStorage(t *testing.T) {
	_, err := New(Config{StorageType: "etcd"})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestNewRequiresRedisConfig(t *testing.T) {
	_, err := New(Config{StorageType: StorageTypeRedis})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestNewWiresRedis(t *testing.T) {
	mini := miniredis.RunT(t)
	redisCfg := redisstorage.DefaultConfig()
	redisCfg.URL = "redis://" + mini.Addr()

	app, err := New(Config{StorageType: StorageTypeRedis, RedisConfig: &redisCfg})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer func() { _ = app.Close() }()

	if _, ok := app.Limiter.(*ratelimit.RedisLimiter); !ok {
		t.Fatalf("expected redis limiter, got %T", app.Limiter)
	}

	ctx := context.Background()
	if _, err := app.RegistrationController.PutTournament(ctx, &model.Tournament{ID: "cup", MaxCapacity: 2, Mode: model.ModeFirstComeFirstServed}); err != nil {
		t.Fatal(err)
	}
	a := app.RegistrationController.Register(ctx, "u1", "cup", model.DefaultRegistrationConfig())
	if a.Status != model.AttemptSuccess {
		t.Fatalf("unexpected attempt %+v", a)
	}
	if !mini.Exists(redisstorage.RateLimitKey("u1")) {
		t.Fatal("rate limit counter not stored in redis")
	}
}

func newRedisApp(t *testing.T, mini *miniredis.Miniredis) *App {
	t.Helper()
	redisCfg := redisstorage.DefaultConfig()
	redisCfg.URL = "redis://" + mini.Addr()

	app, err := New(Config{StorageType: StorageTypeRedis, RedisConfig: &redisCfg})
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	return app
}

func TestRedisDrawnLotteryIsNeverRedrawn(t *testing.T) {
	mini := miniredis.RunT(t)
	app := newRedisApp(t, mini)
	ctx := context.Background()
	cfg := model.DefaultRegistrationConfig()

	_, err := app.RegistrationController.PutTournament(ctx, &model.Tournament{
		ID: "cup", MaxCapacity: 100, CurrentRegistrations: 85, Mode: model.ModeFirstComeFirstServed,
	})
	require.NoError(t, err)

	users := make([]model.UserID, 20)
	for i := range users {
		users[i] = model.UserID(fmt.Sprintf("u%d", i))
		a := app.RegistrationController.Register(ctx, users[i], "cup", cfg)
		require.Equal(t, model.AttemptLotteryEntered, a.Status, a.Message)
	}

	result, err := app.RegistrationController.DrawLottery(ctx, "cup", model.LotterySettings{})
	require.NoError(t, err)
	require.Len(t, result.Winners, 15)

	before := map[model.UserID]bool{}
	for _, u := range users {
		won, err := app.RegistrationController.IsLotteryWinner(ctx, "cup", u)
		require.NoError(t, err)
		before[u] = won
	}

	mini.FastForward(365 * 24 * time.Hour)

	for _, u := range users {
		won, err := app.RegistrationController.IsLotteryWinner(ctx, "cup", u)
		require.NoError(t, err)
		assert.Equal(t, before[u], won, "user %s", u)

		a := app.RegistrationController.Register(ctx, u, "cup", cfg)
		if before[u] {
			assert.Equal(t, model.AttemptSuccess, a.Status, "user %s", u)
		} else {
			assert.Equal(t, model.AttemptFailed, a.Status, "user %s", u)
			assert.Equal(t, model.MsgNotSelected, a.Message, "user %s", u)
		}
	}

	again, err := app.RegistrationController.DrawLottery(ctx, "cup", model.LotterySettings{})
	require.NoError(t, err)
	assert.ElementsMatch(t, result.Winners, again.Winners)

	stored, err := app.Storage.GetTournament(ctx, "cup")
	require.NoError(t, err)
	assert.Equal(t, 100, stored.CurrentRegistrations)
}

func TestNewWarnsRedisStateIsSingleInstance(t *testing.T) {
	mini := miniredis.RunT(t)
	mini.RequireAuth("hunter2")
	logger, logs := testutil.CaptureLogger()
	redisCfg := redisstorage.DefaultConfig()
	redisCfg.URL = "redis://:hunter2@" + mini.Addr()

	app, err := New(Config{Logger: logger, StorageType: StorageTypeRedis, RedisConfig: &redisCfg})
	require.NoError(t, err)
	defer func() { _ = app.Close() }()

	rec := logs.Find("redis admission state supports a single server instance")
	require.NotNil(t, rec)
	assert.Equal(t, "WARN", rec[slog.LevelKey])
	assert.NotContains(t, rec["redis_url"], "hunter2")
}
