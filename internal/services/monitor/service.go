package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/mcoot/tourneygate/internal/dependencies/clock"
	"github.com/mcoot/tourneygate/internal/model"
)

// Component names reported in SystemHealth
const (
	ComponentRateLimiter  = "rate_limiter"
	ComponentRegistration = "registration"
	ComponentLottery      = "lottery"
	ComponentQueue        = "queue"
	ComponentStorage      = "storage"
)

// Pinger checks a backend is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Publisher receives every refreshed stats snapshot
type Publisher interface {
	PublishStats(stats model.RealTimeStats)
}

// Config configures the monitor
type Config struct {
	RefreshInterval time.Duration
	Window          time.Duration // Samples older than this are dropped
	Thresholds      model.AlertThresholds
}

// DefaultConfig returns the default monitor configuration
func DefaultConfig() Config {
	return Config{
		RefreshInterval: 5 * time.Second,
		Window:          time.Minute,
		Thresholds:      model.DefaultRegistrationConfig().AlertThresholds,
	}
}

type sample struct {
	at        time.Time
	userID    model.UserID
	status    model.AttemptStatus
	message   string
	elapsed   time.Duration
	queueWait time.Duration
}

// Service samples attempt outcomes pushed by the coordinator and publishes
// read-only health and per-tournament snapshots on each refresh.
// It holds no reference to tournament state.
type Service struct {
	cfg    Config
	pinger Pinger
	clock  clock.Clock
	logger *slog.Logger

	started time.Time

	mu        sync.RWMutex
	samples   map[model.TournamentID][]sample
	health    model.SystemHealth
	stats     map[model.TournamentID]model.RealTimeStats
	publisher Publisher
}

// New creates a new monitor
func New(cfg Config, pinger Pinger, clock clock.Clock, logger *slog.Logger) *Service {
	now := clock.Now()
	return &Service{
		cfg:     cfg,
		pinger:  pinger,
		clock:   clock,
		logger:  logger,
		started: now,
		samples: make(map[model.TournamentID][]sample),
		stats:   make(map[model.TournamentID]model.RealTimeStats),
		health: model.SystemHealth{
			Status:    model.HealthHealthy,
			UpdatedAt: now,
		},
	}
}

// SetPublisher registers the receiver of refreshed stats
func (s *Service) SetPublisher(p Publisher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.publisher = p
}

// Record adds one attempt outcome to the current window
func (s *Service) Record(attempt *model.RegistrationAttempt, elapsed time.Duration) {
	if attempt == nil || attempt.TournamentID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.samples[attempt.TournamentID] = append(s.samples[attempt.TournamentID], sample{
		at:        s.clock.Now(),
		userID:    attempt.UserID,
		status:    attempt.Status,
		message:   attempt.Message,
		elapsed:   elapsed,
		queueWait: attempt.EstimatedWait,
	})
}

// SystemHealth returns the last refreshed health snapshot
func (s *Service) SystemHealth() model.SystemHealth {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h := s.health
	h.Components = slices.Clone(s.health.Components)
	return h
}

// RealTimeStats returns the last refreshed stats for a tournament
func (s *Service) RealTimeStats(id model.TournamentID) model.RealTimeStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.stats[id]
	if !ok {
		return model.RealTimeStats{TournamentID: id, UpdatedAt: s.health.UpdatedAt}
	}
	return st
}

// Refresh prunes old samples and recomputes every snapshot
func (s *Service) Refresh(ctx context.Context) {
	storage := s.checkStorage(ctx)
	now := s.clock.Now()
	cutoff := now.Add(-s.cfg.Window)

	s.mu.Lock()
	var all []sample
	published := make([]model.RealTimeStats, 0, len(s.samples))
	for id, samples := range s.samples {
		samples = slices.DeleteFunc(samples, func(x sample) bool { return x.at.Before(cutoff) })
		if len(samples) == 0 {
			delete(s.samples, id)
			delete(s.stats, id)
			continue
		}
		s.samples[id] = samples
		all = append(all, samples...)

		st := s.tournamentStats(id, samples, now)
		s.stats[id] = st
		published = append(published, st)
	}

	s.health = s.systemHealth(all, storage, now)
	status := s.health.Status
	publisher := s.publisher
	s.mu.Unlock()

	if publisher != nil {
		for _, st := range published {
			publisher.PublishStats(st)
		}
	}

	if status != model.HealthHealthy {
		s.logger.Warn("system health degraded", slog.String("status", string(status)))
	}
}

func (s *Service) checkStorage(ctx context.Context) model.ComponentHealth {
	c := model.ComponentHealth{Name: ComponentStorage, Status: model.HealthHealthy}
	if s.pinger == nil {
		return c
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := s.clock.Now()
	err := s.pinger.Ping(ctx)
	c.ResponseTimeMs = float64(s.clock.Since(start).Microseconds()) / 1000
	if err != nil {
		c.Status = model.HealthUnhealthy
		c.ErrorRate = 1
		c.Message = err.Error()
		return c
	}
	if c.ResponseTimeMs > s.cfg.Thresholds.ResponseTimeMs {
		c.Status = model.HealthDegraded
		c.Message = "slow storage"
	}
	return c
}

func (s *Service) tournamentStats(id model.TournamentID, samples []sample, now time.Time) model.RealTimeStats {
	st := model.RealTimeStats{TournamentID: id, UpdatedAt: now}

	users := make(map[model.UserID]bool)
	queued := make(map[model.UserID]bool)
	entered := make(map[model.UserID]bool)
	var total time.Duration
	var wait time.Duration
	waits := 0
	succeeded := 0

	for _, x := range samples {
		users[x.userID] = true
		total += x.elapsed
		switch x.status {
		case model.AttemptSuccess:
			succeeded++
		case model.AttemptFailed:
			st.Failures++
		case model.AttemptQueued:
			queued[x.userID] = true
			wait += x.queueWait
			waits++
		case model.AttemptLotteryEntered:
			entered[x.userID] = true
		}
	}

	n := len(samples)
	st.AttemptsPerSecond = float64(n) / s.cfg.Window.Seconds()
	st.SuccessRate = float64(succeeded) / float64(n)
	st.ActiveUsers = len(users)
	st.Queued = len(queued)
	st.LotteryEntries = len(entered)
	st.AverageResponseTimeMs = float64(total.Microseconds()) / 1000 / float64(n)
	if waits > 0 {
		st.AverageQueueWait = wait / time.Duration(waits)
	}
	return st
}

func (s *Service) systemHealth(all []sample, storage model.ComponentHealth, now time.Time) model.SystemHealth {
	th := s.cfg.Thresholds
	n := len(all)

	var total time.Duration
	internal, limited, lotteryBusy, queued := 0, 0, 0, 0
	for _, x := range all {
		total += x.elapsed
		switch x.message {
		case model.MsgInternal:
			internal++
		case model.MsgRateLimited:
			limited++
		case model.MsgLotteryRunning:
			lotteryBusy++
		}
		if x.status == model.AttemptQueued {
			queued++
		}
	}

	registration := model.ComponentHealth{Name: ComponentRegistration, Status: model.HealthHealthy}
	limiter := model.ComponentHealth{Name: ComponentRateLimiter, Status: model.HealthHealthy}
	lottery := model.ComponentHealth{Name: ComponentLottery, Status: model.HealthHealthy}
	queue := model.ComponentHealth{Name: ComponentQueue, Status: model.HealthHealthy}

	if n > 0 {
		registration.ErrorRate = float64(internal) / float64(n)
		registration.ResponseTimeMs = float64(total.Microseconds()) / 1000 / float64(n)
		limiter.ErrorRate = float64(limited) / float64(n)
		lottery.ErrorRate = float64(lotteryBusy) / float64(n)
	}
	registration.Status = grade(registration.ErrorRate, th.ErrorRate)
	if registration.Status == model.HealthHealthy && registration.ResponseTimeMs > th.ResponseTimeMs {
		registration.Status = model.HealthDegraded
		registration.Message = "slow responses"
	}
	if limited > 0 {
		limiter.Message = fmt.Sprintf("%d attempts throttled", limited)
	}
	if lotteryBusy > 0 {
		lottery.Message = fmt.Sprintf("%d attempts hit a running draw", lotteryBusy)
	}
	if th.QueueLength > 0 && queued > th.QueueLength {
		queue.Status = model.HealthDegraded
		queue.Message = fmt.Sprintf("%d queued attempts", queued)
	}

	components := []model.ComponentHealth{limiter, registration, lottery, queue, storage}
	overall := model.HealthHealthy
	for i := range components {
		components[i].LastChecked = now
		overall = worst(overall, components[i].Status)
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return model.SystemHealth{
		Status:        overall,
		Components:    components,
		Goroutines:    runtime.NumGoroutine(),
		HeapAllocMB:   float64(mem.HeapAlloc) / (1 << 20),
		UptimeSeconds: int64(now.Sub(s.started).Seconds()),
		UpdatedAt:     now,
	}
}

// grade is unhealthy past twice the threshold and degraded past the threshold
func grade(rate, threshold float64) model.HealthStatus {
	switch {
	case threshold <= 0 || rate <= threshold:
		return model.HealthHealthy
	case rate > 2*threshold:
		return model.HealthUnhealthy
	default:
		return model.HealthDegraded
	}
}

func worst(a, b model.HealthStatus) model.HealthStatus {
	rank := map[model.HealthStatus]int{
		model.HealthHealthy:   0,
		model.HealthDegraded:  1,
		model.HealthUnhealthy: 2,
	}
	if rank[b] > rank[a] {
		return b
	}
	return a
}
