package model

import "time"

// HealthStatus grades a component or the whole system
type HealthStatus string

const (
	HealthHealthy   HealthStatus = "healthy"
	HealthDegraded  HealthStatus = "degraded"
	HealthUnhealthy HealthStatus = "unhealthy"
)

// ComponentHealth is the sampled state of one subsystem
type ComponentHealth struct {
	Name           string
	Status         HealthStatus
	ResponseTimeMs float64
	ErrorRate      float64
	LastChecked    time.Time
	Message        string
}

// SystemHealth is a read-only snapshot refreshed by the monitor
type SystemHealth struct {
	Status        HealthStatus
	Components    []ComponentHealth
	Goroutines    int
	HeapAllocMB   float64
	UptimeSeconds int64
	UpdatedAt     time.Time
}

// RealTimeStats is a per-tournament metrics snapshot refreshed by the monitor
type RealTimeStats struct {
	TournamentID          TournamentID
	AttemptsPerSecond     float64
	SuccessRate           float64
	ActiveUsers           int
	Queued                int
	LotteryEntries        int
	Failures              int
	AverageResponseTimeMs float64
	AverageQueueWait      time.Duration
	UpdatedAt             time.Time
}
