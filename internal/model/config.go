package model

import "time"

// FallbackMode is the operator-selected degradation mode
type FallbackMode string

const (
	FallbackGracefulDegradation FallbackMode = "graceful_degradation"
	FallbackMaintenance         FallbackMode = "maintenance_mode"
	FallbackEmergencyShutdown   FallbackMode = "emergency_shutdown"
)

// AlertThresholds grade component health in the monitor
type AlertThresholds struct {
	ErrorRate      float64 // Fraction of failed attempts, 0..1
	ResponseTimeMs float64
	QueueLength    int
}

// RegistrationConfig is the per-call configuration passed by the surrounding application
type RegistrationConfig struct {
	RateLimitPerMinute  int
	MaxQueueSize        int
	QueueTimeoutMinutes int
	QueueBatchSize      int
	CacheTTLSeconds     int
	MaxRetries          int
	AlertThresholds     AlertThresholds
	FallbackMode        FallbackMode
}

// DefaultRegistrationConfig returns the default registration configuration
func DefaultRegistrationConfig() RegistrationConfig {
	return RegistrationConfig{
		RateLimitPerMinute:  10,
		MaxQueueSize:        1000,
		QueueTimeoutMinutes: 15,
		QueueBatchSize:      10,
		CacheTTLSeconds:     30,
		MaxRetries:          3,
		AlertThresholds: AlertThresholds{
			ErrorRate:      0.05,
			ResponseTimeMs: 1000,
			QueueLength:    500,
		},
		FallbackMode: FallbackGracefulDegradation,
	}
}

// WithDefaults fills zero-valued fields from DefaultRegistrationConfig
func (c RegistrationConfig) WithDefaults() RegistrationConfig {
	d := DefaultRegistrationConfig()
	if c.RateLimitPerMinute <= 0 {
		c.RateLimitPerMinute = d.RateLimitPerMinute
	}
	if c.MaxQueueSize <= 0 {
		c.MaxQueueSize = d.MaxQueueSize
	}
	if c.QueueTimeoutMinutes <= 0 {
		c.QueueTimeoutMinutes = d.QueueTimeoutMinutes
	}
	if c.QueueBatchSize <= 0 {
		c.QueueBatchSize = d.QueueBatchSize
	}
	if c.CacheTTLSeconds <= 0 {
		c.CacheTTLSeconds = d.CacheTTLSeconds
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = d.MaxRetries
	}
	if c.AlertThresholds == (AlertThresholds{}) {
		c.AlertThresholds = d.AlertThresholds
	}
	if c.FallbackMode == "" {
		c.FallbackMode = d.FallbackMode
	}
	return c
}

// QueueTimeout returns the queue entry lifetime
func (c RegistrationConfig) QueueTimeout() time.Duration {
	return time.Duration(c.QueueTimeoutMinutes) * time.Minute
}
