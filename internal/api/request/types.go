package request

import "github.com/mcoot/tourneygate/internal/model"

// LoginRequest is the request body for opening an operator session
type LoginRequest struct {
	Operator string `json:"operator"`
	Key      string `json:"key"`
}

// AlertThresholds mirrors model.AlertThresholds
type AlertThresholds struct {
	ErrorRate      float64 `json:"error_rate,omitempty"`
	ResponseTimeMs float64 `json:"response_time_ms,omitempty"`
	QueueLength    int     `json:"queue_length,omitempty"`
}

// RegistrationConfig is the optional per-call configuration. Zero fields take server defaults.
type RegistrationConfig struct {
	RateLimitPerMinute  int              `json:"rate_limit_per_minute,omitempty"`
	MaxQueueSize        int              `json:"max_queue_size,omitempty"`
	QueueTimeoutMinutes int              `json:"queue_timeout_minutes,omitempty"`
	QueueBatchSize      int              `json:"queue_batch_size,omitempty"`
	CacheTTLSeconds     int              `json:"cache_ttl_seconds,omitempty"`
	MaxRetries          int              `json:"max_retries,omitempty"`
	AlertThresholds     *AlertThresholds `json:"alert_thresholds,omitempty"`
	FallbackMode        string           `json:"fallback_mode,omitempty"`
}

// Resolve merges the request config over base
func (c *RegistrationConfig) Resolve(base model.RegistrationConfig) model.RegistrationConfig {
	if c == nil {
		return base
	}
	if c.RateLimitPerMinute > 0 {
		base.RateLimitPerMinute = c.RateLimitPerMinute
	}
	if c.MaxQueueSize > 0 {
		base.MaxQueueSize = c.MaxQueueSize
	}
	if c.QueueTimeoutMinutes > 0 {
		base.QueueTimeoutMinutes = c.QueueTimeoutMinutes
	}
	if c.QueueBatchSize > 0 {
		base.QueueBatchSize = c.QueueBatchSize
	}
	if c.CacheTTLSeconds > 0 {
		base.CacheTTLSeconds = c.CacheTTLSeconds
	}
	if c.MaxRetries > 0 {
		base.MaxRetries = c.MaxRetries
	}
	if c.AlertThresholds != nil {
		base.AlertThresholds = model.AlertThresholds{
			ErrorRate:      c.AlertThresholds.ErrorRate,
			ResponseTimeMs: c.AlertThresholds.ResponseTimeMs,
			QueueLength:    c.AlertThresholds.QueueLength,
		}
	}
	if c.FallbackMode != "" {
		base.FallbackMode = model.FallbackMode(c.FallbackMode)
	}
	return base
}

// RegisterRequest is the request body for a registration attempt
type RegisterRequest struct {
	UserID string              `json:"user_id"`
	Config *RegistrationConfig `json:"config,omitempty"`
}

// PreviousAttempt identifies the attempt being retried
type PreviousAttempt struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id"`
	RetryCount int    `json:"retry_count"`
}

// RetryRequest is the request body for retrying a previous attempt
type RetryRequest struct {
	Previous PreviousAttempt     `json:"previous"`
	Config   *RegistrationConfig `json:"config,omitempty"`
}

// JoinQueueRequest is the request body for joining a tournament's queue
type JoinQueueRequest struct {
	UserID string              `json:"user_id"`
	Config *RegistrationConfig `json:"config,omitempty"`
}

// LotteryEntryRequest is the request body for entering a lottery
type LotteryEntryRequest struct {
	UserID string `json:"user_id"`
}

// DrawRequest is the request body for an administrative lottery draw
type DrawRequest struct {
	MaxWinners   int `json:"max_winners,omitempty"`
	WaitlistSize int `json:"waitlist_size,omitempty"`
}

// DrainRequest is the request body for draining a queue batch
type DrainRequest struct {
	BatchSize int `json:"batch_size,omitempty"`
}

// PriorityCriteria mirrors model.PriorityCriteria
type PriorityCriteria struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    string `json:"value"`
}

// PriorityGroup mirrors model.PriorityGroup
type PriorityGroup struct {
	ID              string             `json:"id"`
	Name            string             `json:"name"`
	Priority        int                `json:"priority"`
	GuaranteedSpots int                `json:"guaranteed_spots"`
	LotteryWeight   float64            `json:"lottery_weight"`
	Criteria        []PriorityCriteria `json:"criteria,omitempty"`
}

// PutTournamentRequest is the request body for creating or replacing a tournament
type PutTournamentRequest struct {
	Name                 string          `json:"name"`
	MaxCapacity          int             `json:"max_capacity"`
	CurrentRegistrations int             `json:"current_registrations"`
	WaitlistEnabled      bool            `json:"waitlist_enabled"`
	WaitlistCapacity     int             `json:"waitlist_capacity"`
	CurrentWaitlist      int             `json:"current_waitlist"`
	Mode                 string          `json:"mode"`
	Status               string          `json:"status,omitempty"`
	PriorityGroups       []PriorityGroup `json:"priority_groups,omitempty"`
}

// ToModel converts the request into a tournament with the given id
func (r PutTournamentRequest) ToModel(id model.TournamentID) *model.Tournament {
	t := &model.Tournament{
		ID:                   id,
		Name:                 r.Name,
		MaxCapacity:          r.MaxCapacity,
		CurrentRegistrations: r.CurrentRegistrations,
		WaitlistEnabled:      r.WaitlistEnabled,
		WaitlistCapacity:     r.WaitlistCapacity,
		CurrentWaitlist:      r.CurrentWaitlist,
		Mode:                 model.RegistrationMode(r.Mode),
		Status:               model.TournamentStatus(r.Status),
	}
	for _, g := range r.PriorityGroups {
		group := model.PriorityGroup{
			ID:              g.ID,
			Name:            g.Name,
			Priority:        g.Priority,
			GuaranteedSpots: g.GuaranteedSpots,
			LotteryWeight:   g.LotteryWeight,
		}
		for _, c := range g.Criteria {
			group.Criteria = append(group.Criteria, model.PriorityCriteria{
				Field:    c.Field,
				Operator: model.CriteriaOperator(c.Operator),
				Value:    c.Value,
			})
		}
		t.PriorityGroups = append(t.PriorityGroups, group)
	}
	return t
}

// PutProfileRequest is the request body for setting a user's profile attributes
type PutProfileRequest struct {
	Attributes map[string]string `json:"attributes"`
}
