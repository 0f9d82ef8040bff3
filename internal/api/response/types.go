package response

import (
	"time"

	"github.com/mcoot/tourneygate/internal/model"
	"github.com/mcoot/tourneygate/internal/services/auth"
)

// SessionResponse is returned when an operator logs in
type SessionResponse struct {
	Operator     string    `json:"operator"`
	SessionToken string    `json:"session_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// SessionFromAuth converts an auth.Session
func SessionFromAuth(s *auth.Session) SessionResponse {
	return SessionResponse{
		Operator:     s.Operator,
		SessionToken: s.Token,
		ExpiresAt:    s.ExpiresAt,
	}
}

// Attempt represents a registration attempt
type Attempt struct {
	ID                   string    `json:"id"`
	UserID               string    `json:"user_id"`
	TournamentID         string    `json:"tournament_id"`
	Timestamp            time.Time `json:"timestamp"`
	Status               string    `json:"status"`
	QueuePosition        int       `json:"queue_position,omitempty"`
	EstimatedWaitSeconds int       `json:"estimated_wait_seconds,omitempty"`
	Waitlisted           bool      `json:"waitlisted"`
	Message              string    `json:"message"`
	RetryCount           int       `json:"retry_count"`
	MaxRetries           int       `json:"max_retries"`
}

// AttemptFromModel converts a model.RegistrationAttempt
func AttemptFromModel(a *model.RegistrationAttempt) Attempt {
	return Attempt{
		ID:                   a.ID,
		UserID:               string(a.UserID),
		TournamentID:         string(a.TournamentID),
		Timestamp:            a.Timestamp,
		Status:               string(a.Status),
		QueuePosition:        a.QueuePosition,
		EstimatedWaitSeconds: int(a.EstimatedWait / time.Second),
		Waitlisted:           a.Waitlisted,
		Message:              a.Message,
		RetryCount:           a.RetryCount,
		MaxRetries:           a.MaxRetries,
	}
}

// QueueEntry represents a user's place in a queue
type QueueEntry struct {
	ID                   string    `json:"id"`
	TournamentID         string    `json:"tournament_id"`
	UserID               string    `json:"user_id"`
	Status               string    `json:"status"`
	Position             int       `json:"position"`
	EstimatedWaitSeconds int       `json:"estimated_wait_seconds"`
	Token                string    `json:"token"`
	JoinedAt             time.Time `json:"joined_at"`
	ExpiresAt            time.Time `json:"expires_at"`
	HoldsSlot            bool      `json:"holds_slot"`
}

// QueueEntryFromModel converts a model.QueueEntry
func QueueEntryFromModel(e *model.QueueEntry) QueueEntry {
	return QueueEntry{
		ID:                   e.ID,
		TournamentID:         string(e.TournamentID),
		UserID:               string(e.UserID),
		Status:               string(e.Status),
		Position:             e.Position,
		EstimatedWaitSeconds: e.EstimatedWaitSeconds,
		Token:                e.Token,
		JoinedAt:             e.JoinedAt,
		ExpiresAt:            e.ExpiresAt,
		HoldsSlot:            e.HoldsSlot,
	}
}

// DrainResponse lists the entries activated by a drain
type DrainResponse struct {
	Activated []QueueEntry `json:"activated"`
}

// DrainResponseFromModel converts drained entries
func DrainResponseFromModel(entries []model.QueueEntry) DrainResponse {
	resp := DrainResponse{Activated: make([]QueueEntry, 0, len(entries))}
	for i := range entries {
		resp.Activated = append(resp.Activated, QueueEntryFromModel(&entries[i]))
	}
	return resp
}

// LotteryStatus summarises a tournament's lottery
type LotteryStatus struct {
	TournamentID string `json:"tournament_id"`
	InProgress   bool   `json:"in_progress"`
	Drawn        bool   `json:"drawn"`
	Entries      int    `json:"entries"`
}

// LotteryStatusFromModel converts a model.LotteryState
func LotteryStatusFromModel(s *model.LotteryState) LotteryStatus {
	return LotteryStatus{
		TournamentID: string(s.TournamentID),
		InProgress:   s.InProgress,
		Drawn:        s.Drawn,
		Entries:      len(s.Entries),
	}
}

// WinnerResponse reports whether a user won a lottery
type WinnerResponse struct {
	UserID string `json:"user_id"`
	Winner bool   `json:"winner"`
}

// LotteryStatistics summarises a draw
type LotteryStatistics struct {
	TotalEntries int            `json:"total_entries"`
	Slots        int            `json:"slots"`
	Guaranteed   int            `json:"guaranteed"`
	RandomFill   int            `json:"random_fill"`
	WaitlistSize int            `json:"waitlist_size"`
	GroupWinners map[string]int `json:"group_winners,omitempty"`
}

// LotteryResult is the outcome of a draw
type LotteryResult struct {
	TournamentID string            `json:"tournament_id"`
	Winners      []string          `json:"winners"`
	Waitlist     []string          `json:"waitlist"`
	Statistics   LotteryStatistics `json:"statistics"`
	DrawnAt      time.Time         `json:"drawn_at"`
}

// LotteryResultFromModel converts a model.LotteryResult
func LotteryResultFromModel(r *model.LotteryResult) LotteryResult {
	return LotteryResult{
		TournamentID: string(r.TournamentID),
		Winners:      userIDs(r.Winners),
		Waitlist:     userIDs(r.Waitlist),
		Statistics: LotteryStatistics{
			TotalEntries: r.Statistics.TotalEntries,
			Slots:        r.Statistics.Slots,
			Guaranteed:   r.Statistics.Guaranteed,
			RandomFill:   r.Statistics.RandomFill,
			WaitlistSize: r.Statistics.WaitlistSize,
			GroupWinners: r.Statistics.GroupWinners,
		},
		DrawnAt: r.DrawnAt,
	}
}

func userIDs(ids []model.UserID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}

// PriorityCriteria represents a membership rule
type PriorityCriteria struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    string `json:"value"`
}

// PriorityGroup represents a priority cohort
type PriorityGroup struct {
	ID              string             `json:"id"`
	Name            string             `json:"name"`
	Priority        int                `json:"priority"`
	GuaranteedSpots int                `json:"guaranteed_spots"`
	LotteryWeight   float64            `json:"lottery_weight"`
	Criteria        []PriorityCriteria `json:"criteria,omitempty"`
}

// Tournament represents a tournament
type Tournament struct {
	ID                   string          `json:"id"`
	Name                 string          `json:"name"`
	MaxCapacity          int             `json:"max_capacity"`
	CurrentRegistrations int             `json:"current_registrations"`
	WaitlistEnabled      bool            `json:"waitlist_enabled"`
	WaitlistCapacity     int             `json:"waitlist_capacity"`
	CurrentWaitlist      int             `json:"current_waitlist"`
	Mode                 string          `json:"mode"`
	Status               string          `json:"status"`
	PriorityGroups       []PriorityGroup `json:"priority_groups,omitempty"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// TournamentFromModel converts a model.Tournament
func TournamentFromModel(t *model.Tournament) Tournament {
	resp := Tournament{
		ID:                   string(t.ID),
		Name:                 t.Name,
		MaxCapacity:          t.MaxCapacity,
		CurrentRegistrations: t.CurrentRegistrations,
		WaitlistEnabled:      t.WaitlistEnabled,
		WaitlistCapacity:     t.WaitlistCapacity,
		CurrentWaitlist:      t.CurrentWaitlist,
		Mode:                 string(t.Mode),
		Status:               string(t.Status),
		CreatedAt:            t.CreatedAt,
		UpdatedAt:            t.UpdatedAt,
	}
	for _, g := range t.PriorityGroups {
		group := PriorityGroup{
			ID:              g.ID,
			Name:            g.Name,
			Priority:        g.Priority,
			GuaranteedSpots: g.GuaranteedSpots,
			LotteryWeight:   g.LotteryWeight,
		}
		for _, c := range g.Criteria {
			group.Criteria = append(group.Criteria, PriorityCriteria{
				Field:    c.Field,
				Operator: string(c.Operator),
				Value:    c.Value,
			})
		}
		resp.PriorityGroups = append(resp.PriorityGroups, group)
	}
	return resp
}

// TournamentList wraps a list of tournaments
type TournamentList struct {
	Tournaments []Tournament `json:"tournaments"`
}

// ComponentHealth is the health of one subsystem
type ComponentHealth struct {
	Name           string    `json:"name"`
	Status         string    `json:"status"`
	ResponseTimeMs float64   `json:"response_time_ms"`
	ErrorRate      float64   `json:"error_rate"`
	LastChecked    time.Time `json:"last_checked"`
	Message        string    `json:"message,omitempty"`
}

// SystemHealth is the system health snapshot
type SystemHealth struct {
	Status        string            `json:"status"`
	Components    []ComponentHealth `json:"components"`
	Goroutines    int               `json:"goroutines"`
	HeapAllocMB   float64           `json:"heap_alloc_mb"`
	UptimeSeconds int64             `json:"uptime_seconds"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// SystemHealthFromModel converts a model.SystemHealth
func SystemHealthFromModel(h model.SystemHealth) SystemHealth {
	resp := SystemHealth{
		Status:        string(h.Status),
		Components:    make([]ComponentHealth, 0, len(h.Components)),
		Goroutines:    h.Goroutines,
		HeapAllocMB:   h.HeapAllocMB,
		UptimeSeconds: h.UptimeSeconds,
		UpdatedAt:     h.UpdatedAt,
	}
	for _, c := range h.Components {
		resp.Components = append(resp.Components, ComponentHealth{
			Name:           c.Name,
			Status:         string(c.Status),
			ResponseTimeMs: c.ResponseTimeMs,
			ErrorRate:      c.ErrorRate,
			LastChecked:    c.LastChecked,
			Message:        c.Message,
		})
	}
	return resp
}

// Stats is a per-tournament metrics snapshot
type Stats struct {
	TournamentID            string    `json:"tournament_id"`
	AttemptsPerSecond       float64   `json:"attempts_per_second"`
	SuccessRate             float64   `json:"success_rate"`
	ActiveUsers             int       `json:"active_users"`
	Queued                  int       `json:"queued"`
	LotteryEntries          int       `json:"lottery_entries"`
	Failures                int       `json:"failures"`
	AverageResponseTimeMs   float64   `json:"average_response_time_ms"`
	AverageQueueWaitSeconds float64   `json:"average_queue_wait_seconds"`
	UpdatedAt               time.Time `json:"updated_at"`
}

// StatsFromModel converts a model.RealTimeStats
func StatsFromModel(s model.RealTimeStats) Stats {
	return Stats{
		TournamentID:            string(s.TournamentID),
		AttemptsPerSecond:       s.AttemptsPerSecond,
		SuccessRate:             s.SuccessRate,
		ActiveUsers:             s.ActiveUsers,
		Queued:                  s.Queued,
		LotteryEntries:          s.LotteryEntries,
		Failures:                s.Failures,
		AverageResponseTimeMs:   s.AverageResponseTimeMs,
		AverageQueueWaitSeconds: s.AverageQueueWait.Seconds(),
		UpdatedAt:               s.UpdatedAt,
	}
}

// Profile is a user's priority attributes
type Profile struct {
	UserID     string            `json:"user_id"`
	Attributes map[string]string `json:"attributes"`
}
