package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	var apiErr *APIError
	isAPIErr := errors.As(err, &apiErr)
	if o.format == "json" {
		detail := map[string]any{"message": err.Error()}
		if isAPIErr {
			detail["message"] = apiErr.Message
			detail["code"] = apiErr.Code
			detail["status"] = apiErr.StatusCode
		}
		data, _ := json.Marshal(map[string]any{"error": detail})
		fmt.Fprintln(os.Stderr, string(data))
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	if isAPIErr && apiErr.RequestID != "" {
		fmt.Fprintf(os.Stderr, "  request id: %s\n", apiErr.RequestID)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Session:
		o.printSession(v)
	case Attempt:
		o.printAttempt(v)
	case QueueEntry:
		o.printQueueEntry(v)
	case DrainResult:
		o.printDrainResult(v)
	case LotteryStatus:
		o.printLotteryStatus(v)
	case WinnerResult:
		o.printWinnerResult(v)
	case LotteryResult:
		o.printLotteryResult(v)
	case Tournament:
		o.printTournament(v)
	case TournamentList:
		o.printTournamentList(v)
	case Profile:
		o.printProfile(v)
	case HealthResult:
		o.printHealthResult(v)
	case Stats:
		o.printStats(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Session response type (matches API)
type Session struct {
	Operator     string    `json:"operator"`
	SessionToken string    `json:"session_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Attempt response type
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

// QueueEntry response type
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

// DrainResult response type
type DrainResult struct {
	Activated []QueueEntry `json:"activated"`
}

// LotteryStatus response type
type LotteryStatus struct {
	TournamentID string `json:"tournament_id"`
	InProgress   bool   `json:"in_progress"`
	Drawn        bool   `json:"drawn"`
	Entries      int    `json:"entries"`
}

// WinnerResult response type
type WinnerResult struct {
	UserID string `json:"user_id"`
	Winner bool   `json:"winner"`
}

// LotteryStatistics response type
type LotteryStatistics struct {
	TotalEntries int            `json:"total_entries"`
	Slots        int            `json:"slots"`
	Guaranteed   int            `json:"guaranteed"`
	RandomFill   int            `json:"random_fill"`
	WaitlistSize int            `json:"waitlist_size"`
	GroupWinners map[string]int `json:"group_winners,omitempty"`
}

// LotteryResult response type
type LotteryResult struct {
	TournamentID string            `json:"tournament_id"`
	Winners      []string          `json:"winners"`
	Waitlist     []string          `json:"waitlist"`
	Statistics   LotteryStatistics `json:"statistics"`
	DrawnAt      time.Time         `json:"drawn_at"`
}

// PriorityCriteria response type
type PriorityCriteria struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    string `json:"value"`
}

// PriorityGroup response type
type PriorityGroup struct {
	ID              string             `json:"id"`
	Name            string             `json:"name"`
	Priority        int                `json:"priority"`
	GuaranteedSpots int                `json:"guaranteed_spots"`
	LotteryWeight   float64            `json:"lottery_weight"`
	Criteria        []PriorityCriteria `json:"criteria,omitempty"`
}

// Tournament response type
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
}

// TournamentList response type
type TournamentList struct {
	Tournaments []Tournament `json:"tournaments"`
}

// Profile response type
type Profile struct {
	UserID     string            `json:"user_id"`
	Attributes map[string]string `json:"attributes"`
}

// ComponentHealth response type
type ComponentHealth struct {
	Name           string  `json:"name"`
	Status         string  `json:"status"`
	ResponseTimeMs float64 `json:"response_time_ms"`
	ErrorRate      float64 `json:"error_rate"`
	Message        string  `json:"message,omitempty"`
}

// HealthResult response type
type HealthResult struct {
	Status        string            `json:"status"`
	Components    []ComponentHealth `json:"components"`
	Goroutines    int               `json:"goroutines"`
	HeapAllocMB   float64           `json:"heap_alloc_mb"`
	UptimeSeconds int64             `json:"uptime_seconds"`
}

// Stats response type
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

func (o *Output) printSession(s Session) {
	fmt.Printf("Operator: %s\n", s.Operator)
	fmt.Printf("Token: %s\n", s.SessionToken)
	fmt.Printf("Expires: %s\n", s.ExpiresAt.Format(time.RFC3339))
}

func (o *Output) printAttempt(a Attempt) {
	fmt.Printf("Attempt: %s\n", a.ID)
	fmt.Printf("User: %s\n", a.UserID)
	fmt.Printf("Tournament: %s\n", a.TournamentID)
	fmt.Printf("Status: %s\n", a.Status)
	fmt.Printf("Message: %s\n", a.Message)
	if a.Waitlisted {
		fmt.Println("Waitlisted: yes")
	}
	if a.Status == "queued" {
		fmt.Printf("Queue Position: %d\n", a.QueuePosition)
		fmt.Printf("Estimated Wait: %s\n", time.Duration(a.EstimatedWaitSeconds)*time.Second)
	}
	fmt.Printf("Retries: %d/%d\n", a.RetryCount, a.MaxRetries)
}

func (o *Output) printQueueEntry(e QueueEntry) {
	fmt.Printf("User: %s\n", e.UserID)
	fmt.Printf("Status: %s\n", e.Status)
	if e.Status == "waiting" {
		fmt.Printf("Position: %d\n", e.Position)
		fmt.Printf("Estimated Wait: %s\n", time.Duration(e.EstimatedWaitSeconds)*time.Second)
	}
	fmt.Printf("Token: %s\n", e.Token)
	fmt.Printf("Expires: %s\n", e.ExpiresAt.Format(time.RFC3339))
}

func (o *Output) printDrainResult(d DrainResult) {
	fmt.Printf("Activated %d entries\n", len(d.Activated))
	for _, e := range d.Activated {
		fmt.Printf("  - %s (token %s)\n", e.UserID, e.Token)
	}
}

func (o *Output) printLotteryStatus(s LotteryStatus) {
	state := "open"
	switch {
	case s.Drawn:
		state = "drawn"
	case s.InProgress:
		state = "drawing"
	}
	fmt.Printf("Tournament: %s\n", s.TournamentID)
	fmt.Printf("State: %s\n", state)
	fmt.Printf("Entries: %d\n", s.Entries)
}

func (o *Output) printWinnerResult(w WinnerResult) {
	if w.Winner {
		fmt.Printf("%s won the lottery\n", w.UserID)
	} else {
		fmt.Printf("%s did not win the lottery\n", w.UserID)
	}
}

func (o *Output) printLotteryResult(r LotteryResult) {
	fmt.Printf("Tournament: %s\n", r.TournamentID)
	fmt.Printf("Drawn: %s\n", r.DrawnAt.Format(time.RFC3339))
	fmt.Printf("Entries: %d, slots: %d (guaranteed %d, random %d)\n",
		r.Statistics.TotalEntries, r.Statistics.Slots, r.Statistics.Guaranteed, r.Statistics.RandomFill)
	fmt.Printf("Winners (%d): %s\n", len(r.Winners), strings.Join(r.Winners, ", "))
	if len(r.Waitlist) > 0 {
		fmt.Printf("Waitlist (%d): %s\n", len(r.Waitlist), strings.Join(r.Waitlist, ", "))
	}
	if len(r.Statistics.GroupWinners) > 0 {
		fmt.Println("Group winners:")
		for _, id := range sortedKeys(r.Statistics.GroupWinners) {
			fmt.Printf("  %s: %d\n", id, r.Statistics.GroupWinners[id])
		}
	}
}

func (o *Output) printTournament(t Tournament) {
	fmt.Printf("Tournament: %s (%s)\n", t.Name, t.ID)
	fmt.Printf("Mode: %s\n", t.Mode)
	fmt.Printf("Status: %s\n", t.Status)
	fmt.Printf("Registrations: %d/%d\n", t.CurrentRegistrations, t.MaxCapacity)
	if t.WaitlistEnabled {
		fmt.Printf("Waitlist: %d/%d\n", t.CurrentWaitlist, t.WaitlistCapacity)
	}
	if len(t.PriorityGroups) > 0 {
		fmt.Printf("Priority Groups (%d):\n", len(t.PriorityGroups))
		for _, g := range t.PriorityGroups {
			fmt.Printf("  - %s (%s) priority %d, %d guaranteed, weight %.2f\n",
				g.Name, g.ID, g.Priority, g.GuaranteedSpots, g.LotteryWeight)
			for _, c := range g.Criteria {
				fmt.Printf("      %s %s %s\n", c.Field, c.Operator, c.Value)
			}
		}
	}
}

func (o *Output) printTournamentList(l TournamentList) {
	if len(l.Tournaments) == 0 {
		fmt.Println("No tournaments")
		return
	}
	for _, t := range l.Tournaments {
		fmt.Printf("%s\t%s\t%s\t%d/%d\n", t.ID, t.Mode, t.Status, t.CurrentRegistrations, t.MaxCapacity)
	}
}

func (o *Output) printProfile(p Profile) {
	fmt.Printf("User: %s\n", p.UserID)
	if len(p.Attributes) == 0 {
		fmt.Println("No attributes")
		return
	}
	for _, k := range sortedKeys(p.Attributes) {
		fmt.Printf("  %s=%s\n", k, p.Attributes[k])
	}
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Printf("Status: %s\n", h.Status)
	fmt.Printf("Uptime: %s\n", time.Duration(h.UptimeSeconds)*time.Second)
	fmt.Printf("Goroutines: %d, heap: %.1f MB\n", h.Goroutines, h.HeapAllocMB)
	for _, c := range h.Components {
		fmt.Printf("  %-14s %-10s %.1fms errors %.1f%%", c.Name, c.Status, c.ResponseTimeMs, c.ErrorRate*100)
		if c.Message != "" {
			fmt.Printf(" (%s)", c.Message)
		}
		fmt.Println()
	}
}

func (o *Output) printStats(s Stats) {
	fmt.Printf("Tournament: %s\n", s.TournamentID)
	fmt.Printf("Attempts/s: %.2f\n", s.AttemptsPerSecond)
	fmt.Printf("Success Rate: %.1f%%\n", s.SuccessRate*100)
	fmt.Printf("Active Users: %d\n", s.ActiveUsers)
	fmt.Printf("Queued: %d, lottery entries: %d, failures: %d\n", s.Queued, s.LotteryEntries, s.Failures)
	fmt.Printf("Avg Response: %.1fms\n", s.AverageResponseTimeMs)
	if s.AverageQueueWaitSeconds > 0 {
		fmt.Printf("Avg Queue Wait: %.0fs\n", s.AverageQueueWaitSeconds)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
