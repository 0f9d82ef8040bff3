package model

import (
	"slices"
	"time"
)

// LotteryState is the per-tournament lottery record.
// Entries accumulate while open; InProgress is set for the duration of a draw;
// once Drawn is true the state is terminal and the tournament never redraws.
type LotteryState struct {
	TournamentID TournamentID
	Entries      []UserID // Set semantics, kept in entry order
	InProgress   bool
	Drawn        bool
	Winners      []UserID
	Waitlist     []UserID // Ordered
	DrawnAt      *time.Time
	Statistics   LotteryStatistics
}

// NewLotteryState returns an empty, open lottery for a tournament
func NewLotteryState(id TournamentID) *LotteryState {
	return &LotteryState{
		TournamentID: id,
		Entries:      []UserID{},
		Winners:      []UserID{},
		Waitlist:     []UserID{},
	}
}

// HasEntry reports whether the user has entered
func (s *LotteryState) HasEntry(userID UserID) bool {
	return slices.Contains(s.Entries, userID)
}

// AddEntry adds the user to the entry set. Returns false if already entered.
func (s *LotteryState) AddEntry(userID UserID) bool {
	if s.HasEntry(userID) {
		return false
	}
	s.Entries = append(s.Entries, userID)
	return true
}

// IsWinner reports whether the user was selected
func (s *LotteryState) IsWinner(userID UserID) bool {
	return s.Drawn && slices.Contains(s.Winners, userID)
}

// WaitlistPosition returns the 1-based waitlist position, or 0 if not waitlisted
func (s *LotteryState) WaitlistPosition(userID UserID) int {
	if !s.Drawn {
		return 0
	}
	return slices.Index(s.Waitlist, userID) + 1
}

// Open reports whether entries are still accepted
func (s *LotteryState) Open() bool {
	return !s.Drawn && !s.InProgress
}

// Result returns the drawn outcome, or nil if no draw has completed
func (s *LotteryState) Result() *LotteryResult {
	if !s.Drawn {
		return nil
	}
	return &LotteryResult{
		TournamentID: s.TournamentID,
		Winners:      slices.Clone(s.Winners),
		Waitlist:     slices.Clone(s.Waitlist),
		Statistics:   s.Statistics,
		DrawnAt:      *s.DrawnAt,
	}
}

// LotterySettings are the administrative knobs for a forced draw
type LotterySettings struct {
	MaxWinners   int // 0 means the tournament's remaining capacity
	WaitlistSize int // 0 means the tournament's remaining waitlist capacity
}

// LotteryStatistics summarises a completed draw
type LotteryStatistics struct {
	TotalEntries int
	Slots        int
	Guaranteed   int
	RandomFill   int
	WaitlistSize int
	GroupWinners map[string]int // Group ID -> guaranteed winners drawn from it
}

// LotteryResult is the outcome of a draw
type LotteryResult struct {
	TournamentID TournamentID
	Winners      []UserID
	Waitlist     []UserID
	Statistics   LotteryStatistics
	DrawnAt      time.Time
}
