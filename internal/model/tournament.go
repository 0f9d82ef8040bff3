package model

import (
	"sort"
	"time"
)

// TournamentID identifies a tournament in the external tournament store
type TournamentID string

// UserID is an opaque end-user identifier
type UserID string

// RegistrationMode is the nominal registration policy of a tournament
type RegistrationMode string

const (
	ModeFirstComeFirstServed RegistrationMode = "first_come_first_served"
	ModeLottery              RegistrationMode = "lottery"
	ModePriorityBased        RegistrationMode = "priority_based"
)

// TournamentStatus is the lifecycle status of a tournament
type TournamentStatus string

const (
	TournamentUpcoming     TournamentStatus = "upcoming"
	TournamentRegistration TournamentStatus = "registration"
	TournamentOngoing      TournamentStatus = "ongoing"
	TournamentCompleted    TournamentStatus = "completed"
)

// CriteriaOperator is the comparison applied by a PriorityCriteria
type CriteriaOperator string

const (
	OperatorEquals      CriteriaOperator = "equals"
	OperatorNotEquals   CriteriaOperator = "not_equals"
	OperatorGreaterThan CriteriaOperator = "greater_than"
	OperatorLessThan    CriteriaOperator = "less_than"
	OperatorContains    CriteriaOperator = "contains"
	OperatorIn          CriteriaOperator = "in"
)

// PriorityCriteria is a field/operator/value triple evaluated against a user profile
type PriorityCriteria struct {
	Field    string
	Operator CriteriaOperator
	Value    string
}

// PriorityGroup is a cohort of users with guaranteed lottery spots and/or extra weight
type PriorityGroup struct {
	ID              string
	Name            string
	Priority        int // Lower value is drawn first
	GuaranteedSpots int
	LotteryWeight   float64
	Criteria        []PriorityCriteria
}

// Tournament is the capacity-limited event users register for
type Tournament struct {
	ID                   TournamentID
	Name                 string
	MaxCapacity          int
	CurrentRegistrations int
	WaitlistEnabled      bool
	WaitlistCapacity     int
	CurrentWaitlist      int
	Mode                 RegistrationMode
	PriorityGroups       []PriorityGroup
	Status               TournamentStatus
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Fullness returns the fraction of capacity already registered
func (t *Tournament) Fullness() float64 {
	if t.MaxCapacity <= 0 {
		return 1
	}
	return float64(t.CurrentRegistrations) / float64(t.MaxCapacity)
}

// RemainingCapacity returns the number of unclaimed primary slots
func (t *Tournament) RemainingCapacity() int {
	return max(t.MaxCapacity-t.CurrentRegistrations, 0)
}

// RemainingWaitlist returns the number of free waitlist slots, zero if the waitlist is disabled
func (t *Tournament) RemainingWaitlist() int {
	if !t.WaitlistEnabled {
		return 0
	}
	return max(t.WaitlistCapacity-t.CurrentWaitlist, 0)
}

// GroupsByPriority returns the priority groups ordered by ascending priority rank
func (t *Tournament) GroupsByPriority() []PriorityGroup {
	groups := make([]PriorityGroup, len(t.PriorityGroups))
	copy(groups, t.PriorityGroups)
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Priority < groups[j].Priority
	})
	return groups
}

// Validate checks the structural invariants of a tournament definition
func (t *Tournament) Validate() error {
	if t.ID == "" {
		return ErrInvalidTournamentID
	}
	if t.MaxCapacity < 0 || t.CurrentRegistrations < 0 || t.CurrentRegistrations > t.MaxCapacity {
		return ErrInvalidCapacity
	}
	if t.WaitlistEnabled && (t.CurrentWaitlist < 0 || t.CurrentWaitlist > t.WaitlistCapacity) {
		return ErrInvalidCapacity
	}
	switch t.Mode {
	case ModeFirstComeFirstServed, ModeLottery, ModePriorityBased:
	default:
		return ErrInvalidMode
	}
	return nil
}
