package priority

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/mcoot/tourneygate/internal/model"
)

// Predicate decides whether a user belongs to a priority group
type Predicate interface {
	IsMember(ctx context.Context, userID model.UserID, group model.PriorityGroup) (bool, error)
}

// Profile is the set of user attributes criteria are evaluated against
type Profile map[string]string

// ProfileSource looks up user profiles from the external profile service.
// A missing profile is returned as an empty Profile, not an error.
type ProfileSource interface {
	Profile(ctx context.Context, userID model.UserID) (Profile, error)
}

// CriteriaEvaluator matches a user's profile against every criterion of a group.
// A group with no criteria has no members.
type CriteriaEvaluator struct {
	profiles ProfileSource
}

// Ensure CriteriaEvaluator implements Predicate
var _ Predicate = (*CriteriaEvaluator)(nil)

// NewCriteriaEvaluator creates an evaluator reading profiles from source
func NewCriteriaEvaluator(source ProfileSource) *CriteriaEvaluator {
	return &CriteriaEvaluator{profiles: source}
}

func (e *CriteriaEvaluator) IsMember(ctx context.Context, userID model.UserID, group model.PriorityGroup) (bool, error) {
	if len(group.Criteria) == 0 {
		return false, nil
	}

	profile, err := e.profiles.Profile(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("load profile %s: %w", userID, err)
	}

	for _, c := range group.Criteria {
		if !Matches(profile, c) {
			return false, nil
		}
	}
	return true, nil
}

// Matches evaluates one criterion. Absent fields never match.
func Matches(profile Profile, c model.PriorityCriteria) bool {
	actual, ok := profile[c.Field]
	if !ok {
		return false
	}

	switch c.Operator {
	case model.OperatorEquals:
		return actual == c.Value
	case model.OperatorNotEquals:
		return actual != c.Value
	case model.OperatorGreaterThan, model.OperatorLessThan:
		a, errA := strconv.ParseFloat(actual, 64)
		v, errV := strconv.ParseFloat(c.Value, 64)
		if errA != nil || errV != nil {
			return false
		}
		if c.Operator == model.OperatorGreaterThan {
			return a > v
		}
		return a < v
	case model.OperatorContains:
		return strings.Contains(actual, c.Value)
	case model.OperatorIn:
		options := strings.Split(c.Value, ",")
		for i := range options {
			options[i] = strings.TrimSpace(options[i])
		}
		return slices.Contains(options, actual)
	default:
		return false
	}
}

// StaticProfiles is an in-memory ProfileSource
type StaticProfiles struct {
	mu       sync.RWMutex
	profiles map[model.UserID]Profile
}

// Ensure StaticProfiles implements ProfileSource
var _ ProfileSource = (*StaticProfiles)(nil)

// NewStaticProfiles creates an empty profile source
func NewStaticProfiles() *StaticProfiles {
	return &StaticProfiles{profiles: make(map[model.UserID]Profile)}
}

// Set replaces the profile for a user
func (p *StaticProfiles) Set(userID model.UserID, profile Profile) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.profiles[userID] = profile
}

func (p *StaticProfiles) Profile(_ context.Context, userID model.UserID) (Profile, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.profiles[userID], nil
}

// StaticMembership is a Predicate backed by an explicit group -> users table
type StaticMembership struct {
	mu      sync.RWMutex
	members map[string]map[model.UserID]bool
}

// Ensure StaticMembership implements Predicate
var _ Predicate = (*StaticMembership)(nil)

// NewStaticMembership creates an empty membership table
func NewStaticMembership() *StaticMembership {
	return &StaticMembership{members: make(map[string]map[model.UserID]bool)}
}

// Add puts users into the group with the given ID
func (m *StaticMembership) Add(groupID string, users ...model.UserID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.members[groupID] == nil {
		m.members[groupID] = make(map[model.UserID]bool)
	}
	for _, u := range users {
		m.members[groupID][u] = true
	}
}

func (m *StaticMembership) IsMember(_ context.Context, userID model.UserID, group model.PriorityGroup) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.members[group.ID][userID], nil
}

// Groups returns the IDs of every group the user belongs to, in the order given
func Groups(ctx context.Context, p Predicate, userID model.UserID, groups []model.PriorityGroup) ([]string, error) {
	var ids []string
	for _, g := range groups {
		ok, err := p.IsMember(ctx, userID, g)
		if err != nil {
			return nil, err
		}
		if ok {
			ids = append(ids, g.ID)
		}
	}
	return ids, nil
}
