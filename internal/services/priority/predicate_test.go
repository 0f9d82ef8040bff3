package priority

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/tourneygate/internal/model"
)

func TestMatches(t *testing.T) {
	profile := Profile{"tier": "gold", "years": "7", "tags": "veteran,streamer", "region": "eu"}

	tests := []struct {
		name     string
		criteria model.PriorityCriteria
		want     bool
	}{
		{"equals", model.PriorityCriteria{Field: "tier", Operator: model.OperatorEquals, Value: "gold"}, true},
		{"equals mismatch", model.PriorityCriteria{Field: "tier", Operator: model.OperatorEquals, Value: "silver"}, false},
		{"not equals", model.PriorityCriteria{Field: "tier", Operator: model.OperatorNotEquals, Value: "silver"}, true},
		{"greater than", model.PriorityCriteria{Field: "years", Operator: model.OperatorGreaterThan, Value: "5"}, true},
		{"greater than equal is false", model.PriorityCriteria{Field: "years", Operator: model.OperatorGreaterThan, Value: "7"}, false},
		{"less than", model.PriorityCriteria{Field: "years", Operator: model.OperatorLessThan, Value: "10"}, true},
		{"numeric on text", model.PriorityCriteria{Field: "tier", Operator: model.OperatorGreaterThan, Value: "1"}, false},
		{"contains", model.PriorityCriteria{Field: "tags", Operator: model.OperatorContains, Value: "veteran"}, true},
		{"in", model.PriorityCriteria{Field: "region", Operator: model.OperatorIn, Value: "na, eu ,apac"}, true},
		{"not in", model.PriorityCriteria{Field: "region", Operator: model.OperatorIn, Value: "na,apac"}, false},
		{"missing field", model.PriorityCriteria{Field: "age", Operator: model.OperatorNotEquals, Value: "1"}, false},
		{"unknown operator", model.PriorityCriteria{Field: "tier", Operator: "like", Value: "gold"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(profile, tt.criteria))
		})
	}
}

func TestCriteriaEvaluatorRequiresAllCriteria(t *testing.T) {
	profiles := NewStaticProfiles()
	profiles.Set("u1", Profile{"tier": "gold", "years": "7"})
	profiles.Set("u2", Profile{"tier": "gold", "years": "1"})
	evaluator := NewCriteriaEvaluator(profiles)

	group := model.PriorityGroup{ID: "vets", Criteria: []model.PriorityCriteria{
		{Field: "tier", Operator: model.OperatorEquals, Value: "gold"},
		{Field: "years", Operator: model.OperatorGreaterThan, Value: "5"},
	}}

	ok, err := evaluator.IsMember(context.Background(), "u1", group)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = evaluator.IsMember(context.Background(), "u2", group)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = evaluator.IsMember(context.Background(), "unknown", group)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCriteriaEvaluatorEmptyGroupHasNoMembers(t *testing.T) {
	profiles := NewStaticProfiles()
	profiles.Set("u1", Profile{"tier": "gold"})

	ok, err := NewCriteriaEvaluator(profiles).IsMember(context.Background(), "u1", model.PriorityGroup{ID: "empty"})
	require.NoError(t, err)
	assert.False(t, ok)
}

type brokenProfiles struct{}

func (brokenProfiles) Profile(context.Context, model.UserID) (Profile, error) {
	return nil, errors.New("profile service down")
}

func TestCriteriaEvaluatorPropagatesProfileErrors(t *testing.T) {
	group := model.PriorityGroup{ID: "vets", Criteria: []model.PriorityCriteria{{Field: "tier", Operator: model.OperatorEquals, Value: "gold"}}}

	_, err := NewCriteriaEvaluator(brokenProfiles{}).IsMember(context.Background(), "u1", group)
	assert.ErrorContains(t, err, "profile service down")
}

func TestGroups(t *testing.T) {
	m := NewStaticMembership()
	m.Add("a", "u1", "u2")
	m.Add("c", "u1")

	groups := []model.PriorityGroup{{ID: "a"}, {ID: "b"}, {ID: "c"}}

	ids, err := Groups(context.Background(), m, "u1", groups)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, ids)

	ids, err = Groups(context.Background(), m, "u3", groups)
	require.NoError(t, err)
	assert.Empty(t, ids)
}
