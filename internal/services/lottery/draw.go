package lottery

import (
	"slices"

	"github.com/mcoot/tourneygate/internal/dependencies/random"
	"github.com/mcoot/tourneygate/internal/model"
)

// DefaultWeight is the selection weight of an entrant outside every weighted group
const DefaultWeight = 1.0

// DrawInput is everything a draw needs; it is built from a snapshot taken under the tournament lock
type DrawInput struct {
	Entries      []model.UserID
	Groups       []model.PriorityGroup // Drawn in slice order
	Membership   map[model.UserID][]string
	Slots        int
	WaitlistSize int
}

// Selection is the computed outcome of a draw, not yet persisted
type Selection struct {
	Winners    []model.UserID
	Waitlist   []model.UserID
	Statistics model.LotteryStatistics
}

// Draw selects winners in two stages: guaranteed spots per priority group,
// then weighted sampling without replacement over everyone left.
// Unselected entrants are shuffled into the waitlist.
func Draw(r random.Random, in DrawInput) Selection {
	pool := dedupe(in.Entries)
	remaining := max(in.Slots, 0)

	sel := Selection{
		Winners:  []model.UserID{},
		Waitlist: []model.UserID{},
		Statistics: model.LotteryStatistics{
			TotalEntries: len(pool),
			Slots:        remaining,
			GroupWinners: make(map[string]int),
		},
	}

	for _, g := range in.Groups {
		if remaining == 0 {
			break
		}
		var members []model.UserID
		for _, u := range pool {
			if slices.Contains(in.Membership[u], g.ID) {
				members = append(members, u)
			}
		}

		n := min(max(g.GuaranteedSpots, 0), len(members), remaining)
		picked := sampleUniform(r, members, n)
		if len(picked) == 0 {
			continue
		}

		sel.Winners = append(sel.Winners, picked...)
		sel.Statistics.GroupWinners[g.ID] = len(picked)
		sel.Statistics.Guaranteed += len(picked)
		remaining -= len(picked)
		pool = slices.DeleteFunc(pool, func(u model.UserID) bool {
			return slices.Contains(picked, u)
		})
	}

	weights := make([]float64, len(pool))
	total := 0.0
	for i, u := range pool {
		weights[i] = weightOf(u, in.Groups, in.Membership)
		total += weights[i]
	}

	for remaining > 0 && len(pool) > 0 {
		threshold := r.Float64() * total
		idx := len(pool) - 1
		cumulative := 0.0
		for i, w := range weights {
			cumulative += w
			if threshold < cumulative {
				idx = i
				break
			}
		}

		sel.Winners = append(sel.Winners, pool[idx])
		sel.Statistics.RandomFill++
		total -= weights[idx]
		pool = slices.Delete(pool, idx, idx+1)
		weights = slices.Delete(weights, idx, idx+1)
		remaining--
	}

	if in.WaitlistSize > 0 && len(pool) > 0 {
		random.Shuffle(r, len(pool), func(i, j int) {
			pool[i], pool[j] = pool[j], pool[i]
		})
		sel.Waitlist = append(sel.Waitlist, pool[:min(in.WaitlistSize, len(pool))]...)
	}
	sel.Statistics.WaitlistSize = len(sel.Waitlist)

	return sel
}

// weightOf returns the largest positive LotteryWeight over the user's groups
func weightOf(u model.UserID, groups []model.PriorityGroup, membership map[model.UserID][]string) float64 {
	w := 0.0
	for _, g := range groups {
		if g.LotteryWeight > w && slices.Contains(membership[u], g.ID) {
			w = g.LotteryWeight
		}
	}
	if w == 0 {
		return DefaultWeight
	}
	return w
}

// sampleUniform picks n distinct users with a partial Fisher-Yates shuffle
func sampleUniform(r random.Random, users []model.UserID, n int) []model.UserID {
	if n <= 0 {
		return nil
	}
	c := slices.Clone(users)
	for i := 0; i < n; i++ {
		j := i + r.Intn(len(c)-i)
		c[i], c[j] = c[j], c[i]
	}
	return c[:n]
}

func dedupe(entries []model.UserID) []model.UserID {
	seen := make(map[model.UserID]bool, len(entries))
	out := make([]model.UserID, 0, len(entries))
	for _, u := range entries {
		if !seen[u] {
			seen[u] = true
			out = append(out, u)
		}
	}
	return out
}
