package registration

import (
	"math"

	"github.com/mcoot/tourneygate/internal/model"
)

// Policy holds the fullness thresholds that switch a tournament between admission paths.
// The lottery check always runs before the queue check. A zero ratio disables that path.
type Policy struct {
	// LotteryCutover is the registered fraction of capacity at which attempts become lottery entries
	LotteryCutover float64
	// DrawTrigger is the entry count, as a fraction of capacity, at which a draw runs automatically
	DrawTrigger float64
	// QueueCutover is the registered fraction of capacity at which first-come-first-served
	// attempts are parked in the queue
	QueueCutover float64
}

// DefaultPolicy returns the standard 80% lottery / 90% queue thresholds
func DefaultPolicy() Policy {
	return Policy{
		LotteryCutover: 0.8,
		DrawTrigger:    0.8,
		QueueCutover:   0.9,
	}
}

// LotteryMode reports whether new attempts should enter the lottery
func (p Policy) LotteryMode(t *model.Tournament) bool {
	return reached(p.LotteryCutover, t.CurrentRegistrations, t.MaxCapacity)
}

// ShouldDraw reports whether the entry count has reached the automatic draw trigger
func (p Policy) ShouldDraw(t *model.Tournament, entries int) bool {
	return reached(p.DrawTrigger, entries, t.MaxCapacity)
}

// QueueMode reports whether a first-come-first-served attempt should be queued.
// It is checked against the count before the attempt reserves its slot.
func (p Policy) QueueMode(t *model.Tournament) bool {
	return reached(p.QueueCutover, t.CurrentRegistrations, t.MaxCapacity)
}

func reached(ratio float64, count, capacity int) bool {
	if ratio <= 0 || capacity <= 0 {
		return false
	}
	// The epsilon absorbs float error such as 0.8*35 = 28.000000000000004
	return count >= int(math.Ceil(ratio*float64(capacity)-1e-9))
}
