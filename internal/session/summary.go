package session

import (
	"time"

	"github.com/abhisek/lexiz/internal/mastery"
	"github.com/abhisek/lexiz/internal/spacedrep"
)

// Summary holds the aggregate results of a finished session.
type Summary struct {
	SessionID  string
	Phase      Phase
	Candidates int
	Reviewed   int
	Correct    int
	Accuracy   float64 // Correct / Reviewed, 0 with no reviews
	Duration   time.Duration

	// Ratings counts the learner's own ratings; Effective counts the
	// ratings after latency and method adjustment.
	Ratings   map[spacedrep.Rating]int
	Effective map[spacedrep.Rating]int

	// Transitions lists the stage changes that happened in the session.
	Transitions []mastery.StateTransition
}

// Aborted reports whether the session was stopped early.
func (s Summary) Aborted() bool {
	return s.Phase == PhaseAborted
}

func buildSummary(id string, phase Phase, candidates int, outcomes []Outcome, d time.Duration) Summary {
	sum := Summary{
		SessionID:  id,
		Phase:      phase,
		Candidates: candidates,
		Reviewed:   len(outcomes),
		Duration:   max(d, 0),
		Ratings:    make(map[spacedrep.Rating]int, 4),
		Effective:  make(map[spacedrep.Rating]int, 4),
	}
	for _, o := range outcomes {
		if o.Correct() {
			sum.Correct++
		}
		sum.Ratings[o.Rating]++
		sum.Effective[o.EffectiveRating]++
		if o.Transition != nil {
			sum.Transitions = append(sum.Transitions, *o.Transition)
		}
	}
	if sum.Reviewed > 0 {
		sum.Accuracy = float64(sum.Correct) / float64(sum.Reviewed)
	}
	return sum
}
