package session

import (
	"fmt"
	"time"

	"github.com/abhisek/lexiz/internal/mastery"
	"github.com/abhisek/lexiz/internal/spacedrep"
)

// Phase represents the lifecycle phase of a session.
type Phase string

const (
	PhaseIdle       Phase = "idle"        // Created, not started
	PhaseInProgress Phase = "in_progress" // Serving items
	PhaseCompleted  Phase = "completed"   // Every candidate has an outcome
	PhaseAborted    Phase = "aborted"     // Stopped early; outcomes kept
)

// Finished reports whether the phase is terminal.
func (p Phase) Finished() bool {
	return p == PhaseCompleted || p == PhaseAborted
}

// Order controls how due items are arranged for a session.
type Order string

const (
	OrderDue        Order = "due"        // most overdue first
	OrderShuffle    Order = "shuffle"    // random
	OrderInterleave Order = "interleave" // alternate review and never-reviewed items
)

// ParseOrder parses a session order name.
func ParseOrder(s string) (Order, error) {
	switch o := Order(s); o {
	case OrderDue, OrderShuffle, OrderInterleave:
		return o, nil
	case "":
		return OrderDue, nil
	}
	return "", fmt.Errorf("unknown session order %q", s)
}

// PerformanceScope selects whose history feeds the method selector.
type PerformanceScope string

const (
	ScopeItem   PerformanceScope = "item"   // this item's reviews only
	ScopeGlobal PerformanceScope = "global" // all reviews
)

// ParseScope parses a performance scope name.
func ParseScope(s string) (PerformanceScope, error) {
	switch sc := PerformanceScope(s); sc {
	case ScopeItem, ScopeGlobal:
		return sc, nil
	case "":
		return ScopeItem, nil
	}
	return "", fmt.Errorf("unknown performance scope %q", s)
}

// DefaultSessionSize is the number of items served per session.
const DefaultSessionSize = 20

// Config configures a review session.
type Config struct {
	SessionSize      int
	Order            Order
	PerformanceScope PerformanceScope

	// HistoryWindow is how many past methods are loaded for selection.
	HistoryWindow int
}

// DefaultConfig returns the default session configuration.
func DefaultConfig() Config {
	return Config{
		SessionSize:      DefaultSessionSize,
		Order:            OrderDue,
		PerformanceScope: ScopeItem,
		HistoryWindow:    10,
	}
}

// Outcome is the result of reviewing one item in a session.
type Outcome struct {
	ItemID          string
	Rating          spacedrep.Rating
	EffectiveRating spacedrep.Rating
	AdjustedQuality float64
	ResponseTimeMs  int64
	Method          spacedrep.Method
	Direction       spacedrep.Direction

	// Record is the item's record after the update.
	Record spacedrep.Record

	// Transition is set when the item changed stage.
	Transition *mastery.StateTransition

	RecordedAt time.Time
}

// Correct reports whether the learner recalled the item.
func (o Outcome) Correct() bool {
	return o.Rating.Successful()
}
