package mastery

// MasteryState represents an item's proficiency stage.
type MasteryState string

const (
	StateNew      MasteryState = "new"
	StateLearning MasteryState = "learning"
	StateMastered MasteryState = "mastered"
)

// StateTransition records a stage change for display and event logging.
type StateTransition struct {
	ItemID  string
	From    MasteryState
	To      MasteryState
	Trigger string // "first-reviews", "mastered", "regressed"
}

const (
	TriggerFirstReviews = "first-reviews"
	TriggerMastered     = "mastered"
	TriggerRegressed    = "regressed"
)
