package mastery

import (
	"math"

	"github.com/abhisek/lexiz/internal/spacedrep"
)

const (
	// MinReviews is the number of reviews before an item leaves the new stage.
	MinReviews = 3

	// MasteryRepetition is the consecutive-success streak required for mastery.
	MasteryRepetition = 5

	// MasteryAccuracy is the minimum lifetime accuracy percentage for mastery.
	MasteryAccuracy = 80
)

// AccuracyPercent returns round(correct/total*100), or 0 with no reviews.
func AccuracyPercent(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(correct) / float64(total) * 100))
}

// Classify derives the proficiency stage from a record's counters.
// Stages are not sticky: a forgot resets the streak and can drop a mastered
// item back to learning.
func Classify(rec spacedrep.Record) MasteryState {
	if rec.TotalReviews < MinReviews {
		return StateNew
	}
	if rec.Repetition >= MasteryRepetition &&
		AccuracyPercent(rec.CorrectCount, rec.TotalReviews) >= MasteryAccuracy {
		return StateMastered
	}
	return StateLearning
}

// Transition compares the stage before and after a review.
// Returns nil if the stage did not change.
func Transition(before, after spacedrep.Record) *StateTransition {
	from, to := Classify(before), Classify(after)
	if from == to {
		return nil
	}

	t := &StateTransition{ItemID: after.ItemID, From: from, To: to}
	switch {
	case to == StateMastered:
		t.Trigger = TriggerMastered
	case from == StateNew:
		t.Trigger = TriggerFirstReviews
	default:
		t.Trigger = TriggerRegressed
	}
	return t
}

// Counts tallies records per stage.
type Counts struct {
	New      int
	Learning int
	Mastered int
}

// Total returns the number of records counted.
func (c Counts) Total() int {
	return c.New + c.Learning + c.Mastered
}

// Tally classifies every record and counts the stages.
func Tally(records []spacedrep.Record) Counts {
	var c Counts
	for _, rec := range records {
		switch Classify(rec) {
		case StateNew:
			c.New++
		case StateLearning:
			c.Learning++
		case StateMastered:
			c.Mastered++
		}
	}
	return c
}
