package spacedrep

import "time"

// Record holds the scheduling state for a single learnable item.
// Records are values: the scheduler returns a new Record and never
// mutates the one it was given.
type Record struct {
	ItemID         string    `json:"item_id"`
	EaseFactor     float64   `json:"ease_factor"`
	Interval       int       `json:"interval"`
	Repetition     int       `json:"repetition"`
	LastReviewDate time.Time `json:"last_review_date"`
	NextReviewDate time.Time `json:"next_review_date"`

	TotalReviews   int `json:"total_reviews"`
	CorrectCount   int `json:"correct_count"`
	IncorrectCount int `json:"incorrect_count"`

	ForwardCorrect int `json:"forward_correct"`
	ForwardTotal   int `json:"forward_total"`
	ReverseCorrect int `json:"reverse_correct"`
	ReverseTotal   int `json:"reverse_total"`
}

// NewRecord returns the initial record for an item added at now.
// The item is due immediately.
func NewRecord(itemID string, now time.Time) Record {
	return Record{
		ItemID:         itemID,
		EaseFactor:     DefaultEase,
		Interval:       FirstIntervalDays,
		Repetition:     0,
		NextReviewDate: now,
	}
}

// Reviewed returns true once the record has been through at least one review.
func (r Record) Reviewed() bool {
	return !r.LastReviewDate.IsZero()
}

// IsDue returns true if the item is due for review (at or past the review date).
func (r Record) IsDue(now time.Time) bool {
	return !now.Before(r.NextReviewDate)
}

// OverdueDays returns how many days past due the item is. Returns 0 if not yet due.
func (r Record) OverdueDays(now time.Time) float64 {
	if now.Before(r.NextReviewDate) {
		return 0
	}
	return now.Sub(r.NextReviewDate).Hours() / 24.0
}

// DaysUntilReview returns the number of days until the next review.
// Returns 0 if already due.
func (r Record) DaysUntilReview(now time.Time) int {
	if r.IsDue(now) {
		return 0
	}
	return int(r.NextReviewDate.Sub(now).Hours()/24.0) + 1
}

// ReviewStatus describes an item's review status for display.
type ReviewStatus string

const (
	ReviewNotDue  ReviewStatus = "not_due"
	ReviewDue     ReviewStatus = "due"
	ReviewOverdue ReviewStatus = "overdue"
)

// DueStatus returns the review status for display. An item is overdue once
// it has been due for longer than half its interval.
func (r Record) DueStatus(now time.Time) ReviewStatus {
	if !r.IsDue(now) {
		return ReviewNotDue
	}
	graceHours := float64(r.Interval) * 0.5 * 24.0
	threshold := r.NextReviewDate.Add(time.Duration(graceHours * float64(time.Hour)))
	if now.After(threshold) {
		return ReviewOverdue
	}
	return ReviewDue
}

// DirectionAccuracy returns the accuracy ratio for one presentation
// direction and the number of attempts it is based on.
func (r Record) DirectionAccuracy(d Direction) (float64, int) {
	var correct, total int
	switch d {
	case DirectionForward:
		correct, total = r.ForwardCorrect, r.ForwardTotal
	case DirectionReverse:
		correct, total = r.ReverseCorrect, r.ReverseTotal
	default:
		correct, total = r.CorrectCount, r.TotalReviews
	}
	if total == 0 {
		return 0, 0
	}
	return float64(correct) / float64(total), total
}
