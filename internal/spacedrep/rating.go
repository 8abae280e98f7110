package spacedrep

import "fmt"

// Rating is the learner's outcome bucket for a single review.
type Rating string

const (
	RatingForgot Rating = "forgot"
	RatingHard   Rating = "hard"
	RatingGood   Rating = "good"
	RatingEasy   Rating = "easy"
)

// AllRatings lists every rating from worst to best.
func AllRatings() []Rating {
	return []Rating{RatingForgot, RatingHard, RatingGood, RatingEasy}
}

// Valid reports whether r is one of the four known ratings.
func (r Rating) Valid() bool {
	switch r {
	case RatingForgot, RatingHard, RatingGood, RatingEasy:
		return true
	}
	return false
}

// Successful reports whether the rating counts as a correct recall.
func (r Rating) Successful() bool {
	return r.Valid() && r != RatingForgot
}

// ParseRating converts user input ("forgot", "2", ...) into a Rating.
// Digits map 1..4 onto forgot..easy.
func ParseRating(s string) (Rating, error) {
	switch s {
	case "1":
		return RatingForgot, nil
	case "2":
		return RatingHard, nil
	case "3":
		return RatingGood, nil
	case "4":
		return RatingEasy, nil
	}
	r := Rating(s)
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidRating, s)
	}
	return r, nil
}
