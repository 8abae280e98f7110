package spacedrep

import (
	"fmt"
	"math"
	"time"
)

// NextEaseFactor applies the rating's ease delta, floored at MinEase.
func NextEaseFactor(ease float64, rating Rating) float64 {
	switch rating {
	case RatingEasy:
		ease += easyEaseBonus
	case RatingHard:
		ease -= hardEasePenalty
	case RatingForgot:
		ease -= forgotEasePenalty
	case RatingGood:
	}
	return math.Max(MinEase, ease)
}

// NextRepetition resets the streak on forgot and extends it otherwise.
func NextRepetition(rep int, rating Rating) int {
	if rating == RatingForgot {
		return 0
	}
	return rep + 1
}

// NextInterval computes the next interval in days.
//
// The first two successful reviews use fixed intervals regardless of method;
// the method multiplier only applies once the item is in steady state.
func NextInterval(current, repBefore int, newEase float64, rating Rating, methodMultiplier float64) int {
	var days float64
	switch {
	case rating == RatingForgot:
		days = MinIntervalDays
	case repBefore <= 0:
		days = FirstIntervalDays
	case repBefore == 1:
		days = SecondIntervalDays
	default:
		days = math.Round(float64(current) * newEase * methodMultiplier)
		switch rating {
		case RatingHard:
			days = math.Round(days * hardIntervalTrim)
		case RatingEasy:
			days = math.Round(days * easyIntervalTrim)
		case RatingGood, RatingForgot:
		}
	}
	return clampInterval(days)
}

// NextReviewDate returns the date interval days after now.
func NextReviewDate(now time.Time, interval int) time.Time {
	return now.AddDate(0, 0, interval)
}

// UpdateRecord applies one review outcome to rec and returns the new record.
// The rating must already be the effective rating. Invalid input is rejected
// before anything is computed, so the caller never sees a partial update.
func UpdateRecord(rec Record, rating Rating, method Method, now time.Time, dir Direction) (Record, error) {
	if !rating.Valid() {
		return rec, fmt.Errorf("%w: %q", ErrInvalidRating, rating)
	}
	if !method.Valid() {
		return rec, fmt.Errorf("%w: %q", ErrInvalidMethod, method)
	}
	if !dir.Valid() {
		return rec, fmt.Errorf("%w: %q", ErrInvalidDirection, dir)
	}

	next := rec
	next.EaseFactor = NextEaseFactor(rec.EaseFactor, rating)
	next.Interval = NextInterval(rec.Interval, rec.Repetition, next.EaseFactor, rating, method.Difficulty())
	next.Repetition = NextRepetition(rec.Repetition, rating)
	next.LastReviewDate = now
	next.NextReviewDate = NextReviewDate(now, next.Interval)

	correct := rating.Successful()
	next.TotalReviews++
	if correct {
		next.CorrectCount++
	} else {
		next.IncorrectCount++
	}

	switch dir {
	case DirectionForward:
		next.ForwardTotal++
		if correct {
			next.ForwardCorrect++
		}
	case DirectionReverse:
		next.ReverseTotal++
		if correct {
			next.ReverseCorrect++
		}
	case DirectionNone:
	}

	return next, nil
}

func clampInterval(days float64) int {
	if math.IsNaN(days) || days < MinIntervalDays {
		return MinIntervalDays
	}
	if days > MaxIntervalDays {
		return MaxIntervalDays
	}
	return int(days)
}
