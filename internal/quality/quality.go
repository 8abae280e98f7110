// Package quality turns a self-rating, a response latency and the retrieval
// method into a continuous recall quality score and the effective rating
// the scheduler consumes.
package quality

import (
	"fmt"

	"github.com/abhisek/lexiz/internal/spacedrep"
)

const (
	// MinQuality and MaxQuality bound the adjusted quality score.
	MinQuality = 0.0
	MaxQuality = 5.0

	// An unadjusted rating always maps back onto itself: easy (4) sits on
	// the easy cutoff and a fast good answer (3 + 1) reaches it. The
	// published rule reads >= 4.5, but then neither holds and a fast good
	// audio answer would stay good; keep 4.0.
	easyCutoff = 4.0
	goodCutoff = 2.5
	hardCutoff = 1.0
)

// Result is the outcome of a quality adjustment.
type Result struct {
	BaseQuality      float64
	Bucket           LatencyBucket
	Adjustment       float64
	AdjustedQuality  float64
	EffectiveRating  spacedrep.Rating
	MethodMultiplier float64
}

// BaseQuality maps a rating onto the 0-5 quality scale.
func BaseQuality(r spacedrep.Rating) float64 {
	switch r {
	case spacedrep.RatingForgot:
		return 0
	case spacedrep.RatingHard:
		return 2
	case spacedrep.RatingGood:
		return 3
	case spacedrep.RatingEasy:
		return 4
	}
	return 0
}

// Adjust combines rating, latency and method into an adjusted quality and
// an effective rating. A non-positive responseTimeMs means the latency was
// not measured and leaves the base quality unchanged.
func Adjust(rating spacedrep.Rating, responseTimeMs int64, method spacedrep.Method) (Result, error) {
	if !rating.Valid() {
		return Result{}, fmt.Errorf("%w: %q", spacedrep.ErrInvalidRating, rating)
	}
	if !method.Valid() {
		return Result{}, fmt.Errorf("%w: %q", spacedrep.ErrInvalidMethod, method)
	}

	base := BaseQuality(rating)
	bucket := ClassifyLatency(responseTimeMs, method)
	adj := bucket.Adjustment()
	q := clamp(base+adj, MinQuality, MaxQuality)

	return Result{
		BaseQuality:      base,
		Bucket:           bucket,
		Adjustment:       adj,
		AdjustedQuality:  q,
		EffectiveRating:  EffectiveRating(q),
		MethodMultiplier: method.Difficulty(),
	}, nil
}

// EffectiveRating buckets an adjusted quality back into a rating.
func EffectiveRating(q float64) spacedrep.Rating {
	switch {
	case q >= easyCutoff:
		return spacedrep.RatingEasy
	case q >= goodCutoff:
		return spacedrep.RatingGood
	case q >= hardCutoff:
		return spacedrep.RatingHard
	default:
		return spacedrep.RatingForgot
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
