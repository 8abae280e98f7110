package quality

import "github.com/abhisek/lexiz/internal/spacedrep"

// LatencyBucket classifies how quickly the learner answered.
type LatencyBucket string

const (
	LatencyVeryFast LatencyBucket = "very_fast"
	LatencyFast     LatencyBucket = "fast"
	LatencyModerate LatencyBucket = "moderate"
	LatencySlow     LatencyBucket = "slow"
	LatencyVerySlow LatencyBucket = "very_slow"
)

// Base latency thresholds in milliseconds, before the method's time multiplier.
const (
	veryFastMs = 2000
	fastMs     = 5000
	moderateMs = 10000
	slowMs     = 20000
)

// TimeMultiplier returns how much slower a method is expected to be answered
// even once the item is mastered.
func TimeMultiplier(m spacedrep.Method) float64 {
	switch m {
	case spacedrep.MethodTraditional:
		return 1.0
	case spacedrep.MethodMultipleChoice:
		return 0.7
	case spacedrep.MethodAudioRecognition:
		return 1.3
	case spacedrep.MethodFillBlank:
		return 1.2
	case spacedrep.MethodContextSelection:
		return 0.9
	}
	return 1.0
}

// ClassifyLatency places a response time into a bucket using thresholds
// scaled by the method's time multiplier.
func ClassifyLatency(responseTimeMs int64, m spacedrep.Method) LatencyBucket {
	if responseTimeMs <= 0 {
		return LatencyModerate
	}
	mult := TimeMultiplier(m)
	t := float64(responseTimeMs)
	switch {
	case t < veryFastMs*mult:
		return LatencyVeryFast
	case t < fastMs*mult:
		return LatencyFast
	case t < moderateMs*mult:
		return LatencyModerate
	case t < slowMs*mult:
		return LatencySlow
	default:
		return LatencyVerySlow
	}
}

// Adjustment returns the quality delta for the bucket.
func (b LatencyBucket) Adjustment() float64 {
	switch b {
	case LatencyVeryFast:
		return 1
	case LatencyFast:
		return 0.5
	case LatencyModerate:
		return 0
	case LatencySlow:
		return -0.5
	case LatencyVerySlow:
		return -1
	}
	return 0
}
