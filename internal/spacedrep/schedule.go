package spacedrep

const (
	// DefaultEase is the ease factor a new record starts with.
	DefaultEase = 2.5

	// MinEase is the floor for the ease factor.
	MinEase = 1.3

	// MinIntervalDays and MaxIntervalDays bound every computed interval.
	MinIntervalDays = 1
	MaxIntervalDays = 365

	// FirstIntervalDays and SecondIntervalDays are the fixed intervals after
	// the first and second successful reviews.
	FirstIntervalDays  = 1
	SecondIntervalDays = 6
)

// Ease deltas applied per rating.
const (
	easyEaseBonus     = 0.15
	hardEasePenalty   = 0.15
	forgotEasePenalty = 0.20
)

// Interval trims applied in the steady-state branch.
const (
	hardIntervalTrim = 0.8
	easyIntervalTrim = 1.3
)
