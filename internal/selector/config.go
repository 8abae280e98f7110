package selector

import "github.com/abhisek/lexiz/internal/spacedrep"

// Config controls method selection. It is passed explicitly to every call.
type Config struct {
	// EnabledMethods is the base candidate set. Empty means all methods.
	EnabledMethods []spacedrep.Method

	// DisabledMethods are removed from the candidate set.
	DisabledMethods []spacedrep.Method

	// RepetitionWindow is how many of the most recent presentations are
	// avoided when picking the next method.
	RepetitionWindow int

	// MinHistorySize is the history length below which selection is uniform.
	MinHistorySize int

	// EnableVariation turns performance-weighted selection on.
	EnableVariation bool

	// MinAttempts is the number of attempts before a method's accuracy counts.
	MinAttempts int

	// WeaknessThreshold is the accuracy below which a method is weak.
	WeaknessThreshold float64

	// MasteryThreshold is the accuracy at or above which a method is mastered.
	MasteryThreshold float64

	// WeaknessWeight is the share of probability mass given to weak methods
	// when any exist.
	WeaknessWeight float64

	// MasteredWeight is a mastered method's weight relative to a neutral one.
	MasteredWeight float64
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		EnabledMethods:    spacedrep.AllMethods(),
		RepetitionWindow:  3,
		MinHistorySize:    5,
		EnableVariation:   true,
		MinAttempts:       5,
		WeaknessThreshold: 0.70,
		MasteryThreshold:  0.85,
		WeaknessWeight:    0.7,
		MasteredWeight:    0.5,
	}
}
