package mastery

// Rank orders stages from least to most proficient; unknown stages rank
// below new.
func (s MasteryState) Rank() int {
	switch s {
	case StateNew:
		return 0
	case StateLearning:
		return 1
	case StateMastered:
		return 2
	}
	return -1
}

// Label is the capitalised stage name used in tables and summaries.
func (s MasteryState) Label() string {
	switch s {
	case StateNew:
		return "New"
	case StateLearning:
		return "Learning"
	case StateMastered:
		return "Mastered"
	}
	return "Unknown"
}

// Icon is a one-glyph marker for the stage.
func (s MasteryState) Icon() string {
	switch s {
	case StateNew:
		return "○"
	case StateLearning:
		return "◐"
	case StateMastered:
		return "●"
	}
	return "?"
}

// Improved reports whether the transition moved the item to a higher stage.
func (t StateTransition) Improved() bool {
	return t.To.Rank() > t.From.Rank()
}
