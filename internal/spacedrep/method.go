package spacedrep

import "fmt"

// Method is the retrieval format used to present an item.
type Method string

const (
	MethodTraditional      Method = "traditional"
	MethodMultipleChoice   Method = "multiple_choice"
	MethodAudioRecognition Method = "audio_recognition"
	MethodFillBlank        Method = "fill_blank"
	MethodContextSelection Method = "context_selection"
)

// AllMethods lists every retrieval method in a stable order.
func AllMethods() []Method {
	return []Method{
		MethodTraditional,
		MethodMultipleChoice,
		MethodAudioRecognition,
		MethodFillBlank,
		MethodContextSelection,
	}
}

// Valid reports whether m is a known retrieval method.
func (m Method) Valid() bool {
	switch m {
	case MethodTraditional, MethodMultipleChoice, MethodAudioRecognition,
		MethodFillBlank, MethodContextSelection:
		return true
	}
	return false
}

// Difficulty returns the interval growth multiplier for a successful recall
// under this method. Harder methods grow intervals faster.
func (m Method) Difficulty() float64 {
	switch m {
	case MethodTraditional:
		return 1.0
	case MethodMultipleChoice:
		return 0.8
	case MethodAudioRecognition:
		return 1.2
	case MethodFillBlank:
		return 1.1
	case MethodContextSelection:
		return 0.9
	}
	return 1.0
}

// Label returns a short human-readable name.
func (m Method) Label() string {
	switch m {
	case MethodTraditional:
		return "Recall"
	case MethodMultipleChoice:
		return "Multiple choice"
	case MethodAudioRecognition:
		return "Listening"
	case MethodFillBlank:
		return "Fill the blank"
	case MethodContextSelection:
		return "In context"
	}
	return string(m)
}

// ParseMethod validates a method name.
func ParseMethod(s string) (Method, error) {
	m := Method(s)
	if !m.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidMethod, s)
	}
	return m, nil
}

// Direction says which side of the card was shown as the prompt.
type Direction string

const (
	// DirectionNone is used when the presentation has no direction.
	DirectionNone    Direction = ""
	DirectionForward Direction = "forward" // source -> target
	DirectionReverse Direction = "reverse" // target -> source
)

// Valid reports whether d is a known direction (including none).
func (d Direction) Valid() bool {
	switch d {
	case DirectionNone, DirectionForward, DirectionReverse:
		return true
	}
	return false
}
