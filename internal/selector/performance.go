package selector

import (
	"time"

	"github.com/abhisek/lexiz/internal/spacedrep"
)

// Item carries what the selector needs to know about the item being shown.
type Item struct {
	ID         string
	HasAudio   bool
	HasContext bool
}

// Supports reports whether the item has the material a method needs.
func (it Item) Supports(m spacedrep.Method) bool {
	switch m {
	case spacedrep.MethodAudioRecognition:
		return it.HasAudio
	case spacedrep.MethodFillBlank, spacedrep.MethodContextSelection:
		return it.HasContext
	case spacedrep.MethodTraditional, spacedrep.MethodMultipleChoice:
		return true
	}
	return false
}

// Performance aggregates the learner's results with one method.
type Performance struct {
	Method      spacedrep.Method
	Attempts    int
	Correct     int
	LastAttempt time.Time
}

// Accuracy returns Correct/Attempts, or 0 with no attempts.
func (p Performance) Accuracy() float64 {
	if p.Attempts == 0 {
		return 0
	}
	return float64(p.Correct) / float64(p.Attempts)
}

// Class labels a method by how well the learner does with it.
type Class string

const (
	ClassNeutral  Class = "neutral"
	ClassWeak     Class = "weak"
	ClassMastered Class = "mastered"
)

// Classify places a method's performance into a class. Methods with fewer
// than cfg.MinAttempts attempts are neutral.
func Classify(p Performance, cfg Config) Class {
	if p.Attempts < cfg.MinAttempts || p.Attempts == 0 {
		return ClassNeutral
	}
	acc := p.Accuracy()
	switch {
	case acc < cfg.WeaknessThreshold:
		return ClassWeak
	case acc >= cfg.MasteryThreshold:
		return ClassMastered
	default:
		return ClassNeutral
	}
}
