// Package selector chooses the retrieval method for the next presentation
// of an item, steering practice toward methods the learner struggles with.
package selector

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/abhisek/lexiz/internal/spacedrep"
)

// ErrNoMethodAvailable is returned when configuration and item material
// leave no method to choose from.
var ErrNoMethodAvailable = errors.New("no retrieval method available")

// Candidate is a method that was eligible for selection, with its score.
type Candidate struct {
	Method   spacedrep.Method
	Class    Class
	Accuracy float64
	Attempts int
	Score    float64 // selection probability
}

// Selection is the chosen method plus diagnostics.
type Selection struct {
	Method       spacedrep.Method
	Reason       string
	Alternatives []Candidate
}

// Selector picks methods using its own random source.
type Selector struct {
	rng *rand.Rand
}

// New creates a Selector. A nil rng seeds one from the clock.
func New(rng *rand.Rand) *Selector {
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>1|1))
	}
	return &Selector{rng: rng}
}

// Select chooses the next method for item. history is ordered oldest first.
func (s *Selector) Select(item Item, history []spacedrep.Method, perf map[spacedrep.Method]Performance, cfg Config) (Selection, error) {
	methods := candidateMethods(item, cfg)
	if len(methods) == 0 {
		return Selection{}, fmt.Errorf("item %q: %w", item.ID, ErrNoMethodAvailable)
	}

	fresh := excludeRecent(methods, history, cfg.RepetitionWindow)
	repeated := len(fresh) == 0
	if !repeated {
		methods = fresh
	}

	cands := make([]Candidate, len(methods))
	for i, m := range methods {
		p := perf[m]
		cands[i] = Candidate{
			Method:   m,
			Class:    Classify(p, cfg),
			Accuracy: p.Accuracy(),
			Attempts: p.Attempts,
		}
	}

	var reason string
	switch {
	case !cfg.EnableVariation:
		scoreUniform(cands)
		reason = "random: variation disabled"
	case len(history) < cfg.MinHistorySize:
		scoreUniform(cands)
		reason = fmt.Sprintf("random: %d of %d reviews needed for weighting", len(history), cfg.MinHistorySize)
	default:
		scoreWeighted(cands, cfg)
	}

	chosen := s.sample(cands)
	if reason == "" {
		reason = weightedReason(chosen)
	}
	if repeated {
		reason += " (repeats a recent method)"
	}

	alts := make([]Candidate, 0, len(cands)-1)
	for _, c := range cands {
		if c.Method != chosen.Method {
			alts = append(alts, c)
		}
	}
	sort.SliceStable(alts, func(i, j int) bool { return alts[i].Score > alts[j].Score })

	return Selection{Method: chosen.Method, Reason: reason, Alternatives: alts}, nil
}

func candidateMethods(item Item, cfg Config) []spacedrep.Method {
	enabled := cfg.EnabledMethods
	if len(enabled) == 0 {
		enabled = spacedrep.AllMethods()
	}
	disabled := make(map[spacedrep.Method]bool, len(cfg.DisabledMethods))
	for _, m := range cfg.DisabledMethods {
		disabled[m] = true
	}

	seen := make(map[spacedrep.Method]bool, len(enabled))
	var out []spacedrep.Method
	for _, m := range enabled {
		if !m.Valid() || disabled[m] || seen[m] || !item.Supports(m) {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}

func excludeRecent(methods, history []spacedrep.Method, window int) []spacedrep.Method {
	if window <= 0 || len(history) == 0 {
		return methods
	}
	start := len(history) - window
	if start < 0 {
		start = 0
	}
	recent := make(map[spacedrep.Method]bool, window)
	for _, m := range history[start:] {
		recent[m] = true
	}

	out := make([]spacedrep.Method, 0, len(methods))
	for _, m := range methods {
		if !recent[m] {
			out = append(out, m)
		}
	}
	return out
}

func scoreUniform(cands []Candidate) {
	for i := range cands {
		cands[i].Score = 1 / float64(len(cands))
	}
}

// scoreWeighted gives weak methods cfg.WeaknessWeight of the mass when any
// exist and spreads the rest over the others, with mastered methods at
// cfg.MasteredWeight relative to neutral ones.
func scoreWeighted(cands []Candidate, cfg Config) {
	var weak, others []int
	for i, c := range cands {
		if c.Class == ClassWeak {
			weak = append(weak, i)
		} else {
			others = append(others, i)
		}
	}

	if len(weak) == 0 || len(others) == 0 {
		distribute(cands, allIndexes(cands), 1.0, cfg.MasteredWeight)
		return
	}

	w := clamp01(cfg.WeaknessWeight)
	for _, i := range weak {
		cands[i].Score = w / float64(len(weak))
	}
	distribute(cands, others, 1-w, cfg.MasteredWeight)
}

// distribute spreads mass over idx, weighting mastered methods by
// masteredWeight. Falls back to an even split if all weights are zero.
func distribute(cands []Candidate, idx []int, mass, masteredWeight float64) {
	weights := make([]float64, len(idx))
	var total float64
	for k, i := range idx {
		w := 1.0
		if cands[i].Class == ClassMastered {
			w = max(masteredWeight, 0)
		}
		weights[k] = w
		total += w
	}
	for k, i := range idx {
		if total == 0 {
			cands[i].Score = mass / float64(len(idx))
			continue
		}
		cands[i].Score = mass * weights[k] / total
	}
}

func (s *Selector) sample(cands []Candidate) Candidate {
	r := s.rng.Float64()
	var cum float64
	for _, c := range cands {
		cum += c.Score
		if r < cum {
			return c
		}
	}
	return cands[len(cands)-1]
}

func weightedReason(c Candidate) string {
	switch c.Class {
	case ClassWeak:
		return fmt.Sprintf("weak method: %.0f%% accuracy over %d attempts", c.Accuracy*100, c.Attempts)
	case ClassMastered:
		return fmt.Sprintf("mastered method kept in rotation: %.0f%% accuracy", c.Accuracy*100)
	default:
		return "balanced rotation"
	}
}

func allIndexes(cands []Candidate) []int {
	idx := make([]int, len(cands))
	for i := range cands {
		idx[i] = i
	}
	return idx
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
