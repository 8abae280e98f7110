package session

import (
	"errors"
	"math/rand/v2"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/abhisek/lexiz/internal/spacedrep"
)

var (
	// ErrNotInProgress is returned for actions that need a running session.
	ErrNotInProgress = errors.New("session is not in progress")

	// ErrAlreadyStarted is returned when Start is called twice.
	ErrAlreadyStarted = errors.New("session already started")

	// ErrNotFinished is returned when a summary is requested too early.
	ErrNotFinished = errors.New("session has not finished")

	// ErrAborted is returned by a Presenter when the learner quits.
	ErrAborted = errors.New("session aborted")
)

// Session sequences a batch of due records. All methods are safe for
// concurrent use; the lock makes the duplicate-outcome guard race free.
type Session struct {
	mu sync.Mutex

	id         string
	phase      Phase
	candidates []spacedrep.Record
	index      int
	outcomes   []Outcome
	byItem     map[string]int // item ID -> index into outcomes
	startedAt  time.Time
	endedAt    time.Time
	rng        *rand.Rand
}

// New creates an idle session. rng is used for ordering; nil seeds one
// from the clock.
func New(id string, rng *rand.Rand) *Session {
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
	return &Session{
		id:     id,
		phase:  PhaseIdle,
		byItem: make(map[string]int),
		rng:    rng,
	}
}

// Start orders and clamps candidates and moves the session to InProgress.
// Duplicate item IDs are dropped. An empty candidate list completes the
// session immediately.
func (s *Session) Start(candidates []spacedrep.Record, cfg Config, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseIdle {
		return ErrAlreadyStarted
	}

	list := dedupe(candidates)
	sortByDue(list)
	if cfg.SessionSize > 0 && len(list) > cfg.SessionSize {
		list = list[:cfg.SessionSize]
	}
	switch cfg.Order {
	case OrderShuffle:
		s.rng.Shuffle(len(list), func(i, j int) { list[i], list[j] = list[j], list[i] })
	case OrderInterleave:
		list = interleave(list)
	}

	s.candidates = list
	s.index = 0
	s.startedAt = now
	s.phase = PhaseInProgress
	if len(list) == 0 {
		s.phase = PhaseCompleted
		s.endedAt = now
	}
	return nil
}

// Current returns the next candidate without an outcome.
func (s *Session) Current() (spacedrep.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseInProgress || s.index >= len(s.candidates) {
		return spacedrep.Record{}, false
	}
	return s.candidates[s.index], true
}

// Position returns the 1-based position of the current item and the total.
func (s *Session) Position() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return min(len(s.outcomes)+1, len(s.candidates)), len(s.candidates)
}

// Has reports whether itemID is one of the session's candidates.
func (s *Session) Has(itemID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.candidateIndex(itemID) >= 0
}

// Outcome returns the recorded outcome for itemID, if any.
func (s *Session) Outcome(itemID string) (Outcome, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.byItem[itemID]
	if !ok {
		return Outcome{}, false
	}
	return s.outcomes[i], true
}

// RecordOutcome appends o and advances the session. It is a no-op, returning
// false, when the session is not in progress, the item is not a candidate,
// or the item already has an outcome.
func (s *Session) RecordOutcome(o Outcome) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseInProgress {
		return false
	}
	if _, dup := s.byItem[o.ItemID]; dup {
		return false
	}
	if s.candidateIndex(o.ItemID) < 0 {
		return false
	}

	s.byItem[o.ItemID] = len(s.outcomes)
	s.outcomes = append(s.outcomes, o)
	s.advance()

	if len(s.outcomes) == len(s.candidates) {
		s.phase = PhaseCompleted
		s.endedAt = o.RecordedAt
		if s.endedAt.IsZero() {
			s.endedAt = time.Now()
		}
	}
	return true
}

// advance moves the index to the next candidate without an outcome.
func (s *Session) advance() {
	for s.index < len(s.candidates) {
		if _, done := s.byItem[s.candidates[s.index].ItemID]; !done {
			return
		}
		s.index++
	}
}

// Drop removes a candidate that has no outcome yet, for items deleted while
// the session runs. The session completes once every remaining candidate
// has an outcome.
func (s *Session) Drop(itemID string, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseInProgress {
		return false
	}
	if _, done := s.byItem[itemID]; done {
		return false
	}
	i := s.candidateIndex(itemID)
	if i < 0 {
		return false
	}

	s.candidates = slices.Delete(s.candidates, i, i+1)
	if i < s.index {
		s.index--
	}
	s.advance()

	if len(s.outcomes) == len(s.candidates) {
		s.phase = PhaseCompleted
		s.endedAt = now
	}
	return true
}

// Abort stops the session. Outcomes recorded so far stay valid.
func (s *Session) Abort(now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseInProgress {
		return ErrNotInProgress
	}
	s.phase = PhaseAborted
	s.endedAt = now
	return nil
}

// Progress returns the completed fraction in [0, 1].
func (s *Session) Progress() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.candidates) == 0 {
		if s.phase == PhaseCompleted {
			return 1
		}
		return 0
	}
	return min(float64(len(s.outcomes))/float64(len(s.candidates)), 1.0)
}

// ID returns the session ID.
func (s *Session) ID() string { return s.id }

// Phase returns the current phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Candidates returns a copy of the ordered candidate list.
func (s *Session) Candidates() []spacedrep.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]spacedrep.Record(nil), s.candidates...)
}

// Outcomes returns a copy of the recorded outcomes in order.
func (s *Session) Outcomes() []Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Outcome(nil), s.outcomes...)
}

// Summary computes aggregate statistics. Only available once the session
// has completed or been aborted.
func (s *Session) Summary() (Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.phase.Finished() {
		return Summary{}, ErrNotFinished
	}
	return buildSummary(s.id, s.phase, len(s.candidates), s.outcomes, s.endedAt.Sub(s.startedAt)), nil
}

func (s *Session) candidateIndex(itemID string) int {
	for i, c := range s.candidates {
		if c.ItemID == itemID {
			return i
		}
	}
	return -1
}

func dedupe(records []spacedrep.Record) []spacedrep.Record {
	seen := make(map[string]bool, len(records))
	out := make([]spacedrep.Record, 0, len(records))
	for _, r := range records {
		if seen[r.ItemID] {
			continue
		}
		seen[r.ItemID] = true
		out = append(out, r)
	}
	return out
}

// sortByDue orders most overdue first, breaking ties by item ID.
func sortByDue(records []spacedrep.Record) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if !a.NextReviewDate.Equal(b.NextReviewDate) {
			return a.NextReviewDate.Before(b.NextReviewDate)
		}
		return a.ItemID < b.ItemID
	})
}

// interleave alternates previously reviewed and never-reviewed records,
// starting with a reviewed one, keeping relative order within each group.
func interleave(records []spacedrep.Record) []spacedrep.Record {
	var reviewed, fresh []spacedrep.Record
	for _, r := range records {
		if r.Reviewed() {
			reviewed = append(reviewed, r)
		} else {
			fresh = append(fresh, r)
		}
	}

	out := make([]spacedrep.Record, 0, len(records))
	for i := 0; i < len(reviewed) || i < len(fresh); i++ {
		if i < len(reviewed) {
			out = append(out, reviewed[i])
		}
		if i < len(fresh) {
			out = append(out, fresh[i])
		}
	}
	return out
}
