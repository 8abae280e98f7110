package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/abhisek/lexiz/internal/mastery"
	"github.com/abhisek/lexiz/internal/metrics"
	"github.com/abhisek/lexiz/internal/quality"
	"github.com/abhisek/lexiz/internal/selector"
	"github.com/abhisek/lexiz/internal/spacedrep"
	"github.com/abhisek/lexiz/internal/store"
)

// Prompt is everything a presenter needs to show one item.
type Prompt struct {
	Item      store.Item
	Record    spacedrep.Record
	Selection selector.Selection
	Direction spacedrep.Direction
	Position  int
	Total     int

	// Choices and AnswerIndex are set for methods answered by picking.
	Choices     []string
	AnswerIndex int
}

// Response is the learner's answer to a Prompt.
type Response struct {
	Rating         spacedrep.Rating
	ResponseTimeMs int64
}

// Presenter shows prompts and waits for the learner. Present may block
// indefinitely; returning ErrAborted ends the session early.
type Presenter interface {
	Present(ctx context.Context, p Prompt) (Response, error)
}

// Deps wires a Service to its collaborators.
type Deps struct {
	Records store.RecordRepo
	Items   store.ItemRepo
	Events  store.EventRepo

	Config         Config
	SelectorConfig selector.Config

	Logger  *zap.Logger        // nil disables logging
	Metrics *metrics.Collector // nil disables metrics
	Rand    *rand.Rand         // nil seeds from the clock
	Now     func() time.Time   // nil uses time.Now
}

// Service drives review sessions against a store: it picks methods,
// adjusts quality, updates records atomically and logs events.
type Service struct {
	records store.RecordRepo
	items   store.ItemRepo
	events  store.EventRepo

	cfg    Config
	selCfg selector.Config

	log      *zap.Logger
	metrics  *metrics.Collector
	rng      *rand.Rand
	selector *selector.Selector
	now      func() time.Time

	// mu serialises outcome recording so a duplicate cannot slip past the
	// guard while the first call is still writing.
	mu      sync.Mutex
	session *Session
}

// NewService creates a Service.
func NewService(d Deps) *Service {
	rng := d.Rand
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>3|1))
	}
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}
	now := d.Now
	if now == nil {
		now = time.Now
	}
	cfg := d.Config
	if cfg.HistoryWindow <= 0 {
		cfg.HistoryWindow = DefaultConfig().HistoryWindow
	}
	return &Service{
		records:  d.Records,
		items:    d.Items,
		events:   d.Events,
		cfg:      cfg,
		selCfg:   d.SelectorConfig,
		log:      log,
		metrics:  d.Metrics,
		rng:      rng,
		selector: selector.New(rand.New(rand.NewPCG(rng.Uint64(), rng.Uint64()))),
		now:      now,
	}
}

// Session returns the current session, or nil before Begin.
func (s *Service) Session() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// Begin loads due records and starts a new session.
func (s *Service) Begin(ctx context.Context) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	due, err := s.records.GetDueRecords(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("load due records: %w", err)
	}

	sess := New(uuid.NewString(), rand.New(rand.NewPCG(s.rng.Uint64(), s.rng.Uint64())))
	if err := sess.Start(due, s.cfg, now); err != nil {
		return nil, err
	}

	s.session = sess

	candidates := len(sess.Candidates())
	s.log.Info("session started",
		zap.String("session_id", sess.ID()),
		zap.Int("due", len(due)),
		zap.Int("candidates", candidates),
		zap.String("order", string(s.cfg.Order)),
	)
	s.appendSessionEvent(ctx, sess, store.SessionStart)

	if sess.Phase() == PhaseCompleted {
		s.finish(ctx, sess)
	}
	return sess, nil
}

// Next returns the prompt for the current item. ok is false when the
// session has no more items. Items deleted since Begin are dropped from the
// session.
func (s *Service) Next(ctx context.Context) (Prompt, bool, error) {
	sess := s.Session()
	if sess == nil {
		return Prompt{}, false, ErrNotInProgress
	}

	var (
		rec  spacedrep.Record
		item *store.Item
	)
	for {
		var ok bool
		rec, ok = sess.Current()
		if !ok {
			return Prompt{}, false, nil
		}

		var err error
		item, err = s.items.GetItem(ctx, rec.ItemID)
		if err == nil {
			break
		}
		if !errors.Is(err, store.ErrItemNotFound) {
			return Prompt{}, false, fmt.Errorf("load item: %w", err)
		}
		s.dropMissing(ctx, sess, rec.ItemID)
	}

	history, err := s.events.MethodHistory(ctx, rec.ItemID, s.cfg.HistoryWindow)
	if err != nil {
		return Prompt{}, false, fmt.Errorf("load method history: %w", err)
	}

	scope := rec.ItemID
	if s.cfg.PerformanceScope == ScopeGlobal {
		scope = ""
	}
	perf, err := s.events.MethodPerformance(ctx, scope)
	if err != nil {
		return Prompt{}, false, fmt.Errorf("load method performance: %w", err)
	}

	sel, err := s.selector.Select(item.SelectorItem(), history, perf, s.selCfg)
	if err != nil {
		return Prompt{}, false, err
	}

	pos, total := sess.Position()
	p := Prompt{
		Item:      *item,
		Record:    rec,
		Selection: sel,
		Direction: s.pickDirection(rec),
		Position:  pos,
		Total:     total,
	}
	if !p.Typed() {
		if err := s.fillChoices(ctx, &p); err != nil {
			return Prompt{}, false, err
		}
	}
	return p, true, nil
}

func (s *Service) dropMissing(ctx context.Context, sess *Session, itemID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !sess.Drop(itemID, s.now()) {
		return
	}
	s.log.Warn("item deleted during session, skipped",
		zap.String("session_id", sess.ID()),
		zap.String("item_id", itemID),
	)
	if sess.Phase() == PhaseCompleted {
		s.finish(ctx, sess)
	}
}

// fillChoices draws distractors from the rest of the vocabulary.
func (s *Service) fillChoices(ctx context.Context, p *Prompt) error {
	items, err := s.items.ListItems(ctx)
	if err != nil {
		return fmt.Errorf("load distractors: %w", err)
	}
	pool := make([]string, 0, len(items))
	for _, it := range items {
		if it.ID == p.Item.ID {
			continue
		}
		pool = append(pool, p.withItem(it).Answer())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	p.Choices, p.AnswerIndex = BuildChoices(p.Answer(), pool, MaxChoices, s.rng)
	return nil
}

// pickDirection favours the direction the learner has practised less.
func (s *Service) pickDirection(rec spacedrep.Record) spacedrep.Direction {
	switch {
	case rec.ForwardTotal < rec.ReverseTotal:
		return spacedrep.DirectionForward
	case rec.ReverseTotal < rec.ForwardTotal:
		return spacedrep.DirectionReverse
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rng.IntN(2) == 0 {
		return spacedrep.DirectionForward
	}
	return spacedrep.DirectionReverse
}

// RecordOutcome applies the learner's answer for itemID. When the item
// already has an outcome in this session nothing is written and the earlier
// outcome is returned with duplicate set.
func (s *Service) RecordOutcome(ctx context.Context, itemID string, rating spacedrep.Rating, responseTimeMs int64, method spacedrep.Method, dir spacedrep.Direction) (out Outcome, duplicate bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.session
	if sess == nil || sess.Phase() != PhaseInProgress {
		return Outcome{}, false, ErrNotInProgress
	}
	if prev, ok := sess.Outcome(itemID); ok {
		s.log.Debug("duplicate outcome ignored",
			zap.String("session_id", sess.ID()),
			zap.String("item_id", itemID),
		)
		return prev, true, nil
	}
	if !sess.Has(itemID) {
		return Outcome{}, false, fmt.Errorf("item %q is not part of session %s", itemID, sess.ID())
	}

	adj, err := quality.Adjust(rating, responseTimeMs, method)
	if err != nil {
		return Outcome{}, false, err
	}
	if !dir.Valid() {
		return Outcome{}, false, fmt.Errorf("direction %q: %w", dir, spacedrep.ErrInvalidDirection)
	}

	now := s.now()
	before, after, err := s.update(ctx, itemID, now, adj.EffectiveRating, method, dir)
	if err != nil {
		return Outcome{}, false, err
	}

	out = Outcome{
		ItemID:          itemID,
		Rating:          rating,
		EffectiveRating: adj.EffectiveRating,
		AdjustedQuality: adj.AdjustedQuality,
		ResponseTimeMs:  responseTimeMs,
		Method:          method,
		Direction:       dir,
		Record:          after,
		Transition:      mastery.Transition(before, after),
		RecordedAt:      now,
	}

	// The record is already persisted; event logging failures are reported
	// but do not undo the review.
	if err := s.events.AppendReviewEvent(ctx, store.ReviewEventData{
		SessionID:       sess.ID(),
		ItemID:          itemID,
		Method:          method,
		Direction:       dir,
		Rating:          rating,
		EffectiveRating: adj.EffectiveRating,
		AdjustedQuality: adj.AdjustedQuality,
		ResponseTimeMs:  responseTimeMs,
		IntervalAfter:   after.Interval,
		EaseAfter:       after.EaseFactor,
	}); err != nil {
		s.log.Warn("append review event", zap.String("item_id", itemID), zap.Error(err))
	}
	if tr := out.Transition; tr != nil {
		if err := s.events.AppendMasteryEvent(ctx, store.MasteryEventData{
			SessionID: sess.ID(),
			ItemID:    itemID,
			FromState: string(tr.From),
			ToState:   string(tr.To),
			Trigger:   tr.Trigger,
		}); err != nil {
			s.log.Warn("append mastery event", zap.String("item_id", itemID), zap.Error(err))
		}
	}

	sess.RecordOutcome(out)
	s.metrics.ObserveReview(method, adj.EffectiveRating, adj.AdjustedQuality, after.Interval)
	s.log.Info("outcome recorded",
		zap.String("session_id", sess.ID()),
		zap.String("item_id", itemID),
		zap.String("method", string(method)),
		zap.String("rating", string(rating)),
		zap.String("effective_rating", string(adj.EffectiveRating)),
		zap.Float64("adjusted_quality", adj.AdjustedQuality),
		zap.Int("interval", after.Interval),
		zap.Float64("ease", after.EaseFactor),
	)

	if sess.Phase() == PhaseCompleted {
		s.finish(ctx, sess)
	}
	return out, false, nil
}

// update runs the scheduler inside the store's atomic update, creating the
// record first if the item has none.
func (s *Service) update(ctx context.Context, itemID string, now time.Time, eff spacedrep.Rating, method spacedrep.Method, dir spacedrep.Direction) (before, after spacedrep.Record, err error) {
	apply := func(cur spacedrep.Record) (spacedrep.Record, error) {
		before = cur
		return spacedrep.UpdateRecord(cur, eff, method, now, dir)
	}

	after, err = s.records.UpdateRecord(ctx, itemID, now, apply)
	if errors.Is(err, store.ErrRecordNotFound) {
		s.log.Warn("record missing, recreating", zap.String("item_id", itemID))
		if _, err = s.records.CreateInitialRecord(ctx, itemID, now); err != nil {
			return before, after, fmt.Errorf("recreate record: %w", err)
		}
		after, err = s.records.UpdateRecord(ctx, itemID, now, apply)
	}
	if err != nil {
		return before, after, fmt.Errorf("update record: %w", err)
	}
	return before, after, nil
}

// Abort stops the current session and returns its partial summary.
func (s *Service) Abort(ctx context.Context) (Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.session
	if sess == nil {
		return Summary{}, ErrNotInProgress
	}
	if err := sess.Abort(s.now()); err != nil {
		return Summary{}, err
	}
	return s.finish(ctx, sess), nil
}

// finish logs the end of a session. Callers hold s.mu or own sess exclusively.
func (s *Service) finish(ctx context.Context, sess *Session) Summary {
	sum, err := sess.Summary()
	if err != nil {
		return Summary{}
	}

	action := store.SessionComplete
	if sum.Aborted() {
		action = store.SessionAbort
	}
	s.appendSessionEvent(ctx, sess, action)
	s.metrics.ObserveSession(string(sum.Phase))
	s.log.Info("session finished",
		zap.String("session_id", sess.ID()),
		zap.String("phase", string(sum.Phase)),
		zap.Int("reviewed", sum.Reviewed),
		zap.Int("candidates", sum.Candidates),
		zap.Float64("accuracy", sum.Accuracy),
		zap.Duration("duration", sum.Duration),
	)
	return sum
}

func (s *Service) appendSessionEvent(ctx context.Context, sess *Session, action string) {
	data := store.SessionEventData{
		SessionID:  sess.ID(),
		Action:     action,
		Candidates: len(sess.Candidates()),
	}
	if sum, err := sess.Summary(); err == nil {
		data.Reviewed = sum.Reviewed
		data.Correct = sum.Correct
		data.DurationSecs = int(sum.Duration.Seconds())
	}
	if err := s.events.AppendSessionEvent(ctx, data); err != nil {
		s.log.Warn("append session event", zap.String("action", action), zap.Error(err))
	}
}

// Run drives a whole session through p, blocking until every item has an
// outcome, the presenter returns ErrAborted, or ctx is cancelled. Outcomes
// recorded before an abort or error are kept. A response the engine rejects
// as invalid input is logged and the same prompt is presented again.
func (s *Service) Run(ctx context.Context, p Presenter) (Summary, error) {
	sess, err := s.Begin(ctx)
	if err != nil {
		return Summary{}, err
	}

	for {
		prompt, ok, err := s.Next(ctx)
		if err != nil {
			return s.abortWith(ctx, err)
		}
		if !ok {
			return sess.Summary()
		}

		resp, err := p.Present(ctx, prompt)
		if errors.Is(err, ErrAborted) {
			return s.Abort(ctx)
		}
		if err != nil {
			return s.abortWith(ctx, err)
		}

		_, _, err = s.RecordOutcome(ctx, prompt.Item.ID, resp.Rating, resp.ResponseTimeMs,
			prompt.Selection.Method, prompt.Direction)
		if IsInvalidInput(err) {
			s.log.Warn("response rejected, presenting again",
				zap.String("item_id", prompt.Item.ID),
				zap.Error(err),
			)
			continue
		}
		if err != nil {
			return s.abortWith(ctx, err)
		}
	}
}

// IsInvalidInput reports whether err is a rejected rating, method or
// direction. Nothing is written for such errors, so the caller may retry.
func IsInvalidInput(err error) bool {
	return errors.Is(err, spacedrep.ErrInvalidRating) ||
		errors.Is(err, spacedrep.ErrInvalidMethod) ||
		errors.Is(err, spacedrep.ErrInvalidDirection)
}

func (s *Service) abortWith(ctx context.Context, cause error) (Summary, error) {
	sum, err := s.Abort(ctx)
	if err != nil && !errors.Is(err, ErrNotInProgress) {
		s.log.Warn("abort after error", zap.Error(err))
	}
	return sum, cause
}
