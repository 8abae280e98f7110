package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/lexiz/internal/mastery"
	"github.com/abhisek/lexiz/internal/metrics"
	"github.com/abhisek/lexiz/internal/selector"
	"github.com/abhisek/lexiz/internal/spacedrep"
	"github.com/abhisek/lexiz/internal/store"
)

type fixture struct {
	store   *store.Store
	svc     *Service
	metrics *metrics.Collector
	now     time.Time
	items   []store.Item
}

func newFixture(t *testing.T, n int, mutate func(*Deps)) *fixture {
	t.Helper()
	st, err := store.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	f := &fixture{store: st, metrics: metrics.New(), now: t0}
	ctx := context.Background()
	for i := range n {
		it, err := st.Items().AddItem(ctx, store.Item{
			Term:        fmt.Sprintf("term-%d", i),
			Translation: fmt.Sprintf("translation-%d", i),
			CreatedAt:   t0.Add(time.Duration(i) * time.Second),
		}, t0.Add(-time.Duration(n-i)*time.Hour))
		require.NoError(t, err)
		f.items = append(f.items, it)
	}

	deps := Deps{
		Records:        st.Records(),
		Items:          st.Items(),
		Events:         st.Events(),
		Config:         DefaultConfig(),
		SelectorConfig: selector.DefaultConfig(),
		Metrics:        f.metrics,
		Rand:           rand.New(rand.NewPCG(3, 4)),
		Now:            func() time.Time { return f.now },
	}
	if mutate != nil {
		mutate(&deps)
	}
	f.svc = NewService(deps)
	return f
}

func TestService_BeginLoadsDueItems(t *testing.T) {
	f := newFixture(t, 3, nil)
	ctx := context.Background()

	sess, err := f.svc.Begin(ctx)
	require.NoError(t, err)
	assert.Equal(t, PhaseInProgress, sess.Phase())
	require.Len(t, sess.Candidates(), 3)
	assert.Equal(t, f.items[0].ID, sess.Candidates()[0].ItemID, "most overdue first")

	p, ok, err := f.svc.Next(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, f.items[0].ID, p.Item.ID)
	assert.Equal(t, 1, p.Position)
	assert.Equal(t, 3, p.Total)
	assert.Contains(t, []spacedrep.Method{spacedrep.MethodTraditional, spacedrep.MethodMultipleChoice},
		p.Selection.Method, "items without audio or example only support these")
	assert.True(t, p.Direction.Valid())
	assert.NotEqual(t, spacedrep.DirectionNone, p.Direction)
}

func TestService_NextBeforeBegin(t *testing.T) {
	f := newFixture(t, 1, nil)
	_, _, err := f.svc.Next(context.Background())
	assert.ErrorIs(t, err, ErrNotInProgress)

	_, _, err = f.svc.RecordOutcome(context.Background(), f.items[0].ID, spacedrep.RatingGood, 3000, spacedrep.MethodTraditional, spacedrep.DirectionForward)
	assert.ErrorIs(t, err, ErrNotInProgress)
}

func TestService_RecordOutcomeUpdatesStore(t *testing.T) {
	f := newFixture(t, 2, nil)
	ctx := context.Background()
	_, err := f.svc.Begin(ctx)
	require.NoError(t, err)

	id := f.items[0].ID
	out, dup, err := f.svc.RecordOutcome(ctx, id, spacedrep.RatingGood, 1800, spacedrep.MethodAudioRecognition, spacedrep.DirectionForward)
	require.NoError(t, err)
	assert.False(t, dup)
	assert.Equal(t, 4.0, out.AdjustedQuality)
	assert.Equal(t, spacedrep.RatingEasy, out.EffectiveRating)
	assert.Equal(t, 1, out.Record.Interval)
	assert.Equal(t, 1, out.Record.Repetition)
	assert.Nil(t, out.Transition, "one review keeps the item new")

	rec, err := f.store.Records().GetRecord(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, rec.TotalReviews)
	assert.Equal(t, 1, rec.ForwardTotal)
	assert.True(t, rec.NextReviewDate.Equal(t0.AddDate(0, 0, 1)))

	hist, err := f.store.Events().MethodHistory(ctx, id, 5)
	require.NoError(t, err)
	assert.Equal(t, []spacedrep.Method{spacedrep.MethodAudioRecognition}, hist)
}

func TestService_DuplicateOutcomeIgnored(t *testing.T) {
	f := newFixture(t, 2, nil)
	ctx := context.Background()
	_, err := f.svc.Begin(ctx)
	require.NoError(t, err)
	id := f.items[0].ID

	first, _, err := f.svc.RecordOutcome(ctx, id, spacedrep.RatingGood, 4000, spacedrep.MethodTraditional, spacedrep.DirectionForward)
	require.NoError(t, err)

	again, dup, err := f.svc.RecordOutcome(ctx, id, spacedrep.RatingForgot, 4000, spacedrep.MethodTraditional, spacedrep.DirectionForward)
	require.NoError(t, err)
	assert.True(t, dup)
	assert.Equal(t, first, again)

	rec, err := f.store.Records().GetRecord(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, rec.TotalReviews, "duplicate must not touch the record")

	events, err := f.store.Events().ReviewEvents(ctx, id, 0)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestService_InvalidInputLeavesRecord(t *testing.T) {
	f := newFixture(t, 1, nil)
	ctx := context.Background()
	_, err := f.svc.Begin(ctx)
	require.NoError(t, err)
	id := f.items[0].ID

	_, _, err = f.svc.RecordOutcome(ctx, id, spacedrep.Rating("perfect"), 4000, spacedrep.MethodTraditional, spacedrep.DirectionForward)
	assert.ErrorIs(t, err, spacedrep.ErrInvalidRating)

	_, _, err = f.svc.RecordOutcome(ctx, id, spacedrep.RatingGood, 4000, spacedrep.Method("dictation"), spacedrep.DirectionForward)
	assert.ErrorIs(t, err, spacedrep.ErrInvalidMethod)

	_, _, err = f.svc.RecordOutcome(ctx, "not-in-session", spacedrep.RatingGood, 4000, spacedrep.MethodTraditional, spacedrep.DirectionForward)
	assert.Error(t, err)

	rec, err := f.store.Records().GetRecord(ctx, id)
	require.NoError(t, err)
	assert.Zero(t, rec.TotalReviews)
	assert.Empty(t, f.svc.Session().Outcomes())
}

func TestService_RecreatesMissingRecord(t *testing.T) {
	f := newFixture(t, 1, nil)
	ctx := context.Background()
	_, err := f.svc.Begin(ctx)
	require.NoError(t, err)
	id := f.items[0].ID

	_, err = f.store.DB().Exec(`DELETE FROM review_records WHERE item_id = ?`, id)
	require.NoError(t, err)

	out, _, err := f.svc.RecordOutcome(ctx, id, spacedrep.RatingGood, 4000, spacedrep.MethodTraditional, spacedrep.DirectionForward)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Record.TotalReviews)
}

func TestService_CompletionAndMetrics(t *testing.T) {
	f := newFixture(t, 2, nil)
	ctx := context.Background()
	for _, it := range f.items {
		rec := spacedrep.NewRecord(it.ID, t0.AddDate(0, 0, -1))
		rec.Repetition = 2
		rec.Interval = 6
		rec.TotalReviews = 2
		rec.CorrectCount = 2
		rec.LastReviewDate = t0.AddDate(0, 0, -7)
		require.NoError(t, f.store.Records().PutRecord(ctx, rec))
	}
	sess, err := f.svc.Begin(ctx)
	require.NoError(t, err)

	for _, c := range sess.Candidates() {
		out, _, err := f.svc.RecordOutcome(ctx, c.ItemID, spacedrep.RatingGood, 4000, spacedrep.MethodTraditional, spacedrep.DirectionReverse)
		require.NoError(t, err)
		require.NotNil(t, out.Transition)
		assert.Equal(t, mastery.StateLearning, out.Transition.To)
		assert.Equal(t, mastery.TriggerFirstReviews, out.Transition.Trigger)
		assert.Equal(t, 15, out.Record.Interval)
	}
	assert.Equal(t, PhaseCompleted, sess.Phase())

	_, err = f.svc.Abort(ctx)
	assert.ErrorIs(t, err, ErrNotInProgress)

	var count int
	require.NoError(t, f.store.DB().QueryRow(
		`SELECT COUNT(*) FROM session_events WHERE session_id = ? AND action = ?`, sess.ID(), store.SessionComplete,
	).Scan(&count))
	assert.Equal(t, 1, count)

	require.NoError(t, f.store.DB().QueryRow(`SELECT COUNT(*) FROM mastery_events`).Scan(&count))
	assert.Equal(t, 2, count, "new -> learning for each item")

	n, err := testutil.GatherAndCount(f.metrics.Registry(), "lexiz_reviews_total", "lexiz_sessions_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n, "one review series and one session series")
}

func TestService_AbortPersistsPartialWork(t *testing.T) {
	f := newFixture(t, 3, nil)
	ctx := context.Background()
	sess, err := f.svc.Begin(ctx)
	require.NoError(t, err)

	first := sess.Candidates()[0].ItemID
	_, _, err = f.svc.RecordOutcome(ctx, first, spacedrep.RatingHard, 4000, spacedrep.MethodTraditional, spacedrep.DirectionForward)
	require.NoError(t, err)

	f.now = t0.Add(3 * time.Minute)
	sum, err := f.svc.Abort(ctx)
	require.NoError(t, err)
	assert.True(t, sum.Aborted())
	assert.Equal(t, 1, sum.Reviewed)
	assert.Equal(t, 3*time.Minute, sum.Duration)

	rec, err := f.store.Records().GetRecord(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, 1, rec.TotalReviews, "aborting keeps recorded work")
}

func TestService_EmptySession(t *testing.T) {
	f := newFixture(t, 0, nil)
	sess, err := f.svc.Begin(context.Background())
	require.NoError(t, err)
	assert.Equal(t, PhaseCompleted, sess.Phase())

	_, ok, err := f.svc.Next(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestService_NoMethodAvailable(t *testing.T) {
	f := newFixture(t, 1, func(d *Deps) {
		d.SelectorConfig.EnabledMethods = []spacedrep.Method{spacedrep.MethodAudioRecognition}
	})
	ctx := context.Background()
	_, err := f.svc.Begin(ctx)
	require.NoError(t, err)

	_, _, err = f.svc.Next(ctx)
	assert.ErrorIs(t, err, selector.ErrNoMethodAvailable)
}

// scriptedPresenter answers prompts from a fixed list of ratings and then
// aborts.
type scriptedPresenter struct {
	ratings []spacedrep.Rating
	prompts []Prompt
}

func (p *scriptedPresenter) Present(_ context.Context, pr Prompt) (Response, error) {
	p.prompts = append(p.prompts, pr)
	if len(p.ratings) == 0 {
		return Response{}, ErrAborted
	}
	r := p.ratings[0]
	p.ratings = p.ratings[1:]
	return Response{Rating: r, ResponseTimeMs: 4000}, nil
}

func TestService_RunToCompletion(t *testing.T) {
	f := newFixture(t, 3, nil)
	p := &scriptedPresenter{ratings: []spacedrep.Rating{spacedrep.RatingGood, spacedrep.RatingForgot, spacedrep.RatingEasy}}

	sum, err := f.svc.Run(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, PhaseCompleted, sum.Phase)
	assert.Equal(t, 3, sum.Reviewed)
	assert.Equal(t, 2, sum.Correct)
	require.Len(t, p.prompts, 3)
	assert.Equal(t, 3, p.prompts[2].Position)

	due, err := f.store.Records().GetDueRecords(context.Background(), t0)
	require.NoError(t, err)
	assert.Empty(t, due, "every reviewed item moved into the future")
}

func TestService_RunAbortedByPresenter(t *testing.T) {
	f := newFixture(t, 3, nil)
	p := &scriptedPresenter{ratings: []spacedrep.Rating{spacedrep.RatingGood}}

	sum, err := f.svc.Run(context.Background(), p)
	require.NoError(t, err)
	assert.True(t, sum.Aborted())
	assert.Equal(t, 1, sum.Reviewed)
	assert.Equal(t, 3, sum.Candidates)
}

type failingPresenter struct{}

func (failingPresenter) Present(context.Context, Prompt) (Response, error) {
	return Response{}, errors.New("terminal gone")
}

func TestService_RunPresenterError(t *testing.T) {
	f := newFixture(t, 2, nil)
	sum, err := f.svc.Run(context.Background(), failingPresenter{})
	assert.EqualError(t, err, "terminal gone")
	assert.True(t, sum.Aborted())
}

func TestService_RunRepresentsAfterInvalidRating(t *testing.T) {
	f := newFixture(t, 3, nil)
	p := &scriptedPresenter{ratings: []spacedrep.Rating{
		"meh", spacedrep.RatingGood, spacedrep.RatingGood, spacedrep.RatingGood,
	}}

	sum, err := f.svc.Run(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, PhaseCompleted, sum.Phase)
	assert.Equal(t, 3, sum.Reviewed)
	require.Len(t, p.prompts, 4)
	assert.Equal(t, p.prompts[0].Item.ID, p.prompts[1].Item.ID, "same card shown again")
	assert.Equal(t, 1, p.prompts[1].Position)
}

func TestIsInvalidInput(t *testing.T) {
	_, err := spacedrep.ParseRating("meh")
	assert.True(t, IsInvalidInput(err))
	assert.True(t, IsInvalidInput(fmt.Errorf("wrapped: %w", spacedrep.ErrInvalidDirection)))
	assert.False(t, IsInvalidInput(store.ErrItemNotFound))
	assert.False(t, IsInvalidInput(nil))
}

func TestService_NextSkipsDeletedItem(t *testing.T) {
	f := newFixture(t, 3, nil)
	ctx := context.Background()
	_, err := f.svc.Begin(ctx)
	require.NoError(t, err)

	require.NoError(t, f.store.Items().DeleteItem(ctx, f.items[0].ID))

	p, ok, err := f.svc.Next(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, f.items[1].ID, p.Item.ID)
	assert.Equal(t, 1, p.Position)
	assert.Equal(t, 2, p.Total)
	assert.Equal(t, PhaseInProgress, f.svc.Session().Phase())
}

func TestService_DeletingLastItemCompletes(t *testing.T) {
	f := newFixture(t, 1, nil)
	ctx := context.Background()
	sess, err := f.svc.Begin(ctx)
	require.NoError(t, err)

	require.NoError(t, f.store.Items().DeleteItem(ctx, f.items[0].ID))

	_, ok, err := f.svc.Next(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, PhaseCompleted, sess.Phase())

	sum, err := sess.Summary()
	require.NoError(t, err)
	assert.Equal(t, 0, sum.Reviewed)
	assert.Equal(t, 0, sum.Candidates)
}

func TestService_GlobalPerformanceScope(t *testing.T) {
	f := newFixture(t, 2, func(d *Deps) {
		d.Config.PerformanceScope = ScopeGlobal
	})
	ctx := context.Background()
	_, err := f.svc.Begin(ctx)
	require.NoError(t, err)

	p, ok, err := f.svc.Next(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotEmpty(t, p.Selection.Reason)
}
