// Package storetest holds a conformance suite run against every store
// backend.
package storetest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/lexiz/internal/spacedrep"
	"github.com/abhisek/lexiz/internal/store"
)

// Opener returns a fresh, empty backend for one test.
type Opener func(t *testing.T) store.Repos

var base = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// Run exercises the repository contracts against open.
func Run(t *testing.T, open Opener) {
	tests := []struct {
		name string
		fn   func(t *testing.T, r store.Repos)
	}{
		{"AddAndGetItem", testAddAndGetItem},
		{"AddItemRejectsBlank", testAddItemRejectsBlank},
		{"ListItems", testListItems},
		{"DeleteItemCascades", testDeleteItemCascades},
		{"GetRecordAbsent", testGetRecordAbsent},
		{"PutAndGetRecord", testPutAndGetRecord},
		{"DueRecords", testDueRecords},
		{"CreateInitialRecordIdempotent", testCreateInitialRecordIdempotent},
		{"UpdateRecord", testUpdateRecord},
		{"UpdateRecordMissing", testUpdateRecordMissing},
		{"UpdateRecordFnError", testUpdateRecordFnError},
		{"ConcurrentUpdates", testConcurrentUpdates},
		{"MethodHistoryAndPerformance", testMethodHistoryAndPerformance},
		{"SessionAndMasteryEvents", testSessionAndMasteryEvents},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := open(t)
			t.Cleanup(func() { r.Close() })
			tt.fn(t, r)
		})
	}
}

func addItem(t *testing.T, r store.Repos, term string) store.Item {
	t.Helper()
	it, err := r.Items().AddItem(context.Background(), store.Item{Term: term, Translation: term + "-tr"}, base)
	require.NoError(t, err)
	return it
}

func testAddAndGetItem(t *testing.T, r store.Repos) {
	ctx := context.Background()
	it, err := r.Items().AddItem(ctx, store.Item{
		Term:        " perro ",
		Translation: "dog",
		Example:     "El perro ladra.",
		AudioURL:    "https://example.com/perro.mp3",
	}, base)
	require.NoError(t, err)
	assert.NotEmpty(t, it.ID)
	assert.Equal(t, "perro", it.Term)

	got, err := r.Items().GetItem(ctx, it.ID)
	require.NoError(t, err)
	assert.Equal(t, it.ID, got.ID)
	assert.Equal(t, "dog", got.Translation)
	assert.Equal(t, "El perro ladra.", got.Example)
	assert.True(t, got.CreatedAt.Equal(base))
	assert.True(t, got.SelectorItem().HasAudio)

	rec, err := r.Records().GetRecord(ctx, it.ID)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, spacedrep.DefaultEase, rec.EaseFactor)
	assert.Equal(t, 0, rec.Repetition)
	assert.True(t, rec.NextReviewDate.Equal(base))

	_, err = r.Items().GetItem(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrItemNotFound)
}

func testAddItemRejectsBlank(t *testing.T, r store.Repos) {
	_, err := r.Items().AddItem(context.Background(), store.Item{Term: "  "}, base)
	assert.Error(t, err)
}

func testListItems(t *testing.T, r store.Repos) {
	ctx := context.Background()
	for i, term := range []string{"uno", "dos", "tres"} {
		_, err := r.Items().AddItem(ctx, store.Item{
			Term:        term,
			Translation: term,
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		}, base)
		require.NoError(t, err)
	}

	items, err := r.Items().ListItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "uno", items[0].Term)
	assert.Equal(t, "tres", items[2].Term)
}

func testDeleteItemCascades(t *testing.T, r store.Repos) {
	ctx := context.Background()
	it := addItem(t, r, "gato")

	require.NoError(t, r.Items().DeleteItem(ctx, it.ID))

	rec, err := r.Records().GetRecord(ctx, it.ID)
	require.NoError(t, err)
	assert.Nil(t, rec)

	err = r.Items().DeleteItem(ctx, it.ID)
	assert.ErrorIs(t, err, store.ErrItemNotFound)
}

func testGetRecordAbsent(t *testing.T, r store.Repos) {
	rec, err := r.Records().GetRecord(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func testPutAndGetRecord(t *testing.T, r store.Repos) {
	ctx := context.Background()
	it := addItem(t, r, "casa")

	rec := spacedrep.Record{
		ItemID:         it.ID,
		EaseFactor:     2.36,
		Interval:       15,
		Repetition:     3,
		LastReviewDate: base,
		NextReviewDate: base.AddDate(0, 0, 15),
		TotalReviews:   4,
		CorrectCount:   3,
		IncorrectCount: 1,
		ForwardCorrect: 2,
		ForwardTotal:   3,
		ReverseCorrect: 1,
		ReverseTotal:   1,
	}
	require.NoError(t, r.Records().PutRecord(ctx, rec))

	got, err := r.Records().GetRecord(ctx, it.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.InDelta(t, 2.36, got.EaseFactor, 1e-9)
	assert.Equal(t, 15, got.Interval)
	assert.Equal(t, 3, got.Repetition)
	assert.True(t, got.LastReviewDate.Equal(base))
	assert.True(t, got.NextReviewDate.Equal(base.AddDate(0, 0, 15)))
	assert.Equal(t, 4, got.TotalReviews)
	assert.Equal(t, 2, got.ForwardCorrect)
	assert.Equal(t, 1, got.ReverseTotal)
}

func testDueRecords(t *testing.T, r store.Repos) {
	ctx := context.Background()
	a := addItem(t, r, "a")
	b := addItem(t, r, "b")
	c := addItem(t, r, "c")

	put := func(id string, next time.Time) {
		rec := spacedrep.NewRecord(id, base)
		rec.NextReviewDate = next
		require.NoError(t, r.Records().PutRecord(ctx, rec))
	}
	put(a.ID, base.AddDate(0, 0, -1))
	put(b.ID, base.AddDate(0, 0, -5))
	put(c.ID, base.AddDate(0, 0, 2))

	due, err := r.Records().GetDueRecords(ctx, base)
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, b.ID, due[0].ItemID, "most overdue first")
	assert.Equal(t, a.ID, due[1].ItemID)

	all, err := r.Records().ListRecords(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func testCreateInitialRecordIdempotent(t *testing.T, r store.Repos) {
	ctx := context.Background()
	it := addItem(t, r, "sol")

	updated := spacedrep.NewRecord(it.ID, base)
	updated.Interval = 6
	updated.Repetition = 2
	require.NoError(t, r.Records().PutRecord(ctx, updated))

	rec, err := r.Records().CreateInitialRecord(ctx, it.ID, base.AddDate(0, 1, 0))
	require.NoError(t, err)
	assert.Equal(t, 6, rec.Interval, "existing record is kept")
}

func testUpdateRecord(t *testing.T, r store.Repos) {
	ctx := context.Background()
	it := addItem(t, r, "luna")

	rec, err := r.Records().UpdateRecord(ctx, it.ID, base, func(cur spacedrep.Record) (spacedrep.Record, error) {
		return spacedrep.UpdateRecord(cur, spacedrep.RatingGood, spacedrep.MethodTraditional, base, spacedrep.DirectionForward)
	})
	require.NoError(t, err)
	assert.Equal(t, 1, rec.Repetition)
	assert.Equal(t, 1, rec.Interval)

	got, err := r.Records().GetRecord(ctx, it.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.TotalReviews)
	assert.Equal(t, 1, got.ForwardTotal)
	assert.True(t, got.NextReviewDate.Equal(base.AddDate(0, 0, 1)))
}

func testUpdateRecordMissing(t *testing.T, r store.Repos) {
	_, err := r.Records().UpdateRecord(context.Background(), "ghost", base, func(cur spacedrep.Record) (spacedrep.Record, error) {
		t.Fatal("fn must not run without a record")
		return cur, nil
	})
	assert.ErrorIs(t, err, store.ErrRecordNotFound)
}

func testUpdateRecordFnError(t *testing.T, r store.Repos) {
	ctx := context.Background()
	it := addItem(t, r, "mar")
	boom := errors.New("boom")

	_, err := r.Records().UpdateRecord(ctx, it.ID, base, func(cur spacedrep.Record) (spacedrep.Record, error) {
		cur.Interval = 99
		return cur, boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := r.Records().GetRecord(ctx, it.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Interval, "failed update leaves the record untouched")
}

func testConcurrentUpdates(t *testing.T, r store.Repos) {
	ctx := context.Background()
	it := addItem(t, r, "rio")

	const n = 8
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Records().UpdateRecord(ctx, it.ID, base, func(cur spacedrep.Record) (spacedrep.Record, error) {
				cur.TotalReviews++
				cur.CorrectCount++
				return cur, nil
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got, err := r.Records().GetRecord(ctx, it.ID)
	require.NoError(t, err)
	assert.Equal(t, n, got.TotalReviews, "no lost updates")
}

func testMethodHistoryAndPerformance(t *testing.T, r store.Repos) {
	ctx := context.Background()
	a := addItem(t, r, "a")
	b := addItem(t, r, "b")

	appendEvent := func(itemID string, m spacedrep.Method, rating spacedrep.Rating) {
		require.NoError(t, r.Events().AppendReviewEvent(ctx, store.ReviewEventData{
			SessionID:       "s1",
			ItemID:          itemID,
			Method:          m,
			Direction:       spacedrep.DirectionForward,
			Rating:          rating,
			EffectiveRating: rating,
			AdjustedQuality: 3,
			ResponseTimeMs:  4000,
			IntervalAfter:   1,
			EaseAfter:       2.5,
		}))
	}
	appendEvent(a.ID, spacedrep.MethodTraditional, spacedrep.RatingGood)
	appendEvent(a.ID, spacedrep.MethodFillBlank, spacedrep.RatingForgot)
	appendEvent(b.ID, spacedrep.MethodFillBlank, spacedrep.RatingEasy)
	appendEvent(a.ID, spacedrep.MethodMultipleChoice, spacedrep.RatingHard)

	hist, err := r.Events().MethodHistory(ctx, a.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, []spacedrep.Method{spacedrep.MethodFillBlank, spacedrep.MethodMultipleChoice}, hist)

	events, err := r.Events().ReviewEvents(ctx, a.ID, 0)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Greater(t, events[0].Sequence, events[1].Sequence)
	assert.Equal(t, "s1", events[0].SessionID)

	perf, err := r.Events().MethodPerformance(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, perf[spacedrep.MethodFillBlank].Attempts)
	assert.Equal(t, 0, perf[spacedrep.MethodFillBlank].Correct)
	assert.Equal(t, 1, perf[spacedrep.MethodMultipleChoice].Correct)

	global, err := r.Events().MethodPerformance(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 2, global[spacedrep.MethodFillBlank].Attempts)
	assert.Equal(t, 1, global[spacedrep.MethodFillBlank].Correct)
	assert.False(t, global[spacedrep.MethodFillBlank].LastAttempt.IsZero())
}

func testSessionAndMasteryEvents(t *testing.T, r store.Repos) {
	ctx := context.Background()
	require.NoError(t, r.Events().AppendSessionEvent(ctx, store.SessionEventData{
		SessionID:  "s1",
		Action:     store.SessionStart,
		Candidates: 3,
	}))
	require.NoError(t, r.Events().AppendMasteryEvent(ctx, store.MasteryEventData{
		SessionID: "s1",
		ItemID:    "x",
		FromState: "new",
		ToState:   "learning",
		Trigger:   "first-reviews",
	}))
}
