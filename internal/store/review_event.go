package store

import (
	"context"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/lexiz/internal/selector"
	"github.com/abhisek/lexiz/internal/spacedrep"
)

var reviewEventColumns = []string{
	"sequence", "timestamp", "session_id", "item_id", "method", "direction",
	"rating", "effective_rating", "adjusted_quality", "response_time_ms",
	"interval_after", "ease_after",
}

type eventRepo struct {
	drv *entsql.Driver
	seq *eventSequence
}

func (r *eventRepo) AppendReviewEvent(ctx context.Context, data ReviewEventData) error {
	seqNum, err := r.seq.next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	query, args := entsql.Dialect(dialect.SQLite).
		Insert(reviewEventsTable.Name).
		Columns(reviewEventColumns...).
		Values(
			seqNum, time.Now().UTC(), data.SessionID, data.ItemID,
			string(data.Method), string(data.Direction),
			string(data.Rating), string(data.EffectiveRating),
			data.AdjustedQuality, data.ResponseTimeMs,
			data.IntervalAfter, data.EaseAfter,
		).
		Query()
	if err := r.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("save review event: %w", err)
	}
	return nil
}

func (r *eventRepo) ReviewEvents(ctx context.Context, itemID string, limit int) ([]ReviewEvent, error) {
	d := entsql.Dialect(dialect.SQLite)
	sel := d.Select(reviewEventColumns...).
		From(d.Table(reviewEventsTable.Name)).
		OrderBy(entsql.Desc("sequence"))
	if itemID != "" {
		sel = sel.Where(entsql.EQ("item_id", itemID))
	}
	if limit > 0 {
		sel = sel.Limit(limit)
	}

	query, args := sel.Query()
	rows := &entsql.Rows{}
	if err := r.drv.Query(ctx, query, args, rows); err != nil {
		return nil, fmt.Errorf("query review events: %w", err)
	}
	defer rows.Close()

	var events []ReviewEvent
	for rows.Next() {
		var e ReviewEvent
		var method, direction, rating, effRating string
		err := rows.Scan(
			&e.Sequence, &e.Timestamp, &e.SessionID, &e.ItemID, &method, &direction,
			&rating, &effRating, &e.AdjustedQuality, &e.ResponseTimeMs,
			&e.IntervalAfter, &e.EaseAfter,
		)
		if err != nil {
			return nil, fmt.Errorf("scan review event: %w", err)
		}
		e.Method = spacedrep.Method(method)
		e.Direction = spacedrep.Direction(direction)
		e.Rating = spacedrep.Rating(rating)
		e.EffectiveRating = spacedrep.Rating(effRating)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query review events: %w", err)
	}
	return events, nil
}

func (r *eventRepo) MethodHistory(ctx context.Context, itemID string, limit int) ([]spacedrep.Method, error) {
	events, err := r.ReviewEvents(ctx, itemID, limit)
	if err != nil {
		return nil, err
	}
	return MethodsOldestFirst(events), nil
}

func (r *eventRepo) MethodPerformance(ctx context.Context, itemID string) (map[spacedrep.Method]selector.Performance, error) {
	events, err := r.ReviewEvents(ctx, itemID, 0)
	if err != nil {
		return nil, err
	}
	return AggregatePerformance(events), nil
}

// MethodsOldestFirst reverses newest-first events into a method history.
func MethodsOldestFirst(events []ReviewEvent) []spacedrep.Method {
	methods := make([]spacedrep.Method, len(events))
	for i, e := range events {
		methods[len(events)-1-i] = e.Method
	}
	return methods
}
