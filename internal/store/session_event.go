package store

import (
	"context"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

func (r *eventRepo) AppendSessionEvent(ctx context.Context, data SessionEventData) error {
	seqNum, err := r.seq.next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	query, args := entsql.Dialect(dialect.SQLite).
		Insert(sessionEventsTable.Name).
		Columns("sequence", "timestamp", "session_id", "action", "candidates", "reviewed", "correct", "duration_secs").
		Values(seqNum, time.Now().UTC(), data.SessionID, data.Action,
			data.Candidates, data.Reviewed, data.Correct, data.DurationSecs).
		Query()
	if err := r.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("save session event: %w", err)
	}
	return nil
}

func (r *eventRepo) AppendMasteryEvent(ctx context.Context, data MasteryEventData) error {
	seqNum, err := r.seq.next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	query, args := entsql.Dialect(dialect.SQLite).
		Insert(masteryEventsTable.Name).
		Columns("sequence", "timestamp", "session_id", "item_id", "from_state", "to_state", "trigger").
		Values(seqNum, time.Now().UTC(), data.SessionID, data.ItemID,
			data.FromState, data.ToState, data.Trigger).
		Query()
	if err := r.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("save mastery event: %w", err)
	}
	return nil
}
