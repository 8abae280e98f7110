package store

import (
	"context"
	"fmt"
	"sync"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

// eventSequence numbers review, session and mastery events from one
// counter so a session's events read back in the order they happened,
// whichever table they landed in.
type eventSequence struct {
	mu  sync.Mutex
	drv *entsql.Driver
}

// newEventSequence seeds the counter row if the database is new.
func newEventSequence(ctx context.Context, drv *entsql.Driver) (*eventSequence, error) {
	query, args := entsql.Dialect(dialect.SQLite).
		Insert(eventSequenceTable.Name).
		Columns("id", "last_value").
		Values(1, 0).
		OnConflict(entsql.ConflictColumns("id"), entsql.DoNothing()).
		Query()
	if err := drv.Exec(ctx, query, args, nil); err != nil {
		return nil, fmt.Errorf("seed event sequence: %w", err)
	}
	return &eventSequence{drv: drv}, nil
}

// next bumps the counter and returns the new value. The first event gets 1.
func (es *eventSequence) next(ctx context.Context) (int64, error) {
	es.mu.Lock()
	defer es.mu.Unlock()

	tx, err := es.drv.Tx(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	seq, err := bumpSequence(ctx, tx)
	if err != nil {
		tx.Rollback()
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return seq, nil
}

func bumpSequence(ctx context.Context, tx dialect.Tx) (int64, error) {
	d := entsql.Dialect(dialect.SQLite)

	query, args := d.Update(eventSequenceTable.Name).
		Add("last_value", 1).
		Where(entsql.EQ("id", 1)).
		Query()
	if err := tx.Exec(ctx, query, args, nil); err != nil {
		return 0, fmt.Errorf("bump event sequence: %w", err)
	}

	query, args = d.Select("last_value").
		From(d.Table(eventSequenceTable.Name)).
		Where(entsql.EQ("id", 1)).
		Query()
	rows := &entsql.Rows{}
	if err := tx.Query(ctx, query, args, rows); err != nil {
		return 0, fmt.Errorf("read event sequence: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return 0, fmt.Errorf("read event sequence: %w", err)
		}
		return 0, fmt.Errorf("event sequence row missing")
	}
	var seq int64
	if err := rows.Scan(&seq); err != nil {
		return 0, fmt.Errorf("scan event sequence: %w", err)
	}
	return seq, nil
}
