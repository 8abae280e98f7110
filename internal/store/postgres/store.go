package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/abhisek/lexiz/internal/selector"
	"github.com/abhisek/lexiz/internal/spacedrep"
	"github.com/abhisek/lexiz/internal/store"
)

// Store is the PostgreSQL backend.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects to dsn and applies migrations.
func Open(ctx context.Context, dsn string, cfg PoolConfig) (*Store, error) {
	pool, err := NewPool(ctx, dsn, cfg)
	if err != nil {
		return nil, err
	}
	if err := migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{pool: pool}, nil
}

// Pool returns the underlying connection pool.
func (s *Store) Pool() *pgxpool.Pool { return s.pool }

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) Items() store.ItemRepo     { return &itemRepo{pool: s.pool} }
func (s *Store) Records() store.RecordRepo { return &recordRepo{pool: s.pool} }
func (s *Store) Events() store.EventRepo   { return &eventRepo{db: s.pool} }

type itemRepo struct {
	pool *pgxpool.Pool
}

func (r *itemRepo) AddItem(ctx context.Context, item store.Item, now time.Time) (store.Item, error) {
	item.Term = strings.TrimSpace(item.Term)
	item.Translation = strings.TrimSpace(item.Translation)
	if item.Term == "" || item.Translation == "" {
		return store.Item{}, fmt.Errorf("add item: term and translation are required")
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.CreatedAt = item.CreatedAt.UTC()

	err := withinTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO items (id, term, translation, example, audio_url, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			item.ID, item.Term, item.Translation, item.Example, item.AudioURL, item.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert item: %w", err)
		}
		if err := upsertRecord(ctx, tx, spacedrep.NewRecord(item.ID, now)); err != nil {
			return fmt.Errorf("insert initial record: %w", err)
		}
		return nil
	})
	if err != nil {
		return store.Item{}, err
	}
	return item, nil
}

func (r *itemRepo) GetItem(ctx context.Context, id string) (*store.Item, error) {
	var it store.Item
	err := r.pool.QueryRow(ctx, `
		SELECT id, term, translation, example, audio_url, created_at
		FROM items WHERE id = $1`, id,
	).Scan(&it.ID, &it.Term, &it.Translation, &it.Example, &it.AudioURL, &it.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("item %q: %w", id, store.ErrItemNotFound)
		}
		return nil, fmt.Errorf("get item: %w", err)
	}
	return &it, nil
}

func (r *itemRepo) ListItems(ctx context.Context) ([]store.Item, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, term, translation, example, audio_url, created_at
		FROM items ORDER BY created_at, term`)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []store.Item
	for rows.Next() {
		var it store.Item
		if err := rows.Scan(&it.ID, &it.Term, &it.Translation, &it.Example, &it.AudioURL, &it.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *itemRepo) DeleteItem(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("item %q: %w", id, store.ErrItemNotFound)
	}
	return nil
}

const recordColumns = `item_id, ease_factor, interval_days, repetition,
	last_review_date, next_review_date, total_reviews, correct_count, incorrect_count,
	forward_correct, forward_total, reverse_correct, reverse_total`

type recordRepo struct {
	pool *pgxpool.Pool
}

func upsertRecord(ctx context.Context, db DBTX, rec spacedrep.Record) error {
	var last *time.Time
	if !rec.LastReviewDate.IsZero() {
		t := rec.LastReviewDate.UTC()
		last = &t
	}
	_, err := db.Exec(ctx, `
		INSERT INTO review_records (`+recordColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (item_id) DO UPDATE SET
			ease_factor = EXCLUDED.ease_factor,
			interval_days = EXCLUDED.interval_days,
			repetition = EXCLUDED.repetition,
			last_review_date = EXCLUDED.last_review_date,
			next_review_date = EXCLUDED.next_review_date,
			total_reviews = EXCLUDED.total_reviews,
			correct_count = EXCLUDED.correct_count,
			incorrect_count = EXCLUDED.incorrect_count,
			forward_correct = EXCLUDED.forward_correct,
			forward_total = EXCLUDED.forward_total,
			reverse_correct = EXCLUDED.reverse_correct,
			reverse_total = EXCLUDED.reverse_total`,
		rec.ItemID, rec.EaseFactor, rec.Interval, rec.Repetition,
		last, rec.NextReviewDate.UTC(),
		rec.TotalReviews, rec.CorrectCount, rec.IncorrectCount,
		rec.ForwardCorrect, rec.ForwardTotal, rec.ReverseCorrect, rec.ReverseTotal,
	)
	return err
}

func scanRecord(row pgx.Row) (spacedrep.Record, error) {
	var (
		rec  spacedrep.Record
		last *time.Time
	)
	err := row.Scan(
		&rec.ItemID, &rec.EaseFactor, &rec.Interval, &rec.Repetition,
		&last, &rec.NextReviewDate,
		&rec.TotalReviews, &rec.CorrectCount, &rec.IncorrectCount,
		&rec.ForwardCorrect, &rec.ForwardTotal, &rec.ReverseCorrect, &rec.ReverseTotal,
	)
	if last != nil {
		rec.LastReviewDate = *last
	}
	return rec, err
}

func (r *recordRepo) queryRecords(ctx context.Context, sql string, args ...any) ([]spacedrep.Record, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []spacedrep.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *recordRepo) GetRecord(ctx context.Context, itemID string) (*spacedrep.Record, error) {
	rec, err := scanRecord(r.pool.QueryRow(ctx,
		`SELECT `+recordColumns+` FROM review_records WHERE item_id = $1`, itemID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get record: %w", err)
	}
	return &rec, nil
}

func (r *recordRepo) GetDueRecords(ctx context.Context, now time.Time) ([]spacedrep.Record, error) {
	recs, err := r.queryRecords(ctx,
		`SELECT `+recordColumns+` FROM review_records
		WHERE next_review_date <= $1 ORDER BY next_review_date, item_id`, now.UTC())
	if err != nil {
		return nil, fmt.Errorf("get due records: %w", err)
	}
	return recs, nil
}

func (r *recordRepo) ListRecords(ctx context.Context) ([]spacedrep.Record, error) {
	recs, err := r.queryRecords(ctx, `SELECT `+recordColumns+` FROM review_records ORDER BY item_id`)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return recs, nil
}

func (r *recordRepo) PutRecord(ctx context.Context, rec spacedrep.Record) error {
	if err := upsertRecord(ctx, r.pool, rec); err != nil {
		return fmt.Errorf("put record: %w", err)
	}
	return nil
}

func (r *recordRepo) CreateInitialRecord(ctx context.Context, itemID string, now time.Time) (spacedrep.Record, error) {
	rec := spacedrep.NewRecord(itemID, now)
	_, err := r.pool.Exec(ctx, `
		INSERT INTO review_records (item_id, ease_factor, interval_days, repetition, next_review_date)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (item_id) DO NOTHING`,
		rec.ItemID, rec.EaseFactor, rec.Interval, rec.Repetition, rec.NextReviewDate.UTC(),
	)
	if err != nil {
		return spacedrep.Record{}, fmt.Errorf("create initial record: %w", err)
	}

	got, err := r.GetRecord(ctx, itemID)
	if err != nil {
		return spacedrep.Record{}, err
	}
	if got == nil {
		return spacedrep.Record{}, fmt.Errorf("item %q: %w", itemID, store.ErrRecordNotFound)
	}
	return *got, nil
}

func (r *recordRepo) UpdateRecord(ctx context.Context, itemID string, now time.Time, fn func(spacedrep.Record) (spacedrep.Record, error)) (spacedrep.Record, error) {
	var out spacedrep.Record
	err := withinTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		cur, err := scanRecord(tx.QueryRow(ctx,
			`SELECT `+recordColumns+` FROM review_records WHERE item_id = $1 FOR UPDATE`, itemID))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("item %q: %w", itemID, store.ErrRecordNotFound)
			}
			return fmt.Errorf("read record: %w", err)
		}

		next, err := fn(cur)
		if err != nil {
			return err
		}
		if next.ItemID != itemID {
			return errors.New("update changed the record's item id")
		}
		if err := upsertRecord(ctx, tx, next); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
		out = next
		return nil
	})
	if err != nil {
		return spacedrep.Record{}, err
	}
	return out, nil
}

type eventRepo struct {
	db DBTX
}

func (r *eventRepo) AppendReviewEvent(ctx context.Context, d store.ReviewEventData) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO review_events (
			session_id, item_id, method, direction, rating, effective_rating,
			adjusted_quality, response_time_ms, interval_after, ease_after
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		d.SessionID, d.ItemID, string(d.Method), string(d.Direction),
		string(d.Rating), string(d.EffectiveRating),
		d.AdjustedQuality, d.ResponseTimeMs, d.IntervalAfter, d.EaseAfter,
	)
	if err != nil {
		return fmt.Errorf("save review event: %w", err)
	}
	return nil
}

func (r *eventRepo) AppendSessionEvent(ctx context.Context, d store.SessionEventData) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO session_events (session_id, action, candidates, reviewed, correct, duration_secs)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		d.SessionID, d.Action, d.Candidates, d.Reviewed, d.Correct, d.DurationSecs,
	)
	if err != nil {
		return fmt.Errorf("save session event: %w", err)
	}
	return nil
}

func (r *eventRepo) AppendMasteryEvent(ctx context.Context, d store.MasteryEventData) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO mastery_events (session_id, item_id, from_state, to_state, trigger)
		VALUES ($1, $2, $3, $4, $5)`,
		d.SessionID, d.ItemID, d.FromState, d.ToState, d.Trigger,
	)
	if err != nil {
		return fmt.Errorf("save mastery event: %w", err)
	}
	return nil
}

func (r *eventRepo) ReviewEvents(ctx context.Context, itemID string, limit int) ([]store.ReviewEvent, error) {
	query := `
		SELECT sequence, timestamp, session_id, item_id, method, direction, rating,
		       effective_rating, adjusted_quality, response_time_ms, interval_after, ease_after
		FROM review_events
		WHERE ($1 = '' OR item_id = $1)
		ORDER BY sequence DESC`
	args := []any{itemID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query review events: %w", err)
	}
	defer rows.Close()

	var events []store.ReviewEvent
	for rows.Next() {
		var e store.ReviewEvent
		var method, direction, rating, effRating string
		err := rows.Scan(
			&e.Sequence, &e.Timestamp, &e.SessionID, &e.ItemID, &method, &direction, &rating,
			&effRating, &e.AdjustedQuality, &e.ResponseTimeMs, &e.IntervalAfter, &e.EaseAfter,
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
	return store.MethodsOldestFirst(events), nil
}

func (r *eventRepo) MethodPerformance(ctx context.Context, itemID string) (map[spacedrep.Method]selector.Performance, error) {
	events, err := r.ReviewEvents(ctx, itemID, 0)
	if err != nil {
		return nil, err
	}
	return store.AggregatePerformance(events), nil
}
