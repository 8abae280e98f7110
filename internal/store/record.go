package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/lexiz/internal/spacedrep"
)

var recordColumns = []string{
	"item_id", "ease_factor", "interval_days", "repetition",
	"last_review_date", "next_review_date",
	"total_reviews", "correct_count", "incorrect_count",
	"forward_correct", "forward_total", "reverse_correct", "reverse_total",
}

type recordRepo struct {
	s *Store
}

// insertRecord builds an upsert for rec.
func insertRecord(d *entsql.DialectBuilder, rec spacedrep.Record) *entsql.InsertBuilder {
	var last sql.NullTime
	if !rec.LastReviewDate.IsZero() {
		last = sql.NullTime{Time: rec.LastReviewDate.UTC(), Valid: true}
	}
	return d.Insert(reviewRecordsTable.Name).
		Columns(recordColumns...).
		Values(
			rec.ItemID, rec.EaseFactor, rec.Interval, rec.Repetition,
			last, rec.NextReviewDate.UTC(),
			rec.TotalReviews, rec.CorrectCount, rec.IncorrectCount,
			rec.ForwardCorrect, rec.ForwardTotal, rec.ReverseCorrect, rec.ReverseTotal,
		).
		OnConflict(
			entsql.ConflictColumns("item_id"),
			entsql.ResolveWithNewValues(),
		)
}

func scanRecords(rows *entsql.Rows) ([]spacedrep.Record, error) {
	var out []spacedrep.Record
	for rows.Next() {
		var (
			rec  spacedrep.Record
			last sql.NullTime
		)
		err := rows.Scan(
			&rec.ItemID, &rec.EaseFactor, &rec.Interval, &rec.Repetition,
			&last, &rec.NextReviewDate,
			&rec.TotalReviews, &rec.CorrectCount, &rec.IncorrectCount,
			&rec.ForwardCorrect, &rec.ForwardTotal, &rec.ReverseCorrect, &rec.ReverseTotal,
		)
		if err != nil {
			return nil, err
		}
		if last.Valid {
			rec.LastReviewDate = last.Time
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *recordRepo) queryRecords(ctx context.Context, q dialect.ExecQuerier, sel *entsql.Selector) ([]spacedrep.Record, error) {
	query, args := sel.Query()
	rows := &entsql.Rows{}
	if err := q.Query(ctx, query, args, rows); err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

func selectRecords() *entsql.Selector {
	d := entsql.Dialect(dialect.SQLite)
	return d.Select(recordColumns...).From(d.Table(reviewRecordsTable.Name))
}

func (r *recordRepo) GetRecord(ctx context.Context, itemID string) (*spacedrep.Record, error) {
	recs, err := r.queryRecords(ctx, r.s.drv, selectRecords().Where(entsql.EQ("item_id", itemID)))
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}
	if len(recs) == 0 {
		return nil, nil
	}
	return &recs[0], nil
}

func (r *recordRepo) GetDueRecords(ctx context.Context, now time.Time) ([]spacedrep.Record, error) {
	sel := selectRecords().
		Where(entsql.LTE("next_review_date", now.UTC())).
		OrderBy("next_review_date", "item_id")
	recs, err := r.queryRecords(ctx, r.s.drv, sel)
	if err != nil {
		return nil, fmt.Errorf("get due records: %w", err)
	}
	return recs, nil
}

func (r *recordRepo) ListRecords(ctx context.Context) ([]spacedrep.Record, error) {
	recs, err := r.queryRecords(ctx, r.s.drv, selectRecords().OrderBy("item_id"))
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return recs, nil
}

func (r *recordRepo) PutRecord(ctx context.Context, rec spacedrep.Record) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	query, args := insertRecord(entsql.Dialect(dialect.SQLite), rec).Query()
	if err := r.s.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("put record: %w", err)
	}
	return nil
}

func (r *recordRepo) CreateInitialRecord(ctx context.Context, itemID string, now time.Time) (spacedrep.Record, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, err := r.queryRecords(ctx, r.s.drv, selectRecords().Where(entsql.EQ("item_id", itemID)))
	if err != nil {
		return spacedrep.Record{}, fmt.Errorf("create initial record: %w", err)
	}
	if len(existing) > 0 {
		return existing[0], nil
	}

	rec := spacedrep.NewRecord(itemID, now)
	query, args := insertRecord(entsql.Dialect(dialect.SQLite), rec).Query()
	if err := r.s.drv.Exec(ctx, query, args, nil); err != nil {
		return spacedrep.Record{}, fmt.Errorf("create initial record: %w", err)
	}
	return rec, nil
}

func (r *recordRepo) UpdateRecord(ctx context.Context, itemID string, now time.Time, fn func(spacedrep.Record) (spacedrep.Record, error)) (spacedrep.Record, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	tx, err := r.s.drv.Tx(ctx)
	if err != nil {
		return spacedrep.Record{}, fmt.Errorf("begin tx: %w", err)
	}

	rec, err := r.updateInTx(ctx, tx, itemID, fn)
	if err != nil {
		tx.Rollback()
		return spacedrep.Record{}, err
	}
	if err := tx.Commit(); err != nil {
		return spacedrep.Record{}, fmt.Errorf("commit record: %w", err)
	}
	return rec, nil
}

func (r *recordRepo) updateInTx(ctx context.Context, tx dialect.Tx, itemID string, fn func(spacedrep.Record) (spacedrep.Record, error)) (spacedrep.Record, error) {
	recs, err := r.queryRecords(ctx, tx, selectRecords().Where(entsql.EQ("item_id", itemID)))
	if err != nil {
		return spacedrep.Record{}, fmt.Errorf("read record: %w", err)
	}
	if len(recs) == 0 {
		return spacedrep.Record{}, fmt.Errorf("item %q: %w", itemID, ErrRecordNotFound)
	}

	next, err := fn(recs[0])
	if err != nil {
		return spacedrep.Record{}, err
	}
	if next.ItemID != itemID {
		return spacedrep.Record{}, errors.New("update changed the record's item id")
	}

	query, args := insertRecord(entsql.Dialect(dialect.SQLite), next).Query()
	if err := tx.Exec(ctx, query, args, nil); err != nil {
		return spacedrep.Record{}, fmt.Errorf("write record: %w", err)
	}
	return next, nil
}
