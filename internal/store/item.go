package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/abhisek/lexiz/internal/spacedrep"
)

var itemColumns = []string{"id", "term", "translation", "example", "audio_url", "created_at"}

type itemRepo struct {
	s *Store
}

func (r *itemRepo) AddItem(ctx context.Context, item Item, now time.Time) (Item, error) {
	item.Term = strings.TrimSpace(item.Term)
	item.Translation = strings.TrimSpace(item.Translation)
	if item.Term == "" || item.Translation == "" {
		return Item{}, fmt.Errorf("add item: term and translation are required")
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.CreatedAt = item.CreatedAt.UTC()

	tx, err := r.s.drv.Tx(ctx)
	if err != nil {
		return Item{}, fmt.Errorf("begin tx: %w", err)
	}

	d := entsql.Dialect(dialect.SQLite)
	query, args := d.Insert(itemsTable.Name).
		Columns(itemColumns...).
		Values(item.ID, item.Term, item.Translation, item.Example, item.AudioURL, item.CreatedAt).
		Query()
	if err := tx.Exec(ctx, query, args, nil); err != nil {
		tx.Rollback()
		return Item{}, fmt.Errorf("insert item: %w", err)
	}

	query, args = insertRecord(d, spacedrep.NewRecord(item.ID, now)).Query()
	if err := tx.Exec(ctx, query, args, nil); err != nil {
		tx.Rollback()
		return Item{}, fmt.Errorf("insert initial record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Item{}, fmt.Errorf("commit item: %w", err)
	}
	return item, nil
}

func (r *itemRepo) GetItem(ctx context.Context, id string) (*Item, error) {
	d := entsql.Dialect(dialect.SQLite)
	query, args := d.Select(itemColumns...).
		From(d.Table(itemsTable.Name)).
		Where(entsql.EQ("id", id)).
		Query()

	items, err := r.query(ctx, query, args)
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("item %q: %w", id, ErrItemNotFound)
	}
	return &items[0], nil
}

func (r *itemRepo) ListItems(ctx context.Context) ([]Item, error) {
	d := entsql.Dialect(dialect.SQLite)
	query, args := d.Select(itemColumns...).
		From(d.Table(itemsTable.Name)).
		OrderBy("created_at", "term").
		Query()

	items, err := r.query(ctx, query, args)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return items, nil
}

func (r *itemRepo) DeleteItem(ctx context.Context, id string) error {
	query, args := entsql.Dialect(dialect.SQLite).
		Delete(itemsTable.Name).
		Where(entsql.EQ("id", id)).
		Query()

	var res entsql.Result
	if err := r.s.drv.Exec(ctx, query, args, &res); err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("item %q: %w", id, ErrItemNotFound)
	}
	return nil
}

func (r *itemRepo) query(ctx context.Context, query string, args []any) ([]Item, error) {
	rows := &entsql.Rows{}
	if err := r.s.drv.Query(ctx, query, args, rows); err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.Term, &it.Translation, &it.Example, &it.AudioURL, &it.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
