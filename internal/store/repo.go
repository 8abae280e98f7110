package store

import (
	"context"
	"errors"
	"time"

	"github.com/abhisek/lexiz/internal/selector"
	"github.com/abhisek/lexiz/internal/spacedrep"
)

var (
	// ErrItemNotFound is returned when an item ID does not exist.
	ErrItemNotFound = errors.New("item not found")

	// ErrRecordNotFound is returned by UpdateRecord when the item has no
	// review record yet.
	ErrRecordNotFound = errors.New("review record not found")
)

// Item is a learnable vocabulary entry.
type Item struct {
	ID          string
	Term        string
	Translation string
	Example     string // context sentence, optional
	AudioURL    string // optional
	CreatedAt   time.Time
}

// SelectorItem describes the item's material to the method selector.
func (it Item) SelectorItem() selector.Item {
	return selector.Item{
		ID:         it.ID,
		HasAudio:   it.AudioURL != "",
		HasContext: it.Example != "",
	}
}

// ReviewEventData captures one recorded review outcome.
type ReviewEventData struct {
	SessionID       string
	ItemID          string
	Method          spacedrep.Method
	Direction       spacedrep.Direction
	Rating          spacedrep.Rating
	EffectiveRating spacedrep.Rating
	AdjustedQuality float64
	ResponseTimeMs  int64
	IntervalAfter   int
	EaseAfter       float64
}

// ReviewEvent is a stored review outcome.
type ReviewEvent struct {
	Sequence  int64
	Timestamp time.Time
	ReviewEventData
}

// Session event actions.
const (
	SessionStart    = "start"
	SessionComplete = "complete"
	SessionAbort    = "abort"
)

// SessionEventData captures a session lifecycle change.
type SessionEventData struct {
	SessionID    string
	Action       string
	Candidates   int
	Reviewed     int
	Correct      int
	DurationSecs int
}

// MasteryEventData captures an item's stage change.
type MasteryEventData struct {
	SessionID string
	ItemID    string
	FromState string
	ToState   string
	Trigger   string
}

// ItemRepo manages vocabulary items.
type ItemRepo interface {
	// AddItem stores a new item and its initial review record. A blank ID
	// is replaced with a fresh UUID.
	AddItem(ctx context.Context, item Item, now time.Time) (Item, error)

	// GetItem returns the item, or ErrItemNotFound.
	GetItem(ctx context.Context, id string) (*Item, error)

	// ListItems returns all items ordered by creation time.
	ListItems(ctx context.Context) ([]Item, error)

	// DeleteItem removes the item together with its review record.
	DeleteItem(ctx context.Context, id string) error
}

// RecordRepo stores review records.
type RecordRepo interface {
	// GetRecord returns the record for itemID, or nil when absent.
	GetRecord(ctx context.Context, itemID string) (*spacedrep.Record, error)

	// GetDueRecords returns records with NextReviewDate <= now, most
	// overdue first.
	GetDueRecords(ctx context.Context, now time.Time) ([]spacedrep.Record, error)

	// ListRecords returns every record.
	ListRecords(ctx context.Context) ([]spacedrep.Record, error)

	// PutRecord inserts or replaces a record.
	PutRecord(ctx context.Context, rec spacedrep.Record) error

	// CreateInitialRecord stores a fresh, immediately due record. An
	// existing record is returned unchanged.
	CreateInitialRecord(ctx context.Context, itemID string, now time.Time) (spacedrep.Record, error)

	// UpdateRecord reads the record, applies fn and writes the result as one
	// atomic step. Returns ErrRecordNotFound when there is nothing to update.
	UpdateRecord(ctx context.Context, itemID string, now time.Time, fn func(spacedrep.Record) (spacedrep.Record, error)) (spacedrep.Record, error)
}

// EventRepo provides append and query access to domain events.
type EventRepo interface {
	AppendReviewEvent(ctx context.Context, data ReviewEventData) error
	AppendSessionEvent(ctx context.Context, data SessionEventData) error
	AppendMasteryEvent(ctx context.Context, data MasteryEventData) error

	// ReviewEvents returns an item's review events, newest first. limit <= 0
	// means all.
	ReviewEvents(ctx context.Context, itemID string, limit int) ([]ReviewEvent, error)

	// MethodHistory returns the methods of the item's last limit reviews,
	// oldest first.
	MethodHistory(ctx context.Context, itemID string, limit int) ([]spacedrep.Method, error)

	// MethodPerformance aggregates review events per method for one item,
	// or across all items when itemID is empty.
	MethodPerformance(ctx context.Context, itemID string) (map[spacedrep.Method]selector.Performance, error)
}

// Repos bundles the repositories of one backend.
type Repos interface {
	Items() ItemRepo
	Records() RecordRepo
	Events() EventRepo
	Close() error
}

// AggregatePerformance folds review events into per-method performance.
// A review counts as correct when the learner did not rate it forgot.
func AggregatePerformance(events []ReviewEvent) map[spacedrep.Method]selector.Performance {
	out := make(map[spacedrep.Method]selector.Performance)
	for _, e := range events {
		p := out[e.Method]
		p.Method = e.Method
		p.Attempts++
		if e.Rating.Successful() {
			p.Correct++
		}
		if e.Timestamp.After(p.LastAttempt) {
			p.LastAttempt = e.Timestamp
		}
		out[e.Method] = p
	}
	return out
}
