package store

import (
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

// Table layouts, in the shape ent's migrate package expects. Every event
// table carries a sequence number from eventSequence.
var (
	itemsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, Unique: true},
		{Name: "term", Type: field.TypeString},
		{Name: "translation", Type: field.TypeString},
		{Name: "example", Type: field.TypeString, Default: ""},
		{Name: "audio_url", Type: field.TypeString, Default: ""},
		{Name: "created_at", Type: field.TypeTime},
	}
	itemsTable = &schema.Table{
		Name:       "items",
		Columns:    itemsColumns,
		PrimaryKey: []*schema.Column{itemsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "item_term", Unique: false, Columns: []*schema.Column{itemsColumns[1]}},
		},
	}

	reviewRecordsColumns = []*schema.Column{
		{Name: "item_id", Type: field.TypeString, Unique: true},
		{Name: "ease_factor", Type: field.TypeFloat64},
		{Name: "interval_days", Type: field.TypeInt},
		{Name: "repetition", Type: field.TypeInt},
		{Name: "last_review_date", Type: field.TypeTime, Nullable: true},
		{Name: "next_review_date", Type: field.TypeTime},
		{Name: "total_reviews", Type: field.TypeInt, Default: 0},
		{Name: "correct_count", Type: field.TypeInt, Default: 0},
		{Name: "incorrect_count", Type: field.TypeInt, Default: 0},
		{Name: "forward_correct", Type: field.TypeInt, Default: 0},
		{Name: "forward_total", Type: field.TypeInt, Default: 0},
		{Name: "reverse_correct", Type: field.TypeInt, Default: 0},
		{Name: "reverse_total", Type: field.TypeInt, Default: 0},
	}
	reviewRecordsTable = &schema.Table{
		Name:       "review_records",
		Columns:    reviewRecordsColumns,
		PrimaryKey: []*schema.Column{reviewRecordsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "review_records_items_record",
				Columns:    []*schema.Column{reviewRecordsColumns[0]},
				RefColumns: []*schema.Column{itemsColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
		Indexes: []*schema.Index{
			{Name: "reviewrecord_next_review_date", Unique: false, Columns: []*schema.Column{reviewRecordsColumns[5]}},
		},
	}

	reviewEventsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "timestamp", Type: field.TypeTime},
		{Name: "session_id", Type: field.TypeString, Default: ""},
		{Name: "item_id", Type: field.TypeString},
		{Name: "method", Type: field.TypeString},
		{Name: "direction", Type: field.TypeString, Default: ""},
		{Name: "rating", Type: field.TypeString},
		{Name: "effective_rating", Type: field.TypeString},
		{Name: "adjusted_quality", Type: field.TypeFloat64},
		{Name: "response_time_ms", Type: field.TypeInt64},
		{Name: "interval_after", Type: field.TypeInt},
		{Name: "ease_after", Type: field.TypeFloat64},
	}
	reviewEventsTable = &schema.Table{
		Name:       "review_events",
		Columns:    reviewEventsColumns,
		PrimaryKey: []*schema.Column{reviewEventsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "reviewevent_item_id_sequence", Unique: false, Columns: []*schema.Column{reviewEventsColumns[4], reviewEventsColumns[1]}},
			{Name: "reviewevent_method", Unique: false, Columns: []*schema.Column{reviewEventsColumns[5]}},
		},
	}

	sessionEventsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "timestamp", Type: field.TypeTime},
		{Name: "session_id", Type: field.TypeString},
		{Name: "action", Type: field.TypeString},
		{Name: "candidates", Type: field.TypeInt, Default: 0},
		{Name: "reviewed", Type: field.TypeInt, Default: 0},
		{Name: "correct", Type: field.TypeInt, Default: 0},
		{Name: "duration_secs", Type: field.TypeInt, Default: 0},
	}
	sessionEventsTable = &schema.Table{
		Name:       "session_events",
		Columns:    sessionEventsColumns,
		PrimaryKey: []*schema.Column{sessionEventsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "sessionevent_session_id", Unique: false, Columns: []*schema.Column{sessionEventsColumns[3]}},
		},
	}

	masteryEventsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "timestamp", Type: field.TypeTime},
		{Name: "session_id", Type: field.TypeString, Default: ""},
		{Name: "item_id", Type: field.TypeString},
		{Name: "from_state", Type: field.TypeString},
		{Name: "to_state", Type: field.TypeString},
		{Name: "trigger", Type: field.TypeString},
	}
	masteryEventsTable = &schema.Table{
		Name:       "mastery_events",
		Columns:    masteryEventsColumns,
		PrimaryKey: []*schema.Column{masteryEventsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "masteryevent_item_id", Unique: false, Columns: []*schema.Column{masteryEventsColumns[4]}},
		},
	}

	eventSequenceColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt},
		{Name: "last_value", Type: field.TypeInt64, Default: 0},
	}
	eventSequenceTable = &schema.Table{
		Name:       "event_sequence",
		Columns:    eventSequenceColumns,
		PrimaryKey: []*schema.Column{eventSequenceColumns[0]},
	}

	tables = []*schema.Table{
		itemsTable,
		reviewRecordsTable,
		reviewEventsTable,
		sessionEventsTable,
		masteryEventsTable,
		eventSequenceTable,
	}
)

func init() {
	reviewRecordsTable.ForeignKeys[0].RefTable = itemsTable
}
