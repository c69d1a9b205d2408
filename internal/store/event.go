package store

import (
	"context"
	"encoding/json"

	"github.com/Harshitk-cp/rumormill/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EventStore is the append-only domain event log. Rows are never updated or
// deleted.
type EventStore struct {
	db *pgxpool.Pool
}

func NewEventStore(db *pgxpool.Pool) *EventStore {
	return &EventStore{db: db}
}

func (s *EventStore) Append(ctx context.Context, e domain.Event) error {
	fields, err := json.Marshal(e.Fields)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx,
		`INSERT INTO events (type, occurred_at, fields) VALUES ($1, $2, $3)`,
		e.Type, e.OccurredAt, fields,
	)
	return err
}
