package store

import (
	"context"
	"errors"

	"github.com/Harshitk-cp/rumormill/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TombstoneStore struct {
	db *pgxpool.Pool
}

func NewTombstoneStore(db *pgxpool.Pool) *TombstoneStore {
	return &TombstoneStore{db: db}
}

func (s *TombstoneStore) Create(ctx context.Context, t *domain.Tombstone) error {
	err := s.db.QueryRow(ctx,
		`INSERT INTO tombstones (rumor_id, final_confidence, vote_count, deleted_by, redistributed, deleted_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING deleted_at`,
		t.RumorID, t.FinalConfidence, t.VoteCount, t.DeletedBy, t.Redistributed, t.DeletedAt,
	).Scan(&t.DeletedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return err
	}
	return nil
}

func (s *TombstoneStore) GetByRumorID(ctx context.Context, rumorID int64) (*domain.Tombstone, error) {
	t := &domain.Tombstone{}
	err := s.db.QueryRow(ctx,
		`SELECT rumor_id, final_confidence, vote_count, deleted_by, redistributed, deleted_at
		 FROM tombstones WHERE rumor_id = $1`,
		rumorID,
	).Scan(&t.RumorID, &t.FinalConfidence, &t.VoteCount, &t.DeletedBy, &t.Redistributed, &t.DeletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return t, nil
}

func (s *TombstoneStore) MarkRedistributed(ctx context.Context, rumorID int64) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE tombstones SET redistributed = TRUE WHERE rumor_id = $1`,
		rumorID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
