package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SweepStateStore keeps the single-row lock-sweep checkpoint.
type SweepStateStore struct {
	db *pgxpool.Pool
}

func NewSweepStateStore(db *pgxpool.Pool) *SweepStateStore {
	return &SweepStateStore{db: db}
}

func (s *SweepStateStore) Checkpoint(ctx context.Context) (int64, error) {
	var checkpoint int64
	err := s.db.QueryRow(ctx,
		`SELECT COALESCE((SELECT checkpoint FROM sweep_state WHERE id = 1), 0)`,
	).Scan(&checkpoint)
	if err != nil {
		return 0, err
	}
	return checkpoint, nil
}

func (s *SweepStateStore) SetCheckpoint(ctx context.Context, checkpoint int64) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO sweep_state (id, checkpoint) VALUES (1, $1)
		 ON CONFLICT (id) DO UPDATE SET checkpoint = EXCLUDED.checkpoint, updated_at = NOW()`,
		checkpoint,
	)
	return err
}
