package store

import (
	"context"
	"errors"

	"github.com/Harshitk-cp/rumormill/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CorrelationStore struct {
	db *pgxpool.Pool
}

func NewCorrelationStore(db *pgxpool.Pool) *CorrelationStore {
	return &CorrelationStore{db: db}
}

func (s *CorrelationStore) Create(ctx context.Context, c *domain.Correlation) error {
	// Pair is normalized by the caller; the primary key enforces uniqueness
	// per unordered pair.
	err := s.db.QueryRow(ctx,
		`INSERT INTO correlations (rumor_a, rumor_b, relationship, confidence, active)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at`,
		c.RumorA, c.RumorB, c.Relationship, c.Confidence, c.Active,
	).Scan(&c.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return err
	}
	return nil
}

func (s *CorrelationStore) GetByPair(ctx context.Context, a, b int64) (*domain.Correlation, error) {
	a, b = domain.PairKey(a, b)
	c := &domain.Correlation{}
	err := s.db.QueryRow(ctx,
		`SELECT rumor_a, rumor_b, relationship, confidence, active, created_at
		 FROM correlations WHERE rumor_a = $1 AND rumor_b = $2`,
		a, b,
	).Scan(&c.RumorA, &c.RumorB, &c.Relationship, &c.Confidence, &c.Active, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

func (s *CorrelationStore) ListActiveByRumor(ctx context.Context, rumorID int64) ([]domain.Correlation, error) {
	rows, err := s.db.Query(ctx,
		`SELECT rumor_a, rumor_b, relationship, confidence, active, created_at
		 FROM correlations
		 WHERE active AND (rumor_a = $1 OR rumor_b = $1)
		 ORDER BY created_at`,
		rumorID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Correlation
	for rows.Next() {
		var c domain.Correlation
		if err := rows.Scan(&c.RumorA, &c.RumorB, &c.Relationship, &c.Confidence, &c.Active, &c.CreatedAt); err != nil {
			return nil, err
		}
		results = append(results, c)
	}
	return results, rows.Err()
}

func (s *CorrelationStore) DeactivateByRumor(ctx context.Context, rumorID int64) (int64, error) {
	tag, err := s.db.Exec(ctx,
		`UPDATE correlations SET active = FALSE
		 WHERE active AND (rumor_a = $1 OR rumor_b = $1)`,
		rumorID,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
