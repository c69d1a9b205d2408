package store

import (
	"context"
	"errors"

	"github.com/Harshitk-cp/rumormill/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type VoteStore struct {
	db *pgxpool.Pool
}

func NewVoteStore(db *pgxpool.Pool) *VoteStore {
	return &VoteStore{db: db}
}

func (s *VoteStore) Create(ctx context.Context, v *domain.Vote) error {
	err := s.db.QueryRow(ctx,
		`INSERT INTO votes (rumor_id, voter_id, type, weight_bp, credibility_at_cast, cast_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		v.RumorID, v.VoterID, v.Type, v.WeightBP, v.CredibilityAtCast, v.CastAt,
	).Scan(&v.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return err
	}
	return nil
}

func (s *VoteStore) GetByRumorAndVoter(ctx context.Context, rumorID, voterID int64) (*domain.Vote, error) {
	v := &domain.Vote{}
	err := s.db.QueryRow(ctx,
		`SELECT id, rumor_id, voter_id, type, weight_bp, credibility_at_cast, cast_at
		 FROM votes WHERE rumor_id = $1 AND voter_id = $2`,
		rumorID, voterID,
	).Scan(&v.ID, &v.RumorID, &v.VoterID, &v.Type, &v.WeightBP, &v.CredibilityAtCast, &v.CastAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return v, nil
}

func (s *VoteStore) ListByRumor(ctx context.Context, rumorID int64) ([]domain.Vote, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, rumor_id, voter_id, type, weight_bp, credibility_at_cast, cast_at
		 FROM votes WHERE rumor_id = $1 ORDER BY id`,
		rumorID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var votes []domain.Vote
	for rows.Next() {
		var v domain.Vote
		if err := rows.Scan(&v.ID, &v.RumorID, &v.VoterID, &v.Type, &v.WeightBP, &v.CredibilityAtCast, &v.CastAt); err != nil {
			return nil, err
		}
		votes = append(votes, v)
	}
	return votes, rows.Err()
}

func (s *VoteStore) TallyByRumor(ctx context.Context, rumorID int64) (*domain.VoteTally, error) {
	t := &domain.VoteTally{}
	err := s.db.QueryRow(ctx,
		`SELECT
		   COUNT(*) FILTER (WHERE type = $2),
		   COUNT(*) FILTER (WHERE type = $3),
		   COALESCE(SUM(weight_bp / 100) FILTER (WHERE type = $2), 0),
		   COALESCE(SUM(weight_bp / 100) FILTER (WHERE type = $3), 0)
		 FROM votes WHERE rumor_id = $1`,
		rumorID, domain.VoteConfirm, domain.VoteDispute,
	).Scan(&t.ConfirmCount, &t.DisputeCount, &t.ConfirmScore, &t.DisputeScore)
	if err != nil {
		return nil, err
	}
	return t, nil
}
