package store

import (
	"context"
	"errors"

	"github.com/Harshitk-cp/rumormill/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type IdentityStore struct {
	db *pgxpool.Pool
}

func NewIdentityStore(db *pgxpool.Pool) *IdentityStore {
	return &IdentityStore{db: db}
}

const identityColumns = `id, commitment, public_key, access_key_hash, credibility, status, voting_power, oracle,
	post_count, vote_count, accurate_count, inaccurate_count, discredited_until,
	daily_post_count, daily_post_bucket, hourly_vote_count, hourly_vote_bucket, registered_at`

func (s *IdentityStore) Create(ctx context.Context, id *domain.Identity) error {
	err := s.db.QueryRow(ctx,
		`INSERT INTO identities (commitment, public_key, access_key_hash, credibility, status, voting_power, oracle)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, registered_at`,
		id.Commitment, id.PublicKey, id.AccessKeyHash, id.Credibility, id.Status, id.VotingPower, id.Oracle,
	).Scan(&id.ID, &id.RegisteredAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return err
	}
	return nil
}

func (s *IdentityStore) GetByID(ctx context.Context, id int64) (*domain.Identity, error) {
	return s.getByField(ctx, "id", id)
}

func (s *IdentityStore) GetByCommitment(ctx context.Context, commitment string) (*domain.Identity, error) {
	return s.getByField(ctx, "commitment", commitment)
}

func (s *IdentityStore) GetByAccessKeyHash(ctx context.Context, hash string) (*domain.Identity, error) {
	return s.getByField(ctx, "access_key_hash", hash)
}

func (s *IdentityStore) getByField(ctx context.Context, field string, value any) (*domain.Identity, error) {
	id := &domain.Identity{}
	err := s.db.QueryRow(ctx,
		`SELECT `+identityColumns+` FROM identities WHERE `+field+` = $1`,
		value,
	).Scan(
		&id.ID, &id.Commitment, &id.PublicKey, &id.AccessKeyHash, &id.Credibility, &id.Status, &id.VotingPower, &id.Oracle,
		&id.PostCount, &id.VoteCount, &id.AccurateCount, &id.InaccurateCount, &id.DiscreditedUntil,
		&id.DailyPosts.Count, &id.DailyPosts.Bucket, &id.HourlyVotes.Count, &id.HourlyVotes.Bucket, &id.RegisteredAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return id, nil
}

func (s *IdentityStore) Update(ctx context.Context, id *domain.Identity) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE identities
		 SET credibility = $2, status = $3, voting_power = $4,
		     post_count = $5, vote_count = $6, accurate_count = $7, inaccurate_count = $8,
		     discredited_until = $9,
		     daily_post_count = $10, daily_post_bucket = $11,
		     hourly_vote_count = $12, hourly_vote_bucket = $13
		 WHERE id = $1`,
		id.ID, id.Credibility, id.Status, id.VotingPower,
		id.PostCount, id.VoteCount, id.AccurateCount, id.InaccurateCount,
		id.DiscreditedUntil,
		id.DailyPosts.Count, id.DailyPosts.Bucket,
		id.HourlyVotes.Count, id.HourlyVotes.Bucket,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
