package store

import (
	"context"
	"errors"

	"github.com/Harshitk-cp/rumormill/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
)

type RumorStore struct {
	db *pgxpool.Pool
}

func NewRumorStore(db *pgxpool.Pool) *RumorStore {
	return &RumorStore{db: db}
}

const rumorColumns = `id, author_id, content_address, evidence_addresses, has_evidence, keywords,
	initial_confidence, current_confidence, locked_confidence, status, visible,
	confirm_count, dispute_count, confirm_score, dispute_score, created_at, locked_at`

func (s *RumorStore) Create(ctx context.Context, r *domain.Rumor) error {
	var embedding *pgvector.Vector
	if len(r.Embedding) > 0 {
		v := pgvector.NewVector(r.Embedding)
		embedding = &v
	}

	return s.db.QueryRow(ctx,
		`INSERT INTO rumors (author_id, content_address, evidence_addresses, has_evidence, keywords,
		                     initial_confidence, current_confidence, locked_confidence, status, visible, embedding)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING id, created_at`,
		r.AuthorID, r.ContentAddress, r.EvidenceAddresses, r.HasEvidence, r.Keywords,
		r.InitialConfidence, r.CurrentConfidence, r.LockedConfidence, r.Status, r.Visible, embedding,
	).Scan(&r.ID, &r.CreatedAt)
}

func (s *RumorStore) GetByID(ctx context.Context, id int64) (*domain.Rumor, error) {
	r := &domain.Rumor{}
	err := s.db.QueryRow(ctx,
		`SELECT `+rumorColumns+` FROM rumors WHERE id = $1`,
		id,
	).Scan(
		&r.ID, &r.AuthorID, &r.ContentAddress, &r.EvidenceAddresses, &r.HasEvidence, &r.Keywords,
		&r.InitialConfidence, &r.CurrentConfidence, &r.LockedConfidence, &r.Status, &r.Visible,
		&r.ConfirmCount, &r.DisputeCount, &r.ConfirmScore, &r.DisputeScore, &r.CreatedAt, &r.LockedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return r, nil
}

func (s *RumorStore) Update(ctx context.Context, r *domain.Rumor) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE rumors
		 SET current_confidence = $2, locked_confidence = $3, status = $4, visible = $5,
		     confirm_count = $6, dispute_count = $7, confirm_score = $8, dispute_score = $9,
		     locked_at = $10
		 WHERE id = $1`,
		r.ID, r.CurrentConfidence, r.LockedConfidence, r.Status, r.Visible,
		r.ConfirmCount, r.DisputeCount, r.ConfirmScore, r.DisputeScore,
		r.LockedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *RumorStore) MaxID(ctx context.Context) (int64, error) {
	var max int64
	err := s.db.QueryRow(ctx, `SELECT COALESCE(MAX(id), 0) FROM rumors`).Scan(&max)
	if err != nil {
		return 0, err
	}
	return max, nil
}

// FindSimilar returns active rumors ordered by cosine similarity to the
// stored embedding of the given rumor. Used by the correlation suggester.
func (s *RumorStore) FindSimilar(ctx context.Context, rumorID int64, limit int) ([]domain.RumorWithScore, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.Query(ctx,
		`SELECT `+rumorColumns+`, 1 - (rumors.embedding <=> q.embedding) AS score
		 FROM rumors, (SELECT embedding FROM rumors WHERE id = $1) q
		 WHERE rumors.id != $1 AND rumors.status = $2
		   AND rumors.embedding IS NOT NULL AND q.embedding IS NOT NULL
		 ORDER BY rumors.embedding <=> q.embedding
		 LIMIT $3`,
		rumorID, domain.RumorActive, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.RumorWithScore
	for rows.Next() {
		var r domain.RumorWithScore
		if err := rows.Scan(
			&r.ID, &r.AuthorID, &r.ContentAddress, &r.EvidenceAddresses, &r.HasEvidence, &r.Keywords,
			&r.InitialConfidence, &r.CurrentConfidence, &r.LockedConfidence, &r.Status, &r.Visible,
			&r.ConfirmCount, &r.DisputeCount, &r.ConfirmScore, &r.DisputeScore, &r.CreatedAt, &r.LockedAt,
			&r.Score,
		); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
