package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ContentStore is a content-addressed blob store: addresses are the hex
// SHA-256 of the bytes, so identical content deduplicates and an address can
// always be verified against what it returns.
type ContentStore struct {
	db *pgxpool.Pool
}

func NewContentStore(db *pgxpool.Pool) *ContentStore {
	return &ContentStore{db: db}
}

func ContentAddress(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

func (s *ContentStore) Put(ctx context.Context, data []byte) (string, error) {
	address := ContentAddress(data)
	_, err := s.db.Exec(ctx,
		`INSERT INTO content_blobs (address, data) VALUES ($1, $2)
		 ON CONFLICT (address) DO NOTHING`,
		address, data,
	)
	if err != nil {
		return "", err
	}
	return address, nil
}

func (s *ContentStore) Get(ctx context.Context, address string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRow(ctx,
		`SELECT data FROM content_blobs WHERE address = $1`,
		address,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return data, nil
}
