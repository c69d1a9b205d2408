package domain

import "context"

type IdentityStore interface {
	Create(ctx context.Context, id *Identity) error
	GetByID(ctx context.Context, id int64) (*Identity, error)
	GetByCommitment(ctx context.Context, commitment string) (*Identity, error)
	GetByAccessKeyHash(ctx context.Context, hash string) (*Identity, error)
	Update(ctx context.Context, id *Identity) error
}

type RumorStore interface {
	Create(ctx context.Context, r *Rumor) error
	GetByID(ctx context.Context, id int64) (*Rumor, error)
	Update(ctx context.Context, r *Rumor) error
	// MaxID bounds the circular lock-sweep scan.
	MaxID(ctx context.Context) (int64, error)
	// FindSimilar returns active rumors by embedding similarity to the given
	// rumor's stored embedding.
	FindSimilar(ctx context.Context, rumorID int64, limit int) ([]RumorWithScore, error)
}

type RumorWithScore struct {
	Rumor
	Score float32 `json:"score"`
}

type VoteStore interface {
	Create(ctx context.Context, v *Vote) error
	GetByRumorAndVoter(ctx context.Context, rumorID, voterID int64) (*Vote, error)
	ListByRumor(ctx context.Context, rumorID int64) ([]Vote, error)
	// TallyByRumor recomputes counts and weighted totals from stored votes.
	TallyByRumor(ctx context.Context, rumorID int64) (*VoteTally, error)
}

type CorrelationStore interface {
	Create(ctx context.Context, c *Correlation) error
	GetByPair(ctx context.Context, a, b int64) (*Correlation, error)
	ListActiveByRumor(ctx context.Context, rumorID int64) ([]Correlation, error)
	DeactivateByRumor(ctx context.Context, rumorID int64) (int64, error)
}

type TombstoneStore interface {
	Create(ctx context.Context, t *Tombstone) error
	GetByRumorID(ctx context.Context, rumorID int64) (*Tombstone, error)
	MarkRedistributed(ctx context.Context, rumorID int64) error
}

// SweepStateStore persists the lock-sweep checkpoint so repeated scheduler
// invocations advance through the id space instead of rescanning the same
// window.
type SweepStateStore interface {
	Checkpoint(ctx context.Context) (int64, error)
	SetCheckpoint(ctx context.Context, checkpoint int64) error
}

// ContentStore is the content-addressed blob collaborator. The engine stores
// only addresses, never raw content.
type ContentStore interface {
	Put(ctx context.Context, data []byte) (string, error)
	Get(ctx context.Context, address string) ([]byte, error)
}

type EmbeddingClient interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
