package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/Harshitk-cp/rumormill/internal/domain"
	"github.com/Harshitk-cp/rumormill/internal/store"
	"go.uber.org/zap"
)

// mockIdentityStore implements domain.IdentityStore for testing.
type mockIdentityStore struct {
	identities map[int64]*domain.Identity
	nextID     int64
}

func newMockIdentityStore() *mockIdentityStore {
	return &mockIdentityStore{identities: make(map[int64]*domain.Identity)}
}

func (m *mockIdentityStore) Create(ctx context.Context, id *domain.Identity) error {
	for _, existing := range m.identities {
		if existing.Commitment == id.Commitment {
			return store.ErrConflict
		}
	}
	m.nextID++
	id.ID = m.nextID
	if id.RegisteredAt.IsZero() {
		id.RegisteredAt = time.Now().UTC()
	}
	m.identities[id.ID] = id
	return nil
}

func (m *mockIdentityStore) GetByID(ctx context.Context, id int64) (*domain.Identity, error) {
	identity, ok := m.identities[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return identity, nil
}

func (m *mockIdentityStore) GetByCommitment(ctx context.Context, commitment string) (*domain.Identity, error) {
	for _, identity := range m.identities {
		if identity.Commitment == commitment {
			return identity, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *mockIdentityStore) GetByAccessKeyHash(ctx context.Context, hash string) (*domain.Identity, error) {
	for _, identity := range m.identities {
		if identity.AccessKeyHash == hash {
			return identity, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *mockIdentityStore) Update(ctx context.Context, id *domain.Identity) error {
	if _, ok := m.identities[id.ID]; !ok {
		return store.ErrNotFound
	}
	m.identities[id.ID] = id
	return nil
}

// mockRumorStore implements domain.RumorStore for testing.
type mockRumorStore struct {
	rumors  map[int64]*domain.Rumor
	nextID  int64
	similar []domain.RumorWithScore
}

func newMockRumorStore() *mockRumorStore {
	return &mockRumorStore{rumors: make(map[int64]*domain.Rumor)}
}

func (m *mockRumorStore) Create(ctx context.Context, r *domain.Rumor) error {
	m.nextID++
	r.ID = m.nextID
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	m.rumors[r.ID] = r
	return nil
}

func (m *mockRumorStore) GetByID(ctx context.Context, id int64) (*domain.Rumor, error) {
	r, ok := m.rumors[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return r, nil
}

func (m *mockRumorStore) Update(ctx context.Context, r *domain.Rumor) error {
	if _, ok := m.rumors[r.ID]; !ok {
		return store.ErrNotFound
	}
	m.rumors[r.ID] = r
	return nil
}

func (m *mockRumorStore) MaxID(ctx context.Context) (int64, error) {
	return m.nextID, nil
}

func (m *mockRumorStore) FindSimilar(ctx context.Context, rumorID int64, limit int) ([]domain.RumorWithScore, error) {
	if limit > 0 && len(m.similar) > limit {
		return m.similar[:limit], nil
	}
	return m.similar, nil
}

// mockVoteStore implements domain.VoteStore for testing.
type mockVoteStore struct {
	votes  []*domain.Vote
	nextID int64
}

func newMockVoteStore() *mockVoteStore {
	return &mockVoteStore{}
}

func (m *mockVoteStore) Create(ctx context.Context, v *domain.Vote) error {
	for _, existing := range m.votes {
		if existing.RumorID == v.RumorID && existing.VoterID == v.VoterID {
			return store.ErrConflict
		}
	}
	m.nextID++
	v.ID = m.nextID
	m.votes = append(m.votes, v)
	return nil
}

func (m *mockVoteStore) GetByRumorAndVoter(ctx context.Context, rumorID, voterID int64) (*domain.Vote, error) {
	for _, v := range m.votes {
		if v.RumorID == rumorID && v.VoterID == voterID {
			return v, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *mockVoteStore) ListByRumor(ctx context.Context, rumorID int64) ([]domain.Vote, error) {
	var out []domain.Vote
	for _, v := range m.votes {
		if v.RumorID == rumorID {
			out = append(out, *v)
		}
	}
	return out, nil
}

func (m *mockVoteStore) TallyByRumor(ctx context.Context, rumorID int64) (*domain.VoteTally, error) {
	tally := &domain.VoteTally{}
	for _, v := range m.votes {
		if v.RumorID != rumorID {
			continue
		}
		if v.Type == domain.VoteConfirm {
			tally.ConfirmCount++
			tally.ConfirmScore += int64(domain.WeightContribution(v.WeightBP))
		} else {
			tally.DisputeCount++
			tally.DisputeScore += int64(domain.WeightContribution(v.WeightBP))
		}
	}
	return tally, nil
}

// mockCorrelationStore implements domain.CorrelationStore for testing.
type mockCorrelationStore struct {
	correlations map[[2]int64]*domain.Correlation
}

func newMockCorrelationStore() *mockCorrelationStore {
	return &mockCorrelationStore{correlations: make(map[[2]int64]*domain.Correlation)}
}

func (m *mockCorrelationStore) Create(ctx context.Context, c *domain.Correlation) error {
	key := [2]int64{c.RumorA, c.RumorB}
	if _, ok := m.correlations[key]; ok {
		return store.ErrConflict
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	m.correlations[key] = c
	return nil
}

func (m *mockCorrelationStore) GetByPair(ctx context.Context, a, b int64) (*domain.Correlation, error) {
	ka, kb := domain.PairKey(a, b)
	c, ok := m.correlations[[2]int64{ka, kb}]
	if !ok {
		return nil, store.ErrNotFound
	}
	return c, nil
}

func (m *mockCorrelationStore) ListActiveByRumor(ctx context.Context, rumorID int64) ([]domain.Correlation, error) {
	var out []domain.Correlation
	for _, c := range m.correlations {
		if c.Active && (c.RumorA == rumorID || c.RumorB == rumorID) {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *mockCorrelationStore) DeactivateByRumor(ctx context.Context, rumorID int64) (int64, error) {
	var n int64
	for _, c := range m.correlations {
		if c.Active && (c.RumorA == rumorID || c.RumorB == rumorID) {
			c.Active = false
			n++
		}
	}
	return n, nil
}

// mockTombstoneStore implements domain.TombstoneStore for testing.
type mockTombstoneStore struct {
	tombstones map[int64]*domain.Tombstone
}

func newMockTombstoneStore() *mockTombstoneStore {
	return &mockTombstoneStore{tombstones: make(map[int64]*domain.Tombstone)}
}

func (m *mockTombstoneStore) Create(ctx context.Context, t *domain.Tombstone) error {
	if _, ok := m.tombstones[t.RumorID]; ok {
		return store.ErrConflict
	}
	m.tombstones[t.RumorID] = t
	return nil
}

func (m *mockTombstoneStore) GetByRumorID(ctx context.Context, rumorID int64) (*domain.Tombstone, error) {
	t, ok := m.tombstones[rumorID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return t, nil
}

func (m *mockTombstoneStore) MarkRedistributed(ctx context.Context, rumorID int64) error {
	t, ok := m.tombstones[rumorID]
	if !ok {
		return store.ErrNotFound
	}
	t.Redistributed = true
	return nil
}

// mockSweepStateStore implements domain.SweepStateStore for testing.
type mockSweepStateStore struct {
	checkpoint int64
}

func (m *mockSweepStateStore) Checkpoint(ctx context.Context) (int64, error) {
	return m.checkpoint, nil
}

func (m *mockSweepStateStore) SetCheckpoint(ctx context.Context, checkpoint int64) error {
	m.checkpoint = checkpoint
	return nil
}

// mockContentStore implements domain.ContentStore for testing.
type mockContentStore struct {
	blobs map[string][]byte
}

func newMockContentStore() *mockContentStore {
	return &mockContentStore{blobs: make(map[string][]byte)}
}

func (m *mockContentStore) Put(ctx context.Context, data []byte) (string, error) {
	h := sha256.Sum256(data)
	addr := hex.EncodeToString(h[:])
	m.blobs[addr] = data
	return addr, nil
}

func (m *mockContentStore) Get(ctx context.Context, address string) ([]byte, error) {
	data, ok := m.blobs[address]
	if !ok {
		return nil, store.ErrNotFound
	}
	return data, nil
}

type mockEmbeddingClient struct{}

func (m *mockEmbeddingClient) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{0.1, 0.2, 0.3}, nil
}

// mockEventSink records appended events.
type mockEventSink struct {
	events []domain.Event
}

func (m *mockEventSink) Append(ctx context.Context, e domain.Event) error {
	m.events = append(m.events, e)
	return nil
}

func (m *mockEventSink) byType(t domain.EventType) []domain.Event {
	var out []domain.Event
	for _, e := range m.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// testEnv wires every service against the mock stores, sharing one mutex
// the way the server does.
type testEnv struct {
	identityStore    *mockIdentityStore
	rumorStore       *mockRumorStore
	voteStore        *mockVoteStore
	correlationStore *mockCorrelationStore
	tombstoneStore   *mockTombstoneStore
	sweepStateStore  *mockSweepStateStore
	contentStore     *mockContentStore
	events           *mockEventSink

	identitySvc *IdentityService
	rumorSvc    *RumorService
	votingSvc   *VotingService
	verifySvc   *VerificationService
	correlSvc   *CorrelationService
	sweeper     *SweeperService
}

func newTestEnv() *testEnv {
	env := &testEnv{
		identityStore:    newMockIdentityStore(),
		rumorStore:       newMockRumorStore(),
		voteStore:        newMockVoteStore(),
		correlationStore: newMockCorrelationStore(),
		tombstoneStore:   newMockTombstoneStore(),
		sweepStateStore:  &mockSweepStateStore{},
		contentStore:     newMockContentStore(),
		events:           &mockEventSink{},
	}

	logger := zap.NewNop()
	mu := &sync.Mutex{}

	env.identitySvc = NewIdentityService(env.identityStore, env.events, "", logger, mu)
	env.rumorSvc = NewRumorService(env.rumorStore, env.tombstoneStore, env.contentStore, &mockEmbeddingClient{}, env.identitySvc, env.events, logger, mu)
	env.votingSvc = NewVotingService(env.voteStore, env.identitySvc, env.rumorSvc, env.events, logger, mu)
	env.verifySvc = NewVerificationService(env.voteStore, env.tombstoneStore, env.rumorSvc, env.identitySvc, logger, mu)
	env.correlSvc = NewCorrelationService(env.correlationStore, env.rumorStore, env.identityStore, env.rumorSvc, env.events, logger, mu)
	env.rumorSvc.SetCorrelationDeactivator(env.correlSvc)
	env.sweeper = NewSweeperService(env.rumorStore, env.sweepStateStore, env.rumorSvc, env.correlSvc, env.events, logger, mu)

	return env
}

// seedIdentity inserts an identity directly, bypassing registration.
func (env *testEnv) seedIdentity(status domain.IdentityStatus, credibility int) *domain.Identity {
	power := domain.PowerNew
	switch status {
	case domain.StatusCredible:
		power = domain.CredibleTierPower(credibility)
	case domain.StatusDiscredited:
		power = domain.PowerDiscredited
	case domain.StatusBlocked:
		power = domain.PowerBlocked
	}

	id := &domain.Identity{
		Commitment:  hex.EncodeToString([]byte{byte(env.identityStore.nextID + 1)}),
		Credibility: credibility,
		Status:      status,
		VotingPower: power,
	}
	_ = env.identityStore.Create(context.Background(), id)
	return id
}

// seedRumor inserts an active rumor directly with the given creation time.
func (env *testEnv) seedRumor(authorID int64, initial int, createdAt time.Time) *domain.Rumor {
	r := &domain.Rumor{
		AuthorID:          authorID,
		ContentAddress:    "addr",
		InitialConfidence: initial,
		CurrentConfidence: initial,
		Status:            domain.RumorActive,
		Visible:           true,
		CreatedAt:         createdAt,
	}
	_ = env.rumorStore.Create(context.Background(), r)
	return r
}
