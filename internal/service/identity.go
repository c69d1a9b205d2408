package service

import (
	"context"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"github.com/Harshitk-cp/rumormill/internal/domain"
	"github.com/Harshitk-cp/rumormill/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrIdentityNotFound  = errors.New("identity not found")
	ErrAlreadyRegistered = errors.New("commitment already registered")
	ErrInvalidCommitment = errors.New("commitment is malformed")
	ErrInvalidProof      = errors.New("registration proof invalid")
	ErrIdentityBlocked   = errors.New("identity is blocked")
	ErrPostLimitExceeded = errors.New("daily post limit exceeded")
	ErrEvidenceRequired  = errors.New("evidence is required")
	ErrVoteLimitExceeded = errors.New("hourly vote limit exceeded")
)

// HashAccessKey is the one-way transform applied to bearer keys before
// storage.
func HashAccessKey(key string) string {
	h := sha256.Sum256([]byte(key))
	return hex.EncodeToString(h[:])
}

type IdentityService struct {
	identities       domain.IdentityStore
	events           domain.EventSink
	oracleCommitment string
	logger           *zap.Logger
	mu               *sync.Mutex
}

func NewIdentityService(is domain.IdentityStore, events domain.EventSink, oracleCommitment string, logger *zap.Logger, mu *sync.Mutex) *IdentityService {
	return &IdentityService{
		identities:       is,
		events:           events,
		oracleCommitment: oracleCommitment,
		logger:           logger,
		mu:               mu,
	}
}

// Register consumes a (commitment, proof) pair produced by the identity
// issuance collaborator. The commitment is the hex SHA-256 of an out-of-band
// verified credential; the proof is an Ed25519 signature over the commitment
// bytes by the registrant's keypair. Each commitment registers exactly once.
// Returns the new identity and its bearer access key (shown once).
func (s *IdentityService) Register(ctx context.Context, commitment string, publicKey, proof []byte, now time.Time) (*domain.Identity, string, error) {
	commitmentBytes, err := hex.DecodeString(commitment)
	if err != nil || len(commitmentBytes) != sha256.Size {
		return nil, "", ErrInvalidCommitment
	}
	if len(publicKey) != ed25519.PublicKeySize {
		return nil, "", ErrInvalidProof
	}
	if !ed25519.Verify(ed25519.PublicKey(publicKey), commitmentBytes, proof) {
		return nil, "", ErrInvalidProof
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.identities.GetByCommitment(ctx, commitment); err == nil {
		return nil, "", ErrAlreadyRegistered
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, "", err
	}

	accessKey := uuid.NewString()
	id := &domain.Identity{
		Commitment:    commitment,
		PublicKey:     publicKey,
		AccessKeyHash: HashAccessKey(accessKey),
		Credibility:   domain.RegistrationCredibility,
		Status:        domain.StatusNew,
		VotingPower:   domain.PowerNew,
		Oracle:        s.oracleCommitment != "" && commitment == s.oracleCommitment,
	}
	if err := s.identities.Create(ctx, id); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, "", ErrAlreadyRegistered
		}
		return nil, "", err
	}

	s.emit(ctx, domain.NewEvent(domain.EventIdentityRegistered, now, map[string]any{
		"identity_id": id.ID,
		"status":      id.Status,
		"oracle":      id.Oracle,
	}))

	return id, accessKey, nil
}

func (s *IdentityService) GetByID(ctx context.Context, id int64) (*domain.Identity, error) {
	identity, err := s.identities.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrIdentityNotFound
		}
		return nil, err
	}
	return identity, nil
}

// VotingWeight returns the weight an identity would vote with right now.
// Unknown and blocked identities weigh zero.
func (s *IdentityService) VotingWeight(ctx context.Context, identityID int64, now time.Time) (int, error) {
	identity, err := s.identities.GetByID(ctx, identityID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return domain.PreviewWeight(identity, now), nil
}

// AdjustCredibility applies a signed delta to an identity's score, counts the
// outcome, and runs the status transition rules. Positive deltas count as
// accurate outcomes, negative as inaccurate. Callers serialize.
func (s *IdentityService) AdjustCredibility(ctx context.Context, identityID int64, delta int, now time.Time) (*domain.Identity, error) {
	identity, err := s.identities.GetByID(ctx, identityID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrIdentityNotFound
		}
		return nil, err
	}

	identity.Credibility += delta
	if identity.Credibility < 0 {
		identity.Credibility = 0
	}
	switch {
	case delta > 0:
		identity.AccurateCount++
	case delta < 0:
		identity.InaccurateCount++
	}

	s.emit(ctx, domain.NewEvent(domain.EventCredibilityUpdated, now, map[string]any{
		"identity_id": identity.ID,
		"delta":       delta,
		"credibility": identity.Credibility,
	}))

	before := identity.Status
	tr := domain.NextStatus(identity.Status, identity.VotingPower, identity.Credibility, identity.DiscreditedUntil, now)
	identity.Status = tr.Status
	identity.VotingPower = tr.VotingPower
	identity.DiscreditedUntil = tr.DiscreditedUntil

	if err := s.identities.Update(ctx, identity); err != nil {
		return nil, err
	}

	if identity.Status != before {
		s.emit(ctx, domain.NewEvent(domain.EventStatusChanged, now, map[string]any{
			"identity_id":  identity.ID,
			"from":         before,
			"to":           identity.Status,
			"voting_power": identity.VotingPower,
		}))
	}

	return identity, nil
}

// CanPost checks the caller's posting quota and evidence requirement without
// consuming anything. The daily window resets lazily.
func (s *IdentityService) CanPost(identity *domain.Identity, hasEvidence bool, now time.Time) error {
	limit, evidenceRequired, allowed := domain.PostQuota(identity.Status)
	if !allowed {
		return ErrIdentityBlocked
	}
	if evidenceRequired && !hasEvidence {
		return ErrEvidenceRequired
	}
	if limit > 0 && !identity.DailyPosts.Allow(now, 24*time.Hour, limit) {
		return ErrPostLimitExceeded
	}
	return nil
}

// RecordPost consumes one slot of the daily post window and bumps the post
// total. Callers serialize.
func (s *IdentityService) RecordPost(ctx context.Context, identity *domain.Identity, now time.Time) error {
	identity.DailyPosts.Record(now, 24*time.Hour)
	identity.PostCount++
	if err := s.identities.Update(ctx, identity); err != nil {
		return err
	}
	s.emit(ctx, domain.NewEvent(domain.EventPostCountUpdated, now, map[string]any{
		"identity_id": identity.ID,
		"post_count":  identity.PostCount,
	}))
	return nil
}

// CanVote checks the hourly vote quota.
func (s *IdentityService) CanVote(identity *domain.Identity, now time.Time) error {
	if identity.Status == domain.StatusBlocked {
		return ErrIdentityBlocked
	}
	if !identity.HourlyVotes.Allow(now, time.Hour, domain.MaxVotesPerHour) {
		return ErrVoteLimitExceeded
	}
	return nil
}

// RecordVoteCast consumes one slot of the hourly vote window and bumps the
// vote total. Callers serialize.
func (s *IdentityService) RecordVoteCast(ctx context.Context, identity *domain.Identity, now time.Time) error {
	identity.HourlyVotes.Record(now, time.Hour)
	identity.VoteCount++
	if err := s.identities.Update(ctx, identity); err != nil {
		return err
	}
	s.emit(ctx, domain.NewEvent(domain.EventVoteCountUpdated, now, map[string]any{
		"identity_id": identity.ID,
		"vote_count":  identity.VoteCount,
	}))
	return nil
}

func (s *IdentityService) emit(ctx context.Context, e domain.Event) {
	emitEvent(ctx, s.events, s.logger, e)
}
