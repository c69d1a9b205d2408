package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Harshitk-cp/rumormill/internal/domain"
	"github.com/Harshitk-cp/rumormill/internal/store"
	"go.uber.org/zap"
)

var (
	ErrRumorNotFound   = errors.New("rumor not found")
	ErrRumorNotActive  = errors.New("rumor is not active")
	ErrRumorNotVotable = errors.New("rumor is not accepting votes")
	ErrRumorLocked     = errors.New("locked rumor cannot be deleted")
	ErrAlreadyDeleted  = errors.New("rumor already deleted")
	ErrNotAuthor       = errors.New("caller is not the author")
	ErrLockWindowOpen  = errors.New("lock window has not elapsed")
	ErrContentEmpty    = errors.New("content is required")
)

// CorrelationDeactivator flips every correlation referencing a rumor to
// inactive so a removed claim cannot keep influencing its counterparts.
type CorrelationDeactivator interface {
	Deactivate(ctx context.Context, rumorID int64) (int64, error)
}

type RumorService struct {
	rumors      domain.RumorStore
	tombstones  domain.TombstoneStore
	content     domain.ContentStore
	embedder    domain.EmbeddingClient
	identitySvc *IdentityService
	deactivator CorrelationDeactivator
	events      domain.EventSink
	logger      *zap.Logger
	mu          *sync.Mutex
}

func NewRumorService(rs domain.RumorStore, ts domain.TombstoneStore, cs domain.ContentStore, ec domain.EmbeddingClient, is *IdentityService, events domain.EventSink, logger *zap.Logger, mu *sync.Mutex) *RumorService {
	return &RumorService{
		rumors:      rs,
		tombstones:  ts,
		content:     cs,
		embedder:    ec,
		identitySvc: is,
		events:      events,
		logger:      logger,
		mu:          mu,
	}
}

func (s *RumorService) SetCorrelationDeactivator(d CorrelationDeactivator) {
	s.deactivator = d
}

// Create submits a new claim. Content and evidence are stored by address in
// the content store; the rumor keeps only the addresses. Initial confidence
// is base(author status) + 5 per evidence file.
func (s *RumorService) Create(ctx context.Context, authorID int64, content []byte, evidence [][]byte, keywords []string, now time.Time) (*domain.Rumor, error) {
	if len(content) == 0 {
		return nil, ErrContentEmpty
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	author, err := s.identitySvc.GetByID(ctx, authorID)
	if err != nil {
		return nil, err
	}
	if err := s.identitySvc.CanPost(author, len(evidence) > 0, now); err != nil {
		return nil, err
	}

	contentAddr, err := s.content.Put(ctx, content)
	if err != nil {
		return nil, err
	}
	evidenceAddrs := make([]string, 0, len(evidence))
	for _, e := range evidence {
		addr, err := s.content.Put(ctx, e)
		if err != nil {
			return nil, err
		}
		evidenceAddrs = append(evidenceAddrs, addr)
	}

	initial := domain.InitialConfidence(author.Status, len(evidenceAddrs))
	r := &domain.Rumor{
		AuthorID:          authorID,
		ContentAddress:    contentAddr,
		EvidenceAddresses: evidenceAddrs,
		HasEvidence:       len(evidenceAddrs) > 0,
		Keywords:          keywords,
		InitialConfidence: initial,
		CurrentConfidence: initial,
		Status:            domain.RumorActive,
		Visible:           true,
	}

	// Embed for the correlation suggester. A failed embedding only costs
	// similarity candidates; the claim still stores.
	if s.embedder != nil {
		emb, err := s.embedder.Embed(ctx, string(content))
		if err != nil {
			s.logger.Warn("embedding generation failed", zap.Error(err))
		} else {
			r.Embedding = emb
		}
	}

	if err := s.rumors.Create(ctx, r); err != nil {
		return nil, err
	}
	if err := s.identitySvc.RecordPost(ctx, author, now); err != nil {
		return nil, err
	}

	s.emit(ctx, domain.NewEvent(domain.EventRumorCreated, now, map[string]any{
		"rumor_id":           r.ID,
		"author_id":          authorID,
		"initial_confidence": initial,
		"has_evidence":       r.HasEvidence,
	}))

	return r, nil
}

func (s *RumorService) GetByID(ctx context.Context, id int64) (*domain.Rumor, error) {
	r, err := s.rumors.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrRumorNotFound
		}
		return nil, err
	}
	return r, nil
}

// RecordVote folds a signed weighted contribution into the rumor and
// recomputes confidence. Votes are accepted while the rumor is active or
// locked; post-lock votes blend in at 5% influence. Callers serialize.
func (s *RumorService) RecordVote(ctx context.Context, r *domain.Rumor, isConfirm bool, contribution int, now time.Time) error {
	if r.Status != domain.RumorActive && r.Status != domain.RumorLocked {
		return ErrRumorNotVotable
	}

	if isConfirm {
		r.ConfirmCount++
		r.ConfirmScore += int64(contribution)
	} else {
		r.DisputeCount++
		r.DisputeScore += int64(contribution)
	}

	s.recompute(ctx, r, now)

	if err := s.rumors.Update(ctx, r); err != nil {
		return err
	}

	s.emit(ctx, domain.NewEvent(domain.EventConfidenceUpdated, now, map[string]any{
		"rumor_id":   r.ID,
		"confidence": r.CurrentConfidence,
	}))
	return nil
}

// recompute derives current confidence from the weighted sums, locking the
// rumor if its window has elapsed.
func (s *RumorService) recompute(ctx context.Context, r *domain.Rumor, now time.Time) {
	raw := r.InitialConfidence + int(r.ConfirmScore-r.DisputeScore)

	if r.Status == domain.RumorActive && !now.Before(r.LockDeadline()) {
		r.Status = domain.RumorLocked
		r.LockedConfidence = raw
		r.Visible = false
		lockedAt := now
		r.LockedAt = &lockedAt
		s.emit(ctx, domain.NewEvent(domain.EventRumorLocked, now, map[string]any{
			"rumor_id":          r.ID,
			"locked_confidence": r.LockedConfidence,
		}))
	} else if r.Status == domain.RumorLocked {
		raw = domain.BlendLocked(r.LockedConfidence, raw)
	}

	r.CurrentConfidence = domain.ClampConfidence(raw)
}

// Lock freezes an active rumor whose window has elapsed, without requiring a
// fresh vote. Callers serialize.
func (s *RumorService) Lock(ctx context.Context, r *domain.Rumor, now time.Time) error {
	if r.Status != domain.RumorActive {
		return ErrRumorNotActive
	}
	if now.Before(r.LockDeadline()) {
		return ErrLockWindowOpen
	}

	s.recompute(ctx, r, now)
	return s.rumors.Update(ctx, r)
}

// ApplyBoost shifts an active rumor's confidence by a correlation boost.
// Boosts only apply pre-lock; there is no lock-dampening. Callers serialize.
func (s *RumorService) ApplyBoost(ctx context.Context, r *domain.Rumor, boost int, now time.Time) error {
	if r.Status != domain.RumorActive {
		return ErrRumorNotActive
	}

	r.CurrentConfidence = domain.ClampConfidence(r.CurrentConfidence + boost)
	if err := s.rumors.Update(ctx, r); err != nil {
		return err
	}

	s.emit(ctx, domain.NewEvent(domain.EventConfidenceUpdated, now, map[string]any{
		"rumor_id":   r.ID,
		"confidence": r.CurrentConfidence,
		"boost":      boost,
	}))
	return nil
}

// SetVerificationResult moves a rumor to its terminal status and freezes the
// locked confidence at the current value. Callers serialize and guard
// against double verification.
func (s *RumorService) SetVerificationResult(ctx context.Context, r *domain.Rumor, isTrue bool, now time.Time) error {
	if isTrue {
		r.Status = domain.RumorVerified
	} else {
		r.Status = domain.RumorDebunked
	}
	r.LockedConfidence = r.CurrentConfidence

	if err := s.rumors.Update(ctx, r); err != nil {
		return err
	}

	s.emit(ctx, domain.NewEvent(domain.EventRumorVerified, now, map[string]any{
		"rumor_id": r.ID,
		"outcome":  r.Status,
	}))
	return nil
}

// Delete tombstones a rumor. Only the author may delete, and only a locked
// rumor is refused; the tombstone snapshots the final confidence and vote
// count exactly once.
func (s *RumorService) Delete(ctx context.Context, rumorID, callerID int64, now time.Time) (*domain.Tombstone, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.GetByID(ctx, rumorID)
	if err != nil {
		return nil, err
	}
	if r.AuthorID != callerID {
		return nil, ErrNotAuthor
	}
	if r.Status == domain.RumorLocked {
		return nil, ErrRumorLocked
	}
	if r.Status == domain.RumorDeleted {
		return nil, ErrAlreadyDeleted
	}

	t := &domain.Tombstone{
		RumorID:         r.ID,
		FinalConfidence: r.CurrentConfidence,
		VoteCount:       r.ConfirmCount + r.DisputeCount,
		DeletedBy:       callerID,
		DeletedAt:       now,
	}
	if err := s.tombstones.Create(ctx, t); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrAlreadyDeleted
		}
		return nil, err
	}

	r.Status = domain.RumorDeleted
	r.Visible = false
	if err := s.rumors.Update(ctx, r); err != nil {
		return nil, err
	}

	if s.deactivator != nil {
		if _, err := s.deactivator.Deactivate(ctx, r.ID); err != nil {
			return nil, err
		}
	}

	s.emit(ctx, domain.NewEvent(domain.EventRumorDeleted, now, map[string]any{
		"rumor_id":         r.ID,
		"final_confidence": t.FinalConfidence,
		"vote_count":       t.VoteCount,
	}))

	return t, nil
}

func (s *RumorService) Content(ctx context.Context, r *domain.Rumor) ([]byte, error) {
	return s.content.Get(ctx, r.ContentAddress)
}

func (s *RumorService) emit(ctx context.Context, e domain.Event) {
	emitEvent(ctx, s.events, s.logger, e)
}
