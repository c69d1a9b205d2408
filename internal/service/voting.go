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
	ErrAlreadyVoted    = errors.New("already voted on this rumor")
	ErrSelfVote        = errors.New("author cannot vote on own rumor")
	ErrZeroWeight      = errors.New("identity has no voting weight")
	ErrInvalidVoteType = errors.New("invalid vote type")
)

type VotingService struct {
	votes       domain.VoteStore
	identitySvc *IdentityService
	rumorSvc    *RumorService
	events      domain.EventSink
	logger      *zap.Logger
	mu          *sync.Mutex
}

func NewVotingService(vs domain.VoteStore, is *IdentityService, rs *RumorService, events domain.EventSink, logger *zap.Logger, mu *sync.Mutex) *VotingService {
	return &VotingService{
		votes:       vs,
		identitySvc: is,
		rumorSvc:    rs,
		events:      events,
		logger:      logger,
		mu:          mu,
	}
}

// CastVote records a weighted vote on a rumor. At most one vote per
// (rumor, voter) pair ever exists; the vote snapshots the voter's weight and
// credibility at cast time and is immutable afterward.
func (s *VotingService) CastVote(ctx context.Context, rumorID, voterID int64, voteType domain.VoteType, now time.Time) (*domain.Vote, error) {
	if !domain.ValidVoteType(string(voteType)) {
		return nil, ErrInvalidVoteType
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	voter, err := s.identitySvc.GetByID(ctx, voterID)
	if err != nil {
		return nil, err
	}
	if err := s.identitySvc.CanVote(voter, now); err != nil {
		return nil, err
	}

	r, err := s.rumorSvc.GetByID(ctx, rumorID)
	if err != nil {
		return nil, err
	}
	if r.Status != domain.RumorActive && r.Status != domain.RumorLocked {
		return nil, ErrRumorNotVotable
	}
	if r.AuthorID == voterID {
		return nil, ErrSelfVote
	}

	if _, err := s.votes.GetByRumorAndVoter(ctx, rumorID, voterID); err == nil {
		return nil, ErrAlreadyVoted
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	weight := domain.PreviewWeight(voter, now)
	if weight <= 0 {
		return nil, ErrZeroWeight
	}

	v := &domain.Vote{
		RumorID:           rumorID,
		VoterID:           voterID,
		Type:              voteType,
		WeightBP:          weight,
		CredibilityAtCast: voter.Credibility,
		CastAt:            now,
	}
	if err := s.votes.Create(ctx, v); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrAlreadyVoted
		}
		return nil, err
	}

	contribution := domain.WeightContribution(weight)
	if err := s.rumorSvc.RecordVote(ctx, r, voteType == domain.VoteConfirm, contribution, now); err != nil {
		return nil, err
	}
	if err := s.identitySvc.RecordVoteCast(ctx, voter, now); err != nil {
		return nil, err
	}

	emitEvent(ctx, s.events, s.logger, domain.NewEvent(domain.EventVoteCast, now, map[string]any{
		"rumor_id":  rumorID,
		"voter_id":  voterID,
		"type":      voteType,
		"weight_bp": weight,
	}))

	return v, nil
}

// Tally recomputes confirm/dispute counts and weighted totals from the
// stored vote records rather than trusting the rumor's running sums.
func (s *VotingService) Tally(ctx context.Context, rumorID int64) (*domain.VoteTally, error) {
	if _, err := s.rumorSvc.GetByID(ctx, rumorID); err != nil {
		return nil, err
	}
	return s.votes.TallyByRumor(ctx, rumorID)
}

func (s *VotingService) ListByRumor(ctx context.Context, rumorID int64) ([]domain.Vote, error) {
	return s.votes.ListByRumor(ctx, rumorID)
}
