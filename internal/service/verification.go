package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Harshitk-cp/rumormill/internal/domain"
	"go.uber.org/zap"
)

var ErrAlreadyVerified = errors.New("rumor already verified")

const (
	// AuthorVerifiedReward and AuthorDebunkedPenalty adjust the author's
	// credibility on the verification outcome.
	AuthorVerifiedReward  = 5
	AuthorDebunkedPenalty = 10

	// Dispute votes carry double the reward/penalty magnitude of confirm
	// votes: disputing takes more conviction than agreeing.
	ConfirmVoteMagnitude = 1
	DisputeVoteMagnitude = 2
)

// VerifyResult reports what a verification distributed.
type VerifyResult struct {
	RumorID         int64              `json:"rumor_id"`
	Outcome         domain.RumorStatus `json:"outcome"`
	AuthorDelta     int                `json:"author_delta"`
	VotersRewarded  int                `json:"voters_rewarded"`
	VotersPenalized int                `json:"voters_penalized"`
	TotalRewards    int                `json:"total_rewards"`
	TotalPenalties  int                `json:"total_penalties"`
}

// BatchVerifyEntry is one rumor outcome in a batch.
type BatchVerifyEntry struct {
	RumorID int64 `json:"rumor_id"`
	IsTrue  bool  `json:"is_true"`
}

// BatchVerifyResult summarizes a batch run.
type BatchVerifyResult struct {
	Verified int            `json:"verified"`
	Skipped  int            `json:"skipped"`
	Failed   int            `json:"failed"`
	Results  []VerifyResult `json:"results"`
}

type VerificationService struct {
	votes       domain.VoteStore
	tombstones  domain.TombstoneStore
	rumorSvc    *RumorService
	identitySvc *IdentityService
	logger      *zap.Logger
	mu          *sync.Mutex
}

func NewVerificationService(vs domain.VoteStore, ts domain.TombstoneStore, rs *RumorService, is *IdentityService, logger *zap.Logger, mu *sync.Mutex) *VerificationService {
	return &VerificationService{
		votes:       vs,
		tombstones:  ts,
		rumorSvc:    rs,
		identitySvc: is,
		logger:      logger,
		mu:          mu,
	}
}

// Verify settles a rumor as true or false, rewards the author and every
// voter who called it right, and penalizes those who called it wrong.
// Confirm votes move credibility by 1, dispute votes by 2.
func (s *VerificationService) Verify(ctx context.Context, rumorID int64, isTrue bool, now time.Time) (*VerifyResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.verifyLocked(ctx, rumorID, isTrue, now)
}

func (s *VerificationService) verifyLocked(ctx context.Context, rumorID int64, isTrue bool, now time.Time) (*VerifyResult, error) {
	r, err := s.rumorSvc.GetByID(ctx, rumorID)
	if err != nil {
		return nil, err
	}
	if r.Terminal() {
		return nil, ErrAlreadyVerified
	}
	wasDeleted := r.Status == domain.RumorDeleted

	votes, err := s.votes.ListByRumor(ctx, rumorID)
	if err != nil {
		return nil, err
	}

	if err := s.rumorSvc.SetVerificationResult(ctx, r, isTrue, now); err != nil {
		return nil, err
	}

	result := &VerifyResult{RumorID: rumorID, Outcome: r.Status}

	if isTrue {
		result.AuthorDelta = AuthorVerifiedReward
	} else {
		result.AuthorDelta = -AuthorDebunkedPenalty
	}
	if _, err := s.identitySvc.AdjustCredibility(ctx, r.AuthorID, result.AuthorDelta, now); err != nil {
		return nil, err
	}

	for _, v := range votes {
		correct := (v.Type == domain.VoteConfirm) == isTrue
		magnitude := ConfirmVoteMagnitude
		if v.Type == domain.VoteDispute {
			magnitude = DisputeVoteMagnitude
		}

		delta := magnitude
		if !correct {
			delta = -magnitude
		}
		if _, err := s.identitySvc.AdjustCredibility(ctx, v.VoterID, delta, now); err != nil {
			return nil, err
		}

		if correct {
			result.VotersRewarded++
			result.TotalRewards += magnitude
		} else {
			result.VotersPenalized++
			result.TotalPenalties += magnitude
		}
	}

	// A deleted rumor can still be settled; mark its tombstone so the
	// redistribution happens at most once.
	if wasDeleted {
		if err := s.tombstones.MarkRedistributed(ctx, rumorID); err != nil {
			s.logger.Warn("failed to mark tombstone redistributed", zap.Int64("rumor_id", rumorID), zap.Error(err))
		}
	}

	return result, nil
}

// BatchVerify settles each entry independently, silently skipping rumors
// that are already verified. One bad entry never blocks the rest.
func (s *VerificationService) BatchVerify(ctx context.Context, entries []BatchVerifyEntry, now time.Time) (*BatchVerifyResult, error) {
	out := &BatchVerifyResult{}
	for _, e := range entries {
		res, err := s.Verify(ctx, e.RumorID, e.IsTrue, now)
		if err != nil {
			if errors.Is(err, ErrAlreadyVerified) {
				out.Skipped++
				continue
			}
			s.logger.Warn("batch verify entry failed", zap.Int64("rumor_id", e.RumorID), zap.Error(err))
			out.Failed++
			continue
		}
		out.Verified++
		out.Results = append(out.Results, *res)
	}
	return out, nil
}

// Preview computes the totals a verification would distribute, without
// mutating anything.
func (s *VerificationService) Preview(ctx context.Context, rumorID int64, isTrue bool) (*VerifyResult, error) {
	if _, err := s.rumorSvc.GetByID(ctx, rumorID); err != nil {
		return nil, err
	}

	votes, err := s.votes.ListByRumor(ctx, rumorID)
	if err != nil {
		return nil, err
	}

	result := &VerifyResult{RumorID: rumorID}
	if isTrue {
		result.Outcome = domain.RumorVerified
		result.AuthorDelta = AuthorVerifiedReward
	} else {
		result.Outcome = domain.RumorDebunked
		result.AuthorDelta = -AuthorDebunkedPenalty
	}

	for _, v := range votes {
		correct := (v.Type == domain.VoteConfirm) == isTrue
		magnitude := ConfirmVoteMagnitude
		if v.Type == domain.VoteDispute {
			magnitude = DisputeVoteMagnitude
		}
		if correct {
			result.VotersRewarded++
			result.TotalRewards += magnitude
		} else {
			result.VotersPenalized++
			result.TotalPenalties += magnitude
		}
	}

	return result, nil
}
