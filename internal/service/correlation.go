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
	ErrNotOracle           = errors.New("caller is not the correlation oracle")
	ErrCorrelationExists   = errors.New("correlation already exists for pair")
	ErrCorrelationWindow   = errors.New("rumors outside the correlation window")
	ErrCorrelationSelfPair = errors.New("correlation must link two distinct rumors")
	ErrInvalidRelationship = errors.New("invalid relationship")
	ErrInvalidConfidence   = errors.New("correlation confidence out of range")
)

// CorrelationProposal is one oracle-proposed pair.
type CorrelationProposal struct {
	RumorA       int64               `json:"rumor_a"`
	RumorB       int64               `json:"rumor_b"`
	Relationship domain.Relationship `json:"relationship"`
	Confidence   int                 `json:"confidence"`
}

// RelatedRumors is the read-only split of a rumor's active counterparts.
type RelatedRumors struct {
	Supportive    []int64 `json:"supportive"`
	Contradictory []int64 `json:"contradictory"`
}

// BoostOutcome reports one boost evaluation.
type BoostOutcome struct {
	RumorID int64             `json:"rumor_id"`
	Tally   domain.BoostTally `json:"tally"`
	Boost   int               `json:"boost"`
	Applied bool              `json:"applied"`
}

type CorrelationService struct {
	correlations domain.CorrelationStore
	rumors       domain.RumorStore
	identities   domain.IdentityStore
	rumorSvc     *RumorService
	events       domain.EventSink
	logger       *zap.Logger
	mu           *sync.Mutex
}

func NewCorrelationService(cs domain.CorrelationStore, rs domain.RumorStore, is domain.IdentityStore, rsvc *RumorService, events domain.EventSink, logger *zap.Logger, mu *sync.Mutex) *CorrelationService {
	return &CorrelationService{
		correlations: cs,
		rumors:       rs,
		identities:   is,
		rumorSvc:     rsvc,
		events:       events,
		logger:       logger,
		mu:           mu,
	}
}

// AddCorrelations persists an oracle batch. The whole batch validates before
// anything persists: both rumors of every pair must exist and be active,
// their creation times must fall within the correlation window, and no pair
// may already be correlated.
func (s *CorrelationService) AddCorrelations(ctx context.Context, caller *domain.Identity, batch []CorrelationProposal, now time.Time) ([]domain.Correlation, error) {
	if caller == nil || !caller.Oracle {
		return nil, ErrNotOracle
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	validated := make([]domain.Correlation, 0, len(batch))
	seen := make(map[[2]int64]bool, len(batch))
	for _, p := range batch {
		if p.RumorA == p.RumorB {
			return nil, ErrCorrelationSelfPair
		}
		if !domain.ValidRelationship(string(p.Relationship)) {
			return nil, ErrInvalidRelationship
		}
		if p.Confidence < 0 || p.Confidence > 100 {
			return nil, ErrInvalidConfidence
		}

		a, err := s.rumorSvc.GetByID(ctx, p.RumorA)
		if err != nil {
			return nil, err
		}
		b, err := s.rumorSvc.GetByID(ctx, p.RumorB)
		if err != nil {
			return nil, err
		}
		if a.Status != domain.RumorActive || b.Status != domain.RumorActive {
			return nil, ErrRumorNotActive
		}

		gap := a.CreatedAt.Sub(b.CreatedAt)
		if gap < 0 {
			gap = -gap
		}
		if gap > domain.CorrelationWindow {
			return nil, ErrCorrelationWindow
		}

		keyA, keyB := domain.PairKey(p.RumorA, p.RumorB)
		if seen[[2]int64{keyA, keyB}] {
			return nil, ErrCorrelationExists
		}
		seen[[2]int64{keyA, keyB}] = true
		if _, err := s.correlations.GetByPair(ctx, keyA, keyB); err == nil {
			return nil, ErrCorrelationExists
		} else if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}

		validated = append(validated, domain.Correlation{
			RumorA:       keyA,
			RumorB:       keyB,
			Relationship: p.Relationship,
			Confidence:   p.Confidence,
			Active:       true,
		})
	}

	for i := range validated {
		if err := s.correlations.Create(ctx, &validated[i]); err != nil {
			if errors.Is(err, store.ErrConflict) {
				return nil, ErrCorrelationExists
			}
			return nil, err
		}
		emitEvent(ctx, s.events, s.logger, domain.NewEvent(domain.EventCorrelationAdded, now, map[string]any{
			"rumor_a":      validated[i].RumorA,
			"rumor_b":      validated[i].RumorB,
			"relationship": validated[i].Relationship,
			"confidence":   validated[i].Confidence,
		}))
	}

	return validated, nil
}

// ApplyBoostFor tallies a rumor's active correlations by counterpart author
// standing and forwards any non-zero boost to the lifecycle.
func (s *CorrelationService) ApplyBoostFor(ctx context.Context, rumorID int64, now time.Time) (*BoostOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.rumorSvc.GetByID(ctx, rumorID)
	if err != nil {
		return nil, err
	}

	correlations, err := s.correlations.ListActiveByRumor(ctx, rumorID)
	if err != nil {
		return nil, err
	}

	var tally domain.BoostTally
	for _, c := range correlations {
		counterpart, err := s.rumors.GetByID(ctx, c.Counterpart(rumorID))
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, err
		}
		author, err := s.identities.GetByID(ctx, counterpart.AuthorID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, err
		}
		tally.Bucket(c.Relationship, author.Status)
	}

	out := &BoostOutcome{RumorID: rumorID, Tally: tally, Boost: tally.Boost()}
	if out.Boost == 0 {
		return out, nil
	}

	if err := s.rumorSvc.ApplyBoost(ctx, r, out.Boost, now); err != nil {
		return nil, err
	}
	out.Applied = true

	emitEvent(ctx, s.events, s.logger, domain.NewEvent(domain.EventCorrelationBoostApplied, now, map[string]any{
		"rumor_id":   rumorID,
		"boost":      out.Boost,
		"confidence": r.CurrentConfidence,
	}))

	return out, nil
}

// Deactivate flips every correlation referencing the rumor to inactive.
// Idempotent: deactivating an already-quiet rumor is a no-op.
func (s *CorrelationService) Deactivate(ctx context.Context, rumorID int64) (int64, error) {
	return s.correlations.DeactivateByRumor(ctx, rumorID)
}

// Related splits a rumor's active correlation counterparts by relationship.
func (s *CorrelationService) Related(ctx context.Context, rumorID int64) (*RelatedRumors, error) {
	if _, err := s.rumorSvc.GetByID(ctx, rumorID); err != nil {
		return nil, err
	}

	correlations, err := s.correlations.ListActiveByRumor(ctx, rumorID)
	if err != nil {
		return nil, err
	}

	out := &RelatedRumors{}
	for _, c := range correlations {
		counterpart := c.Counterpart(rumorID)
		if c.Relationship == domain.RelationshipSupportive {
			out.Supportive = append(out.Supportive, counterpart)
		} else {
			out.Contradictory = append(out.Contradictory, counterpart)
		}
	}
	return out, nil
}

// Suggest proposes correlation candidates for the oracle: active rumors
// similar to this one, created within the correlation window. Read-only;
// persisting a candidate still goes through AddCorrelations.
func (s *CorrelationService) Suggest(ctx context.Context, rumorID int64, limit int) ([]domain.RumorWithScore, error) {
	r, err := s.rumorSvc.GetByID(ctx, rumorID)
	if err != nil {
		return nil, err
	}

	similar, err := s.rumors.FindSimilar(ctx, rumorID, limit)
	if err != nil {
		return nil, err
	}

	candidates := make([]domain.RumorWithScore, 0, len(similar))
	for _, c := range similar {
		gap := r.CreatedAt.Sub(c.CreatedAt)
		if gap < 0 {
			gap = -gap
		}
		if gap > domain.CorrelationWindow {
			continue
		}
		candidates = append(candidates, c)
	}
	return candidates, nil
}
