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

const (
	defaultSweepInterval  = 1 * time.Hour
	defaultSweepBatchSize = 100
)

// SweepResult reports one scheduler pass.
type SweepResult struct {
	Examined   int   `json:"examined"`
	Locked     int   `json:"locked"`
	Checkpoint int64 `json:"checkpoint"`
}

// SweeperService walks the rumor id space in a circle, locking active rumors
// whose lock window has elapsed. The checkpoint persists across restarts so
// consecutive passes cover the whole space instead of rescanning the front.
type SweeperService struct {
	rumors     domain.RumorStore
	sweepState domain.SweepStateStore
	rumorSvc   *RumorService
	correlSvc  *CorrelationService
	events     domain.EventSink
	logger     *zap.Logger
	mu         *sync.Mutex

	interval  time.Duration
	batchSize int
	stopCh    chan struct{}
	wg        sync.WaitGroup
}

func NewSweeperService(rs domain.RumorStore, ss domain.SweepStateStore, rsvc *RumorService, csvc *CorrelationService, events domain.EventSink, logger *zap.Logger, mu *sync.Mutex) *SweeperService {
	return &SweeperService{
		rumors:     rs,
		sweepState: ss,
		rumorSvc:   rsvc,
		correlSvc:  csvc,
		events:     events,
		logger:     logger,
		mu:         mu,
		interval:   defaultSweepInterval,
		batchSize:  defaultSweepBatchSize,
		stopCh:     make(chan struct{}),
	}
}

func (s *SweeperService) SetInterval(d time.Duration) {
	s.interval = d
}

func (s *SweeperService) SetBatchSize(n int) {
	if n > 0 {
		s.batchSize = n
	}
}

// Start runs the sweeper on a periodic schedule in a background goroutine.
func (s *SweeperService) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.logger.Info("lock sweeper started", zap.Duration("interval", s.interval))

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				if _, err := s.RunOnce(ctx, time.Now().UTC()); err != nil {
					s.logger.Error("sweep pass failed", zap.Error(err))
				}
				cancel()
			case <-s.stopCh:
				s.logger.Info("lock sweeper stopped")
				return
			}
		}
	}()
}

// Stop gracefully stops the sweeper.
func (s *SweeperService) Stop() {
	close(s.stopCh)
	s.wg.Wait()
}

// RunOnce executes a single sweep pass: resume from the persisted checkpoint,
// collect a batch of lock-eligible rumors, lock them, and persist where the
// scan stopped.
func (s *SweeperService) RunOnce(ctx context.Context, now time.Time) (*SweepResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	checkpoint, err := s.sweepState.Checkpoint(ctx)
	if err != nil {
		return nil, err
	}

	eligible, examined, next, err := s.findEligible(ctx, checkpoint, now)
	if err != nil {
		return nil, err
	}

	result := &SweepResult{Examined: examined, Checkpoint: next}
	for _, r := range eligible {
		locked, err := s.sweep(ctx, r, now)
		if err != nil {
			s.logger.Warn("failed to lock swept rumor",
				zap.Int64("rumor_id", r.ID),
				zap.Error(err))
			continue
		}
		if locked {
			result.Locked++
		}
	}

	if err := s.sweepState.SetCheckpoint(ctx, next); err != nil {
		return nil, err
	}

	if result.Locked > 0 {
		emitEvent(ctx, s.events, s.logger, domain.NewEvent(domain.EventRumorsLockedBatch, now, map[string]any{
			"examined":   result.Examined,
			"locked":     result.Locked,
			"checkpoint": result.Checkpoint,
		}))
	}

	return result, nil
}

// findEligible scans ids circularly from checkpoint+1, wrapping to 1, until
// it has collected a full batch or examined every id once. Gaps from deleted
// rows are skipped, which is why the scan counts examinations rather than
// hits.
func (s *SweeperService) findEligible(ctx context.Context, checkpoint int64, now time.Time) ([]*domain.Rumor, int, int64, error) {
	maxID, err := s.rumors.MaxID(ctx)
	if err != nil {
		return nil, 0, checkpoint, err
	}
	if maxID == 0 {
		return nil, 0, 0, nil
	}
	if checkpoint > maxID || checkpoint < 0 {
		checkpoint = 0
	}

	var eligible []*domain.Rumor
	examined := 0
	cursor := checkpoint

	for examined < int(maxID) && len(eligible) < s.batchSize {
		cursor++
		if cursor > maxID {
			cursor = 1
		}
		examined++

		r, err := s.rumors.GetByID(ctx, cursor)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, examined, cursor, err
		}
		if r.Status == domain.RumorActive && now.After(r.LockDeadline()) {
			eligible = append(eligible, r)
		}
	}

	return eligible, examined, cursor, nil
}

// sweep locks one rumor and retires its correlations, reporting whether the
// lock happened. The rumor is re-read first so a state change between
// collection and locking is respected rather than counted as a lock.
func (s *SweeperService) sweep(ctx context.Context, r *domain.Rumor, now time.Time) (bool, error) {
	current, err := s.rumors.GetByID(ctx, r.ID)
	if err != nil {
		return false, err
	}
	if current.Status != domain.RumorActive || !now.After(current.LockDeadline()) {
		return false, nil
	}

	if err := s.rumorSvc.Lock(ctx, current, now); err != nil {
		return false, err
	}

	if s.correlSvc != nil {
		if _, err := s.correlSvc.Deactivate(ctx, current.ID); err != nil {
			s.logger.Warn("failed to deactivate correlations for locked rumor",
				zap.Int64("rumor_id", current.ID),
				zap.Error(err))
		}
	}

	return true, nil
}
