package service

import (
	"context"

	"github.com/Harshitk-cp/rumormill/internal/domain"
	"go.uber.org/zap"
)

// emitEvent appends to the event log, degrading to a warning when the sink is
// unavailable so the mutation that produced the event still commits.
func emitEvent(ctx context.Context, sink domain.EventSink, logger *zap.Logger, e domain.Event) {
	if sink == nil {
		return
	}
	if err := sink.Append(ctx, e); err != nil {
		logger.Warn("failed to append event", zap.String("type", string(e.Type)), zap.Error(err))
	}
}
