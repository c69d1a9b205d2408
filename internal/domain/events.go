package domain

import (
	"context"
	"time"
)

type EventType string

const (
	EventIdentityRegistered      EventType = "identity.registered"
	EventStatusChanged           EventType = "identity.status_changed"
	EventCredibilityUpdated      EventType = "identity.credibility_updated"
	EventPostCountUpdated        EventType = "identity.post_count_updated"
	EventVoteCountUpdated        EventType = "identity.vote_count_updated"
	EventRumorCreated            EventType = "rumor.created"
	EventConfidenceUpdated       EventType = "rumor.confidence_updated"
	EventRumorLocked             EventType = "rumor.locked"
	EventRumorVerified           EventType = "rumor.verified"
	EventRumorDeleted            EventType = "rumor.deleted"
	EventVoteCast                EventType = "vote.cast"
	EventCorrelationAdded        EventType = "correlation.added"
	EventCorrelationBoostApplied EventType = "correlation.boost_applied"
	EventRumorsLockedBatch       EventType = "sweep.rumors_locked"
)

// Event is one entry of the append-only domain event log.
type Event struct {
	Type       EventType      `json:"type"`
	OccurredAt time.Time      `json:"occurred_at"`
	Fields     map[string]any `json:"fields,omitempty"`
}

func NewEvent(t EventType, now time.Time, fields map[string]any) Event {
	return Event{Type: t, OccurredAt: now, Fields: fields}
}

// EventSink receives domain events. Appends are expected to be durable and
// ordered; a failing sink degrades to a logged warning rather than failing
// the operation that produced the event.
type EventSink interface {
	Append(ctx context.Context, e Event) error
}
