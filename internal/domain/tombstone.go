package domain

import "time"

// Tombstone is the immutable record of a deleted rumor's final state. It
// proves what the rumor looked like at deletion without letting the rumor
// itself mutate further, and keeps deleted claims out of correlation boosts.
type Tombstone struct {
	RumorID         int64     `json:"rumor_id"`
	FinalConfidence int       `json:"final_confidence"`
	VoteCount       int       `json:"vote_count"`
	DeletedBy       int64     `json:"deleted_by"`
	Redistributed   bool      `json:"redistributed"`
	DeletedAt       time.Time `json:"deleted_at"`
}
