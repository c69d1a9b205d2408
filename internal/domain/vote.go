package domain

import "time"

type VoteType string

const (
	VoteConfirm VoteType = "confirm"
	VoteDispute VoteType = "dispute"
)

func ValidVoteType(t string) bool {
	switch VoteType(t) {
	case VoteConfirm, VoteDispute:
		return true
	}
	return false
}

// Vote is immutable once cast: weight and credibility are snapshotted so a
// later change to the voter's standing never rewrites an old vote.
type Vote struct {
	ID                int64    `json:"id"`
	RumorID           int64    `json:"rumor_id"`
	VoterID           int64    `json:"voter_id"`
	Type              VoteType `json:"type"`
	WeightBP          int      `json:"weight_bp"`
	CredibilityAtCast int      `json:"credibility_at_cast"`
	CastAt            time.Time `json:"cast_at"`
}

// WeightContribution converts a basis-point weight into a signed confidence
// contribution: a full 10000bp vote moves the raw score by 100.
func WeightContribution(weightBP int) int {
	return weightBP / 100
}

// VoteTally is a recomputed-on-demand aggregate over stored vote records.
type VoteTally struct {
	ConfirmCount int   `json:"confirm_count"`
	DisputeCount int   `json:"dispute_count"`
	ConfirmScore int64 `json:"confirm_score"`
	DisputeScore int64 `json:"dispute_score"`
}
