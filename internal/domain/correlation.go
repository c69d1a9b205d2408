package domain

import "time"

type Relationship string

const (
	RelationshipSupportive    Relationship = "supportive"
	RelationshipContradictory Relationship = "contradictory"
)

func ValidRelationship(r string) bool {
	switch Relationship(r) {
	case RelationshipSupportive, RelationshipContradictory:
		return true
	}
	return false
}

// CorrelationWindow bounds how far apart two rumors' creation times may be
// for a correlation between them to be accepted.
const CorrelationWindow = 5 * 24 * time.Hour

// Correlation links an unordered pair of rumors. The pair is stored
// normalized (RumorA < RumorB) so uniqueness holds regardless of submission
// order. Once created it is only ever mutated to flip Active off.
type Correlation struct {
	RumorA       int64        `json:"rumor_a"`
	RumorB       int64        `json:"rumor_b"`
	Relationship Relationship `json:"relationship"`
	Confidence   int          `json:"confidence"`
	Active       bool         `json:"active"`
	CreatedAt    time.Time    `json:"created_at"`
}

// PairKey normalizes an unordered rumor pair.
func PairKey(a, b int64) (int64, int64) {
	if a > b {
		return b, a
	}
	return a, b
}

// Counterpart returns the other rumor of the pair.
func (c *Correlation) Counterpart(rumorID int64) int64 {
	if c.RumorA == rumorID {
		return c.RumorB
	}
	return c.RumorA
}

const (
	BoostStrongSupport  = 30
	BoostMixedSupport   = 15
	BoostWeakSupport    = 5
	PenaltyDiscredited  = 20
	PenaltyContradicted = 10
)

// BoostTally buckets a rumor's active correlations by the counterpart
// author's standing.
type BoostTally struct {
	CredibleSupport    int
	NewSupport         int
	DiscreditedSupport int
	Contradictions     int
}

// Boost evaluates the band rules: the first matching support band wins the
// positive term; the discredited and contradiction penalties are additive.
func (t BoostTally) Boost() int {
	boost := 0
	switch {
	case t.CredibleSupport >= 2:
		boost = BoostStrongSupport
	case t.CredibleSupport >= 1 && t.NewSupport >= 1:
		boost = BoostMixedSupport
	case t.NewSupport >= 2:
		boost = BoostWeakSupport
	}
	if t.DiscreditedSupport >= 2 {
		boost -= PenaltyDiscredited
	}
	if t.Contradictions >= 2 {
		boost -= PenaltyContradicted
	}
	return boost
}

// Bucket counts one correlation toward the tally.
func (t *BoostTally) Bucket(rel Relationship, counterpartAuthor IdentityStatus) {
	if rel == RelationshipContradictory {
		t.Contradictions++
		return
	}
	switch counterpartAuthor {
	case StatusCredible:
		t.CredibleSupport++
	case StatusNew:
		t.NewSupport++
	case StatusDiscredited:
		t.DiscreditedSupport++
	}
}
