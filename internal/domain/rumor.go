package domain

import "time"

type RumorStatus string

const (
	RumorActive   RumorStatus = "active"
	RumorLocked   RumorStatus = "locked"
	RumorVerified RumorStatus = "verified"
	RumorDebunked RumorStatus = "debunked"
	RumorDeleted  RumorStatus = "deleted"
)

func ValidRumorStatus(s string) bool {
	switch RumorStatus(s) {
	case RumorActive, RumorLocked, RumorVerified, RumorDebunked, RumorDeleted:
		return true
	}
	return false
}

const (
	ConfidenceMin = -100
	ConfidenceMax = 100

	// EvidenceBonus is added to initial confidence per evidence file.
	EvidenceBonus = 5

	// LockWindow is how long a rumor collects full-weight votes before its
	// confidence is frozen to the locked baseline.
	LockWindow = 7 * 24 * time.Hour

	// After locking, fresh vote influence is blended in at 5%.
	lockedBlendRetained = 95
	lockedBlendFresh    = 5
)

type Rumor struct {
	ID                int64       `json:"id"`
	AuthorID          int64       `json:"author_id"`
	ContentAddress    string      `json:"content_address"`
	EvidenceAddresses []string    `json:"evidence_addresses,omitempty"`
	HasEvidence       bool        `json:"has_evidence"`
	Keywords          []string    `json:"keywords,omitempty"`
	InitialConfidence int         `json:"initial_confidence"`
	CurrentConfidence int         `json:"current_confidence"`
	LockedConfidence  int         `json:"locked_confidence"`
	Status            RumorStatus `json:"status"`
	Visible           bool        `json:"visible"`
	ConfirmCount      int         `json:"confirm_count"`
	DisputeCount      int         `json:"dispute_count"`
	ConfirmScore      int64       `json:"confirm_score"`
	DisputeScore      int64       `json:"dispute_score"`
	Embedding         []float32   `json:"-"`
	CreatedAt         time.Time   `json:"created_at"`
	LockedAt          *time.Time  `json:"locked_at,omitempty"`
}

// Terminal reports whether the rumor has reached a verification outcome.
// Terminal rumors never change status or confidence again.
func (r *Rumor) Terminal() bool {
	return r.Status == RumorVerified || r.Status == RumorDebunked
}

// LockDeadline is when the rumor becomes eligible for locking.
func (r *Rumor) LockDeadline() time.Time {
	return r.CreatedAt.Add(LockWindow)
}

// BaseConfidence is the author-status component of initial confidence.
func BaseConfidence(author IdentityStatus) int {
	switch author {
	case StatusNew:
		return -20
	case StatusCredible:
		return -10
	case StatusDiscredited:
		return -30
	default:
		return -15
	}
}

// InitialConfidence computes a new rumor's starting confidence. The evidence
// bonus is intentionally unclamped: enough evidence can lift a claim above
// zero at creation.
func InitialConfidence(author IdentityStatus, evidenceCount int) int {
	return BaseConfidence(author) + EvidenceBonus*evidenceCount
}

// ClampConfidence bounds a confidence value to [ConfidenceMin, ConfidenceMax].
func ClampConfidence(v int) int {
	if v < ConfidenceMin {
		return ConfidenceMin
	}
	if v > ConfidenceMax {
		return ConfidenceMax
	}
	return v
}

// BlendLocked folds a fresh raw score into a locked baseline, retaining 95%
// of the baseline. Uses floor division so negative blends round down.
func BlendLocked(locked, raw int) int {
	return floorDiv(locked*lockedBlendRetained+raw*lockedBlendFresh, 100)
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
