package domain

import "time"

type IdentityStatus string

const (
	StatusNone        IdentityStatus = "none"
	StatusNew         IdentityStatus = "new"
	StatusCredible    IdentityStatus = "credible"
	StatusDiscredited IdentityStatus = "discredited"
	StatusBlocked     IdentityStatus = "blocked"
)

func ValidIdentityStatus(s string) bool {
	switch IdentityStatus(s) {
	case StatusNone, StatusNew, StatusCredible, StatusDiscredited, StatusBlocked:
		return true
	}
	return false
}

// Voting power tiers in basis points (10000bp = 100%).
const (
	PowerBlocked     = 0
	PowerNew         = 2500
	PowerDiscredited = 5000
	PowerCredible    = 10000
	PowerTrusted     = 12000
	PowerExpert      = 15000
)

const (
	// RegistrationCredibility is the starting score for a fresh identity.
	RegistrationCredibility = 10
	// CredibilityThreshold separates discredited from credible scores.
	CredibilityThreshold = 30
	// TrustedScore and ExpertScore gate the upper power tiers.
	TrustedScore = 50
	ExpertScore  = 70
	// DiscreditDuration is how long a discredited identity stays penalized.
	DiscreditDuration = 30 * 24 * time.Hour

	MaxVotesPerHour           = 10
	MaxPostsPerDayNew         = 3
	MaxPostsPerDayDiscredited = 2
)

type Identity struct {
	ID               int64           `json:"id"`
	Commitment       string          `json:"commitment"`
	PublicKey        []byte          `json:"-"`
	AccessKeyHash    string          `json:"-"`
	Credibility      int             `json:"credibility"`
	Status           IdentityStatus  `json:"status"`
	VotingPower      int             `json:"voting_power"`
	Oracle           bool            `json:"oracle,omitempty"`
	PostCount        int             `json:"post_count"`
	VoteCount        int             `json:"vote_count"`
	AccurateCount    int             `json:"accurate_count"`
	InaccurateCount  int             `json:"inaccurate_count"`
	DiscreditedUntil *time.Time      `json:"discredited_until,omitempty"`
	DailyPosts       FixedWindow     `json:"-"`
	HourlyVotes      FixedWindow     `json:"-"`
	RegisteredAt     time.Time       `json:"registered_at"`
}

// CredibleTierPower maps a score to its power tier for a credible identity.
func CredibleTierPower(score int) int {
	switch {
	case score >= ExpertScore:
		return PowerExpert
	case score >= TrustedScore:
		return PowerTrusted
	default:
		return PowerCredible
	}
}

// Transition is the outcome of the status transition rules.
type Transition struct {
	Status           IdentityStatus
	VotingPower      int
	DiscreditedUntil *time.Time
}

// NextStatus applies the status transition rules as a pure function of the
// identity's current state and the clock. Rules, in order:
//
//  1. score 0 blocks the identity outright.
//  2. a sub-threshold score discredits anyone who is not already NEW or
//     DISCREDITED, for DiscreditDuration.
//  3. a threshold score promotes NEW identities, and DISCREDITED ones whose
//     penalty window has elapsed, to CREDIBLE.
//  4. credible identities get tiered power by score.
func NextStatus(status IdentityStatus, power int, score int, discreditedUntil *time.Time, now time.Time) Transition {
	out := Transition{Status: status, VotingPower: power, DiscreditedUntil: discreditedUntil}

	switch {
	case score == 0:
		out.Status = StatusBlocked
		out.VotingPower = PowerBlocked

	case score < CredibilityThreshold && status != StatusNew && status != StatusDiscredited:
		out.Status = StatusDiscredited
		out.VotingPower = PowerDiscredited
		until := now.Add(DiscreditDuration)
		out.DiscreditedUntil = &until

	case score >= CredibilityThreshold &&
		(status == StatusNew ||
			(status == StatusDiscredited && discreditedUntil != nil && now.After(*discreditedUntil))):
		out.Status = StatusCredible
		out.DiscreditedUntil = nil
	}

	if out.Status == StatusCredible {
		out.VotingPower = CredibleTierPower(score)
	}

	return out
}

// PreviewWeight returns the voting weight an identity would cast with right
// now, without mutating it. A discredited identity whose penalty has elapsed
// and whose score has recovered previews its credible-tier power; the actual
// promotion happens on the next credibility adjustment.
func PreviewWeight(id *Identity, now time.Time) int {
	if id == nil || id.Status == StatusBlocked {
		return 0
	}
	if id.Status == StatusDiscredited &&
		id.DiscreditedUntil != nil && now.After(*id.DiscreditedUntil) &&
		id.Credibility >= CredibilityThreshold {
		return CredibleTierPower(id.Credibility)
	}
	return id.VotingPower
}

// PostQuota returns the daily post limit and whether evidence is mandatory
// for the given status. A zero limit with allowed=false means posting is
// forbidden; limit 0 with allowed=true means unlimited.
func PostQuota(status IdentityStatus) (limit int, evidenceRequired bool, allowed bool) {
	switch status {
	case StatusBlocked:
		return 0, false, false
	case StatusNew:
		return MaxPostsPerDayNew, true, true
	case StatusDiscredited:
		return MaxPostsPerDayDiscredited, true, true
	case StatusCredible:
		return 0, false, true
	default:
		return 0, false, false
	}
}
