package domain

import (
	"testing"
	"time"
)

func TestNextStatus_ZeroScoreBlocks(t *testing.T) {
	now := time.Now()
	for _, status := range []IdentityStatus{StatusNew, StatusCredible, StatusDiscredited, StatusBlocked} {
		got := NextStatus(status, PowerCredible, 0, nil, now)
		if got.Status != StatusBlocked {
			t.Errorf("NextStatus(%v, score=0) status = %v, want blocked", status, got.Status)
		}
		if got.VotingPower != PowerBlocked {
			t.Errorf("NextStatus(%v, score=0) power = %d, want 0", status, got.VotingPower)
		}
	}
}

func TestNextStatus_SubThresholdDiscredits(t *testing.T) {
	now := time.Now()

	got := NextStatus(StatusCredible, PowerCredible, 20, nil, now)
	if got.Status != StatusDiscredited {
		t.Fatalf("status = %v, want discredited", got.Status)
	}
	if got.VotingPower != PowerDiscredited {
		t.Errorf("power = %d, want %d", got.VotingPower, PowerDiscredited)
	}
	if got.DiscreditedUntil == nil {
		t.Fatal("expected discredited-until to be set")
	}
	if want := now.Add(DiscreditDuration); !got.DiscreditedUntil.Equal(want) {
		t.Errorf("discredited-until = %v, want %v", got.DiscreditedUntil, want)
	}

	// NEW and DISCREDITED identities are exempt from the discredit rule.
	for _, status := range []IdentityStatus{StatusNew, StatusDiscredited} {
		got := NextStatus(status, PowerNew, 20, nil, now)
		if got.Status != status {
			t.Errorf("NextStatus(%v, score=20) status = %v, want unchanged", status, got.Status)
		}
	}
}

func TestNextStatus_PromotionToCredible(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name  string
		score int
		power int
	}{
		{"threshold score gets base power", 30, PowerCredible},
		{"trusted score gets 12000bp", 55, PowerTrusted},
		{"expert score gets 15000bp", 80, PowerExpert},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextStatus(StatusNew, PowerNew, tt.score, nil, now)
			if got.Status != StatusCredible {
				t.Fatalf("status = %v, want credible", got.Status)
			}
			if got.VotingPower != tt.power {
				t.Errorf("power = %d, want %d", got.VotingPower, tt.power)
			}
			if got.DiscreditedUntil != nil {
				t.Error("expected discredited-until cleared")
			}
		})
	}
}

func TestNextStatus_DiscreditedRecovery(t *testing.T) {
	now := time.Now()

	expired := now.Add(-time.Hour)
	got := NextStatus(StatusDiscredited, PowerDiscredited, 40, &expired, now)
	if got.Status != StatusCredible {
		t.Fatalf("recovered identity status = %v, want credible", got.Status)
	}
	if got.DiscreditedUntil != nil {
		t.Error("expected discredited-until cleared on recovery")
	}

	// Penalty window still running: no promotion.
	pending := now.Add(time.Hour)
	got = NextStatus(StatusDiscredited, PowerDiscredited, 40, &pending, now)
	if got.Status != StatusDiscredited {
		t.Errorf("penalized identity status = %v, want discredited", got.Status)
	}
	if got.VotingPower != PowerDiscredited {
		t.Errorf("penalized identity power = %d, want %d", got.VotingPower, PowerDiscredited)
	}
}

func TestNextStatus_CredibleTierAdjusts(t *testing.T) {
	now := time.Now()

	// Already credible, score crosses a tier: power follows without a status
	// change.
	got := NextStatus(StatusCredible, PowerCredible, 72, nil, now)
	if got.Status != StatusCredible {
		t.Fatalf("status = %v, want credible", got.Status)
	}
	if got.VotingPower != PowerExpert {
		t.Errorf("power = %d, want %d", got.VotingPower, PowerExpert)
	}

	// Score falls back below the trusted tier but stays above threshold.
	got = NextStatus(StatusCredible, PowerTrusted, 45, nil, now)
	if got.VotingPower != PowerCredible {
		t.Errorf("power = %d, want %d", got.VotingPower, PowerCredible)
	}
}

func TestPreviewWeight(t *testing.T) {
	now := time.Now()

	if w := PreviewWeight(nil, now); w != 0 {
		t.Errorf("nil identity weight = %d, want 0", w)
	}

	blocked := &Identity{Status: StatusBlocked, VotingPower: PowerCredible}
	if w := PreviewWeight(blocked, now); w != 0 {
		t.Errorf("blocked weight = %d, want 0", w)
	}

	// Discredited whose penalty has elapsed and whose score recovered
	// previews the credible tier without mutating.
	expired := now.Add(-time.Minute)
	recovered := &Identity{Status: StatusDiscredited, VotingPower: PowerDiscredited, Credibility: 55, DiscreditedUntil: &expired}
	if w := PreviewWeight(recovered, now); w != PowerTrusted {
		t.Errorf("recovered preview weight = %d, want %d", w, PowerTrusted)
	}
	if recovered.Status != StatusDiscredited || recovered.VotingPower != PowerDiscredited {
		t.Error("preview must not mutate the identity")
	}

	// Penalty elapsed but score still low: stored power stands.
	low := &Identity{Status: StatusDiscredited, VotingPower: PowerDiscredited, Credibility: 20, DiscreditedUntil: &expired}
	if w := PreviewWeight(low, now); w != PowerDiscredited {
		t.Errorf("low-score preview weight = %d, want %d", w, PowerDiscredited)
	}

	credible := &Identity{Status: StatusCredible, VotingPower: PowerExpert, Credibility: 90}
	if w := PreviewWeight(credible, now); w != PowerExpert {
		t.Errorf("credible weight = %d, want %d", w, PowerExpert)
	}
}

func TestPostQuota(t *testing.T) {
	tests := []struct {
		status   IdentityStatus
		limit    int
		evidence bool
		allowed  bool
	}{
		{StatusBlocked, 0, false, false},
		{StatusNew, 3, true, true},
		{StatusDiscredited, 2, true, true},
		{StatusCredible, 0, false, true},
		{StatusNone, 0, false, false},
	}

	for _, tt := range tests {
		limit, evidence, allowed := PostQuota(tt.status)
		if limit != tt.limit || evidence != tt.evidence || allowed != tt.allowed {
			t.Errorf("PostQuota(%v) = (%d, %v, %v), want (%d, %v, %v)",
				tt.status, limit, evidence, allowed, tt.limit, tt.evidence, tt.allowed)
		}
	}
}

func TestFixedWindow(t *testing.T) {
	now := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)
	var w FixedWindow

	for i := 0; i < MaxVotesPerHour; i++ {
		if !w.Allow(now, time.Hour, MaxVotesPerHour) {
			t.Fatalf("vote %d should be allowed", i)
		}
		w.Record(now, time.Hour)
	}
	if w.Allow(now, time.Hour, MaxVotesPerHour) {
		t.Error("11th vote in the hour should be denied")
	}

	// Same hour, later minute: still denied.
	if w.Allow(now.Add(20*time.Minute), time.Hour, MaxVotesPerHour) {
		t.Error("window should not reset within the hour")
	}

	// Next hour: lazy reset on read.
	next := now.Add(time.Hour)
	if !w.Allow(next, time.Hour, MaxVotesPerHour) {
		t.Error("window should reset in the next hour")
	}
	if w.Used(next, time.Hour) != 0 {
		t.Errorf("count after reset = %d, want 0", w.Used(next, time.Hour))
	}
}
