package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/Harshitk-cp/rumormill/internal/domain"
)

func TestRumorService_Create(t *testing.T) {
	env := newTestEnv()
	author := env.seedIdentity(domain.StatusNew, 10)
	ctx := context.Background()

	content := []byte("warehouse fire on fifth street")
	evidence := [][]byte{[]byte("photo-1"), []byte("photo-2")}

	r, err := env.rumorSvc.Create(ctx, author.ID, content, evidence, []string{"fire"}, testNow)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if r.ID == 0 {
		t.Fatal("expected rumor ID to be set")
	}
	// New author base -20, plus 5 per evidence file.
	if r.InitialConfidence != -10 {
		t.Fatalf("expected initial confidence -10, got %d", r.InitialConfidence)
	}
	if r.CurrentConfidence != r.InitialConfidence {
		t.Fatalf("expected current == initial, got %d", r.CurrentConfidence)
	}
	if r.Status != domain.RumorActive {
		t.Fatalf("expected active, got %s", r.Status)
	}
	if !r.Visible {
		t.Fatal("expected rumor visible")
	}
	if !r.HasEvidence || len(r.EvidenceAddresses) != 2 {
		t.Fatalf("expected 2 evidence addresses, got %d", len(r.EvidenceAddresses))
	}
	if len(r.Embedding) == 0 {
		t.Fatal("expected embedding stored")
	}
	if author.PostCount != 1 {
		t.Fatalf("expected post count 1, got %d", author.PostCount)
	}

	stored, err := env.rumorSvc.Content(ctx, r)
	if err != nil {
		t.Fatalf("content fetch: %v", err)
	}
	if !bytes.Equal(stored, content) {
		t.Fatal("content round trip mismatch")
	}
}

func TestRumorService_Create_CredibleNoEvidence(t *testing.T) {
	env := newTestEnv()
	author := env.seedIdentity(domain.StatusCredible, 40)

	r, err := env.rumorSvc.Create(context.Background(), author.ID, []byte("claim"), nil, nil, testNow)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if r.InitialConfidence != -10 {
		t.Fatalf("expected initial confidence -10, got %d", r.InitialConfidence)
	}
}

func TestRumorService_Create_EmptyContent(t *testing.T) {
	env := newTestEnv()
	author := env.seedIdentity(domain.StatusCredible, 40)

	if _, err := env.rumorSvc.Create(context.Background(), author.ID, nil, nil, nil, testNow); err != ErrContentEmpty {
		t.Fatalf("expected ErrContentEmpty, got %v", err)
	}
}

func TestRumorService_Create_QuotaEnforced(t *testing.T) {
	env := newTestEnv()
	author := env.seedIdentity(domain.StatusNew, 10)
	ctx := context.Background()
	evidence := [][]byte{[]byte("proof")}

	if _, err := env.rumorSvc.Create(ctx, author.ID, []byte("claim"), nil, nil, testNow); err != ErrEvidenceRequired {
		t.Fatalf("expected ErrEvidenceRequired, got %v", err)
	}
	for i := 0; i < domain.MaxPostsPerDayNew; i++ {
		if _, err := env.rumorSvc.Create(ctx, author.ID, []byte("claim"), evidence, nil, testNow); err != nil {
			t.Fatalf("post %d: %v", i, err)
		}
	}
	if _, err := env.rumorSvc.Create(ctx, author.ID, []byte("claim"), evidence, nil, testNow); err != ErrPostLimitExceeded {
		t.Fatalf("expected ErrPostLimitExceeded, got %v", err)
	}
}

func TestRumorService_GetByID_NotFound(t *testing.T) {
	env := newTestEnv()

	if _, err := env.rumorSvc.GetByID(context.Background(), 42); err != ErrRumorNotFound {
		t.Fatalf("expected ErrRumorNotFound, got %v", err)
	}
}

func TestRumorService_RecordVote_Active(t *testing.T) {
	env := newTestEnv()
	author := env.seedIdentity(domain.StatusCredible, 40)
	r := env.seedRumor(author.ID, -10, testNow)
	ctx := context.Background()

	if err := env.rumorSvc.RecordVote(ctx, r, true, 100, testNow.Add(time.Hour)); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if r.CurrentConfidence != 90 {
		t.Fatalf("expected confidence 90, got %d", r.CurrentConfidence)
	}
	if r.ConfirmCount != 1 || r.ConfirmScore != 100 {
		t.Fatalf("expected confirm sums updated, got count=%d score=%d", r.ConfirmCount, r.ConfirmScore)
	}

	// Dispute pushes past the floor; confidence clamps at -100.
	if err := env.rumorSvc.RecordVote(ctx, r, false, 250, testNow.Add(2*time.Hour)); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if r.CurrentConfidence != -100 {
		t.Fatalf("expected clamp at -100, got %d", r.CurrentConfidence)
	}
}

func TestRumorService_RecordVote_LocksAtDeadline(t *testing.T) {
	env := newTestEnv()
	author := env.seedIdentity(domain.StatusCredible, 40)
	r := env.seedRumor(author.ID, -10, testNow)
	ctx := context.Background()

	r.ConfirmCount = 1
	r.ConfirmScore = 52 // raw = 42

	afterDeadline := testNow.Add(domain.LockWindow + time.Hour)
	if err := env.rumorSvc.RecordVote(ctx, r, true, 120, afterDeadline); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if r.Status != domain.RumorLocked {
		t.Fatalf("expected locked, got %s", r.Status)
	}
	if r.LockedConfidence != 162 {
		t.Fatalf("expected locked confidence 162, got %d", r.LockedConfidence)
	}
	if r.CurrentConfidence != 100 {
		t.Fatalf("expected clamped current 100, got %d", r.CurrentConfidence)
	}
	if r.Visible {
		t.Fatal("expected locked rumor hidden")
	}
	if r.LockedAt == nil {
		t.Fatal("expected locked-at timestamp")
	}
	if len(env.events.byType(domain.EventRumorLocked)) != 1 {
		t.Fatal("expected lock event")
	}
}

func TestRumorService_RecordVote_BlendsAfterLock(t *testing.T) {
	env := newTestEnv()
	author := env.seedIdentity(domain.StatusCredible, 40)
	r := env.seedRumor(author.ID, -10, testNow)
	ctx := context.Background()

	now := testNow.Add(domain.LockWindow + time.Hour)
	r.ConfirmScore = 52
	r.ConfirmCount = 1
	if err := env.rumorSvc.Lock(ctx, r, now); err != nil {
		t.Fatalf("lock: %v", err)
	}
	if r.LockedConfidence != 42 {
		t.Fatalf("expected locked baseline 42, got %d", r.LockedConfidence)
	}

	// locked=42, raw becomes 62; blend floor((42*95+62*5)/100) = 43.
	if err := env.rumorSvc.RecordVote(ctx, r, true, 20, now.Add(time.Hour)); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if r.CurrentConfidence != 43 {
		t.Fatalf("expected blended confidence 43, got %d", r.CurrentConfidence)
	}
}

func TestRumorService_RecordVote_TerminalRefused(t *testing.T) {
	env := newTestEnv()
	author := env.seedIdentity(domain.StatusCredible, 40)
	r := env.seedRumor(author.ID, -10, testNow)
	r.Status = domain.RumorVerified

	if err := env.rumorSvc.RecordVote(context.Background(), r, true, 100, testNow); err != ErrRumorNotVotable {
		t.Fatalf("expected ErrRumorNotVotable, got %v", err)
	}
}

func TestRumorService_Lock_WindowStillOpen(t *testing.T) {
	env := newTestEnv()
	author := env.seedIdentity(domain.StatusCredible, 40)
	r := env.seedRumor(author.ID, -10, testNow)

	if err := env.rumorSvc.Lock(context.Background(), r, testNow.Add(time.Hour)); err != ErrLockWindowOpen {
		t.Fatalf("expected ErrLockWindowOpen, got %v", err)
	}
}

func TestRumorService_ApplyBoost(t *testing.T) {
	env := newTestEnv()
	author := env.seedIdentity(domain.StatusCredible, 40)
	r := env.seedRumor(author.ID, -10, testNow)
	ctx := context.Background()

	if err := env.rumorSvc.ApplyBoost(ctx, r, 30, testNow); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if r.CurrentConfidence != 20 {
		t.Fatalf("expected confidence 20, got %d", r.CurrentConfidence)
	}

	r.Status = domain.RumorLocked
	if err := env.rumorSvc.ApplyBoost(ctx, r, 30, testNow); err != ErrRumorNotActive {
		t.Fatalf("expected ErrRumorNotActive for locked rumor, got %v", err)
	}
}

func TestRumorService_Delete(t *testing.T) {
	env := newTestEnv()
	author := env.seedIdentity(domain.StatusCredible, 40)
	other := env.seedIdentity(domain.StatusCredible, 40)
	r := env.seedRumor(author.ID, -10, testNow)
	r.ConfirmCount = 3
	r.DisputeCount = 1
	r.CurrentConfidence = 25
	ctx := context.Background()

	if _, err := env.rumorSvc.Delete(ctx, r.ID, other.ID, testNow); err != ErrNotAuthor {
		t.Fatalf("expected ErrNotAuthor, got %v", err)
	}

	tomb, err := env.rumorSvc.Delete(ctx, r.ID, author.ID, testNow)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if tomb.FinalConfidence != 25 {
		t.Fatalf("expected final confidence 25, got %d", tomb.FinalConfidence)
	}
	if tomb.VoteCount != 4 {
		t.Fatalf("expected vote count 4, got %d", tomb.VoteCount)
	}
	if r.Status != domain.RumorDeleted || r.Visible {
		t.Fatalf("expected hidden deleted rumor, got status=%s visible=%v", r.Status, r.Visible)
	}

	if _, err := env.rumorSvc.Delete(ctx, r.ID, author.ID, testNow); err != ErrAlreadyDeleted {
		t.Fatalf("expected ErrAlreadyDeleted, got %v", err)
	}
}

func TestRumorService_Delete_LockedRefused(t *testing.T) {
	env := newTestEnv()
	author := env.seedIdentity(domain.StatusCredible, 40)
	r := env.seedRumor(author.ID, -10, testNow)
	r.Status = domain.RumorLocked

	if _, err := env.rumorSvc.Delete(context.Background(), r.ID, author.ID, testNow); err != ErrRumorLocked {
		t.Fatalf("expected ErrRumorLocked, got %v", err)
	}
}

func TestRumorService_Delete_DeactivatesCorrelations(t *testing.T) {
	env := newTestEnv()
	author := env.seedIdentity(domain.StatusCredible, 40)
	a := env.seedRumor(author.ID, -10, testNow)
	b := env.seedRumor(author.ID, -10, testNow)
	ctx := context.Background()

	c := &domain.Correlation{RumorA: a.ID, RumorB: b.ID, Relationship: domain.RelationshipSupportive, Confidence: 80, Active: true}
	if err := env.correlationStore.Create(ctx, c); err != nil {
		t.Fatalf("seed correlation: %v", err)
	}

	if _, err := env.rumorSvc.Delete(ctx, a.ID, author.ID, testNow); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.Active {
		t.Fatal("expected correlation deactivated on delete")
	}
}
