package domain

import "testing"

func TestPairKey(t *testing.T) {
	a, b := PairKey(7, 3)
	if a != 3 || b != 7 {
		t.Errorf("PairKey(7, 3) = (%d, %d), want (3, 7)", a, b)
	}
	a, b = PairKey(3, 7)
	if a != 3 || b != 7 {
		t.Errorf("PairKey(3, 7) = (%d, %d), want (3, 7)", a, b)
	}
}

func TestCorrelationCounterpart(t *testing.T) {
	c := &Correlation{RumorA: 3, RumorB: 7}
	if got := c.Counterpart(3); got != 7 {
		t.Errorf("Counterpart(3) = %d, want 7", got)
	}
	if got := c.Counterpart(7); got != 3 {
		t.Errorf("Counterpart(7) = %d, want 3", got)
	}
}

func TestBoostTally(t *testing.T) {
	tests := []struct {
		name  string
		tally BoostTally
		want  int
	}{
		{"no correlations", BoostTally{}, 0},
		{"two credible supporters", BoostTally{CredibleSupport: 2}, 30},
		{"three credible supporters", BoostTally{CredibleSupport: 3}, 30},
		{"one credible one new", BoostTally{CredibleSupport: 1, NewSupport: 1}, 15},
		{"one credible alone", BoostTally{CredibleSupport: 1}, 0},
		{"two new supporters", BoostTally{NewSupport: 2}, 5},
		{"one new alone", BoostTally{NewSupport: 1}, 0},
		{"discredited pile-on", BoostTally{DiscreditedSupport: 2}, -20},
		{"single discredited ignored", BoostTally{DiscreditedSupport: 1}, 0},
		{"contradicted", BoostTally{Contradictions: 2}, -10},
		{"single contradiction ignored", BoostTally{Contradictions: 1}, 0},
		{"support minus penalties", BoostTally{CredibleSupport: 2, DiscreditedSupport: 2, Contradictions: 2}, 0},
		{"first band wins over weak", BoostTally{CredibleSupport: 2, NewSupport: 5}, 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.tally.Boost(); got != tt.want {
				t.Errorf("Boost() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestBoostTallyBucket(t *testing.T) {
	var tally BoostTally
	tally.Bucket(RelationshipSupportive, StatusCredible)
	tally.Bucket(RelationshipSupportive, StatusNew)
	tally.Bucket(RelationshipSupportive, StatusDiscredited)
	tally.Bucket(RelationshipContradictory, StatusCredible)
	// Blocked counterpart authors contribute to no support bucket.
	tally.Bucket(RelationshipSupportive, StatusBlocked)

	if tally.CredibleSupport != 1 || tally.NewSupport != 1 || tally.DiscreditedSupport != 1 || tally.Contradictions != 1 {
		t.Errorf("tally = %+v, want one of each", tally)
	}
}
