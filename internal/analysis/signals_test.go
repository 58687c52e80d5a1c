package analysis

import "testing"

func qp(q Quality) *Quality { return &q }

func TestUpdateSignalsStreak(t *testing.T) {
	for _, q := range []Quality{QualityMistake, QualityBlunder} {
		got := UpdateSignals(qp(q), nil, false, 2)
		if got.BlunderStreak != 3 {
			t.Fatalf("%s: streak = %d, want 3", q, got.BlunderStreak)
		}
	}
	for _, q := range []Quality{QualityGood, QualityBest, QualityInaccuracy} {
		got := UpdateSignals(qp(q), nil, true, 4)
		if got.BlunderStreak != 0 {
			t.Fatalf("%s: streak = %d, want 0", q, got.BlunderStreak)
		}
	}
}

func TestUpdateSignalsUnknownLabelLeavesStreak(t *testing.T) {
	for _, streak := range []int{0, 1, 7} {
		got := UpdateSignals(nil, intp(900), true, streak)
		if got.BlunderStreak != streak {
			t.Fatalf("nil label changed streak: %d -> %d", streak, got.BlunderStreak)
		}
	}
	// Out-of-vocabulary label behaves like unknown.
	bogus := Quality("Brilliant")
	got := UpdateSignals(&bogus, nil, false, 5)
	if got.BlunderStreak != 5 {
		t.Fatalf("bogus label changed streak: got %d", got.BlunderStreak)
	}
}

func TestRapidAfterBlunder(t *testing.T) {
	cases := []struct {
		name    string
		lastBad bool
		think   *int
		want    bool
	}{
		{"at threshold", true, intp(1500), true},
		{"just above threshold", true, intp(1501), false},
		{"instant", true, intp(0), true},
		{"no think time", true, nil, false},
		{"previous move fine", false, intp(100), false},
	}
	for _, tc := range cases {
		got := UpdateSignals(nil, tc.think, tc.lastBad, 0)
		if got.RapidAfterBlunder != tc.want {
			t.Fatalf("%s: rapid = %v, want %v", tc.name, got.RapidAfterBlunder, tc.want)
		}
	}
}
