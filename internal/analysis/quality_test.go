package analysis

import "testing"

func intp(v int) *int { return &v }

func TestClassifyThresholds(t *testing.T) {
	cases := []struct {
		name   string
		before int
		after  int
		want   Quality
	}{
		{"zero swing", 20, 20, QualityGood},
		{"positive swing", -10, 140, QualityGood},
		{"good boundary", 0, -30, QualityGood},
		{"inaccuracy upper", 0, -31, QualityInaccuracy},
		{"inaccuracy lower", 0, -90, QualityInaccuracy},
		{"mistake upper", 0, -91, QualityMistake},
		{"mistake lower", 0, -200, QualityMistake},
		{"blunder boundary", 0, -201, QualityBlunder},
		{"deep blunder", 150, -600, QualityBlunder},
	}
	for _, tc := range cases {
		got := Classify(intp(tc.before), intp(tc.after))
		if got.Label != tc.want {
			t.Fatalf("%s: Classify(%d, %d) = %s, want %s", tc.name, tc.before, tc.after, got.Label, tc.want)
		}
		if got.SwingCP == nil {
			t.Fatalf("%s: expected swing to be set", tc.name)
		}
		if want := tc.after - tc.before; *got.SwingCP != want {
			t.Fatalf("%s: swing = %d, want %d", tc.name, *got.SwingCP, want)
		}
	}
}

func TestClassifyUnknownEvalIsOptimistic(t *testing.T) {
	for _, pair := range [][2]*int{
		{nil, nil},
		{nil, intp(-300)},
		{intp(40), nil},
	} {
		got := Classify(pair[0], pair[1])
		if got.Label != QualityGood {
			t.Fatalf("Classify with missing eval returned %s, want Good", got.Label)
		}
		if got.SwingCP != nil {
			t.Fatalf("expected absent swing for missing eval, got %d", *got.SwingCP)
		}
	}
}

func TestClassifyNeverEmitsBest(t *testing.T) {
	for swing := -500; swing <= 500; swing += 7 {
		got := Classify(intp(0), intp(swing))
		if got.Label == QualityBest {
			t.Fatalf("classifier produced Best at swing %d", swing)
		}
		if !got.Label.IsValid() {
			t.Fatalf("classifier produced out-of-vocabulary label %q", got.Label)
		}
	}
}
