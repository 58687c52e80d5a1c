package coach

import (
	"strings"
	"testing"
)

const fullReply = `[MENTAL_STATE_CHECK]
Observed Signals:
- blunder streak 2
- rapid reply after mistake
Inference (non-medical, uncertain):
- Possible tilt forming.
10s Micro-Reset Tip:
- Sit back and scan the whole board once.

[POSITION_SNAPSHOT]
Eval:
- -120 cp
Why:
- Black won a pawn in the center.
- White's king is still uncastled.
Immediate Threats:
- d4 pawn pushes to d3
Plans (White):
- castle short
- challenge the d-file
Plans (Black):
- keep the extra pawn

[MOVE_QUALITY]
Label:
- Mistake
Reason:
- Dropped the d4 pawn for no compensation.

[COACHING]
Actionable:
- 1) Castle before starting operations.
- 2) Count defenders before pushing pawns.
- 3) Slow down after any material loss.
- 4) This one should be cut off.
Short PV (4-8 ply max):
- g1f3 b8c6 f1b5 a7a6

[BOT_MOVE]
Explain:
- The bot grabbed the undefended pawn.
Next-turn checklist:
- is anything hanging
- where does the knight want to go
`

func TestParseFullReply(t *testing.T) {
	r := Parse(fullReply)

	if len(r.Mental.ObservedSignals) != 2 {
		t.Fatalf("observed signals = %v", r.Mental.ObservedSignals)
	}
	if r.Mental.Inference != "Possible tilt forming." {
		t.Fatalf("inference = %q", r.Mental.Inference)
	}
	if r.Mental.MicroResetTip != "Sit back and scan the whole board once." {
		t.Fatalf("tip = %q", r.Mental.MicroResetTip)
	}

	if r.Position.Eval != "-120 cp" {
		t.Fatalf("eval = %q", r.Position.Eval)
	}
	if len(r.Position.Why) != 2 || len(r.Position.Threats) != 1 {
		t.Fatalf("why = %v threats = %v", r.Position.Why, r.Position.Threats)
	}
	if len(r.Position.Plans.White) != 2 || len(r.Position.Plans.Black) != 1 {
		t.Fatalf("plans = %+v", r.Position.Plans)
	}

	if string(r.Quality.Label) != "Mistake" {
		t.Fatalf("label = %q", r.Quality.Label)
	}
	if !strings.Contains(r.Quality.Reason, "Dropped the d4 pawn") {
		t.Fatalf("reason = %q", r.Quality.Reason)
	}

	if len(r.Coaching.Bullets) != 3 {
		t.Fatalf("coaching bullets not capped at 3: %v", r.Coaching.Bullets)
	}
	if r.Coaching.Bullets[0] != "Castle before starting operations." {
		t.Fatalf("numbering not stripped: %q", r.Coaching.Bullets[0])
	}
	if r.Coaching.PV != "g1f3 b8c6 f1b5 a7a6" {
		t.Fatalf("pv = %q", r.Coaching.PV)
	}

	if r.Opponent.Explain != "The bot grabbed the undefended pawn." {
		t.Fatalf("explain = %q", r.Opponent.Explain)
	}
	if len(r.Opponent.Checklist) != 2 {
		t.Fatalf("checklist = %v", r.Opponent.Checklist)
	}

	if r.RawText != fullReply {
		t.Fatalf("raw text not retained verbatim")
	}
}

func TestParseHostileInputsNeverPanic(t *testing.T) {
	inputs := []string{
		"",
		"complete garbage with no structure at all",
		"[MENTAL_STATE_CHECK]",
		"[MOVE_QUALITY]\nLabel:\n- Brilliant!!\n",
		"[MOVE_QUALITY]\nLabel:\nReason:\n",
		strings.Repeat("[MENTAL_STATE_CHECK]\n", 50),
		fullReply[:len(fullReply)/3],
		"Label:\n- Blunder\n",
		"[POSITION_SNAPSHOT]\nEval:\n[MOVE_QUALITY]",
		"\x00\x01\x02[COACHING]Actionable:- 1)\n",
	}
	for i, in := range inputs {
		r := Parse(in)
		if !r.Quality.Label.IsValid() {
			t.Fatalf("input %d: label %q outside vocabulary", i, r.Quality.Label)
		}
		if r.RawText != in {
			t.Fatalf("input %d: raw text not retained", i)
		}
	}
}

func TestParseEmptyInputDefaults(t *testing.T) {
	r := Parse("")
	if r.Mental.Inference != defaultInference {
		t.Fatalf("inference = %q", r.Mental.Inference)
	}
	if r.Mental.MicroResetTip != defaultTip {
		t.Fatalf("tip = %q", r.Mental.MicroResetTip)
	}
	if r.Position.Eval != unknownEval {
		t.Fatalf("eval = %q", r.Position.Eval)
	}
	if string(r.Quality.Label) != "Good" {
		t.Fatalf("label = %q, want Good", r.Quality.Label)
	}
	if len(r.Coaching.Bullets) != 0 {
		t.Fatalf("bullets = %v, want empty", r.Coaching.Bullets)
	}
}

func TestParseUnknownLabelBecomesGood(t *testing.T) {
	r := Parse("[MOVE_QUALITY]\nLabel:\n- Catastrophic\nReason:\n- bad\n")
	if string(r.Quality.Label) != "Good" {
		t.Fatalf("label = %q, want Good", r.Quality.Label)
	}
}

func TestParseShortenedInferenceLabel(t *testing.T) {
	r := Parse("[MENTAL_STATE_CHECK]\nObserved Signals:\n- none\nInference:\n- Calm and steady.\n10s Micro-Reset Tip:\n- Breathe.\n")
	if r.Quality.Label != "Good" {
		t.Fatalf("label = %q", r.Quality.Label)
	}
	if r.Mental.Inference != "Calm and steady." {
		t.Fatalf("shortened inference label not matched: %q", r.Mental.Inference)
	}
}

func TestParseBulletedActionableFallback(t *testing.T) {
	r := Parse("[COACHING]\nActionable:\n- develop the knight\n- castle\n")
	if len(r.Coaching.Bullets) != 2 || r.Coaching.Bullets[0] != "develop the knight" {
		t.Fatalf("bullets = %v", r.Coaching.Bullets)
	}
}

func TestParseOutOfOrderSections(t *testing.T) {
	text := "[BOT_MOVE]\nExplain:\n- pawn grab\n[MOVE_QUALITY]\nLabel:\n- Blunder\nReason:\n- hung the queen\n"
	r := Parse(text)
	if string(r.Quality.Label) != "Blunder" {
		t.Fatalf("label = %q", r.Quality.Label)
	}
	if r.Opponent.Explain != "pawn grab" {
		t.Fatalf("explain = %q", r.Opponent.Explain)
	}
}
