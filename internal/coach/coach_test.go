package coach

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kapu/chess-coach-go/internal/analysis"
	"github.com/kapu/chess-coach-go/internal/chess"
	"github.com/kapu/chess-coach-go/internal/msgcat"
)

type stubCompleter struct {
	text  string
	err   error
	block bool
}

func (c stubCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	if c.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return c.text, c.err
}

func testCatalog(t *testing.T) *msgcat.Catalog {
	t.Helper()
	catalog, err := msgcat.New("")
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	return catalog
}

func TestDegradedReportShape(t *testing.T) {
	c := NewCoach(nil, testCatalog(t), 0, nil)
	r := c.Degraded("reasoning agent not configured")

	if r.Mental.Inference != DegradedInference {
		t.Fatalf("inference = %q", r.Mental.Inference)
	}
	if r.Mental.MicroResetTip != DegradedTip {
		t.Fatalf("tip = %q", r.Mental.MicroResetTip)
	}
	if len(r.Mental.ObservedSignals) != 1 || r.Mental.ObservedSignals[0] != "reasoning agent not configured" {
		t.Fatalf("observed = %v", r.Mental.ObservedSignals)
	}
	if r.Position.Eval != "unknown" {
		t.Fatalf("eval = %q", r.Position.Eval)
	}
	if r.Quality.Label != analysis.QualityGood {
		t.Fatalf("label = %q", r.Quality.Label)
	}
	if len(r.Coaching.Bullets) != 1 {
		t.Fatalf("bullets = %v", r.Coaching.Bullets)
	}
	if r.RawText == "" {
		t.Fatalf("raw text missing on degraded report")
	}
}

func TestGenerateReportNilCompleter(t *testing.T) {
	c := NewCoach(nil, testCatalog(t), 0, nil)
	r := c.GenerateReport(context.Background(), Request{})
	if r.Mental.Inference != DegradedInference {
		t.Fatalf("expected degraded report, got inference %q", r.Mental.Inference)
	}
}

func TestGenerateReportCompleterError(t *testing.T) {
	c := NewCoach(stubCompleter{err: errors.New("dial tcp: refused")}, testCatalog(t), 0, nil)
	r := c.GenerateReport(context.Background(), Request{})
	if r.Mental.Inference != DegradedInference {
		t.Fatalf("expected degraded report, got inference %q", r.Mental.Inference)
	}
}

func TestGenerateReportTimeoutDegrades(t *testing.T) {
	c := NewCoach(stubCompleter{block: true}, testCatalog(t), 20*time.Millisecond, nil)
	done := make(chan Report, 1)
	go func() { done <- c.GenerateReport(context.Background(), Request{}) }()
	select {
	case r := <-done:
		if r.Mental.Inference != DegradedInference {
			t.Fatalf("expected degraded report on timeout, got %q", r.Mental.Inference)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("GenerateReport did not honor the timeout")
	}
}

func TestGenerateReportParsesAgentText(t *testing.T) {
	text := "[MOVE_QUALITY]\nLabel:\n- Inaccuracy\nReason:\n- loosened the kingside\n"
	c := NewCoach(stubCompleter{text: text}, testCatalog(t), 0, nil)
	r := c.GenerateReport(context.Background(), Request{})
	if r.Quality.Label != analysis.QualityInaccuracy {
		t.Fatalf("label = %q", r.Quality.Label)
	}
	if r.RawText != text {
		t.Fatalf("raw text not retained")
	}
}

func TestBuildUserPromptCarriesFacts(t *testing.T) {
	before, after := 40, -180
	swing := after - before
	eval := -120
	req := Request{
		Snapshot: Snapshot{
			FEN:        "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1",
			SideToMove: "white",
			MoveList:   []string{"e2e4", "e7e5"},
			HumanSide:  "white",
			Difficulty: "medium",
			Verbosity:  2,
			Signals: SignalState{
				ThinkTimesMs:      []int{2100},
				BlunderStreak:     1,
				RapidAfterBlunder: true,
				SelfReport:        "tilted",
			},
		},
		LastHumanMove: "e2e4",
		OpponentReply: "e7e5",
		EvalBeforeCP:  &before,
		EvalAfterCP:   &after,
		Quality:       analysis.MoveQuality{Label: analysis.QualityMistake, SwingCP: &swing},
		Analysis: chess.Analysis{Lines: []chess.Line{
			{EvalCP: &eval, EvalText: "-120 cp", PV: []string{"g1f3", "b8c6"}},
		}},
	}
	prompt := BuildUserPrompt(req)

	for _, want := range []string{
		"MoveList(UCI): e2e4 e7e5",
		"blunder_streak=1",
		"self_report=tilted",
		"PlayerLastMove: e2e4",
		"BotReply: e7e5",
		"PV1: eval=-120 cp pv=g1f3 b8c6",
		"MoveQuality: Mistake",
		"swing -220 cp",
		"eval 40 -> -180",
	} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestBuildUserPromptNoAnalysis(t *testing.T) {
	prompt := BuildUserPrompt(Request{})
	if !strings.Contains(prompt, "unavailable") {
		t.Fatalf("prompt should mark missing analysis as unavailable:\n%s", prompt)
	}
}
