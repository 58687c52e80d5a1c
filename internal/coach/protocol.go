package coach

import (
	"fmt"
	"strings"

	"github.com/kapu/chess-coach-go/internal/analysis"
	"github.com/kapu/chess-coach-go/internal/chess"
)

// Section markers of the report grammar. The agent is instructed to emit
// exactly these five headers in this order; the parser locates sections by
// these fixed markers. Treat the set as a versioned schema: renaming a marker
// is a breaking protocol change.
const (
	SectionMental   = "[MENTAL_STATE_CHECK]"
	SectionPosition = "[POSITION_SNAPSHOT]"
	SectionQuality  = "[MOVE_QUALITY]"
	SectionCoaching = "[COACHING]"
	SectionOpponent = "[BOT_MOVE]"
)

var sectionOrder = []string{
	SectionMental,
	SectionPosition,
	SectionQuality,
	SectionCoaching,
	SectionOpponent,
}

// Sub-label tokens inside each section.
const (
	labelObserved  = "Observed Signals:"
	labelInference = "Inference (non-medical, uncertain):"
	labelTip       = "10s Micro-Reset Tip:"
	labelEval      = "Eval:"
	labelWhy       = "Why:"
	labelThreats   = "Immediate Threats:"
	labelPlansW    = "Plans (White):"
	labelPlansB    = "Plans (Black):"
	labelQuality   = "Label:"
	labelReason    = "Reason:"
	labelAction    = "Actionable:"
	labelShortPV   = "Short PV (4-8 ply max):"
	labelExplain   = "Explain:"
	labelChecklist = "Next-turn checklist:"
)

// SignalState is the mental-state telemetry handed to the agent, read-only.
type SignalState struct {
	ThinkTimesMs      []int
	BlunderStreak     int
	UndoAttempts      int
	RapidAfterBlunder bool
	SelfReport        string
}

// Snapshot is the point-in-time game view fed into one report request.
type Snapshot struct {
	FEN        string
	SideToMove string
	MoveList   []string
	HumanSide  string
	Difficulty string
	Verbosity  int
	Signals    SignalState
}

// Request bundles the snapshot with the engine facts already obtained from the
// analysis oracle. Everything the agent may cite travels inside this value;
// there is no ambient tool context.
type Request struct {
	Snapshot      Snapshot
	LastHumanMove string
	OpponentReply string
	EvalBeforeCP  *int
	EvalAfterCP   *int
	Quality       analysis.MoveQuality
	Analysis      chess.Analysis
}

// SystemContract is the fixed instruction given to the reasoning agent. The
// output grammar below is load-bearing: the parser keys on the section headers
// and sub-labels verbatim.
const SystemContract = `You are an Agentic Chess Coach.

You are given, in the request:
- the game snapshot (FEN, move list, player side, difficulty, verbosity)
- the player's mental signals (think times, blunder streak, undo attempts,
  rapid-after-blunder flag, optional self-report)
- engine analysis of the current position (eval and principal variations)
- the engine-derived quality classification of the player's last move

Ground every claim in those engine facts. Do NOT invent evaluations or PV
lines. If a fact is missing, say "unknown" instead of guessing.

Return STRICTLY these sections in this exact order and format:

[MENTAL_STATE_CHECK]
Observed Signals:
- ...
Inference (non-medical, uncertain):
- ...
10s Micro-Reset Tip:
- ...

[POSITION_SNAPSHOT]
Eval:
- ...
Why:
- ...
Immediate Threats:
- ...
Plans (White):
- ...
Plans (Black):
- ...

[MOVE_QUALITY]
Label:
- Best/Good/Inaccuracy/Mistake/Blunder
Reason:
- short reason grounded in engine + position

[COACHING]
Actionable:
- 1)
- 2)
- 3)
Short PV (4-8 ply max):
- ...

[BOT_MOVE]
Explain:
- why bot's last move (if already played), or next best defense
Next-turn checklist:
- ...
`

// BuildUserPrompt renders one Request into the user message for the agent.
func BuildUserPrompt(req Request) string {
	var sb strings.Builder
	snap := req.Snapshot

	sb.WriteString("Analyze the current game and return the strict sectioned report.\n\n")
	fmt.Fprintf(&sb, "FEN: %s\n", snap.FEN)
	fmt.Fprintf(&sb, "SideToMove: %s\n", snap.SideToMove)
	fmt.Fprintf(&sb, "MoveList(UCI): %s\n", strings.Join(snap.MoveList, " "))
	fmt.Fprintf(&sb, "PlayerSide: %s\n", snap.HumanSide)
	fmt.Fprintf(&sb, "BotDifficulty: %s\n", snap.Difficulty)
	fmt.Fprintf(&sb, "CoachVerbosity: %d\n", snap.Verbosity)

	sig := snap.Signals
	fmt.Fprintf(&sb, "Signals: think_times_ms=%v blunder_streak=%d undo_attempts=%d rapid_after_blunder=%v",
		sig.ThinkTimesMs, sig.BlunderStreak, sig.UndoAttempts, sig.RapidAfterBlunder)
	if sig.SelfReport != "" {
		fmt.Fprintf(&sb, " self_report=%s", sig.SelfReport)
	}
	sb.WriteString("\n\n")

	if req.LastHumanMove != "" {
		fmt.Fprintf(&sb, "PlayerLastMove: %s\n", req.LastHumanMove)
	}
	if req.OpponentReply != "" {
		fmt.Fprintf(&sb, "BotReply: %s\n", req.OpponentReply)
	}

	sb.WriteString("EngineAnalysis:\n")
	if len(req.Analysis.Lines) == 0 {
		sb.WriteString("  unavailable\n")
	}
	for i, line := range req.Analysis.Lines {
		fmt.Fprintf(&sb, "  PV%d: eval=%s pv=%s\n", i+1, line.EvalText, strings.Join(line.PV, " "))
	}

	fmt.Fprintf(&sb, "MoveQuality: %s", req.Quality.Label)
	if req.Quality.SwingCP != nil {
		fmt.Fprintf(&sb, " (swing %+d cp", *req.Quality.SwingCP)
		if req.EvalBeforeCP != nil && req.EvalAfterCP != nil {
			fmt.Fprintf(&sb, ", eval %d -> %d", *req.EvalBeforeCP, *req.EvalAfterCP)
		}
		sb.WriteString(")")
	}
	sb.WriteString("\n")

	switch {
	case snap.Verbosity <= 1:
		sb.WriteString("\nKeep every bullet to one short sentence.\n")
	case snap.Verbosity >= 3:
		sb.WriteString("\nBe thorough: justify each plan and threat with a concrete line.\n")
	}
	return sb.String()
}
