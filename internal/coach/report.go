package coach

import "github.com/kapu/chess-coach-go/internal/analysis"

// MentalBlock is the mental-state check tab: observed telemetry bullets, one
// non-medical inference sentence and one micro-reset tip sentence.
type MentalBlock struct {
	ObservedSignals []string `json:"observed_signals"`
	Inference       string   `json:"inference"`
	MicroResetTip   string   `json:"micro_reset_tip"`
}

// PlanSet holds ordered plan bullets per side.
type PlanSet struct {
	White []string `json:"white"`
	Black []string `json:"black"`
}

// PositionBlock is the position snapshot tab.
type PositionBlock struct {
	Eval    string   `json:"eval"`
	Why     []string `json:"why"`
	Threats []string `json:"threats"`
	Plans   PlanSet  `json:"plans"`
}

// QualityBlock carries the move-quality verdict. Label is always one of the
// closed five-value vocabulary, never free text.
type QualityBlock struct {
	Label  analysis.Quality `json:"label"`
	Reason string           `json:"reason"`
}

// CoachingBlock is the actionable-advice tab: at most three bullets plus an
// optional short principal variation.
type CoachingBlock struct {
	Bullets []string `json:"bullets"`
	PV      string   `json:"pv,omitempty"`
}

// OpponentBlock explains the scripted opponent's last reply.
type OpponentBlock struct {
	Explain   string   `json:"explain"`
	Checklist []string `json:"checklist"`
}

// Report is the structured coaching output for one turn. RawText always holds
// the agent's complete unparsed reply (or the canned degraded text) so
// consumers can fall back to raw rendering.
type Report struct {
	Mental   MentalBlock   `json:"mental"`
	Position PositionBlock `json:"position"`
	Quality  QualityBlock  `json:"move_quality"`
	Coaching CoachingBlock `json:"coaching"`
	Opponent OpponentBlock `json:"opponent"`
	RawText  string        `json:"raw_text"`
}
