package coachdto

// Report mirrors the parsed coaching report for external consumers. RawText
// is always present for raw-rendering fallback.
type Report struct {
	Mental   MentalBlock   `json:"mental"`
	Position PositionBlock `json:"position"`
	Quality  QualityBlock  `json:"move_quality"`
	Coaching CoachingBlock `json:"coaching"`
	Opponent OpponentBlock `json:"opponent"`
	RawText  string        `json:"raw_text"`
}

type MentalBlock struct {
	ObservedSignals []string `json:"observed_signals"`
	Inference       string   `json:"inference"`
	MicroResetTip   string   `json:"micro_reset_tip"`
}

type PlanSet struct {
	White []string `json:"white"`
	Black []string `json:"black"`
}

type PositionBlock struct {
	Eval    string   `json:"eval"`
	Why     []string `json:"why"`
	Threats []string `json:"threats"`
	Plans   PlanSet  `json:"plans"`
}

type QualityBlock struct {
	Label  string `json:"label"`
	Reason string `json:"reason"`
}

type CoachingBlock struct {
	Bullets []string `json:"bullets"`
	PV      string   `json:"pv,omitempty"`
}

type OpponentBlock struct {
	Explain   string   `json:"explain"`
	Checklist []string `json:"checklist"`
}
