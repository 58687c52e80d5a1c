package analysis

// Quality is the closed move-quality vocabulary shared by the classifier,
// the signal tracker, the report contract and the parser.
type Quality string

const (
	QualityBest       Quality = "Best"
	QualityGood       Quality = "Good"
	QualityInaccuracy Quality = "Inaccuracy"
	QualityMistake    Quality = "Mistake"
	QualityBlunder    Quality = "Blunder"
)

// IsValid reports whether q is one of the five allowed labels.
func (q Quality) IsValid() bool {
	switch q {
	case QualityBest, QualityGood, QualityInaccuracy, QualityMistake, QualityBlunder:
		return true
	}
	return false
}

// Bad reports whether q counts toward the blunder streak.
func (q Quality) Bad() bool {
	return q == QualityMistake || q == QualityBlunder
}

// MoveQuality carries the label together with the raw signed swing when the
// swing could be computed (nil when either eval was a mate score or missing).
type MoveQuality struct {
	Label   Quality
	SwingCP *int
}

// Swing thresholds in centipawns, inclusive. A negative swing means the
// position got worse for the mover.
const (
	goodFloor       = -30
	inaccuracyFloor = -90
	mistakeFloor    = -200
)

// Classify maps an evaluation pair (same POV, centipawns) to a quality label.
// Unknown evals (mate or unavailable) are treated optimistically as Good with
// no swing. QualityBest is intentionally never produced here: the label exists
// in the vocabulary and the agent contract, but emitting it needs a positive
// swing band that has not been decided yet.
func Classify(evalBeforeCP, evalAfterCP *int) MoveQuality {
	if evalBeforeCP == nil || evalAfterCP == nil {
		return MoveQuality{Label: QualityGood}
	}

	swing := *evalAfterCP - *evalBeforeCP
	q := MoveQuality{SwingCP: &swing}
	switch {
	case swing >= goodFloor:
		q.Label = QualityGood
	case swing >= inaccuracyFloor:
		q.Label = QualityInaccuracy
	case swing >= mistakeFloor:
		q.Label = QualityMistake
	default:
		q.Label = QualityBlunder
	}
	return q
}
