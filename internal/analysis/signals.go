package analysis

// RapidResponseThresholdMs is the think-time ceiling below which a move made
// right after a bad one is flagged as a tilt signal.
const RapidResponseThresholdMs = 1500

// SignalUpdate is the result of folding one human move into the mental-state
// telemetry.
type SignalUpdate struct {
	BlunderStreak     int
	RapidAfterBlunder bool
}

// UpdateSignals folds the latest human move into the blunder streak and the
// rapid-after-blunder flag.
//
// quality may be nil when the move has not been classified yet; the streak is
// then left unchanged and the caller re-invokes once the label is known.
// thinkTimeMs may be nil when the client did not report one.
func UpdateSignals(quality *Quality, thinkTimeMs *int, lastMoveWasBad bool, currentStreak int) SignalUpdate {
	rapid := lastMoveWasBad && thinkTimeMs != nil && *thinkTimeMs <= RapidResponseThresholdMs

	if quality == nil {
		return SignalUpdate{BlunderStreak: currentStreak, RapidAfterBlunder: rapid}
	}

	switch *quality {
	case QualityMistake, QualityBlunder:
		return SignalUpdate{BlunderStreak: currentStreak + 1, RapidAfterBlunder: rapid}
	case QualityGood, QualityBest, QualityInaccuracy:
		return SignalUpdate{BlunderStreak: 0, RapidAfterBlunder: rapid}
	}

	// Unreachable with the closed vocabulary; leave the streak alone.
	return SignalUpdate{BlunderStreak: currentStreak, RapidAfterBlunder: rapid}
}
