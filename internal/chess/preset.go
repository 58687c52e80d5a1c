package chess

import (
	"fmt"
	"strings"

	"github.com/kapu/chess-coach-go/internal/chess/uci"
)

// DifficultyPreset maps a coaching difficulty to concrete engine settings for
// opponent-move selection. Analysis always runs at full strength.
type DifficultyPreset struct {
	Name       string
	SkillLevel int
	Elo        int
	Threads    int
	HashMB     int
	Depth      int
}

var presets = map[string]DifficultyPreset{
	"easy": {
		Name:       "easy",
		SkillLevel: 3,
		Elo:        800,
		Threads:    1,
		HashMB:     32,
		Depth:      6,
	},
	"medium": {
		Name:       "medium",
		SkillLevel: 10,
		Elo:        1400,
		Threads:    1,
		HashMB:     64,
		Depth:      10,
	},
	"hard": {
		Name:       "hard",
		SkillLevel: 20,
		Threads:    2,
		HashMB:     128,
		Depth:      15,
	},
}

func GetPreset(name string) (DifficultyPreset, error) {
	p, ok := presets[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return DifficultyPreset{}, fmt.Errorf("unknown difficulty preset: %q", name)
	}
	return p, nil
}

func PresetNames() []string {
	return []string{"easy", "medium", "hard"}
}

func (p DifficultyPreset) playOptions() uci.Options {
	return uci.Options{
		Threads:    p.Threads,
		SkillLevel: p.SkillLevel,
		HashMB:     p.HashMB,
		MultiPV:    1,
		Elo:        p.Elo,
	}
}

func (p DifficultyPreset) playLimits() uci.Limits {
	return uci.Limits{Depth: p.Depth}
}

// analysisOptions is the fixed full-strength configuration used for eval/PV
// requests regardless of opponent difficulty.
func analysisOptions(multiPV int) uci.Options {
	if multiPV <= 0 {
		multiPV = 1
	}
	return uci.Options{
		Threads:    2,
		SkillLevel: 20,
		HashMB:     128,
		MultiPV:    multiPV,
	}
}
