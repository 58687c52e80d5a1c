package coach

import (
	"regexp"
	"strings"

	"github.com/kapu/chess-coach-go/internal/analysis"
)

// Fixed neutral fallbacks used when extraction of a sub-field fails. The
// report always renders; only the content degrades.
const (
	defaultInference = "Uncertain; monitor focus and time usage."
	defaultTip       = "Take one deep breath, relax shoulders, and pick one plan for the next move."
	unknownEval      = "unknown"
)

const maxCoachingBullets = 3

var (
	mentalLabels   = []string{labelObserved, "Inference", "10s Micro-Reset"}
	positionLabels = []string{labelEval, labelWhy, labelThreats, labelPlansW, labelPlansB}
	qualityLabels  = []string{labelQuality, labelReason}
	coachingLabels = []string{labelAction, labelShortPV, "Short PV"}
	opponentLabels = []string{labelExplain, labelChecklist}

	numberedRe = regexp.MustCompile(`^\d+\)\s*`)
)

// Parse extracts a structured Report from arbitrary agent text. It is total:
// any input, including empty or truncated text, yields a well-formed Report
// with per-field fallbacks. The original text is retained verbatim.
func Parse(text string) Report {
	mental := sectionBody(text, SectionMental)
	position := sectionBody(text, SectionPosition)
	quality := sectionBody(text, SectionQuality)
	coaching := sectionBody(text, SectionCoaching)
	opponent := sectionBody(text, SectionOpponent)

	r := Report{RawText: text}

	// Inference and the tip are matched by prefix: agents routinely shorten
	// "Inference (non-medical, uncertain):" to "Inference:".
	r.Mental = MentalBlock{
		ObservedSignals: bullets(field(mental, labelObserved, mentalLabels)),
		Inference:       lineValue(fieldPrefix(mental, "Inference", mentalLabels)),
		MicroResetTip:   lineValue(fieldPrefix(mental, "10s Micro-Reset", mentalLabels)),
	}
	if r.Mental.Inference == "" {
		r.Mental.Inference = defaultInference
	}
	if r.Mental.MicroResetTip == "" {
		r.Mental.MicroResetTip = defaultTip
	}

	r.Position = PositionBlock{
		Eval:    lineValue(field(position, labelEval, positionLabels)),
		Why:     bullets(field(position, labelWhy, positionLabels)),
		Threats: bullets(field(position, labelThreats, positionLabels)),
		Plans: PlanSet{
			White: bullets(field(position, labelPlansW, positionLabels)),
			Black: bullets(field(position, labelPlansB, positionLabels)),
		},
	}
	if r.Position.Eval == "" {
		r.Position.Eval = unknownEval
	}

	r.Quality = QualityBlock{
		Label:  normalizeLabel(lineValue(field(quality, labelQuality, qualityLabels))),
		Reason: lineValue(field(quality, labelReason, qualityLabels)),
	}

	actionSpan := field(coaching, labelAction, coachingLabels)
	actionable := numbered(actionSpan)
	if len(actionable) == 0 {
		actionable = bullets(actionSpan)
	}
	if len(actionable) > maxCoachingBullets {
		actionable = actionable[:maxCoachingBullets]
	}
	r.Coaching = CoachingBlock{
		Bullets: actionable,
		PV:      lineValue(fieldPrefix(coaching, "Short PV", coachingLabels)),
	}

	r.Opponent = OpponentBlock{
		Explain:   lineValue(field(opponent, labelExplain, opponentLabels)),
		Checklist: bullets(field(opponent, labelChecklist, opponentLabels)),
	}

	return r
}

// sectionBody returns the text between marker and the nearest following
// section marker, or "" when the marker is absent.
func sectionBody(text, marker string) string {
	start := strings.Index(text, marker)
	if start == -1 {
		return ""
	}
	start += len(marker)
	end := len(text)
	for _, other := range sectionOrder {
		if other == marker {
			continue
		}
		if idx := strings.Index(text[start:], other); idx != -1 && start+idx < end {
			end = start + idx
		}
	}
	return strings.TrimSpace(text[start:end])
}

// field captures the span after label up to the nearest following known
// sub-label within the same section.
func field(block, label string, known []string) string {
	start := strings.Index(block, label)
	if start == -1 {
		return ""
	}
	start += len(label)
	return clipAtLabels(block, start, label, known)
}

// fieldPrefix is like field but matches any sub-label starting with prefix
// (the Short PV label has a free-form ply hint after the prefix).
func fieldPrefix(block, prefix string, known []string) string {
	start := strings.Index(block, prefix)
	if start == -1 {
		return ""
	}
	rest := block[start:]
	colon := strings.Index(rest, ":")
	if colon == -1 || strings.Contains(rest[:colon], "\n") {
		return ""
	}
	return clipAtLabels(block, start+colon+1, prefix, known)
}

func clipAtLabels(block string, start int, self string, known []string) string {
	end := len(block)
	for _, other := range known {
		if other == self || strings.HasPrefix(other, self) || strings.HasPrefix(self, other) {
			continue
		}
		if idx := strings.Index(block[start:], other); idx != -1 && start+idx < end {
			end = start + idx
		}
	}
	return strings.TrimSpace(block[start:end])
}

// bullets collects "- " lines in order, markers stripped.
func bullets(span string) []string {
	var out []string
	for _, line := range strings.Split(span, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "- ") {
			if v := strings.TrimSpace(line[2:]); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

// numbered collects "<n>) " lines in order with the numbering stripped,
// tolerating a leading bullet marker before the number.
func numbered(span string) []string {
	var out []string
	for _, line := range strings.Split(span, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "- ")
		if !numberedRe.MatchString(line) {
			continue
		}
		if v := strings.TrimSpace(numberedRe.ReplaceAllString(line, "")); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// lineValue flattens a captured span into a single sentence: bullet markers
// stripped per line, non-empty lines joined by a space.
func lineValue(span string) string {
	var parts []string
	for _, line := range strings.Split(span, "\n") {
		line = strings.TrimSpace(line)
		// Strip only the bullet marker; a bare leading "-" may be a sign.
		if strings.HasPrefix(line, "- ") {
			line = strings.TrimSpace(line[2:])
		} else if line == "-" {
			line = ""
		}
		if line != "" {
			parts = append(parts, line)
		}
	}
	return strings.Join(parts, " ")
}

// normalizeLabel maps extracted text to the closed vocabulary; anything
// unrecognized becomes Good rather than passing through.
func normalizeLabel(raw string) analysis.Quality {
	q := analysis.Quality(strings.TrimSpace(raw))
	if q.IsValid() {
		return q
	}
	return analysis.QualityGood
}
