// Package coachpresenter converts internal session and coach types into the
// wire DTOs. Conversion lives here so the REST and WebSocket adapters cannot
// drift apart.
package coachpresenter

import (
	"github.com/kapu/chess-coach-go/internal/coach"
	"github.com/kapu/chess-coach-go/internal/session"
	"github.com/kapu/chess-coach-go/pkg/coachdto"
)

func ToStateDTO(s session.State) coachdto.GameState {
	return coachdto.GameState{
		GameID:     s.GameID,
		FEN:        s.FEN,
		SideToMove: s.SideToMove,
		HumanSide:  s.HumanSide,
		Difficulty: s.Difficulty,
		Verbosity:  s.Verbosity,
		MoveList:   emptyIfNil(s.MoveList),
		Captured: coachdto.CapturedPieces{
			White: emptyIfNil(s.Captured.White),
			Black: emptyIfNil(s.Captured.Black),
		},
		Clocks: coachdto.ClockState{
			WhiteMs: s.Clocks.WhiteMs,
			BlackMs: s.Clocks.BlackMs,
		},
		Signals: coachdto.SignalState{
			ThinkTimesMs:      emptyIntsIfNil(s.Signals.ThinkTimesMs),
			BlunderStreak:     s.Signals.BlunderStreak,
			UndoAttempts:      s.Signals.UndoAttempts,
			RapidAfterBlunder: s.Signals.RapidAfterBlunder,
			SelfReport:        s.Signals.SelfReport,
		},
		GameOver: s.GameOver,
		Result:   s.Result,
	}
}

func ToReportDTO(r *coach.Report) *coachdto.Report {
	if r == nil {
		return nil
	}
	return &coachdto.Report{
		Mental: coachdto.MentalBlock{
			ObservedSignals: emptyIfNil(r.Mental.ObservedSignals),
			Inference:       r.Mental.Inference,
			MicroResetTip:   r.Mental.MicroResetTip,
		},
		Position: coachdto.PositionBlock{
			Eval:    r.Position.Eval,
			Why:     emptyIfNil(r.Position.Why),
			Threats: emptyIfNil(r.Position.Threats),
			Plans: coachdto.PlanSet{
				White: emptyIfNil(r.Position.Plans.White),
				Black: emptyIfNil(r.Position.Plans.Black),
			},
		},
		Quality: coachdto.QualityBlock{
			Label:  string(r.Quality.Label),
			Reason: r.Quality.Reason,
		},
		Coaching: coachdto.CoachingBlock{
			Bullets: emptyIfNil(r.Coaching.Bullets),
			PV:      r.Coaching.PV,
		},
		Opponent: coachdto.OpponentBlock{
			Explain:   r.Opponent.Explain,
			Checklist: emptyIfNil(r.Opponent.Checklist),
		},
		RawText: r.RawText,
	}
}

func ToStateResponse(s session.State, r *coach.Report) coachdto.StateResponse {
	return coachdto.StateResponse{State: ToStateDTO(s), Report: ToReportDTO(r)}
}

func ToMoveResponse(res session.MoveResult) coachdto.MoveResponse {
	report := res.Report
	return coachdto.MoveResponse{
		State:   ToStateDTO(res.State),
		Report:  ToReportDTO(&report),
		BotMove: res.BotMove,
	}
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func emptyIntsIfNil(s []int) []int {
	if s == nil {
		return []int{}
	}
	return s
}
