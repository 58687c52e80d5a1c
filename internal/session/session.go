package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	nchess "github.com/corentings/chess/v2"
	"github.com/google/uuid"
	"github.com/kapu/chess-coach-go/internal/analysis"
	"github.com/kapu/chess-coach-go/internal/chess"
	"github.com/kapu/chess-coach-go/internal/coach"
	"go.uber.org/zap"
)

var (
	ErrValidation        = errors.New("invalid request field")
	ErrNoActiveGame      = errors.New("no active game")
	ErrGameOver          = errors.New("game is over")
	ErrIllegalMove       = errors.New("illegal move")
	ErrEngineUnavailable = errors.New("chess engine unavailable")
)

// Phase is the lifecycle state of the single coaching game.
type Phase string

const (
	PhaseIdle          Phase = "idle"
	PhaseAwaitingHuman Phase = "awaiting_human"
	PhaseResolving     Phase = "resolving"
	PhaseGameOver      Phase = "game_over"
)

const (
	initialClockMs = 5 * 60 * 1000
	reportMultiPV  = 2
	observerBuffer = 8
)

// Oracle is the engine capability the session consumes: opponent replies and
// position evaluation. Implemented by chess.Engine.
type Oracle interface {
	BestMove(ctx context.Context, fen string, moves []string, difficulty string) (string, error)
	Analyze(ctx context.Context, fen string, moves []string, multiPV, depth int) (chess.Analysis, error)
}

// ReportGenerator produces a coaching report for one completed turn. It is
// total; degradation happens inside. Implemented by coach.Coach.
type ReportGenerator interface {
	GenerateReport(ctx context.Context, req coach.Request) coach.Report
}

// Clocks is remaining time per side, bookkeeping only, never enforced.
type Clocks struct {
	WhiteMs int
	BlackMs int
}

// Captured lists captured piece letters per capturing side, in capture order.
type Captured struct {
	White []string
	Black []string
}

// Signals is a read-only copy of the mental-state telemetry.
type Signals struct {
	ThinkTimesMs      []int
	BlunderStreak     int
	UndoAttempts      int
	RapidAfterBlunder bool
	SelfReport        string
}

// State is a consistent point-in-time snapshot of the session.
type State struct {
	GameID     string
	FEN        string
	SideToMove string
	HumanSide  string
	Difficulty string
	Verbosity  int
	MoveList   []string
	Captured   Captured
	Clocks     Clocks
	Signals    Signals
	GameOver   bool
	Result     string
}

// MoveResult is everything a completed SubmitMove produced.
type MoveResult struct {
	State   State
	Report  coach.Report
	BotMove string
}

// Update is the payload fanned out to passive observers after each completed
// move.
type Update struct {
	State  State
	Report *coach.Report
}

// Session owns the authoritative position, move history and signal state of
// the single in-process coaching game. Every transition runs under one mutex
// spanning accept move, opponent reply, report generation and report caching,
// so readers never observe a half-applied turn.
type Session struct {
	engine Oracle
	coach  ReportGenerator
	logger *zap.Logger

	mu           sync.Mutex
	phase        Phase
	gameID       string
	game         *nchess.Game
	humanSide    nchess.Color
	difficulty   string
	verbosity    int
	moveList     []string
	whiteMs      int
	blackMs      int
	thinkTimesMs []int
	streak       int
	undoAttempts int
	rapid        bool
	selfReport   string
	lastReport   *coach.Report

	observers    map[int]chan Update
	nextObserver int
}

func NewSession(engine Oracle, reporter ReportGenerator, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		engine:    engine,
		coach:     reporter,
		logger:    logger,
		phase:     PhaseIdle,
		observers: make(map[int]chan Update),
	}
}

// NewGame resets the session. When the human takes black the opponent's first
// move is played before the snapshot is returned. Nothing mutates on failure.
func (s *Session) NewGame(ctx context.Context, side, difficulty string, verbosity int) (State, error) {
	side = strings.ToLower(strings.TrimSpace(side))
	if side != "white" && side != "black" {
		return State{}, fmt.Errorf("%w: side must be white or black", ErrValidation)
	}
	difficulty = strings.ToLower(strings.TrimSpace(difficulty))
	if _, err := chess.GetPreset(difficulty); err != nil {
		return State{}, fmt.Errorf("%w: bot_difficulty must be one of %s", ErrValidation, strings.Join(chess.PresetNames(), "|"))
	}
	if verbosity < 1 || verbosity > 3 {
		return State{}, fmt.Errorf("%w: coach_verbosity must be 1..3", ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	game := nchess.NewGame()
	var moveList []string
	if side == "black" {
		if s.engine == nil {
			return State{}, ErrEngineUnavailable
		}
		reply, err := s.engine.BestMove(ctx, "", nil, difficulty)
		if err != nil {
			return State{}, fmt.Errorf("opening reply: %w", err)
		}
		if err := applyUCI(game, reply); err != nil {
			return State{}, fmt.Errorf("opening reply %s: %w", reply, err)
		}
		moveList = append(moveList, reply)
	}

	s.phase = PhaseAwaitingHuman
	s.gameID = uuid.NewString()
	s.game = game
	s.humanSide = colorOf(side)
	s.difficulty = difficulty
	s.verbosity = verbosity
	s.moveList = moveList
	s.whiteMs = initialClockMs
	s.blackMs = initialClockMs
	s.thinkTimesMs = nil
	s.streak = 0
	s.undoAttempts = 0
	s.rapid = false
	s.selfReport = ""
	s.lastReport = nil

	s.logger.Info("new game",
		zap.String("game_id", s.gameID),
		zap.String("human_side", side),
		zap.String("difficulty", difficulty),
		zap.Int("verbosity", verbosity),
	)
	return s.snapshotLocked(), nil
}

// SubmitMove plays one human move and resolves the full turn: opponent reply,
// move classification, signal update and coaching report. The turn commits
// atomically; any failure before commit leaves the session untouched.
func (s *Session) SubmitMove(ctx context.Context, uciMove string, thinkTimeMs *int, selfReport string) (MoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.phase {
	case PhaseAwaitingHuman:
	case PhaseIdle:
		return MoveResult{}, ErrNoActiveGame
	case PhaseGameOver:
		return MoveResult{}, ErrGameOver
	default:
		return MoveResult{}, ErrNoActiveGame
	}
	if s.engine == nil {
		return MoveResult{}, ErrEngineUnavailable
	}
	if thinkTimeMs != nil && *thinkTimeMs < 0 {
		return MoveResult{}, fmt.Errorf("%w: think_time_ms must be non-negative", ErrValidation)
	}
	selfReport = strings.ToLower(strings.TrimSpace(selfReport))
	if selfReport != "" && !validSelfReport(selfReport) {
		return MoveResult{}, fmt.Errorf("%w: self_report must be one of calm|tilted|tired|focused", ErrValidation)
	}

	uci := strings.ToLower(strings.TrimSpace(uciMove))
	clone := s.game.Clone()
	if err := applyUCI(clone, uci); err != nil {
		return MoveResult{}, fmt.Errorf("%w: %q", ErrIllegalMove, uciMove)
	}

	s.phase = PhaseResolving
	defer func() {
		if s.phase == PhaseResolving {
			s.phase = PhaseAwaitingHuman
		}
	}()

	movesBefore := append([]string(nil), s.moveList...)
	movesAfterHuman := append(append([]string(nil), movesBefore...), uci)

	// Both evals converted to the human's point of view: before the move the
	// human is the side to move, after it the opponent is.
	evalBefore := s.probeEvalCP(ctx, movesBefore)
	evalAfter := negateCP(s.probeEvalCP(ctx, movesAfterHuman))

	lastBad := s.streak > 0

	movesAll := movesAfterHuman
	botMove := ""
	if clone.Outcome() == nchess.NoOutcome {
		reply, err := s.engine.BestMove(ctx, "", movesAfterHuman, s.difficulty)
		if err != nil {
			return MoveResult{}, fmt.Errorf("opponent reply: %w", err)
		}
		if err := applyUCI(clone, reply); err != nil {
			return MoveResult{}, fmt.Errorf("opponent reply %s: %w", reply, err)
		}
		botMove = reply
		movesAll = append(append([]string(nil), movesAfterHuman...), reply)
	}

	quality := analysis.Classify(evalBefore, evalAfter)
	upd := analysis.UpdateSignals(&quality.Label, thinkTimeMs, lastBad, s.streak)

	var finalAnalysis chess.Analysis
	if a, err := s.engine.Analyze(ctx, "", movesAll, reportMultiPV, 0); err == nil {
		finalAnalysis = a
	} else {
		s.logger.Debug("position analysis unavailable", zap.Error(err))
	}

	pendingThinkTimes := s.thinkTimesMs
	if thinkTimeMs != nil {
		pendingThinkTimes = append(append([]int(nil), s.thinkTimesMs...), *thinkTimeMs)
	}
	pendingSelfReport := s.selfReport
	if selfReport != "" {
		pendingSelfReport = selfReport
	}

	req := coach.Request{
		Snapshot: coach.Snapshot{
			FEN:        clone.FEN(),
			SideToMove: colorName(clone.Position().Turn()),
			MoveList:   movesAll,
			HumanSide:  colorName(s.humanSide),
			Difficulty: s.difficulty,
			Verbosity:  s.verbosity,
			Signals: coach.SignalState{
				ThinkTimesMs:      pendingThinkTimes,
				BlunderStreak:     upd.BlunderStreak,
				UndoAttempts:      s.undoAttempts,
				RapidAfterBlunder: upd.RapidAfterBlunder,
				SelfReport:        pendingSelfReport,
			},
		},
		LastHumanMove: uci,
		OpponentReply: botMove,
		EvalBeforeCP:  evalBefore,
		EvalAfterCP:   evalAfter,
		Quality:       quality,
		Analysis:      finalAnalysis,
	}
	report := s.coach.GenerateReport(ctx, req)

	// Commit.
	s.game = clone
	s.moveList = movesAll
	s.thinkTimesMs = pendingThinkTimes
	s.selfReport = pendingSelfReport
	s.streak = upd.BlunderStreak
	s.rapid = upd.RapidAfterBlunder
	s.lastReport = &report
	if thinkTimeMs != nil {
		s.debitClockLocked(s.humanSide, *thinkTimeMs)
	}
	if clone.Outcome() != nchess.NoOutcome {
		s.phase = PhaseGameOver
	} else {
		s.phase = PhaseAwaitingHuman
	}

	state := s.snapshotLocked()
	s.notifyLocked(state, &report)
	s.logger.Info("move resolved",
		zap.String("game_id", s.gameID),
		zap.String("move", uci),
		zap.String("bot_move", botMove),
		zap.String("quality", string(quality.Label)),
		zap.Int("blunder_streak", s.streak),
		zap.Bool("game_over", state.GameOver),
	)
	return MoveResult{State: state, Report: report, BotMove: botMove}, nil
}

// Undo removes exactly one ply and increments the undo counter. The cached
// report and the signal streak are deliberately left intact. No-op when the
// history is empty.
func (s *Session) Undo() (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.phase {
	case PhaseAwaitingHuman:
	case PhaseIdle:
		return State{}, ErrNoActiveGame
	case PhaseGameOver:
		return State{}, ErrGameOver
	default:
		return State{}, ErrNoActiveGame
	}
	if len(s.moveList) == 0 {
		return s.snapshotLocked(), nil
	}

	trimmed := append([]string(nil), s.moveList[:len(s.moveList)-1]...)
	game, err := replayMoves(trimmed)
	if err != nil {
		return State{}, fmt.Errorf("rewind history: %w", err)
	}
	s.game = game
	s.moveList = trimmed
	s.undoAttempts++

	s.logger.Info("ply undone",
		zap.String("game_id", s.gameID),
		zap.Int("undo_attempts", s.undoAttempts),
		zap.Int("plies", len(s.moveList)),
	)
	return s.snapshotLocked(), nil
}

// GetState returns a consistent snapshot and the last cached report, nil if no
// report has been produced yet.
func (s *Session) GetState() (State, *coach.Report) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(), s.lastReport
}

// FEN returns the current position, or the empty string before the first game.
func (s *Session) FEN() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.game == nil {
		return ""
	}
	return s.game.FEN()
}

// Board returns the current board for rendering, nil before the first game.
func (s *Session) Board() *nchess.Board {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.game == nil {
		return nil
	}
	return s.game.Position().Board()
}

// LastMove returns the most recent ply in UCI form, empty when none.
func (s *Session) LastMove() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.moveList) == 0 {
		return ""
	}
	return s.moveList[len(s.moveList)-1]
}

// Subscribe registers a passive observer. Delivery is best-effort: a slow
// observer has updates dropped rather than stalling the mutating path. The
// returned func unsubscribes and closes the channel; it is idempotent.
func (s *Session) Subscribe() (<-chan Update, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextObserver
	s.nextObserver++
	ch := make(chan Update, observerBuffer)
	s.observers[id] = ch

	unsubscribe := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.observers[id]; ok {
			delete(s.observers, id)
			close(ch)
		}
	}
	return ch, unsubscribe
}

func (s *Session) notifyLocked(state State, report *coach.Report) {
	for id, ch := range s.observers {
		select {
		case ch <- Update{State: state, Report: report}:
		default:
			s.logger.Debug("observer lagging, update dropped", zap.Int("observer", id))
		}
	}
}

func (s *Session) snapshotLocked() State {
	st := State{
		GameID:     s.gameID,
		HumanSide:  colorName(s.humanSide),
		Difficulty: s.difficulty,
		Verbosity:  s.verbosity,
		MoveList:   append([]string(nil), s.moveList...),
		Clocks:     Clocks{WhiteMs: s.whiteMs, BlackMs: s.blackMs},
		Signals: Signals{
			ThinkTimesMs:      append([]int(nil), s.thinkTimesMs...),
			BlunderStreak:     s.streak,
			UndoAttempts:      s.undoAttempts,
			RapidAfterBlunder: s.rapid,
			SelfReport:        s.selfReport,
		},
	}
	if s.game == nil {
		return st
	}
	st.FEN = s.game.FEN()
	st.SideToMove = colorName(s.game.Position().Turn())
	st.Captured = capturedFromGame(s.game)
	if outcome := s.game.Outcome(); outcome != nchess.NoOutcome {
		st.GameOver = true
		st.Result = string(outcome)
	}
	return st
}

// probeEvalCP evaluates the position reached by moves, centipawns from the
// side to move's point of view. nil when analysis fails or the score is mate.
func (s *Session) probeEvalCP(ctx context.Context, moves []string) *int {
	a, err := s.engine.Analyze(ctx, "", moves, 1, 0)
	if err != nil {
		s.logger.Debug("eval probe failed", zap.Error(err))
		return nil
	}
	return a.Primary().EvalCP
}

// negateCP flips the point of view of a centipawn score.
func negateCP(p *int) *int {
	if p == nil {
		return nil
	}
	v := -*p
	return &v
}

func (s *Session) debitClockLocked(side nchess.Color, ms int) {
	switch side {
	case nchess.White:
		s.whiteMs -= ms
		if s.whiteMs < 0 {
			s.whiteMs = 0
		}
	case nchess.Black:
		s.blackMs -= ms
		if s.blackMs < 0 {
			s.blackMs = 0
		}
	}
}

func applyUCI(game *nchess.Game, uciMove string) error {
	pos := game.Position()
	if pos == nil {
		return errors.New("no position")
	}
	mv, err := nchess.UCINotation{}.Decode(pos, strings.ToLower(strings.TrimSpace(uciMove)))
	if err != nil {
		return err
	}
	return game.Move(mv, nil)
}

func replayMoves(moves []string) (*nchess.Game, error) {
	game := nchess.NewGame()
	for _, mv := range moves {
		if err := applyUCI(game, mv); err != nil {
			return nil, fmt.Errorf("replay move %s: %w", mv, err)
		}
	}
	return game, nil
}

var pieceLetters = map[nchess.PieceType]string{
	nchess.Pawn:   "p",
	nchess.Knight: "n",
	nchess.Bishop: "b",
	nchess.Rook:   "r",
	nchess.Queen:  "q",
}

// capturedFromGame walks the move history and collects captured piece letters
// per capturing side, in capture order. En passant captures read the pawn
// square behind the destination.
func capturedFromGame(game *nchess.Game) Captured {
	captured := Captured{White: []string{}, Black: []string{}}
	moves := game.Moves()
	positions := game.Positions()
	for i, mv := range moves {
		if i >= len(positions) {
			break
		}
		if !mv.HasTag(nchess.Capture) && !mv.HasTag(nchess.EnPassant) {
			continue
		}
		pos := positions[i]
		square := mv.S2()
		if mv.HasTag(nchess.EnPassant) {
			file := square.File()
			rank := square.Rank()
			if pos.Turn() == nchess.White {
				square = nchess.NewSquare(file, rank-1)
			} else {
				square = nchess.NewSquare(file, rank+1)
			}
		}
		piece := pos.Board().Piece(square)
		if piece == nchess.NoPiece {
			continue
		}
		letter, ok := pieceLetters[piece.Type()]
		if !ok {
			continue
		}
		if pos.Turn() == nchess.White {
			captured.White = append(captured.White, letter)
		} else {
			captured.Black = append(captured.Black, letter)
		}
	}
	return captured
}

func colorOf(side string) nchess.Color {
	if side == "black" {
		return nchess.Black
	}
	return nchess.White
}

func colorName(c nchess.Color) string {
	if c == nchess.Black {
		return "black"
	}
	return "white"
}

func validSelfReport(token string) bool {
	switch token {
	case "calm", "tilted", "tired", "focused":
		return true
	}
	return false
}
