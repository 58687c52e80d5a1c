package chess

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kapu/chess-coach-go/internal/chess/uci"
	"github.com/kapu/chess-coach-go/internal/obslog"
	"go.uber.org/zap"
)

const (
	defaultAnalysisDepth = 12
	maxPVPlies           = 8
)

// Engine is the black-box analysis and opponent-move oracle backed by a pool
// of Stockfish processes. It never touches session state.
type Engine struct {
	pool *uci.Pool
}

func NewEngine(binaryPath string) (*Engine, error) {
	pool, err := uci.NewPool(uci.PoolConfig{BinaryPath: binaryPath})
	if err != nil {
		return nil, err
	}
	return &Engine{pool: pool}, nil
}

func (e *Engine) Close() error {
	if e == nil || e.pool == nil {
		return nil
	}
	return e.pool.Close()
}

// Line is one principal variation. EvalCP is nil for mate scores; EvalText is
// always renderable ("35 cp", "mate 2"). Scores are from the side to move's
// point of view, as the engine reports them.
type Line struct {
	EvalCP   *int
	EvalText string
	PV       []string
}

type Analysis struct {
	Lines []Line
}

// Primary returns the top line, or a zero Line when analysis produced none.
func (a Analysis) Primary() Line {
	if len(a.Lines) == 0 {
		return Line{EvalText: "unknown"}
	}
	return a.Lines[0]
}

// BestMove picks the opponent reply for the given position at the requested
// difficulty.
func (e *Engine) BestMove(ctx context.Context, fen string, moves []string, difficulty string) (string, error) {
	preset, err := GetPreset(difficulty)
	if err != nil {
		return "", err
	}

	start := time.Now()
	resp, err := e.search(ctx, preset.playOptions(), uci.Request{
		FEN:    fen,
		Moves:  moves,
		Limits: preset.playLimits(),
	})
	if err != nil {
		return "", err
	}

	move := strings.TrimSpace(resp.BestMove)
	if move == "" || move == "(none)" {
		return "", fmt.Errorf("engine returned no best move")
	}
	obslog.L().Debug("engine best move",
		zap.String("difficulty", preset.Name),
		zap.String("move", move),
		zap.Duration("took", time.Since(start)),
	)
	return move, nil
}

// Analyze evaluates the position with multiPV principal variations at the
// given depth (full strength, independent of opponent difficulty).
func (e *Engine) Analyze(ctx context.Context, fen string, moves []string, multiPV, depth int) (Analysis, error) {
	if depth <= 0 {
		depth = defaultAnalysisDepth
	}
	if multiPV <= 0 {
		multiPV = 1
	}

	resp, err := e.search(ctx, analysisOptions(multiPV), uci.Request{
		FEN:    fen,
		Moves:  moves,
		Limits: uci.Limits{Depth: depth},
	})
	if err != nil {
		return Analysis{}, err
	}

	lines := make([]Line, 0, len(resp.Candidates))
	for _, cand := range resp.Candidates {
		lines = append(lines, candidateToLine(cand))
	}
	if len(lines) == 0 && strings.TrimSpace(resp.BestMove) != "" {
		lines = append(lines, Line{EvalText: "unknown", PV: []string{resp.BestMove}})
	}
	return Analysis{Lines: lines}, nil
}

func (e *Engine) search(ctx context.Context, opt uci.Options, req uci.Request) (uci.Result, error) {
	client, err := e.pool.Acquire(ctx, opt)
	if err != nil {
		return uci.Result{}, err
	}
	var releaseErr error
	defer func() {
		e.pool.Release(client, releaseErr)
	}()

	if err := client.Reset(ctx); err != nil {
		releaseErr = err
		return uci.Result{}, err
	}

	res, err := client.Search(ctx, req)
	if err != nil {
		releaseErr = err
		return uci.Result{}, err
	}
	return res, nil
}

func candidateToLine(cand uci.Candidate) Line {
	pv := cand.Principal
	if len(pv) > maxPVPlies {
		pv = pv[:maxPVPlies]
	}
	line := Line{PV: append([]string(nil), pv...)}
	if cand.Mate {
		line.EvalText = fmt.Sprintf("mate %d", cand.MateIn)
		return line
	}
	cp := cand.EvalCP
	line.EvalCP = &cp
	line.EvalText = fmt.Sprintf("%d cp", cp)
	return line
}
