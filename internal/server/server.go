// Package server is the REST adapter over the session core, served with
// fasthttp. It does request validation and DTO conversion only; all game
// semantics live in internal/session.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kapu/chess-coach-go/internal/adapter/coachpresenter"
	"github.com/kapu/chess-coach-go/internal/render"
	"github.com/kapu/chess-coach-go/internal/session"
	"github.com/kapu/chess-coach-go/pkg/coachdto"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

type Config struct {
	DefaultDifficulty string
	DefaultVerbosity  int
}

type Server struct {
	session  *session.Session
	renderer render.BoardRenderer
	cfg      Config
	logger   *zap.Logger

	httpServer *fasthttp.Server
}

func New(s *session.Session, renderer render.BoardRenderer, cfg Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	srv := &Server{session: s, renderer: renderer, cfg: cfg, logger: logger}
	srv.httpServer = &fasthttp.Server{
		Handler:      srv.route,
		Name:         "chess-coach",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
	}
	return srv
}

// ListenAndServe blocks until Shutdown.
func (s *Server) ListenAndServe(addr string) error {
	s.logger.Info("rest listener starting", zap.String("addr", addr))
	return s.httpServer.ListenAndServe(addr)
}

func (s *Server) Shutdown() error {
	return s.httpServer.Shutdown()
}

func (s *Server) route(ctx *fasthttp.RequestCtx) {
	ctx.Response.Header.Set("Access-Control-Allow-Origin", "*")
	ctx.Response.Header.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	ctx.Response.Header.Set("Access-Control-Allow-Headers", "Content-Type")
	if string(ctx.Method()) == fasthttp.MethodOptions {
		ctx.SetStatusCode(fasthttp.StatusNoContent)
		return
	}

	path := string(ctx.Path())
	method := string(ctx.Method())

	switch {
	case path == "/api/new_game" && method == fasthttp.MethodPost:
		s.handleNewGame(ctx)
	case path == "/api/move" && method == fasthttp.MethodPost:
		s.handleMove(ctx)
	case path == "/api/undo" && method == fasthttp.MethodPost:
		s.handleUndo(ctx)
	case path == "/api/state" && method == fasthttp.MethodGet:
		s.handleState(ctx)
	case path == "/api/board.png" && method == fasthttp.MethodGet:
		s.handleBoardPNG(ctx)
	default:
		s.writeError(ctx, fasthttp.StatusNotFound, coachdto.DomainError{Code: "not_found", Message: "unknown route"})
	}
}

func (s *Server) handleNewGame(ctx *fasthttp.RequestCtx) {
	var req coachdto.NewGameRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil && len(ctx.PostBody()) > 0 {
		s.writeError(ctx, fasthttp.StatusBadRequest, coachdto.DomainError{Code: "bad_request", Message: "malformed JSON body"})
		return
	}
	if req.Side == "" {
		req.Side = "white"
	}
	if req.Difficulty == "" {
		req.Difficulty = s.cfg.DefaultDifficulty
	}
	if req.Verbosity == 0 {
		req.Verbosity = s.cfg.DefaultVerbosity
	}

	state, err := s.session.NewGame(ctx, req.Side, req.Difficulty, req.Verbosity)
	if err != nil {
		s.writeSessionError(ctx, err)
		return
	}
	s.writeJSON(ctx, fasthttp.StatusOK, coachpresenter.ToStateResponse(state, nil))
}

func (s *Server) handleMove(ctx *fasthttp.RequestCtx) {
	var req coachdto.MoveRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		s.writeError(ctx, fasthttp.StatusBadRequest, coachdto.DomainError{Code: "bad_request", Message: "malformed JSON body"})
		return
	}
	if req.UCIMove == "" {
		s.writeError(ctx, fasthttp.StatusBadRequest, coachdto.DomainError{Code: "validation_error", Message: "uci_move is required", Field: "uci_move"})
		return
	}

	res, err := s.session.SubmitMove(ctx, req.UCIMove, req.ThinkTimeMs, req.SelfReport)
	if err != nil {
		s.writeSessionError(ctx, err)
		return
	}
	s.writeJSON(ctx, fasthttp.StatusOK, coachpresenter.ToMoveResponse(res))
}

func (s *Server) handleUndo(ctx *fasthttp.RequestCtx) {
	state, err := s.session.Undo()
	if err != nil {
		s.writeSessionError(ctx, err)
		return
	}
	_, report := s.session.GetState()
	s.writeJSON(ctx, fasthttp.StatusOK, coachpresenter.ToStateResponse(state, report))
}

func (s *Server) handleState(ctx *fasthttp.RequestCtx) {
	state, report := s.session.GetState()
	s.writeJSON(ctx, fasthttp.StatusOK, coachpresenter.ToStateResponse(state, report))
}

func (s *Server) handleBoardPNG(ctx *fasthttp.RequestCtx) {
	board := s.session.Board()
	if board == nil {
		s.writeError(ctx, fasthttp.StatusNotFound, coachdto.DomainError{Code: "no_active_game", Message: "no game in progress"})
		return
	}
	opts := render.RenderOptions{Highlight: render.HighlightFromUCI(s.session.LastMove())}
	data, err := s.renderer.RenderPNG(ctx, board, opts)
	if err != nil {
		s.logger.Error("board render failed", zap.Error(err))
		s.writeError(ctx, fasthttp.StatusInternalServerError, coachdto.DomainError{Code: "render_error", Message: "board rendering failed"})
		return
	}
	ctx.SetContentType("image/png")
	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetBody(data)
}

func (s *Server) writeSessionError(ctx *fasthttp.RequestCtx, err error) {
	var status int
	var code string
	switch {
	case errors.Is(err, session.ErrValidation):
		status, code = fasthttp.StatusBadRequest, "validation_error"
	case errors.Is(err, session.ErrIllegalMove):
		status, code = fasthttp.StatusBadRequest, "illegal_move"
	case errors.Is(err, session.ErrNoActiveGame):
		status, code = fasthttp.StatusConflict, "no_active_game"
	case errors.Is(err, session.ErrGameOver):
		status, code = fasthttp.StatusConflict, "game_over"
	case errors.Is(err, session.ErrEngineUnavailable):
		status, code = fasthttp.StatusServiceUnavailable, "engine_unavailable"
	default:
		status, code = fasthttp.StatusInternalServerError, "internal_error"
		s.logger.Error("request failed", zap.Error(err))
	}
	s.writeError(ctx, status, coachdto.DomainError{Code: code, Message: err.Error()})
}

func (s *Server) writeError(ctx *fasthttp.RequestCtx, status int, derr coachdto.DomainError) {
	s.writeJSON(ctx, status, derr)
}

func (s *Server) writeJSON(ctx *fasthttp.RequestCtx, status int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		ctx.SetBodyString(fmt.Sprintf(`{"code":"internal_error","error":%q}`, "response encoding failed"))
		ctx.SetContentType("application/json")
		return
	}
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	ctx.SetBody(body)
}
