package main

import (
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appcfg "github.com/kapu/chess-coach-go/internal/config"
	"github.com/kapu/chess-coach-go/internal/chess"
	"github.com/kapu/chess-coach-go/internal/coach"
	"github.com/kapu/chess-coach-go/internal/msgcat"
	"github.com/kapu/chess-coach-go/internal/obslog"
	"github.com/kapu/chess-coach-go/internal/render"
	"github.com/kapu/chess-coach-go/internal/server"
	"github.com/kapu/chess-coach-go/internal/session"
	"github.com/kapu/chess-coach-go/internal/ws"
	"go.uber.org/zap"
)

func main() {
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	logger := obslog.L()

	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	engine, err := chess.NewEngine(cfg.StockfishPath)
	if err != nil {
		log.Fatalf("engine init error: %v", err)
	}

	var completer coach.Completer
	c, err := coach.NewOpenAICompleter(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL)
	switch {
	case err == nil:
		completer = c
	case errors.Is(err, coach.ErrAgentUnavailable):
		logger.Warn("reasoning agent not configured, reports will be degraded", zap.Error(err))
	default:
		log.Fatalf("agent init error: %v", err)
	}

	catalog, err := msgcat.New(cfg.MsgcatDir)
	if err != nil {
		log.Fatalf("message catalog error: %v", err)
	}

	coachSvc := coach.NewCoach(completer, catalog, time.Duration(cfg.AgentTimeoutMs)*time.Millisecond, logger)
	sess := session.NewSession(engine, coachSvc, logger)

	srv := server.New(sess, render.NewSVGBoardRenderer(), server.Config{
		DefaultDifficulty: cfg.DefaultDifficulty,
		DefaultVerbosity:  cfg.DefaultVerbosity,
	}, logger)
	go func() {
		if err := srv.ListenAndServe(cfg.ListenAddr); err != nil {
			log.Fatalf("rest listener error: %v", err)
		}
	}()

	mux := http.NewServeMux()
	mux.Handle("/ws/game", ws.NewHub(sess, logger))
	wsSrv := &http.Server{Addr: cfg.WSListenAddr, Handler: mux}
	go func() {
		logger.Info("ws listener starting", zap.String("addr", cfg.WSListenAddr))
		if err := wsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("ws listener error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down")
	_ = srv.Shutdown()
	_ = wsSrv.Close()
	_ = engine.Close()
}
