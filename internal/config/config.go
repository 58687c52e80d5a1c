package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
)

type AppConfig struct {
	ListenAddr   string
	WSListenAddr string

	StockfishPath string

	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string

	AgentTimeoutMs int

	DefaultDifficulty string
	DefaultVerbosity  int

	MsgcatDir string
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		ListenAddr:        ":8000",
		WSListenAddr:      ":8001",
		OpenAIModel:       "gpt-4o-mini",
		AgentTimeoutMs:    30000,
		DefaultDifficulty: "medium",
		DefaultVerbosity:  2,
	}

	if v := strings.TrimSpace(os.Getenv("LISTEN_ADDR")); v != "" {
		cfg.ListenAddr = v
	}
	if v := strings.TrimSpace(os.Getenv("WS_LISTEN_ADDR")); v != "" {
		cfg.WSListenAddr = v
	}

	cfg.StockfishPath = strings.TrimSpace(os.Getenv("STOCKFISH_PATH"))

	// Missing key is allowed: the coach then serves degraded reports only.
	cfg.OpenAIAPIKey = strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	if v := strings.TrimSpace(os.Getenv("OPENAI_MODEL")); v != "" {
		cfg.OpenAIModel = v
	}
	cfg.OpenAIBaseURL = strings.TrimSpace(os.Getenv("OPENAI_BASE_URL"))

	if v := strings.TrimSpace(os.Getenv("AGENT_TIMEOUT_MS")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, errors.New("AGENT_TIMEOUT_MS must be a non-negative integer")
		}
		cfg.AgentTimeoutMs = n
	}

	if v := strings.TrimSpace(os.Getenv("COACH_DEFAULT_DIFFICULTY")); v != "" {
		cfg.DefaultDifficulty = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv("COACH_DEFAULT_VERBOSITY")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 3 {
			return nil, errors.New("COACH_DEFAULT_VERBOSITY must be 1..3")
		}
		cfg.DefaultVerbosity = n
	}

	cfg.MsgcatDir = strings.TrimSpace(os.Getenv("MSGCAT_DIR"))

	if cfg.StockfishPath == "" {
		return nil, errors.New("STOCKFISH_PATH is required")
	}

	return cfg, nil
}
