package coachdto

// NewGameRequest starts a fresh coaching game.
type NewGameRequest struct {
	Side       string `json:"side"`
	Difficulty string `json:"bot_difficulty"`
	Verbosity  int    `json:"coach_verbosity"`
}

// MoveRequest submits one human move. ThinkTimeMs and SelfReport are
// optional client-side telemetry.
type MoveRequest struct {
	UCIMove     string `json:"uci_move"`
	ThinkTimeMs *int   `json:"think_time_ms,omitempty"`
	SelfReport  string `json:"self_report,omitempty"`
}

// StateResponse is the snapshot plus the last cached report, if any.
type StateResponse struct {
	State  GameState `json:"state"`
	Report *Report   `json:"report,omitempty"`
}

// MoveResponse is returned after a completed turn.
type MoveResponse struct {
	State   GameState `json:"state"`
	Report  *Report   `json:"report,omitempty"`
	BotMove string    `json:"bot_move,omitempty"`
}
