package coachdto

// ClockState is remaining time per side in milliseconds, bookkeeping only.
type ClockState struct {
	WhiteMs int `json:"white_ms"`
	BlackMs int `json:"black_ms"`
}

// SignalState is the mental-state telemetry accumulated over one game.
type SignalState struct {
	ThinkTimesMs      []int  `json:"think_times_ms"`
	BlunderStreak     int    `json:"blunder_streak"`
	UndoAttempts      int    `json:"undo_attempts"`
	RapidAfterBlunder bool   `json:"rapid_after_blunder"`
	SelfReport        string `json:"self_report,omitempty"`
}

// CapturedPieces lists captured piece letters per capturing side, in capture
// order.
type CapturedPieces struct {
	White []string `json:"white"`
	Black []string `json:"black"`
}

// GameState is the externally visible snapshot of the session.
type GameState struct {
	GameID     string         `json:"game_id"`
	FEN        string         `json:"fen"`
	SideToMove string         `json:"side_to_move"`
	HumanSide  string         `json:"human_side"`
	Difficulty string         `json:"bot_difficulty"`
	Verbosity  int            `json:"coach_verbosity"`
	MoveList   []string       `json:"move_list"`
	Captured   CapturedPieces `json:"captured_pieces"`
	Clocks     ClockState     `json:"clocks"`
	Signals    SignalState    `json:"signals"`
	GameOver   bool           `json:"game_over"`
	Result     string         `json:"result,omitempty"`
}
