package rest

import "github.com/rocketscienceinc/marble-solitaire/internal/entity"

// NewGameRequest - zero arm_size uses the server default; empty_row and
// empty_col must be given together or not at all.
type NewGameRequest struct {
	ArmSize  int  `json:"arm_size"`
	EmptyRow *int `json:"empty_row,omitempty"`
	EmptyCol *int `json:"empty_col,omitempty"`
}

type MoveRequest struct {
	FromRow int `json:"from_row"`
	FromCol int `json:"from_col"`
	ToRow   int `json:"to_row"`
	ToCol   int `json:"to_col"`
}

type ClickRequest struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

type GameResponse struct {
	Game     *entity.Game `json:"game"`
	GameOver bool         `json:"game_over"`
	Outcome  string       `json:"outcome,omitempty"`
	Reason   string       `json:"reason,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
