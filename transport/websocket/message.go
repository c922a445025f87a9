package websocket

import (
	"encoding/json"

	"github.com/rocketscienceinc/marble-solitaire/internal/entity"
)

const (
	actionState = "game:state"
	actionClick = "game:click"
	actionMove  = "game:move"
	actionError = "error"
)

// Message is a client request: an action and its payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type ClickPayload struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

type MovePayload struct {
	FromRow int `json:"from_row"`
	FromCol int `json:"from_col"`
	ToRow   int `json:"to_row"`
	ToCol   int `json:"to_col"`
}

// Response is sent back to the caller, and broadcast to every watcher of the game on a state change.
type Response struct {
	Action  string           `json:"action"`
	Payload *ResponsePayload `json:"payload,omitempty"`
	Error   string           `json:"error,omitempty"`
}

type ResponsePayload struct {
	Game     *entity.Game `json:"game"`
	GameOver bool         `json:"game_over"`
	Outcome  string       `json:"outcome,omitempty"`
	Reason   string       `json:"reason,omitempty"`
}
