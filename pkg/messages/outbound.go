package messages

import (
	"github.com/tatami-games/goban-server/pkg/board"
	"github.com/tatami-games/goban-server/pkg/clock"
)

// OutboundMessage is how we wrap responses before sending
// them to the client
type OutboundMessage struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
}

// Outbound event names.
const (
	EventConnected   = "CONNECTED"
	EventGameCreated = "GAME_CREATED"
	EventGameJoined  = "GAME_JOINED"
	EventGameState   = "GAME_STATE"
	EventClockUpdate = "CLOCK_UPDATE"
	EventEngineMove  = "ENGINE_MOVE"
	EventGameOver    = "GAME_OVER"
	EventError       = "ERROR"
)

type ConnectedPayload struct {
	ConnectionId string `json:"connection_id"`
}

// GameCreatedPayload represents the payload after a create game event
type GameCreatedPayload struct {
	GameID      string         `json:"game_id"`
	BoardSize   int            `json:"board_size"`
	Komi        float64        `json:"komi"`
	Handicap    int            `json:"handicap"`
	TimeControl clock.Settings `json:"time_control"`
	CurrentTurn board.Color    `json:"current_turn"`
}

// GameStatePayload represents the full game state pushed after every
// accepted move, pass or game-end event.
type GameStatePayload struct {
	GameID      string              `json:"game_id"`
	Board       [][]board.Color     `json:"board"`
	MoveNumber  int                 `json:"move_number"`
	CurrentTurn board.Color         `json:"current_turn"`
	LastMove    *board.Move         `json:"last_move,omitempty"`
	Captures    map[board.Color]int `json:"captures"`
	Status      string              `json:"status"`
	Result      string              `json:"result,omitempty"`
	Black       clock.Snapshot      `json:"black_clock"`
	White       clock.Snapshot      `json:"white_clock"`
	ServerTime  int64               `json:"server_time_ms"`
}

// ClockUpdatePayload is the periodic broadcast of both players' display
// clocks. ServerTime anchors client-side interpolation: viewers
// extrapolate from it instead of trusting their own wall clock.
type ClockUpdatePayload struct {
	GameID      string         `json:"game_id"`
	Black       clock.Snapshot `json:"black"`
	White       clock.Snapshot `json:"white"`
	CurrentTurn board.Color    `json:"current_turn"`
	ServerTime  int64          `json:"server_time_ms"`
}

// GameOverPayload announces a finished game with conventional Go result
// notation: B+T / W+T (timeout), B+R / W+R (resignation), B+n.5 (score).
type GameOverPayload struct {
	GameID string      `json:"game_id"`
	Winner board.Color `json:"winner"`
	Result string      `json:"result"`
}

// EngineMovePayload announces the engine's reply and the thinking time
// it was charged.
type EngineMovePayload struct {
	GameID          string     `json:"game_id"`
	Move            board.Move `json:"move"`
	Vertex          string     `json:"vertex"`
	ThinkingSeconds int64      `json:"thinking_seconds"`
}

// ErrorPayload carries a rejection reason back to the submitter.
type ErrorPayload struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}
