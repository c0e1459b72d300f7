package messages

import (
	"encoding/json"

	"github.com/tatami-games/goban-server/pkg/clock"
)

// InboundMessage is the generic wrapper for messages coming from the client.
// The "event" field tells us the action; "payload" is the data we parse further.
type InboundMessage struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// Inbound event names.
const (
	EventCreateGame = "CREATE_GAME"
	EventJoinGame   = "JOIN_GAME"
	EventMakeMove   = "MAKE_MOVE"
	EventPass       = "PASS"
	EventResign     = "RESIGN"
	EventMarkScore  = "MARK_SCORE"
)

// CreateGamePayload represents the payload for creating a new game
type CreateGamePayload struct {
	BoardSize   int            `json:"board_size"`
	Komi        float64        `json:"komi"`
	Handicap    int            `json:"handicap"`
	TimeControl clock.Settings `json:"time_control"`
	Color       string         `json:"color"`     // creator's color, "b" or "w"
	VsEngine    bool           `json:"vs_engine"` // opponent is the engine
}

// JoinGamePayload subscribes the connection to a game's broadcasts.
type JoinGamePayload struct {
	GameID string `json:"game_id"`
}

// MakeMovePayload represents the payload for making a move during a game
type MakeMovePayload struct {
	GameID string `json:"game_id"`
	Color  string `json:"color"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
}

// PassPayload represents a pass by one player.
type PassPayload struct {
	GameID string `json:"game_id"`
	Color  string `json:"color"`
}

// ResignPayload represents a resignation by one player.
type ResignPayload struct {
	GameID string `json:"game_id"`
	Color  string `json:"color"`
}

// MarkScorePayload carries the external scorer's verdict for a finished
// game: the winner plus conventional result notation such as "B+12.5".
type MarkScorePayload struct {
	GameID string `json:"game_id"`
	Winner string `json:"winner"`
	Result string `json:"result"`
}
