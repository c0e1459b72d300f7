// Package game owns one game's authoritative state: the board, both
// player clocks and the turn. A session is the single point of mutation;
// every event source (move submission, the broadcast ticker, resignation)
// serializes through its mutex.
package game

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/tatami-games/goban-server/pkg/board"
	"github.com/tatami-games/goban-server/pkg/clock"
	"github.com/tatami-games/goban-server/pkg/engine"
	"github.com/tatami-games/goban-server/pkg/events"
	"github.com/tatami-games/goban-server/pkg/messages"
)

// Status is the lifecycle state of a session.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

// Rejection reasons beyond the board rules.
var (
	ErrNotPlaying = errors.New("game is not in progress")
	ErrWrongTurn  = errors.New("not this player's turn")
)

// CreateParams configures a new session.
type CreateParams struct {
	GameID    uuid.UUID
	BoardSize int
	Komi      float64
	Handicap  int
	Settings  clock.Settings

	// Engine plays EngineColor when set; nil means two humans.
	Engine      *engine.GTPEngine
	EngineColor board.Color
}

// Session aggregates one game's board, clocks and turn state.
type Session struct {
	ID uuid.UUID

	BoardSize int
	Komi      float64
	Handicap  int

	settings clock.Settings

	mu       sync.Mutex
	cur      *board.Board
	prev     *board.Board // position before the last accepted move, for ko
	history  []board.Move
	lastMove *board.Move
	captures map[board.Color]int

	clocks        map[board.Color]clock.PlayerClock
	turn          board.Color
	turnStartedAt time.Time

	status Status
	winner board.Color
	result string

	eng      *engine.GTPEngine
	engColor board.Color

	clk          clockwork.Clock
	tickInterval time.Duration
	done         chan struct{}
	closeOnce    sync.Once

	publisher *events.Publisher
	logger    *zap.Logger
}

// NewSession builds a session in the waiting state. Call Start to set
// the first turn clock running.
func NewSession(
	params CreateParams,
	publisher *events.Publisher,
	logger *zap.Logger,
	clk clockwork.Clock,
) (*Session, error) {
	if err := params.Settings.Validate(); err != nil {
		return nil, err
	}
	if params.BoardSize < 2 {
		return nil, fmt.Errorf("board size %d too small", params.BoardSize)
	}

	b := board.New(params.BoardSize)
	turn := board.Black
	if params.Handicap > 1 {
		stones, err := board.HandicapStones(params.BoardSize, params.Handicap)
		if err != nil {
			return nil, err
		}
		b.Seed(stones)
		// With handicap stones down, white moves first.
		turn = board.White
	}

	s := &Session{
		ID:        params.GameID,
		BoardSize: params.BoardSize,
		Komi:      params.Komi,
		Handicap:  params.Handicap,
		settings:  params.Settings,

		cur:      b,
		captures: map[board.Color]int{board.Black: 0, board.White: 0},
		clocks: map[board.Color]clock.PlayerClock{
			board.Black: clock.NewPlayerClock(params.Settings),
			board.White: clock.NewPlayerClock(params.Settings),
		},
		turn:   turn,
		status: StatusWaiting,

		eng:      params.Engine,
		engColor: params.EngineColor,

		clk:          clk,
		tickInterval: 200 * time.Millisecond,
		done:         make(chan struct{}),

		publisher: publisher,
		logger:    logger,
	}

	return s, nil
}

// Start moves the session into play, anchors the first turn clock and
// launches the broadcast ticker.
func (s *Session) Start() {
	s.mu.Lock()
	if s.status != StatusWaiting {
		s.mu.Unlock()
		return
	}
	s.status = StatusPlaying
	s.turnStartedAt = s.clk.Now()
	s.mu.Unlock()

	go s.runTicker()

	s.logger.Info("game started",
		zap.String("game_id", s.ID.String()),
		zap.Int("board_size", s.BoardSize),
		zap.Int("handicap", s.Handicap))
}

// ProcessMove validates and commits a stone placement for the player
// whose turn it is, deducting the wall-clock thinking time.
func (s *Session) ProcessMove(mv board.Move) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.processLocked(mv, s.elapsedLocked())
}

// ProcessPass commits a pass for the given color.
func (s *Session) ProcessPass(c board.Color) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.processLocked(board.Move{Color: c, Pass: true}, s.elapsedLocked())
}

// elapsedLocked computes whole seconds of thinking time since the turn
// started.
func (s *Session) elapsedLocked() int64 {
	return int64(s.clk.Now().Sub(s.turnStartedAt).Seconds())
}

// processLocked is the single mutation path for accepted moves. elapsed
// is the thinking time to charge: measured wall clock for humans, the
// engine's reported thinking time for engine moves.
func (s *Session) processLocked(mv board.Move, elapsed int64) error {
	if s.status != StatusPlaying {
		return ErrNotPlaying
	}
	// Stale or duplicate submissions fail the turn check and leave all
	// state untouched.
	if mv.Color != s.turn {
		return ErrWrongTurn
	}

	next, captured, err := s.cur.Apply(mv, s.prev)
	if err != nil {
		return err
	}

	out := clock.Apply(s.settings, s.clocks[mv.Color], elapsed)
	s.applyOutcomeLocked(mv.Color, out)
	if out.TimedOut {
		// The move arrived past the player's entire budget: the game
		// ended on time before the stone could count.
		return nil
	}

	s.prev = s.cur
	s.cur = next
	s.history = append(s.history, mv)
	s.lastMove = &mv
	s.captures[mv.Color] += captured
	s.turn = mv.Color.Opp()

	s.logger.Info("processed move",
		zap.String("game_id", s.ID.String()),
		zap.String("color", string(mv.Color)),
		zap.Bool("pass", mv.Pass),
		zap.Int("captured", captured),
		zap.Int64("elapsed_s", elapsed))

	s.publisher.Publish(events.Event{
		Type:    events.EventMoveProcessed,
		GameID:  s.ID.String(),
		Payload: s.statePayloadLocked(),
	})

	return nil
}

// applyOutcomeLocked is the one call site acting on a clock transition:
// it stores the new clock, performs the single turn-start reset the
// outcome demands, and declares the timeout when the budget ran out.
func (s *Session) applyOutcomeLocked(c board.Color, out clock.Outcome) {
	s.clocks[c] = out.Clock
	if out.TurnReset {
		s.turnStartedAt = s.clk.Now()
	}
	if out.TimedOut {
		s.finishLocked(c.Opp(), resultNotation(c.Opp(), "T"))
	}
}

// Resign ends the game in the opponent's favor. No clock interaction.
func (s *Session) Resign(c board.Color) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusPlaying {
		return ErrNotPlaying
	}
	s.finishLocked(c.Opp(), resultNotation(c.Opp(), "R"))
	return nil
}

// FinishByScore records the external scorer's verdict, e.g. ("b",
// "B+12.5") after dead-stone marking and counting.
func (s *Session) FinishByScore(winner board.Color, result string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusPlaying {
		return ErrNotPlaying
	}
	s.finishLocked(winner, result)
	return nil
}

// finishLocked ends the game exactly once. Duplicate callers (a late
// move racing the idle tick, a second timeout path) find the session
// already finished and fire nothing.
func (s *Session) finishLocked(winner board.Color, result string) {
	if s.status == StatusFinished {
		return
	}
	s.status = StatusFinished
	s.winner = winner
	s.result = result
	s.closeOnce.Do(func() { close(s.done) })

	s.logger.Info("game over",
		zap.String("game_id", s.ID.String()),
		zap.String("result", result))

	s.publisher.Publish(events.Event{
		Type:   events.EventGameOver,
		GameID: s.ID.String(),
		Payload: messages.GameOverPayload{
			GameID: s.ID.String(),
			Winner: winner,
			Result: result,
		},
	})
	s.publisher.Publish(events.Event{
		Type:    events.EventMoveProcessed,
		GameID:  s.ID.String(),
		Payload: s.statePayloadLocked(),
	})
}

// Terminate tears the session down without declaring a result, used
// when the owning connection goes away with the game unfinished.
func (s *Session) Terminate() {
	s.mu.Lock()
	if s.status != StatusFinished {
		s.status = StatusFinished
	}
	s.mu.Unlock()
	s.closeOnce.Do(func() { close(s.done) })
}

// Status returns the current lifecycle state.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Result returns the winner and result notation of a finished game.
func (s *Session) Result() (board.Color, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.winner, s.result
}

// Turn returns whose move it is.
func (s *Session) Turn() board.Color {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.turn
}

// History returns a copy of the accepted move list.
func (s *Session) History() []board.Move {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]board.Move, len(s.history))
	copy(out, s.history)
	return out
}

// EngineTurn reports whether the engine owes the next move.
func (s *Session) EngineTurn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eng != nil && s.status == StatusPlaying && s.turn == s.engColor
}

// StatePayload returns the full current game state, for late joiners
// and external read-only collaborators.
func (s *Session) StatePayload() messages.GameStatePayload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statePayloadLocked()
}

// statePayloadLocked assembles the full broadcastable game state.
func (s *Session) statePayloadLocked() messages.GameStatePayload {
	now := s.clk.Now()
	return messages.GameStatePayload{
		GameID:      s.ID.String(),
		Board:       s.cur.Grid(),
		MoveNumber:  s.cur.MoveNumber,
		CurrentTurn: s.turn,
		LastMove:    s.lastMove,
		Captures:    map[board.Color]int{board.Black: s.captures[board.Black], board.White: s.captures[board.White]},
		Status:      string(s.status),
		Result:      s.result,
		Black:       s.displayLocked(board.Black, now),
		White:       s.displayLocked(board.White, now),
		ServerTime:  now.UnixMilli(),
	}
}

// displayLocked projects one player's display clock. Only the player to
// move has time elapsing.
func (s *Session) displayLocked(c board.Color, now time.Time) clock.Snapshot {
	var elapsed int64
	if s.status == StatusPlaying && c == s.turn {
		elapsed = int64(now.Sub(s.turnStartedAt).Seconds())
	}
	return clock.Project(s.settings, s.clocks[c], elapsed)
}

func resultNotation(winner board.Color, kind string) string {
	return fmt.Sprintf("%s+%s", strings.ToUpper(string(winner)), kind)
}
