package game

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/tatami-games/goban-server/pkg/board"
	"github.com/tatami-games/goban-server/pkg/engine"
	"github.com/tatami-games/goban-server/pkg/events"
	"github.com/tatami-games/goban-server/pkg/messages"
)

// ProcessEngineMove relays the human's last move to the engine, asks it
// for a reply, and commits that reply. The engine's reported thinking
// time is charged to its clock exactly as a human's measured elapsed
// time would be.
func (s *Session) ProcessEngineMove(ctx context.Context) error {
	s.mu.Lock()
	if s.eng == nil {
		s.mu.Unlock()
		return fmt.Errorf("game %s has no engine", s.ID)
	}
	if s.status != StatusPlaying || s.turn != s.engColor {
		s.mu.Unlock()
		return ErrWrongTurn
	}
	last := s.lastMove
	size := s.BoardSize
	s.mu.Unlock()

	// Engine I/O happens outside the session lock.
	if last != nil {
		if err := s.eng.Play(ctx, string(last.Color), vertexOf(*last, size)); err != nil {
			return fmt.Errorf("relaying move to engine: %w", err)
		}
	}

	vertex, thought, err := s.eng.GenMove(ctx, string(s.engColor))
	if err != nil {
		return fmt.Errorf("genmove: %w", err)
	}

	mv := board.Move{Color: s.engColor}
	switch strings.ToUpper(vertex) {
	case "RESIGN":
		return s.Resign(s.engColor)
	case "PASS":
		mv.Pass = true
	default:
		mv.X, mv.Y, err = engine.ParseVertex(vertex, size)
		if err != nil {
			return fmt.Errorf("engine returned %q: %w", vertex, err)
		}
	}

	s.mu.Lock()
	err = s.processLocked(mv, thought)
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("engine move rejected: %w", err)
	}

	s.logger.Info("engine move processed",
		zap.String("game_id", s.ID.String()),
		zap.String("vertex", vertex),
		zap.Int64("thinking_s", thought))

	s.publisher.Publish(events.Event{
		Type:   events.EventEngineMoved,
		GameID: s.ID.String(),
		Payload: messages.EngineMovePayload{
			GameID:          s.ID.String(),
			Move:            mv,
			Vertex:          vertex,
			ThinkingSeconds: thought,
		},
	})

	return nil
}

func vertexOf(mv board.Move, size int) string {
	if mv.Pass {
		return "pass"
	}
	return engine.FormatVertex(mv.X, mv.Y, size)
}
