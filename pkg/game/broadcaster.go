package game

import (
	"go.uber.org/zap"

	"github.com/tatami-games/goban-server/pkg/board"
	"github.com/tatami-games/goban-server/pkg/clock"
	"github.com/tatami-games/goban-server/pkg/events"
	"github.com/tatami-games/goban-server/pkg/messages"
)

// runTicker is the clock broadcaster: on a sub-second interval it
// publishes both players' display clocks with a server timestamp, and
// detects the idle player running out of time.
func (s *Session) runTicker() {
	ticker := s.clk.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.Chan():
			s.tickOnce()
		}
	}
}

// tickOnce publishes one clock update. The display values come from the
// read-only projection; authoritative state is touched only when the
// projection shows the active player has idled across a transition
// boundary, and then only through the same transition logic a move
// would run, with the same single turn-start reset.
func (s *Session) tickOnce() {
	s.mu.Lock()

	if s.status != StatusPlaying {
		s.mu.Unlock()
		return
	}

	now := s.clk.Now()
	elapsed := s.elapsedLocked()
	active := s.turn

	if clock.Project(s.settings, s.clocks[active], elapsed).NeedsTransition {
		out := clock.Apply(s.settings, s.clocks[active], elapsed)
		s.applyOutcomeLocked(active, out)

		if !out.TimedOut {
			s.logger.Debug("idle clock transition",
				zap.String("game_id", s.ID.String()),
				zap.String("color", string(active)),
				zap.Int64("elapsed_s", elapsed))
		}
	}

	payload := messages.ClockUpdatePayload{
		GameID:      s.ID.String(),
		Black:       s.displayLocked(board.Black, now),
		White:       s.displayLocked(board.White, now),
		CurrentTurn: s.turn,
		ServerTime:  now.UnixMilli(),
	}
	s.mu.Unlock()

	s.publisher.Publish(events.Event{
		Type:    events.EventClockUpdated,
		GameID:  s.ID.String(),
		Payload: payload,
	})
}
