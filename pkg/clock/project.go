package clock

import "fmt"

// Snapshot is a display-only view of one player's clock between moves.
// It never feeds back into authoritative state.
type Snapshot struct {
	Mode Mode `json:"mode"`

	MainSeconds    int64 `json:"main_seconds"`
	PeriodsLeft    int   `json:"periods_left"`
	PeriodSeconds  int64 `json:"period_seconds"`
	PerMoveSeconds int64 `json:"per_move_seconds"`

	// NeedsTransition reports that the idle elapsed time alone has
	// crossed a transition boundary, so the stored clock is entitled to
	// the same Apply a late move would trigger.
	NeedsTransition bool `json:"-"`
}

// Project computes the display view of pc after elapsed idle seconds
// without mutating anything. The broadcaster publishes the result and,
// when NeedsTransition is set, routes the stored clock through Apply.
func Project(s Settings, pc PlayerClock, elapsed int64) Snapshot {
	if elapsed < 0 {
		elapsed = 0
	}

	snap := Snapshot{Mode: pc.Mode(s)}

	switch snap.Mode {
	case ModeUnlimited:
		// Sentinel: nothing counts down.

	case ModeBlitz:
		snap.PerMoveSeconds = max64(0, s.PerMoveSeconds-elapsed)
		snap.NeedsTransition = elapsed > s.PerMoveSeconds

	case ModeMain:
		snap.MainSeconds = max64(0, pc.MainSeconds-elapsed)
		snap.PeriodsLeft = s.Periods
		snap.PeriodSeconds = s.PeriodSeconds
		snap.NeedsTransition = elapsed >= pc.MainSeconds

	case ModeOvertime:
		if elapsed <= pc.PeriodSeconds {
			snap.PeriodsLeft = pc.PeriodsLeft
			snap.PeriodSeconds = pc.PeriodSeconds - elapsed
			return snap
		}
		// Past the current period: show the projected consumption
		// until the authoritative transition catches up.
		consumed := int(elapsed / s.PeriodSeconds)
		left := pc.PeriodsLeft - consumed
		if left > 0 {
			snap.PeriodsLeft = left
			snap.PeriodSeconds = s.PeriodSeconds - elapsed%s.PeriodSeconds
		}
		snap.NeedsTransition = true
	}

	return snap
}

// String renders a snapshot for logs.
func (s Snapshot) String() string {
	switch s.Mode {
	case ModeUnlimited:
		return "unlimited"
	case ModeBlitz:
		return fmt.Sprintf("blitz %ds", s.PerMoveSeconds)
	case ModeOvertime:
		return fmt.Sprintf("byo-yomi %d x %ds", s.PeriodsLeft, s.PeriodSeconds)
	default:
		return fmt.Sprintf("main %d:%02d", s.MainSeconds/60, s.MainSeconds%60)
	}
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
