package clock

// Mode names which deduction regime currently governs a player's clock.
type Mode string

const (
	ModeUnlimited Mode = "unlimited"
	ModeMain      Mode = "main"
	ModeOvertime  Mode = "overtime"
	ModeBlitz     Mode = "blitz"
)

// PlayerClock is one player's authoritative time state. Values are whole
// seconds. Mutation happens only by replacing the value with the clock
// returned from Apply.
type PlayerClock struct {
	MainSeconds int64 `json:"main_seconds"`

	InOvertime    bool  `json:"in_overtime"`
	PeriodsLeft   int   `json:"periods_left"`
	PeriodSeconds int64 `json:"period_seconds"`

	PerMoveSeconds int64 `json:"per_move_seconds"`
}

// NewPlayerClock returns the starting clock for the given settings.
func NewPlayerClock(s Settings) PlayerClock {
	return PlayerClock{
		MainSeconds:    s.MainSeconds,
		PerMoveSeconds: s.PerMoveSeconds,
	}
}

// Mode returns the regime governing deductions for this clock.
func (pc PlayerClock) Mode(s Settings) Mode {
	switch {
	case s.Unlimited():
		return ModeUnlimited
	case s.Blitz():
		return ModeBlitz
	case pc.InOvertime:
		return ModeOvertime
	default:
		return ModeMain
	}
}

// Outcome is the result of applying elapsed thinking time to a clock.
type Outcome struct {
	// Clock is the post-move clock. On timeout it is the clamped
	// terminal state, never negative.
	Clock PlayerClock

	// TimedOut reports that the elapsed time exhausted the player's
	// entire remaining budget.
	TimedOut bool

	// TurnReset instructs the caller to reset the turn-start timestamp.
	// Exactly one call site may act on it; no other code path resets.
	TurnReset bool
}

// Apply consumes elapsed whole seconds of thinking time from pc and
// resolves every transition it crosses: main-time deduction,
// entry into overtime with overage netting, multi-period consumption,
// period reset on a qualifying move, blitz reset, and timeout.
//
// Boundary policy: using exactly the full period (or allotment) without
// going over is a free reset, never a consumption.
func Apply(s Settings, pc PlayerClock, elapsed int64) Outcome {
	if elapsed < 0 {
		elapsed = 0
	}

	if s.Unlimited() {
		return Outcome{Clock: pc, TurnReset: true}
	}

	if s.Blitz() {
		if elapsed <= s.PerMoveSeconds {
			pc.PerMoveSeconds = s.PerMoveSeconds
			return Outcome{Clock: pc, TurnReset: true}
		}
		pc.PerMoveSeconds = 0
		return Outcome{Clock: pc, TimedOut: true, TurnReset: true}
	}

	if !pc.InOvertime {
		return applyMain(s, pc, elapsed)
	}
	return applyOvertime(s, pc, elapsed)
}

func applyMain(s Settings, pc PlayerClock, elapsed int64) Outcome {
	newMain := pc.MainSeconds - elapsed
	if newMain > 0 {
		pc.MainSeconds = newMain + s.IncrementSeconds
		return Outcome{Clock: pc, TurnReset: true}
	}

	if s.Periods == 0 {
		pc.MainSeconds = 0
		return Outcome{Clock: pc, TimedOut: true, TurnReset: true}
	}

	// Net the time spent past main-time exhaustion against whole
	// overtime periods; the remainder is forgiven and the surviving
	// period starts full.
	overage := elapsed - pc.MainSeconds
	consumed := int(overage / s.PeriodSeconds)
	remaining := s.Periods - consumed

	pc.MainSeconds = 0
	pc.InOvertime = true
	if remaining <= 0 {
		pc.PeriodsLeft = 0
		pc.PeriodSeconds = 0
		return Outcome{Clock: pc, TimedOut: true, TurnReset: true}
	}
	pc.PeriodsLeft = remaining
	pc.PeriodSeconds = s.PeriodSeconds
	return Outcome{Clock: pc, TurnReset: true}
}

func applyOvertime(s Settings, pc PlayerClock, elapsed int64) Outcome {
	// PeriodSeconds is invariantly full here: every surviving branch
	// below and the overtime entry in applyMain reset it.
	if elapsed <= pc.PeriodSeconds {
		pc.PeriodSeconds = s.PeriodSeconds
		return Outcome{Clock: pc, TurnReset: true}
	}

	consumed := int(elapsed / s.PeriodSeconds)
	remaining := pc.PeriodsLeft - consumed
	if remaining <= 0 {
		pc.PeriodsLeft = 0
		pc.PeriodSeconds = 0
		return Outcome{Clock: pc, TimedOut: true, TurnReset: true}
	}

	pc.PeriodsLeft = remaining
	pc.PeriodSeconds = s.PeriodSeconds
	return Outcome{Clock: pc, TurnReset: true}
}
