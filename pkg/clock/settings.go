// Package clock implements the server-authoritative time control state
// machine: absolute main time, Japanese byo-yomi overtime periods, Fischer
// increment and blitz per-move timing.
//
// All state transitions are pure functions over immutable values. Apply is
// the only operation that may consume time; Project is a read-only display
// projection. The owning session holds the turn-start timestamp and applies
// it exactly once per Outcome.TurnReset.
package clock

import "errors"

// Settings is the immutable time control configuration for one game.
type Settings struct {
	// MainSeconds is the main thinking time. Zero combined with zero
	// Periods means unlimited time, not an instant flag fall.
	MainSeconds int64 `json:"main_seconds"`

	// Periods and PeriodSeconds configure byo-yomi overtime. Zero
	// Periods disables overtime.
	Periods       int   `json:"periods"`
	PeriodSeconds int64 `json:"period_seconds"`

	// IncrementSeconds is the Fischer increment added after every move
	// while the player is still in main time.
	IncrementSeconds int64 `json:"increment_seconds"`

	// PerMoveSeconds enables blitz timing: a fixed allotment per move,
	// mutually exclusive with main time and byo-yomi.
	PerMoveSeconds int64 `json:"per_move_seconds"`
}

var (
	ErrNegativeSetting = errors.New("time control values must not be negative")
	ErrBlitzExclusive  = errors.New("per-move timing excludes main time and byo-yomi")
	ErrPeriodLength    = errors.New("byo-yomi periods require a positive period length")
)

// Validate checks the configuration once at game creation.
func (s Settings) Validate() error {
	if s.MainSeconds < 0 || s.Periods < 0 || s.PeriodSeconds < 0 ||
		s.IncrementSeconds < 0 || s.PerMoveSeconds < 0 {
		return ErrNegativeSetting
	}
	if s.PerMoveSeconds > 0 && (s.MainSeconds > 0 || s.Periods > 0 || s.IncrementSeconds > 0) {
		return ErrBlitzExclusive
	}
	if s.Periods > 0 && s.PeriodSeconds == 0 {
		return ErrPeriodLength
	}
	return nil
}

// Blitz reports whether per-move timing governs this game.
func (s Settings) Blitz() bool {
	return s.PerMoveSeconds > 0
}

// Unlimited reports whether the main-time-zero sentinel is in effect:
// no main time, no overtime, no per-move allotment.
func (s Settings) Unlimited() bool {
	return !s.Blitz() && s.MainSeconds == 0 && s.Periods == 0
}
