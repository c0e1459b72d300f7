package board

import "errors"

// Rejection reasons for a proposed move.
var (
	ErrOutOfBounds = errors.New("point is outside the board")
	ErrOccupied    = errors.New("point is already occupied")
	ErrSuicide     = errors.New("move would leave own group without liberties")
	ErrKo          = errors.New("move recreates the previous board position")
)

// Apply validates mv against the current position and, when legal, returns
// the resulting board along with the number of opponent stones captured.
// prev is the position as it stood before the opponent's last move and is
// used for the ko check; a nil prev (game start) disables it.
//
// The receiver is never mutated: callers keep the old position as the next
// ko snapshot and adopt the returned board on acceptance.
func (b *Board) Apply(mv Move, prev *Board) (*Board, int, error) {
	if mv.Pass {
		next := b.Clone()
		next.MoveNumber++
		return next, 0, nil
	}

	if !b.Inside(mv.X, mv.Y) {
		return nil, 0, ErrOutOfBounds
	}
	if b.At(mv.X, mv.Y) != Empty {
		return nil, 0, ErrOccupied
	}

	next := b.Clone()
	next.set(mv.X, mv.Y, mv.Color)

	// Capture any adjacent opponent group left without liberties.
	captured := 0
	opp := mv.Color.Opp()
	for _, n := range next.neighbors(point{mv.X, mv.Y}) {
		if next.At(n.x, n.y) != opp {
			continue
		}
		if _, libs := next.group(n); libs == 0 {
			captured += next.removeGroup(n)
		}
	}

	// Suicide check runs after captures: a placement that takes stones is
	// guaranteed at least the liberty it just opened.
	if _, libs := next.group(point{mv.X, mv.Y}); libs == 0 {
		return nil, 0, ErrSuicide
	}

	if prev != nil && next.Equal(prev) {
		return nil, 0, ErrKo
	}

	next.MoveNumber++
	return next, captured, nil
}
