package board

import "errors"

// ErrHandicap rejects a handicap that the board size cannot seat.
var ErrHandicap = errors.New("unsupported handicap for this board size")

// hoshiEdge is the star-point offset from the edge per board size.
var hoshiEdge = map[int]int{9: 2, 13: 3, 19: 3}

// HandicapStones returns the conventional star points for seeding n black
// handicap stones on a size×size board. n of 0 or 1 returns no stones
// (a one-stone handicap is just black moving first).
func HandicapStones(size, n int) ([]Move, error) {
	if n <= 1 {
		return nil, nil
	}

	edge, ok := hoshiEdge[size]
	if !ok || n > 9 {
		return nil, ErrHandicap
	}

	lo, hi, mid := edge, size-1-edge, size/2

	// Conventional seating order: opposing corners first, then the
	// remaining corners, sides, and finally the center point.
	order := []Move{
		{X: hi, Y: lo}, {X: lo, Y: hi},
		{X: hi, Y: hi}, {X: lo, Y: lo},
		{X: lo, Y: mid}, {X: hi, Y: mid},
		{X: mid, Y: lo}, {X: mid, Y: hi},
		{X: mid, Y: mid},
	}

	// Odd handicaps above four include the center in place of the last
	// side point.
	stones := make([]Move, 0, n)
	if n%2 == 1 && n >= 5 {
		stones = append(stones, order[:n-1]...)
		stones = append(stones, order[8])
	} else {
		stones = append(stones, order[:n]...)
	}

	for i := range stones {
		stones[i].Color = Black
	}
	return stones, nil
}

// Seed places stones on the board without legality checks, used for
// handicap setup before the first move.
func (b *Board) Seed(stones []Move) {
	for _, s := range stones {
		if b.Inside(s.X, s.Y) {
			b.set(s.X, s.Y, s.Color)
		}
	}
}
