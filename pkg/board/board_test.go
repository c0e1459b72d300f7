package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// place is a test helper that applies a legal move or fails the test.
func place(t *testing.T, b *Board, c Color, x, y int) *Board {
	t.Helper()
	next, _, err := b.Apply(Move{Color: c, X: x, Y: y}, nil)
	require.NoError(t, err)
	return next
}

func TestApplyRejectsOutOfBounds(t *testing.T) {
	b := New(9)
	_, _, err := b.Apply(Move{Color: Black, X: 9, Y: 0}, nil)
	assert.ErrorIs(t, err, ErrOutOfBounds)

	_, _, err = b.Apply(Move{Color: Black, X: 0, Y: -1}, nil)
	assert.ErrorIs(t, err, ErrOutOfBounds)
}

func TestApplyRejectsOccupied(t *testing.T) {
	b := place(t, New(9), Black, 4, 4)
	_, _, err := b.Apply(Move{Color: White, X: 4, Y: 4}, nil)
	assert.ErrorIs(t, err, ErrOccupied)
}

func TestApplyDoesNotMutateReceiver(t *testing.T) {
	b := New(9)
	next := place(t, b, Black, 2, 2)
	assert.Equal(t, Empty, b.At(2, 2))
	assert.Equal(t, Black, next.At(2, 2))
	assert.Equal(t, 0, b.MoveNumber)
	assert.Equal(t, 1, next.MoveNumber)
}

func TestSingleStoneCapture(t *testing.T) {
	// White stone at (1,0) with black stones on its three liberties;
	// the final black stone at (2,0) captures it.
	b := New(9)
	b = place(t, b, White, 1, 0)
	b = place(t, b, Black, 0, 0)
	b = place(t, b, Black, 1, 1)

	next, captured, err := b.Apply(Move{Color: Black, X: 2, Y: 0}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, captured)
	assert.Equal(t, Empty, next.At(1, 0))
}

func TestMultiStoneGroupCapture(t *testing.T) {
	// Two connected white stones surrounded by black.
	b := New(9)
	b = place(t, b, White, 3, 3)
	b = place(t, b, White, 4, 3)
	for _, p := range [][2]int{{2, 3}, {5, 3}, {3, 2}, {4, 2}, {3, 4}} {
		b = place(t, b, Black, p[0], p[1])
	}

	next, captured, err := b.Apply(Move{Color: Black, X: 4, Y: 4}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, captured)
	assert.Equal(t, Empty, next.At(3, 3))
	assert.Equal(t, Empty, next.At(4, 3))
}

func TestSuicideRejected(t *testing.T) {
	// Playing white into a one-point black eye captures nothing and
	// leaves the stone without liberties.
	b := New(9)
	b = place(t, b, Black, 1, 0)
	b = place(t, b, Black, 0, 1)

	_, _, err := b.Apply(Move{Color: White, X: 0, Y: 0}, nil)
	assert.ErrorIs(t, err, ErrSuicide)
}

func TestCapturingMoveIsNotSuicide(t *testing.T) {
	// The same point is legal once it captures: white fills black's
	// last liberty while sitting in black's eye.
	b := New(9)
	b = place(t, b, Black, 1, 0)
	b = place(t, b, Black, 0, 1)
	b = place(t, b, White, 2, 0)
	b = place(t, b, White, 1, 1)
	b = place(t, b, White, 0, 2)

	next, captured, err := b.Apply(Move{Color: White, X: 0, Y: 0}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, captured)
	assert.Equal(t, White, next.At(0, 0))
}

// koPosition builds the classic ko shape and plays white's capture at
// (2,2). Returns the board after the capture plus the snapshot black
// needs for the ko check on the recapture at (3,2).
//
//	. B . .
//	B W B .      black diamond around (2,2), white wall behind (3,2)
//	. B W W      (rows are y, columns x; W at (2,2) just captured (3,2))
//	. . W .
func koPosition(t *testing.T) (cur, prev *Board) {
	t.Helper()
	b := New(9)
	b = place(t, b, Black, 2, 1)
	b = place(t, b, Black, 1, 2)
	b = place(t, b, Black, 2, 3)
	b = place(t, b, Black, 3, 2) // the stone white takes in the ko
	b = place(t, b, White, 3, 1)
	b = place(t, b, White, 3, 3)
	b = place(t, b, White, 4, 2)

	prev = b
	next, captured, err := b.Apply(Move{Color: White, X: 2, Y: 2}, nil)
	require.NoError(t, err)
	require.Equal(t, 1, captured)
	return next, prev
}

func TestKoViolationRejected(t *testing.T) {
	cur, prev := koPosition(t)

	// Recapturing at (3,2) would recreate the position before white's
	// capture exactly.
	_, _, err := cur.Apply(Move{Color: Black, X: 3, Y: 2}, prev)
	assert.ErrorIs(t, err, ErrKo)
}

func TestKoAllowedWithoutSnapshot(t *testing.T) {
	cur, _ := koPosition(t)

	// Game-start semantics: no snapshot, no ko restriction.
	_, captured, err := cur.Apply(Move{Color: Black, X: 3, Y: 2}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, captured)
}

func TestKoAllowedAfterInterveningMove(t *testing.T) {
	cur, _ := koPosition(t)

	// Black plays elsewhere, white answers; the snapshot now lags the
	// ko shape and the recapture no longer matches it.
	cur = place(t, cur, Black, 8, 8)
	snapshot := cur
	cur = place(t, cur, White, 7, 8)

	_, _, err := cur.Apply(Move{Color: Black, X: 3, Y: 2}, snapshot)
	assert.NoError(t, err)
}

func TestMultiStoneCaptureIsNotKo(t *testing.T) {
	// Capturing two stones can never recreate the one-stone-ago
	// position, even in a ko-like shape.
	b := New(9)
	b = place(t, b, White, 3, 3)
	b = place(t, b, White, 4, 3)
	for _, p := range [][2]int{{2, 3}, {5, 3}, {3, 2}, {4, 2}, {3, 4}} {
		b = place(t, b, Black, p[0], p[1])
	}

	prev := b
	next, captured, err := b.Apply(Move{Color: Black, X: 4, Y: 4}, prev)
	require.NoError(t, err)
	assert.Equal(t, 2, captured)
	assert.False(t, next.Equal(prev))
}

func TestPassLeavesPositionUntouched(t *testing.T) {
	b := place(t, New(9), Black, 4, 4)
	next, captured, err := b.Apply(Move{Color: White, Pass: true}, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, captured)
	assert.True(t, next.Equal(b))
	assert.Equal(t, b.MoveNumber+1, next.MoveNumber)
}

func TestHandicapStones(t *testing.T) {
	tests := []struct {
		size, n int
		want    int
		wantErr bool
	}{
		{19, 0, 0, false},
		{19, 1, 0, false},
		{19, 2, 2, false},
		{19, 5, 5, false},
		{19, 9, 9, false},
		{13, 4, 4, false},
		{9, 4, 4, false},
		{9, 10, 0, true},
		{11, 2, 0, true},
	}

	for _, tt := range tests {
		stones, err := HandicapStones(tt.size, tt.n)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrHandicap)
			continue
		}
		require.NoError(t, err)
		require.Len(t, stones, tt.want)

		seen := make(map[[2]int]bool)
		for _, s := range stones {
			assert.Equal(t, Black, s.Color)
			assert.False(t, seen[[2]int{s.X, s.Y}], "duplicate star point")
			seen[[2]int{s.X, s.Y}] = true
		}
	}
}

func TestHandicapFiveIncludesCenter(t *testing.T) {
	stones, err := HandicapStones(19, 5)
	require.NoError(t, err)
	assert.Contains(t, stones, Move{Color: Black, X: 9, Y: 9})
}

func TestSeed(t *testing.T) {
	b := New(9)
	stones, err := HandicapStones(9, 2)
	require.NoError(t, err)
	b.Seed(stones)
	assert.Equal(t, Black, b.At(6, 2))
	assert.Equal(t, Black, b.At(2, 6))
}
