// Package board implements the Go board model: stone placement,
// group liberties, capture resolution and the ko rule.
package board

// Color represents the color of a stone or the owner of a turn.
type Color string

// Possible colors. Empty marks an unoccupied point.
const (
	Empty Color = ""
	Black Color = "b"
	White Color = "w"
)

// Opp returns the opposite color.
func (c Color) Opp() Color {
	if c == Black {
		return White
	}

	return Black
}
