// Package sgf serializes finished games to SGF (Smart Game Format) for
// archiving.
package sgf

import (
	"fmt"
	"strings"

	"github.com/tatami-games/goban-server/pkg/board"
)

// Record holds everything the archive keeps about one game.
type Record struct {
	BoardSize int
	Komi      float64
	Handicap  int
	Setup     []board.Move // pre-seeded handicap stones
	Moves     []board.Move
	Result    string
}

// Serialize renders the record as a single SGF game tree.
func (r Record) Serialize() string {
	var b strings.Builder

	b.WriteString("(;GM[1]FF[4]")
	fmt.Fprintf(&b, "SZ[%d]", r.BoardSize)
	fmt.Fprintf(&b, "KM[%.1f]", r.Komi)
	if r.Handicap > 1 {
		fmt.Fprintf(&b, "HA[%d]", r.Handicap)
		b.WriteString("AB")
		for _, s := range r.Setup {
			fmt.Fprintf(&b, "[%s]", coord(s))
		}
	}
	if r.Result != "" {
		fmt.Fprintf(&b, "RE[%s]", r.Result)
	}

	for _, mv := range r.Moves {
		prop := "B"
		if mv.Color == board.White {
			prop = "W"
		}
		fmt.Fprintf(&b, ";%s[%s]", prop, coord(mv))
	}

	b.WriteString(")")
	return b.String()
}

// coord renders SGF board coordinates; a pass is an empty property.
func coord(mv board.Move) string {
	if mv.Pass {
		return ""
	}
	return string([]byte{'a' + byte(mv.X), 'a' + byte(mv.Y)})
}
