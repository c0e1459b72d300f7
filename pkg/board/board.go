package board

// Move is a single placement or pass by one color.
type Move struct {
	Color Color `json:"color"`
	X     int   `json:"x"`
	Y     int   `json:"y"`
	Pass  bool  `json:"pass,omitempty"`
}

// Board is the grid of stones for one position. The zero value is not
// usable; create boards with New.
type Board struct {
	size  int
	cells []Color

	// MoveNumber counts accepted moves (passes included) since game start.
	MoveNumber int
}

// New creates an empty size×size board.
func New(size int) *Board {
	return &Board{
		size:  size,
		cells: make([]Color, size*size),
	}
}

// Size returns the board dimension.
func (b *Board) Size() int {
	return b.size
}

// Inside reports whether (x, y) is on the board.
func (b *Board) Inside(x, y int) bool {
	return x >= 0 && x < b.size && y >= 0 && y < b.size
}

// At returns the color at (x, y). Out-of-bounds points read as Empty.
func (b *Board) At(x, y int) Color {
	if !b.Inside(x, y) {
		return Empty
	}
	return b.cells[y*b.size+x]
}

func (b *Board) set(x, y int, c Color) {
	b.cells[y*b.size+x] = c
}

// Clone returns a deep copy of the board.
func (b *Board) Clone() *Board {
	cp := &Board{
		size:       b.size,
		cells:      make([]Color, len(b.cells)),
		MoveNumber: b.MoveNumber,
	}
	copy(cp.cells, b.cells)
	return cp
}

// Equal reports whether two boards hold the same position cell by cell.
// Move numbers are not compared.
func (b *Board) Equal(other *Board) bool {
	if other == nil || b.size != other.size {
		return false
	}
	for i := range b.cells {
		if b.cells[i] != other.cells[i] {
			return false
		}
	}
	return true
}

// Grid returns the position as rows of colors, for serialization.
func (b *Board) Grid() [][]Color {
	grid := make([][]Color, b.size)
	for y := 0; y < b.size; y++ {
		row := make([]Color, b.size)
		copy(row, b.cells[y*b.size:(y+1)*b.size])
		grid[y] = row
	}
	return grid
}

type point struct {
	x, y int
}

func (b *Board) neighbors(p point) []point {
	out := make([]point, 0, 4)
	for _, n := range [4]point{{p.x - 1, p.y}, {p.x + 1, p.y}, {p.x, p.y - 1}, {p.x, p.y + 1}} {
		if b.Inside(n.x, n.y) {
			out = append(out, n)
		}
	}
	return out
}

// group flood-fills the connected same-colored group containing start and
// counts its distinct liberties.
func (b *Board) group(start point) (stones []point, liberties int) {
	color := b.At(start.x, start.y)
	if color == Empty {
		return nil, 0
	}

	seen := make(map[point]bool)
	libs := make(map[point]bool)
	queue := []point{start}
	seen[start] = true

	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		stones = append(stones, p)

		for _, n := range b.neighbors(p) {
			switch b.At(n.x, n.y) {
			case Empty:
				libs[n] = true
			case color:
				if !seen[n] {
					seen[n] = true
					queue = append(queue, n)
				}
			}
		}
	}

	return stones, len(libs)
}

// removeGroup clears every stone of the group containing p and returns how
// many stones were removed.
func (b *Board) removeGroup(p point) int {
	stones, _ := b.group(p)
	for _, s := range stones {
		b.set(s.x, s.y, Empty)
	}
	return len(stones)
}
