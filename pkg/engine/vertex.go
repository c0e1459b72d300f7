package engine

import (
	"fmt"
	"strconv"
	"strings"
)

// GTP column letters skip "I" by convention.
const columns = "ABCDEFGHJKLMNOPQRSTUVWXYZ"

// FormatVertex converts board coordinates (origin top-left, y growing
// downward) to a GTP vertex like "D4".
func FormatVertex(x, y, size int) string {
	return fmt.Sprintf("%c%d", columns[x], size-y)
}

// ParseVertex converts a GTP vertex to board coordinates. "PASS" and
// "RESIGN" are not vertices and must be handled by the caller.
func ParseVertex(vertex string, size int) (x, y int, err error) {
	v := strings.ToUpper(strings.TrimSpace(vertex))
	if len(v) < 2 {
		return 0, 0, fmt.Errorf("malformed vertex %q", vertex)
	}

	x = strings.IndexByte(columns, v[0])
	if x < 0 || x >= size {
		return 0, 0, fmt.Errorf("vertex %q column off board", vertex)
	}

	row, err := strconv.Atoi(v[1:])
	if err != nil || row < 1 || row > size {
		return 0, 0, fmt.Errorf("vertex %q row off board", vertex)
	}

	return x, size - row, nil
}
