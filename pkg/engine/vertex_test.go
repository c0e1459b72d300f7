package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatVertex(t *testing.T) {
	tests := []struct {
		x, y, size int
		want       string
	}{
		{0, 18, 19, "A1"},
		{3, 15, 19, "D4"},
		{8, 0, 19, "J19"}, // column I is skipped
		{9, 9, 19, "K10"},
		{18, 0, 19, "T19"},
		{0, 0, 9, "A9"},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, FormatVertex(tc.x, tc.y, tc.size))
	}
}

func TestParseVertex(t *testing.T) {
	tests := []struct {
		vertex  string
		size    int
		x, y    int
		wantErr bool
	}{
		{"A1", 19, 0, 18, false},
		{"d4", 19, 3, 15, false},
		{"J19", 19, 8, 0, false},
		{"T19", 19, 18, 0, false},
		{"I5", 19, 0, 0, true}, // GTP has no I column
		{"A0", 19, 0, 0, true},
		{"A20", 19, 0, 0, true},
		{"U1", 19, 0, 0, true},
		{"K10", 9, 0, 0, true}, // off a 9x9 board
		{"", 19, 0, 0, true},
		{"7", 19, 0, 0, true},
	}

	for _, tc := range tests {
		x, y, err := ParseVertex(tc.vertex, tc.size)
		if tc.wantErr {
			assert.Error(t, err, "vertex %q", tc.vertex)
			continue
		}
		require.NoError(t, err, "vertex %q", tc.vertex)
		assert.Equal(t, tc.x, x, "vertex %q", tc.vertex)
		assert.Equal(t, tc.y, y, "vertex %q", tc.vertex)
	}
}

func TestVertexRoundTrip(t *testing.T) {
	for _, size := range []int{9, 13, 19} {
		for x := 0; x < size; x++ {
			for y := 0; y < size; y++ {
				v := FormatVertex(x, y, size)
				gx, gy, err := ParseVertex(v, size)
				require.NoError(t, err)
				require.Equal(t, x, gx)
				require.Equal(t, y, gy)
			}
		}
	}
}
