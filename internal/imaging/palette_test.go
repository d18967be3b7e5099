package imaging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fillRect(r *Raster, x0, y0, x1, y1 int, c [4]byte) {
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			copy(r.Pix[r.Offset(x, y):], c[:])
		}
	}
}

func TestCountColors(t *testing.T) {
	r := NewRaster(4, 4)
	fillRect(r, 0, 0, 4, 4, [4]byte{10, 20, 30, 255})
	assert.Equal(t, 1, CountColors(r))

	fillRect(r, 0, 0, 2, 4, [4]byte{200, 0, 0, 255})
	// Same RGB with a different alpha is not a new color.
	fillRect(r, 0, 0, 1, 1, [4]byte{200, 0, 0, 10})
	assert.Equal(t, 2, CountColors(r))
}

func TestDominantColors(t *testing.T) {
	r := NewRaster(10, 10)
	fillRect(r, 0, 0, 10, 10, [4]byte{255, 255, 255, 255})
	fillRect(r, 0, 0, 10, 3, [4]byte{255, 0, 0, 255})
	fillRect(r, 0, 3, 10, 4, [4]byte{0, 0, 255, 255})

	res := DominantColors(r, 2)
	assert.Equal(t, 3, res.DistinctColors)
	require.Len(t, res.Colors, 2)

	assert.Equal(t, "#ffffff", res.Colors[0].Hex)
	assert.Equal(t, 60, res.Colors[0].Count)
	assert.InDelta(t, 60.0, res.Colors[0].Percentage, 1e-9)

	red := res.Colors[1]
	assert.Equal(t, "#ff0000", red.Hex)
	assert.Equal(t, RGBColor{R: 255}, red.RGB)
	assert.Equal(t, HSLColor{H: 0, S: 100, L: 50}, red.HSL)
}

func TestDominantColors_AllWhenCountZero(t *testing.T) {
	r := NewRaster(3, 1)
	fillRect(r, 0, 0, 1, 1, [4]byte{1, 1, 1, 255})
	fillRect(r, 1, 0, 2, 1, [4]byte{2, 2, 2, 255})
	fillRect(r, 2, 0, 3, 1, [4]byte{3, 3, 3, 255})

	res := DominantColors(r, 0)
	require.Len(t, res.Colors, 3)
	// Equal counts fall back to color order.
	assert.Equal(t, "#010101", res.Colors[0].Hex)
}
