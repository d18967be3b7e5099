package algorithms

import (
	"math"

	"github.com/ironsheep/pixelator-mcp/internal/imaging"
)

const (
	defaultMatrixSize  = 4
	defaultBayerLevels = 8
)

var bayerMatrices = map[int][][]int{
	2: bayerMatrix(2),
	4: bayerMatrix(4),
	8: bayerMatrix(8),
}

// bayerMatrix builds the n×n ordered-dither index matrix, n a power of two,
// by interleaving the bits of x^y and y from least to most significant.
// Entries are a permutation of 0..n²-1.
func bayerMatrix(n int) [][]int {
	bits := 0
	for 1<<bits < n {
		bits++
	}

	m := make([][]int, n)
	for y := 0; y < n; y++ {
		m[y] = make([]int, n)
		for x := 0; x < n; x++ {
			v := 0
			for bit := 0; bit < bits; bit++ {
				xb := x >> bit & 1
				yb := y >> bit & 1
				v = v<<2 | (xb^yb)<<1 | yb
			}
			m[y][x] = v
		}
	}
	return m
}

// matrixFor snaps a requested size to a supported matrix.
func matrixFor(size int) [][]int {
	switch {
	case size <= 2:
		return bayerMatrices[2]
	case size <= 4:
		return bayerMatrices[4]
	default:
		return bayerMatrices[8]
	}
}

func ditherBayer(src *imaging.Raster, params Params) (*imaging.Raster, error) {
	matrix := matrixFor(params.Int("matrixSize", defaultMatrixSize, 2, 8))
	levels := params.Int("levels", defaultBayerLevels, minLevels, maxLevels)

	n := len(matrix)
	cells := float64(n * n)
	step := 255.0 / float64(levels-1)

	out := src.Clone()
	for y := 0; y < src.Height; y++ {
		row := matrix[y%n]
		for x := 0; x < src.Width; x++ {
			threshold := (float64(row[x%n])/cells - 0.5) * step
			idx := out.Offset(x, y)
			for c := 0; c < 3; c++ {
				val := float64(out.Pix[idx+c]) + threshold
				out.Pix[idx+c] = toByte(math.Round(val/step) * step)
			}
		}
	}
	return out, nil
}
