package algorithms

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/pixelator-mcp/internal/imaging"
)

func TestPixelate_UniformBlocks(t *testing.T) {
	src := noise(64, 32, 2)

	for _, k := range []Kind{BlockAverage, NearestNeighbor} {
		t.Run(string(k), func(t *testing.T) {
			out, err := Apply(k, src, Params{"blockSize": 16})
			require.NoError(t, err)

			for by := 0; by < 32; by += 16 {
				for bx := 0; bx < 64; bx += 16 {
					first := out.Pix[out.Offset(bx, by) : out.Offset(bx, by)+4]
					for y := by; y < by+16; y++ {
						for x := bx; x < bx+16; x++ {
							o := out.Offset(x, y)
							require.Equal(t, first, out.Pix[o:o+4], "block (%d,%d) pixel (%d,%d)", bx, by, x, y)
						}
					}
				}
			}
		})
	}
}

func TestPixelate_SolidIsUnchanged(t *testing.T) {
	src := solid(40, 40, [4]byte{200, 100, 50, 255})
	out, err := Apply(BlockAverage, src, Params{"blockSize": 8})
	require.NoError(t, err)
	assert.Equal(t, src.Pix, out.Pix)
}

func TestGridSize(t *testing.T) {
	w, h := gridSize(256, 100, 16)
	assert.Equal(t, 16, w)
	assert.Equal(t, 6, h)

	// Blocks larger than the image still leave one pixel.
	w, h = gridSize(10, 3, 128)
	assert.Equal(t, 1, w)
	assert.Equal(t, 1, h)
}

func TestDiffusion_TwoLevels(t *testing.T) {
	src := gradient(64, 16)
	for _, k := range []Kind{DitherFloydSteinberg, DitherAtkinson} {
		t.Run(string(k), func(t *testing.T) {
			out, err := Apply(k, src, Params{"levels": 2})
			require.NoError(t, err)
			for c := 0; c < 3; c++ {
				vals := channelValues(out, c)
				assert.LessOrEqual(t, len(vals), 2)
				for v := range vals {
					assert.True(t, v == 0 || v == 255, "unexpected value %d", v)
				}
			}
			// A ramp must produce both extremes.
			assert.Len(t, channelValues(out, 0), 2)
		})
	}
}

func TestDiffusion_PreservesAlpha(t *testing.T) {
	src := gradient(8, 8)
	for i := 3; i < len(src.Pix); i += 4 {
		src.Pix[i] = byte(i)
	}
	out, err := Apply(DitherFloydSteinberg, src, Params{"levels": 3})
	require.NoError(t, err)
	for i := 3; i < len(src.Pix); i += 4 {
		assert.Equal(t, src.Pix[i], out.Pix[i])
	}
}

func TestDiffusion_LevelValues(t *testing.T) {
	out, err := Apply(DitherAtkinson, noise(32, 32, 3), Params{"levels": 4})
	require.NoError(t, err)
	for v := range channelValues(out, 1) {
		assert.Contains(t, []byte{0, 85, 170, 255}, v)
	}
}

func TestBayerMatrix(t *testing.T) {
	assert.Equal(t, [][]int{{0, 2}, {3, 1}}, bayerMatrix(2))
	assert.Equal(t, [][]int{
		{0, 8, 2, 10},
		{12, 4, 14, 6},
		{3, 11, 1, 9},
		{15, 7, 13, 5},
	}, bayerMatrix(4))

	m := bayerMatrix(8)
	seen := make(map[int]bool)
	for _, row := range m {
		for _, v := range row {
			seen[v] = true
		}
	}
	assert.Len(t, seen, 64, "8x8 matrix is a permutation of 0..63")
	assert.Equal(t, 0, m[0][0])
	assert.Equal(t, 63, m[7][0])
}

func TestMatrixFor(t *testing.T) {
	assert.Len(t, matrixFor(1), 2)
	assert.Len(t, matrixFor(2), 2)
	assert.Len(t, matrixFor(3), 4)
	assert.Len(t, matrixFor(4), 4)
	assert.Len(t, matrixFor(5), 8)
	assert.Len(t, matrixFor(8), 8)
}

func TestBayer_Deterministic(t *testing.T) {
	src := noise(50, 30, 4)
	params := Params{"matrixSize": 8, "levels": 3}

	a, err := Apply(DitherBayer, src, params)
	require.NoError(t, err)
	b, err := Apply(DitherBayer, src, params)
	require.NoError(t, err)
	assert.Equal(t, a.Pix, b.Pix)

	for v := range channelValues(a, 2) {
		assert.Contains(t, []byte{0, 128, 255}, v)
	}
}

func TestQuantize_ColorLimit(t *testing.T) {
	src := noise(64, 64, 5)
	for _, n := range []int{2, 5, 16, 64} {
		for _, dither := range []bool{true, false} {
			out, err := Apply(Quantize, src, Params{"colors": n, "dither": dither})
			require.NoError(t, err)
			assert.LessOrEqual(t, imaging.CountColors(out), n, "colors=%d dither=%v", n, dither)
		}
	}
}

func TestQuantize_FewColorsUntouched(t *testing.T) {
	src := solid(10, 10, [4]byte{1, 2, 3, 255})
	copy(src.Pix[0:4], []byte{200, 0, 0, 255})

	out, err := Apply(Quantize, src, Params{"colors": 2})
	require.NoError(t, err)
	assert.Equal(t, src.Pix, out.Pix)
}

func TestQuantize_SeparatesDistinctClusters(t *testing.T) {
	src := imaging.NewRaster(20, 10)
	for y := 0; y < 10; y++ {
		for x := 0; x < 20; x++ {
			c := []byte{byte(250 - x%3), byte(x % 2), 0, 255}
			if x >= 10 {
				c = []byte{0, byte(x % 2), byte(250 - x%3), 255}
			}
			copy(src.Pix[src.Offset(x, y):], c)
		}
	}

	out, err := Apply(Quantize, src, Params{"colors": 2, "dither": false})
	require.NoError(t, err)
	assert.Equal(t, 2, imaging.CountColors(out))

	left := out.Pix[out.Offset(0, 0) : out.Offset(0, 0)+3]
	right := out.Pix[out.Offset(19, 9) : out.Offset(19, 9)+3]
	assert.Greater(t, left[0], left[2], "left half stays red")
	assert.Greater(t, right[2], right[0], "right half stays blue")
}

func TestMulberry32(t *testing.T) {
	rng := &mulberry32{state: 42}
	assert.InDelta(t, 0.6011037519201636, rng.next(), 1e-15)
	assert.InDelta(t, 0.44829055899754167, rng.next(), 1e-15)
	assert.InDelta(t, 0.8524657934904099, rng.next(), 1e-15)
}

func TestJitter_Deterministic(t *testing.T) {
	src := noise(40, 40, 6)

	a, err := Apply(Jitter, src, Params{"amount": 5, "seed": 7})
	require.NoError(t, err)
	b, err := Apply(Jitter, src, Params{"amount": 5, "seed": 7})
	require.NoError(t, err)
	assert.Equal(t, a.Pix, b.Pix)

	c, err := Apply(Jitter, src, Params{"amount": 5, "seed": 8})
	require.NoError(t, err)
	assert.NotEqual(t, a.Pix, c.Pix)
}

func TestJitter_SolidIsUnchanged(t *testing.T) {
	src := solid(16, 16, [4]byte{9, 8, 7, 6})
	out, err := Apply(Jitter, src, Params{"amount": 20})
	require.NoError(t, err)
	assert.Equal(t, src.Pix, out.Pix)
}

func TestEdgeDetect_Solid(t *testing.T) {
	src := solid(12, 12, [4]byte{80, 160, 240, 10})

	out, err := Apply(EdgeDetect, src, nil)
	require.NoError(t, err)
	assert.Equal(t, solid(12, 12, [4]byte{0, 0, 0, 255}).Pix, out.Pix)

	inv, err := Apply(EdgeDetect, src, Params{"invert": true})
	require.NoError(t, err)
	assert.Equal(t, solid(12, 12, [4]byte{255, 255, 255, 255}).Pix, inv.Pix)
}

func TestEdgeDetect_VerticalStep(t *testing.T) {
	src := solid(10, 6, [4]byte{0, 0, 0, 255})
	for y := 0; y < 6; y++ {
		for x := 5; x < 10; x++ {
			copy(src.Pix[src.Offset(x, y):], []byte{255, 255, 255, 255})
		}
	}

	out, err := Apply(EdgeDetect, src, Params{"threshold": 50})
	require.NoError(t, err)

	edge := out.Offset(4, 3)
	assert.Equal(t, byte(255), out.Pix[edge], "boundary column is an edge")
	assert.Equal(t, out.Pix[edge], out.Pix[edge+1])
	assert.Equal(t, out.Pix[edge], out.Pix[edge+2])
	assert.Equal(t, byte(0), out.Pix[out.Offset(1, 3)], "flat region is not")
	assert.Equal(t, byte(0), out.Pix[out.Offset(8, 3)])
}

func TestEdgeDetect_UniformGray(t *testing.T) {
	src := solid(16, 4, [4]byte{100, 100, 100, 255})
	out, err := Apply(EdgeDetect, src, nil)
	require.NoError(t, err)
	assert.Equal(t, solid(16, 4, [4]byte{0, 0, 0, 255}).Pix, out.Pix)
}

func TestEdgeDetect_AlphaDoesNotCreateEdges(t *testing.T) {
	// Same straight colour on both halves, only the alpha differs.
	src := solid(8, 4, [4]byte{200, 120, 40, 10})
	for y := 0; y < 4; y++ {
		for x := 4; x < 8; x++ {
			src.Pix[src.Offset(x, y)+3] = 240
		}
	}
	out, err := Apply(EdgeDetect, src, Params{"threshold": 1})
	require.NoError(t, err)
	assert.Equal(t, solid(8, 4, [4]byte{0, 0, 0, 255}).Pix, out.Pix)
}

// row returns the gray level of every pixel on line y.
func row(r *imaging.Raster, y int) []byte {
	vals := make([]byte, r.Width)
	for x := range vals {
		vals[x] = r.Pix[r.Offset(x, y)]
	}
	return vals
}

func TestEdgeDetect_Ramp(t *testing.T) {
	// Levels 0, 51, 102, 153, 204, 255. The interior gradient is
	// 4*102 = 408 and caps at 255; clamped border columns see 4*51 = 204.
	steep := gradient(6, 3)

	out, err := Apply(EdgeDetect, steep, nil)
	require.NoError(t, err)
	for y := 0; y < 3; y++ {
		assert.Equal(t, []byte{204, 255, 255, 255, 255, 204}, row(out, y), "row %d", y)
	}

	inv, err := Apply(EdgeDetect, steep, Params{"invert": true})
	require.NoError(t, err)
	assert.Equal(t, []byte{51, 0, 0, 0, 0, 51}, row(inv, 1))

	// One level per column: interior magnitude 8, border columns 4.
	gentle := gradient(256, 3)

	out, err = Apply(EdgeDetect, gentle, nil)
	require.NoError(t, err)
	assert.Equal(t, map[byte]bool{0: true}, channelValues(out, 0), "below the default threshold")

	out, err = Apply(EdgeDetect, gentle, Params{"threshold": 5})
	require.NoError(t, err)
	assert.Equal(t, byte(0), out.Pix[out.Offset(0, 1)])
	assert.Equal(t, byte(8), out.Pix[out.Offset(1, 1)])
	assert.Equal(t, byte(8), out.Pix[out.Offset(128, 1)])
	assert.Equal(t, byte(0), out.Pix[out.Offset(255, 1)])

	out, err = Apply(EdgeDetect, gentle, Params{"threshold": 5, "invert": true})
	require.NoError(t, err)
	assert.Equal(t, byte(255), out.Pix[out.Offset(0, 1)])
	assert.Equal(t, byte(247), out.Pix[out.Offset(128, 1)])
	assert.Equal(t, map[byte]bool{255: true}, channelValues(out, 3))
}

func TestJitter_ZeroParamsUseDefaults(t *testing.T) {
	src := noise(24, 24, 5)
	want, err := Apply(Jitter, src, nil)
	require.NoError(t, err)
	got, err := Apply(Jitter, src, Params{"amount": 0, "seed": 0})
	require.NoError(t, err)
	assert.Equal(t, want.Pix, got.Pix)
}
