package algorithms

import (
	"math"

	"github.com/ironsheep/pixelator-mcp/internal/imaging"
)

const (
	defaultJitterAmount = 3.0
	minJitterAmount     = 0.5
	maxJitterAmount     = 20.0

	defaultJitterSeed uint32 = 42
)

// mulberry32 is a small seedable generator with a 32-bit state. The same
// seed always yields the same sequence.
type mulberry32 struct {
	state uint32
}

// next returns a value in [0, 1).
func (m *mulberry32) next() float64 {
	m.state += 0x6d2b79f5
	a := m.state
	t := (a ^ a>>15) * (1 | a)
	t = (t + (t^t>>7)*(61|t)) ^ t
	return float64(t^t>>14) / 4294967296
}

// jitter replaces every pixel with a source pixel up to amount away in
// each direction. Two draws are taken per pixel in row-major order, x
// offset first; displaced coordinates are clamped to the image.
func jitter(src *imaging.Raster, params Params) (*imaging.Raster, error) {
	amount := params.Float("amount", defaultJitterAmount, minJitterAmount, maxJitterAmount)
	rng := &mulberry32{state: params.Seed("seed", defaultJitterSeed)}

	w, h := src.Width, src.Height
	out := imaging.NewRaster(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dx := roundHalfUp((rng.next() - 0.5) * 2 * amount)
			dy := roundHalfUp((rng.next() - 0.5) * 2 * amount)

			sx := clamp(x+dx, 0, w-1)
			sy := clamp(y+dy, 0, h-1)

			dst := out.Offset(x, y)
			from := src.Offset(sx, sy)
			copy(out.Pix[dst:dst+4], src.Pix[from:from+4])
		}
	}
	return out, nil
}

// roundHalfUp rounds halves toward positive infinity, so -0.5 becomes 0.
func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}
