package algorithms

import (
	"math"

	"github.com/ironsheep/pixelator-mcp/internal/imaging"
)

const (
	defaultDiffusionLevels = 4
	minLevels              = 2
	maxLevels              = 32
)

// spread is one error-diffusion target relative to the current pixel.
type spread struct {
	dx, dy int
	weight float32
}

// floydSteinberg distributes all of the residual over four neighbors.
var floydSteinberg = []spread{
	{1, 0, 7.0 / 16},
	{-1, 1, 3.0 / 16},
	{0, 1, 5.0 / 16},
	{1, 1, 1.0 / 16},
}

// atkinson hands 1/8 to six neighbors, dropping the remaining quarter.
var atkinson = []spread{
	{1, 0, 1.0 / 8},
	{2, 0, 1.0 / 8},
	{-1, 1, 1.0 / 8},
	{0, 1, 1.0 / 8},
	{1, 1, 1.0 / 8},
	{0, 2, 1.0 / 8},
}

func ditherFloydSteinberg(src *imaging.Raster, params Params) (*imaging.Raster, error) {
	levels := params.Int("levels", defaultDiffusionLevels, minLevels, maxLevels)
	return diffuse(src, levels, floydSteinberg), nil
}

func ditherAtkinson(src *imaging.Raster, params Params) (*imaging.Raster, error) {
	levels := params.Int("levels", defaultDiffusionLevels, minLevels, maxLevels)
	return diffuse(src, levels, atkinson), nil
}

// diffuse quantizes each RGB channel to levels evenly spaced values,
// scanning row-major and pushing the residual onto not-yet-visited pixels
// through kernel. Alpha is copied.
func diffuse(src *imaging.Raster, levels int, kernel []spread) *imaging.Raster {
	w, h := src.Width, src.Height
	step := 255.0 / float32(levels-1)

	acc := make([]float32, len(src.Pix))
	for i, v := range src.Pix {
		acc[i] = float32(v)
	}

	snap := func(v float32) float32 {
		if v < 0 {
			v = 0
		} else if v > 255 {
			v = 255
		}
		return float32(math.Round(float64(v/step))) * step
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			idx := (y*w + x) * 4
			for c := 0; c < 3; c++ {
				old := acc[idx+c]
				q := snap(old)
				acc[idx+c] = q
				residual := old - q
				if residual == 0 {
					continue
				}
				for _, s := range kernel {
					nx, ny := x+s.dx, y+s.dy
					if nx < 0 || nx >= w || ny >= h {
						continue
					}
					acc[(ny*w+nx)*4+c] += residual * s.weight
				}
			}
		}
	}

	out := imaging.NewRaster(w, h)
	for i, v := range acc {
		out.Pix[i] = toByte(float64(v))
	}
	return out
}
