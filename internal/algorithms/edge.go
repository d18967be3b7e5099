package algorithms

import (
	"math"

	"github.com/anthonynsimon/bild/effect"

	"github.com/ironsheep/pixelator-mcp/internal/imaging"
)

const defaultEdgeThreshold = 30

var (
	sobelX = [3][3]float64{
		{-1, 0, 1},
		{-2, 0, 2},
		{-1, 0, 1},
	}
	sobelY = [3][3]float64{
		{-1, -2, -1},
		{0, 0, 0},
		{1, 2, 1},
	}
)

// edgeDetect computes the Sobel gradient magnitude of the luminance image.
// Magnitudes at or below threshold become 0, the rest are capped at 255.
// The result is opaque gray.
func edgeDetect(src *imaging.Raster, params Params) (*imaging.Raster, error) {
	threshold := float64(params.Int("threshold", defaultEdgeThreshold, 0, 255))
	invert := params.Bool("invert", false)

	gray := effect.Grayscale(opaque(src).NRGBA())
	w, h := src.Width, src.Height
	lum := func(x, y int) float64 {
		px := clamp(x, 0, w-1)
		py := clamp(y, 0, h-1)
		return float64(gray.Pix[py*gray.Stride+px*4])
	}

	out := imaging.NewRaster(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var gx, gy float64
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					v := lum(x+kx, y+ky)
					gx += v * sobelX[ky+1][kx+1]
					gy += v * sobelY[ky+1][kx+1]
				}
			}

			mag := math.Sqrt(gx*gx + gy*gy)
			if mag <= threshold {
				mag = 0
			} else if mag > 255 {
				mag = 255
			}
			if invert {
				mag = 255 - mag
			}

			v := byte(mag)
			idx := out.Offset(x, y)
			out.Pix[idx] = v
			out.Pix[idx+1] = v
			out.Pix[idx+2] = v
			out.Pix[idx+3] = 255
		}
	}
	return out, nil
}

// opaque returns a copy of r with every alpha set to 255. Luminance is taken
// from the straight colour, and bild premultiplies anything less than opaque.
func opaque(r *imaging.Raster) *imaging.Raster {
	out := r.Clone()
	for i := 3; i < len(out.Pix); i += 4 {
		out.Pix[i] = 255
	}
	return out
}
