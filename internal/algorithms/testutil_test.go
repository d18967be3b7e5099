package algorithms

import (
	"math/rand"

	"github.com/ironsheep/pixelator-mcp/internal/imaging"
)

// noise returns a reproducible raster of random opaque colors.
func noise(w, h int, seed int64) *imaging.Raster {
	rng := rand.New(rand.NewSource(seed))
	r := imaging.NewRaster(w, h)
	for i := 0; i < len(r.Pix); i += 4 {
		r.Pix[i] = byte(rng.Intn(256))
		r.Pix[i+1] = byte(rng.Intn(256))
		r.Pix[i+2] = byte(rng.Intn(256))
		r.Pix[i+3] = 255
	}
	return r
}

// gradient returns a horizontal black to white ramp.
func gradient(w, h int) *imaging.Raster {
	r := imaging.NewRaster(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := byte(x * 255 / max(1, w-1))
			copy(r.Pix[r.Offset(x, y):], []byte{v, v, v, 255})
		}
	}
	return r
}

func solid(w, h int, c [4]byte) *imaging.Raster {
	r := imaging.NewRaster(w, h)
	for i := 0; i < len(r.Pix); i += 4 {
		copy(r.Pix[i:], c[:])
	}
	return r
}

func channelValues(r *imaging.Raster, channel int) map[byte]bool {
	seen := make(map[byte]bool)
	for i := channel; i < len(r.Pix); i += 4 {
		seen[r.Pix[i]] = true
	}
	return seen
}
