package algorithms

import (
	"math"

	"github.com/disintegration/imaging"

	raster "github.com/ironsheep/pixelator-mcp/internal/imaging"
)

const (
	defaultBlockSize = 16
	minBlockSize     = 2
	maxBlockSize     = 128
)

// gridSize returns the downscaled dimensions for a block size. Each side
// is at least one pixel.
func gridSize(w, h, blockSize int) (int, int) {
	sw := int(math.Round(float64(w) / float64(blockSize)))
	sh := int(math.Round(float64(h) / float64(blockSize)))
	return max(1, sw), max(1, sh)
}

// pixelate shrinks src with down and enlarges the result back to the
// source size with nearest-neighbor sampling.
func pixelate(src *raster.Raster, params Params, down imaging.ResampleFilter) (*raster.Raster, error) {
	blockSize := params.Int("blockSize", defaultBlockSize, minBlockSize, maxBlockSize)
	sw, sh := gridSize(src.Width, src.Height, blockSize)

	small := imaging.Resize(src.NRGBA(), sw, sh, down)
	big := imaging.Resize(small, src.Width, src.Height, imaging.NearestNeighbor)
	return raster.FromNRGBA(big), nil
}

func blockAverage(src *raster.Raster, params Params) (*raster.Raster, error) {
	return pixelate(src, params, imaging.Box)
}

func nearestNeighbor(src *raster.Raster, params Params) (*raster.Raster, error) {
	return pixelate(src, params, imaging.NearestNeighbor)
}
