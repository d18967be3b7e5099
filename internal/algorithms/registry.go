package algorithms

import (
	"sort"

	"github.com/ironsheep/pixelator-mcp/internal/imaging"
)

// Kind names an algorithm.
type Kind string

// The eight algorithm kinds.
const (
	BlockAverage         Kind = "block-average"
	NearestNeighbor      Kind = "nearest-neighbor"
	DitherFloydSteinberg Kind = "dither-floyd-steinberg"
	DitherAtkinson       Kind = "dither-atkinson"
	DitherBayer          Kind = "dither-bayer"
	Quantize             Kind = "quantize"
	Jitter               Kind = "jitter"
	EdgeDetect           Kind = "edge-detect"
)

// Func is a pure transform. It must not modify src and always returns a
// newly allocated raster with src's dimensions.
type Func func(src *imaging.Raster, params Params) (*imaging.Raster, error)

// ParamSpec documents one parameter of an algorithm.
type ParamSpec struct {
	Name    string   `json:"name"`
	Type    string   `json:"type"` // "integer", "number" or "boolean"
	Default any      `json:"default"`
	Min     *float64 `json:"min,omitempty"`
	Max     *float64 `json:"max,omitempty"`
	Values  []int    `json:"values,omitempty"` // discrete choices, if any
}

// Descriptor describes an algorithm for catalogue listings.
type Descriptor struct {
	Kind        Kind        `json:"kind"`
	Description string      `json:"description"`
	Params      []ParamSpec `json:"params"`
}

type entry struct {
	fn   Func
	desc Descriptor
}

func bound(v float64) *float64 { return &v }

func intParam(name string, def, min, max int) ParamSpec {
	return ParamSpec{Name: name, Type: "integer", Default: def, Min: bound(float64(min)), Max: bound(float64(max))}
}

func boolParam(name string, def bool) ParamSpec {
	return ParamSpec{Name: name, Type: "boolean", Default: def}
}

// registry is built once and never modified.
var registry = map[Kind]entry{
	BlockAverage: {
		fn: blockAverage,
		desc: Descriptor{
			Description: "Area-average each block, then scale back up with nearest-neighbor sampling.",
			Params:      []ParamSpec{intParam("blockSize", defaultBlockSize, minBlockSize, maxBlockSize)},
		},
	},
	NearestNeighbor: {
		fn: nearestNeighbor,
		desc: Descriptor{
			Description: "Pixelate by nearest-neighbor sampling in both passes for crisp block edges.",
			Params:      []ParamSpec{intParam("blockSize", defaultBlockSize, minBlockSize, maxBlockSize)},
		},
	},
	DitherFloydSteinberg: {
		fn: ditherFloydSteinberg,
		desc: Descriptor{
			Description: "Floyd-Steinberg error diffusion to a fixed number of levels per channel.",
			Params:      []ParamSpec{intParam("levels", defaultDiffusionLevels, minLevels, maxLevels)},
		},
	},
	DitherAtkinson: {
		fn: ditherAtkinson,
		desc: Descriptor{
			Description: "Atkinson error diffusion; only 6/8 of the error is spread, for a lighter look.",
			Params:      []ParamSpec{intParam("levels", defaultDiffusionLevels, minLevels, maxLevels)},
		},
	},
	DitherBayer: {
		fn: ditherBayer,
		desc: Descriptor{
			Description: "Ordered dithering with a 2x2, 4x4 or 8x8 Bayer threshold matrix.",
			Params: []ParamSpec{
				{Name: "matrixSize", Type: "integer", Default: defaultMatrixSize, Values: []int{2, 4, 8}},
				intParam("levels", defaultBayerLevels, minLevels, maxLevels),
			},
		},
	},
	Quantize: {
		fn: quantize,
		desc: Descriptor{
			Description: "Median-cut palette reduction with CIE-Lab color matching and optional dithering.",
			Params: []ParamSpec{
				intParam("colors", defaultColors, minColors, maxColors),
				boolParam("dither", true),
			},
		},
	},
	Jitter: {
		fn: jitter,
		desc: Descriptor{
			Description: "Seeded random per-pixel displacement for an organic, hand-drawn feel.",
			Params: []ParamSpec{
				{Name: "amount", Type: "number", Default: defaultJitterAmount, Min: bound(minJitterAmount), Max: bound(maxJitterAmount)},
				{Name: "seed", Type: "integer", Default: int(defaultJitterSeed)},
			},
		},
	},
	EdgeDetect: {
		fn: edgeDetect,
		desc: Descriptor{
			Description: "Sobel edge magnitude on luminance, thresholded, optionally inverted.",
			Params: []ParamSpec{
				intParam("threshold", defaultEdgeThreshold, 0, 255),
				boolParam("invert", false),
			},
		},
	},
}

// Lookup returns the transform registered for kind.
func Lookup(kind Kind) (Func, bool) {
	e, ok := registry[kind]
	if !ok {
		return nil, false
	}
	return e.fn, true
}

// Known reports whether kind names a registered algorithm.
func Known(kind Kind) bool {
	_, ok := registry[kind]
	return ok
}

// Kinds returns every registered kind in lexical order.
func Kinds() []Kind {
	kinds := make([]Kind, 0, len(registry))
	for k := range registry {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Catalog describes every registered algorithm in lexical order.
func Catalog() []Descriptor {
	kinds := Kinds()
	out := make([]Descriptor, 0, len(kinds))
	for _, k := range kinds {
		d := registry[k].desc
		d.Kind = k
		out = append(out, d)
	}
	return out
}

// Apply validates src and runs the algorithm named by kind.
func Apply(kind Kind, src *imaging.Raster, params Params) (*imaging.Raster, error) {
	fn, ok := Lookup(kind)
	if !ok {
		return nil, &UnknownKindError{Kind: kind}
	}
	if err := src.Validate(); err != nil {
		return nil, err
	}
	return fn(src, params)
}

// UnknownKindError reports an algorithm name with no registered transform.
type UnknownKindError struct {
	Kind Kind
}

func (e *UnknownKindError) Error() string {
	return "unknown algorithm: " + string(e.Kind)
}
