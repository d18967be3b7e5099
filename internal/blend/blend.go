// Package blend composites two equally sized rasters with one of six
// per-channel blend modes.
package blend

import (
	"math"
	"strings"

	"github.com/pkg/errors"

	"github.com/ironsheep/pixelator-mcp/internal/imaging"
)

// Mode selects the per-channel blend function.
type Mode string

// Supported blend modes.
const (
	Normal    Mode = "normal"
	Multiply  Mode = "multiply"
	Add       Mode = "add"
	Screen    Mode = "screen"
	Overlay   Mode = "overlay"
	SoftLight Mode = "soft-light"
)

var (
	// ErrUnknownMode is returned for a mode name outside the supported set.
	ErrUnknownMode = errors.New("unknown blend mode")

	// ErrSizeMismatch is returned when base and overlay differ in size.
	ErrSizeMismatch = errors.New("blend inputs differ in size")
)

// channelFunc combines a base value a with an overlay value b, both 0..255.
type channelFunc func(a, b float64) float64

var modes = map[Mode]channelFunc{
	Normal: func(_, b float64) float64 { return b },
	Multiply: func(a, b float64) float64 {
		return a * b / 255
	},
	Add: func(a, b float64) float64 {
		return math.Min(255, a+b)
	},
	Screen: func(a, b float64) float64 {
		return 255 - (255-a)*(255-b)/255
	},
	Overlay: func(a, b float64) float64 {
		if a < 128 {
			return 2 * a * b / 255
		}
		return 255 - 2*(255-a)*(255-b)/255
	},
	SoftLight: softLight,
}

func softLight(a, b float64) float64 {
	if b < 128 {
		return a - (255-2*b)*a*(255-a)/65025
	}
	var d float64
	if a < 64 {
		d = ((16*a/255-12)*a/255 + 4) * a
	} else {
		d = math.Sqrt(a/255) * 255
	}
	return a + (2*b-255)*(d-a)/255
}

// Modes lists the supported modes.
func Modes() []Mode {
	return []Mode{Normal, Multiply, Add, Screen, Overlay, SoftLight}
}

// ParseMode validates a mode name. Matching is case-insensitive and the
// empty string means Normal.
func ParseMode(name string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(name)))
	if m == "" {
		return Normal, nil
	}
	if _, ok := modes[m]; !ok {
		return "", errors.Wrapf(ErrUnknownMode, "%q", name)
	}
	return m, nil
}

// Apply blends overlay onto base. For each RGB channel the mode result is
// mixed with the base value by opacity, which is clamped to [0,1]:
//
//	out = round(base*(1-opacity) + mode(base, overlay)*opacity)
//
// Alpha always comes from base. Neither input is modified.
func Apply(base, overlay *imaging.Raster, mode Mode, opacity float64) (*imaging.Raster, error) {
	fn, ok := modes[mode]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownMode, "%q", string(mode))
	}
	if err := base.Validate(); err != nil {
		return nil, errors.Wrap(err, "base")
	}
	if err := overlay.Validate(); err != nil {
		return nil, errors.Wrap(err, "overlay")
	}
	if !base.SameSize(overlay) {
		return nil, errors.Wrapf(ErrSizeMismatch, "base %dx%d, overlay %dx%d",
			base.Width, base.Height, overlay.Width, overlay.Height)
	}
	if math.IsNaN(opacity) {
		opacity = 1
	}
	opacity = math.Max(0, math.Min(1, opacity))

	lut := table(fn, opacity)
	out := imaging.NewRaster(base.Width, base.Height)
	for i := 0; i < len(base.Pix); i += 4 {
		for c := 0; c < 3; c++ {
			out.Pix[i+c] = lut[int(base.Pix[i+c])<<8|int(overlay.Pix[i+c])]
		}
		out.Pix[i+3] = base.Pix[i+3]
	}
	return out, nil
}

// table precomputes the mixed result for every (base, overlay) byte pair.
func table(fn channelFunc, opacity float64) []byte {
	lut := make([]byte, 256*256)
	for a := 0; a < 256; a++ {
		fa := float64(a)
		for b := 0; b < 256; b++ {
			v := fa*(1-opacity) + fn(fa, float64(b))*opacity
			lut[a<<8|b] = byte(math.Max(0, math.Min(255, math.Round(v))))
		}
	}
	return lut
}
