package detection

import (
	"image/color"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/go-playground/colors.v1"

	"github.com/ironsheep/pixelator-mcp/internal/imaging"
)

// DefaultOverlayColor is semi-transparent red.
const DefaultOverlayColor = "#FF000080"

// ErrInvalidGridSpacing is returned for a grid spacing below 2.
var ErrInvalidGridSpacing = errors.New("grid spacing must be at least 2")

// ParseColor reads a color as #rgb, #rrggbb, #rrggbbaa, rgb(...) or
// rgba(...). The empty string gives DefaultOverlayColor.
func ParseColor(spec string) (color.NRGBA, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		spec = DefaultOverlayColor
	}

	// colors.v1 only knows 3 and 6 digit hex, so split off an alpha byte.
	if strings.HasPrefix(spec, "#") && len(spec) == 9 {
		a, err := strconv.ParseUint(spec[7:], 16, 8)
		if err != nil {
			return color.NRGBA{}, errors.Wrapf(err, "invalid color %q", spec)
		}
		c, err := ParseColor(spec[:7])
		if err != nil {
			return color.NRGBA{}, err
		}
		c.A = uint8(a)
		return c, nil
	}

	parsed, err := colors.Parse(strings.ToLower(spec))
	if err != nil {
		return color.NRGBA{}, errors.Wrapf(err, "invalid color %q", spec)
	}
	rgba := parsed.ToRGBA()
	return color.NRGBA{R: rgba.R, G: rgba.G, B: rgba.B, A: uint8(rgba.A*255 + 0.5)}, nil
}

// GridOverlay draws one-pixel grid lines every spacing pixels, alpha
// compositing c over r. Lines sit on the first pixel of each block after
// the first, so a block-aligned image shows its block boundaries. r is
// not modified.
func GridOverlay(r *imaging.Raster, spacing int, c color.NRGBA) (*imaging.Raster, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if spacing < 2 {
		return nil, errors.Wrapf(ErrInvalidGridSpacing, "got %d", spacing)
	}

	out := r.Clone()
	for y := 0; y < out.Height; y++ {
		onRow := y > 0 && y%spacing == 0
		for x := 0; x < out.Width; x++ {
			if onRow || (x > 0 && x%spacing == 0) {
				over(out.Pix[out.Offset(x, y):], c)
			}
		}
	}
	return out, nil
}

// over composites c onto the straight-alpha pixel at p[0:4].
func over(p []byte, c color.NRGBA) {
	sa := float64(c.A) / 255
	da := float64(p[3]) / 255
	oa := sa + da*(1-sa)
	if oa == 0 {
		p[0], p[1], p[2], p[3] = 0, 0, 0, 0
		return
	}
	mix := func(s, d byte) byte {
		v := (float64(s)*sa + float64(d)*da*(1-sa)) / oa
		return byte(v + 0.5)
	}
	p[0] = mix(c.R, p[0])
	p[1] = mix(c.G, p[1])
	p[2] = mix(c.B, p[2])
	p[3] = byte(oa*255 + 0.5)
}
