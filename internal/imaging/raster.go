package imaging

import (
	"image"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

// ErrInvalidRaster is returned when a raster's dimensions cannot be read or
// do not match its pixel buffer.
var ErrInvalidRaster = errors.New("unable to read image dimensions")

// Raster is a decoded image in the engine's only internal layout: 8-bit
// non-premultiplied RGBA, row-major, 4 bytes per pixel, no row padding.
//
// Invariant: len(Pix) == Width*Height*4.
//
// A Raster produced by an operation is never modified afterwards. Every
// transform reads its input and returns a freshly allocated Raster, so one
// result can safely feed any number of later operations.
type Raster struct {
	// Width is the image width in pixels.
	Width int

	// Height is the image height in pixels.
	Height int

	// Pix holds the pixels as R, G, B, A bytes.
	Pix []byte
}

// NewRaster allocates a zeroed (transparent black) raster.
func NewRaster(width, height int) *Raster {
	return &Raster{
		Width:  width,
		Height: height,
		Pix:    make([]byte, width*height*4),
	}
}

// Validate reports ErrInvalidRaster if r is nil, empty, or its buffer length
// disagrees with its dimensions.
func (r *Raster) Validate() error {
	if r == nil {
		return errors.Wrap(ErrInvalidRaster, "nil raster")
	}
	if r.Width <= 0 || r.Height <= 0 {
		return errors.Wrapf(ErrInvalidRaster, "dimensions %dx%d", r.Width, r.Height)
	}
	if len(r.Pix) != r.Width*r.Height*4 {
		return errors.Wrapf(ErrInvalidRaster, "buffer holds %d bytes, %dx%d needs %d",
			len(r.Pix), r.Width, r.Height, r.Width*r.Height*4)
	}
	return nil
}

// Offset returns the index of the red byte of pixel (x, y).
func (r *Raster) Offset(x, y int) int {
	return (y*r.Width + x) * 4
}

// SameSize reports whether r and o have identical dimensions.
func (r *Raster) SameSize(o *Raster) bool {
	return r.Width == o.Width && r.Height == o.Height
}

// Clone returns a deep copy of r.
func (r *Raster) Clone() *Raster {
	pix := make([]byte, len(r.Pix))
	copy(pix, r.Pix)
	return &Raster{Width: r.Width, Height: r.Height, Pix: pix}
}

// NRGBA exposes r as an *image.NRGBA sharing the same pixel buffer.
// The returned image must be treated as read-only.
func (r *Raster) NRGBA() *image.NRGBA {
	return &image.NRGBA{
		Pix:    r.Pix,
		Stride: r.Width * 4,
		Rect:   image.Rect(0, 0, r.Width, r.Height),
	}
}

// Opaque reports whether every pixel has alpha 255.
func (r *Raster) Opaque() bool {
	for i := 3; i < len(r.Pix); i += 4 {
		if r.Pix[i] != 0xff {
			return false
		}
	}
	return true
}

// FromImage normalizes any decoded image into a Raster. Palette, gray,
// YCbCr, 16-bit and premultiplied sources are all converted to 8-bit
// straight-alpha RGBA; sources without alpha come out fully opaque.
func FromImage(img image.Image) *Raster {
	return FromNRGBA(imaging.Clone(img))
}

// FromNRGBA copies an *image.NRGBA into a compact Raster anchored at (0,0).
func FromNRGBA(img *image.NRGBA) *Raster {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := NewRaster(w, h)
	rowLen := w * 4
	for y := 0; y < h; y++ {
		src := img.PixOffset(b.Min.X, b.Min.Y+y)
		copy(out.Pix[y*rowLen:(y+1)*rowLen], img.Pix[src:src+rowLen])
	}
	return out
}
