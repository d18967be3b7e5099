package imaging

import (
	"bytes"
	"image"
	_ "image/gif" // Register GIF format decoder
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// Codec errors. Both are processing failures for callers.
var (
	ErrDecode            = errors.New("failed to decode image")
	ErrEncode            = errors.New("failed to encode image")
	ErrUnsupportedFormat = errors.New("unsupported output format")
)

// Format is an output encoding.
type Format string

// Supported output formats.
const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
	FormatWebP Format = "webp"
)

// DefaultQuality is used for JPEG/WebP when the caller gives none.
const DefaultQuality = 90

// ParseFormat normalizes a format name. The empty string means PNG and
// "jpg" is accepted for JPEG.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "png":
		return FormatPNG, nil
	case "jpg", "jpeg":
		return FormatJPEG, nil
	case "webp":
		return FormatWebP, nil
	default:
		return "", errors.Wrapf(ErrUnsupportedFormat, "%q", name)
	}
}

// MimeType returns the media type for f.
func (f Format) MimeType() string {
	switch f {
	case FormatJPEG:
		return "image/jpeg"
	case FormatWebP:
		return "image/webp"
	default:
		return "image/png"
	}
}

// Config describes an encoded image without decoding its pixels.
type Config struct {
	Width  int
	Height int
	Format string
}

// DecodeConfig reads only the header of an encoded image.
func DecodeConfig(data []byte) (*Config, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(ErrDecode, err.Error())
	}
	return &Config{Width: cfg.Width, Height: cfg.Height, Format: format}, nil
}

// Decode decodes PNG, JPEG, GIF, WebP, BMP or TIFF bytes into a normalized
// Raster. EXIF orientation is applied so the raster is upright.
//
// Returns the raster and the detected format name.
func Decode(data []byte) (*Raster, string, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", errors.Wrap(ErrDecode, err.Error())
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, "", errors.Wrap(ErrDecode, err.Error())
	}

	r := FromImage(img)
	if err := r.Validate(); err != nil {
		return nil, "", err
	}
	return r, format, nil
}

// Encode encodes r in the given format. quality (1-100) applies to JPEG;
// PNG is lossless and the WebP encoder only produces lossless output, so
// both ignore it.
func Encode(r *Raster, format Format, quality int) ([]byte, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if quality < 1 || quality > 100 {
		quality = DefaultQuality
	}

	var buf bytes.Buffer
	var err error
	switch format {
	case FormatPNG, "":
		err = imaging.Encode(&buf, r.NRGBA(), imaging.PNG)
	case FormatJPEG:
		err = imaging.Encode(&buf, r.NRGBA(), imaging.JPEG, imaging.JPEGQuality(quality))
	case FormatWebP:
		err = nativewebp.Encode(&buf, r.NRGBA(), nil)
	default:
		return nil, errors.Wrapf(ErrUnsupportedFormat, "%q", string(format))
	}
	if err != nil {
		return nil, errors.Wrapf(ErrEncode, "%s: %v", format, err)
	}
	return buf.Bytes(), nil
}
