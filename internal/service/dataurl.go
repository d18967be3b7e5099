package service

import (
	"encoding/base64"
	"regexp"
	"strings"

	"github.com/pkg/errors"

	"github.com/ironsheep/pixelator-mcp/internal/imaging"
)

// ErrInvalidDataURL is returned for strings that are not base64 image
// data URLs.
var ErrInvalidDataURL = errors.New("invalid data URL format")

var dataURLPattern = regexp.MustCompile(`(?is)^data:(image/[a-z0-9.+-]+);base64,(.+)$`)

// ParseDataURL splits a "data:image/<type>;base64,<payload>" string into
// its media type and decoded bytes.
func ParseDataURL(s string) (string, []byte, error) {
	m := dataURLPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return "", nil, ErrInvalidDataURL
	}

	payload := strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == ' ' || r == '\t' {
			return -1
		}
		return r
	}, m[2])

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		// Tolerate missing padding.
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		if err != nil {
			return "", nil, errors.Wrap(ErrInvalidDataURL, err.Error())
		}
	}
	return strings.ToLower(m[1]), data, nil
}

// FormatDataURL encodes data as a base64 data URL for format.
func FormatDataURL(format imaging.Format, data []byte) string {
	return "data:" + format.MimeType() + ";base64," + base64.StdEncoding.EncodeToString(data)
}
