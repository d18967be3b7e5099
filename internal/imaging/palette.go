package imaging

import (
	"sort"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// RGBColor represents an RGB color with 8-bit components.
type RGBColor struct {
	R uint8 `json:"r"` // Red component (0-255)
	G uint8 `json:"g"` // Green component (0-255)
	B uint8 `json:"b"` // Blue component (0-255)
}

// HSLColor represents a color in HSL (Hue, Saturation, Lightness) color space.
type HSLColor struct {
	H int `json:"h"` // Hue: 0-360 degrees (0=red, 120=green, 240=blue)
	S int `json:"s"` // Saturation: 0-100 percent (0=gray, 100=vivid)
	L int `json:"l"` // Lightness: 0-100 percent (0=black, 50=normal, 100=white)
}

// ColorFrequency represents an exact color and how often it occurs.
type ColorFrequency struct {
	Hex        string   `json:"hex"`        // Hex color "#rrggbb"
	RGB        RGBColor `json:"rgb"`        // RGB components
	HSL        HSLColor `json:"hsl"`        // HSL representation
	Count      int      `json:"count"`      // Number of pixels with this color
	Percentage float64  `json:"percentage"` // Share of all pixels (0-100)
}

// PaletteResult summarizes the colors used by a raster.
type PaletteResult struct {
	// DistinctColors is the number of distinct RGB values (alpha ignored).
	DistinctColors int `json:"distinct_colors"`

	// Colors lists the most frequent colors, most common first.
	Colors []ColorFrequency `json:"colors"`
}

func packRGB(r, g, b uint8) uint32 {
	return uint32(r)<<16 | uint32(g)<<8 | uint32(b)
}

func unpackRGB(k uint32) (uint8, uint8, uint8) {
	return uint8(k >> 16), uint8(k >> 8), uint8(k)
}

// Histogram counts every distinct RGB value in r, keyed as 0xRRGGBB.
// Alpha is ignored.
func Histogram(r *Raster) map[uint32]int {
	counts := make(map[uint32]int)
	for i := 0; i+3 < len(r.Pix); i += 4 {
		counts[packRGB(r.Pix[i], r.Pix[i+1], r.Pix[i+2])]++
	}
	return counts
}

// CountColors returns the number of distinct RGB values in r.
func CountColors(r *Raster) int {
	return len(Histogram(r))
}

// DominantColors returns the palette of r with its count most common exact
// colors. Ties are broken by color value so the result is deterministic.
func DominantColors(r *Raster, count int) *PaletteResult {
	hist := Histogram(r)
	total := r.Width * r.Height

	keys := make([]uint32, 0, len(hist))
	for k := range hist {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if hist[keys[i]] != hist[keys[j]] {
			return hist[keys[i]] > hist[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if count > 0 && len(keys) > count {
		keys = keys[:count]
	}

	colors := make([]ColorFrequency, 0, len(keys))
	for _, k := range keys {
		red, green, blue := unpackRGB(k)
		c := colorful.Color{R: float64(red) / 255, G: float64(green) / 255, B: float64(blue) / 255}
		h, s, l := c.Hsl()
		colors = append(colors, ColorFrequency{
			Hex:        c.Hex(),
			RGB:        RGBColor{R: red, G: green, B: blue},
			HSL:        HSLColor{H: int(h), S: int(s * 100), L: int(l * 100)},
			Count:      hist[k],
			Percentage: float64(hist[k]) / float64(total) * 100,
		})
	}

	return &PaletteResult{DistinctColors: len(hist), Colors: colors}
}
