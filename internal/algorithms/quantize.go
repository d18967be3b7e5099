package algorithms

import (
	"sort"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/pixelator-mcp/internal/imaging"
)

const (
	defaultColors = 16
	minColors     = 2
	maxColors     = 256
)

// swatch is one distinct source color and its pixel count.
type swatch struct {
	rgb   [3]uint8
	count int
}

// colorBox is a median-cut partition of the source colors.
type colorBox struct {
	swatches []swatch
}

// widest returns the channel with the largest value range and that range.
func (b colorBox) widest() (int, int) {
	lo := [3]uint8{255, 255, 255}
	var hi [3]uint8
	for _, s := range b.swatches {
		for c := 0; c < 3; c++ {
			lo[c] = min(lo[c], s.rgb[c])
			hi[c] = max(hi[c], s.rgb[c])
		}
	}
	channel, span := 0, -1
	for c := 0; c < 3; c++ {
		if r := int(hi[c]) - int(lo[c]); r > span {
			channel, span = c, r
		}
	}
	return channel, span
}

// split cuts b at the pixel-weighted median of channel. Both halves are
// non-empty; b must hold at least two swatches.
func (b colorBox) split(channel int) (colorBox, colorBox) {
	sort.Slice(b.swatches, func(i, j int) bool {
		si, sj := b.swatches[i], b.swatches[j]
		if si.rgb[channel] != sj.rgb[channel] {
			return si.rgb[channel] < sj.rgb[channel]
		}
		return packSwatch(si) < packSwatch(sj)
	})

	total := 0
	for _, s := range b.swatches {
		total += s.count
	}

	cut, seen := 1, 0
	for i, s := range b.swatches {
		seen += s.count
		if seen*2 >= total {
			cut = i + 1
			break
		}
	}
	cut = clamp(cut, 1, len(b.swatches)-1)
	return colorBox{b.swatches[:cut]}, colorBox{b.swatches[cut:]}
}

// mean is the pixel-weighted average color of the box.
func (b colorBox) mean() [3]uint8 {
	var sum [3]float64
	total := 0
	for _, s := range b.swatches {
		for c := 0; c < 3; c++ {
			sum[c] += float64(s.rgb[c]) * float64(s.count)
		}
		total += s.count
	}
	var out [3]uint8
	for c := 0; c < 3; c++ {
		out[c] = toByte(sum[c] / float64(total))
	}
	return out
}

func packSwatch(s swatch) uint32 {
	return uint32(s.rgb[0])<<16 | uint32(s.rgb[1])<<8 | uint32(s.rgb[2])
}

// medianCut reduces hist to at most n representative colors.
func medianCut(hist map[uint32]int, n int) [][3]uint8 {
	all := make([]swatch, 0, len(hist))
	for k, count := range hist {
		all = append(all, swatch{rgb: [3]uint8{uint8(k >> 16), uint8(k >> 8), uint8(k)}, count: count})
	}
	// Map iteration order is random; sort for a deterministic palette.
	sort.Slice(all, func(i, j int) bool { return packSwatch(all[i]) < packSwatch(all[j]) })

	boxes := []colorBox{{swatches: all}}
	for len(boxes) < n {
		best, bestChannel, bestSpan := -1, 0, 0
		for i, b := range boxes {
			if len(b.swatches) < 2 {
				continue
			}
			if c, span := b.widest(); span > bestSpan {
				best, bestChannel, bestSpan = i, c, span
			}
		}
		if best < 0 {
			break
		}
		left, right := boxes[best].split(bestChannel)
		boxes[best] = left
		boxes = append(boxes, right)
	}

	palette := make([][3]uint8, len(boxes))
	for i, b := range boxes {
		palette[i] = b.mean()
	}
	return palette
}

// labPalette matches colors to the perceptually nearest palette entry.
type labPalette struct {
	rgb   [][3]uint8
	lab   [][3]float64
	cache map[uint32]int
}

func newLabPalette(palette [][3]uint8) *labPalette {
	p := &labPalette{rgb: palette, lab: make([][3]float64, len(palette)), cache: make(map[uint32]int)}
	for i, c := range palette {
		l, a, b := toColorful(c[0], c[1], c[2]).Lab()
		p.lab[i] = [3]float64{l, a, b}
	}
	return p
}

func toColorful(r, g, b uint8) colorful.Color {
	return colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
}

// nearest returns the index of the palette entry closest to (r, g, b) in
// CIE-Lab.
func (p *labPalette) nearest(r, g, b uint8) int {
	key := uint32(r)<<16 | uint32(g)<<8 | uint32(b)
	if idx, ok := p.cache[key]; ok {
		return idx
	}

	l, a, bb := toColorful(r, g, b).Lab()
	best, bestDist := 0, -1.0
	for i, c := range p.lab {
		dl, da, db := l-c[0], a-c[1], bb-c[2]
		d := dl*dl + da*da + db*db
		if bestDist < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	p.cache[key] = best
	return best
}

// quantize reduces src to at most n distinct RGB values using a median-cut
// palette. With dither, the residual against the chosen palette color is
// diffused Floyd-Steinberg style. Alpha is copied.
func quantize(src *imaging.Raster, params Params) (*imaging.Raster, error) {
	n := params.Int("colors", defaultColors, minColors, maxColors)
	dither := params.Bool("dither", true)

	hist := imaging.Histogram(src)
	if len(hist) <= n {
		return src.Clone(), nil
	}

	pal := newLabPalette(medianCut(hist, n))
	if dither {
		return pal.diffuse(src), nil
	}

	out := src.Clone()
	for i := 0; i < len(out.Pix); i += 4 {
		c := pal.rgb[pal.nearest(out.Pix[i], out.Pix[i+1], out.Pix[i+2])]
		copy(out.Pix[i:i+3], c[:])
	}
	return out, nil
}

func (p *labPalette) diffuse(src *imaging.Raster) *imaging.Raster {
	w, h := src.Width, src.Height
	acc := make([]float32, w*h*3)
	for i := 0; i < w*h; i++ {
		for c := 0; c < 3; c++ {
			acc[i*3+c] = float32(src.Pix[i*4+c])
		}
	}

	out := src.Clone()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			// Clamp first so the residual stays bounded.
			for c := 0; c < 3; c++ {
				acc[i*3+c] = float32(clampFloat(float64(acc[i*3+c]), 0, 255))
			}
			r := toByte(float64(acc[i*3]))
			g := toByte(float64(acc[i*3+1]))
			b := toByte(float64(acc[i*3+2]))
			chosen := p.rgb[p.nearest(r, g, b)]
			copy(out.Pix[i*4:i*4+3], chosen[:])

			for c := 0; c < 3; c++ {
				residual := acc[i*3+c] - float32(chosen[c])
				if residual == 0 {
					continue
				}
				for _, s := range floydSteinberg {
					nx, ny := x+s.dx, y+s.dy
					if nx < 0 || nx >= w || ny >= h {
						continue
					}
					acc[(ny*w+nx)*3+c] += residual * s.weight
				}
			}
		}
	}
	return out
}
