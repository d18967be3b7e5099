package detection

import (
	"math"

	"github.com/ironsheep/pixelator-mcp/internal/imaging"
)

// Axis selects the direction FindPeriod scans along.
type Axis int

const (
	// Horizontal measures edges between neighboring columns.
	Horizontal Axis = iota
	// Vertical measures edges between neighboring rows.
	Vertical
)

func (a Axis) String() string {
	if a == Vertical {
		return "vertical"
	}
	return "horizontal"
}

// Tuning constants for periodicity analysis.
const (
	minScanLength    = 6
	maxSampledLines  = 2000
	edgeRateFraction = 0.25
	minPeakEdgeRate  = 0.05
	minEdges         = 3
	minConsistency   = 0.5

	disagreeWeight = 0.7
	singleWeight   = 0.8

	minConfidence = 0.1
	maxConfidence = 1.0
)

// PeriodResult is the dominant edge spacing along one axis.
type PeriodResult struct {
	// Size is the block size in pixels (>= 2).
	Size int `json:"size"`

	// Consistency is the fraction of edge gaps within ±1 of the modal gap.
	Consistency float64 `json:"consistency"`
}

// GridResult is the outcome of DetectGrid. GridSize is nil and Confidence
// is 0 when no grid was found; otherwise Confidence is in [0.1, 1].
type GridResult struct {
	Detected   bool    `json:"detected"`
	GridSize   *int    `json:"gridSize"`
	Confidence float64 `json:"confidence"`

	Horizontal *PeriodResult `json:"horizontal,omitempty"`
	Vertical   *PeriodResult `json:"vertical,omitempty"`
}

// DetectGrid estimates the block size of a pixel-art image from the spacing
// of color changes along both axes. It never fails: an unreadable raster or
// a lack of periodic structure yields Detected false.
func DetectGrid(r *imaging.Raster) GridResult {
	if r.Validate() != nil {
		return GridResult{}
	}

	h, hok := FindPeriod(r, Horizontal)
	v, vok := FindPeriod(r, Vertical)

	var res GridResult
	if hok {
		res.Horizontal = &h
	}
	if vok {
		res.Vertical = &v
	}

	var size int
	var confidence float64
	switch {
	case hok && vok && abs(h.Size-v.Size) <= 1:
		size = int(math.Round(float64(h.Size+v.Size) / 2))
		confidence = (h.Consistency + v.Consistency) / 2
	case hok && vok:
		pick := h
		if v.Consistency > h.Consistency {
			pick = v
		}
		size = pick.Size
		confidence = pick.Consistency * disagreeWeight
	case hok:
		size, confidence = h.Size, h.Consistency*singleWeight
	case vok:
		size, confidence = v.Size, v.Consistency*singleWeight
	default:
		return res
	}

	res.Detected = true
	res.GridSize = &size
	res.Confidence = math.Max(minConfidence, math.Min(maxConfidence, confidence))
	return res
}

// FindPeriod looks for a regular spacing of color edges along axis.
//
// For each position i along the axis, the edge rate is the fraction of
// sampled perpendicular lines where pixel i differs from pixel i-1 in any
// RGB channel. Positions with a rate above a quarter of the peak are
// edges; the most common gap between consecutive edges gives the period.
// Large images sample every n-th perpendicular line, but neighbors along
// the axis are always compared at full resolution.
func FindPeriod(r *imaging.Raster, axis Axis) (PeriodResult, bool) {
	length, other := r.Width, r.Height
	if axis == Vertical {
		length, other = other, length
	}
	if length < minScanLength {
		return PeriodResult{}, false
	}

	rates := edgeRates(r, axis, length, other)

	peak := 0.0
	for _, rate := range rates {
		peak = math.Max(peak, rate)
	}
	if peak < minPeakEdgeRate {
		return PeriodResult{}, false
	}

	threshold := edgeRateFraction * peak
	var edges []int
	for i := 1; i < length; i++ {
		if rates[i] > threshold {
			edges = append(edges, i)
		}
	}
	if len(edges) < minEdges {
		return PeriodResult{}, false
	}

	gaps := make([]int, len(edges)-1)
	for i := 1; i < len(edges); i++ {
		gaps[i-1] = edges[i] - edges[i-1]
	}

	mode, ok := modalGap(gaps)
	if !ok {
		return PeriodResult{}, false
	}

	near, sum := 0, 0
	for _, g := range gaps {
		if abs(g-mode) <= 1 {
			near++
			sum += g
		}
	}
	consistency := float64(near) / float64(len(gaps))
	if consistency < minConsistency {
		return PeriodResult{}, false
	}

	size := int(math.Round(float64(sum) / float64(near)))
	if size < 2 {
		return PeriodResult{}, false
	}
	return PeriodResult{Size: size, Consistency: consistency}, true
}

// edgeRates returns, for each position 1..length-1, the fraction of sampled
// lines with a color change at that position. Index 0 is unused.
func edgeRates(r *imaging.Raster, axis Axis, length, other int) []float64 {
	step := max(1, other/maxSampledLines)
	changes := make([]int, length)
	lines := 0

	for j := 0; j < other; j += step {
		lines++
		for i := 1; i < length; i++ {
			var a, b int
			if axis == Horizontal {
				a, b = r.Offset(i-1, j), r.Offset(i, j)
			} else {
				a, b = r.Offset(j, i-1), r.Offset(j, i)
			}
			if r.Pix[a] != r.Pix[b] || r.Pix[a+1] != r.Pix[b+1] || r.Pix[a+2] != r.Pix[b+2] {
				changes[i]++
			}
		}
	}

	rates := make([]float64, length)
	for i := 1; i < length; i++ {
		rates[i] = float64(changes[i]) / float64(lines)
	}
	return rates
}

// modalGap returns the most frequent gap of at least 2. Ties go to the
// value seen first.
func modalGap(gaps []int) (int, bool) {
	counts := make(map[int]int)
	var order []int
	for _, g := range gaps {
		if g < 2 {
			continue
		}
		if counts[g] == 0 {
			order = append(order, g)
		}
		counts[g]++
	}

	best, bestCount := 0, 0
	for _, g := range order {
		if counts[g] > bestCount {
			best, bestCount = g, counts[g]
		}
	}
	return best, bestCount > 0
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
