package algorithms

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Params is an algorithm's untyped parameter map, as decoded from JSON.
type Params map[string]any

// number coerces a parameter to a finite, non-zero float. Strings holding a
// number are accepted; anything else (missing, bool, NaN, garbage) reports
// false. An exact zero also reports false so it selects the default.
func (p Params) number(key string) (float64, bool) {
	v, ok := p[key]
	if !ok || v == nil {
		return 0, false
	}

	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint8:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}

	if f == 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Float returns key clamped to [lo, hi], or def when it is not numeric.
func (p Params) Float(key string, def, lo, hi float64) float64 {
	f, ok := p.number(key)
	if !ok {
		return def
	}
	return clampFloat(f, lo, hi)
}

// Int returns key rounded and clamped to [lo, hi], or def when it is not
// numeric.
func (p Params) Int(key string, def, lo, hi int) int {
	f, ok := p.number(key)
	if !ok {
		return def
	}
	return int(math.Round(clampFloat(f, float64(lo), float64(hi))))
}

// Seed returns key rounded to an integer and wrapped to 32 bits, or def.
func (p Params) Seed(key string, def uint32) uint32 {
	f, ok := p.number(key)
	if !ok {
		return def
	}
	// Values beyond int64 saturate instead of overflowing the conversion.
	f = clampFloat(math.Round(f), -9e18, 9e18)
	return uint32(int64(f))
}

// Bool returns key when it is a JSON boolean, else def.
func (p Params) Bool(key string, def bool) bool {
	if b, ok := p[key].(bool); ok {
		return b
	}
	return def
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

// toByte rounds and clamps a channel accumulator into 0..255.
func toByte(v float64) byte {
	return byte(clampFloat(math.Round(v), 0, 255))
}
