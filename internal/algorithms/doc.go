// Package algorithms implements the stylization transforms: two pixelation
// modes, three dithering modes, palette quantization, seeded jitter and
// Sobel edge detection.
//
// Every transform maps a Raster and an untyped parameter map to a new
// Raster of the same dimensions. Parameters never cause errors: numeric
// values are rounded and clamped to their documented range, and missing or
// non-numeric values take the default. See Catalog for the ranges.
//
// Transforms are pure and stateless, so any of them may run concurrently.
package algorithms
