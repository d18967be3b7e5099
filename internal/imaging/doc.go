// Package imaging holds the raster type shared by every stage of the
// pipeline and the codec boundary around it.
//
// # Raster
//
// A Raster is a width×height grid of straight-alpha RGBA8 pixels stored row
// major with no padding. Any decoded image, whatever its color model, is
// normalized to this layout by FromImage. (0,0) is the top-left pixel.
//
// # Codecs
//
// Decode accepts PNG, JPEG, GIF, BMP, TIFF and WebP. JPEG orientation tags
// are applied while decoding. Encode writes PNG, JPEG (with quality) or
// lossless WebP, for which quality is ignored.
//
// # Caching
//
// ImageCache keeps decoded rasters keyed by path for the MCP tools, which
// address images by file. It is safe for concurrent use. Rasters handed
// out by the cache are shared and must be treated as read-only, which every
// algorithm in this module already guarantees.
//
// # Palette Statistics
//
// Histogram, CountColors and DominantColors report the colors a raster
// uses, ignoring alpha. Colors are reported as "#rrggbb", RGB and HSL
// (hue 0-360, saturation and lightness 0-100).
package imaging
