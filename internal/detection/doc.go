// Package detection analyzes pixel-art structure in rasters.
//
// DetectGrid estimates whether an image already follows a block grid and at
// what size. It measures, along each axis, how often neighboring pixels
// differ in color, keeps the positions where that rate is high, and looks
// for a dominant spacing between them. A spacing that alternates between N
// and N+1 (as left behind by rounded resizes) still counts as periodic.
//
// # Confidence
//
// The confidence of a detection depends on how the two axes agree:
//   - Both axes within one pixel: the mean of their consistencies.
//   - Both axes found but disagreeing: the more consistent one, times 0.7.
//   - One axis only: its consistency times 0.8.
//
// A detected grid always reports a confidence in [0.1, 1].
//
// GridOverlay draws the detected (or any) grid over an image for preview.
package detection
