// Package service is the boundary between the transports (MCP, HTTP, CLI)
// and the engine. It owns size and dimension limits, preview downscaling,
// and the encode step, and measures how long a request took.
package service

import (
	"image/color"
	"time"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"

	"github.com/ironsheep/pixelator-mcp/internal/config"
	"github.com/ironsheep/pixelator-mcp/internal/detection"
	raster "github.com/ironsheep/pixelator-mcp/internal/imaging"
	"github.com/ironsheep/pixelator-mcp/internal/pipeline"
)

// Mode selects the working resolution of a run.
type Mode string

// Process modes.
const (
	ModeFull    Mode = "full"
	ModePreview Mode = "preview"
)

var (
	// ErrImageTooLarge is returned when an encoded image exceeds the size
	// limit.
	ErrImageTooLarge = errors.New("image exceeds maximum size")

	// ErrDimensionLimit is returned when a source is wider or taller than
	// allowed.
	ErrDimensionLimit = errors.New("image dimensions exceed maximum")

	// ErrInvalidMode is returned for a mode other than full or preview.
	ErrInvalidMode = errors.New("invalid process mode")

	// ErrNoGrid is returned by GridOverlay when no size is given and none
	// can be detected.
	ErrNoGrid = errors.New("no grid detected")
)

// ParseMode validates a mode name. The empty string means ModeFull.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeFull:
		return ModeFull, nil
	case ModePreview:
		return ModePreview, nil
	default:
		return "", errors.Wrapf(pipeline.ErrValidation, "%v: %q", ErrInvalidMode, s)
	}
}

// Service runs requests against the engine under a fixed set of limits.
// It holds no per-request state and is safe for concurrent use.
type Service struct {
	maxImageSize        int64
	maxDimension        int
	previewMaxDimension int
}

// New returns a Service enforcing the limits in cfg.
func New(cfg config.Config) *Service {
	return &Service{
		maxImageSize:        cfg.MaxImageSize,
		maxDimension:        cfg.MaxDimension,
		previewMaxDimension: cfg.PreviewMaxDimension,
	}
}

// ProcessRequest describes one pipeline run.
type ProcessRequest struct {
	Source  []byte
	Steps   []pipeline.Step
	Mode    Mode
	Format  string
	Quality int
}

// ProcessResult is an encoded pipeline result.
type ProcessResult struct {
	Image          []byte
	Format         raster.Format
	Width          int
	Height         int
	StepsProcessed int
	Duration       time.Duration
}

// DataURL returns the result as a data URL.
func (r *ProcessResult) DataURL() string {
	return FormatDataURL(r.Format, r.Image)
}

// Decode checks data against the size and dimension limits and decodes it.
// Failures are attributed to the "original" step.
func (s *Service) Decode(data []byte) (*raster.Raster, error) {
	if s.maxImageSize > 0 && int64(len(data)) > s.maxImageSize {
		return nil, errors.Wrapf(ErrImageTooLarge, "%d bytes, limit %d", len(data), s.maxImageSize)
	}

	cfg, err := raster.DecodeConfig(data)
	if err != nil {
		return nil, sourceError(err)
	}
	if err := s.CheckDimensions(cfg.Width, cfg.Height); err != nil {
		return nil, err
	}

	r, _, err := raster.Decode(data)
	if err != nil {
		return nil, sourceError(err)
	}
	return r, nil
}

// CheckDimensions rejects a source that is empty or larger than the
// dimension limit.
func (s *Service) CheckDimensions(width, height int) error {
	if width <= 0 || height <= 0 {
		return sourceError(errors.Wrap(raster.ErrInvalidRaster, "unable to read image dimensions"))
	}
	if s.maxDimension > 0 && (width > s.maxDimension || height > s.maxDimension) {
		return sourceError(errors.Wrapf(ErrDimensionLimit, "%dx%d, limit %dpx", width, height, s.maxDimension))
	}
	return nil
}

func sourceError(err error) error {
	return &pipeline.StepError{StepID: pipeline.OriginalKey, Kind: pipeline.ErrProcessing, Err: err}
}

// Preview shrinks r so its longest side fits the preview limit. Smaller
// images are returned unchanged.
func (s *Service) Preview(r *raster.Raster) *raster.Raster {
	limit := s.previewMaxDimension
	if limit <= 0 || (r.Width <= limit && r.Height <= limit) {
		return r
	}
	return raster.FromNRGBA(imaging.Fit(r.NRGBA(), limit, limit, imaging.Lanczos))
}

// Process validates and runs a pipeline over an encoded source.
func (s *Service) Process(req ProcessRequest) (*ProcessResult, error) {
	return s.process(req, func() (*raster.Raster, error) {
		return s.Decode(req.Source)
	})
}

// ProcessRaster is Process for a source that is already decoded, such as
// one held in an ImageCache. req.Source is ignored.
func (s *Service) ProcessRaster(src *raster.Raster, req ProcessRequest) (*ProcessResult, error) {
	return s.process(req, func() (*raster.Raster, error) {
		if err := src.Validate(); err != nil {
			return nil, sourceError(err)
		}
		return src, s.CheckDimensions(src.Width, src.Height)
	})
}

func (s *Service) process(req ProcessRequest, source func() (*raster.Raster, error)) (*ProcessResult, error) {
	start := time.Now()

	if err := pipeline.Validate(req.Steps); err != nil {
		return nil, err
	}
	format, quality, err := pipeline.ValidateOutput(req.Format, req.Quality)
	if err != nil {
		return nil, err
	}
	mode, err := ParseMode(string(req.Mode))
	if err != nil {
		return nil, err
	}

	src, err := source()
	if err != nil {
		return nil, err
	}
	if mode == ModePreview {
		src = s.Preview(src)
	}

	res, err := pipeline.Encode(src, req.Steps, format, quality)
	if err != nil {
		return nil, err
	}
	return &ProcessResult{
		Image:          res.Image,
		Format:         res.Format,
		Width:          res.Width,
		Height:         res.Height,
		StepsProcessed: res.StepsProcessed,
		Duration:       time.Since(start),
	}, nil
}

// DetectGrid decodes data and estimates its block grid.
func (s *Service) DetectGrid(data []byte) (detection.GridResult, error) {
	r, err := s.Decode(data)
	if err != nil {
		return detection.GridResult{}, err
	}
	return detection.DetectGrid(r), nil
}

// OverlayResult is a PNG with grid lines drawn over it.
type OverlayResult struct {
	Image    []byte
	Format   raster.Format
	Width    int
	Height   int
	GridSize int

	// Detected is set when the grid size came from DetectGrid.
	Detected bool
}

// DataURL returns the overlay as a data URL.
func (r *OverlayResult) DataURL() string {
	return FormatDataURL(r.Format, r.Image)
}

// GridOverlay decodes data and draws a grid every gridSize pixels in the
// given color. A gridSize of 0 uses the detected grid.
func (s *Service) GridOverlay(data []byte, gridSize int, color string) (*OverlayResult, error) {
	c, err := detection.ParseColor(color)
	if err != nil {
		return nil, errors.Wrap(pipeline.ErrValidation, err.Error())
	}
	r, err := s.Decode(data)
	if err != nil {
		return nil, err
	}
	return Overlay(r, gridSize, c)
}

// Overlay draws a gridSize grid in c over r and encodes it as PNG. A
// gridSize of 0 uses the detected grid and fails with ErrNoGrid when
// there is none.
func Overlay(r *raster.Raster, gridSize int, c color.NRGBA) (*OverlayResult, error) {
	res := &OverlayResult{Format: raster.FormatPNG, GridSize: gridSize}
	if gridSize == 0 {
		g := detection.DetectGrid(r)
		if !g.Detected || g.GridSize == nil {
			return nil, sourceError(ErrNoGrid)
		}
		res.GridSize = *g.GridSize
		res.Detected = true
	}

	out, err := detection.GridOverlay(r, res.GridSize, c)
	if err != nil {
		if errors.Is(err, detection.ErrInvalidGridSpacing) {
			return nil, errors.Wrap(pipeline.ErrValidation, err.Error())
		}
		return nil, sourceError(err)
	}
	res.Image, err = raster.Encode(out, raster.FormatPNG, raster.DefaultQuality)
	if err != nil {
		return nil, sourceError(err)
	}
	res.Width, res.Height = out.Width, out.Height
	return res, nil
}
