package pipeline

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/ironsheep/pixelator-mcp/internal/algorithms"
	"github.com/ironsheep/pixelator-mcp/internal/blend"
	"github.com/ironsheep/pixelator-mcp/internal/imaging"
)

// Error classes. Every error returned by this package matches exactly one
// of them through errors.Is.
var (
	ErrValidation = errors.New("invalid pipeline")
	ErrProcessing = errors.New("processing failed")
)

// Causes carried inside a StepError.
var (
	ErrUnknownInput       = errors.New("unknown input")
	ErrUnknownBlendSource = errors.New("unknown blend source")
	ErrDuplicateStep      = errors.New("duplicate step id")
)

// StepError attributes a failure to one step. StepID is "original" when the
// source image itself could not be read.
type StepError struct {
	StepID string
	Kind   error // ErrValidation or ErrProcessing
	Err    error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %q: %v", e.StepID, e.Err)
}

// Unwrap exposes the underlying cause.
func (e *StepError) Unwrap() error { return e.Err }

// Is matches the error class.
func (e *StepError) Is(target error) bool { return target == e.Kind }

func validationError(stepID string, err error) *StepError {
	return &StepError{StepID: stepID, Kind: ErrValidation, Err: err}
}

func processingError(stepID string, err error) *StepError {
	return &StepError{StepID: stepID, Kind: ErrProcessing, Err: err}
}

// classify picks the class for an error raised by a lower layer.
func classify(err error) error {
	var unknown *algorithms.UnknownKindError
	switch {
	case errors.As(err, &unknown), errors.Is(err, blend.ErrUnknownMode):
		return ErrValidation
	default:
		return ErrProcessing
	}
}

// IsValidation reports whether err is a pipeline validation failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsProcessing reports whether err is a processing failure, including raw
// codec and raster errors that never passed through a step.
func IsProcessing(err error) bool {
	return errors.Is(err, ErrProcessing) ||
		errors.Is(err, imaging.ErrInvalidRaster) ||
		errors.Is(err, imaging.ErrDecode) ||
		errors.Is(err, imaging.ErrEncode)
}

// FailedStep returns the id of the step err is attributed to, if any.
func FailedStep(err error) (string, bool) {
	var se *StepError
	if errors.As(err, &se) {
		return se.StepID, true
	}
	return "", false
}
