package pipeline

import (
	"math"

	"github.com/pkg/errors"

	"github.com/ironsheep/pixelator-mcp/internal/algorithms"
	"github.com/ironsheep/pixelator-mcp/internal/blend"
	"github.com/ironsheep/pixelator-mcp/internal/imaging"
)

// Validate checks the shape of a pipeline before it runs: 1 to MaxSteps
// steps, non-empty unique ids other than "original", known algorithms and
// well-formed blend settings. References between steps are checked by Plan
// and, at run time, by Run.
func Validate(steps []Step) error {
	if len(steps) == 0 {
		return errors.Wrap(ErrValidation, "pipeline has no steps")
	}
	if len(steps) > MaxSteps {
		return errors.Wrapf(ErrValidation, "pipeline has %d steps, at most %d allowed", len(steps), MaxSteps)
	}

	seen := make(map[string]bool, len(steps))
	for i, s := range steps {
		if s.ID == "" {
			return errors.Wrapf(ErrValidation, "step %d has no id", i+1)
		}
		if s.ID == OriginalKey {
			return validationError(s.ID, errors.New("id is reserved for the source image"))
		}
		if seen[s.ID] {
			return validationError(s.ID, ErrDuplicateStep)
		}
		seen[s.ID] = true

		if !algorithms.Known(s.Algorithm) {
			return validationError(s.ID, &algorithms.UnknownKindError{Kind: s.Algorithm})
		}
		if err := validateBlend(s.BlendWith); err != nil {
			return validationError(s.ID, err)
		}
	}
	return nil
}

func validateBlend(b *BlendWith) error {
	if b == nil {
		return nil
	}
	if b.StepID == "" {
		return errors.Wrap(ErrUnknownBlendSource, "blendWith has no stepId")
	}
	if _, err := blend.ParseMode(string(b.Mode)); err != nil {
		return err
	}
	if math.IsNaN(b.Opacity) || b.Opacity < 0 || b.Opacity > 1 {
		return errors.Errorf("blend opacity %v outside [0,1]", b.Opacity)
	}
	return nil
}

// ValidateOutput checks an output format name and quality. A quality of 0
// selects imaging.DefaultQuality.
func ValidateOutput(format string, quality int) (imaging.Format, int, error) {
	f, err := imaging.ParseFormat(format)
	if err != nil {
		return "", 0, errors.Wrap(ErrValidation, err.Error())
	}
	if quality == 0 {
		quality = imaging.DefaultQuality
	}
	if quality < 1 || quality > 100 {
		return "", 0, errors.Wrapf(ErrValidation, "output quality %d outside [1,100]", quality)
	}
	return f, quality, nil
}
