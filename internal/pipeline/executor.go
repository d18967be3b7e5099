package pipeline

import (
	"time"

	resize "github.com/disintegration/imaging"
	"github.com/pkg/errors"

	"github.com/ironsheep/pixelator-mcp/internal/algorithms"
	"github.com/ironsheep/pixelator-mcp/internal/blend"
	"github.com/ironsheep/pixelator-mcp/internal/imaging"
	"github.com/ironsheep/pixelator-mcp/internal/logging"
)

// Output is the final raster of a run.
type Output struct {
	Raster         *imaging.Raster
	StepsProcessed int

	// LastStep is the id of the step that produced Raster, or OriginalKey
	// when every step was disabled.
	LastStep string
}

// Result is an encoded pipeline result.
type Result struct {
	Image          []byte
	Format         imaging.Format
	StepsProcessed int
	Width          int
	Height         int
}

// Run executes steps in list order against src. Each enabled step reads
// its input from the context, optionally blends over an earlier result and
// stores its output under its own id. The first failure aborts the run and
// no partial result is returned.
//
// Run does not modify src.
func Run(src *imaging.Raster, steps []Step) (*Output, error) {
	if err := src.Validate(); err != nil {
		return nil, processingError(OriginalKey, err)
	}

	log := logging.Logger()
	ctx := newContext(src)
	out := &Output{Raster: src, LastStep: OriginalKey}

	for _, step := range steps {
		if !step.Enabled {
			log.Debug("step skipped", "step", step.ID, "algorithm", string(step.Algorithm))
			continue
		}
		if step.ID == OriginalKey {
			return nil, validationError(step.ID, errors.Wrap(ErrDuplicateStep, "id is reserved"))
		}

		start := time.Now()
		result, err := runStep(ctx, step)
		if err != nil {
			return nil, err
		}
		if err := ctx.put(step.ID, result); err != nil {
			return nil, validationError(step.ID, err)
		}

		out.Raster = result
		out.LastStep = step.ID
		out.StepsProcessed++

		blendFrom := ""
		if step.BlendWith != nil {
			blendFrom = step.BlendWith.StepID
		}
		log.Debug("step processed",
			"step", step.ID,
			"algorithm", string(step.Algorithm),
			"input", step.Input(),
			"blend", blendFrom,
			"elapsed", time.Since(start),
		)
	}
	return out, nil
}

func runStep(ctx *Context, step Step) (*imaging.Raster, error) {
	input, ok := ctx.Get(step.Input())
	if !ok {
		return nil, validationError(step.ID, errors.Wrapf(ErrUnknownInput, "references %q", step.Input()))
	}

	fn, ok := algorithms.Lookup(step.Algorithm)
	if !ok {
		return nil, validationError(step.ID, &algorithms.UnknownKindError{Kind: step.Algorithm})
	}
	output, err := fn(input, step.Params)
	if err != nil {
		return nil, &StepError{StepID: step.ID, Kind: classify(err), Err: err}
	}

	if step.BlendWith == nil {
		return output, nil
	}

	base, ok := ctx.Get(step.BlendWith.StepID)
	if !ok {
		return nil, validationError(step.ID, errors.Wrapf(ErrUnknownBlendSource, "references %q", step.BlendWith.StepID))
	}
	mode, err := blend.ParseMode(string(step.BlendWith.Mode))
	if err != nil {
		return nil, validationError(step.ID, err)
	}
	if !base.SameSize(output) {
		base = fit(base, output.Width, output.Height)
	}

	blended, err := blend.Apply(base, output, mode, step.BlendWith.Opacity)
	if err != nil {
		return nil, &StepError{StepID: step.ID, Kind: classify(err), Err: err}
	}
	return blended, nil
}

// fit stretches r to w×h with nearest-neighbor sampling.
func fit(r *imaging.Raster, w, h int) *imaging.Raster {
	return imaging.FromNRGBA(resize.Resize(r.NRGBA(), w, h, resize.NearestNeighbor))
}

// Execute decodes source, runs steps and encodes the final raster.
// Decode failures are attributed to "original" and encode failures to the
// last step that ran.
func Execute(source []byte, steps []Step, format imaging.Format, quality int) (*Result, error) {
	src, _, err := imaging.Decode(source)
	if err != nil {
		return nil, processingError(OriginalKey, err)
	}
	return Encode(src, steps, format, quality)
}

// Encode runs steps against an already decoded source and encodes the
// result.
func Encode(src *imaging.Raster, steps []Step, format imaging.Format, quality int) (*Result, error) {
	out, err := Run(src, steps)
	if err != nil {
		return nil, err
	}
	if format == "" {
		format = imaging.FormatPNG
	}

	data, err := imaging.Encode(out.Raster, format, quality)
	if err != nil {
		return nil, processingError(out.LastStep, err)
	}
	return &Result{
		Image:          data,
		Format:         format,
		StepsProcessed: out.StepsProcessed,
		Width:          out.Raster.Width,
		Height:         out.Raster.Height,
	}, nil
}
