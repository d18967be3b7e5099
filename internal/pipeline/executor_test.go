package pipeline

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/pixelator-mcp/internal/algorithms"
	"github.com/ironsheep/pixelator-mcp/internal/blend"
	"github.com/ironsheep/pixelator-mcp/internal/imaging"
)

func noise(w, h int) *imaging.Raster {
	rng := rand.New(rand.NewSource(11))
	r := imaging.NewRaster(w, h)
	for i := 0; i < len(r.Pix); i += 4 {
		r.Pix[i] = byte(rng.Intn(256))
		r.Pix[i+1] = byte(rng.Intn(256))
		r.Pix[i+2] = byte(rng.Intn(256))
		r.Pix[i+3] = 255
	}
	return r
}

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{uint8(x), uint8(y), 128, 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func step(id string, kind algorithms.Kind, input string) Step {
	return Step{ID: id, Algorithm: kind, InputSource: input, Enabled: true}
}

func TestExecute_EndToEnd(t *testing.T) {
	steps := []Step{{
		ID:          "a",
		Algorithm:   algorithms.BlockAverage,
		Params:      algorithms.Params{"blockSize": 16},
		InputSource: OriginalKey,
		Enabled:     true,
	}}

	res, err := Execute(encodePNG(t, 256, 256), steps, imaging.FormatPNG, 90)
	require.NoError(t, err)
	assert.Equal(t, 1, res.StepsProcessed)
	assert.Equal(t, 256, res.Width)
	assert.Equal(t, 256, res.Height)
	assert.Equal(t, imaging.FormatPNG, res.Format)

	cfg, err := imaging.DecodeConfig(res.Image)
	require.NoError(t, err)
	assert.Equal(t, 256, cfg.Width)
	assert.Equal(t, "png", cfg.Format)
}

func TestExecute_OutputFormats(t *testing.T) {
	src := encodePNG(t, 20, 10)
	steps := []Step{step("a", algorithms.DitherBayer, "")}

	for _, f := range []imaging.Format{imaging.FormatJPEG, imaging.FormatWebP, ""} {
		res, err := Execute(src, steps, f, 75)
		require.NoError(t, err, f)
		cfg, err := imaging.DecodeConfig(res.Image)
		require.NoError(t, err)
		assert.Equal(t, string(res.Format), cfg.Format)
	}
}

func TestExecute_DecodeFailure(t *testing.T) {
	_, err := Execute([]byte("nope"), []Step{step("a", algorithms.Jitter, "")}, imaging.FormatPNG, 90)
	require.Error(t, err)
	assert.True(t, IsProcessing(err))
	assert.False(t, IsValidation(err))

	id, ok := FailedStep(err)
	require.True(t, ok)
	assert.Equal(t, OriginalKey, id)
}

func TestEncode_UnsupportedFormat(t *testing.T) {
	steps := []Step{step("a", algorithms.Jitter, ""), step("b", algorithms.EdgeDetect, "a")}
	_, err := Encode(noise(4, 4), steps, imaging.Format("bmp"), 90)
	require.Error(t, err)
	assert.True(t, IsProcessing(err))
	assert.True(t, errors.Is(err, imaging.ErrUnsupportedFormat))

	id, _ := FailedStep(err)
	assert.Equal(t, "b", id)
}

func TestRun_ReferenceErrors(t *testing.T) {
	tcs := map[string]struct {
		steps  []Step
		failed string
		cause  error
	}{
		"unknown input": {
			steps:  []Step{step("a", algorithms.Jitter, ""), step("b", algorithms.Jitter, "ghost")},
			failed: "b",
			cause:  ErrUnknownInput,
		},
		"forward input": {
			steps:  []Step{step("a", algorithms.Jitter, "b"), step("b", algorithms.Jitter, "")},
			failed: "a",
			cause:  ErrUnknownInput,
		},
		"unknown blend source": {
			steps: []Step{{
				ID: "a", Algorithm: algorithms.Quantize, Enabled: true,
				BlendWith: &BlendWith{StepID: "ghost", Mode: blend.Normal, Opacity: 1},
			}},
			failed: "a",
			cause:  ErrUnknownBlendSource,
		},
		"duplicate id": {
			steps:  []Step{step("a", algorithms.Jitter, ""), step("a", algorithms.Jitter, "")},
			failed: "a",
			cause:  ErrDuplicateStep,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			out, err := Run(noise(8, 8), tc.steps)
			require.Error(t, err)
			assert.Nil(t, out, "no partial result")
			assert.True(t, IsValidation(err))
			assert.True(t, errors.Is(err, tc.cause), "got %v", err)
			assert.Contains(t, err.Error(), `step "`+tc.failed+`"`)

			id, ok := FailedStep(err)
			require.True(t, ok)
			assert.Equal(t, tc.failed, id)
		})
	}
}

func TestRun_UnknownAlgorithm(t *testing.T) {
	_, err := Run(noise(4, 4), []Step{step("a", "sepia", "")})
	require.Error(t, err)
	assert.True(t, IsValidation(err))
	var unknown *algorithms.UnknownKindError
	assert.True(t, errors.As(err, &unknown))
}

func TestRun_InvalidSource(t *testing.T) {
	_, err := Run(&imaging.Raster{Width: 3, Height: 3}, []Step{step("a", algorithms.Jitter, "")})
	require.Error(t, err)
	assert.True(t, IsProcessing(err))
	assert.True(t, errors.Is(err, imaging.ErrInvalidRaster))
}

func TestRun_DisabledSteps(t *testing.T) {
	disabled := step("a", algorithms.EdgeDetect, "")
	disabled.Enabled = false

	out, err := Run(noise(8, 8), []Step{disabled, step("b", algorithms.DitherAtkinson, "")})
	require.NoError(t, err)
	assert.Equal(t, 1, out.StepsProcessed)
	assert.Equal(t, "b", out.LastStep)

	_, err = Run(noise(8, 8), []Step{disabled, step("b", algorithms.DitherAtkinson, "a")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownInput))
	id, _ := FailedStep(err)
	assert.Equal(t, "b", id)
}

func TestRun_AllDisabledReturnsSource(t *testing.T) {
	src := noise(5, 5)
	s := step("a", algorithms.Jitter, "")
	s.Enabled = false

	out, err := Run(src, []Step{s})
	require.NoError(t, err)
	assert.Equal(t, 0, out.StepsProcessed)
	assert.Equal(t, OriginalKey, out.LastStep)
	assert.Equal(t, src.Pix, out.Raster.Pix)
}

func TestRun_ChainsAndBlends(t *testing.T) {
	src := noise(32, 32)
	before := src.Clone()

	steps := []Step{
		step("pixels", algorithms.NearestNeighbor, ""),
		{
			ID: "edges", Algorithm: algorithms.EdgeDetect, InputSource: "pixels", Enabled: true,
			BlendWith: &BlendWith{StepID: "pixels", Mode: blend.Multiply, Opacity: 0},
		},
	}

	out, err := Run(src, steps)
	require.NoError(t, err)
	assert.Equal(t, 2, out.StepsProcessed)
	assert.Equal(t, before.Pix, src.Pix, "source untouched")

	// Zero opacity leaves the blend base, the pixelated image.
	pixels, err := algorithms.Apply(algorithms.NearestNeighbor, src, nil)
	require.NoError(t, err)
	assert.Equal(t, pixels.Pix, out.Raster.Pix)

	steps[1].BlendWith.Mode = blend.Normal
	steps[1].BlendWith.Opacity = 1
	out, err = Run(src, steps)
	require.NoError(t, err)
	edges, err := algorithms.Apply(algorithms.EdgeDetect, pixels, nil)
	require.NoError(t, err)
	assert.Equal(t, edges.Pix, out.Raster.Pix)
}

func TestFit(t *testing.T) {
	r := imaging.NewRaster(2, 1)
	copy(r.Pix, []byte{255, 0, 0, 255, 0, 0, 255, 255})

	got := fit(r, 4, 2)
	require.NoError(t, got.Validate())
	assert.Equal(t, []byte{255, 0, 0, 255}, got.Pix[got.Offset(1, 1):got.Offset(1, 1)+4])
	assert.Equal(t, []byte{0, 0, 255, 255}, got.Pix[got.Offset(2, 0):got.Offset(2, 0)+4])
}

func TestFit_KeepsStraightColour(t *testing.T) {
	r := imaging.NewRaster(2, 2)
	for i := 0; i < len(r.Pix); i += 4 {
		copy(r.Pix[i:], []byte{200, 100, 50, 3})
	}

	got := fit(r, 4, 4)
	require.NoError(t, got.Validate())
	for i := 0; i < len(got.Pix); i += 4 {
		require.Equal(t, []byte{200, 100, 50, 3}, got.Pix[i:i+4], "pixel %d", i/4)
	}
}
