package pipeline

import (
	"bytes"
	"encoding/json"

	"github.com/ironsheep/pixelator-mcp/internal/algorithms"
	"github.com/ironsheep/pixelator-mcp/internal/blend"
)

// OriginalKey names the normalized source image in the execution context.
const OriginalKey = "original"

// MaxSteps is the largest pipeline accepted by Validate.
const MaxSteps = 20

// BlendWith composites a step's output over an earlier result.
type BlendWith struct {
	// StepID names the result used as the blend base.
	StepID string `json:"stepId"`

	Mode blend.Mode `json:"mode"`

	// Opacity of the step's own output, in [0,1]. Defaults to 1.
	Opacity float64 `json:"opacity"`
}

// UnmarshalJSON applies the opacity default.
func (b *BlendWith) UnmarshalJSON(data []byte) error {
	type plain BlendWith
	v := plain{Opacity: 1}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*b = BlendWith(v)
	return nil
}

// Step is one algorithm invocation in a pipeline.
type Step struct {
	ID        string            `json:"id"`
	Algorithm algorithms.Kind   `json:"algorithm"`
	Params    algorithms.Params `json:"params,omitempty"`

	// InputSource is "original" or the id of an earlier enabled step.
	// Empty means "original".
	InputSource string `json:"inputSource,omitempty"`

	BlendWith *BlendWith `json:"blendWith,omitempty"`

	// Enabled defaults to true when absent from JSON. Disabled steps are
	// skipped and never produce a result.
	Enabled bool   `json:"enabled"`
	Label   string `json:"label,omitempty"`
}

// UnmarshalJSON applies the enabled default.
func (s *Step) UnmarshalJSON(data []byte) error {
	type plain Step
	v := plain{Enabled: true}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*s = Step(v)
	return nil
}

// Input returns the resolved input key.
func (s Step) Input() string {
	if s.InputSource == "" {
		return OriginalKey
	}
	return s.InputSource
}

// Pipeline is the JSON envelope for a list of steps.
type Pipeline struct {
	Steps []Step `json:"steps"`
}

// ParseSteps decodes either {"steps": [...]} or a bare step array.
func ParseSteps(data []byte) ([]Step, error) {
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		var steps []Step
		if err := json.Unmarshal(trimmed, &steps); err != nil {
			return nil, err
		}
		return steps, nil
	}
	var p Pipeline
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return p.Steps, nil
}
