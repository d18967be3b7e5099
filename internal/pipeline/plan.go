package pipeline

import (
	"io"

	"github.com/dominikbraun/graph"
	"github.com/dominikbraun/graph/draw"
	"github.com/pkg/errors"
)

// Edge labels in a Plan.
const (
	edgeInput = "input"
	edgeBlend = "blend"
)

// Plan is the dependency graph of a validated pipeline: the source image
// and every enabled step are vertices, and each input or blend reference is
// an edge from the producer to the consumer.
//
// Steps run in list order, so a step may only reference results inserted
// before it. NewPlan reports forward references, references to disabled
// steps and unknown ids as validation errors naming the referring step.
type Plan struct {
	g     graph.Graph[string, string]
	order []string
}

// NewPlan validates steps and builds their dependency graph.
func NewPlan(steps []Step) (*Plan, error) {
	if err := Validate(steps); err != nil {
		return nil, err
	}

	index := make(map[string]int, len(steps))
	for i, s := range steps {
		index[s.ID] = i
	}

	p := &Plan{
		g:     graph.New(graph.StringHash, graph.Directed(), graph.Acyclic()),
		order: []string{OriginalKey},
	}
	if err := p.g.AddVertex(OriginalKey, graph.VertexAttribute("shape", "box")); err != nil {
		return nil, errors.Wrap(err, "unable to add vertex")
	}

	for _, s := range steps {
		if !s.Enabled {
			continue
		}
		if err := p.g.AddVertex(s.ID, graph.VertexAttribute("label", vertexLabel(s))); err != nil {
			return nil, errors.Wrap(err, "unable to add vertex")
		}
		p.order = append(p.order, s.ID)

		if err := p.link(steps, index, s, s.Input(), edgeInput); err != nil {
			return nil, err
		}
		if s.BlendWith != nil {
			if err := p.link(steps, index, s, s.BlendWith.StepID, edgeBlend); err != nil {
				return nil, err
			}
		}
	}
	return p, nil
}

func vertexLabel(s Step) string {
	if s.Label != "" {
		return s.Label + `\n` + string(s.Algorithm)
	}
	return s.ID + `\n` + string(s.Algorithm)
}

func (p *Plan) link(steps []Step, index map[string]int, s Step, from, kind string) error {
	cause := ErrUnknownInput
	if kind == edgeBlend {
		cause = ErrUnknownBlendSource
	}

	if from == s.ID {
		return validationError(s.ID, errors.Wrap(cause, "references itself"))
	}

	err := p.g.AddEdge(from, s.ID, graph.EdgeAttribute("label", kind))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, graph.ErrEdgeAlreadyExists):
		// Input and blend both read the same result.
		return p.g.UpdateEdge(from, s.ID, graph.EdgeAttribute("label", edgeInput+"+"+edgeBlend))
	case errors.Is(err, graph.ErrVertexNotFound):
		i, known := index[from]
		switch {
		case !known:
			return validationError(s.ID, errors.Wrapf(cause, "references %q", from))
		case !steps[i].Enabled:
			return validationError(s.ID, errors.Wrapf(cause, "references disabled step %q", from))
		default:
			return validationError(s.ID, errors.Wrapf(cause, "references later step %q", from))
		}
	default:
		return errors.Wrapf(err, "unable to add edge from %s to %s", from, s.ID)
	}
}

// Order returns "original" followed by the enabled step ids in run order.
func (p *Plan) Order() []string {
	out := make([]string, len(p.order))
	copy(out, p.order)
	return out
}

// Dependencies returns the ids a step reads, in run order.
func (p *Plan) Dependencies(id string) ([]string, error) {
	preds, err := p.g.PredecessorMap()
	if err != nil {
		return nil, errors.Wrap(err, "unable to get predecessor map")
	}
	in, ok := preds[id]
	if !ok {
		return nil, errors.Wrapf(graph.ErrVertexNotFound, "%q", id)
	}
	var out []string
	for _, v := range p.order {
		if _, ok := in[v]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}

// Unused returns enabled steps, other than the last, whose result no later
// step reads. Their work does not reach the final image.
func (p *Plan) Unused() ([]string, error) {
	adj, err := p.g.AdjacencyMap()
	if err != nil {
		return nil, errors.Wrap(err, "unable to get adjacency map")
	}
	if len(p.order) < 3 {
		return nil, nil
	}
	var out []string
	for _, id := range p.order[1 : len(p.order)-1] {
		if len(adj[id]) == 0 {
			out = append(out, id)
		}
	}
	return out, nil
}

// WriteDOT renders the plan in Graphviz DOT format.
func (p *Plan) WriteDOT(w io.Writer) error {
	if err := draw.DOT(p.g, w, draw.GraphAttribute("rankdir", "LR")); err != nil {
		return errors.Wrap(err, "unable to render plan")
	}
	return nil
}
