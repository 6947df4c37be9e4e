package model

import (
	"github.com/pkg/errors"
	G "gorgonia.org/gorgonia"
)

// LinearTorso is the minimal LogitProducer: it flattens the input planes
// and applies a single dense layer straight to PolicyLen()+1 logits. It
// exists to exercise BaseModel end to end; a real deployment would inject
// a convolutional/residual torso in its place (out of scope here per
// spec.md §1).
type LinearTorso struct {
	Height, Width, Channels int
	Outputs                 int // PolicyLen + 1

	w *G.Node
	b *G.Node
}

// NewLinearTorso builds an uninitialized torso; its parameters are bound
// to the graph on first Forward call.
func NewLinearTorso(height, width, channels, outputs int) *LinearTorso {
	return &LinearTorso{Height: height, Width: width, Channels: channels, Outputs: outputs}
}

func (t *LinearTorso) Forward(g *G.ExprGraph, input *G.Node) (*G.Node, error) {
	batch := input.Shape()[0]
	flatWidth := t.Channels * t.Height * t.Width

	flat, err := G.Reshape(input, []int{batch, flatWidth})
	if err != nil {
		return nil, errors.Wrap(err, "linearTorso: reshape")
	}

	if t.w == nil {
		t.w = G.NewMatrix(g, Float, G.WithShape(flatWidth, t.Outputs), G.WithInit(G.GlorotN(1.0)), G.WithName("torso_w"))
		t.b = G.NewVector(g, Float, G.WithShape(t.Outputs), G.WithInit(G.Zeroes()), G.WithName("torso_b"))
	}

	xw, err := G.Mul(flat, t.w)
	if err != nil {
		return nil, errors.Wrap(err, "linearTorso: matmul")
	}
	out, err := G.BroadcastAdd(xw, t.b, nil, []byte{0})
	if err != nil {
		return nil, errors.Wrap(err, "linearTorso: bias add")
	}
	return out, nil
}

func (t *LinearTorso) Params() G.Nodes {
	if t.w == nil {
		return nil
	}
	return G.Nodes{t.w, t.b}
}

// Fresh returns a new, unbuilt torso with the same configuration but no
// parameter nodes, so its first Forward call builds nodes on whichever
// graph it's given rather than reusing nodes from t's graph.
func (t *LinearTorso) Fresh() LogitProducer {
	return NewLinearTorso(t.Height, t.Width, t.Channels, t.Outputs)
}
