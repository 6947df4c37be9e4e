package model

import (
	"bytes"
	"encoding/gob"

	"github.com/cortexo/zerocore/game"
	"github.com/pkg/errors"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Float is the numeric type every BaseModel graph is built over.
var Float = G.Float32

// LogitProducer is the differentiable "logit producer" named in spec.md
// §1/§4.2: the seam at which a real neural network (conv stacks,
// residual blocks, batch norm, ... — all explicitly out of scope for this
// core) plugs into BaseModel. Forward must emit exactly PolicyLen()+1
// logits per example: index 0 is the pre-tanh value logit, indices
// 1..PolicyLen() are the pre-softmax policy logits.
type LogitProducer interface {
	Forward(g *G.ExprGraph, input *G.Node) (logits *G.Node, err error)
	Params() G.Nodes
	// Fresh returns a new, unbuilt instance with the same configuration
	// but no parameter nodes bound to any graph, so Copy can give a
	// clone its own torso rather than sharing nodes across graphs.
	Fresh() LogitProducer
}

// BaseModelConfig configures BaseModel's graph shape.
type BaseModelConfig struct {
	Height, Width, Channels int
	PolicyLen               int
	BatchSize               int
	L2 float64 // weight of the regularization term in spec.md §4.7
}

func (c BaseModelConfig) IsValid() bool {
	return c.Height > 0 && c.Width > 0 && c.Channels > 0 && c.PolicyLen >= 1 && c.BatchSize >= 1
}

// BaseModel is the trainable Model: it wires a LogitProducer's L+1 logits
// into a tanh value head and a softmax policy head, mirroring the
// teacher's dualnet.Dual's fwd/bwd/Model/Clone/GobEncode split, but with
// the convolutional torso itself injected rather than hard-coded.
type BaseModel[G_ game.Game] struct {
	BaseModelConfig
	torso LogitProducer
	enc   func(G_) *tensor.Dense

	g      *G.ExprGraph
	planes *G.Node
	piIn   *G.Node // training-time policy target
	vIn    *G.Node // training-time value target

	valueOut  *G.Node
	policyOut *G.Node
	cost      *G.Node

	valueVal  G.Value
	policyVal G.Value
	costVal   G.Value

	zeroPolicy *tensor.Dense // bound to piIn during inference-only RunAll calls
	zeroValue  *tensor.Dense // bound to vIn during inference-only RunAll calls
}

var _ Model[game.Game] = &BaseModel[game.Game]{}

// NewBaseModel constructs an uninitialized BaseModel. Call Init before use.
func NewBaseModel[G_ game.Game](conf BaseModelConfig, torso LogitProducer, enc func(G_) *tensor.Dense) *BaseModel[G_] {
	return &BaseModel[G_]{BaseModelConfig: conf, torso: torso, enc: enc}
}

// Init builds the computation graph. It must be called once before Apply
// or training.
func (m *BaseModel[G_]) Init() error {
	m.g = G.NewGraph()
	m.planes = G.NewTensor(m.g, Float, 4, G.WithShape(m.BatchSize, m.Channels, m.Height, m.Width), G.WithName("planes"))

	logits, err := m.torso.Forward(m.g, m.planes)
	if err != nil {
		return errors.Wrap(err, "model: torso forward failed")
	}
	if logits.Shape()[1] != m.PolicyLen+1 {
		return errors.Wrapf(ErrShapeMismatch, "model: torso produced %d logits, want %d (policyLen+1)", logits.Shape()[1], m.PolicyLen+1)
	}

	valueLogit, err := G.Slice(logits, nil, G.S(0, 1))
	if err != nil {
		return errors.Wrap(err, "model: slicing value logit")
	}
	policyLogits, err := G.Slice(logits, nil, G.S(1, m.PolicyLen+1))
	if err != nil {
		return errors.Wrap(err, "model: slicing policy logits")
	}

	if m.valueOut, err = G.Tanh(valueLogit); err != nil {
		return errors.Wrap(err, "model: value activation")
	}
	if m.policyOut, err = G.SoftMax(policyLogits); err != nil {
		return errors.Wrap(err, "model: policy activation")
	}
	G.Read(m.valueOut, &m.valueVal)
	G.Read(m.policyOut, &m.policyVal)

	return m.initBackward()
}

func (m *BaseModel[G_]) initBackward() error {
	m.piIn = G.NewMatrix(m.g, Float, G.WithShape(m.BatchSize, m.PolicyLen), G.WithName("targetPolicy"))
	m.vIn = G.NewVector(m.g, Float, G.WithShape(m.BatchSize), G.WithName("targetValue"))
	m.zeroPolicy = tensor.New(tensor.WithShape(m.BatchSize, m.PolicyLen), tensor.Of(tensor.Float32))
	m.zeroValue = tensor.New(tensor.WithShape(m.BatchSize), tensor.Of(tensor.Float32))

	const eps = 1e-8
	logPolicy, err := G.Log(G.Must(G.Add(m.policyOut, G.NewConstant(float32(eps)))))
	if err != nil {
		return errors.Wrap(err, "model: log(policy+eps)")
	}
	xent := G.Must(G.HadamardProd(m.piIn, logPolicy))
	xent = G.Must(G.Sum(xent, 1))
	xent = G.Must(G.Neg(xent))
	policyCost := G.Must(G.Mean(xent))

	valueFlat, err := G.Reshape(m.valueOut, tensor.Shape{m.BatchSize})
	if err != nil {
		return errors.Wrap(err, "model: reshape value output")
	}
	diff := G.Must(G.Sub(valueFlat, m.vIn))
	valueCost := G.Must(G.Mean(G.Must(G.Square(diff))))

	total := G.Must(G.Add(policyCost, valueCost))
	if m.L2 > 0 {
		l2 := m.l2Penalty()
		if l2 != nil {
			scaled := G.Must(G.Mul(l2, G.NewConstant(float32(m.L2))))
			total = G.Must(G.Add(total, scaled))
		}
	}
	m.cost = total
	G.Read(m.cost, &m.costVal)

	if _, err := G.Grad(m.cost, m.torso.Params()...); err != nil {
		return errors.Wrap(err, "model: backward pass")
	}
	return nil
}

func (m *BaseModel[G_]) l2Penalty() *G.Node {
	var sum *G.Node
	for _, p := range m.torso.Params() {
		sq := G.Must(G.Sum(G.Must(G.Square(p))))
		if sum == nil {
			sum = sq
			continue
		}
		sum = G.Must(G.Add(sum, sq))
	}
	return sum
}

// Apply runs one state through the graph via ApplyBatch, which pads the
// rest of the configured BatchSize with zeroed planes.
func (m *BaseModel[G_]) Apply(g G_) (Prediction, error) {
	preds, err := m.ApplyBatch([]G_{g})
	if err != nil {
		return Prediction{}, err
	}
	return preds[0], nil
}

// ApplyBatch runs len(gs) states through the graph, padding up to
// BatchSize with zeroed planes if necessary and trimming the result back
// down, mirroring dualnet.Inferencer's fixed-batch-size inference path.
func (m *BaseModel[G_]) ApplyBatch(gs []G_) ([]Prediction, error) {
	if len(gs) == 0 {
		return nil, nil
	}
	if len(gs) > m.BatchSize {
		return nil, errors.Wrapf(ErrShapeMismatch, "model: batch of %d exceeds configured BatchSize %d", len(gs), m.BatchSize)
	}

	data := make([]float32, m.BatchSize*m.Channels*m.Height*m.Width)
	stride := m.Channels * m.Height * m.Width
	for i, g := range gs {
		rep := m.enc(g)
		rd, ok := rep.Data().([]float32)
		if !ok {
			return nil, errors.Wrap(ErrShapeMismatch, "model: representation is not backed by []float32")
		}
		if len(rd) != stride {
			return nil, errors.Wrapf(ErrShapeMismatch, "model: representation has %d elements, want %d", len(rd), stride)
		}
		copy(data[i*stride:(i+1)*stride], rd)
	}
	input := tensor.New(tensor.WithShape(m.BatchSize, m.Channels, m.Height, m.Width), tensor.WithBacking(data))

	vm := G.NewTapeMachine(m.g)
	defer vm.Close()
	if err := G.Let(m.planes, input); err != nil {
		return nil, errors.Wrap(err, "model: binding input")
	}
	// Init builds one combined graph carrying both the forward heads and
	// the training cost/gradient nodes, so the tape machine still walks
	// the cost subgraph on every RunAll; bind it to zeros rather than
	// split the graph in two, since no training target exists yet.
	if err := G.Let(m.piIn, m.zeroPolicy); err != nil {
		return nil, errors.Wrap(err, "model: binding zeroed policy target")
	}
	if err := G.Let(m.vIn, m.zeroValue); err != nil {
		return nil, errors.Wrap(err, "model: binding zeroed value target")
	}
	if err := vm.RunAll(); err != nil {
		return nil, errors.Wrap(err, "model: forward pass")
	}
	vm.Reset()

	policyData := m.policyVal.Data().([]float32)
	valueData := m.valueVal.Data().([]float32)

	out := make([]Prediction, len(gs))
	for i := range gs {
		policy := make([]float32, m.PolicyLen)
		copy(policy, policyData[i*m.PolicyLen:(i+1)*m.PolicyLen])
		out[i] = Prediction{Value: valueData[i], Policy: policy}
	}
	return out, nil
}

func (m *BaseModel[G_]) Swap() (Model[G_], error) { return m, nil }

func (m *BaseModel[G_]) Copy() Model[G_] {
	clone := NewBaseModel(m.BaseModelConfig, m.torso.Fresh(), m.enc)
	if err := clone.Init(); err != nil {
		panic(errors.Wrap(err, "model: Copy failed to Init"))
	}
	src := m.torso.Params()
	dst := clone.torso.Params()
	for i, p := range src {
		G.Let(dst[i], p.Value())
	}
	return clone
}

func (m *BaseModel[G_]) BaseModel() Model[G_]     { return m }
func (m *BaseModel[G_]) PlayingModel() Model[G_]  { return m }
func (m *BaseModel[G_]) TrainingModel() Model[G_] { return m }
func (m *BaseModel[G_]) NTasks() int              { return 1 }
func (m *BaseModel[G_]) Features() []FeatureDescriptor { return nil }

// Params exposes the torso's trainable parameters for a train.Step call.
func (m *BaseModel[G_]) Params() G.Nodes { return m.torso.Params() }

// Graph exposes the underlying expression graph for a train.Step call.
func (m *BaseModel[G_]) Graph() *G.ExprGraph { return m.g }

// Bind sets the training targets for the next VM run.
func (m *BaseModel[G_]) Bind(planes, policy, value *tensor.Dense) error {
	if err := G.Let(m.planes, planes); err != nil {
		return err
	}
	if err := G.Let(m.piIn, policy); err != nil {
		return err
	}
	return G.Let(m.vIn, value)
}

// Cost returns the last-computed scalar training cost.
func (m *BaseModel[G_]) Cost() float32 {
	if m.costVal == nil {
		return 0
	}
	return m.costVal.Data().(float32)
}

// GobEncode serializes only the trainable parameters, in torso.Params()
// order, mirroring dualnet.Dual.GobEncode.
func (m *BaseModel[G_]) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	for _, n := range m.torso.Params() {
		v := n.Value()
		if err := enc.Encode(&v); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// GobDecode restores parameters into an already-Init'd model, mirroring
// dualnet.Dual.GobDecode.
func (m *BaseModel[G_]) GobDecode(data []byte) error {
	buf := bytes.NewBuffer(data)
	dec := gob.NewDecoder(buf)
	for _, n := range m.torso.Params() {
		var v G.Value
		if err := dec.Decode(&v); err != nil {
			return err
		}
		if err := G.Let(n, v); err != nil {
			return err
		}
	}
	return nil
}
