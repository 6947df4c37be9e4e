package mcts

import (
	"sync"

	"github.com/chewxy/math32"
	"github.com/cortexo/zerocore/game"
	"github.com/cortexo/zerocore/internal/xrand"
	"github.com/cortexo/zerocore/model"
	"gorgonia.org/vecf32"
)

// tree is the arena-backed search tree for one Search call, grounded on
// the teacher's MCTS/Node/naughty split (mcts/mcts.go, mcts/node.go) but
// collapsed to a single mutex guarding all mutation, as spec.md §5 permits
// ("a single mutex or single-threaded event loop" in place of the
// teacher's per-field atomics). The mutex is released only while a
// model.Apply call is in flight, which is the sole suspension point in a
// simulation.
type tree[G game.Game] struct {
	mu    sync.Mutex
	nodes []node

	m           model.Model[G]
	exploration float32
	dilution    float32
}

const rootIdx int32 = 0

func newTree[G game.Game](root G, m model.Model[G], exploration, dilution float32) *tree[G] {
	t := &tree[G]{
		m:           m,
		exploration: exploration,
		dilution:    dilution,
	}
	t.nodes = append(t.nodes, node{parent: nilNode, action: -1, state: root, prior: 1})
	return t
}

func (t *tree[G]) alloc(state game.Game, parent int32, action int, prior float32) int32 {
	t.nodes = append(t.nodes, node{parent: parent, action: action, state: state, prior: prior})
	return int32(len(t.nodes) - 1)
}

// selectChild runs the PUCT comparison of spec.md §4.5,
//
//	U(s,a) = Q(s,a) + c*P(s,a)*sqrt(N(s))/(1+N(s,a))
//
// over idx's children and returns the argmax child index. Grounded on the
// teacher's Node.Select (mcts/node.go), generalized from Go-specific
// first-play-urgency handling to a plain Q=0 prior for unvisited children.
func (t *tree[G]) selectChild(idx int32) int32 {
	n := &t.nodes[idx]
	sqrtParent := math32.Sqrt(float32(n.N()))

	var best int32 = nilNode
	var bestScore float32 = math32.Inf(-1)
	for _, c := range n.children {
		cn := &t.nodes[c]
		u := t.exploration * cn.prior * sqrtParent / (1 + float32(cn.N()))
		score := cn.Q() + u
		if score > bestScore {
			bestScore = score
			best = c
		}
	}
	return best
}

// expand turns leaf idx into an internal node: one child per legal action,
// with priors taken from pred.Policy (masked to legal actions and
// renormalized by model.MaskAndNormalize). The root, and only the root, is
// further diluted toward a uniform distribution by t.dilution, per
// spec.md §4.5's exploration-at-the-root knob.
func (t *tree[G]) expand(idx int32, pred model.Prediction, legal []int) {
	n := &t.nodes[idx]
	policy := model.MaskAndNormalize(pred.Policy, legal)
	if idx == rootIdx && t.dilution > 0 {
		policy = dilute(policy, legal, t.dilution)
	}

	n.children = make([]int32, len(legal))
	for i, a := range legal {
		child, err := n.state.Apply(a)
		if err != nil {
			panic(err) // a is drawn from n.state.LegalActions(); Apply must accept it
		}
		n.children[i] = t.alloc(child, idx, a, policy[a])
	}
	n.expanded = true
}

// dilute mixes policy with a uniform distribution over legal, weighted by
// amount (0 disables the effect, 1 discards the model's prior entirely).
// The (1-amount) scaling pass runs over the whole slice via vecf32.Scale,
// the same in-place SIMD scale the teacher uses to negate a board plane
// (encoding_helper.go's encodeWhite).
func dilute(policy []float32, legal []int, amount float32) []float32 {
	out := make([]float32, len(policy))
	copy(out, policy)
	vecf32.Scale(out, 1-amount)

	share := amount / float32(len(legal))
	for _, a := range legal {
		out[a] += share
	}
	return out
}

// backup walks from leaf to the real root, crediting each edge's valueSum
// from its parent's perspective and flipping sign at every ply boundary
// (players alternate every move). leafValue is the model's (or terminal
// outcome's) value from the leaf state's own current-player perspective.
// Outstanding virtual loss is reverted along the way, except at the real
// root (index 0), which is never charged virtual loss in the first place
// since selectChild only charges the node being MOVED INTO.
func (t *tree[G]) backup(leaf int32, leafValue float32) {
	v := -leafValue
	idx := leaf
	for idx != nilNode {
		n := &t.nodes[idx]
		n.visitCount++
		n.valueSum += v
		if idx != rootIdx && n.virtualLoss > 0 {
			n.virtualLoss--
		}
		v = -v
		idx = n.parent
	}
}

// revertVirtualLossPath undoes the virtual loss charged while descending
// to idx, without touching visitCount/valueSum. Used when a simulation
// aborts (model error, or a race where another goroutine already expanded
// the same leaf) before it can call backup.
func (t *tree[G]) revertVirtualLossPath(idx int32) {
	for idx != nilNode {
		if idx != rootIdx && t.nodes[idx].virtualLoss > 0 {
			t.nodes[idx].virtualLoss--
		}
		idx = t.nodes[idx].parent
	}
}

// rootChildVisits returns a map from each expanded root child's action to
// the real (non-virtual) visit count of that child; actions with no child
// yet are absent and read as 0. Used by policy extraction.
func (t *tree[G]) rootChildVisits(legal []int) map[int]int32 {
	out := make(map[int]int32, len(legal))
	root := &t.nodes[rootIdx]
	for _, c := range root.children {
		cn := &t.nodes[c]
		out[cn.action] = cn.visitCount
	}
	return out
}

// shuffleLegal returns a copy of legal in a random order, used to break
// ties uniformly rather than always favoring the first action returned by
// LegalActions when extracting a deterministic (temperature 0) policy.
func shuffleLegal(legal []int) []int {
	out := make([]int, len(legal))
	copy(out, legal)
	xrand.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}
