package mcts

import (
	"fmt"
	"strconv"

	"github.com/awalterschulze/gographviz"
	"github.com/cortexo/zerocore/game"
)

// Tree is a read-only, DOT-exportable snapshot of one finished Search
// call's internal tree, returned by SearchDebug for visual inspection.
// It is grounded on the teacher's MCTS.ToDot (mcts/graph.go), generalized
// from a fixed board-rendering template to a small numeric label any
// game.Game's node can carry.
type Tree[G game.Game] struct {
	inner *tree[G]
}

// DOT renders the tree as a Graphviz DOT document named name. Each node is
// labeled with its visit count and Q value; each edge is labeled with the
// action it represents.
func (t *Tree[G]) DOT(name string) (string, error) {
	g := gographviz.NewGraph()
	if err := g.SetName(name); err != nil {
		return "", err
	}
	g.SetDir(true)

	for i := range t.inner.nodes {
		n := &t.inner.nodes[i]
		attrs := map[string]string{
			"label": strconv.Quote(fmt.Sprintf("N=%d Q=%.3f", n.N(), n.Q())),
		}
		if err := g.AddNode(name, strconv.Itoa(i), attrs); err != nil {
			return "", err
		}
	}
	for i := range t.inner.nodes {
		n := &t.inner.nodes[i]
		if n.parent == nilNode {
			continue
		}
		attrs := map[string]string{"label": strconv.Quote(strconv.Itoa(n.action))}
		if err := g.AddEdge(strconv.Itoa(int(n.parent)), strconv.Itoa(i), true, attrs); err != nil {
			return "", err
		}
	}
	return g.String(), nil
}
