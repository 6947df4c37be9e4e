package mcts

import "github.com/cortexo/zerocore/game"

// nilNode marks the absence of a child/parent link in the arena, mirroring
// the teacher's naughty sentinel for "no such node" (mcts/naughty.go).
const nilNode int32 = -1

// node is one arena slot, addressed by its index rather than a pointer, per
// Design Note 9's "tree as arena + index" guidance and grounded on the
// teacher's Node/naughty split. visitCount, valueSum and prior describe the
// edge leading INTO this node from its parent: they are the N(s,a), W(s,a)
// and P(s,a) of the PUCT formula for the action the parent took to reach
// this node. valueSum is always accumulated from the PARENT's
// current-player perspective, so Q = valueSum/visitCount is directly
// usable by the parent's selection step without any further sign flip.
type node struct {
	parent   int32
	action   int
	children []int32

	state game.Game

	prior       float32
	visitCount  int32
	valueSum    float32
	virtualLoss int32

	expanded bool
	terminal bool
	outcome  game.Status
}

// Q returns the mean backed-up value of this edge from the parent's
// perspective, including outstanding virtual loss (spec.md §4.5's
// virtual-loss-during-selection requirement: a loss of 1 is charged per
// in-flight visit and reverted on backup).
func (n *node) Q() float32 {
	visits := n.visitCount + n.virtualLoss
	if visits == 0 {
		return 0
	}
	return (n.valueSum - float32(n.virtualLoss)) / float32(visits)
}

// N is the effective visit count used by PUCT's exploration term: real
// visits plus any outstanding virtual loss, so concurrent traversals repel
// each other toward different children.
func (n *node) N() int32 {
	return n.visitCount + n.virtualLoss
}

func (n *node) isLeaf() bool {
	return !n.expanded
}
